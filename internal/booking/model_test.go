package booking

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBucketByDate(t *testing.T) {
	bookings := []Booking{
		{ID: "b1", BookingDate: "2026-09-02", BookingTime: "14:00"},
		{ID: "b2", BookingDate: "2026-09-01", BookingTime: "10:00"},
		{ID: "b3", BookingDate: "2026-09-02", BookingTime: "09:00"},
	}

	buckets := BucketByDate(bookings)

	assert.Len(t, buckets, 2)
	assert.Len(t, buckets["2026-09-01"], 1)

	day := buckets["2026-09-02"]
	assert.Len(t, day, 2)
	assert.Equal(t, "b3", day[0].ID)
	assert.Equal(t, "b1", day[1].ID)
}

func TestBucketByDateEmpty(t *testing.T) {
	assert.Empty(t, BucketByDate(nil))
}
