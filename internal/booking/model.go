package booking

import (
	"sort"
	"time"
)

const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusRejected  = "rejected"
	StatusCancelled = "cancelled"
	StatusCompleted = "completed"
)

type Booking struct {
	ID              string    `json:"id"`
	ClientID        string    `json:"client_id"`
	CompanyID       string    `json:"company_id"`
	ServiceID       *string   `json:"service_id,omitempty"`
	ServiceTitle    string    `json:"service_title"`
	ServicePrice    *int64    `json:"service_price,omitempty"`
	BookingDate     string    `json:"booking_date"`
	BookingTime     string    `json:"booking_time"`
	DurationMinutes int       `json:"duration_minutes"`
	Status          string    `json:"status"`
	CreatedAt       time.Time `json:"created_at"`

	// Joined for listing views.
	ClientName  string `json:"client_name,omitempty"`
	CompanyName string `json:"company_name,omitempty"`
}

// CalendarBucket groups a month view's bookings under their ISO date.
type CalendarBucket map[string][]Booking

// BucketByDate folds a flat booking list into per-date buckets, keeping
// each day's entries ordered by start time.
func BucketByDate(bookings []Booking) CalendarBucket {
	buckets := make(CalendarBucket)
	for _, b := range bookings {
		buckets[b.BookingDate] = append(buckets[b.BookingDate], b)
	}
	for date := range buckets {
		day := buckets[date]
		sort.SliceStable(day, func(i, j int) bool { return day[i].BookingTime < day[j].BookingTime })
	}
	return buckets
}
