package company

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func workWeek() *WeekSchedule {
	return &WeekSchedule{
		Days: map[string]DaySchedule{
			"monday": {Start: "09:00", End: "12:00", Active: true},
			"tuesday": {
				Start: "09:00", End: "18:00", Active: true,
				HasBreak: true, BreakStart: "12:00", BreakEnd: "14:00",
			},
			"sunday": {Start: "09:00", End: "18:00", Active: false},
		},
	}
}

// 2026-08-31 is a Monday.
var monday = time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC)

func TestGenerateTimeSlotsFitWithinWindow(t *testing.T) {
	// 60-minute appointments in a 3-hour window: last start is 11:00.
	slots := GenerateTimeSlots("09:00", "12:00", 60)
	assert.Equal(t, []string{"09:00", "09:30", "10:00", "10:30", "11:00"}, slots)

	// A slot longer than the window yields nothing.
	assert.Empty(t, GenerateTimeSlots("09:00", "10:00", 90))
}

func TestSlotsForDateInactiveDay(t *testing.T) {
	sunday := monday.AddDate(0, 0, -1)
	assert.Empty(t, SlotsForDate(sunday, workWeek(), 30, nil))
	assert.Empty(t, SlotsForDate(monday, nil, 30, nil))
}

func TestSlotsForDateSplitsAroundBreak(t *testing.T) {
	tuesday := monday.AddDate(0, 0, 1)
	slots := SlotsForDate(tuesday, workWeek(), 60, nil)

	assert.Contains(t, slots, "09:00")
	assert.Contains(t, slots, "11:00") // ends exactly at break start
	assert.NotContains(t, slots, "11:30")
	assert.NotContains(t, slots, "12:00")
	assert.NotContains(t, slots, "13:30")
	assert.Contains(t, slots, "14:00")
	assert.Contains(t, slots, "17:00")
	assert.NotContains(t, slots, "17:30")
}

func TestSlotsForDateExcludesBookedBlocks(t *testing.T) {
	booked := []BookedBlock{{Time: "10:00", DurationMinutes: 60}}
	slots := SlotsForDate(monday, workWeek(), 30, booked)

	assert.Contains(t, slots, "09:00")
	assert.Contains(t, slots, "09:30")
	assert.NotContains(t, slots, "10:00")
	assert.NotContains(t, slots, "10:30")
	assert.Contains(t, slots, "11:00")
}

func TestSlotsForDateOverlapNotJustExactMatch(t *testing.T) {
	// A 60-minute slot starting 09:30 runs into a block at 10:00.
	booked := []BookedBlock{{Time: "10:00", DurationMinutes: 30}}
	slots := SlotsForDate(monday, workWeek(), 60, booked)

	assert.Contains(t, slots, "09:00")
	assert.NotContains(t, slots, "09:30")
	assert.NotContains(t, slots, "10:00")
	assert.Contains(t, slots, "10:30")
}

func TestIsDayActive(t *testing.T) {
	assert.True(t, IsDayActive(monday, workWeek()))
	assert.False(t, IsDayActive(monday.AddDate(0, 0, -1), workWeek()))
	assert.True(t, IsDayActive(monday, nil))
	// Unconfigured weekday counts as closed.
	assert.False(t, IsDayActive(monday.AddDate(0, 0, 2), workWeek()))
}

func TestWeekScheduleJSONRoundTrip(t *testing.T) {
	week := workWeek()
	week.WorksOnHolidays = true

	blob, err := json.Marshal(week)
	require.NoError(t, err)

	var decoded WeekSchedule
	require.NoError(t, json.Unmarshal(blob, &decoded))
	assert.True(t, decoded.WorksOnHolidays)
	assert.Equal(t, week.Days["tuesday"], decoded.Days["tuesday"])
	_, hasFlagAsDay := decoded.Days["worksOnHolidays"]
	assert.False(t, hasFlagAsDay)
}

func TestWeekScheduleValidate(t *testing.T) {
	bad := &WeekSchedule{Days: map[string]DaySchedule{
		"monday": {Start: "18:00", End: "09:00", Active: true},
	}}
	assert.Error(t, bad.Validate())

	badBreak := &WeekSchedule{Days: map[string]DaySchedule{
		"monday": {Start: "09:00", End: "18:00", Active: true, HasBreak: true, BreakStart: "08:00", BreakEnd: "10:00"},
	}}
	assert.Error(t, badBreak.Validate())

	// Inactive days are not checked.
	off := &WeekSchedule{Days: map[string]DaySchedule{
		"monday": {Active: false},
	}}
	assert.NoError(t, off.Validate())

	assert.NoError(t, workWeek().Validate())
}
