package company

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"
)

// weekday keys as stored in the availability blob, indexed by time.Weekday.
var dayNames = [7]string{"sunday", "monday", "tuesday", "wednesday", "thursday", "friday", "saturday"}

// DaySchedule describes one weekday's working hours. Times are "HH:MM".
type DaySchedule struct {
	Start      string `json:"start"`
	End        string `json:"end"`
	Active     bool   `json:"active"`
	HasBreak   bool   `json:"hasBreak"`
	BreakStart string `json:"breakStart,omitempty"`
	BreakEnd   string `json:"breakEnd,omitempty"`
}

// WeekSchedule is the availability blob on the company row: one entry per
// weekday plus a holidays flag folded into the same object.
type WeekSchedule struct {
	Days            map[string]DaySchedule
	WorksOnHolidays bool
}

func (w WeekSchedule) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(w.Days)+1)
	for name, day := range w.Days {
		out[name] = day
	}
	out["worksOnHolidays"] = w.WorksOnHolidays
	return json.Marshal(out)
}

func (w *WeekSchedule) UnmarshalJSON(data []byte) error {
	raw := map[string]json.RawMessage{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	w.Days = make(map[string]DaySchedule, len(raw))
	for key, val := range raw {
		if key == "worksOnHolidays" {
			if err := json.Unmarshal(val, &w.WorksOnHolidays); err != nil {
				return fmt.Errorf("worksOnHolidays: %w", err)
			}
			continue
		}
		var day DaySchedule
		if err := json.Unmarshal(val, &day); err != nil {
			return fmt.Errorf("day %q: %w", key, err)
		}
		w.Days[key] = day
	}
	return nil
}

// Validate checks every active day has parseable, ordered times.
func (w WeekSchedule) Validate() error {
	for name, day := range w.Days {
		if !day.Active {
			continue
		}
		start, err := parseHHMM(day.Start)
		if err != nil {
			return fmt.Errorf("%s start: %w", name, err)
		}
		end, err := parseHHMM(day.End)
		if err != nil {
			return fmt.Errorf("%s end: %w", name, err)
		}
		if start >= end {
			return fmt.Errorf("%s: start must precede end", name)
		}
		if day.HasBreak {
			bs, err := parseHHMM(day.BreakStart)
			if err != nil {
				return fmt.Errorf("%s break start: %w", name, err)
			}
			be, err := parseHHMM(day.BreakEnd)
			if err != nil {
				return fmt.Errorf("%s break end: %w", name, err)
			}
			if bs >= be || bs < start || be > end {
				return fmt.Errorf("%s: break window must sit inside working hours", name)
			}
		}
	}
	return nil
}

// BookedBlock is an occupied window on a given day.
type BookedBlock struct {
	Time            string
	DurationMinutes int
}

// slotInterval is the spacing between candidate slot start times.
const slotInterval = 30

// GenerateTimeSlots lists "HH:MM" start times between start and end such
// that a slot of durationMinutes still finishes by end.
func GenerateTimeSlots(start, end string, durationMinutes int) []string {
	startMin, err := parseHHMM(start)
	if err != nil {
		return nil
	}
	endMin, err := parseHHMM(end)
	if err != nil {
		return nil
	}

	var slots []string
	for cur := startMin; cur+durationMinutes <= endMin && cur < 24*60; cur += slotInterval {
		slots = append(slots, fmt.Sprintf("%02d:%02d", cur/60, cur%60))
	}
	return slots
}

// SlotsForDate returns the bookable start times for one date, splitting
// around the break window and dropping slots that overlap booked blocks.
func SlotsForDate(date time.Time, week *WeekSchedule, durationMinutes int, booked []BookedBlock) []string {
	if week == nil {
		return nil
	}
	if durationMinutes <= 0 {
		durationMinutes = slotInterval
	}

	day, ok := week.Days[dayNames[date.Weekday()]]
	if !ok || !day.Active {
		return nil
	}

	var slots []string
	if day.HasBreak && day.BreakStart != "" && day.BreakEnd != "" {
		slots = append(slots, GenerateTimeSlots(day.Start, day.BreakStart, durationMinutes)...)
		slots = append(slots, GenerateTimeSlots(day.BreakEnd, day.End, durationMinutes)...)
	} else {
		slots = GenerateTimeSlots(day.Start, day.End, durationMinutes)
	}

	seen := make(map[string]bool, len(slots))
	unique := slots[:0]
	for _, s := range slots {
		if !seen[s] {
			seen[s] = true
			unique = append(unique, s)
		}
	}
	sort.Strings(unique)

	out := make([]string, 0, len(unique))
	for _, slot := range unique {
		slotStart, _ := parseHHMM(slot)
		slotEnd := slotStart + durationMinutes
		if !overlapsAny(slotStart, slotEnd, booked) {
			out = append(out, slot)
		}
	}
	return out
}

// IsDayActive reports whether the company works on the given date. A nil
// schedule means no restrictions were configured.
func IsDayActive(date time.Time, week *WeekSchedule) bool {
	if week == nil {
		return true
	}
	day, ok := week.Days[dayNames[date.Weekday()]]
	return ok && day.Active
}

func overlapsAny(startMin, endMin int, booked []BookedBlock) bool {
	for _, b := range booked {
		bs, err := parseHHMM(b.Time)
		if err != nil {
			continue
		}
		dur := b.DurationMinutes
		if dur <= 0 {
			dur = slotInterval
		}
		if startMin < bs+dur && bs < endMin {
			return true
		}
	}
	return false
}

func parseHHMM(s string) (int, error) {
	var h, m int
	if _, err := fmt.Sscanf(s, "%d:%d", &h, &m); err != nil {
		return 0, fmt.Errorf("bad time %q", s)
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, fmt.Errorf("bad time %q", s)
	}
	return h*60 + m, nil
}
