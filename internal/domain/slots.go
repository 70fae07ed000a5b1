package domain

import "time"

// SlotWindow describes the fixed window of offered meeting slots: every
// listed hour of every day between Start and End inclusive. The study runs
// over a short fixed period, so the window is configuration, not data.
type SlotWindow struct {
	Start time.Time // first day of the window (date part only)
	End   time.Time // last day of the window, inclusive
	Hours []int     // offered hours of day, e.g. 12, 15, 17
}

// GenerateSlots returns the offered slots that are still in the future at
// the given instant, ascending. Past days and past hours of the current day
// are hidden; once the window has closed entirely the result is empty.
func (w SlotWindow) GenerateSlots(now time.Time) []time.Time {
	var slots []time.Time

	day := time.Date(w.Start.Year(), w.Start.Month(), w.Start.Day(), 0, 0, 0, 0, time.UTC)
	end := time.Date(w.End.Year(), w.End.Month(), w.End.Day(), 0, 0, 0, 0, time.UTC)

	for !day.After(end) {
		for _, hour := range w.Hours {
			slot := day.Add(time.Duration(hour) * time.Hour)
			if !slot.Before(now) {
				slots = append(slots, slot)
			}
		}
		day = day.AddDate(0, 0, 1)
	}

	return slots
}

// Contains reports whether the given timestamp is one of the offered slots.
func (w SlotWindow) Contains(slot time.Time) bool {
	for _, s := range w.GenerateSlots(time.Time{}) {
		if s.Equal(slot.UTC()) {
			return true
		}
	}
	return false
}
