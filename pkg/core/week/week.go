// Package week computes the Monday to Sunday windows used to scope the calendar.
package week

import "time"

const (
	// FetchLookbehindDays is how many days before the window's Monday slots are fetched
	FetchLookbehindDays = 1
	// FetchLookaheadDays is how many days after the window's Monday slots are fetched (10 weeks)
	FetchLookaheadDays = 70

	dateLayout = "2006-01-02"
)

// Window is the Monday 00:00:00.000 to Sunday 23:59:59.999 span of one week
type Window struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// WindowFor returns the week containing ref, in ref's location
func WindowFor(ref time.Time) Window {
	day := int(ref.Weekday())

	// Sunday belongs to the week that started 6 days earlier
	offset := day - 1
	if day == 0 {
		offset = 6
	}

	monday := StartOfDay(ref).AddDate(0, 0, -offset)
	return Window{
		Start: monday,
		End:   EndOfDay(monday.AddDate(0, 0, 6)),
	}
}

// StartOfDay returns midnight of t's calendar day in t's location
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// EndOfDay returns 23:59:59.999 of t's calendar day in t's location
func EndOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, int(999*time.Millisecond), t.Location())
}

// Next returns the following week
func (w Window) Next() Window {
	return WindowFor(w.Start.AddDate(0, 0, 7))
}

// Prev returns the preceding week
func (w Window) Prev() Window {
	return WindowFor(w.Start.AddDate(0, 0, -7))
}

// Contains reports whether t falls inside the window, bounds included
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && !t.After(w.End)
}

// Days returns the seven midnights of the window, Monday first
func (w Window) Days() []time.Time {
	days := make([]time.Time, 7)
	for i := range days {
		days[i] = w.Start.AddDate(0, 0, i)
	}
	return days
}

// FetchRange returns the widened slot range for w: one day before its Monday through
// 70 days after it, so that commands can reference the coming weeks without navigating
func FetchRange(w Window) (time.Time, time.Time) {
	return w.Start.AddDate(0, 0, -FetchLookbehindDays), w.Start.AddDate(0, 0, FetchLookaheadDays)
}

// MondayIndex maps a weekday to Monday=0 .. Sunday=6
func MondayIndex(d time.Weekday) int {
	if d == time.Sunday {
		return 6
	}
	return int(d) - 1
}

// ParseDate parses a YYYY-MM-DD date as midnight in loc
func ParseDate(value string, loc *time.Location) (time.Time, error) {
	return time.ParseInLocation(dateLayout, value, loc)
}

// FormatDate formats t as YYYY-MM-DD
func FormatDate(t time.Time) string {
	return t.Format(dateLayout)
}
