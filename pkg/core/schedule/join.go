package schedule

import (
	"slices"
	"time"

	"github.com/ressourcerie/planning/pkg/core/week"
	"github.com/ressourcerie/planning/pkg/db"
)

// DisplaySlot is a slot with its registered volunteers resolved
type DisplaySlot struct {
	db.Slot
	Volunteers []db.Volunteer `json:"volunteers"`
}

// HasVolunteer reports whether the volunteer is registered on the slot
func (d DisplaySlot) HasVolunteer(volunteerID string) bool {
	for _, v := range d.Volunteers {
		if v.ID == volunteerID {
			return true
		}
	}
	return false
}

// Join attaches to every slot the volunteers whose registration references it, in
// registration order. Registrations pointing to unknown volunteers are dropped.
func Join(volunteers []db.Volunteer, slots []db.Slot, registrations []db.Registration) []DisplaySlot {
	byID := make(map[string]db.Volunteer, len(volunteers))
	for _, v := range volunteers {
		byID[v.ID] = v
	}

	bySlot := make(map[string][]db.Volunteer)
	for _, r := range registrations {
		v, ok := byID[r.VolunteerID]
		if !ok {
			continue
		}
		bySlot[r.SlotID] = append(bySlot[r.SlotID], v)
	}

	display := make([]DisplaySlot, 0, len(slots))
	for _, s := range slots {
		registered := bySlot[s.ID]
		if registered == nil {
			registered = []db.Volunteer{}
		}
		display = append(display, DisplaySlot{Slot: s, Volunteers: registered})
	}
	return display
}

// CurrentUserSlots keeps the slots the volunteer is registered on that start inside
// the visible window (not the widened fetch range)
func CurrentUserSlots(display []DisplaySlot, volunteerID string, window week.Window) []DisplaySlot {
	mine := []DisplaySlot{}
	for _, d := range display {
		if d.HasVolunteer(volunteerID) && window.Contains(d.Start) {
			mine = append(mine, d)
		}
	}
	return mine
}

// InWindow keeps the slots starting inside window, sorted by start
func InWindow(slots []db.Slot, window week.Window) []db.Slot {
	var kept []db.Slot
	for _, s := range slots {
		if window.Contains(s.Start) {
			kept = append(kept, s)
		}
	}
	SortSlots(kept)
	return kept
}

// SortSlots orders slots by start time in place
func SortSlots(slots []db.Slot) {
	slices.SortStableFunc(slots, func(a, b db.Slot) int {
		return a.Start.Compare(b.Start)
	})
}

// SortDisplaySlots orders display slots by start time in place
func SortDisplaySlots(display []DisplaySlot) {
	slices.SortStableFunc(display, func(a, b DisplaySlot) int {
		return a.Start.Compare(b.Start)
	})
}

// Day groups the display slots starting on one calendar day
type Day struct {
	Date  time.Time     `json:"date"`
	Slots []DisplaySlot `json:"slots"`
}

// ByDay splits display slots over the seven days of window, each day sorted by start.
// Slots outside the window are left out.
func ByDay(display []DisplaySlot, window week.Window) []Day {
	days := make([]Day, 0, 7)
	for _, date := range window.Days() {
		day := Day{Date: date, Slots: []DisplaySlot{}}
		end := week.EndOfDay(date)
		for _, d := range display {
			if !d.Start.Before(date) && !d.Start.After(end) {
				day.Slots = append(day.Slots, d)
			}
		}
		SortDisplaySlots(day.Slots)
		days = append(days, day)
	}
	return days
}
