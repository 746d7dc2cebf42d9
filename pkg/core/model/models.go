package model

import "fmt"

// Action is what a spoken command asks for
type Action string

const (
	ActionAdd    Action = "add"
	ActionRemove Action = "remove"
)

// ParseAction converts a raw action string, defaulting to ActionAdd for anything unknown
func ParseAction(raw string) Action {
	if Action(raw) == ActionRemove {
		return ActionRemove
	}
	return ActionAdd
}

// Pattern is a weekly recurrence rule for generated slots.
// DayOfWeek uses Monday=0 .. Sunday=6.
type Pattern struct {
	DayOfWeek   int    `json:"dayOfWeek"`
	StartHour   int    `json:"startHour"`
	StartMinute int    `json:"startMinute"`
	EndHour     int    `json:"endHour"`
	EndMinute   int    `json:"endMinute"`
	Title       string `json:"title"`
}

// Validate checks the pattern's fields are within their calendar ranges
func (p Pattern) Validate() error {
	switch {
	case p.DayOfWeek < 0 || p.DayOfWeek > 6:
		return fmt.Errorf("day of week out of range: %d", p.DayOfWeek)
	case p.StartHour < 0 || p.StartHour > 23 || p.EndHour < 0 || p.EndHour > 23:
		return fmt.Errorf("hour out of range: %d-%d", p.StartHour, p.EndHour)
	case p.StartMinute < 0 || p.StartMinute > 59 || p.EndMinute < 0 || p.EndMinute > 59:
		return fmt.Errorf("minute out of range: %d-%d", p.StartMinute, p.EndMinute)
	case p.EndHour*60+p.EndMinute <= p.StartHour*60+p.StartMinute:
		return fmt.Errorf("end %02d:%02d is not after start %02d:%02d", p.EndHour, p.EndMinute, p.StartHour, p.StartMinute)
	}
	return nil
}

// Interpretation is the understood intent of a spoken command
type Interpretation struct {
	MatchedSlotIDs      []string `json:"matchedSlotIds"`
	Action              Action   `json:"action"`
	ConfirmationMessage string   `json:"confirmationMessage"`
}
