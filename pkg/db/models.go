package db

import "time"

// Volunteer represents a volunteer record
type Volunteer struct {
	ID             string     `json:"id"`
	Name           string     `json:"name"`
	LastConnection *time.Time `json:"lastConnection,omitempty"`
}

// Slot represents a time slot volunteers register against
type Slot struct {
	ID    string    `json:"id"`
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
	Title string    `json:"title"`
}

// SlotSpec holds the fields needed to create a slot
type SlotSpec struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
	Title string    `json:"title"`
}

// SlotUpdate is a partial slot update; nil fields are left untouched
type SlotUpdate struct {
	Start *time.Time `json:"start,omitempty"`
	End   *time.Time `json:"end,omitempty"`
	Title *string    `json:"title,omitempty"`
}

// IsEmpty reports whether the update changes nothing
func (u SlotUpdate) IsEmpty() bool {
	return u.Start == nil && u.End == nil && u.Title == nil
}

// Registration links one volunteer to one slot
type Registration struct {
	ID          string `json:"id"`
	VolunteerID string `json:"volunteerId"`
	SlotID      string `json:"slotId"`
}

// DetailedRegistration is a flattened registration row used by exports.
// VolunteerName falls back to UnknownVolunteerName when the volunteer no longer exists.
type DetailedRegistration struct {
	RegistrationID string
	VolunteerName  string
	SlotTitle      string
	SlotStart      time.Time
	SlotEnd        time.Time
}

// UnknownVolunteerName is used in exports for registrations without a resolvable volunteer
const UnknownVolunteerName = "Unknown"
