package db

import (
	"context"
	"time"
)

// VolunteerStore defines the volunteer operations of the record store
type VolunteerStore interface {
	ListVolunteers(ctx context.Context) ([]Volunteer, error)
	FindVolunteerByName(ctx context.Context, name, excludeID string) (*Volunteer, error)
	CreateVolunteer(ctx context.Context, name string) (*Volunteer, error)
	RenameVolunteer(ctx context.Context, id, name string) error
	TouchLastConnection(ctx context.Context, id string) error
	DeleteVolunteer(ctx context.Context, id string) error
}

// SlotStore defines the slot operations of the record store
type SlotStore interface {
	ListSlots(ctx context.Context, rangeStart, rangeEnd time.Time) ([]Slot, error)
	CreateSlot(ctx context.Context, spec SlotSpec) (*Slot, error)
	UpdateSlot(ctx context.Context, id string, update SlotUpdate) error
	DeleteSlot(ctx context.Context, id string) error
}

// RegistrationStore defines the registration operations of the record store
type RegistrationStore interface {
	ListRegistrations(ctx context.Context) ([]Registration, error)
	CreateRegistration(ctx context.Context, volunteerID, slotID string) (*Registration, error)
	// DeleteRegistration returns the number of deleted rows; 0 is a no-op, not an error
	DeleteRegistration(ctx context.Context, volunteerID, slotID string) (int64, error)
}

// ExportStore defines the read model used by spreadsheet exports
type ExportStore interface {
	ExportDetailedRegistrations(ctx context.Context, rangeStart, rangeEnd time.Time) ([]DetailedRegistration, error)
}

// Database defines the interface for all record store operations.
// postgres.DB implements this interface.
type Database interface {
	VolunteerStore
	SlotStore
	RegistrationStore
	ExportStore
}
