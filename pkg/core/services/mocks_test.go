package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ressourcerie/planning/pkg/core/model"
	"github.com/ressourcerie/planning/pkg/db"
)

// mockStore implements db.Database in memory and records every mutation call
type mockStore struct {
	volunteers    []db.Volunteer
	slots         []db.Slot
	registrations []db.Registration
	exportRows    []db.DetailedRegistration

	nextID int

	createRegistrationCalls []string
	deleteRegistrationCalls []string
	createdSpecs            []db.SlotSpec
	updates                 map[string]db.SlotUpdate
	touched                 []string
	exportRange             [2]time.Time

	// failSlots makes registration calls fail for these slot ids
	failSlots map[string]bool
	// failTitles makes slot creation fail for these titles
	failTitles map[string]bool
	touchErr   error
	createErr  error
}

func newMockStore() *mockStore {
	return &mockStore{updates: map[string]db.SlotUpdate{}}
}

func (m *mockStore) newID(prefix string) string {
	m.nextID++
	return fmt.Sprintf("%s-%d", prefix, m.nextID)
}

func (m *mockStore) ListVolunteers(ctx context.Context) ([]db.Volunteer, error) {
	return m.volunteers, nil
}

func (m *mockStore) FindVolunteerByName(ctx context.Context, name, excludeID string) (*db.Volunteer, error) {
	for _, v := range m.volunteers {
		if v.Name == name && v.ID != excludeID {
			return &v, nil
		}
	}
	return nil, nil
}

func (m *mockStore) CreateVolunteer(ctx context.Context, name string) (*db.Volunteer, error) {
	if m.createErr != nil {
		return nil, m.createErr
	}
	v := db.Volunteer{ID: m.newID("vol"), Name: name}
	m.volunteers = append(m.volunteers, v)
	return &v, nil
}

func (m *mockStore) RenameVolunteer(ctx context.Context, id, name string) error {
	for i := range m.volunteers {
		if m.volunteers[i].ID == id {
			m.volunteers[i].Name = name
			return nil
		}
	}
	return db.ErrNotFound
}

func (m *mockStore) TouchLastConnection(ctx context.Context, id string) error {
	m.touched = append(m.touched, id)
	return m.touchErr
}

func (m *mockStore) DeleteVolunteer(ctx context.Context, id string) error {
	kept := m.registrations[:0]
	for _, r := range m.registrations {
		if r.VolunteerID != id {
			kept = append(kept, r)
		}
	}
	m.registrations = kept
	for i, v := range m.volunteers {
		if v.ID == id {
			m.volunteers = append(m.volunteers[:i], m.volunteers[i+1:]...)
			return nil
		}
	}
	return db.ErrNotFound
}

func (m *mockStore) ListSlots(ctx context.Context, rangeStart, rangeEnd time.Time) ([]db.Slot, error) {
	return m.slots, nil
}

func (m *mockStore) CreateSlot(ctx context.Context, spec db.SlotSpec) (*db.Slot, error) {
	m.createdSpecs = append(m.createdSpecs, spec)
	if m.failTitles[spec.Title] {
		return nil, errors.New("insert failed")
	}
	s := db.Slot{ID: m.newID("slot"), Start: spec.Start, End: spec.End, Title: spec.Title}
	m.slots = append(m.slots, s)
	return &s, nil
}

func (m *mockStore) UpdateSlot(ctx context.Context, id string, update db.SlotUpdate) error {
	m.updates[id] = update
	return nil
}

func (m *mockStore) DeleteSlot(ctx context.Context, id string) error {
	return nil
}

func (m *mockStore) ListRegistrations(ctx context.Context) ([]db.Registration, error) {
	return m.registrations, nil
}

func (m *mockStore) CreateRegistration(ctx context.Context, volunteerID, slotID string) (*db.Registration, error) {
	m.createRegistrationCalls = append(m.createRegistrationCalls, slotID)
	if m.failSlots[slotID] {
		return nil, errors.New("connection reset")
	}
	for _, r := range m.registrations {
		if r.VolunteerID == volunteerID && r.SlotID == slotID {
			return nil, db.ErrAlreadyRegistered
		}
	}
	r := db.Registration{ID: m.newID("reg"), VolunteerID: volunteerID, SlotID: slotID}
	m.registrations = append(m.registrations, r)
	return &r, nil
}

func (m *mockStore) DeleteRegistration(ctx context.Context, volunteerID, slotID string) (int64, error) {
	m.deleteRegistrationCalls = append(m.deleteRegistrationCalls, slotID)
	if m.failSlots[slotID] {
		return 0, errors.New("connection reset")
	}
	for i, r := range m.registrations {
		if r.VolunteerID == volunteerID && r.SlotID == slotID {
			m.registrations = append(m.registrations[:i], m.registrations[i+1:]...)
			return 1, nil
		}
	}
	return 0, nil
}

func (m *mockStore) ExportDetailedRegistrations(ctx context.Context, rangeStart, rangeEnd time.Time) ([]db.DetailedRegistration, error) {
	m.exportRange = [2]time.Time{rangeStart, rangeEnd}
	return m.exportRows, nil
}

// mockGenerator implements PatternGenerator
type mockGenerator struct {
	patterns    []model.Pattern
	instruction string
	rangeStart  time.Time
	rangeEnd    time.Time
}

func (m *mockGenerator) GenerateWeeklyPatterns(ctx context.Context, rangeStart, rangeEnd time.Time, instruction string) []model.Pattern {
	m.instruction = instruction
	m.rangeStart = rangeStart
	m.rangeEnd = rangeEnd
	return m.patterns
}

// mockInterpreter implements CommandInterpreter
type mockInterpreter struct {
	interpretation model.Interpretation
	offered        []db.Slot
	weekStart      time.Time
}

func (m *mockInterpreter) InterpretSpokenCommand(ctx context.Context, transcript string, weekStart time.Time, slots []db.Slot) model.Interpretation {
	m.offered = slots
	m.weekStart = weekStart
	return m.interpretation
}
