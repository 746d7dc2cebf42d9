package web

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/ressourcerie/planning/pkg/clients/sheetsclient"
	"github.com/ressourcerie/planning/pkg/core/model"
	"github.com/ressourcerie/planning/pkg/db"
)

// mockStore implements db.Database in memory
type mockStore struct {
	mu            sync.Mutex
	volunteers    []db.Volunteer
	slots         []db.Slot
	registrations []db.Registration
	exportRows    []db.DetailedRegistration
	updates       map[string]db.SlotUpdate
	deletedSlots  []string
	nextID        int

	listErr   error
	createErr error
}

func newMockStore() *mockStore {
	return &mockStore{updates: map[string]db.SlotUpdate{}}
}

func (m *mockStore) newID(prefix string) string {
	m.nextID++
	return fmt.Sprintf("%s-%d", prefix, m.nextID)
}

func (m *mockStore) ListVolunteers(ctx context.Context) ([]db.Volunteer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listErr != nil {
		return nil, m.listErr
	}
	return append([]db.Volunteer(nil), m.volunteers...), nil
}

func (m *mockStore) FindVolunteerByName(ctx context.Context, name, excludeID string) (*db.Volunteer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, v := range m.volunteers {
		if strings.EqualFold(v.Name, name) && v.ID != excludeID {
			return &v, nil
		}
	}
	return nil, nil
}

func (m *mockStore) CreateVolunteer(ctx context.Context, name string) (*db.Volunteer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return nil, m.createErr
	}
	for _, v := range m.volunteers {
		if strings.EqualFold(v.Name, name) {
			return nil, db.ErrDuplicateName
		}
	}
	v := db.Volunteer{ID: m.newID("vol"), Name: name}
	m.volunteers = append(m.volunteers, v)
	return &v, nil
}

func (m *mockStore) RenameVolunteer(ctx context.Context, id, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.volunteers {
		if m.volunteers[i].ID == id {
			m.volunteers[i].Name = name
			return nil
		}
	}
	return db.ErrNotFound
}

func (m *mockStore) TouchLastConnection(ctx context.Context, id string) error {
	return nil
}

func (m *mockStore) DeleteVolunteer(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, v := range m.volunteers {
		if v.ID == id {
			m.volunteers = append(m.volunteers[:i], m.volunteers[i+1:]...)
			return nil
		}
	}
	return db.ErrNotFound
}

func (m *mockStore) ListSlots(ctx context.Context, rangeStart, rangeEnd time.Time) ([]db.Slot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listErr != nil {
		return nil, m.listErr
	}
	var out []db.Slot
	for _, s := range m.slots {
		if !s.Start.Before(rangeStart) && !s.Start.After(rangeEnd) {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *mockStore) CreateSlot(ctx context.Context, spec db.SlotSpec) (*db.Slot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := db.Slot{ID: m.newID("slot"), Start: spec.Start, End: spec.End, Title: spec.Title}
	m.slots = append(m.slots, s)
	return &s, nil
}

func (m *mockStore) UpdateSlot(ctx context.Context, id string, update db.SlotUpdate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.updates[id] = update
	return nil
}

func (m *mockStore) DeleteSlot(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deletedSlots = append(m.deletedSlots, id)
	return nil
}

func (m *mockStore) ListRegistrations(ctx context.Context) ([]db.Registration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]db.Registration(nil), m.registrations...), nil
}

func (m *mockStore) CreateRegistration(ctx context.Context, volunteerID, slotID string) (*db.Registration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
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
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, r := range m.registrations {
		if r.VolunteerID == volunteerID && r.SlotID == slotID {
			m.registrations = append(m.registrations[:i], m.registrations[i+1:]...)
			return 1, nil
		}
	}
	return 0, nil
}

func (m *mockStore) ExportDetailedRegistrations(ctx context.Context, rangeStart, rangeEnd time.Time) ([]db.DetailedRegistration, error) {
	return m.exportRows, nil
}

// fakeGenAI implements GenAI with canned answers
type fakeGenAI struct {
	patterns       []model.Pattern
	interpretation model.Interpretation
	transcript     string
}

func (f *fakeGenAI) GenerateWeeklyPatterns(ctx context.Context, rangeStart, rangeEnd time.Time, instruction string) []model.Pattern {
	return f.patterns
}

func (f *fakeGenAI) InterpretSpokenCommand(ctx context.Context, transcript string, weekStart time.Time, slots []db.Slot) model.Interpretation {
	f.transcript = transcript
	return f.interpretation
}

// fakeSheets implements Sheets
type fakeSheets struct {
	names     []string
	published *sheetsclient.PublishedExport
	err       error
}

func (f *fakeSheets) PublishExport(ctx context.Context, spreadsheetID string, export *sheetsclient.PublishedExport) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.published = export
	return "Inscriptions", nil
}

func (f *fakeSheets) ListVolunteerNames(ctx context.Context, spreadsheetID, sheetRange string) ([]string, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.names, nil
}

var errUnavailable = errors.New("connection refused")
