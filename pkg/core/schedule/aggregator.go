// Package schedule builds the weekly schedule views from the record store collections.
package schedule

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ressourcerie/planning/pkg/core/week"
	"github.com/ressourcerie/planning/pkg/db"
)

// ErrStaleRefresh is returned when a newer refresh was issued while this one was in flight
var ErrStaleRefresh = errors.New("refresh superseded by a newer one")

// Store defines the record store reads needed to build a snapshot
type Store interface {
	db.VolunteerStore
	db.SlotStore
	db.RegistrationStore
}

// Snapshot is an immutable view of the three record collections for one week window
type Snapshot struct {
	Window        week.Window
	Volunteers    []db.Volunteer
	Slots         []db.Slot
	Registrations []db.Registration
	Generation    uint64
}

// Fetch loads all volunteers, the slots of the widened range around window and all
// registrations. The three reads run concurrently and fail together.
func Fetch(ctx context.Context, store Store, window week.Window) (*Snapshot, error) {
	rangeStart, rangeEnd := week.FetchRange(window)
	snap := &Snapshot{Window: window}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		volunteers, err := store.ListVolunteers(gctx)
		if err != nil {
			return fmt.Errorf("failed to fetch volunteers: %w", err)
		}
		snap.Volunteers = volunteers
		return nil
	})
	g.Go(func() error {
		slots, err := store.ListSlots(gctx, rangeStart, rangeEnd)
		if err != nil {
			return fmt.Errorf("failed to fetch slots: %w", err)
		}
		snap.Slots = slots
		return nil
	})
	g.Go(func() error {
		registrations, err := store.ListRegistrations(gctx)
		if err != nil {
			return fmt.Errorf("failed to fetch registrations: %w", err)
		}
		snap.Registrations = registrations
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return snap, nil
}

// IsRegistered reports whether the snapshot holds a registration for the pair
func (s *Snapshot) IsRegistered(volunteerID, slotID string) bool {
	for _, r := range s.Registrations {
		if r.VolunteerID == volunteerID && r.SlotID == slotID {
			return true
		}
	}
	return false
}

// DisplaySlots joins the snapshot collections
func (s *Snapshot) DisplaySlots() []DisplaySlot {
	return Join(s.Volunteers, s.Slots, s.Registrations)
}

// FindVolunteer returns the volunteer with the given id, if present
func (s *Snapshot) FindVolunteer(id string) (db.Volunteer, bool) {
	for _, v := range s.Volunteers {
		if v.ID == id {
			return v, true
		}
	}
	return db.Volunteer{}, false
}

// Aggregator holds the latest successfully fetched snapshot.
// Each refresh is tagged with a generation; a result is applied only if no
// newer refresh was issued in the meantime.
type Aggregator struct {
	store  Store
	logger *zap.Logger

	mu       sync.RWMutex
	issued   uint64
	snapshot *Snapshot
}

// NewAggregator creates an aggregator with an empty snapshot
func NewAggregator(store Store, logger *zap.Logger) *Aggregator {
	return &Aggregator{
		store:    store,
		logger:   logger,
		snapshot: &Snapshot{},
	}
}

// Refresh fetches a new snapshot for window and replaces the current one as a whole.
// On failure the previous snapshot is kept. The returned snapshot is a copy.
func (a *Aggregator) Refresh(ctx context.Context, window week.Window) (*Snapshot, error) {
	a.mu.Lock()
	a.issued++
	generation := a.issued
	a.mu.Unlock()

	a.logger.Debug("Refreshing schedule",
		zap.Uint64("generation", generation),
		zap.Time("week_start", window.Start))

	snap, err := Fetch(ctx, a.store, window)
	if err != nil {
		a.logger.Error("Schedule refresh failed, keeping previous snapshot",
			zap.Uint64("generation", generation),
			zap.Error(err))
		return nil, err
	}
	snap.Generation = generation

	a.mu.Lock()
	defer a.mu.Unlock()
	if generation != a.issued {
		a.logger.Debug("Discarding stale refresh",
			zap.Uint64("generation", generation),
			zap.Uint64("latest", a.issued))
		return nil, ErrStaleRefresh
	}
	a.snapshot = snap

	a.logger.Debug("Schedule refreshed",
		zap.Int("volunteers", len(snap.Volunteers)),
		zap.Int("slots", len(snap.Slots)),
		zap.Int("registrations", len(snap.Registrations)))
	return snap.clone(), nil
}

// Snapshot returns a copy of the current snapshot.
// Callers may modify the returned slices without affecting the aggregator.
func (a *Aggregator) Snapshot() *Snapshot {
	a.mu.RLock()
	defer a.mu.RUnlock()

	return a.snapshot.clone()
}

func (s *Snapshot) clone() *Snapshot {
	return &Snapshot{
		Window:        s.Window,
		Volunteers:    slices.Clone(s.Volunteers),
		Slots:         slices.Clone(s.Slots),
		Registrations: slices.Clone(s.Registrations),
		Generation:    s.Generation,
	}
}
