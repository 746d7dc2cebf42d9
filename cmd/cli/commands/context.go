package commands

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ressourcerie/planning/internal/config"
	"github.com/ressourcerie/planning/pkg/clients/genai"
	"github.com/ressourcerie/planning/pkg/clients/sheetsclient"
	"github.com/ressourcerie/planning/pkg/core/schedule"
	"github.com/ressourcerie/planning/pkg/core/week"
	"github.com/ressourcerie/planning/pkg/db"
	"github.com/ressourcerie/planning/pkg/postgres"
)

// AppContext holds the application dependencies shared across all commands
type AppContext struct {
	Cfg      *config.Config
	Postgres *postgres.DB
	Database db.Database
	GenAI    *genai.Client
	// Sheets is nil when no spreadsheet is configured
	Sheets *sheetsclient.Client
	Logger *zap.Logger
	Ctx    context.Context
	State  *AppState
}

// AppState is the state of the running CLI: logged-in volunteer, visible week and schedule
type AppState struct {
	Volunteer *db.Volunteer
	Window    week.Window
	Search    string
	Schedule  *schedule.Aggregator

	loc *time.Location
	now func() time.Time
}

// NewAppState starts on the current week with nobody logged in
func NewAppState(store schedule.Store, logger *zap.Logger, loc *time.Location) *AppState {
	s := &AppState{
		Schedule: schedule.NewAggregator(store, logger),
		loc:      loc,
		now:      time.Now,
	}
	s.Window = week.WindowFor(s.now().In(loc))
	return s
}

// Refresh reloads the visible week
func (s *AppState) Refresh(ctx context.Context) (*schedule.Snapshot, error) {
	return s.Schedule.Refresh(ctx, s.Window)
}

// Navigate moves the visible week. target is next, prev, today or a YYYY-MM-DD date.
func (s *AppState) Navigate(target string) error {
	switch target {
	case "next":
		s.Window = s.Window.Next()
	case "prev":
		s.Window = s.Window.Prev()
	case "today", "":
		s.Window = week.WindowFor(s.now().In(s.loc))
	default:
		ref, err := week.ParseDate(target, s.loc)
		if err != nil {
			return fmt.Errorf("invalid week reference %q: %w", target, err)
		}
		s.Window = week.WindowFor(ref)
	}
	return nil
}

// RequireVolunteer returns the logged-in volunteer
func (s *AppState) RequireVolunteer() (*db.Volunteer, error) {
	if s.Volunteer == nil {
		return nil, fmt.Errorf("no volunteer logged in (use login <name> or --as)")
	}
	return s.Volunteer, nil
}

// resolveSlotRefs turns slot references into slot ids. A reference is either a slot id
// or the 1-based number shown by the schedule command.
func resolveSlotRefs(snap *schedule.Snapshot, refs []string) ([]string, error) {
	visible := schedule.InWindow(snap.Slots, snap.Window)

	ids := make([]string, 0, len(refs))
	for _, ref := range refs {
		ref = strings.TrimPrefix(ref, "#")
		if n, err := strconv.Atoi(ref); err == nil {
			if n < 1 || n > len(visible) {
				return nil, fmt.Errorf("slot number %d out of range (1-%d)", n, len(visible))
			}
			ids = append(ids, visible[n-1].ID)
			continue
		}
		ids = append(ids, ref)
	}
	return ids, nil
}

// findSlot looks a slot reference up in the snapshot
func findSlot(snap *schedule.Snapshot, ref string) (*db.Slot, error) {
	ids, err := resolveSlotRefs(snap, []string{ref})
	if err != nil {
		return nil, err
	}
	for _, s := range snap.Slots {
		if s.ID == ids[0] {
			return &s, nil
		}
	}
	return nil, fmt.Errorf("slot %s not found in the week of %s: %w", ref, week.FormatDate(snap.Window.Start), db.ErrNotFound)
}
