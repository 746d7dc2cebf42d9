package web

import (
	"context"
	"net/http"

	"github.com/ressourcerie/planning/pkg/core/schedule"
	"github.com/ressourcerie/planning/pkg/core/week"
	"github.com/ressourcerie/planning/pkg/db"
	"github.com/ressourcerie/planning/pkg/session"
)

type scheduleResponse struct {
	Window    week.Window            `json:"window"`
	Days      []schedule.Day         `json:"days"`
	MySlots   []schedule.DisplaySlot `json:"mySlots"`
	Volunteer *db.Volunteer          `json:"volunteer,omitempty"`
}

func (s *Server) fetch(ctx context.Context, state *session.State) (*schedule.Snapshot, error) {
	return schedule.Fetch(ctx, s.store, s.window(state))
}

func (s *Server) handleSchedule(w http.ResponseWriter, r *http.Request) {
	_, state, err := s.loadSession(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	snap, err := s.fetch(r.Context(), state)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	display := snap.DisplaySlots()
	resp := scheduleResponse{
		Window:  snap.Window,
		Days:    schedule.ByDay(display, snap.Window),
		MySlots: []schedule.DisplaySlot{},
	}
	if state.VolunteerID != "" {
		if v, ok := snap.FindVolunteer(state.VolunteerID); ok {
			resp.Volunteer = &v
			resp.MySlots = schedule.CurrentUserSlots(display, v.ID, snap.Window)
		}
	}
	writeJSON(w, http.StatusOK, resp)
}
