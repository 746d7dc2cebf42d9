package web

import (
	"context"
	"fmt"
	"net/http"

	"github.com/ressourcerie/planning/pkg/core/model"
	"github.com/ressourcerie/planning/pkg/core/schedule"
	"github.com/ressourcerie/planning/pkg/core/services"
	"github.com/ressourcerie/planning/pkg/session"
)

type itemResponse struct {
	SlotID string              `json:"slotId"`
	Status services.ItemStatus `json:"status"`
	Error  string              `json:"error,omitempty"`
}

type batchResponse struct {
	Action  model.Action           `json:"action"`
	Items   []itemResponse         `json:"items"`
	Applied int                    `json:"applied"`
	Skipped int                    `json:"skipped"`
	Failed  int                    `json:"failed"`
	MySlots []schedule.DisplaySlot `json:"mySlots,omitempty"`
	// RefreshError is set when the schedule could not be reloaded after the batch
	RefreshError string `json:"refreshError,omitempty"`
}

// volunteerSession loads a session that has a logged-in volunteer
func (s *Server) volunteerSession(r *http.Request) (*session.State, error) {
	_, state, err := s.loadSession(r)
	if err != nil {
		return nil, err
	}
	if state.VolunteerID == "" {
		return nil, fmt.Errorf("%w: no volunteer logged in", services.ErrInvalidInput)
	}
	return state, nil
}

func (s *Server) handleSubscribe(w http.ResponseWriter, r *http.Request) {
	state, err := s.volunteerSession(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	var body struct {
		SlotID string `json:"slotId"`
	}
	if err := decode(r, &body); err != nil {
		s.writeError(w, r, err)
		return
	}

	registration, err := services.Subscribe(r.Context(), s.store, s.logger, state.VolunteerID, body.SlotID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, registration)
}

func (s *Server) handleUnsubscribe(w http.ResponseWriter, r *http.Request) {
	state, err := s.volunteerSession(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	removed, err := services.Unsubscribe(r.Context(), s.store, s.logger, state.VolunteerID, r.PathValue("slotId"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"removed": removed})
}

func (s *Server) handleAdminUnsubscribe(w http.ResponseWriter, r *http.Request) {
	removed, err := services.Unsubscribe(r.Context(), s.store, s.logger, r.PathValue("volunteerId"), r.PathValue("slotId"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"removed": removed})
}

func (s *Server) handleBatch(w http.ResponseWriter, r *http.Request) {
	state, err := s.volunteerSession(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	var body struct {
		SlotIDs []string `json:"slotIds"`
		Action  string   `json:"action"`
	}
	if err := decode(r, &body); err != nil {
		s.writeError(w, r, err)
		return
	}

	snap, err := s.fetch(r.Context(), state)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	refresh := func(ctx context.Context) (*schedule.Snapshot, error) {
		return s.fetch(ctx, state)
	}
	result, err := services.ApplyBatch(r.Context(), s.store, s.logger, snap, state.VolunteerID,
		model.Action(body.Action), body.SlotIDs, refresh, services.BatchOptions{})
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toBatchResponse(result, state.VolunteerID))
}

func toBatchResponse(result *services.BatchResult, volunteerID string) batchResponse {
	resp := batchResponse{
		Action:  result.Action,
		Items:   make([]itemResponse, 0, len(result.Items)),
		Applied: result.Applied,
		Skipped: result.Skipped,
		Failed:  result.Failed,
	}
	for _, item := range result.Items {
		ir := itemResponse{SlotID: item.SlotID, Status: item.Status}
		if item.Err != nil {
			ir.Error = item.Err.Error()
		}
		resp.Items = append(resp.Items, ir)
	}
	if result.RefreshErr != nil {
		resp.RefreshError = result.RefreshErr.Error()
	} else if result.Snapshot != nil {
		resp.MySlots = schedule.CurrentUserSlots(result.Snapshot.DisplaySlots(), volunteerID, result.Snapshot.Window)
	}
	return resp
}

func (s *Server) handleInterpretVoice(w http.ResponseWriter, r *http.Request) {
	_, state, err := s.loadSession(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	var body struct {
		Transcript string `json:"transcript"`
	}
	if err := decode(r, &body); err != nil {
		s.writeError(w, r, err)
		return
	}

	snap, err := s.fetch(r.Context(), state)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	interpretation, err := services.InterpretVoiceCommand(r.Context(), s.genai, s.logger, snap, body.Transcript)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, interpretation)
}
