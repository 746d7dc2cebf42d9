package web

import (
	"fmt"
	"net/http"
	"time"

	"github.com/ressourcerie/planning/pkg/core/schedule"
	"github.com/ressourcerie/planning/pkg/core/services"
	"github.com/ressourcerie/planning/pkg/core/week"
	"github.com/ressourcerie/planning/pkg/db"
)

type slotFailure struct {
	Spec  db.SlotSpec `json:"spec"`
	Error string      `json:"error"`
}

type creationResponse struct {
	Planned int           `json:"planned"`
	Created []db.Slot     `json:"created"`
	Failed  []slotFailure `json:"failed"`
}

func toCreationResponse(result *services.CreationResult) creationResponse {
	resp := creationResponse{Planned: result.Planned, Created: result.Created, Failed: []slotFailure{}}
	if resp.Created == nil {
		resp.Created = []db.Slot{}
	}
	for _, f := range result.Failed {
		resp.Failed = append(resp.Failed, slotFailure{Spec: f.Spec, Error: f.Err.Error()})
	}
	return resp
}

func (s *Server) parseDate(value, field string) (time.Time, error) {
	if value == "" {
		return time.Time{}, fmt.Errorf("%w: %s is required", services.ErrInvalidInput, field)
	}
	t, err := week.ParseDate(value, s.loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %s: %v", services.ErrInvalidInput, field, err)
	}
	return t, nil
}

// adminWindow is the week named by the reference query parameter, or the current week
func (s *Server) adminWindow(r *http.Request) (week.Window, error) {
	ref := r.URL.Query().Get("reference")
	if ref == "" {
		return week.WindowFor(s.now().In(s.loc)), nil
	}
	day, err := s.parseDate(ref, "reference")
	if err != nil {
		return week.Window{}, err
	}
	return week.WindowFor(day), nil
}

func (s *Server) handleAdminSlots(w http.ResponseWriter, r *http.Request) {
	window, err := s.adminWindow(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	snap, err := schedule.Fetch(r.Context(), s.store, window)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	display := snap.DisplaySlots()
	writeJSON(w, http.StatusOK, scheduleResponse{
		Window:  snap.Window,
		Days:    schedule.ByDay(display, snap.Window),
		MySlots: []schedule.DisplaySlot{},
	})
}

type slotBody struct {
	Date  string `json:"date"`
	Start string `json:"start"`
	End   string `json:"end"`
	Title string `json:"title"`
}

func (s *Server) handleCreateSlot(w http.ResponseWriter, r *http.Request) {
	var body slotBody
	if err := decode(r, &body); err != nil {
		s.writeError(w, r, err)
		return
	}

	slot, err := services.CreateSlotOnDate(r.Context(), s.store, s.logger, s.loc, body.Date, body.Start, body.End, body.Title)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, slot)
}

// handleUpdateSlot retimes a slot on its own day. Date locates the slot.
func (s *Server) handleUpdateSlot(w http.ResponseWriter, r *http.Request) {
	var body slotBody
	if err := decode(r, &body); err != nil {
		s.writeError(w, r, err)
		return
	}

	day, err := s.parseDate(body.Date, "date")
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	id := r.PathValue("id")
	slots, err := s.store.ListSlots(r.Context(), week.StartOfDay(day), week.EndOfDay(day))
	if err != nil {
		s.writeError(w, r, fmt.Errorf("failed to fetch slots: %w", err))
		return
	}

	var current *db.Slot
	for i := range slots {
		if slots[i].ID == id {
			current = &slots[i]
			break
		}
	}
	if current == nil {
		s.writeError(w, r, fmt.Errorf("slot %s on %s: %w", id, body.Date, db.ErrNotFound))
		return
	}

	slot, err := services.RetimeSlot(r.Context(), s.store, s.logger, s.loc, *current, body.Start, body.End, body.Title)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, slot)
}

func (s *Server) handleDeleteSlot(w http.ResponseWriter, r *http.Request) {
	if err := services.DeleteSlot(r.Context(), s.store, s.logger, r.PathValue("id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDuplicateSlots(w http.ResponseWriter, r *http.Request) {
	var body struct {
		SourceDate  string   `json:"sourceDate"`
		TargetDates []string `json:"targetDates"`
	}
	if err := decode(r, &body); err != nil {
		s.writeError(w, r, err)
		return
	}

	source, err := s.parseDate(body.SourceDate, "sourceDate")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	targets := make([]time.Time, 0, len(body.TargetDates))
	for _, value := range body.TargetDates {
		target, err := s.parseDate(value, "targetDates")
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		targets = append(targets, target)
	}

	slots, err := s.store.ListSlots(r.Context(), week.StartOfDay(source), week.EndOfDay(source))
	if err != nil {
		s.writeError(w, r, fmt.Errorf("failed to fetch slots: %w", err))
		return
	}

	result, err := services.DuplicateSlots(r.Context(), s.store, s.logger, s.loc, slots, source, targets)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toCreationResponse(result))
}

func (s *Server) handleGenerateSlots(w http.ResponseWriter, r *http.Request) {
	var body struct {
		StartDate   string `json:"startDate"`
		EndDate     string `json:"endDate"`
		Instruction string `json:"instruction"`
	}
	if err := decode(r, &body); err != nil {
		s.writeError(w, r, err)
		return
	}

	start, err := s.parseDate(body.StartDate, "startDate")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	end, err := s.parseDate(body.EndDate, "endDate")
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	result, err := services.GenerateSlots(r.Context(), s.store, s.genai, s.logger, start, end, body.Instruction)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toCreationResponse(result))
}
