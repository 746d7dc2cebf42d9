package web

import (
	"fmt"
	"net/http"

	"github.com/ressourcerie/planning/pkg/core/schedule"
	"github.com/ressourcerie/planning/pkg/core/services"
	"github.com/ressourcerie/planning/pkg/db"
)

type searchResponse struct {
	Query      string         `json:"query"`
	Volunteers []db.Volunteer `json:"volunteers"`
	// ExactMatch tells whether the query already names a volunteer, so "create" is not offered
	ExactMatch bool `json:"exactMatch"`
}

type nameBody struct {
	Name string `json:"name"`
}

func (s *Server) handleSearchVolunteers(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")

	volunteers, err := s.store.ListVolunteers(r.Context())
	if err != nil {
		s.writeError(w, r, fmt.Errorf("failed to fetch volunteers: %w", err))
		return
	}

	writeJSON(w, http.StatusOK, searchResponse{
		Query:      query,
		Volunteers: schedule.Search(query, volunteers),
		ExactMatch: schedule.ExactMatchExists(query, volunteers),
	})
}

func (s *Server) handleCreateVolunteer(w http.ResponseWriter, r *http.Request) {
	var body nameBody
	if err := decode(r, &body); err != nil {
		s.writeError(w, r, err)
		return
	}

	volunteer, err := services.CreateVolunteer(r.Context(), s.store, s.logger, body.Name)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, volunteer)
}

func (s *Server) handleRenameVolunteer(w http.ResponseWriter, r *http.Request) {
	var body nameBody
	if err := decode(r, &body); err != nil {
		s.writeError(w, r, err)
		return
	}

	id := r.PathValue("id")
	if err := services.RenameVolunteer(r.Context(), s.store, s.logger, id, body.Name); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDeleteVolunteer(w http.ResponseWriter, r *http.Request) {
	if err := services.DeleteVolunteer(r.Context(), s.store, s.logger, r.PathValue("id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type importResponse struct {
	Created  []db.Volunteer    `json:"created"`
	Existing []string          `json:"existing"`
	Failed   map[string]string `json:"failed"`
}

func (s *Server) handleImportVolunteers(w http.ResponseWriter, r *http.Request) {
	if s.sheets == nil || s.spreadsheetID == "" || s.volunteersRange == "" {
		s.writeError(w, r, fmt.Errorf("%w: volunteer import is not configured", services.ErrInvalidInput))
		return
	}

	names, err := s.sheets.ListVolunteerNames(r.Context(), s.spreadsheetID, s.volunteersRange)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	result := services.ImportVolunteers(r.Context(), s.store, s.logger, names)
	resp := importResponse{Created: result.Created, Existing: result.Existing, Failed: map[string]string{}}
	if resp.Existing == nil {
		resp.Existing = []string{}
	}
	for name, err := range result.Failed {
		resp.Failed[name] = err.Error()
	}
	writeJSON(w, http.StatusOK, resp)
}
