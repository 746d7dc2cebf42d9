package web

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/ressourcerie/planning/pkg/core/services"
	"github.com/ressourcerie/planning/pkg/core/week"
	"github.com/ressourcerie/planning/pkg/db"
	"github.com/ressourcerie/planning/pkg/session"
)

type sessionResponse struct {
	Token     string        `json:"token,omitempty"`
	State     session.State `json:"state"`
	Window    week.Window   `json:"window"`
	Volunteer *db.Volunteer `json:"volunteer,omitempty"`
}

func sessionToken(r *http.Request) string {
	if token := r.Header.Get(SessionHeader); token != "" {
		return token
	}
	if cookie, err := r.Cookie(SessionCookie); err == nil {
		return cookie.Value
	}
	return ""
}

func (s *Server) loadSession(r *http.Request) (string, *session.State, error) {
	token := sessionToken(r)
	state, err := s.sessions.Load(r.Context(), token)
	if err != nil {
		return "", nil, err
	}
	return token, state, nil
}

func (s *Server) window(state *session.State) week.Window {
	return state.Window(s.loc, s.now())
}

// currentVolunteer resolves the session's logged-in volunteer from the store
func (s *Server) currentVolunteer(r *http.Request, state *session.State) (*db.Volunteer, error) {
	if state.VolunteerID == "" {
		return nil, nil
	}
	volunteers, err := s.store.ListVolunteers(r.Context())
	if err != nil {
		return nil, fmt.Errorf("failed to fetch volunteers: %w", err)
	}
	for _, v := range volunteers {
		if v.ID == state.VolunteerID {
			return &v, nil
		}
	}
	return nil, nil
}

func (s *Server) respondSession(w http.ResponseWriter, r *http.Request, status int, token string, state *session.State) {
	volunteer, err := s.currentVolunteer(r, state)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, status, sessionResponse{Token: token, State: *state, Window: s.window(state), Volunteer: volunteer})
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Reference string `json:"reference"`
	}
	if err := decode(r, &body); err != nil {
		s.writeError(w, r, err)
		return
	}

	state := session.State{Reference: week.FormatDate(s.now().In(s.loc))}
	if body.Reference != "" {
		if _, err := week.ParseDate(body.Reference, s.loc); err != nil {
			s.writeError(w, r, fmt.Errorf("%w: %v", services.ErrInvalidInput, err))
			return
		}
		state.Reference = body.Reference
	}

	token, err := s.sessions.Create(r.Context(), state)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	http.SetCookie(w, &http.Cookie{Name: SessionCookie, Value: token, Path: "/", HttpOnly: true, SameSite: http.SameSiteLaxMode})
	s.respondSession(w, r, http.StatusCreated, token, &state)
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	_, state, err := s.loadSession(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.respondSession(w, r, http.StatusOK, "", state)
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	token := sessionToken(r)
	if err := s.sessions.Delete(r.Context(), token); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	token, state, err := s.loadSession(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	var body struct {
		VolunteerID string `json:"volunteerId"`
		Name        string `json:"name"`
		Create      bool   `json:"create"`
	}
	if err := decode(r, &body); err != nil {
		s.writeError(w, r, err)
		return
	}

	var volunteer *db.Volunteer
	switch {
	case body.VolunteerID != "":
		state.VolunteerID = body.VolunteerID
		volunteer, err = s.currentVolunteer(r, state)
		if err == nil && volunteer == nil {
			err = fmt.Errorf("volunteer %s: %w", body.VolunteerID, db.ErrNotFound)
		}
		if err == nil {
			loggedIn := services.Login(r.Context(), s.store, s.logger, *volunteer)
			volunteer = &loggedIn
		}
	case body.Create:
		volunteer, err = services.CreateAndLogin(r.Context(), s.store, s.logger, body.Name)
	case strings.TrimSpace(body.Name) != "":
		volunteer, err = s.store.FindVolunteerByName(r.Context(), strings.TrimSpace(body.Name), "")
		if err == nil && volunteer == nil {
			err = fmt.Errorf("volunteer %q: %w", body.Name, db.ErrNotFound)
		}
		if err == nil {
			loggedIn := services.Login(r.Context(), s.store, s.logger, *volunteer)
			volunteer = &loggedIn
		}
	default:
		err = fmt.Errorf("%w: volunteerId or name is required", services.ErrInvalidInput)
	}
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	state.VolunteerID = volunteer.ID
	state.Search = ""
	if err := s.sessions.Save(r.Context(), token, *state); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{State: *state, Window: s.window(state), Volunteer: volunteer})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	token, state, err := s.loadSession(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	state.VolunteerID = ""
	if err := s.sessions.Save(r.Context(), token, *state); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{State: *state, Window: s.window(state)})
}

func (s *Server) handleNavigateWeek(w http.ResponseWriter, r *http.Request) {
	token, state, err := s.loadSession(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	var body struct {
		Direction string `json:"direction"`
		Reference string `json:"reference"`
	}
	if err := decode(r, &body); err != nil {
		s.writeError(w, r, err)
		return
	}

	current := s.window(state)
	var target week.Window
	switch {
	case body.Reference != "":
		ref, err := week.ParseDate(body.Reference, s.loc)
		if err != nil {
			s.writeError(w, r, fmt.Errorf("%w: %v", services.ErrInvalidInput, err))
			return
		}
		target = week.WindowFor(ref)
	case body.Direction == "next":
		target = current.Next()
	case body.Direction == "prev":
		target = current.Prev()
	case body.Direction == "today":
		target = week.WindowFor(s.now().In(s.loc))
	default:
		s.writeError(w, r, fmt.Errorf("%w: direction must be next, prev or today", services.ErrInvalidInput))
		return
	}

	state.Reference = week.FormatDate(target.Start)
	if err := s.sessions.Save(r.Context(), token, *state); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{State: *state, Window: target})
}

func (s *Server) handleSetSearch(w http.ResponseWriter, r *http.Request) {
	token, state, err := s.loadSession(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	var body struct {
		Search string `json:"search"`
	}
	if err := decode(r, &body); err != nil {
		s.writeError(w, r, err)
		return
	}

	state.Search = body.Search
	if err := s.sessions.Save(r.Context(), token, *state); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{State: *state, Window: s.window(state)})
}
