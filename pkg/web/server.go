// Package web exposes the planning operations as a JSON HTTP API.
package web

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/ressourcerie/planning/pkg/clients/sheetsclient"
	"github.com/ressourcerie/planning/pkg/core/services"
	"github.com/ressourcerie/planning/pkg/db"
	"github.com/ressourcerie/planning/pkg/session"
)

const (
	SessionHeader = "X-Session-Token"
	SessionCookie = "planning_session"

	maxBodyBytes = 1 << 20
)

// GenAI is the generative service used for slot generation and voice commands
type GenAI interface {
	services.PatternGenerator
	services.CommandInterpreter
}

// Sheets publishes exports to and imports volunteers from a spreadsheet
type Sheets interface {
	PublishExport(ctx context.Context, spreadsheetID string, export *sheetsclient.PublishedExport) (string, error)
	ListVolunteerNames(ctx context.Context, spreadsheetID, sheetRange string) ([]string, error)
}

// Options holds the server dependencies. Sheets may be nil.
type Options struct {
	Store           db.Database
	Sessions        *session.Manager
	GenAI           GenAI
	Sheets          Sheets
	SpreadsheetID   string
	VolunteersRange string
	Location        *time.Location
	Logger          *zap.Logger
}

// Server serves the HTTP API
type Server struct {
	store           db.Database
	sessions        *session.Manager
	genai           GenAI
	sheets          Sheets
	spreadsheetID   string
	volunteersRange string
	loc             *time.Location
	logger          *zap.Logger
	now             func() time.Time
	mux             *http.ServeMux
}

// NewServer constructs a Server with its routes registered
func NewServer(opts Options) *Server {
	loc := opts.Location
	if loc == nil {
		loc = time.Local
	}
	s := &Server{
		store:           opts.Store,
		sessions:        opts.Sessions,
		genai:           opts.GenAI,
		sheets:          opts.Sheets,
		spreadsheetID:   opts.SpreadsheetID,
		volunteersRange: opts.VolunteersRange,
		loc:             loc,
		logger:          opts.Logger,
		now:             time.Now,
		mux:             http.NewServeMux(),
	}
	s.registerRoutes()
	return s
}

// Handler returns the root handler with request logging
func (s *Server) Handler() http.Handler {
	return s.logRequests(s.mux)
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /health", s.handleHealth)

	s.mux.HandleFunc("POST /api/session", s.handleCreateSession)
	s.mux.HandleFunc("GET /api/session", s.handleGetSession)
	s.mux.HandleFunc("DELETE /api/session", s.handleDeleteSession)
	s.mux.HandleFunc("POST /api/session/login", s.handleLogin)
	s.mux.HandleFunc("POST /api/session/logout", s.handleLogout)
	s.mux.HandleFunc("POST /api/session/week", s.handleNavigateWeek)
	s.mux.HandleFunc("PUT /api/session/search", s.handleSetSearch)

	s.mux.HandleFunc("GET /api/schedule", s.handleSchedule)

	s.mux.HandleFunc("GET /api/volunteers", s.handleSearchVolunteers)
	s.mux.HandleFunc("POST /api/volunteers", s.handleCreateVolunteer)
	s.mux.HandleFunc("PUT /api/volunteers/{id}", s.handleRenameVolunteer)
	s.mux.HandleFunc("DELETE /api/volunteers/{id}", s.handleDeleteVolunteer)
	s.mux.HandleFunc("POST /api/admin/volunteers/import", s.handleImportVolunteers)

	s.mux.HandleFunc("POST /api/registrations", s.handleSubscribe)
	s.mux.HandleFunc("DELETE /api/registrations/{slotId}", s.handleUnsubscribe)
	s.mux.HandleFunc("POST /api/registrations/batch", s.handleBatch)
	s.mux.HandleFunc("DELETE /api/admin/slots/{slotId}/volunteers/{volunteerId}", s.handleAdminUnsubscribe)

	s.mux.HandleFunc("POST /api/voice/interpret", s.handleInterpretVoice)

	s.mux.HandleFunc("GET /api/admin/slots", s.handleAdminSlots)
	s.mux.HandleFunc("POST /api/admin/slots", s.handleCreateSlot)
	s.mux.HandleFunc("PUT /api/admin/slots/{id}", s.handleUpdateSlot)
	s.mux.HandleFunc("DELETE /api/admin/slots/{id}", s.handleDeleteSlot)
	s.mux.HandleFunc("POST /api/admin/slots/duplicate", s.handleDuplicateSlots)
	s.mux.HandleFunc("POST /api/admin/slots/generate", s.handleGenerateSlots)

	s.mux.HandleFunc("GET /api/admin/export", s.handleExport)
	s.mux.HandleFunc("POST /api/admin/export/publish", s.handlePublishExport)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.Debug("HTTP request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("duration", time.Since(start)))
	})
}

type errorBody struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// statusFor maps domain errors to HTTP statuses; anything unknown is a store or upstream failure
func statusFor(err error) int {
	switch {
	case errors.Is(err, services.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, session.ErrNoSession):
		return http.StatusUnauthorized
	case errors.Is(err, db.ErrDuplicateName), errors.Is(err, db.ErrAlreadyRegistered):
		return http.StatusConflict
	case errors.Is(err, db.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusBadGateway
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status == http.StatusBadGateway {
		s.logger.Error("Request failed", zap.String("path", r.URL.Path), zap.Error(err))
	}
	writeJSON(w, status, errorBody{Error: err.Error()})
}

func readBodyJSON(r *http.Request, out any) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return err
	}
	if len(body) == 0 {
		return nil
	}
	return json.Unmarshal(body, out)
}

// decode reads the JSON body, reporting malformed input as ErrInvalidInput
func decode(r *http.Request, out any) error {
	if err := readBodyJSON(r, out); err != nil {
		return errors.Join(services.ErrInvalidInput, err)
	}
	return nil
}
