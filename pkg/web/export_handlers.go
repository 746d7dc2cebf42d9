package web

import (
	"fmt"
	"net/http"
	"time"

	"github.com/ressourcerie/planning/pkg/clients/sheetsclient"
	"github.com/ressourcerie/planning/pkg/core/services"
	"github.com/ressourcerie/planning/pkg/export"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type exportRange struct {
	Start time.Time
	End   time.Time
}

func (s *Server) exportRange(startValue, endValue string) (exportRange, error) {
	start, err := s.parseDate(startValue, "start")
	if err != nil {
		return exportRange{}, err
	}
	end, err := s.parseDate(endValue, "end")
	if err != nil {
		return exportRange{}, err
	}
	return exportRange{Start: start, End: end}, nil
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	rng, err := s.exportRange(r.URL.Query().Get("start"), r.URL.Query().Get("end"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	registrations, err := services.ExportRegistrations(r.Context(), s.store, s.logger, rng.Start, rng.End)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	content, err := export.Workbook(export.Rows(registrations, s.loc))
	if err != nil {
		s.writeError(w, r, fmt.Errorf("failed to build workbook: %w", err))
		return
	}

	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.FileName(s.now())))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(content)
}

func (s *Server) handlePublishExport(w http.ResponseWriter, r *http.Request) {
	if s.sheets == nil || s.spreadsheetID == "" {
		s.writeError(w, r, fmt.Errorf("%w: spreadsheet publishing is not configured", services.ErrInvalidInput))
		return
	}

	var body struct {
		Start string `json:"start"`
		End   string `json:"end"`
	}
	if err := decode(r, &body); err != nil {
		s.writeError(w, r, err)
		return
	}

	rng, err := s.exportRange(body.Start, body.End)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	registrations, err := services.ExportRegistrations(r.Context(), s.store, s.logger, rng.Start, rng.End)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	rows := export.Rows(registrations, s.loc)
	published := &sheetsclient.PublishedExport{Start: rng.Start, End: rng.End, Header: export.Header, Rows: make([][]string, 0, len(rows))}
	for _, row := range rows {
		published.Rows = append(published.Rows, row.Values())
	}

	tab, err := s.sheets.PublishExport(r.Context(), s.spreadsheetID, published)
	if err != nil {
		s.writeError(w, r, fmt.Errorf("failed to publish export: %w", err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"tab": tab, "rows": len(rows)})
}
