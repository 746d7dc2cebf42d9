package services

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/ressourcerie/planning/pkg/core/week"
	"github.com/ressourcerie/planning/pkg/db"
)

// ExportRegistrations loads the detailed registrations of slots between the start of
// startDate and the end of endDate, ordered by slot start
func ExportRegistrations(ctx context.Context, store db.ExportStore, logger *zap.Logger, startDate, endDate time.Time) ([]db.DetailedRegistration, error) {
	if startDate.IsZero() || endDate.IsZero() {
		return nil, fmt.Errorf("%w: export dates are required", ErrInvalidInput)
	}

	rangeStart := week.StartOfDay(startDate)
	rangeEnd := week.EndOfDay(endDate)
	if rangeEnd.Before(rangeStart) {
		return nil, fmt.Errorf("%w: export end date is before start date", ErrInvalidInput)
	}

	rows, err := store.ExportDetailedRegistrations(ctx, rangeStart, rangeEnd)
	if err != nil {
		return nil, fmt.Errorf("failed to load registrations for export: %w", err)
	}

	logger.Info("Registrations loaded for export",
		zap.Time("start", rangeStart),
		zap.Time("end", rangeEnd),
		zap.Int("rows", len(rows)))
	return rows, nil
}

// ExportRange returns the date span covering weeks consecutive weeks from window
func ExportRange(window week.Window, weeks int) (time.Time, time.Time) {
	if weeks < 1 {
		weeks = 1
	}
	end := window
	for i := 1; i < weeks; i++ {
		end = end.Next()
	}
	return window.Start, end.End
}
