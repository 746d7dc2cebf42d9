package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/teambition/rrule-go"
	"go.uber.org/zap"

	"github.com/ressourcerie/planning/pkg/core/model"
	"github.com/ressourcerie/planning/pkg/core/week"
	"github.com/ressourcerie/planning/pkg/db"
)

// PatternGenerator turns a natural-language request into weekly slot patterns
type PatternGenerator interface {
	GenerateWeeklyPatterns(ctx context.Context, rangeStart, rangeEnd time.Time, instruction string) []model.Pattern
}

// ExpandPatterns builds concrete slot specs for every day in [rangeStart, rangeEnd] whose
// weekday matches a pattern. A constructed slot is kept only if it ends after it starts and
// lies fully inside the range.
func ExpandPatterns(rangeStart, rangeEnd time.Time, patterns []model.Pattern) ([]db.SlotSpec, error) {
	specs := []db.SlotSpec{}
	if len(patterns) == 0 || rangeEnd.Before(rangeStart) {
		return specs, nil
	}

	days, err := rrule.NewRRule(rrule.ROption{
		Freq:    rrule.DAILY,
		Dtstart: week.StartOfDay(rangeStart),
		Until:   rangeEnd,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build day recurrence: %w", err)
	}

	for _, day := range days.All() {
		dayIndex := week.MondayIndex(day.Weekday())
		for _, p := range patterns {
			if p.DayOfWeek != dayIndex {
				continue
			}
			start := time.Date(day.Year(), day.Month(), day.Day(), p.StartHour, p.StartMinute, 0, 0, day.Location())
			end := time.Date(day.Year(), day.Month(), day.Day(), p.EndHour, p.EndMinute, 0, 0, day.Location())
			if !end.After(start) || start.Before(rangeStart) || end.After(rangeEnd) {
				continue
			}
			specs = append(specs, db.SlotSpec{Start: start, End: end, Title: p.Title})
		}
	}
	return specs, nil
}

// GenerateSlots asks the generator for weekly patterns and creates the matching slots between
// startDate and the end of endDate.
func GenerateSlots(ctx context.Context, store db.SlotStore, generator PatternGenerator, logger *zap.Logger, startDate, endDate time.Time, instruction string) (*CreationResult, error) {
	instruction = strings.TrimSpace(instruction)
	if instruction == "" {
		return nil, fmt.Errorf("%w: generation request is empty", ErrInvalidInput)
	}
	if startDate.IsZero() || endDate.IsZero() {
		return nil, fmt.Errorf("%w: start and end dates are required", ErrInvalidInput)
	}

	rangeStart := week.StartOfDay(startDate)
	rangeEnd := week.EndOfDay(endDate)
	if rangeEnd.Before(rangeStart) {
		return nil, fmt.Errorf("%w: end date is before start date", ErrInvalidInput)
	}

	patterns := generator.GenerateWeeklyPatterns(ctx, rangeStart, rangeEnd, instruction)
	logger.Debug("Patterns received", zap.Int("count", len(patterns)))

	specs, err := ExpandPatterns(rangeStart, rangeEnd, patterns)
	if err != nil {
		return nil, err
	}
	if len(specs) == 0 {
		logger.Info("No slots to generate", zap.String("instruction", instruction))
		return &CreationResult{Created: []db.Slot{}}, nil
	}

	return CreateSlots(ctx, store, logger, specs), nil
}
