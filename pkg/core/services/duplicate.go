package services

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/ressourcerie/planning/pkg/core/schedule"
	"github.com/ressourcerie/planning/pkg/db"
)

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// SlotsOnDate returns the slots starting on date's calendar day in loc, sorted by start
func SlotsOnDate(slots []db.Slot, date time.Time, loc *time.Location) []db.Slot {
	day := date.In(loc)
	result := []db.Slot{}
	for _, s := range slots {
		if sameDay(s.Start.In(loc), day) {
			result = append(result, s)
		}
	}
	schedule.SortSlots(result)
	return result
}

// PlanDuplication re-anchors every source slot onto every target date, keeping the time of day
// in loc and the title. Targets on the source date are ignored.
func PlanDuplication(sourceDate time.Time, targetDates []time.Time, sources []db.Slot, loc *time.Location) []db.SlotSpec {
	source := sourceDate.In(loc)
	specs := make([]db.SlotSpec, 0, len(targetDates)*len(sources))

	for _, target := range targetDates {
		target = target.In(loc)
		if sameDay(target, source) {
			continue
		}
		for _, s := range sources {
			start := s.Start.In(loc)
			end := s.End.In(loc)
			// a slot ending after midnight keeps its day span
			days := int(time.Date(end.Year(), end.Month(), end.Day(), 0, 0, 0, 0, loc).Sub(
				time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, loc)).Hours() / 24)

			specs = append(specs, db.SlotSpec{
				Start: time.Date(target.Year(), target.Month(), target.Day(), start.Hour(), start.Minute(), 0, 0, loc),
				End:   time.Date(target.Year(), target.Month(), target.Day()+days, end.Hour(), end.Minute(), 0, 0, loc),
				Title: s.Title,
			})
		}
	}
	return specs
}

// DuplicateSlots copies the slots of sourceDate onto each target date
func DuplicateSlots(ctx context.Context, store db.SlotStore, logger *zap.Logger, loc *time.Location, slots []db.Slot, sourceDate time.Time, targetDates []time.Time) (*CreationResult, error) {
	sources := SlotsOnDate(slots, sourceDate, loc)
	if len(sources) == 0 {
		return nil, fmt.Errorf("%w: no slots on %s", ErrInvalidInput, sourceDate.In(loc).Format("2006-01-02"))
	}

	specs := PlanDuplication(sourceDate, targetDates, sources, loc)
	if len(specs) == 0 {
		return nil, fmt.Errorf("%w: no target date besides the source date", ErrInvalidInput)
	}

	logger.Debug("Duplicating slots",
		zap.Time("source_date", sourceDate),
		zap.Int("sources", len(sources)),
		zap.Int("targets", len(targetDates)),
		zap.Int("planned", len(specs)))

	return CreateSlots(ctx, store, logger, specs), nil
}
