package services

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ressourcerie/planning/pkg/core/week"
	"github.com/ressourcerie/planning/pkg/db"
)

// DefaultSlotTitle is used when a slot is created without a title
const DefaultSlotTitle = "Boutique"

// ParseClock parses an "HH:MM" time of day
func ParseClock(value string) (hour, minute int, err error) {
	h, m, ok := strings.Cut(strings.TrimSpace(value), ":")
	if !ok {
		return 0, 0, fmt.Errorf("%w: time %q is not HH:MM", ErrInvalidInput, value)
	}
	hour, err = strconv.Atoi(h)
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, fmt.Errorf("%w: invalid hour in %q", ErrInvalidInput, value)
	}
	minute, err = strconv.Atoi(m)
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("%w: invalid minute in %q", ErrInvalidInput, value)
	}
	return hour, minute, nil
}

// atClock anchors an "HH:MM" time of day to day's calendar date
func atClock(day time.Time, clock string) (time.Time, error) {
	hour, minute, err := ParseClock(clock)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, day.Location()), nil
}

// slotSpecOnDay builds a slot spec on day from start and end clocks
func slotSpecOnDay(day time.Time, startClock, endClock, title string) (db.SlotSpec, error) {
	start, err := atClock(day, startClock)
	if err != nil {
		return db.SlotSpec{}, err
	}
	end, err := atClock(day, endClock)
	if err != nil {
		return db.SlotSpec{}, err
	}
	if !end.After(start) {
		return db.SlotSpec{}, fmt.Errorf("%w: slot end %s is not after start %s", ErrInvalidInput, endClock, startClock)
	}

	title = strings.TrimSpace(title)
	if title == "" {
		title = DefaultSlotTitle
	}
	return db.SlotSpec{Start: start, End: end, Title: title}, nil
}

// CreateSlotOnDate creates a slot from a YYYY-MM-DD date and HH:MM start and end times in loc
func CreateSlotOnDate(ctx context.Context, store db.SlotStore, logger *zap.Logger, loc *time.Location, date, startClock, endClock, title string) (*db.Slot, error) {
	if strings.TrimSpace(date) == "" {
		return nil, fmt.Errorf("%w: slot date is required", ErrInvalidInput)
	}
	day, err := week.ParseDate(date, loc)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	spec, err := slotSpecOnDay(day, startClock, endClock, title)
	if err != nil {
		return nil, err
	}

	slot, err := store.CreateSlot(ctx, spec)
	if err != nil {
		return nil, fmt.Errorf("failed to create slot: %w", err)
	}

	logger.Info("Slot created",
		zap.String("slot_id", slot.ID),
		zap.Time("start", slot.Start),
		zap.Time("end", slot.End),
		zap.String("title", slot.Title))
	return slot, nil
}

// RetimeSlot changes a slot's times and title while keeping its original calendar day in loc
func RetimeSlot(ctx context.Context, store db.SlotStore, logger *zap.Logger, loc *time.Location, slot db.Slot, startClock, endClock, title string) (*db.Slot, error) {
	spec, err := slotSpecOnDay(slot.Start.In(loc), startClock, endClock, title)
	if err != nil {
		return nil, err
	}

	update := db.SlotUpdate{Start: &spec.Start, End: &spec.End, Title: &spec.Title}
	if err := UpdateSlot(ctx, store, logger, slot.ID, update); err != nil {
		return nil, err
	}

	return &db.Slot{ID: slot.ID, Start: spec.Start, End: spec.End, Title: spec.Title}, nil
}

// UpdateSlot applies a partial update to a slot
func UpdateSlot(ctx context.Context, store db.SlotStore, logger *zap.Logger, slotID string, update db.SlotUpdate) error {
	if slotID == "" {
		return fmt.Errorf("%w: slot id is required", ErrInvalidInput)
	}
	if update.IsEmpty() {
		return fmt.Errorf("%w: slot update changes nothing", ErrInvalidInput)
	}
	if update.Start != nil && update.End != nil && !update.End.After(*update.Start) {
		return fmt.Errorf("%w: slot end is not after start", ErrInvalidInput)
	}

	if err := store.UpdateSlot(ctx, slotID, update); err != nil {
		return fmt.Errorf("failed to update slot %s: %w", slotID, err)
	}

	logger.Info("Slot updated", zap.String("slot_id", slotID))
	return nil
}

// DeleteSlot removes a slot together with its registrations
func DeleteSlot(ctx context.Context, store db.SlotStore, logger *zap.Logger, slotID string) error {
	if slotID == "" {
		return fmt.Errorf("%w: slot id is required", ErrInvalidInput)
	}

	if err := store.DeleteSlot(ctx, slotID); err != nil {
		return fmt.Errorf("failed to delete slot %s: %w", slotID, err)
	}

	logger.Info("Slot deleted", zap.String("slot_id", slotID))
	return nil
}

// SpecFailure records a slot spec whose creation failed
type SpecFailure struct {
	Spec db.SlotSpec
	Err  error
}

// CreationResult reports a best-effort series of slot creations
type CreationResult struct {
	Planned int
	Created []db.Slot
	Failed  []SpecFailure
}

// CreateSlots creates every spec one at a time; a failure never stops the remaining creations
func CreateSlots(ctx context.Context, store db.SlotStore, logger *zap.Logger, specs []db.SlotSpec) *CreationResult {
	result := &CreationResult{Planned: len(specs), Created: make([]db.Slot, 0, len(specs))}

	for _, spec := range specs {
		slot, err := store.CreateSlot(ctx, spec)
		if err != nil {
			logger.Error("Failed to create slot",
				zap.Time("start", spec.Start),
				zap.String("title", spec.Title),
				zap.Error(err))
			result.Failed = append(result.Failed, SpecFailure{Spec: spec, Err: err})
			continue
		}
		result.Created = append(result.Created, *slot)
	}

	logger.Info("Slots created",
		zap.Int("planned", result.Planned),
		zap.Int("created", len(result.Created)),
		zap.Int("failed", len(result.Failed)))
	return result
}
