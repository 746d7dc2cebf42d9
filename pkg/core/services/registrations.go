package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/ressourcerie/planning/pkg/core/model"
	"github.com/ressourcerie/planning/pkg/core/schedule"
	"github.com/ressourcerie/planning/pkg/db"
)

// Subscribe registers a volunteer for a slot
func Subscribe(ctx context.Context, store db.RegistrationStore, logger *zap.Logger, volunteerID, slotID string) (*db.Registration, error) {
	if volunteerID == "" || slotID == "" {
		return nil, fmt.Errorf("%w: volunteer id and slot id are required", ErrInvalidInput)
	}

	registration, err := store.CreateRegistration(ctx, volunteerID, slotID)
	if err != nil {
		return nil, fmt.Errorf("failed to register volunteer %s for slot %s: %w", volunteerID, slotID, err)
	}

	logger.Info("Volunteer registered",
		zap.String("volunteer_id", volunteerID),
		zap.String("slot_id", slotID),
		zap.String("registration_id", registration.ID))
	return registration, nil
}

// Unsubscribe removes a volunteer's registration for a slot.
// It returns whether a registration was actually removed; a missing one is not an error.
func Unsubscribe(ctx context.Context, store db.RegistrationStore, logger *zap.Logger, volunteerID, slotID string) (bool, error) {
	if volunteerID == "" || slotID == "" {
		return false, fmt.Errorf("%w: volunteer id and slot id are required", ErrInvalidInput)
	}

	deleted, err := store.DeleteRegistration(ctx, volunteerID, slotID)
	if err != nil {
		return false, fmt.Errorf("failed to unregister volunteer %s from slot %s: %w", volunteerID, slotID, err)
	}

	logger.Info("Volunteer unregistered",
		zap.String("volunteer_id", volunteerID),
		zap.String("slot_id", slotID),
		zap.Int64("deleted", deleted))
	return deleted > 0, nil
}

// ItemStatus is the outcome of one batch item
type ItemStatus string

const (
	ItemApplied ItemStatus = "applied"
	ItemSkipped ItemStatus = "skipped"
	ItemFailed  ItemStatus = "failed"
)

// ItemOutcome records what happened to one slot of a batch
type ItemOutcome struct {
	SlotID string     `json:"slotId"`
	Status ItemStatus `json:"status"`
	Err    error      `json:"-"`
}

// BatchResult is the per-item report of ApplyBatch
type BatchResult struct {
	Action   model.Action       `json:"action"`
	Items    []ItemOutcome      `json:"items"`
	Applied  int                `json:"applied"`
	Skipped  int                `json:"skipped"`
	Failed   int                `json:"failed"`
	Snapshot *schedule.Snapshot `json:"-"`
	// RefreshErr is set when the post-batch refresh failed
	RefreshErr error `json:"-"`
}

// Refresher reloads the schedule after a mutation
type Refresher func(ctx context.Context) (*schedule.Snapshot, error)

// BatchOptions tunes ApplyBatch
type BatchOptions struct {
	// OnItemFailure is invoked for every failed item, after it has been logged
	OnItemFailure func(slotID string, err error)
}

// ApplyBatch adds or removes the volunteer's registrations for every slot id, one call at a time.
// For adds, pairs already registered in snap are skipped without a store call. Removes are
// attempted for every id. A failing item never stops the batch, and refresh runs exactly
// once after the whole batch.
func ApplyBatch(ctx context.Context, store db.RegistrationStore, logger *zap.Logger, snap *schedule.Snapshot, volunteerID string, action model.Action, slotIDs []string, refresh Refresher, opts BatchOptions) (*BatchResult, error) {
	if volunteerID == "" {
		return nil, fmt.Errorf("%w: volunteer id is required", ErrInvalidInput)
	}
	if action != model.ActionAdd && action != model.ActionRemove {
		return nil, fmt.Errorf("%w: unknown action %q", ErrInvalidInput, action)
	}

	logger.Debug("Applying registration batch",
		zap.String("volunteer_id", volunteerID),
		zap.String("action", string(action)),
		zap.Int("slots", len(slotIDs)))

	result := &BatchResult{Action: action, Items: make([]ItemOutcome, 0, len(slotIDs))}

	for _, slotID := range slotIDs {
		outcome := ItemOutcome{SlotID: slotID, Status: ItemApplied}

		switch action {
		case model.ActionAdd:
			if snap != nil && snap.IsRegistered(volunteerID, slotID) {
				outcome.Status = ItemSkipped
				break
			}
			if _, err := store.CreateRegistration(ctx, volunteerID, slotID); err != nil {
				outcome.Status = ItemFailed
				outcome.Err = err
			}
		case model.ActionRemove:
			if _, err := store.DeleteRegistration(ctx, volunteerID, slotID); err != nil {
				outcome.Status = ItemFailed
				outcome.Err = err
			}
		}

		switch outcome.Status {
		case ItemApplied:
			result.Applied++
		case ItemSkipped:
			result.Skipped++
		case ItemFailed:
			result.Failed++
			logger.Error("Batch item failed",
				zap.String("volunteer_id", volunteerID),
				zap.String("slot_id", slotID),
				zap.String("action", string(action)),
				zap.Error(outcome.Err))
			if opts.OnItemFailure != nil {
				opts.OnItemFailure(slotID, outcome.Err)
			}
		}
		result.Items = append(result.Items, outcome)
	}

	if refresh != nil {
		result.Snapshot, result.RefreshErr = refresh(ctx)
		if result.RefreshErr != nil {
			logger.Warn("Refresh after batch failed", zap.Error(result.RefreshErr))
		}
	}

	logger.Info("Registration batch applied",
		zap.String("action", string(action)),
		zap.Int("applied", result.Applied),
		zap.Int("skipped", result.Skipped),
		zap.Int("failed", result.Failed))
	return result, nil
}
