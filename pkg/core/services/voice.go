package services

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ressourcerie/planning/pkg/core/model"
	"github.com/ressourcerie/planning/pkg/core/schedule"
	"github.com/ressourcerie/planning/pkg/db"
)

// CommandInterpreter matches a spoken transcript against offered slots
type CommandInterpreter interface {
	InterpretSpokenCommand(ctx context.Context, transcript string, weekStart time.Time, slots []db.Slot) model.Interpretation
}

// InterpretVoiceCommand interprets a transcript against every slot of the snapshot.
// The result is meant to be confirmed before ApplyInterpretation runs it.
func InterpretVoiceCommand(ctx context.Context, interpreter CommandInterpreter, logger *zap.Logger, snap *schedule.Snapshot, transcript string) (model.Interpretation, error) {
	transcript = strings.TrimSpace(transcript)
	if transcript == "" {
		return model.Interpretation{}, fmt.Errorf("%w: transcript is empty", ErrInvalidInput)
	}
	if snap == nil {
		return model.Interpretation{}, fmt.Errorf("%w: no schedule loaded", ErrInvalidInput)
	}

	offered := slices.Clone(snap.Slots)
	schedule.SortSlots(offered)

	interpretation := interpreter.InterpretSpokenCommand(ctx, transcript, snap.Window.Start, offered)
	logger.Debug("Voice command interpreted",
		zap.Int("matched", len(interpretation.MatchedSlotIDs)),
		zap.String("action", string(interpretation.Action)))
	return interpretation, nil
}

// ApplyInterpretation runs a confirmed interpretation as a registration batch
func ApplyInterpretation(ctx context.Context, store db.RegistrationStore, logger *zap.Logger, snap *schedule.Snapshot, volunteerID string, interpretation model.Interpretation, refresh Refresher, opts BatchOptions) (*BatchResult, error) {
	return ApplyBatch(ctx, store, logger, snap, volunteerID, interpretation.Action, interpretation.MatchedSlotIDs, refresh, opts)
}
