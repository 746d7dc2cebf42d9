package services

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/ressourcerie/planning/pkg/db"
)

// CreateVolunteer registers a new volunteer under a trimmed, non-empty name
func CreateVolunteer(ctx context.Context, store db.VolunteerStore, logger *zap.Logger, name string) (*db.Volunteer, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: volunteer name is empty", ErrInvalidInput)
	}

	logger.Debug("Creating volunteer", zap.String("name", name))

	volunteer, err := store.CreateVolunteer(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("failed to create volunteer %q: %w", name, err)
	}

	logger.Info("Volunteer created", zap.String("volunteer_id", volunteer.ID), zap.String("name", volunteer.Name))
	return volunteer, nil
}

// RenameVolunteer changes a volunteer's name; the store rejects names held by another volunteer
func RenameVolunteer(ctx context.Context, store db.VolunteerStore, logger *zap.Logger, volunteerID, name string) error {
	name = strings.TrimSpace(name)
	if volunteerID == "" || name == "" {
		return fmt.Errorf("%w: volunteer id and name are required", ErrInvalidInput)
	}

	if err := store.RenameVolunteer(ctx, volunteerID, name); err != nil {
		return fmt.Errorf("failed to rename volunteer %s: %w", volunteerID, err)
	}

	logger.Info("Volunteer renamed", zap.String("volunteer_id", volunteerID), zap.String("name", name))
	return nil
}

// DeleteVolunteer removes a volunteer together with all their registrations
func DeleteVolunteer(ctx context.Context, store db.VolunteerStore, logger *zap.Logger, volunteerID string) error {
	if volunteerID == "" {
		return fmt.Errorf("%w: volunteer id is required", ErrInvalidInput)
	}

	if err := store.DeleteVolunteer(ctx, volunteerID); err != nil {
		return fmt.Errorf("failed to delete volunteer %s: %w", volunteerID, err)
	}

	logger.Info("Volunteer deleted", zap.String("volunteer_id", volunteerID))
	return nil
}

// Login records the volunteer's connection time. Recording is non-critical:
// a store failure is logged and the login still succeeds.
func Login(ctx context.Context, store db.VolunteerStore, logger *zap.Logger, volunteer db.Volunteer) db.Volunteer {
	if err := store.TouchLastConnection(ctx, volunteer.ID); err != nil {
		logger.Warn("Failed to record last connection", zap.String("volunteer_id", volunteer.ID), zap.Error(err))
	}

	logger.Info("Volunteer logged in", zap.String("volunteer_id", volunteer.ID), zap.String("name", volunteer.Name))
	return volunteer
}

// CreateAndLogin creates a volunteer from the search text and logs them in
func CreateAndLogin(ctx context.Context, store db.VolunteerStore, logger *zap.Logger, name string) (*db.Volunteer, error) {
	volunteer, err := CreateVolunteer(ctx, store, logger, name)
	if err != nil {
		return nil, err
	}

	loggedIn := Login(ctx, store, logger, *volunteer)
	return &loggedIn, nil
}

// ImportResult reports a best-effort volunteer import
type ImportResult struct {
	Created []db.Volunteer
	// Existing holds names already present, compared case-insensitively
	Existing []string
	Failed   map[string]error
}

// ImportVolunteers creates a volunteer for every name not yet known to the store.
// Names are processed one at a time and a failure never stops the import.
func ImportVolunteers(ctx context.Context, store db.VolunteerStore, logger *zap.Logger, names []string) *ImportResult {
	result := &ImportResult{Created: []db.Volunteer{}, Failed: map[string]error{}}

	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}

		existing, err := store.FindVolunteerByName(ctx, name, "")
		if err != nil {
			logger.Error("Failed to look up volunteer", zap.String("name", name), zap.Error(err))
			result.Failed[name] = err
			continue
		}
		if existing != nil {
			result.Existing = append(result.Existing, name)
			continue
		}

		volunteer, err := store.CreateVolunteer(ctx, name)
		if err != nil {
			logger.Error("Failed to import volunteer", zap.String("name", name), zap.Error(err))
			result.Failed[name] = err
			continue
		}
		result.Created = append(result.Created, *volunteer)
	}

	logger.Info("Volunteers imported",
		zap.Int("created", len(result.Created)),
		zap.Int("existing", len(result.Existing)),
		zap.Int("failed", len(result.Failed)))
	return result
}
