package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ressourcerie/planning/pkg/db"
)

// ListRegistrations retrieves all registrations in creation order
func (d *DB) ListRegistrations(ctx context.Context) ([]db.Registration, error) {
	rows, err := d.pool.Query(ctx, `
		SELECT id, volunteer_id, slot_id
		FROM registrations
		ORDER BY created_at ASC, id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query registrations: %w", err)
	}
	defer rows.Close()

	registrations := []db.Registration{}
	for rows.Next() {
		var r db.Registration
		if err := rows.Scan(&r.ID, &r.VolunteerID, &r.SlotID); err != nil {
			return nil, fmt.Errorf("failed to scan registration: %w", err)
		}
		registrations = append(registrations, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating registrations: %w", err)
	}

	return registrations, nil
}

// CreateRegistration registers a volunteer for a slot.
// A second registration for the same pair fails with db.ErrAlreadyRegistered.
func (d *DB) CreateRegistration(ctx context.Context, volunteerID, slotID string) (*db.Registration, error) {
	r := db.Registration{
		ID:          uuid.New().String(),
		VolunteerID: volunteerID,
		SlotID:      slotID,
	}

	_, err := d.pool.Exec(ctx, `
		INSERT INTO registrations (id, volunteer_id, slot_id)
		VALUES ($1, $2, $3)
	`, r.ID, r.VolunteerID, r.SlotID)
	switch {
	case isUniqueViolation(err):
		return nil, db.ErrAlreadyRegistered
	case isForeignKeyViolation(err):
		return nil, db.ErrNotFound
	case err != nil:
		return nil, fmt.Errorf("failed to insert registration: %w", err)
	}

	return &r, nil
}

// DeleteRegistration removes the registration of a volunteer for a slot and returns the deleted count
func (d *DB) DeleteRegistration(ctx context.Context, volunteerID, slotID string) (int64, error) {
	tag, err := d.pool.Exec(ctx, `
		DELETE FROM registrations
		WHERE volunteer_id = $1 AND slot_id = $2
	`, volunteerID, slotID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete registration: %w", err)
	}
	return tag.RowsAffected(), nil
}

// ExportDetailedRegistrations retrieves registrations joined with their slot and volunteer,
// for slots starting at or after rangeStart and ending at or before rangeEnd
func (d *DB) ExportDetailedRegistrations(ctx context.Context, rangeStart, rangeEnd time.Time) ([]db.DetailedRegistration, error) {
	rows, err := d.pool.Query(ctx, `
		SELECT r.id, v.name, s.title, s.start_at, s.end_at
		FROM registrations r
		JOIN slots s ON s.id = r.slot_id
		LEFT JOIN volunteers v ON v.id = r.volunteer_id
		WHERE s.start_at >= $1 AND s.end_at <= $2
		ORDER BY s.start_at ASC, v.name ASC
	`, rangeStart, rangeEnd)
	if err != nil {
		return nil, fmt.Errorf("failed to query detailed registrations: %w", err)
	}
	defer rows.Close()

	detailed := []db.DetailedRegistration{}
	for rows.Next() {
		var row db.DetailedRegistration
		var volunteerName *string
		if err := rows.Scan(&row.RegistrationID, &volunteerName, &row.SlotTitle, &row.SlotStart, &row.SlotEnd); err != nil {
			return nil, fmt.Errorf("failed to scan detailed registration: %w", err)
		}
		row.VolunteerName = db.UnknownVolunteerName
		if volunteerName != nil {
			row.VolunteerName = *volunteerName
		}
		detailed = append(detailed, row)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating detailed registrations: %w", err)
	}

	return detailed, nil
}
