package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/ressourcerie/planning/pkg/db"
)

// ListVolunteers retrieves all volunteers sorted by name
func (d *DB) ListVolunteers(ctx context.Context) ([]db.Volunteer, error) {
	rows, err := d.pool.Query(ctx, `
		SELECT id, name, last_connection
		FROM volunteers
		ORDER BY name ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query volunteers: %w", err)
	}
	defer rows.Close()

	volunteers := []db.Volunteer{}
	for rows.Next() {
		var v db.Volunteer
		if err := rows.Scan(&v.ID, &v.Name, &v.LastConnection); err != nil {
			return nil, fmt.Errorf("failed to scan volunteer: %w", err)
		}
		volunteers = append(volunteers, v)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating volunteers: %w", err)
	}

	return volunteers, nil
}

// FindVolunteerByName returns the volunteer whose name matches case-insensitively,
// ignoring excludeID when it is not empty. It returns nil when there is no match.
func (d *DB) FindVolunteerByName(ctx context.Context, name, excludeID string) (*db.Volunteer, error) {
	var v db.Volunteer
	err := d.pool.QueryRow(ctx, `
		SELECT id, name, last_connection
		FROM volunteers
		WHERE lower(name) = lower($1) AND ($2 = '' OR id <> $2)
		LIMIT 1
	`, name, excludeID).Scan(&v.ID, &v.Name, &v.LastConnection)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find volunteer by name: %w", err)
	}
	return &v, nil
}

// CreateVolunteer inserts a volunteer, failing with db.ErrDuplicateName if the name is taken
func (d *DB) CreateVolunteer(ctx context.Context, name string) (*db.Volunteer, error) {
	existing, err := d.FindVolunteerByName(ctx, name, "")
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, db.ErrDuplicateName
	}

	v := db.Volunteer{ID: uuid.New().String(), Name: name}
	_, err = d.pool.Exec(ctx, `
		INSERT INTO volunteers (id, name)
		VALUES ($1, $2)
	`, v.ID, v.Name)
	if isUniqueViolation(err) {
		return nil, db.ErrDuplicateName
	}
	if err != nil {
		return nil, fmt.Errorf("failed to insert volunteer: %w", err)
	}

	return &v, nil
}

// RenameVolunteer changes a volunteer's name, rejecting names held by another volunteer
func (d *DB) RenameVolunteer(ctx context.Context, id, name string) error {
	existing, err := d.FindVolunteerByName(ctx, name, id)
	if err != nil {
		return err
	}
	if existing != nil {
		return db.ErrDuplicateName
	}

	tag, err := d.pool.Exec(ctx, `UPDATE volunteers SET name = $2 WHERE id = $1`, id, name)
	if isUniqueViolation(err) {
		return db.ErrDuplicateName
	}
	if err != nil {
		return fmt.Errorf("failed to rename volunteer: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return db.ErrNotFound
	}
	return nil
}

// TouchLastConnection sets the volunteer's last connection to now
func (d *DB) TouchLastConnection(ctx context.Context, id string) error {
	_, err := d.pool.Exec(ctx, `UPDATE volunteers SET last_connection = NOW() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to update last connection: %w", err)
	}
	return nil
}

// DeleteVolunteer removes the volunteer's registrations then the volunteer, in one transaction
func (d *DB) DeleteVolunteer(ctx context.Context, id string) error {
	return d.deleteWithRegistrations(ctx, "volunteer", `DELETE FROM registrations WHERE volunteer_id = $1`, `DELETE FROM volunteers WHERE id = $1`, id)
}

// deleteWithRegistrations runs the registration cascade and the parent delete atomically
func (d *DB) deleteWithRegistrations(ctx context.Context, kind, cascadeSQL, deleteSQL, id string) error {
	tx, err := d.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, cascadeSQL, id); err != nil {
		return fmt.Errorf("failed to delete registrations of %s: %w", kind, err)
	}

	tag, err := tx.Exec(ctx, deleteSQL, id)
	if err != nil {
		return fmt.Errorf("failed to delete %s: %w", kind, err)
	}
	if tag.RowsAffected() == 0 {
		return db.ErrNotFound
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
