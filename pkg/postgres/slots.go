package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ressourcerie/planning/pkg/db"
)

// ListSlots retrieves slots starting at or after rangeStart and ending at or before rangeEnd
func (d *DB) ListSlots(ctx context.Context, rangeStart, rangeEnd time.Time) ([]db.Slot, error) {
	rows, err := d.pool.Query(ctx, `
		SELECT id, start_at, end_at, title
		FROM slots
		WHERE start_at >= $1 AND end_at <= $2
		ORDER BY start_at ASC
	`, rangeStart, rangeEnd)
	if err != nil {
		return nil, fmt.Errorf("failed to query slots: %w", err)
	}
	defer rows.Close()

	slots := []db.Slot{}
	for rows.Next() {
		var s db.Slot
		if err := rows.Scan(&s.ID, &s.Start, &s.End, &s.Title); err != nil {
			return nil, fmt.Errorf("failed to scan slot: %w", err)
		}
		slots = append(slots, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating slots: %w", err)
	}

	return slots, nil
}

// CreateSlot inserts a new slot
func (d *DB) CreateSlot(ctx context.Context, spec db.SlotSpec) (*db.Slot, error) {
	s := db.Slot{
		ID:    uuid.New().String(),
		Start: spec.Start,
		End:   spec.End,
		Title: spec.Title,
	}

	_, err := d.pool.Exec(ctx, `
		INSERT INTO slots (id, start_at, end_at, title)
		VALUES ($1, $2, $3, $4)
	`, s.ID, s.Start.UTC(), s.End.UTC(), s.Title)
	if err != nil {
		return nil, fmt.Errorf("failed to insert slot: %w", err)
	}

	return &s, nil
}

// UpdateSlot applies the non-nil fields of update to the slot
func (d *DB) UpdateSlot(ctx context.Context, id string, update db.SlotUpdate) error {
	if update.IsEmpty() {
		return nil
	}

	query, args := buildSlotUpdate(id, update)
	tag, err := d.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update slot: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return db.ErrNotFound
	}
	return nil
}

// buildSlotUpdate renders the UPDATE statement for the fields set in update
func buildSlotUpdate(id string, update db.SlotUpdate) (string, []any) {
	var sets []string
	args := []any{id}

	if update.Start != nil {
		args = append(args, update.Start.UTC())
		sets = append(sets, fmt.Sprintf("start_at = $%d", len(args)))
	}
	if update.End != nil {
		args = append(args, update.End.UTC())
		sets = append(sets, fmt.Sprintf("end_at = $%d", len(args)))
	}
	if update.Title != nil {
		args = append(args, *update.Title)
		sets = append(sets, fmt.Sprintf("title = $%d", len(args)))
	}

	return "UPDATE slots SET " + strings.Join(sets, ", ") + " WHERE id = $1", args
}

// DeleteSlot removes the slot's registrations then the slot, in one transaction
func (d *DB) DeleteSlot(ctx context.Context, id string) error {
	return d.deleteWithRegistrations(ctx, "slot", `DELETE FROM registrations WHERE slot_id = $1`, `DELETE FROM slots WHERE id = $1`, id)
}
