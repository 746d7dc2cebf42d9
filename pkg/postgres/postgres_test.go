package postgres

import (
	"errors"
	"fmt"
	"testing"
	"testing/fstest"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ressourcerie/planning/pkg/db"
)

func TestPendingMigrations(t *testing.T) {
	fsys := fstest.MapFS{
		"migrations/002_more.sql":  {Data: []byte("SELECT 2")},
		"migrations/001_init.sql":  {Data: []byte("SELECT 1")},
		"migrations/README.md":     {Data: []byte("notes")},
		"migrations/003_later.sql": {Data: []byte("SELECT 3")},
	}

	pending, err := pendingMigrations(fsys, map[string]bool{"002_more.sql": true})
	require.NoError(t, err)
	assert.Equal(t, []string{"001_init.sql", "003_later.sql"}, pending)
}

func TestPendingMigrations_EmbeddedSchema(t *testing.T) {
	pending, err := pendingMigrations(migrationsFS, map[string]bool{})
	require.NoError(t, err)
	require.NotEmpty(t, pending)
	assert.Equal(t, "001_init.sql", pending[0])
}

func TestErrorClassification(t *testing.T) {
	unique := &pgconn.PgError{Code: "23505", ConstraintName: "registrations_volunteer_slot_key"}
	fk := &pgconn.PgError{Code: "23503"}

	assert.True(t, isUniqueViolation(unique))
	assert.True(t, isUniqueViolation(fmt.Errorf("wrapped: %w", unique)))
	assert.False(t, isUniqueViolation(fk))
	assert.True(t, isForeignKeyViolation(fk))
	assert.False(t, isUniqueViolation(errors.New("boom")))
	assert.False(t, isUniqueViolation(nil))
	assert.Equal(t, "", pgErrorCode(nil))
}

func TestBuildSlotUpdate(t *testing.T) {
	start := time.Date(2025, 3, 4, 9, 0, 0, 0, time.UTC)
	title := "Tri"

	tests := []struct {
		name      string
		update    db.SlotUpdate
		wantQuery string
		wantArgs  int
	}{
		{
			name:      "title only",
			update:    db.SlotUpdate{Title: &title},
			wantQuery: "UPDATE slots SET title = $2 WHERE id = $1",
			wantArgs:  2,
		},
		{
			name:      "start and title",
			update:    db.SlotUpdate{Start: &start, Title: &title},
			wantQuery: "UPDATE slots SET start_at = $2, title = $3 WHERE id = $1",
			wantArgs:  3,
		},
		{
			name:      "all fields",
			update:    db.SlotUpdate{Start: &start, End: &start, Title: &title},
			wantQuery: "UPDATE slots SET start_at = $2, end_at = $3, title = $4 WHERE id = $1",
			wantArgs:  4,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			query, args := buildSlotUpdate("slot-1", tt.update)
			assert.Equal(t, tt.wantQuery, query)
			require.Len(t, args, tt.wantArgs)
			assert.Equal(t, "slot-1", args[0])
		})
	}
}
