package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ressourcerie/planning/pkg/core/week"
)

const (
	keyPrefix  = "planning:session:"
	DefaultTTL = 12 * time.Hour
)

// ErrNoSession is returned for unknown or expired session tokens
var ErrNoSession = errors.New("session not found")

// State is the application state of one client: the logged-in volunteer,
// the visible week and the current volunteer search text
type State struct {
	VolunteerID string `json:"volunteerId,omitempty"`
	// Reference is any date (YYYY-MM-DD) inside the visible week
	Reference string `json:"reference"`
	Search    string `json:"search,omitempty"`
}

// Window returns the visible week, falling back to now's week when Reference is unset or invalid
func (s State) Window(loc *time.Location, now time.Time) week.Window {
	if s.Reference != "" {
		if ref, err := week.ParseDate(s.Reference, loc); err == nil {
			return week.WindowFor(ref)
		}
	}
	return week.WindowFor(now.In(loc))
}

// Manager stores session states under random tokens
type Manager struct {
	kv  KV
	ttl time.Duration
}

func NewManager(kv KV, ttl time.Duration) *Manager {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Manager{kv: kv, ttl: ttl}
}

// Create stores state under a new token
func (m *Manager) Create(ctx context.Context, state State) (string, error) {
	token := uuid.New().String()
	if err := m.Save(ctx, token, state); err != nil {
		return "", err
	}
	return token, nil
}

// Load returns the state stored under token
func (m *Manager) Load(ctx context.Context, token string) (*State, error) {
	if token == "" {
		return nil, ErrNoSession
	}

	raw, err := m.kv.Get(ctx, keyPrefix+token)
	if err != nil {
		if errors.Is(err, ErrMiss) {
			return nil, ErrNoSession
		}
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	var state State
	if err := json.Unmarshal([]byte(raw), &state); err != nil {
		return nil, fmt.Errorf("failed to decode session: %w", err)
	}
	return &state, nil
}

// Save replaces the state stored under token and renews its expiry
func (m *Manager) Save(ctx context.Context, token string, state State) error {
	raw, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}
	if err := m.kv.Set(ctx, keyPrefix+token, string(raw), m.ttl); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// Delete ends the session
func (m *Manager) Delete(ctx context.Context, token string) error {
	if err := m.kv.Delete(ctx, keyPrefix+token); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}
