// Package notify stores users' notification endpoints and delivers request
// events to them.
package notify

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Kind is a delivery channel.
type Kind string

const (
	KindEmail    Kind = "email"
	KindDiscord  Kind = "discord"
	KindTelegram Kind = "telegram"
	KindWebhook  Kind = "webhook"
)

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	switch k {
	case KindEmail, KindDiscord, KindTelegram, KindWebhook:
		return true
	}
	return false
}

var (
	// ErrNotFound indicates the endpoint doesn't exist.
	ErrNotFound = errors.New("notification endpoint not found")
	// ErrDuplicate indicates the user already has this endpoint.
	ErrDuplicate = errors.New("notification endpoint already exists")
	// ErrInvalid indicates a malformed endpoint.
	ErrInvalid = errors.New("invalid notification endpoint")
)

// Endpoint is one place a user receives notifications.
type Endpoint struct {
	ID        int64     `json:"id"`
	UserID    string    `json:"userId"`
	Kind      Kind      `json:"kind"`
	Target    string    `json:"target"`
	CreatedAt time.Time `json:"createdAt"`
}

// EndpointStore persists notification endpoints.
type EndpointStore struct {
	db *sql.DB
}

// NewEndpointStore creates an endpoint store.
func NewEndpointStore(db *sql.DB) *EndpointStore {
	return &EndpointStore{db: db}
}

// Add stores a new endpoint and sets its ID.
func (s *EndpointStore) Add(ctx context.Context, e *Endpoint) error {
	e.Target = strings.TrimSpace(e.Target)
	switch {
	case e.UserID == "":
		return fmt.Errorf("user id required: %w", ErrInvalid)
	case !e.Kind.Valid():
		return fmt.Errorf("kind %q: %w", e.Kind, ErrInvalid)
	case e.Target == "":
		return fmt.Errorf("target required: %w", ErrInvalid)
	case e.Kind == KindWebhook && !strings.HasPrefix(e.Target, "http://") && !strings.HasPrefix(e.Target, "https://"):
		return fmt.Errorf("webhook target must be an http(s) url: %w", ErrInvalid)
	}

	e.CreatedAt = time.Now().UTC()
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO notification_endpoints (user_id, kind, target, created_at)
		VALUES (?, ?, ?, ?)`, e.UserID, e.Kind, e.Target, e.CreatedAt)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return ErrDuplicate
		}
		return fmt.Errorf("insert endpoint: %w", err)
	}
	if e.ID, err = result.LastInsertId(); err != nil {
		return fmt.Errorf("get last insert id: %w", err)
	}
	return nil
}

// List returns a user's endpoints in creation order.
func (s *EndpointStore) List(ctx context.Context, userID string) ([]Endpoint, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, kind, target, created_at FROM notification_endpoints
		WHERE user_id = ? ORDER BY id`, userID)
	if err != nil {
		return nil, fmt.Errorf("list endpoints: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []Endpoint
	for rows.Next() {
		var e Endpoint
		if err := rows.Scan(&e.ID, &e.UserID, &e.Kind, &e.Target, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan endpoint: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Count returns how many endpoints a user has.
func (s *EndpointStore) Count(ctx context.Context, userID string) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM notification_endpoints WHERE user_id = ?", userID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count endpoints: %w", err)
	}
	return n, nil
}

// Get returns one endpoint.
func (s *EndpointStore) Get(ctx context.Context, id int64) (*Endpoint, error) {
	var e Endpoint
	err := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, kind, target, created_at FROM notification_endpoints WHERE id = ?`, id,
	).Scan(&e.ID, &e.UserID, &e.Kind, &e.Target, &e.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get endpoint %d: %w", id, err)
	}
	return &e, nil
}

// Delete removes an endpoint.
func (s *EndpointStore) Delete(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM notification_endpoints WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete endpoint %d: %w", id, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
