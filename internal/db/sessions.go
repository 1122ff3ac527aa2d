package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Session is a persisted web session row. The access token is opaque and
// session-scoped; there is no refresh handling.
type Session struct {
	ID          string
	AccessToken string
	DisplayName string
	CreatedAt   time.Time
	ExpiresAt   time.Time
}

// SessionRepository provides session persistence operations.
type SessionRepository struct {
	pool *pgxpool.Pool
}

// Create inserts a new session.
func (r *SessionRepository) Create(ctx context.Context, s *Session) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO sessions (id, access_token, display_name, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5)`,
		s.ID, s.AccessToken, s.DisplayName, s.CreatedAt, s.ExpiresAt)
	if err != nil {
		return fmt.Errorf("creating session: %w", err)
	}
	return nil
}

// Get returns a session by ID. Expired sessions report ErrNotFound.
func (r *SessionRepository) Get(ctx context.Context, id string) (*Session, error) {
	var s Session
	err := r.pool.QueryRow(ctx, `
		SELECT id, access_token, display_name, created_at, expires_at
		FROM sessions
		WHERE id = $1 AND expires_at > now()`, id).
		Scan(&s.ID, &s.AccessToken, &s.DisplayName, &s.CreatedAt, &s.ExpiresAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting session: %w", err)
	}
	return &s, nil
}

// Delete removes a session by ID. Deleting a missing session is not an error.
func (r *SessionRepository) Delete(ctx context.Context, id string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM sessions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting session: %w", err)
	}
	return nil
}

// DeleteExpired removes all sessions past their expiry.
func (r *SessionRepository) DeleteExpired(ctx context.Context) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM sessions WHERE expires_at <= now()`)
	if err != nil {
		return fmt.Errorf("deleting expired sessions: %w", err)
	}
	return nil
}
