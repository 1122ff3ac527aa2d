// Package web provides the HTTP server for the Spotify receipt application.
package web

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/justestif/go-spotify-receipt/internal/db"
)

const (
	sessionCookieName = "session_id"
	sessionTTL        = 24 * time.Hour
)

// Session is an authenticated user session carrying the opaque access token.
// Expiry of the token itself is detected only by a failed upstream request.
type Session struct {
	ID          string
	AccessToken string
	DisplayName string
	CreatedAt   time.Time
}

// SessionManager defines session lifecycle operations.
type SessionManager interface {
	Create(ctx context.Context, accessToken, displayName string) (*Session, error)
	Get(ctx context.Context, id string) *Session
	Delete(ctx context.Context, id string)
}

// SessionStore manages user sessions in memory. It is the default store
// when no database is configured.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewSessionStore creates a new in-memory session store.
func NewSessionStore() *SessionStore {
	return &SessionStore{
		sessions: make(map[string]*Session),
	}
}

// Create generates a new session for the given token and display name.
func (s *SessionStore) Create(_ context.Context, accessToken, displayName string) (*Session, error) {
	session := &Session{
		ID:          uuid.NewString(),
		AccessToken: accessToken,
		DisplayName: displayName,
		CreatedAt:   time.Now(),
	}

	s.mu.Lock()
	s.sessions[session.ID] = session
	s.mu.Unlock()

	return session, nil
}

// Get retrieves a session by ID, or nil when missing or expired.
func (s *SessionStore) Get(_ context.Context, id string) *Session {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, ok := s.sessions[id]
	if !ok {
		return nil
	}
	if time.Since(session.CreatedAt) > sessionTTL {
		return nil
	}
	return session
}

// Delete removes a session by ID.
func (s *SessionStore) Delete(_ context.Context, id string) {
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
}

// DBSessionStore manages user sessions in PostgreSQL so they survive
// process restarts.
type DBSessionStore struct {
	database *db.DB
}

// NewDBSessionStore creates a database-backed session store.
func NewDBSessionStore(database *db.DB) *DBSessionStore {
	return &DBSessionStore{database: database}
}

// Create generates a new session and stores it in the database.
func (s *DBSessionStore) Create(ctx context.Context, accessToken, displayName string) (*Session, error) {
	now := time.Now()
	session := &Session{
		ID:          uuid.NewString(),
		AccessToken: accessToken,
		DisplayName: displayName,
		CreatedAt:   now,
	}

	err := s.database.Sessions().Create(ctx, &db.Session{
		ID:          session.ID,
		AccessToken: accessToken,
		DisplayName: displayName,
		CreatedAt:   now,
		ExpiresAt:   now.Add(sessionTTL),
	})
	if err != nil {
		return nil, err
	}
	return session, nil
}

// Get retrieves a session by ID from the database.
func (s *DBSessionStore) Get(ctx context.Context, id string) *Session {
	row, err := s.database.Sessions().Get(ctx, id)
	if err != nil {
		return nil
	}
	return &Session{
		ID:          row.ID,
		AccessToken: row.AccessToken,
		DisplayName: row.DisplayName,
		CreatedAt:   row.CreatedAt,
	}
}

// Delete removes a session from the database.
func (s *DBSessionStore) Delete(ctx context.Context, id string) {
	_ = s.database.Sessions().Delete(ctx, id)
}

// sessionFromRequest extracts the session from the request cookie.
func sessionFromRequest(sessions SessionManager, r *http.Request) *Session {
	cookie, err := r.Cookie(sessionCookieName)
	if err != nil {
		return nil
	}
	return sessions.Get(r.Context(), cookie.Value)
}

// setSessionCookie sets the session cookie on the response.
func setSessionCookie(w http.ResponseWriter, session *Session) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    session.ID,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(sessionTTL.Seconds()),
	})
}

// clearSessionCookie removes the session cookie from the response.
func clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	})
}

// Ensure both stores implement SessionManager.
var (
	_ SessionManager = (*SessionStore)(nil)
	_ SessionManager = (*DBSessionStore)(nil)
)
