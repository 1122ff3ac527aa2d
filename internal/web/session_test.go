package web

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestSessionStoreLifecycle(t *testing.T) {
	store := NewSessionStore()
	ctx := context.Background()

	session, err := store.Create(ctx, "access-token", "Listener")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if session.ID == "" {
		t.Fatal("Create() returned a session without an ID")
	}
	if session.AccessToken != "access-token" {
		t.Errorf("AccessToken = %q, want %q", session.AccessToken, "access-token")
	}

	got := store.Get(ctx, session.ID)
	if got == nil {
		t.Fatal("Get() = nil for a fresh session")
	}
	if got.DisplayName != "Listener" {
		t.Errorf("DisplayName = %q, want %q", got.DisplayName, "Listener")
	}

	store.Delete(ctx, session.ID)
	if store.Get(ctx, session.ID) != nil {
		t.Error("Get() returned a deleted session")
	}
}

func TestSessionStoreUnknownID(t *testing.T) {
	store := NewSessionStore()
	if got := store.Get(context.Background(), "no-such-session"); got != nil {
		t.Errorf("Get() = %+v for unknown ID, want nil", got)
	}
}

func TestSessionStoreExpiry(t *testing.T) {
	store := NewSessionStore()
	ctx := context.Background()

	session, err := store.Create(ctx, "access-token", "Listener")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	session.CreatedAt = time.Now().Add(-sessionTTL - time.Minute)

	if got := store.Get(ctx, session.ID); got != nil {
		t.Errorf("Get() = %+v for expired session, want nil", got)
	}
}

func TestSessionFromRequest(t *testing.T) {
	store := NewSessionStore()
	ctx := context.Background()

	session, err := store.Create(ctx, "access-token", "Listener")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(&http.Cookie{Name: sessionCookieName, Value: session.ID})
	if got := sessionFromRequest(store, r); got == nil || got.ID != session.ID {
		t.Errorf("sessionFromRequest() = %+v, want session %q", got, session.ID)
	}

	bare := httptest.NewRequest(http.MethodGet, "/", nil)
	if got := sessionFromRequest(store, bare); got != nil {
		t.Errorf("sessionFromRequest() = %+v without cookie, want nil", got)
	}
}

func TestSessionCookieRoundTrip(t *testing.T) {
	w := httptest.NewRecorder()
	setSessionCookie(w, &Session{ID: "session-1"})

	cookies := w.Result().Cookies()
	if len(cookies) != 1 {
		t.Fatalf("got %d cookies, want 1", len(cookies))
	}
	c := cookies[0]
	if c.Name != sessionCookieName || c.Value != "session-1" {
		t.Errorf("cookie = %s=%s, want %s=session-1", c.Name, c.Value, sessionCookieName)
	}
	if !c.HttpOnly {
		t.Error("session cookie is not HttpOnly")
	}

	w = httptest.NewRecorder()
	clearSessionCookie(w)
	cookies = w.Result().Cookies()
	if len(cookies) != 1 || cookies[0].MaxAge >= 0 {
		t.Errorf("clearSessionCookie did not expire the cookie: %+v", cookies)
	}
}
