package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"

	"github.com/rs/zerolog"

	"github.com/justestif/go-spotify-receipt/internal/auth"
	"github.com/justestif/go-spotify-receipt/internal/commentary"
	"github.com/justestif/go-spotify-receipt/internal/receipt"
	spotifyclient "github.com/justestif/go-spotify-receipt/internal/spotify"
)

// Handlers contains the HTTP handlers for the application.
type Handlers struct {
	auth       *auth.Authenticator
	sessions   SessionManager
	templates  *Templates
	commentary *commentary.Client
	log        zerolog.Logger

	// newFetcher builds a fetcher for a session token; tests swap it out.
	newFetcher func(ctx context.Context, accessToken string) receipt.Fetcher

	// One pipeline per session so a window change supersedes the previous
	// in-flight run for that session only.
	mu        sync.Mutex
	pipelines map[string]*receipt.Pipeline
}

// NewHandlers creates a Handlers instance.
func NewHandlers(authenticator *auth.Authenticator, sessions SessionManager, templates *Templates, commentaryClient *commentary.Client, log zerolog.Logger) *Handlers {
	h := &Handlers{
		auth:       authenticator,
		sessions:   sessions,
		templates:  templates,
		commentary: commentaryClient,
		log:        log,
		pipelines:  make(map[string]*receipt.Pipeline),
	}
	h.newFetcher = func(ctx context.Context, accessToken string) receipt.Fetcher {
		return spotifyclient.New(ctx, accessToken, log)
	}
	return h
}

// pipeline returns the receipt pipeline for a session, creating it on first
// use.
func (h *Handlers) pipeline(sessionID string) *receipt.Pipeline {
	h.mu.Lock()
	defer h.mu.Unlock()
	p, ok := h.pipelines[sessionID]
	if !ok {
		p = receipt.NewPipeline()
		h.pipelines[sessionID] = p
	}
	return p
}

func (h *Handlers) dropPipeline(sessionID string) {
	h.mu.Lock()
	delete(h.pipelines, sessionID)
	h.mu.Unlock()
}

// Home handles the home page (GET /).
func (h *Handlers) Home(w http.ResponseWriter, r *http.Request) {
	session := sessionFromRequest(h.sessions, r)

	data := HomePageData{
		Title:         "Spotify Receipt",
		Authenticated: session != nil,
	}
	if session != nil {
		data.DisplayName = session.DisplayName
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.templates.Render(w, "home", data); err != nil {
		http.Error(w, "Failed to render template", http.StatusInternalServerError)
	}
}

// Login starts the PKCE flow and redirects to the provider (GET /auth/login).
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	url, err := h.auth.BeginLogin()
	if err != nil {
		h.log.Error().Err(err).Msg("starting login failed")
		http.Error(w, "Failed to start login", http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, url, http.StatusTemporaryRedirect)
}

// Callback completes the PKCE flow (GET /callback).
func (h *Handlers) Callback(w http.ResponseWriter, r *http.Request) {
	if errMsg := r.URL.Query().Get("error"); errMsg != "" {
		http.Error(w, "Spotify auth error: "+errMsg, http.StatusBadRequest)
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		http.Error(w, "Missing authorization code", http.StatusBadRequest)
		return
	}

	token, err := h.auth.CompleteLogin(r.Context(), code)
	if errors.Is(err, auth.ErrMissingVerifier) {
		http.Error(w, "No login in progress, please log in again", http.StatusBadRequest)
		return
	}
	if err != nil {
		h.log.Error().Err(err).Msg("token exchange failed")
		http.Error(w, "Authentication failed, please log in again", http.StatusBadGateway)
		return
	}

	// The display name is fetched eagerly so the page can greet the user;
	// a failure here is not fatal since the receipt fetch repeats it.
	displayName := ""
	if name, err := h.newFetcher(r.Context(), token).Profile(r.Context()); err == nil {
		displayName = name
	} else {
		h.log.Warn().Err(err).Msg("profile fetch after login failed")
	}

	session, err := h.sessions.Create(r.Context(), token, displayName)
	if err != nil {
		h.log.Error().Err(err).Msg("creating session failed")
		http.Error(w, "Failed to create session", http.StatusInternalServerError)
		return
	}

	setSessionCookie(w, session)
	http.Redirect(w, r, "/", http.StatusTemporaryRedirect)
}

// Logout clears the session and stored credentials (POST /auth/logout).
func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	if session := sessionFromRequest(h.sessions, r); session != nil {
		h.sessions.Delete(r.Context(), session.ID)
		h.dropPipeline(session.ID)
	}
	if err := h.auth.Logout(); err != nil {
		h.log.Warn().Err(err).Msg("clearing stored credentials failed")
	}

	clearSessionCookie(w)
	http.Redirect(w, r, "/", http.StatusTemporaryRedirect)
}

// Receipt runs one aggregation pass and returns the result as JSON
// (GET /api/receipt?time_range=...).
func (h *Handlers) Receipt(w http.ResponseWriter, r *http.Request) {
	session := sessionFromRequest(h.sessions, r)
	if session == nil {
		writeJSONError(w, http.StatusUnauthorized, "not logged in")
		return
	}

	window := receipt.Window(r.URL.Query().Get("time_range"))
	if window == "" {
		window = receipt.ShortTerm
	}

	fetcher := h.newFetcher(r.Context(), session.AccessToken)
	result, err := h.pipeline(session.ID).Run(r.Context(), fetcher, window)
	if err != nil {
		if spotifyclient.IsFetchError(err) {
			// Session-invalid: clear the session and force re-login.
			h.sessions.Delete(r.Context(), session.ID)
			h.dropPipeline(session.ID)
			if logoutErr := h.auth.Logout(); logoutErr != nil {
				h.log.Warn().Err(logoutErr).Msg("clearing stored credentials failed")
			}
			clearSessionCookie(w)
			writeJSONError(w, http.StatusUnauthorized, "session expired, please log in again")
			return
		}
		h.log.Error().Err(err).Str("window", string(window)).Msg("receipt generation failed")
		writeJSONError(w, http.StatusBadGateway, "fetching listening data failed")
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// Commentary generates commentary for the latest receipt
// (GET /api/commentary?mode=vibe|roast).
func (h *Handlers) Commentary(w http.ResponseWriter, r *http.Request) {
	session := sessionFromRequest(h.sessions, r)
	if session == nil {
		writeJSONError(w, http.StatusUnauthorized, "not logged in")
		return
	}

	latest := h.pipeline(session.ID).Latest()
	if latest == nil {
		writeJSONError(w, http.StatusBadRequest, "generate a receipt first")
		return
	}

	mode := commentary.Mode(r.URL.Query().Get("mode"))
	if mode == "" {
		mode = commentary.ModeVibe
	}

	text, err := h.commentary.Generate(r.Context(), latest, mode)
	if errors.Is(err, commentary.ErrNotConfigured) {
		writeJSONError(w, http.StatusServiceUnavailable, "commentary not configured")
		return
	}
	if err != nil {
		h.log.Warn().Err(err).Msg("commentary generation failed")
		writeJSON(w, http.StatusOK, map[string]string{"text": "SYSTEM ERROR: ANALYSIS FAILED"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"text": text})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
