package auth

import (
	"context"
	"errors"
	"fmt"

	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"golang.org/x/oauth2"
)

var (
	// ErrMissingVerifier is returned when a token exchange is attempted
	// without a prior login redirect having stored a verifier. The caller
	// should restart the login flow.
	ErrMissingVerifier = errors.New("no code verifier stored")

	// ErrExchangeFailed is returned when the provider rejects the
	// authorization code or the exchange request fails. The stored
	// verifier is preserved.
	ErrExchangeFailed = errors.New("token exchange failed")
)

// Config holds authenticator settings.
type Config struct {
	ClientID    string
	RedirectURI string
}

// Authenticator owns the PKCE login state machine: BeginLogin issues the
// authorization redirect, CompleteLogin redeems the callback code for an
// access token, Logout clears stored credentials.
type Authenticator struct {
	cfg   oauth2.Config
	store CredentialStore
}

// New creates an Authenticator for the Spotify accounts service.
func New(cfg Config, store CredentialStore) *Authenticator {
	return &Authenticator{
		cfg: oauth2.Config{
			ClientID:    cfg.ClientID,
			RedirectURL: cfg.RedirectURI,
			Endpoint: oauth2.Endpoint{
				AuthURL:  spotifyauth.AuthURL,
				TokenURL: spotifyauth.TokenURL,
				// Spotify's PKCE token endpoint wants client_id in the
				// form body, not basic auth.
				AuthStyle: oauth2.AuthStyleInParams,
			},
			Scopes: []string{
				spotifyauth.ScopeUserTopRead,
				spotifyauth.ScopeUserReadPrivate,
				spotifyauth.ScopeUserReadEmail,
			},
		},
		store: store,
	}
}

// BeginLogin generates a fresh verifier/challenge pair, persists the
// verifier (overwriting any previous login attempt) and returns the
// authorization URL to redirect the user to.
func (a *Authenticator) BeginLogin() (string, error) {
	verifier, err := GenerateVerifier()
	if err != nil {
		return "", fmt.Errorf("generating verifier: %w", err)
	}
	if err := a.store.SaveVerifier(verifier); err != nil {
		return "", fmt.Errorf("storing verifier: %w", err)
	}

	return a.cfg.AuthCodeURL("",
		oauth2.SetAuthURLParam("code_challenge_method", "S256"),
		oauth2.SetAuthURLParam("code_challenge", ChallengeS256(verifier)),
	), nil
}

// CompleteLogin exchanges an authorization code plus the stored verifier for
// an access token via a form-encoded POST to the token endpoint. The
// verifier is consumed on success and preserved on failure so the failure
// can be inspected; in practice callers restart the login. Returns
// ErrMissingVerifier, without any network call, when no login is in flight.
func (a *Authenticator) CompleteLogin(ctx context.Context, code string) (string, error) {
	verifier, err := a.store.LoadVerifier()
	if err != nil {
		return "", fmt.Errorf("loading verifier: %w", err)
	}
	if verifier == "" {
		return "", ErrMissingVerifier
	}

	token, err := a.cfg.Exchange(ctx, code, oauth2.VerifierOption(verifier))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrExchangeFailed, err)
	}
	if token.AccessToken == "" {
		return "", fmt.Errorf("%w: response carried no access token", ErrExchangeFailed)
	}

	// The verifier is single-use: success consumes it, so the same code
	// cannot be redeemed twice.
	if err := a.store.DeleteVerifier(); err != nil {
		return "", fmt.Errorf("clearing verifier: %w", err)
	}
	if err := a.store.SaveToken(token.AccessToken); err != nil {
		return "", fmt.Errorf("storing token: %w", err)
	}
	return token.AccessToken, nil
}

// Token returns the stored access token, or "" when logged out. Expiry is
// not tracked; it is detected by the next failed request.
func (a *Authenticator) Token() (string, error) {
	return a.store.LoadToken()
}

// Logout deletes the stored access token and any in-flight verifier.
func (a *Authenticator) Logout() error {
	if err := a.store.DeleteVerifier(); err != nil {
		return err
	}
	return a.store.DeleteToken()
}
