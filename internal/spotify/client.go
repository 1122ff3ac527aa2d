// Package spotify provides a wrapper around the Spotify Web API.
package spotify

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/zmb3/spotify/v2"
	"golang.org/x/oauth2"

	"github.com/justestif/go-spotify-receipt/internal/receipt"
)

// Client wraps the Spotify API client with the fetch operations the receipt
// pipeline needs.
type Client struct {
	api *spotify.Client
	log zerolog.Logger
}

var _ receipt.Fetcher = (*Client)(nil)

// New creates a Spotify client wrapper from a bearer access token. The token
// is used as-is; there is no refresh handling, so an expired token shows up
// as a FetchError on the next request.
func New(ctx context.Context, accessToken string, log zerolog.Logger) *Client {
	src := oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: accessToken,
		TokenType:   "Bearer",
	})
	return &Client{
		api: spotify.New(oauth2.NewClient(ctx, src)),
		log: log,
	}
}

// Profile returns the authenticated user's display name.
func (c *Client) Profile(ctx context.Context) (string, error) {
	user, err := c.api.CurrentUser(ctx)
	if err != nil {
		return "", fmt.Errorf("getting current user: %w", asFetchError(err))
	}
	return user.DisplayName, nil
}

// FetchError reports a non-success response from the Spotify API. Callers
// treat any FetchError as session-invalid and force re-authentication; the
// request is not retried.
type FetchError struct {
	Status  int
	Message string
}

func (e *FetchError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("spotify: status %d", e.Status)
	}
	return fmt.Sprintf("spotify: status %d: %s", e.Status, e.Message)
}

// IsFetchError reports whether err carries a non-success API status.
func IsFetchError(err error) bool {
	var fe *FetchError
	return errors.As(err, &fe)
}

// asFetchError converts SDK errors carrying an HTTP status into FetchError,
// leaving transport errors untouched.
func asFetchError(err error) error {
	var se spotify.Error
	if errors.As(err, &se) {
		return &FetchError{Status: se.Status, Message: se.Message}
	}
	return err
}
