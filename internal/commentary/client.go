// Package commentary generates free-form receipt commentary through an
// external text-generation service. The receipt pipeline never depends on
// its output; it is consumed by the presentation layer only.
package commentary

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/justestif/go-spotify-receipt/internal/receipt"
)

const (
	defaultBaseURL = "https://generativelanguage.googleapis.com"
	defaultModel   = "gemini-2.5-flash"

	maxPromptTracks  = 10
	maxPromptArtists = 5
)

// ErrNotConfigured is returned when no API key is set.
var ErrNotConfigured = errors.New("commentary service not configured")

// Mode selects the voice of the generated text.
type Mode string

const (
	// ModeVibe asks for an observant, slightly hipster taste analysis.
	ModeVibe Mode = "vibe"
	// ModeRoast asks for a snarky roast of the listener's taste.
	ModeRoast Mode = "roast"
)

// Client calls a Gemini-style generateContent endpoint.
type Client struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
}

// NewClient creates a commentary client. Empty baseURL and model fall back
// to the public Gemini endpoint and default model; an empty apiKey leaves
// the client unconfigured.
func NewClient(baseURL, apiKey, model string) *Client {
	baseURL = strings.TrimRight(baseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if model == "" {
		model = defaultModel
	}
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		model:   model,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Configured reports whether an API key is present.
func (c *Client) Configured() bool {
	return c.apiKey != ""
}

type generateRequest struct {
	Contents []content `json:"contents"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Generate produces commentary for a completed aggregation pass. The
// response text is uppercased to match the receipt register.
func (c *Client) Generate(ctx context.Context, result *receipt.Result, mode Mode) (string, error) {
	if !c.Configured() {
		return "", ErrNotConfigured
	}

	payload := generateRequest{
		Contents: []content{{Parts: []part{{Text: buildPrompt(result, mode)}}}},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("commentary: marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent", c.baseURL, c.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("commentary: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("commentary: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("commentary: unexpected status %d", resp.StatusCode)
	}

	var parsed generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("commentary: decode response: %w", err)
	}
	if parsed.Error != nil {
		return "", fmt.Errorf("commentary: %s", parsed.Error.Message)
	}
	if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("commentary: empty response")
	}

	text := strings.TrimSpace(parsed.Candidates[0].Content.Parts[0].Text)
	if text == "" {
		return "", fmt.Errorf("commentary: empty response")
	}
	return strings.ToUpper(text), nil
}

// buildPrompt summarizes the result into a short prompt for the chosen mode.
func buildPrompt(result *receipt.Result, mode Mode) string {
	var trackList []string
	for _, t := range result.Tracks {
		if len(trackList) == maxPromptTracks {
			break
		}
		trackList = append(trackList, fmt.Sprintf("%s by %s", t.Name, t.Artist))
	}

	var artistList []string
	seen := make(map[string]bool)
	for _, t := range result.Tracks {
		if len(artistList) == maxPromptArtists {
			break
		}
		name := t.PrimaryArtist()
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		artistList = append(artistList, name)
	}

	tracks := strings.Join(trackList, ", ")
	artists := strings.Join(artistList, ", ")

	if mode == ModeRoast {
		return fmt.Sprintf(`Imagine you are a mean, snarky cashier roasting a customer.
Roast this customer's music taste based on: [%s] and artists: [%s].

Constraints:
1. Write 2-3 sentences (approx 30-40 words).
2. Be savage, funny, and judgmental.
3. Return ONLY the text, uppercase.`, tracks, artists)
	}

	return fmt.Sprintf(`Imagine you are a music critic writing a receipt note.
Analyze this customer's taste based on: [%s] and artists: [%s].
Provide a detailed "VIBE CHECK".

Constraints:
1. Write 2-3 sentences (approx 30-40 words).
2. Be specific, slightly hipster, and observant.
3. Return ONLY the text, uppercase.`, tracks, artists)
}
