package commentary

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/justestif/go-spotify-receipt/internal/receipt"
)

func sampleResult() *receipt.Result {
	return &receipt.Result{
		Username: "listener",
		Tracks: []receipt.Track{
			{ID: "t1", Name: "Song One", Artist: "Artist One"},
			{ID: "t2", Name: "Duet", Artist: "Lead Act, Guest Star"},
		},
	}
}

func TestGenerateNotConfigured(t *testing.T) {
	c := NewClient("", "", "")

	_, err := c.Generate(context.Background(), sampleResult(), ModeVibe)
	if !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("Generate() error = %v, want ErrNotConfigured", err)
	}
}

func TestGenerate(t *testing.T) {
	var gotPath, gotKey string
	var gotBody generateRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("x-goog-api-key")
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decoding request: %v", err)
		}

		resp := generateResponse{}
		resp.Candidates = []struct {
			Content content `json:"content"`
		}{
			{Content: content{Parts: []part{{Text: "  a receipt-worthy verdict  "}}}},
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "test-key", "test-model")
	text, err := c.Generate(context.Background(), sampleResult(), ModeVibe)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	if text != "A RECEIPT-WORTHY VERDICT" {
		t.Errorf("text = %q, want trimmed uppercase verdict", text)
	}
	if want := "/v1beta/models/test-model:generateContent"; gotPath != want {
		t.Errorf("path = %q, want %q", gotPath, want)
	}
	if gotKey != "test-key" {
		t.Errorf("api key header = %q, want %q", gotKey, "test-key")
	}
	if len(gotBody.Contents) != 1 || len(gotBody.Contents[0].Parts) != 1 {
		t.Fatalf("request body = %+v, want one content with one part", gotBody)
	}
	prompt := gotBody.Contents[0].Parts[0].Text
	if !strings.Contains(prompt, "Song One by Artist One") {
		t.Errorf("prompt missing track line: %q", prompt)
	}
	if !strings.Contains(prompt, "Lead Act") {
		t.Errorf("prompt missing primary artist: %q", prompt)
	}
}

func TestGenerateServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "test-key", "")
	if _, err := c.Generate(context.Background(), sampleResult(), ModeVibe); err == nil {
		t.Fatal("Generate() error = nil, want non-nil for 429 response")
	}
}

func TestGenerateEmptyCandidates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"candidates":[]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "test-key", "")
	if _, err := c.Generate(context.Background(), sampleResult(), ModeVibe); err == nil {
		t.Fatal("Generate() error = nil, want non-nil for empty candidates")
	}
}

func TestBuildPrompt(t *testing.T) {
	vibe := buildPrompt(sampleResult(), ModeVibe)
	roast := buildPrompt(sampleResult(), ModeRoast)

	if !strings.Contains(vibe, "VIBE CHECK") {
		t.Errorf("vibe prompt missing vibe framing: %q", vibe)
	}
	if !strings.Contains(roast, "Roast") {
		t.Errorf("roast prompt missing roast framing: %q", roast)
	}
	if vibe == roast {
		t.Error("vibe and roast prompts are identical")
	}
}

func TestBuildPromptLimits(t *testing.T) {
	res := &receipt.Result{}
	for i := 0; i < 20; i++ {
		res.Tracks = append(res.Tracks, receipt.Track{
			Name:   "Track",
			Artist: string(rune('A' + i)),
		})
	}

	prompt := buildPrompt(res, ModeVibe)

	if got := strings.Count(prompt, "Track by"); got != maxPromptTracks {
		t.Errorf("prompt names %d tracks, want %d", got, maxPromptTracks)
	}
}
