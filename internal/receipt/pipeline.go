package receipt

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

// topGenreCount is how many genre labels a receipt displays.
const topGenreCount = 3

// Fetcher retrieves listening data for an authenticated user. The Spotify
// client implements it; tests substitute fakes.
type Fetcher interface {
	// Profile returns the user's display name.
	Profile(ctx context.Context) (string, error)

	// TopTracks returns the user's top tracks for the window plus the
	// distinct artist IDs appearing on them.
	TopTracks(ctx context.Context, window Window) ([]Track, []string, error)

	// ResolveGenres assigns primary genres to tracks. It degrades to
	// missing data internally and never fails the pipeline.
	ResolveGenres(ctx context.Context, tracks []Track, artistIDs []string) GenreData
}

// Result is one completed aggregation pass.
type Result struct {
	Username    string    `json:"username"`
	Window      Window    `json:"window"`
	Tracks      []Track   `json:"tracks"`
	Summary     Summary   `json:"summary"`
	TopGenres   []string  `json:"top_genres"`
	GeneratedAt time.Time `json:"generated_at"`
}

// Pipeline runs aggregation passes and keeps the most recent result.
//
// Each run gets a monotonically increasing generation number. A run that
// finishes after a newer run has started still returns its result to the
// caller, but does not replace the newer result in Latest. There is no
// request cancellation; superseded work is simply discarded on completion.
type Pipeline struct {
	gen atomic.Uint64

	mu     sync.Mutex
	latest *Result
}

// NewPipeline returns a Pipeline with no completed runs.
func NewPipeline() *Pipeline {
	return &Pipeline{}
}

// Run fetches, resolves and aggregates one pass for the given window.
// The profile and top-tracks fetches have no ordering dependency and are
// issued concurrently, then joined before genre resolution.
func (p *Pipeline) Run(ctx context.Context, f Fetcher, window Window) (*Result, error) {
	gen := p.gen.Add(1)

	var (
		wg         sync.WaitGroup
		username   string
		profileErr error
		tracks     []Track
		artistIDs  []string
		tracksErr  error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		username, profileErr = f.Profile(ctx)
	}()
	go func() {
		defer wg.Done()
		tracks, artistIDs, tracksErr = f.TopTracks(ctx, window)
	}()
	wg.Wait()

	if profileErr != nil {
		return nil, fmt.Errorf("fetching profile: %w", profileErr)
	}
	if tracksErr != nil {
		return nil, fmt.Errorf("fetching top tracks: %w", tracksErr)
	}

	genres := f.ResolveGenres(ctx, tracks, artistIDs)

	res := &Result{
		Username:    username,
		Window:      window,
		Tracks:      tracks,
		Summary:     Aggregate(tracks, genres),
		TopGenres:   PresentTopGenres(genres, topGenreCount),
		GeneratedAt: time.Now(),
	}
	p.commit(gen, res)
	return res, nil
}

// commit stores res as the latest result unless a newer run has started.
func (p *Pipeline) commit(gen uint64, res *Result) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if gen != p.gen.Load() {
		return false
	}
	p.latest = res
	return true
}

// Latest returns the most recently committed result, or nil when no run has
// completed yet.
func (p *Pipeline) Latest() *Result {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.latest
}
