package spotify

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/zmb3/spotify/v2"

	"github.com/justestif/go-spotify-receipt/internal/receipt"
)

// fakeArtistAPI answers GetArtists from a fixed genre table and records each
// batch it receives. failFor marks batch leading IDs that should error.
type fakeArtistAPI struct {
	mu      sync.Mutex
	genres  map[string][]string
	failFor map[string]bool
	batches [][]spotify.ID
}

func (f *fakeArtistAPI) GetArtists(ctx context.Context, ids ...spotify.ID) ([]*spotify.FullArtist, error) {
	f.mu.Lock()
	f.batches = append(f.batches, ids)
	f.mu.Unlock()

	if len(ids) > 0 && f.failFor[ids[0].String()] {
		return nil, errors.New("boom")
	}

	artists := make([]*spotify.FullArtist, 0, len(ids))
	for _, id := range ids {
		artists = append(artists, &spotify.FullArtist{
			SimpleArtist: spotify.SimpleArtist{ID: id},
			Genres:       f.genres[id.String()],
		})
	}
	return artists, nil
}

func TestResolveGenres(t *testing.T) {
	api := &fakeArtistAPI{
		genres: map[string][]string{
			"artist1": {"indie rock", "shoegaze"},
			"artist2": {"hyperpop"},
			"artist3": nil,
		},
	}
	tracks := []receipt.Track{
		{ID: "t1", PrimaryArtistID: "artist1"},
		{ID: "t2", PrimaryArtistID: "artist1"},
		{ID: "t3", PrimaryArtistID: "artist2"},
		{ID: "t4", PrimaryArtistID: "artist3"},
		{ID: "t5"},
	}

	data := resolveGenres(context.Background(), api, zerolog.Nop(), tracks, []string{"artist1", "artist2", "artist3"})

	if data.Degraded {
		t.Error("Degraded = true, want false")
	}
	wantByTrack := map[string]string{
		"t1": "indie rock",
		"t2": "indie rock",
		"t3": "hyperpop",
	}
	for id, want := range wantByTrack {
		if got := data.ByTrack[id]; got != want {
			t.Errorf("ByTrack[%q] = %q, want %q", id, got, want)
		}
	}
	if _, ok := data.ByTrack["t4"]; ok {
		t.Error("track with genreless artist should not be assigned a genre")
	}
	if _, ok := data.ByTrack["t5"]; ok {
		t.Error("track without a primary artist should not be assigned a genre")
	}
	if got := data.Counts["indie rock"]; got != 2 {
		t.Errorf("Counts[indie rock] = %d, want 2", got)
	}
	if got := data.Counts["hyperpop"]; got != 1 {
		t.Errorf("Counts[hyperpop] = %d, want 1", got)
	}
}

func TestResolveGenresBatching(t *testing.T) {
	api := &fakeArtistAPI{genres: map[string][]string{}}

	ids := make([]string, 51)
	for i := range ids {
		ids[i] = fmt.Sprintf("artist%02d", i)
	}

	resolveGenres(context.Background(), api, zerolog.Nop(), nil, ids)

	if len(api.batches) != 2 {
		t.Fatalf("got %d batches, want 2", len(api.batches))
	}
	total := 0
	for _, b := range api.batches {
		if len(b) > maxArtistsPerRequest {
			t.Errorf("batch of %d exceeds cap %d", len(b), maxArtistsPerRequest)
		}
		total += len(b)
	}
	if total != len(ids) {
		t.Errorf("batches cover %d IDs, want %d", total, len(ids))
	}
}

func TestResolveGenresPartialFailure(t *testing.T) {
	api := &fakeArtistAPI{
		genres: map[string][]string{
			"artist00": {"techno"},
		},
		failFor: map[string]bool{"artist50": true},
	}

	ids := make([]string, 51)
	for i := range ids {
		ids[i] = fmt.Sprintf("artist%02d", i)
	}
	tracks := []receipt.Track{
		{ID: "t1", PrimaryArtistID: "artist00"},
		{ID: "t2", PrimaryArtistID: "artist50"},
	}

	data := resolveGenres(context.Background(), api, zerolog.Nop(), tracks, ids)

	if !data.Degraded {
		t.Error("Degraded = false after failed batch, want true")
	}
	// The surviving batch still contributes.
	if got := data.ByTrack["t1"]; got != "techno" {
		t.Errorf("ByTrack[t1] = %q, want %q", got, "techno")
	}
	if _, ok := data.ByTrack["t2"]; ok {
		t.Error("track in failed batch should carry no genre")
	}
}

func TestResolveGenresNoArtists(t *testing.T) {
	api := &fakeArtistAPI{}

	data := resolveGenres(context.Background(), api, zerolog.Nop(), []receipt.Track{{ID: "t1"}}, nil)

	if data.Degraded {
		t.Error("Degraded = true with no lookups, want false")
	}
	if len(api.batches) != 0 {
		t.Errorf("got %d batches, want 0", len(api.batches))
	}
	if len(data.ByTrack) != 0 || len(data.Counts) != 0 {
		t.Errorf("expected empty genre data, got %+v", data)
	}
}
