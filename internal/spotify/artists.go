package spotify

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
	"github.com/zmb3/spotify/v2"

	"github.com/justestif/go-spotify-receipt/internal/receipt"
)

// maxArtistsPerRequest is the provider's cap on a single artists lookup.
const maxArtistsPerRequest = 50

// artistAPI is the one SDK call genre resolution needs, narrowed so tests
// can substitute a fake.
type artistAPI interface {
	GetArtists(ctx context.Context, ids ...spotify.ID) ([]*spotify.FullArtist, error)
}

// ResolveGenres looks up genre tags for the given artists in batches and
// assigns each track the first genre of its primary artist. A failed batch
// degrades to missing data rather than failing the pipeline; the result is
// marked degraded so presentation can fall back.
func (c *Client) ResolveGenres(ctx context.Context, tracks []receipt.Track, artistIDs []string) receipt.GenreData {
	return resolveGenres(ctx, c.api, c.log, tracks, artistIDs)
}

func resolveGenres(ctx context.Context, api artistAPI, log zerolog.Logger, tracks []receipt.Track, artistIDs []string) receipt.GenreData {
	data := receipt.NewGenreData()
	if len(artistIDs) == 0 {
		return data
	}

	genresByArtist := make(map[string][]string, len(artistIDs))

	// Batches are independent of each other, so they are issued
	// concurrently and joined before assignment.
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		degraded bool
	)
	for start := 0; start < len(artistIDs); start += maxArtistsPerRequest {
		end := min(start+maxArtistsPerRequest, len(artistIDs))
		batch := make([]spotify.ID, 0, end-start)
		for _, id := range artistIDs[start:end] {
			batch = append(batch, spotify.ID(id))
		}

		wg.Add(1)
		go func(start int, batch []spotify.ID) {
			defer wg.Done()
			artists, err := api.GetArtists(ctx, batch...)
			if err != nil {
				log.Warn().Err(err).Int("batch_start", start).
					Msg("artist genre lookup failed, continuing without batch")
				mu.Lock()
				degraded = true
				mu.Unlock()
				return
			}
			mu.Lock()
			for _, a := range artists {
				if a == nil {
					continue
				}
				genresByArtist[a.ID.String()] = a.Genres
			}
			mu.Unlock()
		}(start, batch)
	}
	wg.Wait()
	data.Degraded = degraded

	for _, t := range tracks {
		genres := genresByArtist[t.PrimaryArtistID]
		if t.PrimaryArtistID == "" || len(genres) == 0 {
			// Tracks whose primary artist has no known genres
			// contribute to no bucket.
			continue
		}
		primary := genres[0]
		data.ByTrack[t.ID] = primary
		data.Counts[primary]++
	}
	return data
}
