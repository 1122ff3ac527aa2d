package spotify

import (
	"context"
	"fmt"
	"strings"

	"github.com/zmb3/spotify/v2"

	"github.com/justestif/go-spotify-receipt/internal/receipt"
)

// topTracksLimit requests the provider maximum so a smaller display count
// can be re-sliced without a new fetch.
const topTracksLimit = 50

// TopTracks returns the user's top tracks for the given window plus the
// distinct artist IDs appearing on them. All performers contribute to the ID
// list, not just primary ones, since the genre map covers every artist seen.
func (c *Client) TopTracks(ctx context.Context, window receipt.Window) ([]receipt.Track, []string, error) {
	page, err := c.api.CurrentUsersTopTracks(ctx,
		spotify.Limit(topTracksLimit),
		spotify.Timerange(spotify.Range(window)),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("fetching top tracks: %w", asFetchError(err))
	}

	tracks := make([]receipt.Track, 0, len(page.Tracks))
	var artistIDs []string
	seen := make(map[string]bool)
	for _, ft := range page.Tracks {
		tracks = append(tracks, convertTrack(ft))
		for _, a := range ft.Artists {
			id := a.ID.String()
			if id == "" || seen[id] {
				continue
			}
			seen[id] = true
			artistIDs = append(artistIDs, id)
		}
	}
	return tracks, artistIDs, nil
}

// convertTrack maps one raw provider record to the internal representation.
// Artist names are joined with ", "; the first listed performer becomes the
// primary artist used for frequency counting downstream.
func convertTrack(ft spotify.FullTrack) receipt.Track {
	names := make([]string, len(ft.Artists))
	for i, a := range ft.Artists {
		names[i] = a.Name
	}

	var primaryID string
	if len(ft.Artists) > 0 {
		primaryID = ft.Artists[0].ID.String()
	}

	var albumArt string
	if len(ft.Album.Images) > 0 {
		albumArt = ft.Album.Images[0].URL
	}

	return receipt.Track{
		ID:              ft.ID.String(),
		Name:            ft.Name,
		Artist:          strings.Join(names, ", "),
		PrimaryArtistID: primaryID,
		DurationMs:      int(ft.Duration),
		Popularity:      int(ft.Popularity),
		Explicit:        ft.Explicit,
		AlbumArt:        albumArt,
		URL:             ft.ExternalURLs["spotify"],
		ReleaseDate:     ft.Album.ReleaseDate,
	}
}
