// Package receipt derives listening statistics from a user's top tracks.
package receipt

import "strings"

// Window is a provider-defined aggregation period for top tracks. Invalid
// values are passed through and rejected by the provider, not validated here.
type Window string

const (
	ShortTerm  Window = "short_term"  // roughly the last 4 weeks
	MediumTerm Window = "medium_term" // roughly the last 6 months
	LongTerm   Window = "long_term"   // multi-year
)

// Track is one listened-to item, mapped from a raw provider record.
// Immutable after creation and held only for the lifetime of one
// aggregation pass.
type Track struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	Artist          string `json:"artist"` // all performers, comma-joined
	PrimaryArtistID string `json:"-"`
	DurationMs      int    `json:"duration_ms"`
	Popularity      int    `json:"popularity"` // 0-100, provider-supplied
	Explicit        bool   `json:"explicit"`
	AlbumArt        string `json:"album_art,omitempty"`
	URL             string `json:"url,omitempty"`
	ReleaseDate     string `json:"release_date,omitempty"` // ISO date, possibly partial
}

// PrimaryArtist returns the first performer in the joined artist string.
// Multi-performer tracks are attributed entirely to the first listed
// performer; featured artists are not counted separately.
func (t Track) PrimaryArtist() string {
	if i := strings.Index(t.Artist, ", "); i >= 0 {
		return t.Artist[:i]
	}
	return t.Artist
}
