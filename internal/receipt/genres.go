package receipt

import "sort"

// GenreData holds per-track primary genre assignments and the genre
// frequency table built by the genre resolver. A track whose primary artist
// has no known genres appears in neither map.
type GenreData struct {
	ByTrack map[string]string // track ID -> primary genre
	Counts  map[string]int    // primary genre -> count

	// Degraded is set when one or more artist lookups failed, so the maps
	// may be missing data that exists upstream.
	Degraded bool
}

// NewGenreData returns an empty, non-degraded GenreData.
func NewGenreData() GenreData {
	return GenreData{
		ByTrack: make(map[string]string),
		Counts:  make(map[string]int),
	}
}

// TopGenres returns the n most frequent genres, most frequent first.
// Ties break alphabetically so the order is deterministic.
func TopGenres(counts map[string]int, n int) []string {
	genres := make([]string, 0, len(counts))
	for g := range counts {
		genres = append(genres, g)
	}
	sort.Slice(genres, func(i, j int) bool {
		if counts[genres[i]] != counts[genres[j]] {
			return counts[genres[i]] > counts[genres[j]]
		}
		return genres[i] < genres[j]
	})
	if len(genres) > n {
		genres = genres[:n]
	}
	return genres
}

// PresentTopGenres returns display labels for the top genres. When no real
// genre data exists the labels fall back to a generic pair (after a degraded
// resolution) or "Eclectic" (when the user's artists simply carry no tags).
// Fallback labels never enter the frequency table itself.
func PresentTopGenres(genres GenreData, n int) []string {
	top := TopGenres(genres.Counts, n)
	if len(top) > 0 {
		return top
	}
	if genres.Degraded {
		return []string{"Pop", "Music"}
	}
	return []string{"Eclectic"}
}
