package receipt

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Summary is the derived statistics object for one aggregation pass.
// It is never mutated after construction; a new fetch or window change
// supersedes it wholesale.
type Summary struct {
	AvgPopularity float64        `json:"avg_popularity"`
	ExplicitCount int            `json:"explicit_count"`
	AvgDurationMs float64        `json:"avg_duration_ms"`
	TrackCount    int            `json:"track_count"`
	VarietyScore  float64        `json:"variety_score"` // distinct primary artists / track count
	ShortestTrack *Track         `json:"shortest_track"`
	LongestTrack  *Track         `json:"longest_track"`
	GenreCounts   map[string]int `json:"genre_counts"`
	ArtistCounts  map[string]int `json:"artist_counts"`
	DecadeCounts  map[string]int `json:"decade_counts"`
}

// Aggregate folds a track list and resolved genre data into a Summary.
// It is a total function: any well-formed (possibly empty) input yields a
// well-formed Summary without error, and the same input always yields the
// same output.
func Aggregate(tracks []Track, genres GenreData) Summary {
	s := Summary{
		TrackCount:   len(tracks),
		GenreCounts:  make(map[string]int, len(genres.Counts)),
		ArtistCounts: make(map[string]int),
		DecadeCounts: make(map[string]int),
	}
	for g, n := range genres.Counts {
		s.GenreCounts[g] = n
	}

	if len(tracks) == 0 {
		return s
	}

	var popTotal, durTotal int
	for _, t := range tracks {
		popTotal += t.Popularity
		durTotal += t.DurationMs
		if t.Explicit {
			s.ExplicitCount++
		}
		s.ArtistCounts[t.PrimaryArtist()]++
		if label, ok := decadeLabel(t.ReleaseDate); ok {
			s.DecadeCounts[label]++
		}
	}

	n := float64(len(tracks))
	s.AvgPopularity = float64(popTotal) / n
	s.AvgDurationMs = float64(durTotal) / n
	s.VarietyScore = float64(len(s.ArtistCounts)) / n

	// Stable sort keeps fetch order among equal durations: the first tied
	// track wins the minimum and the last tied track wins the maximum.
	sorted := make([]Track, len(tracks))
	copy(sorted, tracks)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].DurationMs < sorted[j].DurationMs
	})
	shortest := sorted[0]
	longest := sorted[len(sorted)-1]
	s.ShortestTrack = &shortest
	s.LongestTrack = &longest

	return s
}

// decadeLabel buckets a release date by its four-digit year prefix, e.g.
// "1999-03-01" becomes "1990s". Partial dates such as "1999" are accepted;
// missing or unparsable dates report ok=false and are skipped by Aggregate.
func decadeLabel(releaseDate string) (string, bool) {
	if releaseDate == "" {
		return "", false
	}
	year := releaseDate
	if i := strings.IndexByte(releaseDate, '-'); i >= 0 {
		year = releaseDate[:i]
	}
	y, err := strconv.Atoi(year)
	if err != nil || y <= 0 {
		return "", false
	}
	return fmt.Sprintf("%ds", (y/10)*10), true
}
