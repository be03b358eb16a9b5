package tasks

import (
	"fmt"
	"sort"
	"strings"

	"github.com/kmcph/cratedig/internal/models"
	"github.com/kmcph/cratedig/internal/shared"
)

// SortKey selects the primary track ordering.
type SortKey string

const (
	SortByDate       SortKey = "date"
	SortByPopularity SortKey = "popularity"
	SortByName       SortKey = "name"
)

// SortOrder selects the direction of the primary ordering.
type SortOrder string

const (
	Ascending  SortOrder = "asc"
	Descending SortOrder = "desc"
)

// ParseSortKey validates a --sort flag value.
func ParseSortKey(value string) (SortKey, error) {
	switch SortKey(value) {
	case SortByDate, SortByPopularity, SortByName:
		return SortKey(value), nil
	default:
		return "", fmt.Errorf("%w: sort must be date, popularity, or name (got %q)", shared.ErrInvalidFlag, value)
	}
}

// ParseSortOrder validates an --order flag value.
func ParseSortOrder(value string) (SortOrder, error) {
	switch SortOrder(value) {
	case Ascending, Descending:
		return SortOrder(value), nil
	default:
		return "", fmt.Errorf("%w: order must be asc or desc (got %q)", shared.ErrInvalidFlag, value)
	}
}

// Dedupe removes duplicate track IDs, keeping the first instance in input order.
func Dedupe(tracks []models.Track) []models.Track {
	seen := make(map[string]bool, len(tracks))
	unique := make([]models.Track, 0, len(tracks))

	for _, track := range tracks {
		if seen[track.ID] {
			continue
		}
		seen[track.ID] = true
		unique = append(unique, track)
	}

	return unique
}

// MergeAndSort returns the tracks in a total, deterministic order.
//
// The direction applies to the primary key only; ties always break by
// case-insensitive name ascending and then by track ID, so equal inputs yield
// identical output on every run. The input slice is not modified.
func MergeAndSort(tracks []models.Track, key SortKey, order SortOrder) []models.Track {
	sorted := make([]models.Track, len(tracks))
	copy(sorted, tracks)

	sort.SliceStable(sorted, func(i, j int) bool {
		return compareTracks(sorted[i], sorted[j], key, order) < 0
	})

	return sorted
}

func compareTracks(a, b models.Track, key SortKey, order SortOrder) int {
	primary := 0
	switch key {
	case SortByDate:
		primary = strings.Compare(a.AlbumReleaseDate, b.AlbumReleaseDate)
	case SortByPopularity:
		primary = a.Popularity - b.Popularity
	case SortByName:
		primary = strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
	}

	if order == Descending {
		primary = -primary
	}
	if primary != 0 {
		return primary
	}

	if byName := strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name)); byName != 0 {
		return byName
	}

	return strings.Compare(a.ID, b.ID)
}
