// package formatter renders computed track lists to output formats (plain text, CSV, Markdown)
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"

	"github.com/kmcph/cratedig/internal/models"
	"github.com/kmcph/cratedig/internal/shared"
)

// ExportToText renders the track list in the dry-run console format:
// one numbered line per track plus album, release date, and popularity detail.
func ExportToText(tracks []models.Track, sortKey, sortOrder string) []byte {
	var buf bytes.Buffer

	direction := "ascending"
	if sortOrder == "desc" {
		direction = "descending"
	}

	buf.WriteString(fmt.Sprintf("Tracks (sorted by %s, %s):\n", sortKey, direction))

	for i, track := range tracks {
		buf.WriteString(fmt.Sprintf("%d. %s by %s\n", i+1, track.Name, track.Artists()))
		buf.WriteString(fmt.Sprintf("   Album: %s (%s)", track.AlbumName, track.AlbumReleaseDate))
		if track.DurationMS > 0 {
			buf.WriteString(fmt.Sprintf(" [%s]", shared.FormatDuration(track.DurationMS)))
		}
		if track.Popularity > 0 {
			buf.WriteString(fmt.Sprintf(" popularity %d", track.Popularity))
		}
		buf.WriteString("\n")
	}

	return buf.Bytes()
}

// ExportToCSV renders the track list as CSV with columns: ID, Track, Artists, Album, ReleaseDate, Duration, Popularity
func ExportToCSV(tracks []models.Track) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"ID", "Track", "Artists", "Album", "ReleaseDate", "Duration", "Popularity"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, track := range tracks {
		record := []string{
			track.ID,
			track.Name,
			track.Artists(),
			track.AlbumName,
			track.AlbumReleaseDate,
			shared.FormatDuration(track.DurationMS),
			strconv.Itoa(track.Popularity),
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportToMarkdown renders the track list as a Markdown document.
func ExportToMarkdown(title string, tracks []models.Track) []byte {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("# %s\n\n", title))
	buf.WriteString(fmt.Sprintf("**Tracks**: %d\n\n", len(tracks)))

	for i, track := range tracks {
		albumPart := ""
		if track.AlbumName != "" {
			albumPart = fmt.Sprintf(" (%s, %s)", track.AlbumName, track.AlbumReleaseDate)
		}
		buf.WriteString(fmt.Sprintf("%d. %s - %s%s [%s]\n", i+1, track.Artists(), track.Name, albumPart, shared.FormatDuration(track.DurationMS)))
	}

	return buf.Bytes()
}
