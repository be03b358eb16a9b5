package formatter

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"

	"github.com/kmcph/cratedig/internal/models"
)

func sampleTracks() []models.Track {
	return []models.Track{
		{
			ID:               "t1",
			Name:             "Keep Yourself Alive",
			ArtistNames:      []string{"Queen"},
			AlbumName:        "Queen",
			AlbumReleaseDate: "1973-07-13",
			DurationMS:       225000,
			Popularity:       60,
		},
		{
			ID:               "t2",
			Name:             "Under Pressure",
			ArtistNames:      []string{"Queen", "David Bowie"},
			AlbumName:        "Hot Space",
			AlbumReleaseDate: "1982-05-21",
			DurationMS:       248000,
			Popularity:       85,
		},
	}
}

func TestExportToText(t *testing.T) {
	out := string(ExportToText(sampleTracks(), "date", "asc"))

	if !strings.HasPrefix(out, "Tracks (sorted by date, ascending):\n") {
		t.Errorf("unexpected header: %q", out)
	}
	if !strings.Contains(out, "1. Keep Yourself Alive by Queen\n") {
		t.Errorf("expected numbered first track, got:\n%s", out)
	}
	if !strings.Contains(out, "2. Under Pressure by Queen, David Bowie\n") {
		t.Errorf("expected joined artist credits, got:\n%s", out)
	}
	if !strings.Contains(out, "   Album: Hot Space (1982-05-21) [4:08] popularity 85\n") {
		t.Errorf("expected album detail line, got:\n%s", out)
	}

	t.Run("Descending Label", func(t *testing.T) {
		out := string(ExportToText(nil, "popularity", "desc"))
		if !strings.HasPrefix(out, "Tracks (sorted by popularity, descending):\n") {
			t.Errorf("unexpected header: %q", out)
		}
	})

	t.Run("Omits Zero Duration And Popularity", func(t *testing.T) {
		out := string(ExportToText([]models.Track{{
			Name:             "Unknown",
			ArtistNames:      []string{"Queen"},
			AlbumName:        "Queen",
			AlbumReleaseDate: "1973-07-13",
		}}, "date", "asc"))
		if strings.Contains(out, "[0:00]") || strings.Contains(out, "popularity") {
			t.Errorf("expected missing details omitted, got:\n%s", out)
		}
	})
}

func TestExportToCSV(t *testing.T) {
	out, err := ExportToCSV(sampleTracks())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	records, err := csv.NewReader(bytes.NewReader(out)).ReadAll()
	if err != nil {
		t.Fatalf("expected parseable CSV, got %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected header plus 2 rows, got %d records", len(records))
	}

	wantHeader := []string{"ID", "Track", "Artists", "Album", "ReleaseDate", "Duration", "Popularity"}
	for i, col := range wantHeader {
		if records[0][i] != col {
			t.Errorf("expected header %q at column %d, got %q", col, i, records[0][i])
		}
	}

	row := records[2]
	if row[0] != "t2" || row[2] != "Queen, David Bowie" || row[5] != "4:08" || row[6] != "85" {
		t.Errorf("unexpected row: %v", row)
	}
}

func TestExportToMarkdown(t *testing.T) {
	out := string(ExportToMarkdown("Queen Deep Cuts", sampleTracks()))

	if !strings.HasPrefix(out, "# Queen Deep Cuts\n\n") {
		t.Errorf("expected title heading, got:\n%s", out)
	}
	if !strings.Contains(out, "**Tracks**: 2\n") {
		t.Errorf("expected track count, got:\n%s", out)
	}
	if !strings.Contains(out, "1. Queen - Keep Yourself Alive (Queen, 1973-07-13) [3:45]\n") {
		t.Errorf("expected formatted entry, got:\n%s", out)
	}

	t.Run("No Album Detail When Album Missing", func(t *testing.T) {
		out := string(ExportToMarkdown("Title", []models.Track{{
			Name:        "Loose Single",
			ArtistNames: []string{"Queen"},
			DurationMS:  180000,
		}}))
		if !strings.Contains(out, "1. Queen - Loose Single [3:00]\n") {
			t.Errorf("expected entry without album part, got:\n%s", out)
		}
	})
}
