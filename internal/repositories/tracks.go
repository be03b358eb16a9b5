package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/kmcph/cratedig/internal/models"
	"github.com/kmcph/cratedig/internal/shared"
)

const trackCacheSchema = `
CREATE TABLE IF NOT EXISTS tracks (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	artist_names TEXT NOT NULL,
	primary_artist_id TEXT NOT NULL,
	album_name TEXT NOT NULL,
	album_release_date TEXT NOT NULL,
	duration_ms INTEGER NOT NULL,
	popularity INTEGER NOT NULL,
	uri TEXT NOT NULL,
	cached_at TEXT NOT NULL
);`

// TrackCache memoizes full track details in SQLite so popularity lookups
// survive across runs.
type TrackCache struct {
	db *sql.DB
}

// NewTrackCache opens (creating if necessary) the cache database at path and
// ensures the schema exists.
func NewTrackCache(path string) (*TrackCache, error) {
	db, err := shared.NewDatabase(path)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(trackCacheSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create track cache schema: %w", err)
	}

	return &TrackCache{db: db}, nil
}

// Close releases the underlying database handle.
func (c *TrackCache) Close() error {
	if c == nil || c.db == nil {
		return nil
	}
	return c.db.Close()
}

// Get returns the cached track, or (nil, nil) on a miss. A nil receiver is a
// permanent miss, so callers don't need to guard for a disabled cache.
func (c *TrackCache) Get(trackID string) (*models.Track, error) {
	if c == nil || c.db == nil {
		return nil, nil
	}

	row := c.db.QueryRow(
		`SELECT id, name, artist_names, primary_artist_id, album_name, album_release_date, duration_ms, popularity, uri
		 FROM tracks WHERE id = ?`, trackID)

	var track models.Track
	var artistNames string
	err := row.Scan(&track.ID, &track.Name, &artistNames, &track.PrimaryArtistID,
		&track.AlbumName, &track.AlbumReleaseDate, &track.DurationMS, &track.Popularity, &track.URI)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read track cache: %w", err)
	}

	if artistNames != "" {
		track.ArtistNames = strings.Split(artistNames, "\x1f")
	}

	return &track, nil
}

// Put upserts a track into the cache. A nil receiver is a no-op.
func (c *TrackCache) Put(track models.Track) error {
	if c == nil || c.db == nil {
		return nil
	}

	_, err := c.db.Exec(
		`INSERT INTO tracks (id, name, artist_names, primary_artist_id, album_name, album_release_date, duration_ms, popularity, uri, cached_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			artist_names = excluded.artist_names,
			primary_artist_id = excluded.primary_artist_id,
			album_name = excluded.album_name,
			album_release_date = excluded.album_release_date,
			duration_ms = excluded.duration_ms,
			popularity = excluded.popularity,
			uri = excluded.uri,
			cached_at = excluded.cached_at`,
		track.ID, track.Name, strings.Join(track.ArtistNames, "\x1f"), track.PrimaryArtistID,
		track.AlbumName, track.AlbumReleaseDate, track.DurationMS, track.Popularity, track.URI,
		time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to cache track: %w", err)
	}

	return nil
}

// Count returns the number of cached tracks.
func (c *TrackCache) Count() (int, error) {
	if c == nil || c.db == nil {
		return 0, nil
	}

	var count int
	if err := c.db.QueryRow(`SELECT COUNT(*) FROM tracks`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count cached tracks: %w", err)
	}

	return count, nil
}

// Clear removes every cached track.
func (c *TrackCache) Clear() error {
	if c == nil || c.db == nil {
		return nil
	}

	if _, err := c.db.Exec(`DELETE FROM tracks`); err != nil {
		return fmt.Errorf("failed to clear track cache: %w", err)
	}

	return nil
}
