package models

import "strings"

// Artist represents a resolved Spotify artist.
type Artist struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Popularity int    `json:"popularity"`
	Followers  int    `json:"followers"`
}

// Album represents an album or single credited to an artist.
type Album struct {
	ID              string   `json:"id"`
	Name            string   `json:"name"`
	ReleaseDate     string   `json:"release_date"`
	TotalTracks     int      `json:"total_tracks"`
	PrimaryArtistID string   `json:"primary_artist_id"`
	ArtistNames     []string `json:"artist_names"`
}

// Track represents a single track with the album context it was collected from.
type Track struct {
	ID               string   `json:"id"`
	Name             string   `json:"name"`
	ArtistNames      []string `json:"artist_names"`
	PrimaryArtistID  string   `json:"primary_artist_id"`
	AlbumName        string   `json:"album_name"`
	AlbumReleaseDate string   `json:"album_release_date"`
	DurationMS       int      `json:"duration_ms"`
	Popularity       int      `json:"popularity"`
	URI              string   `json:"uri"`
}

// Artists returns the credited artists as a comma-separated string.
func (t Track) Artists() string {
	return strings.Join(t.ArtistNames, ", ")
}

// User represents the authenticated Spotify user.
type User struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}

// Playlist represents a created Spotify playlist.
type Playlist struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Public      bool   `json:"public"`
	URL         string `json:"url"`
}
