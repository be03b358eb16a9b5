package repositories

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/oauth2"
)

// tokenExpiryBuffer is subtracted from the stored expiry when judging whether
// the access token is still usable, so tokens about to lapse mid-run count as expired.
const tokenExpiryBuffer = 120 * time.Second

// ArtistSelection is a remembered artist disambiguation choice.
type ArtistSelection struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// StateRecord is the persisted shape of the state file. Field names match the
// original state file layout so existing files keep working.
type StateRecord struct {
	ArtistChoices map[string]ArtistSelection `json:"artist_choices"`
	AccessToken   string                     `json:"access_token,omitempty"`
	RefreshToken  string                     `json:"refresh_token,omitempty"`
	ExpiresAt     int64                      `json:"expires_at,omitempty"`
}

// StateStore owns the local JSON state file.
//
// The record is read once when the store is created and every mutation is
// followed by an explicit Save; the process is the only writer.
type StateStore struct {
	path   string
	record StateRecord
	now    func() time.Time
}

// NewStateStore loads (or initializes) the state file at path.
//
// A missing file is not an error; a corrupt one is, so a typo'd path doesn't
// silently discard saved choices.
func NewStateStore(path string) (*StateStore, error) {
	store := &StateStore{
		path:   path,
		record: StateRecord{ArtistChoices: map[string]ArtistSelection{}},
		now:    time.Now,
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return store, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read state file: %w", err)
	}

	if err := json.Unmarshal(data, &store.record); err != nil {
		return nil, fmt.Errorf("failed to parse state file %s: %w", path, err)
	}
	if store.record.ArtistChoices == nil {
		store.record.ArtistChoices = map[string]ArtistSelection{}
	}

	return store, nil
}

// Path returns the location of the state file.
func (s *StateStore) Path() string {
	return s.path
}

// Record returns a copy of the current state for display.
func (s *StateStore) Record() StateRecord {
	record := s.record
	record.ArtistChoices = make(map[string]ArtistSelection, len(s.record.ArtistChoices))
	for query, choice := range s.record.ArtistChoices {
		record.ArtistChoices[query] = choice
	}
	return record
}

// Save writes the record to disk, creating parent directories as needed.
// Token material is kept out of group/world-readable permissions.
func (s *StateStore) Save() error {
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create state directory: %w", err)
		}
	}

	data, err := json.MarshalIndent(s.record, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode state: %w", err)
	}

	if err := os.WriteFile(s.path, data, 0600); err != nil {
		return fmt.Errorf("failed to write state file: %w", err)
	}

	return nil
}

// Artist returns the remembered selection for the exact query string.
func (s *StateStore) Artist(query string) (ArtistSelection, bool) {
	choice, ok := s.record.ArtistChoices[query]
	return choice, ok
}

// SetArtist remembers a disambiguation choice and saves immediately.
func (s *StateStore) SetArtist(query string, choice ArtistSelection) error {
	s.record.ArtistChoices[query] = choice
	return s.Save()
}

// DeleteArtist drops a remembered choice (e.g. when the saved ID no longer
// resolves) and saves immediately.
func (s *StateStore) DeleteArtist(query string) error {
	delete(s.record.ArtistChoices, query)
	return s.Save()
}

// ClearArtists drops every remembered choice and saves immediately.
func (s *StateStore) ClearArtists() error {
	s.record.ArtistChoices = map[string]ArtistSelection{}
	return s.Save()
}

// Token returns the stored token material as an [oauth2.Token], or nil when
// nothing is stored.
func (s *StateStore) Token() *oauth2.Token {
	if s.record.AccessToken == "" && s.record.RefreshToken == "" {
		return nil
	}

	token := &oauth2.Token{
		AccessToken:  s.record.AccessToken,
		RefreshToken: s.record.RefreshToken,
	}
	if s.record.ExpiresAt > 0 {
		token.Expiry = time.Unix(s.record.ExpiresAt, 0)
	}

	return token
}

// TokenUsable reports whether the stored access token is valid for at least
// the expiry buffer.
func (s *StateStore) TokenUsable() bool {
	if s.record.AccessToken == "" || s.record.ExpiresAt == 0 {
		return false
	}
	return time.Unix(s.record.ExpiresAt, 0).After(s.now().Add(tokenExpiryBuffer))
}

// SetToken stores new token material and saves immediately.
//
// Token endpoints do not always return a new refresh token; the stored one is
// kept when the incoming token lacks one.
func (s *StateStore) SetToken(token *oauth2.Token) error {
	s.record.AccessToken = token.AccessToken
	if token.RefreshToken != "" {
		s.record.RefreshToken = token.RefreshToken
	}
	if !token.Expiry.IsZero() {
		s.record.ExpiresAt = token.Expiry.Unix()
	}
	return s.Save()
}

// ClearToken drops stored token material and saves immediately.
func (s *StateStore) ClearToken() error {
	s.record.AccessToken = ""
	s.record.RefreshToken = ""
	s.record.ExpiresAt = 0
	return s.Save()
}
