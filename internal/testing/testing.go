// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"testing"

	"github.com/kmcph/cratedig/internal/models"
	"golang.org/x/oauth2"
)

// MockService is a scriptable test double satisfying services.Service.
//
// Unset function fields return zero values; call counters record how often
// each operation was hit so tests can assert on network-call behavior.
type MockService struct {
	SearchArtistsFunc   func(ctx context.Context, query string, limit int) ([]models.Artist, error)
	GetArtistFunc       func(ctx context.Context, artistID string) (*models.Artist, error)
	GetArtistAlbumsFunc func(ctx context.Context, artistID string) ([]models.Album, error)
	GetAlbumTracksFunc  func(ctx context.Context, album models.Album) ([]models.Track, error)
	GetTrackFunc        func(ctx context.Context, trackID string) (*models.Track, error)
	CurrentUserFunc     func(ctx context.Context) (*models.User, error)
	CreatePlaylistFunc  func(ctx context.Context, userID, name, description string, public bool) (*models.Playlist, error)
	AddTracksFunc       func(ctx context.Context, playlistID string, uris []string) (int, error)

	SearchCalls    int
	GetArtistCalls int
	AlbumCalls     int
	TrackListCalls int
	GetTrackCalls  int
	CreateCalls    int
	AddCalls       int

	UserToken *oauth2.Token
}

func (m *MockService) SearchArtists(ctx context.Context, query string, limit int) ([]models.Artist, error) {
	m.SearchCalls++
	if m.SearchArtistsFunc != nil {
		return m.SearchArtistsFunc(ctx, query, limit)
	}
	return []models.Artist{}, nil
}

func (m *MockService) GetArtist(ctx context.Context, artistID string) (*models.Artist, error) {
	m.GetArtistCalls++
	if m.GetArtistFunc != nil {
		return m.GetArtistFunc(ctx, artistID)
	}
	return &models.Artist{ID: artistID}, nil
}

func (m *MockService) GetArtistAlbums(ctx context.Context, artistID string) ([]models.Album, error) {
	m.AlbumCalls++
	if m.GetArtistAlbumsFunc != nil {
		return m.GetArtistAlbumsFunc(ctx, artistID)
	}
	return []models.Album{}, nil
}

func (m *MockService) GetAlbumTracks(ctx context.Context, album models.Album) ([]models.Track, error) {
	m.TrackListCalls++
	if m.GetAlbumTracksFunc != nil {
		return m.GetAlbumTracksFunc(ctx, album)
	}
	return []models.Track{}, nil
}

func (m *MockService) GetTrack(ctx context.Context, trackID string) (*models.Track, error) {
	m.GetTrackCalls++
	if m.GetTrackFunc != nil {
		return m.GetTrackFunc(ctx, trackID)
	}
	return &models.Track{ID: trackID}, nil
}

func (m *MockService) CurrentUser(ctx context.Context) (*models.User, error) {
	if m.CurrentUserFunc != nil {
		return m.CurrentUserFunc(ctx)
	}
	return &models.User{ID: "mock_user", DisplayName: "Mock User"}, nil
}

func (m *MockService) CreatePlaylist(ctx context.Context, userID, name, description string, public bool) (*models.Playlist, error) {
	m.CreateCalls++
	if m.CreatePlaylistFunc != nil {
		return m.CreatePlaylistFunc(ctx, userID, name, description, public)
	}
	return &models.Playlist{ID: "mock_playlist", Name: name, Description: description, Public: public}, nil
}

func (m *MockService) AddTracks(ctx context.Context, playlistID string, uris []string) (int, error) {
	m.AddCalls++
	if m.AddTracksFunc != nil {
		return m.AddTracksFunc(ctx, playlistID, uris)
	}
	return len(uris), nil
}

func (m *MockService) Name() string { return "mock" }

func (m *MockService) SetUserToken(token *oauth2.Token) { m.UserToken = token }

func (m *MockService) SetTokenRefresher(fn func(ctx context.Context) (*oauth2.Token, error)) {}

// MockTokenProvider satisfies services.TokenProvider with a fixed token.
type MockTokenProvider struct {
	Tok          *oauth2.Token
	Err          error
	TokenCalls   int
	RefreshCalls int
}

func (m *MockTokenProvider) Token(ctx context.Context) (*oauth2.Token, error) {
	m.TokenCalls++
	return m.Tok, m.Err
}

func (m *MockTokenProvider) Refresh(ctx context.Context) (*oauth2.Token, error) {
	m.RefreshCalls++
	return m.Tok, m.Err
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

// MockRoundTripper replays a scripted sequence of HTTP responses.
//
// Each request pops the next response (or error); the final entry repeats if
// more requests arrive than were scripted.
type MockRoundTripper struct {
	Responses []*http.Response
	Errs      []error
	Requests  []*http.Request
}

func NewMockRoundTripper(responses []*http.Response, errs []error) *MockRoundTripper {
	return &MockRoundTripper{Responses: responses, Errs: errs}
}

func (m *MockRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	m.Requests = append(m.Requests, req)

	idx := len(m.Requests) - 1
	var err error
	if len(m.Errs) > 0 {
		err = m.Errs[min(idx, len(m.Errs)-1)]
	}
	if err != nil {
		return nil, err
	}
	if len(m.Responses) == 0 {
		return nil, errors.New("no scripted response")
	}
	return m.Responses[min(idx, len(m.Responses)-1)], nil
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
