package services

import (
	"context"
	"fmt"

	"github.com/kmcph/cratedig/internal/models"
	"github.com/kmcph/cratedig/internal/shared"
	"golang.org/x/oauth2"
)

// Service defines the Spotify Web API surface used by the playlist generator.
type Service interface {
	// SearchArtists searches artists by name, returning up to limit candidates.
	SearchArtists(ctx context.Context, query string, limit int) ([]models.Artist, error)

	// GetArtist retrieves an artist by ID.
	GetArtist(ctx context.Context, artistID string) (*models.Artist, error)

	// GetArtistAlbums retrieves every album and single credited to the artist, walking all pages.
	GetArtistAlbums(ctx context.Context, artistID string) ([]models.Album, error)

	// GetAlbumTracks retrieves every track on the album, walking all pages.
	// Album name and release date are stamped onto each returned track.
	GetAlbumTracks(ctx context.Context, album models.Album) ([]models.Track, error)

	// GetTrack retrieves full track details (including popularity) by ID.
	GetTrack(ctx context.Context, trackID string) (*models.Track, error)

	// CurrentUser retrieves the authenticated user's profile. Requires a user token.
	CurrentUser(ctx context.Context) (*models.User, error)

	// CreatePlaylist creates a playlist for the user. Requires a user token.
	CreatePlaylist(ctx context.Context, userID, name, description string, public bool) (*models.Playlist, error)

	// AddTracks appends track URIs to a playlist in API-sized batches, in order.
	// Returns how many tracks were added, which is less than len(uris) on partial failure.
	AddTracks(ctx context.Context, playlistID string, uris []string) (int, error)

	// Name returns the name of the service.
	Name() string
}

// OAuthService extends [Service] for implementations that accept user tokens
// for the playlist write path.
type OAuthService interface {
	Service

	// SetUserToken installs the token used for write operations.
	SetUserToken(token *oauth2.Token)

	// SetTokenRefresher installs the callback invoked after a 401 on a
	// user-token request; the request is retried once with the new token.
	SetTokenRefresher(fn func(ctx context.Context) (*oauth2.Token, error))
}

// TokenProvider yields user tokens, refreshing or re-authorizing as needed.
// [AuthManager] is the production implementation.
type TokenProvider interface {
	Token(ctx context.Context) (*oauth2.Token, error)
	Refresh(ctx context.Context) (*oauth2.Token, error)
}

// APIError carries the status code and response body of a failed API call.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("spotify API error: status %d: %s", e.Status, e.Body)
}

// Unwrap makes APIError match [shared.ErrAPIRequest] under [errors.Is].
func (e *APIError) Unwrap() error {
	return shared.ErrAPIRequest
}
