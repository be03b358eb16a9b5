// Spotify API implementation of [Service]
//
// Response types based on https://developer.spotify.com/documentation/web-api/reference/
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/charmbracelet/log"
	"github.com/kmcph/cratedig/internal/models"
	"github.com/kmcph/cratedig/internal/shared"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
	"golang.org/x/time/rate"
)

const (
	spotifyAuthURL  = "https://accounts.spotify.com/authorize"
	spotifyTokenURL = "https://accounts.spotify.com/api/token"
	spotifyBaseURL  = "https://api.spotify.com/v1"

	pageLimit     = 50  // page size for list endpoints
	addBatchLimit = 100 // API maximum URIs per playlist add request
)

type followers struct {
	Total int `json:"total"`
}

// spotifyArtist represents an artist object.
type spotifyArtist struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Popularity int       `json:"popularity"`
	Followers  followers `json:"followers"`
}

// spotifyAlbum represents a simplified album object.
type spotifyAlbum struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	ReleaseDate string          `json:"release_date"`
	TotalTracks int             `json:"total_tracks"`
	Artists     []spotifyArtist `json:"artists"`
}

// spotifyTrack represents a track object. Album and Popularity are only
// populated on the full track endpoint, not on album track listings.
type spotifyTrack struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Artists    []spotifyArtist `json:"artists"`
	Album      spotifyAlbum    `json:"album"`
	DurationMS int             `json:"duration_ms"`
	Popularity int             `json:"popularity"`
	URI        string          `json:"uri"`
}

type spotifyUser struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}

type externalURLs struct {
	Spotify string `json:"spotify"`
}

type spotifyPlaylist struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	Description  string       `json:"description"`
	Public       bool         `json:"public"`
	ExternalURLs externalURLs `json:"external_urls"`
}

// spotifyAlbumPage represents a paginated response of albums.
type spotifyAlbumPage struct {
	Items  []spotifyAlbum `json:"items"`
	Limit  int            `json:"limit"`
	Offset int            `json:"offset"`
	Total  int            `json:"total"`
	Next   *string        `json:"next"`
}

// spotifyTrackPage represents a paginated response of tracks.
type spotifyTrackPage struct {
	Items  []spotifyTrack `json:"items"`
	Limit  int            `json:"limit"`
	Offset int            `json:"offset"`
	Total  int            `json:"total"`
	Next   *string        `json:"next"`
}

type spotifySearchResponse struct {
	Artists struct {
		Items []spotifyArtist `json:"items"`
	} `json:"artists"`
}

// SpotifyService implements [Service] against the Spotify Web API.
//
// Reads authenticate with a client-credentials token fetched lazily; writes
// use the user token installed via [SpotifyService.SetUserToken]. All calls
// pass through a client-side [rate.Limiter] and the bounded [RetryPolicy].
type SpotifyService struct {
	cc         *clientcredentials.Config
	ccToken    *oauth2.Token
	userToken  *oauth2.Token
	refresher  func(ctx context.Context) (*oauth2.Token, error)
	httpClient *http.Client
	limiter    *rate.Limiter
	retry      RetryPolicy
	logger     *log.Logger
	baseURL    string
}

// NewSpotifyService creates a new Spotify service with the given credentials.
// Requires "client_id" and "client_secret" keys.
func NewSpotifyService(credentials map[string]string, logger *log.Logger) (*SpotifyService, error) {
	clientID, ok := credentials["client_id"]
	if !ok || clientID == "" {
		return nil, fmt.Errorf("%w: missing client_id", shared.ErrMissingCredentials)
	}

	clientSecret, ok := credentials["client_secret"]
	if !ok || clientSecret == "" {
		return nil, fmt.Errorf("%w: missing client_secret", shared.ErrMissingCredentials)
	}

	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	return &SpotifyService{
		cc: &clientcredentials.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			TokenURL:     spotifyTokenURL,
		},
		httpClient: http.DefaultClient,
		limiter:    rate.NewLimiter(rate.Limit(10), 1),
		retry:      DefaultRetryPolicy(),
		logger:     logger,
		baseURL:    spotifyBaseURL,
	}, nil
}

func (s *SpotifyService) Name() string {
	return "Spotify"
}

// SetUserToken installs the user token used for playlist write operations.
func (s *SpotifyService) SetUserToken(token *oauth2.Token) {
	s.userToken = token
}

// SetTokenRefresher installs the callback invoked when a user-token request
// comes back 401. The request is retried once with the returned token.
func (s *SpotifyService) SetTokenRefresher(fn func(ctx context.Context) (*oauth2.Token, error)) {
	s.refresher = fn
}

// bearer returns the access token for the requested auth mode.
func (s *SpotifyService) bearer(ctx context.Context, asUser bool) (string, error) {
	if asUser {
		if s.userToken == nil || s.userToken.AccessToken == "" {
			return "", shared.ErrNotAuthenticated
		}
		return s.userToken.AccessToken, nil
	}

	if s.ccToken != nil && s.ccToken.Valid() {
		return s.ccToken.AccessToken, nil
	}

	token, err := s.cc.Token(ctx)
	if err != nil {
		return "", fmt.Errorf("%w: client credentials: %v", shared.ErrAuthExchangeFailed, err)
	}
	s.ccToken = token

	return token.AccessToken, nil
}

// invalidate discards the current token after a 401, refreshing the user
// token through the installed refresher when one is present.
func (s *SpotifyService) invalidate(ctx context.Context, asUser bool) error {
	if !asUser {
		s.ccToken = nil
		return nil
	}

	if s.refresher == nil {
		return fmt.Errorf("%w: token rejected and no refresher installed", shared.ErrNotAuthenticated)
	}

	token, err := s.refresher(ctx)
	if err != nil {
		return err
	}
	s.userToken = token

	return nil
}

// doRequest performs an authenticated request against the API, applying the
// rate limiter, the retry policy, and the single 401 refresh-and-retry.
func (s *SpotifyService) doRequest(ctx context.Context, method, endpoint string, query url.Values, body, result any, asUser bool) error {
	var payload []byte
	if body != nil {
		var err error
		if payload, err = json.Marshal(body); err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
	}

	apiURL := s.baseURL + endpoint
	if len(query) > 0 {
		apiURL += "?" + query.Encode()
	}

	for attempt := 0; ; attempt++ {
		if err := s.limiter.Wait(ctx); err != nil {
			return err
		}

		token, err := s.bearer(ctx, asUser)
		if err != nil {
			return err
		}

		resp, err := s.retry.Do(ctx, func() (*http.Response, error) {
			var reader io.Reader
			if payload != nil {
				reader = bytes.NewReader(payload)
			}

			req, err := http.NewRequestWithContext(ctx, method, apiURL, reader)
			if err != nil {
				return nil, fmt.Errorf("failed to create request: %w", err)
			}

			req.Header.Set("Authorization", "Bearer "+token)
			if payload != nil {
				req.Header.Set("Content-Type", "application/json")
			}

			return s.httpClient.Do(req)
		})
		if err != nil {
			return err
		}

		if resp.StatusCode == http.StatusUnauthorized && attempt == 0 {
			resp.Body.Close()
			s.logger.Warn("token rejected, refreshing once", "endpoint", endpoint)
			if err := s.invalidate(ctx, asUser); err != nil {
				return err
			}
			continue
		}

		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			raw, _ := io.ReadAll(resp.Body)
			return &APIError{Status: resp.StatusCode, Body: string(raw)}
		}

		if result != nil {
			if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
				return fmt.Errorf("failed to decode response: %w", err)
			}
		}

		return nil
	}
}

// SearchArtists searches for artists matching the query.
func (s *SpotifyService) SearchArtists(ctx context.Context, query string, limit int) ([]models.Artist, error) {
	if limit <= 0 {
		limit = 10
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("type", "artist")
	params.Set("limit", fmt.Sprintf("%d", limit))

	var response spotifySearchResponse
	if err := s.doRequest(ctx, http.MethodGet, "/search", params, nil, &response, false); err != nil {
		return nil, err
	}

	artists := make([]models.Artist, 0, len(response.Artists.Items))
	for _, item := range response.Artists.Items {
		artists = append(artists, convertArtist(item))
	}

	return artists, nil
}

// GetArtist retrieves an artist by ID.
func (s *SpotifyService) GetArtist(ctx context.Context, artistID string) (*models.Artist, error) {
	var artist spotifyArtist
	endpoint := fmt.Sprintf("/artists/%s", artistID)
	if err := s.doRequest(ctx, http.MethodGet, endpoint, nil, nil, &artist, false); err != nil {
		return nil, err
	}

	converted := convertArtist(artist)
	return &converted, nil
}

// GetArtistAlbums retrieves the artist's albums and singles across all pages.
func (s *SpotifyService) GetArtistAlbums(ctx context.Context, artistID string) ([]models.Album, error) {
	endpoint := fmt.Sprintf("/artists/%s/albums", artistID)
	albums := []models.Album{}
	offset := 0

	for {
		params := url.Values{}
		params.Set("include_groups", "album,single")
		params.Set("limit", fmt.Sprintf("%d", pageLimit))
		params.Set("offset", fmt.Sprintf("%d", offset))

		var page spotifyAlbumPage
		if err := s.doRequest(ctx, http.MethodGet, endpoint, params, nil, &page, false); err != nil {
			return nil, err
		}

		for _, item := range page.Items {
			albums = append(albums, convertAlbum(item))
		}

		if len(page.Items) < pageLimit || page.Next == nil {
			break
		}
		offset += pageLimit
	}

	return albums, nil
}

// GetAlbumTracks retrieves the album's tracks across all pages, stamping album
// name and release date onto each track.
func (s *SpotifyService) GetAlbumTracks(ctx context.Context, album models.Album) ([]models.Track, error) {
	endpoint := fmt.Sprintf("/albums/%s/tracks", album.ID)
	tracks := []models.Track{}
	offset := 0

	for {
		params := url.Values{}
		params.Set("limit", fmt.Sprintf("%d", pageLimit))
		params.Set("offset", fmt.Sprintf("%d", offset))

		var page spotifyTrackPage
		if err := s.doRequest(ctx, http.MethodGet, endpoint, params, nil, &page, false); err != nil {
			return nil, err
		}

		for _, item := range page.Items {
			track := convertTrack(item)
			track.AlbumName = album.Name
			track.AlbumReleaseDate = album.ReleaseDate
			tracks = append(tracks, track)
		}

		if len(page.Items) < pageLimit || page.Next == nil {
			break
		}
		offset += pageLimit
	}

	return tracks, nil
}

// GetTrack retrieves full track details by ID.
func (s *SpotifyService) GetTrack(ctx context.Context, trackID string) (*models.Track, error) {
	var raw spotifyTrack
	endpoint := fmt.Sprintf("/tracks/%s", trackID)
	if err := s.doRequest(ctx, http.MethodGet, endpoint, nil, nil, &raw, false); err != nil {
		return nil, err
	}

	track := convertTrack(raw)
	track.AlbumName = raw.Album.Name
	track.AlbumReleaseDate = raw.Album.ReleaseDate

	return &track, nil
}

// CurrentUser retrieves the authenticated user's profile.
func (s *SpotifyService) CurrentUser(ctx context.Context) (*models.User, error) {
	var user spotifyUser
	if err := s.doRequest(ctx, http.MethodGet, "/me", nil, nil, &user, true); err != nil {
		return nil, err
	}

	return &models.User{ID: user.ID, DisplayName: user.DisplayName}, nil
}

// CreatePlaylist creates a playlist owned by the given user.
func (s *SpotifyService) CreatePlaylist(ctx context.Context, userID, name, description string, public bool) (*models.Playlist, error) {
	body := map[string]any{
		"name":        name,
		"description": description,
		"public":      public,
	}

	var playlist spotifyPlaylist
	endpoint := fmt.Sprintf("/users/%s/playlists", userID)
	if err := s.doRequest(ctx, http.MethodPost, endpoint, nil, body, &playlist, true); err != nil {
		return nil, err
	}

	return &models.Playlist{
		ID:          playlist.ID,
		Name:        playlist.Name,
		Description: playlist.Description,
		Public:      playlist.Public,
		URL:         playlist.ExternalURLs.Spotify,
	}, nil
}

// AddTracks appends URIs to the playlist in order, 100 per request.
//
// On failure the returned count reports how many tracks made it in before the
// failing batch, so callers can tell the user exactly where the add stopped.
func (s *SpotifyService) AddTracks(ctx context.Context, playlistID string, uris []string) (int, error) {
	endpoint := fmt.Sprintf("/playlists/%s/tracks", playlistID)
	added := 0

	for start := 0; start < len(uris); start += addBatchLimit {
		end := min(start+addBatchLimit, len(uris))
		body := map[string]any{"uris": uris[start:end]}

		if err := s.doRequest(ctx, http.MethodPost, endpoint, nil, body, nil, true); err != nil {
			return added, fmt.Errorf("added %d of %d tracks before failure: %w", added, len(uris), err)
		}
		added = end
	}

	return added, nil
}

func convertArtist(a spotifyArtist) models.Artist {
	return models.Artist{
		ID:         a.ID,
		Name:       a.Name,
		Popularity: a.Popularity,
		Followers:  a.Followers.Total,
	}
}

func convertAlbum(a spotifyAlbum) models.Album {
	album := models.Album{
		ID:          a.ID,
		Name:        a.Name,
		ReleaseDate: a.ReleaseDate,
		TotalTracks: a.TotalTracks,
	}

	for _, artist := range a.Artists {
		album.ArtistNames = append(album.ArtistNames, artist.Name)
	}
	if len(a.Artists) > 0 {
		album.PrimaryArtistID = a.Artists[0].ID
	}

	return album
}

func convertTrack(t spotifyTrack) models.Track {
	track := models.Track{
		ID:         t.ID,
		Name:       t.Name,
		DurationMS: t.DurationMS,
		Popularity: t.Popularity,
		URI:        t.URI,
	}

	for _, artist := range t.Artists {
		track.ArtistNames = append(track.ArtistNames, artist.Name)
	}
	if len(t.Artists) > 0 {
		track.PrimaryArtistID = t.Artists[0].ID
	}

	return track
}
