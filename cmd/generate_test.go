package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kmcph/cratedig/internal/models"
	"github.com/kmcph/cratedig/internal/repositories"
	"github.com/kmcph/cratedig/internal/shared"
	itesting "github.com/kmcph/cratedig/internal/testing"
	"github.com/urfave/cli/v3"
	"golang.org/x/oauth2"
)

type fixedSelector struct {
	choice *models.Artist
	calls  int
}

func (f *fixedSelector) SelectArtist(query string, candidates []models.Artist) (*models.Artist, error) {
	f.calls++
	if f.choice != nil {
		return f.choice, nil
	}
	return &candidates[0], nil
}

// discographyService scripts a small catalog: one artist with one primary
// album of two tracks, plus a compilation the artist does not own.
func discographyService() *itesting.MockService {
	return &itesting.MockService{
		SearchArtistsFunc: func(ctx context.Context, query string, limit int) ([]models.Artist, error) {
			return []models.Artist{{ID: "ar1", Name: "Queen", Popularity: 90}}, nil
		},
		GetArtistAlbumsFunc: func(ctx context.Context, artistID string) ([]models.Album, error) {
			return []models.Album{
				{ID: "al1", Name: "Queen", ReleaseDate: "1973-07-13", PrimaryArtistID: "ar1"},
				{ID: "al2", Name: "Various Hits", ReleaseDate: "1990-01-01", PrimaryArtistID: "various"},
			}, nil
		},
		GetAlbumTracksFunc: func(ctx context.Context, album models.Album) ([]models.Track, error) {
			return []models.Track{
				{ID: "t1", Name: "Keep Yourself Alive", ArtistNames: []string{"Queen"}, PrimaryArtistID: "ar1",
					AlbumName: album.Name, AlbumReleaseDate: album.ReleaseDate, DurationMS: 225000, URI: "spotify:track:t1"},
				{ID: "t2", Name: "Liar", ArtistNames: []string{"Queen"}, PrimaryArtistID: "ar1",
					AlbumName: album.Name, AlbumReleaseDate: album.ReleaseDate, DurationMS: 383000, URI: "spotify:track:t2"},
			}, nil
		},
	}
}

type runnerFixture struct {
	runner   *Runner
	service  *itesting.MockService
	provider *itesting.MockTokenProvider
	state    *repositories.StateStore
	output   *bytes.Buffer
}

func newRunnerFixture(t *testing.T, svc *itesting.MockService) *runnerFixture {
	t.Helper()

	state, err := repositories.NewStateStore(filepath.Join(t.TempDir(), "state.json"))
	if err != nil {
		t.Fatalf("failed to create state store: %v", err)
	}

	cache, err := repositories.NewTrackCache(":memory:")
	if err != nil {
		t.Fatalf("failed to open cache: %v", err)
	}
	t.Cleanup(func() { cache.Close() })

	provider := &itesting.MockTokenProvider{Tok: &oauth2.Token{AccessToken: "user_token"}}
	output := &bytes.Buffer{}

	runner := NewRunner(RunnerOpts{
		Config:   shared.DefaultConfig(),
		Spotify:  svc,
		State:    state,
		Cache:    cache,
		Auth:     provider,
		Selector: &fixedSelector{},
		Logger:   shared.NewLogger(io.Discard),
		Output:   output,
	})

	return &runnerFixture{runner: runner, service: svc, provider: provider, state: state, output: output}
}

func (f *runnerFixture) run(t *testing.T, args ...string) error {
	t.Helper()
	app := &cli.Command{Name: "cratedig", Commands: f.runner.register()}
	return app.Run(context.Background(), append([]string{"cratedig"}, args...))
}

func TestGenerateDryRun(t *testing.T) {
	t.Run("Prints Sorted Tracks Without Touching Auth", func(t *testing.T) {
		fixture := newRunnerFixture(t, discographyService())

		err := fixture.run(t, "generate", "--artists", "Queen", "--dryrun")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		out := fixture.output.String()
		if !strings.Contains(out, "Found 2 unique tracks across all artists") {
			t.Errorf("expected track count, got:\n%s", out)
		}
		if !strings.Contains(out, "1. Keep Yourself Alive by Queen") {
			t.Errorf("expected sorted track list, got:\n%s", out)
		}

		// Dry runs never create playlists or go near user tokens.
		if fixture.service.CreateCalls != 0 || fixture.service.AddCalls != 0 {
			t.Errorf("expected no playlist calls, got create=%d add=%d", fixture.service.CreateCalls, fixture.service.AddCalls)
		}
		if fixture.provider.TokenCalls != 0 {
			t.Errorf("expected no token calls, got %d", fixture.provider.TokenCalls)
		}
	})

	t.Run("Remembers The Resolved Artist", func(t *testing.T) {
		fixture := newRunnerFixture(t, discographyService())

		if err := fixture.run(t, "generate", "--artists", "Queen", "--dryrun"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if choice, ok := fixture.state.Artist("Queen"); !ok || choice.ID != "ar1" {
			t.Errorf("expected selection persisted, got %v (ok=%v)", choice, ok)
		}
	})

	t.Run("Writes CSV To The Output File", func(t *testing.T) {
		fixture := newRunnerFixture(t, discographyService())
		outFile := filepath.Join(t.TempDir(), "tracks.csv")

		err := fixture.run(t, "generate", "--artists", "Queen", "--dryrun", "--format", "csv", "--output", outFile)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		itesting.AssertFileExists(t, outFile)

		content := itesting.MustReadFile(t, outFile)
		if !strings.HasPrefix(content, "ID,Track,Artists,Album,ReleaseDate,Duration,Popularity") {
			t.Errorf("expected CSV header, got:\n%s", content)
		}
	})

	t.Run("Popularity Sort Enriches Details", func(t *testing.T) {
		svc := discographyService()
		svc.GetTrackFunc = func(ctx context.Context, trackID string) (*models.Track, error) {
			popularity := map[string]int{"t1": 40, "t2": 80}
			return &models.Track{ID: trackID, Popularity: popularity[trackID]}, nil
		}
		fixture := newRunnerFixture(t, svc)

		err := fixture.run(t, "generate", "--artists", "Queen", "--dryrun", "--sort", "popularity", "--order", "desc")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if svc.GetTrackCalls != 2 {
			t.Errorf("expected detail fetch per track, got %d", svc.GetTrackCalls)
		}

		out := fixture.output.String()
		if !strings.Contains(out, "1. Liar by Queen") {
			t.Errorf("expected most popular track first, got:\n%s", out)
		}
	})

	t.Run("Unknown Format Is Rejected", func(t *testing.T) {
		fixture := newRunnerFixture(t, discographyService())

		err := fixture.run(t, "generate", "--artists", "Queen", "--dryrun", "--format", "yaml")
		if !errors.Is(err, shared.ErrInvalidFlag) {
			t.Errorf("expected ErrInvalidFlag, got %v", err)
		}
	})
}

func TestGenerateValidation(t *testing.T) {
	t.Run("Blank Artist List", func(t *testing.T) {
		fixture := newRunnerFixture(t, discographyService())

		err := fixture.run(t, "generate", "--artists", " , ", "--dryrun")
		if !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
	})

	t.Run("Playlist Name Required Without Dryrun", func(t *testing.T) {
		fixture := newRunnerFixture(t, discographyService())

		err := fixture.run(t, "generate", "--artists", "Queen")
		if !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
		if fixture.service.SearchCalls != 0 {
			t.Errorf("expected validation before any API call, got %d searches", fixture.service.SearchCalls)
		}
	})

	t.Run("Invalid Sort Key", func(t *testing.T) {
		fixture := newRunnerFixture(t, discographyService())

		err := fixture.run(t, "generate", "--artists", "Queen", "--dryrun", "--sort", "tempo")
		if !errors.Is(err, shared.ErrInvalidFlag) {
			t.Errorf("expected ErrInvalidFlag, got %v", err)
		}
	})

	t.Run("Unknown Artist Aborts The Run", func(t *testing.T) {
		svc := discographyService()
		svc.SearchArtistsFunc = func(ctx context.Context, query string, limit int) ([]models.Artist, error) {
			return nil, nil
		}
		fixture := newRunnerFixture(t, svc)

		err := fixture.run(t, "generate", "--artists", "Nope", "--dryrun")
		if !errors.Is(err, shared.ErrArtistNotFound) {
			t.Errorf("expected ErrArtistNotFound, got %v", err)
		}
	})
}

func TestGenerateCreate(t *testing.T) {
	t.Run("Creates Playlist And Adds Tracks", func(t *testing.T) {
		svc := discographyService()

		var createdName, createdDescription string
		svc.CreatePlaylistFunc = func(ctx context.Context, userID, name, description string, public bool) (*models.Playlist, error) {
			createdName, createdDescription = name, description
			if !public {
				t.Error("expected public playlist")
			}
			return &models.Playlist{ID: "pl1", Name: name, URL: "https://open.spotify.com/playlist/pl1"}, nil
		}

		var addedURIs []string
		svc.AddTracksFunc = func(ctx context.Context, playlistID string, uris []string) (int, error) {
			addedURIs = uris
			return len(uris), nil
		}

		fixture := newRunnerFixture(t, svc)

		err := fixture.run(t, "generate", "--artists", "Queen", "--playlist-name", "Deep Cuts")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if createdName != "Deep Cuts" {
			t.Errorf("expected playlist name, got %q", createdName)
		}
		if !strings.Contains(createdDescription, "Playlist of tracks by Queen.") {
			t.Errorf("unexpected description: %q", createdDescription)
		}
		if len(addedURIs) != 2 || addedURIs[0] != "spotify:track:t1" {
			t.Errorf("expected track URIs in order, got %v", addedURIs)
		}

		// The user token flows into the service before any write.
		if fixture.provider.TokenCalls != 1 {
			t.Errorf("expected one token call, got %d", fixture.provider.TokenCalls)
		}
		if fixture.service.UserToken == nil || fixture.service.UserToken.AccessToken != "user_token" {
			t.Errorf("expected user token installed, got %+v", fixture.service.UserToken)
		}

		out := fixture.output.String()
		if !strings.Contains(out, "Playlist created successfully with 2 tracks") {
			t.Errorf("expected success message, got:\n%s", out)
		}
		if !strings.Contains(out, "https://open.spotify.com/playlist/pl1") {
			t.Errorf("expected playlist URL, got:\n%s", out)
		}
	})

	t.Run("Partial Add Failure Reports Progress", func(t *testing.T) {
		svc := discographyService()
		svc.AddTracksFunc = func(ctx context.Context, playlistID string, uris []string) (int, error) {
			return 1, fmt.Errorf("added 1 of %d tracks before failure: boom", len(uris))
		}
		fixture := newRunnerFixture(t, svc)

		err := fixture.run(t, "generate", "--artists", "Queen", "--playlist-name", "Deep Cuts")
		if err == nil {
			t.Fatal("expected error from failing add")
		}

		if !strings.Contains(fixture.output.String(), "Playlist was created but adding tracks failed after 1 of 2.") {
			t.Errorf("expected partial-failure message, got:\n%s", fixture.output.String())
		}
	})

	t.Run("Token Failure Stops Before Any Write", func(t *testing.T) {
		svc := discographyService()
		fixture := newRunnerFixture(t, svc)
		fixture.provider.Tok = nil
		fixture.provider.Err = shared.ErrAuthTimeout

		err := fixture.run(t, "generate", "--artists", "Queen", "--playlist-name", "Deep Cuts")
		if !errors.Is(err, shared.ErrAuthTimeout) {
			t.Errorf("expected ErrAuthTimeout, got %v", err)
		}
		if svc.CreateCalls != 0 {
			t.Errorf("expected no playlist creation, got %d", svc.CreateCalls)
		}
	})
}
