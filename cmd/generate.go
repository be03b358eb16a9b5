package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/kmcph/cratedig/internal/formatter"
	"github.com/kmcph/cratedig/internal/models"
	"github.com/kmcph/cratedig/internal/services"
	"github.com/kmcph/cratedig/internal/shared"
	"github.com/kmcph/cratedig/internal/tasks"
	"github.com/kmcph/cratedig/internal/ui"
	"github.com/urfave/cli/v3"
)

// Generate is the main command action: resolve artists, collect and sort their
// primary-credit tracks, then print the result (dry run) or create a playlist.
func (r *Runner) Generate(ctx context.Context, cmd *cli.Command) error {
	config := r.resolveConfig(cmd)
	dryrun := cmd.Bool("dryrun")
	playlistName := strings.TrimSpace(cmd.String("playlist-name"))

	names := shared.SplitArtists(cmd.String("artists"))
	if len(names) == 0 {
		return fmt.Errorf("%w: --artists must name at least one artist", shared.ErrMissingArgument)
	}

	if !dryrun && playlistName == "" {
		return fmt.Errorf("%w: --playlist-name is required unless --dryrun is used", shared.ErrMissingArgument)
	}

	sortKey, err := tasks.ParseSortKey(cmd.String("sort"))
	if err != nil {
		return err
	}
	sortOrder, err := tasks.ParseSortOrder(cmd.String("order"))
	if err != nil {
		return err
	}

	state, err := r.openState(config)
	if err != nil {
		return err
	}

	svc, err := r.service(config)
	if err != nil {
		return err
	}

	selector := r.selector
	if selector == nil {
		selector = ui.NewPicker()
	}

	runLogger := shared.WithLogger(r.logger, "run", shared.GenerateID())
	agg := tasks.NewAggregator(tasks.AggregatorOpts{
		Service:  svc,
		State:    state,
		Cache:    r.openCache(config),
		Selector: selector,
		Logger:   runLogger,
	})

	allTracks := []models.Track{}
	artistNames := []string{}

	for _, name := range names {
		artist, err := agg.ResolveArtist(ctx, name)
		if err != nil {
			return err
		}

		tracks, err := agg.CollectTracks(ctx, artist)
		if err != nil {
			return err
		}

		runLogger.Info("collected tracks", "artist", artist.Name, "tracks", len(tracks))
		artistNames = append(artistNames, artist.Name)
		allTracks = append(allTracks, tracks...)
	}

	merged := tasks.Dedupe(allTracks)
	if len(merged) == 0 {
		return fmt.Errorf("no tracks found for the specified artists")
	}

	r.writePlain("Found %d unique tracks across all artists\n\n", len(merged))

	if sortKey == tasks.SortByPopularity {
		if merged, err = agg.EnrichPopularity(ctx, merged); err != nil {
			return err
		}
	}

	sorted := tasks.MergeAndSort(merged, sortKey, sortOrder)

	if dryrun {
		return r.writeTrackList(cmd, sorted, string(sortKey), string(sortOrder))
	}

	return r.createPlaylist(ctx, config, svc, playlistName, artistNames, sorted)
}

// writeTrackList renders the dry-run output in the requested format.
func (r *Runner) writeTrackList(cmd *cli.Command, tracks []models.Track, sortKey, sortOrder string) error {
	var rendered []byte
	var err error

	switch format := cmd.String("format"); format {
	case "", "text":
		rendered = formatter.ExportToText(tracks, sortKey, sortOrder)
	case "csv":
		if rendered, err = formatter.ExportToCSV(tracks); err != nil {
			return err
		}
	case "markdown", "md":
		rendered = formatter.ExportToMarkdown("Tracks", tracks)
	default:
		return fmt.Errorf("%w: format must be text, csv, or markdown (got %q)", shared.ErrInvalidFlag, format)
	}

	if outputFile := cmd.String("output"); outputFile != "" {
		if err := os.WriteFile(outputFile, rendered, 0644); err != nil {
			return fmt.Errorf("failed to write output file: %w", err)
		}
		return r.writePlain("✓ Track list written to %s (%d tracks)\n", outputFile, len(tracks))
	}

	if _, err := r.output.Write(rendered); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	return nil
}

// createPlaylist obtains a user token, creates the playlist, and adds every
// track in the computed order.
func (r *Runner) createPlaylist(ctx context.Context, config *shared.Config, svc services.Service, name string, artistNames []string, tracks []models.Track) error {
	state, err := r.openState(config)
	if err != nil {
		return err
	}

	auth, err := r.tokenProvider(config, state)
	if err != nil {
		return err
	}

	token, err := auth.Token(ctx)
	if err != nil {
		return err
	}

	oauthSvc, ok := svc.(services.OAuthService)
	if !ok {
		return fmt.Errorf("%w: service does not accept user tokens", shared.ErrNotAuthenticated)
	}
	oauthSvc.SetUserToken(token)
	oauthSvc.SetTokenRefresher(auth.Refresh)

	user, err := svc.CurrentUser(ctx)
	if err != nil {
		return err
	}

	r.writePlain("Creating playlist for Spotify user: %s (%s)\n", user.DisplayName, user.ID)

	description := fmt.Sprintf("Playlist of tracks by %s. Generated on %s.",
		strings.Join(artistNames, ", "), time.Now().Format("2006-01-02"))

	playlist, err := svc.CreatePlaylist(ctx, user.ID, name, description, true)
	if err != nil {
		return err
	}

	r.writePlain("Adding %d tracks to playlist %q...\n", len(tracks), playlist.Name)

	uris := make([]string, 0, len(tracks))
	for _, track := range tracks {
		uri := track.URI
		if uri == "" {
			uri = "spotify:track:" + track.ID
		}
		uris = append(uris, uri)
	}

	added, err := svc.AddTracks(ctx, playlist.ID, uris)
	if err != nil {
		r.writePlainln("⚠ Playlist was created but adding tracks failed after %d of %d.", added, len(uris))
		if playlist.URL != "" {
			r.writePlain("Playlist URL: %s\n", playlist.URL)
		}
		return err
	}

	r.writePlainln("✓ Playlist created successfully with %d tracks", added)
	if playlist.URL != "" {
		r.writePlain("Playlist URL: %s\n", playlist.URL)
	}

	return nil
}
