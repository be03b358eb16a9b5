package tasks

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/kmcph/cratedig/internal/models"
	"github.com/kmcph/cratedig/internal/repositories"
	"github.com/kmcph/cratedig/internal/services"
	"github.com/kmcph/cratedig/internal/shared"
)

// Selector chooses among multiple artist candidates for a query.
//
// Implementations are interactive (internal/ui) or test doubles; the
// aggregator never reads the terminal itself.
type Selector interface {
	SelectArtist(query string, candidates []models.Artist) (*models.Artist, error)
}

// Aggregator resolves artists and collects their primary-credit tracks.
type Aggregator struct {
	svc      services.Service
	state    *repositories.StateStore
	cache    *repositories.TrackCache
	selector Selector
	logger   *log.Logger
}

// AggregatorOpts contains construction options for an Aggregator.
type AggregatorOpts struct {
	Service  services.Service
	State    *repositories.StateStore
	Cache    *repositories.TrackCache // nil disables detail caching
	Selector Selector
	Logger   *log.Logger
}

// NewAggregator creates an Aggregator with the provided collaborators.
func NewAggregator(opts AggregatorOpts) *Aggregator {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}

	return &Aggregator{
		svc:      opts.Service,
		state:    opts.State,
		cache:    opts.Cache,
		selector: opts.Selector,
		logger:   opts.Logger,
	}
}

// ResolveArtist maps an artist name query to a concrete artist.
//
// A remembered choice for the exact query string skips the search entirely,
// after revalidating that the saved ID still resolves. Zero search results is
// fatal; multiple results defer to the selector and the choice is persisted.
func (a *Aggregator) ResolveArtist(ctx context.Context, name string) (*models.Artist, error) {
	if choice, ok := a.state.Artist(name); ok {
		artist, err := a.svc.GetArtist(ctx, choice.ID)
		if err == nil {
			a.logger.Info("using saved artist", "query", name, "artist", artist.Name, "id", artist.ID)
			return artist, nil
		}

		a.logger.Warn("saved artist no longer resolves, searching again", "query", name, "id", choice.ID, "error", err)
		if err := a.state.DeleteArtist(name); err != nil {
			return nil, err
		}
	}

	candidates, err := a.svc.SearchArtists(ctx, name, 10)
	if err != nil {
		return nil, err
	}

	if len(candidates) == 0 {
		return nil, fmt.Errorf("%w: %q", shared.ErrArtistNotFound, name)
	}

	var chosen *models.Artist
	if len(candidates) == 1 {
		chosen = &candidates[0]
		a.logger.Info("found artist", "query", name, "artist", chosen.Name, "id", chosen.ID)
	} else {
		if chosen, err = a.selector.SelectArtist(name, candidates); err != nil {
			return nil, err
		}
	}

	if err := a.state.SetArtist(name, repositories.ArtistSelection{ID: chosen.ID, Name: chosen.Name}); err != nil {
		return nil, err
	}

	return chosen, nil
}

// CollectTracks enumerates every album and single where the artist is the
// primary credit and returns their primary-credit tracks, release dates
// stamped from the album, deduplicated by track ID.
//
// Guest-feature tracks never pass the filter: a track counts only when the
// artist is first in its credit list.
func (a *Aggregator) CollectTracks(ctx context.Context, artist *models.Artist) ([]models.Track, error) {
	albums, err := a.svc.GetArtistAlbums(ctx, artist.ID)
	if err != nil {
		return nil, err
	}

	primaryAlbums := []models.Album{}
	for _, album := range albums {
		if album.PrimaryArtistID == artist.ID {
			primaryAlbums = append(primaryAlbums, album)
		}
	}

	a.logger.Info("found primary albums", "artist", artist.Name, "primary", len(primaryAlbums), "total", len(albums))

	collected := []models.Track{}
	for _, album := range primaryAlbums {
		tracks, err := a.svc.GetAlbumTracks(ctx, album)
		if err != nil {
			return nil, err
		}

		for _, track := range tracks {
			if track.PrimaryArtistID == artist.ID {
				collected = append(collected, track)
			}
		}
	}

	// Re-releases repeat track IDs across albums.
	return Dedupe(collected), nil
}

// EnrichPopularity fills in popularity scores, which album track listings
// omit, by fetching full track details. Each lookup goes through the cache
// first and successful fetches are written back, so repeat runs stay cheap.
func (a *Aggregator) EnrichPopularity(ctx context.Context, tracks []models.Track) ([]models.Track, error) {
	enriched := make([]models.Track, len(tracks))

	for i, track := range tracks {
		if cached, err := a.cache.Get(track.ID); err != nil {
			a.logger.Warn("track cache read failed", "id", track.ID, "error", err)
		} else if cached != nil {
			track.Popularity = cached.Popularity
			enriched[i] = track
			continue
		}

		full, err := a.svc.GetTrack(ctx, track.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch details for %q: %w", track.Name, err)
		}

		track.Popularity = full.Popularity
		enriched[i] = track

		if err := a.cache.Put(*full); err != nil {
			a.logger.Warn("track cache write failed", "id", track.ID, "error", err)
		}

		if (i+1)%10 == 0 {
			a.logger.Info("fetching popularity data", "done", i+1, "total", len(tracks))
		}
	}

	return enriched, nil
}
