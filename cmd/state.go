package main

import (
	"context"

	"github.com/urfave/cli/v3"
)

// StateShow prints the remembered artist selections and token status.
func (r *Runner) StateShow(ctx context.Context, cmd *cli.Command) error {
	config := r.resolveConfig(cmd)

	state, err := r.openState(config)
	if err != nil {
		return err
	}

	record := state.Record()

	if cmd.Bool("json") {
		// Token material stays out of display output.
		return r.writeJSON(map[string]any{
			"path":           state.Path(),
			"artist_choices": record.ArtistChoices,
			"tokens_present": record.AccessToken != "" || record.RefreshToken != "",
			"token_usable":   state.TokenUsable(),
		}, cmd.Bool("pretty"))
	}

	r.writePlain("State file: %s\n\n", state.Path())

	if len(record.ArtistChoices) == 0 {
		r.writePlain("No remembered artist selections.\n")
	} else {
		r.writePlain("Remembered artist selections:\n")
		for query, choice := range record.ArtistChoices {
			r.writePlain("  %q → %s (ID: %s)\n", query, choice.Name, choice.ID)
		}
	}

	if record.AccessToken != "" || record.RefreshToken != "" {
		r.writePlain("\nTokens: stored\n")
	} else {
		r.writePlain("\nTokens: none\n")
	}

	return nil
}

// StateClear drops remembered artist selections and/or stored tokens.
func (r *Runner) StateClear(ctx context.Context, cmd *cli.Command) error {
	config := r.resolveConfig(cmd)

	state, err := r.openState(config)
	if err != nil {
		return err
	}

	clearArtists := cmd.Bool("artists")
	clearTokens := cmd.Bool("tokens")
	if !clearArtists && !clearTokens {
		clearArtists, clearTokens = true, true
	}

	if clearArtists {
		if err := state.ClearArtists(); err != nil {
			return err
		}
		r.writePlain("✓ Cleared remembered artist selections\n")
	}

	if clearTokens {
		if err := state.ClearToken(); err != nil {
			return err
		}
		r.writePlain("✓ Cleared stored tokens\n")
	}

	return nil
}

// CacheStats reports how many track details are cached.
func (r *Runner) CacheStats(ctx context.Context, cmd *cli.Command) error {
	config := r.resolveConfig(cmd)

	cache := r.openCache(config)
	count, err := cache.Count()
	if err != nil {
		return err
	}

	return r.writePlain("Cached track details: %d\n", count)
}

// CacheClear empties the track detail cache.
func (r *Runner) CacheClear(ctx context.Context, cmd *cli.Command) error {
	config := r.resolveConfig(cmd)

	cache := r.openCache(config)
	if err := cache.Clear(); err != nil {
		return err
	}

	return r.writePlain("✓ Track cache cleared\n")
}
