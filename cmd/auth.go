package main

import (
	"context"
	"time"

	"github.com/kmcph/cratedig/internal/services"
	"github.com/urfave/cli/v3"
)

// AuthLogin forces a fresh authorization-code flow and stores the tokens.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	config := r.resolveConfig(cmd)

	state, err := r.openState(config)
	if err != nil {
		return err
	}

	auth, err := r.tokenProvider(config, state)
	if err != nil {
		return err
	}

	// A login command always goes interactive, even with usable stored tokens.
	if manager, ok := auth.(*services.AuthManager); ok {
		if _, err := manager.Authorize(ctx); err != nil {
			return err
		}
	} else if _, err := auth.Token(ctx); err != nil {
		return err
	}

	return r.writePlain("✓ Tokens saved to %s\n", state.Path())
}

// AuthStatus reports what token material the state file currently holds.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	config := r.resolveConfig(cmd)

	state, err := r.openState(config)
	if err != nil {
		return err
	}

	token := state.Token()
	if token == nil {
		return r.writePlain("✗ No stored tokens. Run: cratedig auth login\n")
	}

	if state.TokenUsable() {
		r.writePlain("✓ Access token valid until %s\n", token.Expiry.Format(time.RFC1123))
	} else {
		r.writePlain("✗ Access token expired\n")
	}

	if token.RefreshToken != "" {
		r.writePlain("✓ Refresh token stored (transparent refresh available)\n")
	} else {
		r.writePlain("✗ No refresh token stored\n")
	}

	return nil
}
