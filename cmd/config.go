package main

import (
	"context"

	"github.com/kmcph/cratedig/internal/shared"
	"github.com/urfave/cli/v3"
)

// ConfigInit writes the example configuration to the given path.
func (r *Runner) ConfigInit(ctx context.Context, cmd *cli.Command) error {
	path := cmd.String("config")

	if err := shared.CreateConfigFile(path); err != nil {
		return err
	}

	r.writePlain("✓ Created %s\n", path)
	r.writePlain("Fill in your Spotify client_id and client_secret, then run: cratedig generate\n")

	return nil
}
