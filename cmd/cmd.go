// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

// configFlag is shared by every command that reads the config file.
func configFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to configuration file",
		Value:   "config.toml",
	}
}

// credentialFlags let one-off runs pass credentials without a config file.
func credentialFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "client-id",
			Aliases: []string{"client_id"},
			Usage:   "Spotify API client ID (overrides config)",
		},
		&cli.StringFlag{
			Name:    "client-secret",
			Aliases: []string{"client_secret"},
			Usage:   "Spotify API client secret (overrides config)",
		},
		&cli.StringFlag{
			Name:    "callback-url",
			Aliases: []string{"callback_url"},
			Usage:   "Callback URL for Spotify authorization",
		},
	}
}

// generateCommand is the primary playlist generation command.
func generateCommand(r *Runner) *cli.Command {
	flags := []cli.Flag{
		configFlag(),
		&cli.StringFlag{
			Name:     "artists",
			Aliases:  []string{"a"},
			Usage:    "Comma-separated list of artist names (e.g. \"BTS, Jung Kook, V\")",
			Required: true,
		},
		&cli.StringFlag{
			Name:    "playlist-name",
			Aliases: []string{"playlist_name", "n"},
			Usage:   "Name for the playlist to create (required unless --dryrun)",
		},
		&cli.StringFlag{
			Name:  "sort",
			Usage: "Sort order for tracks (date, popularity, name)",
			Value: "date",
		},
		&cli.StringFlag{
			Name:  "order",
			Usage: "Sort direction (asc, desc)",
			Value: "asc",
		},
		&cli.BoolFlag{
			Name:  "dryrun",
			Usage: "Print tracks instead of creating a playlist",
		},
		&cli.StringFlag{
			Name:  "format",
			Usage: "Dry-run output format (text, csv, markdown)",
			Value: "text",
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Write dry-run output to a file instead of stdout",
		},
	}
	flags = append(flags, credentialFlags()...)

	return &cli.Command{
		Name:    "generate",
		Aliases: []string{"gen"},
		Usage:   "Build a playlist from every primary-credit track of the given artists",
		Flags:   flags,
		Action:  r.Generate,
	}
}

// authCommand handles authentication operations
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Manage Spotify authorization",
		Commands: []*cli.Command{
			{
				Name:   "login",
				Usage:  "Authorize with Spotify using OAuth2 and store tokens",
				Flags:  append([]cli.Flag{configFlag()}, credentialFlags()...),
				Action: r.AuthLogin,
			},
			{
				Name:   "status",
				Usage:  "Check stored token state",
				Flags:  []cli.Flag{configFlag()},
				Action: r.AuthStatus,
			},
		},
	}
}

// stateCommand inspects and resets the local state file.
func stateCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "state",
		Usage: "Inspect or reset remembered artist selections and tokens",
		Commands: []*cli.Command{
			{
				Name:  "show",
				Usage: "Show remembered artist selections and token status",
				Flags: []cli.Flag{
					configFlag(),
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output JSON",
					},
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print JSON output",
						Value: true,
					},
				},
				Action: r.StateShow,
			},
			{
				Name:  "clear",
				Usage: "Clear remembered artist selections and/or stored tokens",
				Flags: []cli.Flag{
					configFlag(),
					&cli.BoolFlag{
						Name:  "artists",
						Usage: "Clear only artist selections",
					},
					&cli.BoolFlag{
						Name:  "tokens",
						Usage: "Clear only stored tokens",
					},
				},
				Action: r.StateClear,
			},
		},
	}
}

// cacheCommand manages the track detail cache.
func cacheCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "cache",
		Usage: "Manage the local track detail cache",
		Commands: []*cli.Command{
			{
				Name:   "stats",
				Usage:  "Show track cache statistics",
				Flags:  []cli.Flag{configFlag()},
				Action: r.CacheStats,
			},
			{
				Name:   "clear",
				Usage:  "Empty the track cache",
				Flags:  []cli.Flag{configFlag()},
				Action: r.CacheClear,
			},
		},
	}
}

// configCommand scaffolds the configuration file.
func configCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Configuration commands",
		Commands: []*cli.Command{
			{
				Name:   "init",
				Usage:  "Create a config.toml with documented defaults",
				Flags:  []cli.Flag{configFlag()},
				Action: r.ConfigInit,
			},
		},
	}
}
