package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/kmcph/cratedig/internal/repositories"
	"github.com/kmcph/cratedig/internal/services"
	"github.com/kmcph/cratedig/internal/shared"
	"github.com/kmcph/cratedig/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config   *shared.Config
	spotify  services.Service
	state    *repositories.StateStore
	cache    *repositories.TrackCache
	auth     services.TokenProvider
	selector tasks.Selector
	logger   *log.Logger
	output   io.Writer
}

// RunnerOpts contains configuration options for creating a Runner.
//
// Every collaborator is optional; unset ones are constructed on demand from
// the resolved configuration, which keeps the command actions testable with doubles.
type RunnerOpts struct {
	Config   *shared.Config
	Spotify  services.Service
	State    *repositories.StateStore
	Cache    *repositories.TrackCache
	Auth     services.TokenProvider
	Selector tasks.Selector
	Logger   *log.Logger
	Output   io.Writer
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}

	return &Runner{
		config:   opts.Config,
		spotify:  opts.Spotify,
		state:    opts.State,
		cache:    opts.Cache,
		auth:     opts.Auth,
		selector: opts.Selector,
		logger:   opts.Logger,
		output:   opts.Output,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		generateCommand, authCommand, stateCommand, cacheCommand, configCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// resolveConfig returns the effective configuration for a command: the file
// named by --config when present, otherwise the runner's config, with
// credential flags layered on top.
func (r *Runner) resolveConfig(cmd *cli.Command) *shared.Config {
	config := r.config

	if path := cmd.String("config"); path != "" {
		if _, err := os.Stat(path); err == nil {
			loaded, err := shared.LoadConfig(path)
			if err != nil {
				r.logger.Warn("failed to load config, using defaults", "path", path, "error", err)
			} else {
				config = loaded
			}
		}
	}

	if config == nil {
		config = shared.DefaultConfig()
	}

	// Flags override file values so one-off runs don't need a config file.
	clone := *config
	if v := cmd.String("client-id"); v != "" {
		clone.Credentials.Spotify.ClientID = v
	}
	if v := cmd.String("client-secret"); v != "" {
		clone.Credentials.Spotify.ClientSecret = v
	}
	if v := cmd.String("callback-url"); v != "" {
		clone.Credentials.Spotify.CallbackURL = v
	}

	return &clone
}

// openState returns the injected state store or loads the one named in config.
func (r *Runner) openState(config *shared.Config) (*repositories.StateStore, error) {
	if r.state != nil {
		return r.state, nil
	}

	store, err := repositories.NewStateStore(shared.ExpandHome(config.Storage.StatePath))
	if err != nil {
		return nil, err
	}
	r.state = store

	return store, nil
}

// openCache returns the injected track cache or opens the configured one.
// A cache that fails to open degrades to uncached operation.
func (r *Runner) openCache(config *shared.Config) *repositories.TrackCache {
	if r.cache != nil {
		return r.cache
	}

	path := shared.ExpandHome(config.Storage.CachePath)
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			r.logger.Warn("failed to create cache directory, caching disabled", "path", dir, "error", err)
			return nil
		}
	}

	cache, err := repositories.NewTrackCache(path)
	if err != nil {
		r.logger.Warn("failed to open track cache, caching disabled", "path", path, "error", err)
		return nil
	}
	r.cache = cache

	return cache
}

// service returns the injected Spotify service or constructs one from config.
func (r *Runner) service(config *shared.Config) (services.Service, error) {
	if r.spotify != nil {
		return r.spotify, nil
	}

	svc, err := services.NewSpotifyService(map[string]string{
		"client_id":     config.Credentials.Spotify.ClientID,
		"client_secret": config.Credentials.Spotify.ClientSecret,
	}, r.logger)
	if err != nil {
		return nil, err
	}
	r.spotify = svc

	return svc, nil
}

// tokenProvider returns the injected provider or builds the real AuthManager.
func (r *Runner) tokenProvider(config *shared.Config, state *repositories.StateStore) (services.TokenProvider, error) {
	if r.auth != nil {
		return r.auth, nil
	}

	auth, err := services.NewAuthManager(services.AuthManagerOpts{
		Config: config,
		State:  state,
		Logger: r.logger,
		Output: r.output,
	})
	if err != nil {
		return nil, err
	}
	r.auth = auth

	return auth, nil
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
