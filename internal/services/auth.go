package services

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/kmcph/cratedig/internal/repositories"
	"github.com/kmcph/cratedig/internal/server"
	"github.com/kmcph/cratedig/internal/shared"
	"golang.org/x/oauth2"
)

// authTimeout bounds the wait for the browser callback.
const authTimeout = 5 * time.Minute

// userScopes are the scopes required for playlist creation.
var userScopes = []string{
	"playlist-modify-public",
	"playlist-modify-private",
	"user-read-private",
}

// AuthManager obtains user tokens for playlist writes.
//
// Token retrieval order: stored access token while still usable, then a
// refresh-token exchange, then the interactive authorization-code flow with a
// local callback server. Every successful exchange is persisted to the state
// store. Authorization failures are fatal; they always need the user back in
// the loop.
type AuthManager struct {
	config  *oauth2.Config
	state   *repositories.StateStore
	logger  *log.Logger
	output  io.Writer
	open    func(string) error
	addr    string
	timeout time.Duration
}

// AuthManagerOpts contains construction options for an AuthManager.
type AuthManagerOpts struct {
	Config *shared.Config
	State  *repositories.StateStore
	Logger *log.Logger
	Output io.Writer
}

// NewAuthManager creates an AuthManager from application config and the state store.
func NewAuthManager(opts AuthManagerOpts) (*AuthManager, error) {
	spotify := opts.Config.Credentials.Spotify
	if spotify.ClientID == "" || spotify.ClientSecret == "" {
		return nil, fmt.Errorf("%w: client_id and client_secret must be set", shared.ErrMissingCredentials)
	}

	callback := spotify.CallbackURL
	if callback == "" {
		callback = "http://localhost:8888/callback"
	}

	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = io.Discard
	}

	return &AuthManager{
		config: &oauth2.Config{
			ClientID:     spotify.ClientID,
			ClientSecret: spotify.ClientSecret,
			RedirectURL:  callback,
			Scopes:       userScopes,
			Endpoint: oauth2.Endpoint{
				AuthURL:  spotifyAuthURL,
				TokenURL: spotifyTokenURL,
			},
		},
		state:   opts.State,
		logger:  opts.Logger,
		output:  opts.Output,
		open:    shared.OpenBrowser,
		addr:    fmt.Sprintf("%s:%d", opts.Config.Server.Host, opts.Config.Server.Port),
		timeout: authTimeout,
	}, nil
}

// Token returns a usable user token, going interactive only when neither the
// stored access token nor the refresh token can serve.
func (m *AuthManager) Token(ctx context.Context) (*oauth2.Token, error) {
	if m.state.TokenUsable() {
		m.logger.Debug("using stored access token")
		return m.state.Token(), nil
	}

	if stored := m.state.Token(); stored != nil && stored.RefreshToken != "" {
		token, err := m.Refresh(ctx)
		if err == nil {
			return token, nil
		}
		m.logger.Warn("token refresh failed, starting authorization flow", "error", err)
	}

	return m.Authorize(ctx)
}

// Refresh exchanges the stored refresh token for a fresh access token and
// persists the result.
func (m *AuthManager) Refresh(ctx context.Context) (*oauth2.Token, error) {
	stored := m.state.Token()
	if stored == nil || stored.RefreshToken == "" {
		return nil, shared.ErrNoRefreshToken
	}

	m.logger.Info("refreshing access token")

	// Expiry in the past forces the TokenSource to hit the token endpoint.
	seed := &oauth2.Token{RefreshToken: stored.RefreshToken, Expiry: time.Unix(1, 0)}
	token, err := m.config.TokenSource(ctx, seed).Token()
	if err != nil {
		return nil, fmt.Errorf("%w: refresh: %v", shared.ErrAuthExchangeFailed, err)
	}

	if err := m.state.SetToken(token); err != nil {
		return nil, err
	}

	return token, nil
}

// Authorize runs the interactive authorization-code flow: local callback
// server, browser launch, bounded wait for exactly one redirect.
func (m *AuthManager) Authorize(ctx context.Context) (*oauth2.Token, error) {
	state, err := shared.GenerateState()
	if err != nil {
		return nil, err
	}

	authURL := m.config.AuthCodeURL(state)
	handler := server.NewOAuthHandler(m.config, state)
	router := server.NewBasicRouter()
	router.Use(server.RequestLogger(m.logger))
	router.Handler(handler)

	httpServer := &http.Server{Addr: m.addr, Handler: router}
	serverErrors := make(chan error, 1)

	go func() {
		m.logger.Info("starting OAuth callback server", "addr", m.addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrors <- err
		}
	}()

	fmt.Fprintf(m.output, "→ Opening browser for Spotify authorization...\n")
	if err := m.open(authURL); err != nil {
		m.logger.Warn("failed to open browser automatically", "error", err)
		fmt.Fprintf(m.output, "⚠ Could not open browser automatically.\nPlease open this URL in your browser:\n%s\n\n", authURL)
	}

	fmt.Fprintf(m.output, "→ Waiting for authorization (%s timeout)...\n", m.timeout)

	timeout := time.NewTimer(m.timeout)
	defer timeout.Stop()

	var result server.OAuthResult

	select {
	case result = <-handler.Result():
		// Got result from callback
	case err := <-serverErrors:
		return nil, fmt.Errorf("callback server error: %w", err)
	case <-ctx.Done():
		httpServer.Close()
		return nil, ctx.Err()
	case <-timeout.C:
		httpServer.Close()
		return nil, fmt.Errorf("%w: no callback received within %s", shared.ErrAuthTimeout, m.timeout)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		m.logger.Warn("error shutting down callback server", "error", err)
	}

	if result.Error() != nil {
		return nil, result.Error()
	}
	if result.Token == nil {
		return nil, fmt.Errorf("%w: no token received", shared.ErrAuthExchangeFailed)
	}

	if err := m.state.SetToken(result.Token); err != nil {
		return nil, err
	}

	fmt.Fprintf(m.output, "✓ Authorization successful\n")

	return result.Token, nil
}
