package shared

import "fmt"

var (
	// Configuration errors
	ErrMissingConfig      = fmt.Errorf("configuration not found")
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrMissingCredentials = fmt.Errorf("missing credentials")

	// Authentication errors
	ErrAuthDenied         = fmt.Errorf("authorization denied")
	ErrAuthTimeout        = fmt.Errorf("authorization timed out")
	ErrAuthExchangeFailed = fmt.Errorf("token exchange failed")
	ErrNotAuthenticated   = fmt.Errorf("not authenticated")
	ErrNoRefreshToken     = fmt.Errorf("no refresh token available")

	// API and service errors
	ErrAPIRequest     = fmt.Errorf("API request failed")
	ErrRateLimited    = fmt.Errorf("rate limit retries exceeded")
	ErrArtistNotFound = fmt.Errorf("artist not found")

	// Input validation errors
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidFlag     = fmt.Errorf("invalid flag value")
	ErrSelectionQuit   = fmt.Errorf("artist selection cancelled")
)
