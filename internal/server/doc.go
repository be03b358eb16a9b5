// Package server provides the HTTP routing and OAuth callback handling used
// during the authorization-code flow.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
//
// The [BasicRouter] implementation uses [http.ServeMux] internally with method filtering.
//
// # OAuth Callback Handler
//
// [OAuthHandler] implements the OAuth2 authorization code callback. The
// handler validates the state parameter (CSRF protection), exchanges the
// authorization code for tokens, and sends the result through a channel. It
// only processes one callback to prevent replay attacks.
//
// The server exists only for the duration of a single authorization: the auth
// manager starts it on the configured localhost address, waits for exactly one
// callback or a timeout, and shuts it down.
package server
