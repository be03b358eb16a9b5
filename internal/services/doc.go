// Package services implements the Spotify Web API client and the OAuth token flows.
//
// # Service Interface
//
// The [Service] interface covers every API operation the generator needs:
// artist search and lookup, album and track enumeration, and the
// playlist-creation write path. [SpotifyService] is the production
// implementation; tests substitute doubles from internal/testing.
//
// # Tokens
//
// Metadata reads use a client-credentials token fetched on demand. Playlist
// writes require a user token obtained by [AuthManager] through the OAuth
// authorization-code flow, persisted to the local state file and refreshed
// transparently when expired. Dry runs never touch the user flow.
//
// # Retry
//
// Every request passes through a bounded [RetryPolicy]: 429 responses wait for
// the server-provided Retry-After duration and retry, transport errors retry
// after a fixed wait, and both give up after the configured maximum. A 401
// triggers exactly one token refresh before the request is retried.
package services
