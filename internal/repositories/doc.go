// Package repositories provides the local persistence layer.
//
// [StateStore] owns the single JSON state file that remembers artist
// disambiguation choices and OAuth token material between runs. It is loaded
// once at startup and rewritten after each mutation; no other component
// touches the file.
//
// [TrackCache] is a SQLite-backed memo of per-track details (popularity in
// particular), so popularity-sorted runs don't refetch every track on every
// invocation. The cache is strictly an optimization: a missing or unopenable
// database degrades to uncached operation.
package repositories
