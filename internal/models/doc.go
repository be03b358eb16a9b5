// Package models defines the data model shared across the playlist generator.
//
// All types are plain structs decoupled from the Spotify wire format; the
// services package translates API responses into these before they reach the
// aggregation and output layers.
package models
