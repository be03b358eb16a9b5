// Package tasks implements the track aggregation pipeline.
//
// [Aggregator] resolves artist names to IDs (remembering disambiguation
// choices through the state store), collects every track where the artist is
// the primary credit, and enriches tracks with popularity details when the
// requested sort needs them. [MergeAndSort] produces the final deterministic
// ordering.
//
// Interactive disambiguation goes through the [Selector] interface so the
// resolution logic stays testable without a terminal; internal/ui provides the
// real implementation.
package tasks
