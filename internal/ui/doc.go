// Package ui implements the interactive artist disambiguation picker.
//
// [Picker] satisfies the aggregator's Selector interface with a bubbletea
// list: when a search returns several candidate artists, the user picks one
// (or cancels), and the hosting command persists the choice. The picker is
// the only place the generator reads the terminal.
package ui
