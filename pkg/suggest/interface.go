// Package suggest is the core, tying trigger detection, the tag vocabulary,
// fuzzy ranking and the completion applier into one suggestion flow.
package suggest

import "github.com/bastiangx/tagserve/pkg/editor"

// Completer defines the interface for tag completion engines
type Completer interface {
	// OnTrigger evaluates the cursor and snapshots the candidates on a hit
	OnTrigger(cursor editor.Position, src editor.TextSource) (*Context, bool)

	// Suggestions ranks the snapshot against the query; limit <= 0 means all
	Suggestions(ctx *Context, limit int) []Suggestion

	// Select writes the chosen suggestion over the trigger span
	Select(ctx *Context, chosen string, m editor.RangeMutator) error

	// Stats returns counters for debugging output
	Stats() map[string]int
}

// Settings is the read side of the persisted settings.
type Settings interface {
	MatchColor() string
}
