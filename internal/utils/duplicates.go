package utils

import (
	"strings"
)

// DedupFilter drops repeated words, comparing them case-insensitively
type DedupFilter struct {
	seenWords map[string]bool
}

// NewDedupFilter creates a filter that has seen nothing yet.
// Any words passed in are treated as already seen.
func NewDedupFilter(exclude ...string) *DedupFilter {
	seenWords := make(map[string]bool, len(exclude))
	for _, w := range exclude {
		seenWords[strings.ToLower(w)] = true
	}
	return &DedupFilter{seenWords: seenWords}
}

// ShouldInclude checks if a word should be included in results (not a duplicate)
// Returns true the first time a spelling is seen, false afterwards
func (f *DedupFilter) ShouldInclude(word string) bool {
	lowerWord := strings.ToLower(word)
	if f.seenWords[lowerWord] {
		return false
	}
	f.seenWords[lowerWord] = true
	return true
}
