// Package tags supplies the workspace tag vocabulary used as completion
// candidates.
//
// The completion core only sees the Vocabulary interface. Index is the
// workspace implementation: a patricia trie of tag counts kept current by
// Scan at startup and by a Watcher afterwards.
package tags

import (
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/tchap/go-patricia/v2/patricia"
)

// Vocabulary returns every known tag, without a leading hash mark.
// Implementations must not block; callers treat the result as a snapshot.
type Vocabulary interface {
	AllTags() []string
}

// Static is a fixed vocabulary.
type Static []string

func (s Static) AllTags() []string {
	out := make([]string, 0, len(s))
	for _, t := range s {
		if t = StripHash(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// StripHash drops everything up to and including the last '#'.
func StripHash(tag string) string {
	if i := strings.LastIndexByte(tag, '#'); i >= 0 {
		return tag[i+1:]
	}
	return tag
}

// Index counts tags per note across the workspace.
type Index struct {
	trie  *patricia.Trie
	notes map[string][]string
	mu    sync.RWMutex
}

// NewIndex creates an empty index.
func NewIndex() *Index {
	return &Index{
		trie:  patricia.NewTrie(),
		notes: make(map[string][]string),
	}
}

// Set replaces the tags recorded for note.
func (idx *Index) Set(note string, tags []string) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	idx.removeLocked(note)

	seen := make(map[string]bool, len(tags))
	kept := make([]string, 0, len(tags))
	for _, t := range tags {
		t = StripHash(t)
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		kept = append(kept, t)

		key := patricia.Prefix(t)
		if item := idx.trie.Get(key); item != nil {
			idx.trie.Set(key, item.(int)+1)
		} else {
			idx.trie.Insert(key, 1)
		}
	}
	if len(kept) > 0 {
		idx.notes[note] = kept
	}
}

// Remove forgets note and every tag only it carried.
func (idx *Index) Remove(note string) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.removeLocked(note)
}

// RemoveUnder forgets every note at dir or below it and returns how many
// were dropped.
func (idx *Index) RemoveUnder(dir string) int {
	dir = filepath.Clean(dir)
	prefix := dir + string(filepath.Separator)

	idx.mu.Lock()
	defer idx.mu.Unlock()
	n := 0
	for note := range idx.notes {
		clean := filepath.Clean(note)
		if clean == dir || strings.HasPrefix(clean, prefix) {
			idx.removeLocked(note)
			n++
		}
	}
	return n
}

func (idx *Index) removeLocked(note string) {
	old, ok := idx.notes[note]
	if !ok {
		return
	}
	for _, t := range old {
		key := patricia.Prefix(t)
		item := idx.trie.Get(key)
		if item == nil {
			continue
		}
		if n := item.(int) - 1; n > 0 {
			idx.trie.Set(key, n)
		} else {
			idx.trie.Delete(key)
		}
	}
	delete(idx.notes, note)
}

// AllTags returns every tag in byte order.
func (idx *Index) AllTags() []string {
	return idx.WithPrefix("")
}

// WithPrefix returns the tags starting with prefix, in byte order.
func (idx *Index) WithPrefix(prefix string) []string {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	var out []string
	collect := func(p patricia.Prefix, _ patricia.Item) error {
		out = append(out, string(p))
		return nil
	}
	var err error
	if prefix == "" {
		err = idx.trie.Visit(collect)
	} else {
		err = idx.trie.VisitSubtree(patricia.Prefix(prefix), collect)
	}
	if err != nil {
		log.Errorf("Error visiting tag trie: %v", err)
	}
	sort.Strings(out)
	return out
}

// Count returns how many notes carry tag.
func (idx *Index) Count(tag string) int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	if item := idx.trie.Get(patricia.Prefix(tag)); item != nil {
		return item.(int)
	}
	return 0
}

// Stats returns sizes for debugging output.
func (idx *Index) Stats() map[string]int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	tags := 0
	_ = idx.trie.Visit(func(patricia.Prefix, patricia.Item) error {
		tags++
		return nil
	})
	return map[string]int{
		"totalTags":    tags,
		"indexedNotes": len(idx.notes),
	}
}
