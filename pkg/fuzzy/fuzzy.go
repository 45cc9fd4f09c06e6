/*
Package fuzzy ranks tag candidates against a partially typed query and
renders the matched runes with emphasis markup.

A candidate matches when every rune of the lowercased query appears in it,
in order. Candidates holding the query as one contiguous run always sort
above candidates where the same runes are scattered; inside each group the
score decides, and ties keep the caller's order.

	r := fuzzy.NewRanker(fuzzy.NewHTMLMarkup("#ff0000"))
	matches := r.Rank("wo", []string{"work", "worship", "home"})
	// work, worship
*/
package fuzzy

import (
	"sort"
	"unicode"

	"github.com/bastiangx/tagserve/internal/utils"
)

// Constants for scoring
const (
	firstCharMatchBonus            = 15
	adjacentMatchBonus             = 10
	maxAdjacentMatchBonus          = 1000
	separatorMatchBonus            = 12
	camelCaseMatchBonus            = 12
	gapPenalty                     = -1
	unmatchedLeadingCharPenalty    = -3
	maxUnmatchedLeadingCharPenalty = -9
)

// Match is one scored candidate.
type Match struct {
	Candidate string
	Score     int
	// Contiguous is set when the query appears as one unbroken run.
	Contiguous bool
	// MatchedIndexes holds rune positions in Candidate.
	MatchedIndexes []int
	// Display is Candidate with the matched runes highlighted.
	Display string
}

// Ranker scores and orders candidates.
type Ranker struct {
	highlighter Highlighter
}

// NewRanker creates a ranker rendering matches with h. A nil h leaves
// Display equal to the candidate.
func NewRanker(h Highlighter) *Ranker {
	if h == nil {
		h = Plain{}
	}
	return &Ranker{highlighter: h}
}

// Rank returns the matching candidates, best first.
// An empty query returns every candidate in its original order.
func (r *Ranker) Rank(query string, candidates []string) []Match {
	matches := make([]Match, 0, len(candidates))

	if query == "" {
		for _, c := range candidates {
			matches = append(matches, Match{Candidate: c, Display: c})
		}
		return matches
	}

	for _, c := range candidates {
		m, ok := Score(query, c)
		if !ok {
			continue
		}
		m.Display = r.highlighter.Highlight(c, m.MatchedIndexes)
		matches = append(matches, m)
	}

	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].Contiguous != matches[j].Contiguous {
			return matches[i].Contiguous
		}
		return matches[i].Score > matches[j].Score
	})
	return matches
}

// Score matches query against a single candidate.
func Score(query, candidate string) (Match, bool) {
	pattern := lowerRunes(query)
	runes := []rune(candidate)
	if len(pattern) == 0 {
		return Match{Candidate: candidate, Display: candidate}, true
	}
	if len(pattern) > len(runes) {
		return Match{}, false
	}
	lower := lowerRunes(candidate)

	if idx, score, ok := bestContiguous(pattern, lower, runes); ok {
		return Match{
			Candidate:      candidate,
			Score:          score,
			Contiguous:     true,
			MatchedIndexes: idx,
		}, true
	}

	idx, ok := subsequence(pattern, lower)
	if !ok {
		return Match{}, false
	}
	return Match{
		Candidate:      candidate,
		Score:          scoreIndexes(runes, idx),
		MatchedIndexes: idx,
	}, true
}

// bestContiguous scores every occurrence of pattern as a run and keeps the best.
func bestContiguous(pattern, lower, runes []rune) ([]int, int, bool) {
	var best []int
	bestScore := 0
	for start := 0; start+len(pattern) <= len(lower); start++ {
		if !runesEqual(lower[start:start+len(pattern)], pattern) {
			continue
		}
		idx := make([]int, len(pattern))
		for i := range idx {
			idx[i] = start + i
		}
		score := scoreIndexes(runes, idx)
		if best == nil || score > bestScore {
			best, bestScore = idx, score
		}
	}
	return best, bestScore, best != nil
}

// subsequence takes the leftmost position for each pattern rune.
func subsequence(pattern, lower []rune) ([]int, bool) {
	idx := make([]int, 0, len(pattern))
	p := 0
	for i := 0; i < len(lower) && p < len(pattern); i++ {
		if lower[i] == pattern[p] {
			idx = append(idx, i)
			p++
		}
	}
	return idx, p == len(pattern)
}

// scoreIndexes rewards starts, word boundaries and runs, and penalises a
// late first match, gaps and unmatched length.
func scoreIndexes(runes []rune, idx []int) int {
	score := 0
	currAdjacentMatchBonus := 0

	for k, i := range idx {
		if i == 0 {
			score += firstCharMatchBonus
		}
		if i > 0 {
			prev := runes[i-1]
			if utils.IsSeparator(prev) {
				score += separatorMatchBonus
			}
			if unicode.IsLower(prev) && unicode.IsUpper(runes[i]) {
				score += camelCaseMatchBonus
			}
		}
		if k > 0 {
			if idx[k-1] == i-1 {
				currAdjacentMatchBonus = min(currAdjacentMatchBonus*2+adjacentMatchBonus, maxAdjacentMatchBonus)
				score += currAdjacentMatchBonus
			} else {
				currAdjacentMatchBonus = 0
				score += (i - idx[k-1] - 1) * gapPenalty
			}
		}
	}

	score += max(idx[0]*unmatchedLeadingCharPenalty, maxUnmatchedLeadingCharPenalty)
	score += len(idx) - len(runes)
	return score
}

func lowerRunes(s string) []rune {
	runes := []rune(s)
	for i, r := range runes {
		runes[i] = unicode.ToLower(r)
	}
	return runes
}

func runesEqual(a, b []rune) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
