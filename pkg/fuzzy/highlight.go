package fuzzy

import (
	"fmt"
	"strings"
)

// Highlighter renders a candidate with its matched rune positions emphasised.
type Highlighter interface {
	Highlight(candidate string, matched []int) string
}

// Plain leaves candidates untouched.
type Plain struct{}

func (Plain) Highlight(candidate string, _ []int) string { return candidate }

// Markup wraps each run of matched runes in Open and Close.
type Markup struct {
	Open  string
	Close string
}

// NewHTMLMarkup emphasises matches with a coloured bold span.
func NewHTMLMarkup(color string) Markup {
	return Markup{
		Open:  fmt.Sprintf(`<span style="color: %s"><b>`, color),
		Close: "</b></span>",
	}
}

func (m Markup) Highlight(candidate string, matched []int) string {
	return WrapRuns(candidate, matched, func(run string) string {
		return m.Open + run + m.Close
	})
}

// WrapRuns calls wrap on every maximal run of matched runes and joins the
// result with the unmatched runes in their original order.
func WrapRuns(candidate string, matched []int, wrap func(string) string) string {
	if len(matched) == 0 {
		return candidate
	}
	hit := make(map[int]bool, len(matched))
	for _, i := range matched {
		hit[i] = true
	}

	runes := []rune(candidate)
	var sb strings.Builder
	for i := 0; i < len(runes); {
		if !hit[i] {
			sb.WriteRune(runes[i])
			i++
			continue
		}
		j := i
		for j < len(runes) && hit[j] {
			j++
		}
		sb.WriteString(wrap(string(runes[i:j])))
		i = j
	}
	return sb.String()
}
