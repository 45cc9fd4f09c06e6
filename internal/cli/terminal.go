package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/bastiangx/tagserve/pkg/editor"
	"github.com/bastiangx/tagserve/pkg/fuzzy"
	"github.com/bastiangx/tagserve/pkg/suggest"
	"github.com/charmbracelet/lipgloss"
)

var (
	dimStyle  = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#9893a5", Dark: "#6e6a86"})
	modeStyle = lipgloss.NewStyle().Italic(true).
			Foreground(lipgloss.AdaptiveColor{Light: "#575279", Dark: "#e0def4"})
)

// matchStyle renders matched runs in the configured match colour.
func (h *InputHandler) matchStyle() lipgloss.Style {
	return lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(h.store.MatchColor()))
}

func (h *InputHandler) printSuggestions(ctx *suggest.Context, suggestions []suggest.Suggestion) {
	style := h.matchStyle()
	fmt.Fprintf(h.out, "%d tags for '%s' %s\n", len(suggestions), ctx.Query, modeStyle.Render("("+ctx.Mode.String()+")"))
	for _, s := range suggestions {
		word := fuzzy.WrapRuns(s.Word, s.MatchedIndexes, func(run string) string {
			return style.Render(run)
		})
		fmt.Fprintf(h.out, "%2d. #%s %s\n", s.Rank, word, dimStyle.Render(fmt.Sprintf("score %d", s.Score)))
	}
}

func (h *InputHandler) printDocument(doc *editor.Buffer) {
	fmt.Fprintln(h.out, dimStyle.Render("----- note -----"))
	for i := 0; i < doc.LineCount(); i++ {
		fmt.Fprintf(h.out, "%s %s\n", dimStyle.Render(fmt.Sprintf("%3d", i+1)), doc.Line(i))
	}
	fmt.Fprintln(h.out, dimStyle.Render("----------------"))
}

func (h *InputHandler) printTags(all []string) {
	if len(all) == 0 {
		fmt.Fprintln(h.out, "no tags indexed")
		return
	}
	fmt.Fprintf(h.out, "%d tags: #%s\n", len(all), strings.Join(all, " #"))
}

func (h *InputHandler) printStats(stats map[string]int) {
	keys := make([]string, 0, len(stats))
	for k := range stats {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(h.out, "%-12s %d\n", k, stats[k])
	}
}

func (h *InputHandler) printHelp() {
	fmt.Fprintln(h.out, `  :sel N     insert suggestion N (default 1)
  :show      print the note
  :reset     clear the note
  :color C   set the match color
  :tags      list indexed tags
  :stats     engine counters`)
}
