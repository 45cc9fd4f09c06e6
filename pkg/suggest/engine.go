package suggest

import (
	"sync/atomic"
	"unicode/utf8"

	"github.com/bastiangx/tagserve/internal/utils"
	"github.com/bastiangx/tagserve/pkg/complete"
	"github.com/bastiangx/tagserve/pkg/config"
	"github.com/bastiangx/tagserve/pkg/editor"
	"github.com/bastiangx/tagserve/pkg/fuzzy"
	"github.com/bastiangx/tagserve/pkg/tags"
	"github.com/bastiangx/tagserve/pkg/trigger"
	"github.com/charmbracelet/log"
)

// Suggestion is one ranked tag.
type Suggestion struct {
	Word           string
	Display        string
	Rank           uint16
	Score          int
	MatchedIndexes []int
}

// Context is a trigger plus the vocabulary snapshot it was taken with.
// It is invalid once the document changes.
type Context struct {
	*trigger.Context
	candidates []string
}

// Candidates returns the vocabulary snapshot.
func (c *Context) Candidates() []string {
	return c.candidates
}

var _ Completer = (*Engine)(nil)

// Engine is the default Completer.
type Engine struct {
	vocab    tags.Vocabulary
	settings Settings
	maxQuery int

	triggers   atomic.Int64
	misses     atomic.Int64
	selections atomic.Int64
}

// Option configures an Engine.
type Option func(*Engine)

// WithMaxQuery suppresses triggers whose query is longer than n runes.
func WithMaxQuery(n int) Option {
	return func(e *Engine) { e.maxQuery = n }
}

type defaultSettings struct{}

func (defaultSettings) MatchColor() string { return config.DefaultMatchColor }

// NewEngine creates an engine over vocab. A nil settings uses the default
// match colour.
func NewEngine(vocab tags.Vocabulary, settings Settings, opts ...Option) *Engine {
	if vocab == nil {
		vocab = tags.Static(nil)
	}
	if settings == nil {
		settings = defaultSettings{}
	}
	e := &Engine{vocab: vocab, settings: settings}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) OnTrigger(cursor editor.Position, src editor.TextSource) (*Context, bool) {
	tc, ok := trigger.Evaluate(cursor, src)
	if !ok {
		e.misses.Add(1)
		return nil, false
	}
	if e.maxQuery > 0 && utf8.RuneCountInString(tc.Query) > e.maxQuery {
		log.Debugf("Query too long (%d runes), skipping", utf8.RuneCountInString(tc.Query))
		e.misses.Add(1)
		return nil, false
	}
	e.triggers.Add(1)
	log.Debug("Trigger", "mode", tc.Mode, "query", tc.Query, "line", cursor.Line)
	return &Context{Context: tc, candidates: e.vocab.AllTags()}, true
}

func (e *Engine) Suggestions(ctx *Context, limit int) []Suggestion {
	if ctx == nil || ctx.Context == nil {
		return nil
	}
	ranker := fuzzy.NewRanker(fuzzy.NewHTMLMarkup(e.settings.MatchColor()))
	matches := ranker.Rank(ctx.Query, ctx.candidates)
	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}

	ranks := utils.CreateRankList(len(matches))
	out := make([]Suggestion, len(matches))
	for i, m := range matches {
		out[i] = Suggestion{
			Word:           m.Candidate,
			Display:        m.Display,
			Rank:           ranks[i],
			Score:          m.Score,
			MatchedIndexes: m.MatchedIndexes,
		}
	}
	return out
}

func (e *Engine) Select(ctx *Context, chosen string, m editor.RangeMutator) error {
	if ctx == nil {
		return complete.ErrNoContext
	}
	if err := complete.Replace(ctx.Context, chosen, m); err != nil {
		return err
	}
	e.selections.Add(1)
	return nil
}

// EditFor returns the edit Select would perform, for transports that hand
// edits back to a client instead of mutating a buffer.
func (e *Engine) EditFor(ctx *Context, chosen string) (complete.Edit, error) {
	if ctx == nil {
		return complete.Edit{}, complete.ErrNoContext
	}
	edit, err := complete.EditFor(ctx.Context, chosen)
	if err == nil {
		e.selections.Add(1)
	}
	return edit, err
}

// Vocabulary returns the tag source the engine snapshots from.
func (e *Engine) Vocabulary() tags.Vocabulary {
	return e.vocab
}

func (e *Engine) Stats() map[string]int {
	stats := map[string]int{
		"triggers":   int(e.triggers.Load()),
		"misses":     int(e.misses.Load()),
		"selections": int(e.selections.Load()),
	}
	if s, ok := e.vocab.(interface{ Stats() map[string]int }); ok {
		for k, v := range s.Stats() {
			stats[k] = v
		}
	} else {
		stats["totalTags"] = len(e.vocab.AllTags())
	}
	return stats
}
