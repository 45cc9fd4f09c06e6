// Package cli handles cmd line input and suggestions for DBG and testing various features
package cli

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/bastiangx/tagserve/internal/logger"
	"github.com/bastiangx/tagserve/pkg/config"
	"github.com/bastiangx/tagserve/pkg/editor"
	"github.com/bastiangx/tagserve/pkg/suggest"
	"github.com/charmbracelet/log"
)

// InputHandler builds a note line by line from stdin and shows the tag
// suggestions at the end of every line, as an editor would with the cursor
// there. Lines starting with ':' are commands.
type InputHandler struct {
	engine       *suggest.Engine
	store        *config.Store
	suggestLimit int

	doc    *editor.Buffer
	lines  int
	ctx    *suggest.Context
	last   []suggest.Suggestion
	resume bool
	in     io.Reader
	out    io.Writer
	log    *log.Logger
}

// NewInputHandler handles initialization of the InputHandler with basic parameters
func NewInputHandler(engine *suggest.Engine, store *config.Store, limit int, in io.Reader, out io.Writer) *InputHandler {
	if store == nil {
		store = config.NewStore(nil, "")
	}
	return &InputHandler{
		engine:       engine,
		store:        store,
		suggestLimit: limit,
		doc:          editor.NewBuffer(""),
		in:           in,
		out:          out,
		log:          logger.NewTo(out, "cli"),
	}
}

// Start begins the interface loop.
// It returns nil once the input is exhausted.
func (h *InputHandler) Start() error {
	fmt.Fprintln(h.out, "TagServe CLI [BETA]")
	fmt.Fprintln(h.out, "type note lines, commands: :sel N, :show, :reset, :color C, :tags, :stats, :help")
	reader := bufio.NewReader(h.in)

	for {
		fmt.Fprint(h.out, "> ")
		line, err := reader.ReadString('\n')
		line = strings.TrimRight(line, "\r\n")
		if line != "" {
			h.handleInput(line)
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
	}
}

func (h *InputHandler) handleInput(line string) {
	if strings.HasPrefix(line, ":") {
		h.handleCommand(strings.Fields(line[1:]))
		return
	}
	h.write(line)
	h.suggest()
}

// write appends line to the note. After a selection the insertion point
// sits at the end of the last line, so the next input continues it.
func (h *InputHandler) write(line string) {
	switch {
	case h.resume:
		h.doc.SetText(h.doc.Text() + line)
	case h.lines == 0:
		h.doc.SetText(line)
	default:
		h.doc.SetText(h.doc.Text() + "\n" + line)
	}
	h.resume = false
	h.lines = h.doc.LineCount()
}

func (h *InputHandler) suggest() {
	h.ctx, h.last = nil, nil
	start := time.Now()

	ctx, ok := h.engine.OnTrigger(h.doc.End(), h.doc)
	if !ok {
		h.log.Debug("No trigger", "line", h.doc.End().Line)
		return
	}
	suggestions := h.engine.Suggestions(ctx, h.store.Limit(h.suggestLimit))
	h.log.Debugf("Took [ %v ] for query '%s'", time.Since(start), ctx.Query)

	if len(suggestions) == 0 {
		h.log.Warnf("No tags match '%s'", ctx.Query)
		return
	}
	h.ctx, h.last = ctx, suggestions
	h.printSuggestions(ctx, suggestions)
}

func (h *InputHandler) handleCommand(args []string) {
	if len(args) == 0 {
		return
	}
	switch args[0] {
	case "sel", "s":
		h.selectSuggestion(args[1:])
	case "show":
		h.printDocument(h.doc)
	case "reset":
		h.doc.SetText("")
		h.lines, h.resume = 0, false
		h.ctx, h.last = nil, nil
		fmt.Fprintln(h.out, "note cleared")
	case "color":
		if len(args) < 2 {
			fmt.Fprintf(h.out, "match color: %s\n", h.store.MatchColor())
			return
		}
		if err := h.store.SetMatchColor(args[1]); err != nil {
			h.log.Errorf("color: %v", err)
			return
		}
		fmt.Fprintf(h.out, "match color set to %s\n", h.store.MatchColor())
	case "tags":
		h.printTags(h.engine.Vocabulary().AllTags())
	case "stats":
		h.printStats(h.engine.Stats())
	case "help", "h":
		h.printHelp()
	default:
		h.log.Errorf("unknown command: %s", args[0])
	}
}

func (h *InputHandler) selectSuggestion(args []string) {
	if h.ctx == nil || len(h.last) == 0 {
		h.log.Error("nothing to select")
		return
	}
	n := 1
	if len(args) > 0 {
		v, err := strconv.Atoi(args[0])
		if err != nil || v < 1 || v > len(h.last) {
			h.log.Errorf("pick a number between 1 and %d", len(h.last))
			return
		}
		n = v
	}

	chosen := h.last[n-1].Word
	if err := h.engine.Select(h.ctx, chosen, h.doc); err != nil {
		h.log.Errorf("select: %v", err)
		return
	}
	h.ctx, h.last = nil, nil
	h.lines = h.doc.LineCount()
	h.resume = true
	fmt.Fprintf(h.out, "inserted #%s\n", chosen)
	h.printDocument(h.doc)
}
