package server

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/bastiangx/tagserve/pkg/config"
	"github.com/bastiangx/tagserve/pkg/editor"
	"github.com/bastiangx/tagserve/pkg/suggest"
	"github.com/bastiangx/tagserve/pkg/tags"
	"github.com/charmbracelet/log"
	"github.com/vmihailenco/msgpack/v5"
)

// Server handles msgpack IPC for tag completions
type Server struct {
	engine   *suggest.Engine
	store    *config.Store
	maxQuery int

	decoder *msgpack.Decoder
	writer  *bufio.Writer
	mu      sync.Mutex

	requests int
}

// NewServer creates a completion server reading requests from r and writing
// responses to w
func NewServer(engine *suggest.Engine, store *config.Store, r io.Reader, w io.Writer) *Server {
	if store == nil {
		store = config.NewStore(nil, "")
	}
	if engine == nil {
		engine = suggest.NewEngine(nil, store)
	}
	return &Server{
		engine:   engine,
		store:    store,
		maxQuery: store.Snapshot().Server.MaxQuery,
		decoder:  msgpack.NewDecoder(bufio.NewReader(r)),
		writer:   bufio.NewWriter(w),
	}
}

// Start announces readiness and serves requests until the input ends.
func (s *Server) Start() error {
	log.Debug("Starting msgpack server.")
	s.sendResponse(StatusResponse{Status: "ready"})

	for {
		raw, err := s.decoder.DecodeRaw()
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				log.Debug("Input closed, stopping server")
				return nil
			}
			return fmt.Errorf("failed to read request: %w", err)
		}
		s.requests++
		s.handleRequest(raw)
	}
}

// handleRequest dispatches one raw message on its action
func (s *Server) handleRequest(raw msgpack.RawMessage) {
	var env Envelope
	if err := msgpack.Unmarshal(raw, &env); err != nil {
		log.Debugf("Malformed request: %v", err)
		s.sendError("", "Invalid msgpack request", 400)
		return
	}

	switch env.Action {
	case "", ActionComplete:
		var req CompletionRequest
		if s.decode(raw, env.ID, &req) {
			s.handleComplete(req)
		}
	case ActionSelect:
		var req SelectRequest
		if s.decode(raw, env.ID, &req) {
			s.handleSelect(req)
		}
	case ActionSetColor, ActionGetConfig:
		var req ConfigRequest
		if s.decode(raw, env.ID, &req) {
			s.handleConfig(req)
		}
	case ActionTags:
		var req TagsRequest
		if s.decode(raw, env.ID, &req) {
			s.handleTags(req)
		}
	case ActionHealth:
		stats := s.engine.Stats()
		stats["requests"] = s.requests
		s.sendResponse(StatusResponse{ID: env.ID, Status: "ok", Stats: stats})
	default:
		s.sendError(env.ID, fmt.Sprintf("Unknown action: %s", env.Action), 400)
	}
}

func (s *Server) decode(raw msgpack.RawMessage, id string, v any) bool {
	if err := msgpack.Unmarshal(raw, v); err != nil {
		log.Debugf("Request %s has bad fields: %v", id, err)
		s.sendError(id, "Invalid request fields", 400)
		return false
	}
	return true
}

// engineFor returns an engine over the client supplied tags, if any.
func (s *Server) engineFor(clientTags []string) *suggest.Engine {
	if clientTags == nil {
		return s.engine
	}
	return suggest.NewEngine(tags.Static(clientTags), s.store, suggest.WithMaxQuery(s.maxQuery))
}

func validCursor(line, ch int) bool {
	return line >= 0 && ch >= 0
}

// handleComplete runs one trigger evaluation over the request text.
func (s *Server) handleComplete(req CompletionRequest) {
	if !validCursor(req.Line, req.Ch) {
		s.sendError(req.ID, "Cursor position must not be negative", 400)
		return
	}

	start := time.Now()
	engine := s.engineFor(req.Tags)
	buf := editor.NewBuffer(req.Text)
	response := CompletionResponse{
		ID:          req.ID,
		Suggestions: []CompletionSuggestion{},
	}

	if ctx, ok := engine.OnTrigger(editor.Position{Line: req.Line, Ch: req.Ch}, buf); ok {
		suggestions := engine.Suggestions(ctx, s.store.Limit(req.Limit))
		for _, sg := range suggestions {
			response.Suggestions = append(response.Suggestions, CompletionSuggestion{
				Word:    sg.Word,
				Display: sg.Display,
				Rank:    sg.Rank,
			})
		}
		response.Mode = ctx.Mode.String()
		response.Query = ctx.Query
		response.StartLine = ctx.Start.Line
		response.StartCh = ctx.Start.Ch
		response.EndCh = ctx.End.Ch
	}
	response.Count = len(response.Suggestions)
	response.TimeTaken = time.Since(start).Microseconds()

	log.Debug("Completed", "id", req.ID, "query", response.Query, "count", response.Count, "us", response.TimeTaken)
	s.sendResponse(response)
}

func (s *Server) handleSelect(req SelectRequest) {
	if !validCursor(req.Line, req.Ch) {
		s.sendError(req.ID, "Cursor position must not be negative", 400)
		return
	}
	if strings.TrimSpace(req.Word) == "" {
		s.sendError(req.ID, "Missing 'w' parameter", 400)
		return
	}

	engine := s.engineFor(req.Tags)
	buf := editor.NewBuffer(req.Text)
	ctx, ok := engine.OnTrigger(editor.Position{Line: req.Line, Ch: req.Ch}, buf)
	if !ok {
		s.sendError(req.ID, "No tag trigger at cursor", 400)
		return
	}
	edit, err := engine.EditFor(ctx, req.Word)
	if err != nil {
		s.sendError(req.ID, err.Error(), 500)
		return
	}
	buf.ApplyChange(edit.Range, edit.NewText)

	s.sendResponse(SelectResponse{
		ID: req.ID,
		Edit: TextEdit{
			StartLine: edit.Range.Start.Line,
			StartCh:   edit.Range.Start.Ch,
			EndLine:   edit.Range.End.Line,
			EndCh:     edit.Range.End.Ch,
			NewText:   edit.NewText,
		},
		Text: buf.Text(),
	})
}

func (s *Server) handleConfig(req ConfigRequest) {
	status := "ok"
	if req.Action == ActionSetColor {
		if err := s.store.SetMatchColor(req.Color); err != nil {
			if errors.Is(err, config.ErrInvalidColor) {
				s.sendError(req.ID, err.Error(), 400)
				return
			}
			// The colour is in effect; only persisting it failed.
			log.Warnf("Failed to save config: %v", err)
			status = "unsaved"
		}
	}

	cfg := s.store.Snapshot()
	s.sendResponse(ConfigResponse{
		ID:           req.ID,
		Status:       status,
		MatchColor:   cfg.Settings.MatchColor,
		MaxLimit:     cfg.Server.MaxLimit,
		DefaultLimit: cfg.Server.DefaultLimit,
		ConfigPath:   s.store.Path(),
	})
}

func (s *Server) handleTags(req TagsRequest) {
	var list []string
	vocab := s.engine.Vocabulary()
	if p, ok := vocab.(interface{ WithPrefix(string) []string }); ok {
		list = p.WithPrefix(req.Prefix)
	} else {
		for _, t := range vocab.AllTags() {
			if strings.HasPrefix(t, req.Prefix) {
				list = append(list, t)
			}
		}
	}
	if list == nil {
		list = []string{}
	}
	s.sendResponse(TagsResponse{ID: req.ID, Tags: list, Count: len(list)})
}

// sendResponse marshals the response and flushes it to the client.
func (s *Server) sendResponse(response any) {
	data, err := msgpack.Marshal(response)
	if err != nil {
		log.Errorf("Marshaling response: %v", err)
		if _, isErr := response.(CompletionError); !isErr {
			s.sendError("", "Internal server error", 500)
		}
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.writer.Write(data); err != nil {
		log.Errorf("Writing response: %v", err)
		return
	}
	if err := s.writer.Flush(); err != nil {
		log.Errorf("Flushing response: %v", err)
	}
}

// sendError sends an error response
func (s *Server) sendError(id, message string, code int) {
	s.sendResponse(CompletionError{ID: id, Error: message, Code: code})
}
