// Package lsp serves frontmatter tag completion over the Language Server
// Protocol.
package lsp

import (
	"context"
	"sync"

	"github.com/bastiangx/tagserve/pkg/config"
	"github.com/bastiangx/tagserve/pkg/editor"
	"github.com/bastiangx/tagserve/pkg/suggest"
	"github.com/bastiangx/tagserve/pkg/tags"
	"github.com/charmbracelet/log"
	protocol "github.com/tliron/glsp/protocol_3_16"
	"github.com/tliron/glsp/server"
)

const lsName = "tagserve"

// Options configures the language server.
type Options struct {
	Version string
	// Root is the vault used when the client sends no workspace root.
	Root       string
	Extensions []string
	Watch      bool
	Debug      bool
	Store      *config.Store
	// Index is shared with the caller; a fresh one is made when nil.
	Index *tags.Index
}

type Server struct {
	handler *protocol.Handler
	opts    Options
	store   *config.Store
	index   *tags.Index
	engine  *suggest.Engine

	docs map[string]*editor.Buffer
	mu   sync.RWMutex

	root    string
	watcher *tags.Watcher
	cancel  context.CancelFunc
}

// NewServer creates a glsp server ready for RunStdio.
func NewServer(opts Options) (*server.Server, error) {
	ls := newServer(opts)
	return server.NewServer(ls.handler, lsName, opts.Debug), nil
}

func newServer(opts Options) *Server {
	if opts.Store == nil {
		opts.Store = config.NewStore(nil, "")
	}
	if opts.Index == nil {
		opts.Index = tags.NewIndex()
	}
	if len(opts.Extensions) == 0 {
		opts.Extensions = tags.DefaultExtensions
	}
	ls := &Server{
		opts:  opts,
		store: opts.Store,
		index: opts.Index,
		docs:  make(map[string]*editor.Buffer),
	}
	ls.engine = suggest.NewEngine(ls.index, ls.store,
		suggest.WithMaxQuery(ls.store.Snapshot().Server.MaxQuery))

	ls.handler = &protocol.Handler{
		Initialize:                      ls.initialize,
		Initialized:                     ls.initialized,
		Shutdown:                        ls.shutdown,
		SetTrace:                        ls.setTrace,
		TextDocumentDidOpen:             ls.textDocumentDidOpen,
		TextDocumentDidChange:           ls.textDocumentDidChange,
		TextDocumentDidSave:             ls.textDocumentDidSave,
		TextDocumentDidClose:            ls.textDocumentDidClose,
		TextDocumentCompletion:          ls.textDocumentCompletion,
		WorkspaceDidChangeConfiguration: ls.workspaceDidChangeConfiguration,
	}
	return ls
}

func (s *Server) document(uri string) (*editor.Buffer, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.docs[uri]
	return doc, ok
}

// openVault indexes root and, if enabled, keeps the index current.
func (s *Server) openVault(root string) {
	s.stopWatcher()
	s.root = root

	n, err := tags.Scan(root, s.opts.Extensions, s.index)
	if err != nil {
		log.Warnf("Vault scan incomplete: %v", err)
	}
	log.Debugf("Indexed %d notes under %s", n, root)

	if !s.opts.Watch {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	w := tags.NewWatcher(root, s.opts.Extensions, s.index)
	if err := w.Start(ctx); err != nil {
		cancel()
		log.Warnf("Not watching %s: %v", root, err)
		return
	}
	s.watcher = w
	s.cancel = cancel
}

func (s *Server) stopWatcher() {
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	if s.watcher != nil {
		s.watcher.Stop()
		s.watcher = nil
	}
}
