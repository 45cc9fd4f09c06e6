package lsp

import (
	"encoding/json"
	"fmt"

	"github.com/bastiangx/tagserve/pkg/complete"
	"github.com/bastiangx/tagserve/pkg/editor"
	"github.com/bastiangx/tagserve/pkg/tags"
	"github.com/charmbracelet/log"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

func (s *Server) initialize(
	context *glsp.Context,
	params *protocol.InitializeParams,
) (any, error) {
	if params.InitializationOptions != nil {
		s.applySettings(params.InitializationOptions)
	}

	root := s.opts.Root
	if params.RootURI != nil {
		if p := uriToPath(string(*params.RootURI)); p != "" {
			root = p
		}
	} else if params.RootPath != nil && *params.RootPath != "" {
		root = *params.RootPath
	}
	if root != "" {
		s.openVault(root)
	}

	capabilities := s.handler.CreateServerCapabilities()
	syncKind := protocol.TextDocumentSyncKindIncremental
	capabilities.TextDocumentSync = &protocol.TextDocumentSyncOptions{
		OpenClose: &protocol.True,
		Change:    &syncKind,
		Save:      true,
	}
	capabilities.CompletionProvider = &protocol.CompletionOptions{}

	version := s.opts.Version
	return protocol.InitializeResult{
		Capabilities: capabilities,
		ServerInfo: &protocol.InitializeResultServerInfo{
			Name:    lsName,
			Version: &version,
		},
	}, nil
}

func (s *Server) initialized(
	context *glsp.Context,
	params *protocol.InitializedParams,
) error {
	log.Debug("Client initialized", "root", s.root)
	return nil
}

func (s *Server) shutdown(context *glsp.Context) error {
	log.Debug("Shutdown")
	s.stopWatcher()
	protocol.SetTraceValue(protocol.TraceValueOff)
	return nil
}

func (s *Server) setTrace(context *glsp.Context, params *protocol.SetTraceParams) error {
	protocol.SetTraceValue(params.Value)
	return nil
}

func (s *Server) textDocumentDidOpen(
	context *glsp.Context,
	params *protocol.DidOpenTextDocumentParams,
) error {
	uri := string(params.TextDocument.URI)
	log.Debugf("DidOpen: %s", uri)

	s.mu.Lock()
	s.docs[uri] = editor.NewBuffer(params.TextDocument.Text)
	s.mu.Unlock()
	return nil
}

func (s *Server) textDocumentDidChange(
	context *glsp.Context,
	params *protocol.DidChangeTextDocumentParams,
) error {
	uri := string(params.TextDocument.URI)
	doc, ok := s.document(uri)
	if !ok {
		return fmt.Errorf("document not open: %s", uri)
	}

	for _, change := range params.ContentChanges {
		switch c := change.(type) {
		case protocol.TextDocumentContentChangeEventWhole:
			doc.SetText(c.Text)
		case protocol.TextDocumentContentChangeEvent:
			if c.Range == nil {
				doc.SetText(c.Text)
				continue
			}
			doc.ApplyChange(toEditorRange(doc, *c.Range), c.Text)
		default:
			return fmt.Errorf("unsupported change type %T", change)
		}
	}
	return nil
}

func (s *Server) textDocumentDidSave(
	context *glsp.Context,
	params *protocol.DidSaveTextDocumentParams,
) error {
	// The watcher already re-indexes saved notes.
	if s.watcher != nil {
		return nil
	}
	path := uriToPath(string(params.TextDocument.URI))
	if path == "" || !tags.MatchExtension(path, s.opts.Extensions) {
		return nil
	}
	if err := tags.IndexFile(s.index, path); err != nil {
		log.Warnf("Re-index of %s failed: %v", path, err)
	}
	return nil
}

func (s *Server) textDocumentDidClose(
	context *glsp.Context,
	params *protocol.DidCloseTextDocumentParams,
) error {
	uri := string(params.TextDocument.URI)
	s.mu.Lock()
	delete(s.docs, uri)
	s.mu.Unlock()
	log.Debugf("Closed %s", uri)
	return nil
}

// textDocumentCompletion returns the ranked tags for the word under the
// cursor. Each item carries the query as its filter text so clients keep
// the fuzzy matches instead of re-filtering them by prefix.
func (s *Server) textDocumentCompletion(
	context *glsp.Context,
	params *protocol.CompletionParams,
) (any, error) {
	list := &protocol.CompletionList{
		IsIncomplete: true,
		Items:        []protocol.CompletionItem{},
	}
	doc, ok := s.document(string(params.TextDocument.URI))
	if !ok {
		return list, nil
	}

	ctx, ok := s.engine.OnTrigger(toEditorPosition(doc, params.Position), doc)
	if !ok {
		return list, nil
	}
	span := toProtocolRange(doc, editor.Range{Start: ctx.Start, End: ctx.End})
	kind := protocol.CompletionItemKindValue
	format := protocol.InsertTextFormatPlainText

	for _, sg := range s.engine.Suggestions(ctx, s.store.Limit(0)) {
		detail := "#" + sg.Word
		filter := ctx.Query
		sortText := fmt.Sprintf("%05d", sg.Rank)
		list.Items = append(list.Items, protocol.CompletionItem{
			Label:            sg.Word,
			Kind:             &kind,
			Detail:           &detail,
			FilterText:       &filter,
			SortText:         &sortText,
			InsertTextFormat: &format,
			TextEdit: protocol.TextEdit{
				Range:   span,
				NewText: complete.Apply(sg.Word, ctx.Mode),
			},
			Documentation: protocol.MarkupContent{
				Kind:  protocol.MarkupKindMarkdown,
				Value: sg.Display,
			},
		})
	}
	return list, nil
}

func (s *Server) workspaceDidChangeConfiguration(
	context *glsp.Context,
	params *protocol.DidChangeConfigurationParams,
) error {
	s.applySettings(params.Settings)
	return nil
}

type matchSettings struct {
	MatchColor string `json:"matchColor"`
}

// clientSettings accepts both {"matchColor": ...} and
// {"tagserve": {"matchColor": ...}}.
type clientSettings struct {
	matchSettings
	TagServe *matchSettings `json:"tagserve"`
}

func (s *Server) applySettings(raw any) {
	data, err := json.Marshal(raw)
	if err != nil {
		log.Warnf("Unreadable client settings: %v", err)
		return
	}
	var settings clientSettings
	if err := json.Unmarshal(data, &settings); err != nil {
		log.Debugf("Ignoring client settings: %v", err)
		return
	}

	color := settings.MatchColor
	if settings.TagServe != nil && settings.TagServe.MatchColor != "" {
		color = settings.TagServe.MatchColor
	}
	if color == "" || color == s.store.MatchColor() {
		return
	}
	if err := s.store.SetMatchColor(color); err != nil {
		log.Warnf("Rejected match color from client: %v", err)
	}
}
