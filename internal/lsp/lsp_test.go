package lsp

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/bastiangx/tagserve/pkg/config"
	"github.com/bastiangx/tagserve/pkg/editor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

func TestRuneColumn(t *testing.T) {
	line := "tags: 🎉 wo"
	testCases := []struct {
		character protocol.UInteger
		expected  int
	}{
		{0, 0},
		{6, 6},
		{7, 6}, // inside the surrogate pair
		{8, 7},
		{11, 10},
		{99, 10},
	}
	for _, tc := range testCases {
		if got := runeColumn(line, tc.character); got != tc.expected {
			t.Errorf("runeColumn(%d) = %d, want %d", tc.character, got, tc.expected)
		}
	}

	assert.Equal(t, protocol.UInteger(9), utf16Column(line, 8))
	assert.Equal(t, protocol.UInteger(11), utf16Column(line, 10))
	assert.Equal(t, protocol.UInteger(11), utf16Column(line, 50))
}

func TestURIToPath(t *testing.T) {
	assert.Equal(t, filepath.FromSlash("/home/u/vault"), uriToPath("file:///home/u/vault"))
	assert.Equal(t, filepath.FromSlash("/a b/c.md"), uriToPath("file:///a%20b/c.md"))
	assert.Equal(t, "", uriToPath("untitled:Untitled-1"))
	assert.Equal(t, "", uriToPath(""))
}

func newVault(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	note := "---\ntags: [work, worship]\n---\n#home"
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.md"), []byte(note), 0644))
	return root
}

func startServer(t *testing.T, root string) *Server {
	t.Helper()
	ls := newServer(Options{Version: "test"})
	uri := "file://" + filepath.ToSlash(root)
	result, err := ls.initialize(nil, &protocol.InitializeParams{RootURI: &uri})
	require.NoError(t, err)
	res, ok := result.(protocol.InitializeResult)
	require.True(t, ok)
	assert.NotNil(t, res.Capabilities.CompletionProvider)
	assert.Equal(t, "tagserve", res.ServerInfo.Name)
	return ls
}

func open(t *testing.T, ls *Server, uri, text string) {
	t.Helper()
	require.NoError(t, ls.textDocumentDidOpen(nil, &protocol.DidOpenTextDocumentParams{
		TextDocument: protocol.TextDocumentItem{URI: uri, LanguageID: "markdown", Text: text},
	}))
}

func completionAt(t *testing.T, ls *Server, uri string, line, character protocol.UInteger) *protocol.CompletionList {
	t.Helper()
	result, err := ls.textDocumentCompletion(nil, &protocol.CompletionParams{
		TextDocumentPositionParams: protocol.TextDocumentPositionParams{
			TextDocument: protocol.TextDocumentIdentifier{URI: uri},
			Position:     protocol.Position{Line: line, Character: character},
		},
	})
	require.NoError(t, err)
	list, ok := result.(*protocol.CompletionList)
	require.True(t, ok)
	return list
}

func TestInitializeIndexesVault(t *testing.T) {
	ls := startServer(t, newVault(t))
	assert.Equal(t, []string{"home", "work", "worship"}, ls.index.AllTags())
}

func TestCompletionInline(t *testing.T) {
	ls := startServer(t, newVault(t))
	uri := "file:///notes/new.md"
	open(t, ls, uri, "tags: wo")

	list := completionAt(t, ls, uri, 0, 8)
	require.Len(t, list.Items, 2)

	first := list.Items[0]
	assert.Equal(t, "work", first.Label)
	assert.Equal(t, "#work", *first.Detail)
	assert.Equal(t, "wo", *first.FilterText)
	assert.Equal(t, "00001", *first.SortText)
	edit, ok := first.TextEdit.(protocol.TextEdit)
	require.True(t, ok)
	assert.Equal(t, `"work", `, edit.NewText)
	assert.Equal(t, protocol.Range{
		Start: protocol.Position{Line: 0, Character: 6},
		End:   protocol.Position{Line: 0, Character: 8},
	}, edit.Range)
	doc, ok := first.Documentation.(protocol.MarkupContent)
	require.True(t, ok)
	assert.Contains(t, doc.Value, "<b>wo</b>")
}

func TestCompletionBlockAfterIncrementalChange(t *testing.T) {
	ls := startServer(t, newVault(t))
	uri := "file:///notes/new.md"
	open(t, ls, uri, "---\ntitle: x\ntags:\n - w\n---\n")

	err := ls.textDocumentDidChange(nil, &protocol.DidChangeTextDocumentParams{
		TextDocument: protocol.VersionedTextDocumentIdentifier{
			TextDocumentIdentifier: protocol.TextDocumentIdentifier{URI: uri},
		},
		ContentChanges: []any{
			protocol.TextDocumentContentChangeEvent{
				Range: &protocol.Range{
					Start: protocol.Position{Line: 3, Character: 4},
					End:   protocol.Position{Line: 3, Character: 4},
				},
				Text: "o",
			},
		},
	})
	require.NoError(t, err)

	list := completionAt(t, ls, uri, 3, 5)
	require.NotEmpty(t, list.Items)
	edit := list.Items[0].TextEdit.(protocol.TextEdit)
	assert.Equal(t, "work\n - ", edit.NewText)
	assert.Equal(t, protocol.UInteger(3), edit.Range.Start.Character)
}

func TestCompletionUTF16Columns(t *testing.T) {
	ls := startServer(t, newVault(t))
	uri := "file:///notes/emoji.md"
	open(t, ls, uri, "tags: 🎉 wo")

	list := completionAt(t, ls, uri, 0, 11)
	require.NotEmpty(t, list.Items)
	edit := list.Items[0].TextEdit.(protocol.TextEdit)
	assert.Equal(t, protocol.UInteger(9), edit.Range.Start.Character)
	assert.Equal(t, protocol.UInteger(11), edit.Range.End.Character)
}

func TestCompletionOutsideFrontmatter(t *testing.T) {
	ls := startServer(t, newVault(t))
	uri := "file:///notes/body.md"
	open(t, ls, uri, "---\ntags: a\n---\nbody wo")

	assert.Empty(t, completionAt(t, ls, uri, 3, 7).Items)
	assert.Empty(t, completionAt(t, ls, "file:///not/open.md", 0, 0).Items)
}

func TestDidChangeWholeAndClose(t *testing.T) {
	ls := newServer(Options{})
	uri := "file:///x.md"
	open(t, ls, uri, "old")

	require.NoError(t, ls.textDocumentDidChange(nil, &protocol.DidChangeTextDocumentParams{
		TextDocument: protocol.VersionedTextDocumentIdentifier{
			TextDocumentIdentifier: protocol.TextDocumentIdentifier{URI: uri},
		},
		ContentChanges: []any{protocol.TextDocumentContentChangeEventWhole{Text: "new"}},
	}))
	doc, ok := ls.document(uri)
	require.True(t, ok)
	assert.Equal(t, "new", doc.Text())

	require.NoError(t, ls.textDocumentDidClose(nil, &protocol.DidCloseTextDocumentParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: uri},
	}))
	_, ok = ls.document(uri)
	assert.False(t, ok)

	err := ls.textDocumentDidChange(nil, &protocol.DidChangeTextDocumentParams{
		TextDocument: protocol.VersionedTextDocumentIdentifier{
			TextDocumentIdentifier: protocol.TextDocumentIdentifier{URI: uri},
		},
	})
	assert.Error(t, err)
}

func TestDidSaveReindexes(t *testing.T) {
	root := newVault(t)
	ls := startServer(t, root)
	path := filepath.Join(root, "a.md")
	require.NoError(t, os.WriteFile(path, []byte("#fresh"), 0644))

	require.NoError(t, ls.textDocumentDidSave(nil, &protocol.DidSaveTextDocumentParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: "file://" + filepath.ToSlash(path)},
	}))
	assert.Equal(t, []string{"fresh"}, ls.index.AllTags())
}

func TestApplySettings(t *testing.T) {
	store := config.NewStore(nil, "")
	ls := newServer(Options{Store: store})

	require.NoError(t, ls.workspaceDidChangeConfiguration(nil, &protocol.DidChangeConfigurationParams{
		Settings: map[string]any{"tagserve": map[string]any{"matchColor": "blue"}},
	}))
	assert.Equal(t, "blue", store.MatchColor())

	ls.applySettings(map[string]any{"matchColor": "#010203"})
	assert.Equal(t, "#010203", store.MatchColor())

	ls.applySettings(map[string]any{"matchColor": `bad"><`})
	assert.Equal(t, "#010203", store.MatchColor())

	ls.applySettings("not an object")
	assert.Equal(t, "#010203", store.MatchColor())
}

func TestShutdownStopsWatcher(t *testing.T) {
	ls := newServer(Options{Watch: true})
	uri := "file://" + filepath.ToSlash(newVault(t))
	_, err := ls.initialize(nil, &protocol.InitializeParams{RootURI: &uri})
	require.NoError(t, err)
	require.NotNil(t, ls.watcher)

	require.NoError(t, ls.shutdown(nil))
	assert.Nil(t, ls.watcher)
}

func TestPositionRoundTrip(t *testing.T) {
	buf := editor.NewBuffer("a\nxé🎉z")
	r := editor.Range{Start: editor.Position{Line: 1, Ch: 1}, End: editor.Position{Line: 1, Ch: 3}}
	pr := toProtocolRange(buf, r)
	assert.Equal(t, protocol.UInteger(1), pr.Start.Character)
	assert.Equal(t, protocol.UInteger(4), pr.End.Character)
	assert.Equal(t, r, toEditorRange(buf, pr))
}
