package trigger

import (
	"unicode"

	"github.com/bastiangx/tagserve/pkg/editor"
)

// Span is the partial word in front of the cursor, in rune columns.
type Span struct {
	Query string
	Start int
	End   int
}

// Extract returns the run of non-whitespace runes that ends at cursor.
// The span is measured back from the cursor, so a word repeated earlier
// on the line never moves it.
func Extract(line string, cursor int) (Span, bool) {
	runes := []rune(line)
	if cursor > len(runes) {
		cursor = len(runes)
	}
	if cursor <= 0 {
		return Span{}, false
	}
	start := cursor
	for start > 0 && !unicode.IsSpace(runes[start-1]) {
		start--
	}
	if start == cursor {
		return Span{}, false
	}
	return Span{
		Query: string(runes[start:cursor]),
		Start: start,
		End:   cursor,
	}, true
}

// Context is one trigger evaluation. It must not be reused after the
// document changes.
type Context struct {
	Start editor.Position
	End   editor.Position
	Query string
	Mode  FieldMode
}

// Evaluate runs the locator and the extractor for a cursor position.
func Evaluate(cursor editor.Position, src editor.TextSource) (*Context, bool) {
	line := src.Line(cursor.Line)
	preceding := src.Range(editor.Position{}, cursor)

	mode, ok := Locate(preceding, line)
	if !ok {
		return nil, false
	}
	span, ok := Extract(line, cursor.Ch)
	if !ok {
		return nil, false
	}
	return &Context{
		Start: editor.Position{Line: cursor.Line, Ch: span.Start},
		End:   editor.Position{Line: cursor.Line, Ch: span.End},
		Query: span.Query,
		Mode:  mode,
	}, true
}
