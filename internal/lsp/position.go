package lsp

import (
	"net/url"
	"path/filepath"
	"unicode/utf16"

	"github.com/bastiangx/tagserve/pkg/editor"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

// runeColumn converts an LSP character offset (UTF-16 code units) on line
// into a rune column. Offsets inside a surrogate pair or past the end clamp.
func runeColumn(line string, character protocol.UInteger) int {
	units := 0
	col := 0
	for _, r := range line {
		n := utf16.RuneLen(r)
		if n < 0 {
			n = 1
		}
		if units+n > int(character) {
			return col
		}
		units += n
		col++
	}
	return col
}

// utf16Column converts a rune column on line into UTF-16 code units.
func utf16Column(line string, col int) protocol.UInteger {
	units := 0
	i := 0
	for _, r := range line {
		if i >= col {
			break
		}
		n := utf16.RuneLen(r)
		if n < 0 {
			n = 1
		}
		units += n
		i++
	}
	return protocol.UInteger(units)
}

func toEditorPosition(src editor.TextSource, p protocol.Position) editor.Position {
	line := int(p.Line)
	return editor.Position{Line: line, Ch: runeColumn(src.Line(line), p.Character)}
}

func toProtocolPosition(src editor.TextSource, p editor.Position) protocol.Position {
	return protocol.Position{
		Line:      protocol.UInteger(p.Line),
		Character: utf16Column(src.Line(p.Line), p.Ch),
	}
}

func toEditorRange(src editor.TextSource, r protocol.Range) editor.Range {
	return editor.Range{
		Start: toEditorPosition(src, r.Start),
		End:   toEditorPosition(src, r.End),
	}
}

func toProtocolRange(src editor.TextSource, r editor.Range) protocol.Range {
	return protocol.Range{
		Start: toProtocolPosition(src, r.Start),
		End:   toProtocolPosition(src, r.End),
	}
}

// uriToPath returns the filesystem path of a file:// URI, or "" for any
// other scheme.
func uriToPath(uri string) string {
	if uri == "" {
		return ""
	}
	u, err := url.Parse(uri)
	if err != nil || u.Scheme != "file" {
		return ""
	}
	path := u.Path
	// file:///C:/x parses to /C:/x on Windows.
	if len(path) > 2 && path[0] == '/' && path[2] == ':' {
		path = path[1:]
	}
	return filepath.FromSlash(path)
}
