// Package editor defines the narrow capabilities the completion core needs
// from a host editor, plus an in-memory Buffer implementing them.
//
// The core never keeps its own copy of a document. It reads lines and ranges
// through a TextSource and writes only through a RangeMutator.
package editor

// Position addresses a rune column on a zero-based line.
type Position struct {
	Line int `msgpack:"ln"`
	Ch   int `msgpack:"ch"`
}

// Range is a half-open [Start, End) span.
type Range struct {
	Start Position `msgpack:"s"`
	End   Position `msgpack:"e"`
}

// Before reports whether p sorts before o.
func (p Position) Before(o Position) bool {
	if p.Line != o.Line {
		return p.Line < o.Line
	}
	return p.Ch < o.Ch
}

// TextSource reads document text.
type TextSource interface {
	// Line returns line n without its trailing newline, or "" when out of range.
	Line(n int) string
	// Range returns the text between two positions.
	Range(from, to Position) string
}

// RangeMutator replaces a span of the document.
type RangeMutator interface {
	ReplaceRange(text string, from, to Position) error
}

// Editor is the full host capability set.
type Editor interface {
	TextSource
	RangeMutator
}
