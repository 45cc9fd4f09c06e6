/*
Package trigger decides whether the cursor sits on a frontmatter tags field
and isolates the word being typed there.

Detection is a line and segment scan, not a YAML parser. A trigger fires
when either the current line starts with a tags declaration (inline mode),
or the text before the cursor has exactly one fence line, contains a tags
declaration, and the closest field declaration above the cursor is "tags:"
(block mode). Everything else means "no trigger".

	---
	title: x
	tags: [go, wo|        <- inline
	---

	---
	tags:
	 - wo|                <- block
	---
*/
package trigger

import (
	"regexp"
	"strings"

	"github.com/bastiangx/tagserve/internal/utils"
)

// FieldMode is the syntax used by the tags field under the cursor.
type FieldMode int

const (
	// Inline means the tags are written on the declaration line.
	Inline FieldMode = iota
	// Block means each tag is an indented list item below the declaration.
	Block
)

func (m FieldMode) String() string {
	switch m {
	case Inline:
		return "inline"
	case Block:
		return "block"
	default:
		return "unknown"
	}
}

var (
	fenceRe        = regexp.MustCompile(`(?m)^---\r?\n`)
	tagDeclRe      = regexp.MustCompile(`(?m)^tags?:`)
	fieldDeclRe    = regexp.MustCompile(`(?m)(^\w+:?\s*\n?)`)
	inlinePrefixes = []string{"tags:", "tag:"}
)

// Locate reports whether the cursor is inside a tags field.
// precedingText runs from the document start to the cursor; currentLine is
// the full line the cursor is on.
func Locate(precedingText, currentLine string) (FieldMode, bool) {
	if isDeclarationLine(currentLine) {
		return Inline, true
	}
	if inBlockField(precedingText) {
		return Block, true
	}
	return Inline, false
}

func isDeclarationLine(line string) bool {
	for _, p := range inlinePrefixes {
		if utils.HasPrefixIgnoreCase(line, p) {
			return true
		}
	}
	return false
}

func inBlockField(text string) bool {
	if text == "" {
		return false
	}
	// A second fence means the frontmatter has already closed.
	if len(fenceRe.FindAllStringIndex(text, -1)) != 1 {
		return false
	}
	if !tagDeclRe.MatchString(text) {
		return false
	}
	segments := splitKeep(text, fieldDeclRe)
	for i := len(segments) - 1; i >= 0; i-- {
		if fieldDeclRe.MatchString(segments[i]) {
			return strings.HasPrefix(segments[i], "tags:")
		}
	}
	return false
}

// splitKeep splits s around every match of re and keeps the matches
// themselves as separate segments, in document order.
func splitKeep(s string, re *regexp.Regexp) []string {
	var out []string
	last := 0
	for _, loc := range re.FindAllStringIndex(s, -1) {
		out = append(out, s[last:loc[0]], s[loc[0]:loc[1]])
		last = loc[1]
	}
	return append(out, s[last:])
}
