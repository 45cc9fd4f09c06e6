package trigger

import (
	"strings"
	"testing"

	"github.com/bastiangx/tagserve/pkg/editor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// cursorAtEnd splits a document whose cursor sits at its very end into the
// preceding text and the current line.
func cursorAtEnd(doc string) (string, string) {
	return doc, doc[strings.LastIndex(doc, "\n")+1:]
}

func TestLocate(t *testing.T) {
	testCases := []struct {
		description string
		doc         string
		mode        FieldMode
		ok          bool
	}{
		{"declaration line", "tags: wo", Inline, true},
		{"singular declaration", "---\ntag: wo", Inline, true},
		{"declaration line is case insensitive", "Tags: [a, wo", Inline, true},
		{"inline without fence", "title: x\ntags: \"a\", wo", Inline, true},
		{"block list item", "---\ntitle: x\ntags:\n - wo", Block, true},
		{"block after earlier items", "---\ntags:\n - a\n - b\n - wo", Block, true},
		{"block under another field", "---\ntags:\n - a\naliases:\n - wo", Inline, false},
		{"no tags field", "---\ntitle: x\n - wo", Inline, false},
		{"no fence", "tags:\n - wo", Inline, false},
		{"closed frontmatter", "---\ntags: a\n---\nbody text wo", Inline, false},
		{"three fences", "---\ntags:\n---\n---\n - wo", Inline, false},
		{"empty text", "", Inline, false},
	}

	for _, tc := range testCases {
		t.Run(tc.description, func(t *testing.T) {
			preceding, line := cursorAtEnd(tc.doc)
			mode, ok := Locate(preceding, line)
			assert.Equal(t, tc.ok, ok)
			if tc.ok {
				assert.Equal(t, tc.mode, mode)
			}
		})
	}
}

func TestLocate_FenceCountDisqualifiesBlock(t *testing.T) {
	bodies := []string{
		"tags:\n - wo",
		"title: x\ntags:\n - wo",
		"---\ntags:\n - a\n---\n - wo",
		"---\n---\ntags:\n - wo",
	}
	for _, doc := range bodies {
		preceding, line := cursorAtEnd(doc)
		_, ok := Locate(preceding, line)
		assert.False(t, ok, "doc %q", doc)
	}
}

func TestExtract(t *testing.T) {
	testCases := []struct {
		description string
		line        string
		cursor      int
		want        Span
		ok          bool
	}{
		{"word at end", "tags: wo", 8, Span{"wo", 6, 8}, true},
		{"list item", " - wo", 5, Span{"wo", 3, 5}, true},
		{"inside flow list", "tags: [a, wo", 12, Span{"wo", 10, 12}, true},
		{"cursor mid word", "tags: work", 8, Span{"wo", 6, 8}, true},
		{"repeated word anchors at cursor", "wo wo", 5, Span{"wo", 3, 5}, true},
		{"cursor past end", "tags: wo", 40, Span{"wo", 6, 8}, true},
		{"multibyte", "tags: ça", 8, Span{"ça", 6, 8}, true},
		{"after whitespace", "tags: ", 6, Span{}, false},
		{"line start", "tags", 0, Span{}, false},
		{"empty line", "", 0, Span{}, false},
	}

	for _, tc := range testCases {
		t.Run(tc.description, func(t *testing.T) {
			span, ok := Extract(tc.line, tc.cursor)
			assert.Equal(t, tc.ok, ok)
			assert.Equal(t, tc.want, span)
		})
	}
}

func TestEvaluate_Inline(t *testing.T) {
	buf := editor.NewBuffer("tags: wo")
	ctx, ok := Evaluate(editor.Position{Line: 0, Ch: 8}, buf)
	require.True(t, ok)
	assert.Equal(t, Inline, ctx.Mode)
	assert.Equal(t, "wo", ctx.Query)
	assert.Equal(t, editor.Position{Line: 0, Ch: 6}, ctx.Start)
	assert.Equal(t, editor.Position{Line: 0, Ch: 8}, ctx.End)
}

func TestEvaluate_Block(t *testing.T) {
	buf := editor.NewBuffer("---\ntitle: x\ntags:\n - wo\n---\n")
	ctx, ok := Evaluate(editor.Position{Line: 3, Ch: 5}, buf)
	require.True(t, ok)
	assert.Equal(t, Block, ctx.Mode)
	assert.Equal(t, "wo", ctx.Query)
	assert.Equal(t, editor.Position{Line: 3, Ch: 3}, ctx.Start)
}

func TestEvaluate_NoTrigger(t *testing.T) {
	buf := editor.NewBuffer("---\ntags: a\n---\nbody text wo")
	_, ok := Evaluate(editor.Position{Line: 3, Ch: 12}, buf)
	assert.False(t, ok)

	buf = editor.NewBuffer("tags: ")
	_, ok = Evaluate(editor.Position{Line: 0, Ch: 6}, buf)
	assert.False(t, ok)
}

func TestFieldMode_String(t *testing.T) {
	assert.Equal(t, "inline", Inline.String())
	assert.Equal(t, "block", Block.String())
	assert.Equal(t, "unknown", FieldMode(7).String())
}
