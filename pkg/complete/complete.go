// Package complete turns a chosen suggestion into the literal text written
// back over the trigger span, in the syntax of the surrounding tags field.
package complete

import (
	"errors"
	"regexp"

	"github.com/bastiangx/tagserve/pkg/editor"
	"github.com/bastiangx/tagserve/pkg/trigger"
)

// Tags containing '<' or '>' do not survive stripping.
var markupRe = regexp.MustCompile(`</?[^>]+(>|$)`)

// ErrNoContext is returned when a selection arrives without a trigger.
var ErrNoContext = errors.New("complete: no trigger context")

// StripMarkup removes emphasis markup, recovering the plain candidate.
func StripMarkup(s string) string {
	return markupRe.ReplaceAllString(s, "")
}

// Apply builds the replacement text for chosen.
//
//	inline: "work",<space>
//	block:  work\n -<space>
func Apply(chosen string, mode trigger.FieldMode) string {
	plain := StripMarkup(chosen)
	var text string
	switch mode {
	case trigger.Block:
		text = plain + "\n -"
	default:
		text = `"` + plain + `",`
	}
	return text + " "
}

// Edit is a replacement that a transport hands back to its client.
type Edit struct {
	Range   editor.Range
	NewText string
}

// EditFor returns the edit replacing the context span with chosen.
func EditFor(ctx *trigger.Context, chosen string) (Edit, error) {
	if ctx == nil {
		return Edit{}, ErrNoContext
	}
	return Edit{
		Range:   editor.Range{Start: ctx.Start, End: ctx.End},
		NewText: Apply(chosen, ctx.Mode),
	}, nil
}

// Replace writes chosen over the context span through m.
func Replace(ctx *trigger.Context, chosen string, m editor.RangeMutator) error {
	edit, err := EditFor(ctx, chosen)
	if err != nil {
		return err
	}
	return m.ReplaceRange(edit.NewText, edit.Range.Start, edit.Range.End)
}
