package editor

import (
	"strings"
	"sync"
)

// Buffer is an in-memory document addressed by line and rune column.
type Buffer struct {
	text string
	mu   sync.RWMutex
}

// NewBuffer creates a buffer holding text.
func NewBuffer(text string) *Buffer {
	return &Buffer{text: text}
}

// Text returns the whole document.
func (b *Buffer) Text() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.text
}

// SetText replaces the whole document.
func (b *Buffer) SetText(text string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.text = text
}

// LineCount returns the number of lines, counting a trailing empty line.
func (b *Buffer) LineCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return strings.Count(b.text, "\n") + 1
}

// End returns the position just past the last rune.
func (b *Buffer) End() Position {
	b.mu.RLock()
	defer b.mu.RUnlock()
	lines := strings.Split(b.text, "\n")
	last := len(lines) - 1
	return Position{Line: last, Ch: len([]rune(lines[last]))}
}

func (b *Buffer) Line(n int) string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	lines := strings.Split(b.text, "\n")
	if n < 0 || n >= len(lines) {
		return ""
	}
	return strings.TrimSuffix(lines[n], "\r")
}

func (b *Buffer) Range(from, to Position) string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	start := b.offset(from)
	end := b.offset(to)
	if end < start {
		start, end = end, start
	}
	return b.text[start:end]
}

func (b *Buffer) ReplaceRange(text string, from, to Position) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.replace(text, from, to)
	return nil
}

// ApplyChange applies an incremental edit as sent by LSP clients.
func (b *Buffer) ApplyChange(r Range, text string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.replace(text, r.Start, r.End)
}

func (b *Buffer) replace(text string, from, to Position) {
	start := b.offset(from)
	end := b.offset(to)
	if end < start {
		start, end = end, start
	}
	var sb strings.Builder
	sb.Grow(len(b.text) - (end - start) + len(text))
	sb.WriteString(b.text[:start])
	sb.WriteString(text)
	sb.WriteString(b.text[end:])
	b.text = sb.String()
}

// offset converts a position to a byte offset, clamping out of range
// lines and columns to the nearest valid place.
func (b *Buffer) offset(p Position) int {
	if p.Line < 0 {
		return 0
	}
	off := 0
	for line := 0; line < p.Line; line++ {
		i := strings.IndexByte(b.text[off:], '\n')
		if i < 0 {
			return len(b.text)
		}
		off += i + 1
	}
	lineEnd := strings.IndexByte(b.text[off:], '\n')
	if lineEnd < 0 {
		lineEnd = len(b.text)
	} else {
		lineEnd += off
	}
	ch := 0
	for i := range b.text[off:lineEnd] {
		if ch == p.Ch {
			return off + i
		}
		ch++
	}
	return lineEnd
}
