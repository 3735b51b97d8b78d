package core

import "pkt.systems/mcdrpanel/schema"

const defaultMaxLines = schema.DefaultBufferMaxLines

// buffer stores console lines, keeping only the most recent maxLines.
type buffer struct {
	lines    []string
	maxLines int
}

// Append adds lines in order and drops the oldest lines past the limit.
func (b *buffer) Append(lines ...string) {
	if len(lines) == 0 {
		return
	}
	b.lines = append(b.lines, lines...)
	b.trim()
}

// Replace swaps the buffer contents for lines, then applies the limit.
func (b *buffer) Replace(lines []string) {
	b.lines = append([]string(nil), lines...)
	b.trim()
}

// Lines returns a copy of the buffered lines, oldest first.
func (b *buffer) Lines() []string {
	if b == nil {
		return nil
	}
	return append([]string(nil), b.lines...)
}

// Len returns the number of buffered lines.
func (b *buffer) Len() int {
	if b == nil {
		return 0
	}
	return len(b.lines)
}

func (b *buffer) trim() {
	maxLines := b.maxLines
	if maxLines <= 0 {
		maxLines = defaultMaxLines
	}
	if len(b.lines) <= maxLines {
		return
	}
	trim := len(b.lines) - maxLines
	// Copy so the evicted prefix is not pinned by the backing array.
	b.lines = append([]string(nil), b.lines[trim:]...)
}

func newBufferWithMaxLines(maxLines int) *buffer {
	if maxLines <= 0 {
		maxLines = defaultMaxLines
	}
	return &buffer{maxLines: maxLines}
}
