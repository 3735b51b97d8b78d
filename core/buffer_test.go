package core

import (
	"fmt"
	"testing"
)

func TestBufferRespectsMaxLines(t *testing.T) {
	b := &buffer{maxLines: 3}
	b.Append("one", "two", "three", "four", "five")
	lines := b.Lines()
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(lines))
	}
	if lines[0] != "three" || lines[2] != "five" {
		t.Fatalf("unexpected lines: %+v", lines)
	}
}

func TestBufferKeepsMostRecentSuffix(t *testing.T) {
	const limit = 2000
	b := newBufferWithMaxLines(limit)
	var all []string
	for batch := 0; batch < 37; batch++ {
		lines := make([]string, 0, 97)
		for i := 0; i < 97; i++ {
			lines = append(lines, fmt.Sprintf("line-%d-%d", batch, i))
		}
		all = append(all, lines...)
		b.Append(lines...)
		if b.Len() > limit {
			t.Fatalf("buffer exceeded limit: %d", b.Len())
		}
	}
	want := all[len(all)-limit:]
	got := b.Lines()
	if len(got) != len(want) {
		t.Fatalf("expected %d lines, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("line %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestBufferReplaceAppliesLimit(t *testing.T) {
	b := &buffer{maxLines: 2}
	b.Append("stale")
	b.Replace([]string{"a", "b", "c"})
	lines := b.Lines()
	if len(lines) != 2 || lines[0] != "b" || lines[1] != "c" {
		t.Fatalf("unexpected lines after replace: %v", lines)
	}
}

func TestBufferDefaultLimit(t *testing.T) {
	b := &buffer{}
	for i := 0; i < defaultMaxLines+10; i++ {
		b.Append(fmt.Sprintf("%d", i))
	}
	if b.Len() != defaultMaxLines {
		t.Fatalf("expected %d lines, got %d", defaultMaxLines, b.Len())
	}
}

func TestBufferLinesIsCopy(t *testing.T) {
	b := &buffer{maxLines: 5}
	b.Append("one")
	lines := b.Lines()
	lines[0] = "mutated"
	if b.Lines()[0] != "one" {
		t.Fatalf("expected buffer to be unaffected by caller mutation")
	}
}
