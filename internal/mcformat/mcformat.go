// Package mcformat parses Minecraft section-sign formatting codes found in
// server console output.
package mcformat

import "strings"

const marker = '§'

// Span represents a styled slice of text.
type Span struct {
	Text      string
	Color     string // hex foreground, empty for default
	Bold      bool
	Italic    bool
	Underline bool
	Strike    bool
}

var palette = map[byte]string{
	'0': "#000000",
	'1': "#0000AA",
	'2': "#00AA00",
	'3': "#00AAAA",
	'4': "#AA0000",
	'5': "#AA00AA",
	'6': "#FFAA00",
	'7': "#AAAAAA",
	'8': "#555555",
	'9': "#5555FF",
	'a': "#55FF55",
	'b': "#55FFFF",
	'c': "#FF5555",
	'd': "#FF55FF",
	'e': "#FFFF55",
	'f': "#FFFFFF",
}

// Parse splits a console line into spans. A color code resets the other
// formatting, as the game does. Unknown codes are kept literally.
func Parse(input string) []Span {
	if input == "" {
		return nil
	}
	var spans []Span
	var buf strings.Builder
	var cur Span

	flush := func() {
		if buf.Len() == 0 {
			return
		}
		span := cur
		span.Text = buf.String()
		spans = append(spans, span)
		buf.Reset()
	}

	rest := input
	for rest != "" {
		idx := strings.IndexRune(rest, marker)
		if idx < 0 {
			buf.WriteString(rest)
			break
		}
		buf.WriteString(rest[:idx])
		rest = rest[idx+len(string(marker)):]
		if rest == "" {
			buf.WriteRune(marker)
			break
		}
		code := lower(rest[0])
		if color, ok := palette[code]; ok {
			flush()
			cur = Span{Color: color}
			rest = rest[1:]
			continue
		}
		switch code {
		case 'l':
			flush()
			cur.Bold = true
		case 'o':
			flush()
			cur.Italic = true
		case 'n':
			flush()
			cur.Underline = true
		case 'm':
			flush()
			cur.Strike = true
		case 'k':
			// obfuscated text renders as-is
		case 'r':
			flush()
			cur = Span{}
		default:
			buf.WriteRune(marker)
			continue
		}
		rest = rest[1:]
	}
	flush()
	return spans
}

// Strip removes formatting codes and returns the bare text.
func Strip(input string) string {
	if !strings.ContainsRune(input, marker) {
		return input
	}
	var b strings.Builder
	for _, span := range Parse(input) {
		b.WriteString(span.Text)
	}
	return b.String()
}

func lower(ch byte) byte {
	if ch >= 'A' && ch <= 'Z' {
		return ch + 'a' - 'A'
	}
	return ch
}
