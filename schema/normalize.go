package schema

import (
	"strings"
	"unicode"
)

// NormalizeServerID trims and validates a server identifier.
// Control characters, whitespace and path separators are rejected since the id
// is embedded in request paths.
func NormalizeServerID(raw string) (ServerID, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", ErrInvalidServerID
	}
	for _, r := range trimmed {
		if unicode.IsSpace(r) || unicode.IsControl(r) {
			return "", ErrInvalidServerID
		}
		switch r {
		case '/', '\\', '?', '#', '%':
			return "", ErrInvalidServerID
		}
	}
	return ServerID(trimmed), nil
}
