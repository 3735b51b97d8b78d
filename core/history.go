package core

import "strings"

// DefaultHistoryMax bounds the remembered command history.
const DefaultHistoryMax = 200

// commandHistory remembers dispatched console commands, oldest first.
// Consecutive repeats collapse into one entry.
type commandHistory struct {
	commands []string
	limit    int
}

func newCommandHistory(limit int, seed []string) *commandHistory {
	if limit <= 0 {
		limit = DefaultHistoryMax
	}
	h := &commandHistory{limit: limit}
	for _, command := range seed {
		h.Record(command)
	}
	return h
}

// Record adds a command and reports whether it was kept.
func (h *commandHistory) Record(command string) bool {
	if h == nil || strings.TrimSpace(command) == "" {
		return false
	}
	if n := len(h.commands); n > 0 && h.commands[n-1] == command {
		return false
	}
	h.commands = append(h.commands, command)
	if over := len(h.commands) - h.limit; over > 0 {
		h.commands = append([]string(nil), h.commands[over:]...)
	}
	return true
}

func (h *commandHistory) List() []string {
	if h == nil {
		return nil
	}
	return append([]string(nil), h.commands...)
}
