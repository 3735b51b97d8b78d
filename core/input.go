package core

import "strings"

// SplitCommands turns a block of console input into individual commands.
// Lines are trimmed and blank lines dropped; order is preserved.
func SplitCommands(input string) []string {
	if input == "" {
		return nil
	}
	var commands []string
	for _, line := range strings.Split(input, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		commands = append(commands, line)
	}
	return commands
}
