// Package consoleview renders a live server console in a terminal.
package consoleview

import (
	"context"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"pkt.systems/mcdrpanel/internal/mcformat"
	"pkt.systems/mcdrpanel/schema"
)

// Controller is the console session surface driven by the views.
type Controller interface {
	Snapshot() schema.SessionSnapshot
	SendInput(input string) int
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	Restart(ctx context.Context) error
	CommandHistory() []string
}

var (
	headerStyle  = lipgloss.NewStyle().Bold(true)
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)

// IsTTY reports whether both stdin and stdout are terminals.
func IsTTY() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
}

func statusStyle(status schema.ServerStatus) lipgloss.Style {
	switch status {
	case schema.StatusRunning:
		return successStyle
	case schema.StatusPending, schema.StatusLoading, schema.StatusNewSetup:
		return warningStyle
	case schema.StatusStopped:
		return dimStyle
	default:
		return errorStyle
	}
}

func connectionLabel(state schema.ConnectionState) string {
	switch state {
	case schema.ConnectionConnected:
		return "live"
	case schema.ConnectionConnecting:
		return "connecting"
	default:
		return "offline"
	}
}

func connectionStyle(state schema.ConnectionState) lipgloss.Style {
	switch state {
	case schema.ConnectionConnected:
		return successStyle
	case schema.ConnectionConnecting:
		return warningStyle
	default:
		return errorStyle
	}
}

func displayName(snap schema.SessionSnapshot) string {
	if snap.Name != "" {
		return string(snap.Name)
	}
	return string(snap.ServerID)
}

// renderHeader renders "name  [status]  connection" clipped to width.
func renderHeader(snap schema.SessionSnapshot, width int) string {
	status := snap.Status.Label()
	if snap.Predicted {
		status += "…"
	}
	parts := []string{
		headerStyle.Render(displayName(snap)),
		statusStyle(snap.Status).Render("[" + status + "]"),
		connectionStyle(snap.Connection).Render(connectionLabel(snap.Connection)),
	}
	line := strings.Join(parts, "  ")
	if width > 0 {
		line = lipgloss.NewStyle().MaxWidth(width).Render(line)
	}
	return line
}

func noticeText(notice schema.NoticeEvent) string {
	if notice.Message == "" {
		return ""
	}
	switch notice.Level {
	case schema.NoticeSuccess:
		return successStyle.Render("✓ " + notice.Message)
	case schema.NoticeWarning:
		return warningStyle.Render("! " + notice.Message)
	default:
		return errorStyle.Render("✗ " + notice.Message)
	}
}

func helpLine() string {
	return dimStyle.Render("enter send · ctrl+j newline · ↑/↓ history · ctrl+s start · ctrl+t stop · ctrl+r restart · esc quit")
}

// renderLine applies the line's formatting codes.
func renderLine(line string) string {
	if !strings.ContainsRune(line, '§') {
		return line
	}
	var b strings.Builder
	for _, span := range mcformat.Parse(line) {
		style := lipgloss.NewStyle().
			Bold(span.Bold).
			Italic(span.Italic).
			Underline(span.Underline).
			Strikethrough(span.Strike)
		if span.Color != "" {
			style = style.Foreground(lipgloss.Color(span.Color))
		}
		b.WriteString(style.Render(span.Text))
	}
	return b.String()
}

func renderLines(lines []string) string {
	rendered := make([]string, len(lines))
	for i, line := range lines {
		rendered[i] = renderLine(line)
	}
	return strings.Join(rendered, "\n")
}
