package consoleview

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"pkt.systems/mcdrpanel/internal/eventbus"
	"pkt.systems/mcdrpanel/schema"
)

const (
	inputHeight   = 3
	noticeTimeout = 4 * time.Second
	// header, notice and help lines around the viewport and input box.
	chromeHeight = 3
)

type eventMsg struct{ event eventbus.Event }

type eventsClosedMsg struct{}

type noticeExpiredMsg struct{ seq int }

type actionDoneMsg struct {
	action string
	err    error
}

// Model is the interactive console.
type Model struct {
	ctx    context.Context
	ctrl   Controller
	events <-chan eventbus.Event

	viewport viewport.Model
	input    textarea.Model

	snap      schema.SessionSnapshot
	recall    int // index into command history; -1 when editing a draft
	draft     string
	notice    schema.NoticeEvent
	noticeSeq int
	width     int
	height    int
}

// NewModel builds the interactive console model. events may be nil.
func NewModel(ctx context.Context, ctrl Controller, events <-chan eventbus.Event) Model {
	if ctx == nil {
		ctx = context.Background()
	}
	ta := textarea.New()
	ta.Placeholder = "Type a command…"
	ta.ShowLineNumbers = false
	ta.Prompt = "> "
	ta.CharLimit = 0
	ta.SetHeight(inputHeight)
	ta.KeyMap.InsertNewline = key.NewBinding(key.WithKeys("ctrl+j"))
	ta.Focus()

	vp := viewport.New(80, 20)
	m := Model{
		ctx:      ctx,
		ctrl:     ctrl,
		events:   events,
		viewport: vp,
		input:    ta,
		recall:   -1,
		width:    80,
		height:   20 + inputHeight + chromeHeight,
	}
	m.refresh(true)
	return m
}

// Init starts the cursor blink and the event pump.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textarea.Blink, waitForEvent(m.events))
}

// Update handles terminal input and session events.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.layout()
		m.refresh(true)
		return m, nil

	case eventMsg:
		var cmd tea.Cmd
		if msg.event.Type == eventbus.EventNotice {
			cmd = m.showNotice(msg.event.Notice)
		}
		m.refresh(false)
		return m, tea.Batch(cmd, waitForEvent(m.events))

	case eventsClosedMsg:
		return m, nil

	case noticeExpiredMsg:
		if msg.seq == m.noticeSeq {
			m.notice = schema.NoticeEvent{}
		}
		return m, nil

	case actionDoneMsg:
		// Outcomes arrive as session notices.
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "esc", "ctrl+c":
			return m, tea.Quit
		case "ctrl+s":
			return m, m.action("start", m.ctrl.Start)
		case "ctrl+t":
			return m, m.action("stop", m.ctrl.Stop)
		case "ctrl+r":
			return m, m.action("restart", m.ctrl.Restart)
		case "enter":
			return m, m.submit()
		case "up", "down":
			if !strings.Contains(m.input.Value(), "\n") {
				m.recallHistory(msg.String() == "up")
				return m, nil
			}
		case "pgup", "pgdown":
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// View renders the console.
func (m Model) View() string {
	var b strings.Builder
	b.WriteString(renderHeader(m.snap, m.width))
	b.WriteString("\n")
	b.WriteString(m.viewport.View())
	b.WriteString("\n")
	b.WriteString(noticeText(m.notice))
	b.WriteString("\n")
	b.WriteString(m.input.View())
	b.WriteString("\n")
	b.WriteString(helpLine())
	return b.String()
}

func (m *Model) submit() tea.Cmd {
	text := m.input.Value()
	m.input.Reset()
	m.recall = -1
	m.draft = ""
	if strings.TrimSpace(text) == "" {
		return nil
	}
	if m.ctrl.SendInput(text) == 0 {
		return m.showNotice(schema.NoticeEvent{
			ServerID: m.snap.ServerID,
			Level:    schema.NoticeWarning,
			Message:  "not connected, nothing sent",
		})
	}
	m.viewport.GotoBottom()
	return nil
}

// recallHistory walks sent commands. Walking past the newest entry restores
// the draft that was being typed.
func (m *Model) recallHistory(older bool) {
	history := m.ctrl.CommandHistory()
	if len(history) == 0 {
		return
	}
	if m.recall < 0 || m.recall > len(history) {
		if !older {
			return
		}
		m.draft = m.input.Value()
		m.recall = len(history)
	}
	if older {
		if m.recall > 0 {
			m.recall--
		}
		m.input.SetValue(history[m.recall])
		return
	}
	m.recall++
	if m.recall >= len(history) {
		m.recall = -1
		m.input.SetValue(m.draft)
		m.draft = ""
		return
	}
	m.input.SetValue(history[m.recall])
}

func (m *Model) action(name string, call func(context.Context) error) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		return actionDoneMsg{action: name, err: call(ctx)}
	}
}

func (m *Model) showNotice(notice schema.NoticeEvent) tea.Cmd {
	m.noticeSeq++
	m.notice = notice
	seq := m.noticeSeq
	return tea.Tick(noticeTimeout, func(time.Time) tea.Msg {
		return noticeExpiredMsg{seq: seq}
	})
}

func (m *Model) layout() {
	m.input.SetWidth(m.width)
	height := m.height - inputHeight - chromeHeight
	if height < 1 {
		height = 1
	}
	m.viewport.Width = m.width
	m.viewport.Height = height
}

// refresh re-reads the session snapshot. The view follows the tail unless
// the user scrolled up.
func (m *Model) refresh(force bool) {
	follow := force || m.viewport.AtBottom()
	m.snap = m.ctrl.Snapshot()
	m.viewport.SetContent(renderLines(m.snap.Lines))
	if follow {
		m.viewport.GotoBottom()
	}
}

func waitForEvent(events <-chan eventbus.Event) tea.Cmd {
	if events == nil {
		return nil
	}
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return eventsClosedMsg{}
		}
		return eventMsg{event: ev}
	}
}

// Run shows the interactive console until the user quits or ctx ends.
func Run(ctx context.Context, ctrl Controller, events <-chan eventbus.Event) error {
	p := tea.NewProgram(NewModel(ctx, ctrl, events), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	if err != nil && errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
