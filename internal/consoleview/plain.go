package consoleview

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"pkt.systems/mcdrpanel/internal/eventbus"
	"pkt.systems/mcdrpanel/internal/mcformat"
	"pkt.systems/mcdrpanel/schema"
)

const connectPoll = 250 * time.Millisecond

// Printer writes session events as plain lines. It implements core.EventSink.
type Printer struct {
	mu   sync.Mutex
	w    io.Writer
	last schema.StateEvent
}

// NewPrinter returns a Printer writing to w.
func NewPrinter(w io.Writer) *Printer {
	return &Printer{w: w}
}

// OnReset prints the replaced buffer.
func (p *Printer) OnReset(event schema.ResetEvent) {
	p.printLines(event.Lines)
}

// OnLines prints appended lines.
func (p *Printer) OnLines(event schema.LinesEvent) {
	p.printLines(event.Lines)
}

func (p *Printer) printLines(lines []string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, line := range lines {
		fmt.Fprintln(p.w, mcformat.Strip(line))
	}
}

// OnState prints a status line when name or status changes. Connection
// changes are already visible as system lines.
func (p *Printer) OnState(event schema.StateEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if event.Name == p.last.Name && event.Status == p.last.Status {
		p.last = event
		return
	}
	p.last = event
	name := string(event.Name)
	if name == "" {
		name = string(event.ServerID)
	}
	fmt.Fprintf(p.w, "== %s [%s]\n", name, event.Status.Label())
}

// OnNotice prints a notification.
func (p *Printer) OnNotice(event schema.NoticeEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.w, "(%s) %s\n", event.Level, event.Message)
}

// RunPlain waits for the console connection, then sends every line read
// from in as console input. Output keeps streaming after in is exhausted;
// RunPlain returns when ctx ends or reading in fails. events may be nil.
func RunPlain(ctx context.Context, ctrl Controller, in io.Reader, printer *Printer, events <-chan eventbus.Event) error {
	if !waitConnected(ctx, ctrl, events) {
		return nil
	}
	lines := make(chan string)
	errs := make(chan error, 1)
	go func() {
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		errs <- scanner.Err()
	}()
	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-errs:
			if err != nil {
				return err
			}
			lines = nil
		case _, ok := <-events:
			if !ok {
				events = nil
			}
		case line := <-lines:
			if strings.TrimSpace(line) == "" {
				continue
			}
			if ctrl.SendInput(line) == 0 && printer != nil {
				printer.OnNotice(schema.NoticeEvent{Level: schema.NoticeWarning, Message: "not connected, nothing sent"})
			}
		}
	}
}

// waitConnected blocks until the session reports a live connection. It
// reports false when ctx ends first.
func waitConnected(ctx context.Context, ctrl Controller, events <-chan eventbus.Event) bool {
	tick := time.NewTicker(connectPoll)
	defer tick.Stop()
	for {
		if ctrl.Snapshot().Connection == schema.ConnectionConnected {
			return true
		}
		select {
		case <-ctx.Done():
			return false
		case _, ok := <-events:
			if !ok {
				events = nil
			}
		case <-tick.C:
		}
	}
}
