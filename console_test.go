package mcdrpanel

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"pkt.systems/mcdrpanel/internal/eventbus"
	"pkt.systems/mcdrpanel/schema"
)

type stubAPI struct {
	logs []string
}

func (s *stubAPI) ListServers(context.Context) ([]schema.Server, error) {
	return []schema.Server{{ID: "7", Name: "Survival", Status: schema.StatusStopped}}, nil
}

func (s *stubAPI) ServerLogs(context.Context, schema.ServerID) ([]string, error) {
	return s.logs, nil
}

func (s *stubAPI) StartServer(context.Context, schema.ServerID) error   { return nil }
func (s *stubAPI) StopServer(context.Context, schema.ServerID) error    { return nil }
func (s *stubAPI) RestartServer(context.Context, schema.ServerID) error { return nil }

type stubChannel struct {
	mu       sync.Mutex
	handlers map[string]func(json.RawMessage)
	emits    []string
	closed   bool
}

func (c *stubChannel) On(event string, handler func(json.RawMessage)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.handlers == nil {
		c.handlers = make(map[string]func(json.RawMessage))
	}
	c.handlers[event] = handler
}

func (c *stubChannel) Off(event string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.handlers, event)
}

func (c *stubChannel) Emit(event string, payload any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.emits = append(c.emits, event)
	return nil
}

func (c *stubChannel) Connect(context.Context) error { return nil }

func (c *stubChannel) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *stubChannel) fire(event string, payload string) {
	c.mu.Lock()
	handler := c.handlers[event]
	c.mu.Unlock()
	if handler != nil {
		handler(json.RawMessage(payload))
	}
}

type countingSink struct {
	mu      sync.Mutex
	resets  int
	lines   int
	states  int
	notices int
}

func (s *countingSink) OnLines(schema.LinesEvent) {
	s.mu.Lock()
	s.lines++
	s.mu.Unlock()
}

func (s *countingSink) OnReset(schema.ResetEvent) {
	s.mu.Lock()
	s.resets++
	s.mu.Unlock()
}

func (s *countingSink) OnState(schema.StateEvent) {
	s.mu.Lock()
	s.states++
	s.mu.Unlock()
}

func (s *countingSink) OnNotice(schema.NoticeEvent) {
	s.mu.Lock()
	s.notices++
	s.mu.Unlock()
}

func TestOpenComposesSessionAndBus(t *testing.T) {
	api := &stubAPI{logs: []string{"[12:00:00] Done"}}
	channel := &stubChannel{}
	sink := &countingSink{}
	console, err := Open(context.Background(), Config{ServerID: " 7 "},
		WithServerAPI(api),
		WithChannel(channel),
		WithEventSink(sink),
	)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer console.Close()

	snap := console.Session().Snapshot()
	if snap.ServerID != "7" || snap.Name != "Survival" || snap.Status != schema.StatusStopped {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}
	if len(snap.Lines) != 1 || snap.Lines[0] != "[12:00:00] Done" {
		t.Fatalf("unexpected lines: %v", snap.Lines)
	}
	sink.mu.Lock()
	if sink.resets != 1 || sink.states == 0 {
		t.Fatalf("expected extra sink to see reset and state events, got %+v", sink)
	}
	sink.mu.Unlock()

	events, cancel := console.Subscribe()
	defer cancel()
	channel.fire(schema.EventConsoleLogBatch, `{"logs":["hello"]}`)
	select {
	case ev := <-events:
		if ev.Type != eventbus.EventLines || len(ev.Lines.Lines) != 1 || ev.Lines.Lines[0] != "hello" {
			t.Fatalf("unexpected bus event: %+v", ev)
		}
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for bus event")
	}
}

func TestOpenRejectsInvalidServerID(t *testing.T) {
	_, err := Open(context.Background(), Config{ServerID: "a/b"},
		WithServerAPI(&stubAPI{}),
		WithChannel(&stubChannel{}),
	)
	if !errors.Is(err, schema.ErrInvalidServerID) {
		t.Fatalf("expected ErrInvalidServerID, got %v", err)
	}
}

func TestConsoleCloseDetachesChannel(t *testing.T) {
	channel := &stubChannel{}
	console, err := Open(context.Background(), Config{ServerID: "7"},
		WithServerAPI(&stubAPI{}),
		WithChannel(channel),
	)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := console.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	channel.mu.Lock()
	defer channel.mu.Unlock()
	if !channel.closed {
		t.Fatalf("expected channel to be closed")
	}
	if len(channel.handlers) != 0 {
		t.Fatalf("expected handlers to be detached, got %d", len(channel.handlers))
	}
}

func TestConsolePersistsCommandHistory(t *testing.T) {
	dir := t.TempDir()
	cfg := Config{ServerID: "7", HistoryDir: dir}
	channel := &stubChannel{}
	console, err := Open(context.Background(), cfg, WithServerAPI(&stubAPI{}), WithChannel(channel))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	channel.fire(schema.EventConnect, "")
	if n := console.Session().SendInput("list\nsay hi"); n != 2 {
		t.Fatalf("expected 2 commands sent, got %d", n)
	}
	if err := console.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	reopened, err := Open(context.Background(), cfg, WithServerAPI(&stubAPI{}), WithChannel(&stubChannel{}))
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()
	if got := strings.Join(reopened.Session().CommandHistory(), ","); got != "list,say hi" {
		t.Fatalf("unexpected restored history: %q", got)
	}
}

func TestEventBusSeesNoticesRaisedDuringOpen(t *testing.T) {
	bus := eventbus.New(nil)
	events, cancel := bus.Subscribe("8")
	defer cancel()
	console, err := Open(context.Background(), Config{ServerID: "8"},
		WithServerAPI(&stubAPI{}),
		WithChannel(&stubChannel{}),
		WithEventBus(bus),
	)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer console.Close()

	timeout := time.After(time.Second)
	for {
		select {
		case ev := <-events:
			if ev.Type == eventbus.EventNotice {
				if ev.Notice.Level != schema.NoticeError || !strings.Contains(ev.Notice.Message, "not found") {
					t.Fatalf("unexpected notice: %+v", ev.Notice)
				}
				return
			}
		case <-timeout:
			t.Fatalf("expected the not-found notice published during open")
		}
	}
}
