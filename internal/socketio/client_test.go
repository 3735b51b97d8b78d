package socketio

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"pkt.systems/mcdrpanel/schema"
)

const testOpen = `0{"sid":"engine-1","upgrades":[],"pingInterval":25000,"pingTimeout":20000,"maxPayload":1000000}`

func newSocketServer(t *testing.T, handle func(conn *websocket.Conn, r *http.Request)) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/ws/socket.io/" || r.URL.Query().Get("EIO") != "4" || r.URL.Query().Get("transport") != "websocket" {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		handle(conn, r)
	}))
	t.Cleanup(srv.Close)
	return srv
}

// serverHandshake performs the server side of the engine open and namespace
// connect exchange and returns the client's connect packet.
func serverHandshake(conn *websocket.Conn) (string, error) {
	if err := conn.WriteMessage(websocket.TextMessage, []byte(testOpen)); err != nil {
		return "", err
	}
	_, msg, err := conn.ReadMessage()
	if err != nil {
		return "", err
	}
	if !strings.HasPrefix(string(msg), "40") {
		return string(msg), errors.New("expected connect packet, got " + string(msg))
	}
	if err := conn.WriteMessage(websocket.TextMessage, []byte(`40{"sid":"socket-1"}`)); err != nil {
		return "", err
	}
	return string(msg), nil
}

func drain(conn *websocket.Conn) {
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func newTestClient(t *testing.T, srv *httptest.Server, mutate func(*Config)) *Client {
	t.Helper()
	cfg := Config{
		URL:               srv.URL,
		Path:              "/ws/socket.io/",
		Token:             "secret",
		HandshakeTimeout:  2 * time.Second,
		ReconnectDelay:    10 * time.Millisecond,
		ReconnectDelayMax: 20 * time.Millisecond,
	}
	if mutate != nil {
		mutate(&cfg)
	}
	client, err := New(cfg)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func waitFor[T any](t *testing.T, ch <-chan T, what string) T {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(3 * time.Second):
		t.Fatalf("timed out waiting for %s", what)
	}
	var zero T
	return zero
}

func TestClientConnectEventsAndEmit(t *testing.T) {
	connectPackets := make(chan string, 1)
	authHeaders := make(chan string, 1)
	pongs := make(chan string, 1)
	emitted := make(chan string, 1)
	srv := newSocketServer(t, func(conn *websocket.Conn, r *http.Request) {
		authHeaders <- r.Header.Get("Authorization")
		connect, err := serverHandshake(conn)
		if err != nil {
			t.Errorf("handshake: %v", err)
			return
		}
		connectPackets <- connect
		_ = conn.WriteMessage(websocket.TextMessage, []byte("2"))
		_, pong, err := conn.ReadMessage()
		if err != nil {
			t.Errorf("read pong: %v", err)
			return
		}
		pongs <- string(pong)
		_ = conn.WriteMessage(websocket.TextMessage, []byte(`42["console_log_batch",{"logs":["hello"]}]`))
		_, msg, err := conn.ReadMessage()
		if err != nil {
			t.Errorf("read emit: %v", err)
			return
		}
		emitted <- string(msg)
		drain(conn)
	})

	client := newTestClient(t, srv, nil)
	connected := make(chan struct{}, 1)
	batches := make(chan string, 1)
	client.On(EventConnect, func(json.RawMessage) { connected <- struct{}{} })
	client.On(schema.EventConsoleLogBatch, func(payload json.RawMessage) { batches <- string(payload) })

	if err := client.Connect(context.Background()); err != nil {
		t.Fatalf("connect: %v", err)
	}
	if got := waitFor(t, authHeaders, "auth header"); got != "Bearer secret" {
		t.Fatalf("unexpected authorization header: %q", got)
	}
	if got := waitFor(t, connectPackets, "connect packet"); got != `40{"token":"secret"}` {
		t.Fatalf("unexpected connect packet: %q", got)
	}
	waitFor(t, connected, "connect event")
	if !client.Connected() {
		t.Fatalf("expected client to report connected")
	}
	if got := waitFor(t, pongs, "pong"); got != "3" {
		t.Fatalf("unexpected pong: %q", got)
	}
	if got := waitFor(t, batches, "log batch"); got != `{"logs":["hello"]}` {
		t.Fatalf("unexpected batch payload: %s", got)
	}
	if err := client.Emit(schema.EventConsoleCommand, schema.ConsoleCommand{ServerID: "7", Command: "list"}); err != nil {
		t.Fatalf("emit: %v", err)
	}
	if got := waitFor(t, emitted, "emitted command"); got != `42["console_command",{"server_id":7,"command":"list"}]` {
		t.Fatalf("unexpected emitted packet: %q", got)
	}
}

func TestClientEmitWhenNotConnected(t *testing.T) {
	client, err := New(Config{URL: "http://127.0.0.1:1"})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	if err := client.Emit(schema.EventConsoleCommand, schema.ConsoleCommand{ServerID: "1", Command: "list"}); !errors.Is(err, schema.ErrNotConnected) {
		t.Fatalf("expected ErrNotConnected, got %v", err)
	}
}

func TestClientRejectedUpgradeReportsConnectError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
	}))
	t.Cleanup(srv.Close)

	client := newTestClient(t, srv, func(cfg *Config) { cfg.DisableReconnect = true })
	errs := make(chan schema.ConnectError, 1)
	client.On(EventConnectError, func(payload json.RawMessage) {
		var ce schema.ConnectError
		_ = json.Unmarshal(payload, &ce)
		errs <- ce
	})
	if err := client.Connect(context.Background()); err != nil {
		t.Fatalf("connect: %v", err)
	}
	got := waitFor(t, errs, "connect_error")
	if !strings.Contains(got.Message, "401") {
		t.Fatalf("expected 401 in connect error, got %q", got.Message)
	}
}

func TestClientReconnectsAfterTransportClose(t *testing.T) {
	var conns atomic.Int32
	srv := newSocketServer(t, func(conn *websocket.Conn, r *http.Request) {
		n := conns.Add(1)
		if _, err := serverHandshake(conn); err != nil {
			t.Errorf("handshake: %v", err)
			return
		}
		if n == 1 {
			return
		}
		drain(conn)
	})

	client := newTestClient(t, srv, nil)
	events := make(chan string, 8)
	client.On(EventConnect, func(json.RawMessage) { events <- "connect" })
	client.On(EventDisconnect, func(payload json.RawMessage) {
		var reason string
		_ = json.Unmarshal(payload, &reason)
		events <- "disconnect:" + reason
	})
	if err := client.Connect(context.Background()); err != nil {
		t.Fatalf("connect: %v", err)
	}
	want := []string{"connect", "disconnect:" + ReasonTransportClose, "connect"}
	for _, w := range want {
		if got := waitFor(t, events, w); got != w {
			t.Fatalf("expected %q, got %q", w, got)
		}
	}
	if got := conns.Load(); got != 2 {
		t.Fatalf("expected 2 connections, got %d", got)
	}
}

func TestClientServerDisconnectStopsReconnect(t *testing.T) {
	var conns atomic.Int32
	srv := newSocketServer(t, func(conn *websocket.Conn, r *http.Request) {
		conns.Add(1)
		if _, err := serverHandshake(conn); err != nil {
			t.Errorf("handshake: %v", err)
			return
		}
		_ = conn.WriteMessage(websocket.TextMessage, []byte("41"))
		drain(conn)
	})

	client := newTestClient(t, srv, nil)
	reasons := make(chan string, 2)
	client.On(EventDisconnect, func(payload json.RawMessage) {
		var reason string
		_ = json.Unmarshal(payload, &reason)
		reasons <- reason
	})
	if err := client.Connect(context.Background()); err != nil {
		t.Fatalf("connect: %v", err)
	}
	if got := waitFor(t, reasons, "disconnect"); got != ReasonServerDisconnect {
		t.Fatalf("unexpected reason: %q", got)
	}
	time.Sleep(100 * time.Millisecond)
	if got := conns.Load(); got != 1 {
		t.Fatalf("expected no reconnect, got %d connections", got)
	}
}

func TestClientCloseReportsClientDisconnect(t *testing.T) {
	disconnectPackets := make(chan string, 1)
	srv := newSocketServer(t, func(conn *websocket.Conn, r *http.Request) {
		if _, err := serverHandshake(conn); err != nil {
			t.Errorf("handshake: %v", err)
			return
		}
		_, msg, err := conn.ReadMessage()
		if err == nil {
			disconnectPackets <- string(msg)
		}
		drain(conn)
	})

	client := newTestClient(t, srv, nil)
	connected := make(chan struct{}, 1)
	reasons := make(chan string, 1)
	client.On(EventConnect, func(json.RawMessage) { connected <- struct{}{} })
	client.On(EventDisconnect, func(payload json.RawMessage) {
		var reason string
		_ = json.Unmarshal(payload, &reason)
		reasons <- reason
	})
	if err := client.Connect(context.Background()); err != nil {
		t.Fatalf("connect: %v", err)
	}
	waitFor(t, connected, "connect event")
	if err := client.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := client.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}
	if got := waitFor(t, disconnectPackets, "disconnect packet"); got != "41" {
		t.Fatalf("unexpected disconnect packet: %q", got)
	}
	if got := waitFor(t, reasons, "disconnect event"); got != ReasonClientDisconnect {
		t.Fatalf("unexpected reason: %q", got)
	}
	if client.Connected() {
		t.Fatalf("expected client to be disconnected")
	}
	if err := client.Connect(context.Background()); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed after close, got %v", err)
	}
}

func TestEndpointURL(t *testing.T) {
	cases := []struct {
		base string
		path string
		want string
	}{
		{"http://panel.local:8000", "/ws/socket.io/", "ws://panel.local:8000/ws/socket.io/?EIO=4&transport=websocket"},
		{"https://panel.example.com/", "ws/socket.io", "wss://panel.example.com/ws/socket.io/?EIO=4&transport=websocket"},
		{"panel.local", "", "ws://panel.local/ws/socket.io/?EIO=4&transport=websocket"},
		{"https://example.com/mcdr", "/ws/socket.io/", "wss://example.com/mcdr/ws/socket.io/?EIO=4&transport=websocket"},
	}
	for _, tc := range cases {
		got, err := EndpointURL(tc.base, tc.path)
		if err != nil {
			t.Fatalf("EndpointURL(%q, %q): %v", tc.base, tc.path, err)
		}
		if got != tc.want {
			t.Fatalf("EndpointURL(%q, %q) = %q, want %q", tc.base, tc.path, got, tc.want)
		}
	}
	for _, bad := range []string{"", "ftp://panel.local", "http://"} {
		if _, err := EndpointURL(bad, ""); err == nil {
			t.Fatalf("expected error for %q", bad)
		}
	}
}
