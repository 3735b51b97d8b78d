package socketio

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"net/http"
	"net/url"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"pkt.systems/mcdrpanel/schema"
	"pkt.systems/pslog"
)

// Reserved event names delivered by the client itself.
const (
	EventConnect      = schema.EventConnect
	EventDisconnect   = schema.EventDisconnect
	EventConnectError = schema.EventConnectError
)

// Disconnect reasons, as reported by the browser client.
const (
	ReasonServerDisconnect = "io server disconnect"
	ReasonClientDisconnect = "io client disconnect"
	ReasonPingTimeout      = "ping timeout"
	ReasonTransportClose   = "transport close"
	ReasonTransportError   = "transport error"
)

const (
	defaultPath              = "/ws/socket.io/"
	defaultHandshakeTimeout  = 15 * time.Second
	defaultReconnectDelay    = time.Second
	defaultReconnectDelayMax = 5 * time.Second
	defaultRandomization     = 0.5
	defaultPingInterval      = 25 * time.Second
	defaultPingTimeout       = 20 * time.Second
)

// ErrClosed indicates the client was closed.
var ErrClosed = errors.New("socket.io client closed")

// Handler receives the first argument of an event, or nil when none was sent.
type Handler func(payload json.RawMessage)

// Config configures a Socket.IO client.
type Config struct {
	// URL is the panel base URL (http, https, ws or wss).
	URL string
	// Path is the Engine.IO endpoint path (default /ws/socket.io/).
	Path string
	// Namespace is the Socket.IO namespace (default /).
	Namespace string
	// Token is sent as a bearer header and as the connect auth payload.
	Token              string
	Header             http.Header
	InsecureSkipVerify bool
	HandshakeTimeout   time.Duration

	// DisableReconnect turns off automatic reconnection.
	DisableReconnect  bool
	ReconnectDelay    time.Duration
	ReconnectDelayMax time.Duration
	// RandomizationFactor jitters each delay by up to this fraction
	// (default 0.5, negative disables jitter).
	RandomizationFactor float64
	// ReconnectAttempts caps consecutive reconnection attempts; 0 is unlimited.
	ReconnectAttempts int

	Logger pslog.Logger
}

// Client is a Socket.IO v5 client over a single WebSocket transport.
type Client struct {
	cfg      Config
	endpoint string
	dialer   *websocket.Dialer
	log      pslog.Logger

	mu        sync.Mutex
	handlers  map[string]Handler
	conn      *websocket.Conn
	connected bool
	started   bool
	closed    bool
	cancel    context.CancelFunc
	done      chan struct{}

	writeMu sync.Mutex
}

// errNoReconnect marks session endings after which the client must not redial.
type errNoReconnect struct{ reason string }

func (e errNoReconnect) Error() string { return e.reason }

// New validates cfg and constructs a client. No connection is made until Connect.
func New(cfg Config) (*Client, error) {
	endpoint, err := EndpointURL(cfg.URL, cfg.Path)
	if err != nil {
		return nil, err
	}
	cfg.Namespace = strings.TrimSpace(cfg.Namespace)
	if cfg.Namespace == "" {
		cfg.Namespace = "/"
	}
	if !strings.HasPrefix(cfg.Namespace, "/") {
		return nil, fmt.Errorf("socket.io namespace must start with '/': %q", cfg.Namespace)
	}
	if cfg.HandshakeTimeout <= 0 {
		cfg.HandshakeTimeout = defaultHandshakeTimeout
	}
	if cfg.ReconnectDelay <= 0 {
		cfg.ReconnectDelay = defaultReconnectDelay
	}
	if cfg.ReconnectDelayMax <= 0 {
		cfg.ReconnectDelayMax = defaultReconnectDelayMax
	}
	if cfg.ReconnectDelayMax < cfg.ReconnectDelay {
		cfg.ReconnectDelayMax = cfg.ReconnectDelay
	}
	switch {
	case cfg.RandomizationFactor == 0 || cfg.RandomizationFactor > 1:
		cfg.RandomizationFactor = defaultRandomization
	case cfg.RandomizationFactor < 0:
		cfg.RandomizationFactor = 0
	}
	logger := cfg.Logger
	if logger == nil {
		logger = pslog.Ctx(context.Background())
	}
	dialer := &websocket.Dialer{
		Proxy:            http.ProxyFromEnvironment,
		HandshakeTimeout: cfg.HandshakeTimeout,
	}
	if cfg.InsecureSkipVerify {
		dialer.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}
	return &Client{
		cfg:      cfg,
		endpoint: endpoint,
		dialer:   dialer,
		log:      logger.With("namespace", cfg.Namespace),
		handlers: make(map[string]Handler),
	}, nil
}

// EndpointURL derives the WebSocket endpoint for a panel base URL and
// Engine.IO path.
func EndpointURL(baseURL, enginePath string) (string, error) {
	raw := strings.TrimSpace(baseURL)
	if raw == "" {
		return "", errors.New("socket.io url is required")
	}
	if !strings.Contains(raw, "://") {
		raw = "http://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("parse socket.io url: %w", err)
	}
	switch u.Scheme {
	case "http", "ws":
		u.Scheme = "ws"
	case "https", "wss":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("unsupported socket.io url scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return "", errors.New("socket.io url must include a host")
	}
	enginePath = strings.TrimSpace(enginePath)
	if enginePath == "" {
		enginePath = defaultPath
	}
	u.Path = path.Join("/", u.Path, enginePath) + "/"
	u.RawPath = ""
	u.Fragment = ""
	query := url.Values{}
	query.Set("EIO", "4")
	query.Set("transport", "websocket")
	u.RawQuery = query.Encode()
	return u.String(), nil
}

// On registers the handler for event, replacing any previous one.
func (c *Client) On(event string, handler func(payload json.RawMessage)) {
	c.mu.Lock()
	c.handlers[event] = handler
	c.mu.Unlock()
}

// Off removes the handler for event.
func (c *Client) Off(event string) {
	c.mu.Lock()
	delete(c.handlers, event)
	c.mu.Unlock()
}

// Connected reports whether the namespace is currently connected.
func (c *Client) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}

// Connect starts the connection loop in the background and returns
// immediately. Outcomes are reported through the connect, connect_error and
// disconnect events. The loop ends when ctx is done or Close is called.
func (c *Client) Connect(ctx context.Context) error {
	if ctx == nil {
		return errors.New("missing context")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	if c.started {
		return nil
	}
	runCtx, cancel := context.WithCancel(ctx)
	c.started = true
	c.cancel = cancel
	c.done = make(chan struct{})
	go c.run(runCtx)
	return nil
}

// Emit sends an event with one argument. It fails with schema.ErrNotConnected
// when the namespace is not connected.
func (c *Client) Emit(event string, payload any) error {
	data, err := encodeEvent(event, payload)
	if err != nil {
		return err
	}
	c.mu.Lock()
	conn := c.conn
	connected := c.connected
	c.mu.Unlock()
	if !connected || conn == nil {
		return schema.ErrNotConnected
	}
	return c.write(conn, encodePacket(packet{Type: packetEvent, Namespace: c.cfg.Namespace, Data: data}))
}

// Close disconnects and stops reconnection. It is safe to call more than once.
func (c *Client) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	conn := c.conn
	connected := c.connected
	cancel := c.cancel
	done := c.done
	c.mu.Unlock()

	if conn != nil && connected {
		_ = c.write(conn, encodePacket(packet{Type: packetDisconnect, Namespace: c.cfg.Namespace}))
	}
	if cancel != nil {
		cancel()
	}
	if conn != nil {
		_ = conn.Close()
	}
	if done != nil {
		select {
		case <-done:
		case <-time.After(c.cfg.HandshakeTimeout):
			c.log.Warn("socket.io close timed out waiting for reader")
		}
	}
	return nil
}

func (c *Client) run(ctx context.Context) {
	defer close(c.done)
	attempt := 0
	for {
		connected, err := c.session(ctx)
		if ctx.Err() != nil {
			return
		}
		var stop errNoReconnect
		if errors.As(err, &stop) {
			c.log.Info("socket.io reconnect disabled", "reason", stop.reason)
			return
		}
		if c.cfg.DisableReconnect {
			return
		}
		if connected {
			attempt = 0
		}
		attempt++
		if c.cfg.ReconnectAttempts > 0 && attempt > c.cfg.ReconnectAttempts {
			c.log.Warn("socket.io reconnect attempts exhausted", "attempts", c.cfg.ReconnectAttempts)
			return
		}
		delay := c.backoff(attempt)
		c.log.Debug("socket.io reconnect scheduled", "attempt", attempt, "delay_ms", delay.Milliseconds(), "err", err)
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
	}
}

// backoff mirrors the exponential backoff of the browser client.
func (c *Client) backoff(attempt int) time.Duration {
	base := float64(c.cfg.ReconnectDelay)
	ms := base * math.Pow(2, float64(attempt-1))
	if factor := c.cfg.RandomizationFactor; factor > 0 {
		deviation := rand.Float64() * factor * ms
		if rand.IntN(2) == 0 {
			ms -= deviation
		} else {
			ms += deviation
		}
	}
	if limit := float64(c.cfg.ReconnectDelayMax); ms > limit {
		ms = limit
	}
	if ms < 0 {
		ms = 0
	}
	return time.Duration(ms)
}

// session runs one transport connection to completion. It reports whether
// the namespace connected at least once.
func (c *Client) session(ctx context.Context) (bool, error) {
	header := http.Header{}
	for k, v := range c.cfg.Header {
		header[k] = append([]string(nil), v...)
	}
	if c.cfg.Token != "" {
		header.Set("Authorization", "Bearer "+c.cfg.Token)
	}
	conn, res, err := c.dialer.DialContext(ctx, c.endpoint, header)
	if err != nil {
		if res != nil && res.StatusCode != http.StatusSwitchingProtocols {
			err = fmt.Errorf("websocket handshake: %s", res.Status)
		}
		if ctx.Err() == nil {
			c.dispatch(EventConnectError, mustJSON(schema.ConnectError{Message: err.Error()}))
		}
		return false, err
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		_ = conn.Close()
		return false, ErrClosed
	}
	c.conn = conn
	c.mu.Unlock()

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.Close()
		case <-stop:
		}
	}()

	connected, reason, err := c.readLoop(conn)

	c.mu.Lock()
	wasConnected := c.connected
	c.connected = false
	c.conn = nil
	closed := c.closed
	c.mu.Unlock()
	_ = conn.Close()

	if wasConnected {
		if closed || ctx.Err() != nil {
			reason = ReasonClientDisconnect
		}
		c.dispatch(EventDisconnect, mustJSON(reason))
	}
	c.log.Debug("socket.io session ended", "reason", reason, "err", err)
	return connected, err
}

func (c *Client) readLoop(conn *websocket.Conn) (bool, string, error) {
	pingWindow := defaultPingInterval + defaultPingTimeout
	_ = conn.SetReadDeadline(time.Now().Add(c.cfg.HandshakeTimeout))

	opened := false
	connected := false
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			var netErr interface{ Timeout() bool }
			if errors.As(err, &netErr) && netErr.Timeout() {
				if !connected {
					c.dispatch(EventConnectError, mustJSON(schema.ConnectError{Message: "timeout"}))
				}
				return connected, ReasonPingTimeout, err
			}
			if !connected && !c.isClosed() {
				c.dispatch(EventConnectError, mustJSON(schema.ConnectError{Message: err.Error()}))
			}
			return connected, ReasonTransportClose, err
		}
		msg := string(data)
		if msg == "" {
			continue
		}
		switch msg[0] {
		case engineOpen:
			var open openPayload
			if err := json.Unmarshal([]byte(msg[1:]), &open); err != nil {
				return connected, ReasonTransportError, fmt.Errorf("decode engine.io open: %w", err)
			}
			if open.PingInterval > 0 && open.PingTimeout > 0 {
				pingWindow = time.Duration(open.PingInterval+open.PingTimeout) * time.Millisecond
			}
			opened = true
			_ = conn.SetReadDeadline(time.Now().Add(pingWindow))
			if err := c.write(conn, c.connectPacket()); err != nil {
				return connected, ReasonTransportError, err
			}
		case enginePing:
			_ = conn.SetReadDeadline(time.Now().Add(pingWindow))
			if err := c.write(conn, string(enginePong)+msg[1:]); err != nil {
				return connected, ReasonTransportError, err
			}
		case enginePong, engineNoop:
		case engineClose:
			return connected, ReasonTransportClose, nil
		case engineMessage:
			if !opened {
				return connected, ReasonTransportError, errors.New("message before engine.io open")
			}
			_ = conn.SetReadDeadline(time.Now().Add(pingWindow))
			p, err := decodePacket(msg[1:])
			if err != nil {
				c.log.Debug("socket.io packet ignored", "err", err)
				continue
			}
			if p.Namespace != c.cfg.Namespace {
				continue
			}
			switch p.Type {
			case packetConnect:
				c.mu.Lock()
				c.connected = true
				c.mu.Unlock()
				connected = true
				c.log.Info("socket.io connected")
				c.dispatch(EventConnect, p.Data)
			case packetConnectError:
				c.dispatch(EventConnectError, p.Data)
				return connected, ReasonServerDisconnect, errNoReconnect{reason: "connect refused by server"}
			case packetDisconnect:
				return connected, ReasonServerDisconnect, errNoReconnect{reason: ReasonServerDisconnect}
			case packetEvent:
				name, arg, err := decodeEvent(p.Data)
				if err != nil {
					c.log.Debug("socket.io event ignored", "err", err)
					continue
				}
				if isReserved(name) {
					continue
				}
				c.dispatch(name, arg)
			default:
				c.log.Trace("socket.io packet skipped", "type", string(p.Type))
			}
		default:
			c.log.Trace("engine.io packet skipped", "type", string(msg[0]))
		}
	}
}

func (c *Client) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func (c *Client) connectPacket() string {
	p := packet{Type: packetConnect, Namespace: c.cfg.Namespace}
	if c.cfg.Token != "" {
		p.Data = mustJSON(map[string]string{"token": c.cfg.Token})
	}
	return encodePacket(p)
}

func (c *Client) write(conn *websocket.Conn, msg string) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_ = conn.SetWriteDeadline(time.Now().Add(c.cfg.HandshakeTimeout))
	return conn.WriteMessage(websocket.TextMessage, []byte(msg))
}

func (c *Client) dispatch(event string, payload json.RawMessage) {
	c.mu.Lock()
	handler := c.handlers[event]
	c.mu.Unlock()
	if handler == nil {
		return
	}
	handler(payload)
}

func isReserved(event string) bool {
	switch event {
	case EventConnect, EventDisconnect, EventConnectError:
		return true
	default:
		return false
	}
}

func mustJSON(v any) json.RawMessage {
	data, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return data
}
