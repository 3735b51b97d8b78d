package mcdrpanel

import (
	"context"
	"errors"
	"net/http"
	"time"

	"pkt.systems/mcdrpanel/core"
	"pkt.systems/mcdrpanel/internal/eventbus"
	"pkt.systems/mcdrpanel/internal/panelapi"
	"pkt.systems/mcdrpanel/internal/persist"
	"pkt.systems/mcdrpanel/internal/socketio"
	"pkt.systems/mcdrpanel/internal/version"
	"pkt.systems/mcdrpanel/schema"
	"pkt.systems/pslog"
)

// Config configures a console for one server.
type Config struct {
	ServerID           schema.ServerID
	BaseURL            string
	Token              string
	RequestTimeout     time.Duration
	InsecureSkipVerify bool
	BufferMaxLines     int
	// HistoryDir persists sent commands per server; empty disables it.
	HistoryDir string
	HistoryMax int
	Socket     SocketConfig
}

// SocketConfig configures the real-time channel.
type SocketConfig struct {
	Path              string
	Namespace         string
	DisableReconnect  bool
	ReconnectDelay    time.Duration
	ReconnectDelayMax time.Duration
	// Randomization jitters reconnect delays; negative disables jitter,
	// zero selects the default.
	Randomization     float64
	ReconnectAttempts int
}

// Option customizes console composition.
type Option func(*options)

type options struct {
	sinks   []core.EventSink
	logger  pslog.Logger
	api     core.ServerAPI
	channel core.Channel
	bus     *eventbus.Bus
}

// WithEventSink adds a sink that receives every session event in order.
func WithEventSink(sink core.EventSink) Option {
	return func(o *options) {
		if sink != nil {
			o.sinks = append(o.sinks, sink)
		}
	}
}

// WithLogger overrides the logger taken from the context.
func WithLogger(logger pslog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithServerAPI replaces the REST client.
func WithServerAPI(api core.ServerAPI) Option {
	return func(o *options) { o.api = api }
}

// WithChannel replaces the Socket.IO channel.
func WithChannel(channel core.Channel) Option {
	return func(o *options) { o.channel = channel }
}

// WithEventBus publishes to bus instead of a fresh one. Subscribing to bus
// before Open observes the events published while the session opens.
func WithEventBus(bus *eventbus.Bus) Option {
	return func(o *options) { o.bus = bus }
}

// Console is an opened console session plus its event bus.
type Console struct {
	session *core.Session
	bus     *eventbus.Bus
	history *persist.Store
	log     pslog.Logger
}

// Open builds the REST client, channel, event bus and session for
// cfg.ServerID, then opens the session. The channel keeps connecting in the
// background after Open returns.
func Open(ctx context.Context, cfg Config, opts ...Option) (*Console, error) {
	if ctx == nil {
		return nil, errors.New("missing context")
	}
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	logger := o.logger
	if logger == nil {
		logger = pslog.Ctx(ctx)
	}
	serverID, err := schema.NormalizeServerID(string(cfg.ServerID))
	if err != nil {
		return nil, err
	}

	api := o.api
	if api == nil {
		client, err := panelapi.New(panelapi.Config{
			BaseURL:            cfg.BaseURL,
			Token:              cfg.Token,
			Timeout:            cfg.RequestTimeout,
			InsecureSkipVerify: cfg.InsecureSkipVerify,
			UserAgent:          version.UserAgent(),
			Logger:             logger,
		})
		if err != nil {
			return nil, err
		}
		api = client
	}
	channel := o.channel
	if channel == nil {
		client, err := socketio.New(socketio.Config{
			URL:                 cfg.BaseURL,
			Path:                cfg.Socket.Path,
			Namespace:           cfg.Socket.Namespace,
			Token:               cfg.Token,
			InsecureSkipVerify:  cfg.InsecureSkipVerify,
			Header:              http.Header{"User-Agent": {version.UserAgent()}},
			DisableReconnect:    cfg.Socket.DisableReconnect,
			ReconnectDelay:      cfg.Socket.ReconnectDelay,
			ReconnectDelayMax:   cfg.Socket.ReconnectDelayMax,
			RandomizationFactor: cfg.Socket.Randomization,
			ReconnectAttempts:   cfg.Socket.ReconnectAttempts,
			Logger:              logger.With("server", serverID),
		})
		if err != nil {
			return nil, err
		}
		channel = client
	}

	bus := o.bus
	if bus == nil {
		bus = eventbus.New(logger)
	}
	sinks := make([]core.EventSink, 0, len(o.sinks)+2)
	sinks = append(sinks, logSink{log: logger}, bus)
	sinks = append(sinks, o.sinks...)

	var store *persist.Store
	var commands []string
	if cfg.HistoryDir != "" {
		store, err = persist.NewStoreWithLogger(cfg.HistoryDir, logger)
		if err != nil {
			logger.Warn("command history disabled", "err", err)
			store = nil
		} else if commands, err = store.Load(serverID); err != nil {
			logger.Warn("command history load failed", "err", err)
		}
	}

	session, err := core.NewSession(schema.SessionConfig{
		ServerID:          serverID,
		BufferMaxLines:    cfg.BufferMaxLines,
		CommandHistory:    commands,
		CommandHistoryMax: cfg.HistoryMax,
	}, core.SessionDeps{
		API:       api,
		Channel:   channel,
		EventSink: eventFanout{sinks: sinks},
		Logger:    logger,
	})
	if err != nil {
		return nil, err
	}
	if err := session.Open(ctx); err != nil {
		_ = session.Close()
		return nil, err
	}
	return &Console{session: session, bus: bus, history: store, log: logger}, nil
}

// Session returns the underlying console session.
func (c *Console) Session() *core.Session {
	return c.session
}

// Subscribe registers for events of this console's server. Cancel closes the
// returned channel.
func (c *Console) Subscribe() (<-chan eventbus.Event, func()) {
	return c.bus.Subscribe(c.session.ServerID())
}

// Close closes the session and its channel, then saves the command history.
func (c *Console) Close() error {
	err := c.session.Close()
	if c.history != nil {
		if saveErr := c.history.Save(c.session.ServerID(), c.session.CommandHistory()); saveErr != nil {
			c.log.Warn("command history save failed", "err", saveErr)
		}
	}
	return err
}
