package core

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"pkt.systems/mcdrpanel/internal/logx"
	"pkt.systems/mcdrpanel/schema"
	"pkt.systems/pslog"
)

// SystemPrefix marks lines generated by the client rather than the server process.
const SystemPrefix = "[System] "

// sessionEvents lists every channel event a session subscribes to.
var sessionEvents = []string{
	schema.EventConnect,
	schema.EventDisconnect,
	schema.EventConnectError,
	schema.EventConsoleLogBatch,
	schema.EventServerStatusUpdate,
	schema.EventServerDelete,
}

// Session is the live client-side view of one server's console.
//
// Status may hold a locally predicted value (pending after Start). A predicted
// value is only ever overwritten, by the authoritative status from the backend
// or by the revert on a failed start, never merged.
type Session struct {
	cfg     schema.SessionConfig
	id      schema.SessionID
	api     ServerAPI
	channel Channel
	sink    EventSink
	logger  pslog.Logger

	mu        sync.Mutex
	name      schema.ServerName
	status    schema.ServerStatus
	conn      schema.ConnectionState
	predicted bool
	buf       *buffer
	commands  *commandHistory
	opened    bool
	closed    bool
}

// outbox collects events produced under the session lock so they can be
// delivered after it is released.
type outbox []any

// NewSession constructs a console session for cfg.ServerID.
func NewSession(cfg schema.SessionConfig, deps SessionDeps) (*Session, error) {
	normalized, err := schema.NormalizeSessionConfig(cfg)
	if err != nil {
		return nil, err
	}
	if deps.API == nil {
		return nil, errors.New("server api is required")
	}
	if deps.Channel == nil {
		return nil, errors.New("channel is required")
	}
	sink := deps.EventSink
	if sink == nil {
		sink = nopSink{}
	}
	logger := deps.Logger
	if logger == nil {
		logger = pslog.Ctx(context.Background())
	}
	id := newSessionID()
	return &Session{
		cfg:      normalized,
		id:       id,
		api:      deps.API,
		channel:  deps.Channel,
		sink:     sink,
		logger:   logx.WithSession(logger.With("server", string(normalized.ServerID)), id),
		name:     schema.ServerName(normalized.ServerID),
		status:   schema.StatusLoading,
		conn:     schema.ConnectionDisconnected,
		buf:      newBufferWithMaxLines(normalized.BufferMaxLines),
		commands: newCommandHistory(normalized.CommandHistoryMax, normalized.CommandHistory),
	}, nil
}

// ID returns the session correlation id.
func (s *Session) ID() schema.SessionID {
	return s.id
}

// ServerID returns the server this session is bound to.
func (s *Session) ServerID() schema.ServerID {
	return s.cfg.ServerID
}

// Open resolves the server, loads the log history and connects the channel.
// Resolution and history failures are reported through the session itself and
// do not fail Open; only a channel that cannot be started returns an error.
func (s *Session) Open(ctx context.Context) error {
	if ctx == nil {
		return errors.New("missing context")
	}
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return schema.ErrSessionClosed
	}
	if s.opened {
		s.mu.Unlock()
		return errors.New("session already opened")
	}
	s.opened = true
	s.mu.Unlock()

	s.logger.Info("console session open start", "buffer_max_lines", s.cfg.BufferMaxLines)
	s.resolveServer(ctx)
	s.loadHistory(ctx)
	if err := s.connect(ctx); err != nil {
		s.logger.Warn("console session connect failed", "err", err)
		return err
	}
	s.logger.Info("console session open ok")
	return nil
}

func (s *Session) resolveServer(ctx context.Context) {
	servers, err := s.api.ListServers(ctx)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	var notice string
	switch {
	case err != nil:
		s.logger.Warn("console session roster fetch failed", "err", err)
		s.status = schema.StatusError
		notice = fmt.Sprintf("failed to load servers: %v", err)
	default:
		found := false
		for _, server := range servers {
			if server.ID != s.cfg.ServerID {
				continue
			}
			found = true
			if server.Name != "" {
				s.name = server.Name
			}
			if server.Status != "" {
				s.status = server.Status
			}
			break
		}
		if !found {
			s.logger.Warn("console session server not found", "servers", len(servers))
			s.status = schema.StatusError
			notice = fmt.Sprintf("%v: %s", schema.ErrServerNotFound, s.cfg.ServerID)
		}
	}
	s.predicted = false
	out := outbox{s.stateEventLocked()}
	if notice != "" {
		out = append(out, s.noticeLocked(schema.NoticeError, notice))
	}
	s.mu.Unlock()
	s.deliver(out)
}

func (s *Session) loadHistory(ctx context.Context) {
	logs, err := s.api.ServerLogs(ctx, s.cfg.ServerID)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	switch {
	case err != nil:
		s.logger.Warn("console session history fetch failed", "err", err)
		s.buf.Replace([]string{systemLine(fmt.Sprintf("failed to load log history: %v", err))})
	case len(logs) == 0:
		s.buf.Replace([]string{systemLine("no log history")})
	default:
		s.buf.Replace(logs)
	}
	s.logger.Debug("console session history loaded", "lines", s.buf.Len())
	out := outbox{schema.ResetEvent{ServerID: s.cfg.ServerID, Lines: s.buf.Lines()}}
	s.mu.Unlock()
	s.deliver(out)
}

func (s *Session) connect(ctx context.Context) error {
	s.channel.On(schema.EventConnect, s.handleConnect)
	s.channel.On(schema.EventDisconnect, s.handleDisconnect)
	s.channel.On(schema.EventConnectError, s.handleConnectError)
	s.channel.On(schema.EventConsoleLogBatch, s.handleLogBatch)
	s.channel.On(schema.EventServerStatusUpdate, s.handleStatusUpdate)
	s.channel.On(schema.EventServerDelete, s.handleServerDelete)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return schema.ErrSessionClosed
	}
	s.conn = schema.ConnectionConnecting
	out := outbox{s.stateEventLocked()}
	s.mu.Unlock()
	s.deliver(out)

	if err := s.channel.Connect(ctx); err != nil {
		s.mu.Lock()
		s.conn = schema.ConnectionDisconnected
		line := systemLine(fmt.Sprintf("connection failed: %v", err))
		s.buf.Append(line)
		out := outbox{s.stateEventLocked(), s.linesEventLocked(line)}
		s.mu.Unlock()
		s.deliver(out)
		return fmt.Errorf("connect channel: %w", err)
	}
	return nil
}

// Close detaches every channel handler and closes the channel. Results of
// requests still in flight are ignored once Close returns.
func (s *Session) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	for _, event := range sessionEvents {
		s.channel.Off(event)
	}
	err := s.channel.Close()
	s.logger.Info("console session closed")
	return err
}

// CommandHistory returns the commands sent so far, oldest first, including
// any seeded history.
func (s *Session) CommandHistory() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.commands.List()
}

// Snapshot returns a copy of the current session state.
func (s *Session) Snapshot() schema.SessionSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return schema.SessionSnapshot{
		ServerID:   s.cfg.ServerID,
		Name:       s.name,
		Status:     s.status,
		Connection: s.conn,
		Lines:      s.buf.Lines(),
		Predicted:  s.predicted,
	}
}

func (s *Session) stateEventLocked() schema.StateEvent {
	return schema.StateEvent{
		ServerID:   s.cfg.ServerID,
		Name:       s.name,
		Status:     s.status,
		Connection: s.conn,
	}
}

func (s *Session) linesEventLocked(lines ...string) schema.LinesEvent {
	return schema.LinesEvent{ServerID: s.cfg.ServerID, Lines: lines}
}

func (s *Session) noticeLocked(level schema.NoticeLevel, message string) schema.NoticeEvent {
	return schema.NoticeEvent{ServerID: s.cfg.ServerID, Level: level, Message: message}
}

func (s *Session) deliver(out outbox) {
	for _, event := range out {
		switch ev := event.(type) {
		case schema.LinesEvent:
			s.sink.OnLines(ev)
		case schema.ResetEvent:
			s.sink.OnReset(ev)
		case schema.StateEvent:
			s.sink.OnState(ev)
		case schema.NoticeEvent:
			s.sink.OnNotice(ev)
		}
	}
}

func systemLine(text string) string {
	return SystemPrefix + text
}
