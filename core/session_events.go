package core

import (
	"encoding/json"
	"fmt"
	"strings"

	"pkt.systems/mcdrpanel/schema"
)

func (s *Session) handleConnect(json.RawMessage) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.conn = schema.ConnectionConnected
	s.mu.Unlock()

	if err := s.channel.Emit(schema.EventJoinConsoleRoom, schema.JoinConsoleRoom{ServerID: s.cfg.ServerID}); err != nil {
		s.logger.Warn("console session join room failed", "err", err)
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	line := systemLine(fmt.Sprintf("connected to console of %s", s.displayNameLocked()))
	s.buf.Append(line)
	out := outbox{s.stateEventLocked(), s.linesEventLocked(line)}
	s.mu.Unlock()
	s.logger.Info("console session connected")
	s.deliver(out)
}

func (s *Session) handleDisconnect(payload json.RawMessage) {
	reason := decodeReason(payload)
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.conn = schema.ConnectionDisconnected
	text := "disconnected from console"
	if reason != "" {
		text += " (" + reason + ")"
	}
	line := systemLine(text)
	s.buf.Append(line)
	out := outbox{s.stateEventLocked(), s.linesEventLocked(line)}
	s.mu.Unlock()
	s.logger.Info("console session disconnected", "reason", reason)
	s.deliver(out)
}

func (s *Session) handleConnectError(payload json.RawMessage) {
	message := decodeConnectError(payload)
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	line := systemLine("connection error: " + message)
	s.buf.Append(line)
	out := outbox{s.linesEventLocked(line)}
	s.mu.Unlock()
	s.logger.Debug("console session connect error", "message", message)
	s.deliver(out)
}

// handleLogBatch appends lines for the joined room. Room scoping is done by
// the backend; the payload carries no server id to filter on.
func (s *Session) handleLogBatch(payload json.RawMessage) {
	var batch schema.ConsoleLogBatch
	if err := json.Unmarshal(payload, &batch); err != nil {
		s.logger.Debug("console session log batch ignored", "err", err)
		return
	}
	if batch.Logs == nil {
		s.logger.Debug("console session log batch ignored", "reason", "missing logs")
		return
	}
	if len(batch.Logs) == 0 {
		return
	}
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.buf.Append(batch.Logs...)
	out := outbox{s.linesEventLocked(append([]string(nil), batch.Logs...)...)}
	s.mu.Unlock()
	s.deliver(out)
}

func (s *Session) handleStatusUpdate(payload json.RawMessage) {
	var update schema.ServerStatusUpdate
	if err := json.Unmarshal(payload, &update); err != nil {
		s.logger.Debug("console session status update ignored", "err", err)
		return
	}
	if update.ID != s.cfg.ServerID {
		return
	}
	if update.Status == "" {
		s.logger.Debug("console session status update ignored", "reason", "missing status")
		return
	}
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	changed := s.status != update.Status
	s.status = update.Status
	s.predicted = false
	if update.Name != "" {
		s.name = update.Name
	}
	out := outbox{s.stateEventLocked()}
	if changed {
		line := systemLine("server status changed: " + update.Status.Label())
		s.buf.Append(line)
		out = append(out, s.linesEventLocked(line))
	}
	s.mu.Unlock()
	if changed {
		s.logger.Info("console session status changed", "status", string(update.Status))
	}
	s.deliver(out)
}

func (s *Session) handleServerDelete(payload json.RawMessage) {
	var notice schema.ServerDelete
	if err := json.Unmarshal(payload, &notice); err != nil {
		s.logger.Debug("console session delete notice ignored", "err", err)
		return
	}
	if notice.ID != s.cfg.ServerID {
		return
	}
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	line := systemLine("warning: this server has been deleted")
	s.buf.Append(line)
	out := outbox{s.linesEventLocked(line)}
	s.mu.Unlock()
	s.logger.Warn("console session server deleted")
	s.deliver(out)
}

func (s *Session) displayNameLocked() string {
	if s.name != "" {
		return string(s.name)
	}
	return string(s.cfg.ServerID)
}

func decodeReason(payload json.RawMessage) string {
	if len(payload) == 0 {
		return ""
	}
	var reason string
	if err := json.Unmarshal(payload, &reason); err == nil {
		return strings.TrimSpace(reason)
	}
	return strings.TrimSpace(string(payload))
}

func decodeConnectError(payload json.RawMessage) string {
	if len(payload) == 0 {
		return "unknown error"
	}
	var ce schema.ConnectError
	if err := json.Unmarshal(payload, &ce); err == nil && ce.Message != "" {
		return ce.Message
	}
	var message string
	if err := json.Unmarshal(payload, &message); err == nil && message != "" {
		return message
	}
	return strings.TrimSpace(string(payload))
}
