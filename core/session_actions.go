package core

import (
	"context"
	"fmt"

	"pkt.systems/mcdrpanel/schema"
)

// SendInput splits input into commands and emits one console_command per
// command, in order. Nothing is sent while the channel is not connected.
// It returns the number of commands handed to the channel; delivery is not
// acknowledged.
func (s *Session) SendInput(input string) int {
	commands := SplitCommands(input)
	if len(commands) == 0 {
		return 0
	}
	s.mu.Lock()
	ready := !s.closed && s.conn == schema.ConnectionConnected
	s.mu.Unlock()
	if !ready {
		s.logger.Debug("console session input dropped", "reason", "not connected", "commands", len(commands))
		return 0
	}
	sent := 0
	for _, command := range commands {
		err := s.channel.Emit(schema.EventConsoleCommand, schema.ConsoleCommand{ServerID: s.cfg.ServerID, Command: command})
		if err != nil {
			s.logger.Warn("console session command emit failed", "err", err)
			continue
		}
		s.mu.Lock()
		s.commands.Record(command)
		s.mu.Unlock()
		sent++
	}
	s.logger.Debug("console session input sent", "commands", sent)
	return sent
}

// Start requests a server start. The status is set to pending before the
// request is made; the running state arrives later as a status update. If the
// request fails while the prediction is still in place the status reverts to
// stopped.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return schema.ErrSessionClosed
	}
	s.status = schema.StatusPending
	s.predicted = true
	out := outbox{s.stateEventLocked()}
	s.mu.Unlock()
	s.deliver(out)

	s.logger.Info("console session start requested")
	err := s.api.StartServer(ctx, s.cfg.ServerID)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return err
	}
	out = nil
	if err != nil {
		if s.predicted {
			s.status = schema.StatusStopped
			s.predicted = false
			out = append(out, s.stateEventLocked())
		}
		out = append(out, s.noticeLocked(schema.NoticeError, fmt.Sprintf("start failed: %v", err)))
	} else {
		out = append(out, s.noticeLocked(schema.NoticeSuccess, "start requested"))
	}
	s.mu.Unlock()
	if err != nil {
		s.logger.Warn("console session start failed", "err", err)
	}
	s.deliver(out)
	return err
}

// Stop requests a server stop. Local status is left to the status updates.
func (s *Session) Stop(ctx context.Context) error {
	return s.lifecycle(ctx, "stop", s.api.StopServer)
}

// Restart requests a server restart. Local status is left to the status updates.
func (s *Session) Restart(ctx context.Context) error {
	return s.lifecycle(ctx, "restart", s.api.RestartServer)
}

func (s *Session) lifecycle(ctx context.Context, action string, call func(context.Context, schema.ServerID) error) error {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return schema.ErrSessionClosed
	}

	s.logger.Info("console session "+action+" requested")
	err := call(ctx, s.cfg.ServerID)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return err
	}
	var out outbox
	if err != nil {
		out = outbox{s.noticeLocked(schema.NoticeError, fmt.Sprintf("%s failed: %v", action, err))}
	} else {
		out = outbox{s.noticeLocked(schema.NoticeSuccess, action+" requested")}
	}
	s.mu.Unlock()
	if err != nil {
		s.logger.Warn("console session "+action+" failed", "err", err)
	}
	s.deliver(out)
	return err
}
