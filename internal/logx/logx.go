package logx

import (
	"context"

	"pkt.systems/mcdrpanel/schema"
	"pkt.systems/pslog"
)

type contextKey int

const (
	serverKey contextKey = iota
	sessionKey
)

// Ctx returns the logger bound to the provided context.
func Ctx(ctx context.Context) pslog.Logger {
	return pslog.Ctx(ctx)
}

// WithServer annotates the logger with the server id if present.
func WithServer(ctx context.Context, serverID schema.ServerID) pslog.Logger {
	log := pslog.Ctx(ctx)
	if serverID != "" {
		if current, ok := ctx.Value(serverKey).(schema.ServerID); ok && current == serverID {
			return log
		}
		log = log.With("server", serverID)
	}
	return log
}

// WithServerSession annotates the logger with server and session identifiers.
func WithServerSession(ctx context.Context, serverID schema.ServerID, sessionID schema.SessionID) pslog.Logger {
	log := WithServer(ctx, serverID)
	if sessionID != "" {
		if current, ok := ctx.Value(sessionKey).(schema.SessionID); ok && current == sessionID {
			return log
		}
		log = log.With("session", sessionID)
	}
	return log
}

// WithSession annotates the logger with a session id when available.
func WithSession(log pslog.Logger, sessionID schema.SessionID) pslog.Logger {
	if sessionID != "" {
		log = log.With("session", sessionID)
	}
	return log
}

// ContextWithServer stores the server marker on the context for log de-duplication.
func ContextWithServer(ctx context.Context, serverID schema.ServerID) context.Context {
	if ctx == nil || serverID == "" {
		return ctx
	}
	return context.WithValue(ctx, serverKey, serverID)
}

// ContextWithSession stores the session marker on the context for log de-duplication.
func ContextWithSession(ctx context.Context, sessionID schema.SessionID) context.Context {
	if ctx == nil || sessionID == "" {
		return ctx
	}
	return context.WithValue(ctx, sessionKey, sessionID)
}

// ContextWithServerLogger attaches the logger and server/session markers to the context.
func ContextWithServerLogger(ctx context.Context, log pslog.Logger, serverID schema.ServerID, sessionID schema.SessionID) context.Context {
	ctx = pslog.ContextWithLogger(ctx, log)
	return ContextWithSession(ContextWithServer(ctx, serverID), sessionID)
}
