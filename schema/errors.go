package schema

import "errors"

var (
	// ErrInvalidServerID indicates an empty or malformed server id.
	ErrInvalidServerID = errors.New("invalid server id")
	// ErrServerNotFound indicates the server id is absent from the roster.
	ErrServerNotFound = errors.New("server not found")
	// ErrNotConnected indicates the real-time channel is not connected.
	ErrNotConnected = errors.New("channel not connected")
	// ErrSessionClosed indicates the console session has been closed.
	ErrSessionClosed = errors.New("session closed")
)
