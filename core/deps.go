package core

import (
	"context"
	"encoding/json"

	"pkt.systems/mcdrpanel/schema"
	"pkt.systems/pslog"
)

// ServerAPI is the subset of the panel REST API a console session uses.
type ServerAPI interface {
	ListServers(ctx context.Context) ([]schema.Server, error)
	ServerLogs(ctx context.Context, id schema.ServerID) ([]string, error)
	StartServer(ctx context.Context, id schema.ServerID) error
	StopServer(ctx context.Context, id schema.ServerID) error
	RestartServer(ctx context.Context, id schema.ServerID) error
}

// Channel is a persistent bidirectional event channel to the panel backend.
// Handlers may be invoked from a goroutine owned by the channel.
type Channel interface {
	On(event string, handler func(payload json.RawMessage))
	Off(event string)
	Emit(event string, payload any) error
	Connect(ctx context.Context) error
	Close() error
}

// SessionDeps captures the dependencies of a console session.
type SessionDeps struct {
	API       ServerAPI
	Channel   Channel
	EventSink EventSink
	Logger    pslog.Logger
}
