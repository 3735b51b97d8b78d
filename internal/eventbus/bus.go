package eventbus

import (
	"context"
	"sync"

	"pkt.systems/mcdrpanel/schema"
	"pkt.systems/pslog"
)

// EventType identifies the event payload.
type EventType string

const (
	// EventLines carries lines appended to a console buffer.
	EventLines EventType = "lines"
	// EventReset carries a console buffer replaced wholesale.
	EventReset EventType = "reset"
	// EventState carries name, status and connection changes.
	EventState EventType = "state"
	// EventNotice carries a transient notification.
	EventNotice EventType = "notice"
)

// Event represents a view-facing event emitted by a console session.
type Event struct {
	Type   EventType
	Lines  schema.LinesEvent
	Reset  schema.ResetEvent
	State  schema.StateEvent
	Notice schema.NoticeEvent
}

// Bus fans out session events to per-server subscribers.
type Bus struct {
	mu    sync.Mutex
	subs  map[schema.ServerID]map[chan Event]struct{}
	log   pslog.Logger
	depth int
}

// New constructs a Bus.
func New(logger pslog.Logger) *Bus {
	if logger == nil {
		logger = pslog.Ctx(context.Background())
	}
	return &Bus{
		subs:  make(map[schema.ServerID]map[chan Event]struct{}),
		log:   logger,
		depth: 256,
	}
}

// Subscribe registers a subscriber for the server and returns a channel + cancel.
func (b *Bus) Subscribe(serverID schema.ServerID) (<-chan Event, func()) {
	if b == nil {
		return nil, func() {}
	}
	ch := make(chan Event, b.depth)
	b.mu.Lock()
	serverSubs := b.subs[serverID]
	if serverSubs == nil {
		serverSubs = make(map[chan Event]struct{})
		b.subs[serverID] = serverSubs
	}
	serverSubs[ch] = struct{}{}
	count := len(serverSubs)
	b.mu.Unlock()
	b.log.With("server", serverID).Debug("eventbus subscribe", "subs", count)

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			if subs := b.subs[serverID]; subs != nil {
				delete(subs, ch)
				if len(subs) == 0 {
					delete(b.subs, serverID)
				}
			}
			close(ch)
			b.mu.Unlock()
			b.log.With("server", serverID).Debug("eventbus unsubscribe")
		})
	}
}

// OnLines publishes appended lines.
func (b *Bus) OnLines(event schema.LinesEvent) {
	b.publish(event.ServerID, Event{Type: EventLines, Lines: event})
}

// OnReset publishes a buffer reset.
func (b *Bus) OnReset(event schema.ResetEvent) {
	b.publish(event.ServerID, Event{Type: EventReset, Reset: event})
}

// OnState publishes a state change.
func (b *Bus) OnState(event schema.StateEvent) {
	b.publish(event.ServerID, Event{Type: EventState, State: event})
}

// OnNotice publishes a notification.
func (b *Bus) OnNotice(event schema.NoticeEvent) {
	b.publish(event.ServerID, Event{Type: EventNotice, Notice: event})
}

func (b *Bus) publish(serverID schema.ServerID, event Event) {
	if b == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	serverSubs := b.subs[serverID]
	if len(serverSubs) == 0 {
		return
	}
	dropped := 0
	for sub := range serverSubs {
		select {
		case sub <- event:
		default:
			dropped++
		}
	}
	if dropped > 0 {
		b.log.With("server", serverID).Trace("eventbus dropped", "type", event.Type, "count", dropped)
	}
}
