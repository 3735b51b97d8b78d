package core

import "pkt.systems/mcdrpanel/schema"

// EventSink receives buffer, state and notice events from a console session.
type EventSink interface {
	OnLines(event schema.LinesEvent)
	OnReset(event schema.ResetEvent)
	OnState(event schema.StateEvent)
	OnNotice(event schema.NoticeEvent)
}

type nopSink struct{}

func (nopSink) OnLines(schema.LinesEvent)   {}
func (nopSink) OnReset(schema.ResetEvent)   {}
func (nopSink) OnState(schema.StateEvent)   {}
func (nopSink) OnNotice(schema.NoticeEvent) {}
