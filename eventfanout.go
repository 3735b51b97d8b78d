package mcdrpanel

import (
	"pkt.systems/mcdrpanel/core"
	"pkt.systems/mcdrpanel/schema"
)

type eventFanout struct {
	sinks []core.EventSink
}

func (f eventFanout) OnLines(event schema.LinesEvent) {
	for _, sink := range f.sinks {
		if sink == nil {
			continue
		}
		sink.OnLines(event)
	}
}

func (f eventFanout) OnReset(event schema.ResetEvent) {
	for _, sink := range f.sinks {
		if sink == nil {
			continue
		}
		sink.OnReset(event)
	}
}

func (f eventFanout) OnState(event schema.StateEvent) {
	for _, sink := range f.sinks {
		if sink == nil {
			continue
		}
		sink.OnState(event)
	}
}

func (f eventFanout) OnNotice(event schema.NoticeEvent) {
	for _, sink := range f.sinks {
		if sink == nil {
			continue
		}
		sink.OnNotice(event)
	}
}
