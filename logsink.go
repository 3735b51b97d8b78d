package mcdrpanel

import (
	"pkt.systems/mcdrpanel/schema"
	"pkt.systems/pslog"
)

// logSink mirrors session state changes and notices into the log.
type logSink struct {
	log pslog.Logger
}

func (s logSink) OnLines(event schema.LinesEvent) {
	s.log.Trace("console lines", "server", event.ServerID, "count", len(event.Lines))
}

func (s logSink) OnReset(event schema.ResetEvent) {
	s.log.Debug("console reset", "server", event.ServerID, "lines", len(event.Lines))
}

func (s logSink) OnState(event schema.StateEvent) {
	s.log.Debug("console state",
		"server", event.ServerID,
		"status", string(event.Status),
		"connection", string(event.Connection),
	)
}

func (s logSink) OnNotice(event schema.NoticeEvent) {
	switch event.Level {
	case schema.NoticeError:
		s.log.Warn("console notice", "server", event.ServerID, "message", event.Message)
	default:
		s.log.Info("console notice", "server", event.ServerID, "level", string(event.Level), "message", event.Message)
	}
}
