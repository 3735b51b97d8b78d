package core

import (
	"github.com/google/uuid"

	"pkt.systems/mcdrpanel/schema"
)

func newSessionID() schema.SessionID {
	return schema.SessionID(uuid.NewString())
}
