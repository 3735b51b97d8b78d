package schema

// SessionSnapshot is a read-only copy of console session state.
type SessionSnapshot struct {
	ServerID   ServerID
	Name       ServerName
	Status     ServerStatus
	Connection ConnectionState
	Lines      []string
	// Predicted is true while Status holds an optimistic value not yet confirmed.
	Predicted bool
}
