package schema

// LinesEvent represents lines appended to a console buffer.
type LinesEvent struct {
	ServerID ServerID
	Lines    []string
}

// ResetEvent represents a console buffer replaced wholesale.
type ResetEvent struct {
	ServerID ServerID
	Lines    []string
}

// StateEvent represents a change to name, status or connection state.
type StateEvent struct {
	ServerID   ServerID
	Name       ServerName
	Status     ServerStatus
	Connection ConnectionState
}

// NoticeLevel grades transient notifications.
type NoticeLevel string

const (
	// NoticeSuccess reports a completed action.
	NoticeSuccess NoticeLevel = "success"
	// NoticeWarning reports a non-fatal problem.
	NoticeWarning NoticeLevel = "warning"
	// NoticeError reports a failed action.
	NoticeError NoticeLevel = "error"
)

// NoticeEvent is a transient user-facing notification.
type NoticeEvent struct {
	ServerID ServerID
	Level    NoticeLevel
	Message  string
}
