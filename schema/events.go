package schema

// Channel event names exchanged with the panel backend.
const (
	// EventJoinConsoleRoom asks the backend to route a server's console events to this client.
	EventJoinConsoleRoom = "join_console_room"
	// EventConsoleCommand forwards one command line to a server's stdin.
	EventConsoleCommand = "console_command"
	// EventConsoleLogBatch carries new console lines for the joined room.
	EventConsoleLogBatch = "console_log_batch"
	// EventServerStatusUpdate carries a status change for any server.
	EventServerStatusUpdate = "server_status_update"
	// EventServerDelete announces that a server was deleted.
	EventServerDelete = "server_delete"

	// EventConnect fires once the channel is established (and after each reconnect).
	EventConnect = "connect"
	// EventDisconnect fires when an established channel goes away.
	EventDisconnect = "disconnect"
	// EventConnectError fires when a connection attempt fails.
	EventConnectError = "connect_error"
)

// JoinConsoleRoom is the outbound join_console_room payload.
type JoinConsoleRoom struct {
	ServerID ServerID `json:"server_id"`
}

// ConsoleCommand is the outbound console_command payload.
type ConsoleCommand struct {
	ServerID ServerID `json:"server_id"`
	Command  string   `json:"command"`
}

// ConsoleLogBatch is the inbound console_log_batch payload.
type ConsoleLogBatch struct {
	Logs []string `json:"logs"`
}

// ServerStatusUpdate is the inbound server_status_update payload.
type ServerStatusUpdate struct {
	ID     ServerID     `json:"id"`
	Name   ServerName   `json:"name"`
	Status ServerStatus `json:"status"`
}

// ServerDelete is the inbound server_delete payload.
type ServerDelete struct {
	ID ServerID `json:"id"`
}

// ConnectError is the payload delivered with connect_error.
type ConnectError struct {
	Message string `json:"message"`
}
