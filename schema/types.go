package schema

import (
	"bytes"
	"encoding/json"
	"strings"
)

// ServerID identifies a managed server process on the panel backend.
// The backend treats it as opaque; all-digit ids travel as JSON numbers.
type ServerID string

// ServerName is the display name of a managed server.
type ServerName string

// SessionID correlates log entries of one console session.
type SessionID string

// String returns the raw id.
func (id ServerID) String() string {
	return string(id)
}

// MarshalJSON encodes numeric ids as JSON numbers and everything else as strings.
func (id ServerID) MarshalJSON() ([]byte, error) {
	if isInteger(string(id)) {
		return []byte(id), nil
	}
	return json.Marshal(string(id))
}

// UnmarshalJSON accepts both JSON strings and JSON numbers.
func (id *ServerID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if data[0] == '"' {
		var raw string
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
		*id = ServerID(strings.TrimSpace(raw))
		return nil
	}
	var num json.Number
	if err := json.Unmarshal(data, &num); err != nil {
		return ErrInvalidServerID
	}
	*id = ServerID(num.String())
	return nil
}

// ConnectionState describes the real-time channel lifecycle.
type ConnectionState string

const (
	// ConnectionDisconnected indicates no live channel.
	ConnectionDisconnected ConnectionState = "disconnected"
	// ConnectionConnecting indicates a channel dial is in flight.
	ConnectionConnecting ConnectionState = "connecting"
	// ConnectionConnected indicates the channel is established.
	ConnectionConnected ConnectionState = "connected"
)

// Server is one roster entry returned by the panel backend.
type Server struct {
	ID     ServerID     `json:"id"`
	Name   ServerName   `json:"name"`
	Status ServerStatus `json:"status"`
}

func isInteger(value string) bool {
	if value == "" {
		return false
	}
	digits := value
	if digits[0] == '-' {
		digits = digits[1:]
	}
	if digits == "" || len(digits) > 18 {
		return false
	}
	if len(digits) > 1 && digits[0] == '0' {
		return false
	}
	for _, r := range digits {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
