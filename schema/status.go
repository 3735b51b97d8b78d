package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// ServerStatus is the lifecycle state reported for a server process.
// Besides the named states it may hold a process exit code.
type ServerStatus string

const (
	// StatusLoading is the placeholder before the roster has been fetched.
	StatusLoading ServerStatus = "loading"
	// StatusRunning indicates the process is up.
	StatusRunning ServerStatus = "running"
	// StatusPending indicates a start was requested and not yet confirmed.
	StatusPending ServerStatus = "pending"
	// StatusStopped indicates the process is not running.
	StatusStopped ServerStatus = "stopped"
	// StatusNewSetup indicates the server has been created but never configured.
	StatusNewSetup ServerStatus = "new_setup"
	// StatusNotExisted indicates the server directory is missing on the backend.
	StatusNotExisted ServerStatus = "not_existed"
	// StatusError indicates the status could not be resolved.
	StatusError ServerStatus = "error"
)

// Known reports whether the status is one of the named states.
func (s ServerStatus) Known() bool {
	switch s {
	case StatusLoading, StatusRunning, StatusPending, StatusStopped,
		StatusNewSetup, StatusNotExisted, StatusError:
		return true
	default:
		return false
	}
}

// ExitCode returns the exit code when the status carries one.
func (s ServerStatus) ExitCode() (int, bool) {
	if !isInteger(string(s)) {
		return 0, false
	}
	code, err := strconv.Atoi(string(s))
	if err != nil {
		return 0, false
	}
	return code, true
}

// Label returns the human-readable status.
func (s ServerStatus) Label() string {
	switch s {
	case StatusLoading:
		return "loading"
	case StatusRunning:
		return "running"
	case StatusPending:
		return "starting"
	case StatusStopped:
		return "stopped"
	case StatusNewSetup:
		return "awaiting setup"
	case StatusNotExisted:
		return "not found"
	case StatusError:
		return "error"
	case "":
		return "unknown"
	default:
		return fmt.Sprintf("exited(%s)", string(s))
	}
}

// MarshalJSON encodes exit codes as numbers and named states as strings.
func (s ServerStatus) MarshalJSON() ([]byte, error) {
	if isInteger(string(s)) {
		return []byte(s), nil
	}
	return json.Marshal(string(s))
}

// UnmarshalJSON accepts a state name or a numeric exit code.
func (s *ServerStatus) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*s = ""
		return nil
	}
	if data[0] == '"' {
		var raw string
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
		*s = ServerStatus(strings.TrimSpace(raw))
		return nil
	}
	var num json.Number
	if err := json.Unmarshal(data, &num); err != nil {
		return fmt.Errorf("invalid server status %s", string(data))
	}
	*s = ServerStatus(num.String())
	return nil
}
