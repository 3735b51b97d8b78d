package schema

import (
	"encoding/json"
	"testing"
)

func TestServerStatusLabel(t *testing.T) {
	cases := []struct {
		status ServerStatus
		want   string
	}{
		{StatusRunning, "running"},
		{StatusPending, "starting"},
		{StatusStopped, "stopped"},
		{StatusNewSetup, "awaiting setup"},
		{StatusNotExisted, "not found"},
		{StatusError, "error"},
		{StatusLoading, "loading"},
		{"137", "exited(137)"},
		{"crashed", "exited(crashed)"},
		{"", "unknown"},
	}
	for _, tc := range cases {
		if got := tc.status.Label(); got != tc.want {
			t.Fatalf("Label(%q) = %q, want %q", tc.status, got, tc.want)
		}
	}
}

func TestServerStatusUnmarshalExitCode(t *testing.T) {
	var update ServerStatusUpdate
	if err := json.Unmarshal([]byte(`{"id":3,"name":"lobby","status":137}`), &update); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if update.ID != "3" || update.Name != "lobby" {
		t.Fatalf("unexpected update: %+v", update)
	}
	code, ok := update.Status.ExitCode()
	if !ok || code != 137 {
		t.Fatalf("expected exit code 137, got %d (%v)", code, ok)
	}
	if update.Status.Known() {
		t.Fatalf("exit code must not be a known state")
	}
}

func TestServerStatusUnmarshalName(t *testing.T) {
	var status ServerStatus
	if err := json.Unmarshal([]byte(`"running"`), &status); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if status != StatusRunning || !status.Known() {
		t.Fatalf("expected running, got %q", status)
	}
	if _, ok := status.ExitCode(); ok {
		t.Fatalf("named state must not carry an exit code")
	}
}
