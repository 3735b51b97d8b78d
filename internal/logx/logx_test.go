package logx

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"pkt.systems/pslog"
)

func TestWithServerSessionAddsFields(t *testing.T) {
	capture := &logCapture{}
	logger := newCaptureLogger(capture)
	ctx := pslog.ContextWithLogger(context.Background(), logger)
	log := WithServerSession(ctx, "survival", "abc")
	log.Info("hello")

	entry := capture.firstEntry(t)
	if entry["server"] != "survival" {
		t.Fatalf("expected server field, got %+v", entry)
	}
	if entry["session"] != "abc" {
		t.Fatalf("expected session field, got %+v", entry)
	}
}

func TestWithServerSkipsDuplicateContextField(t *testing.T) {
	capture := &logCapture{}
	logger := newCaptureLogger(capture).With("server", "7")
	ctx := ContextWithServerLogger(context.Background(), logger, "7", "")
	log := WithServer(ctx, "7")
	log.Info("hello")

	line := capture.buf.String()
	if bytes.Count([]byte(line), []byte(`"server"`)) != 1 {
		t.Fatalf("expected a single server field, got %s", line)
	}
}

func TestWithSessionEmptyIsNoop(t *testing.T) {
	capture := &logCapture{}
	logger := newCaptureLogger(capture)
	WithSession(logger, "").Info("hello")

	entry := capture.firstEntry(t)
	if _, ok := entry["session"]; ok {
		t.Fatalf("did not expect session field, got %+v", entry)
	}
}

func newCaptureLogger(capture *logCapture) pslog.Logger {
	return pslog.NewWithOptions(capture, pslog.Options{
		Mode:          pslog.ModeStructured,
		NoColor:       true,
		MinLevel:      pslog.InfoLevel,
		VerboseFields: true,
	})
}

type logCapture struct {
	buf bytes.Buffer
}

func (c *logCapture) Write(p []byte) (int, error) {
	return c.buf.Write(p)
}

func (c *logCapture) firstEntry(t *testing.T) map[string]any {
	t.Helper()
	data := c.buf.Bytes()
	idx := bytes.IndexByte(data, '\n')
	if idx == -1 {
		idx = len(data)
	}
	line := bytes.TrimSpace(data[:idx])
	entry := map[string]any{}
	if err := json.Unmarshal(line, &entry); err != nil {
		t.Fatalf("parse log entry: %v", err)
	}
	return entry
}
