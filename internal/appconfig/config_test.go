package appconfig

import "testing"

func TestDefaultConfigMirrorsBrowserReconnect(t *testing.T) {
	cfg := DefaultConfig()
	if !cfg.Socket.Reconnect {
		t.Fatalf("expected reconnect to default on")
	}
	if cfg.Socket.ReconnectDelayMS != 1000 || cfg.Socket.ReconnectDelayMaxMS != 5000 {
		t.Fatalf("unexpected reconnect delays: %+v", cfg.Socket)
	}
	if cfg.Socket.ReconnectAttempts != 0 {
		t.Fatalf("expected unlimited reconnect attempts, got %d", cfg.Socket.ReconnectAttempts)
	}
	if cfg.Socket.Path != "/ws/socket.io/" {
		t.Fatalf("unexpected socket path %q", cfg.Socket.Path)
	}
	if cfg.Console.BufferMaxLines != 2000 {
		t.Fatalf("unexpected buffer max lines %d", cfg.Console.BufferMaxLines)
	}
	if err := Validate(cfg); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
}
