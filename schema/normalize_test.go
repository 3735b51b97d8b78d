package schema

import "testing"

func TestNormalizeServerID(t *testing.T) {
	cases := []struct {
		name  string
		raw   string
		want  ServerID
		valid bool
	}{
		{"numeric", "7", "7", true},
		{"trimmed", "  12 ", "12", true},
		{"slug", "survival-1", "survival-1", true},
		{"empty", "", "", false},
		{"blank", "   ", "", false},
		{"slash", "a/b", "", false},
		{"query", "1?x=2", "", false},
		{"inner-space", "a b", "", false},
		{"control", "a\x00", "", false},
	}

	for _, tc := range cases {
		got, err := NormalizeServerID(tc.raw)
		if tc.valid && err != nil {
			t.Fatalf("case %q expected valid, got error: %v", tc.name, err)
		}
		if !tc.valid && err == nil {
			t.Fatalf("case %q expected error, got nil", tc.name)
		}
		if tc.valid && got != tc.want {
			t.Fatalf("case %q: got %q, want %q", tc.name, got, tc.want)
		}
	}
}

func TestNormalizeSessionConfigDefaults(t *testing.T) {
	cfg, err := NormalizeSessionConfig(SessionConfig{ServerID: " 3 "})
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if cfg.ServerID != "3" {
		t.Fatalf("expected server id 3, got %q", cfg.ServerID)
	}
	if cfg.BufferMaxLines != DefaultBufferMaxLines {
		t.Fatalf("expected default buffer limit %d, got %d", DefaultBufferMaxLines, cfg.BufferMaxLines)
	}
	if _, err := NormalizeSessionConfig(SessionConfig{}); err != ErrInvalidServerID {
		t.Fatalf("expected ErrInvalidServerID, got %v", err)
	}
}
