package persist

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestStoreLoadMissing(t *testing.T) {
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	commands, err := store.Load("7")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if commands != nil {
		t.Fatalf("expected no history, got %v", commands)
	}
}

func TestStoreSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(dir)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	want := []string{"list", "say hi"}
	if err := store.Save("7", want); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := store.Load("7")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("history mismatch: got %v want %v", got, want)
	}
	info, err := os.Stat(filepath.Join(dir, "7.json"))
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Fatalf("unexpected permissions %v", info.Mode().Perm())
	}
}

func TestStoreSanitizesServerID(t *testing.T) {
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	if got := filepath.Base(store.pathForServer("my server:1")); got != "my_server_1.json" {
		t.Fatalf("unexpected file name %q", got)
	}
	if got := filepath.Base(store.pathForServer("")); got != "unknown.json" {
		t.Fatalf("unexpected file name %q", got)
	}
}

func TestStoreLoadCorrupt(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(dir)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "7.json"), []byte("{"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := store.Load("7"); err == nil {
		t.Fatalf("expected decode error")
	}
}

func TestNewStoreRequiresDir(t *testing.T) {
	if _, err := NewStore(" "); err == nil {
		t.Fatalf("expected error for empty dir")
	}
}
