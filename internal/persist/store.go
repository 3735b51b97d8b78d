package persist

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"pkt.systems/mcdrpanel/schema"
	"pkt.systems/pslog"
)

// HistorySnapshot is the persisted command history of one server.
type HistorySnapshot struct {
	ServerID schema.ServerID `json:"server_id"`
	Commands []string        `json:"commands"`
}

// Store persists per-server command history to disk.
type Store struct {
	dir string
	log pslog.Logger
}

// NewStore constructs a persistent store at the given directory.
func NewStore(dir string) (*Store, error) {
	return NewStoreWithLogger(dir, nil)
}

// NewStoreWithLogger constructs a persistent store with logging.
func NewStoreWithLogger(dir string, logger pslog.Logger) (*Store, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("history directory is required")
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, err
	}
	if logger != nil {
		logger = logger.With("history_dir", dir)
	}
	return &Store{dir: dir, log: logger}, nil
}

// Load reads the command history of a server. A missing file is not an error.
func (s *Store) Load(serverID schema.ServerID) ([]string, error) {
	path := s.pathForServer(serverID)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			s.debug("history load miss", "server", serverID)
			return nil, nil
		}
		s.warn("history load failed", "server", serverID, "err", err)
		return nil, err
	}
	var snapshot HistorySnapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		s.warn("history load failed", "server", serverID, "err", err)
		return nil, err
	}
	s.debug("history load ok", "server", serverID, "commands", len(snapshot.Commands))
	return snapshot.Commands, nil
}

// Save atomically replaces the command history of a server.
func (s *Store) Save(serverID schema.ServerID, commands []string) error {
	path := s.pathForServer(serverID)
	data, err := json.MarshalIndent(HistorySnapshot{ServerID: serverID, Commands: commands}, "", "  ")
	if err != nil {
		s.warn("history save failed", "server", serverID, "err", err)
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), "history-*.json")
	if err != nil {
		s.warn("history save failed", "server", serverID, "err", err)
		return err
	}
	cleanup := func(err error) error {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		s.warn("history save failed", "server", serverID, "err", err)
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		return cleanup(err)
	}
	if err := tmp.Sync(); err != nil {
		return cleanup(err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		s.warn("history save failed", "server", serverID, "err", err)
		return err
	}
	if err := os.Chmod(tmp.Name(), 0o600); err != nil {
		_ = os.Remove(tmp.Name())
		s.warn("history save failed", "server", serverID, "err", err)
		return err
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		_ = os.Remove(tmp.Name())
		s.warn("history save failed", "server", serverID, "err", err)
		return err
	}
	s.trace("history save ok", "server", serverID, "commands", len(commands))
	return nil
}

func (s *Store) pathForServer(serverID schema.ServerID) string {
	name := sanitize(string(serverID))
	if name == "" {
		name = "unknown"
	}
	return filepath.Join(s.dir, name+".json")
}

func (s *Store) debug(msg string, kv ...any) {
	if s.log != nil {
		s.log.Debug(msg, kv...)
	}
}

func (s *Store) trace(msg string, kv ...any) {
	if s.log != nil {
		s.log.Trace(msg, kv...)
	}
}

func (s *Store) warn(msg string, kv ...any) {
	if s.log != nil {
		s.log.Warn(msg, kv...)
	}
}

func sanitize(value string) string {
	var b strings.Builder
	for _, r := range value {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			continue
		}
		if r == '-' || r == '_' || r == '.' {
			b.WriteRune(r)
			continue
		}
		b.WriteRune('_')
	}
	return b.String()
}
