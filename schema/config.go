package schema

// SessionConfig defines the identity and limits of a console session.
type SessionConfig struct {
	ServerID       ServerID
	BufferMaxLines int
	// CommandHistory seeds the sent-command history, oldest first.
	CommandHistory    []string
	CommandHistoryMax int
}

// DefaultBufferMaxLines is the default console buffer limit.
const DefaultBufferMaxLines = 2000

// NormalizeSessionConfig applies defaults and validates the config.
func NormalizeSessionConfig(cfg SessionConfig) (SessionConfig, error) {
	id, err := NormalizeServerID(string(cfg.ServerID))
	if err != nil {
		return SessionConfig{}, err
	}
	cfg.ServerID = id
	if cfg.BufferMaxLines <= 0 {
		cfg.BufferMaxLines = DefaultBufferMaxLines
	}
	return cfg, nil
}
