package appconfig

import (
	"os"
	"path/filepath"

	"pkt.systems/mcdrpanel/schema"
)

// Config is the top-level application configuration.
type Config struct {
	ConfigVersion int           `mapstructure:"config_version" yaml:"config_version"`
	Panel         PanelConfig   `mapstructure:"panel" yaml:"panel"`
	Socket        SocketConfig  `mapstructure:"socket" yaml:"socket"`
	Console       ConsoleConfig `mapstructure:"console" yaml:"console"`
}

// CurrentConfigVersion marks the supported config version.
const CurrentConfigVersion = 1

// PanelConfig points the client at the panel backend.
type PanelConfig struct {
	BaseURL               string `mapstructure:"base_url" yaml:"base_url"`
	Token                 string `mapstructure:"token" yaml:"token"`
	RequestTimeoutSeconds int    `mapstructure:"request_timeout_seconds" yaml:"request_timeout_seconds"`
	InsecureSkipVerify    bool   `mapstructure:"insecure_skip_verify" yaml:"insecure_skip_verify"`
}

// SocketConfig configures the real-time channel.
type SocketConfig struct {
	Path                string  `mapstructure:"path" yaml:"path"`
	Namespace           string  `mapstructure:"namespace" yaml:"namespace"`
	Reconnect           bool    `mapstructure:"reconnect" yaml:"reconnect"`
	ReconnectDelayMS    int     `mapstructure:"reconnect_delay_ms" yaml:"reconnect_delay_ms"`
	ReconnectDelayMaxMS int     `mapstructure:"reconnect_delay_max_ms" yaml:"reconnect_delay_max_ms"`
	Randomization       float64 `mapstructure:"randomization" yaml:"randomization"`
	// ReconnectAttempts of 0 retries forever.
	ReconnectAttempts int `mapstructure:"reconnect_attempts" yaml:"reconnect_attempts"`
}

// ConsoleConfig controls the local console buffer.
type ConsoleConfig struct {
	BufferMaxLines int `mapstructure:"buffer_max_lines" yaml:"buffer_max_lines"`
	// HistoryDir holds per-server command history; empty disables it.
	HistoryDir string `mapstructure:"history_dir" yaml:"history_dir"`
	HistoryMax int    `mapstructure:"history_max" yaml:"history_max"`
}

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		ConfigVersion: CurrentConfigVersion,
		Panel: PanelConfig{
			BaseURL:               "http://127.0.0.1:8000",
			Token:                 "",
			RequestTimeoutSeconds: 15,
			InsecureSkipVerify:    false,
		},
		Socket: SocketConfig{
			Path:                "/ws/socket.io/",
			Namespace:           "/",
			Reconnect:           true,
			ReconnectDelayMS:    1000,
			ReconnectDelayMaxMS: 5000,
			Randomization:       0.5,
			ReconnectAttempts:   0,
		},
		Console: ConsoleConfig{
			BufferMaxLines: schema.DefaultBufferMaxLines,
			HistoryDir:     "$HOME/.mcdrpanel/history",
			HistoryMax:     200,
		},
	}
}

// DefaultConfigPath returns the standard config path.
func DefaultConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".mcdrpanel", "config.yaml"), nil
}
