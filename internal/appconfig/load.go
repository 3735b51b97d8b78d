package appconfig

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Load reads configuration from the provided path. If path is empty, uses
// DefaultConfigPath. A missing file yields the defaults.
func Load(path string) (Config, error) {
	if path == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			return Config{}, err
		}
		path = defaultPath
	}

	cfg := DefaultConfig()

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetDefault("config_version", cfg.ConfigVersion)
	v.SetDefault("panel.base_url", cfg.Panel.BaseURL)
	v.SetDefault("panel.token", cfg.Panel.Token)
	v.SetDefault("panel.request_timeout_seconds", cfg.Panel.RequestTimeoutSeconds)
	v.SetDefault("panel.insecure_skip_verify", cfg.Panel.InsecureSkipVerify)
	v.SetDefault("socket.path", cfg.Socket.Path)
	v.SetDefault("socket.namespace", cfg.Socket.Namespace)
	v.SetDefault("socket.reconnect", cfg.Socket.Reconnect)
	v.SetDefault("socket.reconnect_delay_ms", cfg.Socket.ReconnectDelayMS)
	v.SetDefault("socket.reconnect_delay_max_ms", cfg.Socket.ReconnectDelayMaxMS)
	v.SetDefault("socket.randomization", cfg.Socket.Randomization)
	v.SetDefault("socket.reconnect_attempts", cfg.Socket.ReconnectAttempts)
	v.SetDefault("console.buffer_max_lines", cfg.Console.BufferMaxLines)
	v.SetDefault("console.history_dir", cfg.Console.HistoryDir)
	v.SetDefault("console.history_max", cfg.Console.HistoryMax)

	configLoaded := false
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			return Config{}, err
		}
	} else {
		configLoaded = true
	}

	if configLoaded {
		if !v.IsSet("config_version") {
			return Config{}, fmt.Errorf("config_version is required; expected %d", CurrentConfigVersion)
		}
		if v.GetInt("config_version") != CurrentConfigVersion {
			return Config{}, fmt.Errorf("unsupported config_version %d; expected %d", v.GetInt("config_version"), CurrentConfigVersion)
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}
	expandConfigEnv(&cfg)
	if err := Validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks values that would otherwise fail late at connect time.
func Validate(cfg Config) error {
	baseURL := strings.TrimSpace(cfg.Panel.BaseURL)
	if baseURL == "" {
		return errors.New("panel.base_url is required")
	}
	parsed, err := url.Parse(baseURL)
	if err != nil || parsed.Host == "" || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return fmt.Errorf("panel.base_url must include an http or https scheme and host (e.g. http://127.0.0.1:8000)")
	}
	if cfg.Panel.RequestTimeoutSeconds < 0 {
		return fmt.Errorf("panel.request_timeout_seconds must not be negative")
	}
	if ns := strings.TrimSpace(cfg.Socket.Namespace); ns != "" && !strings.HasPrefix(ns, "/") {
		return fmt.Errorf("socket.namespace must start with '/'")
	}
	if strings.Contains(cfg.Socket.Path, "://") || strings.ContainsAny(cfg.Socket.Path, "?#") {
		return fmt.Errorf("socket.path must be a plain path")
	}
	if cfg.Socket.ReconnectDelayMS < 0 || cfg.Socket.ReconnectDelayMaxMS < 0 || cfg.Socket.ReconnectAttempts < 0 {
		return fmt.Errorf("socket reconnect settings must not be negative")
	}
	if cfg.Socket.Randomization < 0 || cfg.Socket.Randomization > 1 {
		return fmt.Errorf("socket.randomization must be between 0 and 1")
	}
	if cfg.Console.BufferMaxLines < 0 || cfg.Console.HistoryMax < 0 {
		return fmt.Errorf("console limits must not be negative")
	}
	return nil
}

func expandConfigEnv(cfg *Config) {
	if cfg == nil {
		return
	}
	cfg.Panel.BaseURL = expandEnv(cfg.Panel.BaseURL)
	cfg.Panel.Token = expandEnv(cfg.Panel.Token)
	cfg.Console.HistoryDir = expandEnv(cfg.Console.HistoryDir)
}

func expandEnv(value string) string {
	if value == "" {
		return value
	}
	return os.Expand(value, func(key string) string {
		if key == "" {
			return ""
		}
		if val, ok := os.LookupEnv(key); ok {
			return val
		}
		return "$" + key
	})
}

// WriteDefault writes the default config to the target path.
func WriteDefault(path string, overwrite bool) (string, error) {
	if path == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			return "", err
		}
		path = defaultPath
	}

	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return "", fmt.Errorf("config already exists at %s", path)
		}
	}

	data, err := yaml.Marshal(DefaultConfig())
	if err != nil {
		return "", err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", err
	}
	return path, nil
}
