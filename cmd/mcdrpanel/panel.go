package main

import (
	"time"

	"pkt.systems/mcdrpanel"
	"pkt.systems/mcdrpanel/internal/appconfig"
	"pkt.systems/mcdrpanel/internal/panelapi"
	"pkt.systems/mcdrpanel/internal/version"
	"pkt.systems/mcdrpanel/schema"
	"pkt.systems/pslog"
)

func newPanelClient(cfg appconfig.Config, logger pslog.Logger) (*panelapi.Client, error) {
	return panelapi.New(panelapi.Config{
		BaseURL:            cfg.Panel.BaseURL,
		Token:              cfg.Panel.Token,
		Timeout:            requestTimeout(cfg),
		InsecureSkipVerify: cfg.Panel.InsecureSkipVerify,
		UserAgent:          version.UserAgent(),
		Logger:             logger,
	})
}

func requestTimeout(cfg appconfig.Config) time.Duration {
	if cfg.Panel.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(cfg.Panel.RequestTimeoutSeconds) * time.Second
}

func toConsoleConfig(cfg appconfig.Config, serverID schema.ServerID) mcdrpanel.Config {
	randomization := cfg.Socket.Randomization
	if randomization == 0 {
		randomization = -1
	}
	return mcdrpanel.Config{
		ServerID:           serverID,
		BaseURL:            cfg.Panel.BaseURL,
		Token:              cfg.Panel.Token,
		RequestTimeout:     requestTimeout(cfg),
		InsecureSkipVerify: cfg.Panel.InsecureSkipVerify,
		BufferMaxLines:     cfg.Console.BufferMaxLines,
		HistoryDir:         cfg.Console.HistoryDir,
		HistoryMax:         cfg.Console.HistoryMax,
		Socket: mcdrpanel.SocketConfig{
			Path:              cfg.Socket.Path,
			Namespace:         cfg.Socket.Namespace,
			DisableReconnect:  !cfg.Socket.Reconnect,
			ReconnectDelay:    time.Duration(cfg.Socket.ReconnectDelayMS) * time.Millisecond,
			ReconnectDelayMax: time.Duration(cfg.Socket.ReconnectDelayMaxMS) * time.Millisecond,
			Randomization:     randomization,
			ReconnectAttempts: cfg.Socket.ReconnectAttempts,
		},
	}
}

func parseServerID(raw string) (schema.ServerID, error) {
	return schema.NormalizeServerID(raw)
}
