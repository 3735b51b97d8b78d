package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"pkt.systems/mcdrpanel/internal/appconfig"
	"pkt.systems/mcdrpanel/internal/panelapi"
	"pkt.systems/mcdrpanel/schema"
	"pkt.systems/pslog"
)

func newLifecycleCmd(cfgPath *string, action, short string) *cobra.Command {
	return &cobra.Command{
		Use:   action + " <server-id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			serverID, err := parseServerID(args[0])
			if err != nil {
				return err
			}
			cfg, err := appconfig.Load(*cfgPath)
			if err != nil {
				return err
			}
			logger := pslog.Ctx(cmd.Context()).With("server", serverID)
			client, err := newPanelClient(cfg, logger)
			if err != nil {
				return err
			}
			call := lifecycleCall(client, action)
			if err := call(cmd.Context(), serverID); err != nil {
				return fmt.Errorf("%s failed: %w", action, err)
			}
			logger.Info("server "+action+" requested")
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s requested for %s\n", action, serverID)
			return err
		},
	}
}

func lifecycleCall(client *panelapi.Client, action string) func(context.Context, schema.ServerID) error {
	switch action {
	case "stop":
		return client.StopServer
	case "restart":
		return client.RestartServer
	default:
		return client.StartServer
	}
}
