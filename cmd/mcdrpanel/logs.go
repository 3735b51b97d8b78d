package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"pkt.systems/mcdrpanel/internal/appconfig"
	"pkt.systems/pslog"
)

func newLogsCmd(cfgPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "logs <server-id>",
		Short: "Print a server's console history",
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
			client, err := newPanelClient(cfg, pslog.Ctx(cmd.Context()))
			if err != nil {
				return err
			}
			lines, err := client.ServerLogs(cmd.Context(), serverID)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, line := range lines {
				if _, err := fmt.Fprintln(out, line); err != nil {
					return err
				}
			}
			return nil
		},
	}
}
