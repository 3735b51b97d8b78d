package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"pkt.systems/mcdrpanel/internal/appconfig"
	"pkt.systems/mcdrpanel/schema"
	"pkt.systems/pslog"
)

func newServersCmd(cfgPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "servers",
		Short: "List servers and their status",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := appconfig.Load(*cfgPath)
			if err != nil {
				return err
			}
			client, err := newPanelClient(cfg, pslog.Ctx(cmd.Context()))
			if err != nil {
				return err
			}
			servers, err := client.ListServers(cmd.Context())
			if err != nil {
				return err
			}
			return printServers(cmd.OutOrStdout(), servers)
		},
	}
}

func printServers(w io.Writer, servers []schema.Server) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "ID\tNAME\tSTATUS")
	for _, server := range servers {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\n", server.ID, server.Name, server.Status.Label())
	}
	return tw.Flush()
}
