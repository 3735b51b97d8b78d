package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"pkt.systems/mcdrpanel"
	"pkt.systems/mcdrpanel/internal/appconfig"
	"pkt.systems/mcdrpanel/internal/eventbus"
	"pkt.systems/mcdrpanel/schema"
	"pkt.systems/pslog"
)

func newSendCmd(cfgPath *string) *cobra.Command {
	var timeout time.Duration
	cmd := &cobra.Command{
		Use:   "send <server-id> <command...>",
		Short: "Send a command to a server's console",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			serverID, err := parseServerID(args[0])
			if err != nil {
				return err
			}
			cfg, err := appconfig.Load(*cfgPath)
			if err != nil {
				return err
			}
			logger := pslog.Ctx(cmd.Context())
			console, err := mcdrpanel.Open(cmd.Context(), toConsoleConfig(cfg, serverID), mcdrpanel.WithLogger(logger))
			if err != nil {
				return err
			}
			defer console.Close()

			events, cancel := console.Subscribe()
			defer cancel()
			ctx, stop := context.WithTimeout(cmd.Context(), timeout)
			defer stop()
			if err := waitConnected(ctx, console, events); err != nil {
				return err
			}
			sent := console.Session().SendInput(strings.Join(args[1:], " "))
			if sent == 0 {
				return schema.ErrNotConnected
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "sent %d command(s) to %s\n", sent, serverID)
			return err
		},
	}
	cmd.Flags().DurationVar(&timeout, "timeout", 10*time.Second, "how long to wait for the console connection")
	return cmd
}

func waitConnected(ctx context.Context, console *mcdrpanel.Console, events <-chan eventbus.Event) error {
	for {
		if console.Session().Snapshot().Connection == schema.ConnectionConnected {
			return nil
		}
		select {
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return fmt.Errorf("%w: timed out waiting for console connection", schema.ErrNotConnected)
			}
			return ctx.Err()
		case _, ok := <-events:
			if !ok {
				return schema.ErrNotConnected
			}
		}
	}
}
