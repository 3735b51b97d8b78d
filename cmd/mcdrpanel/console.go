package main

import (
	"io"
	"os"

	"github.com/spf13/cobra"

	"pkt.systems/mcdrpanel"
	"pkt.systems/mcdrpanel/internal/appconfig"
	"pkt.systems/mcdrpanel/internal/consoleview"
	"pkt.systems/mcdrpanel/internal/eventbus"
	"pkt.systems/pslog"
)

func newConsoleCmd(cfgPath *string) *cobra.Command {
	var plain bool
	var logFile string
	cmd := &cobra.Command{
		Use:   "console <server-id>",
		Short: "Attach to a server's live console",
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
			ctx := cmd.Context()
			interactive := !plain && consoleview.IsTTY()

			logger := pslog.Ctx(ctx)
			if interactive {
				// The alternate screen owns the terminal; logs go to a file or nowhere.
				var w io.Writer = io.Discard
				if logFile != "" {
					f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
					if err != nil {
						return err
					}
					defer f.Close()
					w = f
				}
				logger = pslog.NewWithOptions(w, pslog.Options{
					Mode:     pslog.ModeStructured,
					NoColor:  true,
					MinLevel: pslog.DebugLevel,
				})
				ctx = pslog.ContextWithLogger(ctx, logger)
			}

			// Subscribe before Open so notices raised while opening reach the view.
			bus := eventbus.New(logger)
			events, cancel := bus.Subscribe(serverID)
			defer cancel()
			opts := []mcdrpanel.Option{mcdrpanel.WithLogger(logger), mcdrpanel.WithEventBus(bus)}
			var printer *consoleview.Printer
			if !interactive {
				printer = consoleview.NewPrinter(cmd.OutOrStdout())
				opts = append(opts, mcdrpanel.WithEventSink(printer))
			}
			console, err := mcdrpanel.Open(ctx, toConsoleConfig(cfg, serverID), opts...)
			if err != nil {
				return err
			}
			defer console.Close()

			if !interactive {
				return consoleview.RunPlain(ctx, console.Session(), cmd.InOrStdin(), printer, events)
			}
			return consoleview.Run(ctx, console.Session(), events)
		},
	}
	cmd.Flags().BoolVar(&plain, "plain", false, "line-oriented output without the interactive view")
	cmd.Flags().StringVar(&logFile, "log-file", "", "write logs to this file while the interactive view is open")
	return cmd
}
