package main

import (
	"context"
	"log"
	"os"

	"github.com/spf13/cobra"

	"pkt.systems/psi"
	"pkt.systems/pslog"
)

func main() {
	psi.Run(submain)
}

func submain(ctx context.Context) int {
	logger := pslog.LoggerFromEnv(
		pslog.WithEnvWriter(os.Stderr),
		pslog.WithEnvOptions(pslog.Options{Mode: pslog.ModeConsole}),
	)
	ctx = pslog.ContextWithLogger(ctx, logger)
	log.SetOutput(pslog.LogLogger(logger).Writer())
	log.SetFlags(0)

	root := newRootCmd()
	root.SetArgs(os.Args[1:])

	if err := root.ExecuteContext(ctx); err != nil {
		pslog.Ctx(ctx).With("err", err).Error("mcdrpanel command failed")
		return 1
	}
	return 0
}

func newRootCmd() *cobra.Command {
	var cfgPath string
	root := &cobra.Command{
		Use:           "mcdrpanel",
		Short:         "Terminal client for the MCDReforged server panel",
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	root.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "path to config file")

	root.AddCommand(newConsoleCmd(&cfgPath))
	root.AddCommand(newServersCmd(&cfgPath))
	root.AddCommand(newLogsCmd(&cfgPath))
	root.AddCommand(newLifecycleCmd(&cfgPath, "start", "Start a server"))
	root.AddCommand(newLifecycleCmd(&cfgPath, "stop", "Stop a server"))
	root.AddCommand(newLifecycleCmd(&cfgPath, "restart", "Restart a server"))
	root.AddCommand(newSendCmd(&cfgPath))
	root.AddCommand(newConfigCmd())
	root.AddCommand(newVersionCmd())

	return root
}
