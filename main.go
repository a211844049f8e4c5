package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/danielgtaylor/huma/v2/humacli"
	"github.com/spf13/cobra"

	"github.com/smazurov/baylight/cmd"
	"github.com/smazurov/baylight/internal/config"
	"github.com/smazurov/baylight/internal/logging"
	"github.com/smazurov/baylight/internal/version"
)

func main() {
	var cli humacli.CLI
	cli = humacli.New(func(hooks humacli.Hooks, opts *cmd.Options) {
		// Load configuration automatically
		if loadErr := config.LoadConfig(opts, cli.Root()); loadErr != nil {
			slog.Warn("Failed to load config", "error", loadErr)
		}

		logging.Initialize(opts.LoggingConfig())
		logger := logging.GetLogger("main")

		ctx, cancel := context.WithCancel(context.Background())
		finished := make(chan struct{})

		hooks.OnStart(func() {
			defer close(finished)
			if err := runDaemon(ctx, opts); err != nil {
				logger.Error("baylightd failed", "error", err)
				os.Exit(1)
			}
		})

		hooks.OnStop(func() {
			logger.Info("Shutting down")
			cancel()
			<-finished
		})
	})

	root := cli.Root()
	root.Use = version.Program
	root.Short = "Drive bay LED daemon for NAS appliances"
	root.Version = version.String()
	root.SetVersionTemplate("{{.Version}}\n")
	root.Flags().BoolP("version", "V", false, "Print version and exit")

	for _, sub := range []*cobra.Command{
		cmd.CreateLightshowCmd(),
		cmd.CreateXmasCmd(),
		cmd.CreateUsbCmd(),
		cmd.CreateStatusCmd(),
	} {
		root.AddCommand(sub)
	}

	cli.Run()
}
