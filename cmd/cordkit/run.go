package main

import (
	"context"

	"github.com/spf13/cobra"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"cordkit/pkg/config"
	"cordkit/pkg/cron"
	"cordkit/pkg/discord"
	"cordkit/pkg/events"
	"cordkit/pkg/gateway"
	"cordkit/pkg/handler"
	"cordkit/pkg/logger"
)

var watchConfig bool

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Connect to Discord and dispatch interactions",
	Long: `Connect to the Discord gateway, sync commands when handler.sync_on_start
is set, and dispatch interactions until interrupted.

Examples:
  # Run in foreground
  cordkit run

  # Reload the log level when the config file changes
  cordkit run --watch`,
	Run: func(cmd *cobra.Command, args []string) {
		newBotApp(fx.Invoke(func(lc fx.Lifecycle, log *logger.Logger, cfg *config.Config) {
			lc.Append(fx.Hook{
				OnStart: func(ctx context.Context) error {
					log.Info("cordkit started",
						zap.String("mode", "foreground"),
						zap.Bool("gateway", cfg.Gateway.Enabled),
						zap.String("events", cfg.Events.Type))
					log.Info("Press Ctrl+C to stop")
					return nil
				},
			})
		})).Run()
	},
}

func init() {
	runCmd.Flags().BoolVar(&watchConfig, "watch", false, "reload the log level when the config file changes")
}

// newBotApp assembles the long-running bot. fx.App.Run handles SIGINT and
// SIGTERM.
func newBotApp(extra ...fx.Option) *fx.App {
	opts := []fx.Option{
		coreModules(),
		events.Module,
		discord.Module,
		handler.Module,
		cron.Module,
		gateway.Module,
		fx.Invoke(registerExamples),
		fx.NopLogger,
	}
	if watchConfig {
		opts = append(opts, config.WatchModule)
	}
	return fx.New(append(opts, extra...)...)
}
