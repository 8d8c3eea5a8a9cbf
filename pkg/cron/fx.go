package cron

import (
	"context"

	"go.uber.org/fx"

	"cordkit/pkg/config"
	"cordkit/pkg/handler"
	"cordkit/pkg/logger"
)

// Module schedules periodic command sync when handler.resync_schedule is
// set.
var Module = fx.Module("cron",
	fx.Invoke(registerResync),
)

func registerResync(lc fx.Lifecycle, log *logger.Logger, h *handler.Handler, cfg *config.Config) error {
	if cfg.Handler.ResyncSchedule == "" {
		return nil
	}

	manager, err := New(log, h, cfg.Handler.ResyncSchedule)
	if err != nil {
		return err
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return manager.Start()
		},
		OnStop: func(ctx context.Context) error {
			return manager.Stop()
		},
	})
	return nil
}
