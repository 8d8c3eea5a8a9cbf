package handler

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"cordkit/pkg/config"
	"cordkit/pkg/events"
	"cordkit/pkg/logger"
	"cordkit/pkg/rest"
)

// Module provides the Handler and attaches it to the event stream.
var Module = fx.Module("handler",
	fx.Provide(ProvideHandler),
	fx.Invoke(AttachHandler),
)

// ProvideHandler builds a Handler from the handler config section.
func ProvideHandler(client rest.Client, log *logger.Logger, cfg *config.Config) *Handler {
	return New(client, log, Options{
		SyncRate:        cfg.Handler.SyncRate,
		SyncBurst:       cfg.Handler.SyncBurst,
		DispatchTimeout: cfg.Handler.DispatchTimeout,
	})
}

// AttachHandler loads registered structures, subscribes the handler to the
// stream and, when configured, syncs commands on start.
func AttachHandler(lc fx.Lifecycle, h *Handler, stream events.Stream, cfg *config.Config) error {
	if err := h.LoadRegistered(); err != nil {
		return err
	}
	h.Attach(stream)

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if !cfg.Handler.SyncOnStart {
				return nil
			}
			if err := h.Sync(ctx); err != nil {
				h.log.Error("Initial command sync failed", zap.Error(err))
				return err
			}
			return nil
		},
	})
	return nil
}
