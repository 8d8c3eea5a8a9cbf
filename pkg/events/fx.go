package events

import (
	"context"

	"go.uber.org/fx"

	"cordkit/pkg/config"
	"cordkit/pkg/logger"
)

// Module is the fx module for the event stream.
var Module = fx.Module("events",
	fx.Provide(ProvideStream),
)

// ProvideStream creates the configured stream and ties it to the app
// lifecycle.
func ProvideStream(lc fx.Lifecycle, log *logger.Logger, cfg *config.Config) (Stream, error) {
	streamConfig := &Config{
		Type:          StreamType(cfg.Events.Type),
		BufferSize:    cfg.Events.BufferSize,
		RedisAddr:     cfg.Redis.Addr,
		RedisPassword: cfg.Redis.Password,
		RedisDB:       cfg.Redis.DB,
		RedisPrefix:   cfg.Events.Prefix,
	}

	stream, err := NewStream(log, streamConfig)
	if err != nil {
		return nil, err
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return stream.Start()
		},
		OnStop: func(ctx context.Context) error {
			return stream.Stop()
		},
	})

	return stream, nil
}
