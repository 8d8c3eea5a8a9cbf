package config

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"cordkit/pkg/logger"
)

// Path is the explicit config file path given on the command line.
// An empty Path falls back to CORDKIT_CONFIG_FILE and the search paths.
type Path string

// Module provides configuration for fx dependency injection.
var Module = fx.Module("config",
	fx.Provide(ProvideLoader),
	fx.Provide(ProvideConfig),
	fx.Provide(ProvideLoggerConfig),
)

// WatchModule adds hot-reload on top of Module.
var WatchModule = fx.Module("config-watch",
	fx.Provide(ProvideWatcher),
	fx.Invoke(func(*Watcher) {}),
)

// ProvideLoader provides a configuration loader.
func ProvideLoader() *Loader {
	return NewLoader()
}

// ProvideConfig provides loaded and validated configuration.
func ProvideConfig(loader *Loader, path Path) (*Config, error) {
	cfg, err := loader.Load(string(path))
	if err != nil {
		return nil, err
	}
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ProvideLoggerConfig exposes the logger section to the logger module.
func ProvideLoggerConfig(cfg *Config) *logger.Config {
	return cfg.Logger.ToLoggerConfig()
}

// ProvideWatcher provides a configuration watcher with hot-reload.
func ProvideWatcher(loader *Loader, cfg *Config, lc fx.Lifecycle, log *logger.Logger) (*Watcher, error) {
	watcher := NewWatcher(loader, cfg, log)
	watcher.AddHandler(LevelHandler(log))

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Debug("Starting configuration watcher", zap.String("file", loader.GetConfigPath()))
			return watcher.Start()
		},
		OnStop: func(ctx context.Context) error {
			watcher.Stop()
			return nil
		},
	})

	return watcher, nil
}
