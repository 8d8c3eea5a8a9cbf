package config

import (
	"fmt"
	"sync"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"cordkit/pkg/logger"
)

// ChangeHandler is a callback function called when configuration changes.
type ChangeHandler func(*Config) error

// Watcher monitors configuration file for changes and triggers reload.
type Watcher struct {
	loader   *Loader
	config   *Config
	log      *logger.Logger
	handlers []ChangeHandler
	mu       sync.RWMutex
	watching bool
}

// NewWatcher creates a new configuration watcher.
func NewWatcher(loader *Loader, config *Config, log *logger.Logger) *Watcher {
	return &Watcher{
		loader:   loader,
		config:   config,
		log:      log.System("config"),
		handlers: make([]ChangeHandler, 0),
	}
}

// AddHandler registers a handler to be called when configuration changes.
func (w *Watcher) AddHandler(handler ChangeHandler) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.handlers = append(w.handlers, handler)
}

// Start begins watching the configuration file for changes.
func (w *Watcher) Start() error {
	w.mu.Lock()
	if w.watching {
		w.mu.Unlock()
		return fmt.Errorf("watcher already started")
	}
	w.watching = true
	w.mu.Unlock()

	w.loader.viper.OnConfigChange(func(e fsnotify.Event) {
		w.log.Debug("Config file changed", zap.String("file", e.Name), zap.String("op", e.Op.String()))
		w.reload()
	})
	w.loader.viper.WatchConfig()

	return nil
}

// Stop stops reacting to configuration changes. Viper offers no way to
// stop its watch goroutine, so events arriving afterwards are ignored.
func (w *Watcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.watching = false
}

// GetConfig returns the current configuration (thread-safe).
func (w *Watcher) GetConfig() *Config {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.config
}

func (w *Watcher) reload() {
	w.mu.RLock()
	watching := w.watching
	w.mu.RUnlock()
	if !watching {
		return
	}

	newConfig, err := w.loader.reload()
	if err != nil {
		w.log.Error("Reloading config failed", zap.Error(err))
		return
	}
	if err := ValidateConfig(newConfig); err != nil {
		w.log.Error("Reloaded config is invalid, keeping previous", zap.Error(err))
		return
	}

	w.mu.Lock()
	w.config = newConfig
	w.mu.Unlock()

	w.notifyHandlers(newConfig)
}

// notifyHandlers calls all registered handlers with the new configuration.
func (w *Watcher) notifyHandlers(config *Config) {
	w.mu.RLock()
	handlers := make([]ChangeHandler, len(w.handlers))
	copy(handlers, w.handlers)
	w.mu.RUnlock()

	for _, handler := range handlers {
		if err := handler(config); err != nil {
			w.log.Warn("Config change handler failed", zap.Error(err))
		}
	}
}

// LevelHandler returns a ChangeHandler that applies logger.level to log.
func LevelHandler(log *logger.Logger) ChangeHandler {
	return func(cfg *Config) error {
		level, err := logger.ParseLevel(cfg.Logger.Level)
		if err != nil {
			return err
		}
		if level == log.Level() {
			return nil
		}
		log.Info("Log level changed", zap.String("level", string(level)))
		return log.SetLevel(level)
	}
}
