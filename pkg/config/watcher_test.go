package config

import (
	"os"
	"path/filepath"
	"testing"

	"cordkit/pkg/logger"
)

func TestWatcherReloadAppliesLogLevel(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(cfgPath, []byte(`{"logger": {"level": "info"}}`), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	loader := NewLoader()
	cfg, err := loader.Load(cfgPath)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	log := logger.Nop()
	if err := log.SetLevel(logger.LevelInfo); err != nil {
		t.Fatalf("set level: %v", err)
	}

	w := NewWatcher(loader, cfg, log)
	w.AddHandler(LevelHandler(log))
	w.watching = true

	if err := os.WriteFile(cfgPath, []byte(`{"logger": {"level": "debug"}}`), 0644); err != nil {
		t.Fatalf("rewrite config: %v", err)
	}
	w.reload()

	if got := w.GetConfig().Logger.Level; got != "debug" {
		t.Fatalf("expected reloaded level debug, got %q", got)
	}
	if log.Level() != logger.LevelDebug {
		t.Fatalf("expected logger level debug, got %s", log.Level())
	}
}

func TestWatcherKeepsPreviousConfigWhenInvalid(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(cfgPath, []byte(`{"events": {"type": "local"}}`), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	loader := NewLoader()
	cfg, err := loader.Load(cfgPath)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	called := false
	w := NewWatcher(loader, cfg, logger.Nop())
	w.AddHandler(func(*Config) error { called = true; return nil })
	w.watching = true

	if err := os.WriteFile(cfgPath, []byte(`{"events": {"type": "carrier-pigeon"}}`), 0644); err != nil {
		t.Fatalf("rewrite config: %v", err)
	}
	w.reload()

	if w.GetConfig() != cfg {
		t.Fatalf("expected previous config to be kept")
	}
	if called {
		t.Fatalf("handlers must not run for an invalid config")
	}
}
