// Package config provides configuration management for cordkit.
// It uses Viper for flexible configuration loading with support for:
// - JSON, YAML and TOML files
// - Environment variables (CORDKIT_ prefix)
// - Hot-reload
// - Default values
package config

import (
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Config represents the complete cordkit configuration.
type Config struct {
	Discord DiscordConfig `mapstructure:"discord" json:"discord"`
	Handler HandlerConfig `mapstructure:"handler" json:"handler"`
	Logger  LoggerConfig  `mapstructure:"logger" json:"logger"`
	Events  EventsConfig  `mapstructure:"events" json:"events"`
	Redis   RedisConfig   `mapstructure:"redis" json:"redis"`
	Gateway GatewayConfig `mapstructure:"gateway" json:"gateway"`
}

// DiscordConfig holds the bot identity.
type DiscordConfig struct {
	Token string `mapstructure:"token" json:"token"`
	// ApplicationID is optional; when empty it is resolved from the session user.
	ApplicationID string `mapstructure:"application_id" json:"application_id"`
	Intents       int    `mapstructure:"intents" json:"intents"`
}

// HandlerConfig controls command reconciliation and dispatch.
type HandlerConfig struct {
	SyncOnStart     bool          `mapstructure:"sync_on_start" json:"sync_on_start"`
	ResyncSchedule  string        `mapstructure:"resync_schedule" json:"resync_schedule"`
	SyncRate        float64       `mapstructure:"sync_rate" json:"sync_rate"`
	SyncBurst       int           `mapstructure:"sync_burst" json:"sync_burst"`
	DispatchTimeout time.Duration `mapstructure:"dispatch_timeout" json:"dispatch_timeout"`
}

// LoggerConfig mirrors logger.Config in file form.
type LoggerConfig struct {
	Level       string `mapstructure:"level" json:"level"`
	OutputPath  string `mapstructure:"output_path" json:"output_path"`
	MaxSize     int    `mapstructure:"max_size" json:"max_size"`
	MaxBackups  int    `mapstructure:"max_backups" json:"max_backups"`
	MaxAge      int    `mapstructure:"max_age" json:"max_age"`
	Compress    bool   `mapstructure:"compress" json:"compress"`
	Development bool   `mapstructure:"development" json:"development"`
}

// EventsConfig selects the interaction event stream.
type EventsConfig struct {
	Type       string `mapstructure:"type" json:"type"` // local or redis
	BufferSize int    `mapstructure:"buffer_size" json:"buffer_size"`
	Prefix     string `mapstructure:"prefix" json:"prefix"`
}

// RedisConfig is used when events.type is redis.
type RedisConfig struct {
	Addr     string `mapstructure:"addr" json:"addr"`
	Password string `mapstructure:"password" json:"password"`
	DB       int    `mapstructure:"db" json:"db"`
}

// GatewayConfig controls the HTTP status surface.
type GatewayConfig struct {
	Enabled   bool   `mapstructure:"enabled" json:"enabled"`
	Host      string `mapstructure:"host" json:"host"`
	Port      int    `mapstructure:"port" json:"port"`
	JWTSecret string `mapstructure:"jwt_secret" json:"jwt_secret"`
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Discord: DiscordConfig{
			// GUILDS only; interactions arrive regardless of intents.
			Intents: 1,
		},
		Handler: HandlerConfig{
			SyncOnStart:     true,
			SyncRate:        2,
			SyncBurst:       1,
			DispatchTimeout: 0,
		},
		Logger: LoggerConfig{
			Level:      "info",
			OutputPath: filepath.Join(configHomeOrDot(), "logs", "cordkit.log"),
			MaxSize:    100,
			MaxBackups: 3,
			MaxAge:     7,
			Compress:   true,
		},
		Events: EventsConfig{
			Type:       "local",
			BufferSize: 100,
			Prefix:     "cordkit:",
		},
		Redis: RedisConfig{
			Addr: "localhost:6379",
		},
		Gateway: GatewayConfig{
			Enabled: false,
			Host:    "127.0.0.1",
			Port:    18790,
		},
	}
}

// GatewayAddr returns host:port for the status server.
func (c *Config) GatewayAddr() string {
	host := strings.TrimSpace(c.Gateway.Host)
	if host == "" {
		host = "0.0.0.0"
	}
	return net.JoinHostPort(host, strconv.Itoa(c.Gateway.Port))
}

func configHomeOrDot() string {
	if home, err := GetConfigHome(); err == nil {
		return home
	}
	return "."
}

// expandPath expands ~ to home directory.
func expandPath(path string) string {
	if len(path) > 0 && path[0] == '~' {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[1:])
	}
	return path
}
