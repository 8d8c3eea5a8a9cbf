package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/spf13/viper"
)

// ConfigPathEnv overrides the config file location when no explicit path is given.
const ConfigPathEnv = "CORDKIT_CONFIG_FILE"

// EnvPrefix is prepended to every environment override, e.g. CORDKIT_DISCORD_TOKEN.
const EnvPrefix = "CORDKIT"

// Loader handles configuration loading with Viper.
type Loader struct {
	mu    sync.Mutex
	viper *viper.Viper
	path  string
}

// NewLoader creates a new configuration loader.
func NewLoader() *Loader {
	v := viper.New()

	// Set default config name and paths
	v.SetConfigName("config")
	v.SetConfigType("json")

	if home, err := GetConfigHome(); err == nil {
		v.AddConfigPath(home)
	}
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	// Environment variable settings
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v, DefaultConfig())

	return &Loader{viper: v}
}

// setDefaults registers every key so AutomaticEnv can override keys that
// are absent from the file.
func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("discord.token", cfg.Discord.Token)
	v.SetDefault("discord.application_id", cfg.Discord.ApplicationID)
	v.SetDefault("discord.intents", cfg.Discord.Intents)

	v.SetDefault("handler.sync_on_start", cfg.Handler.SyncOnStart)
	v.SetDefault("handler.resync_schedule", cfg.Handler.ResyncSchedule)
	v.SetDefault("handler.sync_rate", cfg.Handler.SyncRate)
	v.SetDefault("handler.sync_burst", cfg.Handler.SyncBurst)
	v.SetDefault("handler.dispatch_timeout", cfg.Handler.DispatchTimeout)

	v.SetDefault("logger.level", cfg.Logger.Level)
	v.SetDefault("logger.output_path", cfg.Logger.OutputPath)
	v.SetDefault("logger.max_size", cfg.Logger.MaxSize)
	v.SetDefault("logger.max_backups", cfg.Logger.MaxBackups)
	v.SetDefault("logger.max_age", cfg.Logger.MaxAge)
	v.SetDefault("logger.compress", cfg.Logger.Compress)
	v.SetDefault("logger.development", cfg.Logger.Development)

	v.SetDefault("events.type", cfg.Events.Type)
	v.SetDefault("events.buffer_size", cfg.Events.BufferSize)
	v.SetDefault("events.prefix", cfg.Events.Prefix)

	v.SetDefault("redis.addr", cfg.Redis.Addr)
	v.SetDefault("redis.password", cfg.Redis.Password)
	v.SetDefault("redis.db", cfg.Redis.DB)

	v.SetDefault("gateway.enabled", cfg.Gateway.Enabled)
	v.SetDefault("gateway.host", cfg.Gateway.Host)
	v.SetDefault("gateway.port", cfg.Gateway.Port)
	v.SetDefault("gateway.jwt_secret", cfg.Gateway.JWTSecret)
}

// Load loads the configuration from file and environment variables.
// If configPath is empty, CORDKIT_CONFIG_FILE and then the default search
// paths are used. A missing file is not an error: defaults plus environment
// apply. An explicit path that does not exist is created with defaults.
func (l *Loader) Load(configPath string) (*Config, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if strings.TrimSpace(configPath) == "" {
		configPath = strings.TrimSpace(os.Getenv(ConfigPathEnv))
	}

	if configPath != "" {
		resolved, err := filepath.Abs(expandPath(configPath))
		if err != nil {
			return nil, fmt.Errorf("resolve config path: %w", err)
		}
		l.path = resolved
		l.viper.SetConfigFile(resolved)
		if ext := strings.TrimPrefix(filepath.Ext(resolved), "."); ext != "" {
			l.viper.SetConfigType(ext)
		}
	}

	if err := l.viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		switch {
		case errors.As(err, &notFound):
			// No file anywhere on the search path.
		case os.IsNotExist(err) || errors.Is(err, os.ErrNotExist):
			if err := SaveToFile(DefaultConfig(), l.path); err != nil {
				return nil, fmt.Errorf("creating config file: %w", err)
			}
		default:
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	cfg := DefaultConfig()
	if err := l.viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	return cfg, nil
}

// Save saves the configuration to a file.
func (l *Loader) Save(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	format := "json"
	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		format = "yaml"
	case ".toml":
		format = "toml"
	}

	// Create a new viper instance for writing
	v := viper.New()
	v.SetConfigType(format)

	v.Set("discord", cfg.Discord)
	v.Set("handler", cfg.Handler)
	v.Set("logger", cfg.Logger)
	v.Set("events", cfg.Events)
	v.Set("redis", cfg.Redis)
	v.Set("gateway", cfg.Gateway)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// SaveToFile is a convenience function to save config without creating a Loader.
func SaveToFile(cfg *Config, path string) error {
	return NewLoader().Save(path, cfg)
}

// GetConfigHome returns the default config directory.
func GetConfigHome() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, ".cordkit"), nil
}

// GetConfigPath returns the path of the loaded config file.
func (l *Loader) GetConfigPath() string {
	return l.viper.ConfigFileUsed()
}

// Set sets a configuration value.
func (l *Loader) Set(key string, value interface{}) {
	l.viper.Set(key, value)
}

// GetString gets a string configuration value.
func (l *Loader) GetString(key string) string {
	return l.viper.GetString(key)
}

// reload re-reads the file that was last loaded.
func (l *Loader) reload() (*Config, error) {
	l.mu.Lock()
	path := l.path
	l.mu.Unlock()
	return l.Load(path)
}
