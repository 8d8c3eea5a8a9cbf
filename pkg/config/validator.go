package config

import (
	"fmt"
	"strings"

	"github.com/robfig/cron/v3"

	"cordkit/pkg/logger"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []ValidationError

// Error implements the error interface.
func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	if len(e) == 1 {
		return e[0].Error()
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d validation errors:\n", len(e)))
	for _, err := range e {
		sb.WriteString(fmt.Sprintf("  - %s\n", err.Error()))
	}
	return sb.String()
}

// Validator validates configuration.
type Validator struct {
	errors ValidationErrors
}

// NewValidator creates a new configuration validator.
func NewValidator() *Validator {
	return &Validator{
		errors: make(ValidationErrors, 0),
	}
}

// Validate validates the entire configuration.
func (v *Validator) Validate(cfg *Config) error {
	v.errors = make(ValidationErrors, 0)

	v.validateDiscord(&cfg.Discord)
	v.validateHandler(&cfg.Handler)
	v.validateLogger(&cfg.Logger)
	v.validateEvents(&cfg.Events, &cfg.Redis)
	v.validateGateway(&cfg.Gateway)

	if len(v.errors) > 0 {
		return v.errors
	}
	return nil
}

func (v *Validator) validateDiscord(cfg *DiscordConfig) {
	if cfg.Intents < 0 {
		v.addError("discord.intents", "intents must be non-negative")
	}
	if id := strings.TrimSpace(cfg.ApplicationID); id != "" && !isSnowflake(id) {
		v.addError("discord.application_id", "application_id must be a numeric snowflake")
	}
}

func (v *Validator) validateHandler(cfg *HandlerConfig) {
	if cfg.SyncRate <= 0 {
		v.addError("handler.sync_rate", "sync_rate must be positive")
	}
	if cfg.SyncBurst < 1 {
		v.addError("handler.sync_burst", "sync_burst must be at least 1")
	}
	if cfg.DispatchTimeout < 0 {
		v.addError("handler.dispatch_timeout", "dispatch_timeout must be non-negative")
	}
	if schedule := strings.TrimSpace(cfg.ResyncSchedule); schedule != "" {
		if _, err := cron.ParseStandard(schedule); err != nil {
			v.addError("handler.resync_schedule", fmt.Sprintf("invalid cron expression: %v", err))
		}
	}
}

func (v *Validator) validateLogger(cfg *LoggerConfig) {
	if _, err := logger.ParseLevel(cfg.Level); err != nil {
		v.addError("logger.level", "level must be one of: debug, info, warn, error, fatal")
	}
	if cfg.MaxSize < 0 {
		v.addError("logger.max_size", "max_size must be non-negative")
	}
}

func (v *Validator) validateEvents(cfg *EventsConfig, redis *RedisConfig) {
	switch strings.ToLower(strings.TrimSpace(cfg.Type)) {
	case "", "local":
	case "redis":
		if strings.TrimSpace(redis.Addr) == "" {
			v.addError("redis.addr", "addr is required when events.type is redis")
		}
	default:
		v.addError("events.type", "type must be one of: local, redis")
	}
	if cfg.BufferSize < 0 {
		v.addError("events.buffer_size", "buffer_size must be non-negative")
	}
}

func (v *Validator) validateGateway(cfg *GatewayConfig) {
	if !cfg.Enabled {
		return
	}
	if cfg.Port < 1 || cfg.Port > 65535 {
		v.addError("gateway.port", "port must be between 1 and 65535")
	}
}

// addError adds a validation error.
func (v *Validator) addError(field, message string) {
	v.errors = append(v.errors, ValidationError{
		Field:   field,
		Message: message,
	})
}

func isSnowflake(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}

// ValidateConfig is a convenience function to validate configuration.
func ValidateConfig(cfg *Config) error {
	return NewValidator().Validate(cfg)
}
