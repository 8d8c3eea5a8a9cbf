// Package logger provides structured logging with rotation support.
// It uses zap for structured logging and lumberjack for log rotation.
package logger

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Level represents the log level.
type Level string

const (
	// LevelDebug for debug messages.
	LevelDebug Level = "debug"
	// LevelInfo for informational messages.
	LevelInfo Level = "info"
	// LevelWarn for warning messages.
	LevelWarn Level = "warn"
	// LevelError for error messages.
	LevelError Level = "error"
	// LevelFatal for fatal messages (will call os.Exit(1)).
	LevelFatal Level = "fatal"
)

// SystemKey is the field every component tags its entries with.
const SystemKey = "system"

// Config represents logger configuration.
type Config struct {
	// Level is the minimum log level (debug, info, warn, error, fatal).
	Level Level

	// OutputPath is the log file path. Empty means stdout only.
	OutputPath string

	// MaxSize is the maximum size in megabytes before rotation (default: 100).
	MaxSize int

	// MaxBackups is the maximum number of old log files to retain (default: 3).
	MaxBackups int

	// MaxAge is the maximum number of days to retain old log files (default: 7).
	MaxAge int

	// Compress determines if rotated log files should be compressed (default: true).
	Compress bool

	// Development enables development mode (more verbose, human-readable).
	Development bool

	// EnableCaller adds caller information (file:line) to logs.
	EnableCaller bool

	// EnableStacktrace adds stacktrace for Error and above.
	EnableStacktrace bool
}

// DefaultConfig returns a default logger configuration.
func DefaultConfig() *Config {
	homeDir, _ := os.UserHomeDir()
	logPath := filepath.Join(homeDir, ".cordkit", "logs", "cordkit.log")

	return &Config{
		Level:            LevelInfo,
		OutputPath:       logPath,
		MaxSize:          100,
		MaxBackups:       3,
		MaxAge:           7,
		Compress:         true,
		Development:      false,
		EnableCaller:     true,
		EnableStacktrace: true,
	}
}

// Logger wraps zap.Logger with additional functionality.
type Logger struct {
	*zap.Logger
	config *Config
	level  zap.AtomicLevel
	sugar  *zap.SugaredLogger
}

// New creates a new logger with the given configuration.
func New(cfg *Config) (*Logger, error) {
	lvl, err := parseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	level := zap.NewAtomicLevelAt(lvl)

	encoderConfig := zapcore.EncoderConfig{
		TimeKey:        "time",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		FunctionKey:    zapcore.OmitKey,
		MessageKey:     "msg",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.SecondsDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}

	// Use colored output in development mode for console
	consoleConfig := encoderConfig
	if cfg.Development {
		consoleConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	var consoleEncoder zapcore.Encoder
	if cfg.Development {
		consoleEncoder = zapcore.NewConsoleEncoder(consoleConfig)
	} else {
		consoleEncoder = zapcore.NewJSONEncoder(consoleConfig)
	}

	cores := []zapcore.Core{
		zapcore.NewCore(consoleEncoder, zapcore.AddSync(os.Stdout), level),
	}

	// File output (if path specified)
	if cfg.OutputPath != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.OutputPath), 0755); err != nil {
			return nil, fmt.Errorf("creating log directory: %w", err)
		}

		fileWriter := &lumberjack.Logger{
			Filename:   cfg.OutputPath,
			MaxSize:    cfg.MaxSize,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAge,
			Compress:   cfg.Compress,
		}

		cores = append(cores, zapcore.NewCore(
			zapcore.NewJSONEncoder(encoderConfig),
			zapcore.AddSync(fileWriter),
			level,
		))
	}

	var options []zap.Option
	if cfg.EnableCaller {
		options = append(options, zap.AddCaller())
	}
	if cfg.EnableStacktrace {
		options = append(options, zap.AddStacktrace(zapcore.ErrorLevel))
	}
	if cfg.Development {
		options = append(options, zap.Development())
	}

	zapLogger := zap.New(zapcore.NewTee(cores...), options...)

	return &Logger{
		Logger: zapLogger,
		config: cfg,
		level:  level,
		sugar:  zapLogger.Sugar(),
	}, nil
}

// NewFromZap wraps an existing zap logger. Mostly useful in tests together
// with zaptest/observer.
func NewFromZap(z *zap.Logger) *Logger {
	return &Logger{
		Logger: z,
		config: &Config{Level: LevelDebug},
		level:  zap.NewAtomicLevelAt(zapcore.DebugLevel),
		sugar:  z.Sugar(),
	}
}

// Nop returns a logger that discards everything.
func Nop() *Logger {
	return NewFromZap(zap.NewNop())
}

// Sugar returns a sugared logger for easier use.
func (l *Logger) Sugar() *zap.SugaredLogger {
	return l.sugar
}

// WithFields creates a new logger with the given fields.
func (l *Logger) WithFields(fields ...zap.Field) *Logger {
	child := l.Logger.With(fields...)
	return &Logger{
		Logger: child,
		config: l.config,
		level:  l.level,
		sugar:  child.Sugar(),
	}
}

// System returns a child logger tagged with the given subsystem name.
func (l *Logger) System(name string) *Logger {
	return l.WithFields(zap.String(SystemKey, name))
}

// SetLevel changes the minimum level of this logger and every logger derived from it.
func (l *Logger) SetLevel(level Level) error {
	lvl, err := parseLevel(level)
	if err != nil {
		return err
	}
	l.level.SetLevel(lvl)
	return nil
}

// Level returns the current minimum level.
func (l *Logger) Level() Level {
	return Level(l.level.Level().String())
}

// Sync flushes any buffered log entries.
func (l *Logger) Sync() error {
	return l.Logger.Sync()
}

// ParseLevel converts a textual level, accepting an empty string as info.
func ParseLevel(s string) (Level, error) {
	if s == "" {
		return LevelInfo, nil
	}
	if _, err := parseLevel(Level(s)); err != nil {
		return "", err
	}
	return Level(s), nil
}

// parseLevel converts string level to zapcore.Level.
func parseLevel(level Level) (zapcore.Level, error) {
	switch level {
	case LevelDebug:
		return zapcore.DebugLevel, nil
	case LevelInfo, "":
		return zapcore.InfoLevel, nil
	case LevelWarn:
		return zapcore.WarnLevel, nil
	case LevelError:
		return zapcore.ErrorLevel, nil
	case LevelFatal:
		return zapcore.FatalLevel, nil
	default:
		return zapcore.InfoLevel, fmt.Errorf("unknown log level: %s", level)
	}
}

// Global logger instance.
var global *Logger

// InitGlobal initializes the global logger.
func InitGlobal(cfg *Config) error {
	logger, err := New(cfg)
	if err != nil {
		return err
	}
	global = logger
	return nil
}

// Global returns the global logger instance.
func Global() *Logger {
	if global == nil {
		cfg := DefaultConfig()
		cfg.Development = true
		cfg.OutputPath = ""
		global, _ = New(cfg)
	}
	return global
}

// Debug logs a debug message.
func Debug(msg string, fields ...zap.Field) {
	Global().Debug(msg, fields...)
}

// Info logs an info message.
func Info(msg string, fields ...zap.Field) {
	Global().Info(msg, fields...)
}

// Warn logs a warning message.
func Warn(msg string, fields ...zap.Field) {
	Global().Warn(msg, fields...)
}

// Error logs an error message.
func Error(msg string, fields ...zap.Field) {
	Global().Error(msg, fields...)
}

// Sync syncs the global logger.
func Sync() error {
	return Global().Sync()
}
