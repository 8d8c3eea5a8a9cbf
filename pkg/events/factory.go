package events

import (
	"fmt"

	"cordkit/pkg/logger"
)

// StreamType selects the stream backend.
type StreamType string

const (
	StreamTypeLocal StreamType = "local"
	StreamTypeRedis StreamType = "redis"
)

// Config configures a stream.
type Config struct {
	Type       StreamType
	BufferSize int

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisPrefix   string
}

// NewStream creates a stream for cfg.Type, defaulting to local.
func NewStream(log *logger.Logger, cfg *Config) (Stream, error) {
	switch cfg.Type {
	case StreamTypeLocal, "":
		return NewLocalStream(log, cfg.BufferSize), nil

	case StreamTypeRedis:
		if cfg.RedisAddr == "" {
			return nil, fmt.Errorf("redis address is required for redis stream")
		}
		return NewRedisStream(log, &RedisStreamConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			Prefix:   cfg.RedisPrefix,
		})

	default:
		return nil, fmt.Errorf("unknown stream type: %s", cfg.Type)
	}
}
