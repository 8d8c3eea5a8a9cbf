package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"cordkit/pkg/logger"
)

// RedisStream carries events over Redis pub/sub so one gateway process
// can feed several workers. Each event is published on prefix + name.
type RedisStream struct {
	*dispatcher

	client *redis.Client
	prefix string
	pubsub *redis.PubSub

	stopOnce sync.Once
	loop     sync.WaitGroup
}

// RedisStreamConfig configures a RedisStream.
type RedisStreamConfig struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
}

// NewRedisStream connects to Redis and returns a stream.
func NewRedisStream(log *logger.Logger, cfg *RedisStreamConfig) (*RedisStream, error) {
	if cfg.Prefix == "" {
		cfg.Prefix = "cordkit:"
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connecting to Redis: %w", err)
	}

	s := &RedisStream{
		dispatcher: newDispatcher(log.System("events")),
		client:     client,
		prefix:     cfg.Prefix,
	}

	s.log.Info("Redis event stream initialized",
		zap.String("addr", cfg.Addr),
		zap.Int("db", cfg.DB),
		zap.String("prefix", cfg.Prefix))

	return s, nil
}

// Start subscribes to every channel under the prefix.
func (s *RedisStream) Start() error {
	s.log.Info("Starting Redis event stream")

	s.pubsub = s.client.PSubscribe(s.ctx, s.prefix+"*")

	s.loop.Add(1)
	go s.process()
	return nil
}

// Stop closes the subscription and the client and waits for running
// handlers.
func (s *RedisStream) Stop() error {
	s.stopOnce.Do(func() {
		s.log.Info("Stopping Redis event stream")
		s.cancel()
		if s.pubsub != nil {
			_ = s.pubsub.Close()
		}
		s.loop.Wait()
		s.wg.Wait()
		_ = s.client.Close()
		s.log.Info("Redis event stream stopped")
	})
	return nil
}

// Publish encodes ev as JSON and publishes it.
func (s *RedisStream) Publish(ev *Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshaling event: %w", err)
	}

	if err := s.client.Publish(s.ctx, s.channel(ev.Name), data).Err(); err != nil {
		return fmt.Errorf("publishing to Redis: %w", err)
	}

	s.count(&s.published)
	return nil
}

func (s *RedisStream) channel(name string) string {
	return s.prefix + name
}

func (s *RedisStream) process() {
	defer s.loop.Done()

	ch := s.pubsub.Channel()
	for {
		select {
		case msg, ok := <-ch:
			if !ok {
				return
			}
			s.handleRedisMessage(msg)
		case <-s.ctx.Done():
			return
		}
	}
}

func (s *RedisStream) handleRedisMessage(msg *redis.Message) {
	if !strings.HasPrefix(msg.Channel, s.prefix) {
		s.log.Warn("Unknown channel format", zap.String("channel", msg.Channel))
		return
	}

	var ev Event
	if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
		s.count(&s.errors)
		s.log.Error("Failed to unmarshal event", zap.String("channel", msg.Channel), zap.Error(err))
		return
	}
	if ev.Name == "" {
		ev.Name = strings.TrimPrefix(msg.Channel, s.prefix)
	}

	s.deliver(&ev)
}

var _ Stream = (*RedisStream)(nil)
