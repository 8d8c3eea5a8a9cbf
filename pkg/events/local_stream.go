package events

import (
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"cordkit/pkg/logger"
)

// LocalStream is an in-process stream backed by a buffered channel.
type LocalStream struct {
	*dispatcher

	queue    chan *Event
	stopOnce sync.Once
	loop     sync.WaitGroup
}

// NewLocalStream creates an in-process stream.
func NewLocalStream(log *logger.Logger, bufferSize int) *LocalStream {
	if bufferSize <= 0 {
		bufferSize = 100
	}
	return &LocalStream{
		dispatcher: newDispatcher(log.System("events")),
		queue:      make(chan *Event, bufferSize),
	}
}

// Start starts the delivery loop.
func (s *LocalStream) Start() error {
	s.log.Info("Starting local event stream", zap.Int("buffer", cap(s.queue)))

	s.loop.Add(1)
	go s.process()
	return nil
}

// Stop stops the delivery loop and waits for running handlers.
func (s *LocalStream) Stop() error {
	s.stopOnce.Do(func() {
		s.log.Info("Stopping local event stream")
		s.cancel()
		s.loop.Wait()
		s.wg.Wait()
		s.log.Info("Local event stream stopped")
	})
	return nil
}

// Publish queues ev. It fails once the stream is stopped or when the
// queue stays full for five seconds.
func (s *LocalStream) Publish(ev *Event) error {
	select {
	case <-s.ctx.Done():
		return fmt.Errorf("event stream is shutting down")
	default:
	}

	select {
	case s.queue <- ev:
		s.count(&s.published)
		return nil
	case <-s.ctx.Done():
		return fmt.Errorf("event stream is shutting down")
	case <-time.After(5 * time.Second):
		return fmt.Errorf("timeout publishing %s event", ev.Name)
	}
}

func (s *LocalStream) process() {
	defer s.loop.Done()

	for {
		select {
		case ev := <-s.queue:
			s.deliver(ev)
		case <-s.ctx.Done():
			return
		}
	}
}

var _ Stream = (*LocalStream)(nil)
