package events

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"cordkit/pkg/logger"
)

// dispatcher is the subscription table and delivery loop shared by both
// stream implementations.
type dispatcher struct {
	log      *logger.Logger
	handlers map[string][]Handler
	mu       sync.RWMutex

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	published   uint64
	delivered   uint64
	dropped     uint64
	errors      uint64
	metricsLock sync.RWMutex
}

func newDispatcher(log *logger.Logger) *dispatcher {
	ctx, cancel := context.WithCancel(context.Background())
	return &dispatcher{
		log:      log,
		handlers: make(map[string][]Handler),
		ctx:      ctx,
		cancel:   cancel,
	}
}

func (d *dispatcher) Subscribe(name string, handler Handler) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.handlers[name] = append(d.handlers[name], handler)
	d.log.Info("Subscribed handler", zap.String("event", name))
}

func (d *dispatcher) Unsubscribe(name string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	delete(d.handlers, name)
	d.log.Info("Unsubscribed handlers", zap.String("event", name))
}

// deliver hands ev to every handler for its name, each on its own
// goroutine.
func (d *dispatcher) deliver(ev *Event) {
	d.mu.RLock()
	handlers := d.handlers[ev.Name]
	d.mu.RUnlock()

	if len(handlers) == 0 {
		d.count(&d.dropped)
		d.log.Debug("No handlers subscribed", zap.String("event", ev.Name), zap.String("id", ev.ID))
		return
	}

	for _, handler := range handlers {
		d.wg.Add(1)
		go func(handler Handler) {
			defer d.wg.Done()
			defer func() {
				if r := recover(); r != nil {
					d.count(&d.errors)
					d.log.Error("Handler panicked", zap.String("event", ev.Name), zap.Any("panic", r))
				}
			}()

			d.count(&d.delivered)
			if err := handler(d.ctx, ev); err != nil {
				d.count(&d.errors)
				d.log.Error("Handler error",
					zap.String("event", ev.Name),
					zap.String("id", ev.ID),
					zap.Error(err))
			}
		}(handler)
	}
}

// GetMetrics returns delivery counters.
func (d *dispatcher) GetMetrics() map[string]uint64 {
	d.metricsLock.RLock()
	defer d.metricsLock.RUnlock()

	return map[string]uint64{
		"published": d.published,
		"delivered": d.delivered,
		"dropped":   d.dropped,
		"errors":    d.errors,
	}
}

func (d *dispatcher) count(counter *uint64) {
	d.metricsLock.Lock()
	*counter++
	d.metricsLock.Unlock()
}
