// Package handler publishes application commands and dispatches incoming
// interactions to the builders bound to them.
//
// A Handler owns three things: the local command set that Sync reconciles
// against Discord, the binding registry that maps remote command IDs and
// custom IDs to builders, and the single error, middleware and observer
// hooks that wrap every dispatch.
package handler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"cordkit/pkg/builders"
	"cordkit/pkg/interaction"
	"cordkit/pkg/logger"
	"cordkit/pkg/rest"
)

var (
	// ErrDuplicateCommandName is returned when two local commands share a
	// name and command type.
	ErrDuplicateCommandName = errors.New("duplicate command name")
	// ErrMissingApplicationID is returned when the application owning the
	// commands cannot be determined.
	ErrMissingApplicationID = errors.New("missing application id")
	// ErrNotBindable is returned by Bind for structures that are never
	// looked up by the dispatcher directly.
	ErrNotBindable = errors.New("structure cannot be bound")
	// ErrPanic wraps a value recovered from a panicking callback.
	ErrPanic = errors.New("callback panicked")
)

// Verdict is returned by Middleware.
type Verdict int

const (
	// Proceed runs the execute callback. It is the zero value.
	Proceed Verdict = iota
	// Halt ends the dispatch without running the execute callback or the
	// error callback.
	Halt
)

// Middleware runs before every execute callback with the matched
// structure's meta value.
type Middleware func(ctx context.Context, c interaction.Context, meta any) (Verdict, error)

// ErrorFunc receives every error returned or panicked by middleware or an
// execute callback. err is always a *DispatchError.
type ErrorFunc func(ctx context.Context, c interaction.Context, err error)

// Observer is told about every dispatch once it finishes.
type Observer func(Record)

// Options tune a Handler. Zero values select the defaults.
type Options struct {
	// SyncRate limits REST calls per second while reconciling.
	SyncRate float64
	// SyncBurst is the limiter burst size.
	SyncBurst int
	// DispatchTimeout bounds the context passed to callbacks. Zero means no
	// deadline beyond the caller's.
	DispatchTimeout time.Duration
}

const (
	defaultSyncRate  = 2
	defaultSyncBurst = 1
)

// Handler binds builders and dispatches interactions to them.
type Handler struct {
	client   rest.Client
	log      *logger.Logger
	limiter  *rate.Limiter
	timeout  time.Duration
	registry *Registry

	mu         sync.RWMutex
	commands   []builders.Command
	onError    ErrorFunc
	middleware Middleware
	observer   Observer
}

// New returns a Handler answering through client.
func New(client rest.Client, log *logger.Logger, opts Options) *Handler {
	if log == nil {
		log = logger.Nop()
	}
	if opts.SyncRate <= 0 {
		opts.SyncRate = defaultSyncRate
	}
	if opts.SyncBurst < 1 {
		opts.SyncBurst = defaultSyncBurst
	}
	return &Handler{
		client:   client,
		log:      log.System("handler"),
		limiter:  rate.NewLimiter(rate.Limit(opts.SyncRate), opts.SyncBurst),
		timeout:  opts.DispatchTimeout,
		registry: NewRegistry(),
	}
}

// Client returns the REST client the handler answers through.
func (h *Handler) Client() rest.Client { return h.client }

// Registry returns the binding registry.
func (h *Handler) Registry() *Registry { return h.registry }

// SetError installs the error callback, replacing any previous one.
func (h *Handler) SetError(fn ErrorFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onError = fn
}

// SetMiddleware installs the middleware, replacing any previous one.
func (h *Handler) SetMiddleware(fn Middleware) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.middleware = fn
}

// SetObserver installs the dispatch observer, replacing any previous one.
func (h *Handler) SetObserver(fn Observer) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.observer = fn
}

func (h *Handler) hooks() (ErrorFunc, Middleware, Observer) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.onError, h.middleware, h.observer
}

// Bind adds structures to the registry. Binding a structure under a key
// that is already bound replaces the previous structure. Binding an Expire
// binds everything it wraps and starts its timer; binding it again
// restarts the timer. A structure may be wrapped by one Expire at a time.
//
// Commands are bound by Sync once Discord has assigned their IDs; passing
// one here returns ErrNotBindable, as do link and premium buttons.
func (h *Handler) Bind(structures ...builders.Structure) error {
	claimed := make(map[builders.Structure]*Expire)
	for _, s := range structures {
		if err := h.checkBindable(s, nil, claimed); err != nil {
			return err
		}
	}
	for _, s := range structures {
		h.bind(s, nil)
	}
	return nil
}

// checkBindable validates s before anything is bound. A structure can be
// owned by one Expire at a time: claimed tracks the owners seen in this
// call, the registry those of earlier calls.
func (h *Handler) checkBindable(s builders.Structure, owner *Expire, claimed map[builders.Structure]*Expire) error {
	if s != nil && owner != nil {
		if other, ok := claimed[s]; ok && other != owner {
			return fmt.Errorf("%w: %s is wrapped by two expires", ErrNotBindable, s.Kind())
		}
		if other := h.registry.owner(s); other != nil && other != owner {
			return fmt.Errorf("%w: %s is already bound through another expire", ErrNotBindable, s.Kind())
		}
		claimed[s] = owner
	}
	switch v := s.(type) {
	case *Expire:
		for _, wrapped := range v.Structures() {
			if err := h.checkBindable(wrapped, v, claimed); err != nil {
				return err
			}
		}
	case *builders.Button:
		if !v.Bindable() {
			return fmt.Errorf("%w: link and premium buttons have no custom id", ErrNotBindable)
		}
	case builders.Component, *builders.Modal:
	case builders.Command:
		return fmt.Errorf("%w: command %q is bound by Sync", ErrNotBindable, v.Name())
	case nil:
		return fmt.Errorf("%w: nil structure", ErrNotBindable)
	default:
		return fmt.Errorf("%w: %s", ErrNotBindable, s.Kind())
	}
	return nil
}

func (h *Handler) bind(s builders.Structure, owner *Expire) {
	switch v := s.(type) {
	case *Expire:
		if !h.registry.addExpire(v, owner) {
			v.reset()
			return
		}
		for _, wrapped := range v.Structures() {
			h.bind(wrapped, v)
		}
		v.start(func() { h.expire(v) })
		h.log.Debug("Bound expire",
			zap.Duration("timeout", v.Timeout()),
			zap.Int("structures", len(v.Structures())))
	case builders.Component:
		h.registry.addComponent(v, owner)
	case *builders.Modal:
		h.registry.addModal(v, owner)
	}
}

// Unbind removes structures from the registry. A key rebound to a
// different structure since is left alone. Unbinding an Expire stops its
// timer and unbinds everything it wraps.
func (h *Handler) Unbind(structures ...builders.Structure) {
	for _, s := range structures {
		h.unbind(s)
	}
}

func (h *Handler) unbind(s builders.Structure) {
	switch v := s.(type) {
	case *Expire:
		if !h.registry.removeExpire(v) {
			return
		}
		v.stop()
		for _, wrapped := range v.Structures() {
			h.unbind(wrapped)
		}
	case builders.Component:
		h.registry.removeComponent(v)
	case *builders.Modal:
		h.registry.removeModal(v)
	case builders.Command:
		h.registry.removeCommand(v)
	}
}

func (h *Handler) expire(e *Expire) {
	h.Unbind(e)
	h.log.Debug("Expired", zap.Int("structures", len(e.Structures())))

	defer func() {
		if r := recover(); r != nil {
			h.log.Error("Expire callback panicked", zap.Any("panic", r))
		}
	}()
	e.run()
}
