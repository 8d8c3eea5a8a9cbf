package handler

import (
	"sync"
	"time"

	"cordkit/pkg/builders"
)

// Expire binds a group of components and modals for a limited time. The
// timer restarts whenever one of them is dispatched to; once it elapses
// without activity every wrapped structure is unbound and the OnExpire
// callback runs.
//
// The timer never keeps the process alive.
type Expire struct {
	timeout    time.Duration
	structures []builders.Structure

	mu       sync.Mutex
	onExpire func()
	timer    *time.Timer
	gen      uint64
	elapsed  func()
}

// NewExpire wraps structures with an inactivity timeout.
func NewExpire(timeout time.Duration, structures ...builders.Structure) *Expire {
	return &Expire{
		timeout:    timeout,
		structures: append([]builders.Structure(nil), structures...),
	}
}

func (e *Expire) Kind() builders.Kind { return builders.KindExpire }

func (e *Expire) Timeout() time.Duration { return e.timeout }

// Structures returns the wrapped structures.
func (e *Expire) Structures() []builders.Structure {
	return append([]builders.Structure(nil), e.structures...)
}

// OnExpire sets the callback run after the wrapped structures are unbound.
func (e *Expire) OnExpire(fn func()) *Expire {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.onExpire = fn
	return e
}

// Active reports whether the timer is running.
func (e *Expire) Active() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.timer != nil
}

func (e *Expire) start(elapsed func()) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.elapsed = elapsed
	e.schedule()
}

// reset restarts a running timer. A stopped timer stays stopped.
func (e *Expire) reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.timer == nil {
		return
	}
	e.schedule()
}

func (e *Expire) stop() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.gen++
	if e.timer != nil {
		e.timer.Stop()
		e.timer = nil
	}
}

// schedule arms a fresh timer. Callers hold e.mu. A timer whose generation
// is stale when it fires does nothing, which covers a Stop that lost the
// race with the timer goroutine.
func (e *Expire) schedule() {
	e.gen++
	gen := e.gen
	if e.timer != nil {
		e.timer.Stop()
	}
	e.timer = time.AfterFunc(e.timeout, func() { e.fire(gen) })
}

func (e *Expire) fire(gen uint64) {
	e.mu.Lock()
	if gen != e.gen {
		e.mu.Unlock()
		return
	}
	e.timer = nil
	elapsed := e.elapsed
	e.mu.Unlock()

	if elapsed != nil {
		elapsed()
	}
}

func (e *Expire) run() {
	e.mu.Lock()
	fn := e.onExpire
	e.mu.Unlock()
	if fn != nil {
		fn()
	}
}
