package handler

import (
	"fmt"
	"sync"

	"go.uber.org/zap"

	"cordkit/pkg/builders"
)

var (
	registeredMu sync.Mutex
	registered   []builders.Structure
)

// Register queues structures for LoadRegistered. Packages holding commands
// and components call it from init so that importing them is enough to
// make them available.
func Register(structures ...builders.Structure) {
	registeredMu.Lock()
	defer registeredMu.Unlock()
	registered = append(registered, structures...)
}

// Registered returns every structure passed to Register so far.
func Registered() []builders.Structure {
	registeredMu.Lock()
	defer registeredMu.Unlock()
	return append([]builders.Structure(nil), registered...)
}

// LoadRegistered adds every registered command to the local command set
// and binds every other registered structure.
func (h *Handler) LoadRegistered() error {
	return h.Load(Registered()...)
}

// Load sorts structures by kind: commands go to AddCommands, the rest to
// Bind.
func (h *Handler) Load(structures ...builders.Structure) error {
	var (
		cmds  []builders.Command
		binds []builders.Structure
	)
	for _, s := range structures {
		if s == nil {
			continue
		}
		switch {
		case s.Kind().IsCommand():
			cmd, ok := s.(builders.Command)
			if !ok {
				return fmt.Errorf("%w: %s does not implement Command", ErrNotBindable, s.Kind())
			}
			cmds = append(cmds, cmd)
		default:
			binds = append(binds, s)
		}
	}

	if err := h.AddCommands(cmds...); err != nil {
		return err
	}
	if err := h.Bind(binds...); err != nil {
		return err
	}
	h.log.Info("Loaded structures",
		zap.Int("commands", len(cmds)),
		zap.Int("bound", len(binds)))
	return nil
}
