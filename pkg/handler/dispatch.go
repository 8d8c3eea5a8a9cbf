package handler

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"cordkit/pkg/builders"
	"cordkit/pkg/interaction"
)

// Stage names the callback a DispatchError came from.
type Stage string

const (
	StageMiddleware Stage = "middleware"
	StageExecute    Stage = "execute"
)

// DispatchError is handed to the error callback when middleware or an
// execute callback fails or panics.
type DispatchError struct {
	Kind  builders.Kind
	Key   string
	Stage Stage
	Err   error
}

func (e *DispatchError) Error() string {
	return fmt.Sprintf("%s %q: %s: %v", e.Kind, e.Key, e.Stage, e.Err)
}

func (e *DispatchError) Unwrap() error { return e.Err }

// Outcome is how a dispatch ended.
type Outcome string

const (
	OutcomeDropped   Outcome = "dropped"
	OutcomeHalted    Outcome = "halted"
	OutcomeSucceeded Outcome = "succeeded"
	OutcomeErrored   Outcome = "errored"
)

// Record describes one finished dispatch.
type Record struct {
	Time          time.Time     `json:"time"`
	InteractionID string        `json:"interaction_id"`
	GuildID       string        `json:"guild_id,omitempty"`
	UserID        string        `json:"user_id,omitempty"`
	Kind          string        `json:"kind,omitempty"`
	Key           string        `json:"key"`
	Outcome       Outcome       `json:"outcome"`
	Duration      time.Duration `json:"duration"`
	Error         string        `json:"error,omitempty"`
}

// target is a matched structure ready to run.
type target struct {
	structure builders.Structure
	key       string
	meta      any
	ctx       interaction.Context
	execute   func(ctx context.Context) error
}

// HandleInteraction dispatches one interaction. Interactions that match no
// bound structure are dropped. It never panics and never returns an error:
// failures go to the error callback, or to the log when none is set.
func (h *Handler) HandleInteraction(ctx context.Context, i *discordgo.Interaction) {
	if i == nil {
		h.log.Debug("Nil interaction ignored")
		return
	}
	defer func() {
		if r := recover(); r != nil {
			h.log.Error("Malformed interaction", zap.String("interaction_id", i.ID), zap.Any("panic", r))
		}
	}()

	start := time.Now()
	rec := Record{
		Time:          start,
		InteractionID: i.ID,
		GuildID:       i.GuildID,
		UserID:        userID(i),
		Key:           lookupKey(i),
	}

	onError, middleware, observer := h.hooks()
	defer func() {
		rec.Duration = time.Since(start)
		h.observe(observer, rec)
	}()

	t, ok := h.route(i)
	if !ok {
		rec.Outcome = OutcomeDropped
		h.log.Debug("No structure bound for interaction",
			zap.String("interaction_id", i.ID),
			zap.Stringer("type", i.Type),
			zap.String("key", rec.Key))
		return
	}
	rec.Kind = t.structure.Kind().String()

	h.touch(t.structure)

	if h.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}

	var derr *DispatchError
	verdict := Proceed
	if middleware != nil {
		err := safely(func() error {
			var err error
			verdict, err = middleware(ctx, t.ctx, t.meta)
			return err
		})
		if err != nil {
			derr = &DispatchError{Kind: t.structure.Kind(), Key: t.key, Stage: StageMiddleware, Err: err}
		}
	}

	switch {
	case derr != nil:
	case verdict == Halt:
		rec.Outcome = OutcomeHalted
		h.log.Debug("Dispatch halted by middleware", zap.String("key", t.key))
		return
	default:
		if err := safely(func() error { return t.execute(ctx) }); err != nil {
			derr = &DispatchError{Kind: t.structure.Kind(), Key: t.key, Stage: StageExecute, Err: err}
		}
	}

	if derr == nil {
		rec.Outcome = OutcomeSucceeded
		return
	}
	rec.Outcome = OutcomeErrored
	rec.Error = derr.Error()
	h.report(ctx, onError, t.ctx, derr)
}

// route classifies i and finds the structure bound to its lookup key.
func (h *Handler) route(i *discordgo.Interaction) (*target, bool) {
	switch i.Type {
	case discordgo.InteractionApplicationCommand:
		data := i.ApplicationCommandData()
		cmd, ok := h.registry.Command(data.ID)
		if !ok || cmd.CommandType() != data.CommandType {
			return nil, false
		}
		t := &target{structure: cmd, key: data.Name, meta: cmd.Meta()}
		switch data.CommandType {
		case discordgo.ChatApplicationCommand:
			chat, ok := cmd.(*builders.ChatCommand)
			if !ok {
				return nil, false
			}
			c := interaction.NewCommandContext(h.client, i)
			t.ctx = c
			t.execute = func(ctx context.Context) error { return chat.Execute(ctx, c) }
		case discordgo.MessageApplicationCommand:
			menu, ok := cmd.(*builders.ContextMenu)
			if !ok {
				return nil, false
			}
			c := interaction.NewMessageCommandContext(h.client, i)
			t.ctx = c
			t.execute = func(ctx context.Context) error { return menu.ExecuteMessage(ctx, c) }
		case discordgo.UserApplicationCommand:
			menu, ok := cmd.(*builders.ContextMenu)
			if !ok {
				return nil, false
			}
			c := interaction.NewUserCommandContext(h.client, i)
			t.ctx = c
			t.execute = func(ctx context.Context) error { return menu.ExecuteUser(ctx, c) }
		default:
			return nil, false
		}
		return t, true

	case discordgo.InteractionMessageComponent:
		data := i.MessageComponentData()
		comp, ok := h.registry.Component(data.CustomID, data.ComponentType)
		if !ok {
			return nil, false
		}
		c := interaction.NewComponentContext(h.client, i)
		return &target{
			structure: comp,
			key:       data.CustomID,
			meta:      comp.Meta(),
			ctx:       c,
			execute:   func(ctx context.Context) error { return comp.Execute(ctx, c) },
		}, true

	case discordgo.InteractionModalSubmit:
		data := i.ModalSubmitData()
		modal, ok := h.registry.Modal(data.CustomID)
		if !ok {
			return nil, false
		}
		c := interaction.NewModalContext(h.client, i)
		return &target{
			structure: modal,
			key:       data.CustomID,
			meta:      modal.Meta(),
			ctx:       c,
			execute:   func(ctx context.Context) error { return modal.Execute(ctx, c) },
		}, true
	}

	// Pings and autocomplete are not dispatched.
	return nil, false
}

// touch restarts the timers of every Expire s was bound through.
func (h *Handler) touch(s builders.Structure) {
	for e := h.registry.owner(s); e != nil; e = h.registry.owner(e) {
		e.reset()
	}
}

func (h *Handler) report(ctx context.Context, onError ErrorFunc, c interaction.Context, err *DispatchError) {
	if onError == nil {
		h.log.Error("Unhandled dispatch error",
			zap.String("kind", err.Kind.String()),
			zap.String("key", err.Key),
			zap.String("stage", string(err.Stage)),
			zap.Error(err.Err))
		return
	}

	defer func() {
		if r := recover(); r != nil {
			h.log.Error("Error callback panicked",
				zap.String("key", err.Key),
				zap.Any("panic", r),
				zap.NamedError("dispatch_error", err))
		}
	}()
	onError(ctx, c, err)
}

func (h *Handler) observe(observer Observer, rec Record) {
	if observer == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			h.log.Error("Dispatch observer panicked", zap.Any("panic", r))
		}
	}()
	observer(rec)
}

// safely runs fn, turning a panic into an error wrapping ErrPanic.
func safely(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrPanic, r)
		}
	}()
	return fn()
}

func lookupKey(i *discordgo.Interaction) string {
	switch i.Type {
	case discordgo.InteractionApplicationCommand:
		return i.ApplicationCommandData().Name
	case discordgo.InteractionMessageComponent:
		return i.MessageComponentData().CustomID
	case discordgo.InteractionModalSubmit:
		return i.ModalSubmitData().CustomID
	}
	return ""
}

func userID(i *discordgo.Interaction) string {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User.ID
	}
	if i.User != nil {
		return i.User.ID
	}
	return ""
}
