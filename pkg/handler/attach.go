package handler

import (
	"context"
	"fmt"

	"cordkit/pkg/events"
)

// Attach subscribes the dispatcher to interaction events on stream.
func (h *Handler) Attach(stream events.Stream) {
	stream.Subscribe(events.InteractionCreate, h.handleEvent)
}

func (h *Handler) handleEvent(ctx context.Context, ev *events.Event) error {
	if ev.Interaction == nil {
		return fmt.Errorf("event %s carries no interaction", ev.ID)
	}
	h.HandleInteraction(ctx, ev.Interaction)
	return nil
}
