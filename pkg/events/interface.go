// Package events carries gateway events from the Discord session to the
// handlers that consume them, either in process or across processes
// through Redis.
package events

import (
	"context"
	"time"

	"github.com/bwmarrin/discordgo"
)

// InteractionCreate is the event name for incoming interactions.
const InteractionCreate = "INTERACTION_CREATE"

// Event is one gateway event.
type Event struct {
	ID          string                 `json:"id"`
	Name        string                 `json:"name"`
	Interaction *discordgo.Interaction `json:"interaction,omitempty"`
	Timestamp   time.Time              `json:"timestamp"`
}

// Handler processes one event.
type Handler func(ctx context.Context, ev *Event) error

// Stream delivers published events to the handlers subscribed to their
// name. Every delivery runs on its own goroutine, so handlers see events
// in no particular order.
type Stream interface {
	// Start starts delivering events.
	Start() error

	// Stop stops delivery and waits for running handlers to return.
	Stop() error

	// Subscribe adds a handler for an event name.
	Subscribe(name string, handler Handler)

	// Unsubscribe removes every handler for an event name.
	Unsubscribe(name string)

	// Publish queues an event for delivery.
	Publish(ev *Event) error

	// GetMetrics returns delivery counters.
	GetMetrics() map[string]uint64
}
