package events

import (
	"time"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"cordkit/pkg/logger"
)

// ForwardSession publishes every interaction the session receives to
// stream. The returned function removes the session handler.
func ForwardSession(s *discordgo.Session, stream Stream, log *logger.Logger) func() {
	log = log.System("events")
	return s.AddHandler(func(_ *discordgo.Session, ic *discordgo.InteractionCreate) {
		if err := stream.Publish(NewInteractionEvent(ic.Interaction)); err != nil {
			log.Error("Failed to publish interaction",
				zap.String("interaction_id", ic.ID),
				zap.Error(err))
		}
	})
}

// NewInteractionEvent wraps an interaction in an InteractionCreate event.
func NewInteractionEvent(i *discordgo.Interaction) *Event {
	return &Event{
		ID:          i.ID,
		Name:        InteractionCreate,
		Interaction: i,
		Timestamp:   time.Now(),
	}
}
