package interaction

import (
	"context"

	"github.com/bwmarrin/discordgo"

	"cordkit/pkg/rest"
)

// ComponentContext is passed to button and select menu callbacks.
type ComponentContext struct {
	*Base
	data discordgo.MessageComponentInteractionData
}

func NewComponentContext(client rest.Client, i *discordgo.Interaction) *ComponentContext {
	return &ComponentContext{Base: NewBase(client, i), data: i.MessageComponentData()}
}

// CustomID is the custom ID of the component that was used.
func (c *ComponentContext) CustomID() string { return c.data.CustomID }

// ComponentType is the type of the component that was used.
func (c *ComponentContext) ComponentType() discordgo.ComponentType { return c.data.ComponentType }

// Values returns the selected values of a select menu. For user, role,
// mentionable and channel selects these are snowflakes.
func (c *ComponentContext) Values() []string {
	return append([]string(nil), c.data.Values...)
}

// Resolved returns the entities behind the selected snowflakes.
func (c *ComponentContext) Resolved() discordgo.MessageComponentInteractionDataResolved {
	return c.data.Resolved
}

// Message is the message the component is attached to.
func (c *ComponentContext) Message() *discordgo.Message {
	return c.raw.Message
}

// EditParent replaces the parent message as the initial response.
func (c *ComponentContext) EditParent(ctx context.Context, msg *Message) error {
	data := msg.responseData()
	// Flags cannot change on update.
	data.Flags = 0
	return c.respond(ctx, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseUpdateMessage,
		Data: data,
	}, StateReplied)
}

// EditParentDefer acknowledges the component without a visible change. The
// parent message can be edited later through Edit with the original ID.
func (c *ComponentContext) EditParentDefer(ctx context.Context) error {
	return c.respond(ctx, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredMessageUpdate,
	}, StateDeferredUpdate)
}
