package interaction

import (
	"github.com/bwmarrin/discordgo"

	"cordkit/pkg/rest"
)

// ModalContext is passed to modal submit callbacks.
type ModalContext struct {
	*Base
	customID string
	values   map[string]string
}

func NewModalContext(client rest.Client, i *discordgo.Interaction) *ModalContext {
	data := i.ModalSubmitData()
	c := &ModalContext{
		Base:     NewBase(client, i),
		customID: data.CustomID,
		values:   make(map[string]string),
	}
	collectInputs(data.Components, c.values)
	return c
}

func collectInputs(components []discordgo.MessageComponent, into map[string]string) {
	for _, comp := range components {
		switch v := comp.(type) {
		case *discordgo.ActionsRow:
			collectInputs(v.Components, into)
		case discordgo.ActionsRow:
			collectInputs(v.Components, into)
		case *discordgo.TextInput:
			into[v.CustomID] = v.Value
		case discordgo.TextInput:
			into[v.CustomID] = v.Value
		}
	}
}

// CustomID is the custom ID of the submitted modal.
func (c *ModalContext) CustomID() string { return c.customID }

// Value returns the submitted text of the input with the given custom ID.
func (c *ModalContext) Value(customID string) string { return c.values[customID] }

// Values returns every submitted input keyed by custom ID.
func (c *ModalContext) Values() map[string]string {
	out := make(map[string]string, len(c.values))
	for k, v := range c.values {
		out[k] = v
	}
	return out
}
