package builders

import (
	"github.com/bwmarrin/discordgo"
)

// ActionRow renders components into a single action row: up to five
// buttons, or exactly one select menu.
func ActionRow(components ...Renderer) (discordgo.ActionsRow, error) {
	if len(components) == 0 {
		return discordgo.ActionsRow{}, fieldErr("action_row", "components", ErrMissingField, "")
	}
	if len(components) > MaxRowComponents {
		return discordgo.ActionsRow{}, fieldErr("action_row", "components", ErrValueTooLong, "%d > %d", len(components), MaxRowComponents)
	}

	row := discordgo.ActionsRow{Components: make([]discordgo.MessageComponent, 0, len(components))}
	for _, c := range components {
		if _, isSelect := c.(*Select); isSelect && len(components) > 1 {
			return discordgo.ActionsRow{}, fieldErr("action_row", "components", ErrInvalidValue, "a select menu fills its row")
		}
		rendered, err := c.Render()
		if err != nil {
			return discordgo.ActionsRow{}, err
		}
		row.Components = append(row.Components, rendered)
	}
	return row, nil
}

// Rows renders each group as one action row.
func Rows(groups ...[]Renderer) ([]discordgo.MessageComponent, error) {
	out := make([]discordgo.MessageComponent, 0, len(groups))
	for _, group := range groups {
		row, err := ActionRow(group...)
		if err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, nil
}
