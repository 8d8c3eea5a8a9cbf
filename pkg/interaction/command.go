package interaction

import (
	"github.com/bwmarrin/discordgo"

	"cordkit/pkg/rest"
)

// CommandContext is passed to chat input command callbacks.
type CommandContext struct {
	*Base
	data    discordgo.ApplicationCommandInteractionData
	path    []string
	options map[string]*discordgo.ApplicationCommandInteractionDataOption
}

// NewCommandContext builds the context for a chat input command interaction.
func NewCommandContext(client rest.Client, i *discordgo.Interaction) *CommandContext {
	c := &CommandContext{
		Base:    NewBase(client, i),
		data:    i.ApplicationCommandData(),
		options: make(map[string]*discordgo.ApplicationCommandInteractionDataOption),
	}

	// Descend through subcommand groups and subcommands to the leaf options.
	opts := c.data.Options
	for len(opts) == 1 && isSubcommand(opts[0].Type) {
		c.path = append(c.path, opts[0].Name)
		opts = opts[0].Options
	}
	for _, opt := range opts {
		c.options[opt.Name] = opt
	}
	return c
}

func isSubcommand(t discordgo.ApplicationCommandOptionType) bool {
	return t == discordgo.ApplicationCommandOptionSubCommand || t == discordgo.ApplicationCommandOptionSubCommandGroup
}

// CommandName is the invoked command's name.
func (c *CommandContext) CommandName() string { return c.data.Name }

// CommandID is the invoked command's remote ID.
func (c *CommandContext) CommandID() string { return c.data.ID }

// SubcommandPath returns the group and subcommand names that were invoked, outermost first.
func (c *CommandContext) SubcommandPath() []string {
	return append([]string(nil), c.path...)
}

// Option returns the named leaf option.
func (c *CommandContext) Option(name string) (*discordgo.ApplicationCommandInteractionDataOption, bool) {
	opt, ok := c.options[name]
	return opt, ok
}

// String returns a string option, or "" when absent.
func (c *CommandContext) String(name string) string {
	if opt, ok := c.options[name]; ok {
		if s, ok := opt.Value.(string); ok {
			return s
		}
	}
	return ""
}

// Int returns an integer option, or 0 when absent.
func (c *CommandContext) Int(name string) int64 {
	if opt, ok := c.options[name]; ok {
		if f, ok := opt.Value.(float64); ok {
			return int64(f)
		}
	}
	return 0
}

// Float returns a number option, or 0 when absent.
func (c *CommandContext) Float(name string) float64 {
	if opt, ok := c.options[name]; ok {
		if f, ok := opt.Value.(float64); ok {
			return f
		}
	}
	return 0
}

// Bool returns a boolean option, or false when absent.
func (c *CommandContext) Bool(name string) bool {
	if opt, ok := c.options[name]; ok {
		if b, ok := opt.Value.(bool); ok {
			return b
		}
	}
	return false
}

// snowflake returns the ID carried by an entity option.
func (c *CommandContext) snowflake(name string) string {
	if opt, ok := c.options[name]; ok {
		if s, ok := opt.Value.(string); ok {
			return s
		}
	}
	return ""
}

func (c *CommandContext) resolved() *discordgo.ApplicationCommandInteractionDataResolved {
	if c.data.Resolved == nil {
		return &discordgo.ApplicationCommandInteractionDataResolved{}
	}
	return c.data.Resolved
}

// UserOption resolves a user option.
func (c *CommandContext) UserOption(name string) *discordgo.User {
	return c.resolved().Users[c.snowflake(name)]
}

// MemberOption resolves the guild member behind a user option.
func (c *CommandContext) MemberOption(name string) *discordgo.Member {
	return c.resolved().Members[c.snowflake(name)]
}

// RoleOption resolves a role option.
func (c *CommandContext) RoleOption(name string) *discordgo.Role {
	return c.resolved().Roles[c.snowflake(name)]
}

// ChannelOption resolves a channel option.
func (c *CommandContext) ChannelOption(name string) *discordgo.Channel {
	return c.resolved().Channels[c.snowflake(name)]
}

// AttachmentOption resolves an attachment option.
func (c *CommandContext) AttachmentOption(name string) *discordgo.MessageAttachment {
	return c.resolved().Attachments[c.snowflake(name)]
}

// MessageCommandContext is passed to message context menu callbacks.
type MessageCommandContext struct {
	*Base
	data discordgo.ApplicationCommandInteractionData
}

func NewMessageCommandContext(client rest.Client, i *discordgo.Interaction) *MessageCommandContext {
	return &MessageCommandContext{Base: NewBase(client, i), data: i.ApplicationCommandData()}
}

// CommandName is the invoked command's name.
func (c *MessageCommandContext) CommandName() string { return c.data.Name }

// TargetID is the ID of the message the command was used on.
func (c *MessageCommandContext) TargetID() string { return c.data.TargetID }

// TargetMessage returns the resolved target message.
func (c *MessageCommandContext) TargetMessage() *discordgo.Message {
	if c.data.Resolved == nil {
		return nil
	}
	return c.data.Resolved.Messages[c.data.TargetID]
}

// UserCommandContext is passed to user context menu callbacks.
type UserCommandContext struct {
	*Base
	data discordgo.ApplicationCommandInteractionData
}

func NewUserCommandContext(client rest.Client, i *discordgo.Interaction) *UserCommandContext {
	return &UserCommandContext{Base: NewBase(client, i), data: i.ApplicationCommandData()}
}

// CommandName is the invoked command's name.
func (c *UserCommandContext) CommandName() string { return c.data.Name }

// TargetID is the ID of the user the command was used on.
func (c *UserCommandContext) TargetID() string { return c.data.TargetID }

// TargetUser returns the resolved target user.
func (c *UserCommandContext) TargetUser() *discordgo.User {
	if c.data.Resolved == nil {
		return nil
	}
	return c.data.Resolved.Users[c.data.TargetID]
}

// TargetMember returns the resolved target member, nil outside guilds.
func (c *UserCommandContext) TargetMember() *discordgo.Member {
	if c.data.Resolved == nil {
		return nil
	}
	return c.data.Resolved.Members[c.data.TargetID]
}
