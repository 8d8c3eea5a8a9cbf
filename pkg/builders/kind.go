// Package builders provides fluent builders for application commands,
// message components, modals and embeds.
//
// Setters return their receiver so calls chain. The first setter that
// receives an invalid value records an error which is reported by Err and
// returned by Raw; later setters keep working but never replace it.
//
// Builders are shared by reference once bound to a handler. Raw renders a
// fresh snapshot on every call, so visual changes after binding only show up
// in payloads rendered later, while execute callbacks and middleware meta
// are read at dispatch time and take effect immediately.
package builders

import (
	"context"

	"github.com/bwmarrin/discordgo"

	"cordkit/pkg/interaction"
)

// Kind discriminates the structures a handler can bind.
type Kind int

const (
	KindChatCommand Kind = iota + 1
	KindMessageCommand
	KindUserCommand
	KindButton
	KindStringSelect
	KindUserSelect
	KindRoleSelect
	KindMentionableSelect
	KindChannelSelect
	KindModal
	KindExpire
)

var kindNames = map[Kind]string{
	KindChatCommand:       "chat_command",
	KindMessageCommand:    "message_command",
	KindUserCommand:       "user_command",
	KindButton:            "button",
	KindStringSelect:      "string_select",
	KindUserSelect:        "user_select",
	KindRoleSelect:        "role_select",
	KindMentionableSelect: "mentionable_select",
	KindChannelSelect:     "channel_select",
	KindModal:             "modal",
	KindExpire:            "expire",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// IsCommand reports whether k is an application command kind.
func (k Kind) IsCommand() bool {
	return k == KindChatCommand || k == KindMessageCommand || k == KindUserCommand
}

// IsComponent reports whether k is a message component kind.
func (k Kind) IsComponent() bool {
	return k >= KindButton && k <= KindChannelSelect
}

// Structure is anything a handler can bind.
type Structure interface {
	Kind() Kind
}

// Command is implemented by ChatCommand and ContextMenu.
type Command interface {
	Structure
	Name() string
	CommandType() discordgo.ApplicationCommandType
	// GuildID is the guild the command is registered in, empty for global.
	GuildID() string
	Raw() (*discordgo.ApplicationCommand, error)
	Meta() any
}

// Component is implemented by bindable buttons and selects.
type Component interface {
	Structure
	CustomID() string
	ComponentType() discordgo.ComponentType
	Execute(ctx context.Context, c *interaction.ComponentContext) error
	Meta() any
}

// Renderer renders a message component for inclusion in an action row.
type Renderer interface {
	Render() (discordgo.MessageComponent, error)
}

// Callback signatures.
type (
	CommandFunc        func(ctx context.Context, c *interaction.CommandContext) error
	MessageCommandFunc func(ctx context.Context, c *interaction.MessageCommandContext) error
	UserCommandFunc    func(ctx context.Context, c *interaction.UserCommandContext) error
	ComponentFunc      func(ctx context.Context, c *interaction.ComponentContext) error
	ModalFunc          func(ctx context.Context, c *interaction.ModalContext) error
)
