package builders

import (
	"context"

	"github.com/bwmarrin/discordgo"

	"cordkit/pkg/interaction"
)

// ContextMenu builds a message or user command shown in right-click menus.
type ContextMenu struct {
	commandBase

	cmdType     discordgo.ApplicationCommandType
	execMessage MessageCommandFunc
	execUser    UserCommandFunc
}

// NewMessageCommand returns a message context menu command.
func NewMessageCommand(name string) *ContextMenu {
	c := &ContextMenu{commandBase: commandBase{builder: "message_command"}, cmdType: discordgo.MessageApplicationCommand}
	return c.SetName(name)
}

// NewUserCommand returns a user context menu command.
func NewUserCommand(name string) *ContextMenu {
	c := &ContextMenu{commandBase: commandBase{builder: "user_command"}, cmdType: discordgo.UserApplicationCommand}
	return c.SetName(name)
}

func (c *ContextMenu) Kind() Kind {
	if c.cmdType == discordgo.UserApplicationCommand {
		return KindUserCommand
	}
	return KindMessageCommand
}

func (c *ContextMenu) CommandType() discordgo.ApplicationCommandType { return c.cmdType }

func (c *ContextMenu) Name() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.name
}

func (c *ContextMenu) GuildID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.guildID
}

func (c *ContextMenu) Meta() any {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.meta
}

func (c *ContextMenu) Err() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.err
}

// SetName sets the 1-32 character name. Unlike chat commands, mixed case
// and spaces are allowed.
func (c *ContextMenu) SetName(name string) *ContextMenu {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := checkLen(c.builder, "name", name, MaxCommandNameLength); err != nil {
		c.fail(err)
		return c
	}
	c.name = name
	return c
}

func (c *ContextMenu) SetNameLocalization(locale discordgo.Locale, name string) *ContextMenu {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.setNameLocalization(locale, name)
	return c
}

func (c *ContextMenu) SetDefaultMemberPermissions(perms int64) *ContextMenu {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.defaultPerms = &perms
	return c
}

func (c *ContextMenu) SetDMPermission(allowed bool) *ContextMenu {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.dmPermission = &allowed
	return c
}

func (c *ContextMenu) SetContexts(contexts ...discordgo.InteractionContextType) *ContextMenu {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.contexts = append([]discordgo.InteractionContextType{}, contexts...)
	return c
}

func (c *ContextMenu) SetIntegrationTypes(types ...discordgo.ApplicationIntegrationType) *ContextMenu {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.integrationTypes = append([]discordgo.ApplicationIntegrationType{}, types...)
	return c
}

func (c *ContextMenu) SetNSFW(nsfw bool) *ContextMenu {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nsfw = nsfw
	return c
}

func (c *ContextMenu) SetGuild(guildID string) *ContextMenu {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.guildID = guildID
	return c
}

func (c *ContextMenu) SetMeta(meta any) *ContextMenu {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.meta = meta
	return c
}

// OnMessage sets the callback of a message command.
func (c *ContextMenu) OnMessage(fn MessageCommandFunc) *ContextMenu {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cmdType != discordgo.MessageApplicationCommand {
		c.fail(fieldErr(c.builder, "execute", ErrInvalidValue, "OnMessage on a user command"))
		return c
	}
	c.execMessage = fn
	return c
}

// OnUser sets the callback of a user command.
func (c *ContextMenu) OnUser(fn UserCommandFunc) *ContextMenu {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cmdType != discordgo.UserApplicationCommand {
		c.fail(fieldErr(c.builder, "execute", ErrInvalidValue, "OnUser on a message command"))
		return c
	}
	c.execUser = fn
	return c
}

// ExecuteMessage runs the message callback, if any.
func (c *ContextMenu) ExecuteMessage(ctx context.Context, ic *interaction.MessageCommandContext) error {
	c.mu.RLock()
	fn := c.execMessage
	c.mu.RUnlock()
	if fn == nil {
		return nil
	}
	return fn(ctx, ic)
}

// ExecuteUser runs the user callback, if any.
func (c *ContextMenu) ExecuteUser(ctx context.Context, ic *interaction.UserCommandContext) error {
	c.mu.RLock()
	fn := c.execUser
	c.mu.RUnlock()
	if fn == nil {
		return nil
	}
	return fn(ctx, ic)
}

// Raw renders the command payload. Context menus carry no description.
func (c *ContextMenu) Raw() (*discordgo.ApplicationCommand, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.err != nil {
		return nil, c.err
	}
	if c.name == "" {
		return nil, fieldErr(c.builder, "name", ErrMissingField, "")
	}
	return c.render(c.cmdType), nil
}

var _ Command = (*ContextMenu)(nil)
