package builders

import (
	"context"
	"regexp"
	"strings"
	"sync"

	"github.com/bwmarrin/discordgo"

	"cordkit/pkg/interaction"
)

var chatNamePattern = regexp.MustCompile(`^[-_'\p{L}\p{N}\p{Devanagari}\p{Thai}]{1,32}$`)

// commandBase holds the fields shared by every command type. Callers hold mu.
type commandBase struct {
	mu sync.RWMutex
	sticky

	builder          string
	name             string
	nameLoc          map[discordgo.Locale]string
	defaultPerms     *int64
	dmPermission     *bool
	contexts         []discordgo.InteractionContextType
	integrationTypes []discordgo.ApplicationIntegrationType
	nsfw             bool
	guildID          string
	meta             any
}

func (b *commandBase) setNameLocalization(locale discordgo.Locale, name string) {
	if err := checkRange(b.builder, "name_localizations."+string(locale), name, 1, MaxCommandNameLength); err != nil {
		b.fail(err)
		return
	}
	if b.nameLoc == nil {
		b.nameLoc = make(map[discordgo.Locale]string)
	}
	b.nameLoc[locale] = name
}

func (b *commandBase) render(t discordgo.ApplicationCommandType) *discordgo.ApplicationCommand {
	cmd := &discordgo.ApplicationCommand{
		Type: t,
		Name: b.name,
	}
	if len(b.nameLoc) > 0 {
		loc := copyLocalizations(b.nameLoc)
		cmd.NameLocalizations = &loc
	}
	if b.defaultPerms != nil {
		perms := *b.defaultPerms
		cmd.DefaultMemberPermissions = &perms
	}
	if b.dmPermission != nil {
		dm := *b.dmPermission
		cmd.DMPermission = &dm
	}
	if b.nsfw {
		nsfw := true
		cmd.NSFW = &nsfw
	}
	if b.contexts != nil {
		contexts := append([]discordgo.InteractionContextType(nil), b.contexts...)
		cmd.Contexts = &contexts
	}
	if b.integrationTypes != nil {
		types := append([]discordgo.ApplicationIntegrationType(nil), b.integrationTypes...)
		cmd.IntegrationTypes = &types
	}
	return cmd
}

func copyLocalizations(m map[discordgo.Locale]string) map[discordgo.Locale]string {
	out := make(map[discordgo.Locale]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// ChatCommand builds a slash command.
type ChatCommand struct {
	commandBase

	description string
	descLoc     map[discordgo.Locale]string
	options     []*Option
	execute     CommandFunc
}

// NewChatCommand returns a chat input command builder.
func NewChatCommand(name, description string) *ChatCommand {
	c := &ChatCommand{commandBase: commandBase{builder: "chat_command"}}
	return c.SetName(name).SetDescription(description)
}

func (c *ChatCommand) Kind() Kind { return KindChatCommand }

func (c *ChatCommand) CommandType() discordgo.ApplicationCommandType {
	return discordgo.ChatApplicationCommand
}

// Name returns the command name.
func (c *ChatCommand) Name() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.name
}

// GuildID returns the guild the command is registered in.
func (c *ChatCommand) GuildID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.guildID
}

// Meta returns the value handed to middleware.
func (c *ChatCommand) Meta() any {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.meta
}

// Err returns the first error recorded by a setter.
func (c *ChatCommand) Err() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.err
}

// SetName sets the command name: lowercase, 1-32 characters, no spaces.
func (c *ChatCommand) SetName(name string) *ChatCommand {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := checkLen(c.builder, "name", name, MaxCommandNameLength); err != nil {
		c.fail(err)
		return c
	}
	if name != "" && (!chatNamePattern.MatchString(name) || strings.ToLower(name) != name) {
		c.fail(fieldErr(c.builder, "name", ErrInvalidValue, "%q must be lowercase without spaces", name))
		return c
	}
	c.name = name
	return c
}

// SetNameLocalization sets the name shown to users of locale.
func (c *ChatCommand) SetNameLocalization(locale discordgo.Locale, name string) *ChatCommand {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.setNameLocalization(locale, name)
	return c
}

// SetDescription sets the 1-100 character description.
func (c *ChatCommand) SetDescription(description string) *ChatCommand {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := checkLen(c.builder, "description", description, MaxCommandDescriptionLength); err != nil {
		c.fail(err)
		return c
	}
	c.description = description
	return c
}

// SetDescriptionLocalization sets the description shown to users of locale.
func (c *ChatCommand) SetDescriptionLocalization(locale discordgo.Locale, description string) *ChatCommand {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := checkRange(c.builder, "description_localizations."+string(locale), description, 1, MaxCommandDescriptionLength); err != nil {
		c.fail(err)
		return c
	}
	if c.descLoc == nil {
		c.descLoc = make(map[discordgo.Locale]string)
	}
	c.descLoc[locale] = description
	return c
}

// SetDefaultMemberPermissions restricts the command to members holding perms.
// Zero hides the command from everyone but administrators.
func (c *ChatCommand) SetDefaultMemberPermissions(perms int64) *ChatCommand {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.defaultPerms = &perms
	return c
}

// SetDMPermission controls whether a global command is usable in DMs.
func (c *ChatCommand) SetDMPermission(allowed bool) *ChatCommand {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.dmPermission = &allowed
	return c
}

// SetContexts sets where the command can be used.
func (c *ChatCommand) SetContexts(contexts ...discordgo.InteractionContextType) *ChatCommand {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.contexts = append([]discordgo.InteractionContextType{}, contexts...)
	return c
}

// SetIntegrationTypes sets the installation types the command is available for.
func (c *ChatCommand) SetIntegrationTypes(types ...discordgo.ApplicationIntegrationType) *ChatCommand {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.integrationTypes = append([]discordgo.ApplicationIntegrationType{}, types...)
	return c
}

// SetNSFW marks the command as age-restricted.
func (c *ChatCommand) SetNSFW(nsfw bool) *ChatCommand {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nsfw = nsfw
	return c
}

// SetGuild registers the command in a single guild instead of globally.
func (c *ChatCommand) SetGuild(guildID string) *ChatCommand {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.guildID = guildID
	return c
}

// AddOption adds a parameter, subcommand or subcommand group. Subcommands
// and plain parameters cannot be mixed.
func (c *ChatCommand) AddOption(opt *Option) *ChatCommand {
	c.mu.Lock()
	defer c.mu.Unlock()

	if opt == nil {
		c.fail(fieldErr(c.builder, "options", ErrInvalidValue, "nil option"))
		return c
	}
	name, optType := opt.Name(), opt.Type()
	for _, existing := range c.options {
		if existing.Name() == name {
			c.fail(fieldErr(c.builder, "options", ErrDuplicateParameter, "%q", name))
			return c
		}
	}
	if len(c.options) >= MaxOptions {
		c.fail(fieldErr(c.builder, "options", ErrValueTooLong, "more than %d options", MaxOptions))
		return c
	}
	if len(c.options) > 0 && isSubcommandType(c.options[0].Type()) != isSubcommandType(optType) {
		c.fail(fieldErr(c.builder, "options", ErrInvalidValue, "%q: subcommands cannot be mixed with parameters", name))
		return c
	}
	c.options = append(c.options, opt)
	return c
}

// AddOptions adds each option in order.
func (c *ChatCommand) AddOptions(opts ...*Option) *ChatCommand {
	for _, opt := range opts {
		c.AddOption(opt)
	}
	return c
}

// OnExecute sets the callback run when the command is invoked.
func (c *ChatCommand) OnExecute(fn CommandFunc) *ChatCommand {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.execute = fn
	return c
}

// SetMeta sets the value handed to middleware for this command.
func (c *ChatCommand) SetMeta(meta any) *ChatCommand {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.meta = meta
	return c
}

// Execute runs the current execute callback. A command without one does nothing.
func (c *ChatCommand) Execute(ctx context.Context, ic *interaction.CommandContext) error {
	c.mu.RLock()
	fn := c.execute
	c.mu.RUnlock()
	if fn == nil {
		return nil
	}
	return fn(ctx, ic)
}

// Raw renders the command payload.
func (c *ChatCommand) Raw() (*discordgo.ApplicationCommand, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.err != nil {
		return nil, c.err
	}
	if c.name == "" {
		return nil, fieldErr(c.builder, "name", ErrMissingField, "")
	}
	if c.description == "" {
		return nil, fieldErr(c.builder, "description", ErrMissingField, "command %q", c.name)
	}

	cmd := c.render(discordgo.ChatApplicationCommand)
	cmd.Description = c.description
	if len(c.descLoc) > 0 {
		loc := copyLocalizations(c.descLoc)
		cmd.DescriptionLocalizations = &loc
	}

	optional := false
	for _, opt := range c.options {
		raw, err := opt.Raw()
		if err != nil {
			return nil, err
		}
		if raw.Required && optional {
			return nil, fieldErr(c.builder, "options", ErrInvalidValue, "required option %q follows an optional one", raw.Name)
		}
		if !raw.Required && !isSubcommandType(raw.Type) {
			optional = true
		}
		cmd.Options = append(cmd.Options, raw)
	}
	return cmd, nil
}

var _ Command = (*ChatCommand)(nil)
