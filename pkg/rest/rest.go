// Package rest defines the subset of the Discord REST API the handler and
// interaction contexts consume, and an adapter over *discordgo.Session.
package rest

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/bwmarrin/discordgo"
)

// OriginalMessage addresses the initial response of an interaction in
// followup edit and delete calls.
const OriginalMessage = "@original"

// ErrNoApplicationID is returned when the application identity cannot be resolved.
var ErrNoApplicationID = errors.New("application id unavailable")

// Client is the REST surface used by cordkit. An empty guildID addresses
// the global command scope.
type Client interface {
	ApplicationID(ctx context.Context) (string, error)

	CreateInteractionResponse(ctx context.Context, i *discordgo.Interaction, resp *discordgo.InteractionResponse) error
	CreateFollowupMessage(ctx context.Context, i *discordgo.Interaction, params *discordgo.WebhookParams) (*discordgo.Message, error)
	EditFollowupMessage(ctx context.Context, i *discordgo.Interaction, messageID string, edit *discordgo.WebhookEdit) (*discordgo.Message, error)
	DeleteFollowupMessage(ctx context.Context, i *discordgo.Interaction, messageID string) error

	GetCommands(ctx context.Context, appID, guildID string) ([]*discordgo.ApplicationCommand, error)
	BulkOverwriteCommands(ctx context.Context, appID, guildID string, cmds []*discordgo.ApplicationCommand) ([]*discordgo.ApplicationCommand, error)
	CreateCommand(ctx context.Context, appID, guildID string, cmd *discordgo.ApplicationCommand) (*discordgo.ApplicationCommand, error)
	DeleteCommand(ctx context.Context, appID, guildID, commandID string) error
}

// SessionClient implements Client on top of a discordgo session.
type SessionClient struct {
	session *discordgo.Session

	mu    sync.Mutex
	appID string
}

// NewSessionClient wraps s. appID may be empty, in which case it is
// resolved from the session on first use.
func NewSessionClient(s *discordgo.Session, appID string) *SessionClient {
	return &SessionClient{session: s, appID: appID}
}

// Session returns the wrapped session.
func (c *SessionClient) Session() *discordgo.Session {
	return c.session
}

// ApplicationID returns the configured ID, else the bot user's ID from the
// ready state, else the ID reported by /users/@me.
func (c *SessionClient) ApplicationID(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.appID != "" {
		return c.appID, nil
	}
	if c.session.State != nil && c.session.State.User != nil && c.session.State.User.ID != "" {
		c.appID = c.session.State.User.ID
		return c.appID, nil
	}

	u, err := c.session.User("@me", discordgo.WithContext(ctx))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNoApplicationID, err)
	}
	if u == nil || u.ID == "" {
		return "", ErrNoApplicationID
	}
	c.appID = u.ID
	return c.appID, nil
}

func (c *SessionClient) CreateInteractionResponse(ctx context.Context, i *discordgo.Interaction, resp *discordgo.InteractionResponse) error {
	return c.session.InteractionRespond(i, resp, discordgo.WithContext(ctx))
}

func (c *SessionClient) CreateFollowupMessage(ctx context.Context, i *discordgo.Interaction, params *discordgo.WebhookParams) (*discordgo.Message, error) {
	return c.session.FollowupMessageCreate(i, true, params, discordgo.WithContext(ctx))
}

func (c *SessionClient) EditFollowupMessage(ctx context.Context, i *discordgo.Interaction, messageID string, edit *discordgo.WebhookEdit) (*discordgo.Message, error) {
	return c.session.FollowupMessageEdit(i, messageID, edit, discordgo.WithContext(ctx))
}

func (c *SessionClient) DeleteFollowupMessage(ctx context.Context, i *discordgo.Interaction, messageID string) error {
	return c.session.FollowupMessageDelete(i, messageID, discordgo.WithContext(ctx))
}

// GetCommands fetches published commands including localizations.
func (c *SessionClient) GetCommands(ctx context.Context, appID, guildID string) ([]*discordgo.ApplicationCommand, error) {
	return c.session.ApplicationCommands(appID, guildID, discordgo.WithContext(ctx))
}

func (c *SessionClient) BulkOverwriteCommands(ctx context.Context, appID, guildID string, cmds []*discordgo.ApplicationCommand) ([]*discordgo.ApplicationCommand, error) {
	if cmds == nil {
		// nil encodes as null, which Discord rejects.
		cmds = []*discordgo.ApplicationCommand{}
	}
	return c.session.ApplicationCommandBulkOverwrite(appID, guildID, cmds, discordgo.WithContext(ctx))
}

func (c *SessionClient) CreateCommand(ctx context.Context, appID, guildID string, cmd *discordgo.ApplicationCommand) (*discordgo.ApplicationCommand, error) {
	return c.session.ApplicationCommandCreate(appID, guildID, cmd, discordgo.WithContext(ctx))
}

func (c *SessionClient) DeleteCommand(ctx context.Context, appID, guildID, commandID string) error {
	return c.session.ApplicationCommandDelete(appID, guildID, commandID, discordgo.WithContext(ctx))
}

var _ Client = (*SessionClient)(nil)
