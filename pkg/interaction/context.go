// Package interaction provides the per-interaction contexts handed to
// execute callbacks, and the response rules that govern them.
//
// A context is created for one incoming interaction and discarded once its
// callbacks return. The first response must be exactly one of Defer, Send,
// ShowModal or (for components) EditParent/EditParentDefer. Everything
// after that goes through followups.
package interaction

import (
	"context"
	"errors"
	"sync"

	"github.com/bwmarrin/discordgo"

	"cordkit/pkg/rest"
)

var (
	// ErrAlreadyResponded is returned when an initial response is attempted
	// twice, or when the original message is addressed while only a defer exists.
	ErrAlreadyResponded = errors.New("interaction already responded")
	// ErrNotResponded is returned by followup operations before any initial response.
	ErrNotResponded = errors.New("interaction has not been responded to")
	// ErrModalNotAllowed is returned when ShowModal is called on a modal submission.
	ErrModalNotAllowed = errors.New("modal submissions cannot open another modal")
)

// State is the response state of an interaction.
type State int

const (
	StateNone State = iota
	// StateDeferred: a loading state was sent and no message exists yet.
	StateDeferred
	// StateDeferredUpdate: a component acknowledged without changing its message.
	StateDeferredUpdate
	StateReplied
	StateModal
)

func (s State) String() string {
	switch s {
	case StateDeferred:
		return "deferred"
	case StateDeferredUpdate:
		return "deferred_update"
	case StateReplied:
		return "replied"
	case StateModal:
		return "modal"
	default:
		return "none"
	}
}

// Message is an outgoing message body used by Send, FollowUp, Edit and EditParent.
type Message struct {
	Content         string
	Embeds          []*discordgo.MessageEmbed
	Components      []discordgo.MessageComponent
	AllowedMentions *discordgo.MessageAllowedMentions
	Files           []*discordgo.File
	TTS             bool
	Ephemeral       bool
}

func (m *Message) flags() discordgo.MessageFlags {
	if m.Ephemeral {
		return discordgo.MessageFlagsEphemeral
	}
	return 0
}

func (m *Message) responseData() *discordgo.InteractionResponseData {
	return &discordgo.InteractionResponseData{
		TTS:             m.TTS,
		Content:         m.Content,
		Components:      m.Components,
		Embeds:          m.Embeds,
		AllowedMentions: m.AllowedMentions,
		Files:           m.Files,
		Flags:           m.flags(),
	}
}

func (m *Message) webhookParams() *discordgo.WebhookParams {
	return &discordgo.WebhookParams{
		Content:         m.Content,
		TTS:             m.TTS,
		Files:           m.Files,
		Components:      m.Components,
		Embeds:          m.Embeds,
		AllowedMentions: m.AllowedMentions,
		Flags:           m.flags(),
	}
}

func (m *Message) webhookEdit() *discordgo.WebhookEdit {
	edit := &discordgo.WebhookEdit{
		Content:         &m.Content,
		Files:           m.Files,
		AllowedMentions: m.AllowedMentions,
	}
	if m.Components != nil {
		edit.Components = &m.Components
	}
	if m.Embeds != nil {
		edit.Embeds = &m.Embeds
	}
	return edit
}

// Modal is anything that renders to a modal response body.
type Modal interface {
	Raw() (*discordgo.InteractionResponseData, error)
}

// Context is implemented by every typed interaction context.
type Context interface {
	Interaction() *discordgo.Interaction
	ID() string
	ApplicationID() string
	GuildID() string
	ChannelID() string
	User() *discordgo.User
	Member() *discordgo.Member
	Locale() discordgo.Locale
	GuildLocale() discordgo.Locale
	AppPermissions() int64
	MemberPermissions() int64
	State() State
	Responded() bool

	Defer(ctx context.Context, ephemeral bool) error
	Send(ctx context.Context, msg *Message) error
	SendEphemeral(ctx context.Context, msg *Message) error
	SendContent(ctx context.Context, content string) error
	Edit(ctx context.Context, messageID string, msg *Message) (*discordgo.Message, error)
	Delete(ctx context.Context, messageID string) error
	FollowUp(ctx context.Context, msg *Message) (*discordgo.Message, error)
	ShowModal(ctx context.Context, modal Modal) error
}

// Base carries the identifiers of an interaction and its response state.
// Typed contexts embed it.
type Base struct {
	raw    *discordgo.Interaction
	client rest.Client

	mu    sync.Mutex
	state State
}

// NewBase returns a Base for i answering through client.
func NewBase(client rest.Client, i *discordgo.Interaction) *Base {
	return &Base{raw: i, client: client}
}

func (b *Base) Interaction() *discordgo.Interaction { return b.raw }
func (b *Base) ID() string                          { return b.raw.ID }
func (b *Base) ApplicationID() string               { return b.raw.AppID }
func (b *Base) GuildID() string                     { return b.raw.GuildID }
func (b *Base) ChannelID() string                   { return b.raw.ChannelID }
func (b *Base) Member() *discordgo.Member           { return b.raw.Member }
func (b *Base) Locale() discordgo.Locale            { return b.raw.Locale }
func (b *Base) AppPermissions() int64               { return b.raw.AppPermissions }

// User returns the invoking user, taken from the member in guilds.
func (b *Base) User() *discordgo.User {
	if b.raw.Member != nil && b.raw.Member.User != nil {
		return b.raw.Member.User
	}
	return b.raw.User
}

// UserID is a shortcut for User().ID that tolerates a missing user.
func (b *Base) UserID() string {
	if u := b.User(); u != nil {
		return u.ID
	}
	return ""
}

// GuildLocale is empty outside guilds.
func (b *Base) GuildLocale() discordgo.Locale {
	if b.raw.GuildLocale == nil {
		return ""
	}
	return *b.raw.GuildLocale
}

// MemberPermissions returns the invoking member's resolved permissions, or 0 outside guilds.
func (b *Base) MemberPermissions() int64 {
	if b.raw.Member == nil {
		return 0
	}
	return b.raw.Member.Permissions
}

// State returns the current response state.
func (b *Base) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Responded reports whether an initial response was made.
func (b *Base) Responded() bool {
	return b.State() != StateNone
}

// respond sends an initial response and moves to next on success.
func (b *Base) respond(ctx context.Context, resp *discordgo.InteractionResponse, next State) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state != StateNone {
		return ErrAlreadyResponded
	}
	if err := b.client.CreateInteractionResponse(ctx, b.raw, resp); err != nil {
		return err
	}
	b.state = next
	return nil
}

// Defer acknowledges the interaction with a loading state. The message is
// completed later by Send or FollowUp.
func (b *Base) Defer(ctx context.Context, ephemeral bool) error {
	resp := &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
	}
	if ephemeral {
		resp.Data = &discordgo.InteractionResponseData{Flags: discordgo.MessageFlagsEphemeral}
	}
	return b.respond(ctx, resp, StateDeferred)
}

// Send replies to the interaction. After a Defer it completes the deferred
// response through a followup.
func (b *Base) Send(ctx context.Context, msg *Message) error {
	b.mu.Lock()
	switch b.state {
	case StateNone:
		b.mu.Unlock()
		return b.respond(ctx, &discordgo.InteractionResponse{
			Type: discordgo.InteractionResponseChannelMessageWithSource,
			Data: msg.responseData(),
		}, StateReplied)
	case StateDeferred, StateDeferredUpdate:
		defer b.mu.Unlock()
		if _, err := b.client.CreateFollowupMessage(ctx, b.raw, msg.webhookParams()); err != nil {
			return err
		}
		b.state = StateReplied
		return nil
	default:
		b.mu.Unlock()
		return ErrAlreadyResponded
	}
}

// SendEphemeral is Send with the ephemeral flag set.
func (b *Base) SendEphemeral(ctx context.Context, msg *Message) error {
	cp := *msg
	cp.Ephemeral = true
	return b.Send(ctx, &cp)
}

// SendContent sends a plain text reply.
func (b *Base) SendContent(ctx context.Context, content string) error {
	return b.Send(ctx, &Message{Content: content})
}

// FollowUp creates an additional message. The first followup after a Defer
// completes the deferred response.
func (b *Base) FollowUp(ctx context.Context, msg *Message) (*discordgo.Message, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateNone, StateModal:
		return nil, ErrNotResponded
	}
	m, err := b.client.CreateFollowupMessage(ctx, b.raw, msg.webhookParams())
	if err != nil {
		return nil, err
	}
	if b.state == StateDeferred {
		b.state = StateReplied
	}
	return m, nil
}

// checkMessage validates that messageID can be addressed in the current state.
// Callers hold b.mu.
func (b *Base) checkMessage(messageID string) error {
	switch b.state {
	case StateNone, StateModal:
		return ErrNotResponded
	case StateDeferred:
		if messageID == rest.OriginalMessage {
			return ErrAlreadyResponded
		}
	}
	return nil
}

// Edit edits a message sent in response to this interaction. An empty
// messageID addresses the original response.
func (b *Base) Edit(ctx context.Context, messageID string, msg *Message) (*discordgo.Message, error) {
	if messageID == "" {
		messageID = rest.OriginalMessage
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.checkMessage(messageID); err != nil {
		return nil, err
	}
	return b.client.EditFollowupMessage(ctx, b.raw, messageID, msg.webhookEdit())
}

// Delete deletes a message sent in response to this interaction. An empty
// messageID addresses the original response.
func (b *Base) Delete(ctx context.Context, messageID string) error {
	if messageID == "" {
		messageID = rest.OriginalMessage
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.checkMessage(messageID); err != nil {
		return err
	}
	return b.client.DeleteFollowupMessage(ctx, b.raw, messageID)
}

// ShowModal opens modal as the initial response.
func (b *Base) ShowModal(ctx context.Context, modal Modal) error {
	if b.raw.Type == discordgo.InteractionModalSubmit {
		return ErrModalNotAllowed
	}
	data, err := modal.Raw()
	if err != nil {
		return err
	}
	return b.respond(ctx, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseModal,
		Data: data,
	}, StateModal)
}

var _ Context = (*Base)(nil)
