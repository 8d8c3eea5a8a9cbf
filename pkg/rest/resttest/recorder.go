// Package resttest provides an in-memory rest.Client that records calls and
// keeps published commands per scope.
package resttest

import (
	"context"
	"strconv"
	"sync"

	"github.com/bwmarrin/discordgo"

	"cordkit/pkg/rest"
)

// Method names recorded in Call.Method.
const (
	MethodApplicationID  = "ApplicationID"
	MethodRespond        = "CreateInteractionResponse"
	MethodFollowupCreate = "CreateFollowupMessage"
	MethodFollowupEdit   = "EditFollowupMessage"
	MethodFollowupDelete = "DeleteFollowupMessage"
	MethodGetCommands    = "GetCommands"
	MethodBulkOverwrite  = "BulkOverwriteCommands"
	MethodCreateCommand  = "CreateCommand"
	MethodDeleteCommand  = "DeleteCommand"
)

// Call is one recorded request.
type Call struct {
	Method    string
	GuildID   string
	CommandID string
	MessageID string

	Command  *discordgo.ApplicationCommand
	Commands []*discordgo.ApplicationCommand
	Response *discordgo.InteractionResponse
	Params   *discordgo.WebhookParams
	Edit     *discordgo.WebhookEdit
}

// Recorder is a fake rest.Client. The zero value is not usable; call New.
type Recorder struct {
	mu        sync.Mutex
	appID     string
	published map[string][]*discordgo.ApplicationCommand
	calls     []Call
	failures  map[string]error
	nextID    int64
}

// New returns a recorder answering ApplicationID with appID. An empty appID
// makes ApplicationID fail with rest.ErrNoApplicationID.
func New(appID string) *Recorder {
	return &Recorder{
		appID:     appID,
		published: make(map[string][]*discordgo.ApplicationCommand),
		failures:  make(map[string]error),
		nextID:    1000,
	}
}

// Seed publishes cmds in the given scope without recording a call. Commands
// without an ID get one.
func (r *Recorder) Seed(guildID string, cmds ...*discordgo.ApplicationCommand) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, cmd := range cmds {
		r.published[guildID] = append(r.published[guildID], r.publish(guildID, cmd))
	}
}

// FailOn makes every subsequent call of method return err. A nil err clears it.
func (r *Recorder) FailOn(method string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err == nil {
		delete(r.failures, method)
		return
	}
	r.failures[method] = err
}

// Calls returns recorded calls, filtered to the given methods when any are given.
func (r *Recorder) Calls(methods ...string) []Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(methods) == 0 {
		return append([]Call(nil), r.calls...)
	}
	var out []Call
	for _, c := range r.calls {
		for _, m := range methods {
			if c.Method == m {
				out = append(out, c)
				break
			}
		}
	}
	return out
}

// Count returns how many calls of method were recorded.
func (r *Recorder) Count(method string) int {
	return len(r.Calls(method))
}

// Reset forgets recorded calls but keeps published commands.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = nil
}

// Published returns the commands currently published in a scope.
func (r *Recorder) Published(guildID string) []*discordgo.ApplicationCommand {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*discordgo.ApplicationCommand(nil), r.published[guildID]...)
}

func (r *Recorder) record(c Call) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, c)
	return r.failures[c.Method]
}

func (r *Recorder) newID() string {
	r.nextID++
	return strconv.FormatInt(r.nextID, 10)
}

// publish returns the copy Discord would store. Callers hold r.mu.
func (r *Recorder) publish(guildID string, cmd *discordgo.ApplicationCommand) *discordgo.ApplicationCommand {
	cp := *cmd
	if cp.ID == "" {
		cp.ID = r.newID()
	}
	if cp.Type == 0 {
		cp.Type = discordgo.ChatApplicationCommand
	}
	cp.ApplicationID = r.appID
	cp.GuildID = guildID
	cp.Version = cp.ID
	return &cp
}

func (r *Recorder) ApplicationID(ctx context.Context) (string, error) {
	if err := r.record(Call{Method: MethodApplicationID}); err != nil {
		return "", err
	}
	if r.appID == "" {
		return "", rest.ErrNoApplicationID
	}
	return r.appID, nil
}

func (r *Recorder) CreateInteractionResponse(ctx context.Context, i *discordgo.Interaction, resp *discordgo.InteractionResponse) error {
	return r.record(Call{Method: MethodRespond, Response: resp})
}

func (r *Recorder) CreateFollowupMessage(ctx context.Context, i *discordgo.Interaction, params *discordgo.WebhookParams) (*discordgo.Message, error) {
	if err := r.record(Call{Method: MethodFollowupCreate, Params: params}); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return &discordgo.Message{ID: r.newID(), ChannelID: i.ChannelID, Content: params.Content}, nil
}

func (r *Recorder) EditFollowupMessage(ctx context.Context, i *discordgo.Interaction, messageID string, edit *discordgo.WebhookEdit) (*discordgo.Message, error) {
	if err := r.record(Call{Method: MethodFollowupEdit, MessageID: messageID, Edit: edit}); err != nil {
		return nil, err
	}
	msg := &discordgo.Message{ID: messageID, ChannelID: i.ChannelID}
	if edit.Content != nil {
		msg.Content = *edit.Content
	}
	return msg, nil
}

func (r *Recorder) DeleteFollowupMessage(ctx context.Context, i *discordgo.Interaction, messageID string) error {
	return r.record(Call{Method: MethodFollowupDelete, MessageID: messageID})
}

func (r *Recorder) GetCommands(ctx context.Context, appID, guildID string) ([]*discordgo.ApplicationCommand, error) {
	if err := r.record(Call{Method: MethodGetCommands, GuildID: guildID}); err != nil {
		return nil, err
	}
	return r.Published(guildID), nil
}

func (r *Recorder) BulkOverwriteCommands(ctx context.Context, appID, guildID string, cmds []*discordgo.ApplicationCommand) ([]*discordgo.ApplicationCommand, error) {
	if err := r.record(Call{Method: MethodBulkOverwrite, GuildID: guildID, Commands: cmds}); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*discordgo.ApplicationCommand, 0, len(cmds))
	for _, cmd := range cmds {
		out = append(out, r.publish(guildID, cmd))
	}
	r.published[guildID] = out
	return append([]*discordgo.ApplicationCommand(nil), out...), nil
}

func (r *Recorder) CreateCommand(ctx context.Context, appID, guildID string, cmd *discordgo.ApplicationCommand) (*discordgo.ApplicationCommand, error) {
	if err := r.record(Call{Method: MethodCreateCommand, GuildID: guildID, Command: cmd}); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *cmd
	cp.ID = r.newID()
	created := r.publish(guildID, &cp)
	r.published[guildID] = append(r.published[guildID], created)
	return created, nil
}

func (r *Recorder) DeleteCommand(ctx context.Context, appID, guildID, commandID string) error {
	if err := r.record(Call{Method: MethodDeleteCommand, GuildID: guildID, CommandID: commandID}); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := r.published[guildID][:0:0]
	for _, cmd := range r.published[guildID] {
		if cmd.ID != commandID {
			kept = append(kept, cmd)
		}
	}
	r.published[guildID] = kept
	return nil
}

var _ rest.Client = (*Recorder)(nil)
