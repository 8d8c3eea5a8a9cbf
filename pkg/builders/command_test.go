package builders

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/bwmarrin/discordgo"

	"cordkit/pkg/interaction"
)

func TestChatCommandRaw(t *testing.T) {
	cmd := NewChatCommand("ban", "Ban a member").
		SetDefaultMemberPermissions(discordgo.PermissionBanMembers).
		SetDMPermission(false).
		SetNameLocalization(discordgo.German, "bannen").
		AddOption(NewUserOption("user", "Who to ban").SetRequired(true)).
		AddOption(NewStringOption("reason", "Why").SetMaxLength(200))

	raw, err := cmd.Raw()
	if err != nil {
		t.Fatalf("Raw: %v", err)
	}
	if raw.Type != discordgo.ChatApplicationCommand || raw.Name != "ban" || raw.Description != "Ban a member" {
		t.Fatalf("unexpected identity %+v", raw)
	}
	if raw.DefaultMemberPermissions == nil || *raw.DefaultMemberPermissions != discordgo.PermissionBanMembers {
		t.Fatalf("expected ban permission")
	}
	if raw.DMPermission == nil || *raw.DMPermission {
		t.Fatalf("expected dm_permission false")
	}
	if (*raw.NameLocalizations)[discordgo.German] != "bannen" {
		t.Fatalf("expected german localization")
	}
	if len(raw.Options) != 2 || !raw.Options[0].Required || raw.Options[1].MaxLength != 200 {
		t.Fatalf("unexpected options %+v", raw.Options)
	}
}

func TestChatCommandMissingFields(t *testing.T) {
	_, err := NewChatCommand("ping", "").Raw()
	if !errors.Is(err, ErrMissingField) {
		t.Fatalf("expected ErrMissingField for description, got %v", err)
	}

	_, err = NewChatCommand("", "desc").Raw()
	if !errors.Is(err, ErrMissingField) {
		t.Fatalf("expected ErrMissingField for name, got %v", err)
	}
	var fe *FieldError
	if !errors.As(err, &fe) || fe.Field != "name" {
		t.Fatalf("expected FieldError on name, got %v", err)
	}
}

func TestChatCommandDuplicateOption(t *testing.T) {
	cmd := NewChatCommand("echo", "Echo").
		AddOption(NewStringOption("text", "Text")).
		AddOption(NewIntegerOption("text", "Again"))

	if !errors.Is(cmd.Err(), ErrDuplicateParameter) {
		t.Fatalf("expected ErrDuplicateParameter, got %v", cmd.Err())
	}
	if _, err := cmd.Raw(); !errors.Is(err, ErrDuplicateParameter) {
		t.Fatalf("expected Raw to return the sticky error, got %v", err)
	}
}

func TestChatCommandStickyKeepsFirstError(t *testing.T) {
	cmd := NewChatCommand("Bad Name", "d").SetDescription(strings.Repeat("x", 101))
	var fe *FieldError
	if !errors.As(cmd.Err(), &fe) || fe.Field != "name" || !errors.Is(fe, ErrInvalidValue) {
		t.Fatalf("expected first error on name, got %v", cmd.Err())
	}
}

func TestChatCommandNameRules(t *testing.T) {
	tests := []struct {
		name string
		want error
	}{
		{"ping", nil},
		{"set-prefix", nil},
		{"ñandú", nil},
		{"Ping", ErrInvalidValue},
		{"two words", ErrInvalidValue},
		{strings.Repeat("a", 33), ErrValueTooLong},
	}
	for _, tt := range tests {
		err := NewChatCommand(tt.name, "d").Err()
		if !errors.Is(err, tt.want) || (tt.want == nil && err != nil) {
			t.Errorf("name %q: expected %v, got %v", tt.name, tt.want, err)
		}
	}
}

func TestChatCommandOptionOrdering(t *testing.T) {
	_, err := NewChatCommand("cfg", "d").
		AddOption(NewStringOption("a", "a")).
		AddOption(NewStringOption("b", "b").SetRequired(true)).
		Raw()
	if !errors.Is(err, ErrInvalidValue) {
		t.Fatalf("expected required-after-optional rejection, got %v", err)
	}
}

func TestChatCommandSubcommands(t *testing.T) {
	cmd := NewChatCommand("admin", "Admin tools").
		AddOption(NewSubcommandGroup("config", "Config").
			AddOption(NewSubcommand("set", "Set a key").
				AddOption(NewStringOption("key", "Key").SetRequired(true)))).
		AddOption(NewSubcommand("status", "Status"))

	raw, err := cmd.Raw()
	if err != nil {
		t.Fatalf("Raw: %v", err)
	}
	leaf := raw.Options[0].Options[0].Options[0]
	if leaf.Name != "key" || !leaf.Required {
		t.Fatalf("unexpected leaf option %+v", leaf)
	}

	mixed := NewChatCommand("mixed", "d").
		AddOption(NewSubcommand("a", "a")).
		AddOption(NewStringOption("b", "b"))
	if !errors.Is(mixed.Err(), ErrInvalidValue) {
		t.Fatalf("expected mixing rejection, got %v", mixed.Err())
	}
}

func TestRawIsSnapshot(t *testing.T) {
	cmd := NewChatCommand("ping", "first").SetNameLocalization(discordgo.French, "ping-fr")
	first, err := cmd.Raw()
	if err != nil {
		t.Fatalf("Raw: %v", err)
	}

	cmd.SetDescription("second").SetNameLocalization(discordgo.French, "changed")
	if first.Description != "first" || (*first.NameLocalizations)[discordgo.French] != "ping-fr" {
		t.Fatalf("earlier snapshot changed: %+v", first)
	}

	second, _ := cmd.Raw()
	if second.Description != "second" {
		t.Fatalf("expected new snapshot to reflect mutation, got %q", second.Description)
	}
}

func TestExecuteReadsCurrentCallback(t *testing.T) {
	cmd := NewChatCommand("ping", "d")
	if err := cmd.Execute(context.Background(), nil); err != nil {
		t.Fatalf("command without callback should do nothing, got %v", err)
	}

	calls := ""
	cmd.OnExecute(func(ctx context.Context, c *interaction.CommandContext) error {
		calls += "a"
		return nil
	})
	_ = cmd.Execute(context.Background(), nil)
	cmd.OnExecute(func(ctx context.Context, c *interaction.CommandContext) error {
		calls += "b"
		return nil
	})
	_ = cmd.Execute(context.Background(), nil)

	if calls != "ab" {
		t.Fatalf("expected callbacks a then b, got %q", calls)
	}
}

func TestOptionChoices(t *testing.T) {
	opt := NewIntegerOption("count", "How many").AddChoice("one", 1).AddChoice("two", int64(2))
	raw, err := opt.Raw()
	if err != nil {
		t.Fatalf("Raw: %v", err)
	}
	if len(raw.Choices) != 2 {
		t.Fatalf("expected 2 choices, got %d", len(raw.Choices))
	}

	bad := NewIntegerOption("count", "How many").AddChoice("half", "0.5")
	if !errors.Is(bad.Err(), ErrInvalidValue) {
		t.Fatalf("expected type mismatch rejection, got %v", bad.Err())
	}

	both := NewStringOption("q", "query").AddChoice("a", "a").SetAutocomplete(true)
	if !errors.Is(both.Err(), ErrInvalidValue) {
		t.Fatalf("expected autocomplete/choices conflict, got %v", both.Err())
	}

	many := NewStringOption("q", "query")
	for i := 0; i < MaxChoices+1; i++ {
		many.AddChoice(strings.Repeat("c", i+1), strings.Repeat("v", i+1))
	}
	if !errors.Is(many.Err(), ErrValueTooLong) {
		t.Fatalf("expected too many choices, got %v", many.Err())
	}
}

func TestOptionBounds(t *testing.T) {
	if err := NewStringOption("s", "s").SetMinValue(1).Err(); !errors.Is(err, ErrInvalidValue) {
		t.Fatalf("expected bounds rejection on string option, got %v", err)
	}
	_, err := NewNumberOption("n", "n").SetMinValue(5).SetMaxValue(1).Raw()
	if !errors.Is(err, ErrInvalidValue) {
		t.Fatalf("expected min > max rejection, got %v", err)
	}
	raw, err := NewChannelOption("c", "c").SetChannelTypes(discordgo.ChannelTypeGuildText).Raw()
	if err != nil || len(raw.ChannelTypes) != 1 {
		t.Fatalf("expected channel types, got %v %v", raw, err)
	}
}

func TestContextMenu(t *testing.T) {
	msg := NewMessageCommand("Report Message")
	raw, err := msg.Raw()
	if err != nil {
		t.Fatalf("Raw: %v", err)
	}
	if raw.Type != discordgo.MessageApplicationCommand || raw.Description != "" {
		t.Fatalf("unexpected message command %+v", raw)
	}
	if msg.Kind() != KindMessageCommand {
		t.Fatalf("expected message kind, got %s", msg.Kind())
	}

	user := NewUserCommand("Inspect").SetGuild("123")
	if user.Kind() != KindUserCommand || user.GuildID() != "123" {
		t.Fatalf("unexpected user command state")
	}
	user.OnMessage(func(context.Context, *interaction.MessageCommandContext) error { return nil })
	if !errors.Is(user.Err(), ErrInvalidValue) {
		t.Fatalf("expected OnMessage rejection on a user command, got %v", user.Err())
	}
}

func TestKindClassification(t *testing.T) {
	if !KindChatCommand.IsCommand() || KindButton.IsCommand() {
		t.Fatalf("unexpected IsCommand results")
	}
	if !KindChannelSelect.IsComponent() || KindModal.IsComponent() || KindExpire.IsComponent() {
		t.Fatalf("unexpected IsComponent results")
	}
	if KindStringSelect.String() != "string_select" {
		t.Fatalf("unexpected kind name %q", KindStringSelect)
	}
}
