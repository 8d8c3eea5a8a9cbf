package builders

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/bwmarrin/discordgo"

	"cordkit/pkg/interaction"
)

func TestButtonRaw(t *testing.T) {
	b := NewButton("confirm").SetLabel("Confirm").SetStyle(discordgo.SuccessButton).SetEmoji("✅", "", false)
	raw, err := b.Raw()
	if err != nil {
		t.Fatalf("Raw: %v", err)
	}
	if raw.CustomID != "confirm" || raw.Style != discordgo.SuccessButton || raw.Emoji.Name != "✅" {
		t.Fatalf("unexpected button %+v", raw)
	}
	if !b.Bindable() || b.Kind() != KindButton || b.ComponentType() != discordgo.ButtonComponent {
		t.Fatalf("unexpected button classification")
	}
}

func TestButtonValidation(t *testing.T) {
	if _, err := NewButton("x").Raw(); !errors.Is(err, ErrMissingField) {
		t.Fatalf("expected missing label, got %v", err)
	}
	if _, err := NewButton("").SetLabel("x").Raw(); !errors.Is(err, ErrMissingField) {
		t.Fatalf("expected missing custom id, got %v", err)
	}
	if err := NewButton(strings.Repeat("x", 101)).Err(); !errors.Is(err, ErrValueTooLong) {
		t.Fatalf("expected custom id too long, got %v", err)
	}
	if err := NewButton("x").SetLabel(strings.Repeat("l", 81)).Err(); !errors.Is(err, ErrValueTooLong) {
		t.Fatalf("expected label too long, got %v", err)
	}
	if err := NewButton("x").SetStyle(discordgo.LinkButton).Err(); !errors.Is(err, ErrInvalidValue) {
		t.Fatalf("expected link style rejection, got %v", err)
	}
}

func TestLinkButtonNotBindable(t *testing.T) {
	b := NewLinkButton("https://discord.com", "Docs")
	if b.Bindable() {
		t.Fatalf("link buttons must not be bindable")
	}
	raw, err := b.Raw()
	if err != nil || raw.URL != "https://discord.com" || raw.CustomID != "" {
		t.Fatalf("unexpected link button %+v %v", raw, err)
	}
}

func TestSelectVariants(t *testing.T) {
	tests := []struct {
		sel  *Select
		kind Kind
		ct   discordgo.ComponentType
	}{
		{NewStringSelect("s").AddOption("A", "a", ""), KindStringSelect, discordgo.SelectMenuComponent},
		{NewUserSelect("u"), KindUserSelect, discordgo.UserSelectMenuComponent},
		{NewRoleSelect("r"), KindRoleSelect, discordgo.RoleSelectMenuComponent},
		{NewMentionableSelect("m"), KindMentionableSelect, discordgo.MentionableSelectMenuComponent},
		{NewChannelSelect("c").SetChannelTypes(discordgo.ChannelTypeGuildVoice), KindChannelSelect, discordgo.ChannelSelectMenuComponent},
	}
	for _, tt := range tests {
		if tt.sel.Kind() != tt.kind || tt.sel.ComponentType() != tt.ct {
			t.Errorf("%s: unexpected classification %s/%d", tt.sel.CustomID(), tt.sel.Kind(), tt.sel.ComponentType())
		}
		raw, err := tt.sel.Raw()
		if err != nil {
			t.Errorf("%s: Raw: %v", tt.sel.CustomID(), err)
			continue
		}
		if raw.Type() != tt.ct {
			t.Errorf("%s: rendered type %d, want %d", tt.sel.CustomID(), raw.Type(), tt.ct)
		}
	}
}

func TestSelectValidation(t *testing.T) {
	if _, err := NewStringSelect("s").Raw(); !errors.Is(err, ErrMissingField) {
		t.Fatalf("expected missing options, got %v", err)
	}
	if err := NewUserSelect("u").AddOption("A", "a", "").Err(); !errors.Is(err, ErrInvalidValue) {
		t.Fatalf("expected options rejected on user select, got %v", err)
	}
	if err := NewStringSelect("s").AddOption("A", "a", "").AddOption("B", "a", "").Err(); !errors.Is(err, ErrDuplicateParameter) {
		t.Fatalf("expected duplicate value rejection, got %v", err)
	}
	if err := NewStringSelect("s").SetPlaceholder(strings.Repeat("p", 151)).Err(); !errors.Is(err, ErrValueTooLong) {
		t.Fatalf("expected placeholder too long, got %v", err)
	}
	_, err := NewStringSelect("s").AddOption("A", "a", "").SetMinValues(3).SetMaxValues(2).Raw()
	if !errors.Is(err, ErrInvalidValue) {
		t.Fatalf("expected min > max rejection, got %v", err)
	}
}

func TestActionRow(t *testing.T) {
	row, err := ActionRow(NewButton("a").SetLabel("A"), NewButton("b").SetLabel("B"))
	if err != nil {
		t.Fatalf("ActionRow: %v", err)
	}
	if len(row.Components) != 2 {
		t.Fatalf("expected 2 components, got %d", len(row.Components))
	}

	_, err = ActionRow(NewStringSelect("s").AddOption("A", "a", ""), NewButton("b").SetLabel("B"))
	if !errors.Is(err, ErrInvalidValue) {
		t.Fatalf("expected select to fill its row, got %v", err)
	}

	var six []Renderer
	for i := 0; i < 6; i++ {
		six = append(six, NewButton(UniqueCustomID("b")).SetLabel("x"))
	}
	if _, err := ActionRow(six...); !errors.Is(err, ErrValueTooLong) {
		t.Fatalf("expected too many components, got %v", err)
	}

	rows, err := Rows([]Renderer{NewButton("a").SetLabel("A")}, []Renderer{NewUserSelect("u")})
	if err != nil || len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d (%v)", len(rows), err)
	}
}

func TestModalRaw(t *testing.T) {
	m := NewModal("feedback", "Feedback").
		AddTextInput(NewTextInput("subject", "Subject", discordgo.TextInputShort)).
		AddTextInput(NewTextInput("body", "Body", discordgo.TextInputParagraph).SetRequired(false).SetMaxLength(500))

	data, err := m.Raw()
	if err != nil {
		t.Fatalf("Raw: %v", err)
	}
	if data.CustomID != "feedback" || data.Title != "Feedback" || len(data.Components) != 2 {
		t.Fatalf("unexpected modal %+v", data)
	}
	row := data.Components[1].(discordgo.ActionsRow)
	input := row.Components[0].(*discordgo.TextInput)
	if input.CustomID != "body" || input.Required || input.MaxLength != 500 {
		t.Fatalf("unexpected input %+v", input)
	}
}

func TestModalValidation(t *testing.T) {
	if _, err := NewModal("m", "Title").Raw(); !errors.Is(err, ErrMissingField) {
		t.Fatalf("expected missing inputs, got %v", err)
	}
	if _, err := NewModal("m", "").AddTextInput(NewTextInput("a", "A", discordgo.TextInputShort)).Raw(); !errors.Is(err, ErrMissingField) {
		t.Fatalf("expected missing title, got %v", err)
	}
	if err := NewModal("m", strings.Repeat("t", 46)).Err(); !errors.Is(err, ErrValueTooLong) {
		t.Fatalf("expected title too long, got %v", err)
	}

	m := NewModal("m", "T")
	for i := 0; i < MaxModalRows+1; i++ {
		m.AddTextInput(NewTextInput(UniqueCustomID("in"), "L", discordgo.TextInputShort))
	}
	if !errors.Is(m.Err(), ErrValueTooLong) {
		t.Fatalf("expected too many rows, got %v", m.Err())
	}

	dup := NewModal("m", "T").
		AddTextInput(NewTextInput("a", "A", discordgo.TextInputShort)).
		AddTextInput(NewTextInput("a", "B", discordgo.TextInputShort))
	if !errors.Is(dup.Err(), ErrDuplicateParameter) {
		t.Fatalf("expected duplicate input rejection, got %v", dup.Err())
	}
}

func TestComponentExecuteSwapsCallback(t *testing.T) {
	b := NewButton("x").SetLabel("x")
	var got string
	b.OnExecute(func(context.Context, *interaction.ComponentContext) error { got = "first"; return nil })
	b.OnExecute(func(context.Context, *interaction.ComponentContext) error { got = "second"; return nil })
	if err := b.Execute(context.Background(), nil); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if got != "second" {
		t.Fatalf("expected latest callback, got %q", got)
	}
}

func TestUniqueCustomID(t *testing.T) {
	a, b := UniqueCustomID("vote"), UniqueCustomID("vote")
	if a == b {
		t.Fatalf("expected distinct ids")
	}
	if !strings.HasPrefix(a, "vote:") || CustomIDPrefix(a) != "vote" {
		t.Fatalf("unexpected id %q", a)
	}
	long := UniqueCustomID(strings.Repeat("p", 200))
	if len(long) > MaxCustomIDLength {
		t.Fatalf("id exceeds limit: %d", len(long))
	}
	if CustomIDPrefix("plain") != "" {
		t.Fatalf("expected empty prefix for non-unique id")
	}
}
