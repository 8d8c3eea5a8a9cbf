package handler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap/zapcore"

	"cordkit/pkg/builders"
	"cordkit/pkg/interaction"
)

type recorderHooks struct {
	mu      sync.Mutex
	errs    []error
	records []Record
}

func (r *recorderHooks) onError(ctx context.Context, c interaction.Context, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errs = append(r.errs, err)
}

func (r *recorderHooks) observe(rec Record) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, rec)
}

func (r *recorderHooks) last() Record {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.records) == 0 {
		return Record{}
	}
	return r.records[len(r.records)-1]
}

func install(h *Handler) *recorderHooks {
	hooks := &recorderHooks{}
	h.SetError(hooks.onError)
	h.SetObserver(hooks.observe)
	return hooks
}

func TestBindingOverwrite(t *testing.T) {
	h, _ := newTestHandler(t)
	var got []string
	first := builders.NewButton("confirm").SetLabel("One").
		OnExecute(func(context.Context, *interaction.ComponentContext) error { got = append(got, "first"); return nil })
	second := builders.NewButton("confirm").SetLabel("Two").
		OnExecute(func(context.Context, *interaction.ComponentContext) error { got = append(got, "second"); return nil })

	if err := h.Bind(first, second); err != nil {
		t.Fatalf("Bind: %v", err)
	}
	h.HandleInteraction(context.Background(), componentInteraction("confirm", discordgo.ButtonComponent))

	if len(got) != 1 || got[0] != "second" {
		t.Fatalf("expected only the second button to run, got %v", got)
	}
	if c := h.Registry().Counts().Components; c != 1 {
		t.Fatalf("expected 1 bound component, got %d", c)
	}
}

func TestUnbindKeepsRebinding(t *testing.T) {
	h, _ := newTestHandler(t)
	first := builders.NewButton("confirm").SetLabel("One")
	second := builders.NewButton("confirm").SetLabel("Two")
	_ = h.Bind(first, second)

	h.Unbind(first)
	if c, ok := h.Registry().Component("confirm", discordgo.ButtonComponent); !ok || c != builders.Component(second) {
		t.Fatalf("unbinding the replaced button removed its successor")
	}
	h.Unbind(second)
	if _, ok := h.Registry().Component("confirm", discordgo.ButtonComponent); ok {
		t.Fatalf("expected button unbound")
	}
}

func TestBindIsIdempotent(t *testing.T) {
	h, _ := newTestHandler(t)
	b := builders.NewButton("x").SetLabel("x")
	_ = h.Bind(b, b)
	_ = h.Bind(b)
	if c := h.Registry().Counts().Components; c != 1 {
		t.Fatalf("expected 1 bound component, got %d", c)
	}
}

func TestDropOnUnmatchedKey(t *testing.T) {
	h, _ := newTestHandler(t)
	hooks := install(h)
	ran := false
	_ = h.Bind(builders.NewButton("confirm").SetLabel("x").
		OnExecute(func(context.Context, *interaction.ComponentContext) error { ran = true; return nil }))

	h.HandleInteraction(context.Background(), componentInteraction("confirm-2", discordgo.ButtonComponent))
	h.HandleInteraction(context.Background(), componentInteraction("confirm", discordgo.SelectMenuComponent))
	h.HandleInteraction(context.Background(), modalInteraction("confirm", nil))
	h.HandleInteraction(context.Background(), commandInteraction("404", "missing", discordgo.ChatApplicationCommand))

	if ran {
		t.Fatalf("execute ran for an unmatched key")
	}
	if len(hooks.errs) != 0 {
		t.Fatalf("error callback ran for a dropped interaction: %v", hooks.errs)
	}
	for _, r := range hooks.records {
		if r.Outcome != OutcomeDropped {
			t.Fatalf("expected dropped outcome, got %s for %s", r.Outcome, r.Key)
		}
	}
	if len(hooks.records) != 4 {
		t.Fatalf("expected 4 records, got %d", len(hooks.records))
	}
}

func TestAutocompleteIsNotDispatched(t *testing.T) {
	h, _ := newTestHandler(t)
	hooks := install(h)
	i := commandInteraction("1", "ping", discordgo.ChatApplicationCommand)
	i.Type = discordgo.InteractionApplicationCommandAutocomplete

	h.HandleInteraction(context.Background(), i)
	if hooks.last().Outcome != OutcomeDropped {
		t.Fatalf("expected autocomplete to be dropped, got %s", hooks.last().Outcome)
	}
}

func TestMiddlewareShortCircuit(t *testing.T) {
	h, _ := newTestHandler(t)
	hooks := install(h)
	runs := 0
	var seenMeta any
	_ = h.Bind(builders.NewButton("x").SetLabel("x").SetMeta("admin-only").
		OnExecute(func(context.Context, *interaction.ComponentContext) error { runs++; return nil }))

	h.SetMiddleware(func(ctx context.Context, c interaction.Context, meta any) (Verdict, error) {
		seenMeta = meta
		return Halt, nil
	})
	h.HandleInteraction(context.Background(), componentInteraction("x", discordgo.ButtonComponent))
	if runs != 0 {
		t.Fatalf("execute ran after Halt")
	}
	if seenMeta != "admin-only" {
		t.Fatalf("middleware got meta %v", seenMeta)
	}
	if hooks.last().Outcome != OutcomeHalted || len(hooks.errs) != 0 {
		t.Fatalf("expected silent halt, got %s and %d errors", hooks.last().Outcome, len(hooks.errs))
	}

	h.SetMiddleware(func(ctx context.Context, c interaction.Context, meta any) (Verdict, error) {
		return Proceed, nil
	})
	h.HandleInteraction(context.Background(), componentInteraction("x", discordgo.ButtonComponent))
	if runs != 1 {
		t.Fatalf("expected execute to run after Proceed, got %d runs", runs)
	}

	h.SetMiddleware(nil)
	h.HandleInteraction(context.Background(), componentInteraction("x", discordgo.ButtonComponent))
	if runs != 2 {
		t.Fatalf("expected execute to run without middleware, got %d runs", runs)
	}
}

func TestMiddlewareErrorIsFunneled(t *testing.T) {
	h, _ := newTestHandler(t)
	hooks := install(h)
	denied := errors.New("denied")
	ran := false
	_ = h.Bind(builders.NewButton("x").SetLabel("x").
		OnExecute(func(context.Context, *interaction.ComponentContext) error { ran = true; return nil }))
	h.SetMiddleware(func(context.Context, interaction.Context, any) (Verdict, error) { return Proceed, denied })

	h.HandleInteraction(context.Background(), componentInteraction("x", discordgo.ButtonComponent))

	if ran {
		t.Fatalf("execute ran after middleware error")
	}
	var derr *DispatchError
	if len(hooks.errs) != 1 || !errors.As(hooks.errs[0], &derr) || derr.Stage != StageMiddleware || !errors.Is(derr, denied) {
		t.Fatalf("unexpected errors %v", hooks.errs)
	}
}

func TestErrorFunnel(t *testing.T) {
	h, _ := newTestHandler(t)
	hooks := install(h)
	boom := errors.New("boom")
	_ = h.Bind(builders.NewButton("x").SetLabel("x").
		OnExecute(func(context.Context, *interaction.ComponentContext) error { return boom }))

	h.HandleInteraction(context.Background(), componentInteraction("x", discordgo.ButtonComponent))

	if len(hooks.errs) != 1 {
		t.Fatalf("expected exactly one error callback, got %d", len(hooks.errs))
	}
	if !errors.Is(hooks.errs[0], boom) {
		t.Fatalf("expected boom, got %v", hooks.errs[0])
	}
	var derr *DispatchError
	if !errors.As(hooks.errs[0], &derr) || derr.Kind != builders.KindButton || derr.Key != "x" || derr.Stage != StageExecute {
		t.Fatalf("unexpected dispatch error %+v", derr)
	}
	if r := hooks.last(); r.Outcome != OutcomeErrored || r.Error == "" {
		t.Fatalf("unexpected record %+v", r)
	}
}

func TestPanicIsFunneled(t *testing.T) {
	h, _ := newTestHandler(t)
	hooks := install(h)
	_ = h.Bind(builders.NewButton("x").SetLabel("x").
		OnExecute(func(context.Context, *interaction.ComponentContext) error { panic("kaboom") }))

	h.HandleInteraction(context.Background(), componentInteraction("x", discordgo.ButtonComponent))

	if len(hooks.errs) != 1 || !errors.Is(hooks.errs[0], ErrPanic) {
		t.Fatalf("expected a panic error, got %v", hooks.errs)
	}
}

func TestErrorCallbackPanicIsSwallowed(t *testing.T) {
	h, logs := newObservedHandler(t)
	_ = h.Bind(builders.NewButton("x").SetLabel("x").
		OnExecute(func(context.Context, *interaction.ComponentContext) error { return errors.New("boom") }))
	h.SetError(func(context.Context, interaction.Context, error) { panic("handler bug") })

	h.HandleInteraction(context.Background(), componentInteraction("x", discordgo.ButtonComponent))

	entries := logs.FilterMessage("Error callback panicked").All()
	if len(entries) != 1 || entries[0].Level != zapcore.ErrorLevel {
		t.Fatalf("expected one ERROR entry, got %+v", entries)
	}
	if entries[0].ContextMap()["system"] != "handler" {
		t.Fatalf("expected system tag, got %v", entries[0].ContextMap())
	}
}

func TestUnhandledErrorIsLogged(t *testing.T) {
	h, logs := newObservedHandler(t)
	_ = h.Bind(builders.NewButton("x").SetLabel("x").
		OnExecute(func(context.Context, *interaction.ComponentContext) error { return errors.New("boom") }))

	h.HandleInteraction(context.Background(), componentInteraction("x", discordgo.ButtonComponent))

	if n := logs.FilterMessage("Unhandled dispatch error").FilterLevelExact(zapcore.ErrorLevel).Len(); n != 1 {
		t.Fatalf("expected the error to be logged once, got %d", n)
	}
}

func TestHooksAreLastSetWins(t *testing.T) {
	h, _ := newTestHandler(t)
	var calls []string
	h.SetError(func(context.Context, interaction.Context, error) { calls = append(calls, "first") })
	h.SetError(func(context.Context, interaction.Context, error) { calls = append(calls, "second") })
	_ = h.Bind(builders.NewButton("x").SetLabel("x").
		OnExecute(func(context.Context, *interaction.ComponentContext) error { return errors.New("boom") }))

	h.HandleInteraction(context.Background(), componentInteraction("x", discordgo.ButtonComponent))
	if len(calls) != 1 || calls[0] != "second" {
		t.Fatalf("expected only the latest error callback, got %v", calls)
	}
}

func TestExecuteCallbackSwapTakesEffect(t *testing.T) {
	h, _ := newTestHandler(t)
	var got string
	b := builders.NewButton("x").SetLabel("x").
		OnExecute(func(context.Context, *interaction.ComponentContext) error { got = "before"; return nil })
	_ = h.Bind(b)
	b.OnExecute(func(context.Context, *interaction.ComponentContext) error { got = "after"; return nil })

	h.HandleInteraction(context.Background(), componentInteraction("x", discordgo.ButtonComponent))
	if got != "after" {
		t.Fatalf("expected the callback set after binding to run, got %q", got)
	}
}

func TestDispatchSelectAndModal(t *testing.T) {
	h, rec := newTestHandler(t)
	var values []string
	var submitted string
	sel := builders.NewStringSelect("colour").AddOption("Red", "red", "").
		OnExecute(func(ctx context.Context, c *interaction.ComponentContext) error {
			values = c.Values()
			return c.EditParentDefer(ctx)
		})
	modal := builders.NewModal("feedback", "Feedback").
		AddTextInput(builders.NewTextInput("body", "Body", discordgo.TextInputParagraph)).
		OnExecute(func(ctx context.Context, c *interaction.ModalContext) error {
			submitted = c.Value("body")
			return c.SendEphemeral(ctx, &interaction.Message{Content: "thanks"})
		})
	if err := h.Bind(sel, modal); err != nil {
		t.Fatalf("Bind: %v", err)
	}

	i := componentInteraction("colour", discordgo.SelectMenuComponent)
	data := i.Data.(discordgo.MessageComponentInteractionData)
	data.Values = []string{"red"}
	i.Data = data
	h.HandleInteraction(context.Background(), i)
	h.HandleInteraction(context.Background(), modalInteraction("feedback", map[string]string{"body": "great"}))

	if len(values) != 1 || values[0] != "red" {
		t.Fatalf("unexpected select values %v", values)
	}
	if submitted != "great" {
		t.Fatalf("unexpected modal value %q", submitted)
	}
	responses := rec.Calls("CreateInteractionResponse")
	if len(responses) != 2 {
		t.Fatalf("expected 2 responses, got %d", len(responses))
	}
	if responses[0].Response.Type != discordgo.InteractionResponseDeferredMessageUpdate {
		t.Fatalf("unexpected select response type %d", responses[0].Response.Type)
	}
	if responses[1].Response.Data.Flags&discordgo.MessageFlagsEphemeral == 0 {
		t.Fatalf("expected ephemeral modal reply")
	}
}

func TestDispatchCommands(t *testing.T) {
	h, rec := newTestHandler(t)
	var echoed, target string
	echo := builders.NewChatCommand("echo", "repeat text").
		AddOption(builders.NewStringOption("text", "what to say").SetRequired(true)).
		OnExecute(func(ctx context.Context, c *interaction.CommandContext) error {
			echoed = c.String("text")
			return nil
		})
	inspect := builders.NewUserCommand("Inspect").
		OnUser(func(ctx context.Context, c *interaction.UserCommandContext) error {
			target = c.TargetID()
			return nil
		})
	if err := h.PushCommands(context.Background(), echo, inspect); err != nil {
		t.Fatalf("PushCommands: %v", err)
	}

	ids := map[string]string{}
	for _, p := range rec.Published("") {
		ids[p.Name] = p.ID
	}

	i := commandInteraction(ids["echo"], "echo", discordgo.ChatApplicationCommand)
	data := i.Data.(discordgo.ApplicationCommandInteractionData)
	data.Options = []*discordgo.ApplicationCommandInteractionDataOption{
		{Name: "text", Type: discordgo.ApplicationCommandOptionString, Value: "hello"},
	}
	i.Data = data
	h.HandleInteraction(context.Background(), i)

	u := commandInteraction(ids["Inspect"], "Inspect", discordgo.UserApplicationCommand)
	udata := u.Data.(discordgo.ApplicationCommandInteractionData)
	udata.TargetID = "77"
	u.Data = udata
	h.HandleInteraction(context.Background(), u)

	if echoed != "hello" {
		t.Fatalf("unexpected echo %q", echoed)
	}
	if target != "77" {
		t.Fatalf("unexpected target %q", target)
	}

	// A command ID bound to a different command type is not dispatched.
	wrong := commandInteraction(ids["echo"], "echo", discordgo.MessageApplicationCommand)
	echoed = ""
	h.HandleInteraction(context.Background(), wrong)
	if echoed != "" {
		t.Fatalf("dispatched across command types")
	}
}

func TestBindRejectsUnbindableStructures(t *testing.T) {
	h, _ := newTestHandler(t)
	tests := []builders.Structure{
		builders.NewLinkButton("https://discord.com", "Docs"),
		builders.NewPremiumButton("sku"),
		builders.NewChatCommand("ping", "pong"),
		NewExpire(0, builders.NewLinkButton("https://discord.com", "Docs")),
	}
	for _, s := range tests {
		if err := h.Bind(s); !errors.Is(err, ErrNotBindable) {
			t.Errorf("%s: expected ErrNotBindable, got %v", s.Kind(), err)
		}
	}
	if c := h.Registry().Counts(); c != (Counts{}) {
		t.Fatalf("expected nothing bound, got %+v", c)
	}
}

func TestMalformedInteractionDoesNotPanic(t *testing.T) {
	h, logs := newObservedHandler(t)
	h.HandleInteraction(context.Background(), &discordgo.Interaction{
		ID:   "bad",
		Type: discordgo.InteractionMessageComponent,
	})
	if logs.FilterMessage("Malformed interaction").Len() != 1 {
		t.Fatalf("expected the malformed interaction to be logged")
	}
}

func TestCustomIDChangeAfterBind(t *testing.T) {
	h, _ := newTestHandler(t)
	hooks := install(h)
	var calls int
	b := builders.NewButton("a").SetLabel("x").
		OnExecute(func(context.Context, *interaction.ComponentContext) error { calls++; return nil })
	if err := h.Bind(b); err != nil {
		t.Fatalf("Bind: %v", err)
	}

	b.SetCustomID("b")
	h.HandleInteraction(context.Background(), componentInteraction("b", discordgo.ButtonComponent))
	if calls != 1 {
		t.Fatalf("expected dispatch under the new id, got %d calls", calls)
	}
	h.HandleInteraction(context.Background(), componentInteraction("a", discordgo.ButtonComponent))
	if calls != 1 || hooks.last().Outcome != OutcomeDropped {
		t.Fatalf("expected the old id to be dropped")
	}

	b.SetCustomID("c")
	h.Unbind(b)
	for _, id := range []string{"a", "b", "c"} {
		if _, ok := h.Registry().Component(id, discordgo.ButtonComponent); ok {
			t.Fatalf("expected %q unbound", id)
		}
	}
	if c := h.Registry().Counts(); c != (Counts{}) {
		t.Fatalf("expected nothing bound, got %+v", c)
	}
}

func TestModalIDChangeAfterBind(t *testing.T) {
	h, _ := newTestHandler(t)
	var calls int
	m := builders.NewModal("old", "Title").
		OnExecute(func(context.Context, *interaction.ModalContext) error { calls++; return nil })
	_ = h.Bind(m)

	m.SetCustomID("new")
	h.Unbind(m)
	h.HandleInteraction(context.Background(), modalInteraction("old", nil))
	h.HandleInteraction(context.Background(), modalInteraction("new", nil))
	if calls != 0 {
		t.Fatalf("expected no dispatch after Unbind, got %d", calls)
	}
	if c := h.Registry().Counts(); c.Modals != 0 {
		t.Fatalf("expected no bound modals, got %d", c.Modals)
	}
}

func TestCustomIDSwapBetweenBoundButtons(t *testing.T) {
	h, _ := newTestHandler(t)
	var got []string
	left := builders.NewButton("left").SetLabel("L").
		OnExecute(func(context.Context, *interaction.ComponentContext) error { got = append(got, "left"); return nil })
	right := builders.NewButton("right").SetLabel("R").
		OnExecute(func(context.Context, *interaction.ComponentContext) error { got = append(got, "right"); return nil })
	_ = h.Bind(left, right)

	left.SetCustomID("right")
	right.SetCustomID("left")
	h.HandleInteraction(context.Background(), componentInteraction("left", discordgo.ButtonComponent))
	if len(got) != 1 || got[0] != "right" {
		t.Fatalf("expected the right button under the left id, got %v", got)
	}
	if c := h.Registry().Counts().Components; c != 2 {
		t.Fatalf("expected both buttons bound, got %d", c)
	}
}

func TestExpireUnbindsChangedCustomID(t *testing.T) {
	h, _ := newTestHandler(t)
	b := builders.NewButton("c").SetLabel("x")
	e := NewExpire(20*time.Millisecond, b)
	if err := h.Bind(e); err != nil {
		t.Fatalf("Bind: %v", err)
	}
	b.SetCustomID("d")

	waitFor(t, time.Second, func() bool { return h.Registry().Counts() == (Counts{}) })
	if _, ok := h.Registry().Component("c", discordgo.ButtonComponent); ok {
		t.Fatalf("old id still bound after expiry")
	}
}

func TestNilInteractionIsIgnored(t *testing.T) {
	h, _ := newTestHandler(t)
	hooks := install(h)
	h.HandleInteraction(context.Background(), nil)
	if len(hooks.records) != 0 {
		t.Fatalf("expected no dispatch record for a nil interaction")
	}
}
