package handler

import (
	"context"
	"errors"
	"testing"

	"cordkit/pkg/builders"
	"cordkit/pkg/rest/resttest"
)

func withRegistered(t *testing.T) {
	t.Helper()
	registeredMu.Lock()
	saved := registered
	registered = nil
	registeredMu.Unlock()
	t.Cleanup(func() {
		registeredMu.Lock()
		registered = saved
		registeredMu.Unlock()
	})
}

func TestLoadRegistered(t *testing.T) {
	withRegistered(t)
	h, rec := newTestHandler(t)

	Register(builders.NewChatCommand("ping", "pong"), builders.NewMessageCommand("Quote"))
	Register(builders.NewButton("refresh").SetLabel("Refresh"), builders.NewModal("report", "Report"))

	if n := len(Registered()); n != 4 {
		t.Fatalf("expected 4 registered structures, got %d", n)
	}
	if err := h.LoadRegistered(); err != nil {
		t.Fatalf("LoadRegistered: %v", err)
	}
	if n := len(h.Commands()); n != 2 {
		t.Fatalf("expected 2 local commands, got %d", n)
	}
	if c := h.Registry().Counts(); c.Components != 1 || c.Modals != 1 || c.Commands != 0 {
		t.Fatalf("unexpected counts %+v", c)
	}

	if err := h.Sync(context.Background()); err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if n := rec.Count(resttest.MethodCreateCommand); n != 2 {
		t.Fatalf("expected 2 creates, got %d", n)
	}
	if c := h.Registry().Counts().Commands; c != 2 {
		t.Fatalf("expected 2 bound commands, got %d", c)
	}
}

func TestLoadStopsOnDuplicateCommand(t *testing.T) {
	h, _ := newTestHandler(t)
	err := h.Load(
		builders.NewChatCommand("ping", "pong"),
		builders.NewChatCommand("ping", "again"),
		builders.NewButton("x").SetLabel("x"),
	)
	if !errors.Is(err, ErrDuplicateCommandName) {
		t.Fatalf("expected ErrDuplicateCommandName, got %v", err)
	}
	if c := h.Registry().Counts(); c.Components != 0 {
		t.Fatalf("expected nothing bound, got %+v", c)
	}
}
