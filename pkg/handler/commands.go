package handler

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"cordkit/pkg/builders"
)

type commandKey struct {
	name        string
	commandType int
}

// AddCommands adds commands to the local set published by Sync. Every
// command is rendered first so builder errors surface here. A command
// whose name and type match one already added, or another in the same
// call, is rejected with ErrDuplicateCommandName and nothing is added.
func (h *Handler) AddCommands(cmds ...builders.Command) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	seen := make(map[commandKey]struct{}, len(h.commands)+len(cmds))
	for _, cmd := range h.commands {
		seen[commandKey{cmd.Name(), int(cmd.CommandType())}] = struct{}{}
	}
	for _, cmd := range cmds {
		if cmd == nil {
			return fmt.Errorf("%w: nil command", ErrNotBindable)
		}
		if _, err := cmd.Raw(); err != nil {
			return err
		}
		key := commandKey{cmd.Name(), int(cmd.CommandType())}
		if _, dup := seen[key]; dup {
			return fmt.Errorf("%w: %q (%s)", ErrDuplicateCommandName, cmd.Name(), cmd.Kind())
		}
		seen[key] = struct{}{}
	}

	h.commands = append(h.commands, cmds...)
	return nil
}

// Commands returns the local command set.
func (h *Handler) Commands() []builders.Command {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return append([]builders.Command(nil), h.commands...)
}

// PushCommands adds commands and then runs Sync.
func (h *Handler) PushCommands(ctx context.Context, cmds ...builders.Command) error {
	if err := h.AddCommands(cmds...); err != nil {
		return err
	}
	return h.Sync(ctx)
}

// Sync reconciles the global scope and every guild a local command is
// assigned to, then binds the published commands. It stops at the first
// failing scope.
func (h *Handler) Sync(ctx context.Context) error {
	appID, err := h.applicationID(ctx)
	if err != nil {
		return err
	}

	for _, guildID := range h.scopes() {
		if err := h.reconcile(ctx, appID, guildID); err != nil {
			return err
		}
	}
	h.log.Info("Commands synced", zap.Int("bound", h.registry.Counts().Commands))
	return nil
}

func (h *Handler) applicationID(ctx context.Context) (string, error) {
	appID, err := h.client.ApplicationID(ctx)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrMissingApplicationID, err)
	}
	if appID == "" {
		return "", ErrMissingApplicationID
	}
	return appID, nil
}

// scopes returns "" for the global scope followed by each distinct guild
// assignment in sorted order.
func (h *Handler) scopes() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	guilds := make(map[string]struct{})
	for _, cmd := range h.commands {
		if g := cmd.GuildID(); g != "" {
			guilds[g] = struct{}{}
		}
	}
	out := make([]string, 0, len(guilds)+1)
	for g := range guilds {
		out = append(out, g)
	}
	sort.Strings(out)
	return append([]string{""}, out...)
}

// local returns the commands assigned to guildID, "" meaning global.
func (h *Handler) local(guildID string) []builders.Command {
	h.mu.RLock()
	defer h.mu.RUnlock()

	var out []builders.Command
	for _, cmd := range h.commands {
		if cmd.GuildID() == guildID {
			out = append(out, cmd)
		}
	}
	return out
}
