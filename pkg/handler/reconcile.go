package handler

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"cordkit/pkg/builders"
	"cordkit/pkg/sanitize"
)

// Diff is the comparison of local and published commands in one scope.
type Diff struct {
	GuildID string
	Scope   sanitize.Scope

	// Published is every command currently published in the scope.
	Published []*discordgo.ApplicationCommand
	// Unchanged are published commands with a structurally equal local
	// counterpart.
	Unchanged []*discordgo.ApplicationCommand
	// Deleted are published commands with no local counterpart.
	Deleted []*discordgo.ApplicationCommand
	// Created are local payloads with no published counterpart.
	Created []*discordgo.ApplicationCommand

	local []builders.Command
}

// BulkOverwrite reports whether the diff replaces everything published in
// the scope, in which case one bulk overwrite is issued instead of
// individual deletes and creates.
func (d *Diff) BulkOverwrite() bool {
	return len(d.Published) > 0 && len(d.Deleted) == len(d.Published)
}

// Changed reports whether applying the diff issues any call.
func (d *Diff) Changed() bool {
	return len(d.Deleted) > 0 || len(d.Created) > 0
}

// Summary is a printable view of a Diff.
type Summary struct {
	Scope     string   `yaml:"scope" json:"scope"`
	GuildID   string   `yaml:"guild_id,omitempty" json:"guild_id,omitempty"`
	Bulk      bool     `yaml:"bulk_overwrite" json:"bulk_overwrite"`
	Unchanged []string `yaml:"unchanged" json:"unchanged"`
	Delete    []string `yaml:"delete" json:"delete"`
	Create    []string `yaml:"create" json:"create"`
}

// Summary lists command names per outcome.
func (d *Diff) Summary() Summary {
	names := func(cmds []*discordgo.ApplicationCommand) []string {
		out := make([]string, 0, len(cmds))
		for _, c := range cmds {
			out = append(out, c.Name)
		}
		return out
	}
	return Summary{
		Scope:     d.Scope.String(),
		GuildID:   d.GuildID,
		Bulk:      d.BulkOverwrite(),
		Unchanged: names(d.Unchanged),
		Delete:    names(d.Deleted),
		Create:    names(d.Created),
	}
}

// Plan compares the local commands of one scope with what is published,
// without changing anything. guildID "" selects the global scope.
func (h *Handler) Plan(ctx context.Context, guildID string) (*Diff, error) {
	appID, err := h.applicationID(ctx)
	if err != nil {
		return nil, err
	}
	return h.plan(ctx, appID, guildID)
}

// PlanAll plans every scope Sync would reconcile.
func (h *Handler) PlanAll(ctx context.Context) ([]*Diff, error) {
	appID, err := h.applicationID(ctx)
	if err != nil {
		return nil, err
	}
	var diffs []*Diff
	for _, guildID := range h.scopes() {
		d, err := h.plan(ctx, appID, guildID)
		if err != nil {
			return nil, err
		}
		diffs = append(diffs, d)
	}
	return diffs, nil
}

func (h *Handler) plan(ctx context.Context, appID, guildID string) (*Diff, error) {
	scope := sanitize.Global
	if guildID != "" {
		scope = sanitize.Guild
	}
	d := &Diff{GuildID: guildID, Scope: scope, local: h.local(guildID)}

	published, err := h.client.GetCommands(ctx, appID, guildID)
	if err != nil {
		return nil, fmt.Errorf("fetching %s commands: %w", scopeName(guildID), err)
	}
	d.Published = published

	// Published commands grouped by canonical key. Several published
	// commands may share a key, so each local match consumes one.
	remote := make(map[string][]*discordgo.ApplicationCommand, len(published))
	for _, cmd := range published {
		key, err := canonicalKey(cmd, scope)
		if err != nil {
			return nil, err
		}
		remote[key] = append(remote[key], cmd)
	}

	matched := make(map[*discordgo.ApplicationCommand]bool, len(published))
	for _, cmd := range d.local {
		raw, err := cmd.Raw()
		if err != nil {
			return nil, err
		}
		key, err := canonicalKey(raw, scope)
		if err != nil {
			return nil, err
		}
		if candidates := remote[key]; len(candidates) > 0 {
			d.Unchanged = append(d.Unchanged, candidates[0])
			matched[candidates[0]] = true
			remote[key] = candidates[1:]
			continue
		}
		d.Created = append(d.Created, raw)
	}

	for _, cmd := range published {
		if !matched[cmd] {
			d.Deleted = append(d.Deleted, cmd)
		}
	}
	return d, nil
}

func canonicalKey(cmd *discordgo.ApplicationCommand, scope sanitize.Scope) (string, error) {
	canonical, err := sanitize.Canonical(cmd, scope)
	if err != nil {
		return "", err
	}
	return sanitize.Key(canonical), nil
}

// reconcile applies the diff of one scope and binds the result.
func (h *Handler) reconcile(ctx context.Context, appID, guildID string) error {
	d, err := h.plan(ctx, appID, guildID)
	if err != nil {
		return err
	}

	published := d.Published
	switch {
	case d.BulkOverwrite():
		if err := h.limiter.Wait(ctx); err != nil {
			return err
		}
		published, err = h.client.BulkOverwriteCommands(ctx, appID, guildID, d.Created)
		if err != nil {
			return fmt.Errorf("overwriting %s commands: %w", scopeName(guildID), err)
		}
	case d.Changed():
		for _, cmd := range d.Deleted {
			if err := h.limiter.Wait(ctx); err != nil {
				return err
			}
			if err := h.client.DeleteCommand(ctx, appID, guildID, cmd.ID); err != nil {
				return fmt.Errorf("deleting command %q (%s): %w", cmd.Name, cmd.ID, err)
			}
		}
		for _, cmd := range d.Created {
			if err := h.limiter.Wait(ctx); err != nil {
				return err
			}
			if _, err := h.client.CreateCommand(ctx, appID, guildID, cmd); err != nil {
				return fmt.Errorf("creating command %q: %w", cmd.Name, err)
			}
		}
		published, err = h.client.GetCommands(ctx, appID, guildID)
		if err != nil {
			return fmt.Errorf("fetching %s commands: %w", scopeName(guildID), err)
		}
	}

	bound := make(map[string]builders.Command, len(published))
	for _, p := range published {
		for _, cmd := range d.local {
			if cmd.Name() == p.Name && cmd.CommandType() == commandType(p) {
				bound[p.ID] = cmd
				break
			}
		}
	}
	h.registry.bindScope(guildID, bound)

	h.log.Info("Reconciled commands",
		zap.String("scope", scopeName(guildID)),
		zap.Int("unchanged", len(d.Unchanged)),
		zap.Int("deleted", len(d.Deleted)),
		zap.Int("created", len(d.Created)),
		zap.Bool("bulk_overwrite", d.BulkOverwrite()),
		zap.Int("bound", len(bound)),
	)
	return nil
}

func commandType(cmd *discordgo.ApplicationCommand) discordgo.ApplicationCommandType {
	if cmd.Type == 0 {
		return discordgo.ChatApplicationCommand
	}
	return cmd.Type
}

func scopeName(guildID string) string {
	if guildID == "" {
		return "global"
	}
	return "guild " + guildID
}
