package handler

import (
	"sort"
	"sync"

	"github.com/bwmarrin/discordgo"

	"cordkit/pkg/builders"
)

type componentKey struct {
	customID      string
	componentType discordgo.ComponentType
}

func keyOf(c builders.Component) componentKey {
	return componentKey{c.CustomID(), c.ComponentType()}
}

// Registry maps lookup keys to bound structures. Lookups match keys
// exactly.
//
// Components and modals stay bound by reference: the key each one was
// filed under is recorded, and a structure whose custom ID changed after
// binding is moved to its current key before the next lookup.
type Registry struct {
	mu         sync.RWMutex
	commands   map[string]builders.Command
	components map[componentKey]builders.Component
	modals     map[string]*builders.Modal
	compKeys   map[builders.Component]componentKey
	modalKeys  map[*builders.Modal]string
	expires    map[*Expire]struct{}
	owners     map[builders.Structure]*Expire
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		commands:   make(map[string]builders.Command),
		components: make(map[componentKey]builders.Component),
		modals:     make(map[string]*builders.Modal),
		compKeys:   make(map[builders.Component]componentKey),
		modalKeys:  make(map[*builders.Modal]string),
		expires:    make(map[*Expire]struct{}),
		owners:     make(map[builders.Structure]*Expire),
	}
}

// Counts is a snapshot of how many structures are bound.
type Counts struct {
	Commands   int `json:"commands"`
	Components int `json:"components"`
	Modals     int `json:"modals"`
	Expires    int `json:"expires"`
}

// BoundCommand describes a command bound under its remote ID.
type BoundCommand struct {
	ID      string                           `json:"id"`
	Name    string                           `json:"name"`
	Type    discordgo.ApplicationCommandType `json:"type"`
	GuildID string                           `json:"guild_id,omitempty"`
}

// Command returns the command bound to a remote command ID.
func (r *Registry) Command(id string) (builders.Command, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cmd, ok := r.commands[id]
	return cmd, ok
}

// Component returns the component bound to a custom ID and component type.
func (r *Registry) Component(customID string, t discordgo.ComponentType) (builders.Component, bool) {
	r.refresh()
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.components[componentKey{customID, t}]
	return c, ok
}

// Modal returns the modal bound to a custom ID.
func (r *Registry) Modal(customID string) (*builders.Modal, bool) {
	r.refresh()
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.modals[customID]
	return m, ok
}

// Counts returns the number of bound structures per collection.
func (r *Registry) Counts() Counts {
	r.refresh()
	r.mu.RLock()
	defer r.mu.RUnlock()
	return Counts{
		Commands:   len(r.commands),
		Components: len(r.components),
		Modals:     len(r.modals),
		Expires:    len(r.expires),
	}
}

// Commands lists bound commands ordered by ID.
func (r *Registry) Commands() []BoundCommand {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]BoundCommand, 0, len(r.commands))
	for id, cmd := range r.commands {
		out = append(out, BoundCommand{
			ID:      id,
			Name:    cmd.Name(),
			Type:    cmd.CommandType(),
			GuildID: cmd.GuildID(),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// owner returns the Expire a structure was bound through, if any.
func (r *Registry) owner(s builders.Structure) *Expire {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.owners[s]
}

func (r *Registry) setOwner(s builders.Structure, owner *Expire) {
	if owner == nil {
		delete(r.owners, s)
		return
	}
	r.owners[s] = owner
}

// bindScope replaces every command bound for guildID ("" for global)
// with bound, keyed by remote ID.
func (r *Registry) bindScope(guildID string, bound map[string]builders.Command) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, cmd := range r.commands {
		if cmd.GuildID() == guildID {
			delete(r.commands, id)
		}
	}
	for id, cmd := range bound {
		r.commands[id] = cmd
	}
}

func (r *Registry) removeCommand(cmd builders.Command) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, bound := range r.commands {
		if bound == cmd {
			delete(r.commands, id)
		}
	}
}

func (r *Registry) addComponent(c builders.Component, owner *Expire) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rekey()
	r.putComponent(c)
	r.setOwner(c, owner)
}

func (r *Registry) removeComponent(c builders.Component) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if key, ok := r.compKeys[c]; ok {
		if r.components[key] == c {
			delete(r.components, key)
		}
		delete(r.compKeys, c)
	}
	delete(r.owners, c)
}

func (r *Registry) addModal(m *builders.Modal, owner *Expire) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rekey()
	r.putModal(m)
	r.setOwner(m, owner)
}

func (r *Registry) removeModal(m *builders.Modal) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if id, ok := r.modalKeys[m]; ok {
		if r.modals[id] == m {
			delete(r.modals, id)
		}
		delete(r.modalKeys, m)
	}
	delete(r.owners, m)
}

// putComponent files c under its current key. A different structure
// holding that key is displaced and forgotten. Callers hold r.mu.
func (r *Registry) putComponent(c builders.Component) {
	key := keyOf(c)
	if old, ok := r.compKeys[c]; ok && old != key && r.components[old] == c {
		delete(r.components, old)
	}
	if prev, ok := r.components[key]; ok && prev != c {
		delete(r.compKeys, prev)
		delete(r.owners, prev)
	}
	r.components[key] = c
	r.compKeys[c] = key
}

func (r *Registry) putModal(m *builders.Modal) {
	id := m.CustomID()
	if old, ok := r.modalKeys[m]; ok && old != id && r.modals[old] == m {
		delete(r.modals, old)
	}
	if prev, ok := r.modals[id]; ok && prev != m {
		delete(r.modalKeys, prev)
		delete(r.owners, prev)
	}
	r.modals[id] = m
	r.modalKeys[m] = id
}

// stale reports whether a bound structure no longer answers to the key it
// is filed under. Callers hold r.mu.
func (r *Registry) stale() bool {
	for c, key := range r.compKeys {
		if keyOf(c) != key {
			return true
		}
	}
	for m, id := range r.modalKeys {
		if m.CustomID() != id {
			return true
		}
	}
	return false
}

func (r *Registry) refresh() {
	r.mu.RLock()
	stale := r.stale()
	r.mu.RUnlock()
	if !stale {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rekey()
}

// rekey moves every structure whose custom ID changed since it was filed.
// All moved structures leave their old keys before any is refiled, so two
// structures may swap IDs. Callers hold r.mu.
func (r *Registry) rekey() {
	var comps []builders.Component
	for c, key := range r.compKeys {
		if keyOf(c) == key {
			continue
		}
		if r.components[key] == c {
			delete(r.components, key)
		}
		delete(r.compKeys, c)
		comps = append(comps, c)
	}
	var modals []*builders.Modal
	for m, id := range r.modalKeys {
		if m.CustomID() == id {
			continue
		}
		if r.modals[id] == m {
			delete(r.modals, id)
		}
		delete(r.modalKeys, m)
		modals = append(modals, m)
	}
	for _, c := range comps {
		r.putComponent(c)
	}
	for _, m := range modals {
		r.putModal(m)
	}
}

// addExpire records e. It reports false when e is already bound.
func (r *Registry) addExpire(e *Expire, owner *Expire) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.expires[e]; ok {
		return false
	}
	r.expires[e] = struct{}{}
	r.setOwner(e, owner)
	return true
}

// removeExpire forgets e. It reports false when e was not bound.
func (r *Registry) removeExpire(e *Expire) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.expires[e]; !ok {
		return false
	}
	delete(r.expires, e)
	delete(r.owners, e)
	return true
}
