// Package sanitize turns application command payloads into a canonical
// form so a locally declared command and its remotely published copy can be
// compared structurally.
//
// The canonical form is only ever used for comparison. Payloads sent to
// Discord are the original command values.
package sanitize

import (
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/bwmarrin/discordgo"
)

// Scope selects the registration scope a command is sanitized for.
type Scope int

const (
	// Global commands are visible in every guild and, optionally, in DMs.
	Global Scope = iota
	// Guild commands belong to a single guild.
	Guild
)

func (s Scope) String() string {
	if s == Guild {
		return "guild"
	}
	return "global"
}

// Fields assigned by Discord that change between publications.
var volatileFields = []string{"id", "application_id", "guild_id", "version"}

const chatInputType = float64(discordgo.ChatApplicationCommand)

// Sanitize returns the canonical form of raw. It never fails and never
// mutates raw. Sanitize(Sanitize(x)) equals Sanitize(x).
func Sanitize(raw map[string]any, scope Scope) map[string]any {
	cmd := normalizeMap(raw)

	for _, key := range volatileFields {
		delete(cmd, key)
	}
	// Deprecated in favour of default_member_permissions.
	delete(cmd, "default_permission")

	if _, ok := cmd["type"]; !ok {
		cmd["type"] = chatInputType
	}

	if cmd["type"] == chatInputType {
		if _, ok := cmd["description"]; !ok {
			cmd["description"] = ""
		}
		if _, ok := cmd["description_localizations"]; !ok {
			cmd["description_localizations"] = map[string]any{}
		}
	} else {
		delete(cmd, "description")
		delete(cmd, "description_localizations")
	}

	if _, ok := cmd["name_localizations"]; !ok {
		cmd["name_localizations"] = map[string]any{}
	}

	if _, ok := cmd["default_member_permissions"]; !ok {
		cmd["default_member_permissions"] = nil
	}

	if cmd["nsfw"] == false {
		delete(cmd, "nsfw")
	}

	if _, ok := cmd["integration_types"]; !ok {
		cmd["integration_types"] = []any{float64(discordgo.ApplicationIntegrationGuildInstall)}
	}

	switch scope {
	case Guild:
		delete(cmd, "dm_permission")
	default:
		if cmd["dm_permission"] != false {
			delete(cmd, "dm_permission")
		}
	}

	options, _ := cmd["options"].([]any)
	sanitized := make([]any, 0, len(options))
	for _, opt := range options {
		if m, ok := opt.(map[string]any); ok {
			sanitized = append(sanitized, sanitizeOption(m))
		}
	}
	cmd["options"] = sanitized

	return cmd
}

func sanitizeOption(opt map[string]any) map[string]any {
	if _, ok := opt["description"]; !ok {
		opt["description"] = ""
	}
	if opt["required"] == false {
		delete(opt, "required")
	}
	if opt["autocomplete"] == false {
		delete(opt, "autocomplete")
	}
	dropEmpty(opt, "name_localizations", "description_localizations", "channel_types")

	if choices, ok := opt["choices"].([]any); ok {
		for _, c := range choices {
			if choice, ok := c.(map[string]any); ok {
				dropEmpty(choice, "name_localizations")
			}
		}
	}
	dropEmpty(opt, "choices")

	if children, ok := opt["options"].([]any); ok {
		for i, c := range children {
			if child, ok := c.(map[string]any); ok {
				children[i] = sanitizeOption(child)
			}
		}
	}
	dropEmpty(opt, "options")

	return opt
}

// dropEmpty deletes keys whose value is an empty map or slice.
func dropEmpty(m map[string]any, keys ...string) {
	for _, key := range keys {
		switch v := m[key].(type) {
		case map[string]any:
			if len(v) == 0 {
				delete(m, key)
			}
		case []any:
			if len(v) == 0 {
				delete(m, key)
			}
		}
	}
}

// normalizeMap deep-copies m, dropping nil values and converting every
// number to float64 so hand-built maps compare equal to decoded JSON.
func normalizeMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		if n := normalize(v); n != nil {
			out[k] = n
		}
	}
	return out
}

func normalize(v any) any {
	switch t := v.(type) {
	case nil:
		return nil
	case map[string]any:
		return normalizeMap(t)
	case []any:
		out := make([]any, 0, len(t))
		for _, e := range t {
			if n := normalize(e); n != nil {
				out = append(out, n)
			}
		}
		return out
	case string, bool, float64:
		return t
	case json.Number:
		if f, err := t.Float64(); err == nil {
			return f
		}
		return t.String()
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return nil
		}
		return normalize(rv.Elem().Interface())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint())
	case reflect.Float32, reflect.Float64:
		return rv.Float()
	case reflect.String:
		return rv.String()
	case reflect.Bool:
		return rv.Bool()
	case reflect.Slice, reflect.Array:
		if rv.Kind() == reflect.Slice && rv.IsNil() {
			return nil
		}
		out := make([]any, 0, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			if n := normalize(rv.Index(i).Interface()); n != nil {
				out = append(out, n)
			}
		}
		return out
	case reflect.Map:
		if rv.IsNil() {
			return nil
		}
		out := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			if n := normalize(iter.Value().Interface()); n != nil {
				out[fmt.Sprint(iter.Key().Interface())] = n
			}
		}
		return out
	}

	// Structs and anything else go through their JSON form.
	data, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	var decoded any
	if err := json.Unmarshal(data, &decoded); err != nil {
		return nil
	}
	return normalize(decoded)
}

// FromCommand converts a discordgo command into its raw JSON object form.
func FromCommand(cmd *discordgo.ApplicationCommand) (map[string]any, error) {
	data, err := json.Marshal(cmd)
	if err != nil {
		return nil, fmt.Errorf("encoding command %q: %w", cmd.Name, err)
	}
	raw := make(map[string]any)
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decoding command %q: %w", cmd.Name, err)
	}
	return raw, nil
}

// Canonical is FromCommand followed by Sanitize.
func Canonical(cmd *discordgo.ApplicationCommand, scope Scope) (map[string]any, error) {
	raw, err := FromCommand(cmd)
	if err != nil {
		return nil, err
	}
	return Sanitize(raw, scope), nil
}

// Key returns a deterministic encoding of a canonical form. Two canonical
// forms are structurally equal exactly when their keys are equal.
func Key(canonical map[string]any) string {
	// encoding/json writes map keys in sorted order.
	data, err := json.Marshal(canonical)
	if err != nil {
		return fmt.Sprintf("%#v", canonical)
	}
	return string(data)
}

// Equal reports whether a and b sanitize to the same canonical form.
func Equal(a, b map[string]any, scope Scope) bool {
	return Key(Sanitize(a, scope)) == Key(Sanitize(b, scope))
}
