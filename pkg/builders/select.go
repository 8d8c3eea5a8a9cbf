package builders

import (
	"context"
	"sync"

	"github.com/bwmarrin/discordgo"

	"cordkit/pkg/interaction"
)

// Select builds any of the five select menu variants.
type Select struct {
	mu sync.RWMutex
	sticky

	menuType      discordgo.SelectMenuType
	customID      string
	placeholder   string
	minValues     *int
	maxValues     int
	options       []discordgo.SelectMenuOption
	defaultValues []discordgo.SelectMenuDefaultValue
	channelTypes  []discordgo.ChannelType
	disabled      bool
	execute       ComponentFunc
	meta          any
}

func newSelect(t discordgo.SelectMenuType, customID string) *Select {
	s := &Select{menuType: t}
	return s.SetCustomID(customID)
}

// NewStringSelect returns a select menu with developer-defined options.
func NewStringSelect(customID string) *Select {
	return newSelect(discordgo.StringSelectMenu, customID)
}

func NewUserSelect(customID string) *Select {
	return newSelect(discordgo.UserSelectMenu, customID)
}

func NewRoleSelect(customID string) *Select {
	return newSelect(discordgo.RoleSelectMenu, customID)
}

func NewMentionableSelect(customID string) *Select {
	return newSelect(discordgo.MentionableSelectMenu, customID)
}

func NewChannelSelect(customID string) *Select {
	return newSelect(discordgo.ChannelSelectMenu, customID)
}

func (s *Select) Kind() Kind {
	switch s.menuType {
	case discordgo.UserSelectMenu:
		return KindUserSelect
	case discordgo.RoleSelectMenu:
		return KindRoleSelect
	case discordgo.MentionableSelectMenu:
		return KindMentionableSelect
	case discordgo.ChannelSelectMenu:
		return KindChannelSelect
	default:
		return KindStringSelect
	}
}

func (s *Select) ComponentType() discordgo.ComponentType {
	return discordgo.ComponentType(s.menuType)
}

func (s *Select) CustomID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.customID
}

func (s *Select) Meta() any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.meta
}

func (s *Select) Err() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.err
}

func (s *Select) builderName() string {
	return s.Kind().String()
}

func (s *Select) SetCustomID(customID string) *Select {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := checkLen(s.builderName(), "custom_id", customID, MaxCustomIDLength); err != nil {
		s.fail(err)
		return s
	}
	s.customID = customID
	return s
}

func (s *Select) SetPlaceholder(placeholder string) *Select {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := checkLen(s.builderName(), "placeholder", placeholder, MaxSelectPlaceholder); err != nil {
		s.fail(err)
		return s
	}
	s.placeholder = placeholder
	return s
}

// SetMinValues sets how many values must be chosen, 0 to 25.
func (s *Select) SetMinValues(n int) *Select {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n < 0 || n > MaxSelectOptions {
		s.fail(fieldErr(s.builderName(), "min_values", ErrInvalidValue, "%d", n))
		return s
	}
	s.minValues = &n
	return s
}

// SetMaxValues sets how many values may be chosen, 1 to 25.
func (s *Select) SetMaxValues(n int) *Select {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n < 1 || n > MaxSelectOptions {
		s.fail(fieldErr(s.builderName(), "max_values", ErrInvalidValue, "%d", n))
		return s
	}
	s.maxValues = n
	return s
}

// AddOption adds a choice to a string select.
func (s *Select) AddOption(label, value, description string) *Select {
	return s.AddOptions(discordgo.SelectMenuOption{Label: label, Value: value, Description: description})
}

// AddOptions adds fully specified choices to a string select.
func (s *Select) AddOptions(opts ...discordgo.SelectMenuOption) *Select {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.menuType != discordgo.StringSelectMenu {
		s.fail(fieldErr(s.builderName(), "options", ErrInvalidValue, "only string selects take options"))
		return s
	}
	for _, opt := range opts {
		if len(s.options) >= MaxSelectOptions {
			s.fail(fieldErr(s.builderName(), "options", ErrValueTooLong, "more than %d options", MaxSelectOptions))
			return s
		}
		for _, check := range []struct{ field, value string }{
			{"options.label", opt.Label},
			{"options.value", opt.Value},
		} {
			if err := checkRange(s.builderName(), check.field, check.value, 1, MaxSelectOptionText); err != nil {
				s.fail(err)
				return s
			}
		}
		if err := checkLen(s.builderName(), "options.description", opt.Description, MaxSelectOptionText); err != nil {
			s.fail(err)
			return s
		}
		for _, existing := range s.options {
			if existing.Value == opt.Value {
				s.fail(fieldErr(s.builderName(), "options.value", ErrDuplicateParameter, "%q", opt.Value))
				return s
			}
		}
		if opt.Emoji != nil {
			emoji := *opt.Emoji
			opt.Emoji = &emoji
		}
		s.options = append(s.options, opt)
	}
	return s
}

// AddDefaultValues preselects entities in a user, role, mentionable or channel select.
func (s *Select) AddDefaultValues(values ...discordgo.SelectMenuDefaultValue) *Select {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.menuType == discordgo.StringSelectMenu {
		s.fail(fieldErr(s.builderName(), "default_values", ErrInvalidValue, "string selects mark defaults on their options"))
		return s
	}
	s.defaultValues = append(s.defaultValues, values...)
	return s
}

// SetChannelTypes restricts a channel select.
func (s *Select) SetChannelTypes(types ...discordgo.ChannelType) *Select {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.menuType != discordgo.ChannelSelectMenu {
		s.fail(fieldErr(s.builderName(), "channel_types", ErrInvalidValue, "only channel selects take channel types"))
		return s
	}
	s.channelTypes = append([]discordgo.ChannelType(nil), types...)
	return s
}

func (s *Select) SetDisabled(disabled bool) *Select {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.disabled = disabled
	return s
}

func (s *Select) OnExecute(fn ComponentFunc) *Select {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.execute = fn
	return s
}

func (s *Select) SetMeta(meta any) *Select {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.meta = meta
	return s
}

// Execute runs the current callback, if any.
func (s *Select) Execute(ctx context.Context, c *interaction.ComponentContext) error {
	s.mu.RLock()
	fn := s.execute
	s.mu.RUnlock()
	if fn == nil {
		return nil
	}
	return fn(ctx, c)
}

// Raw renders the select menu.
func (s *Select) Raw() (discordgo.SelectMenu, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.err != nil {
		return discordgo.SelectMenu{}, s.err
	}
	if s.customID == "" {
		return discordgo.SelectMenu{}, fieldErr(s.builderName(), "custom_id", ErrMissingField, "")
	}
	if s.menuType == discordgo.StringSelectMenu && len(s.options) == 0 {
		return discordgo.SelectMenu{}, fieldErr(s.builderName(), "options", ErrMissingField, "at least one option is required")
	}
	if s.minValues != nil && s.maxValues != 0 && *s.minValues > s.maxValues {
		return discordgo.SelectMenu{}, fieldErr(s.builderName(), "min_values", ErrInvalidValue, "%d > %d", *s.minValues, s.maxValues)
	}

	raw := discordgo.SelectMenu{
		MenuType:    s.menuType,
		CustomID:    s.customID,
		Placeholder: s.placeholder,
		MaxValues:   s.maxValues,
		Disabled:    s.disabled,
	}
	if s.minValues != nil {
		n := *s.minValues
		raw.MinValues = &n
	}
	if len(s.options) > 0 {
		raw.Options = append([]discordgo.SelectMenuOption(nil), s.options...)
	}
	if len(s.defaultValues) > 0 {
		raw.DefaultValues = append([]discordgo.SelectMenuDefaultValue(nil), s.defaultValues...)
	}
	if len(s.channelTypes) > 0 {
		raw.ChannelTypes = append([]discordgo.ChannelType(nil), s.channelTypes...)
	}
	return raw, nil
}

// Render implements Renderer.
func (s *Select) Render() (discordgo.MessageComponent, error) {
	raw, err := s.Raw()
	if err != nil {
		return nil, err
	}
	return raw, nil
}

var (
	_ Component = (*Select)(nil)
	_ Renderer  = (*Select)(nil)
)
