package builders

import (
	"strings"
	"sync"

	"github.com/bwmarrin/discordgo"
)

// Option builds a chat command parameter, subcommand or subcommand group.
type Option struct {
	mu sync.RWMutex
	sticky

	optType      discordgo.ApplicationCommandOptionType
	name         string
	nameLoc      map[discordgo.Locale]string
	description  string
	descLoc      map[discordgo.Locale]string
	required     bool
	autocomplete bool
	choices      []*discordgo.ApplicationCommandOptionChoice
	minValue     *float64
	maxValue     *float64
	minLength    *int
	maxLength    *int
	channelTypes []discordgo.ChannelType
	options      []*Option
}

// NewOption returns an option of the given type.
func NewOption(t discordgo.ApplicationCommandOptionType, name, description string) *Option {
	o := &Option{optType: t}
	o.setName(name)
	o.setDescription(description)
	return o
}

func NewStringOption(name, description string) *Option {
	return NewOption(discordgo.ApplicationCommandOptionString, name, description)
}

func NewIntegerOption(name, description string) *Option {
	return NewOption(discordgo.ApplicationCommandOptionInteger, name, description)
}

func NewNumberOption(name, description string) *Option {
	return NewOption(discordgo.ApplicationCommandOptionNumber, name, description)
}

func NewBooleanOption(name, description string) *Option {
	return NewOption(discordgo.ApplicationCommandOptionBoolean, name, description)
}

func NewUserOption(name, description string) *Option {
	return NewOption(discordgo.ApplicationCommandOptionUser, name, description)
}

func NewChannelOption(name, description string) *Option {
	return NewOption(discordgo.ApplicationCommandOptionChannel, name, description)
}

func NewRoleOption(name, description string) *Option {
	return NewOption(discordgo.ApplicationCommandOptionRole, name, description)
}

func NewMentionableOption(name, description string) *Option {
	return NewOption(discordgo.ApplicationCommandOptionMentionable, name, description)
}

func NewAttachmentOption(name, description string) *Option {
	return NewOption(discordgo.ApplicationCommandOptionAttachment, name, description)
}

// NewSubcommand returns a subcommand; its parameters are added with AddOption.
func NewSubcommand(name, description string) *Option {
	return NewOption(discordgo.ApplicationCommandOptionSubCommand, name, description)
}

// NewSubcommandGroup returns a group; its subcommands are added with AddOption.
func NewSubcommandGroup(name, description string) *Option {
	return NewOption(discordgo.ApplicationCommandOptionSubCommandGroup, name, description)
}

func isSubcommandType(t discordgo.ApplicationCommandOptionType) bool {
	return t == discordgo.ApplicationCommandOptionSubCommand || t == discordgo.ApplicationCommandOptionSubCommandGroup
}

func (o *Option) builderName() string {
	return "option"
}

func (o *Option) setName(name string) {
	if err := checkLen(o.builderName(), "name", name, MaxCommandNameLength); err != nil {
		o.fail(err)
		return
	}
	if name != "" && (!chatNamePattern.MatchString(name) || strings.ToLower(name) != name) {
		o.fail(fieldErr(o.builderName(), "name", ErrInvalidValue, "%q must be lowercase without spaces", name))
		return
	}
	o.name = name
}

func (o *Option) setDescription(description string) {
	if err := checkLen(o.builderName(), "description", description, MaxCommandDescriptionLength); err != nil {
		o.fail(err)
		return
	}
	o.description = description
}

// Name returns the option name.
func (o *Option) Name() string {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.name
}

// Type returns the option type.
func (o *Option) Type() discordgo.ApplicationCommandOptionType {
	return o.optType
}

// Err returns the first error recorded by a setter.
func (o *Option) Err() error {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.err
}

func (o *Option) SetNameLocalization(locale discordgo.Locale, name string) *Option {
	o.mu.Lock()
	defer o.mu.Unlock()
	if err := checkRange(o.builderName(), "name_localizations."+string(locale), name, 1, MaxCommandNameLength); err != nil {
		o.fail(err)
		return o
	}
	if o.nameLoc == nil {
		o.nameLoc = make(map[discordgo.Locale]string)
	}
	o.nameLoc[locale] = name
	return o
}

func (o *Option) SetDescriptionLocalization(locale discordgo.Locale, description string) *Option {
	o.mu.Lock()
	defer o.mu.Unlock()
	if err := checkRange(o.builderName(), "description_localizations."+string(locale), description, 1, MaxCommandDescriptionLength); err != nil {
		o.fail(err)
		return o
	}
	if o.descLoc == nil {
		o.descLoc = make(map[discordgo.Locale]string)
	}
	o.descLoc[locale] = description
	return o
}

// SetRequired marks the parameter as required. Not valid on subcommands.
func (o *Option) SetRequired(required bool) *Option {
	o.mu.Lock()
	defer o.mu.Unlock()
	if isSubcommandType(o.optType) {
		o.fail(fieldErr(o.builderName(), "required", ErrInvalidValue, "subcommands cannot be required"))
		return o
	}
	o.required = required
	return o
}

// SetAutocomplete enables autocomplete. Mutually exclusive with choices.
func (o *Option) SetAutocomplete(enabled bool) *Option {
	o.mu.Lock()
	defer o.mu.Unlock()
	if enabled && !o.acceptsChoices() {
		o.fail(fieldErr(o.builderName(), "autocomplete", ErrInvalidValue, "only string, integer and number options autocomplete"))
		return o
	}
	if enabled && len(o.choices) > 0 {
		o.fail(fieldErr(o.builderName(), "autocomplete", ErrInvalidValue, "autocomplete cannot be combined with choices"))
		return o
	}
	o.autocomplete = enabled
	return o
}

func (o *Option) acceptsChoices() bool {
	switch o.optType {
	case discordgo.ApplicationCommandOptionString, discordgo.ApplicationCommandOptionInteger, discordgo.ApplicationCommandOptionNumber:
		return true
	}
	return false
}

func (o *Option) isNumeric() bool {
	return o.optType == discordgo.ApplicationCommandOptionInteger || o.optType == discordgo.ApplicationCommandOptionNumber
}

// AddChoice adds a fixed choice. value must match the option type: string
// for string options, an integer for integer options, a number for numbers.
func (o *Option) AddChoice(name string, value any, localizations ...map[discordgo.Locale]string) *Option {
	o.mu.Lock()
	defer o.mu.Unlock()

	if !o.acceptsChoices() {
		o.fail(fieldErr(o.builderName(), "choices", ErrInvalidValue, "only string, integer and number options take choices"))
		return o
	}
	if o.autocomplete {
		o.fail(fieldErr(o.builderName(), "choices", ErrInvalidValue, "choices cannot be combined with autocomplete"))
		return o
	}
	if len(o.choices) >= MaxChoices {
		o.fail(fieldErr(o.builderName(), "choices", ErrValueTooLong, "more than %d choices", MaxChoices))
		return o
	}
	if err := checkRange(o.builderName(), "choices.name", name, 1, MaxChoiceNameLength); err != nil {
		o.fail(err)
		return o
	}

	normalized, ok := o.choiceValue(value)
	if !ok {
		o.fail(fieldErr(o.builderName(), "choices.value", ErrInvalidValue, "%v (%T) does not match option type", value, value))
		return o
	}
	if s, isString := normalized.(string); isString {
		if err := checkLen(o.builderName(), "choices.value", s, MaxChoiceValueLength); err != nil {
			o.fail(err)
			return o
		}
	}

	choice := &discordgo.ApplicationCommandOptionChoice{Name: name, Value: normalized}
	if len(localizations) > 0 && len(localizations[0]) > 0 {
		choice.NameLocalizations = copyLocalizations(localizations[0])
	}
	o.choices = append(o.choices, choice)
	return o
}

func (o *Option) choiceValue(value any) (any, bool) {
	switch o.optType {
	case discordgo.ApplicationCommandOptionString:
		s, ok := value.(string)
		return s, ok
	case discordgo.ApplicationCommandOptionInteger:
		switch v := value.(type) {
		case int:
			return v, true
		case int32:
			return int(v), true
		case int64:
			return v, true
		}
	case discordgo.ApplicationCommandOptionNumber:
		switch v := value.(type) {
		case float64:
			return v, true
		case float32:
			return float64(v), true
		case int:
			return float64(v), true
		case int64:
			return float64(v), true
		}
	}
	return nil, false
}

// SetMinValue sets the lower bound of an integer or number option.
func (o *Option) SetMinValue(min float64) *Option {
	o.mu.Lock()
	defer o.mu.Unlock()
	if !o.isNumeric() {
		o.fail(fieldErr(o.builderName(), "min_value", ErrInvalidValue, "only integer and number options have bounds"))
		return o
	}
	o.minValue = &min
	return o
}

// SetMaxValue sets the upper bound of an integer or number option.
func (o *Option) SetMaxValue(max float64) *Option {
	o.mu.Lock()
	defer o.mu.Unlock()
	if !o.isNumeric() {
		o.fail(fieldErr(o.builderName(), "max_value", ErrInvalidValue, "only integer and number options have bounds"))
		return o
	}
	o.maxValue = &max
	return o
}

// SetMinLength sets the minimum length of a string option.
func (o *Option) SetMinLength(min int) *Option {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.optType != discordgo.ApplicationCommandOptionString || min < 0 || min > MaxOptionStringLength {
		o.fail(fieldErr(o.builderName(), "min_length", ErrInvalidValue, "%d", min))
		return o
	}
	o.minLength = &min
	return o
}

// SetMaxLength sets the maximum length of a string option.
func (o *Option) SetMaxLength(max int) *Option {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.optType != discordgo.ApplicationCommandOptionString || max < 1 || max > MaxOptionStringLength {
		o.fail(fieldErr(o.builderName(), "max_length", ErrInvalidValue, "%d", max))
		return o
	}
	o.maxLength = &max
	return o
}

// SetChannelTypes restricts a channel option to the given channel types.
func (o *Option) SetChannelTypes(types ...discordgo.ChannelType) *Option {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.optType != discordgo.ApplicationCommandOptionChannel {
		o.fail(fieldErr(o.builderName(), "channel_types", ErrInvalidValue, "only channel options take channel types"))
		return o
	}
	o.channelTypes = append([]discordgo.ChannelType(nil), types...)
	return o
}

// AddOption nests opt. Groups take subcommands; subcommands take parameters.
func (o *Option) AddOption(opt *Option) *Option {
	o.mu.Lock()
	defer o.mu.Unlock()

	if opt == nil {
		o.fail(fieldErr(o.builderName(), "options", ErrInvalidValue, "nil option"))
		return o
	}
	switch o.optType {
	case discordgo.ApplicationCommandOptionSubCommandGroup:
		if opt.Type() != discordgo.ApplicationCommandOptionSubCommand {
			o.fail(fieldErr(o.builderName(), "options", ErrInvalidValue, "groups only contain subcommands"))
			return o
		}
	case discordgo.ApplicationCommandOptionSubCommand:
		if isSubcommandType(opt.Type()) {
			o.fail(fieldErr(o.builderName(), "options", ErrInvalidValue, "subcommands cannot nest subcommands"))
			return o
		}
	default:
		o.fail(fieldErr(o.builderName(), "options", ErrInvalidValue, "only subcommands and groups have options"))
		return o
	}

	name := opt.Name()
	for _, existing := range o.options {
		if existing.Name() == name {
			o.fail(fieldErr(o.builderName(), "options", ErrDuplicateParameter, "%q", name))
			return o
		}
	}
	if len(o.options) >= MaxOptions {
		o.fail(fieldErr(o.builderName(), "options", ErrValueTooLong, "more than %d options", MaxOptions))
		return o
	}
	o.options = append(o.options, opt)
	return o
}

// Raw renders the option.
func (o *Option) Raw() (*discordgo.ApplicationCommandOption, error) {
	o.mu.RLock()
	defer o.mu.RUnlock()

	if o.err != nil {
		return nil, o.err
	}
	if o.name == "" {
		return nil, fieldErr(o.builderName(), "name", ErrMissingField, "")
	}
	if o.description == "" {
		return nil, fieldErr(o.builderName(), "description", ErrMissingField, "option %q", o.name)
	}
	if o.minValue != nil && o.maxValue != nil && *o.minValue > *o.maxValue {
		return nil, fieldErr(o.builderName(), "min_value", ErrInvalidValue, "%v > %v", *o.minValue, *o.maxValue)
	}
	if o.minLength != nil && o.maxLength != nil && *o.minLength > *o.maxLength {
		return nil, fieldErr(o.builderName(), "min_length", ErrInvalidValue, "%d > %d", *o.minLength, *o.maxLength)
	}

	raw := &discordgo.ApplicationCommandOption{
		Type:         o.optType,
		Name:         o.name,
		Description:  o.description,
		Required:     o.required,
		Autocomplete: o.autocomplete,
	}
	if len(o.nameLoc) > 0 {
		raw.NameLocalizations = copyLocalizations(o.nameLoc)
	}
	if len(o.descLoc) > 0 {
		raw.DescriptionLocalizations = copyLocalizations(o.descLoc)
	}
	for _, c := range o.choices {
		cp := *c
		if c.NameLocalizations != nil {
			cp.NameLocalizations = copyLocalizations(c.NameLocalizations)
		}
		raw.Choices = append(raw.Choices, &cp)
	}
	if o.minValue != nil {
		min := *o.minValue
		raw.MinValue = &min
	}
	if o.maxValue != nil {
		raw.MaxValue = *o.maxValue
	}
	if o.minLength != nil {
		min := *o.minLength
		raw.MinLength = &min
	}
	if o.maxLength != nil {
		raw.MaxLength = *o.maxLength
	}
	if len(o.channelTypes) > 0 {
		raw.ChannelTypes = append([]discordgo.ChannelType(nil), o.channelTypes...)
	}
	for _, child := range o.options {
		childRaw, err := child.Raw()
		if err != nil {
			return nil, err
		}
		raw.Options = append(raw.Options, childRaw)
	}
	return raw, nil
}
