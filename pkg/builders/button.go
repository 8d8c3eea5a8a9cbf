package builders

import (
	"context"
	"sync"

	"github.com/bwmarrin/discordgo"

	"cordkit/pkg/interaction"
)

// Button builds a button. Buttons created with NewLinkButton or
// NewPremiumButton have no custom ID and are never dispatched.
type Button struct {
	mu sync.RWMutex
	sticky

	style    discordgo.ButtonStyle
	label    string
	emoji    *discordgo.ComponentEmoji
	customID string
	url      string
	skuID    string
	disabled bool
	execute  ComponentFunc
	meta     any
}

// NewButton returns a primary button dispatched under customID.
func NewButton(customID string) *Button {
	b := &Button{style: discordgo.PrimaryButton}
	return b.SetCustomID(customID)
}

// NewLinkButton returns a button that opens url.
func NewLinkButton(url, label string) *Button {
	b := &Button{style: discordgo.LinkButton, url: url}
	return b.SetLabel(label)
}

// NewPremiumButton returns a button that opens the purchase flow of skuID.
func NewPremiumButton(skuID string) *Button {
	return &Button{style: discordgo.PremiumButton, skuID: skuID}
}

func (b *Button) Kind() Kind { return KindButton }

func (b *Button) ComponentType() discordgo.ComponentType { return discordgo.ButtonComponent }

// Bindable reports whether the button can be dispatched to.
func (b *Button) Bindable() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.style != discordgo.LinkButton && b.style != discordgo.PremiumButton
}

func (b *Button) CustomID() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.customID
}

func (b *Button) Meta() any {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.meta
}

func (b *Button) Err() error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.err
}

// SetCustomID sets the dispatch key, at most 100 characters.
func (b *Button) SetCustomID(customID string) *Button {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := checkLen("button", "custom_id", customID, MaxCustomIDLength); err != nil {
		b.fail(err)
		return b
	}
	b.customID = customID
	return b
}

// SetStyle sets a custom ID button style (primary, secondary, success, danger).
func (b *Button) SetStyle(style discordgo.ButtonStyle) *Button {
	b.mu.Lock()
	defer b.mu.Unlock()
	if style < discordgo.PrimaryButton || style > discordgo.DangerButton {
		b.fail(fieldErr("button", "style", ErrInvalidValue, "link and premium buttons have their own constructors"))
		return b
	}
	b.style = style
	return b
}

func (b *Button) SetLabel(label string) *Button {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := checkLen("button", "label", label, MaxButtonLabel); err != nil {
		b.fail(err)
		return b
	}
	b.label = label
	return b
}

// SetEmoji sets a unicode emoji (name only) or a custom emoji (name and id).
func (b *Button) SetEmoji(name, id string, animated bool) *Button {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.emoji = &discordgo.ComponentEmoji{Name: name, ID: id, Animated: animated}
	return b
}

func (b *Button) SetDisabled(disabled bool) *Button {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.disabled = disabled
	return b
}

func (b *Button) OnExecute(fn ComponentFunc) *Button {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.execute = fn
	return b
}

func (b *Button) SetMeta(meta any) *Button {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.meta = meta
	return b
}

// Execute runs the current callback, if any.
func (b *Button) Execute(ctx context.Context, c *interaction.ComponentContext) error {
	b.mu.RLock()
	fn := b.execute
	b.mu.RUnlock()
	if fn == nil {
		return nil
	}
	return fn(ctx, c)
}

// Raw renders the button.
func (b *Button) Raw() (discordgo.Button, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.err != nil {
		return discordgo.Button{}, b.err
	}
	switch b.style {
	case discordgo.LinkButton:
		if b.url == "" {
			return discordgo.Button{}, fieldErr("button", "url", ErrMissingField, "")
		}
	case discordgo.PremiumButton:
		if b.skuID == "" {
			return discordgo.Button{}, fieldErr("button", "sku_id", ErrMissingField, "")
		}
	default:
		if b.customID == "" {
			return discordgo.Button{}, fieldErr("button", "custom_id", ErrMissingField, "")
		}
	}
	if b.style != discordgo.PremiumButton && b.label == "" && b.emoji == nil {
		return discordgo.Button{}, fieldErr("button", "label", ErrMissingField, "a label or an emoji is required")
	}

	raw := discordgo.Button{
		Label:    b.label,
		Style:    b.style,
		Disabled: b.disabled,
		URL:      b.url,
		CustomID: b.customID,
		SKUID:    b.skuID,
	}
	if b.emoji != nil {
		emoji := *b.emoji
		raw.Emoji = &emoji
	}
	return raw, nil
}

// Render implements Renderer.
func (b *Button) Render() (discordgo.MessageComponent, error) {
	raw, err := b.Raw()
	if err != nil {
		return nil, err
	}
	return raw, nil
}

var (
	_ Component = (*Button)(nil)
	_ Renderer  = (*Button)(nil)
)
