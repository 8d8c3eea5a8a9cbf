package builders

import (
	"context"
	"sync"

	"github.com/bwmarrin/discordgo"

	"cordkit/pkg/interaction"
)

// TextInput builds one text field of a modal.
type TextInput struct {
	mu sync.RWMutex
	sticky

	customID    string
	label       string
	style       discordgo.TextInputStyle
	placeholder string
	value       string
	required    bool
	minLength   int
	maxLength   int
}

// NewTextInput returns a required input of the given style.
func NewTextInput(customID, label string, style discordgo.TextInputStyle) *TextInput {
	t := &TextInput{style: style, required: true}
	return t.SetCustomID(customID).SetLabel(label)
}

func (t *TextInput) CustomID() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.customID
}

func (t *TextInput) Err() error {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.err
}

func (t *TextInput) SetCustomID(customID string) *TextInput {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := checkLen("text_input", "custom_id", customID, MaxCustomIDLength); err != nil {
		t.fail(err)
		return t
	}
	t.customID = customID
	return t
}

func (t *TextInput) SetLabel(label string) *TextInput {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := checkLen("text_input", "label", label, MaxTextInputLabel); err != nil {
		t.fail(err)
		return t
	}
	t.label = label
	return t
}

func (t *TextInput) SetPlaceholder(placeholder string) *TextInput {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := checkLen("text_input", "placeholder", placeholder, MaxTextPlaceholder); err != nil {
		t.fail(err)
		return t
	}
	t.placeholder = placeholder
	return t
}

// SetValue pre-fills the input.
func (t *TextInput) SetValue(value string) *TextInput {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := checkLen("text_input", "value", value, MaxTextInputValue); err != nil {
		t.fail(err)
		return t
	}
	t.value = value
	return t
}

func (t *TextInput) SetRequired(required bool) *TextInput {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.required = required
	return t
}

func (t *TextInput) SetMinLength(n int) *TextInput {
	t.mu.Lock()
	defer t.mu.Unlock()
	if n < 0 || n > MaxTextInputValue {
		t.fail(fieldErr("text_input", "min_length", ErrInvalidValue, "%d", n))
		return t
	}
	t.minLength = n
	return t
}

func (t *TextInput) SetMaxLength(n int) *TextInput {
	t.mu.Lock()
	defer t.mu.Unlock()
	if n < 1 || n > MaxTextInputValue {
		t.fail(fieldErr("text_input", "max_length", ErrInvalidValue, "%d", n))
		return t
	}
	t.maxLength = n
	return t
}

// Raw renders the input.
func (t *TextInput) Raw() (*discordgo.TextInput, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if t.err != nil {
		return nil, t.err
	}
	if t.customID == "" {
		return nil, fieldErr("text_input", "custom_id", ErrMissingField, "")
	}
	if t.label == "" {
		return nil, fieldErr("text_input", "label", ErrMissingField, "input %q", t.customID)
	}
	if t.maxLength != 0 && t.minLength > t.maxLength {
		return nil, fieldErr("text_input", "min_length", ErrInvalidValue, "%d > %d", t.minLength, t.maxLength)
	}
	return &discordgo.TextInput{
		CustomID:    t.customID,
		Label:       t.label,
		Style:       t.style,
		Placeholder: t.placeholder,
		Value:       t.value,
		Required:    t.required,
		MinLength:   t.minLength,
		MaxLength:   t.maxLength,
	}, nil
}

// Modal builds a modal dialog. Each text input occupies its own row.
type Modal struct {
	mu sync.RWMutex
	sticky

	customID string
	title    string
	inputs   []*TextInput
	execute  ModalFunc
	meta     any
}

// NewModal returns a modal dispatched under customID.
func NewModal(customID, title string) *Modal {
	m := &Modal{}
	return m.SetCustomID(customID).SetTitle(title)
}

func (m *Modal) Kind() Kind { return KindModal }

func (m *Modal) CustomID() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.customID
}

func (m *Modal) Meta() any {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.meta
}

func (m *Modal) Err() error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.err
}

func (m *Modal) SetCustomID(customID string) *Modal {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := checkLen("modal", "custom_id", customID, MaxCustomIDLength); err != nil {
		m.fail(err)
		return m
	}
	m.customID = customID
	return m
}

func (m *Modal) SetTitle(title string) *Modal {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := checkLen("modal", "title", title, MaxModalTitle); err != nil {
		m.fail(err)
		return m
	}
	m.title = title
	return m
}

// AddTextInput appends an input. Custom IDs must be unique within the modal.
func (m *Modal) AddTextInput(input *TextInput) *Modal {
	m.mu.Lock()
	defer m.mu.Unlock()

	if input == nil {
		m.fail(fieldErr("modal", "components", ErrInvalidValue, "nil input"))
		return m
	}
	if len(m.inputs) >= MaxModalRows {
		m.fail(fieldErr("modal", "components", ErrValueTooLong, "more than %d inputs", MaxModalRows))
		return m
	}
	id := input.CustomID()
	for _, existing := range m.inputs {
		if existing.CustomID() == id {
			m.fail(fieldErr("modal", "components", ErrDuplicateParameter, "%q", id))
			return m
		}
	}
	m.inputs = append(m.inputs, input)
	return m
}

func (m *Modal) OnExecute(fn ModalFunc) *Modal {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.execute = fn
	return m
}

func (m *Modal) SetMeta(meta any) *Modal {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.meta = meta
	return m
}

// Execute runs the current callback, if any.
func (m *Modal) Execute(ctx context.Context, c *interaction.ModalContext) error {
	m.mu.RLock()
	fn := m.execute
	m.mu.RUnlock()
	if fn == nil {
		return nil
	}
	return fn(ctx, c)
}

// Raw renders the modal response body. It satisfies interaction.Modal.
func (m *Modal) Raw() (*discordgo.InteractionResponseData, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.err != nil {
		return nil, m.err
	}
	if m.customID == "" {
		return nil, fieldErr("modal", "custom_id", ErrMissingField, "")
	}
	if m.title == "" {
		return nil, fieldErr("modal", "title", ErrMissingField, "modal %q", m.customID)
	}
	if len(m.inputs) == 0 {
		return nil, fieldErr("modal", "components", ErrMissingField, "modal %q has no inputs", m.customID)
	}

	data := &discordgo.InteractionResponseData{
		CustomID:   m.customID,
		Title:      m.title,
		Components: make([]discordgo.MessageComponent, 0, len(m.inputs)),
	}
	for _, input := range m.inputs {
		raw, err := input.Raw()
		if err != nil {
			return nil, err
		}
		data.Components = append(data.Components, discordgo.ActionsRow{
			Components: []discordgo.MessageComponent{raw},
		})
	}
	return data, nil
}

var _ interaction.Modal = (*Modal)(nil)
