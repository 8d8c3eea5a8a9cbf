package builders

import (
	"sync"
	"time"
	"unicode/utf8"

	"github.com/bwmarrin/discordgo"
)

// Embed builds a rich embed. Per-field limits are checked when set; the
// aggregate character budget is checked by Raw.
type Embed struct {
	mu sync.RWMutex
	sticky

	title       string
	description string
	url         string
	timestamp   string
	color       int
	footer      *discordgo.MessageEmbedFooter
	author      *discordgo.MessageEmbedAuthor
	image       string
	thumbnail   string
	fields      []*discordgo.MessageEmbedField
}

// NewEmbed returns an empty embed.
func NewEmbed() *Embed {
	return &Embed{}
}

func (e *Embed) Err() error {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.err
}

func (e *Embed) SetTitle(title string) *Embed {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := checkLen("embed", "title", title, MaxEmbedTitle); err != nil {
		e.fail(err)
		return e
	}
	e.title = title
	return e
}

func (e *Embed) SetDescription(description string) *Embed {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := checkLen("embed", "description", description, MaxEmbedDescription); err != nil {
		e.fail(err)
		return e
	}
	e.description = description
	return e
}

func (e *Embed) SetURL(url string) *Embed {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.url = url
	return e
}

func (e *Embed) SetTimestamp(t time.Time) *Embed {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.timestamp = t.UTC().Format(time.RFC3339)
	return e
}

// SetColor sets the side colour as 0xRRGGBB.
func (e *Embed) SetColor(color int) *Embed {
	e.mu.Lock()
	defer e.mu.Unlock()
	if color < 0 || color > 0xFFFFFF {
		e.fail(fieldErr("embed", "color", ErrInvalidValue, "%#x", color))
		return e
	}
	e.color = color
	return e
}

func (e *Embed) SetFooter(text, iconURL string) *Embed {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := checkLen("embed", "footer.text", text, MaxEmbedFooter); err != nil {
		e.fail(err)
		return e
	}
	e.footer = &discordgo.MessageEmbedFooter{Text: text, IconURL: iconURL}
	return e
}

func (e *Embed) SetAuthor(name, url, iconURL string) *Embed {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := checkLen("embed", "author.name", name, MaxEmbedAuthor); err != nil {
		e.fail(err)
		return e
	}
	e.author = &discordgo.MessageEmbedAuthor{Name: name, URL: url, IconURL: iconURL}
	return e
}

func (e *Embed) SetImage(url string) *Embed {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.image = url
	return e
}

func (e *Embed) SetThumbnail(url string) *Embed {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.thumbnail = url
	return e
}

// AddField appends a field. Name and value are required.
func (e *Embed) AddField(name, value string, inline bool) *Embed {
	e.mu.Lock()
	defer e.mu.Unlock()

	if len(e.fields) >= MaxEmbedFields {
		e.fail(fieldErr("embed", "fields", ErrValueTooLong, "more than %d fields", MaxEmbedFields))
		return e
	}
	if err := checkRange("embed", "fields.name", name, 1, MaxEmbedFieldName); err != nil {
		e.fail(err)
		return e
	}
	if err := checkRange("embed", "fields.value", value, 1, MaxEmbedFieldValue); err != nil {
		e.fail(err)
		return e
	}
	e.fields = append(e.fields, &discordgo.MessageEmbedField{Name: name, Value: value, Inline: inline})
	return e
}

// Length is the number of characters that count towards the aggregate budget.
func (e *Embed) Length() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.length()
}

func (e *Embed) length() int {
	n := utf8.RuneCountInString(e.title) + utf8.RuneCountInString(e.description)
	if e.footer != nil {
		n += utf8.RuneCountInString(e.footer.Text)
	}
	if e.author != nil {
		n += utf8.RuneCountInString(e.author.Name)
	}
	for _, f := range e.fields {
		n += utf8.RuneCountInString(f.Name) + utf8.RuneCountInString(f.Value)
	}
	return n
}

// Raw renders the embed.
func (e *Embed) Raw() (*discordgo.MessageEmbed, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if e.err != nil {
		return nil, e.err
	}
	if n := e.length(); n > MaxEmbedTotal {
		return nil, fieldErr("embed", "total", ErrValueTooLong, "%d > %d", n, MaxEmbedTotal)
	}

	raw := &discordgo.MessageEmbed{
		Type:        discordgo.EmbedTypeRich,
		Title:       e.title,
		Description: e.description,
		URL:         e.url,
		Timestamp:   e.timestamp,
		Color:       e.color,
	}
	if e.footer != nil {
		footer := *e.footer
		raw.Footer = &footer
	}
	if e.author != nil {
		author := *e.author
		raw.Author = &author
	}
	if e.image != "" {
		raw.Image = &discordgo.MessageEmbedImage{URL: e.image}
	}
	if e.thumbnail != "" {
		raw.Thumbnail = &discordgo.MessageEmbedThumbnail{URL: e.thumbnail}
	}
	for _, f := range e.fields {
		field := *f
		raw.Fields = append(raw.Fields, &field)
	}
	return raw, nil
}
