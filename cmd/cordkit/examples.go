package main

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"

	"cordkit/pkg/builders"
	"cordkit/pkg/handler"
	"cordkit/pkg/interaction"
)

// Static structures are registered at init and picked up by
// LoadRegistered.
func init() {
	refresh := builders.NewButton("ping:refresh").
		SetLabel("Refresh").
		SetStyle(discordgo.SecondaryButton).
		OnExecute(func(ctx context.Context, c *interaction.ComponentContext) error {
			return c.EditParent(ctx, pingMessage(c.Interaction()))
		})

	ping := builders.NewChatCommand("ping", "Check that the bot is responsive").
		OnExecute(func(ctx context.Context, c *interaction.CommandContext) error {
			return c.Send(ctx, pingMessage(c.Interaction()))
		})

	report := builders.NewModal("report:submit", "Report a message").
		AddTextInput(builders.NewTextInput("reason", "What is wrong with it?", discordgo.TextInputParagraph).
			SetMinLength(10).
			SetMaxLength(1000)).
		OnExecute(func(ctx context.Context, c *interaction.ModalContext) error {
			return c.SendEphemeral(ctx, &interaction.Message{
				Content: "Thanks, the moderators have been notified.",
			})
		})

	reportMenu := builders.NewMessageCommand("Report").
		OnMessage(func(ctx context.Context, c *interaction.MessageCommandContext) error {
			return c.ShowModal(ctx, report)
		})

	inspect := builders.NewUserCommand("Inspect").
		OnUser(func(ctx context.Context, c *interaction.UserCommandContext) error {
			u := c.TargetUser()
			if u == nil {
				return c.SendEphemeral(ctx, &interaction.Message{Content: "Unknown user."})
			}
			embed, err := builders.NewEmbed().
				SetTitle(u.Username).
				SetThumbnail(u.AvatarURL("128")).
				AddField("ID", u.ID, true).
				AddField("Bot", fmt.Sprint(u.Bot), true).
				Raw()
			if err != nil {
				return err
			}
			return c.SendEphemeral(ctx, &interaction.Message{Embeds: []*discordgo.MessageEmbed{embed}})
		})

	handler.Register(ping, refresh, reportMenu, report, inspect)
}

func pingMessage(i *discordgo.Interaction) *interaction.Message {
	created, _ := discordgo.SnowflakeTimestamp(i.ID)
	embed, _ := builders.NewEmbed().
		SetTitle("Pong").
		SetDescription(fmt.Sprintf("Gateway to handler: %s", time.Since(created).Round(time.Millisecond))).
		SetTimestamp(time.Now()).
		Raw()
	row, _ := builders.ActionRow(builders.NewButton("ping:refresh").SetLabel("Refresh").SetStyle(discordgo.SecondaryButton))
	return &interaction.Message{
		Embeds:     []*discordgo.MessageEmbed{embed},
		Components: []discordgo.MessageComponent{row},
	}
}

const pollTimeout = 5 * time.Minute

// registerExamples adds structures that need the handler at runtime.
func registerExamples(h *handler.Handler) error {
	poll := builders.NewChatCommand("poll", "Start a yes/no poll").
		AddOption(builders.NewStringOption("question", "What to ask").
			SetRequired(true).
			SetMaxLength(200)).
		OnExecute(func(ctx context.Context, c *interaction.CommandContext) error {
			return startPoll(ctx, h, c)
		})
	return h.AddCommands(poll)
}

// startPoll binds a fresh pair of vote buttons for one poll. They are
// unbound after pollTimeout without votes and the buttons are removed.
func startPoll(ctx context.Context, h *handler.Handler, c *interaction.CommandContext) error {
	question := strings.TrimSpace(c.String("question"))

	var mu sync.Mutex
	tally := map[string]map[string]bool{"yes": {}, "no": {}}
	render := func(closed bool) *interaction.Message {
		mu.Lock()
		defer mu.Unlock()
		content := fmt.Sprintf("**%s**\nYes: %d | No: %d", question, len(tally["yes"]), len(tally["no"]))
		if closed {
			content += "\n*Poll closed.*"
		}
		return &interaction.Message{Content: content}
	}

	var row discordgo.ActionsRow
	vote := func(choice string) builders.ComponentFunc {
		return func(ctx context.Context, bc *interaction.ComponentContext) error {
			mu.Lock()
			for _, voters := range tally {
				delete(voters, bc.UserID())
			}
			tally[choice][bc.UserID()] = true
			mu.Unlock()

			msg := render(false)
			msg.Components = []discordgo.MessageComponent{row}
			return bc.EditParent(ctx, msg)
		}
	}

	yes := builders.NewButton(builders.UniqueCustomID("poll:yes")).
		SetLabel("Yes").
		SetStyle(discordgo.SuccessButton).
		OnExecute(vote("yes"))
	no := builders.NewButton(builders.UniqueCustomID("poll:no")).
		SetLabel("No").
		SetStyle(discordgo.DangerButton).
		OnExecute(vote("no"))

	row, err := builders.ActionRow(yes, no)
	if err != nil {
		return err
	}

	expire := handler.NewExpire(pollTimeout, yes, no).OnExpire(func() {
		msg := render(true)
		msg.Components = []discordgo.MessageComponent{}
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_, _ = c.Edit(ctx, "", msg)
	})
	if err := h.Bind(expire); err != nil {
		return err
	}

	msg := render(false)
	msg.Components = []discordgo.MessageComponent{row}
	if err := c.Send(ctx, msg); err != nil {
		h.Unbind(expire)
		return err
	}
	return nil
}
