package handler

import (
	"testing"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"cordkit/pkg/logger"
	"cordkit/pkg/rest/resttest"
)

func newTestHandler(t *testing.T) (*Handler, *resttest.Recorder) {
	t.Helper()
	rec := resttest.New("app-1")
	return New(rec, logger.Nop(), Options{SyncRate: 1000, SyncBurst: 100}), rec
}

func newObservedHandler(t *testing.T) (*Handler, *observer.ObservedLogs) {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	h := New(resttest.New("app-1"), logger.NewFromZap(zap.New(core)), Options{})
	return h, logs
}

func commandInteraction(id, name string, t discordgo.ApplicationCommandType) *discordgo.Interaction {
	return &discordgo.Interaction{
		ID:    "i-" + id,
		AppID: "app-1",
		Type:  discordgo.InteractionApplicationCommand,
		Token: "token",
		User:  &discordgo.User{ID: "u-1"},
		Data: discordgo.ApplicationCommandInteractionData{
			ID:          id,
			Name:        name,
			CommandType: t,
		},
	}
}

func componentInteraction(customID string, t discordgo.ComponentType) *discordgo.Interaction {
	return &discordgo.Interaction{
		ID:      "i-" + customID,
		AppID:   "app-1",
		Type:    discordgo.InteractionMessageComponent,
		Token:   "token",
		GuildID: "g-1",
		Member:  &discordgo.Member{User: &discordgo.User{ID: "u-1"}},
		Data: discordgo.MessageComponentInteractionData{
			CustomID:      customID,
			ComponentType: t,
		},
	}
}

func modalInteraction(customID string, values map[string]string) *discordgo.Interaction {
	var rows []discordgo.MessageComponent
	for id, v := range values {
		rows = append(rows, &discordgo.ActionsRow{
			Components: []discordgo.MessageComponent{&discordgo.TextInput{CustomID: id, Value: v}},
		})
	}
	return &discordgo.Interaction{
		ID:    "i-" + customID,
		AppID: "app-1",
		Type:  discordgo.InteractionModalSubmit,
		Token: "token",
		User:  &discordgo.User{ID: "u-1"},
		Data: discordgo.ModalSubmitInteractionData{
			CustomID:   customID,
			Components: rows,
		},
	}
}
