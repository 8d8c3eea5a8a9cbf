// Package discord builds the discordgo session the rest of the module
// talks to and routes discordgo's own logging through zap.
package discord

import (
	"errors"
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"cordkit/pkg/config"
	"cordkit/pkg/logger"
	"cordkit/pkg/version"
)

// ErrNoToken is returned when no bot token is configured.
var ErrNoToken = errors.New("discord token not configured")

// DefaultIntents is used when discord.intents is zero. Interactions arrive
// without any privileged intent.
const DefaultIntents = discordgo.IntentsGuilds

// NewSession creates an unopened session for the configured bot token.
func NewSession(cfg *config.Config, log *logger.Logger) (*discordgo.Session, error) {
	token := strings.TrimSpace(cfg.Discord.Token)
	if token == "" {
		return nil, ErrNoToken
	}
	if !strings.HasPrefix(token, "Bot ") {
		token = "Bot " + token
	}

	s, err := discordgo.New(token)
	if err != nil {
		return nil, fmt.Errorf("creating session: %w", err)
	}
	s.UserAgent = version.UserAgent()
	s.Identify.Intents = DefaultIntents
	if cfg.Discord.Intents != 0 {
		s.Identify.Intents = discordgo.Intent(cfg.Discord.Intents)
	}
	s.LogLevel = discordgo.LogWarning

	if log != nil {
		RouteLogs(log)
	}
	return s, nil
}

// RouteLogs sends discordgo's package-level log output to log.
func RouteLogs(log *logger.Logger) {
	log = log.System("discordgo")
	discordgo.Logger = func(msgL, caller int, format string, a ...interface{}) {
		msg := fmt.Sprintf(format, a...)
		switch msgL {
		case discordgo.LogError:
			log.Error(msg)
		case discordgo.LogWarning:
			log.Warn(msg)
		case discordgo.LogInformational:
			log.Info(msg)
		default:
			log.Debug(msg, zap.Int("level", msgL))
		}
	}
}
