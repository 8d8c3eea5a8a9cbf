package discord

import (
	"context"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"cordkit/pkg/config"
	"cordkit/pkg/events"
	"cordkit/pkg/logger"
	"cordkit/pkg/rest"
)

// Module provides a session connected to the Discord gateway for the
// lifetime of the app, a REST client over it, and forwards its
// interactions to the event stream.
var Module = fx.Module("discord",
	fx.Provide(ProvideSession),
	fx.Provide(ProvideClient),
	fx.Invoke(forwardInteractions),
)

// RESTModule provides the REST client without ever opening the gateway
// connection. One-shot commands such as sync use it.
var RESTModule = fx.Module("discord-rest",
	fx.Provide(func(cfg *config.Config, log *logger.Logger) (*discordgo.Session, error) {
		return NewSession(cfg, log)
	}),
	fx.Provide(ProvideClient),
)

// ProvideSession creates the session and opens it on start.
func ProvideSession(lc fx.Lifecycle, cfg *config.Config, log *logger.Logger) (*discordgo.Session, error) {
	s, err := NewSession(cfg, log)
	if err != nil {
		return nil, err
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := s.Open(); err != nil {
				return err
			}
			user := ""
			if s.State != nil && s.State.User != nil {
				user = s.State.User.Username
			}
			log.Info("Connected to Discord", zap.String("user", user))
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info("Disconnecting from Discord")
			return s.Close()
		},
	})
	return s, nil
}

// ProvideClient wraps the session as a rest.Client.
func ProvideClient(s *discordgo.Session, cfg *config.Config) rest.Client {
	return rest.NewSessionClient(s, cfg.Discord.ApplicationID)
}

func forwardInteractions(lc fx.Lifecycle, s *discordgo.Session, stream events.Stream, log *logger.Logger) {
	remove := events.ForwardSession(s, stream, log)
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			remove()
			return nil
		},
	})
}
