//go:build wireinject

package di

import (
	"log/slog"
	"net/http"

	"github.com/google/wire"

	"banlogger/internal/adapter/discord"
	"banlogger/internal/adapter/hostbus"
	"banlogger/internal/adapter/intake"
	"banlogger/internal/adapter/logging"
	"banlogger/internal/adapter/steam"
	"banlogger/internal/app"
	"banlogger/internal/config"
	"banlogger/internal/domain/ports"
)

// InitializeApp wires the application components together. The returned
// cleanup closes the log file and must run after the app has stopped.
func InitializeApp() (*app.App, func(), error) {
	wire.Build(
		config.Load,
		provideSlogLogger,
		logging.New,
		wire.Bind(new(ports.Logger), new(*logging.SLogger)),
		hostbus.New,
		provideIntakeHandler,
		provideNotifierFactory,
		provideIdentityResolver,
		app.New,
	)
	return nil, nil, nil
}

func provideSlogLogger(cfg *config.Config) (*slog.Logger, func()) {
	logger, closer := logging.NewStdout(logging.Options{Level: cfg.LogLevel, File: cfg.LogFile})
	return logger, func() {
		_ = closer.Close()
	}
}

func provideIntakeHandler(cfg *config.Config, bus *hostbus.Bus, logger ports.Logger) http.Handler {
	return intake.NewHandler(bus, logger, cfg.IntakeToken)
}

func provideNotifierFactory(cfg *config.Config, logger ports.Logger) app.NotifierFactory {
	return func() (ports.Notifier, error) {
		webhook, err := discord.NewWebhook(discord.Config{
			URL:         cfg.DiscordWebhookURL,
			SendTimeout: cfg.SendTimeout,
		}, logger)
		if err != nil {
			return nil, err
		}
		return webhook, nil
	}
}

func provideIdentityResolver(cfg *config.Config, logger ports.Logger) ports.IdentityResolver {
	return steam.NewResolver(cfg.SteamAPIKey, cfg.SteamAPIBaseURL, cfg.RequestTimeout, logger)
}
