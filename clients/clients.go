package clients

import (
	"trenchwatch/clients/dexscreener"
	"trenchwatch/clients/discord"
	"trenchwatch/clients/notifier"
	"trenchwatch/clients/telegram"
	"trenchwatch/config"

	"go.uber.org/zap"
)

type Clients struct {
	Logger *zap.Logger

	Discord  *discord.DiscordClient
	Telegram *telegram.TelegramClient
	Notifier notifier.Notifier // Combined notifier for all channels
	Dex      *dexscreener.Client
}

func NewClients(logger *zap.Logger, cfg *config.Config) *Clients {
	discordClient := discord.NewDiscordClient(logger, cfg)
	telegramClient := telegram.NewTelegramClient(logger, cfg)

	// Create combined notifier for all channels
	multiNotifier := notifier.NewMultiNotifier(telegramClient, discordClient)

	return &Clients{
		Logger:   logger,
		Discord:  discordClient,
		Telegram: telegramClient,
		Notifier: multiNotifier,
		Dex:      dexscreener.NewClient(logger, cfg),
	}
}
