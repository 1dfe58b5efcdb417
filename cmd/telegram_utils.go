package cmd

import (
	"context"
	"log"
	"strings"

	"github.com/spf13/viper"

	"github.com/suderio/werewolf-arena/internal/data"
	"github.com/suderio/werewolf-arena/internal/engine"
	"github.com/suderio/werewolf-arena/internal/telegram"
)

// maybeStartBot starts the Telegram poller when the game has telegram seats
// and a token is configured. It returns nil otherwise.
func maybeStartBot(ctx context.Context, game *data.GameConfig, logger *log.Logger) *telegram.Bot {
	users := game.TelegramUsers()
	if len(users) == 0 {
		return nil
	}
	token := viper.GetString("telegram_token")
	if token == "" {
		logger.Printf("telegram: seats configured but no telegram_token set")
		return nil
	}

	bot := telegram.NewBot(telegram.NewClient(token), game.Telegram.ChatID, users, telegram.WithLogger(logger))
	go func() {
		if err := bot.Start(ctx); err != nil && ctx.Err() == nil {
			logger.Printf("telegram: %v", err)
		}
	}()
	return bot
}

// announce posts the public events to the game chat.
func announce(ctx context.Context, bot *telegram.Bot, entries []engine.HistoryEntry, revealDeaths bool) {
	var lines []string
	for _, entry := range entries {
		if !public(entry) {
			continue
		}
		if msg, ok := message(entry, revealDeaths); ok {
			lines = append(lines, msg)
		}
	}
	if len(lines) == 0 {
		return
	}
	_ = bot.Announce(ctx, strings.Join(lines, "\n"))
}
