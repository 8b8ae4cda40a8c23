package telegram

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
)

type Bot struct {
	bot     *tgbotapi.BotAPI
	handler *Handler
	log     zerolog.Logger
}

func NewBot(api *tgbotapi.BotAPI, handler *Handler, log zerolog.Logger) *Bot {
	return &Bot{bot: api, handler: handler, log: log}
}

// Start runs the long-poll update loop until ctx is cancelled.
func (b *Bot) Start(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := b.bot.GetUpdatesChan(u)

	b.log.Info().Str("username", b.bot.Self.UserName).Msg("bot started")

	for {
		select {
		case <-ctx.Done():
			b.bot.StopReceivingUpdates()
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			b.dispatch(ctx, update)
		}
	}
}

func (b *Bot) dispatch(ctx context.Context, update tgbotapi.Update) {
	switch {
	case update.Message != nil:
		b.handleMessage(ctx, update.Message)
	case update.CallbackQuery != nil:
		b.handler.HandleCallback(ctx, update.CallbackQuery)
	case update.PollAnswer != nil:
		b.handler.HandlePollAnswer(ctx, update.PollAnswer)
	}
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg.From == nil {
		return
	}

	switch msg.Command() {
	case "start":
		b.handler.HandleStart(ctx, msg)
	case "help":
		b.handler.HandleHelp(msg)
	case "games":
		b.handler.HandleGames(msg)
	case "endgame":
		b.handler.HandleEndGame(ctx, msg)
	case "leaderboard":
		b.handler.HandleLeaderboard(ctx, msg)
	case "mystats":
		b.handler.HandleMyStats(ctx, msg)
	case "broadcast":
		b.handler.HandleBroadcast(ctx, msg)
	case "":
		if msg.Text != "" {
			b.handler.HandleGameMessage(ctx, msg)
		}
	}
}
