package telegram

import (
	"log"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

func sendMessage(bot BotClient, msg tgbotapi.Chattable) {
	if _, err := bot.Send(msg); err != nil {
		log.Printf("Failed to send message: %v", err)
	}
}

// plural picks the singular or plural form for a count.
func plural(count int, one, many string) string {
	if count == 1 || count == -1 {
		return one
	}
	return many
}
