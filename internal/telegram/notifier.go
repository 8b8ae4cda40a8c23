package telegram

import (
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
)

const maxSendRetries = 3

// Notifier is the engine's outbound side of the transport. Sends are
// retried a bounded number of times with exponential backoff (Telegram rate
// limits), then counted and dropped, never retried forever.
type Notifier struct {
	bot BotClient
	log zerolog.Logger
}

func NewNotifier(bot BotClient, log zerolog.Logger) *Notifier {
	return &Notifier{bot: bot, log: log}
}

func (n *Notifier) SendMessage(chatID int64, text string) {
	_, _ = n.send(tgbotapi.NewMessage(chatID, text))
}

func (n *Notifier) SendReply(chatID int64, messageID int, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyToMessageID = messageID
	_, _ = n.send(msg)
}

func (n *Notifier) SendPoll(chatID int64, question string, options []string, correctOption int, openSeconds int) (string, error) {
	poll := tgbotapi.NewPoll(chatID, question, options...)
	poll.Type = "quiz"
	poll.CorrectOptionID = int64(correctOption)
	poll.OpenPeriod = openSeconds
	poll.IsAnonymous = false

	sent, err := n.send(poll)
	if err != nil {
		return "", err
	}
	if sent.Poll == nil {
		return "", errors.New("telegram returned a message without a poll")
	}
	return sent.Poll.ID, nil
}

func (n *Notifier) send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	var sent tgbotapi.Message
	op := func() error {
		m, err := n.bot.Send(c)
		if err != nil {
			return err
		}
		sent = m
		return nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 500 * time.Millisecond
	if err := backoff.Retry(op, backoff.WithMaxRetries(bo, maxSendRetries)); err != nil {
		n.log.Error().Err(err).Msg("send failed after retries, dropping message")
		return tgbotapi.Message{}, err
	}
	return sent, nil
}
