package telegram

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"github.com/asbhaibsr/groupgamingbot/internal/game"
	"github.com/asbhaibsr/groupgamingbot/internal/storage"
)

// BotClient is the slice of the Telegram API the handlers use.
type BotClient interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetChatMember(config tgbotapi.GetChatMemberConfig) (tgbotapi.ChatMember, error)
}

// Orchestrator is the session engine as the transport sees it.
type Orchestrator interface {
	StartGame(ctx context.Context, chatID int64, gameType game.GameType) (game.Session, error)
	Join(ctx context.Context, chatID, userID int64, displayName string) (bool, error)
	HandleText(ctx context.Context, chatID, userID int64, messageID int, text string)
	HandlePollAnswer(ctx context.Context, pollID string, userID int64, optionIDs []int)
	EndGame(ctx context.Context, chatID int64, reason string) error
	Session(chatID int64) (game.Session, bool)
}

// StatsService answers the leaderboard/stats commands.
type StatsService interface {
	Leaderboard(ctx context.Context, chatID int64) (room, world []storage.LeaderboardEntry, err error)
	MyStats(ctx context.Context, userID int64) (*storage.PlayerStats, error)
	RegisterGroup(ctx context.Context, chatID int64, title string) (bool, error)
	BroadcastTargets(ctx context.Context) ([]storage.Group, error)
	MarkGroupDead(ctx context.Context, chatID int64) error
}

type Handler struct {
	Bot   BotClient
	Games Orchestrator
	Stats StatsService

	AdminUserID  int64
	LogChannelID int64

	log zerolog.Logger
}

func NewHandler(bot BotClient, games Orchestrator, stats StatsService, adminUserID, logChannelID int64, log zerolog.Logger) *Handler {
	return &Handler{
		Bot:          bot,
		Games:        games,
		Stats:        stats,
		AdminUserID:  adminUserID,
		LogChannelID: logChannelID,
		log:          log,
	}
}

type gameInfo struct {
	Type  game.GameType
	Name  string
	Rules string
}

var gamesList = []gameInfo{
	{game.TypeQuiz, "Quiz / Trivia",
		"Quiz: the bot asks questions, answer first to score. A new question or poll every 20 seconds."},
	{game.TypeWordChain, "Word Chain",
		"Word Chain: the bot gives a word, the next player makes a word from its last letter. A wrong answer or running out of time knocks you out."},
	{game.TypeGuessing, "Guess the Word",
		"Guess the Word: the bot gives a hint, guess the hidden word. First correct guess wins the round."},
	{game.TypeNumberGuess, "Number Guessing",
		"Number Guessing: the bot picks a number from 1 to 100. Guess it; the bot says higher or lower. Fewer attempts means more points."},
}

func gameInfoFor(t game.GameType) (gameInfo, bool) {
	for _, g := range gamesList {
		if g.Type == t {
			return g, true
		}
	}
	return gameInfo{}, false
}

// HandleStart - /start: welcome, group registration, log-channel notices.
func (h *Handler) HandleStart(ctx context.Context, msg *tgbotapi.Message) {
	sendMessage(h.Bot, tgbotapi.NewMessage(msg.Chat.ID,
		fmt.Sprintf("Hi %s! I'm a game bot. Type /games to see what we can play.", msg.From.FirstName)))

	if msg.Chat.IsPrivate() {
		h.notifyLogChannel(fmt.Sprintf("New user started the bot: %s (%d)", msg.From.FirstName, msg.From.ID))
		return
	}

	isNew, err := h.Stats.RegisterGroup(ctx, msg.Chat.ID, msg.Chat.Title)
	if err != nil {
		h.log.Error().Err(err).Int64("chat_id", msg.Chat.ID).Msg("group registration failed")
		return
	}
	if isNew {
		h.notifyLogChannel(fmt.Sprintf("Bot added to a new group: %s (%d) by %s (%d)",
			msg.Chat.Title, msg.Chat.ID, msg.From.FirstName, msg.From.ID))
	}
}

// HandleHelp - /help
func (h *Handler) HandleHelp(msg *tgbotapi.Message) {
	text := "Here's what I can do:\n\n" +
		"/games - pick a game to play\n" +
		"/leaderboard - top players in this chat and worldwide\n" +
		"/mystats - your scores\n" +
		"/endgame - end the current game (admins only)\n" +
		"/help - show this message"
	sendMessage(h.Bot, tgbotapi.NewMessage(msg.Chat.ID, text))
}

// HandleGames - /games: inline keyboard game picker.
func (h *Handler) HandleGames(msg *tgbotapi.Message) {
	var rows [][]tgbotapi.InlineKeyboardButton
	for _, g := range gamesList {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(g.Name, "rules_"+string(g.Type))))
	}
	reply := tgbotapi.NewMessage(msg.Chat.ID, "Which game do you want to play?")
	reply.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(rows...)
	sendMessage(h.Bot, reply)
}

// HandleCallback routes inline-keyboard button presses.
func (h *Handler) HandleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	if _, err := h.Bot.Request(tgbotapi.NewCallback(cb.ID, "")); err != nil {
		h.log.Warn().Err(err).Msg("callback ack failed")
	}

	data := cb.Data
	switch {
	case strings.HasPrefix(data, "rules_"):
		h.handleRules(cb, game.GameType(strings.TrimPrefix(data, "rules_")))
	case strings.HasPrefix(data, "startgame_"):
		h.handleStartGame(ctx, cb, game.GameType(strings.TrimPrefix(data, "startgame_")))
	case data == "joingame":
		h.handleJoin(ctx, cb)
	}
}

func (h *Handler) handleRules(cb *tgbotapi.CallbackQuery, gameType game.GameType) {
	info, ok := gameInfoFor(gameType)
	if !ok {
		return
	}
	markup := tgbotapi.NewInlineKeyboardMarkup(tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("Start "+info.Name+"!", "startgame_"+string(gameType))))
	edit := tgbotapi.NewEditMessageTextAndMarkup(cb.Message.Chat.ID, cb.Message.MessageID,
		fmt.Sprintf("Rules for %s:\n\n%s\n\nPress the button to start.", info.Name, info.Rules), markup)
	sendMessage(h.Bot, edit)
}

func (h *Handler) handleStartGame(ctx context.Context, cb *tgbotapi.CallbackQuery, gameType game.GameType) {
	chatID := cb.Message.Chat.ID
	info, ok := gameInfoFor(gameType)
	if !ok {
		return
	}

	s, err := h.Games.StartGame(ctx, chatID, gameType)
	switch {
	case errors.Is(err, game.ErrSessionExists):
		sendMessage(h.Bot, tgbotapi.NewEditMessageText(chatID, cb.Message.MessageID,
			"A game is already running in this chat. End it with /endgame first."))
		return
	case errors.Is(err, game.ErrNoContent):
		sendMessage(h.Bot, tgbotapi.NewEditMessageText(chatID, cb.Message.MessageID,
			"There's no content for this game yet. Try another one."))
		return
	case err != nil:
		h.log.Error().Err(err).Int64("chat_id", chatID).Msg("start game failed")
		sendMessage(h.Bot, tgbotapi.NewEditMessageText(chatID, cb.Message.MessageID,
			"Something went wrong starting the game. Try again."))
		return
	}

	edit := tgbotapi.NewEditMessageTextAndMarkup(chatID, cb.Message.MessageID,
		joinWindowText(info.Name, s.Players), joinKeyboard())
	sendMessage(h.Bot, edit)
}

func (h *Handler) handleJoin(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	chatID := cb.Message.Chat.ID
	user := cb.From

	added, err := h.Games.Join(ctx, chatID, user.ID, user.FirstName)
	switch {
	case errors.Is(err, game.ErrSessionNotFound), errors.Is(err, game.ErrJoinClosed):
		h.answerAlert(cb.ID, "Sorry, you can't join now: the game has already started or ended.")
		return
	case err != nil:
		h.log.Error().Err(err).Int64("chat_id", chatID).Msg("join failed")
		return
	case !added:
		h.answerAlert(cb.ID, "You have already joined.")
		return
	}

	s, ok := h.Games.Session(chatID)
	if !ok {
		return
	}
	info, _ := gameInfoFor(s.GameType)
	edit := tgbotapi.NewEditMessageTextAndMarkup(chatID, cb.Message.MessageID,
		joinWindowText(info.Name, s.Players), joinKeyboard())
	sendMessage(h.Bot, edit)
}

// HandleEndGame - /endgame, chat admins only.
func (h *Handler) HandleEndGame(ctx context.Context, msg *tgbotapi.Message) {
	if !h.isChatAdmin(msg.Chat.ID, msg.From.ID) {
		sendMessage(h.Bot, tgbotapi.NewMessage(msg.Chat.ID, "Only group admins can end the game."))
		return
	}

	err := h.Games.EndGame(ctx, msg.Chat.ID, game.EndReasonAdmin)
	if errors.Is(err, game.ErrSessionNotFound) {
		sendMessage(h.Bot, tgbotapi.NewMessage(msg.Chat.ID, "There's no active game in this chat."))
		return
	}
	if err != nil {
		h.log.Error().Err(err).Int64("chat_id", msg.Chat.ID).Msg("end game failed")
		return
	}
	sendMessage(h.Bot, tgbotapi.NewMessage(msg.Chat.ID, "The game has been ended."))
}

// HandleLeaderboard - /leaderboard: chat top plus worldwide top.
func (h *Handler) HandleLeaderboard(ctx context.Context, msg *tgbotapi.Message) {
	roomID := msg.Chat.ID
	if msg.Chat.IsPrivate() {
		roomID = 0
	}
	room, world, err := h.Stats.Leaderboard(ctx, roomID)
	if err != nil {
		h.log.Error().Err(err).Msg("leaderboard failed")
		sendMessage(h.Bot, tgbotapi.NewMessage(msg.Chat.ID, "Couldn't fetch the leaderboard 😅"))
		return
	}

	var b strings.Builder
	if roomID != 0 {
		if len(room) == 0 {
			b.WriteString("No scores in this chat yet.\n")
		} else {
			b.WriteString("Top players in this chat:\n")
			writeBoard(&b, room)
		}
		b.WriteString("\n")
	}
	if len(world) == 0 {
		b.WriteString("No scores worldwide yet.")
	} else {
		b.WriteString("Worldwide top players:\n")
		writeBoard(&b, world)
	}
	sendMessage(h.Bot, tgbotapi.NewMessage(msg.Chat.ID, b.String()))
}

// HandleMyStats - /mystats
func (h *Handler) HandleMyStats(ctx context.Context, msg *tgbotapi.Message) {
	stats, err := h.Stats.MyStats(ctx, msg.From.ID)
	if errors.Is(err, storage.ErrPlayerNotFound) {
		sendMessage(h.Bot, tgbotapi.NewMessage(msg.Chat.ID, "You haven't played any games yet."))
		return
	}
	if err != nil {
		h.log.Error().Err(err).Int64("user_id", msg.From.ID).Msg("stats failed")
		sendMessage(h.Bot, tgbotapi.NewMessage(msg.Chat.ID, "Couldn't fetch your stats 😅"))
		return
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s's stats:\nTotal score: %d %s\nGames played: %d\nGames won: %d\n",
		stats.Player.DisplayName, stats.Player.TotalScore,
		plural(stats.Player.TotalScore, "point", "points"),
		stats.Player.GamesPlayed, stats.Player.GamesWon)
	if len(stats.RoomScores) > 0 {
		b.WriteString("\nPer-chat scores:\n")
		for _, rs := range stats.RoomScores {
			title := rs.ChatTitle
			if title == "" {
				title = fmt.Sprintf("Chat %d", rs.ChatID)
			}
			fmt.Fprintf(&b, "- %s: %d %s\n", title, rs.Score, plural(rs.Score, "point", "points"))
		}
	}
	sendMessage(h.Bot, tgbotapi.NewMessage(msg.Chat.ID, b.String()))
}

// HandleBroadcast - /broadcast <text>, bot owner only.
func (h *Handler) HandleBroadcast(ctx context.Context, msg *tgbotapi.Message) {
	if h.AdminUserID == 0 || msg.From.ID != h.AdminUserID {
		sendMessage(h.Bot, tgbotapi.NewMessage(msg.Chat.ID, "You can't use this command."))
		return
	}
	text := strings.TrimSpace(msg.CommandArguments())
	if text == "" {
		sendMessage(h.Bot, tgbotapi.NewMessage(msg.Chat.ID, "Provide a message to broadcast."))
		return
	}

	groups, err := h.Stats.BroadcastTargets(ctx)
	if err != nil {
		h.log.Error().Err(err).Msg("broadcast targets failed")
		return
	}

	sent, failed := 0, 0
	for _, g := range groups {
		if _, err := h.Bot.Send(tgbotapi.NewMessage(g.ChatID, text)); err != nil {
			failed++
			h.log.Warn().Err(err).Int64("chat_id", g.ChatID).Msg("broadcast send failed")
			if isDeadChatErr(err) {
				if derr := h.Stats.MarkGroupDead(ctx, g.ChatID); derr != nil {
					h.log.Error().Err(derr).Int64("chat_id", g.ChatID).Msg("group deactivation failed")
				}
			}
			continue
		}
		sent++
		time.Sleep(100 * time.Millisecond) // stay under flood limits
	}
	sendMessage(h.Bot, tgbotapi.NewMessage(msg.Chat.ID,
		fmt.Sprintf("Broadcast complete. Sent to %d groups, %d failed.", sent, failed)))
}

// HandleGameMessage routes free text in a chat to its active session.
func (h *Handler) HandleGameMessage(ctx context.Context, msg *tgbotapi.Message) {
	h.Games.HandleText(ctx, msg.Chat.ID, msg.From.ID, msg.MessageID, msg.Text)
}

// HandlePollAnswer routes a quiz poll vote to its session.
func (h *Handler) HandlePollAnswer(ctx context.Context, pa *tgbotapi.PollAnswer) {
	h.Games.HandlePollAnswer(ctx, pa.PollID, pa.User.ID, pa.OptionIDs)
}

func (h *Handler) isChatAdmin(chatID, userID int64) bool {
	member, err := h.Bot.GetChatMember(tgbotapi.GetChatMemberConfig{
		ChatConfigWithUser: tgbotapi.ChatConfigWithUser{ChatID: chatID, UserID: userID},
	})
	if err != nil {
		h.log.Error().Err(err).Int64("chat_id", chatID).Int64("user_id", userID).Msg("chat member lookup failed")
		return false
	}
	return member.Status == "administrator" || member.Status == "creator"
}

func (h *Handler) answerAlert(callbackID, text string) {
	cb := tgbotapi.NewCallbackWithAlert(callbackID, text)
	if _, err := h.Bot.Request(cb); err != nil {
		h.log.Warn().Err(err).Msg("callback alert failed")
	}
}

func (h *Handler) notifyLogChannel(text string) {
	if h.LogChannelID == 0 {
		return
	}
	if _, err := h.Bot.Send(tgbotapi.NewMessage(h.LogChannelID, text)); err != nil {
		h.log.Warn().Err(err).Msg("log channel notice failed")
	}
}

func joinWindowText(gameName string, players []game.Player) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s is starting!\n\nThe game begins in 1 minute. Press the button to join.\n\nPlayers:", gameName)
	for _, p := range players {
		b.WriteString("\n")
		b.WriteString(p.DisplayName)
	}
	return b.String()
}

func joinKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("I'm in!", "joingame")))
}

func writeBoard(b *strings.Builder, entries []storage.LeaderboardEntry) {
	for i, e := range entries {
		fmt.Fprintf(b, "%d. %s: %d %s\n", i+1, e.DisplayName, e.Score, plural(e.Score, "point", "points"))
	}
}

func isDeadChatErr(err error) bool {
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "chat not found") || strings.Contains(s, "bot was kicked") ||
		strings.Contains(s, "bot was blocked")
}
