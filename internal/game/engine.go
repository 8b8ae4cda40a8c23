package game

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Notifier is the outbound side of the chat transport. Implementations
// retry and log; the engine never blocks on a failed send.
type Notifier interface {
	SendMessage(chatID int64, text string)
	SendReply(chatID int64, messageID int, text string)
	SendPoll(chatID int64, question string, options []string, correctOption int, openSeconds int) (pollID string, err error)
}

// ScoreLedger is durable per-user score accounting, independent of any
// session's lifetime.
type ScoreLedger interface {
	// AddPoints must be called exactly once per scoring event.
	AddPoints(ctx context.Context, userID int64, displayName string, chatID int64, points int) error
	// RecordResult bumps games played (and games won for the winner) when a
	// session ends.
	RecordResult(ctx context.Context, userID int64, displayName string, won bool) error
}

// Timings collects every timeout the engine uses. Tests shrink these.
type Timings struct {
	JoinWindow      time.Duration
	TurnTimeout     time.Duration
	QuizRoundTime   time.Duration
	GuessRoundTime  time.Duration
	WatchdogTick    time.Duration
	InactivityLimit time.Duration
}

func DefaultTimings() Timings {
	return Timings{
		JoinWindow:      JoinWindow,
		TurnTimeout:     TurnTimeout,
		QuizRoundTime:   QuizRoundTime,
		GuessRoundTime:  GuessRoundTime,
		WatchdogTick:    WatchdogTick,
		InactivityLimit: InactivityLimit,
	}
}

// Engine drives every session through its lifecycle: join window,
// per-variant progression, the inactivity watchdog and final standings.
// All game-specific rules live in the strategies; the engine is generic
// over them.
type Engine struct {
	registry  *Registry
	scheduler *Scheduler
	ledger    ScoreLedger
	content   ContentSource
	notify    Notifier
	timings   Timings
	log       zerolog.Logger
}

func NewEngine(registry *Registry, scheduler *Scheduler, ledger ScoreLedger, content ContentSource, notify Notifier, timings Timings, log zerolog.Logger) *Engine {
	return &Engine{
		registry:  registry,
		scheduler: scheduler,
		ledger:    ledger,
		content:   content,
		notify:    notify,
		timings:   timings,
		log:       log,
	}
}

// StartGame opens a join window for a new session. Fails with
// ErrSessionExists if the chat already has one, and with ErrNoContent if the
// content bank is empty for the type; in both cases nothing is persisted.
func (e *Engine) StartGame(ctx context.Context, chatID int64, gameType GameType) (Session, error) {
	if !gameType.Valid() {
		return Session{}, fmt.Errorf("unknown game type %q", gameType)
	}
	if _, err := e.fetchContent(ctx, gameType); err != nil {
		return Session{}, err
	}

	s, err := e.registry.Create(ctx, chatID, gameType, e.timings.JoinWindow)
	if err != nil {
		return Session{}, err
	}
	e.scheduler.Schedule(chatID, PurposeJoinWindow, e.timings.JoinWindow, func() {
		e.onJoinWindow(context.Background(), chatID)
	})
	e.log.Info().Int64("chat_id", chatID).Str("game_type", string(gameType)).
		Str("game_id", s.GameID).Msg("join window opened")
	return s, nil
}

// Join adds a player during the join window. Returns false without error if
// the user already joined.
func (e *Engine) Join(ctx context.Context, chatID, userID int64, displayName string) (bool, error) {
	added := false
	err := e.registry.Mutate(ctx, chatID, func(s *Session) error {
		if s.Status != StatusWaiting {
			return ErrJoinClosed
		}
		added = s.AddPlayer(userID, displayName)
		return nil
	})
	return added, err
}

// HandleText routes a free-text message from a chat with an active session
// to its strategy. Messages for chats without a running game are ignored.
func (e *Engine) HandleText(ctx context.Context, chatID, userID int64, messageID int, text string) {
	err := e.registry.Mutate(ctx, chatID, func(s *Session) error {
		if s.Status != StatusInProgress {
			return nil
		}
		// WordChain answers its own wrong-turn replies; the round games
		// simply ignore non-players.
		if s.GameType != TypeWordChain && !s.HasPlayer(userID) {
			return nil
		}
		strat := strategyFor(s.GameType)
		out := strat.ValidateAnswer(s, userID, text)
		e.applyOutcome(ctx, s, strat, out, messageID)
		return nil
	})
	if err != nil && !errors.Is(err, ErrSessionNotFound) {
		e.log.Error().Err(err).Int64("chat_id", chatID).Msg("text handling failed")
	}
}

// HandlePollAnswer routes a poll vote to the quiz session that owns the
// poll. Votes on unknown or stale polls are dropped.
func (e *Engine) HandlePollAnswer(ctx context.Context, pollID string, userID int64, optionIDs []int) {
	chatID, ok := e.registry.Find(func(s *Session) bool {
		return s.GameType == TypeQuiz && s.Status == StatusInProgress &&
			s.Quiz != nil && s.Quiz.PollID == pollID
	})
	if !ok {
		e.log.Debug().Str("poll_id", pollID).Msg("vote for unknown poll, ignoring")
		return
	}

	err := e.registry.Mutate(ctx, chatID, func(s *Session) error {
		if s.Status != StatusInProgress || s.GameType != TypeQuiz ||
			s.Quiz == nil || s.Quiz.PollID != pollID {
			return nil // moved on since Find
		}
		if !s.HasPlayer(userID) {
			return nil
		}
		out := quizValidatePollVote(s, userID, optionIDs)
		e.applyOutcome(ctx, s, quizStrategy{}, out, 0)
		return nil
	})
	if err != nil && !errors.Is(err, ErrSessionNotFound) {
		e.log.Error().Err(err).Int64("chat_id", chatID).Msg("poll answer handling failed")
	}
}

// EndGame ends any non-terminal session immediately. Authorization is the
// caller's job.
func (e *Engine) EndGame(ctx context.Context, chatID int64, reason string) error {
	return e.registry.Mutate(ctx, chatID, func(s *Session) error {
		e.finish(ctx, *s, reason)
		return nil
	})
}

// Restore reloads persisted sessions after a restart and re-arms their
// timers from the stored deadlines. Deadlines already in the past fire
// immediately.
func (e *Engine) Restore(ctx context.Context) error {
	sessions, err := e.registry.Restore(ctx)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	for _, s := range sessions {
		chatID := s.ChatID
		switch s.Status {
		case StatusWaiting:
			e.scheduler.Schedule(chatID, PurposeJoinWindow, s.JoinWindowEndsAt.Sub(now), func() {
				e.onJoinWindow(context.Background(), chatID)
			})
		case StatusInProgress:
			switch {
			case s.GameType == TypeQuiz && s.Quiz != nil:
				e.scheduler.Schedule(chatID, PurposeRound, s.Quiz.RoundEndsAt.Sub(now), func() {
					e.onRoundTimeout(context.Background(), chatID)
				})
			case s.GameType == TypeWordChain && s.WordChain != nil:
				e.scheduler.Schedule(chatID, PurposeTurn, s.WordChain.TurnEndsAt.Sub(now), func() {
					e.onTurnTimeout(context.Background(), chatID)
				})
			case s.GameType == TypeGuessing && s.Guessing != nil:
				e.scheduler.Schedule(chatID, PurposeRound, s.Guessing.RoundEndsAt.Sub(now), func() {
					e.onRoundTimeout(context.Background(), chatID)
				})
			}
			e.armWatchdog(chatID)
		}
	}
	return nil
}

// Session returns a copy of the chat's session, if any.
func (e *Engine) Session(chatID int64) (Session, bool) { return e.registry.Get(chatID) }

// ActiveSessions reports how many sessions are live, for the health surface.
func (e *Engine) ActiveSessions() int { return e.registry.Count() }

func (e *Engine) fetchContent(ctx context.Context, gameType GameType) ([]ContentItem, error) {
	if gameType == TypeNumberGuess {
		return nil, nil // secret is generated, no content bank needed
	}
	items, err := e.content.FetchContent(ctx, gameType)
	if err != nil {
		return nil, fmt.Errorf("fetch content: %w", err)
	}
	if len(items) == 0 {
		return nil, ErrNoContent
	}
	return items, nil
}

// onJoinWindow fires when the join window closes: zero joiners cancels the
// session, otherwise it is promoted to in-progress and the first round or
// turn begins.
func (e *Engine) onJoinWindow(ctx context.Context, chatID int64) {
	err := e.registry.Mutate(ctx, chatID, func(s *Session) error {
		if s.Status != StatusWaiting {
			return nil // stale firing
		}
		if len(s.Players) == 0 {
			e.notify.SendMessage(chatID, "Nobody joined. The game has been cancelled.")
			e.registry.Delete(ctx, chatID)
			e.log.Info().Int64("chat_id", chatID).Msg("session cancelled, no players")
			return nil
		}

		items, err := e.fetchContent(ctx, s.GameType)
		if err != nil {
			e.notify.SendMessage(chatID, "Couldn't load content for this game. Try again later.")
			e.registry.Delete(ctx, chatID)
			e.log.Warn().Err(err).Int64("chat_id", chatID).Msg("session aborted at start")
			return nil
		}
		strat := strategyFor(s.GameType)
		if err := strat.Start(s, items); err != nil {
			e.notify.SendMessage(chatID, "Couldn't load content for this game. Try again later.")
			e.registry.Delete(ctx, chatID)
			e.log.Warn().Err(err).Int64("chat_id", chatID).Msg("session aborted at start")
			return nil
		}

		s.Status = StatusInProgress
		s.Touch(time.Now().UTC())
		e.notify.SendMessage(chatID, fmt.Sprintf("The game begins! %d player(s) are in.", len(s.Players)))
		e.beginGame(ctx, s, strat)
		e.armWatchdog(chatID)
		e.log.Info().Int64("chat_id", chatID).Int("players", len(s.Players)).
			Str("game_type", string(s.GameType)).Msg("game started")
		return nil
	})
	if err != nil && !errors.Is(err, ErrSessionNotFound) {
		e.log.Error().Err(err).Int64("chat_id", chatID).Msg("join window handling failed")
	}
}

func (e *Engine) beginGame(ctx context.Context, s *Session, strat Strategy) {
	switch s.GameType {
	case TypeQuiz:
		e.emitQuizRound(ctx, s)
	case TypeWordChain:
		e.notify.SendMessage(s.ChatID, fmt.Sprintf("Word Chain begins! The first word is: %s", s.WordChain.CurrentWord))
		e.notify.SendMessage(s.ChatID, strat.Prompt(s))
		e.armTurnTimer(s)
	case TypeGuessing:
		e.emitGuessRound(ctx, s)
	case TypeNumberGuess:
		e.notify.SendMessage(s.ChatID, strat.Prompt(s))
	}
}

// applyOutcome turns a strategy's verdict into messages, ledger calls,
// timer changes, eliminations and session teardown. Runs under the room
// lock of a Mutate.
func (e *Engine) applyOutcome(ctx context.Context, s *Session, strat Strategy, out Outcome, replyTo int) {
	if out.Reply != "" {
		if replyTo != 0 {
			e.notify.SendReply(s.ChatID, replyTo, out.Reply)
		} else {
			e.notify.SendMessage(s.ChatID, out.Reply)
		}
	}
	if out.Announce != "" {
		e.notify.SendMessage(s.ChatID, out.Announce)
	}
	if out.Accepted || out.Eliminate || out.CountedAttempt {
		s.Touch(time.Now().UTC())
	}
	if out.Accepted && out.ScoreDelta > 0 {
		name := ""
		if p := s.player(out.ScoredBy); p != nil {
			name = p.DisplayName
		}
		if err := e.ledger.AddPoints(ctx, out.ScoredBy, name, s.ChatID, out.ScoreDelta); err != nil {
			e.log.Error().Err(err).Int64("user_id", out.ScoredBy).Msg("score increment failed")
		}
	}

	if out.Eliminate {
		e.eliminateCurrent(ctx, s, strat)
		return
	}
	if out.EndReason != "" {
		e.finish(ctx, *s, out.EndReason)
		return
	}
	if out.Accepted && s.GameType == TypeWordChain {
		e.notify.SendMessage(s.ChatID, strat.Prompt(s))
		e.armTurnTimer(s)
	}
	if out.AdvanceRound {
		switch s.GameType {
		case TypeQuiz:
			e.emitQuizRound(ctx, s)
		case TypeGuessing:
			e.emitGuessRound(ctx, s)
		}
	}
}

func (e *Engine) eliminateCurrent(ctx context.Context, s *Session, strat Strategy) {
	s.RemoveCurrentPlayer()
	if len(s.Players) < 2 {
		e.notify.SendMessage(s.ChatID, "Game over! Not enough players left.")
		e.finish(ctx, *s, EndReasonElimination)
		return
	}
	e.notify.SendMessage(s.ChatID, strat.Prompt(s))
	e.armTurnTimer(s)
}

func (e *Engine) emitQuizRound(ctx context.Context, s *Session) {
	st := s.Quiz
	if s.Round >= len(st.Questions) {
		e.finish(ctx, *s, EndReasonCompleted)
		return
	}

	q := st.Questions[s.Round]
	st.Answered = false
	st.PollID = ""
	if q.IsPoll() {
		pollID, err := e.notify.SendPoll(s.ChatID, q.Text, q.Options, q.CorrectOption,
			int(e.timings.QuizRoundTime/time.Second))
		if err != nil {
			e.log.Error().Err(err).Int64("chat_id", s.ChatID).Msg("poll send failed, skipping to timer")
		} else {
			st.PollID = pollID
		}
	} else {
		e.notify.SendMessage(s.ChatID, quizStrategy{}.Prompt(s))
	}

	now := time.Now().UTC()
	st.RoundEndsAt = now.Add(e.timings.QuizRoundTime)
	s.Touch(now)
	chatID := s.ChatID
	e.scheduler.Schedule(chatID, PurposeRound, e.timings.QuizRoundTime, func() {
		e.onRoundTimeout(context.Background(), chatID)
	})
}

func (e *Engine) emitGuessRound(ctx context.Context, s *Session) {
	st := s.Guessing
	if s.Round >= len(st.Rounds) {
		e.finish(ctx, *s, EndReasonCompleted)
		return
	}

	st.resetRound()
	e.notify.SendMessage(s.ChatID, guessingStrategy{}.Prompt(s))

	now := time.Now().UTC()
	st.RoundEndsAt = now.Add(e.timings.GuessRoundTime)
	s.Touch(now)
	chatID := s.ChatID
	e.scheduler.Schedule(chatID, PurposeRound, e.timings.GuessRoundTime, func() {
		e.onRoundTimeout(context.Background(), chatID)
	})
}

func (e *Engine) armTurnTimer(s *Session) {
	s.WordChain.TurnEndsAt = time.Now().UTC().Add(e.timings.TurnTimeout)
	chatID := s.ChatID
	e.scheduler.Schedule(chatID, PurposeTurn, e.timings.TurnTimeout, func() {
		e.onTurnTimeout(context.Background(), chatID)
	})
}

func (e *Engine) armWatchdog(chatID int64) {
	e.scheduler.Schedule(chatID, PurposeWatchdog, e.timings.WatchdogTick, func() {
		e.onWatchdog(context.Background(), chatID)
	})
}

func (e *Engine) onTurnTimeout(ctx context.Context, chatID int64) {
	err := e.registry.Mutate(ctx, chatID, func(s *Session) error {
		if s.Status != StatusInProgress || s.GameType != TypeWordChain {
			return nil // stale firing
		}
		strat := strategyFor(s.GameType)
		e.applyOutcome(ctx, s, strat, strat.HandleTimeout(s, PurposeTurn), 0)
		return nil
	})
	if err != nil && !errors.Is(err, ErrSessionNotFound) {
		e.log.Error().Err(err).Int64("chat_id", chatID).Msg("turn timeout handling failed")
	}
}

func (e *Engine) onRoundTimeout(ctx context.Context, chatID int64) {
	err := e.registry.Mutate(ctx, chatID, func(s *Session) error {
		if s.Status != StatusInProgress {
			return nil // stale firing
		}
		if s.GameType != TypeQuiz && s.GameType != TypeGuessing {
			return nil
		}
		strat := strategyFor(s.GameType)
		e.applyOutcome(ctx, s, strat, strat.HandleTimeout(s, PurposeRound), 0)
		return nil
	})
	if err != nil && !errors.Is(err, ErrSessionNotFound) {
		e.log.Error().Err(err).Int64("chat_id", chatID).Msg("round timeout handling failed")
	}
}

// onWatchdog runs every WatchdogTick for in-progress sessions and ends the
// game once the inactivity limit has elapsed, so a state change between
// ticks is observed promptly.
func (e *Engine) onWatchdog(ctx context.Context, chatID int64) {
	err := e.registry.Mutate(ctx, chatID, func(s *Session) error {
		if s.Status != StatusInProgress {
			return nil // stale firing
		}
		if time.Since(s.LastActivityAt) >= e.timings.InactivityLimit {
			e.notify.SendMessage(chatID, "The game has ended due to inactivity.")
			e.finish(ctx, *s, EndReasonInactivity)
			return nil
		}
		e.armWatchdog(chatID)
		return nil
	})
	if err != nil && !errors.Is(err, ErrSessionNotFound) {
		e.log.Error().Err(err).Int64("chat_id", chatID).Msg("watchdog handling failed")
	}
}

// finish announces final standings, flushes played/won counters to the
// ledger and tears the session down: every timer cancelled, registry entry
// and store record removed.
func (e *Engine) finish(ctx context.Context, s Session, reason string) {
	if s.Status == StatusInProgress && len(s.Players) > 0 {
		standings := s.Standings()
		var b strings.Builder
		b.WriteString("Final standings:\n")
		for i, p := range standings {
			fmt.Fprintf(&b, "%d. %s: %d points\n", i+1, p.DisplayName, p.Score)
		}
		e.notify.SendMessage(s.ChatID, b.String())

		for i, p := range standings {
			if err := e.ledger.RecordResult(ctx, p.UserID, p.DisplayName, i == 0); err != nil {
				e.log.Error().Err(err).Int64("user_id", p.UserID).Msg("result recording failed")
			}
		}
	}

	e.registry.Delete(ctx, s.ChatID)
	e.log.Info().Int64("chat_id", s.ChatID).Str("game_type", string(s.GameType)).
		Str("reason", reason).Msg("game ended")
}
