package game

import (
	"context"
	"errors"
)

var (
	// ErrNoContent means the content bank has nothing for the requested
	// game type; session creation is aborted, nothing is persisted.
	ErrNoContent = errors.New("no content available for this game")

	// ErrJoinClosed means the join window is over.
	ErrJoinClosed = errors.New("the game has already started")
)

// ContentItem is one entry from the content bank: a quiz question, one link
// of a word chain, or a hint/answer pair.
type ContentItem struct {
	Prompt        string
	Answer        string
	Options       []string
	CorrectOption int
	Explanation   string
}

// ContentSource supplies game content. Implemented by the storage layer.
type ContentSource interface {
	FetchContent(ctx context.Context, gameType GameType) ([]ContentItem, error)
}

// Outcome is what a strategy decided about one answer or timeout. The engine
// turns it into messages, ledger calls, timer changes and session teardown.
type Outcome struct {
	// Accepted means the answer was correct and scored.
	Accepted bool
	// ScoreDelta is credited to ScoredBy when Accepted.
	ScoreDelta int
	ScoredBy   int64

	// Reply is sent as a reply to the triggering message; Announce is sent
	// to the whole room.
	Reply    string
	Announce string

	// AdvanceRound tells the engine to emit the next round prompt.
	AdvanceRound bool
	// Eliminate tells the engine to drop the current turn player.
	Eliminate bool
	// CountedAttempt means the input was a qualifying action (it feeds the
	// inactivity watchdog) even though it did not score.
	CountedAttempt bool
	// EndReason, when non-empty, ends the session.
	EndReason string
}

// Strategy is the pluggable rule set for one game type: pure answer
// validation, scoring and progression over session data. No I/O, no timers.
type Strategy interface {
	// Start populates the session payload from content. Called on the
	// WaitingForPlayers -> InProgress transition.
	Start(s *Session, items []ContentItem) error
	// ValidateAnswer judges one free-text message from a player.
	ValidateAnswer(s *Session, userID int64, input string) Outcome
	// Prompt renders the current round/turn prompt, or "" when the engine
	// sends something richer (a poll) instead.
	Prompt(s *Session) string
	// HandleTimeout reacts to a fired turn or round timer.
	HandleTimeout(s *Session, purpose Purpose) Outcome
}

func strategyFor(t GameType) Strategy {
	switch t {
	case TypeQuiz:
		return quizStrategy{}
	case TypeWordChain:
		return wordChainStrategy{}
	case TypeGuessing:
		return guessingStrategy{}
	case TypeNumberGuess:
		return numberGuessStrategy{}
	}
	return nil
}

// End reasons reported when a session is torn down.
const (
	EndReasonCompleted   = "completed"
	EndReasonWon         = "won"
	EndReasonElimination = "elimination"
	EndReasonInactivity  = "inactivity"
	EndReasonAdmin       = "admin"
	EndReasonNoContent   = "no content"
)
