package game

import (
	"time"

	"github.com/google/uuid"
)

type GameType string

const (
	TypeQuiz        GameType = "quiz"
	TypeWordChain   GameType = "wordchain"
	TypeGuessing    GameType = "guessing"
	TypeNumberGuess GameType = "numberguess"
)

// Valid reports whether t is one of the supported game types.
func (t GameType) Valid() bool {
	switch t {
	case TypeQuiz, TypeWordChain, TypeGuessing, TypeNumberGuess:
		return true
	}
	return false
}

type Status string

const (
	StatusWaiting    Status = "waiting_for_players"
	StatusInProgress Status = "in_progress"
)

// Timing constants for the orchestrator. Overridable per Engine via Timings.
const (
	JoinWindow       = 60 * time.Second
	TurnTimeout      = 60 * time.Second
	QuizRoundTime    = 20 * time.Second
	GuessRoundTime   = 60 * time.Second
	WatchdogTick     = 30 * time.Second
	InactivityLimit  = 300 * time.Second
	MaxQuizQuestions = 10
	MaxGuessRounds   = 5
)

type Player struct {
	UserID      int64  `json:"user_id"`
	DisplayName string `json:"display_name"`
	Score       int    `json:"score"`
}

// Session is the full state of one game in one chat. It is plain data:
// everything here survives a JSON round trip, and timer handles live in the
// Scheduler, never in the session.
type Session struct {
	ChatID           int64     `json:"chat_id"`
	GameID           string    `json:"game_id"`
	GameType         GameType  `json:"game_type"`
	Status           Status    `json:"status"`
	Players          []Player  `json:"players"`
	Round            int       `json:"round"` // round index, or turn index for wordchain
	CreatedAt        time.Time `json:"created_at"`
	LastActivityAt   time.Time `json:"last_activity_at"`
	JoinWindowEndsAt time.Time `json:"join_window_ends_at"`

	// Game payload: exactly one of these is non-nil once the game is
	// in progress, matching GameType.
	Quiz      *QuizState      `json:"quiz,omitempty"`
	WordChain *WordChainState `json:"wordchain,omitempty"`
	Guessing  *GuessingState  `json:"guessing,omitempty"`
	Number    *NumberState    `json:"number,omitempty"`
}

type Question struct {
	Text          string   `json:"text"`
	Answer        string   `json:"answer,omitempty"`
	Options       []string `json:"options,omitempty"`
	CorrectOption int      `json:"correct_option"`
	Explanation   string   `json:"explanation,omitempty"`
}

// IsPoll reports whether the question is asked as a Telegram quiz poll
// rather than a free-text question.
func (q Question) IsPoll() bool { return len(q.Options) > 0 }

type QuizState struct {
	Questions   []Question `json:"questions"`
	PollID      string     `json:"poll_id,omitempty"`
	Answered    bool       `json:"answered"`
	RoundEndsAt time.Time  `json:"round_ends_at"`
}

type WordChainState struct {
	CurrentWord string    `json:"current_word"`
	Expected    []string  `json:"expected"`
	Step        int       `json:"step"`
	TurnEndsAt  time.Time `json:"turn_ends_at"`
}

type GuessRound struct {
	Hint   string `json:"hint"`
	Answer string `json:"answer"`
}

type GuessingState struct {
	Rounds      []GuessRound  `json:"rounds"`
	Attempts    map[int64]int `json:"attempts"`
	Guessed     bool          `json:"guessed"`
	RoundEndsAt time.Time     `json:"round_ends_at"`
}

type NumberState struct {
	Secret   int           `json:"secret"`
	Attempts map[int64]int `json:"attempts"`
}

func newSession(chatID int64, gameType GameType, now time.Time, joinWindow time.Duration) *Session {
	return &Session{
		ChatID:           chatID,
		GameID:           uuid.NewString(),
		GameType:         gameType,
		Status:           StatusWaiting,
		CreatedAt:        now,
		LastActivityAt:   now,
		JoinWindowEndsAt: now.Add(joinWindow),
	}
}

// AddPlayer appends a player in join order. Joining twice is a no-op.
func (s *Session) AddPlayer(userID int64, displayName string) bool {
	if s.HasPlayer(userID) {
		return false
	}
	s.Players = append(s.Players, Player{UserID: userID, DisplayName: displayName})
	return true
}

func (s *Session) HasPlayer(userID int64) bool {
	for _, p := range s.Players {
		if p.UserID == userID {
			return true
		}
	}
	return false
}

func (s *Session) player(userID int64) *Player {
	for i := range s.Players {
		if s.Players[i].UserID == userID {
			return &s.Players[i]
		}
	}
	return nil
}

// CurrentPlayer is the player whose turn it is. Only meaningful for
// turn-based games while players is non-empty.
func (s *Session) CurrentPlayer() *Player {
	if len(s.Players) == 0 {
		return nil
	}
	return &s.Players[s.Round%len(s.Players)]
}

// RemoveCurrentPlayer drops the player at the turn index and keeps the turn
// index valid for the shrunken list.
func (s *Session) RemoveCurrentPlayer() Player {
	i := s.Round % len(s.Players)
	removed := s.Players[i]
	s.Players = append(s.Players[:i], s.Players[i+1:]...)
	if len(s.Players) > 0 {
		s.Round %= len(s.Players)
	} else {
		s.Round = 0
	}
	return removed
}

func (s *Session) Touch(now time.Time) { s.LastActivityAt = now }

// Standings returns players sorted by score, highest first. The sort is
// stable so ties keep join order.
func (s *Session) Standings() []Player {
	out := make([]Player, len(s.Players))
	copy(out, s.Players)
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j].Score > out[j-1].Score; j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out
}
