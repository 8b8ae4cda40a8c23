package game

import (
	"fmt"
	"math/rand"
	"strings"
)

const guessingPoints = 15

// guessingStrategy runs up to MaxGuessRounds hint rounds. Whole-word
// guessing only: the first exact, case-insensitive guess scores and ends the
// round early; a round timeout reveals the answer and moves on. Per-user
// attempt counters reset every round.
type guessingStrategy struct{}

func (guessingStrategy) Start(s *Session, items []ContentItem) error {
	if len(items) == 0 {
		return ErrNoContent
	}
	picked := make([]ContentItem, len(items))
	copy(picked, items)
	rand.Shuffle(len(picked), func(i, j int) { picked[i], picked[j] = picked[j], picked[i] })
	if len(picked) > MaxGuessRounds {
		picked = picked[:MaxGuessRounds]
	}

	rounds := make([]GuessRound, 0, len(picked))
	for _, it := range picked {
		rounds = append(rounds, GuessRound{
			Hint:   it.Prompt,
			Answer: strings.ToUpper(strings.TrimSpace(it.Answer)),
		})
	}
	s.Round = 0
	s.Guessing = &GuessingState{Rounds: rounds, Attempts: make(map[int64]int)}
	return nil
}

func (guessingStrategy) Prompt(s *Session) string {
	r := s.Guessing.Rounds[s.Round]
	return fmt.Sprintf("Round %d:\n\nGuess the word: %s", s.Round+1, r.Hint)
}

func (guessingStrategy) ValidateAnswer(s *Session, userID int64, input string) Outcome {
	st := s.Guessing
	if st.Guessed || s.Round >= len(st.Rounds) {
		return Outcome{}
	}

	answer := st.Rounds[s.Round].Answer
	guess := strings.ToUpper(strings.TrimSpace(input))
	if guess != answer {
		st.Attempts[userID]++
		return Outcome{CountedAttempt: true, Reply: "Wrong guess. Try again!"}
	}

	st.Guessed = true
	p := s.player(userID)
	p.Score += guessingPoints
	s.Round++

	out := Outcome{
		Accepted:   true,
		ScoreDelta: guessingPoints,
		ScoredBy:   userID,
		Reply: fmt.Sprintf("Brilliant, %s! The answer was %s. You get %d points.",
			p.DisplayName, answer, guessingPoints),
	}
	if s.Round >= len(st.Rounds) {
		out.EndReason = EndReasonCompleted
		out.Announce = "That was the last round!"
	} else {
		out.AdvanceRound = true
	}
	return out
}

func (guessingStrategy) HandleTimeout(s *Session, purpose Purpose) Outcome {
	if purpose != PurposeRound {
		return Outcome{}
	}
	st := s.Guessing
	if st.Guessed || s.Round >= len(st.Rounds) {
		return Outcome{}
	}

	answer := st.Rounds[s.Round].Answer
	s.Round++
	out := Outcome{Announce: fmt.Sprintf("Time's up! The answer was %s.", answer)}
	if s.Round >= len(st.Rounds) {
		out.EndReason = EndReasonCompleted
	} else {
		out.AdvanceRound = true
	}
	return out
}

// resetRound prepares the state for the round at s.Round: fresh attempt
// counters, unlocked.
func (st *GuessingState) resetRound() {
	st.Guessed = false
	st.Attempts = make(map[int64]int)
}
