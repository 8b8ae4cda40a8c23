package game

import (
	"fmt"
	"math/rand"
	"strconv"
	"strings"
)

// numberGuessStrategy hides one number in [1,100]. Fewer attempts mean more
// points: max(10, 100 - 5*attempts). The first correct guess wins and ends
// the session; there is no round timer, only the inactivity watchdog.
type numberGuessStrategy struct{}

func (numberGuessStrategy) Start(s *Session, _ []ContentItem) error {
	s.Round = 0
	s.Number = &NumberState{
		Secret:   rand.Intn(100) + 1,
		Attempts: make(map[int64]int),
	}
	return nil
}

func (numberGuessStrategy) Prompt(s *Session) string {
	return "I'm thinking of a number between 1 and 100. Guess it!"
}

func (numberGuessStrategy) ValidateAnswer(s *Session, userID int64, input string) Outcome {
	st := s.Number

	n, err := strconv.Atoi(strings.TrimSpace(input))
	if err != nil {
		return Outcome{Reply: "Please send a valid number."}
	}
	if n < 1 || n > 100 {
		return Outcome{Reply: "The number is between 1 and 100."}
	}

	st.Attempts[userID]++
	if n != st.Secret {
		hint := "My number is higher."
		if n > st.Secret {
			hint = "My number is lower."
		}
		return Outcome{CountedAttempt: true, Reply: hint}
	}

	points := numberGuessScore(st.Attempts[userID])
	p := s.player(userID)
	p.Score += points
	return Outcome{
		Accepted:   true,
		ScoreDelta: points,
		ScoredBy:   userID,
		Reply: fmt.Sprintf("Correct, %s! The number was %d. You get %d points (attempts: %d).",
			p.DisplayName, st.Secret, points, st.Attempts[userID]),
		EndReason: EndReasonWon,
	}
}

func (numberGuessStrategy) HandleTimeout(s *Session, purpose Purpose) Outcome {
	return Outcome{}
}

func numberGuessScore(attempts int) int {
	points := 100 - 5*attempts
	if points < 10 {
		points = 10
	}
	return points
}
