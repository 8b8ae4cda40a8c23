package game

import (
	"fmt"
	"math/rand"
	"strings"
)

const quizPoints = 10

// quizStrategy runs rounds of up to MaxQuizQuestions questions. A question
// with options is asked as a Telegram quiz poll; one without is free text.
// The first correct answer in a round scores and locks the round; the round
// timer, not the answer, advances to the next question.
type quizStrategy struct{}

func (quizStrategy) Start(s *Session, items []ContentItem) error {
	if len(items) == 0 {
		return ErrNoContent
	}
	picked := make([]ContentItem, len(items))
	copy(picked, items)
	rand.Shuffle(len(picked), func(i, j int) { picked[i], picked[j] = picked[j], picked[i] })
	if len(picked) > MaxQuizQuestions {
		picked = picked[:MaxQuizQuestions]
	}

	questions := make([]Question, 0, len(picked))
	for _, it := range picked {
		questions = append(questions, Question{
			Text:          it.Prompt,
			Answer:        it.Answer,
			Options:       it.Options,
			CorrectOption: it.CorrectOption,
			Explanation:   it.Explanation,
		})
	}
	s.Round = 0
	s.Quiz = &QuizState{Questions: questions}
	return nil
}

func (quizStrategy) Prompt(s *Session) string {
	q := s.Quiz.Questions[s.Round]
	if q.IsPoll() {
		return "" // the engine sends a poll instead
	}
	return fmt.Sprintf("Question %d:\n\n%s", s.Round+1, q.Text)
}

func (quizStrategy) ValidateAnswer(s *Session, userID int64, input string) Outcome {
	st := s.Quiz
	if st.Answered || s.Round >= len(st.Questions) {
		return Outcome{}
	}
	q := st.Questions[s.Round]
	if q.IsPoll() {
		// Poll rounds only score through poll votes.
		return Outcome{}
	}
	if !strings.EqualFold(strings.TrimSpace(input), q.Answer) {
		return Outcome{}
	}

	st.Answered = true
	p := s.player(userID)
	p.Score += quizPoints
	return Outcome{
		Accepted:   true,
		ScoreDelta: quizPoints,
		ScoredBy:   userID,
		Reply:      fmt.Sprintf("Correct, %s! You get %d points.", p.DisplayName, quizPoints),
	}
}

func (quizStrategy) HandleTimeout(s *Session, purpose Purpose) Outcome {
	if purpose != PurposeRound {
		return Outcome{}
	}
	st := s.Quiz
	s.Round++
	st.Answered = false
	st.PollID = ""
	if s.Round >= len(st.Questions) {
		return Outcome{
			EndReason: EndReasonCompleted,
			Announce:  "The quiz is over! All questions have been asked.",
		}
	}
	return Outcome{AdvanceRound: true}
}

// quizValidatePollVote judges a poll vote against the current poll round.
// Same check-then-set locking rule as free-text answers.
func quizValidatePollVote(s *Session, userID int64, optionIDs []int) Outcome {
	st := s.Quiz
	if st.Answered || s.Round >= len(st.Questions) {
		return Outcome{}
	}
	q := st.Questions[s.Round]
	if !q.IsPoll() {
		return Outcome{}
	}
	for _, opt := range optionIDs {
		if opt == q.CorrectOption {
			st.Answered = true
			p := s.player(userID)
			p.Score += quizPoints
			return Outcome{
				Accepted:   true,
				ScoreDelta: quizPoints,
				ScoredBy:   userID,
				Announce:   fmt.Sprintf("Correct, %s! You get %d points.", p.DisplayName, quizPoints),
			}
		}
	}
	return Outcome{CountedAttempt: true}
}
