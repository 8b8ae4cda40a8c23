package game

import (
	"fmt"
	"strings"
	"unicode"
)

const wordChainPoints = 5

// wordChainStrategy plays the content bank's chain: the starting word is the
// first item's prompt, and each step expects that item's answer. The turn
// player must produce a word that links (first letter = last letter of the
// current word), is alphabetic, longer than one letter and matches the
// expected target. A wrong word or a turn timeout eliminates the player.
type wordChainStrategy struct{}

func (wordChainStrategy) Start(s *Session, items []ContentItem) error {
	if len(items) == 0 {
		return ErrNoContent
	}
	start := strings.ToUpper(strings.TrimSpace(items[0].Prompt))
	expected := make([]string, 0, len(items))
	for _, it := range items {
		expected = append(expected, strings.ToUpper(strings.TrimSpace(it.Answer)))
	}
	s.Round = 0
	s.WordChain = &WordChainState{CurrentWord: start, Expected: expected}
	return nil
}

func (wordChainStrategy) Prompt(s *Session) string {
	cur := s.CurrentPlayer()
	if cur == nil {
		return ""
	}
	return fmt.Sprintf("%s, your turn! Say a word starting with '%s'.",
		cur.DisplayName, lastLetter(s.WordChain.CurrentWord))
}

func (wordChainStrategy) ValidateAnswer(s *Session, userID int64, input string) Outcome {
	cur := s.CurrentPlayer()
	if cur == nil {
		return Outcome{}
	}
	if cur.UserID != userID {
		if !s.HasPlayer(userID) {
			return Outcome{}
		}
		return Outcome{Reply: "It's not your turn."}
	}

	st := s.WordChain
	word := strings.ToUpper(strings.TrimSpace(input))
	if !linksTo(st.CurrentWord, word) || st.Step >= len(st.Expected) || word != st.Expected[st.Step] {
		return Outcome{
			Eliminate: true,
			Reply: fmt.Sprintf("Wrong word! It had to start with '%s'. %s is out of the game.",
				lastLetter(st.CurrentWord), cur.DisplayName),
		}
	}

	cur.Score += wordChainPoints
	st.CurrentWord = word
	st.Step++
	s.Round = (s.Round + 1) % len(s.Players)

	out := Outcome{
		Accepted:   true,
		ScoreDelta: wordChainPoints,
		ScoredBy:   userID,
		Reply: fmt.Sprintf("Correct! '%s' is the new word. %s gets %d points.",
			word, cur.DisplayName, wordChainPoints),
	}
	if st.Step >= len(st.Expected) {
		out.EndReason = EndReasonCompleted
		out.Announce = "The chain is complete! Every word has been played."
	}
	return out
}

func (wordChainStrategy) HandleTimeout(s *Session, purpose Purpose) Outcome {
	if purpose != PurposeTurn {
		return Outcome{}
	}
	cur := s.CurrentPlayer()
	if cur == nil {
		return Outcome{}
	}
	return Outcome{
		Eliminate: true,
		Announce:  fmt.Sprintf("%s didn't answer in time and is out of the game!", cur.DisplayName),
	}
}

// linksTo reports whether next is a well-formed chain continuation of cur:
// starts with cur's last letter, longer than one letter, letters only.
func linksTo(cur, next string) bool {
	runes := []rune(next)
	if len(runes) < 2 {
		return false
	}
	for _, r := range runes {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return strings.HasPrefix(next, lastLetter(cur))
}

func lastLetter(word string) string {
	runes := []rune(word)
	if len(runes) == 0 {
		return ""
	}
	return string(runes[len(runes)-1])
}
