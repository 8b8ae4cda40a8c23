package game

import (
	"testing"
	"unicode"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func wordChainSession(t *testing.T, items []ContentItem) *Session {
	t.Helper()
	s := newSession(1, TypeWordChain, testNow(), JoinWindow)
	s.AddPlayer(10, "Alice")
	s.AddPlayer(20, "Bob")
	s.Status = StatusInProgress
	require.NoError(t, wordChainStrategy{}.Start(s, items))
	return s
}

var chainItems = []ContentItem{
	{Prompt: "APPLE", Answer: "ELEPHANT"},
	{Prompt: "", Answer: "TIGER"},
}

func TestWordChainAccept(t *testing.T) {
	s := wordChainSession(t, chainItems)

	out := wordChainStrategy{}.ValidateAnswer(s, 10, "elephant")
	require.True(t, out.Accepted)
	assert.Equal(t, wordChainPoints, out.ScoreDelta)
	assert.Equal(t, wordChainPoints, s.Players[0].Score)
	assert.Equal(t, "ELEPHANT", s.WordChain.CurrentWord)
	assert.Equal(t, 1, s.WordChain.Step)

	// The accepted word must actually chain from the previous one.
	word := []rune(s.WordChain.CurrentWord)
	assert.Greater(t, len(word), 1)
	assert.Equal(t, 'E', word[0]) // APPLE ends in E
	for _, r := range word {
		assert.True(t, unicode.IsLetter(r))
	}

	// Turn passes to the next player in join order.
	assert.Equal(t, int64(20), s.CurrentPlayer().UserID)
}

func TestWordChainChainCompletion(t *testing.T) {
	s := wordChainSession(t, chainItems)

	out := wordChainStrategy{}.ValidateAnswer(s, 10, "ELEPHANT")
	require.True(t, out.Accepted)
	assert.Empty(t, out.EndReason)

	out = wordChainStrategy{}.ValidateAnswer(s, 20, "TIGER")
	require.True(t, out.Accepted)
	assert.Equal(t, EndReasonCompleted, out.EndReason)
}

func TestWordChainWrongWordEliminates(t *testing.T) {
	s := wordChainSession(t, chainItems)

	out := wordChainStrategy{}.ValidateAnswer(s, 10, "TABLE") // doesn't start with E
	assert.True(t, out.Eliminate)
	assert.False(t, out.Accepted)
}

func TestWordChainNotYourTurn(t *testing.T) {
	s := wordChainSession(t, chainItems)

	out := wordChainStrategy{}.ValidateAnswer(s, 20, "ELEPHANT")
	assert.False(t, out.Accepted)
	assert.False(t, out.Eliminate)
	assert.Equal(t, "It's not your turn.", out.Reply)
	assert.Zero(t, s.WordChain.Step)
}

func TestWordChainNonPlayerIgnored(t *testing.T) {
	s := wordChainSession(t, chainItems)

	out := wordChainStrategy{}.ValidateAnswer(s, 999, "ELEPHANT")
	assert.Equal(t, Outcome{}, out)
}

func TestWordChainTurnTimeout(t *testing.T) {
	s := wordChainSession(t, chainItems)

	out := wordChainStrategy{}.HandleTimeout(s, PurposeTurn)
	assert.True(t, out.Eliminate)
	assert.Contains(t, out.Announce, "Alice")
}

func TestLinksTo(t *testing.T) {
	assert.True(t, linksTo("APPLE", "ELEPHANT"))
	assert.False(t, linksTo("APPLE", "TIGER"), "must start with the last letter")
	assert.False(t, linksTo("APPLE", "E"), "single letters don't count")
	assert.False(t, linksTo("APPLE", "E2E"), "digits are not letters")
}

func TestRemoveCurrentPlayerKeepsTurnIndexValid(t *testing.T) {
	s := newSession(1, TypeWordChain, testNow(), JoinWindow)
	s.AddPlayer(10, "Alice")
	s.AddPlayer(20, "Bob")
	s.AddPlayer(30, "Carol")
	s.Round = 2 // Carol's turn

	removed := s.RemoveCurrentPlayer()
	assert.Equal(t, int64(30), removed.UserID)
	// Index wraps back to the start of the shrunken list.
	assert.Equal(t, int64(10), s.CurrentPlayer().UserID)
}
