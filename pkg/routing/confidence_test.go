package routing

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScore_ExplicitMention(t *testing.T) {
	confidence, ambiguous := Score(1, 0, true)
	assert.Equal(t, 100, confidence)
	assert.False(t, ambiguous)
}

func TestScore_NoEvidence(t *testing.T) {
	confidence, ambiguous := Score(0, 0, false)
	assert.Equal(t, 0, confidence)
	assert.True(t, ambiguous)
}

func TestScore_Tie(t *testing.T) {
	confidence, ambiguous := Score(3, 3, false)
	assert.Equal(t, 0, confidence)
	assert.True(t, ambiguous)
}

func TestScore_SoleMatchNeverCertain(t *testing.T) {
	for _, top := range []int{1, 2, 5, 100} {
		confidence, ambiguous := Score(top, 0, false)
		assert.False(t, ambiguous)
		assert.GreaterOrEqual(t, confidence, 50, "top=%d", top)
		assert.LessOrEqual(t, confidence, 99, "top=%d", top)
	}
}

func TestScore_MonotonicInMargin(t *testing.T) {
	// With the runner-up fixed, more evidence for the winner means more
	// confidence.
	prev := -1
	for top := 2; top <= 10; top++ {
		confidence, ambiguous := Score(top, 1, false)
		assert.False(t, ambiguous)
		assert.Greater(t, confidence, prev, "top=%d", top)
		prev = confidence
	}
}

func TestScore_CloseRaceIsLowConfidence(t *testing.T) {
	closeRace, _ := Score(5, 4, false)
	clearWin, _ := Score(5, 1, false)
	assert.Less(t, closeRace, clearWin)
}
