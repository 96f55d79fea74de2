package dailyprompt

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/storyseed/core/internal/models"
)

func TestSkipStreakAutoPause(t *testing.T) {
	prefs := &models.DailyPromptPreferenceModel{
		Enabled:         true,
		PauseAfterSkips: 3,
	}

	assert.False(t, applySkip(prefs))
	assert.True(t, prefs.Enabled)
	assert.Equal(t, 1, prefs.ConsecutiveSkips)

	assert.False(t, applySkip(prefs))
	assert.True(t, prefs.Enabled)

	assert.True(t, applySkip(prefs), "third consecutive skip should trip the pause")
	assert.False(t, prefs.Enabled)
	assert.Equal(t, 3, prefs.ConsecutiveSkips)
}

func TestResponseResetsSkipStreak(t *testing.T) {
	prefs := &models.DailyPromptPreferenceModel{
		Enabled:          true,
		PauseAfterSkips:  3,
		ConsecutiveSkips: 2,
	}

	applyResponse(prefs)
	assert.Equal(t, 0, prefs.ConsecutiveSkips)
	assert.True(t, prefs.Enabled)

	// After a reset, the streak starts over.
	assert.False(t, applySkip(prefs))
	assert.Equal(t, 1, prefs.ConsecutiveSkips)
}

func TestSkipStreakDisabledThreshold(t *testing.T) {
	prefs := &models.DailyPromptPreferenceModel{
		Enabled:         true,
		PauseAfterSkips: 0,
	}

	for i := 0; i < 10; i++ {
		assert.False(t, applySkip(prefs))
	}
	assert.True(t, prefs.Enabled)
}
