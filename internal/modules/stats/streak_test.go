package stats

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func day(t *testing.T, s string) time.Time {
	t.Helper()
	parsed, err := time.Parse("2006-01-02", s)
	if err != nil {
		t.Fatal(err)
	}
	return parsed
}

func TestStreakCountsBackFromToday(t *testing.T) {
	dates := map[string]bool{
		"2026-08-28": true,
		"2026-08-29": true,
		"2026-08-30": true,
	}
	assert.Equal(t, 3, Streak(dates, day(t, "2026-08-30")))
}

func TestStreakSurvivesUntilEndOfToday(t *testing.T) {
	// No response today yet, but yesterday ended a 2-day run.
	dates := map[string]bool{
		"2026-08-28": true,
		"2026-08-29": true,
	}
	assert.Equal(t, 2, Streak(dates, day(t, "2026-08-30")))
}

func TestStreakBrokenByGap(t *testing.T) {
	dates := map[string]bool{
		"2026-08-25": true,
		"2026-08-26": true,
	}
	assert.Equal(t, 0, Streak(dates, day(t, "2026-08-30")))
}

func TestStreakGapInsideRun(t *testing.T) {
	dates := map[string]bool{
		"2026-08-26": true,
		// 27th missing
		"2026-08-28": true,
		"2026-08-29": true,
		"2026-08-30": true,
	}
	assert.Equal(t, 3, Streak(dates, day(t, "2026-08-30")))
}

func TestStreakEmpty(t *testing.T) {
	assert.Equal(t, 0, Streak(nil, day(t, "2026-08-30")))
	assert.Equal(t, 0, Streak(map[string]bool{}, day(t, "2026-08-30")))
}

func TestLongestStreak(t *testing.T) {
	dates := map[string]bool{
		"2026-08-01": true,
		"2026-08-02": true,
		"2026-08-03": true,
		"2026-08-04": true,
		"2026-08-10": true,
		"2026-08-11": true,
	}
	assert.Equal(t, 4, LongestStreak(dates))
	assert.Equal(t, 0, LongestStreak(nil))
}
