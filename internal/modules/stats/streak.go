package stats

import "time"

const dateLayout = "2006-01-02"

// Streak computes the length of the consecutive run of writing days ending
// today or yesterday, given the set of distinct local dates (YYYY-MM-DD) the
// user responded on. A run that ended before yesterday counts as 0.
func Streak(dates map[string]bool, now time.Time) int {
	if len(dates) == 0 {
		return 0
	}

	day := now
	today := day.Format(dateLayout)
	if !dates[today] {
		// Streak survives until the end of today; start counting from yesterday.
		day = day.AddDate(0, 0, -1)
		if !dates[day.Format(dateLayout)] {
			return 0
		}
	}

	streak := 0
	for dates[day.Format(dateLayout)] {
		streak++
		day = day.AddDate(0, 0, -1)
	}
	return streak
}

// LongestStreak returns the longest consecutive run anywhere in the history.
func LongestStreak(dates map[string]bool) int {
	longest := 0
	for d := range dates {
		start, err := time.Parse(dateLayout, d)
		if err != nil {
			continue
		}
		// Only count from the beginning of a run.
		if dates[start.AddDate(0, 0, -1).Format(dateLayout)] {
			continue
		}
		length := 0
		day := start
		for dates[day.Format(dateLayout)] {
			length++
			day = day.AddDate(0, 0, 1)
		}
		if length > longest {
			longest = length
		}
	}
	return longest
}
