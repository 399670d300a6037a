package services

import (
	"sort"
	"time"

	"focusFlowAPI/internal/types/streak"
)

// dayKey buckets a timestamp into its UTC calendar day. All streak math
// uses UTC days; callers that want local-day semantics must normalize
// timestamps to local midnight before handing them to the engine.
func dayKey(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// BucketActiveDays collapses raw session timestamps into a sorted set of
// distinct calendar days. Multiple sessions on the same day count once.
func BucketActiveDays(times []time.Time) []time.Time {
	seen := make(map[time.Time]struct{}, len(times))
	days := make([]time.Time, 0, len(times))
	for _, t := range times {
		d := dayKey(t)
		if _, ok := seen[d]; ok {
			continue
		}
		seen[d] = struct{}{}
		days = append(days, d)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })
	return days
}

// CalculateStreakStats derives the full streak view from a set of active
// days and a reference "today". The current streak is the unbroken run of
// active days ending at today or yesterday: a user who logged yesterday
// but not yet today still has a live streak, flagged as at risk.
func CalculateStreakStats(activeDays []time.Time, today time.Time) streak.Stats {
	stats := streak.Stats{NextMilestone: NextMilestone(0)}
	if len(activeDays) == 0 {
		return stats
	}

	active := make(map[time.Time]struct{}, len(activeDays))
	var lastActive time.Time
	for _, d := range activeDays {
		d = dayKey(d)
		active[d] = struct{}{}
		if d.After(lastActive) {
			lastActive = d
		}
	}

	// Walk backward from today. Today itself may be inactive without
	// breaking the streak; any older gap ends it. Capped at one year.
	day := dayKey(today)
	if _, ok := active[day]; !ok {
		day = day.AddDate(0, 0, -1)
	}
	for i := 0; i < streak.HistoryLimit; i++ {
		if _, ok := active[day]; !ok {
			break
		}
		stats.CurrentStreak++
		day = day.AddDate(0, 0, -1)
	}

	stats.LongestStreak = longestRun(activeDays)
	stats.TotalStreakDays = len(active)
	stats.LastActivityDate = &lastActive
	stats.StreakAtRisk = stats.CurrentStreak > 0 && !lastActive.Equal(dayKey(today))
	stats.NextMilestone = NextMilestone(stats.CurrentStreak)
	return stats
}

// longestRun scans the day set once and returns the longest chain of
// consecutive calendar days.
func longestRun(activeDays []time.Time) int {
	days := BucketActiveDays(activeDays)
	if len(days) == 0 {
		return 0
	}
	longest, run := 1, 1
	for i := 1; i < len(days); i++ {
		if days[i-1].AddDate(0, 0, 1).Equal(days[i]) {
			run++
		} else {
			run = 1
		}
		if run > longest {
			longest = run
		}
	}
	return longest
}

// NextMilestone returns the smallest milestone strictly above current,
// or the top rung once the ladder is exhausted.
func NextMilestone(current int) int {
	for _, m := range streak.Milestones {
		if m > current {
			return m
		}
	}
	return streak.Milestones[len(streak.Milestones)-1]
}

// mergeHistoryDay records one more session on the given day, keeping the
// history sorted ascending and bounded to the most recent entries. The
// second return reports whether the day is new to the history, so the
// caller can keep lifetime counters that outlive truncation.
func mergeHistoryDay(history []streak.DayEntry, day time.Time) ([]streak.DayEntry, bool) {
	day = dayKey(day)
	for i := range history {
		if dayKey(history[i].Date).Equal(day) {
			history[i].SessionCount++
			history[i].HasActivity = true
			return history, false
		}
	}
	history = append(history, streak.DayEntry{Date: day, SessionCount: 1, HasActivity: true})
	sort.Slice(history, func(i, j int) bool { return history[i].Date.Before(history[j].Date) })
	if len(history) > streak.HistoryLimit {
		history = history[len(history)-streak.HistoryLimit:]
	}
	return history, true
}

// historyDays extracts the active days out of a stored history.
func historyDays(history []streak.DayEntry) []time.Time {
	days := make([]time.Time, 0, len(history))
	for _, e := range history {
		if e.HasActivity {
			days = append(days, dayKey(e.Date))
		}
	}
	return days
}
