package services

import (
	"testing"
	"time"

	"focusFlowAPI/internal/types/streak"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestCalculateStreakStats_NoSessions(t *testing.T) {
	stats := CalculateStreakStats(nil, day(2026, 8, 25))

	assert.Equal(t, 0, stats.CurrentStreak)
	assert.Equal(t, 0, stats.LongestStreak)
	assert.Equal(t, 0, stats.TotalStreakDays)
	assert.Nil(t, stats.LastActivityDate)
	assert.False(t, stats.StreakAtRisk)
	assert.Equal(t, 7, stats.NextMilestone)
}

func TestCalculateStreakStats_ThreeDayRunEndingToday(t *testing.T) {
	today := day(2026, 8, 25)
	days := []time.Time{
		today,
		today.AddDate(0, 0, -1),
		today.AddDate(0, 0, -2),
		// gap
		today.AddDate(0, 0, -5),
	}

	stats := CalculateStreakStats(days, today)

	assert.Equal(t, 3, stats.CurrentStreak)
	assert.False(t, stats.StreakAtRisk)
	assert.Equal(t, 4, stats.TotalStreakDays)
	require.NotNil(t, stats.LastActivityDate)
	assert.True(t, stats.LastActivityDate.Equal(today))
}

func TestCalculateStreakStats_InactiveTodayStillLive(t *testing.T) {
	today := day(2026, 8, 25)
	days := []time.Time{
		today.AddDate(0, 0, -1),
		today.AddDate(0, 0, -2),
	}

	stats := CalculateStreakStats(days, today)

	assert.Equal(t, 2, stats.CurrentStreak)
	assert.True(t, stats.StreakAtRisk, "must act today or the streak breaks at midnight")
}

func TestCalculateStreakStats_GapBeforeYesterdayBreaks(t *testing.T) {
	today := day(2026, 8, 25)
	days := []time.Time{
		today,
		// yesterday missing
		today.AddDate(0, 0, -2),
		today.AddDate(0, 0, -3),
	}

	stats := CalculateStreakStats(days, today)

	assert.Equal(t, 1, stats.CurrentStreak)
	assert.Equal(t, 2, stats.LongestStreak)
}

func TestCalculateStreakStats_TwoDayOldGapIsDead(t *testing.T) {
	today := day(2026, 8, 25)
	days := []time.Time{
		today.AddDate(0, 0, -2),
		today.AddDate(0, 0, -3),
	}

	stats := CalculateStreakStats(days, today)

	assert.Equal(t, 0, stats.CurrentStreak)
	assert.False(t, stats.StreakAtRisk)
	assert.Equal(t, 2, stats.LongestStreak)
}

func TestCalculateStreakStats_MultipleSessionsSameDayCountOnce(t *testing.T) {
	today := day(2026, 8, 25)
	times := []time.Time{
		today.Add(8 * time.Hour),
		today.Add(13 * time.Hour),
		today.Add(22 * time.Hour),
	}

	stats := CalculateStreakStats(times, today)

	assert.Equal(t, 1, stats.CurrentStreak)
	assert.Equal(t, 1, stats.TotalStreakDays)
}

func TestCalculateStreakStats_LongestSurvivesRestart(t *testing.T) {
	today := day(2026, 8, 25)
	var days []time.Time
	// five-day run ending three weeks ago
	for i := 0; i < 5; i++ {
		days = append(days, today.AddDate(0, 0, -21-i))
	}
	// fresh two-day run
	days = append(days, today, today.AddDate(0, 0, -1))

	stats := CalculateStreakStats(days, today)

	assert.Equal(t, 2, stats.CurrentStreak)
	assert.Equal(t, 5, stats.LongestStreak)
	assert.Equal(t, 7, stats.TotalStreakDays)
}

func TestCalculateStreakStats_LongestNeverBelowCurrent(t *testing.T) {
	today := day(2026, 8, 25)
	for runLen := 1; runLen <= 20; runLen++ {
		var days []time.Time
		for i := 0; i < runLen; i++ {
			days = append(days, today.AddDate(0, 0, -i))
		}
		stats := CalculateStreakStats(days, today)
		assert.GreaterOrEqual(t, stats.LongestStreak, stats.CurrentStreak, "run length %d", runLen)
	}
}

func TestNextMilestone(t *testing.T) {
	cases := []struct {
		current int
		want    int
	}{
		{0, 7},
		{6, 7},
		{7, 30},
		{29, 30},
		{99, 100},
		{364, 365},
		{999, 1000},
		{1000, 1000},
		{2500, 1000},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, NextMilestone(tc.current), "current %d", tc.current)
	}
}

func TestBucketActiveDays_SortedAndDeduped(t *testing.T) {
	d1 := day(2026, 8, 20)
	d2 := day(2026, 8, 22)
	times := []time.Time{
		d2.Add(9 * time.Hour),
		d1.Add(18 * time.Hour),
		d1.Add(7 * time.Hour),
	}

	days := BucketActiveDays(times)

	require.Len(t, days, 2)
	assert.True(t, days[0].Equal(d1))
	assert.True(t, days[1].Equal(d2))
}

func TestMergeHistoryDay_BoundedToLimit(t *testing.T) {
	var history []streak.DayEntry
	start := day(2024, 1, 1)
	totalDays := 0
	for i := 0; i < streak.HistoryLimit+40; i++ {
		var newDay bool
		history, newDay = mergeHistoryDay(history, start.AddDate(0, 0, i))
		if newDay {
			totalDays++
		}
	}

	require.Len(t, history, streak.HistoryLimit)
	// oldest entries were evicted, newest kept
	assert.True(t, history[len(history)-1].Date.Equal(start.AddDate(0, 0, streak.HistoryLimit+39)))
	// the lifetime counter fed by the newDay flag keeps counting past
	// the truncation horizon
	assert.Equal(t, streak.HistoryLimit+40, totalDays)
}

func TestMergeHistoryDay_SameDayIncrementsCount(t *testing.T) {
	d := day(2026, 8, 25)
	history, newDay := mergeHistoryDay(nil, d.Add(9*time.Hour))
	assert.True(t, newDay)
	history, newDay = mergeHistoryDay(history, d.Add(15*time.Hour))
	assert.False(t, newDay, "a repeat day must not inflate lifetime counters")

	require.Len(t, history, 1)
	assert.Equal(t, 2, history[0].SessionCount)
	assert.True(t, history[0].HasActivity)
}
