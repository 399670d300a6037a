package services

import (
	"testing"
	"time"

	"focusFlowAPI/internal/types/challenge"
	"focusFlowAPI/internal/types/session"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func sessionOf(durationSeconds int) *session.Session {
	return &session.Session{
		ID:              uuid.New(),
		UserID:          uuid.New(),
		ActivityID:      uuid.New(),
		StartTime:       time.Date(2026, 8, 25, 10, 0, 0, 0, time.UTC),
		DurationSeconds: durationSeconds,
	}
}

func TestEvaluateSession_CumulativeSumsNotMax(t *testing.T) {
	progress, improved, _ := evaluateSession(challenge.TypeCumulativeActivity, 0, sessionOf(3600))
	assert.True(t, improved)
	assert.InDelta(t, 1.0, progress, 1e-9)

	progress, improved, _ = evaluateSession(challenge.TypeCumulativeActivity, progress, sessionOf(1800))
	assert.True(t, improved)
	assert.InDelta(t, 1.5, progress, 1e-9, "3600s + 1800s must sum, not max")
}

func TestEvaluateSession_GroupGoalAccumulatesContribution(t *testing.T) {
	progress, improved, _ := evaluateSession(challenge.TypeGroupGoal, 2.5, sessionOf(7200))
	assert.True(t, improved)
	assert.InDelta(t, 4.5, progress, 1e-9)
}

func TestEvaluateSession_LongestSessionOnlyImproves(t *testing.T) {
	// shorter: no write
	progress, improved, reason := evaluateSession(challenge.TypeLongestSession, 3600, sessionOf(3599))
	assert.False(t, improved)
	assert.Equal(t, challenge.SkipNotImproved, reason)
	assert.InDelta(t, 3600, progress, 1e-9)

	// tie: still no write
	_, improved, reason = evaluateSession(challenge.TypeLongestSession, 3600, sessionOf(3600))
	assert.False(t, improved)
	assert.Equal(t, challenge.SkipNotImproved, reason)

	// longer: improves
	progress, improved, _ = evaluateSession(challenge.TypeLongestSession, 3600, sessionOf(3601))
	assert.True(t, improved)
	assert.InDelta(t, 3601, progress, 1e-9)
}

func TestEvaluateSession_FastestEffortLowerWins(t *testing.T) {
	sess := sessionOf(1800)

	// no metric on the session at all
	_, improved, reason := evaluateSession(challenge.TypeFastestEffort, 5.0, sess)
	assert.False(t, improved)
	assert.Equal(t, challenge.SkipNoEffortScore, reason)

	score := 5.2
	sess.EffortScore = &score

	// first attempt always records
	progress, improved, _ := evaluateSession(challenge.TypeFastestEffort, 0, sess)
	assert.True(t, improved)
	assert.InDelta(t, 5.2, progress, 1e-9)

	// worse score: no write
	worse := 6.0
	sess.EffortScore = &worse
	_, improved, reason = evaluateSession(challenge.TypeFastestEffort, 5.2, sess)
	assert.False(t, improved)
	assert.Equal(t, challenge.SkipNotImproved, reason)

	// better score: improves
	better := 4.1
	sess.EffortScore = &better
	progress, improved, _ = evaluateSession(challenge.TypeFastestEffort, 5.2, sess)
	assert.True(t, improved)
	assert.InDelta(t, 4.1, progress, 1e-9)
}

func TestGoalReached_DirectionPerType(t *testing.T) {
	// floor for accumulating types
	assert.True(t, goalReached(challenge.TypeCumulativeActivity, 100.5, 100))
	assert.False(t, goalReached(challenge.TypeCumulativeActivity, 99.5, 100))
	assert.True(t, goalReached(challenge.TypeLongestSession, 7200, 7200))
	assert.True(t, goalReached(challenge.TypeGroupGoal, 500, 500))

	// ceiling for fastest-effort: a worse-than-goal first score must not
	// flip completion
	assert.False(t, goalReached(challenge.TypeFastestEffort, 5.2, 4.0))
	assert.True(t, goalReached(challenge.TypeFastestEffort, 4.0, 4.0))
	assert.True(t, goalReached(challenge.TypeFastestEffort, 3.1, 4.0))
}

func TestWithinWindow(t *testing.T) {
	ch := &challenge.Challenge{
		StartDate: time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2026, 8, 31, 23, 59, 59, 0, time.UTC),
	}

	assert.True(t, withinWindow(ch, ch.StartDate), "start boundary is inclusive")
	assert.True(t, withinWindow(ch, ch.EndDate), "end boundary is inclusive")
	assert.True(t, withinWindow(ch, time.Date(2026, 8, 15, 12, 0, 0, 0, time.UTC)))
	assert.False(t, withinWindow(ch, ch.StartDate.Add(-time.Second)))
	assert.False(t, withinWindow(ch, ch.EndDate.AddDate(0, 0, 1)), "one day past the end must not count")
}
