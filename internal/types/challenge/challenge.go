package challenge

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

type Type string

const (
	TypeCumulativeActivity Type = "cumulative_activity"
	TypeFastestEffort      Type = "fastest_effort"
	TypeLongestSession     Type = "longest_session"
	TypeGroupGoal          Type = "group_goal"
)

// ValidType reports whether t is one of the supported challenge types.
func ValidType(t Type) bool {
	switch t {
	case TypeCumulativeActivity, TypeFastestEffort, TypeLongestSession, TypeGroupGoal:
		return true
	}
	return false
}

var (
	ErrNotFound     = errors.New("challenge not found")
	ErrUnauthorized = errors.New("challenge can only be modified by its creator")
)

// Challenge is immutable after creation except for IsActive.
type Challenge struct {
	ID          uuid.UUID  `json:"id" db:"id"`
	Type        Type       `json:"type" db:"type"`
	Name        string     `json:"name" db:"name"`
	Description string     `json:"description" db:"description"`
	StartDate   time.Time  `json:"start_date" db:"start_date"`
	EndDate     time.Time  `json:"end_date" db:"end_date"`
	GoalValue   *float64   `json:"goal_value,omitempty" db:"goal_value"`
	GroupID     *uuid.UUID `json:"group_id,omitempty" db:"group_id"`
	IsActive    bool       `json:"is_active" db:"is_active"`
	CreatedBy   uuid.UUID  `json:"created_by" db:"created_by"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
}

// Participant is one user's progress on one challenge, keyed by the
// (challenge_id, user_id) pair. Progress units depend on the challenge
// type: hours for cumulative_activity and group_goal, seconds for
// longest_session, the caller's score unit for fastest_effort.
type Participant struct {
	ChallengeID uuid.UUID  `json:"challenge_id" db:"challenge_id"`
	UserID      uuid.UUID  `json:"user_id" db:"user_id"`
	Progress    float64    `json:"progress" db:"progress"`
	IsCompleted bool       `json:"is_completed" db:"is_completed"`
	CompletedAt *time.Time `json:"completed_at,omitempty" db:"completed_at"`
	JoinedAt    time.Time  `json:"joined_at" db:"joined_at"`
}

type CreateRequest struct {
	Type        Type       `json:"type"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	StartDate   time.Time  `json:"start_date"`
	EndDate     time.Time  `json:"end_date"`
	GoalValue   *float64   `json:"goal_value,omitempty"`
	GroupID     *uuid.UUID `json:"group_id,omitempty"`
}

type OutcomeStatus string

const (
	OutcomeApplied OutcomeStatus = "applied"
	OutcomeSkipped OutcomeStatus = "skipped"
	OutcomeFailed  OutcomeStatus = "failed"
)

type SkipReason string

const (
	SkipInactive      SkipReason = "inactive"
	SkipOutOfWindow   SkipReason = "out_of_window"
	SkipNotImproved   SkipReason = "not_improved"
	SkipNoEffortScore SkipReason = "no_effort_score"
	SkipDuplicate     SkipReason = "duplicate_session"
)

// ProgressOutcome is the per-challenge result of applying one session.
// Progress updates are fire-and-forget from the session pipeline's point
// of view, so failures land here instead of propagating as errors.
type ProgressOutcome struct {
	ChallengeID uuid.UUID     `json:"challenge_id"`
	Status      OutcomeStatus `json:"status"`
	Reason      SkipReason    `json:"reason,omitempty"`
	Progress    float64       `json:"progress,omitempty"`
	Completed   bool          `json:"completed,omitempty"`
	Error       string        `json:"error,omitempty"`
}
