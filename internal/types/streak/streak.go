package streak

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// HistoryLimit bounds DailyHistory to the most recent year of entries.
const HistoryLimit = 365

// Milestones is the fixed milestone ladder. A streak at or past the last
// rung stays at 1000.
var Milestones = []int{7, 30, 100, 365, 500, 1000}

// ErrUnauthorized is returned when someone other than the owner tries to
// change a streak's visibility.
var ErrUnauthorized = errors.New("streak can only be modified by its owner")

// DayEntry is one calendar day in a user's activity history.
type DayEntry struct {
	Date         time.Time `json:"date"`
	SessionCount int       `json:"session_count"`
	HasActivity  bool      `json:"has_activity"`
}

// Streak is the persisted per-user streak snapshot. Created lazily on
// first write, never deleted.
type Streak struct {
	UserID           uuid.UUID  `json:"user_id" db:"user_id"`
	CurrentStreak    int        `json:"current_streak" db:"current_streak"`
	LongestStreak    int        `json:"longest_streak" db:"longest_streak"`
	TotalStreakDays  int        `json:"total_streak_days" db:"total_streak_days"`
	LastActivityDate *time.Time `json:"last_activity_date" db:"last_activity_date"`
	DailyHistory     []DayEntry `json:"daily_history" db:"daily_history"`
	IsPublic         bool       `json:"is_public" db:"is_public"`
	CreatedAt        time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at" db:"updated_at"`
}

// Stats is the computed view of a streak as of a reference day.
type Stats struct {
	CurrentStreak    int        `json:"current_streak"`
	LongestStreak    int        `json:"longest_streak"`
	TotalStreakDays  int        `json:"total_streak_days"`
	LastActivityDate *time.Time `json:"last_activity_date,omitempty"`
	StreakAtRisk     bool       `json:"streak_at_risk"`
	NextMilestone    int        `json:"next_milestone"`
}
