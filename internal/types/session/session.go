package session

import (
	"time"

	"github.com/google/uuid"
)

// Session is a completed work session from the activity log. The engine
// only ever reads these; creation and editing belong to the session CRUD
// subsystem.
type Session struct {
	ID              uuid.UUID `json:"id" db:"id"`
	UserID          uuid.UUID `json:"user_id" db:"user_id"`
	ActivityID      uuid.UUID `json:"activity_id" db:"activity_id"`
	StartTime       time.Time `json:"start_time" db:"start_time"`
	DurationSeconds int       `json:"duration_seconds" db:"duration_seconds"`

	// EffortScore is the derived speed/efficiency metric used by
	// fastest-effort challenges, lower is better. Nil when the session
	// type has no such metric.
	EffortScore *float64 `json:"effort_score,omitempty" db:"effort_score"`
}
