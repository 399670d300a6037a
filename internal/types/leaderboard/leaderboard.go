package leaderboard

import (
	"time"

	"github.com/google/uuid"
)

type Entry struct {
	Rank        int        `json:"rank"`
	UserID      uuid.UUID  `json:"user_id" db:"user_id"`
	Username    string     `json:"username" db:"username"`
	ImageURL    *string    `json:"image_url,omitempty" db:"image_url"`
	Progress    float64    `json:"progress" db:"progress"`
	IsCompleted bool       `json:"is_completed" db:"is_completed"`
	CompletedAt *time.Time `json:"completed_at,omitempty" db:"completed_at"`
}

type Leaderboard struct {
	ChallengeID       uuid.UUID `json:"challenge_id"`
	Entries           []*Entry  `json:"entries"`
	TotalParticipants int       `json:"total_participants"`

	// GroupTotal is the summed contribution of every participant.
	// Only set for group_goal challenges.
	GroupTotal *float64 `json:"group_total,omitempty"`
}
