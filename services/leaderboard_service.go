package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"

	"focusFlowAPI/internal/types/challenge"
	"focusFlowAPI/internal/types/leaderboard"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type LeaderboardService struct {
	db *pgxpool.Pool
}

func NewLeaderboardService(db *pgxpool.Pool) *LeaderboardService {
	return &LeaderboardService{db: db}
}

// GetLeaderboard ranks every participant of a challenge. The board is
// computed on read, not maintained on write. Participants whose user
// record cannot be resolved are dropped; one bad row never takes down
// the whole board.
func (s *LeaderboardService) GetLeaderboard(ctx context.Context, challengeID uuid.UUID) (*leaderboard.Leaderboard, error) {
	var chType challenge.Type
	err := s.db.QueryRow(ctx, `SELECT type FROM challenges WHERE id = $1`, challengeID).Scan(&chType)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, challenge.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get challenge: %w", err)
	}

	rows, err := s.db.Query(ctx, `
		SELECT cp.user_id, u.username, u.image_url, cp.progress, cp.is_completed, cp.completed_at
		FROM challenge_participants cp
		LEFT JOIN users u ON u.id = cp.user_id
		WHERE cp.challenge_id = $1
	`, challengeID)
	if err != nil {
		return nil, fmt.Errorf("failed to query participants: %w", err)
	}
	defer rows.Close()

	board := &leaderboard.Leaderboard{ChallengeID: challengeID, Entries: []*leaderboard.Entry{}}
	var groupTotal float64
	for rows.Next() {
		entry := &leaderboard.Entry{}
		var username *string
		err := rows.Scan(
			&entry.UserID,
			&username,
			&entry.ImageURL,
			&entry.Progress,
			&entry.IsCompleted,
			&entry.CompletedAt,
		)
		if err != nil {
			// Partial-success policy: skip the row, keep the board.
			log.Printf("GetLeaderboard: failed to scan participant for challenge %s: %v", challengeID, err)
			continue
		}
		board.TotalParticipants++
		groupTotal += entry.Progress
		if username == nil {
			// Deleted or missing account: excluded, no placeholder.
			continue
		}
		entry.Username = *username
		board.Entries = append(board.Entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read participants: %w", err)
	}

	rankEntries(board.Entries, chType == challenge.TypeFastestEffort)
	if chType == challenge.TypeGroupGoal {
		board.GroupTotal = &groupTotal
	}
	return board, nil
}

// rankEntries sorts in place and assigns dense competition ranks: tied
// progress shares a rank and the next distinct value gets rank 1 + the
// number of strictly better entries (1,2,2,4 style). For fastest-effort
// boards lower scores win and zero means no attempt yet, so zeros sort
// last.
func rankEntries(entries []*leaderboard.Entry, lowerIsBetter bool) {
	sort.SliceStable(entries, func(i, j int) bool {
		if lowerIsBetter {
			if entries[i].Progress == 0 {
				return false
			}
			if entries[j].Progress == 0 {
				return true
			}
			return entries[i].Progress < entries[j].Progress
		}
		return entries[i].Progress > entries[j].Progress
	})

	for i, entry := range entries {
		if i > 0 && entry.Progress == entries[i-1].Progress {
			entry.Rank = entries[i-1].Rank
		} else {
			entry.Rank = i + 1
		}
	}
}
