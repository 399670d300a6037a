package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"focusFlowAPI/internal/types/streak"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type StreakService struct {
	db *pgxpool.Pool
}

func NewStreakService(db *pgxpool.Pool) *StreakService {
	return &StreakService{db: db}
}

// ComputeStreak returns the user's streak stats as of the given day.
// A user with no streak record yet gets the zero-value stats, not an
// error; that is the normal state for a brand-new account.
func (s *StreakService) ComputeStreak(ctx context.Context, userID uuid.UUID, asOf time.Time) (*streak.Stats, error) {
	rec, err := s.getStreak(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			stats := CalculateStreakStats(nil, asOf)
			return &stats, nil
		}
		return nil, fmt.Errorf("failed to get streak record: %w", err)
	}

	stats := CalculateStreakStats(historyDays(rec.DailyHistory), asOf)
	// The stored longest survives history truncation; the recomputed one
	// only sees the retained window.
	if rec.LongestStreak > stats.LongestStreak {
		stats.LongestStreak = rec.LongestStreak
	}
	if rec.TotalStreakDays > stats.TotalStreakDays {
		stats.TotalStreakDays = rec.TotalStreakDays
	}
	return &stats, nil
}

// GetStreakForViewer is the read used by profile views of other users.
// Private or missing streaks degrade to the zero-value stats so that
// viewing someone's profile never errors out.
func (s *StreakService) GetStreakForViewer(ctx context.Context, ownerID, viewerID uuid.UUID, asOf time.Time) (*streak.Stats, error) {
	if viewerID == ownerID {
		return s.ComputeStreak(ctx, ownerID, asOf)
	}

	rec, err := s.getStreak(ctx, ownerID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			stats := CalculateStreakStats(nil, asOf)
			return &stats, nil
		}
		return nil, fmt.Errorf("failed to get streak record: %w", err)
	}
	if !rec.IsPublic {
		stats := CalculateStreakStats(nil, asOf)
		return &stats, nil
	}

	stats := CalculateStreakStats(historyDays(rec.DailyHistory), asOf)
	if rec.LongestStreak > stats.LongestStreak {
		stats.LongestStreak = rec.LongestStreak
	}
	if rec.TotalStreakDays > stats.TotalStreakDays {
		stats.TotalStreakDays = rec.TotalStreakDays
	}
	return &stats, nil
}

// RecordSessionForStreak folds one completed session's day into the
// user's streak record. The read-modify-write runs inside a single
// transaction with the row locked, so concurrent session completions for
// the same user cannot lose updates.
func (s *StreakService) RecordSessionForStreak(ctx context.Context, userID uuid.UUID, sessionDate, now time.Time) (*streak.Streak, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	// Lazy-create the row so the FOR UPDATE below always has something
	// to lock.
	_, err = tx.Exec(ctx, `
		INSERT INTO streaks (user_id, daily_history, created_at, updated_at)
		VALUES ($1, '[]', $2, $2)
		ON CONFLICT (user_id) DO NOTHING
	`, userID, now)
	if err != nil {
		return nil, fmt.Errorf("failed to ensure streak record: %w", err)
	}

	rec := &streak.Streak{UserID: userID}
	var historyJSON []byte
	err = tx.QueryRow(ctx, `
		SELECT current_streak, longest_streak, total_streak_days, last_activity_date, daily_history, is_public, created_at, updated_at
		FROM streaks
		WHERE user_id = $1
		FOR UPDATE
	`, userID).Scan(
		&rec.CurrentStreak,
		&rec.LongestStreak,
		&rec.TotalStreakDays,
		&rec.LastActivityDate,
		&historyJSON,
		&rec.IsPublic,
		&rec.CreatedAt,
		&rec.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to lock streak record: %w", err)
	}
	if err := json.Unmarshal(historyJSON, &rec.DailyHistory); err != nil {
		return nil, fmt.Errorf("failed to decode daily history: %w", err)
	}

	var newDay bool
	rec.DailyHistory, newDay = mergeHistoryDay(rec.DailyHistory, sessionDate)
	stats := CalculateStreakStats(historyDays(rec.DailyHistory), now)

	rec.CurrentStreak = stats.CurrentStreak
	if stats.LongestStreak > rec.LongestStreak {
		rec.LongestStreak = stats.LongestStreak
	}
	// Like the longest streak, the lifetime day count must survive
	// history truncation, so it is incremented rather than recomputed.
	if newDay {
		rec.TotalStreakDays++
	}
	if stats.TotalStreakDays > rec.TotalStreakDays {
		rec.TotalStreakDays = stats.TotalStreakDays
	}
	rec.LastActivityDate = stats.LastActivityDate
	rec.UpdatedAt = now

	historyJSON, err = json.Marshal(rec.DailyHistory)
	if err != nil {
		return nil, fmt.Errorf("failed to encode daily history: %w", err)
	}

	_, err = tx.Exec(ctx, `
		UPDATE streaks
		SET current_streak = $1, longest_streak = $2, total_streak_days = $3,
		    last_activity_date = $4, daily_history = $5, updated_at = $6
		WHERE user_id = $7
	`, rec.CurrentStreak, rec.LongestStreak, rec.TotalStreakDays,
		rec.LastActivityDate, historyJSON, rec.UpdatedAt, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to update streak record: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit streak update: %w", err)
	}

	return rec, nil
}

// ToggleStreakVisibility flips is_public on the caller's own streak.
// Only the owner may do this.
func (s *StreakService) ToggleStreakVisibility(ctx context.Context, userID, actingUserID uuid.UUID, now time.Time) (bool, error) {
	if actingUserID != userID {
		return false, streak.ErrUnauthorized
	}

	_, err := s.db.Exec(ctx, `
		INSERT INTO streaks (user_id, daily_history, created_at, updated_at)
		VALUES ($1, '[]', $2, $2)
		ON CONFLICT (user_id) DO NOTHING
	`, userID, now)
	if err != nil {
		return false, fmt.Errorf("failed to ensure streak record: %w", err)
	}

	var isPublic bool
	err = s.db.QueryRow(ctx, `
		UPDATE streaks
		SET is_public = NOT is_public, updated_at = $1
		WHERE user_id = $2
		RETURNING is_public
	`, now, userID).Scan(&isPublic)
	if err != nil {
		return false, fmt.Errorf("failed to toggle streak visibility: %w", err)
	}

	return isPublic, nil
}

func (s *StreakService) getStreak(ctx context.Context, userID uuid.UUID) (*streak.Streak, error) {
	rec := &streak.Streak{UserID: userID}
	var historyJSON []byte
	err := s.db.QueryRow(ctx, `
		SELECT current_streak, longest_streak, total_streak_days, last_activity_date, daily_history, is_public, created_at, updated_at
		FROM streaks
		WHERE user_id = $1
	`, userID).Scan(
		&rec.CurrentStreak,
		&rec.LongestStreak,
		&rec.TotalStreakDays,
		&rec.LastActivityDate,
		&historyJSON,
		&rec.IsPublic,
		&rec.CreatedAt,
		&rec.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(historyJSON, &rec.DailyHistory); err != nil {
		return nil, fmt.Errorf("failed to decode daily history: %w", err)
	}
	return rec, nil
}
