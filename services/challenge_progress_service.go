package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"focusFlowAPI/internal/types/challenge"
	"focusFlowAPI/internal/types/session"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ChallengeProgressService struct {
	db *pgxpool.Pool
}

func NewChallengeProgressService(db *pgxpool.Pool) *ChallengeProgressService {
	return &ChallengeProgressService{db: db}
}

// ApplyChallengeProgress applies one completed session to every challenge
// the session's user participates in. It never returns an error: each
// challenge gets its own outcome (applied, skipped with a reason, or
// failed) so that session creation is never blocked by gamification side
// effects while failures stay visible to the caller.
func (s *ChallengeProgressService) ApplyChallengeProgress(ctx context.Context, sess *session.Session, now time.Time) []challenge.ProgressOutcome {
	challenges, err := s.participantChallenges(ctx, sess.UserID)
	if err != nil {
		log.Printf("ApplyChallengeProgress: failed to load participations for user %s: %v", sess.UserID, err)
		return []challenge.ProgressOutcome{{
			Status: challenge.OutcomeFailed,
			Error:  err.Error(),
		}}
	}

	outcomes := make([]challenge.ProgressOutcome, 0, len(challenges))
	for _, ch := range challenges {
		outcome := s.applyToChallenge(ctx, ch, sess, now)
		if outcome.Status == challenge.OutcomeFailed {
			log.Printf("ApplyChallengeProgress: challenge %s session %s: %s", ch.ID, sess.ID, outcome.Error)
		}
		outcomes = append(outcomes, outcome)
	}
	return outcomes
}

func (s *ChallengeProgressService) applyToChallenge(ctx context.Context, ch *challenge.Challenge, sess *session.Session, now time.Time) challenge.ProgressOutcome {
	outcome := challenge.ProgressOutcome{ChallengeID: ch.ID}

	if !ch.IsActive {
		outcome.Status = challenge.OutcomeSkipped
		outcome.Reason = challenge.SkipInactive
		return outcome
	}
	if !withinWindow(ch, sess.StartTime) {
		outcome.Status = challenge.OutcomeSkipped
		outcome.Reason = challenge.SkipOutOfWindow
		return outcome
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		outcome.Status = challenge.OutcomeFailed
		outcome.Error = fmt.Sprintf("failed to begin transaction: %v", err)
		return outcome
	}
	defer tx.Rollback(ctx)

	// Idempotency ledger: a session may only ever count once per
	// challenge, even across client retries. The insert rides in the
	// same transaction as the progress write.
	tag, err := tx.Exec(ctx, `
		INSERT INTO challenge_session_log (challenge_id, session_id, applied_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (challenge_id, session_id) DO NOTHING
	`, ch.ID, sess.ID, now)
	if err != nil {
		outcome.Status = challenge.OutcomeFailed
		outcome.Error = fmt.Sprintf("failed to record session: %v", err)
		return outcome
	}
	if tag.RowsAffected() == 0 {
		outcome.Status = challenge.OutcomeSkipped
		outcome.Reason = challenge.SkipDuplicate
		return outcome
	}

	var current float64
	var isCompleted bool
	err = tx.QueryRow(ctx, `
		SELECT progress, is_completed
		FROM challenge_participants
		WHERE challenge_id = $1 AND user_id = $2
		FOR UPDATE
	`, ch.ID, sess.UserID).Scan(&current, &isCompleted)
	if err != nil {
		outcome.Status = challenge.OutcomeFailed
		outcome.Error = fmt.Sprintf("failed to lock participant row: %v", err)
		return outcome
	}

	newProgress, improved, reason := evaluateSession(ch.Type, current, sess)
	if !improved {
		// Rolling back also discards the session-log insert, so an
		// unimproved session produces no write at all.
		outcome.Status = challenge.OutcomeSkipped
		outcome.Reason = reason
		return outcome
	}

	completed := isCompleted
	var completedAt *time.Time
	if ch.GoalValue != nil && !isCompleted {
		target := newProgress
		if ch.Type == challenge.TypeGroupGoal {
			target, err = s.groupAggregate(ctx, tx, ch.ID, sess.UserID, newProgress)
			if err != nil {
				outcome.Status = challenge.OutcomeFailed
				outcome.Error = fmt.Sprintf("failed to compute group aggregate: %v", err)
				return outcome
			}
		}
		if goalReached(ch.Type, target, *ch.GoalValue) {
			completed = true
			completedAt = &now
		}
	}

	if completedAt != nil {
		_, err = tx.Exec(ctx, `
			UPDATE challenge_participants
			SET progress = $1, is_completed = TRUE, completed_at = $2
			WHERE challenge_id = $3 AND user_id = $4
		`, newProgress, *completedAt, ch.ID, sess.UserID)
	} else {
		_, err = tx.Exec(ctx, `
			UPDATE challenge_participants
			SET progress = $1
			WHERE challenge_id = $2 AND user_id = $3
		`, newProgress, ch.ID, sess.UserID)
	}
	if err != nil {
		outcome.Status = challenge.OutcomeFailed
		outcome.Error = fmt.Sprintf("failed to update progress: %v", err)
		return outcome
	}

	if err := tx.Commit(ctx); err != nil {
		outcome.Status = challenge.OutcomeFailed
		outcome.Error = fmt.Sprintf("failed to commit progress update: %v", err)
		return outcome
	}

	outcome.Status = challenge.OutcomeApplied
	outcome.Progress = newProgress
	outcome.Completed = completed
	return outcome
}

// evaluateSession applies the per-type strategy to the stored progress
// value. It reports whether the session improves the stored value; an
// unimproved result must not be written at all.
func evaluateSession(t challenge.Type, current float64, sess *session.Session) (float64, bool, challenge.SkipReason) {
	switch t {
	case challenge.TypeCumulativeActivity, challenge.TypeGroupGoal:
		// Both accumulate the user's own contribution, in hours.
		return current + float64(sess.DurationSeconds)/3600.0, true, ""
	case challenge.TypeLongestSession:
		candidate := float64(sess.DurationSeconds)
		if candidate > current {
			return candidate, true, ""
		}
		return current, false, challenge.SkipNotImproved
	case challenge.TypeFastestEffort:
		if sess.EffortScore == nil {
			return current, false, challenge.SkipNoEffortScore
		}
		// Lower is better; progress 0 means no attempt recorded yet.
		candidate := *sess.EffortScore
		if current == 0 || candidate < current {
			return candidate, true, ""
		}
		return current, false, challenge.SkipNotImproved
	}
	return current, false, challenge.SkipNotImproved
}

// goalReached reports whether target satisfies the challenge goal. For
// fastest-effort the goal is a ceiling: scores at or below it complete.
// Every other type treats the goal as a floor.
func goalReached(t challenge.Type, target, goal float64) bool {
	if t == challenge.TypeFastestEffort {
		return target <= goal
	}
	return target >= goal
}

// withinWindow reports whether the session falls inside the challenge's
// inclusive [start, end] window.
func withinWindow(ch *challenge.Challenge, startTime time.Time) bool {
	return !startTime.Before(ch.StartDate) && !startTime.After(ch.EndDate)
}

// groupAggregate sums the contributions of every participant with the
// pending value substituted for the locked row. Reading the other rows
// without locking them is fine: each row is owned by its own user's
// transactions and a stale read can only understate the total.
func (s *ChallengeProgressService) groupAggregate(ctx context.Context, tx pgx.Tx, challengeID, userID uuid.UUID, pending float64) (float64, error) {
	var others float64
	err := tx.QueryRow(ctx, `
		SELECT COALESCE(SUM(progress), 0)
		FROM challenge_participants
		WHERE challenge_id = $1 AND user_id != $2
	`, challengeID, userID).Scan(&others)
	if err != nil {
		return 0, err
	}
	return others + pending, nil
}

func (s *ChallengeProgressService) participantChallenges(ctx context.Context, userID uuid.UUID) ([]*challenge.Challenge, error) {
	rows, err := s.db.Query(ctx, `
		SELECT c.id, c.type, c.name, c.description, c.start_date, c.end_date,
		       c.goal_value, c.group_id, c.is_active, c.created_by, c.created_at
		FROM challenges c
		INNER JOIN challenge_participants cp ON cp.challenge_id = c.id
		WHERE cp.user_id = $1
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query participations: %w", err)
	}
	defer rows.Close()

	var challenges []*challenge.Challenge
	for rows.Next() {
		ch := &challenge.Challenge{}
		err := rows.Scan(
			&ch.ID,
			&ch.Type,
			&ch.Name,
			&ch.Description,
			&ch.StartDate,
			&ch.EndDate,
			&ch.GoalValue,
			&ch.GroupID,
			&ch.IsActive,
			&ch.CreatedBy,
			&ch.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan challenge: %w", err)
		}
		challenges = append(challenges, ch)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return challenges, nil
}

// CreateChallenge validates and stores a new challenge.
func (s *ChallengeProgressService) CreateChallenge(ctx context.Context, req *challenge.CreateRequest, creatorID uuid.UUID, now time.Time) (*challenge.Challenge, error) {
	if !challenge.ValidType(req.Type) {
		return nil, fmt.Errorf("invalid challenge type %q", req.Type)
	}
	if req.Name == "" {
		return nil, fmt.Errorf("challenge name is required")
	}
	if !req.EndDate.After(req.StartDate) {
		return nil, fmt.Errorf("challenge end date must be after start date")
	}
	if req.Type == challenge.TypeGroupGoal && req.GroupID == nil {
		return nil, fmt.Errorf("group goal challenges require a group")
	}

	ch := &challenge.Challenge{
		ID:          uuid.New(),
		Type:        req.Type,
		Name:        req.Name,
		Description: req.Description,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
		GoalValue:   req.GoalValue,
		GroupID:     req.GroupID,
		IsActive:    true,
		CreatedBy:   creatorID,
		CreatedAt:   now,
	}

	_, err := s.db.Exec(ctx, `
		INSERT INTO challenges (id, type, name, description, start_date, end_date, goal_value, group_id, is_active, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`, ch.ID, ch.Type, ch.Name, ch.Description, ch.StartDate, ch.EndDate,
		ch.GoalValue, ch.GroupID, ch.IsActive, ch.CreatedBy, ch.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create challenge: %w", err)
	}

	return ch, nil
}

// JoinChallenge creates the participant row at zero progress. Joining a
// challenge twice is a no-op.
func (s *ChallengeProgressService) JoinChallenge(ctx context.Context, challengeID, userID uuid.UUID, now time.Time) (*challenge.Participant, error) {
	var isActive bool
	err := s.db.QueryRow(ctx, `SELECT is_active FROM challenges WHERE id = $1`, challengeID).Scan(&isActive)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, challenge.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get challenge: %w", err)
	}
	if !isActive {
		return nil, fmt.Errorf("challenge is no longer active")
	}

	_, err = s.db.Exec(ctx, `
		INSERT INTO challenge_participants (challenge_id, user_id, progress, is_completed, joined_at)
		VALUES ($1, $2, 0, FALSE, $3)
		ON CONFLICT (challenge_id, user_id) DO NOTHING
	`, challengeID, userID, now)
	if err != nil {
		return nil, fmt.Errorf("failed to join challenge: %w", err)
	}

	return s.GetUserProgress(ctx, challengeID, userID)
}

// GetUserProgress returns the participant row, or nil when the user has
// not joined the challenge. Absence is a normal state, not an error.
func (s *ChallengeProgressService) GetUserProgress(ctx context.Context, challengeID, userID uuid.UUID) (*challenge.Participant, error) {
	p := &challenge.Participant{ChallengeID: challengeID, UserID: userID}
	err := s.db.QueryRow(ctx, `
		SELECT progress, is_completed, completed_at, joined_at
		FROM challenge_participants
		WHERE challenge_id = $1 AND user_id = $2
	`, challengeID, userID).Scan(&p.Progress, &p.IsCompleted, &p.CompletedAt, &p.JoinedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get participant progress: %w", err)
	}
	return p, nil
}

// ListActiveChallenges returns challenges that are active and whose
// window contains now.
func (s *ChallengeProgressService) ListActiveChallenges(ctx context.Context, now time.Time) ([]*challenge.Challenge, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, type, name, description, start_date, end_date, goal_value, group_id, is_active, created_by, created_at
		FROM challenges
		WHERE is_active = TRUE AND start_date <= $1 AND end_date >= $1
		ORDER BY end_date ASC
	`, now)
	if err != nil {
		return nil, fmt.Errorf("failed to query challenges: %w", err)
	}
	defer rows.Close()

	var challenges []*challenge.Challenge
	for rows.Next() {
		ch := &challenge.Challenge{}
		err := rows.Scan(
			&ch.ID,
			&ch.Type,
			&ch.Name,
			&ch.Description,
			&ch.StartDate,
			&ch.EndDate,
			&ch.GoalValue,
			&ch.GroupID,
			&ch.IsActive,
			&ch.CreatedBy,
			&ch.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan challenge: %w", err)
		}
		challenges = append(challenges, ch)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return challenges, nil
}

// DeactivateChallenge flips is_active off. Only the creator may do this;
// is_active is the one mutable field on a challenge.
func (s *ChallengeProgressService) DeactivateChallenge(ctx context.Context, challengeID, actingUserID uuid.UUID) error {
	var createdBy uuid.UUID
	err := s.db.QueryRow(ctx, `SELECT created_by FROM challenges WHERE id = $1`, challengeID).Scan(&createdBy)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return challenge.ErrNotFound
		}
		return fmt.Errorf("failed to get challenge: %w", err)
	}
	if createdBy != actingUserID {
		return challenge.ErrUnauthorized
	}

	_, err = s.db.Exec(ctx, `UPDATE challenges SET is_active = FALSE WHERE id = $1`, challengeID)
	if err != nil {
		return fmt.Errorf("failed to deactivate challenge: %w", err)
	}
	return nil
}
