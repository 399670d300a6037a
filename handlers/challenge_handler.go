package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"focusFlowAPI/internal/types/challenge"
	"focusFlowAPI/internal/types/session"
	"focusFlowAPI/middleware"
	"focusFlowAPI/services"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

type ChallengeHandler struct {
	progressService    *services.ChallengeProgressService
	leaderboardService *services.LeaderboardService
	userService        *services.UserService
}

func NewChallengeHandler(progressService *services.ChallengeProgressService, leaderboardService *services.LeaderboardService, userService *services.UserService) *ChallengeHandler {
	return &ChallengeHandler{
		progressService:    progressService,
		leaderboardService: leaderboardService,
		userService:        userService,
	}
}

func (h *ChallengeHandler) CreateChallenge(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	userID, ok := h.resolveCaller(ctx, w)
	if !ok {
		return
	}

	var req challenge.CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	ch, err := h.progressService.CreateChallenge(ctx, &req, userID, time.Now().UTC())
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	respondWithJSON(w, http.StatusCreated, ch)
}

func (h *ChallengeHandler) ListChallenges(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	challenges, err := h.progressService.ListActiveChallenges(ctx, time.Now().UTC())
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to list challenges")
		return
	}

	respondWithJSON(w, http.StatusOK, challenges)
}

func (h *ChallengeHandler) JoinChallenge(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	userID, ok := h.resolveCaller(ctx, w)
	if !ok {
		return
	}

	challengeID, err := uuid.Parse(mux.Vars(r)["challengeID"])
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid challenge ID")
		return
	}

	participant, err := h.progressService.JoinChallenge(ctx, challengeID, userID, time.Now().UTC())
	if err != nil {
		if errors.Is(err, challenge.ErrNotFound) {
			respondWithError(w, http.StatusNotFound, "Challenge not found")
			return
		}
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	respondWithJSON(w, http.StatusOK, participant)
}

// ApplyProgress applies one completed session to every challenge the
// caller participates in. The response is 202 regardless of individual
// outcomes: progress updates never block the session pipeline. Failures
// are logged by the service and counted here.
func (h *ChallengeHandler) ApplyProgress(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	userID, ok := h.resolveCaller(ctx, w)
	if !ok {
		return
	}

	var sess session.Session
	if err := json.NewDecoder(r.Body).Decode(&sess); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if sess.ID == uuid.Nil || sess.StartTime.IsZero() || sess.DurationSeconds <= 0 {
		respondWithError(w, http.StatusBadRequest, "session id, start_time and duration_seconds are required")
		return
	}
	if sess.UserID != userID {
		respondWithError(w, http.StatusForbidden, "Session does not belong to this user")
		return
	}

	outcomes := h.progressService.ApplyChallengeProgress(ctx, &sess, time.Now().UTC())
	for _, o := range outcomes {
		middleware.ObserveProgressOutcome(string(o.Status))
	}

	respondWithJSON(w, http.StatusAccepted, map[string]interface{}{"outcomes": outcomes})
}

func (h *ChallengeHandler) GetLeaderboard(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	challengeID, err := uuid.Parse(mux.Vars(r)["challengeID"])
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid challenge ID")
		return
	}

	board, err := h.leaderboardService.GetLeaderboard(ctx, challengeID)
	if err != nil {
		if errors.Is(err, challenge.ErrNotFound) {
			respondWithError(w, http.StatusNotFound, "Challenge not found")
			return
		}
		respondWithError(w, http.StatusInternalServerError, "Failed to build leaderboard")
		return
	}

	respondWithJSON(w, http.StatusOK, board)
}

// GetUserProgress returns the caller's progress on one challenge. A user
// who has not joined gets an empty 200, not an error.
func (h *ChallengeHandler) GetUserProgress(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	userID, ok := h.resolveCaller(ctx, w)
	if !ok {
		return
	}

	challengeID, err := uuid.Parse(mux.Vars(r)["challengeID"])
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid challenge ID")
		return
	}

	participant, err := h.progressService.GetUserProgress(ctx, challengeID, userID)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to get progress")
		return
	}
	if participant == nil {
		respondWithJSON(w, http.StatusOK, map[string]interface{}{"progress": nil})
		return
	}

	respondWithJSON(w, http.StatusOK, participant)
}

func (h *ChallengeHandler) DeactivateChallenge(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	userID, ok := h.resolveCaller(ctx, w)
	if !ok {
		return
	}

	challengeID, err := uuid.Parse(mux.Vars(r)["challengeID"])
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid challenge ID")
		return
	}

	err = h.progressService.DeactivateChallenge(ctx, challengeID, userID)
	if err != nil {
		switch {
		case errors.Is(err, challenge.ErrNotFound):
			respondWithError(w, http.StatusNotFound, "Challenge not found")
		case errors.Is(err, challenge.ErrUnauthorized):
			respondWithError(w, http.StatusForbidden, "Only the creator can deactivate a challenge")
		default:
			respondWithError(w, http.StatusInternalServerError, "Failed to deactivate challenge")
		}
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]bool{"deactivated": true})
}

func (h *ChallengeHandler) resolveCaller(ctx context.Context, w http.ResponseWriter) (uuid.UUID, bool) {
	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return uuid.Nil, false
	}

	userID, err := h.userService.GetUserIDByClerkID(ctx, clerkID)
	if err != nil {
		respondWithError(w, http.StatusNotFound, "User not found")
		return uuid.Nil, false
	}
	return userID, true
}
