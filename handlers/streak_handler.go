package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"focusFlowAPI/internal/types/streak"
	"focusFlowAPI/middleware"
	"focusFlowAPI/services"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

type StreakHandler struct {
	streakService *services.StreakService
	userService   *services.UserService
}

func NewStreakHandler(streakService *services.StreakService, userService *services.UserService) *StreakHandler {
	return &StreakHandler{
		streakService: streakService,
		userService:   userService,
	}
}

// GetStreak returns the caller's own streak stats.
func (h *StreakHandler) GetStreak(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	userID, ok := h.resolveCaller(ctx, w)
	if !ok {
		return
	}

	stats, err := h.streakService.ComputeStreak(ctx, userID, time.Now().UTC())
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to compute streak")
		return
	}

	respondWithJSON(w, http.StatusOK, stats)
}

// GetUserStreak returns another user's streak. Private streaks come back
// as the empty stats, never as an error.
func (h *StreakHandler) GetUserStreak(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	viewerID, ok := h.resolveCaller(ctx, w)
	if !ok {
		return
	}

	ownerID, err := uuid.Parse(mux.Vars(r)["userID"])
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid user ID")
		return
	}

	stats, err := h.streakService.GetStreakForViewer(ctx, ownerID, viewerID, time.Now().UTC())
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to compute streak")
		return
	}

	respondWithJSON(w, http.StatusOK, stats)
}

type recordSessionRequest struct {
	SessionDate time.Time `json:"session_date"`
}

// RecordSession folds a completed session's day into the caller's streak.
func (h *StreakHandler) RecordSession(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	userID, ok := h.resolveCaller(ctx, w)
	if !ok {
		return
	}

	var req recordSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.SessionDate.IsZero() {
		respondWithError(w, http.StatusBadRequest, "session_date is required")
		return
	}

	rec, err := h.streakService.RecordSessionForStreak(ctx, userID, req.SessionDate, time.Now().UTC())
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to record session")
		return
	}

	respondWithJSON(w, http.StatusOK, rec)
}

type toggleVisibilityRequest struct {
	UserID *uuid.UUID `json:"user_id,omitempty"`
}

// ToggleVisibility flips the public flag on a streak. The target defaults
// to the caller; toggling anyone else's streak is rejected by the service.
func (h *StreakHandler) ToggleVisibility(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	actingUserID, ok := h.resolveCaller(ctx, w)
	if !ok {
		return
	}

	targetID := actingUserID
	var req toggleVisibilityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err == nil && req.UserID != nil {
		targetID = *req.UserID
	}

	isPublic, err := h.streakService.ToggleStreakVisibility(ctx, targetID, actingUserID, time.Now().UTC())
	if err != nil {
		if errors.Is(err, streak.ErrUnauthorized) {
			respondWithError(w, http.StatusForbidden, "Only the owner can change streak visibility")
			return
		}
		respondWithError(w, http.StatusInternalServerError, "Failed to toggle visibility")
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]bool{"is_public": isPublic})
}

func (h *StreakHandler) resolveCaller(ctx context.Context, w http.ResponseWriter) (uuid.UUID, bool) {
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

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error": "Internal server error"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, map[string]string{"error": message})
}
