package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/stanstork/leadwatch-api/internal/activity"
	"github.com/stanstork/leadwatch-api/internal/authz"
	"github.com/stanstork/leadwatch-api/internal/models"
	"github.com/stanstork/leadwatch-api/internal/repository"
)

type ActivityHandler struct {
	activity repository.ActivityRepository
	users    repository.UserRepository
	monitor  *activity.Monitor
	logger   zerolog.Logger
}

func NewActivityHandler(
	activityRepo repository.ActivityRepository,
	users repository.UserRepository,
	monitor *activity.Monitor,
	logger zerolog.Logger,
) *ActivityHandler {
	return &ActivityHandler{
		activity: activityRepo,
		users:    users,
		monitor:  monitor,
		logger:   logger.With().Str("handler", "activity").Logger(),
	}
}

type recordActivityRequest struct {
	Action  string                 `json:"action"`
	Details map[string]interface{} `json:"details"`
}

// Record stores a heartbeat or session event for the caller. A login also
// refreshes the caller's directory entry from the token claims.
func (h *ActivityHandler) Record(w http.ResponseWriter, r *http.Request) {
	identity, ok := authz.IdentityFromRequest(r)
	if !ok {
		http.Error(w, "Missing identity", http.StatusUnauthorized)
		return
	}

	var req recordActivityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	action := models.ActivityAction(strings.TrimSpace(req.Action))
	if action == "" {
		action = models.ActivityActionHeartbeat
	}
	if !action.IsValid() {
		http.Error(w, "Invalid activity action", http.StatusBadRequest)
		return
	}

	if action == models.ActivityActionLogin {
		if _, err := h.users.Upsert(r.Context(), identity.User()); err != nil {
			h.logger.Error().Err(err).Str("user_id", identity.UserID).Msg("failed to upsert user on login")
			http.Error(w, "Failed to record activity", http.StatusInternalServerError)
			return
		}
	}

	entry, err := h.activity.Record(r.Context(), identity.UserID, action, req.Details)
	if err != nil {
		h.logger.Error().Err(err).Str("user_id", identity.UserID).Str("action", string(action)).Msg("failed to record activity")
		http.Error(w, "Failed to record activity", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, entry)
}

// Feed is the admin activity feed, newest first.
func (h *ActivityHandler) Feed(w http.ResponseWriter, r *http.Request) {
	userID := strings.TrimSpace(r.URL.Query().Get("user_id"))
	entries, err := h.activity.ListRecent(r.Context(), userID, parseLimit(r, repository.DefaultActivityLimit, repository.MaxActivityLimit))
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to list activity")
		http.Error(w, "Failed to list activity", http.StatusInternalServerError)
		return
	}
	if entries == nil {
		entries = []models.ActivityLog{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"activity": entries})
}

// SalesmenStatus serves the admin monitoring screen.
func (h *ActivityHandler) SalesmenStatus(w http.ResponseWriter, r *http.Request) {
	statuses, err := h.monitor.Snapshot(r.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to build salesman status snapshot")
		http.Error(w, "Failed to load salesman status", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"salesmen": statuses})
}
