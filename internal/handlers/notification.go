package handlers

import (
	"database/sql"
	"errors"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/stanstork/leadwatch-api/internal/authz"
	"github.com/stanstork/leadwatch-api/internal/models"
	"github.com/stanstork/leadwatch-api/internal/notification"
	"github.com/stanstork/leadwatch-api/internal/repository"
)

type NotificationHandler struct {
	service     notification.Service
	regenerator notification.Regenerator
	logger      zerolog.Logger
}

// NewNotificationHandler wires the CRUD service and the regenerator used by the
// in-app trigger. The two differ when regeneration is dispatched to Temporal.
func NewNotificationHandler(service notification.Service, regenerator notification.Regenerator, logger zerolog.Logger) *NotificationHandler {
	if regenerator == nil {
		regenerator = service
	}
	return &NotificationHandler{
		service:     service,
		regenerator: regenerator,
		logger:      logger.With().Str("handler", "notification").Logger(),
	}
}

// filterFor builds the visibility filter. Salesmen only ever see the lead
// reminders addressed to them; admins see everything and may narrow it.
func filterFor(identity authz.Identity, r *http.Request) (repository.NotificationFilter, error) {
	q := r.URL.Query()
	var filter repository.NotificationFilter

	if raw := strings.TrimSpace(q.Get("type")); raw != "" {
		t := models.NotificationType(raw)
		if !t.IsValid() {
			return filter, errors.New("invalid notification type")
		}
		filter.Types = []models.NotificationType{t}
	}
	if unread, ok := parseBool(q.Get("unread")); ok {
		filter.UnreadOnly = unread
	}

	if identity.IsAdmin() {
		filter.SalesmanID = strings.TrimSpace(q.Get("salesman_id"))
		return filter, nil
	}

	filter.SalesmanID = identity.UserID
	if len(filter.Types) == 0 {
		filter.Types = models.GeneratedNotificationTypes
	} else if filter.Types[0] == models.NotificationTypeInactiveSalesman {
		return filter, errors.New("notification type not available")
	}
	return filter, nil
}

func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	identity, ok := authz.IdentityFromRequest(r)
	if !ok {
		http.Error(w, "Missing identity", http.StatusUnauthorized)
		return
	}
	filter, err := filterFor(identity, r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	filter.Limit = parseLimit(r, repository.DefaultNotificationLimit, repository.MaxNotificationLimit)

	notifications, err := h.service.List(r.Context(), filter)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to list notifications")
		http.Error(w, "Failed to list notifications", http.StatusInternalServerError)
		return
	}
	if notifications == nil {
		notifications = []models.Notification{}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"notifications": notifications,
	})
}

func (h *NotificationHandler) UnreadCount(w http.ResponseWriter, r *http.Request) {
	identity, ok := authz.IdentityFromRequest(r)
	if !ok {
		http.Error(w, "Missing identity", http.StatusUnauthorized)
		return
	}
	filter, err := filterFor(identity, r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	count, err := h.service.CountUnread(r.Context(), filter)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to count unread notifications")
		http.Error(w, "Failed to count notifications", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"unread": count})
}

func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	h.setRead(w, r, true)
}

func (h *NotificationHandler) MarkUnread(w http.ResponseWriter, r *http.Request) {
	h.setRead(w, r, false)
}

func (h *NotificationHandler) setRead(w http.ResponseWriter, r *http.Request, read bool) {
	identity, ok := authz.IdentityFromRequest(r)
	if !ok {
		http.Error(w, "Missing identity", http.StatusUnauthorized)
		return
	}
	notifID, ok := parseID(mux.Vars(r)["notificationID"])
	if !ok {
		http.Error(w, "Invalid notification ID", http.StatusBadRequest)
		return
	}

	var (
		notif models.Notification
		err   error
	)
	if read {
		notif, err = h.service.MarkRead(r.Context(), identity.Scope(), notifID)
	} else {
		notif, err = h.service.MarkUnread(r.Context(), identity.Scope(), notifID)
	}
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			http.Error(w, "Notification not found", http.StatusNotFound)
			return
		}
		h.logger.Error().Err(err).Str("notification_id", notifID).Bool("read", read).Msg("failed to update notification")
		http.Error(w, "Failed to update notification", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, notif)
}

func (h *NotificationHandler) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	identity, ok := authz.IdentityFromRequest(r)
	if !ok {
		http.Error(w, "Missing identity", http.StatusUnauthorized)
		return
	}
	filter, err := filterFor(identity, r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	updated, err := h.service.MarkAllRead(r.Context(), filter)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to mark notifications as read")
		http.Error(w, "Failed to update notifications", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"updated": updated})
}

func (h *NotificationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	notifID, ok := parseID(mux.Vars(r)["notificationID"])
	if !ok {
		http.Error(w, "Invalid notification ID", http.StatusBadRequest)
		return
	}

	if err := h.service.Delete(r.Context(), notifID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			http.Error(w, "Notification not found", http.StatusNotFound)
			return
		}
		h.logger.Error().Err(err).Str("notification_id", notifID).Msg("failed to delete notification")
		http.Error(w, "Failed to delete notification", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Regenerate is the in-app trigger. It returns the full pass summary.
func (h *NotificationHandler) Regenerate(w http.ResponseWriter, r *http.Request) {
	result, err := h.regenerator.Regenerate(r.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("in-app regeneration failed")
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, result)
}
