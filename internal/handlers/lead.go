package handlers

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/stanstork/leadwatch-api/internal/authz"
	"github.com/stanstork/leadwatch-api/internal/models"
	"github.com/stanstork/leadwatch-api/internal/repository"
)

type LeadHandler struct {
	leads    repository.LeadRepository
	activity repository.ActivityRepository
	logger   zerolog.Logger
}

func NewLeadHandler(leads repository.LeadRepository, activity repository.ActivityRepository, logger zerolog.Logger) *LeadHandler {
	return &LeadHandler{
		leads:    leads,
		activity: activity,
		logger:   logger.With().Str("handler", "lead").Logger(),
	}
}

type createLeadRequest struct {
	SalesmanID  string     `json:"salesman_id"`
	Name        string     `json:"name"`
	Company     string     `json:"company"`
	Email       string     `json:"email"`
	Phone       string     `json:"phone"`
	Status      string     `json:"status"`
	CallStatus  string     `json:"call_status"`
	LastContact *time.Time `json:"last_contact"`
}

type leadStatusRequest struct {
	Status string `json:"status"`
}

type callStatusRequest struct {
	CallStatus string `json:"call_status"`
}

func (h *LeadHandler) List(w http.ResponseWriter, r *http.Request) {
	identity, ok := authz.IdentityFromRequest(r)
	if !ok {
		http.Error(w, "Missing identity", http.StatusUnauthorized)
		return
	}

	q := r.URL.Query()
	filter := repository.LeadFilter{
		SalesmanID: identity.Scope(),
		Limit:      parseLimit(r, repository.DefaultLeadLimit, repository.MaxLeadLimit),
	}
	if identity.IsAdmin() {
		filter.SalesmanID = strings.TrimSpace(q.Get("salesman_id"))
	}
	if raw := strings.TrimSpace(q.Get("status")); raw != "" {
		status := models.LeadStatus(raw)
		if !status.IsValid() {
			http.Error(w, "Invalid lead status", http.StatusBadRequest)
			return
		}
		filter.Status = status
	}
	if raw := strings.TrimSpace(q.Get("offset")); raw != "" {
		if offset, err := strconv.Atoi(raw); err == nil && offset > 0 {
			filter.Offset = offset
		}
	}

	leads, err := h.leads.List(r.Context(), filter)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to list leads")
		http.Error(w, "Failed to list leads", http.StatusInternalServerError)
		return
	}
	if leads == nil {
		leads = []models.Lead{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"leads": leads})
}

func (h *LeadHandler) Create(w http.ResponseWriter, r *http.Request) {
	identity, ok := authz.IdentityFromRequest(r)
	if !ok {
		http.Error(w, "Missing identity", http.StatusUnauthorized)
		return
	}

	var req createLeadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		http.Error(w, "Lead name is required", http.StatusBadRequest)
		return
	}

	lead := models.Lead{
		SalesmanID:  identity.UserID,
		Name:        req.Name,
		Company:     req.Company,
		Email:       strings.TrimSpace(req.Email),
		Phone:       strings.TrimSpace(req.Phone),
		Status:      models.LeadStatus(strings.TrimSpace(req.Status)),
		CallStatus:  models.CallStatus(strings.TrimSpace(req.CallStatus)),
		LastContact: req.LastContact,
	}
	if identity.IsAdmin() && strings.TrimSpace(req.SalesmanID) != "" {
		lead.SalesmanID = strings.TrimSpace(req.SalesmanID)
	}
	if lead.Status != "" && !lead.Status.IsValid() {
		http.Error(w, "Invalid lead status", http.StatusBadRequest)
		return
	}
	if lead.CallStatus != "" && !lead.CallStatus.IsValid() {
		http.Error(w, "Invalid call status", http.StatusBadRequest)
		return
	}

	created, err := h.leads.Create(r.Context(), lead)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to create lead")
		http.Error(w, "Failed to create lead", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *LeadHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	identity, ok := authz.IdentityFromRequest(r)
	if !ok {
		http.Error(w, "Missing identity", http.StatusUnauthorized)
		return
	}
	leadID, ok := parseID(mux.Vars(r)["leadID"])
	if !ok {
		http.Error(w, "Invalid lead ID", http.StatusBadRequest)
		return
	}

	var req leadStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	status := models.LeadStatus(strings.TrimSpace(req.Status))
	if !status.IsValid() {
		http.Error(w, "Invalid lead status", http.StatusBadRequest)
		return
	}

	lead, err := h.leads.UpdateStatus(r.Context(), identity.Scope(), leadID, status)
	if err != nil {
		h.writeLeadError(w, err, leadID)
		return
	}

	h.record(r, identity.UserID, models.ActivityActionLeadUpdate, map[string]interface{}{
		"lead_id": lead.ID,
		"status":  string(lead.Status),
	})
	writeJSON(w, http.StatusOK, lead)
}

func (h *LeadHandler) UpdateCallStatus(w http.ResponseWriter, r *http.Request) {
	identity, ok := authz.IdentityFromRequest(r)
	if !ok {
		http.Error(w, "Missing identity", http.StatusUnauthorized)
		return
	}
	leadID, ok := parseID(mux.Vars(r)["leadID"])
	if !ok {
		http.Error(w, "Invalid lead ID", http.StatusBadRequest)
		return
	}

	var req callStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	status := models.CallStatus(strings.TrimSpace(req.CallStatus))
	if !status.IsValid() {
		http.Error(w, "Invalid call status", http.StatusBadRequest)
		return
	}

	lead, err := h.leads.UpdateCallStatus(r.Context(), identity.Scope(), leadID, status)
	if err != nil {
		h.writeLeadError(w, err, leadID)
		return
	}

	h.record(r, identity.UserID, models.ActivityActionCallLogged, map[string]interface{}{
		"lead_id":     lead.ID,
		"call_status": string(lead.CallStatus),
	})
	writeJSON(w, http.StatusOK, lead)
}

func (h *LeadHandler) writeLeadError(w http.ResponseWriter, err error, leadID string) {
	if errors.Is(err, sql.ErrNoRows) {
		http.Error(w, "Lead not found", http.StatusNotFound)
		return
	}
	h.logger.Error().Err(err).Str("lead_id", leadID).Msg("failed to update lead")
	http.Error(w, "Failed to update lead", http.StatusInternalServerError)
}

// record logs activity on a best-effort basis; the mutation already succeeded.
func (h *LeadHandler) record(r *http.Request, userID string, action models.ActivityAction, details map[string]interface{}) {
	if _, err := h.activity.Record(r.Context(), userID, action, details); err != nil {
		h.logger.Warn().Err(err).Str("user_id", userID).Str("action", string(action)).Msg("failed to record activity")
	}
}
