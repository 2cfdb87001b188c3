package handlers

import (
	"net/http"

	"github.com/rs/zerolog"

	"github.com/stanstork/leadwatch-api/internal/notification"
)

var functionCORSHeaders = map[string]string{
	"Access-Control-Allow-Origin":  "*",
	"Access-Control-Allow-Headers": "authorization, x-client-info, apikey, content-type",
	"Access-Control-Allow-Methods": "POST, OPTIONS",
}

// FunctionHandler serves the regeneration endpoints called by external
// schedulers and the frontend.
type FunctionHandler struct {
	regenerator notification.Regenerator
	logger      zerolog.Logger
}

func NewFunctionHandler(regenerator notification.Regenerator, logger zerolog.Logger) *FunctionHandler {
	return &FunctionHandler{
		regenerator: regenerator,
		logger:      logger.With().Str("handler", "function").Logger(),
	}
}

type generateResponse struct {
	Success              bool `json:"success"`
	NotificationsCreated int  `json:"notifications_created"`
}

func (h *FunctionHandler) GenerateNotifications(w http.ResponseWriter, r *http.Request) {
	for k, v := range functionCORSHeaders {
		w.Header().Set(k, v)
	}
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}

	result, err := h.regenerator.Regenerate(r.Context())
	if err != nil {
		h.logger.Error().Err(err).Str("path", r.URL.Path).Msg("notification generation failed")
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, generateResponse{
		Success:              true,
		NotificationsCreated: result.NotificationsCreated,
	})
}
