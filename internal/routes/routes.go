package routes

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/stanstork/leadwatch-api/internal/authz"
	"github.com/stanstork/leadwatch-api/internal/handlers"
	"github.com/stanstork/leadwatch-api/internal/metrics"
	"github.com/stanstork/leadwatch-api/internal/models"
)

type Handlers struct {
	Auth         *handlers.AuthHandler
	Health       *handlers.HealthHandler
	Function     *handlers.FunctionHandler
	Notification *handlers.NotificationHandler
	Lead         *handlers.LeadHandler
	Activity     *handlers.ActivityHandler
	Job          *handlers.JobHandler
}

// NewRouter sets up the API routes.
func NewRouter(h Handlers) *mux.Router {
	router := mux.NewRouter()
	router.Use(metrics.Middleware)

	router.HandleFunc("/health", h.Health.HealthCheck).Methods(http.MethodGet)
	router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	// Service-credential endpoints. Both paths run the same regeneration.
	functions := router.PathPrefix("/functions/v1").Subrouter()
	functions.Use(h.Auth.ServiceKeyMiddleware)
	functions.HandleFunc("/generate-notifications", h.Function.GenerateNotifications).Methods(http.MethodPost, http.MethodOptions)
	functions.HandleFunc("/generate-admin-notifications", h.Function.GenerateNotifications).Methods(http.MethodPost, http.MethodOptions)

	api := router.PathPrefix("/api").Subrouter()
	api.Use(h.Auth.JWTMiddleware)
	adminOnly := authz.RequireRole(models.RoleAdmin)

	api.HandleFunc("/me", h.Auth.Me).Methods(http.MethodGet)

	api.HandleFunc("/notifications", h.Notification.List).Methods(http.MethodGet)
	api.HandleFunc("/notifications/unread-count", h.Notification.UnreadCount).Methods(http.MethodGet)
	api.HandleFunc("/notifications/read-all", h.Notification.MarkAllRead).Methods(http.MethodPost)
	api.Handle("/notifications/regenerate", adminOnly(http.HandlerFunc(h.Notification.Regenerate))).Methods(http.MethodPost)
	api.HandleFunc("/notifications/{notificationID}/read", h.Notification.MarkRead).Methods(http.MethodPatch)
	api.HandleFunc("/notifications/{notificationID}/unread", h.Notification.MarkUnread).Methods(http.MethodPatch)
	api.Handle("/notifications/{notificationID}", authz.RequireRoleHandler(models.RoleAdmin, http.HandlerFunc(h.Notification.Delete))).Methods(http.MethodDelete)

	api.HandleFunc("/leads", h.Lead.List).Methods(http.MethodGet)
	api.HandleFunc("/leads", h.Lead.Create).Methods(http.MethodPost)
	api.HandleFunc("/leads/{leadID}/status", h.Lead.UpdateStatus).Methods(http.MethodPatch)
	api.HandleFunc("/leads/{leadID}/call-status", h.Lead.UpdateCallStatus).Methods(http.MethodPatch)

	api.HandleFunc("/activity", h.Activity.Record).Methods(http.MethodPost)
	api.Handle("/activity", adminOnly(http.HandlerFunc(h.Activity.Feed))).Methods(http.MethodGet)
	api.Handle("/salesmen/status", adminOnly(http.HandlerFunc(h.Activity.SalesmenStatus))).Methods(http.MethodGet)

	api.Handle("/jobs/{jobName}/run", adminOnly(http.HandlerFunc(h.Job.Run))).Methods(http.MethodPost)

	return router
}
