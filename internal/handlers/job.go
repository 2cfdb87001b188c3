package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
)

// JobTrigger is satisfied by *scheduler.Scheduler.
type JobTrigger interface {
	Trigger(name string) bool
}

type JobHandler struct {
	jobs   JobTrigger
	logger zerolog.Logger
}

// NewJobHandler accepts a nil trigger when the scheduler is disabled.
func NewJobHandler(jobs JobTrigger, logger zerolog.Logger) *JobHandler {
	return &JobHandler{
		jobs:   jobs,
		logger: logger.With().Str("handler", "job").Logger(),
	}
}

// Run starts a scheduled job out of band. The job runs asynchronously under
// the scheduler's overlap guard.
func (h *JobHandler) Run(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["jobName"]
	if h.jobs == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "scheduler disabled"})
		return
	}
	if !h.jobs.Trigger(name) {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "unknown job"})
		return
	}
	h.logger.Info().Str("job", name).Msg("job triggered manually")
	writeJSON(w, http.StatusAccepted, map[string]interface{}{"job": name, "triggered": true})
}
