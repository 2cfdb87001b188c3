package activity

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/stanstork/leadwatch-api/internal/metrics"
	"github.com/stanstork/leadwatch-api/internal/models"
	"github.com/stanstork/leadwatch-api/internal/repository"
)

// AlertPublisher persists and fans out an AFK alert.
type AlertPublisher interface {
	PublishAFKAlert(ctx context.Context, salesman models.User, lastActivity *time.Time) (models.Notification, error)
}

// SalesmanStatus is one row of the admin monitoring screen.
type SalesmanStatus struct {
	SalesmanID      string     `json:"salesman_id"`
	Name            string     `json:"name"`
	Email           string     `json:"email"`
	Status          Status     `json:"status"`
	LastActivity    *time.Time `json:"last_activity"`
	LastLogin       *time.Time `json:"last_login"`
	MinutesInactive *int       `json:"minutes_inactive"`

	user models.User
}

type CheckResult struct {
	Checked     int `json:"checked"`
	AlertsSent  int `json:"alerts_sent"`
	AlertFailed int `json:"alerts_failed"`
}

type Monitor struct {
	activity   repository.ActivityRepository
	users      repository.UserRepository
	publisher  AlertPublisher
	policy     *AlertPolicy
	thresholds Thresholds
	now        func() time.Time
	logger     zerolog.Logger
}

type MonitorOptions struct {
	Thresholds Thresholds
	Now        func() time.Time
}

func NewMonitor(
	activity repository.ActivityRepository,
	users repository.UserRepository,
	publisher AlertPublisher,
	policy *AlertPolicy,
	logger zerolog.Logger,
	opts MonitorOptions,
) *Monitor {
	if policy == nil {
		policy = NewAlertPolicy(nil, DefaultAlertCooldown)
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Monitor{
		activity:   activity,
		users:      users,
		publisher:  publisher,
		policy:     policy,
		thresholds: opts.Thresholds.withDefaults(),
		now:        now,
		logger:     logger.With().Str("component", "activity_monitor").Logger(),
	}
}

// Snapshot classifies every salesman. It has no side effects.
func (m *Monitor) Snapshot(ctx context.Context) ([]SalesmanStatus, error) {
	entries, err := m.activity.ListSalesmanActivity(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "list salesman activity")
	}

	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		ids = append(ids, e.SalesmanID)
	}
	directory, err := m.users.GetByIDs(ctx, ids)
	if err != nil {
		m.logger.Warn().Err(err).Msg("failed to load salesman directory")
		directory = map[string]models.User{}
	}

	now := m.now()
	counts := map[string]int{
		string(StatusOnline):  0,
		string(StatusIdle):    0,
		string(StatusAFK):     0,
		string(StatusOffline): 0,
	}
	out := make([]SalesmanStatus, 0, len(entries))
	for _, e := range entries {
		user, ok := directory[e.SalesmanID]
		if !ok {
			user = models.User{ID: e.SalesmanID, Role: models.RoleSalesman}
		}
		status := ClassifyWith(m.thresholds, e.LastActivity, e.HasSession(), now)
		counts[string(status)]++

		row := SalesmanStatus{
			SalesmanID:   e.SalesmanID,
			Name:         user.DisplayName(),
			Email:        user.Email,
			Status:       status,
			LastActivity: e.LastActivity,
			LastLogin:    e.LastLogin,
			user:         user,
		}
		if e.LastActivity != nil {
			minutes := int(now.Sub(*e.LastActivity).Minutes())
			if minutes < 0 {
				minutes = 0
			}
			row.MinutesInactive = &minutes
		}
		out = append(out, row)
	}
	metrics.SetSalesmenByStatus(counts)
	return out, nil
}

// CheckAFK runs the alert policy over a fresh snapshot and publishes an alert
// for every salesman that just went AFK. A failed publish is logged, releases
// the cooldown so the next sweep retries, and does not stop the sweep.
func (m *Monitor) CheckAFK(ctx context.Context) (CheckResult, error) {
	statuses, err := m.Snapshot(ctx)
	if err != nil {
		return CheckResult{}, err
	}

	var result CheckResult
	for _, s := range statuses {
		result.Checked++
		alert, err := m.policy.ShouldAlert(ctx, s.SalesmanID, s.Status)
		if err != nil {
			m.logger.Error().Err(err).Str("salesman_id", s.SalesmanID).Msg("alert policy failed")
			result.AlertFailed++
			continue
		}
		if !alert {
			continue
		}

		if _, err := m.publisher.PublishAFKAlert(ctx, s.user, s.LastActivity); err != nil {
			m.logger.Error().Err(err).Str("salesman_id", s.SalesmanID).Msg("failed to publish AFK alert")
			if rerr := m.policy.Release(ctx, s.SalesmanID); rerr != nil {
				m.logger.Warn().Err(rerr).Str("salesman_id", s.SalesmanID).Msg("failed to release alert cooldown")
			}
			result.AlertFailed++
			continue
		}
		m.logger.Info().Str("salesman_id", s.SalesmanID).Str("name", s.Name).Msg("AFK alert published")
		result.AlertsSent++
	}
	return result, nil
}
