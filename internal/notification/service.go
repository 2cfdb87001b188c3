package notification

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/stanstork/leadwatch-api/internal/metrics"
	"github.com/stanstork/leadwatch-api/internal/models"
	"github.com/stanstork/leadwatch-api/internal/repository"
	"github.com/stanstork/leadwatch-api/internal/staleness"
)

var tracer = otel.Tracer("github.com/stanstork/leadwatch-api/internal/notification")

type RegenerateResult struct {
	NotificationsCreated int `json:"notifications_created"`
	SalesmenProcessed    int `json:"salesmen_processed"`
	SalesmenFailed       int `json:"salesmen_failed"`
}

// Regenerator recomputes the derived notification set. Every trigger (the
// function endpoints, the in-app button and the scheduler) goes through it.
type Regenerator interface {
	Regenerate(ctx context.Context) (RegenerateResult, error)
}

type Service interface {
	Regenerator
	PublishAFKAlert(ctx context.Context, salesman models.User, lastActivity *time.Time) (models.Notification, error)
	List(ctx context.Context, filter repository.NotificationFilter) ([]models.Notification, error)
	CountUnread(ctx context.Context, filter repository.NotificationFilter) (int, error)
	MarkRead(ctx context.Context, scope, notificationID string) (models.Notification, error)
	MarkUnread(ctx context.Context, scope, notificationID string) (models.Notification, error)
	MarkAllRead(ctx context.Context, filter repository.NotificationFilter) (int64, error)
	Delete(ctx context.Context, notificationID string) error
	PurgeExpired(ctx context.Context) (int64, error)
}

type Options struct {
	Thresholds staleness.Thresholds
	Retention  repository.RetentionPolicy
	Notifiers  []Notifier
	Now        func() time.Time
}

type service struct {
	repo       repository.NotificationRepository
	leads      repository.LeadRepository
	users      repository.UserRepository
	classifier *staleness.Classifier
	retention  repository.RetentionPolicy
	notifiers  []Notifier
	now        func() time.Time
	logger     zerolog.Logger
}

func NewService(
	repo repository.NotificationRepository,
	leads repository.LeadRepository,
	users repository.UserRepository,
	logger zerolog.Logger,
	opts Options,
) Service {
	active := make([]Notifier, 0, len(opts.Notifiers))
	for _, notifier := range opts.Notifiers {
		if notifier != nil {
			active = append(active, notifier)
		}
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		repo:       repo,
		leads:      leads,
		users:      users,
		classifier: staleness.NewClassifier(opts.Thresholds),
		retention:  opts.Retention,
		notifiers:  active,
		now:        now,
		logger:     logger.With().Str("component", "notification_service").Logger(),
	}
}

// Regenerate rebuilds the stale_lead and no_calls notifications from current
// lead state. A salesman whose leads cannot be loaded is skipped; a failure to
// store the new set aborts the pass and leaves the previous set in place.
func (s *service) Regenerate(ctx context.Context) (RegenerateResult, error) {
	ctx, span := tracer.Start(ctx, "notification.Regenerate")
	defer span.End()

	start := time.Now()
	now := s.now()
	var result RegenerateResult

	salesmanIDs, err := s.leads.ListSalesmanIDs(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to list salesmen with leads")
		span.RecordError(err)
		span.SetStatus(codes.Error, "list salesmen")
		metrics.RecordRegeneration(false, time.Since(start))
		return result, errors.Wrap(err, "list salesmen with leads")
	}

	directory, err := s.users.GetByIDs(ctx, salesmanIDs)
	if err != nil {
		// Titles fall back to raw IDs; not worth failing the pass over.
		s.logger.Warn().Err(err).Msg("failed to load salesman directory")
		directory = map[string]models.User{}
	}

	var (
		batch  []repository.CreateNotificationParams
		counts = map[string]int{}
	)
	for _, salesmanID := range salesmanIDs {
		leads, err := s.leads.ListOpenBySalesman(ctx, salesmanID)
		if err != nil {
			s.logger.Error().Err(err).Str("salesman_id", salesmanID).Msg("failed to load leads, skipping salesman")
			metrics.RecordSalesmanFetchFailure()
			result.SalesmenFailed++
			continue
		}

		salesman, ok := directory[salesmanID]
		if !ok {
			salesman = models.User{ID: salesmanID, Role: models.RoleSalesman}
		}

		buckets := s.classifier.Partition(leads, now)
		counts[string(staleness.BucketOverdue)] += len(buckets.Overdue)
		counts[string(staleness.BucketStale)] += len(buckets.Stale)
		counts["uncalled"] += len(buckets.Uncalled)

		batch = append(batch, BuildNotificationsWith(s.classifier.Thresholds(), salesman, buckets, now)...)
		result.SalesmenProcessed++
	}

	created, err := s.repo.ReplaceGenerated(ctx, batch, s.retention)
	if err != nil {
		s.logger.Error().Err(err).Int("notifications", len(batch)).Msg("failed to store regenerated notifications")
		span.RecordError(err)
		span.SetStatus(codes.Error, "replace generated")
		metrics.RecordRegeneration(false, time.Since(start))
		return result, errors.Wrap(err, "store regenerated notifications")
	}
	result.NotificationsCreated = created

	for bucket, n := range counts {
		metrics.RecordNotifications(bucket, n)
	}
	metrics.RecordRegeneration(true, time.Since(start))
	span.SetAttributes(
		attribute.Int("leadwatch.notifications_created", result.NotificationsCreated),
		attribute.Int("leadwatch.salesmen_processed", result.SalesmenProcessed),
		attribute.Int("leadwatch.salesmen_failed", result.SalesmenFailed),
	)

	s.logger.Info().
		Int("notifications_created", result.NotificationsCreated).
		Int("salesmen_processed", result.SalesmenProcessed).
		Int("salesmen_failed", result.SalesmenFailed).
		Dur("took", time.Since(start)).
		Msg("notifications regenerated")
	return result, nil
}

func (s *service) PublishAFKAlert(ctx context.Context, salesman models.User, lastActivity *time.Time) (models.Notification, error) {
	if salesman.ID == "" {
		return models.Notification{}, fmt.Errorf("salesman id is required for AFK alerts")
	}
	name := salesman.DisplayName()
	salesmanID := salesman.ID

	payload := map[string]interface{}{
		"salesman_id": salesmanID,
		"email":       salesman.Email,
	}
	message := fmt.Sprintf("%s is logged in but has been inactive.", name)
	if lastActivity != nil {
		minutes := int(s.now().Sub(*lastActivity).Minutes())
		payload["last_activity"] = lastActivity.UTC().Format(time.RFC3339)
		payload["minutes_inactive"] = minutes
		message = fmt.Sprintf("%s is logged in but has been inactive for %d minutes.", name, minutes)
	}

	notif, err := s.repo.Create(ctx, repository.CreateNotificationParams{
		Type:       models.NotificationTypeInactiveSalesman,
		Priority:   models.NotificationPriorityHigh,
		SalesmanID: &salesmanID,
		Title:      "AFK Alert: " + name,
		Message:    message,
		Payload:    payload,
	})
	if err != nil {
		s.logger.Error().Err(err).Str("salesman_id", salesmanID).Msg("failed to persist AFK alert")
		return models.Notification{}, err
	}

	metrics.RecordAFKAlert()
	for _, notifier := range s.notifiers {
		if err := notifier.Notify(ctx, notif); err != nil {
			logNotifyError(s.logger, err, notifierChannelName(notifier), notif)
		}
	}
	return notif, nil
}

func (s *service) List(ctx context.Context, filter repository.NotificationFilter) ([]models.Notification, error) {
	return s.repo.List(ctx, filter)
}

func (s *service) CountUnread(ctx context.Context, filter repository.NotificationFilter) (int, error) {
	return s.repo.CountUnread(ctx, filter)
}

// MarkRead and MarkUnread only touch rows targeted at scope unless scope is
// empty (admin).
func (s *service) MarkRead(ctx context.Context, scope, notificationID string) (models.Notification, error) {
	return s.repo.SetRead(ctx, scope, notificationID, true)
}

func (s *service) MarkUnread(ctx context.Context, scope, notificationID string) (models.Notification, error) {
	return s.repo.SetRead(ctx, scope, notificationID, false)
}

func (s *service) MarkAllRead(ctx context.Context, filter repository.NotificationFilter) (int64, error) {
	return s.repo.MarkAllRead(ctx, filter)
}

func (s *service) Delete(ctx context.Context, notificationID string) error {
	return s.repo.Delete(ctx, notificationID)
}

// PurgeExpired drops rows older than the retention window. With a zero
// window every regeneration already wipes the table, so there is nothing to do.
func (s *service) PurgeExpired(ctx context.Context) (int64, error) {
	if s.retention.Window <= 0 {
		return 0, nil
	}
	purged, err := s.repo.PurgeOlderThan(ctx, s.now().Add(-s.retention.Window))
	if err != nil {
		return 0, errors.Wrap(err, "purge expired notifications")
	}
	if purged > 0 {
		s.logger.Info().Int64("purged", purged).Msg("expired notifications purged")
	}
	return purged, nil
}

func notifierChannelName(n Notifier) string {
	type named interface {
		String() string
	}
	if v, ok := n.(named); ok {
		return v.String()
	}
	return fmt.Sprintf("%T", n)
}
