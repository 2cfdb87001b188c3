package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/stanstork/leadwatch-api/internal/models"
	"github.com/stanstork/leadwatch-api/internal/notification"
	"github.com/stanstork/leadwatch-api/internal/repository"
)

type NotificationService struct {
	mock.Mock
}

func (m *NotificationService) Regenerate(ctx context.Context) (notification.RegenerateResult, error) {
	args := m.Called(ctx)
	return args.Get(0).(notification.RegenerateResult), args.Error(1)
}

func (m *NotificationService) PublishAFKAlert(ctx context.Context, salesman models.User, lastActivity *time.Time) (models.Notification, error) {
	args := m.Called(ctx, salesman, lastActivity)
	return args.Get(0).(models.Notification), args.Error(1)
}

func (m *NotificationService) List(ctx context.Context, filter repository.NotificationFilter) ([]models.Notification, error) {
	args := m.Called(ctx, filter)
	notifications, _ := args.Get(0).([]models.Notification)
	return notifications, args.Error(1)
}

func (m *NotificationService) CountUnread(ctx context.Context, filter repository.NotificationFilter) (int, error) {
	args := m.Called(ctx, filter)
	return args.Int(0), args.Error(1)
}

func (m *NotificationService) MarkRead(ctx context.Context, scope, notificationID string) (models.Notification, error) {
	args := m.Called(ctx, scope, notificationID)
	return args.Get(0).(models.Notification), args.Error(1)
}

func (m *NotificationService) MarkUnread(ctx context.Context, scope, notificationID string) (models.Notification, error) {
	args := m.Called(ctx, scope, notificationID)
	return args.Get(0).(models.Notification), args.Error(1)
}

func (m *NotificationService) MarkAllRead(ctx context.Context, filter repository.NotificationFilter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *NotificationService) Delete(ctx context.Context, notificationID string) error {
	return m.Called(ctx, notificationID).Error(0)
}

func (m *NotificationService) PurgeExpired(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

// Regenerator mocks notification.Regenerator on its own, for the scheduler
// and the function endpoints.
type Regenerator struct {
	mock.Mock
}

func (m *Regenerator) Regenerate(ctx context.Context) (notification.RegenerateResult, error) {
	args := m.Called(ctx)
	return args.Get(0).(notification.RegenerateResult), args.Error(1)
}

type Notifier struct {
	mock.Mock
}

func (m *Notifier) Notify(ctx context.Context, n models.Notification) error {
	return m.Called(ctx, n).Error(0)
}
