// Package mocks holds testify mocks for the repository and service
// interfaces, shared by the package tests.
package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/stanstork/leadwatch-api/internal/models"
	"github.com/stanstork/leadwatch-api/internal/repository"
)

type LeadRepository struct {
	mock.Mock
}

func (m *LeadRepository) Create(ctx context.Context, lead models.Lead) (models.Lead, error) {
	args := m.Called(ctx, lead)
	return args.Get(0).(models.Lead), args.Error(1)
}

func (m *LeadRepository) Get(ctx context.Context, scope, leadID string) (models.Lead, error) {
	args := m.Called(ctx, scope, leadID)
	return args.Get(0).(models.Lead), args.Error(1)
}

func (m *LeadRepository) List(ctx context.Context, filter repository.LeadFilter) ([]models.Lead, error) {
	args := m.Called(ctx, filter)
	leads, _ := args.Get(0).([]models.Lead)
	return leads, args.Error(1)
}

func (m *LeadRepository) ListSalesmanIDs(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	ids, _ := args.Get(0).([]string)
	return ids, args.Error(1)
}

func (m *LeadRepository) ListOpenBySalesman(ctx context.Context, salesmanID string) ([]models.Lead, error) {
	args := m.Called(ctx, salesmanID)
	leads, _ := args.Get(0).([]models.Lead)
	return leads, args.Error(1)
}

func (m *LeadRepository) UpdateStatus(ctx context.Context, scope, leadID string, status models.LeadStatus) (models.Lead, error) {
	args := m.Called(ctx, scope, leadID, status)
	return args.Get(0).(models.Lead), args.Error(1)
}

func (m *LeadRepository) UpdateCallStatus(ctx context.Context, scope, leadID string, status models.CallStatus) (models.Lead, error) {
	args := m.Called(ctx, scope, leadID, status)
	return args.Get(0).(models.Lead), args.Error(1)
}

type UserRepository struct {
	mock.Mock
}

func (m *UserRepository) GetByID(ctx context.Context, userID string) (models.User, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(models.User), args.Error(1)
}

func (m *UserRepository) GetByIDs(ctx context.Context, userIDs []string) (map[string]models.User, error) {
	args := m.Called(ctx, userIDs)
	users, _ := args.Get(0).(map[string]models.User)
	return users, args.Error(1)
}

func (m *UserRepository) ListByRole(ctx context.Context, role models.UserRole) ([]models.User, error) {
	args := m.Called(ctx, role)
	users, _ := args.Get(0).([]models.User)
	return users, args.Error(1)
}

func (m *UserRepository) Upsert(ctx context.Context, user models.User) (models.User, error) {
	args := m.Called(ctx, user)
	return args.Get(0).(models.User), args.Error(1)
}

type ActivityRepository struct {
	mock.Mock
}

func (m *ActivityRepository) Record(ctx context.Context, userID string, action models.ActivityAction, details map[string]interface{}) (models.ActivityLog, error) {
	args := m.Called(ctx, userID, action, details)
	return args.Get(0).(models.ActivityLog), args.Error(1)
}

func (m *ActivityRepository) ListRecent(ctx context.Context, userID string, limit int) ([]models.ActivityLog, error) {
	args := m.Called(ctx, userID, limit)
	logs, _ := args.Get(0).([]models.ActivityLog)
	return logs, args.Error(1)
}

func (m *ActivityRepository) ListSalesmanActivity(ctx context.Context) ([]models.SalesmanActivity, error) {
	args := m.Called(ctx)
	activity, _ := args.Get(0).([]models.SalesmanActivity)
	return activity, args.Error(1)
}

type NotificationRepository struct {
	mock.Mock
}

func (m *NotificationRepository) Create(ctx context.Context, params repository.CreateNotificationParams) (models.Notification, error) {
	args := m.Called(ctx, params)
	return args.Get(0).(models.Notification), args.Error(1)
}

func (m *NotificationRepository) ReplaceGenerated(ctx context.Context, batch []repository.CreateNotificationParams, policy repository.RetentionPolicy) (int, error) {
	args := m.Called(ctx, batch, policy)
	return args.Int(0), args.Error(1)
}

func (m *NotificationRepository) List(ctx context.Context, filter repository.NotificationFilter) ([]models.Notification, error) {
	args := m.Called(ctx, filter)
	notifications, _ := args.Get(0).([]models.Notification)
	return notifications, args.Error(1)
}

func (m *NotificationRepository) CountUnread(ctx context.Context, filter repository.NotificationFilter) (int, error) {
	args := m.Called(ctx, filter)
	return args.Int(0), args.Error(1)
}

func (m *NotificationRepository) SetRead(ctx context.Context, scope, notificationID string, read bool) (models.Notification, error) {
	args := m.Called(ctx, scope, notificationID, read)
	return args.Get(0).(models.Notification), args.Error(1)
}

func (m *NotificationRepository) MarkAllRead(ctx context.Context, filter repository.NotificationFilter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *NotificationRepository) Delete(ctx context.Context, notificationID string) error {
	return m.Called(ctx, notificationID).Error(0)
}

func (m *NotificationRepository) PurgeOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	args := m.Called(ctx, cutoff)
	return args.Get(0).(int64), args.Error(1)
}
