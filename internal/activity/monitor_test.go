package activity

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/stanstork/leadwatch-api/internal/mocks"
	"github.com/stanstork/leadwatch-api/internal/models"
)

type publisherMock struct {
	mock.Mock
}

func (m *publisherMock) PublishAFKAlert(ctx context.Context, salesman models.User, lastActivity *time.Time) (models.Notification, error) {
	args := m.Called(ctx, salesman, lastActivity)
	return args.Get(0).(models.Notification), args.Error(1)
}

var monitorNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func minutesAgo(m int) *time.Time {
	t := monitorNow.Add(-time.Duration(m) * time.Minute)
	return &t
}

func salesmanActivity() []models.SalesmanActivity {
	return []models.SalesmanActivity{
		{SalesmanID: "s-online", LastActivity: minutesAgo(1), LastLogin: minutesAgo(60)},
		{SalesmanID: "s-afk", LastActivity: minutesAgo(12), LastLogin: minutesAgo(60)},
		{SalesmanID: "s-quirk", LastActivity: minutesAgo(45), LastLogin: minutesAgo(90)},
		{SalesmanID: "s-out", LastActivity: minutesAgo(20), LastLogin: minutesAgo(90), LastLogout: minutesAgo(20)},
		{SalesmanID: "s-never"},
	}
}

func newTestMonitor(acts *mocks.ActivityRepository, users *mocks.UserRepository, pub AlertPublisher) *Monitor {
	return NewMonitor(acts, users, pub, NewAlertPolicy(NewMemoryLimiter(), time.Hour), zerolog.Nop(), MonitorOptions{
		Now: func() time.Time { return monitorNow },
	})
}

func TestMonitor_Snapshot(t *testing.T) {
	acts := new(mocks.ActivityRepository)
	users := new(mocks.UserRepository)
	acts.On("ListSalesmanActivity", mock.Anything).Return(salesmanActivity(), nil)
	users.On("GetByIDs", mock.Anything, mock.Anything).Return(map[string]models.User{
		"s-afk": {ID: "s-afk", FullName: "Alex", Email: "alex@example.com"},
	}, nil)

	snapshot, err := newTestMonitor(acts, users, nil).Snapshot(context.Background())
	require.NoError(t, err)
	require.Len(t, snapshot, 5)

	got := map[string]SalesmanStatus{}
	for _, s := range snapshot {
		got[s.SalesmanID] = s
	}
	assert.Equal(t, StatusOnline, got["s-online"].Status)
	assert.Equal(t, StatusAFK, got["s-afk"].Status)
	assert.Equal(t, "Alex", got["s-afk"].Name)
	require.NotNil(t, got["s-afk"].MinutesInactive)
	assert.Equal(t, 12, *got["s-afk"].MinutesInactive)
	assert.Equal(t, StatusIdle, got["s-quirk"].Status)
	assert.Equal(t, StatusOffline, got["s-out"].Status)
	assert.Equal(t, StatusOffline, got["s-never"].Status)
	assert.Nil(t, got["s-never"].MinutesInactive)
	assert.Equal(t, "s-never", got["s-never"].Name)
}

func TestMonitor_SnapshotError(t *testing.T) {
	acts := new(mocks.ActivityRepository)
	acts.On("ListSalesmanActivity", mock.Anything).Return(nil, errors.New("db gone"))

	_, err := newTestMonitor(acts, new(mocks.UserRepository), nil).Snapshot(context.Background())
	require.Error(t, err)
}

func TestMonitor_CheckAFK_AlertsOncePerTransition(t *testing.T) {
	acts := new(mocks.ActivityRepository)
	users := new(mocks.UserRepository)
	pub := new(publisherMock)

	acts.On("ListSalesmanActivity", mock.Anything).Return(salesmanActivity(), nil)
	users.On("GetByIDs", mock.Anything, mock.Anything).Return(map[string]models.User{
		"s-afk": {ID: "s-afk", FullName: "Alex"},
	}, nil)
	pub.On("PublishAFKAlert", mock.Anything, mock.MatchedBy(func(u models.User) bool {
		return u.ID == "s-afk" && u.DisplayName() == "Alex"
	}), minutesAgo(12)).Return(models.Notification{ID: "n-1"}, nil).Once()

	m := newTestMonitor(acts, users, pub)

	first, err := m.CheckAFK(context.Background())
	require.NoError(t, err)
	assert.Equal(t, CheckResult{Checked: 5, AlertsSent: 1}, first)

	second, err := m.CheckAFK(context.Background())
	require.NoError(t, err)
	assert.Equal(t, CheckResult{Checked: 5}, second)

	pub.AssertExpectations(t)
}

func TestMonitor_CheckAFK_PublishFailureContinues(t *testing.T) {
	acts := new(mocks.ActivityRepository)
	users := new(mocks.UserRepository)
	pub := new(publisherMock)

	acts.On("ListSalesmanActivity", mock.Anything).Return([]models.SalesmanActivity{
		{SalesmanID: "s-1", LastActivity: minutesAgo(15), LastLogin: minutesAgo(60)},
		{SalesmanID: "s-2", LastActivity: minutesAgo(15), LastLogin: minutesAgo(60)},
	}, nil)
	users.On("GetByIDs", mock.Anything, mock.Anything).Return(map[string]models.User{}, nil)
	pub.On("PublishAFKAlert", mock.Anything, mock.MatchedBy(func(u models.User) bool { return u.ID == "s-1" }), mock.Anything).
		Return(models.Notification{}, errors.New("insert failed"))
	pub.On("PublishAFKAlert", mock.Anything, mock.MatchedBy(func(u models.User) bool { return u.ID == "s-2" }), mock.Anything).
		Return(models.Notification{ID: "n-2"}, nil)

	result, err := newTestMonitor(acts, users, pub).CheckAFK(context.Background())
	require.NoError(t, err)
	assert.Equal(t, CheckResult{Checked: 2, AlertsSent: 1, AlertFailed: 1}, result)
}

func TestMonitor_CheckAFK_RetriesAfterPublishFailure(t *testing.T) {
	acts := new(mocks.ActivityRepository)
	users := new(mocks.UserRepository)
	pub := new(publisherMock)

	acts.On("ListSalesmanActivity", mock.Anything).Return([]models.SalesmanActivity{
		{SalesmanID: "s-1", LastActivity: minutesAgo(15), LastLogin: minutesAgo(60)},
	}, nil)
	users.On("GetByIDs", mock.Anything, mock.Anything).Return(map[string]models.User{}, nil)
	pub.On("PublishAFKAlert", mock.Anything, mock.Anything, mock.Anything).
		Return(models.Notification{}, errors.New("insert failed")).Once()
	pub.On("PublishAFKAlert", mock.Anything, mock.Anything, mock.Anything).
		Return(models.Notification{ID: "n-1"}, nil).Once()

	m := newTestMonitor(acts, users, pub)

	first, err := m.CheckAFK(context.Background())
	require.NoError(t, err)
	assert.Equal(t, CheckResult{Checked: 1, AlertFailed: 1}, first)

	second, err := m.CheckAFK(context.Background())
	require.NoError(t, err)
	assert.Equal(t, CheckResult{Checked: 1, AlertsSent: 1}, second)

	third, err := m.CheckAFK(context.Background())
	require.NoError(t, err)
	assert.Equal(t, CheckResult{Checked: 1}, third)

	pub.AssertExpectations(t)
}

func TestMonitor_CheckAFK_PublishesDirectoryUser(t *testing.T) {
	acts := new(mocks.ActivityRepository)
	users := new(mocks.UserRepository)
	pub := new(publisherMock)

	directoryUser := models.User{ID: "s-1", Email: "alex@example.com", Role: models.RoleSalesman}
	acts.On("ListSalesmanActivity", mock.Anything).Return([]models.SalesmanActivity{
		{SalesmanID: "s-1", LastActivity: minutesAgo(15), LastLogin: minutesAgo(60)},
	}, nil)
	users.On("GetByIDs", mock.Anything, mock.Anything).Return(map[string]models.User{"s-1": directoryUser}, nil)
	pub.On("PublishAFKAlert", mock.Anything, directoryUser, minutesAgo(15)).
		Return(models.Notification{ID: "n-1"}, nil).Once()

	result, err := newTestMonitor(acts, users, pub).CheckAFK(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, result.AlertsSent)
	pub.AssertExpectations(t)
}
