package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/stanstork/leadwatch-api/internal/activity"
	"github.com/stanstork/leadwatch-api/internal/mocks"
	"github.com/stanstork/leadwatch-api/internal/models"
)

func TestActivityRecord_LoginUpsertsUser(t *testing.T) {
	acts := new(mocks.ActivityRepository)
	users := new(mocks.UserRepository)

	users.On("Upsert", mock.Anything, salesman.User()).Return(salesman.User(), nil)
	acts.On("Record", mock.Anything, salesman.UserID, models.ActivityActionLogin, map[string]interface{}(nil)).
		Return(models.ActivityLog{ID: "a-1", Action: models.ActivityActionLogin}, nil)

	h := NewActivityHandler(acts, users, nil, zerolog.Nop())
	rec := httptest.NewRecorder()
	h.Record(rec, newRequest(t, http.MethodPost, "/api/activity", map[string]string{"action": "login"}, &salesman, nil))

	require.Equal(t, http.StatusCreated, rec.Code)
	users.AssertExpectations(t)
	acts.AssertExpectations(t)
}

func TestActivityRecord_DefaultsToHeartbeat(t *testing.T) {
	acts := new(mocks.ActivityRepository)
	users := new(mocks.UserRepository)
	acts.On("Record", mock.Anything, salesman.UserID, models.ActivityActionHeartbeat, mock.Anything).
		Return(models.ActivityLog{ID: "a-2"}, nil)

	h := NewActivityHandler(acts, users, nil, zerolog.Nop())
	rec := httptest.NewRecorder()
	h.Record(rec, newRequest(t, http.MethodPost, "/api/activity", map[string]interface{}{}, &salesman, nil))

	require.Equal(t, http.StatusCreated, rec.Code)
	users.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything)
}

func TestActivityRecord_InvalidAction(t *testing.T) {
	h := NewActivityHandler(new(mocks.ActivityRepository), new(mocks.UserRepository), nil, zerolog.Nop())
	rec := httptest.NewRecorder()
	h.Record(rec, newRequest(t, http.MethodPost, "/api/activity", map[string]string{"action": "dance"}, &salesman, nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestActivityFeed(t *testing.T) {
	acts := new(mocks.ActivityRepository)
	acts.On("ListRecent", mock.Anything, "", 20).Return([]models.ActivityLog{{ID: "a-1"}, {ID: "a-2"}}, nil)

	h := NewActivityHandler(acts, new(mocks.UserRepository), nil, zerolog.Nop())
	rec := httptest.NewRecorder()
	h.Feed(rec, newRequest(t, http.MethodGet, "/api/activity?limit=20", nil, &admin, nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Activity []models.ActivityLog `json:"activity"`
	}
	decode(t, rec, &body)
	assert.Len(t, body.Activity, 2)
}

func TestSalesmenStatus(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	last := now.Add(-11 * time.Minute)
	login := now.Add(-time.Hour)

	acts := new(mocks.ActivityRepository)
	users := new(mocks.UserRepository)
	acts.On("ListSalesmanActivity", mock.Anything).Return([]models.SalesmanActivity{
		{SalesmanID: "sales-1", LastActivity: &last, LastLogin: &login},
	}, nil)
	users.On("GetByIDs", mock.Anything, []string{"sales-1"}).Return(map[string]models.User{
		"sales-1": {ID: "sales-1", FullName: "Sam"},
	}, nil)

	monitor := activity.NewMonitor(acts, users, nil, nil, zerolog.Nop(), activity.MonitorOptions{
		Now: func() time.Time { return now },
	})
	h := NewActivityHandler(acts, users, monitor, zerolog.Nop())

	rec := httptest.NewRecorder()
	h.SalesmenStatus(rec, newRequest(t, http.MethodGet, "/api/salesmen/status", nil, &admin, nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Salesmen []activity.SalesmanStatus `json:"salesmen"`
	}
	decode(t, rec, &body)
	require.Len(t, body.Salesmen, 1)
	assert.Equal(t, activity.StatusAFK, body.Salesmen[0].Status)
	assert.Equal(t, "Sam", body.Salesmen[0].Name)
}
