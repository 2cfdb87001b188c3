package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/stanstork/leadwatch-api/internal/models"
)

type ActivityRepository interface {
	Record(ctx context.Context, userID string, action models.ActivityAction, details map[string]interface{}) (models.ActivityLog, error)
	ListRecent(ctx context.Context, userID string, limit int) ([]models.ActivityLog, error)
	ListSalesmanActivity(ctx context.Context) ([]models.SalesmanActivity, error)
}

type activityRepository struct {
	db *sql.DB
}

func NewActivityRepository(db *sql.DB) ActivityRepository {
	return &activityRepository{db: db}
}

func (r *activityRepository) Record(ctx context.Context, userID string, action models.ActivityAction, details map[string]interface{}) (models.ActivityLog, error) {
	if !action.IsValid() {
		return models.ActivityLog{}, fmt.Errorf("invalid activity action %q", action)
	}

	var detailsRaw interface{}
	if len(details) > 0 {
		bytes, err := json.Marshal(details)
		if err != nil {
			return models.ActivityLog{}, fmt.Errorf("marshal details: %w", err)
		}
		detailsRaw = bytes
	}

	const query = `
		INSERT INTO activity_logs (id, user_id, action, details)
		VALUES ($1, $2, $3, $4)
		RETURNING id, user_id, action, details, created_at`

	return scanActivity(r.db.QueryRowContext(ctx, query, uuid.NewString(), userID, action, detailsRaw))
}

// ListRecent returns the newest activity first. An empty userID lists the
// whole team feed.
func (r *activityRepository) ListRecent(ctx context.Context, userID string, limit int) ([]models.ActivityLog, error) {
	limit = clampLimit(limit, DefaultActivityLimit, MaxActivityLimit)

	const query = `
		SELECT id, user_id, action, details, created_at
		FROM activity_logs
		WHERE ($1 = '' OR user_id = $1)
		ORDER BY created_at DESC, id
		LIMIT $2`

	rows, err := r.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var logs []models.ActivityLog
	for rows.Next() {
		entry, err := scanActivity(rows)
		if err != nil {
			return nil, err
		}
		logs = append(logs, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return logs, nil
}

// ListSalesmanActivity aggregates, per salesman, the newest activity and the
// newest login and logout, which together decide whether a session is open.
func (r *activityRepository) ListSalesmanActivity(ctx context.Context) ([]models.SalesmanActivity, error) {
	const query = `
		SELECT ur.user_id,
		       MAX(al.created_at),
		       MAX(al.created_at) FILTER (WHERE al.action = 'login'),
		       MAX(al.created_at) FILTER (WHERE al.action = 'logout')
		FROM user_roles ur
		LEFT JOIN activity_logs al ON al.user_id = ur.user_id
		WHERE ur.role = 'salesman'
		GROUP BY ur.user_id
		ORDER BY ur.user_id`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []models.SalesmanActivity
	for rows.Next() {
		var (
			entry                       models.SalesmanActivity
			lastActivity, login, logout sql.NullTime
		)
		if err := rows.Scan(&entry.SalesmanID, &lastActivity, &login, &logout); err != nil {
			return nil, err
		}
		entry.LastActivity = timePtr(lastActivity)
		entry.LastLogin = timePtr(login)
		entry.LastLogout = timePtr(logout)
		result = append(result, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func scanActivity(scanner interface {
	Scan(dest ...interface{}) error
}) (models.ActivityLog, error) {
	var (
		entry      models.ActivityLog
		detailsRaw []byte
	)
	if err := scanner.Scan(&entry.ID, &entry.UserID, &entry.Action, &detailsRaw, &entry.CreatedAt); err != nil {
		return models.ActivityLog{}, err
	}
	if len(detailsRaw) > 0 {
		entry.Details = detailsRaw
	}
	return entry, nil
}

func timePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}
