package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/stanstork/leadwatch-api/internal/models"
)

// regenerationLockKey serializes regeneration passes across every replica
// sharing the database.
const regenerationLockKey int64 = 0x6c65616477617463

// insertBatchSize keeps multi-row inserts well under the 65535 bind-parameter
// ceiling of the Postgres wire protocol.
const insertBatchSize = 1000

type NotificationRepository interface {
	Create(ctx context.Context, params CreateNotificationParams) (models.Notification, error)
	ReplaceGenerated(ctx context.Context, batch []CreateNotificationParams, policy RetentionPolicy) (int, error)
	List(ctx context.Context, filter NotificationFilter) ([]models.Notification, error)
	CountUnread(ctx context.Context, filter NotificationFilter) (int, error)
	SetRead(ctx context.Context, scope, notificationID string, read bool) (models.Notification, error)
	MarkAllRead(ctx context.Context, filter NotificationFilter) (int64, error)
	Delete(ctx context.Context, notificationID string) error
	PurgeOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

type CreateNotificationParams struct {
	Type       models.NotificationType
	Priority   models.NotificationPriority
	SalesmanID *string
	Title      string
	Message    string
	Payload    map[string]interface{}
}

// NotificationFilter scopes reads. SalesmanID limits rows to one target and
// Types to a set of kinds; empty values mean no restriction.
type NotificationFilter struct {
	SalesmanID string
	Types      []models.NotificationType
	UnreadOnly bool
	Limit      int
}

func (f NotificationFilter) typeArray() interface{} {
	types := make([]string, 0, len(f.Types))
	for _, t := range f.Types {
		types = append(types, string(t))
	}
	return pq.Array(types)
}

// RetentionPolicy controls what a regeneration pass purges besides the
// previously generated rows. A zero Window wipes every notification.
type RetentionPolicy struct {
	Window time.Duration
}

type notificationRepository struct {
	db  *sql.DB
	now func() time.Time
}

func NewNotificationRepository(db *sql.DB) NotificationRepository {
	return &notificationRepository{db: db, now: time.Now}
}

const notificationColumns = `id, type, priority, salesman_id, title, message, payload, is_read, created_at`

func (r *notificationRepository) Create(ctx context.Context, params CreateNotificationParams) (models.Notification, error) {
	args, err := notificationArgs(params)
	if err != nil {
		return models.Notification{}, err
	}

	query := `
		INSERT INTO admin_notifications (id, type, priority, salesman_id, title, message, payload)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING ` + notificationColumns

	return scanNotification(r.db.QueryRowContext(ctx, query, args...))
}

// ReplaceGenerated swaps the generated notification set in one transaction:
// readers observe either the previous set or the new one, never a gap.
func (r *notificationRepository) ReplaceGenerated(ctx context.Context, batch []CreateNotificationParams, policy RetentionPolicy) (int, error) {
	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return 0, errors.Wrap(err, "begin regeneration transaction")
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, regenerationLockKey); err != nil {
		return 0, errors.Wrap(err, "acquire regeneration lock")
	}

	generated := make([]string, 0, len(models.GeneratedNotificationTypes))
	for _, t := range models.GeneratedNotificationTypes {
		generated = append(generated, string(t))
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM admin_notifications WHERE type = ANY($1)`, pq.Array(generated)); err != nil {
		return 0, errors.Wrap(err, "delete generated notifications")
	}

	if policy.Window > 0 {
		cutoff := r.now().Add(-policy.Window)
		if _, err := tx.ExecContext(ctx, `DELETE FROM admin_notifications WHERE created_at < $1`, cutoff); err != nil {
			return 0, errors.Wrap(err, "purge expired notifications")
		}
	} else {
		if _, err := tx.ExecContext(ctx, `DELETE FROM admin_notifications`); err != nil {
			return 0, errors.Wrap(err, "wipe notifications")
		}
	}

	inserted := 0
	for start := 0; start < len(batch); start += insertBatchSize {
		end := start + insertBatchSize
		if end > len(batch) {
			end = len(batch)
		}
		n, err := insertNotifications(ctx, tx, batch[start:end])
		if err != nil {
			return 0, errors.Wrap(err, "insert generated notifications")
		}
		inserted += n
	}

	if err := tx.Commit(); err != nil {
		return 0, errors.Wrap(err, "commit regeneration transaction")
	}
	return inserted, nil
}

func insertNotifications(ctx context.Context, tx *sql.Tx, batch []CreateNotificationParams) (int, error) {
	if len(batch) == 0 {
		return 0, nil
	}

	const cols = 7
	var (
		sb   strings.Builder
		args = make([]interface{}, 0, len(batch)*cols)
	)
	sb.WriteString(`INSERT INTO admin_notifications (id, type, priority, salesman_id, title, message, payload) VALUES `)
	for i, params := range batch {
		rowArgs, err := notificationArgs(params)
		if err != nil {
			return 0, err
		}
		if i > 0 {
			sb.WriteString(", ")
		}
		base := i * cols
		fmt.Fprintf(&sb, "($%d, $%d, $%d, $%d, $%d, $%d, $%d)",
			base+1, base+2, base+3, base+4, base+5, base+6, base+7)
		args = append(args, rowArgs...)
	}

	res, err := tx.ExecContext(ctx, sb.String(), args...)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

func notificationArgs(params CreateNotificationParams) ([]interface{}, error) {
	if !params.Type.IsValid() {
		return nil, fmt.Errorf("invalid notification type %q", params.Type)
	}
	priority := params.Priority
	if priority == "" {
		priority = models.NotificationPriorityLow
	}

	var salesmanID interface{}
	if params.SalesmanID != nil && strings.TrimSpace(*params.SalesmanID) != "" {
		salesmanID = strings.TrimSpace(*params.SalesmanID)
	}

	var payload interface{}
	if len(params.Payload) > 0 {
		bytes, err := json.Marshal(params.Payload)
		if err != nil {
			return nil, fmt.Errorf("marshal payload: %w", err)
		}
		payload = bytes
	}

	return []interface{}{
		uuid.NewString(),
		params.Type,
		priority,
		salesmanID,
		strings.TrimSpace(params.Title),
		strings.TrimSpace(params.Message),
		payload,
	}, nil
}

func (r *notificationRepository) List(ctx context.Context, filter NotificationFilter) ([]models.Notification, error) {
	filter.Limit = clampLimit(filter.Limit, DefaultNotificationLimit, MaxNotificationLimit)

	query := `
		SELECT ` + notificationColumns + `
		FROM admin_notifications
		WHERE ($1 = '' OR salesman_id = $1)
		  AND (cardinality($2::text[]) = 0 OR type = ANY($2))
		  AND (NOT $3 OR is_read = FALSE)
		ORDER BY created_at DESC, id
		LIMIT $4`

	rows, err := r.db.QueryContext(ctx, query, strings.TrimSpace(filter.SalesmanID), filter.typeArray(), filter.UnreadOnly, filter.Limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var notifications []models.Notification
	for rows.Next() {
		notif, err := scanNotification(rows)
		if err != nil {
			return nil, err
		}
		notifications = append(notifications, notif)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return notifications, nil
}

func (r *notificationRepository) CountUnread(ctx context.Context, filter NotificationFilter) (int, error) {
	const query = `
		SELECT COUNT(*)
		FROM admin_notifications
		WHERE is_read = FALSE
		  AND ($1 = '' OR salesman_id = $1)
		  AND (cardinality($2::text[]) = 0 OR type = ANY($2))`

	var count int
	err := r.db.QueryRowContext(ctx, query, strings.TrimSpace(filter.SalesmanID), filter.typeArray()).Scan(&count)
	return count, err
}

func (r *notificationRepository) SetRead(ctx context.Context, scope, notificationID string, read bool) (models.Notification, error) {
	query := `
		UPDATE admin_notifications
		SET is_read = $3
		WHERE id = $1 AND ($2 = '' OR salesman_id = $2)
		RETURNING ` + notificationColumns
	row := r.db.QueryRowContext(ctx, query, strings.TrimSpace(notificationID), strings.TrimSpace(scope), read)
	return scanNotification(row)
}

func (r *notificationRepository) MarkAllRead(ctx context.Context, filter NotificationFilter) (int64, error) {
	const query = `
		UPDATE admin_notifications
		SET is_read = TRUE
		WHERE is_read = FALSE
		  AND ($1 = '' OR salesman_id = $1)
		  AND (cardinality($2::text[]) = 0 OR type = ANY($2))`

	res, err := r.db.ExecContext(ctx, query, strings.TrimSpace(filter.SalesmanID), filter.typeArray())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *notificationRepository) Delete(ctx context.Context, notificationID string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM admin_notifications WHERE id = $1`, strings.TrimSpace(notificationID))
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (r *notificationRepository) PurgeOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM admin_notifications WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func scanNotification(scanner interface {
	Scan(dest ...interface{}) error
}) (models.Notification, error) {
	var (
		notif      models.Notification
		salesmanID sql.NullString
		payloadRaw []byte
	)

	if err := scanner.Scan(
		&notif.ID,
		&notif.Type,
		&notif.Priority,
		&salesmanID,
		&notif.Title,
		&notif.Message,
		&payloadRaw,
		&notif.IsRead,
		&notif.CreatedAt,
	); err != nil {
		return models.Notification{}, err
	}

	if salesmanID.Valid {
		val := salesmanID.String
		notif.SalesmanID = &val
	}
	if len(payloadRaw) > 0 {
		notif.Payload = payloadRaw
	}
	return notif, nil
}
