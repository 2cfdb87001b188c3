package repository

import (
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stanstork/leadwatch-api/internal/models"
	"github.com/stanstork/leadwatch-api/internal/testutil"
)

func truncateAll(t *testing.T, db *sql.DB) {
	t.Helper()
	_, err := db.Exec(`TRUNCATE admin_notifications, leads, activity_logs, user_roles`)
	require.NoError(t, err)
}

func strPtr(s string) *string { return &s }

func TestRepositories_Postgres(t *testing.T) {
	ctx := context.Background()
	db, cleanup := testutil.SetupPostgresContainer(ctx, t)
	defer cleanup()

	t.Run("ReplaceGenerated is idempotent and keeps AFK alerts", func(t *testing.T) {
		truncateAll(t, db)
		repo := NewNotificationRepository(db)

		afk, err := repo.Create(ctx, CreateNotificationParams{
			Type:       models.NotificationTypeInactiveSalesman,
			Priority:   models.NotificationPriorityHigh,
			SalesmanID: strPtr("s1"),
			Title:      "AFK Alert: Jane",
		})
		require.NoError(t, err)

		batch := []CreateNotificationParams{
			{Type: models.NotificationTypeStaleLead, Priority: models.NotificationPriorityMedium, SalesmanID: strPtr("s1"), Title: "6 overdue leads", Payload: map[string]interface{}{"bucket": "overdue"}},
			{Type: models.NotificationTypeNoCalls, SalesmanID: strPtr("s1"), Title: "2 uncalled leads"},
		}

		for i := 0; i < 2; i++ {
			n, err := repo.ReplaceGenerated(ctx, batch, RetentionPolicy{Window: 24 * time.Hour})
			require.NoError(t, err)
			assert.Equal(t, 2, n)
		}

		all, err := repo.List(ctx, NotificationFilter{})
		require.NoError(t, err)
		assert.Len(t, all, 3)

		var ids []string
		for _, n := range all {
			ids = append(ids, n.ID)
		}
		assert.Contains(t, ids, afk.ID)
	})

	t.Run("concurrent ReplaceGenerated calls serialize", func(t *testing.T) {
		truncateAll(t, db)
		repo := NewNotificationRepository(db)

		afk, err := repo.Create(ctx, CreateNotificationParams{
			Type:       models.NotificationTypeInactiveSalesman,
			SalesmanID: strPtr("s1"),
			Title:      "AFK Alert: Jane",
		})
		require.NoError(t, err)

		batch := []CreateNotificationParams{
			{Type: models.NotificationTypeStaleLead, SalesmanID: strPtr("s1"), Title: "6 overdue leads"},
			{Type: models.NotificationTypeStaleLead, SalesmanID: strPtr("s2"), Title: "2 stale leads"},
			{Type: models.NotificationTypeNoCalls, SalesmanID: strPtr("s1"), Title: "3 uncalled leads"},
		}

		const callers = 8
		var wg sync.WaitGroup
		errs := make(chan error, callers)
		for i := 0; i < callers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := repo.ReplaceGenerated(ctx, batch, RetentionPolicy{Window: 24 * time.Hour})
				errs <- err
			}()
		}
		wg.Wait()
		close(errs)
		for err := range errs {
			require.NoError(t, err)
		}

		generated, err := repo.List(ctx, NotificationFilter{Types: models.GeneratedNotificationTypes})
		require.NoError(t, err)
		assert.Len(t, generated, len(batch))

		alerts, err := repo.List(ctx, NotificationFilter{Types: []models.NotificationType{models.NotificationTypeInactiveSalesman}})
		require.NoError(t, err)
		require.Len(t, alerts, 1)
		assert.Equal(t, afk.ID, alerts[0].ID)
	})

	t.Run("retention window purges old rows and zero wipes everything", func(t *testing.T) {
		truncateAll(t, db)
		repo := NewNotificationRepository(db)

		old, err := repo.Create(ctx, CreateNotificationParams{Type: models.NotificationTypeInactiveSalesman, Title: "old"})
		require.NoError(t, err)
		_, err = db.Exec(`UPDATE admin_notifications SET created_at = NOW() - INTERVAL '48 hours' WHERE id = $1`, old.ID)
		require.NoError(t, err)
		_, err = repo.Create(ctx, CreateNotificationParams{Type: models.NotificationTypeInactiveSalesman, Title: "recent"})
		require.NoError(t, err)

		_, err = repo.ReplaceGenerated(ctx, nil, RetentionPolicy{Window: 24 * time.Hour})
		require.NoError(t, err)

		left, err := repo.List(ctx, NotificationFilter{})
		require.NoError(t, err)
		require.Len(t, left, 1)
		assert.Equal(t, "recent", left[0].Title)

		_, err = repo.ReplaceGenerated(ctx, nil, RetentionPolicy{})
		require.NoError(t, err)

		count, err := repo.CountUnread(ctx, NotificationFilter{})
		require.NoError(t, err)
		assert.Zero(t, count)
	})

	t.Run("SetRead respects scope and filters narrow counts", func(t *testing.T) {
		truncateAll(t, db)
		repo := NewNotificationRepository(db)

		mine, err := repo.Create(ctx, CreateNotificationParams{Type: models.NotificationTypeStaleLead, SalesmanID: strPtr("s1"), Title: "mine"})
		require.NoError(t, err)
		_, err = repo.Create(ctx, CreateNotificationParams{Type: models.NotificationTypeInactiveSalesman, SalesmanID: strPtr("s1"), Title: "afk"})
		require.NoError(t, err)

		_, err = repo.SetRead(ctx, "s2", mine.ID, true)
		assert.ErrorIs(t, err, sql.ErrNoRows)

		updated, err := repo.SetRead(ctx, "s1", mine.ID, true)
		require.NoError(t, err)
		assert.True(t, updated.IsRead)

		updated, err = repo.SetRead(ctx, "", mine.ID, false)
		require.NoError(t, err)
		assert.False(t, updated.IsRead)

		generatedOnly := NotificationFilter{SalesmanID: "s1", Types: models.GeneratedNotificationTypes}
		count, err := repo.CountUnread(ctx, generatedOnly)
		require.NoError(t, err)
		assert.Equal(t, 1, count)

		marked, err := repo.MarkAllRead(ctx, generatedOnly)
		require.NoError(t, err)
		assert.Equal(t, int64(1), marked)

		count, err = repo.CountUnread(ctx, NotificationFilter{})
		require.NoError(t, err)
		assert.Equal(t, 1, count)

		assert.ErrorIs(t, repo.Delete(ctx, "00000000-0000-0000-0000-000000000000"), sql.ErrNoRows)
		assert.NoError(t, repo.Delete(ctx, mine.ID))
	})

	t.Run("open leads exclude closed stages and call outcomes move last contact", func(t *testing.T) {
		truncateAll(t, db)
		repo := NewLeadRepository(db)

		open, err := repo.Create(ctx, models.Lead{SalesmanID: "s1", Name: "Acme"})
		require.NoError(t, err)
		assert.Equal(t, models.LeadStatusProspect, open.Status)
		assert.Equal(t, models.CallStatusNotCalled, open.CallStatus)
		assert.Nil(t, open.LastContact)

		_, err = repo.Create(ctx, models.Lead{SalesmanID: "s1", Name: "Won", Status: models.LeadStatusClosedWon})
		require.NoError(t, err)
		_, err = repo.Create(ctx, models.Lead{SalesmanID: "s2", Name: "Other"})
		require.NoError(t, err)

		ids, err := repo.ListSalesmanIDs(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"s1", "s2"}, ids)

		leads, err := repo.ListOpenBySalesman(ctx, "s1")
		require.NoError(t, err)
		require.Len(t, leads, 1)
		assert.Equal(t, open.ID, leads[0].ID)

		_, err = repo.UpdateCallStatus(ctx, "s2", open.ID, models.CallStatusAnswered)
		assert.ErrorIs(t, err, sql.ErrNoRows)

		called, err := repo.UpdateCallStatus(ctx, "s1", open.ID, models.CallStatusAnswered)
		require.NoError(t, err)
		require.NotNil(t, called.LastContact)
		assert.Equal(t, models.CallStatusAnswered, called.CallStatus)

		closed, err := repo.UpdateStatus(ctx, "", open.ID, models.LeadStatusClosedLost)
		require.NoError(t, err)
		assert.Equal(t, models.LeadStatusClosedLost, closed.Status)

		leads, err = repo.ListOpenBySalesman(ctx, "s1")
		require.NoError(t, err)
		assert.Empty(t, leads)
	})

	t.Run("salesman activity reports open sessions", func(t *testing.T) {
		truncateAll(t, db)
		users := NewUserRepository(db)
		activity := NewActivityRepository(db)

		for _, u := range []models.User{
			{ID: "s1", Role: models.RoleSalesman, FullName: "Jane"},
			{ID: "s2", Role: models.RoleSalesman},
			{ID: "a1", Role: models.RoleAdmin},
		} {
			_, err := users.Upsert(ctx, u)
			require.NoError(t, err)
		}

		_, err := activity.Record(ctx, "s1", models.ActivityActionLogin, nil)
		require.NoError(t, err)
		_, err = activity.Record(ctx, "s1", models.ActivityActionHeartbeat, map[string]interface{}{"page": "leads"})
		require.NoError(t, err)

		entries, err := activity.ListSalesmanActivity(ctx)
		require.NoError(t, err)
		require.Len(t, entries, 2)

		assert.Equal(t, "s1", entries[0].SalesmanID)
		assert.True(t, entries[0].HasSession())
		require.NotNil(t, entries[0].LastActivity)

		assert.Equal(t, "s2", entries[1].SalesmanID)
		assert.False(t, entries[1].HasSession())
		assert.Nil(t, entries[1].LastActivity)

		recent, err := activity.ListRecent(ctx, "s1", 10)
		require.NoError(t, err)
		assert.Len(t, recent, 2)

		byID, err := users.GetByIDs(ctx, []string{"s1", "missing"})
		require.NoError(t, err)
		assert.Len(t, byID, 1)
		assert.Equal(t, "Jane", byID["s1"].DisplayName())
	})
}
