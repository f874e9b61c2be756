package notifications

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/harvestlink/harvestlink-backend/pkg/db/models"
	"github.com/harvestlink/harvestlink-backend/pkg/enums"
)

func setupNotificationsTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	statements := []string{
		`CREATE TABLE IF NOT EXISTS notifications (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  user_id INTEGER,
  product_id INTEGER,
  order_id INTEGER,
  type TEXT NOT NULL,
  message TEXT NOT NULL,
  read_at DATETIME,
  created_at DATETIME
);`,
		`CREATE UNIQUE INDEX IF NOT EXISTS ux_notifications_product_state_alert
  ON notifications (product_id, type)
  WHERE type IN ('low_stock', 'expired') AND read_at IS NULL;`,
		`CREATE TABLE IF NOT EXISTS milestone_records (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  user_id INTEGER NOT NULL,
  milestone_type TEXT NOT NULL,
  milestone_value NUMERIC NOT NULL,
  created_at DATETIME,
  UNIQUE (user_id, milestone_type, milestone_value)
);`,
	}
	for _, stmt := range statements {
		require.NoError(t, gdb.Exec(stmt).Error)
	}
	return gdb
}

func TestUpsertStateAlertUpdatesUnreadRow(t *testing.T) {
	gdb := setupNotificationsTestDB(t)
	repo := NewRepository(gdb)
	ctx := context.Background()

	require.NoError(t, repo.UpsertStateAlert(ctx, 3, 11, enums.NotificationLowStock, "Only 5 left"))
	require.NoError(t, repo.UpsertStateAlert(ctx, 3, 11, enums.NotificationLowStock, "Only 2 left"))

	var rows []models.Notification
	require.NoError(t, gdb.Where("product_id = ?", 11).Find(&rows).Error)
	require.Len(t, rows, 1, "unread alert must be updated in place")
	assert.Equal(t, "Only 2 left", rows[0].Message)
	require.NotNil(t, rows[0].UserID)
	assert.Equal(t, int64(3), *rows[0].UserID, "alert must be addressed to the product owner")
}

func TestUpsertStateAlertReachableAndPrunable(t *testing.T) {
	gdb := setupNotificationsTestDB(t)
	repo := NewRepository(gdb)
	ctx := context.Background()

	require.NoError(t, repo.UpsertStateAlert(ctx, 3, 42, enums.NotificationLowStock, "Only 1 left"))

	rows, _, err := repo.List(ctx, listNotificationsParams{UserID: 3, Limit: 10, UnreadOnly: true})
	require.NoError(t, err)
	require.Len(t, rows, 1, "the owner must see the alert")

	result, err := repo.MarkRead(ctx, 3, rows[0].ID, time.Now().Add(-40*24*time.Hour))
	require.NoError(t, err)
	require.True(t, result.Updated)

	require.NoError(t, gdb.Model(&models.Notification{}).
		Where("id = ?", rows[0].ID).
		Update("created_at", time.Now().Add(-40*24*time.Hour)).Error)

	deleted, err := repo.DeleteReadOlderThan(ctx, time.Now().Add(-30*24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted, "read alerts must age out with the cleanup job")
}

func TestUpsertStateAlertInsertsAfterRead(t *testing.T) {
	gdb := setupNotificationsTestDB(t)
	repo := NewRepository(gdb)
	ctx := context.Background()

	require.NoError(t, repo.UpsertStateAlert(ctx, 3, 11, enums.NotificationLowStock, "Only 5 left"))

	now := time.Now()
	require.NoError(t, gdb.Model(&models.Notification{}).
		Where("product_id = ?", 11).
		Update("read_at", now).Error)

	require.NoError(t, repo.UpsertStateAlert(ctx, 3, 11, enums.NotificationLowStock, "Only 1 left"))

	var count int64
	require.NoError(t, gdb.Model(&models.Notification{}).Where("product_id = ?", 11).Count(&count).Error)
	assert.Equal(t, int64(2), count, "a read alert must not block a fresh one")
}

func TestUpsertStateAlertSeparateTypes(t *testing.T) {
	gdb := setupNotificationsTestDB(t)
	repo := NewRepository(gdb)
	ctx := context.Background()

	require.NoError(t, repo.UpsertStateAlert(ctx, 3, 11, enums.NotificationLowStock, "Only 5 left"))
	require.NoError(t, repo.UpsertStateAlert(ctx, 3, 11, enums.NotificationExpired, "Past expiry date"))

	var count int64
	require.NoError(t, gdb.Model(&models.Notification{}).Where("product_id = ?", 11).Count(&count).Error)
	assert.Equal(t, int64(2), count)
}

func seedNotification(t *testing.T, gdb *gorm.DB, userID int64, createdAt time.Time, read bool) *models.Notification {
	t.Helper()

	n := &models.Notification{
		UserID:    &userID,
		Type:      enums.NotificationOrderPlaced,
		Message:   "Order placed",
		CreatedAt: createdAt,
	}
	if read {
		readAt := createdAt.Add(time.Minute)
		n.ReadAt = &readAt
	}
	require.NoError(t, gdb.Create(n).Error)
	return n
}

func TestListPagination(t *testing.T) {
	gdb := setupNotificationsTestDB(t)
	repo := NewRepository(gdb)
	ctx := context.Background()

	base := time.Now().Add(-time.Hour)
	for i := 0; i < 5; i++ {
		seedNotification(t, gdb, 7, base.Add(time.Duration(i)*time.Minute), false)
	}

	firstPage, next, err := repo.List(ctx, listNotificationsParams{UserID: 7, Limit: 3})
	require.NoError(t, err)
	assert.Len(t, firstPage, 3)
	require.NotNil(t, next)

	secondPage, last, err := repo.List(ctx, listNotificationsParams{UserID: 7, Limit: 3, Cursor: next})
	require.NoError(t, err)
	assert.Len(t, secondPage, 2)
	assert.Nil(t, last)

	// newest first, no overlap
	assert.True(t, firstPage[0].CreatedAt.After(secondPage[0].CreatedAt))
}

func TestListUnreadOnly(t *testing.T) {
	gdb := setupNotificationsTestDB(t)
	repo := NewRepository(gdb)
	ctx := context.Background()

	base := time.Now().Add(-time.Hour)
	seedNotification(t, gdb, 7, base, true)
	unread := seedNotification(t, gdb, 7, base.Add(time.Minute), false)

	rows, _, err := repo.List(ctx, listNotificationsParams{UserID: 7, Limit: 10, UnreadOnly: true})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, unread.ID, rows[0].ID)
}

func seedBroadcast(t *testing.T, gdb *gorm.DB, createdAt time.Time) *models.Notification {
	t.Helper()

	n := &models.Notification{
		Type:      enums.NotificationNewProduct,
		Message:   "New product available: Heirloom Tomatoes.",
		CreatedAt: createdAt,
	}
	require.NoError(t, gdb.Create(n).Error)
	return n
}

func TestListIncludesBroadcastRows(t *testing.T) {
	gdb := setupNotificationsTestDB(t)
	repo := NewRepository(gdb)
	ctx := context.Background()

	base := time.Now().Add(-time.Hour)
	own := seedNotification(t, gdb, 7, base, false)
	broadcast := seedBroadcast(t, gdb, base.Add(time.Minute))
	seedNotification(t, gdb, 8, base, false)

	rows, _, err := repo.List(ctx, listNotificationsParams{UserID: 7, Limit: 10})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, broadcast.ID, rows[0].ID)
	assert.Equal(t, own.ID, rows[1].ID)

	// every user sees the broadcast, not only the seeding one
	rows, _, err = repo.List(ctx, listNotificationsParams{UserID: 9, Limit: 10})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, broadcast.ID, rows[0].ID)
}

func TestMarkReadBroadcastRow(t *testing.T) {
	gdb := setupNotificationsTestDB(t)
	repo := NewRepository(gdb)
	ctx := context.Background()

	broadcast := seedBroadcast(t, gdb, time.Now().Add(-time.Hour))

	result, err := repo.MarkRead(ctx, 7, broadcast.ID, time.Now())
	require.NoError(t, err)
	assert.True(t, result.Found)
	assert.True(t, result.Updated)
}

func TestMarkRead(t *testing.T) {
	gdb := setupNotificationsTestDB(t)
	repo := NewRepository(gdb)
	ctx := context.Background()

	n := seedNotification(t, gdb, 7, time.Now(), false)

	result, err := repo.MarkRead(ctx, 7, n.ID, time.Now())
	require.NoError(t, err)
	assert.True(t, result.Found)
	assert.True(t, result.Updated)

	// already read: found but not updated
	result, err = repo.MarkRead(ctx, 7, n.ID, time.Now())
	require.NoError(t, err)
	assert.True(t, result.Found)
	assert.False(t, result.Updated)

	// wrong user: not found
	result, err = repo.MarkRead(ctx, 8, n.ID, time.Now())
	require.NoError(t, err)
	assert.False(t, result.Found)
}

func TestMarkAllRead(t *testing.T) {
	gdb := setupNotificationsTestDB(t)
	repo := NewRepository(gdb)
	ctx := context.Background()

	base := time.Now().Add(-time.Hour)
	seedNotification(t, gdb, 7, base, false)
	seedNotification(t, gdb, 7, base.Add(time.Minute), false)
	seedNotification(t, gdb, 8, base, false)

	count, err := repo.MarkAllRead(ctx, 7, time.Now())
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	var unread int64
	require.NoError(t, gdb.Model(&models.Notification{}).
		Where("user_id = ? AND read_at IS NULL", 8).
		Count(&unread).Error)
	assert.Equal(t, int64(1), unread, "other users must be untouched")
}

func TestDeleteReadOlderThan(t *testing.T) {
	gdb := setupNotificationsTestDB(t)
	repo := NewRepository(gdb)
	ctx := context.Background()

	old := time.Now().Add(-40 * 24 * time.Hour)
	recent := time.Now().Add(-time.Hour)
	seedNotification(t, gdb, 7, old, true)
	seedNotification(t, gdb, 7, old, false)
	seedNotification(t, gdb, 7, recent, true)

	deleted, err := repo.DeleteReadOlderThan(ctx, time.Now().Add(-30*24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted, "only old read rows are pruned")

	var remaining int64
	require.NoError(t, gdb.Model(&models.Notification{}).Count(&remaining).Error)
	assert.Equal(t, int64(2), remaining)
}

func TestCreateMilestoneRecordUnique(t *testing.T) {
	gdb := setupNotificationsTestDB(t)
	repo := NewRepository(gdb)
	ctx := context.Background()

	record := &models.MilestoneRecord{
		UserID:         7,
		MilestoneType:  enums.MilestoneEarnings,
		MilestoneValue: decimal.NewFromInt(1000),
	}
	require.NoError(t, repo.CreateMilestoneRecord(ctx, record))

	dup := &models.MilestoneRecord{
		UserID:         7,
		MilestoneType:  enums.MilestoneEarnings,
		MilestoneValue: decimal.NewFromInt(1000),
	}
	require.Error(t, repo.CreateMilestoneRecord(ctx, dup))
}
