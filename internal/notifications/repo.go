package notifications

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/harvestlink/harvestlink-backend/pkg/db"
	"github.com/harvestlink/harvestlink-backend/pkg/db/models"
	"github.com/harvestlink/harvestlink-backend/pkg/enums"
	"github.com/harvestlink/harvestlink-backend/pkg/pagination"
)

// Repository exposes persistence helpers for notifications and milestone records.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, notification *models.Notification) error
	UpsertStateAlert(ctx context.Context, userID, productID int64, alertType enums.NotificationType, message string) error
	List(ctx context.Context, params listNotificationsParams) ([]models.Notification, *pagination.Cursor, error)
	MarkRead(ctx context.Context, userID, notificationID int64, now time.Time) (notificationMarkResult, error)
	MarkAllRead(ctx context.Context, userID int64, now time.Time) (int64, error)
	DeleteReadOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
	CreateMilestoneRecord(ctx context.Context, record *models.MilestoneRecord) error
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns a notifications repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

type listNotificationsParams struct {
	UserID     int64
	Limit      int
	Cursor     *pagination.Cursor
	UnreadOnly bool
}

type notificationMarkResult struct {
	Updated bool
	Found   bool
}

func (r *repositoryImpl) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repositoryImpl{db: tx}
}

func (r *repositoryImpl) Create(ctx context.Context, notification *models.Notification) error {
	return r.db.WithContext(ctx).Create(notification).Error
}

// UpsertStateAlert refreshes the message of an existing unread alert for the
// product, or inserts a new row addressed to the product's owner when none is
// pending. A lost insert race just means another writer created the row; the
// update is retried against it.
func (r *repositoryImpl) UpsertStateAlert(ctx context.Context, userID, productID int64, alertType enums.NotificationType, message string) error {
	update := func() (int64, error) {
		result := r.db.WithContext(ctx).
			Model(&models.Notification{}).
			Where("product_id = ? AND type = ? AND read_at IS NULL", productID, alertType).
			Update("message", message)
		return result.RowsAffected, result.Error
	}

	affected, err := update()
	if err != nil {
		return err
	}
	if affected > 0 {
		return nil
	}

	notification := &models.Notification{
		UserID:    &userID,
		ProductID: &productID,
		Type:      alertType,
		Message:   message,
	}
	if err := r.db.WithContext(ctx).Create(notification).Error; err != nil {
		if db.IsUniqueViolation(err) {
			_, retryErr := update()
			return retryErr
		}
		return err
	}
	return nil
}

func (r *repositoryImpl) List(ctx context.Context, params listNotificationsParams) ([]models.Notification, *pagination.Cursor, error) {
	limit := pagination.LimitWithBuffer(params.Limit)
	normalized := pagination.NormalizeLimit(params.Limit)
	// rows with no user (new_product, supplier_added) are broadcast to everyone
	query := r.db.WithContext(ctx).Model(&models.Notification{}).
		Where("user_id = ? OR user_id IS NULL", params.UserID)
	if params.UnreadOnly {
		query = query.Where("read_at IS NULL")
	}
	if params.Cursor != nil {
		query = query.Where(
			"(created_at < ?) OR (created_at = ? AND id < ?)",
			params.Cursor.CreatedAt, params.Cursor.CreatedAt, params.Cursor.ID,
		)
	}

	var notifications []models.Notification
	if err := query.Order("created_at DESC, id DESC").Limit(limit).Find(&notifications).Error; err != nil {
		return nil, nil, err
	}

	if len(notifications) > normalized {
		next := notifications[normalized]
		notifications = notifications[:normalized]
		return notifications, &pagination.Cursor{CreatedAt: next.CreatedAt, ID: next.ID}, nil
	}
	return notifications, nil, nil
}

func (r *repositoryImpl) MarkRead(ctx context.Context, userID, notificationID int64, now time.Time) (notificationMarkResult, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("id = ? AND (user_id = ? OR user_id IS NULL) AND read_at IS NULL", notificationID, userID).
		UpdateColumn("read_at", now)
	if result.Error != nil {
		return notificationMarkResult{}, result.Error
	}

	mark := notificationMarkResult{Updated: result.RowsAffected > 0}
	if result.RowsAffected > 0 {
		mark.Found = true
		return mark, nil
	}

	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("id = ? AND (user_id = ? OR user_id IS NULL)", notificationID, userID).
		Count(&count).Error; err != nil {
		return notificationMarkResult{}, err
	}
	mark.Found = count > 0
	return mark, nil
}

func (r *repositoryImpl) MarkAllRead(ctx context.Context, userID int64, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("(user_id = ? OR user_id IS NULL) AND read_at IS NULL", userID).
		UpdateColumn("read_at", now)
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// DeleteReadOlderThan prunes read notifications past the retention window.
func (r *repositoryImpl) DeleteReadOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("read_at IS NOT NULL AND created_at < ?", cutoff).
		Delete(&models.Notification{})
	return result.RowsAffected, result.Error
}

func (r *repositoryImpl) CreateMilestoneRecord(ctx context.Context, record *models.MilestoneRecord) error {
	return r.db.WithContext(ctx).Create(record).Error
}
