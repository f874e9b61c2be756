package models

import (
	"time"

	"github.com/harvestlink/harvestlink-backend/pkg/enums"
)

// Notification stores user-visible notification payloads. read_at IS NULL
// marks a notification unread; state-alert types are upserted per product
// while an unread row exists.
type Notification struct {
	ID        int64                  `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	UserID    *int64                 `gorm:"column:user_id;index" json:"userId,omitempty"`
	ProductID *int64                 `gorm:"column:product_id;index" json:"productId,omitempty"`
	OrderID   *int64                 `gorm:"column:order_id;index" json:"orderId,omitempty"`
	Type      enums.NotificationType `gorm:"column:type;not null" json:"type"`
	Message   string                 `gorm:"column:message;not null" json:"message"`
	ReadAt    *time.Time             `gorm:"column:read_at" json:"readAt,omitempty"`
	CreatedAt time.Time              `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
}
