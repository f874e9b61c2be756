package models

import (
	"time"

	"github.com/harvestlink/harvestlink-backend/pkg/enums"
)

// Assignment binds an order to a driver for delivery. One non-cancelled
// assignment per order is assumed operationally, not enforced by the schema.
type Assignment struct {
	ID           int64                  `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	OrderID      int64                  `gorm:"column:order_id;not null;index" json:"orderId"`
	DriverID     int64                  `gorm:"column:driver_id;not null;index" json:"driverId"`
	ScheduleTime time.Time              `gorm:"column:schedule_time;not null" json:"scheduleTime"`
	SpecialNotes *string                `gorm:"column:special_notes" json:"specialNotes,omitempty"`
	Status       enums.AssignmentStatus `gorm:"column:status;not null;default:'pending'" json:"status"`
	CreatedAt    time.Time              `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	UpdatedAt    time.Time              `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
}
