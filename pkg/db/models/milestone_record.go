package models

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/harvestlink/harvestlink-backend/pkg/enums"
)

// MilestoneRecord marks a crossed threshold so the engine never notifies a
// user twice for the same (type, value). Uniqueness is schema-enforced.
type MilestoneRecord struct {
	ID             int64               `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	UserID         int64               `gorm:"column:user_id;not null;uniqueIndex:ux_milestone_records_user_type_value" json:"userId"`
	MilestoneType  enums.MilestoneType `gorm:"column:milestone_type;not null;uniqueIndex:ux_milestone_records_user_type_value" json:"milestoneType"`
	MilestoneValue decimal.Decimal     `gorm:"column:milestone_value;type:numeric(12,2);not null;uniqueIndex:ux_milestone_records_user_type_value" json:"milestoneValue"`
	CreatedAt      time.Time           `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
}
