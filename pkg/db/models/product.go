package models

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/harvestlink/harvestlink-backend/pkg/enums"
)

// Product is the read/write surface the core needs from the produce catalog.
// Listing CRUD itself lives outside this service.
type Product struct {
	ID           int64               `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	FarmerID     int64               `gorm:"column:farmer_id;not null" json:"farmerId"`
	Name         string              `gorm:"column:name;not null" json:"name"`
	Price        decimal.Decimal     `gorm:"column:price;type:numeric(12,2);not null" json:"price"`
	CurrentStock int                 `gorm:"column:current_stock;not null;default:0" json:"currentStock"`
	DailyLimit   int                 `gorm:"column:daily_limit;not null;default:0" json:"dailyLimit"`
	Status       enums.ProductStatus `gorm:"column:status;not null;default:'active'" json:"status"`
	ExpiresAt    *time.Time          `gorm:"column:expires_at" json:"expiresAt,omitempty"`
	CreatedAt    time.Time           `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	UpdatedAt    time.Time           `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
}
