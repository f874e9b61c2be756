package models

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/harvestlink/harvestlink-backend/pkg/enums"
)

// Payment records one successful capture against an order. Only the last four
// card digits are ever stored.
type Payment struct {
	ID        int64               `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	OrderID   int64               `gorm:"column:order_id;not null;index" json:"orderId"`
	Method    enums.PaymentMethod `gorm:"column:method;not null" json:"method"`
	Status    enums.PaymentStatus `gorm:"column:status;not null;default:'completed'" json:"status"`
	Amount    decimal.Decimal     `gorm:"column:amount;type:numeric(12,2);not null" json:"amount"`
	CardLast4 *string             `gorm:"column:card_last4;size:4" json:"cardLast4,omitempty"`
	CreatedAt time.Time           `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
}
