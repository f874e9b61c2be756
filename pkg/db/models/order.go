package models

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/harvestlink/harvestlink-backend/pkg/enums"
	"github.com/harvestlink/harvestlink-backend/pkg/types"
)

// Order is the immutable priced snapshot produced at checkout. Only status
// and assignment_status mutate after creation.
type Order struct {
	ID               int64                 `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	OrderNo          string                `gorm:"column:order_no;not null;uniqueIndex" json:"orderNo"`
	BuyerID          int64                 `gorm:"column:buyer_id;not null;index" json:"buyerId"`
	Subtotal         decimal.Decimal       `gorm:"column:subtotal;type:numeric(12,2);not null" json:"subtotal"`
	Tax              decimal.Decimal       `gorm:"column:tax;type:numeric(12,2);not null" json:"tax"`
	ShippingFee      decimal.Decimal       `gorm:"column:shipping_fee;type:numeric(12,2);not null" json:"shippingFee"`
	Total            decimal.Decimal       `gorm:"column:total;type:numeric(12,2);not null" json:"total"`
	Status           enums.OrderStatus     `gorm:"column:status;not null;default:'pending'" json:"status"`
	AssignmentStatus enums.AssignmentState `gorm:"column:assignment_status;not null;default:'unassigned'" json:"assignmentStatus"`
	Contact          *types.ContactInfo    `gorm:"column:contact;type:jsonb;serializer:json" json:"contact"`
	ShippingAddress  *types.ShippingInfo   `gorm:"column:shipping_address;type:jsonb;serializer:json" json:"shippingAddress"`
	Items            []OrderItem           `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items"`
	Payments         []Payment             `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"payments,omitempty"`
	CreatedAt        time.Time             `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	UpdatedAt        time.Time             `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
}

// OrderItem copies product name and price at checkout time so later catalog
// edits never rewrite order history.
type OrderItem struct {
	ID        int64           `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	OrderID   int64           `gorm:"column:order_id;not null;index" json:"orderId"`
	ProductID int64           `gorm:"column:product_id;not null" json:"productId"`
	Name      string          `gorm:"column:name;not null" json:"name"`
	Price     decimal.Decimal `gorm:"column:price;type:numeric(12,2);not null" json:"price"`
	Qty       int             `gorm:"column:qty;not null" json:"qty"`
	CreatedAt time.Time       `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
}
