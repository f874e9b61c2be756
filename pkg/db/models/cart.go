package models

import (
	"time"

	"github.com/harvestlink/harvestlink-backend/pkg/enums"
)

// Cart is the single in-progress cart per buyer. A partial unique index on
// (buyer_id) WHERE status = 'active' enforces the one-active-cart invariant.
type Cart struct {
	ID        int64            `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	BuyerID   int64            `gorm:"column:buyer_id;not null" json:"buyerId"`
	Status    enums.CartStatus `gorm:"column:status;not null;default:'active'" json:"status"`
	Items     []CartItem       `gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE" json:"items"`
	CreatedAt time.Time        `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time        `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
}

// CartItem is one product line in a cart, unique per (cart_id, product_id).
type CartItem struct {
	ID        int64     `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	CartID    int64     `gorm:"column:cart_id;not null;uniqueIndex:ux_cart_items_cart_product" json:"cartId"`
	ProductID int64     `gorm:"column:product_id;not null;uniqueIndex:ux_cart_items_cart_product" json:"productId"`
	Qty       int       `gorm:"column:qty;not null" json:"qty"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
}
