package cart

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/harvestlink/harvestlink-backend/pkg/db/models"
	"github.com/harvestlink/harvestlink-backend/pkg/enums"
)

// ItemDetail is a cart line joined with its product's current name and price.
type ItemDetail struct {
	ID        int64           `json:"id"`
	ProductID int64           `json:"productId"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Qty       int             `json:"qty"`
}

// Repository manages persistence for carts and cart items.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindActiveByBuyer(ctx context.Context, buyerID int64) (*models.Cart, error)
	Create(ctx context.Context, cart *models.Cart) error
	UpsertItem(ctx context.Context, cartID, productID int64, qty int) error
	FindItemOwned(ctx context.Context, buyerID, itemID int64) (*models.CartItem, error)
	SetItemQty(ctx context.Context, itemID int64, qty int) error
	DeleteItem(ctx context.Context, itemID int64) error
	DeleteItems(ctx context.Context, cartID int64) error
	ListItemDetails(ctx context.Context, cartID int64) ([]ItemDetail, error)
	MarkStatus(ctx context.Context, cartID int64, status enums.CartStatus) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a cart repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindActiveByBuyer(ctx context.Context, buyerID int64) (*models.Cart, error) {
	var cart models.Cart
	err := r.db.WithContext(ctx).
		Where("buyer_id = ? AND status = ?", buyerID, enums.CartStatusActive).
		First(&cart).Error
	if err != nil {
		return nil, err
	}
	return &cart, nil
}

func (r *repository) Create(ctx context.Context, cart *models.Cart) error {
	return r.db.WithContext(ctx).Create(cart).Error
}

// UpsertItem inserts the line or, when the (cart_id, product_id) row already
// exists, adds the qty to it in a single statement.
func (r *repository) UpsertItem(ctx context.Context, cartID, productID int64, qty int) error {
	item := models.CartItem{
		CartID:    cartID,
		ProductID: productID,
		Qty:       qty,
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "cart_id"}, {Name: "product_id"}},
			DoUpdates: clause.Assignments(map[string]any{
				"qty":        gorm.Expr("cart_items.qty + excluded.qty"),
				"updated_at": time.Now(),
			}),
		}).
		Create(&item).Error
}

// FindItemOwned resolves an item only when it belongs to the buyer's active
// cart, so ownership is enforced in the WHERE clause rather than in Go.
func (r *repository) FindItemOwned(ctx context.Context, buyerID, itemID int64) (*models.CartItem, error) {
	var item models.CartItem
	err := r.db.WithContext(ctx).
		Where("id = ? AND cart_id IN (?)", itemID,
			r.db.Model(&models.Cart{}).
				Select("id").
				Where("buyer_id = ? AND status = ?", buyerID, enums.CartStatusActive),
		).
		First(&item).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *repository) SetItemQty(ctx context.Context, itemID int64, qty int) error {
	return r.db.WithContext(ctx).
		Model(&models.CartItem{}).
		Where("id = ?", itemID).
		Update("qty", qty).Error
}

func (r *repository) DeleteItem(ctx context.Context, itemID int64) error {
	return r.db.WithContext(ctx).
		Where("id = ?", itemID).
		Delete(&models.CartItem{}).Error
}

func (r *repository) DeleteItems(ctx context.Context, cartID int64) error {
	return r.db.WithContext(ctx).
		Where("cart_id = ?", cartID).
		Delete(&models.CartItem{}).Error
}

func (r *repository) ListItemDetails(ctx context.Context, cartID int64) ([]ItemDetail, error) {
	var details []ItemDetail
	err := r.db.WithContext(ctx).
		Table("cart_items").
		Select("cart_items.id, cart_items.product_id, cart_items.qty, products.name AS name, products.price AS price").
		Joins("JOIN products ON products.id = cart_items.product_id").
		Where("cart_items.cart_id = ?", cartID).
		Order("cart_items.id ASC").
		Scan(&details).Error
	return details, err
}

func (r *repository) MarkStatus(ctx context.Context, cartID int64, status enums.CartStatus) error {
	return r.db.WithContext(ctx).
		Model(&models.Cart{}).
		Where("id = ?", cartID).
		Update("status", status).Error
}
