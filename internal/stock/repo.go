package stock

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/harvestlink/harvestlink-backend/pkg/db/models"
)

// Repository manages persistence for product stock levels.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindByID(ctx context.Context, productID int64) (*models.Product, error)
	AdjustStock(ctx context.Context, productID int64, delta int) (int64, error)
	ListLowStock(ctx context.Context, threshold int) ([]models.Product, error)
	ListExpired(ctx context.Context, now time.Time) ([]models.Product, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a stock repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindByID(ctx context.Context, productID int64) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).Where("id = ?", productID).First(&product).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// AdjustStock applies the delta in a single guarded UPDATE so concurrent
// adjustments never drive current_stock negative. Returns rows affected;
// zero means the guard rejected the delta.
func (r *repository) AdjustStock(ctx context.Context, productID int64, delta int) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ? AND current_stock + ? >= 0", productID, delta).
		Update("current_stock", gorm.Expr("current_stock + ?", delta))
	return result.RowsAffected, result.Error
}

func (r *repository) ListLowStock(ctx context.Context, threshold int) ([]models.Product, error) {
	var products []models.Product
	err := r.db.WithContext(ctx).
		Where("status = ? AND current_stock <= ?", "active", threshold).
		Order("id ASC").
		Find(&products).Error
	return products, err
}

func (r *repository) ListExpired(ctx context.Context, now time.Time) ([]models.Product, error) {
	var products []models.Product
	err := r.db.WithContext(ctx).
		Where("expires_at IS NOT NULL AND expires_at < ?", now).
		Order("id ASC").
		Find(&products).Error
	return products, err
}
