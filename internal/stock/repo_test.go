package stock

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/harvestlink/harvestlink-backend/pkg/db/models"
	"github.com/harvestlink/harvestlink-backend/pkg/enums"
)

func setupStockTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	products := `
CREATE TABLE IF NOT EXISTS products (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  farmer_id INTEGER NOT NULL,
  name TEXT NOT NULL,
  price NUMERIC NOT NULL,
  current_stock INTEGER NOT NULL DEFAULT 0,
  daily_limit INTEGER NOT NULL DEFAULT 0,
  status TEXT NOT NULL DEFAULT 'active',
  expires_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`
	require.NoError(t, db.Exec(products).Error)
	return db
}

func createProduct(t *testing.T, db *gorm.DB, stock int, status enums.ProductStatus, expiresAt *time.Time) *models.Product {
	t.Helper()

	product := &models.Product{
		FarmerID:     1,
		Name:         "Sweet Corn",
		Price:        decimal.RequireFromString("2.50"),
		CurrentStock: stock,
		DailyLimit:   50,
		Status:       status,
		ExpiresAt:    expiresAt,
	}
	require.NoError(t, db.Create(product).Error)
	return product
}

func TestRepositoryAdjustStock(t *testing.T) {
	db := setupStockTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	product := createProduct(t, db, 10, enums.ProductStatusActive, nil)

	affected, err := repo.AdjustStock(ctx, product.ID, -4)
	require.NoError(t, err)
	assert.Equal(t, int64(1), affected)

	reloaded, err := repo.FindByID(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, 6, reloaded.CurrentStock)
}

func TestRepositoryAdjustStockGuardRejectsNegative(t *testing.T) {
	db := setupStockTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	product := createProduct(t, db, 3, enums.ProductStatusActive, nil)

	affected, err := repo.AdjustStock(ctx, product.ID, -5)
	require.NoError(t, err)
	assert.Equal(t, int64(0), affected)

	reloaded, err := repo.FindByID(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, reloaded.CurrentStock, "stock must be untouched when the guard fires")
}

func TestRepositoryListLowStock(t *testing.T) {
	db := setupStockTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	low := createProduct(t, db, 2, enums.ProductStatusActive, nil)
	createProduct(t, db, 40, enums.ProductStatusActive, nil)
	inactiveLow := createProduct(t, db, 1, enums.ProductStatusInactive, nil)

	products, err := repo.ListLowStock(ctx, 10)
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, low.ID, products[0].ID)
	assert.NotEqual(t, inactiveLow.ID, products[0].ID)
}

func TestRepositoryListExpired(t *testing.T) {
	db := setupStockTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	past := time.Now().Add(-48 * time.Hour)
	future := time.Now().Add(48 * time.Hour)
	expired := createProduct(t, db, 10, enums.ProductStatusActive, &past)
	createProduct(t, db, 10, enums.ProductStatusActive, &future)
	createProduct(t, db, 10, enums.ProductStatusActive, nil)

	products, err := repo.ListExpired(ctx, time.Now())
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, expired.ID, products[0].ID)
}
