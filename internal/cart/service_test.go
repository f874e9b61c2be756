package cart

import (
	"context"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/harvestlink/harvestlink-backend/internal/pricing"
	"github.com/harvestlink/harvestlink-backend/internal/stock"
	"github.com/harvestlink/harvestlink-backend/pkg/config"
	"github.com/harvestlink/harvestlink-backend/pkg/db/models"
	"github.com/harvestlink/harvestlink-backend/pkg/enums"
	pkgerrors "github.com/harvestlink/harvestlink-backend/pkg/errors"
)

func setupCartTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	statements := []string{
		`CREATE TABLE IF NOT EXISTS products (
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
);`,
		`CREATE TABLE IF NOT EXISTS carts (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  buyer_id INTEGER NOT NULL,
  status TEXT NOT NULL DEFAULT 'active',
  created_at DATETIME,
  updated_at DATETIME
);`,
		`CREATE UNIQUE INDEX IF NOT EXISTS ux_carts_buyer_active
  ON carts (buyer_id) WHERE status = 'active';`,
		`CREATE TABLE IF NOT EXISTS cart_items (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  cart_id INTEGER NOT NULL,
  product_id INTEGER NOT NULL,
  qty INTEGER NOT NULL,
  created_at DATETIME,
  updated_at DATETIME,
  UNIQUE (cart_id, product_id)
);`,
	}
	for _, stmt := range statements {
		require.NoError(t, gdb.Exec(stmt).Error)
	}
	return gdb
}

func newCartService(t *testing.T, gdb *gorm.DB) Service {
	t.Helper()

	calc, err := pricing.FromConfig(config.CheckoutConfig{TaxRate: "0.065", ShippingFee: "0"})
	require.NoError(t, err)

	svc, err := NewService(NewRepository(gdb), stock.NewRepository(gdb), calc)
	require.NoError(t, err)
	return svc
}

func seedProduct(t *testing.T, gdb *gorm.DB, name, price string, stockQty int, status enums.ProductStatus) *models.Product {
	t.Helper()

	product := &models.Product{
		FarmerID:     1,
		Name:         name,
		Price:        decimal.RequireFromString(price),
		CurrentStock: stockQty,
		DailyLimit:   100,
		Status:       status,
	}
	require.NoError(t, gdb.Create(product).Error)
	return product
}

func TestEnsureActiveCartFindOrCreate(t *testing.T) {
	gdb := setupCartTestDB(t)
	svc := newCartService(t, gdb)
	ctx := context.Background()

	first, err := svc.EnsureActiveCart(ctx, 7)
	require.NoError(t, err)
	second, err := svc.EnsureActiveCart(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID, "same buyer must get the same active cart")

	var count int64
	require.NoError(t, gdb.Model(&models.Cart{}).Where("buyer_id = ?", 7).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestEnsureActiveCartIgnoresClosedCarts(t *testing.T) {
	gdb := setupCartTestDB(t)
	svc := newCartService(t, gdb)
	ctx := context.Background()

	old := &models.Cart{BuyerID: 7, Status: enums.CartStatusCompleted}
	require.NoError(t, gdb.Create(old).Error)

	fresh, err := svc.EnsureActiveCart(ctx, 7)
	require.NoError(t, err)
	assert.NotEqual(t, old.ID, fresh.ID)
}

func TestAddItemUpsertsQty(t *testing.T) {
	gdb := setupCartTestDB(t)
	svc := newCartService(t, gdb)
	ctx := context.Background()

	product := seedProduct(t, gdb, "Carrots", "3.00", 50, enums.ProductStatusActive)

	_, err := svc.AddItem(ctx, 7, product.ID, 2)
	require.NoError(t, err)
	view, err := svc.AddItem(ctx, 7, product.ID, 3)
	require.NoError(t, err)

	require.Len(t, view.Items, 1)
	assert.Equal(t, 5, view.Items[0].Qty, "same product must merge into one line")
}

func TestAddItemOutOfStock(t *testing.T) {
	gdb := setupCartTestDB(t)
	svc := newCartService(t, gdb)
	ctx := context.Background()

	product := seedProduct(t, gdb, "Strawberries", "6.00", 2, enums.ProductStatusActive)

	_, err := svc.AddItem(ctx, 7, product.ID, 3)
	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeConflict, appErr.Code())
}

func TestAddItemInactiveProduct(t *testing.T) {
	gdb := setupCartTestDB(t)
	svc := newCartService(t, gdb)
	ctx := context.Background()

	product := seedProduct(t, gdb, "Old Squash", "1.00", 10, enums.ProductStatusInactive)

	_, err := svc.AddItem(ctx, 7, product.ID, 1)
	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeConflict, appErr.Code())
}

func TestGetCartTotals(t *testing.T) {
	gdb := setupCartTestDB(t)
	svc := newCartService(t, gdb)
	ctx := context.Background()

	apples := seedProduct(t, gdb, "Apples", "2.50", 100, enums.ProductStatusActive)
	honey := seedProduct(t, gdb, "Honey", "15.00", 100, enums.ProductStatusActive)

	_, err := svc.AddItem(ctx, 7, apples.ID, 4)
	require.NoError(t, err)
	view, err := svc.AddItem(ctx, 7, honey.ID, 1)
	require.NoError(t, err)

	assert.Equal(t, "25.00", view.Subtotal.StringFixed(2))
	assert.Equal(t, "1.63", view.Tax.StringFixed(2))
	assert.Equal(t, "26.63", view.Total.StringFixed(2))
}

func TestUpdateQtyZeroDeletesLine(t *testing.T) {
	gdb := setupCartTestDB(t)
	svc := newCartService(t, gdb)
	ctx := context.Background()

	product := seedProduct(t, gdb, "Kale", "2.00", 30, enums.ProductStatusActive)
	view, err := svc.AddItem(ctx, 7, product.ID, 2)
	require.NoError(t, err)
	require.Len(t, view.Items, 1)

	view, err = svc.UpdateQty(ctx, 7, view.Items[0].ID, 0)
	require.NoError(t, err)
	assert.Empty(t, view.Items)
	assert.Equal(t, "0.00", view.Total.StringFixed(2))
}

func TestUpdateQtySetsValue(t *testing.T) {
	gdb := setupCartTestDB(t)
	svc := newCartService(t, gdb)
	ctx := context.Background()

	product := seedProduct(t, gdb, "Peaches", "4.00", 30, enums.ProductStatusActive)
	view, err := svc.AddItem(ctx, 7, product.ID, 2)
	require.NoError(t, err)

	view, err = svc.UpdateQty(ctx, 7, view.Items[0].ID, 6)
	require.NoError(t, err)
	require.Len(t, view.Items, 1)
	assert.Equal(t, 6, view.Items[0].Qty)
}

func TestRemoveItemEnforcesOwnership(t *testing.T) {
	gdb := setupCartTestDB(t)
	svc := newCartService(t, gdb)
	ctx := context.Background()

	product := seedProduct(t, gdb, "Basil", "3.50", 30, enums.ProductStatusActive)
	view, err := svc.AddItem(ctx, 7, product.ID, 1)
	require.NoError(t, err)

	_, err = svc.RemoveItem(ctx, 8, view.Items[0].ID)
	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeNotFound, appErr.Code())

	owned, err := svc.GetCart(ctx, 7)
	require.NoError(t, err)
	assert.Len(t, owned.Items, 1, "foreign buyer must not remove the line")
}

func TestClearCart(t *testing.T) {
	gdb := setupCartTestDB(t)
	svc := newCartService(t, gdb)
	ctx := context.Background()

	product := seedProduct(t, gdb, "Cucumbers", "1.25", 30, enums.ProductStatusActive)
	_, err := svc.AddItem(ctx, 7, product.ID, 3)
	require.NoError(t, err)

	require.NoError(t, svc.ClearCart(ctx, 7))

	view, err := svc.GetCart(ctx, 7)
	require.NoError(t, err)
	assert.Empty(t, view.Items)
}

func TestClearCartWithoutCartIsNoop(t *testing.T) {
	gdb := setupCartTestDB(t)
	svc := newCartService(t, gdb)

	require.NoError(t, svc.ClearCart(context.Background(), 999))
}
