package cron

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/harvestlink/harvestlink-backend/pkg/db/models"
	"github.com/harvestlink/harvestlink-backend/pkg/enums"
	"github.com/harvestlink/harvestlink-backend/pkg/logger"
)

type fakeStockRepo struct {
	low     []models.Product
	expired []models.Product
	lowErr  error
	expErr  error

	lastThreshold int
}

func (f *fakeStockRepo) ListLowStock(ctx context.Context, threshold int) ([]models.Product, error) {
	f.lastThreshold = threshold
	return f.low, f.lowErr
}

func (f *fakeStockRepo) ListExpired(ctx context.Context, now time.Time) ([]models.Product, error) {
	return f.expired, f.expErr
}

type alertCall struct {
	userID    int64
	productID int64
	alertType enums.NotificationType
	message   string
}

type fakeAlertRepo struct {
	calls []alertCall
	err   error
}

func (f *fakeAlertRepo) UpsertStateAlert(ctx context.Context, userID, productID int64, alertType enums.NotificationType, message string) error {
	f.calls = append(f.calls, alertCall{userID: userID, productID: productID, alertType: alertType, message: message})
	return f.err
}

func newStockScanJob(t *testing.T, products *fakeStockRepo, alerts *fakeAlertRepo, threshold int) *stockScanJob {
	t.Helper()
	jobIface, err := NewStockScanJob(StockScanJobParams{
		Logger:        logger.New(logger.Options{ServiceName: "test"}),
		Products:      products,
		Notifications: alerts,
		Threshold:     threshold,
	})
	if err != nil {
		t.Fatalf("NewStockScanJob: %v", err)
	}
	job, ok := jobIface.(*stockScanJob)
	if !ok {
		t.Fatalf("expected stockScanJob, got %T", jobIface)
	}
	return job
}

func TestStockScanJobFlagsLowStockAndExpired(t *testing.T) {
	products := &fakeStockRepo{
		low:     []models.Product{{ID: 1, FarmerID: 31, Name: "Heirloom Tomatoes", CurrentStock: 3}},
		expired: []models.Product{{ID: 2, FarmerID: 32, Name: "Raw Milk"}},
	}
	alerts := &fakeAlertRepo{}
	job := newStockScanJob(t, products, alerts, 5)

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if products.lastThreshold != 5 {
		t.Fatalf("expected threshold 5, got %d", products.lastThreshold)
	}
	if len(alerts.calls) != 2 {
		t.Fatalf("expected 2 alerts, got %d", len(alerts.calls))
	}
	if alerts.calls[0].alertType != enums.NotificationLowStock || alerts.calls[0].productID != 1 {
		t.Fatalf("unexpected first alert: %+v", alerts.calls[0])
	}
	if alerts.calls[0].userID != 31 {
		t.Fatalf("low stock alert must target the product's farmer, got user %d", alerts.calls[0].userID)
	}
	if alerts.calls[0].message != "Heirloom Tomatoes is running low: 3 left in stock" {
		t.Fatalf("unexpected low stock message: %q", alerts.calls[0].message)
	}
	if alerts.calls[1].alertType != enums.NotificationExpired || alerts.calls[1].productID != 2 {
		t.Fatalf("unexpected second alert: %+v", alerts.calls[1])
	}
	if alerts.calls[1].userID != 32 {
		t.Fatalf("expired alert must target the product's farmer, got user %d", alerts.calls[1].userID)
	}
}

func TestStockScanJobDefaultsThreshold(t *testing.T) {
	products := &fakeStockRepo{}
	job := newStockScanJob(t, products, &fakeAlertRepo{}, 0)
	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if products.lastThreshold != defaultLowStockThreshold {
		t.Fatalf("expected default threshold, got %d", products.lastThreshold)
	}
}

func TestStockScanJobAggregatesFailures(t *testing.T) {
	products := &fakeStockRepo{
		low:    []models.Product{{ID: 1, Name: "Eggs", CurrentStock: 1}},
		lowErr: nil,
		expErr: errors.New("scan failed"),
	}
	alerts := &fakeAlertRepo{err: errors.New("insert failed")}
	job := newStockScanJob(t, products, alerts, 5)

	err := job.Run(context.Background())
	if err == nil {
		t.Fatal("expected aggregated error")
	}
	// the low-stock upsert was still attempted despite the expired scan failing
	if len(alerts.calls) != 1 {
		t.Fatalf("expected 1 alert attempt, got %d", len(alerts.calls))
	}
}
