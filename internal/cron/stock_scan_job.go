package cron

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/multierr"

	"github.com/harvestlink/harvestlink-backend/pkg/db/models"
	"github.com/harvestlink/harvestlink-backend/pkg/enums"
	"github.com/harvestlink/harvestlink-backend/pkg/logger"
)

const defaultLowStockThreshold = 10

type StockScanJobParams struct {
	Logger        *logger.Logger
	Products      stockScanRepo
	Notifications stateAlertRepo
	Threshold     int
}

type stockScanRepo interface {
	ListLowStock(ctx context.Context, threshold int) ([]models.Product, error)
	ListExpired(ctx context.Context, now time.Time) ([]models.Product, error)
}

type stateAlertRepo interface {
	UpsertStateAlert(ctx context.Context, userID, productID int64, alertType enums.NotificationType, message string) error
}

func NewStockScanJob(params StockScanJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Products == nil {
		return nil, fmt.Errorf("products repository required")
	}
	if params.Notifications == nil {
		return nil, fmt.Errorf("notifications repository required")
	}
	threshold := params.Threshold
	if threshold <= 0 {
		threshold = defaultLowStockThreshold
	}
	return &stockScanJob{
		logg:          params.Logger,
		products:      params.Products,
		notifications: params.Notifications,
		threshold:     threshold,
		now:           time.Now,
	}, nil
}

type stockScanJob struct {
	logg          *logger.Logger
	products      stockScanRepo
	notifications stateAlertRepo
	threshold     int
	now           func() time.Time
}

func (j *stockScanJob) Name() string { return "stock-scan" }

// Run re-evaluates every run; the state-alert upsert keeps repeated
// scans from duplicating unread alerts.
func (j *stockScanJob) Run(ctx context.Context) error {
	var errs error
	lowCount, err := j.flagLowStock(ctx)
	if err != nil {
		errs = multierr.Append(errs, err)
	}
	expiredCount, err := j.flagExpired(ctx)
	if err != nil {
		errs = multierr.Append(errs, err)
	}
	logCtx := j.logg.WithFields(ctx, map[string]any{
		"threshold": j.threshold,
		"low_stock": lowCount,
		"expired":   expiredCount,
	})
	j.logg.Info(logCtx, "stock scan complete")
	return errs
}

func (j *stockScanJob) flagLowStock(ctx context.Context) (int, error) {
	products, err := j.products.ListLowStock(ctx, j.threshold)
	if err != nil {
		return 0, fmt.Errorf("list low stock: %w", err)
	}
	var errs error
	flagged := 0
	for _, product := range products {
		message := fmt.Sprintf("%s is running low: %d left in stock", product.Name, product.CurrentStock)
		if err := j.notifications.UpsertStateAlert(ctx, product.FarmerID, product.ID, enums.NotificationLowStock, message); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("low stock alert for product %d: %w", product.ID, err))
			continue
		}
		flagged++
	}
	return flagged, errs
}

func (j *stockScanJob) flagExpired(ctx context.Context) (int, error) {
	products, err := j.products.ListExpired(ctx, j.now().UTC())
	if err != nil {
		return 0, fmt.Errorf("list expired: %w", err)
	}
	var errs error
	flagged := 0
	for _, product := range products {
		message := fmt.Sprintf("%s has passed its expiry date", product.Name)
		if err := j.notifications.UpsertStateAlert(ctx, product.FarmerID, product.ID, enums.NotificationExpired, message); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("expired alert for product %d: %w", product.ID, err))
			continue
		}
		flagged++
	}
	return flagged, errs
}
