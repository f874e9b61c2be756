package stock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/harvestlink/harvestlink-backend/pkg/db/models"
	"github.com/harvestlink/harvestlink-backend/pkg/enums"
	pkgerrors "github.com/harvestlink/harvestlink-backend/pkg/errors"
	"github.com/harvestlink/harvestlink-backend/pkg/outbox"
	"github.com/harvestlink/harvestlink-backend/pkg/outbox/payloads"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Availability is the sellability snapshot of a product.
type Availability struct {
	Available    bool                `json:"available"`
	CurrentStock int                 `json:"currentStock"`
	DailyLimit   int                 `json:"dailyLimit"`
	Status       enums.ProductStatus `json:"status"`
}

// Service defines stock-level operations.
type Service interface {
	CheckAvailability(ctx context.Context, productID int64) (*Availability, error)
	AdjustStock(ctx context.Context, productID int64, delta int) (*models.Product, error)
}

type service struct {
	repo   Repository
	tx     txRunner
	outbox outboxPublisher
}

// NewService wires a stock service with the required dependencies.
func NewService(repo Repository, tx txRunner, outboxSvc outboxPublisher) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("stock repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if outboxSvc == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	return &service{repo: repo, tx: tx, outbox: outboxSvc}, nil
}

func (s *service) CheckAvailability(ctx context.Context, productID int64) (*Availability, error) {
	product, err := s.repo.FindByID(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, err
	}
	return &Availability{
		Available:    product.Status == enums.ProductStatusActive && product.CurrentStock > 0,
		CurrentStock: product.CurrentStock,
		DailyLimit:   product.DailyLimit,
		Status:       product.Status,
	}, nil
}

// AdjustStock moves current_stock by delta. Positive deltas record supplier
// intake, negative deltas record fulfillment decrements. The guard runs
// inside the UPDATE itself, so two concurrent decrements can never combine
// into a negative stock level.
func (s *service) AdjustStock(ctx context.Context, productID int64, delta int) (*models.Product, error) {
	if delta == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "delta must be non-zero")
	}

	var updated *models.Product
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		if _, err := repo.FindByID(ctx, productID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
			}
			return err
		}

		affected, err := repo.AdjustStock(ctx, productID, delta)
		if err != nil {
			return err
		}
		if affected == 0 {
			return pkgerrors.New(pkgerrors.CodeConflict, "insufficient stock")
		}

		product, err := repo.FindByID(ctx, productID)
		if err != nil {
			return err
		}
		updated = product

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventStockAdjusted,
			AggregateType: enums.AggregateProduct,
			AggregateID:   product.ID,
			Data: payloads.StockAdjustedEvent{
				ProductID: product.ID,
				FarmerID:  product.FarmerID,
				Name:      product.Name,
				Delta:     delta,
				NewStock:  product.CurrentStock,
			},
			Version:    1,
			OccurredAt: time.Now(),
		})
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}
