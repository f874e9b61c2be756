package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/harvestlink/harvestlink-backend/internal/pricing"
	"github.com/harvestlink/harvestlink-backend/pkg/db"
	"github.com/harvestlink/harvestlink-backend/pkg/db/models"
	"github.com/harvestlink/harvestlink-backend/pkg/enums"
	pkgerrors "github.com/harvestlink/harvestlink-backend/pkg/errors"
)

type productReader interface {
	FindByID(ctx context.Context, productID int64) (*models.Product, error)
}

// View is the cart plus its lines and freshly computed totals. Totals are
// never stored; they are derived from the current rows on every read.
type View struct {
	CartID   int64           `json:"cartId"`
	BuyerID  int64           `json:"buyerId"`
	Items    []ItemDetail    `json:"items"`
	Subtotal decimal.Decimal `json:"subtotal"`
	Tax      decimal.Decimal `json:"tax"`
	Total    decimal.Decimal `json:"total"`
}

// Service defines buyer-facing cart operations.
type Service interface {
	EnsureActiveCart(ctx context.Context, buyerID int64) (*models.Cart, error)
	AddItem(ctx context.Context, buyerID, productID int64, qty int) (*View, error)
	UpdateQty(ctx context.Context, buyerID, itemID int64, qty int) (*View, error)
	RemoveItem(ctx context.Context, buyerID, itemID int64) (*View, error)
	ClearCart(ctx context.Context, buyerID int64) error
	GetCart(ctx context.Context, buyerID int64) (*View, error)
}

type service struct {
	repo     Repository
	products productReader
	calc     pricing.Calc
}

// NewService wires a cart service with the required dependencies.
func NewService(repo Repository, products productReader, calc pricing.Calc) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if products == nil {
		return nil, fmt.Errorf("product reader required")
	}
	return &service{repo: repo, products: products, calc: calc}, nil
}

// EnsureActiveCart finds the buyer's active cart or creates one. A concurrent
// create that loses the unique-index race falls back to re-reading the winner.
func (s *service) EnsureActiveCart(ctx context.Context, buyerID int64) (*models.Cart, error) {
	cart, err := s.repo.FindActiveByBuyer(ctx, buyerID)
	if err == nil {
		return cart, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	fresh := &models.Cart{BuyerID: buyerID, Status: enums.CartStatusActive}
	if createErr := s.repo.Create(ctx, fresh); createErr != nil {
		if db.IsUniqueViolation(createErr) {
			return s.repo.FindActiveByBuyer(ctx, buyerID)
		}
		return nil, createErr
	}
	return fresh, nil
}

func (s *service) AddItem(ctx context.Context, buyerID, productID int64, qty int) (*View, error) {
	if qty < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "qty must be at least 1")
	}

	product, err := s.products.FindByID(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, err
	}
	if product.Status != enums.ProductStatusActive || product.CurrentStock < qty {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "product is out of stock")
	}

	cart, err := s.EnsureActiveCart(ctx, buyerID)
	if err != nil {
		return nil, err
	}
	if err := s.repo.UpsertItem(ctx, cart.ID, productID, qty); err != nil {
		return nil, err
	}
	return s.buildView(ctx, cart)
}

func (s *service) UpdateQty(ctx context.Context, buyerID, itemID int64, qty int) (*View, error) {
	item, err := s.findOwnedItem(ctx, buyerID, itemID)
	if err != nil {
		return nil, err
	}

	if qty <= 0 {
		if err := s.repo.DeleteItem(ctx, item.ID); err != nil {
			return nil, err
		}
	} else if err := s.repo.SetItemQty(ctx, item.ID, qty); err != nil {
		return nil, err
	}
	return s.GetCart(ctx, buyerID)
}

func (s *service) RemoveItem(ctx context.Context, buyerID, itemID int64) (*View, error) {
	item, err := s.findOwnedItem(ctx, buyerID, itemID)
	if err != nil {
		return nil, err
	}
	if err := s.repo.DeleteItem(ctx, item.ID); err != nil {
		return nil, err
	}
	return s.GetCart(ctx, buyerID)
}

func (s *service) ClearCart(ctx context.Context, buyerID int64) error {
	cart, err := s.repo.FindActiveByBuyer(ctx, buyerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return err
	}
	return s.repo.DeleteItems(ctx, cart.ID)
}

func (s *service) GetCart(ctx context.Context, buyerID int64) (*View, error) {
	cart, err := s.EnsureActiveCart(ctx, buyerID)
	if err != nil {
		return nil, err
	}
	return s.buildView(ctx, cart)
}

func (s *service) findOwnedItem(ctx context.Context, buyerID, itemID int64) (*models.CartItem, error) {
	item, err := s.repo.FindItemOwned(ctx, buyerID, itemID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
		}
		return nil, err
	}
	return item, nil
}

func (s *service) buildView(ctx context.Context, cart *models.Cart) (*View, error) {
	details, err := s.repo.ListItemDetails(ctx, cart.ID)
	if err != nil {
		return nil, err
	}

	subtotal := decimal.Zero
	for _, d := range details {
		subtotal = subtotal.Add(pricing.LineTotal(d.Price, d.Qty))
	}
	tax, total := s.calc.Quote(subtotal)

	if details == nil {
		details = []ItemDetail{}
	}
	return &View{
		CartID:   cart.ID,
		BuyerID:  cart.BuyerID,
		Items:    details,
		Subtotal: subtotal.Round(2),
		Tax:      tax,
		Total:    total,
	}, nil
}
