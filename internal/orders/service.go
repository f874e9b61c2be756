package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/harvestlink/harvestlink-backend/internal/cart"
	"github.com/harvestlink/harvestlink-backend/internal/pricing"
	"github.com/harvestlink/harvestlink-backend/pkg/db/models"
	"github.com/harvestlink/harvestlink-backend/pkg/enums"
	pkgerrors "github.com/harvestlink/harvestlink-backend/pkg/errors"
	"github.com/harvestlink/harvestlink-backend/pkg/logger"
	"github.com/harvestlink/harvestlink-backend/pkg/outbox"
	"github.com/harvestlink/harvestlink-backend/pkg/outbox/payloads"
	"github.com/harvestlink/harvestlink-backend/pkg/pagination"
	"github.com/harvestlink/harvestlink-backend/pkg/payment"
	"github.com/harvestlink/harvestlink-backend/pkg/types"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// milestoneEvaluator re-checks a user's milestone ladders after a paid order.
type milestoneEvaluator interface {
	EvaluatePaidOrder(ctx context.Context, userID int64, earnings decimal.Decimal, orderCount int64) error
}

// CheckoutInput carries the buyer-provided checkout details.
type CheckoutInput struct {
	BuyerID  int64
	Contact  types.ContactInfo
	Shipping types.ShippingInfo
}

// MarkPaidInput carries a payment capture request.
type MarkPaidInput struct {
	OrderID    int64
	Method     enums.PaymentMethod
	CardNumber string
}

// Invoice is the payment confirmation payload returned to the buyer.
type Invoice struct {
	OrderID    int64               `json:"orderId"`
	OrderNo    string              `json:"orderNo"`
	Method     enums.PaymentMethod `json:"method"`
	Amount     decimal.Decimal     `json:"amount"`
	CardMasked string              `json:"cardMasked,omitempty"`
	PaidAt     time.Time           `json:"paidAt"`
}

// Service defines the order lifecycle operations.
type Service interface {
	Checkout(ctx context.Context, input CheckoutInput) (*models.Order, error)
	MarkPaid(ctx context.Context, input MarkPaidInput) (*Invoice, error)
	UpdateStatus(ctx context.Context, orderID int64, status enums.OrderStatus) (*models.Order, error)
	CancelOrder(ctx context.Context, orderID int64) (*models.Order, error)
	GetOrder(ctx context.Context, orderID, buyerID int64) (*models.Order, error)
	ListOrders(ctx context.Context, buyerID int64, limit int, cursor string) ([]models.Order, string, error)
}

type service struct {
	repo       Repository
	carts      cart.Repository
	tx         txRunner
	outbox     outboxPublisher
	milestones milestoneEvaluator
	calc       pricing.Calc
	orderNo    func() string
	logg       *logger.Logger
}

// NewService builds an order lifecycle service with the required dependencies.
func NewService(
	repo Repository,
	carts cart.Repository,
	tx txRunner,
	outboxSvc outboxPublisher,
	milestones milestoneEvaluator,
	calc pricing.Calc,
	orderNoPrefix string,
	logg *logger.Logger,
) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if carts == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if outboxSvc == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if milestones == nil {
		return nil, fmt.Errorf("milestone evaluator required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if orderNoPrefix == "" {
		orderNoPrefix = "HL"
	}
	return &service{
		repo:       repo,
		carts:      carts,
		tx:         tx,
		outbox:     outboxSvc,
		milestones: milestones,
		calc:       calc,
		orderNo: func() string {
			return fmt.Sprintf("%s-%d", orderNoPrefix, time.Now().UnixNano())
		},
		logg: logg,
	}, nil
}

// Checkout converts the buyer's active cart into an order in one transaction:
// price snapshot, cart closure and the order_placed event all commit together.
func (s *service) Checkout(ctx context.Context, input CheckoutInput) (*models.Order, error) {
	var created *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		carts := s.carts.WithTx(tx)
		repo := s.repo.WithTx(tx)

		activeCart, err := carts.FindActiveByBuyer(ctx, input.BuyerID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeConflict, "no active cart to check out")
			}
			return err
		}

		details, err := carts.ListItemDetails(ctx, activeCart.ID)
		if err != nil {
			return err
		}
		if len(details) == 0 {
			return pkgerrors.New(pkgerrors.CodeConflict, "cart is empty")
		}

		subtotal := decimal.Zero
		for _, d := range details {
			subtotal = subtotal.Add(pricing.LineTotal(d.Price, d.Qty))
		}
		subtotal = subtotal.Round(2)
		tax, total := s.calc.Quote(subtotal)

		contact := input.Contact
		shipping := input.Shipping
		order := &models.Order{
			OrderNo:          s.orderNo(),
			BuyerID:          input.BuyerID,
			Subtotal:         subtotal,
			Tax:              tax,
			ShippingFee:      s.calc.ShippingFee,
			Total:            total,
			Status:           enums.OrderStatusPending,
			AssignmentStatus: enums.AssignmentStateUnassigned,
			Contact:          &contact,
			ShippingAddress:  &shipping,
		}
		if err := repo.Create(ctx, order); err != nil {
			return err
		}

		items := make([]models.OrderItem, 0, len(details))
		eventItems := make([]payloads.OrderPlacedItem, 0, len(details))
		for _, d := range details {
			items = append(items, models.OrderItem{
				OrderID:   order.ID,
				ProductID: d.ProductID,
				Name:      d.Name,
				Price:     d.Price,
				Qty:       d.Qty,
			})
			eventItems = append(eventItems, payloads.OrderPlacedItem{
				ProductID: d.ProductID,
				Name:      d.Name,
				Quantity:  d.Qty,
				Price:     d.Price,
			})
		}
		if err := repo.CreateItems(ctx, items); err != nil {
			return err
		}
		order.Items = items

		if err := carts.MarkStatus(ctx, activeCart.ID, enums.CartStatusCompleted); err != nil {
			return err
		}
		if err := carts.DeleteItems(ctx, activeCart.ID); err != nil {
			return err
		}

		created = order
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderPlaced,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Actor:         &outbox.ActorRef{UserID: input.BuyerID, Role: "buyer"},
			Data: payloads.OrderPlacedEvent{
				OrderID:  order.ID,
				OrderNo:  order.OrderNo,
				BuyerID:  order.BuyerID,
				Total:    order.Total,
				Items:    eventItems,
				PlacedAt: time.Now(),
			},
			Version:    1,
			OccurredAt: time.Now(),
		})
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// MarkPaid records a payment. The status flip and payment row are
// transactional; the order_paid event and milestone sweep run afterwards as
// best effort so a notification hiccup never fails a captured payment.
func (s *service) MarkPaid(ctx context.Context, input MarkPaidInput) (*Invoice, error) {
	if !input.Method.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unsupported payment method")
	}

	var cardLast4 *string
	var cardMasked string
	if input.Method == enums.PaymentMethodCard {
		normalized := payment.NormalizeCardNumber(input.CardNumber)
		if err := payment.ValidateCardNumber(normalized); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid card number")
		}
		last4 := payment.Last4(normalized)
		cardLast4 = &last4
		cardMasked = payment.Mask(normalized)
	}

	var (
		order   *models.Order
		paidRow *models.Payment
	)
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		found, err := repo.FindByID(ctx, input.OrderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return err
		}
		if found.Status == enums.OrderStatusCancelled {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order is cancelled")
		}

		if err := repo.UpdateStatus(ctx, found.ID, enums.OrderStatusPaid); err != nil {
			return err
		}

		row := &models.Payment{
			OrderID:   found.ID,
			Method:    input.Method,
			Status:    enums.PaymentStatusCompleted,
			Amount:    found.Total,
			CardLast4: cardLast4,
		}
		if err := repo.CreatePayment(ctx, row); err != nil {
			return err
		}

		found.Status = enums.OrderStatusPaid
		order = found
		paidRow = row
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.afterPaid(ctx, order, paidRow, cardLast4)

	return &Invoice{
		OrderID:    order.ID,
		OrderNo:    order.OrderNo,
		Method:     input.Method,
		Amount:     order.Total,
		CardMasked: cardMasked,
		PaidAt:     paidRow.CreatedAt,
	}, nil
}

// afterPaid runs the fire-and-forget side effects of a successful payment.
func (s *service) afterPaid(ctx context.Context, order *models.Order, paidRow *models.Payment, cardLast4 *string) {
	ctx = s.logg.WithOrderID(ctx, order.ID)

	emitErr := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		last4 := ""
		if cardLast4 != nil {
			last4 = *cardLast4
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderPaid,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Actor:         &outbox.ActorRef{UserID: order.BuyerID, Role: "buyer"},
			Data: payloads.OrderPaidEvent{
				OrderID:   order.ID,
				OrderNo:   order.OrderNo,
				BuyerID:   order.BuyerID,
				Amount:    order.Total,
				Method:    string(paidRow.Method),
				CardLast4: last4,
				PaidAt:    paidRow.CreatedAt,
			},
			Version:    1,
			OccurredAt: time.Now(),
		})
	})
	if emitErr != nil {
		s.logg.Error(ctx, "emitting order_paid event", emitErr)
	}

	earnings, count, err := s.repo.PaidAggregates(ctx, order.BuyerID)
	if err != nil {
		s.logg.Error(ctx, "loading paid aggregates for milestones", err)
		return
	}
	if err := s.milestones.EvaluatePaidOrder(ctx, order.BuyerID, earnings, count); err != nil {
		s.logg.Error(ctx, "evaluating milestones", err)
	}
}

func (s *service) UpdateStatus(ctx context.Context, orderID int64, status enums.OrderStatus) (*models.Order, error) {
	if !status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown order status")
	}

	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, err
	}

	if err := s.repo.UpdateStatus(ctx, order.ID, status); err != nil {
		return nil, err
	}
	order.Status = status
	return order, nil
}

func (s *service) CancelOrder(ctx context.Context, orderID int64) (*models.Order, error) {
	var cancelled *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		order, err := repo.FindByID(ctx, orderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return err
		}
		if order.Status == enums.OrderStatusCancelled {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order is already cancelled")
		}

		if err := repo.UpdateStatus(ctx, order.ID, enums.OrderStatusCancelled); err != nil {
			return err
		}
		order.Status = enums.OrderStatusCancelled
		cancelled = order

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderCancelled,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Data: payloads.OrderCancelledEvent{
				OrderID:     order.ID,
				OrderNo:     order.OrderNo,
				BuyerID:     order.BuyerID,
				Total:       order.Total,
				CancelledAt: time.Now(),
			},
			Version:    1,
			OccurredAt: time.Now(),
		})
	})
	if err != nil {
		return nil, err
	}
	return cancelled, nil
}

func (s *service) GetOrder(ctx context.Context, orderID, buyerID int64) (*models.Order, error) {
	order, err := s.repo.FindByIDForBuyer(ctx, orderID, buyerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, err
	}
	return order, nil
}

// ListOrders returns one page of the buyer's orders plus the next cursor,
// empty when the page is the last one.
func (s *service) ListOrders(ctx context.Context, buyerID int64, limit int, cursor string) ([]models.Order, string, error) {
	rows, err := s.repo.ListByBuyer(ctx, buyerID, pagination.Params{Limit: limit, Cursor: cursor})
	if err != nil {
		return nil, "", err
	}

	pageSize := pagination.NormalizeLimit(limit)
	next := ""
	if len(rows) > pageSize {
		rows = rows[:pageSize]
		last := rows[len(rows)-1]
		next = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	return rows, next, nil
}
