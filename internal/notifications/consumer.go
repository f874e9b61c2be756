package notifications

import (
	"context"
	"encoding/json"
	"fmt"

	pubsub "cloud.google.com/go/pubsub/v2"

	"github.com/harvestlink/harvestlink-backend/pkg/db/models"
	"github.com/harvestlink/harvestlink-backend/pkg/enums"
	"github.com/harvestlink/harvestlink-backend/pkg/logger"
	"github.com/harvestlink/harvestlink-backend/pkg/outbox"
	"github.com/harvestlink/harvestlink-backend/pkg/outbox/idempotency"
	"github.com/harvestlink/harvestlink-backend/pkg/outbox/payloads"
)

const notificationConsumer = "notification-worker"

// Consumer turns domain events into notification rows. It is the only writer
// for event-type notifications; cron jobs write state alerts directly.
type Consumer struct {
	repo         Repository
	subscription *pubsub.Subscriber
	idempotency  *idempotency.Manager
	logg         *logger.Logger
}

// NewConsumer builds the notification event consumer.
func NewConsumer(repo Repository, subscription *pubsub.Subscriber, manager *idempotency.Manager, logg *logger.Logger) (*Consumer, error) {
	if repo == nil {
		return nil, fmt.Errorf("notifications repository required")
	}
	if subscription == nil {
		return nil, fmt.Errorf("notification subscription required")
	}
	if manager == nil {
		return nil, fmt.Errorf("idempotency manager required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Consumer{
		repo:         repo,
		subscription: subscription,
		idempotency:  manager,
		logg:         logg,
	}, nil
}

// Run starts the consumer loop until the context is canceled.
func (c *Consumer) Run(ctx context.Context) error {
	return c.subscription.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		result := c.process(ctx, msg)
		if result.nack {
			msg.Nack()
			return
		}
		msg.Ack()
	})
}

type processResult struct {
	ack  bool
	nack bool
}

func (c *Consumer) process(ctx context.Context, msg *pubsub.Message) processResult {
	eventType := enums.OutboxEventType(msg.Attributes["event_type"])
	fields := map[string]any{
		"message_id": msg.ID,
		"event_type": eventType,
	}
	logCtx := c.logg.WithFields(ctx, fields)

	var envelope outbox.PayloadEnvelope
	if err := json.Unmarshal(msg.Data, &envelope); err != nil {
		c.logg.Error(logCtx, "failed to decode envelope", err)
		return processResult{ack: true}
	}
	if envelope.EventID == "" {
		c.logg.Error(logCtx, "event id missing", nil)
		return processResult{ack: true}
	}

	already, err := c.idempotency.CheckAndMarkProcessed(ctx, notificationConsumer, envelope.EventID)
	if err != nil {
		c.logg.Error(logCtx, "idempotency check failed", err)
		return processResult{nack: true}
	}
	if already {
		c.logg.Info(logCtx, "event already processed")
		return processResult{ack: true}
	}

	if err := c.handle(ctx, eventType, envelope.Data, logCtx); err != nil {
		c.logg.Error(logCtx, "notification handling failed", err)
		_ = c.idempotency.Delete(ctx, notificationConsumer, envelope.EventID)
		return processResult{nack: true}
	}
	return processResult{ack: true}
}

func (c *Consumer) handle(ctx context.Context, eventType enums.OutboxEventType, data json.RawMessage, logCtx context.Context) error {
	switch eventType {
	case enums.EventOrderPlaced:
		var payload payloads.OrderPlacedEvent
		if err := json.Unmarshal(data, &payload); err != nil {
			return err
		}
		return c.insert(ctx, logCtx, &models.Notification{
			UserID:  &payload.BuyerID,
			OrderID: &payload.OrderID,
			Type:    enums.NotificationOrderPlaced,
			Message: fmt.Sprintf("Order %s has been placed. Total: $%s.", payload.OrderNo, payload.Total.StringFixed(2)),
		})

	case enums.EventOrderPaid:
		var payload payloads.OrderPaidEvent
		if err := json.Unmarshal(data, &payload); err != nil {
			return err
		}
		return c.insert(ctx, logCtx, &models.Notification{
			UserID:  &payload.BuyerID,
			OrderID: &payload.OrderID,
			Type:    enums.NotificationOrderPaid,
			Message: fmt.Sprintf("Payment of $%s received for order %s (%s).", payload.Amount.StringFixed(2), payload.OrderNo, payload.Method),
		})

	case enums.EventOrderCancelled:
		var payload payloads.OrderCancelledEvent
		if err := json.Unmarshal(data, &payload); err != nil {
			return err
		}
		return c.insert(ctx, logCtx, &models.Notification{
			UserID:  &payload.BuyerID,
			OrderID: &payload.OrderID,
			Type:    enums.NotificationOrderCancelled,
			Message: fmt.Sprintf("Order %s has been cancelled. Total: $%s.", payload.OrderNo, payload.Total.StringFixed(2)),
		})

	case enums.EventDriverAssigned:
		var payload payloads.DriverAssignedEvent
		if err := json.Unmarshal(data, &payload); err != nil {
			return err
		}
		return c.insert(ctx, logCtx, &models.Notification{
			UserID:  &payload.BuyerID,
			OrderID: &payload.OrderID,
			Type:    enums.NotificationDriverAssigned,
			Message: fmt.Sprintf("A driver has been assigned to order %s. Delivery scheduled for %s.", payload.OrderNo, payload.ScheduleTime.Format("Jan 2, 3:04 PM")),
		})

	case enums.EventStockAdjusted:
		var payload payloads.StockAdjustedEvent
		if err := json.Unmarshal(data, &payload); err != nil {
			return err
		}
		return c.insert(ctx, logCtx, &models.Notification{
			UserID:    &payload.FarmerID,
			ProductID: &payload.ProductID,
			Type:      enums.NotificationStockUpdated,
			Message:   fmt.Sprintf("Stock for %s changed by %+d (now %d).", payload.Name, payload.Delta, payload.NewStock),
		})

	case enums.EventProductCreated:
		var payload payloads.ProductCreatedEvent
		if err := json.Unmarshal(data, &payload); err != nil {
			return err
		}
		return c.insert(ctx, logCtx, &models.Notification{
			ProductID: &payload.ProductID,
			Type:      enums.NotificationNewProduct,
			Message:   fmt.Sprintf("New product available: %s.", payload.Name),
		})

	case enums.EventSupplierAdded:
		var payload payloads.SupplierAddedEvent
		if err := json.Unmarshal(data, &payload); err != nil {
			return err
		}
		return c.insert(ctx, logCtx, &models.Notification{
			Type:    enums.NotificationSupplierAdded,
			Message: fmt.Sprintf("New supplier onboarded: %s.", payload.Name),
		})

	default:
		c.logg.Info(logCtx, "event type not handled")
		return nil
	}
}

func (c *Consumer) insert(ctx context.Context, logCtx context.Context, notification *models.Notification) error {
	if err := c.repo.Create(ctx, notification); err != nil {
		return err
	}
	c.logg.Info(logCtx, "notification recorded")
	return nil
}
