// Package payloads defines the data portion of outbox event envelopes. The
// publisher forwards these verbatim, so changes here are wire-format changes.
package payloads

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderPlacedItem struct {
	ProductID int64           `json:"productId"`
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
}

type OrderPlacedEvent struct {
	OrderID  int64             `json:"orderId"`
	OrderNo  string            `json:"orderNo"`
	BuyerID  int64             `json:"buyerId"`
	Total    decimal.Decimal   `json:"total"`
	Items    []OrderPlacedItem `json:"items"`
	PlacedAt time.Time         `json:"placedAt"`
}

type OrderPaidEvent struct {
	OrderID   int64           `json:"orderId"`
	OrderNo   string          `json:"orderNo"`
	BuyerID   int64           `json:"buyerId"`
	Amount    decimal.Decimal `json:"amount"`
	Method    string          `json:"method"`
	CardLast4 string          `json:"cardLast4,omitempty"`
	PaidAt    time.Time       `json:"paidAt"`
}

type OrderCancelledEvent struct {
	OrderID     int64           `json:"orderId"`
	OrderNo     string          `json:"orderNo"`
	BuyerID     int64           `json:"buyerId"`
	Total       decimal.Decimal `json:"total"`
	CancelledAt time.Time       `json:"cancelledAt"`
}

type DriverAssignedEvent struct {
	AssignmentID int64     `json:"assignmentId"`
	OrderID      int64     `json:"orderId"`
	OrderNo      string    `json:"orderNo"`
	BuyerID      int64     `json:"buyerId"`
	DriverID     int64     `json:"driverId"`
	ScheduleTime time.Time `json:"scheduleTime"`
}

type StockAdjustedEvent struct {
	ProductID int64  `json:"productId"`
	FarmerID  int64  `json:"farmerId"`
	Name      string `json:"name"`
	Delta     int    `json:"delta"`
	NewStock  int    `json:"newStock"`
}

type ProductCreatedEvent struct {
	ProductID int64  `json:"productId"`
	FarmerID  int64  `json:"farmerId"`
	Name      string `json:"name"`
}

type SupplierAddedEvent struct {
	SupplierID int64  `json:"supplierId"`
	Name       string `json:"name"`
}
