package enums

// OrderStatus enumerates the flat set of order states. Transitions are
// validated against membership only; no transition graph is enforced.
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusPaid       OrderStatus = "paid"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

var orderStatuses = map[OrderStatus]struct{}{
	OrderStatusPending:    {},
	OrderStatusPaid:       {},
	OrderStatusProcessing: {},
	OrderStatusShipped:    {},
	OrderStatusDelivered:  {},
	OrderStatusCancelled:  {},
}

// IsValid reports whether the value is a known order status.
func (s OrderStatus) IsValid() bool {
	_, ok := orderStatuses[s]
	return ok
}

// IsTerminal reports whether the status admits no further transitions.
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusDelivered || s == OrderStatusCancelled
}

// AssignmentState tracks whether an order has an active driver assignment.
type AssignmentState string

const (
	AssignmentStateUnassigned AssignmentState = "unassigned"
	AssignmentStateAssigned   AssignmentState = "assigned"
)
