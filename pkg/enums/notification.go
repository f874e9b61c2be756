package enums

// NotificationType labels user-visible notification records. Types fall into
// three dedup disciplines: state alerts (upserted per product while unread),
// discrete events (always inserted), and milestones (at most once per
// threshold per user).
type NotificationType string

const (
	// State alerts.
	NotificationLowStock NotificationType = "low_stock"
	NotificationExpired  NotificationType = "expired"

	// Discrete events.
	NotificationOrderPlaced    NotificationType = "order_placed"
	NotificationOrderPaid      NotificationType = "order_paid"
	NotificationOrderCancelled NotificationType = "order_cancelled"
	NotificationDriverAssigned NotificationType = "driver_assigned"
	NotificationStockUpdated   NotificationType = "stock_updated"
	NotificationNewProduct     NotificationType = "new_product"
	NotificationSupplierAdded  NotificationType = "supplier_added"

	// Milestones.
	NotificationMilestoneEarnings NotificationType = "milestone_earnings"
	NotificationMilestoneOrders   NotificationType = "milestone_orders"
)

// IsStateAlert reports whether the type follows the update-in-place dedup rule.
func (t NotificationType) IsStateAlert() bool {
	return t == NotificationLowStock || t == NotificationExpired
}

// IsMilestone reports whether the type follows the at-most-once-per-threshold rule.
func (t NotificationType) IsMilestone() bool {
	return t == NotificationMilestoneEarnings || t == NotificationMilestoneOrders
}

// MilestoneType names the cumulative counters that trigger milestone
// notifications.
type MilestoneType string

const (
	MilestoneEarnings MilestoneType = "earnings"
	MilestoneOrders   MilestoneType = "orders"
)
