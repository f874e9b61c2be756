package enums

// OutboxEventType labels domain events appended to the outbox table.
type OutboxEventType string

const (
	EventOrderPlaced    OutboxEventType = "order.placed"
	EventOrderPaid      OutboxEventType = "order.paid"
	EventOrderCancelled OutboxEventType = "order.cancelled"
	EventDriverAssigned OutboxEventType = "driver.assigned"
	EventStockAdjusted  OutboxEventType = "stock.adjusted"
	EventProductCreated OutboxEventType = "product.created"
	EventSupplierAdded  OutboxEventType = "supplier.added"
)

// OutboxAggregateType names the aggregate an outbox event belongs to.
type OutboxAggregateType string

const (
	AggregateOrder      OutboxAggregateType = "order"
	AggregateProduct    OutboxAggregateType = "product"
	AggregateAssignment OutboxAggregateType = "assignment"
	AggregateSupplier   OutboxAggregateType = "supplier"
)
