package enums

// PaymentMethod enumerates accepted payment methods.
type PaymentMethod string

const (
	PaymentMethodCOD  PaymentMethod = "COD"
	PaymentMethodCard PaymentMethod = "CARD"
)

// IsValid reports whether the value is a known payment method.
func (m PaymentMethod) IsValid() bool {
	return m == PaymentMethodCOD || m == PaymentMethodCard
}

// PaymentStatus tracks the terminal state of a payment attempt. Rows are only
// written for successful attempts, so completed is the common case.
type PaymentStatus string

const (
	PaymentStatusCompleted PaymentStatus = "completed"
)
