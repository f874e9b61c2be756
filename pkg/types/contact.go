package types

// ContactInfo is the buyer contact snapshot captured at checkout. It is
// serialized to a JSON column at the storage boundary only.
type ContactInfo struct {
	FirstName string `json:"firstName" validate:"required"`
	LastName  string `json:"lastName" validate:"required"`
	Email     string `json:"email" validate:"required,email"`
	Phone     string `json:"phone" validate:"required"`
}

// ShippingInfo is the delivery address snapshot captured at checkout.
type ShippingInfo struct {
	Address    string `json:"address" validate:"required"`
	City       string `json:"city" validate:"required"`
	State      string `json:"state" validate:"required"`
	PostalCode string `json:"postalCode" validate:"required"`
}
