package enums

// ProductStatus describes whether a listing can be sold.
type ProductStatus string

const (
	ProductStatusActive   ProductStatus = "active"
	ProductStatusInactive ProductStatus = "inactive"
	ProductStatusExpired  ProductStatus = "expired"
)
