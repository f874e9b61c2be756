// Package pricing centralizes the money math shared by cart previews and
// checkout so both always agree on subtotal, tax and total.
package pricing

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/harvestlink/harvestlink-backend/pkg/config"
)

// Calc applies the configured tax rate and flat shipping fee.
type Calc struct {
	TaxRate     decimal.Decimal
	ShippingFee decimal.Decimal
}

// FromConfig parses the checkout config strings into decimals once at wiring time.
func FromConfig(cfg config.CheckoutConfig) (Calc, error) {
	rate, err := decimal.NewFromString(cfg.TaxRate)
	if err != nil {
		return Calc{}, fmt.Errorf("parsing tax rate %q: %w", cfg.TaxRate, err)
	}
	fee, err := decimal.NewFromString(cfg.ShippingFee)
	if err != nil {
		return Calc{}, fmt.Errorf("parsing shipping fee %q: %w", cfg.ShippingFee, err)
	}
	if rate.IsNegative() || fee.IsNegative() {
		return Calc{}, fmt.Errorf("tax rate and shipping fee must be non-negative")
	}
	return Calc{TaxRate: rate, ShippingFee: fee}, nil
}

// Quote computes tax and total for a subtotal, each rounded to cents.
func (c Calc) Quote(subtotal decimal.Decimal) (tax, total decimal.Decimal) {
	tax = subtotal.Mul(c.TaxRate).Round(2)
	total = subtotal.Add(tax).Add(c.ShippingFee).Round(2)
	return tax, total
}

// LineTotal is price times qty, rounded to cents.
func LineTotal(price decimal.Decimal, qty int) decimal.Decimal {
	return price.Mul(decimal.NewFromInt(int64(qty))).Round(2)
}
