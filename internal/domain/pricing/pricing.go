// internal/domain/pricing/pricing.go
package pricing

import (
	"math"

	"github.com/your-org/farmmarket-backend/internal/pkg/apperr"
)

// Quote captures a product's price and discount at the moment it was read.
// Cart mutations recompute subtotals from a fresh Quote ("float on cart"),
// while order conversion freezes the quoted unit price ("freeze on order").
type Quote struct {
	UnitPrice       int64
	DiscountPercent float64
}

// LineSubtotal computes the monetary subtotal for a line item:
//
//	round2(quantity * unitPrice * (1 - discount/100))
//
// Intermediate values are never rounded, only the final amount. Discount is
// clamped to [0,100]; a quantity below 1 is a caller contract violation.
func LineSubtotal(unitPrice int64, quantity int, discountPercent float64) (float64, error) {
	if quantity < 1 {
		return 0, apperr.ErrInvalidQuantity
	}

	discount := clampDiscount(discountPercent)
	raw := float64(quantity) * float64(unitPrice) * (1 - discount/100)
	return Round2(raw), nil
}

// LineSubtotal computes the subtotal for quantity units at this quote.
func (q Quote) LineSubtotal(quantity int) (float64, error) {
	return LineSubtotal(q.UnitPrice, quantity, q.DiscountPercent)
}

// Round2 rounds a monetary amount to 2 decimal places, half-up.
func Round2(amount float64) float64 {
	return math.Floor(amount*100+0.5) / 100
}

func clampDiscount(discountPercent float64) float64 {
	if discountPercent < 0 || math.IsNaN(discountPercent) {
		return 0
	}
	if discountPercent > 100 {
		return 100
	}
	return discountPercent
}
