package cart

import (
	"math"
	"strings"

	"github.com/ariefcatur/go-veggie-billing/internal/catalog"
	"github.com/shopspring/decimal"
)

// ParseQuantity reads a kg amount typed by a shopper. Anything that is not a
// finite number of sane magnitude reads as zero, which removes the entry when
// set.
func ParseQuantity(s string) decimal.Decimal {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil || !catalog.InBounds(d) {
		return decimal.Zero
	}
	return d
}

// QuantityFromFloat is ParseQuantity for JSON numbers.
func QuantityFromFloat(f float64) decimal.Decimal {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return decimal.Zero
	}
	d := decimal.NewFromFloat(f)
	if !catalog.InBounds(d) {
		return decimal.Zero
	}
	return d
}
