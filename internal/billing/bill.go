package billing

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrEmptyBill         = errors.New("bill has no items")
	ErrInvalidItem       = errors.New("invalid bill item")
	ErrInconsistentTotal = errors.New("bill total does not equal the sum of subtotals")
)

// BillItem is a price/quantity snapshot of one purchased vegetable.
type BillItem struct {
	VegetableID string          `json:"vegetable_id"`
	QuantityKg  decimal.Decimal `json:"quantity_kg"`
	Subtotal    decimal.Decimal `json:"subtotal"`
}

// NewBill is a bill-creation request: everything except the id and date,
// which the store assigns.
type NewBill struct {
	CustomerName      string          `json:"customer_name"`
	Items             []BillItem      `json:"items"`
	Total             decimal.Decimal `json:"total"`
	PaymentScreenshot string          `json:"payment_screenshot"`
}

type Bill struct {
	ID                string          `json:"id"`
	Date              time.Time       `json:"date"`
	CustomerName      string          `json:"customer_name"`
	Items             []BillItem      `json:"items"`
	Total             decimal.Decimal `json:"total"`
	PaymentScreenshot string          `json:"payment_screenshot"`
}

// Validate checks the request is internally consistent. Stores may rely on it
// and reject anything that fails.
func (n NewBill) Validate() error {
	if len(n.Items) == 0 {
		return ErrEmptyBill
	}
	sum := decimal.Zero
	for i, it := range n.Items {
		switch {
		case strings.TrimSpace(it.VegetableID) == "":
			return fmt.Errorf("%w: item %d has no vegetable id", ErrInvalidItem, i)
		case !it.QuantityKg.IsPositive():
			return fmt.Errorf("%w: item %s quantity must be positive", ErrInvalidItem, it.VegetableID)
		case it.Subtotal.IsNegative():
			return fmt.Errorf("%w: item %s subtotal must not be negative", ErrInvalidItem, it.VegetableID)
		}
		sum = sum.Add(it.Subtotal)
	}
	if !sum.Equal(n.Total) {
		return fmt.Errorf("%w: total %s, items %s", ErrInconsistentTotal, n.Total, sum)
	}
	return nil
}

// Finalize stamps the request with an id and date. Item slices are copied so
// the bill shares nothing with the caller.
func (n NewBill) Finalize(id string, at time.Time) Bill {
	items := make([]BillItem, len(n.Items))
	copy(items, n.Items)
	return Bill{
		ID:                id,
		Date:              at,
		CustomerName:      n.CustomerName,
		Items:             items,
		Total:             n.Total,
		PaymentScreenshot: n.PaymentScreenshot,
	}
}

// Clone returns a deep copy of the bill.
func (b Bill) Clone() Bill {
	items := make([]BillItem, len(b.Items))
	copy(items, b.Items)
	b.Items = items
	return b
}
