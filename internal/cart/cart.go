// Package cart keeps a shopper's quantity-by-vegetable mapping and derives the
// priced view of it from the live catalog.
package cart

import (
	"github.com/ariefcatur/go-veggie-billing/internal/catalog"
	"github.com/shopspring/decimal"
)

// Step is the kg added or removed by Increment and Decrement.
var Step = decimal.RequireFromString("0.25")

// Catalog resolves vegetable ids against current inventory.
type Catalog interface {
	Lookup(id string) (catalog.Vegetable, bool)
}

// Cart is not safe for concurrent use; a session owns exactly one.
type Cart struct {
	items map[string]decimal.Decimal
}

func New() *Cart {
	return &Cart{items: map[string]decimal.Decimal{}}
}

// SetQuantity rounds qty to 2 places and clamps it to [0, stock]. A result of
// zero removes the entry, as does a qty outside catalog.InBounds. Unknown ids
// leave the cart unchanged.
func (c *Cart) SetQuantity(cat Catalog, id string, qty decimal.Decimal) {
	v, ok := cat.Lookup(id)
	if !ok {
		return
	}
	if !catalog.InBounds(qty) {
		qty = decimal.Zero
	}
	q := clamp(qty.Round(2), decimal.Zero, v.StockKg.RoundFloor(2))
	if q.IsPositive() {
		c.items[id] = q
		return
	}
	delete(c.items, id)
}

// Add puts the category default quantity in the cart.
func (c *Cart) Add(cat Catalog, id string) {
	v, ok := cat.Lookup(id)
	if !ok {
		return
	}
	c.SetQuantity(cat, id, catalog.DefaultQuantity(v))
}

func (c *Cart) Increment(cat Catalog, id string) {
	c.SetQuantity(cat, id, c.Quantity(id).Add(Step))
}

func (c *Cart) Decrement(cat Catalog, id string) {
	c.SetQuantity(cat, id, c.Quantity(id).Sub(Step))
}

// Quantity returns zero for ids not in the cart.
func (c *Cart) Quantity(id string) decimal.Decimal {
	return c.items[id]
}

func (c *Cart) Len() int { return len(c.items) }

func (c *Cart) Clear() {
	c.items = map[string]decimal.Decimal{}
}

// Entries returns a copy of the mapping.
func (c *Cart) Entries() map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal, len(c.items))
	for id, q := range c.items {
		out[id] = q
	}
	return out
}

func clamp(v, lo, hi decimal.Decimal) decimal.Decimal {
	if v.LessThan(lo) {
		return lo
	}
	if v.GreaterThan(hi) {
		return hi
	}
	return v
}
