package catalog

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

var ErrInvalidVegetable = errors.New("invalid vegetable")

// Fields is a vegetable before the store assigns it an id.
type Fields struct {
	Name       string          `json:"name"`
	Category   string          `json:"category"`
	Icon       string          `json:"icon"`
	PricePerKg decimal.Decimal `json:"price_per_kg"`
	StockKg    decimal.Decimal `json:"stock_kg"`
}

type Vegetable struct {
	ID string `json:"id"`
	Fields
}

const (
	maxExponent = 8
	maxDigits   = 18
)

// InBounds reports whether d has a small enough exponent and coefficient for
// arithmetic on it to stay cheap. Decimals scale work with their exponent.
func InBounds(d decimal.Decimal) bool {
	e := d.Exponent()
	return e >= -maxExponent && e <= maxExponent && d.NumDigits() <= maxDigits
}

func (f Fields) Validate() error {
	switch {
	case strings.TrimSpace(f.Name) == "":
		return fmt.Errorf("%w: name is required", ErrInvalidVegetable)
	case !InBounds(f.PricePerKg):
		return fmt.Errorf("%w: price_per_kg is out of range", ErrInvalidVegetable)
	case !InBounds(f.StockKg):
		return fmt.Errorf("%w: stock_kg is out of range", ErrInvalidVegetable)
	case f.PricePerKg.IsNegative():
		return fmt.Errorf("%w: price_per_kg must not be negative", ErrInvalidVegetable)
	case f.StockKg.IsNegative():
		return fmt.Errorf("%w: stock_kg must not be negative", ErrInvalidVegetable)
	}
	return nil
}

// Index is an id-keyed view of the catalog.
type Index map[string]Vegetable

func NewIndex(vegs []Vegetable) Index {
	idx := make(Index, len(vegs))
	for _, v := range vegs {
		idx[v.ID] = v
	}
	return idx
}

func (idx Index) Lookup(id string) (Vegetable, bool) {
	v, ok := idx[id]
	return v, ok
}
