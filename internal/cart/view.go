package cart

import (
	"sort"

	"github.com/ariefcatur/go-veggie-billing/internal/billing"
	"github.com/ariefcatur/go-veggie-billing/internal/catalog"
	"github.com/shopspring/decimal"
)

type LineItem struct {
	VegetableID string          `json:"vegetable_id"`
	Name        string          `json:"name"`
	Icon        string          `json:"icon"`
	PricePerKg  decimal.Decimal `json:"price_per_kg"`
	StockKg     decimal.Decimal `json:"stock_kg"`
	QuantityKg  decimal.Decimal `json:"quantity_kg"`
	Subtotal    decimal.Decimal `json:"subtotal"`
}

type View struct {
	Lines     []LineItem      `json:"lines"`
	Total     decimal.Decimal `json:"total"`
	ItemCount int             `json:"item_count"`
}

func (v View) Empty() bool { return len(v.Lines) == 0 }

// BillItems drops the display-only fields.
func (v View) BillItems() []billing.BillItem {
	out := make([]billing.BillItem, 0, len(v.Lines))
	for _, l := range v.Lines {
		out = append(out, billing.BillItem{
			VegetableID: l.VegetableID,
			QuantityKg:  l.QuantityKg,
			Subtotal:    l.Subtotal,
		})
	}
	return out
}

// View prices every entry against cat. Entries whose vegetable is gone from the
// catalog are skipped. Lines are ordered by name.
func (c *Cart) View(cat Catalog) View {
	lines := make([]LineItem, 0, len(c.items))
	total := decimal.Zero
	for id, q := range c.items {
		v, ok := cat.Lookup(id)
		if !ok {
			continue
		}
		sub := v.PricePerKg.Mul(q)
		lines = append(lines, LineItem{
			VegetableID: id,
			Name:        v.Name,
			Icon:        v.Icon,
			PricePerKg:  v.PricePerKg,
			StockKg:     v.StockKg,
			QuantityKg:  q,
			Subtotal:    sub,
		})
		total = total.Add(sub)
	}

	col := catalog.NameCollator()
	sort.Slice(lines, func(i, j int) bool {
		return catalog.LessByName(col, lines[i].Name, lines[i].VegetableID, lines[j].Name, lines[j].VegetableID)
	})
	return View{Lines: lines, Total: total, ItemCount: len(lines)}
}
