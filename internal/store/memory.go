package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/ariefcatur/go-veggie-billing/internal/billing"
	"github.com/ariefcatur/go-veggie-billing/internal/catalog"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Memory struct {
	mu       sync.RWMutex
	vegs     map[string]catalog.Vegetable
	bills    map[string]billing.Bill
	order    []string // bill ids, oldest first
	deducted map[string]bool
	now      func() time.Time
	newID    func() string
}

type MemoryOption func(*Memory)

func WithClock(now func() time.Time) MemoryOption {
	return func(m *Memory) { m.now = now }
}

func WithIDs(next func() string) MemoryOption {
	return func(m *Memory) { m.newID = next }
}

// WithSeed preloads vegetables, keeping their ids.
func WithSeed(vegs []catalog.Vegetable) MemoryOption {
	return func(m *Memory) {
		for _, v := range vegs {
			m.vegs[v.ID] = v
		}
	}
}

func NewMemory(opts ...MemoryOption) *Memory {
	m := &Memory{
		vegs:     map[string]catalog.Vegetable{},
		bills:    map[string]billing.Bill{},
		deducted: map[string]bool{},
		now:      func() time.Time { return time.Now().UTC() },
		newID:    uuid.NewString,
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

func (m *Memory) ListVegetables(ctx context.Context) ([]catalog.Vegetable, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]catalog.Vegetable, 0, len(m.vegs))
	for _, v := range m.vegs {
		out = append(out, v)
	}
	catalog.SortByName(out)
	return out, nil
}

func (m *Memory) GetVegetable(ctx context.Context, id string) (catalog.Vegetable, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.vegs[id]
	if !ok {
		return catalog.Vegetable{}, fmt.Errorf("vegetable %s: %w", id, ErrNotFound)
	}
	return v, nil
}

func (m *Memory) CreateVegetable(ctx context.Context, f catalog.Fields) (catalog.Vegetable, error) {
	if err := f.Validate(); err != nil {
		return catalog.Vegetable{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	v := catalog.Vegetable{ID: m.newID(), Fields: f}
	m.vegs[v.ID] = v
	return v, nil
}

func (m *Memory) UpdateVegetable(ctx context.Context, v catalog.Vegetable) error {
	if err := v.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.vegs[v.ID]; !ok {
		return fmt.Errorf("vegetable %s: %w", v.ID, ErrNotFound)
	}
	m.vegs[v.ID] = v
	return nil
}

func (m *Memory) DeleteVegetable(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.vegs[id]; !ok {
		return fmt.Errorf("vegetable %s: %w", id, ErrNotFound)
	}
	delete(m.vegs, id)
	return nil
}

func (m *Memory) CreateBill(ctx context.Context, req billing.NewBill) (billing.Bill, error) {
	if err := req.Validate(); err != nil {
		return billing.Bill{}, err
	}
	if err := ctx.Err(); err != nil {
		return billing.Bill{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	b := req.Finalize(m.newID(), m.now())
	m.bills[b.ID] = b
	m.order = append(m.order, b.ID)
	return b.Clone(), nil
}

// ListBills returns newest first.
func (m *Memory) ListBills(ctx context.Context) ([]billing.Bill, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]billing.Bill, 0, len(m.order))
	for i := len(m.order) - 1; i >= 0; i-- {
		out = append(out, m.bills[m.order[i]].Clone())
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	return out, nil
}

func (m *Memory) GetBill(ctx context.Context, id string) (billing.Bill, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.bills[id]
	if !ok {
		return billing.Bill{}, fmt.Errorf("bill %s: %w", id, ErrNotFound)
	}
	return b.Clone(), nil
}

func (m *Memory) DeductStock(ctx context.Context, billID string, items []billing.BillItem) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.deducted[billID] {
		return false, nil
	}
	for _, it := range items {
		v, ok := m.vegs[it.VegetableID]
		if !ok {
			continue // deleted since the sale
		}
		v.StockKg = decimal.Max(decimal.Zero, v.StockKg.Sub(it.QuantityKg))
		m.vegs[v.ID] = v
	}
	m.deducted[billID] = true
	return true, nil
}

// DefaultSeed is the starting catalog for a fresh in-memory store.
func DefaultSeed() []catalog.Vegetable {
	d := decimal.RequireFromString
	return []catalog.Vegetable{
		{ID: "tomato", Fields: catalog.Fields{Name: "Tomato", Category: "Vegetables", Icon: "🍅", PricePerKg: d("40"), StockKg: d("50")}},
		{ID: "onion", Fields: catalog.Fields{Name: "Onion", Category: "Vegetables", Icon: "🧅", PricePerKg: d("35"), StockKg: d("80")}},
		{ID: "potato", Fields: catalog.Fields{Name: "Potato", Category: "Roots", Icon: "🥔", PricePerKg: d("30"), StockKg: d("100")}},
		{ID: "carrot", Fields: catalog.Fields{Name: "Carrot", Category: "Roots", Icon: "🥕", PricePerKg: d("60"), StockKg: d("25")}},
		{ID: "brinjal", Fields: catalog.Fields{Name: "Brinjal", Category: "Vegetables", Icon: "🍆", PricePerKg: d("45"), StockKg: d("20")}},
		{ID: "spinach", Fields: catalog.Fields{Name: "Spinach", Category: catalog.GreensCategory, Icon: "🥬", PricePerKg: d("80"), StockKg: d("8")}},
		{ID: "coriander", Fields: catalog.Fields{Name: "Coriander", Category: catalog.GreensCategory, Icon: "🌿", PricePerKg: d("120"), StockKg: d("3")}},
		{ID: "green-chilli", Fields: catalog.Fields{Name: "Green Chilli", Category: "Vegetables", Icon: "🌶️", PricePerKg: d("90"), StockKg: d("6")}},
	}
}
