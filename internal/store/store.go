// Package store holds the vegetable inventory and the bills produced at
// checkout.
package store

import (
	"context"
	"errors"

	"github.com/ariefcatur/go-veggie-billing/internal/billing"
	"github.com/ariefcatur/go-veggie-billing/internal/catalog"
)

var ErrNotFound = errors.New("not found")

type VegetableStore interface {
	ListVegetables(ctx context.Context) ([]catalog.Vegetable, error)
	GetVegetable(ctx context.Context, id string) (catalog.Vegetable, error)
	CreateVegetable(ctx context.Context, f catalog.Fields) (catalog.Vegetable, error)
	UpdateVegetable(ctx context.Context, v catalog.Vegetable) error
	DeleteVegetable(ctx context.Context, id string) error
}

// BillStore implementations assign the id and date, validate the request and
// store items exactly as given.
type BillStore interface {
	CreateBill(ctx context.Context, req billing.NewBill) (billing.Bill, error)
	ListBills(ctx context.Context) ([]billing.Bill, error)
	GetBill(ctx context.Context, id string) (billing.Bill, error)
}

type BillingData interface {
	VegetableStore
	BillStore
}

// StockDeductor removes sold quantities from stock once per bill. It reports
// false when the bill was already applied. Stock never goes below zero.
type StockDeductor interface {
	DeductStock(ctx context.Context, billID string, items []billing.BillItem) (bool, error)
}
