// Package admin is the store owner's view of inventory and sales.
package admin

import (
	"context"
	"fmt"

	"github.com/ariefcatur/go-veggie-billing/internal/auth"
	"github.com/ariefcatur/go-veggie-billing/internal/billing"
	"github.com/ariefcatur/go-veggie-billing/internal/catalog"
	"github.com/ariefcatur/go-veggie-billing/internal/store"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const recentBills = 5

// BillCache is an optional read-through cache for single bills.
// redisx.BillCache satisfies it.
type BillCache interface {
	Get(ctx context.Context, id string) (billing.Bill, bool, error)
	Set(ctx context.Context, b billing.Bill) error
}

type Service struct {
	Data       store.BillingData
	Cache      BillCache
	LowStockKg decimal.Decimal
	Log        *zap.Logger
}

type Summary struct {
	BillCount int                 `json:"bill_count"`
	Revenue   decimal.Decimal     `json:"revenue"`
	Recent    []billing.Bill      `json:"recent"`
	LowStock  []catalog.Vegetable `json:"low_stock"`
}

func requireAdmin(u auth.User) error {
	if !u.IsAdmin() {
		return fmt.Errorf("%w: %s is not an admin", auth.ErrForbidden, u.ID)
	}
	return nil
}

func (s *Service) logger() *zap.Logger {
	if s.Log == nil {
		return zap.NewNop()
	}
	return s.Log
}

func (s *Service) ListVegetables(ctx context.Context, u auth.User) ([]catalog.Vegetable, error) {
	if err := requireAdmin(u); err != nil {
		return nil, err
	}
	return s.Data.ListVegetables(ctx)
}

func (s *Service) AddVegetable(ctx context.Context, u auth.User, f catalog.Fields) (catalog.Vegetable, error) {
	if err := requireAdmin(u); err != nil {
		return catalog.Vegetable{}, err
	}
	v, err := s.Data.CreateVegetable(ctx, f)
	if err != nil {
		return catalog.Vegetable{}, err
	}
	s.logger().Info("vegetable added", zap.String("id", v.ID), zap.String("name", v.Name))
	return v, nil
}

func (s *Service) UpdateVegetable(ctx context.Context, u auth.User, v catalog.Vegetable) error {
	if err := requireAdmin(u); err != nil {
		return err
	}
	if err := s.Data.UpdateVegetable(ctx, v); err != nil {
		return err
	}
	s.logger().Info("vegetable updated", zap.String("id", v.ID))
	return nil
}

func (s *Service) DeleteVegetable(ctx context.Context, u auth.User, id string) error {
	if err := requireAdmin(u); err != nil {
		return err
	}
	if err := s.Data.DeleteVegetable(ctx, id); err != nil {
		return err
	}
	s.logger().Info("vegetable deleted", zap.String("id", id))
	return nil
}

// ListBills returns every bill, newest first.
func (s *Service) ListBills(ctx context.Context, u auth.User) ([]billing.Bill, error) {
	if err := requireAdmin(u); err != nil {
		return nil, err
	}
	return s.Data.ListBills(ctx)
}

func (s *Service) GetBill(ctx context.Context, u auth.User, id string) (billing.Bill, error) {
	if err := requireAdmin(u); err != nil {
		return billing.Bill{}, err
	}
	if s.Cache != nil {
		b, ok, err := s.Cache.Get(ctx, id)
		if err != nil {
			s.logger().Warn("bill cache read failed", zap.String("bill_id", id), zap.Error(err))
		} else if ok {
			return b, nil
		}
	}

	b, err := s.Data.GetBill(ctx, id)
	if err != nil {
		return billing.Bill{}, err
	}
	if s.Cache != nil {
		if err := s.Cache.Set(ctx, b); err != nil {
			s.logger().Warn("bill cache write failed", zap.String("bill_id", id), zap.Error(err))
		}
	}
	return b, nil
}

// Summary reports sales totals, the latest bills and vegetables whose stock
// is below the low-stock threshold.
func (s *Service) Summary(ctx context.Context, u auth.User) (Summary, error) {
	if err := requireAdmin(u); err != nil {
		return Summary{}, err
	}
	bills, err := s.Data.ListBills(ctx)
	if err != nil {
		return Summary{}, err
	}
	vegs, err := s.Data.ListVegetables(ctx)
	if err != nil {
		return Summary{}, err
	}

	sum := Summary{BillCount: len(bills), Revenue: decimal.Zero, LowStock: []catalog.Vegetable{}}
	for _, b := range bills {
		sum.Revenue = sum.Revenue.Add(b.Total)
	}
	sum.Recent = bills[:min(recentBills, len(bills))]
	for _, v := range vegs {
		if v.StockKg.LessThan(s.LowStockKg) {
			sum.LowStock = append(sum.LowStock, v)
		}
	}
	return sum, nil
}
