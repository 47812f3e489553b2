// Package session ties a logged-in user to their cart and checkout flow.
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/ariefcatur/go-veggie-billing/internal/auth"
	"github.com/ariefcatur/go-veggie-billing/internal/billing"
	"github.com/ariefcatur/go-veggie-billing/internal/cart"
	"github.com/ariefcatur/go-veggie-billing/internal/catalog"
	"github.com/ariefcatur/go-veggie-billing/internal/checkout"
	"github.com/shopspring/decimal"
)

var ErrEmptyCart = errors.New("cart is empty")

// Inventory is the read side of the vegetable store.
type Inventory interface {
	ListVegetables(ctx context.Context) ([]catalog.Vegetable, error)
}

// Listing is a catalog entry as a shopper sees it.
type Listing struct {
	catalog.Vegetable
	InCartKg  decimal.Decimal `json:"in_cart_kg"`
	DefaultKg decimal.Decimal `json:"default_kg"`
}

type Session struct {
	ID        string
	User      auth.User
	CreatedAt time.Time

	inventory Inventory
	flow      *checkout.Flow

	mu   sync.Mutex
	cart *cart.Cart
}

func newSession(id string, u auth.User, inv Inventory, flow *checkout.Flow, at time.Time) *Session {
	return &Session{ID: id, User: u, CreatedAt: at, inventory: inv, flow: flow, cart: cart.New()}
}

func (s *Session) requireCustomer() error {
	if !s.User.IsCustomer() {
		return fmt.Errorf("%w: %s is not a customer", auth.ErrForbidden, s.User.ID)
	}
	return nil
}

func (s *Session) catalog(ctx context.Context) ([]catalog.Vegetable, catalog.Index, error) {
	vegs, err := s.inventory.ListVegetables(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("load catalog: %w", err)
	}
	return vegs, catalog.NewIndex(vegs), nil
}

// mutate applies fn to the cart against the live catalog. The cart is frozen
// while a checkout commit runs and outside the ordering stage.
func (s *Session) mutate(ctx context.Context, fn func(c *cart.Cart, idx catalog.Index)) (cart.View, error) {
	if err := s.requireCustomer(); err != nil {
		return cart.View{}, err
	}
	_, idx, err := s.catalog(ctx)
	if err != nil {
		return cart.View{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.flow.Pending() {
		return cart.View{}, checkout.ErrCheckoutInProgress
	}
	if st := s.flow.Stage(); st != checkout.StageOrdering {
		return cart.View{}, fmt.Errorf("%w: cart is read-only in %s", checkout.ErrInvalidTransition, st)
	}
	fn(s.cart, idx)
	return s.cart.View(idx), nil
}

func (s *Session) SetQuantity(ctx context.Context, id string, qty decimal.Decimal) (cart.View, error) {
	return s.mutate(ctx, func(c *cart.Cart, idx catalog.Index) { c.SetQuantity(idx, id, qty) })
}

func (s *Session) Add(ctx context.Context, id string) (cart.View, error) {
	return s.mutate(ctx, func(c *cart.Cart, idx catalog.Index) { c.Add(idx, id) })
}

func (s *Session) Increment(ctx context.Context, id string) (cart.View, error) {
	return s.mutate(ctx, func(c *cart.Cart, idx catalog.Index) { c.Increment(idx, id) })
}

func (s *Session) Decrement(ctx context.Context, id string) (cart.View, error) {
	return s.mutate(ctx, func(c *cart.Cart, idx catalog.Index) { c.Decrement(idx, id) })
}

// View prices the cart with current catalog data.
func (s *Session) View(ctx context.Context) (cart.View, error) {
	if err := s.requireCustomer(); err != nil {
		return cart.View{}, err
	}
	_, idx, err := s.catalog(ctx)
	if err != nil {
		return cart.View{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cart.View(idx), nil
}

// Browse filters the catalog by name and category and annotates each entry
// with what the shopper already holds.
func (s *Session) Browse(ctx context.Context, search, category string) ([]Listing, error) {
	if err := s.requireCustomer(); err != nil {
		return nil, err
	}
	vegs, _, err := s.catalog(ctx)
	if err != nil {
		return nil, err
	}
	matched := catalog.Filter(vegs, search, category)

	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Listing, 0, len(matched))
	for _, v := range matched {
		out = append(out, Listing{Vegetable: v, InCartKg: s.cart.Quantity(v.ID), DefaultKg: catalog.DefaultQuantity(v)})
	}
	return out, nil
}

func (s *Session) Categories(ctx context.Context) ([]string, error) {
	if err := s.requireCustomer(); err != nil {
		return nil, err
	}
	vegs, _, err := s.catalog(ctx)
	if err != nil {
		return nil, err
	}
	return catalog.Categories(vegs), nil
}

// PlaceOrder moves to payment when the cart holds at least one line.
func (s *Session) PlaceOrder(ctx context.Context) error {
	v, err := s.View(ctx)
	if err != nil {
		return err
	}
	if v.Empty() {
		return ErrEmptyCart
	}
	return s.flow.PlaceOrder()
}

func (s *Session) Back() error {
	if err := s.requireCustomer(); err != nil {
		return err
	}
	return s.flow.Back()
}

func (s *Session) OpenSettings() error {
	if err := s.requireCustomer(); err != nil {
		return err
	}
	return s.flow.OpenSettings()
}

func (s *Session) CloseSettings() error {
	if err := s.requireCustomer(); err != nil {
		return err
	}
	return s.flow.CloseSettings()
}

// ConfirmOrder commits the cart as a bill in the shopper's name.
func (s *Session) ConfirmOrder(ctx context.Context, screenshot io.Reader) (billing.Bill, error) {
	if err := s.requireCustomer(); err != nil {
		return billing.Bill{}, err
	}
	_, idx, err := s.catalog(ctx)
	if err != nil {
		return billing.Bill{}, err
	}
	return s.flow.ConfirmOrder(ctx, s.User.Name, lockedCart{s}, idx, screenshot)
}

func (s *Session) Stage() checkout.Stage { return s.flow.Stage() }

func (s *Session) FinalBill() (billing.Bill, bool) { return s.flow.FinalBill() }

// Pending reports whether a checkout commit is running.
func (s *Session) Pending() bool { return s.flow.Pending() }

// end empties the cart and returns the flow to ordering.
func (s *Session) end() {
	s.flow.Reset()
	s.mu.Lock()
	s.cart.Clear()
	s.mu.Unlock()
}

// lockedCart gives the checkout flow access to the cart under the session
// lock without the flow holding its own lock at the same time.
type lockedCart struct{ s *Session }

func (c lockedCart) View(cat cart.Catalog) cart.View {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()
	return c.s.cart.View(cat)
}

func (c lockedCart) Clear() {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()
	c.s.cart.Clear()
}
