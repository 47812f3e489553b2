// Package checkout drives a session from shopping through payment to a
// committed bill.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/ariefcatur/go-veggie-billing/internal/billing"
	"github.com/ariefcatur/go-veggie-billing/internal/cart"
	"go.uber.org/zap"
)

var (
	ErrInvalidTransition   = errors.New("invalid checkout transition")
	ErrCheckoutInProgress  = errors.New("checkout already in progress")
	ErrInsufficientStock   = errors.New("insufficient stock")
	ErrEncodingFailure     = errors.New("payment screenshot could not be encoded")
	ErrBillCreationFailure = errors.New("bill could not be created")
)

const DefaultTimeout = 15 * time.Second

// Encoder turns an uploaded payment screenshot into a transportable string.
type Encoder interface {
	Encode(ctx context.Context, r io.Reader) (string, error)
}

// BillCreator persists a bill and returns it with its id and date assigned.
type BillCreator interface {
	CreateBill(ctx context.Context, req billing.NewBill) (billing.Bill, error)
}

// Cart is the part of the shopper's cart the flow needs at commit time.
type Cart interface {
	View(cat cart.Catalog) cart.View
	Clear()
}

type Option func(*Flow)

// WithTimeout bounds the encode and persist steps of ConfirmOrder.
func WithTimeout(d time.Duration) Option {
	return func(f *Flow) {
		if d > 0 {
			f.timeout = d
		}
	}
}

func WithLogger(log *zap.Logger) Option {
	return func(f *Flow) {
		if log != nil {
			f.log = log
		}
	}
}

type Flow struct {
	encoder Encoder
	bills   BillCreator
	timeout time.Duration
	log     *zap.Logger

	mu      sync.Mutex
	stage   Stage
	pending bool
	gen     uint64 // bumped by Reset so a late commit cannot revive a closed session
	final   *billing.Bill
}

func New(enc Encoder, bills BillCreator, opts ...Option) *Flow {
	f := &Flow{
		encoder: enc,
		bills:   bills,
		timeout: DefaultTimeout,
		log:     zap.NewNop(),
		stage:   StageOrdering,
	}
	for _, o := range opts {
		o(f)
	}
	return f
}

func (f *Flow) Stage() Stage {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stage
}

// Pending reports whether a ConfirmOrder call is running.
func (f *Flow) Pending() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pending
}

// FinalBill is set only in StageSuccess.
func (f *Flow) FinalBill() (billing.Bill, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.final == nil {
		return billing.Bill{}, false
	}
	return f.final.Clone(), true
}

// PlaceOrder moves to payment. Whether the cart has anything in it is for the
// caller to decide.
func (f *Flow) PlaceOrder() error { return f.move(StageOrdering, StagePayment) }

// Back returns from payment to shopping with the cart untouched.
func (f *Flow) Back() error { return f.move(StagePayment, StageOrdering) }

func (f *Flow) OpenSettings() error { return f.move(StageOrdering, StageSettings) }

func (f *Flow) CloseSettings() error { return f.move(StageSettings, StageOrdering) }

// Reset discards the final bill and returns to ordering. A commit still in
// flight finishes but no longer affects this flow.
func (f *Flow) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gen++
	f.stage = StageOrdering
	f.final = nil
}

func (f *Flow) move(from, to Stage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.pending {
		return ErrCheckoutInProgress
	}
	if f.stage != from || !CanTransition(from, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, f.stage, to)
	}
	f.stage = to
	return nil
}

// ConfirmOrder commits the cart as a bill. On success the flow moves to
// StageSuccess and the cart is cleared. On any failure the flow stays in
// StagePayment and the cart is left as it was.
func (f *Flow) ConfirmOrder(ctx context.Context, customerName string, c Cart, cat cart.Catalog, screenshot io.Reader) (billing.Bill, error) {
	f.mu.Lock()
	if f.pending {
		f.mu.Unlock()
		return billing.Bill{}, ErrCheckoutInProgress
	}
	if f.stage != StagePayment {
		stage := f.stage
		f.mu.Unlock()
		return billing.Bill{}, fmt.Errorf("%w: confirm from %s", ErrInvalidTransition, stage)
	}
	f.pending = true
	gen := f.gen
	f.mu.Unlock()

	defer func() {
		f.mu.Lock()
		f.pending = false
		f.mu.Unlock()
	}()

	bill, err := f.commit(ctx, customerName, c.View(cat), screenshot)
	if err != nil {
		f.log.Warn("checkout failed", zap.String("customer", customerName), zap.Error(err))
		return billing.Bill{}, err
	}

	f.mu.Lock()
	current := gen == f.gen
	if current {
		f.stage = StageSuccess
		kept := bill.Clone()
		f.final = &kept
	}
	f.mu.Unlock()

	if !current {
		f.log.Info("bill created after session reset", zap.String("bill_id", bill.ID))
		return bill, nil
	}
	c.Clear()
	f.log.Info("bill created",
		zap.String("bill_id", bill.ID),
		zap.String("customer", customerName),
		zap.String("total", bill.Total.String()),
		zap.Int("items", len(bill.Items)),
	)
	return bill, nil
}

func (f *Flow) commit(ctx context.Context, customerName string, view cart.View, screenshot io.Reader) (billing.Bill, error) {
	for _, l := range view.Lines {
		if l.QuantityKg.GreaterThan(l.StockKg) {
			return billing.Bill{}, fmt.Errorf("%w: %s has %s kg, cart holds %s kg",
				ErrInsufficientStock, l.VegetableID, l.StockKg, l.QuantityKg)
		}
	}

	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	encoded, err := f.encoder.Encode(ctx, screenshot)
	if err != nil {
		return billing.Bill{}, fmt.Errorf("%w: %w", ErrEncodingFailure, err)
	}

	req := billing.NewBill{
		CustomerName:      customerName,
		Items:             view.BillItems(),
		Total:             view.Total,
		PaymentScreenshot: encoded,
	}
	if err := req.Validate(); err != nil {
		return billing.Bill{}, fmt.Errorf("%w: %w", ErrBillCreationFailure, err)
	}

	bill, err := f.bills.CreateBill(ctx, req)
	if err != nil {
		return billing.Bill{}, fmt.Errorf("%w: %w", ErrBillCreationFailure, err)
	}
	return bill, nil
}
