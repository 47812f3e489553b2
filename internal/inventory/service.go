package inventory

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ariefcatur/go-veggie-billing/internal/billing"
	kafkax "github.com/ariefcatur/go-veggie-billing/internal/kafka"
	"github.com/ariefcatur/go-veggie-billing/internal/store"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// Deduper drops redelivered events. redisx.Deduper satisfies it.
type Deduper interface {
	FirstSeen(ctx context.Context, eventID string) (bool, error)
	Forget(ctx context.Context, eventID string) error
}

// Service lowers stock for every sold bill.
type Service struct {
	Stock store.StockDeductor
	Dedup Deduper
	Log   *zap.Logger
}

// HandleBillCreated is installed as the bill.created consumer handler.
func (s *Service) HandleBillCreated(ctx context.Context, m kafkago.Message) error {
	var env billing.Envelope
	if err := json.Unmarshal(m.Value, &env); err != nil {
		// poison message, nothing to retry
		s.logger().Error("undecodable event", zap.Int64("offset", m.Offset), zap.Error(err))
		return nil
	}
	if env.EventType != billing.EventBillCreated {
		return nil
	}

	if s.Dedup != nil {
		first, err := s.Dedup.FirstSeen(ctx, env.EventID)
		if err != nil {
			return fmt.Errorf("dedup %s: %w", env.EventID, err)
		}
		if !first {
			return nil
		}
	}

	p, err := kafkax.UnwrapPayload[billing.BillCreatedPayload](env.Payload)
	if err != nil {
		s.logger().Error("bad bill payload", zap.String("event_id", env.EventID), zap.Error(err))
		return nil
	}

	applied, err := s.Stock.DeductStock(ctx, p.BillID, p.Items)
	if err != nil {
		if s.Dedup != nil {
			_ = s.Dedup.Forget(ctx, env.EventID)
		}
		return fmt.Errorf("deduct stock for bill %s: %w", p.BillID, err)
	}
	s.logger().Info("stock deducted",
		zap.String("bill_id", p.BillID), zap.Int("items", len(p.Items)), zap.Bool("applied", applied))
	return nil
}

func (s *Service) logger() *zap.Logger {
	if s.Log == nil {
		return zap.NewNop()
	}
	return s.Log
}
