package store

import (
	"context"
	"time"

	"github.com/ariefcatur/go-veggie-billing/internal/billing"
	kafkax "github.com/ariefcatur/go-veggie-billing/internal/kafka"
	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// Publisher queues a message for delivery. kafka.Producer satisfies it.
type Publisher interface {
	Publish(key, value []byte, headers ...kafkago.Header)
}

type eventStore struct {
	BillingData
	pub     Publisher
	service string
	log     *zap.Logger
}

// WithEvents announces every created bill on billing.TopicBillCreated. The
// bill is already committed when the event is queued, so publishing never
// fails CreateBill.
func WithEvents(inner BillingData, pub Publisher, service string, log *zap.Logger) BillingData {
	if log == nil {
		log = zap.NewNop()
	}
	return &eventStore{BillingData: inner, pub: pub, service: service, log: log}
}

func (s *eventStore) CreateBill(ctx context.Context, req billing.NewBill) (billing.Bill, error) {
	b, err := s.BillingData.CreateBill(ctx, req)
	if err != nil {
		return b, err
	}

	s.pub.Publish(billing.PartitionKey(b.ID), BillCreatedEvent(b, s.service, time.Now().UTC()),
		kafkago.Header{Key: "x-event-type", Value: []byte(billing.EventBillCreated)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)
	s.log.Debug("bill event queued", zap.String("bill_id", b.ID))
	return b, nil
}

// BillCreatedEvent builds the JSON envelope for a new bill. The screenshot is
// left out of the payload.
func BillCreatedEvent(b billing.Bill, producer string, at time.Time) []byte {
	return kafkax.MustMarshal(billing.Envelope{
		EventID:       uuid.NewString(),
		EventType:     billing.EventBillCreated,
		EventVersion:  1,
		OccurredAt:    at,
		Producer:      producer,
		CorrelationID: b.ID,
		Payload: kafkax.MustMarshal(billing.BillCreatedPayload{
			BillID:       b.ID,
			CustomerName: b.CustomerName,
			Items:        b.Items,
			Total:        b.Total,
		}),
	})
}
