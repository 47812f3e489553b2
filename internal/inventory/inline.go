package inventory

import (
	"context"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// Inline delivers published events straight to the service in-process. It
// stands in for Kafka when the API runs on the memory store.
type Inline struct {
	Svc *Service
}

func (i *Inline) Publish(key, value []byte, headers ...kafkago.Header) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	m := kafkago.Message{Key: key, Value: value, Headers: headers, Time: time.Now()}
	if err := i.Svc.HandleBillCreated(ctx, m); err != nil {
		i.Svc.logger().Error("inline stock deduction failed", zap.ByteString("key", key), zap.Error(err))
	}
}
