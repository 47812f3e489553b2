package billing

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

const (
	EventBillCreated = "BillCreated"

	TopicBillCreated = "bill.created"
)

type Envelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	EventVersion  int             `json:"event_version"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Producer      string          `json:"producer"`
	TraceID       string          `json:"trace_id,omitempty"`
	CorrelationID string          `json:"correlation_id,omitempty"` // bill id
	Payload       json.RawMessage `json:"payload"`
}

type BillCreatedPayload struct {
	BillID       string          `json:"bill_id"`
	CustomerName string          `json:"customer_name"`
	Items        []BillItem      `json:"items"`
	Total        decimal.Decimal `json:"total"`
}

// PartitionKey keeps every event of one bill on the same partition.
func PartitionKey(billID string) []byte { return []byte(billID) }
