package redisx

import "time"

const (
	// session:{token} -> auth.User JSON
	KeySession = "session:%s"

	// bill:{bill_id} -> billing.Bill JSON
	KeyBill = "bill:%s"

	// dedup:{service}:{event_id}
	KeyDedup = "dedup:%s:%s"
)

var (
	TTLBillCache = 10 * time.Minute
	TTLDedup     = 48 * time.Hour
)
