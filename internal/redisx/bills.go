package redisx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ariefcatur/go-veggie-billing/internal/billing"
	"github.com/redis/go-redis/v9"
)

// BillCache holds recently viewed bills. Bills never change once created, so
// entries only expire.
type BillCache struct {
	rdb *redis.Client
}

func NewBillCache(rdb *redis.Client) *BillCache { return &BillCache{rdb: rdb} }

func (c *BillCache) Get(ctx context.Context, id string) (billing.Bill, bool, error) {
	b, err := c.rdb.Get(ctx, fmt.Sprintf(KeyBill, id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return billing.Bill{}, false, nil
	}
	if err != nil {
		return billing.Bill{}, false, err
	}
	var bill billing.Bill
	if err := json.Unmarshal(b, &bill); err != nil {
		return billing.Bill{}, false, fmt.Errorf("decode cached bill: %w", err)
	}
	return bill, true, nil
}

func (c *BillCache) Set(ctx context.Context, b billing.Bill) error {
	raw, err := json.Marshal(b)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, fmt.Sprintf(KeyBill, b.ID), raw, TTLBillCache).Err()
}
