package redisx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ariefcatur/go-veggie-billing/internal/auth"
	"github.com/redis/go-redis/v9"
)

// TokenStore keeps bearer tokens in Redis so logins survive an API restart.
type TokenStore struct {
	rdb *redis.Client
}

func NewTokenStore(rdb *redis.Client) *TokenStore { return &TokenStore{rdb: rdb} }

func (s *TokenStore) Save(ctx context.Context, token string, u auth.User, ttl time.Duration) error {
	b, err := json.Marshal(u)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, fmt.Sprintf(KeySession, token), b, ttl).Err()
}

func (s *TokenStore) Lookup(ctx context.Context, token string) (auth.User, bool, error) {
	b, err := s.rdb.Get(ctx, fmt.Sprintf(KeySession, token)).Bytes()
	if errors.Is(err, redis.Nil) {
		return auth.User{}, false, nil
	}
	if err != nil {
		return auth.User{}, false, err
	}
	var u auth.User
	if err := json.Unmarshal(b, &u); err != nil {
		return auth.User{}, false, fmt.Errorf("decode session: %w", err)
	}
	return u, true, nil
}

func (s *TokenStore) Delete(ctx context.Context, token string) error {
	return s.rdb.Del(ctx, fmt.Sprintf(KeySession, token)).Err()
}
