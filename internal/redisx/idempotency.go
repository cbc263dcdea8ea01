package redisx

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Idempotency хранит ключи Idempotency-Key для оформления заказа.
// Значение "pending" пока заказ оформляется, потом номер заказа.
type Idempotency struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewIdempotency(rdb *redis.Client, ttl time.Duration) *Idempotency {
	if ttl <= 0 {
		ttl = TTLIdempotency
	}
	return &Idempotency{rdb: rdb, ttl: ttl}
}

// Reserve занимает ключ. Если ключ уже был, reserved=false, а orderNumber
// непустой только для завершённого оформления.
func (s *Idempotency) Reserve(ctx context.Context, customerID, key string) (orderNumber string, reserved bool, err error) {
	k := fmt.Sprintf(KeyIdemCheckout, customerID, key)
	ok, err := s.rdb.SetNX(ctx, k, idemPending, s.ttl).Result()
	if err != nil {
		return "", false, err
	}
	if ok {
		return "", true, nil
	}
	val, err := s.rdb.Get(ctx, k).Result()
	if errors.Is(err, redis.Nil) {
		// expired between the two calls, treat as still running
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	if val == idemPending {
		return "", false, nil
	}
	return val, false, nil
}

func (s *Idempotency) Complete(ctx context.Context, customerID, key, orderNumber string) error {
	return s.rdb.Set(ctx, fmt.Sprintf(KeyIdemCheckout, customerID, key), orderNumber, s.ttl).Err()
}

func (s *Idempotency) Release(ctx context.Context, customerID, key string) error {
	return s.rdb.Del(ctx, fmt.Sprintf(KeyIdemCheckout, customerID, key)).Err()
}
