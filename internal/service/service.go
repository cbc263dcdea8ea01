// Package service содержит бизнес-логику витрины: каталог, корзину,
// оформление заказа, историю заказов и адресную книгу.
package service

import (
	"context"
	"sync"

	"grocery/internal/domain"
)

// CatalogCache кэш чтения каталога для витрины. Корзина и оформление
// заказа его не используют: остатки всегда читаются из хранилища.
type CatalogCache interface {
	Product(ctx context.Context, id string, load func(ctx context.Context) (*domain.Product, error)) (*domain.Product, error)
	Products(ctx context.Context, query string, load func(ctx context.Context) ([]domain.Product, error)) ([]domain.Product, error)
	Invalidate(ctx context.Context, ids ...string) error
}

// IdempotencyStore ключи Idempotency-Key для оформления заказа
type IdempotencyStore interface {
	// Reserve: reserved=true, если ключ новый; иначе orderNumber заполнен
	// для завершённого оформления и пуст, пока оно идёт
	Reserve(ctx context.Context, customerID, key string) (orderNumber string, reserved bool, err error)
	Complete(ctx context.Context, customerID, key, orderNumber string) error
	Release(ctx context.Context, customerID, key string) error
}

// NoCache ходит в хранилище напрямую
type NoCache struct{}

func (NoCache) Product(ctx context.Context, _ string, load func(ctx context.Context) (*domain.Product, error)) (*domain.Product, error) {
	return load(ctx)
}

func (NoCache) Products(ctx context.Context, _ string, load func(ctx context.Context) ([]domain.Product, error)) ([]domain.Product, error) {
	return load(ctx)
}

func (NoCache) Invalidate(context.Context, ...string) error { return nil }

const idemPending = ""

// MemoryIdempotency ключи в памяти процесса, без TTL
type MemoryIdempotency struct {
	mu   sync.Mutex
	keys map[string]string
}

func NewMemoryIdempotency() *MemoryIdempotency {
	return &MemoryIdempotency{keys: make(map[string]string)}
}

func (m *MemoryIdempotency) Reserve(_ context.Context, customerID, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := customerID + "\x00" + key
	if num, ok := m.keys[k]; ok {
		return num, false, nil
	}
	m.keys[k] = idemPending
	return "", true, nil
}

func (m *MemoryIdempotency) Complete(_ context.Context, customerID, key, orderNumber string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.keys[customerID+"\x00"+key] = orderNumber
	return nil
}

func (m *MemoryIdempotency) Release(_ context.Context, customerID, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.keys, customerID+"\x00"+key)
	return nil
}

func requireCustomer(customerID string) error {
	if customerID == "" {
		return domain.Invalid("customer id is required")
	}
	return nil
}
