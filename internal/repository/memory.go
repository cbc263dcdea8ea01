package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"grocery/internal/domain"
)

// MemoryStore объединённое in-memory хранилище и простой генератор ID
type MemoryStore struct {
	mu             sync.RWMutex
	nextProdID     int64
	nextCategoryID int64
	productsByID   map[string]domain.Product
	categories     []domain.Category
	cartsByID      map[string]domain.Cart
	ordersByNumber map[string]domain.Order
	addresses      map[string][]domain.Address
	reconciliation []domain.ReconciliationEntry
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		nextProdID:     1,
		nextCategoryID: 1,
		productsByID:   make(map[string]domain.Product),
		cartsByID:      make(map[string]domain.Cart),
		ordersByNumber: make(map[string]domain.Order),
		addresses:      make(map[string][]domain.Address),
	}
}

// NewMemoryRepositories собирает все in-memory репозитории поверх одного хранилища
func NewMemoryRepositories(store *MemoryStore) *Repositories {
	return &Repositories{
		Products:       store,
		Categories:     NewMemoryCategories(store),
		Carts:          NewMemoryCarts(store),
		Orders:         NewMemoryOrders(store),
		Addresses:      NewMemoryAddresses(store),
		Reconciliation: NewMemoryReconciliation(store),
		Tx:             NewMemoryTx(store),
	}
}

// transaction-aware locking helpers
type txKey struct{}

func isTx(ctx context.Context) bool {
	v := ctx.Value(txKey{})
	if v == nil {
		return false
	}
	b, ok := v.(bool)
	return ok && b
}

func (m *MemoryStore) rlock(ctx context.Context) {
	if !isTx(ctx) {
		m.mu.RLock()
	}
}
func (m *MemoryStore) runlock(ctx context.Context) {
	if !isTx(ctx) {
		m.mu.RUnlock()
	}
}
func (m *MemoryStore) wlock(ctx context.Context) {
	if !isTx(ctx) {
		m.mu.Lock()
	}
}
func (m *MemoryStore) wunlock(ctx context.Context) {
	if !isTx(ctx) {
		m.mu.Unlock()
	}
}

// Ensure interfaces
var _ ProductRepository = (*MemoryStore)(nil)

// ProductRepository implementation
func (m *MemoryStore) Create(ctx context.Context, p *domain.Product) error {
	m.wlock(ctx)
	defer m.wunlock(ctx)
	p.ID = nextID(&m.nextProdID)
	p.CreatedAt = time.Now().UTC()
	p.UpdatedAt = p.CreatedAt
	m.productsByID[p.ID] = cloneProduct(*p)
	return nil
}

func (m *MemoryStore) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	m.rlock(ctx)
	defer m.runlock(ctx)
	p, ok := m.productsByID[id]
	if !ok {
		return nil, domain.NotFound("product", id)
	}
	// return copy
	cp := cloneProduct(p)
	return &cp, nil
}

func (m *MemoryStore) Update(ctx context.Context, p *domain.Product) error {
	m.wlock(ctx)
	defer m.wunlock(ctx)
	old, ok := m.productsByID[p.ID]
	if !ok {
		return domain.NotFound("product", p.ID)
	}
	p.CreatedAt = old.CreatedAt
	p.UpdatedAt = time.Now().UTC()
	m.productsByID[p.ID] = cloneProduct(*p)
	return nil
}

func (m *MemoryStore) Delete(ctx context.Context, id string) error {
	m.wlock(ctx)
	defer m.wunlock(ctx)
	if _, ok := m.productsByID[id]; !ok {
		return domain.NotFound("product", id)
	}
	delete(m.productsByID, id)
	return nil
}

func (m *MemoryStore) List(ctx context.Context, f ProductFilter) ([]domain.Product, error) {
	m.rlock(ctx)
	defer m.runlock(ctx)
	out := make([]domain.Product, 0)
	for _, p := range m.productsByID {
		if !f.Matches(&p) {
			continue
		}
		out = append(out, cloneProduct(p))
	}
	sort.Slice(out, func(i, j int) bool { return lessNumericID(out[i].ID, out[j].ID) })
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (m *MemoryStore) DecrementStock(ctx context.Context, id, size string, amount int64) (int64, error) {
	if amount <= 0 {
		return 0, domain.Invalid("decrement amount must be positive")
	}
	m.wlock(ctx)
	defer m.wunlock(ctx)
	p, ok := m.productsByID[id]
	if !ok {
		return 0, domain.NotFound("product", id)
	}
	v, err := p.FindVariation(size)
	if err != nil {
		return 0, err
	}
	// check and write under one lock
	if v.Stock < amount {
		return v.Stock, &domain.InsufficientStockError{
			LineID:    domain.LineKey{ProductID: id, Size: size}.String(),
			Available: v.Stock,
		}
	}
	v.Stock -= amount
	p.UpdatedAt = time.Now().UTC()
	m.productsByID[id] = p
	return v.Stock, nil
}

func (m *MemoryStore) SetStock(ctx context.Context, id, size string, stock int64) error {
	if stock < 0 {
		return domain.Invalid("stock must not be negative")
	}
	m.wlock(ctx)
	defer m.wunlock(ctx)
	p, ok := m.productsByID[id]
	if !ok {
		return domain.NotFound("product", id)
	}
	v, err := p.FindVariation(size)
	if err != nil {
		return err
	}
	v.Stock = stock
	p.UpdatedAt = time.Now().UTC()
	m.productsByID[id] = p
	return nil
}

// Tx manager using write lock to emulate transaction boundary
type MemoryTx struct{ store *MemoryStore }

func NewMemoryTx(store *MemoryStore) *MemoryTx { return &MemoryTx{store: store} }

func (tx *MemoryTx) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	// already inside a transaction: the lock is held by the caller
	if isTx(ctx) {
		return fn(ctx)
	}
	// Для in-memory используем блокировку записи и помечаем контекст, чтобы репозитории пропускали внутренние локи
	tx.store.mu.Lock()
	defer tx.store.mu.Unlock()
	ctx = context.WithValue(ctx, txKey{}, true)
	return fn(ctx)
}

// Variations, images and line slices are shared by value copies of the
// structs, so every read and write goes through a clone.
func cloneProduct(p domain.Product) domain.Product {
	p.Images = append([]string(nil), p.Images...)
	p.Variations = append([]domain.Variation(nil), p.Variations...)
	return p
}

func cloneCart(c domain.Cart) domain.Cart {
	c.Items = append([]domain.CartItem(nil), c.Items...)
	return c
}

func cloneOrder(o domain.Order) domain.Order {
	o.Items = append([]domain.OrderLine(nil), o.Items...)
	return o
}

func lessNumericID(a, b string) bool {
	if len(a) != len(b) {
		return len(a) < len(b)
	}
	return a < b
}

func nextID(counter *int64) string {
	id := fmt.Sprintf("%d", *counter)
	*counter++
	return id
}
