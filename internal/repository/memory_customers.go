package repository

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"grocery/internal/domain"
)

// MemoryCarts корзины в памяти
type MemoryCarts struct{ store *MemoryStore }

func NewMemoryCarts(store *MemoryStore) *MemoryCarts { return &MemoryCarts{store: store} }

var _ CartRepository = (*MemoryCarts)(nil)

func (mc *MemoryCarts) Get(ctx context.Context, customerID string) (*domain.Cart, error) {
	mc.store.rlock(ctx)
	defer mc.store.runlock(ctx)
	c, ok := mc.store.cartsByID[customerID]
	if !ok {
		return nil, domain.NotFound("cart", customerID)
	}
	cp := cloneCart(c)
	return &cp, nil
}

func (mc *MemoryCarts) Save(ctx context.Context, c *domain.Cart) error {
	mc.store.wlock(ctx)
	defer mc.store.wunlock(ctx)
	c.UpdatedAt = time.Now().UTC()
	mc.store.cartsByID[c.CustomerID] = cloneCart(*c)
	return nil
}

func (mc *MemoryCarts) Delete(ctx context.Context, customerID string) error {
	mc.store.wlock(ctx)
	defer mc.store.wunlock(ctx)
	delete(mc.store.cartsByID, customerID)
	return nil
}

// MemoryAddresses адресная книга в памяти
type MemoryAddresses struct{ store *MemoryStore }

func NewMemoryAddresses(store *MemoryStore) *MemoryAddresses {
	return &MemoryAddresses{store: store}
}

var _ AddressRepository = (*MemoryAddresses)(nil)

func (ma *MemoryAddresses) List(ctx context.Context, customerID string) ([]domain.Address, error) {
	ma.store.rlock(ctx)
	defer ma.store.runlock(ctx)
	return append([]domain.Address{}, ma.store.addresses[customerID]...), nil
}

func (ma *MemoryAddresses) Get(ctx context.Context, customerID, addressID string) (*domain.Address, error) {
	ma.store.rlock(ctx)
	defer ma.store.runlock(ctx)
	for _, a := range ma.store.addresses[customerID] {
		if a.ID == addressID {
			cp := a
			return &cp, nil
		}
	}
	return nil, domain.NotFound("address", addressID)
}

func (ma *MemoryAddresses) Add(ctx context.Context, customerID string, a *domain.Address) error {
	ma.store.wlock(ctx)
	defer ma.store.wunlock(ctx)
	a.ID = uuid.NewString()
	ma.store.addresses[customerID] = append(ma.store.addresses[customerID], *a)
	return nil
}

func (ma *MemoryAddresses) Update(ctx context.Context, customerID string, a *domain.Address) error {
	ma.store.wlock(ctx)
	defer ma.store.wunlock(ctx)
	list := ma.store.addresses[customerID]
	for i := range list {
		if list[i].ID == a.ID {
			list[i] = *a
			return nil
		}
	}
	return domain.NotFound("address", a.ID)
}

func (ma *MemoryAddresses) Delete(ctx context.Context, customerID, addressID string) error {
	ma.store.wlock(ctx)
	defer ma.store.wunlock(ctx)
	list := ma.store.addresses[customerID]
	for i := range list {
		if list[i].ID == addressID {
			ma.store.addresses[customerID] = append(list[:i:i], list[i+1:]...)
			return nil
		}
	}
	return domain.NotFound("address", addressID)
}

// MemoryCategories категории в памяти
type MemoryCategories struct{ store *MemoryStore }

func NewMemoryCategories(store *MemoryStore) *MemoryCategories {
	return &MemoryCategories{store: store}
}

var _ CategoryRepository = (*MemoryCategories)(nil)

func (mc *MemoryCategories) Create(ctx context.Context, c *domain.Category) error {
	mc.store.wlock(ctx)
	defer mc.store.wunlock(ctx)
	for _, existing := range mc.store.categories {
		if strings.EqualFold(existing.Name, c.Name) {
			return fmt.Errorf("category %q: %w", c.Name, domain.ErrConflict)
		}
	}
	c.ID = nextID(&mc.store.nextCategoryID)
	c.CreatedAt = time.Now().UTC()
	mc.store.categories = append(mc.store.categories, *c)
	return nil
}

func (mc *MemoryCategories) List(ctx context.Context) ([]domain.Category, error) {
	mc.store.rlock(ctx)
	defer mc.store.runlock(ctx)
	out := append([]domain.Category{}, mc.store.categories...)
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}
