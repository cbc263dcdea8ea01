package repository

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"grocery/internal/domain"
)

// OrderRepository implementation on wrapper type
type MemoryOrders struct{ store *MemoryStore }

func NewMemoryOrders(store *MemoryStore) *MemoryOrders { return &MemoryOrders{store: store} }

var _ OrderRepository = (*MemoryOrders)(nil)

func (mo *MemoryOrders) Create(ctx context.Context, o *domain.Order) error {
	mo.store.wlock(ctx)
	defer mo.store.wunlock(ctx)
	if _, exists := mo.store.ordersByNumber[o.OrderNumber]; exists {
		return fmt.Errorf("order %s: %w", o.OrderNumber, domain.ErrConflict)
	}
	if o.OrderDate.IsZero() {
		o.OrderDate = time.Now().UTC()
	}
	o.UpdatedAt = o.OrderDate
	mo.store.ordersByNumber[o.OrderNumber] = cloneOrder(*o)
	return nil
}

func (mo *MemoryOrders) GetByNumber(ctx context.Context, orderNumber string) (*domain.Order, error) {
	mo.store.rlock(ctx)
	defer mo.store.runlock(ctx)
	o, ok := mo.store.ordersByNumber[orderNumber]
	if !ok {
		return nil, domain.NotFound("order", orderNumber)
	}
	cp := cloneOrder(o)
	return &cp, nil
}

func (mo *MemoryOrders) ListByCustomer(ctx context.Context, customerID string) ([]domain.Order, error) {
	mo.store.rlock(ctx)
	defer mo.store.runlock(ctx)
	out := make([]domain.Order, 0)
	for _, o := range mo.store.ordersByNumber {
		if o.CustomerID == customerID {
			out = append(out, cloneOrder(o))
		}
	}
	sortNewestFirst(out)
	return out, nil
}

func (mo *MemoryOrders) List(ctx context.Context, f OrderFilter) ([]domain.Order, error) {
	mo.store.rlock(ctx)
	defer mo.store.runlock(ctx)
	out := make([]domain.Order, 0)
	for _, o := range mo.store.ordersByNumber {
		if f.Status != "" && o.Status != f.Status {
			continue
		}
		out = append(out, cloneOrder(o))
	}
	sortNewestFirst(out)
	return out, nil
}

func (mo *MemoryOrders) UpdateStatus(ctx context.Context, orderNumber string, from, to domain.OrderStatus) error {
	mo.store.wlock(ctx)
	defer mo.store.wunlock(ctx)
	o, ok := mo.store.ordersByNumber[orderNumber]
	if !ok {
		return domain.NotFound("order", orderNumber)
	}
	if o.Status != from {
		return fmt.Errorf("order %s status changed concurrently: %w", orderNumber, domain.ErrConflict)
	}
	o.Status = to
	o.UpdatedAt = time.Now().UTC()
	mo.store.ordersByNumber[orderNumber] = o
	return nil
}

// newest first; order number breaks ties within one millisecond
func sortNewestFirst(orders []domain.Order) {
	sort.Slice(orders, func(i, j int) bool {
		if !orders[i].OrderDate.Equal(orders[j].OrderDate) {
			return orders[i].OrderDate.After(orders[j].OrderDate)
		}
		return orders[i].OrderNumber > orders[j].OrderNumber
	})
}

// MemoryReconciliation журнал расхождений в памяти
type MemoryReconciliation struct{ store *MemoryStore }

func NewMemoryReconciliation(store *MemoryStore) *MemoryReconciliation {
	return &MemoryReconciliation{store: store}
}

var _ ReconciliationRepository = (*MemoryReconciliation)(nil)

func (mr *MemoryReconciliation) Record(ctx context.Context, e *domain.ReconciliationEntry) error {
	mr.store.wlock(ctx)
	defer mr.store.wunlock(ctx)
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.RecordedAt.IsZero() {
		e.RecordedAt = time.Now().UTC()
	}
	mr.store.reconciliation = append(mr.store.reconciliation, *e)
	return nil
}

func (mr *MemoryReconciliation) List(ctx context.Context) ([]domain.ReconciliationEntry, error) {
	mr.store.rlock(ctx)
	defer mr.store.runlock(ctx)
	out := make([]domain.ReconciliationEntry, 0, len(mr.store.reconciliation))
	for i := len(mr.store.reconciliation) - 1; i >= 0; i-- {
		out = append(out, mr.store.reconciliation[i])
	}
	return out, nil
}
