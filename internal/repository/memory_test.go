package repository

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"grocery/internal/domain"
)

func newProduct(name string, price int64, stock int64) domain.Product {
	return domain.Product{
		Name:       name,
		Category:   "Staples",
		Variations: []domain.Variation{{Size: "500g", Price: decimal.NewFromInt(price), Stock: stock}},
	}
}

func TestMemoryStore_ProductCRUD(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	p := newProduct("Rice", 10, 5)
	if err := store.Create(ctx, &p); err != nil {
		t.Fatalf("create: %v", err)
	}
	if p.ID == "" {
		t.Fatalf("no id")
	}

	got, err := store.GetByID(ctx, p.ID)
	if err != nil || got.ID != p.ID {
		t.Fatalf("get: %v", err)
	}
	// returned copy must not alias stored variations
	got.Variations[0].Stock = 100
	again, _ := store.GetByID(ctx, p.ID)
	if again.Variations[0].Stock != 5 {
		t.Fatalf("stored product mutated through copy")
	}

	p.Variations[0].Price = decimal.NewFromInt(12)
	if err := store.Update(ctx, &p); err != nil {
		t.Fatalf("update: %v", err)
	}

	if err := store.Delete(ctx, p.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := store.GetByID(ctx, p.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestMemoryStore_DecrementStock(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	p := newProduct("Rice", 10, 3)
	if err := store.Create(ctx, &p); err != nil {
		t.Fatal(err)
	}

	left, err := store.DecrementStock(ctx, p.ID, "500g", 2)
	if err != nil || left != 1 {
		t.Fatalf("decrement: left=%d err=%v", left, err)
	}

	_, err = store.DecrementStock(ctx, p.ID, "500g", 2)
	var ise *domain.InsufficientStockError
	if !errors.As(err, &ise) {
		t.Fatalf("expected insufficient stock, got %v", err)
	}
	if ise.Available != 1 || ise.LineID != p.ID+"-500g" {
		t.Fatalf("unexpected error payload: %+v", ise)
	}

	if _, err := store.DecrementStock(ctx, p.ID, "1kg", 1); !errors.Is(err, domain.ErrVariationNotFound) {
		t.Fatalf("expected variation not found, got %v", err)
	}
	if _, err := store.DecrementStock(ctx, "999", "500g", 1); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestMemoryStore_ConcurrentDecrementNeverNegative(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	p := newProduct("Rice", 10, 50)
	if err := store.Create(ctx, &p); err != nil {
		t.Fatal(err)
	}

	var ok int64
	var wg sync.WaitGroup
	for i := 0; i < 80; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := store.DecrementStock(ctx, p.ID, "500g", 1); err == nil {
				atomic.AddInt64(&ok, 1)
			}
		}()
	}
	wg.Wait()

	got, _ := store.GetByID(ctx, p.ID)
	if ok != 50 || got.Variations[0].Stock != 0 {
		t.Fatalf("expected 50 successful decrements and zero stock, got %d and %d", ok, got.Variations[0].Stock)
	}
}

func TestMemoryTx_TransactionalUpdate(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	repos := NewMemoryRepositories(store)

	// seed product
	p := newProduct("Rice", 10, 5)
	if err := store.Create(ctx, &p); err != nil {
		t.Fatal(err)
	}

	// emulate atomic create order with stock decrease
	err := repos.Tx.WithTransaction(ctx, func(ctx context.Context) error {
		if _, err := repos.Products.DecrementStock(ctx, p.ID, "500g", 3); err != nil {
			return err
		}
		o := domain.Order{
			OrderNumber: "SS1",
			CustomerID:  "john@example.com",
			Items:       []domain.OrderLine{{ProductID: p.ID, Size: "500g", Quantity: 3}},
			Status:      domain.OrderStatusProcessing,
		}
		// nested transaction reuses the held lock
		return repos.Tx.WithTransaction(ctx, func(ctx context.Context) error {
			return repos.Orders.Create(ctx, &o)
		})
	})
	if err != nil {
		t.Fatalf("tx: %v", err)
	}

	// check stock after
	pp, _ := store.GetByID(context.Background(), p.ID)
	if pp.Variations[0].Stock != 2 {
		t.Fatalf("stock expected 2, got %v", pp.Variations[0].Stock)
	}
	if _, err := repos.Orders.GetByNumber(ctx, "SS1"); err != nil {
		t.Fatalf("order not stored: %v", err)
	}
}

func TestList_Filtering(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	add := func(n, category string, price int64) {
		p := newProduct(n, price, 1)
		p.Category = category
		if err := store.Create(ctx, &p); err != nil {
			t.Fatal(err)
		}
	}
	add("Basmati Rice", "Staples", 100)
	add("Cashew", "Dry Fruits", 50)
	add("Brown Rice", "Staples", 150)

	// name contains
	list, _ := store.List(ctx, ProductFilter{NameSubstring: "rice"})
	if len(list) != 2 {
		t.Fatalf("name filter: expected 2, got %d", len(list))
	}

	list, _ = store.List(ctx, ProductFilter{Category: "dry fruits"})
	if len(list) != 1 || list[0].Name != "Cashew" {
		t.Fatalf("category filter failed: %+v", list)
	}

	// min
	min := decimal.NewFromInt(100)
	list, _ = store.List(ctx, ProductFilter{MinPrice: &min})
	if len(list) != 2 {
		t.Fatalf("min filter: expected 2, got %d", len(list))
	}

	// max
	max := decimal.NewFromInt(100)
	list, _ = store.List(ctx, ProductFilter{MaxPrice: &max, Limit: 1})
	if len(list) != 1 || list[0].Name != "Basmati Rice" {
		t.Fatalf("max filter with limit failed: %+v", list)
	}
}

func TestMemoryOrders_NewestFirstAndStatus(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	orders := NewMemoryOrders(store)

	base := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)
	for i, n := range []string{"SS1", "SS2", "SS3"} {
		o := domain.Order{OrderNumber: n, CustomerID: "c1", Status: domain.OrderStatusProcessing, OrderDate: base.Add(time.Duration(i) * time.Minute)}
		if err := orders.Create(ctx, &o); err != nil {
			t.Fatal(err)
		}
	}
	dup := domain.Order{OrderNumber: "SS1", CustomerID: "c2"}
	if err := orders.Create(ctx, &dup); !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected conflict on duplicate order number, got %v", err)
	}

	list, _ := orders.ListByCustomer(ctx, "c1")
	if len(list) != 3 || list[0].OrderNumber != "SS3" || list[2].OrderNumber != "SS1" {
		t.Fatalf("expected newest first, got %+v", list)
	}

	if err := orders.UpdateStatus(ctx, "SS1", domain.OrderStatusProcessing, domain.OrderStatusShipped); err != nil {
		t.Fatalf("update status: %v", err)
	}
	if err := orders.UpdateStatus(ctx, "SS1", domain.OrderStatusProcessing, domain.OrderStatusShipped); !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected conflict on stale from-status, got %v", err)
	}
	shipped, _ := orders.List(ctx, OrderFilter{Status: domain.OrderStatusShipped})
	if len(shipped) != 1 {
		t.Fatalf("status filter: expected 1, got %d", len(shipped))
	}
}

func TestMemoryAddressesAndCategories(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	addrs := NewMemoryAddresses(store)
	cats := NewMemoryCategories(store)

	a := domain.Address{FullName: "A", Street: "1 Main", City: "Panaji", PostalCode: "403001"}
	if err := addrs.Add(ctx, "c1", &a); err != nil || a.ID == "" {
		t.Fatalf("add address: %v", err)
	}
	a.City = "Margao"
	if err := addrs.Update(ctx, "c1", &a); err != nil {
		t.Fatalf("update address: %v", err)
	}
	got, _ := addrs.Get(ctx, "c1", a.ID)
	if got.City != "Margao" {
		t.Fatalf("address not updated")
	}
	if err := addrs.Delete(ctx, "c1", a.ID); err != nil {
		t.Fatalf("delete address: %v", err)
	}
	if err := addrs.Delete(ctx, "c1", a.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	for _, n := range []string{"Spices", "Beverages"} {
		c := domain.Category{Name: n}
		if err := cats.Create(ctx, &c); err != nil {
			t.Fatal(err)
		}
	}
	dup := domain.Category{Name: "spices"}
	if err := cats.Create(ctx, &dup); !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
	list, _ := cats.List(ctx)
	if len(list) != 2 || list[0].Name != "Beverages" {
		t.Fatalf("expected sorted categories, got %+v", list)
	}
}
