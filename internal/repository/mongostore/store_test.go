package mongostore

import (
	"context"
	"errors"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"grocery/internal/domain"
	"grocery/internal/repository"
)

// newTestStore подключается к MONGO_TEST_URI, иначе тест пропускается
func newTestStore(t *testing.T) *repository.Repositories {
	t.Helper()
	uri := os.Getenv("MONGO_TEST_URI")
	if uri == "" {
		t.Skip("MONGO_TEST_URI not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	dbName := "grocery_test_" + uuid.NewString()[:8]
	store, err := Connect(ctx, Config{URI: uri, Database: dbName}, zap.NewNop())
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(func() {
		_ = store.db.Drop(context.Background())
		_ = store.Close(context.Background())
	})
	if err := store.EnsureIndexes(ctx); err != nil {
		t.Fatalf("indexes: %v", err)
	}
	return store.Repositories()
}

func TestMongo_DecrementStockIsConditional(t *testing.T) {
	repos := newTestStore(t)
	ctx := context.Background()

	p := domain.Product{
		Name:       "Rice",
		Category:   "Staples",
		Variations: []domain.Variation{{Size: "500g", Price: decimal.NewFromInt(60), Stock: 20}},
	}
	if err := repos.Products.Create(ctx, &p); err != nil {
		t.Fatalf("create: %v", err)
	}

	var ok int64
	var wg sync.WaitGroup
	for i := 0; i < 30; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := repos.Products.DecrementStock(ctx, p.ID, "500g", 1); err == nil {
				atomic.AddInt64(&ok, 1)
			}
		}()
	}
	wg.Wait()
	if ok != 20 {
		t.Fatalf("expected 20 successful decrements, got %d", ok)
	}

	_, err := repos.Products.DecrementStock(ctx, p.ID, "500g", 1)
	var ise *domain.InsufficientStockError
	if !errors.As(err, &ise) || ise.Available != 0 {
		t.Fatalf("expected insufficient stock with zero available, got %v", err)
	}
	if _, err := repos.Products.DecrementStock(ctx, p.ID, "5kg", 1); !errors.Is(err, domain.ErrVariationNotFound) {
		t.Fatalf("expected variation not found, got %v", err)
	}
}

func TestMongo_OrdersAndCarts(t *testing.T) {
	repos := newTestStore(t)
	ctx := context.Background()

	cart := domain.Cart{CustomerID: "c1", Items: []domain.CartItem{{ProductID: "p", Size: "1kg", Quantity: 1, UnitPrice: decimal.NewFromInt(5)}}}
	if err := repos.Carts.Save(ctx, &cart); err != nil {
		t.Fatalf("save cart: %v", err)
	}
	got, err := repos.Carts.Get(ctx, "c1")
	if err != nil || len(got.Items) != 1 {
		t.Fatalf("get cart: %v", err)
	}
	if err := repos.Carts.Delete(ctx, "c1"); err != nil {
		t.Fatal(err)
	}
	if _, err := repos.Carts.Get(ctx, "c1"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found after delete, got %v", err)
	}

	base := time.Now().UTC().Truncate(time.Millisecond)
	for i, n := range []string{"SS1", "SS2"} {
		o := domain.Order{OrderNumber: n, CustomerID: "c1", Status: domain.OrderStatusProcessing, OrderDate: base.Add(time.Duration(i) * time.Second)}
		if err := repos.Orders.Create(ctx, &o); err != nil {
			t.Fatalf("create order: %v", err)
		}
	}
	dup := domain.Order{OrderNumber: "SS1", CustomerID: "c1"}
	if err := repos.Orders.Create(ctx, &dup); !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
	list, err := repos.Orders.ListByCustomer(ctx, "c1")
	if err != nil || len(list) != 2 || list[0].OrderNumber != "SS2" {
		t.Fatalf("expected newest first: %v %+v", err, list)
	}
	if err := repos.Orders.UpdateStatus(ctx, "SS1", domain.OrderStatusProcessing, domain.OrderStatusShipped); err != nil {
		t.Fatalf("update status: %v", err)
	}
	if err := repos.Orders.UpdateStatus(ctx, "SS1", domain.OrderStatusProcessing, domain.OrderStatusShipped); !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
	if err := repos.Orders.UpdateStatus(ctx, "nope", domain.OrderStatusProcessing, domain.OrderStatusShipped); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestMongo_AddressesAndCategories(t *testing.T) {
	repos := newTestStore(t)
	ctx := context.Background()

	a := domain.Address{FullName: "A", Street: "1 Main", City: "Panaji", PostalCode: "403001", Country: "India"}
	if err := repos.Addresses.Add(ctx, "c1", &a); err != nil {
		t.Fatalf("add: %v", err)
	}
	a.City = "Margao"
	if err := repos.Addresses.Update(ctx, "c1", &a); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, err := repos.Addresses.Get(ctx, "c1", a.ID)
	if err != nil || got.City != "Margao" {
		t.Fatalf("get: %v %+v", err, got)
	}
	if err := repos.Addresses.Delete(ctx, "c1", a.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := repos.Addresses.Delete(ctx, "c1", a.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	c := domain.Category{Name: "Spices"}
	if err := repos.Categories.Create(ctx, &c); err != nil {
		t.Fatalf("create category: %v", err)
	}
	dup := domain.Category{Name: "SPICES"}
	if err := repos.Categories.Create(ctx, &dup); !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
}
