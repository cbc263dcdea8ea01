package repository

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"

	"grocery/internal/domain"
)

// ProductFilter параметры фильтрации списка товаров
type ProductFilter struct {
	NameSubstring string
	Category      string
	MinPrice      *decimal.Decimal
	MaxPrice      *decimal.Decimal
	Limit         int
}

// Matches проверяет товар по фильтру. Цена подходит, если подходит хотя бы одна фасовка.
func (f ProductFilter) Matches(p *domain.Product) bool {
	if !containsIgnoreCase(p.Name, f.NameSubstring) {
		return false
	}
	if f.Category != "" && !strings.EqualFold(p.Category, f.Category) {
		return false
	}
	if f.MinPrice == nil && f.MaxPrice == nil {
		return true
	}
	for _, v := range p.Variations {
		if f.MinPrice != nil && v.Price.LessThan(*f.MinPrice) {
			continue
		}
		if f.MaxPrice != nil && v.Price.GreaterThan(*f.MaxPrice) {
			continue
		}
		return true
	}
	return false
}

// OrderFilter параметры выборки заказов для админки
type OrderFilter struct {
	Status domain.OrderStatus
}

// ProductRepository интерфейс каталога товаров
type ProductRepository interface {
	Create(ctx context.Context, p *domain.Product) error
	GetByID(ctx context.Context, id string) (*domain.Product, error)
	Update(ctx context.Context, p *domain.Product) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, f ProductFilter) ([]domain.Product, error)
	// DecrementStock списывает amount, только если остаток >= amount. Возвращает новый остаток.
	DecrementStock(ctx context.Context, id, size string, amount int64) (int64, error)
	// SetStock задаёт абсолютный остаток фасовки (админка)
	SetStock(ctx context.Context, id, size string, stock int64) error
}

// CategoryRepository интерфейс категорий
type CategoryRepository interface {
	Create(ctx context.Context, c *domain.Category) error
	List(ctx context.Context) ([]domain.Category, error)
}

// CartRepository интерфейс корзин. Get возвращает ErrNotFound, если корзины ещё нет.
type CartRepository interface {
	Get(ctx context.Context, customerID string) (*domain.Cart, error)
	Save(ctx context.Context, c *domain.Cart) error
	Delete(ctx context.Context, customerID string) error
}

// OrderRepository интерфейс заказов
type OrderRepository interface {
	Create(ctx context.Context, o *domain.Order) error
	GetByNumber(ctx context.Context, orderNumber string) (*domain.Order, error)
	ListByCustomer(ctx context.Context, customerID string) ([]domain.Order, error)
	List(ctx context.Context, f OrderFilter) ([]domain.Order, error)
	// UpdateStatus меняет статус, только если текущий равен from
	UpdateStatus(ctx context.Context, orderNumber string, from, to domain.OrderStatus) error
}

// AddressRepository интерфейс адресной книги
type AddressRepository interface {
	List(ctx context.Context, customerID string) ([]domain.Address, error)
	Get(ctx context.Context, customerID, addressID string) (*domain.Address, error)
	Add(ctx context.Context, customerID string, a *domain.Address) error
	Update(ctx context.Context, customerID string, a *domain.Address) error
	Delete(ctx context.Context, customerID, addressID string) error
}

// ReconciliationRepository журнал расхождений остатков
type ReconciliationRepository interface {
	Record(ctx context.Context, e *domain.ReconciliationEntry) error
	List(ctx context.Context) ([]domain.ReconciliationEntry, error)
}

// TxManager абстракция транзакции. Для in-memory это глобальная блокировка записи.
type TxManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// Repositories набор всех репозиториев одного хранилища
type Repositories struct {
	Products       ProductRepository
	Categories     CategoryRepository
	Carts          CartRepository
	Orders         OrderRepository
	Addresses      AddressRepository
	Reconciliation ReconciliationRepository
	Tx             TxManager
}

// helper: case-insensitive contains
func containsIgnoreCase(s, substr string) bool {
	if substr == "" {
		return true
	}
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
