package service

import (
	"context"
	"errors"
	"fmt"

	"grocery/internal/domain"
	"grocery/internal/repository"
)

// CartService корзина покупателя. Каждое изменение сразу сохраняется.
// Проверка остатков здесь предварительная, окончательная идёт при оформлении.
type CartService struct {
	products repository.ProductRepository
	carts    repository.CartRepository
	tx       repository.TxManager
}

func NewCartService(products repository.ProductRepository, carts repository.CartRepository, tx repository.TxManager) *CartService {
	return &CartService{products: products, carts: carts, tx: tx}
}

// Get возвращает корзину; отсутствие корзины не ошибка
func (s *CartService) Get(ctx context.Context, customerID string) (*domain.Cart, error) {
	if err := requireCustomer(customerID); err != nil {
		return nil, err
	}
	return s.load(ctx, customerID)
}

// AddItem добавляет фасовку или увеличивает количество существующей строки.
// Цена и название фиксируются заново при каждом добавлении.
func (s *CartService) AddItem(ctx context.Context, customerID string, key domain.LineKey, quantity int64) (*domain.Cart, error) {
	if err := requireCustomer(customerID); err != nil {
		return nil, err
	}
	if key.ProductID == "" || key.Size == "" {
		return nil, domain.Invalid("product id and size are required")
	}
	if quantity < 1 {
		return nil, domain.Invalid("quantity must be at least 1")
	}

	var out *domain.Cart
	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		p, err := s.products.GetByID(ctx, key.ProductID)
		if err != nil {
			return err
		}
		v, err := p.FindVariation(key.Size)
		if err != nil {
			return err
		}
		cart, err := s.load(ctx, customerID)
		if err != nil {
			return err
		}

		var existing int64
		idx := cart.Find(key)
		if idx >= 0 {
			existing = cart.Items[idx].Quantity
		}
		if existing+quantity > v.Stock {
			return &domain.InsufficientStockError{LineID: key.String(), Available: max(v.Stock-existing, 0)}
		}

		item := domain.CartItem{
			LineID:      key.String(),
			ProductID:   key.ProductID,
			Size:        key.Size,
			DisplayName: fmt.Sprintf("%s (%s)", p.Name, v.Size),
			UnitPrice:   v.Price,
			Quantity:    existing + quantity,
			ImageURL:    p.ImageURL(),
		}
		if idx >= 0 {
			cart.Items[idx] = item
		} else {
			cart.Items = append(cart.Items, item)
		}
		if err := s.carts.Save(ctx, cart); err != nil {
			return err
		}
		out = cart
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateQuantity задаёт количество строки; quantity < 1 удаляет её
func (s *CartService) UpdateQuantity(ctx context.Context, customerID, lineID string, quantity int64) (*domain.Cart, error) {
	if err := requireCustomer(customerID); err != nil {
		return nil, err
	}
	key, err := domain.ParseLineID(lineID)
	if err != nil {
		return nil, err
	}
	if quantity < 1 {
		return s.RemoveItem(ctx, customerID, lineID)
	}

	var out *domain.Cart
	err = s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		cart, err := s.load(ctx, customerID)
		if err != nil {
			return err
		}
		idx := cart.Find(key)
		if idx < 0 {
			return domain.NotFound("cart line", lineID)
		}
		p, err := s.products.GetByID(ctx, key.ProductID)
		if err != nil {
			return err
		}
		v, err := p.FindVariation(key.Size)
		if err != nil {
			return err
		}
		if quantity > v.Stock {
			return &domain.InsufficientStockError{LineID: lineID, Available: v.Stock}
		}
		cart.Items[idx].Quantity = quantity
		if err := s.carts.Save(ctx, cart); err != nil {
			return err
		}
		out = cart
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// RemoveItem удаляет строку; повторное удаление не ошибка
func (s *CartService) RemoveItem(ctx context.Context, customerID, lineID string) (*domain.Cart, error) {
	if err := requireCustomer(customerID); err != nil {
		return nil, err
	}
	key, err := domain.ParseLineID(lineID)
	if err != nil {
		return nil, err
	}

	var out *domain.Cart
	err = s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		cart, err := s.load(ctx, customerID)
		if err != nil {
			return err
		}
		if cart.Remove(key) {
			if err := s.carts.Save(ctx, cart); err != nil {
				return err
			}
		}
		out = cart
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *CartService) load(ctx context.Context, customerID string) (*domain.Cart, error) {
	cart, err := s.carts.Get(ctx, customerID)
	if errors.Is(err, domain.ErrNotFound) {
		return &domain.Cart{CustomerID: customerID, Items: []domain.CartItem{}}, nil
	}
	if err != nil {
		return nil, err
	}
	if cart.Items == nil {
		cart.Items = []domain.CartItem{}
	}
	return cart, nil
}
