package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrValidation         = errors.New("invalid input")
	ErrConflict           = errors.New("conflict")
	ErrEmptyCart          = errors.New("cart is empty")
	ErrCheckoutInProgress = errors.New("checkout with this idempotency key is in progress")

	ErrVariationNotFound = fmt.Errorf("variation %w", ErrNotFound)
	ErrInvalidLineID     = fmt.Errorf("%w: malformed line id", ErrValidation)
)

// NotFound оборачивает ErrNotFound с названием ресурса
func NotFound(resource, id string) error {
	return fmt.Errorf("%s %q: %w", resource, id, ErrNotFound)
}

// Invalid ошибка валидации с пояснением
func Invalid(msg string) error {
	return fmt.Errorf("%w: %s", ErrValidation, msg)
}

// InsufficientStockError возвращается, когда остатка не хватает.
// Available нужен клиенту, чтобы показать "осталось N".
type InsufficientStockError struct {
	LineID    string
	Available int64
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s: only %d left", e.LineID, e.Available)
}

// Message текст для покупателя
func (e *InsufficientStockError) Message() string {
	if e.Available <= 0 {
		return "Out of stock"
	}
	return fmt.Sprintf("Only %d left in stock", e.Available)
}

// InvalidTransitionError недопустимая смена статуса заказа
type InvalidTransitionError struct {
	From OrderStatus
	To   OrderStatus
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid status transition from %s to %s", e.From, e.To)
}
