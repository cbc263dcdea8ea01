package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"grocery/internal/domain"
	"grocery/internal/events"
	"grocery/internal/repository"
)

// OrderService история заказов и смена статуса админом
type OrderService struct {
	orders         repository.OrderRepository
	reconciliation repository.ReconciliationRepository
	publisher      events.Publisher
	producer       string
	logger         *zap.Logger
}

func NewOrderService(orders repository.OrderRepository, reconciliation repository.ReconciliationRepository, publisher events.Publisher, producer string, logger *zap.Logger) *OrderService {
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &OrderService{orders: orders, reconciliation: reconciliation, publisher: publisher, producer: producer, logger: logger}
}

// ListOrders заказы покупателя, новые первыми
func (s *OrderService) ListOrders(ctx context.Context, customerID string) ([]domain.Order, error) {
	if err := requireCustomer(customerID); err != nil {
		return nil, err
	}
	return s.orders.ListByCustomer(ctx, customerID)
}

// GetOrder возвращает заказ по номеру
func (s *OrderService) GetOrder(ctx context.Context, orderNumber string) (*domain.Order, error) {
	if orderNumber == "" {
		return nil, domain.Invalid("order number is required")
	}
	return s.orders.GetByNumber(ctx, orderNumber)
}

// ListAll все заказы для админки, опционально по статусу
func (s *OrderService) ListAll(ctx context.Context, status domain.OrderStatus) ([]domain.Order, error) {
	if status != "" && !status.IsValid() {
		return nil, domain.Invalid(fmt.Sprintf("unknown status %q", status))
	}
	return s.orders.List(ctx, repository.OrderFilter{Status: status})
}

// AdvanceStatus переводит заказ на следующий шаг Processing -> Shipped -> Delivered
func (s *OrderService) AdvanceStatus(ctx context.Context, orderNumber string, to domain.OrderStatus) (*domain.Order, error) {
	if !to.IsValid() {
		return nil, domain.Invalid(fmt.Sprintf("unknown status %q", to))
	}
	o, err := s.orders.GetByNumber(ctx, orderNumber)
	if err != nil {
		return nil, err
	}
	if !o.Status.CanTransitionTo(to) {
		return nil, &domain.InvalidTransitionError{From: o.Status, To: to}
	}
	// conditional on the status we just read
	if err := s.orders.UpdateStatus(ctx, orderNumber, o.Status, to); err != nil {
		return nil, err
	}
	from := o.Status

	updated, err := s.orders.GetByNumber(ctx, orderNumber)
	if err != nil {
		return nil, err
	}

	e, err := events.New(s.producer, events.TopicOrderStatusChanged, events.EventOrderStatusChanged, orderNumber, events.OrderStatusChangedPayload{
		OrderNumber: orderNumber,
		From:        string(from),
		To:          string(to),
	})
	if err == nil {
		err = s.publisher.Publish(ctx, e)
	}
	if err != nil {
		s.logger.Error("Failed to publish status change", zap.String("order_number", orderNumber), zap.Error(err))
	}
	return updated, nil
}

// Reconciliation журнал списаний, не прошедших после оформления
func (s *OrderService) Reconciliation(ctx context.Context) ([]domain.ReconciliationEntry, error) {
	return s.reconciliation.List(ctx)
}
