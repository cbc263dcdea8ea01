package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"grocery/internal/domain"
	"grocery/internal/events"
	"grocery/internal/repository"
)

// CheckoutOptions настройки оформления заказа
type CheckoutOptions struct {
	// ExpressFee стоимость доставки Express, Standard бесплатна
	ExpressFee decimal.Decimal
	// Reprice берёт текущую цену каталога вместо цены из корзины
	Reprice bool
	// Producer имя сервиса в событиях
	Producer string
}

// CheckoutRequest данные оформления. Адрес передаётся целиком или id из адресной книги.
type CheckoutRequest struct {
	CustomerID     string
	Address        *domain.Address
	AddressID      string
	PaymentMethod  domain.PaymentMethod
	ShippingMethod domain.ShippingMethod
	IdempotencyKey string
}

// CheckoutService превращает корзину в заказ и списывает остатки
type CheckoutService struct {
	repos     *repository.Repositories
	cache     CatalogCache
	idem      IdempotencyStore
	publisher events.Publisher
	opts      CheckoutOptions
	fees      map[domain.ShippingMethod]decimal.Decimal
	now       func() time.Time
	logger    *zap.Logger
}

func NewCheckoutService(repos *repository.Repositories, cache CatalogCache, idem IdempotencyStore, publisher events.Publisher, opts CheckoutOptions, logger *zap.Logger) *CheckoutService {
	if cache == nil {
		cache = NoCache{}
	}
	if idem == nil {
		idem = NewMemoryIdempotency()
	}
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &CheckoutService{
		repos:     repos,
		cache:     cache,
		idem:      idem,
		publisher: publisher,
		opts:      opts,
		fees: map[domain.ShippingMethod]decimal.Decimal{
			domain.ShippingStandard: decimal.Zero,
			domain.ShippingExpress:  opts.ExpressFee,
		},
		now:    time.Now,
		logger: logger,
	}
}

// ShippingFee стоимость доставки для способа
func (s *CheckoutService) ShippingFee(m domain.ShippingMethod) (decimal.Decimal, error) {
	fee, ok := s.fees[m]
	if !ok {
		return decimal.Zero, domain.Invalid(fmt.Sprintf("unknown shipping method %q", m))
	}
	return fee, nil
}

// PlaceOrder оформляет заказ. replayed=true, если заказ по этому
// Idempotency-Key уже был создан раньше и возвращается повторно.
func (s *CheckoutService) PlaceOrder(ctx context.Context, req CheckoutRequest) (order *domain.Order, replayed bool, err error) {
	if err := requireCustomer(req.CustomerID); err != nil {
		return nil, false, err
	}
	if !req.PaymentMethod.IsValid() {
		return nil, false, domain.Invalid(fmt.Sprintf("unsupported payment method %q", req.PaymentMethod))
	}
	if req.ShippingMethod == "" {
		req.ShippingMethod = domain.ShippingStandard
	}
	fee, err := s.ShippingFee(req.ShippingMethod)
	if err != nil {
		return nil, false, err
	}
	address, err := s.resolveAddress(ctx, req)
	if err != nil {
		return nil, false, err
	}

	if req.IdempotencyKey != "" {
		existing, reserved, rerr := s.idem.Reserve(ctx, req.CustomerID, req.IdempotencyKey)
		if rerr != nil {
			return nil, false, fmt.Errorf("reserve idempotency key: %w", rerr)
		}
		if !reserved {
			if existing == "" {
				return nil, false, domain.ErrCheckoutInProgress
			}
			o, gerr := s.repos.Orders.GetByNumber(ctx, existing)
			if gerr != nil {
				return nil, false, gerr
			}
			return o, true, nil
		}
		defer func() {
			if err != nil {
				if rerr := s.idem.Release(context.WithoutCancel(ctx), req.CustomerID, req.IdempotencyKey); rerr != nil {
					s.logger.Warn("Failed to release idempotency key", zap.String("customer_id", req.CustomerID), zap.Error(rerr))
				}
			}
		}()
	}

	var (
		created    *domain.Order
		shortfalls []domain.ReconciliationEntry
	)
	err = s.repos.Tx.WithTransaction(ctx, func(ctx context.Context) error {
		created, shortfalls = nil, nil
		cart, err := s.repos.Carts.Get(ctx, req.CustomerID)
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrEmptyCart
		}
		if err != nil {
			return err
		}
		if len(cart.Items) == 0 {
			return domain.ErrEmptyCart
		}

		lines, err := s.validateLines(ctx, cart.Items)
		if err != nil {
			return err
		}

		subtotal := decimal.Zero
		for _, l := range lines {
			subtotal = subtotal.Add(l.LineTotal())
		}
		o := domain.Order{
			OrderNumber:     s.orderNumber(),
			CustomerID:      req.CustomerID,
			Items:           lines,
			Subtotal:        subtotal,
			ShippingMethod:  req.ShippingMethod,
			ShippingFee:     fee,
			TotalAmount:     subtotal.Add(fee),
			ShippingAddress: address.Snapshot(),
			PaymentMethod:   req.PaymentMethod,
			Status:          domain.OrderStatusProcessing,
			OrderDate:       s.now().UTC(),
		}
		if err := s.repos.Orders.Create(ctx, &o); err != nil {
			return err
		}
		created = &o

		// заказ сохранён: дальше ошибки не возвращаются, а попадают в лог и журнал.
		// Отмена запроса уже не должна обрывать списание.
		committed := context.WithoutCancel(ctx)
		for _, l := range o.Items {
			if _, err := s.repos.Products.DecrementStock(committed, l.ProductID, l.Size, l.Quantity); err != nil {
				entry := s.recordShortfall(committed, o.OrderNumber, l, err)
				shortfalls = append(shortfalls, entry)
			}
		}

		if err := s.repos.Carts.Delete(committed, req.CustomerID); err != nil {
			s.logger.Error("Failed to clear cart after order was committed",
				zap.String("order_number", o.OrderNumber),
				zap.String("customer_id", req.CustomerID),
				zap.Error(err),
			)
		}
		return nil
	})
	if err != nil {
		return nil, false, err
	}

	ctx = context.WithoutCancel(ctx)
	s.afterCommit(ctx, created, shortfalls)
	if req.IdempotencyKey != "" {
		if cerr := s.idem.Complete(ctx, req.CustomerID, req.IdempotencyKey, created.OrderNumber); cerr != nil {
			s.logger.Warn("Failed to complete idempotency key", zap.String("order_number", created.OrderNumber), zap.Error(cerr))
		}
	}
	return created, false, nil
}

// validateLines перечитывает фасовки и проверяет остатки. Первая нехватка
// прерывает оформление целиком, до каких-либо записей.
func (s *CheckoutService) validateLines(ctx context.Context, items []domain.CartItem) ([]domain.OrderLine, error) {
	lines := make([]domain.OrderLine, 0, len(items))
	for _, it := range items {
		key := it.Key()
		p, err := s.repos.Products.GetByID(ctx, it.ProductID)
		if errors.Is(err, domain.ErrNotFound) {
			return nil, &domain.InsufficientStockError{LineID: key.String(), Available: 0}
		}
		if err != nil {
			return nil, err
		}
		v, err := p.FindVariation(it.Size)
		if errors.Is(err, domain.ErrNotFound) {
			return nil, &domain.InsufficientStockError{LineID: key.String(), Available: 0}
		}
		if err != nil {
			return nil, err
		}
		if it.Quantity > v.Stock {
			return nil, &domain.InsufficientStockError{LineID: key.String(), Available: v.Stock}
		}

		price := it.UnitPrice
		if s.opts.Reprice {
			price = v.Price
		}
		name := it.DisplayName
		if name == "" {
			name = fmt.Sprintf("%s (%s)", p.Name, v.Size)
		}
		lines = append(lines, domain.OrderLine{
			ProductID: it.ProductID,
			Size:      it.Size,
			Name:      name,
			UnitPrice: price,
			Quantity:  it.Quantity,
		})
	}
	return lines, nil
}

func (s *CheckoutService) recordShortfall(ctx context.Context, orderNumber string, l domain.OrderLine, cause error) domain.ReconciliationEntry {
	entry := domain.ReconciliationEntry{
		OrderNumber: orderNumber,
		ProductID:   l.ProductID,
		Size:        l.Size,
		Requested:   l.Quantity,
		Reason:      cause.Error(),
	}
	var ise *domain.InsufficientStockError
	if errors.As(cause, &ise) {
		entry.Available = ise.Available
	}
	s.logger.Error("Stock decrement failed after order was committed",
		zap.String("order_number", orderNumber),
		zap.String("product_id", l.ProductID),
		zap.String("size", l.Size),
		zap.Int64("requested", l.Quantity),
		zap.Int64("available", entry.Available),
		zap.Error(cause),
	)
	if err := s.repos.Reconciliation.Record(ctx, &entry); err != nil {
		s.logger.Error("Failed to record reconciliation entry", zap.String("order_number", orderNumber), zap.Error(err))
	}
	return entry
}

// afterCommit сбрасывает кэш и публикует события. Ошибки здесь только логируются.
func (s *CheckoutService) afterCommit(ctx context.Context, o *domain.Order, shortfalls []domain.ReconciliationEntry) {
	ids := make([]string, 0, len(o.Items))
	payloadItems := make([]events.OrderLine, 0, len(o.Items))
	for _, l := range o.Items {
		ids = append(ids, l.ProductID)
		payloadItems = append(payloadItems, events.OrderLine{ProductID: l.ProductID, Size: l.Size, Quantity: l.Quantity, UnitPrice: l.UnitPrice})
	}
	if err := s.cache.Invalidate(ctx, ids...); err != nil {
		s.logger.Warn("Failed to invalidate catalog cache", zap.String("order_number", o.OrderNumber), zap.Error(err))
	}

	for _, e := range shortfalls {
		s.publish(ctx, events.TopicReconciliation, events.EventReconciliationRequired, o.OrderNumber, events.ReconciliationPayload{
			OrderNumber: e.OrderNumber,
			ProductID:   e.ProductID,
			Size:        e.Size,
			Requested:   e.Requested,
			Available:   e.Available,
			Reason:      e.Reason,
		})
	}
	s.publish(ctx, events.TopicOrderPlaced, events.EventOrderPlaced, o.OrderNumber, events.OrderPlacedPayload{
		OrderNumber:    o.OrderNumber,
		CustomerID:     o.CustomerID,
		Items:          payloadItems,
		TotalAmount:    o.TotalAmount,
		PaymentMethod:  string(o.PaymentMethod),
		ShippingMethod: string(o.ShippingMethod),
	})
}

func (s *CheckoutService) publish(ctx context.Context, topic, eventType, orderNumber string, payload any) {
	e, err := events.New(s.opts.Producer, topic, eventType, orderNumber, payload)
	if err == nil {
		err = s.publisher.Publish(ctx, e)
	}
	if err != nil {
		s.logger.Error("Failed to publish event",
			zap.String("event_type", eventType),
			zap.String("order_number", orderNumber),
			zap.Error(err),
		)
	}
}

func (s *CheckoutService) resolveAddress(ctx context.Context, req CheckoutRequest) (domain.Address, error) {
	if req.Address != nil {
		return normalizeAddress(*req.Address)
	}
	if req.AddressID == "" {
		return domain.Address{}, domain.Invalid("shipping address is required")
	}
	a, err := s.repos.Addresses.Get(ctx, req.CustomerID, req.AddressID)
	if err != nil {
		return domain.Address{}, err
	}
	return *a, nil
}

// orderNumber формат SS<unix-millis>-<8 hex>
func (s *CheckoutService) orderNumber() string {
	return fmt.Sprintf("SS%d-%s", s.now().UnixMilli(), uuid.NewString()[:8])
}
