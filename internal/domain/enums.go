package domain

// OrderStatus тип статуса заказа
type OrderStatus string

const (
	OrderStatusProcessing OrderStatus = "Processing"
	OrderStatusShipped    OrderStatus = "Shipped"
	OrderStatusDelivered  OrderStatus = "Delivered"
)

var nextStatus = map[OrderStatus]OrderStatus{
	OrderStatusProcessing: OrderStatusShipped,
	OrderStatusShipped:    OrderStatusDelivered,
}

// IsValid проверяет, что статус известен
func (s OrderStatus) IsValid() bool {
	switch s {
	case OrderStatusProcessing, OrderStatusShipped, OrderStatusDelivered:
		return true
	}
	return false
}

// CanTransitionTo разрешает только переход на следующий шаг, без пропусков и откатов
func (s OrderStatus) CanTransitionTo(to OrderStatus) bool {
	next, ok := nextStatus[s]
	return ok && next == to
}

// PaymentMethod способ оплаты. Оплата только имитируется.
type PaymentMethod string

const (
	PaymentCOD            PaymentMethod = "COD"
	PaymentCashOnDelivery PaymentMethod = "Cash on Delivery"
	PaymentCard           PaymentMethod = "Credit/Debit Card"
)

func (m PaymentMethod) IsValid() bool {
	switch m {
	case PaymentCOD, PaymentCashOnDelivery, PaymentCard:
		return true
	}
	return false
}

// ShippingMethod способ доставки
type ShippingMethod string

const (
	ShippingStandard ShippingMethod = "Standard"
	ShippingExpress  ShippingMethod = "Express"
)

func (m ShippingMethod) IsValid() bool {
	return m == ShippingStandard || m == ShippingExpress
}
