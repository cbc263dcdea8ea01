// Package events публикует события жизненного цикла заказа.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	TopicOrderPlaced        = "grocery.order.placed"
	TopicOrderStatusChanged = "grocery.order.status-changed"
	TopicReconciliation     = "grocery.inventory.reconciliation-required"
)

const (
	EventOrderPlaced            = "OrderPlaced"
	EventOrderStatusChanged     = "OrderStatusChanged"
	EventReconciliationRequired = "ReconciliationRequired"
)

type Envelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	EventVersion  int             `json:"event_version"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Producer      string          `json:"producer"`
	CorrelationID string          `json:"correlation_id,omitempty"` // order number
	Payload       json.RawMessage `json:"payload"`
}

// Event то, что передаётся в Publisher: топик, ключ партиции и конверт
type Event struct {
	Topic    string
	Key      string
	Envelope Envelope
}

// New упаковывает payload в конверт
func New(producer, topic, eventType, correlationID string, payload any) (Event, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Event{}, fmt.Errorf("encode %s payload: %w", eventType, err)
	}
	return Event{
		Topic: topic,
		Key:   correlationID,
		Envelope: Envelope{
			EventID:       uuid.NewString(),
			EventType:     eventType,
			EventVersion:  1,
			OccurredAt:    time.Now().UTC(),
			Producer:      producer,
			CorrelationID: correlationID,
			Payload:       raw,
		},
	}, nil
}

// ---- payloads ----

type OrderLine struct {
	ProductID string          `json:"product_id"`
	Size      string          `json:"size"`
	Quantity  int64           `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

type OrderPlacedPayload struct {
	OrderNumber    string          `json:"order_number"`
	CustomerID     string          `json:"customer_id"`
	Items          []OrderLine     `json:"items"`
	TotalAmount    decimal.Decimal `json:"total_amount"`
	PaymentMethod  string          `json:"payment_method"`
	ShippingMethod string          `json:"shipping_method"`
}

type OrderStatusChangedPayload struct {
	OrderNumber string `json:"order_number"`
	From        string `json:"from"`
	To          string `json:"to"`
}

type ReconciliationPayload struct {
	OrderNumber string `json:"order_number"`
	ProductID   string `json:"product_id"`
	Size        string `json:"size"`
	Requested   int64  `json:"requested"`
	Available   int64  `json:"available"`
	Reason      string `json:"reason"`
}

// Publisher отправляет события. Publish не блокируется на брокере.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
	Close() error
}

// Nop выбрасывает события
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }
func (Nop) Close() error                         { return nil }
