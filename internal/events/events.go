package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/linemk/grocery-shop/internal/domain/models"
)

const (
	EventTypeOrderCreated       = "ORDER_CREATED"
	EventTypeOrderCancelled     = "ORDER_CANCELLED"
	EventTypeOrderStatusChanged = "ORDER_STATUS_CHANGED"
)

// BaseEvent общие поля всех событий
type BaseEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
}

func newBaseEvent(eventType string) BaseEvent {
	return BaseEvent{
		EventID:   uuid.NewString(),
		EventType: eventType,
		Timestamp: time.Now().UTC(),
	}
}

type OrderCreatedEvent struct {
	BaseEvent
	OrderID         int64           `json:"order_id"`
	UserID          int64           `json:"user_id"`
	InvoiceNumber   string          `json:"invoice_number"`
	FulfillmentType string          `json:"fulfillment_type"`
	PaymentMethod   string          `json:"payment_method"`
	Total           int64           `json:"total"`
	Items           []OrderItemData `json:"items"`
}

type OrderCancelledEvent struct {
	BaseEvent
	OrderID int64  `json:"order_id"`
	UserID  int64  `json:"user_id"`
	Reason  string `json:"reason"`
}

type OrderStatusChangedEvent struct {
	BaseEvent
	OrderID int64  `json:"order_id"`
	From    string `json:"from"`
	To      string `json:"to"`
}

type OrderItemData struct {
	VariantID int64 `json:"variant_id"`
	Quantity  int   `json:"quantity"`
	UnitPrice int64 `json:"unit_price"`
}

func newOrderCreatedEvent(order *models.Order) *OrderCreatedEvent {
	items := make([]OrderItemData, 0, len(order.Lines))
	for _, l := range order.Lines {
		items = append(items, OrderItemData{VariantID: l.VariantID, Quantity: l.Quantity, UnitPrice: l.UnitPrice})
	}
	return &OrderCreatedEvent{
		BaseEvent:       newBaseEvent(EventTypeOrderCreated),
		OrderID:         order.ID,
		UserID:          order.UserID,
		InvoiceNumber:   order.InvoiceNumber,
		FulfillmentType: string(order.FulfillmentType),
		PaymentMethod:   string(order.PaymentMethod),
		Total:           order.Total,
		Items:           items,
	}
}
