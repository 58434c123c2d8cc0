package models

import "time"

type FulfillmentType string

const (
	FulfillmentPickup   FulfillmentType = "PICKUP"
	FulfillmentDelivery FulfillmentType = "DELIVERY"
)

func (f FulfillmentType) Valid() bool {
	return f == FulfillmentPickup || f == FulfillmentDelivery
}

type PaymentMethod string

const (
	PaymentCOD      PaymentMethod = "COD"
	PaymentTransfer PaymentMethod = "TRANSFER"
)

func (p PaymentMethod) Valid() bool {
	return p == PaymentCOD || p == PaymentTransfer
}

type OrderStatus string

const (
	StatusPending    OrderStatus = "PENDING"
	StatusProcessing OrderStatus = "PROCESSING"
	StatusShipped    OrderStatus = "SHIPPED"
	StatusCompleted  OrderStatus = "COMPLETED"
	StatusCancelled  OrderStatus = "CANCELLED"
)

// orderTransitions допустимые переходы статуса заказа
var orderTransitions = map[OrderStatus][]OrderStatus{
	StatusPending:    {StatusProcessing, StatusCancelled},
	StatusProcessing: {StatusShipped, StatusCancelled},
	StatusShipped:    {StatusCompleted},
}

func (s OrderStatus) Valid() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusShipped, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// Terminal - из COMPLETED и CANCELLED выхода нет
func (s OrderStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// Cancellable - покупатель может отменить заказ, пока он не отправлен
func (s OrderStatus) Cancellable() bool {
	return s == StatusPending || s == StatusProcessing
}

// CanTransitionTo проверяет переход по графу статусов
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, allowed := range orderTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Order оформленный заказ. Total всегда считается на сервере: Subtotal + DeliveryFee.
type Order struct {
	ID                 int64           `db:"id" json:"id"`
	UserID             int64           `db:"user_id" json:"userId"`
	InvoiceNumber      string          `db:"invoice_number" json:"invoiceNumber"`
	FulfillmentType    FulfillmentType `db:"fulfillment_type" json:"fulfillmentType"`
	PaymentMethod      PaymentMethod   `db:"payment_method" json:"paymentMethod"`
	PaymentProofRef    *string         `db:"payment_proof_ref" json:"paymentProofRef,omitempty"`
	ZoneID             *int64          `db:"zone_id" json:"zoneId,omitempty"`
	DestinationAddress *string         `db:"destination_address" json:"destinationAddress,omitempty"`
	RecipientName      *string         `db:"recipient_name" json:"recipientName,omitempty"`
	Subtotal           int64           `db:"subtotal" json:"subtotal"`
	DeliveryFee        int64           `db:"delivery_fee" json:"deliveryFee"`
	Total              int64           `db:"total" json:"total"`
	Status             OrderStatus     `db:"status" json:"status"`
	AdminNote          *string         `db:"admin_note" json:"adminNote,omitempty"`
	CancelReason       *string         `db:"cancel_reason" json:"cancelReason,omitempty"`
	CreatedAt          time.Time       `db:"created_at" json:"createdAt"`
	UpdatedAt          time.Time       `db:"updated_at" json:"updatedAt"`
	Lines              []OrderLine     `db:"-" json:"items"`
}

// OrderLine позиция заказа с ценой на момент покупки
type OrderLine struct {
	ID          int64  `db:"id" json:"id"`
	OrderID     int64  `db:"order_id" json:"orderId"`
	VariantID   int64  `db:"variant_id" json:"variantId"`
	VariantName string `db:"variant_name" json:"variantName,omitempty"`
	ProductName string `db:"product_name" json:"productName,omitempty"`
	Quantity    int    `db:"quantity" json:"quantity"`
	UnitPrice   int64  `db:"unit_price" json:"unitPrice"`
	LineTotal   int64  `db:"line_total" json:"lineTotal"`
}
