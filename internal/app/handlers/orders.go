package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/linemk/grocery-shop/internal/domain/models"
	"github.com/linemk/grocery-shop/internal/jwt-new/jwtmiddleware"
	"github.com/linemk/grocery-shop/internal/service"
)

const idempotencyHeader = "Idempotency-Key"

type OrderItemRequest struct {
	VariantID int64 `json:"variantId" validate:"required,gt=0"`
	Quantity  int   `json:"quantity" validate:"required,gt=0,lte=2147483647"`
}

// CreateOrderRequest строгая схема оформления. Суммы от клиента не принимаются вовсе.
type CreateOrderRequest struct {
	Items              []OrderItemRequest `json:"items" validate:"required,min=1,dive"`
	FulfillmentType    string             `json:"fulfillmentType" validate:"required"`
	ZoneID             *int64             `json:"zoneId" validate:"omitempty,gt=0"`
	DestinationAddress *string            `json:"destinationAddress" validate:"omitempty,max=500"`
	RecipientName      *string            `json:"recipientName" validate:"omitempty,max=200"`
	PaymentMethod      string             `json:"paymentMethod" validate:"required"`
	PaymentProofRef    *string            `json:"paymentProofRef" validate:"omitempty,max=500"`
}

type CancelOrderRequest struct {
	Reason string `json:"reason" validate:"max=500"`
}

// CreateOrderHandler POST /api/orders
func CreateOrderHandler(log *slog.Logger, checkout service.CheckoutService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.CreateOrderHandler"
		logger := log.With(slog.String("op", op))

		// Извлекаем userID из контекста (установленный JWT middleware)
		userID, ok := jwtmiddleware.FromContext(r.Context())
		if !ok {
			logger.Error("userID not found in context")
			writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "unauthorized")
			return
		}

		// Декодируем и валидируем запрос
		var req CreateOrderRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			logger.Error("invalid request: decoding error", slog.Any("error", err))
			writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "invalid request")
			return
		}
		if err := validate.Struct(req); err != nil {
			logger.Error("invalid request: validation error", slog.Any("error", err))
			writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
			return
		}

		items := make([]models.CartLine, 0, len(req.Items))
		for _, it := range req.Items {
			items = append(items, models.CartLine{VariantID: it.VariantID, Quantity: it.Quantity})
		}

		// Вызываем бизнес-логику оформления заказа
		res, err := checkout.CreateOrder(r.Context(), userID, service.CreateOrderInput{
			Items:              items,
			FulfillmentType:    models.FulfillmentType(req.FulfillmentType),
			ZoneID:             req.ZoneID,
			DestinationAddress: req.DestinationAddress,
			RecipientName:      req.RecipientName,
			PaymentMethod:      models.PaymentMethod(req.PaymentMethod),
			PaymentProofRef:    req.PaymentProofRef,
			IdempotencyKey:     r.Header.Get(idempotencyHeader),
		})
		if err != nil {
			writeServiceError(w, logger, err)
			return
		}
		// Формируем ответ
		writeJSON(w, http.StatusCreated, res)
	}
}

// MyOrdersHandler GET /api/orders
func MyOrdersHandler(log *slog.Logger, orders service.OrderService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.MyOrdersHandler"
		logger := log.With(slog.String("op", op))

		userID, ok := jwtmiddleware.FromContext(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "unauthorized")
			return
		}

		list, err := orders.ListUserOrders(r.Context(), userID)
		if err != nil {
			writeServiceError(w, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}

// OrderHandler GET /api/orders/{id}, админ видит любой заказ
func OrderHandler(log *slog.Logger, orders service.OrderService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.OrderHandler"
		logger := log.With(slog.String("op", op))

		userID, ok := jwtmiddleware.FromContext(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "unauthorized")
			return
		}
		orderID, ok := idParam(r)
		if !ok {
			writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "invalid order id")
			return
		}

		order, err := orders.GetOrder(r.Context(), userID, orderID, jwtmiddleware.IsAdmin(r.Context()))
		if err != nil {
			writeServiceError(w, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, order)
	}
}

// CancelOrderHandler POST /api/orders/{id}/cancel, тело с причиной необязательно
func CancelOrderHandler(log *slog.Logger, orders service.OrderService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.CancelOrderHandler"
		logger := log.With(slog.String("op", op))

		userID, ok := jwtmiddleware.FromContext(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "unauthorized")
			return
		}
		orderID, ok := idParam(r)
		if !ok {
			writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "invalid order id")
			return
		}

		// Тело может быть пустым, тогда причина не указана
		var req CancelOrderRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			logger.Error("invalid request: decoding error", slog.Any("error", err))
			writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "invalid request")
			return
		}
		if err := validate.Struct(req); err != nil {
			writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
			return
		}

		// Вызываем бизнес-логику отмены
		order, err := orders.CancelOrder(r.Context(), userID, orderID, req.Reason)
		if err != nil {
			writeServiceError(w, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, order)
	}
}
