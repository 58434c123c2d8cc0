package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/linemk/grocery-shop/internal/domain/models"
	"github.com/linemk/grocery-shop/internal/service"
)

type UpdateStatusRequest struct {
	Status    string  `json:"status" validate:"required"`
	AdminNote *string `json:"adminNote" validate:"omitempty,max=1000"`
}

// AdminOrdersHandler GET /api/admin/orders?status=
func AdminOrdersHandler(log *slog.Logger, orders service.OrderService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.AdminOrdersHandler"
		logger := log.With(slog.String("op", op))

		var status *models.OrderStatus
		if s := r.URL.Query().Get("status"); s != "" {
			st := models.OrderStatus(s)
			status = &st
		}

		list, err := orders.ListOrders(r.Context(), status)
		if err != nil {
			writeServiceError(w, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}

// UpdateOrderStatusHandler PATCH /api/admin/orders/{id}
func UpdateOrderStatusHandler(log *slog.Logger, orders service.OrderService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.UpdateOrderStatusHandler"
		logger := log.With(slog.String("op", op))

		// Извлекаем id заказа из URL
		orderID, ok := idParam(r)
		if !ok {
			writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "invalid order id")
			return
		}

		var req UpdateStatusRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			logger.Error("invalid request: decoding error", slog.Any("error", err))
			writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "invalid request")
			return
		}
		if err := validate.Struct(req); err != nil {
			writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
			return
		}

		// Вызываем бизнес-логику смены статуса
		order, err := orders.UpdateStatus(r.Context(), orderID, models.OrderStatus(req.Status), req.AdminNote)
		if err != nil {
			writeServiceError(w, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, order)
	}
}

// DashboardStatsHandler GET /api/admin/dashboard-stats
func DashboardStatsHandler(log *slog.Logger, reports service.ReportService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := log.With(slog.String("op", "handlers.DashboardStatsHandler"))

		stats, err := reports.DashboardStats(r.Context())
		if err != nil {
			writeServiceError(w, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, stats)
	}
}
