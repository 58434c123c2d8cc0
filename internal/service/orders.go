package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/linemk/grocery-shop/internal/domain/models"
	"github.com/linemk/grocery-shop/internal/lib/metrics"
	"github.com/linemk/grocery-shop/internal/storage"
)

// OrderService жизненный цикл заказа после оформления
type OrderService interface {
	CancelOrder(ctx context.Context, userID, orderID int64, reason string) (*models.Order, error)
	UpdateStatus(ctx context.Context, orderID int64, status models.OrderStatus, adminNote *string) (*models.Order, error)
	ListUserOrders(ctx context.Context, userID int64) ([]models.Order, error)
	ListOrders(ctx context.Context, status *models.OrderStatus) ([]models.Order, error)
	GetOrder(ctx context.Context, userID, orderID int64, isAdmin bool) (*models.Order, error)
}

type orderService struct {
	log       *slog.Logger
	orderRepo storage.OrderStorage
	events    OrderEvents
}

// NewOrderService events может быть nil, тогда события не публикуются
func NewOrderService(log *slog.Logger, orderRepo storage.OrderStorage, events OrderEvents) OrderService {
	return &orderService{
		log:       log,
		orderRepo: orderRepo,
		events:    events,
	}
}

// CancelOrder отмена покупателем. Разрешена только для PENDING и PROCESSING.
func (s *orderService) CancelOrder(ctx context.Context, userID, orderID int64, reason string) (*models.Order, error) {
	const op = "service.OrderService.CancelOrder"
	logger := s.log.With(slog.String("op", op), slog.Int64("userID", userID), slog.Int64("orderID", orderID))

	order, err := s.getOrder(ctx, op, orderID)
	if err != nil {
		return nil, err
	}
	// Отменить может только владелец
	if order.UserID != userID {
		logger.Warn("cancel attempt by non-owner")
		return nil, fmt.Errorf("%s: %w", op, ErrNotOwner)
	}
	if !order.Status.Cancellable() {
		logger.Info("order already finalized", slog.String("status", string(order.Status)))
		return nil, fmt.Errorf("%s: status %s: %w", op, order.Status, ErrAlreadyFinalized)
	}

	noteReason := reason
	if noteReason == "" {
		noteReason = "-"
	}
	note := "cancelled by customer: " + noteReason
	upd := storage.StatusUpdate{
		OrderID:   orderID,
		From:      order.Status,
		To:        models.StatusCancelled,
		AdminNote: &note,
	}
	if reason != "" {
		upd.CancelReason = &reason
	}
	if err := s.updateStatus(ctx, logger, op, upd); err != nil {
		return nil, err
	}

	order.Status = models.StatusCancelled
	order.AdminNote = &note
	order.CancelReason = upd.CancelReason

	metrics.OrdersCancelledTotal.Inc()
	if s.events != nil {
		if err := s.events.OrderCancelled(ctx, order, reason); err != nil {
			logger.Error("failed to publish order cancelled event", slog.Any("error", err))
		}
	}

	logger.Info("order cancelled by customer")
	return order, nil
}

// UpdateStatus смена статуса администратором по графу переходов.
// Тот же статус допустим и меняет только заметку.
func (s *orderService) UpdateStatus(ctx context.Context, orderID int64, status models.OrderStatus, adminNote *string) (*models.Order, error) {
	const op = "service.OrderService.UpdateStatus"
	logger := s.log.With(slog.String("op", op), slog.Int64("orderID", orderID), slog.String("status", string(status)))

	if !status.Valid() {
		return nil, fmt.Errorf("%s: unknown status %q: %w", op, status, ErrInvalidInput)
	}

	order, err := s.getOrder(ctx, op, orderID)
	if err != nil {
		return nil, err
	}

	// Проверяем переход по графу статусов
	from := order.Status
	if from != status && !from.CanTransitionTo(status) {
		logger.Warn("invalid status transition", slog.String("from", string(from)))
		return nil, fmt.Errorf("%s: %s -> %s: %w", op, from, status, ErrInvalidTransition)
	}

	upd := storage.StatusUpdate{
		OrderID:   orderID,
		From:      from,
		To:        status,
		AdminNote: adminNote,
	}
	if err := s.updateStatus(ctx, logger, op, upd); err != nil {
		return nil, err
	}

	order.Status = status
	if adminNote != nil {
		order.AdminNote = adminNote
	}

	if from != status {
		metrics.OrderStatusChangesTotal.WithLabelValues(string(status)).Inc()
		if s.events != nil {
			if err := s.events.OrderStatusChanged(ctx, order, from); err != nil {
				logger.Error("failed to publish status changed event", slog.Any("error", err))
			}
		}
	}

	logger.Info("order status updated", slog.String("from", string(from)))
	return order, nil
}

func (s *orderService) ListUserOrders(ctx context.Context, userID int64) ([]models.Order, error) {
	const op = "service.OrderService.ListUserOrders"

	orders, err := s.orderRepo.ListOrdersByUser(ctx, userID)
	if err != nil {
		s.log.Error("failed to list user orders", slog.String("op", op), slog.Int64("userID", userID), slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to list orders: %w", op, err)
	}
	return orders, nil
}

func (s *orderService) ListOrders(ctx context.Context, status *models.OrderStatus) ([]models.Order, error) {
	const op = "service.OrderService.ListOrders"

	if status != nil && !status.Valid() {
		return nil, fmt.Errorf("%s: unknown status %q: %w", op, *status, ErrInvalidInput)
	}
	orders, err := s.orderRepo.ListOrders(ctx, status)
	if err != nil {
		s.log.Error("failed to list orders", slog.String("op", op), slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to list orders: %w", op, err)
	}
	return orders, nil
}

// GetOrder детали заказа видны владельцу и администратору
func (s *orderService) GetOrder(ctx context.Context, userID, orderID int64, isAdmin bool) (*models.Order, error) {
	const op = "service.OrderService.GetOrder"

	order, err := s.getOrder(ctx, op, orderID)
	if err != nil {
		return nil, err
	}
	if !isAdmin && order.UserID != userID {
		return nil, fmt.Errorf("%s: %w", op, ErrNotOwner)
	}
	return order, nil
}

func (s *orderService) getOrder(ctx context.Context, op string, orderID int64) (*models.Order, error) {
	order, err := s.orderRepo.GetOrder(ctx, orderID)
	if err != nil {
		if errors.Is(err, storage.ErrOrderNotFound) {
			return nil, fmt.Errorf("%s: order %d: %w", op, orderID, ErrOrderNotFound)
		}
		s.log.Error("failed to get order", slog.String("op", op), slog.Int64("orderID", orderID), slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to get order: %w", op, err)
	}
	return order, nil
}

func (s *orderService) updateStatus(ctx context.Context, logger *slog.Logger, op string, upd storage.StatusUpdate) error {
	if err := s.orderRepo.UpdateStatus(ctx, upd); err != nil {
		if errors.Is(err, storage.ErrStatusConflict) {
			logger.Warn("order status changed concurrently")
			return fmt.Errorf("%s: %w", op, ErrConcurrentUpdate)
		}
		logger.Error("failed to update order status", slog.Any("error", err))
		return fmt.Errorf("%s: failed to update status: %w", op, err)
	}
	return nil
}
