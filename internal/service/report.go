package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/linemk/grocery-shop/internal/domain/models"
	"github.com/linemk/grocery-shop/internal/storage"
)

type ReportService interface {
	DashboardStats(ctx context.Context) (*models.DashboardStats, error)
}

type reportService struct {
	log        *slog.Logger
	reportRepo storage.ReportStorage
	now        func() time.Time
}

func NewReportService(log *slog.Logger, reportRepo storage.ReportStorage, now func() time.Time) ReportService {
	if now == nil {
		now = time.Now
	}
	return &reportService{
		log:        log,
		reportRepo: reportRepo,
		now:        now,
	}
}

// DashboardStats выручка за сегодня и текущий месяц по завершённым заказам и число заказов по статусам.
// Границы дня и месяца берутся в часовом поясе часов сервиса.
func (s *reportService) DashboardStats(ctx context.Context) (*models.DashboardStats, error) {
	const op = "service.ReportService.DashboardStats"
	logger := s.log.With(slog.String("op", op))

	now := s.now()
	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	startOfMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())

	today, err := s.reportRepo.CompletedRevenueSince(ctx, startOfDay)
	if err != nil {
		logger.Error("failed to get today revenue", slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	month, err := s.reportRepo.CompletedRevenueSince(ctx, startOfMonth)
	if err != nil {
		logger.Error("failed to get month revenue", slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	counts, err := s.reportRepo.CountByStatus(ctx)
	if err != nil {
		logger.Error("failed to count orders", slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &models.DashboardStats{
		RevenueToday:     today,
		RevenueMonth:     month,
		PendingOrders:    counts[models.StatusPending],
		ProcessingOrders: counts[models.StatusProcessing],
		ShippedOrders:    counts[models.StatusShipped],
		CompletedOrders:  counts[models.StatusCompleted],
		CancelledOrders:  counts[models.StatusCancelled],
	}, nil
}
