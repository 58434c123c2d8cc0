package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/linemk/grocery-shop/internal/domain/models"
)

type ReportStorage interface {
	// CompletedRevenueSince сумма total по завершённым заказам с момента from
	CompletedRevenueSince(ctx context.Context, from time.Time) (int64, error)
	CountByStatus(ctx context.Context) (map[models.OrderStatus]int, error)
}

type reportRepository struct {
	db *sqlx.DB
}

func NewReportRepository(db *sqlx.DB) ReportStorage {
	return &reportRepository{db: db}
}

func (r *reportRepository) CompletedRevenueSince(ctx context.Context, from time.Time) (int64, error) {
	var revenue int64
	err := r.db.GetContext(ctx, &revenue,
		"SELECT COALESCE(SUM(total), 0) FROM orders WHERE status = $1 AND created_at >= $2",
		models.StatusCompleted, from)
	if err != nil {
		return 0, fmt.Errorf("failed to sum revenue: %w", err)
	}
	return revenue, nil
}

func (r *reportRepository) CountByStatus(ctx context.Context) (map[models.OrderStatus]int, error) {
	var rows []struct {
		Status models.OrderStatus `db:"status"`
		Count  int                `db:"count"`
	}
	if err := r.db.SelectContext(ctx, &rows, "SELECT status, COUNT(*) AS count FROM orders GROUP BY status"); err != nil {
		return nil, fmt.Errorf("failed to count orders: %w", err)
	}

	counts := make(map[models.OrderStatus]int, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}
