package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linemk/grocery-shop/internal/domain/models"
	"github.com/linemk/grocery-shop/internal/service"
)

func TestDashboardStats(t *testing.T) {
	now := time.Date(2024, 5, 17, 15, 4, 0, 0, time.UTC)
	repo := &fakeReportRepo{
		revenue: map[time.Time]int64{
			time.Date(2024, 5, 17, 0, 0, 0, 0, time.UTC): 450000,
			time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC):  3200000,
		},
		counts: map[models.OrderStatus]int{
			models.StatusPending:   3,
			models.StatusCompleted: 12,
		},
	}
	svc := service.NewReportService(newTestLogger(), repo, func() time.Time { return now })

	stats, err := svc.DashboardStats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(450000), stats.RevenueToday)
	assert.Equal(t, int64(3200000), stats.RevenueMonth)
	assert.Equal(t, 3, stats.PendingOrders)
	assert.Equal(t, 12, stats.CompletedOrders)
	assert.Equal(t, 0, stats.ShippedOrders)
}

func TestDashboardStats_StorageError(t *testing.T) {
	svc := service.NewReportService(newTestLogger(), &fakeReportRepo{err: errDBDown}, nil)

	stats, err := svc.DashboardStats(context.Background())
	assert.ErrorIs(t, err, errDBDown)
	assert.Nil(t, stats)
}
