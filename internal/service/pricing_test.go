package service_test

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linemk/grocery-shop/internal/domain/models"
	"github.com/linemk/grocery-shop/internal/service"
)

var tieredRules = []models.WholesaleRule{
	{MinQty: 10, Price: 900},
	{MinQty: 50, Price: 800},
}

func TestApplyWholesale(t *testing.T) {
	tests := []struct {
		name     string
		rules    []models.WholesaleRule
		quantity int
		want     int64
	}{
		{name: "largest threshold wins", rules: tieredRules, quantity: 60, want: 800},
		{name: "exact upper threshold", rules: tieredRules, quantity: 50, want: 800},
		{name: "middle tier", rules: tieredRules, quantity: 20, want: 900},
		{name: "exact lower threshold", rules: tieredRules, quantity: 10, want: 900},
		{name: "below all tiers", rules: tieredRules, quantity: 5, want: 1000},
		{name: "no rules", rules: nil, quantity: 100, want: 1000},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, service.ApplyWholesale(1000, tt.rules, tt.quantity))
		})
	}
}

func TestApplyWholesale_DoesNotMutateRules(t *testing.T) {
	rules := []models.WholesaleRule{
		{ID: 1, MinQty: 10, Price: 900},
		{ID: 2, MinQty: 50, Price: 800},
		{ID: 3, MinQty: 25, Price: 850},
	}
	service.ApplyWholesale(1000, rules, 30)

	assert.Equal(t, int64(1), rules[0].ID)
	assert.Equal(t, int64(2), rules[1].ID)
	assert.Equal(t, int64(3), rules[2].ID)
}

func TestApplyWholesale_NonIncreasingInQuantity(t *testing.T) {
	rules := []models.WholesaleRule{
		{MinQty: 5, Price: 950},
		{MinQty: 12, Price: 900},
		{MinQty: 40, Price: 820},
		{MinQty: 100, Price: 780},
	}
	prev := service.ApplyWholesale(1000, rules, 1)
	for q := 2; q <= 150; q++ {
		price := service.ApplyWholesale(1000, rules, q)
		assert.LessOrEqual(t, price, prev, "quantity %d", q)
		prev = price
	}
}

func TestResolvePrice(t *testing.T) {
	catalog := newFakeCatalogRepo()
	catalog.addVariant(1, 1000, tieredRules...)
	resolver := service.NewPriceResolver(newTestLogger(), catalog)
	ctx := context.Background()

	price, err := resolver.ResolvePrice(ctx, 1, 60)
	require.NoError(t, err)
	assert.Equal(t, int64(800), price)

	price, err = resolver.ResolvePrice(ctx, 1, 3)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), price)
}

func TestResolvePrice_InvalidInput(t *testing.T) {
	catalog := newFakeCatalogRepo()
	catalog.addVariant(1, 1000)
	resolver := service.NewPriceResolver(newTestLogger(), catalog)

	_, err := resolver.ResolvePrice(context.Background(), 1, 0)
	assert.ErrorIs(t, err, service.ErrInvalidInput)

	_, err = resolver.ResolvePrice(context.Background(), 0, 5)
	assert.ErrorIs(t, err, service.ErrInvalidInput)

	_, err = resolver.ResolvePrice(context.Background(), 1, -2)
	assert.ErrorIs(t, err, service.ErrInvalidInput)
}

func TestResolvePrice_UnknownVariant(t *testing.T) {
	resolver := service.NewPriceResolver(newTestLogger(), newFakeCatalogRepo())

	_, err := resolver.ResolvePrice(context.Background(), 404, 1)
	assert.ErrorIs(t, err, service.ErrVariantNotFound)
}

func TestResolvePrice_StorageError(t *testing.T) {
	catalog := newFakeCatalogRepo()
	catalog.err = errDBDown
	resolver := service.NewPriceResolver(newTestLogger(), catalog)

	_, err := resolver.ResolvePrice(context.Background(), 1, 1)
	assert.ErrorIs(t, err, errDBDown)
	assert.NotErrorIs(t, err, service.ErrVariantNotFound)
}

func TestLineTotal(t *testing.T) {
	total, err := service.LineTotal(110000, 5)
	require.NoError(t, err)
	assert.Equal(t, int64(550000), total)

	_, err = service.LineTotal(math.MaxInt64/2, 3)
	assert.ErrorIs(t, err, service.ErrInvalidInput)

	_, err = service.LineTotal(1, service.MaxQuantity+1)
	assert.ErrorIs(t, err, service.ErrInvalidInput)

	total, err = service.LineTotal(1, service.MaxQuantity)
	require.NoError(t, err)
	assert.Equal(t, int64(math.MaxInt32), total)
}

func TestResolvePrice_QuantityAboveMaxRejected(t *testing.T) {
	catalog := newFakeCatalogRepo()
	catalog.addVariant(1, 10000)
	resolver := service.NewPriceResolver(newTestLogger(), catalog)

	_, err := resolver.ResolvePrice(context.Background(), 1, service.MaxQuantity+1)
	assert.ErrorIs(t, err, service.ErrInvalidInput)
}
