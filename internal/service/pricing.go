package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sort"

	"github.com/linemk/grocery-shop/internal/domain/models"
	"github.com/linemk/grocery-shop/internal/storage"
)

// MaxQuantity верхняя граница количества в строке, столбец quantity в БД - INTEGER
const MaxQuantity = math.MaxInt32

// PriceResolver определяет цену за единицу с учётом оптовых правил
type PriceResolver interface {
	ResolvePrice(ctx context.Context, variantID int64, quantity int) (int64, error)
}

type priceResolver struct {
	log         *slog.Logger
	catalogRepo storage.CatalogStorage
}

func NewPriceResolver(log *slog.Logger, catalogRepo storage.CatalogStorage) PriceResolver {
	return &priceResolver{
		log:         log,
		catalogRepo: catalogRepo,
	}
}

// ResolvePrice возвращает цену за единицу варианта при покупке quantity штук.
// Только чтение, ничего не меняет.
func (p *priceResolver) ResolvePrice(ctx context.Context, variantID int64, quantity int) (int64, error) {
	const op = "service.PriceResolver.ResolvePrice"

	if variantID <= 0 || quantity <= 0 || quantity > MaxQuantity {
		return 0, fmt.Errorf("%s: variant %d, quantity %d: %w", op, variantID, quantity, ErrInvalidInput)
	}

	variant, err := p.catalogRepo.GetVariant(ctx, variantID)
	if err != nil {
		if errors.Is(err, storage.ErrVariantNotFound) {
			return 0, fmt.Errorf("%s: variant %d: %w", op, variantID, ErrVariantNotFound)
		}
		p.log.Error("failed to get variant", slog.String("op", op), slog.Int64("variantID", variantID), slog.Any("error", err))
		return 0, fmt.Errorf("%s: failed to get variant: %w", op, err)
	}

	rules, err := p.catalogRepo.GetWholesaleRules(ctx, variantID)
	if err != nil {
		p.log.Error("failed to get wholesale rules", slog.String("op", op), slog.Int64("variantID", variantID), slog.Any("error", err))
		return 0, fmt.Errorf("%s: failed to get wholesale rules: %w", op, err)
	}

	return ApplyWholesale(variant.Price, rules, quantity), nil
}

// ApplyWholesale выбирает правило с наибольшим MinQty, не превышающим quantity.
// Если подходящего правила нет, остаётся базовая цена. Входной срез не меняется.
func ApplyWholesale(basePrice int64, rules []models.WholesaleRule, quantity int) int64 {
	if len(rules) == 0 {
		return basePrice
	}

	sorted := make([]models.WholesaleRule, len(rules))
	copy(sorted, rules)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].MinQty > sorted[j].MinQty
	})

	for _, rule := range sorted {
		if quantity >= rule.MinQty {
			return rule.Price
		}
	}
	return basePrice
}

// LineTotal цена строки price*quantity. Переполнение int64 - ErrInvalidInput.
func LineTotal(price int64, quantity int) (int64, error) {
	if price < 0 || quantity <= 0 || quantity > MaxQuantity {
		return 0, fmt.Errorf("price %d, quantity %d: %w", price, quantity, ErrInvalidInput)
	}
	if price > math.MaxInt64/int64(quantity) {
		return 0, fmt.Errorf("line total overflow: price %d, quantity %d: %w", price, quantity, ErrInvalidInput)
	}
	return price * int64(quantity), nil
}
