package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/linemk/grocery-shop/internal/domain/models"
	"github.com/linemk/grocery-shop/internal/storage"
)

// CatalogService витрина: товары, категории, зоны доставки
type CatalogService interface {
	ListProducts(ctx context.Context, filter storage.ProductFilter) ([]models.Product, error)
	GetProduct(ctx context.Context, id int64) (*models.Product, error)
	ListCategories(ctx context.Context) ([]models.Category, error)
	ListZones(ctx context.Context) ([]models.ShippingZone, error)
}

type catalogService struct {
	log         *slog.Logger
	catalogRepo storage.CatalogStorage
	zoneRepo    storage.ZoneStorage
}

func NewCatalogService(log *slog.Logger, catalogRepo storage.CatalogStorage, zoneRepo storage.ZoneStorage) CatalogService {
	return &catalogService{
		log:         log,
		catalogRepo: catalogRepo,
		zoneRepo:    zoneRepo,
	}
}

func (s *catalogService) ListProducts(ctx context.Context, filter storage.ProductFilter) ([]models.Product, error) {
	const op = "service.CatalogService.ListProducts"

	products, err := s.catalogRepo.ListProducts(ctx, filter)
	if err != nil {
		s.log.Error("failed to list products", slog.String("op", op), slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return products, nil
}

func (s *catalogService) GetProduct(ctx context.Context, id int64) (*models.Product, error) {
	const op = "service.CatalogService.GetProduct"

	product, err := s.catalogRepo.GetProduct(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrProductNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrProductNotFound)
		}
		s.log.Error("failed to get product", slog.String("op", op), slog.Int64("productID", id), slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return product, nil
}

func (s *catalogService) ListCategories(ctx context.Context) ([]models.Category, error) {
	const op = "service.CatalogService.ListCategories"

	categories, err := s.catalogRepo.ListCategories(ctx)
	if err != nil {
		s.log.Error("failed to list categories", slog.String("op", op), slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return categories, nil
}

func (s *catalogService) ListZones(ctx context.Context) ([]models.ShippingZone, error) {
	const op = "service.CatalogService.ListZones"

	zones, err := s.zoneRepo.ListZones(ctx)
	if err != nil {
		s.log.Error("failed to list zones", slog.String("op", op), slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return zones, nil
}
