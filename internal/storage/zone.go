package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/linemk/grocery-shop/internal/domain/models"
)

var ErrZoneNotFound = errors.New("shipping zone not found")

type ZoneStorage interface {
	ListZones(ctx context.Context) ([]models.ShippingZone, error)
	GetZone(ctx context.Context, id int64) (*models.ShippingZone, error)
}

type zoneRepository struct {
	db *sqlx.DB
}

func NewZoneRepository(db *sqlx.DB) ZoneStorage {
	return &zoneRepository{db: db}
}

func (r *zoneRepository) ListZones(ctx context.Context) ([]models.ShippingZone, error) {
	zones := []models.ShippingZone{}
	if err := r.db.SelectContext(ctx, &zones, "SELECT id, name, fee FROM shipping_zones ORDER BY name"); err != nil {
		return nil, fmt.Errorf("failed to list zones: %w", err)
	}
	return zones, nil
}

func (r *zoneRepository) GetZone(ctx context.Context, id int64) (*models.ShippingZone, error) {
	zone := &models.ShippingZone{}
	if err := r.db.GetContext(ctx, zone, "SELECT id, name, fee FROM shipping_zones WHERE id = $1", id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrZoneNotFound
		}
		return nil, fmt.Errorf("failed to get zone: %w", err)
	}
	return zone, nil
}
