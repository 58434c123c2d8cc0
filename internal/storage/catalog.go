package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/linemk/grocery-shop/internal/domain/models"
)

var (
	ErrProductNotFound = errors.New("product not found")
	ErrVariantNotFound = errors.New("variant not found")
)

// ProductFilter параметры выборки витрины
type ProductFilter struct {
	CategoryID *int64
	Search     string
	ShowAll    bool // вместе с неактивными товарами
}

type CatalogStorage interface {
	ListCategories(ctx context.Context) ([]models.Category, error)
	ListProducts(ctx context.Context, filter ProductFilter) ([]models.Product, error)
	GetProduct(ctx context.Context, id int64) (*models.Product, error)
	GetVariant(ctx context.Context, id int64) (*models.Variant, error)
	GetWholesaleRules(ctx context.Context, variantID int64) ([]models.WholesaleRule, error)
}

type catalogRepository struct {
	db *sqlx.DB
}

func NewCatalogRepository(db *sqlx.DB) CatalogStorage {
	return &catalogRepository{db: db}
}

const (
	selectProducts = `SELECT p.id, p.category_id, c.name AS category_name, p.name, p.description, p.image_url, p.active
		FROM products p
		LEFT JOIN categories c ON c.id = p.category_id`
	selectVariants = `SELECT v.id, v.product_id, p.name AS product_name, v.name, v.price, v.barcode
		FROM variants v
		JOIN products p ON p.id = v.product_id`
)

func (r *catalogRepository) ListCategories(ctx context.Context) ([]models.Category, error) {
	categories := []models.Category{}
	if err := r.db.SelectContext(ctx, &categories, "SELECT id, name FROM categories ORDER BY name"); err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	return categories, nil
}

func (r *catalogRepository) ListProducts(ctx context.Context, filter ProductFilter) ([]models.Product, error) {
	query := selectProducts + " WHERE 1=1"
	var args []interface{}
	if !filter.ShowAll {
		query += " AND p.active = TRUE"
	}
	if filter.CategoryID != nil {
		args = append(args, *filter.CategoryID)
		query += fmt.Sprintf(" AND p.category_id = $%d", len(args))
	}
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		query += fmt.Sprintf(" AND p.name ILIKE $%d", len(args))
	}
	query += " ORDER BY p.name"

	products := []models.Product{}
	if err := r.db.SelectContext(ctx, &products, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	if len(products) == 0 {
		return products, nil
	}

	ids := make([]int64, 0, len(products))
	for _, p := range products {
		ids = append(ids, p.ID)
	}
	variants, err := r.variantsByProducts(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range products {
		products[i].Variants = variants[products[i].ID]
	}
	return products, nil
}

// GetProduct карточка товара с вариантами и оптовыми ценами
func (r *catalogRepository) GetProduct(ctx context.Context, id int64) (*models.Product, error) {
	product := &models.Product{}
	if err := r.db.GetContext(ctx, product, selectProducts+" WHERE p.id = $1", id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to get product: %w", err)
	}

	variants, err := r.variantsByProducts(ctx, []int64{id})
	if err != nil {
		return nil, err
	}
	product.Variants = variants[id]
	return product, nil
}

func (r *catalogRepository) GetVariant(ctx context.Context, id int64) (*models.Variant, error) {
	variant := &models.Variant{}
	if err := r.db.GetContext(ctx, variant, selectVariants+" WHERE v.id = $1", id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrVariantNotFound
		}
		return nil, fmt.Errorf("failed to get variant: %w", err)
	}
	return variant, nil
}

func (r *catalogRepository) GetWholesaleRules(ctx context.Context, variantID int64) ([]models.WholesaleRule, error) {
	rules := []models.WholesaleRule{}
	err := r.db.SelectContext(ctx, &rules,
		"SELECT id, variant_id, min_qty, price FROM wholesale_rules WHERE variant_id = $1", variantID)
	if err != nil {
		return nil, fmt.Errorf("failed to get wholesale rules: %w", err)
	}
	return rules, nil
}

// variantsByProducts загружает варианты вместе с оптовыми правилами двумя запросами
func (r *catalogRepository) variantsByProducts(ctx context.Context, productIDs []int64) (map[int64][]models.Variant, error) {
	query, args, err := sqlx.In(selectVariants+" WHERE v.product_id IN (?) ORDER BY v.id", productIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to build variants query: %w", err)
	}
	var variants []models.Variant
	if err := r.db.SelectContext(ctx, &variants, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("failed to list variants: %w", err)
	}

	result := make(map[int64][]models.Variant, len(productIDs))
	if len(variants) == 0 {
		return result, nil
	}

	variantIDs := make([]int64, 0, len(variants))
	for _, v := range variants {
		variantIDs = append(variantIDs, v.ID)
	}
	query, args, err = sqlx.In(
		"SELECT id, variant_id, min_qty, price FROM wholesale_rules WHERE variant_id IN (?) ORDER BY min_qty", variantIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to build wholesale query: %w", err)
	}
	var rules []models.WholesaleRule
	if err := r.db.SelectContext(ctx, &rules, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("failed to list wholesale rules: %w", err)
	}

	byVariant := make(map[int64][]models.WholesaleRule)
	for _, rule := range rules {
		byVariant[rule.VariantID] = append(byVariant[rule.VariantID], rule)
	}
	for _, v := range variants {
		v.Wholesale = byVariant[v.ID]
		result[v.ProductID] = append(result[v.ProductID], v)
	}
	return result, nil
}
