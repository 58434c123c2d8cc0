package storage_test

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linemk/grocery-shop/internal/storage"
)

var (
	productColumns = []string{"id", "category_id", "category_name", "name", "description", "image_url", "active"}
	variantColumns = []string{"id", "product_id", "product_name", "name", "price", "barcode"}
	ruleColumns    = []string{"id", "variant_id", "min_qty", "price"}
)

func TestGetVariant_Success(t *testing.T) {
	db, mock := newSqlxMock(t)
	repo := storage.NewCatalogRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE v.id = $1")).
		WithArgs(int64(10)).
		WillReturnRows(sqlmock.NewRows(variantColumns).AddRow(10, 1, "Indomie Goreng", "Box", 110000, "899123"))

	variant, err := repo.GetVariant(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, int64(10), variant.ID)
	assert.Equal(t, "Indomie Goreng", variant.ProductName)
	assert.Equal(t, "Box", variant.Name)
	assert.Equal(t, int64(110000), variant.Price)
	require.NotNil(t, variant.Barcode)
	assert.Equal(t, "899123", *variant.Barcode)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetVariant_NotFound(t *testing.T) {
	db, mock := newSqlxMock(t)
	repo := storage.NewCatalogRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE v.id = $1")).
		WithArgs(int64(404)).
		WillReturnRows(sqlmock.NewRows(variantColumns))

	variant, err := repo.GetVariant(context.Background(), 404)
	assert.ErrorIs(t, err, storage.ErrVariantNotFound)
	assert.Nil(t, variant)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetVariant_QueryError(t *testing.T) {
	db, mock := newSqlxMock(t)
	repo := storage.NewCatalogRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE v.id = $1")).
		WithArgs(int64(10)).
		WillReturnError(errors.New("connection reset"))

	variant, err := repo.GetVariant(context.Background(), 10)
	assert.Error(t, err)
	assert.NotErrorIs(t, err, storage.ErrVariantNotFound)
	assert.Nil(t, variant)
}

func TestGetWholesaleRules(t *testing.T) {
	db, mock := newSqlxMock(t)
	repo := storage.NewCatalogRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM wholesale_rules WHERE variant_id = $1")).
		WithArgs(int64(10)).
		WillReturnRows(sqlmock.NewRows(ruleColumns).
			AddRow(1, 10, 10, 900).
			AddRow(2, 10, 50, 800))

	rules, err := repo.GetWholesaleRules(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, rules, 2)
	assert.Equal(t, 50, rules[1].MinQty)
	assert.Equal(t, int64(800), rules[1].Price)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListProducts_WithVariantsAndRules(t *testing.T) {
	db, mock := newSqlxMock(t)
	repo := storage.NewCatalogRepository(db)
	categoryID := int64(2)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE 1=1 AND p.active = TRUE AND p.category_id = $1 AND p.name ILIKE $2 ORDER BY p.name")).
		WithArgs(categoryID, "%mie%").
		WillReturnRows(sqlmock.NewRows(productColumns).
			AddRow(1, categoryID, "Mie", "Indomie Goreng", nil, nil, true).
			AddRow(2, categoryID, "Mie", "Mie Sedaap", nil, nil, true))
	mock.ExpectQuery(regexp.QuoteMeta("WHERE v.product_id IN ($1, $2) ORDER BY v.id")).
		WithArgs(int64(1), int64(2)).
		WillReturnRows(sqlmock.NewRows(variantColumns).
			AddRow(10, 1, "Indomie Goreng", "Pcs", 3000, nil).
			AddRow(11, 1, "Indomie Goreng", "Box", 110000, nil).
			AddRow(20, 2, "Mie Sedaap", "Pcs", 2800, nil))
	mock.ExpectQuery(regexp.QuoteMeta("FROM wholesale_rules WHERE variant_id IN ($1, $2, $3) ORDER BY min_qty")).
		WithArgs(int64(10), int64(11), int64(20)).
		WillReturnRows(sqlmock.NewRows(ruleColumns).AddRow(1, 10, 40, 2700))

	products, err := repo.ListProducts(context.Background(), storage.ProductFilter{
		CategoryID: &categoryID,
		Search:     "mie",
	})
	require.NoError(t, err)
	require.Len(t, products, 2)
	require.Len(t, products[0].Variants, 2)
	require.Len(t, products[0].Variants[0].Wholesale, 1)
	assert.Equal(t, int64(2700), products[0].Variants[0].Wholesale[0].Price)
	assert.Empty(t, products[0].Variants[1].Wholesale)
	require.Len(t, products[1].Variants, 1)
	assert.Equal(t, "Mie", *products[1].Category)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListProducts_EmptySkipsVariants(t *testing.T) {
	db, mock := newSqlxMock(t)
	repo := storage.NewCatalogRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE 1=1 ORDER BY p.name")).
		WillReturnRows(sqlmock.NewRows(productColumns))

	products, err := repo.ListProducts(context.Background(), storage.ProductFilter{ShowAll: true})
	require.NoError(t, err)
	assert.Empty(t, products)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetProduct_NotFound(t *testing.T) {
	db, mock := newSqlxMock(t)
	repo := storage.NewCatalogRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE p.id = $1")).
		WithArgs(int64(5)).
		WillReturnRows(sqlmock.NewRows(productColumns))

	product, err := repo.GetProduct(context.Background(), 5)
	assert.ErrorIs(t, err, storage.ErrProductNotFound)
	assert.Nil(t, product)

	assert.NoError(t, mock.ExpectationsWereMet())
}
