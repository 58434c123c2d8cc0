package storage_test

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linemk/grocery-shop/internal/domain/models"
	"github.com/linemk/grocery-shop/internal/storage"
)

var (
	orderColumns = []string{"id", "user_id", "invoice_number", "fulfillment_type", "payment_method", "payment_proof_ref",
		"zone_id", "destination_address", "recipient_name", "subtotal", "delivery_fee", "total", "status",
		"admin_note", "cancel_reason", "created_at", "updated_at"}
	lineColumns = []string{"id", "order_id", "variant_id", "variant_name", "product_name", "quantity", "unit_price", "line_total"}
)

func TestNextInvoiceSeq(t *testing.T) {
	db, mock := newSqlxMock(t)
	repo := storage.NewOrderRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT nextval('invoice_number_seq')")).
		WillReturnRows(sqlmock.NewRows([]string{"nextval"}).AddRow(42))
	mock.ExpectCommit()

	tx, err := db.Begin()
	require.NoError(t, err)

	seq, err := repo.NextInvoiceSeq(context.Background(), tx)
	assert.NoError(t, err)
	assert.Equal(t, int64(42), seq)

	assert.NoError(t, tx.Commit())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateOrderWithLine_Success(t *testing.T) {
	db, mock := newSqlxMock(t)
	repo := storage.NewOrderRepository(db)
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO orders")).
		WithArgs(int64(1), "INV-20240501-000042", models.FulfillmentPickup, models.PaymentCOD, nil,
			nil, nil, nil, int64(300000), int64(0), int64(300000), models.StatusPending).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(5))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO order_lines (order_id, variant_id, quantity, unit_price, line_total)")).
		WithArgs(int64(5), int64(10), 3, int64(100000), int64(300000)).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	tx, err := db.Begin()
	require.NoError(t, err)

	id, err := repo.CreateOrder(ctx, tx, &models.Order{
		UserID:          1,
		InvoiceNumber:   "INV-20240501-000042",
		FulfillmentType: models.FulfillmentPickup,
		PaymentMethod:   models.PaymentCOD,
		Subtotal:        300000,
		Total:           300000,
		Status:          models.StatusPending,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(5), id)

	err = repo.CreateOrderLine(ctx, tx, &models.OrderLine{
		OrderID: id, VariantID: 10, Quantity: 3, UnitPrice: 100000, LineTotal: 300000,
	})
	require.NoError(t, err)

	assert.NoError(t, tx.Commit())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateOrderLine_Error(t *testing.T) {
	db, mock := newSqlxMock(t)
	repo := storage.NewOrderRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO order_lines")).
		WillReturnError(errors.New("fk violation"))
	mock.ExpectRollback()

	tx, err := db.Begin()
	require.NoError(t, err)

	err = repo.CreateOrderLine(context.Background(), tx, &models.OrderLine{OrderID: 1, VariantID: 999, Quantity: 1})
	assert.Error(t, err)

	assert.NoError(t, tx.Rollback())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetOrder_WithLines(t *testing.T) {
	db, mock := newSqlxMock(t)
	repo := storage.NewOrderRepository(db)
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta("FROM orders WHERE id = $1")).
		WithArgs(int64(5)).
		WillReturnRows(sqlmock.NewRows(orderColumns).AddRow(
			5, 1, "INV-20240501-000042", "DELIVERY", "TRANSFER", "proof.jpg",
			2, "Jl. Merdeka 1", "Budi", 600000, 15000, 615000, "PENDING",
			nil, nil, now, now))
	mock.ExpectQuery(regexp.QuoteMeta("WHERE l.order_id IN ($1)")).
		WithArgs(int64(5)).
		WillReturnRows(sqlmock.NewRows(lineColumns).
			AddRow(1, 5, 10, "Box", "Indomie Goreng", 5, 120000, 600000))

	order, err := repo.GetOrder(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, models.FulfillmentDelivery, order.FulfillmentType)
	assert.Equal(t, models.StatusPending, order.Status)
	require.NotNil(t, order.ZoneID)
	assert.Equal(t, int64(2), *order.ZoneID)
	assert.Equal(t, int64(615000), order.Total)
	require.Len(t, order.Lines, 1)
	assert.Equal(t, "Indomie Goreng", order.Lines[0].ProductName)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetOrder_NotFound(t *testing.T) {
	db, mock := newSqlxMock(t)
	repo := storage.NewOrderRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM orders WHERE id = $1")).
		WithArgs(int64(77)).
		WillReturnRows(sqlmock.NewRows(orderColumns))

	order, err := repo.GetOrder(context.Background(), 77)
	assert.ErrorIs(t, err, storage.ErrOrderNotFound)
	assert.Nil(t, order)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListOrders_StatusFilter(t *testing.T) {
	db, mock := newSqlxMock(t)
	repo := storage.NewOrderRepository(db)
	status := models.StatusShipped

	mock.ExpectQuery(regexp.QuoteMeta("FROM orders WHERE status = $1 ORDER BY created_at DESC, id DESC")).
		WithArgs(models.StatusShipped).
		WillReturnRows(sqlmock.NewRows(orderColumns))

	orders, err := repo.ListOrders(context.Background(), &status)
	require.NoError(t, err)
	assert.Empty(t, orders)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateStatus_Success(t *testing.T) {
	db, mock := newSqlxMock(t)
	repo := storage.NewOrderRepository(db)
	reason := "wrong address"
	note := "cancelled by customer: wrong address"

	mock.ExpectExec(regexp.QuoteMeta("WHERE id = $4 AND status = $5")).
		WithArgs(models.StatusCancelled, note, reason, int64(5), models.StatusPending).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.UpdateStatus(context.Background(), storage.StatusUpdate{
		OrderID:      5,
		From:         models.StatusPending,
		To:           models.StatusCancelled,
		AdminNote:    &note,
		CancelReason: &reason,
	})
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateStatus_Conflict(t *testing.T) {
	db, mock := newSqlxMock(t)
	repo := storage.NewOrderRepository(db)

	// статус успели сменить, строка не обновилась
	mock.ExpectExec(regexp.QuoteMeta("UPDATE orders")).
		WithArgs(models.StatusShipped, nil, nil, int64(5), models.StatusProcessing).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateStatus(context.Background(), storage.StatusUpdate{
		OrderID: 5,
		From:    models.StatusProcessing,
		To:      models.StatusShipped,
	})
	assert.ErrorIs(t, err, storage.ErrStatusConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}
