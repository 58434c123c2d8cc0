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
	ErrOrderNotFound = errors.New("order not found")
	// ErrStatusConflict статус заказа изменился между чтением и записью
	ErrStatusConflict = errors.New("order status changed concurrently")
)

// StatusUpdate условная смена статуса: запись пройдёт, только если статус в БД всё ещё From.
// Nil-поля не перезаписывают сохранённые значения.
type StatusUpdate struct {
	OrderID      int64
	From         models.OrderStatus
	To           models.OrderStatus
	AdminNote    *string
	CancelReason *string
}

// OrderStorage описывает методы для работы с заказами.
type OrderStorage interface {
	// NextInvoiceSeq берёт следующее значение последовательности номеров счетов в рамках транзакции.
	NextInvoiceSeq(ctx context.Context, tx *sql.Tx) (int64, error)
	// CreateOrder вставляет шапку заказа и возвращает её id.
	CreateOrder(ctx context.Context, tx *sql.Tx, order *models.Order) (int64, error)
	CreateOrderLine(ctx context.Context, tx *sql.Tx, line *models.OrderLine) error
	GetOrder(ctx context.Context, id int64) (*models.Order, error)
	// ListOrdersByUser история заказов пользователя, новые первыми.
	ListOrdersByUser(ctx context.Context, userID int64) ([]models.Order, error)
	ListOrders(ctx context.Context, status *models.OrderStatus) ([]models.Order, error)
	UpdateStatus(ctx context.Context, upd StatusUpdate) error
}

type orderRepository struct {
	db *sqlx.DB
}

// NewOrderRepository создаёт новый репозиторий заказов.
func NewOrderRepository(db *sqlx.DB) OrderStorage {
	return &orderRepository{db: db}
}

const selectOrders = `SELECT id, user_id, invoice_number, fulfillment_type, payment_method, payment_proof_ref,
		zone_id, destination_address, recipient_name, subtotal, delivery_fee, total, status,
		admin_note, cancel_reason, created_at, updated_at
	FROM orders`

func (r *orderRepository) NextInvoiceSeq(ctx context.Context, tx *sql.Tx) (int64, error) {
	var seq int64
	if err := tx.QueryRowContext(ctx, "SELECT nextval('invoice_number_seq')").Scan(&seq); err != nil {
		return 0, fmt.Errorf("failed to get invoice sequence: %w", err)
	}
	return seq, nil
}

func (r *orderRepository) CreateOrder(ctx context.Context, tx *sql.Tx, order *models.Order) (int64, error) {
	query := `INSERT INTO orders (user_id, invoice_number, fulfillment_type, payment_method, payment_proof_ref,
			zone_id, destination_address, recipient_name, subtotal, delivery_fee, total, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id`
	var id int64
	err := tx.QueryRowContext(ctx, query,
		order.UserID, order.InvoiceNumber, order.FulfillmentType, order.PaymentMethod, order.PaymentProofRef,
		order.ZoneID, order.DestinationAddress, order.RecipientName,
		order.Subtotal, order.DeliveryFee, order.Total, order.Status,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to create order: %w", err)
	}
	return id, nil
}

func (r *orderRepository) CreateOrderLine(ctx context.Context, tx *sql.Tx, line *models.OrderLine) error {
	query := `INSERT INTO order_lines (order_id, variant_id, quantity, unit_price, line_total)
		VALUES ($1, $2, $3, $4, $5)`
	_, err := tx.ExecContext(ctx, query, line.OrderID, line.VariantID, line.Quantity, line.UnitPrice, line.LineTotal)
	if err != nil {
		return fmt.Errorf("failed to create order line: %w", err)
	}
	return nil
}

func (r *orderRepository) GetOrder(ctx context.Context, id int64) (*models.Order, error) {
	order := models.Order{}
	if err := r.db.GetContext(ctx, &order, selectOrders+" WHERE id = $1", id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to get order: %w", err)
	}

	orders := []models.Order{order}
	if err := r.attachLines(ctx, orders); err != nil {
		return nil, err
	}
	return &orders[0], nil
}

func (r *orderRepository) ListOrdersByUser(ctx context.Context, userID int64) ([]models.Order, error) {
	orders := []models.Order{}
	err := r.db.SelectContext(ctx, &orders, selectOrders+" WHERE user_id = $1 ORDER BY created_at DESC, id DESC", userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list user orders: %w", err)
	}
	if err := r.attachLines(ctx, orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// ListOrders выборка для админки, status nil - все заказы
func (r *orderRepository) ListOrders(ctx context.Context, status *models.OrderStatus) ([]models.Order, error) {
	query := selectOrders
	var args []interface{}
	if status != nil {
		query += " WHERE status = $1"
		args = append(args, *status)
	}
	query += " ORDER BY created_at DESC, id DESC"

	orders := []models.Order{}
	if err := r.db.SelectContext(ctx, &orders, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	if err := r.attachLines(ctx, orders); err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *orderRepository) UpdateStatus(ctx context.Context, upd StatusUpdate) error {
	query := `UPDATE orders
		SET status = $1, admin_note = COALESCE($2, admin_note), cancel_reason = COALESCE($3, cancel_reason), updated_at = NOW()
		WHERE id = $4 AND status = $5`
	res, err := r.db.ExecContext(ctx, query, upd.To, upd.AdminNote, upd.CancelReason, upd.OrderID, upd.From)
	if err != nil {
		return fmt.Errorf("failed to update order status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update order status: %w", err)
	}
	if affected == 0 {
		return ErrStatusConflict
	}
	return nil
}

func (r *orderRepository) attachLines(ctx context.Context, orders []models.Order) error {
	if len(orders) == 0 {
		return nil
	}
	ids := make([]int64, 0, len(orders))
	for _, o := range orders {
		ids = append(ids, o.ID)
	}

	query, args, err := sqlx.In(`SELECT l.id, l.order_id, l.variant_id, v.name AS variant_name, p.name AS product_name,
			l.quantity, l.unit_price, l.line_total
		FROM order_lines l
		JOIN variants v ON v.id = l.variant_id
		JOIN products p ON p.id = v.product_id
		WHERE l.order_id IN (?)
		ORDER BY l.id`, ids)
	if err != nil {
		return fmt.Errorf("failed to build order lines query: %w", err)
	}
	var lines []models.OrderLine
	if err := r.db.SelectContext(ctx, &lines, r.db.Rebind(query), args...); err != nil {
		return fmt.Errorf("failed to list order lines: %w", err)
	}

	byOrder := make(map[int64][]models.OrderLine, len(orders))
	for _, l := range lines {
		byOrder[l.OrderID] = append(byOrder[l.OrderID], l)
	}
	for i := range orders {
		orders[i].Lines = byOrder[orders[i].ID]
	}
	return nil
}
