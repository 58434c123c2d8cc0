package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/linemk/grocery-shop/internal/config"
	"github.com/linemk/grocery-shop/internal/domain/models"
	"github.com/linemk/grocery-shop/internal/lib/metrics"
	"github.com/linemk/grocery-shop/internal/lib/tracing"
	"github.com/linemk/grocery-shop/internal/storage"
)

// OrderEvents публикация событий заказа, реализуется events.Publisher
type OrderEvents interface {
	OrderCreated(ctx context.Context, order *models.Order) error
	OrderCancelled(ctx context.Context, order *models.Order, reason string) error
	OrderStatusChanged(ctx context.Context, order *models.Order, from models.OrderStatus) error
}

// IdempotencyStore реализуется cache.IdempotencyStore
type IdempotencyStore interface {
	Reserve(ctx context.Context, key string) (bool, error)
	Result(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, result []byte) error
	Release(ctx context.Context, key string) error
}

type CheckoutService interface {
	QuoteCart(ctx context.Context, userID int64, lines []models.CartLine) (*CartQuote, error)
	CreateOrder(ctx context.Context, userID int64, in CreateOrderInput) (*CreateOrderResult, error)
}

// CartQuote предварительный расчёт корзины. Ничего не сохраняется.
type CartQuote struct {
	Subtotal             int64                    `json:"subtotal"`
	ShippingCost         int64                    `json:"shippingCost"`
	GrandTotal           int64                    `json:"grandTotal"`
	CanCheckout          bool                     `json:"canCheckout"`
	AvailableFulfillment []models.FulfillmentType `json:"availableFulfillment"`
	AvailablePayments    []models.PaymentMethod   `json:"availablePayments"`
	IsFreeShipping       bool                     `json:"isFreeShipping"`
	Lines                []QuoteLine              `json:"lines"`
	SkippedLines         int                      `json:"skippedLines"`
	Messages             QuoteMessages            `json:"messages"`
}

type QuoteLine struct {
	VariantID int64 `json:"variantId"`
	Quantity  int   `json:"quantity"`
	UnitPrice int64 `json:"unitPrice"`
	LineTotal int64 `json:"lineTotal"`
}

type QuoteMessages struct {
	Error string `json:"error,omitempty"`
	Info  string `json:"info,omitempty"`
}

type CreateOrderInput struct {
	Items              []models.CartLine
	FulfillmentType    models.FulfillmentType
	ZoneID             *int64
	DestinationAddress *string
	RecipientName      *string
	PaymentMethod      models.PaymentMethod
	PaymentProofRef    *string
	IdempotencyKey     string
}

type CreateOrderResult struct {
	OrderID       int64  `json:"orderId"`
	InvoiceNumber string `json:"invoiceNumber"`
}

type checkoutService struct {
	log       *slog.Logger
	db        TxBeginner
	prices    PriceResolver
	userRepo  storage.UserStorage
	zoneRepo  storage.ZoneStorage
	orderRepo storage.OrderStorage
	cfg       config.CheckoutConfig
	events    OrderEvents
	idem      IdempotencyStore
	now       func() time.Time
}

type CheckoutOption func(*checkoutService)

// WithEvents включает публикацию событий после коммита
func WithEvents(events OrderEvents) CheckoutOption {
	return func(s *checkoutService) { s.events = events }
}

func WithIdempotency(store IdempotencyStore) CheckoutOption {
	return func(s *checkoutService) { s.idem = store }
}

// WithClock подменяет часы, от них зависит дата в номере счёта
func WithClock(now func() time.Time) CheckoutOption {
	return func(s *checkoutService) { s.now = now }
}

func NewCheckoutService(
	log *slog.Logger,
	db TxBeginner,
	prices PriceResolver,
	userRepo storage.UserStorage,
	zoneRepo storage.ZoneStorage,
	orderRepo storage.OrderStorage,
	cfg config.CheckoutConfig,
	opts ...CheckoutOption,
) CheckoutService {
	s := &checkoutService{
		log:       log,
		db:        db,
		prices:    prices,
		userRepo:  userRepo,
		zoneRepo:  zoneRepo,
		orderRepo: orderRepo,
		cfg:       cfg,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// QuoteCart считает корзину для витрины. Неизвестные варианты и битые строки пропускаются,
// отсутствие пользователя не ошибка - он просто считается не VIP.
func (s *checkoutService) QuoteCart(ctx context.Context, userID int64, lines []models.CartLine) (*CartQuote, error) {
	const op = "service.CheckoutService.QuoteCart"
	logger := s.log.With(slog.String("op", op), slog.Int64("userID", userID))

	ctx, span := tracing.StartSpan(ctx, op)
	defer span.End()

	quote := &CartQuote{
		Lines:             make([]QuoteLine, 0, len(lines)),
		AvailablePayments: []models.PaymentMethod{models.PaymentTransfer, models.PaymentCOD},
	}

	for _, line := range lines {
		price, err := s.prices.ResolvePrice(ctx, line.VariantID, line.Quantity)
		if err != nil {
			if errors.Is(err, ErrInvalidInput) || errors.Is(err, ErrVariantNotFound) {
				logger.Warn("skipping cart line", slog.Int64("variantID", line.VariantID), slog.Int("quantity", line.Quantity), slog.Any("error", err))
				quote.SkippedLines++
				continue
			}
			logger.Error("failed to resolve price", slog.Any("error", err))
			tracing.RecordError(span, err)
			return nil, fmt.Errorf("%s: failed to resolve price: %w", op, err)
		}

		// строка, переполняющая сумму, пропускается как некорректная
		lineTotal, err := LineTotal(price, line.Quantity)
		if err != nil || quote.Subtotal > math.MaxInt64-lineTotal-s.cfg.DefaultDeliveryFee {
			logger.Warn("skipping cart line: total overflow", slog.Int64("variantID", line.VariantID), slog.Int("quantity", line.Quantity))
			quote.SkippedLines++
			continue
		}
		quote.Subtotal += lineTotal
		quote.Lines = append(quote.Lines, QuoteLine{
			VariantID: line.VariantID,
			Quantity:  line.Quantity,
			UnitPrice: price,
			LineTotal: lineTotal,
		})
	}

	isVIP := s.isVIP(ctx, logger, userID)

	quote.CanCheckout = quote.Subtotal >= s.cfg.MinOrder
	quote.AvailableFulfillment = []models.FulfillmentType{models.FulfillmentPickup}
	if quote.Subtotal >= s.cfg.MinDelivery {
		quote.AvailableFulfillment = append(quote.AvailableFulfillment, models.FulfillmentDelivery)
	}

	quote.IsFreeShipping = isVIP
	if !isVIP {
		quote.ShippingCost = s.cfg.DefaultDeliveryFee
	}
	quote.GrandTotal = quote.Subtotal + quote.ShippingCost

	if !quote.CanCheckout {
		quote.Messages.Error = "minimum order is " + FormatRupiah(s.cfg.MinOrder)
	}
	var info []string
	if isVIP {
		info = append(info, "VIP member: free delivery")
	}
	if quote.Subtotal < s.cfg.MinDelivery {
		info = append(info, fmt.Sprintf("add %s more to unlock delivery", FormatRupiah(s.cfg.MinDelivery-quote.Subtotal)))
	}
	quote.Messages.Info = strings.Join(info, ". ")

	metrics.CartQuotesTotal.Inc()
	logger.Debug("cart quoted", slog.Int64("subtotal", quote.Subtotal), slog.Int("skipped", quote.SkippedLines))
	return quote, nil
}

// CreateOrder оформляет заказ. С ключом идемпотентности повторный запрос
// получает сохранённый результат вместо второго заказа.
func (s *checkoutService) CreateOrder(ctx context.Context, userID int64, in CreateOrderInput) (*CreateOrderResult, error) {
	const op = "service.CheckoutService.CreateOrder"
	logger := s.log.With(slog.String("op", op), slog.Int64("userID", userID))

	if in.IdempotencyKey == "" || s.idem == nil {
		return s.createOrder(ctx, logger, userID, in)
	}

	key := strconv.FormatInt(userID, 10) + ":" + in.IdempotencyKey
	reserved, err := s.idem.Reserve(ctx, key)
	if err != nil {
		logger.Warn("idempotency store unavailable, proceeding without it", slog.Any("error", err))
		return s.createOrder(ctx, logger, userID, in)
	}
	if !reserved {
		data, err := s.idem.Result(ctx, key)
		if err != nil || data == nil {
			logger.Warn("duplicate request in flight", slog.String("key", in.IdempotencyKey))
			return nil, fmt.Errorf("%s: %w", op, ErrDuplicateRequest)
		}
		var res CreateOrderResult
		if err := json.Unmarshal(data, &res); err != nil {
			logger.Error("failed to decode stored result", slog.Any("error", err))
			return nil, fmt.Errorf("%s: %w", op, ErrDuplicateRequest)
		}
		logger.Info("replaying stored order result", slog.Int64("orderID", res.OrderID))
		return &res, nil
	}

	res, err := s.createOrder(ctx, logger, userID, in)
	if err != nil {
		if relErr := s.idem.Release(ctx, key); relErr != nil {
			logger.Error("failed to release idempotency key", slog.Any("error", relErr))
		}
		return nil, err
	}

	data, err := json.Marshal(res)
	if err == nil {
		err = s.idem.Save(ctx, key, data)
	}
	if err != nil {
		logger.Error("failed to save idempotency result", slog.Any("error", err))
	}
	return res, nil
}

func (s *checkoutService) createOrder(ctx context.Context, logger *slog.Logger, userID int64, in CreateOrderInput) (*CreateOrderResult, error) {
	ctx, span := tracing.StartSpan(ctx, "service.CheckoutService.CreateOrder")
	defer span.End()

	res, err := s.placeOrder(ctx, logger, userID, in)
	if err != nil {
		tracing.RecordError(span, err)
	}
	return res, err
}

func (s *checkoutService) placeOrder(ctx context.Context, logger *slog.Logger, userID int64, in CreateOrderInput) (*CreateOrderResult, error) {
	const op = "service.CheckoutService.CreateOrder"

	if len(in.Items) == 0 {
		return nil, s.reject(logger, op, "empty_cart", ErrInvalidInput)
	}

	// цены берутся только из каталога, любые суммы от клиента игнорируются
	lines := make([]models.OrderLine, 0, len(in.Items))
	var subtotal int64
	for _, item := range in.Items {
		price, err := s.prices.ResolvePrice(ctx, item.VariantID, item.Quantity)
		if err != nil {
			switch {
			case errors.Is(err, ErrVariantNotFound):
				return nil, s.reject(logger, op, "unknown_variant", err)
			case errors.Is(err, ErrInvalidInput):
				return nil, s.reject(logger, op, "invalid_line", err)
			}
			logger.Error("failed to resolve price", slog.Any("error", err))
			return nil, fmt.Errorf("%s: failed to resolve price: %w", op, err)
		}
		// суммы не должны переполнять int64
		lineTotal, err := LineTotal(price, item.Quantity)
		if err != nil {
			return nil, s.reject(logger, op, "invalid_line", err)
		}
		if subtotal > math.MaxInt64-lineTotal {
			return nil, s.reject(logger, op, "invalid_line", fmt.Errorf("subtotal overflow: %w", ErrInvalidInput))
		}
		subtotal += lineTotal
		lines = append(lines, models.OrderLine{
			VariantID: item.VariantID,
			Quantity:  item.Quantity,
			UnitPrice: price,
			LineTotal: lineTotal,
		})
	}

	// Проверяем минимальную сумму заказа
	if subtotal < s.cfg.MinOrder {
		return nil, s.reject(logger, op, "below_minimum", ErrBelowMinimumOrder)
	}
	if !in.PaymentMethod.Valid() {
		return nil, s.reject(logger, op, "invalid_payment", ErrInvalidPaymentMethod)
	}
	if !in.FulfillmentType.Valid() {
		return nil, s.reject(logger, op, "invalid_fulfillment", ErrInvalidInput)
	}

	// Доставка: порог, зона и тариф
	var deliveryFee int64
	if in.FulfillmentType == models.FulfillmentDelivery {
		if subtotal < s.cfg.MinDelivery {
			return nil, s.reject(logger, op, "delivery_not_eligible", ErrDeliveryNotEligible)
		}
		if in.ZoneID == nil || *in.ZoneID <= 0 {
			return nil, s.reject(logger, op, "invalid_zone", ErrInvalidZone)
		}
		zone, err := s.zoneRepo.GetZone(ctx, *in.ZoneID)
		if err != nil {
			if errors.Is(err, storage.ErrZoneNotFound) {
				return nil, s.reject(logger, op, "invalid_zone", ErrInvalidZone)
			}
			logger.Error("failed to get zone", slog.Any("error", err))
			return nil, fmt.Errorf("%s: failed to get zone: %w", op, err)
		}
		deliveryFee = zone.Fee
		if s.isVIP(ctx, logger, userID) {
			deliveryFee = 0
		}
		if subtotal > math.MaxInt64-deliveryFee {
			return nil, s.reject(logger, op, "invalid_line", fmt.Errorf("total overflow: %w", ErrInvalidInput))
		}
	}

	order := &models.Order{
		UserID:             userID,
		FulfillmentType:    in.FulfillmentType,
		PaymentMethod:      in.PaymentMethod,
		PaymentProofRef:    in.PaymentProofRef,
		DestinationAddress: in.DestinationAddress,
		RecipientName:      in.RecipientName,
		Subtotal:           subtotal,
		DeliveryFee:        deliveryFee,
		Total:              subtotal + deliveryFee,
		Status:             models.StatusPending,
	}
	if in.FulfillmentType == models.FulfillmentDelivery {
		order.ZoneID = in.ZoneID
	}

	// Номер счёта, шапка и строки заказа в одной транзакции
	err := withTx(ctx, s.db, logger, func(tx *sql.Tx) error {
		seq, err := s.orderRepo.NextInvoiceSeq(ctx, tx)
		if err != nil {
			return err
		}
		order.InvoiceNumber = FormatInvoiceNumber(s.now(), seq)

		order.ID, err = s.orderRepo.CreateOrder(ctx, tx, order)
		if err != nil {
			return err
		}
		for i := range lines {
			lines[i].OrderID = order.ID
			if err := s.orderRepo.CreateOrderLine(ctx, tx, &lines[i]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		logger.Error("failed to persist order", slog.Any("error", err))
		metrics.OrdersRejectedTotal.WithLabelValues("persistence").Inc()
		return nil, fmt.Errorf("%s: %w: %v", op, ErrPersistenceFailure, err)
	}
	order.Lines = lines

	metrics.OrdersCreatedTotal.Inc()
	// Публикуем событие после коммита
	if s.events != nil {
		if err := s.events.OrderCreated(ctx, order); err != nil {
			logger.Error("failed to publish order created event", slog.Int64("orderID", order.ID), slog.Any("error", err))
		}
	}

	logger.Info("order created",
		slog.Int64("orderID", order.ID),
		slog.String("invoice", order.InvoiceNumber),
		slog.Int64("total", order.Total),
	)
	return &CreateOrderResult{OrderID: order.ID, InvoiceNumber: order.InvoiceNumber}, nil
}

// reject считает отказ в метрике и оборачивает ошибку
func (s *checkoutService) reject(logger *slog.Logger, op, reason string, err error) error {
	metrics.OrdersRejectedTotal.WithLabelValues(reason).Inc()
	logger.Warn("order rejected", slog.String("reason", reason), slog.Any("error", err))
	return fmt.Errorf("%s: %w", op, err)
}

func (s *checkoutService) isVIP(ctx context.Context, logger *slog.Logger, userID int64) bool {
	user, err := s.userRepo.GetUserByID(ctx, userID)
	if err != nil {
		logger.Warn("failed to get user, treating as non-VIP", slog.Any("error", err))
		return false
	}
	return user.IsVIP
}

// FormatInvoiceNumber INV-YYYYMMDD-NNNNNN
func FormatInvoiceNumber(date time.Time, seq int64) string {
	return fmt.Sprintf("INV-%s-%06d", date.Format("20060102"), seq)
}

// FormatRupiah 250000 -> "Rp 250.000"
func FormatRupiah(amount int64) string {
	sign := ""
	if amount < 0 {
		sign = "-"
		amount = -amount
	}
	digits := strconv.FormatInt(amount, 10)
	var b strings.Builder
	for i, d := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(d)
	}
	return "Rp " + sign + b.String()
}
