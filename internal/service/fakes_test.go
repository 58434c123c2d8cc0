package service_test

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/linemk/grocery-shop/internal/domain/models"
	"github.com/linemk/grocery-shop/internal/service"
	"github.com/linemk/grocery-shop/internal/storage"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, nil))
}

type fakeUserRepo struct {
	users map[string]*models.User // ключ - телефон
	err   error
}

var _ storage.UserStorage = (*fakeUserRepo)(nil)

func newFakeUserRepo(users ...*models.User) *fakeUserRepo {
	f := &fakeUserRepo{users: make(map[string]*models.User)}
	for _, u := range users {
		f.users[u.Phone] = u
	}
	return f
}

func (f *fakeUserRepo) GetUserByPhone(ctx context.Context, phone string) (*models.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	user, ok := f.users[phone]
	if !ok {
		return nil, storage.ErrUserNotFound
	}
	return user, nil
}

func (f *fakeUserRepo) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	for _, u := range f.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, storage.ErrUserNotFound
}

func (f *fakeUserRepo) CreateUser(ctx context.Context, user *models.User) (*models.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	if _, ok := f.users[user.Phone]; ok {
		return nil, storage.ErrUserExists
	}
	user.ID = int64(len(f.users) + 1)
	f.users[user.Phone] = user
	return user, nil
}

type fakeCatalogRepo struct {
	variants map[int64]*models.Variant
	rules    map[int64][]models.WholesaleRule
	products map[int64]*models.Product
	err      error
}

var _ storage.CatalogStorage = (*fakeCatalogRepo)(nil)

func newFakeCatalogRepo() *fakeCatalogRepo {
	return &fakeCatalogRepo{
		variants: make(map[int64]*models.Variant),
		rules:    make(map[int64][]models.WholesaleRule),
		products: make(map[int64]*models.Product),
	}
}

func (f *fakeCatalogRepo) addVariant(id, price int64, rules ...models.WholesaleRule) {
	f.variants[id] = &models.Variant{ID: id, ProductID: 1, Name: "Pcs", Price: price}
	f.rules[id] = rules
}

func (f *fakeCatalogRepo) ListCategories(ctx context.Context) ([]models.Category, error) {
	return []models.Category{{ID: 1, Name: "Mie"}}, f.err
}

func (f *fakeCatalogRepo) ListProducts(ctx context.Context, filter storage.ProductFilter) ([]models.Product, error) {
	if f.err != nil {
		return nil, f.err
	}
	var products []models.Product
	for _, p := range f.products {
		if !filter.ShowAll && !p.Active {
			continue
		}
		products = append(products, *p)
	}
	return products, nil
}

func (f *fakeCatalogRepo) GetProduct(ctx context.Context, id int64) (*models.Product, error) {
	if f.err != nil {
		return nil, f.err
	}
	p, ok := f.products[id]
	if !ok {
		return nil, storage.ErrProductNotFound
	}
	return p, nil
}

func (f *fakeCatalogRepo) GetVariant(ctx context.Context, id int64) (*models.Variant, error) {
	if f.err != nil {
		return nil, f.err
	}
	v, ok := f.variants[id]
	if !ok {
		return nil, storage.ErrVariantNotFound
	}
	return v, nil
}

func (f *fakeCatalogRepo) GetWholesaleRules(ctx context.Context, variantID int64) ([]models.WholesaleRule, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.rules[variantID], nil
}

type fakeZoneRepo struct {
	zones map[int64]*models.ShippingZone
}

var _ storage.ZoneStorage = (*fakeZoneRepo)(nil)

func (f *fakeZoneRepo) ListZones(ctx context.Context) ([]models.ShippingZone, error) {
	var zones []models.ShippingZone
	for _, z := range f.zones {
		zones = append(zones, *z)
	}
	return zones, nil
}

func (f *fakeZoneRepo) GetZone(ctx context.Context, id int64) (*models.ShippingZone, error) {
	z, ok := f.zones[id]
	if !ok {
		return nil, storage.ErrZoneNotFound
	}
	return z, nil
}

type fakeOrderRepo struct {
	mu            sync.Mutex
	orders        map[int64]*models.Order
	nextSeq       int64
	lineErr       error
	forceConflict bool
	updates       []storage.StatusUpdate
}

var _ storage.OrderStorage = (*fakeOrderRepo)(nil)

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{orders: make(map[int64]*models.Order), nextSeq: 41}
}

func (f *fakeOrderRepo) NextInvoiceSeq(ctx context.Context, tx *sql.Tx) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextSeq++
	return f.nextSeq, nil
}

func (f *fakeOrderRepo) CreateOrder(ctx context.Context, tx *sql.Tx, order *models.Order) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := int64(len(f.orders) + 1)
	stored := *order
	stored.ID = id
	f.orders[id] = &stored
	return id, nil
}

func (f *fakeOrderRepo) CreateOrderLine(ctx context.Context, tx *sql.Tx, line *models.OrderLine) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.lineErr != nil {
		return f.lineErr
	}
	order := f.orders[line.OrderID]
	order.Lines = append(order.Lines, *line)
	return nil
}

func (f *fakeOrderRepo) GetOrder(ctx context.Context, id int64) (*models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	order, ok := f.orders[id]
	if !ok {
		return nil, storage.ErrOrderNotFound
	}
	cp := *order
	return &cp, nil
}

func (f *fakeOrderRepo) ListOrdersByUser(ctx context.Context, userID int64) ([]models.Order, error) {
	var orders []models.Order
	for _, o := range f.orders {
		if o.UserID == userID {
			orders = append(orders, *o)
		}
	}
	return orders, nil
}

func (f *fakeOrderRepo) ListOrders(ctx context.Context, status *models.OrderStatus) ([]models.Order, error) {
	var orders []models.Order
	for _, o := range f.orders {
		if status == nil || o.Status == *status {
			orders = append(orders, *o)
		}
	}
	return orders, nil
}

// UpdateStatus повторяет условную запись: статус меняется, только если он всё ещё upd.From
func (f *fakeOrderRepo) UpdateStatus(ctx context.Context, upd storage.StatusUpdate) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	order, ok := f.orders[upd.OrderID]
	if !ok || f.forceConflict || order.Status != upd.From {
		return storage.ErrStatusConflict
	}
	order.Status = upd.To
	if upd.AdminNote != nil {
		order.AdminNote = upd.AdminNote
	}
	if upd.CancelReason != nil {
		order.CancelReason = upd.CancelReason
	}
	f.updates = append(f.updates, upd)
	return nil
}

type fakeEvents struct {
	created   []*models.Order
	cancelled []string
	changed   []models.OrderStatus
	err       error
}

var _ service.OrderEvents = (*fakeEvents)(nil)

func (f *fakeEvents) OrderCreated(ctx context.Context, order *models.Order) error {
	f.created = append(f.created, order)
	return f.err
}

func (f *fakeEvents) OrderCancelled(ctx context.Context, order *models.Order, reason string) error {
	f.cancelled = append(f.cancelled, reason)
	return f.err
}

func (f *fakeEvents) OrderStatusChanged(ctx context.Context, order *models.Order, from models.OrderStatus) error {
	f.changed = append(f.changed, order.Status)
	return f.err
}

type fakeIdempotencyStore struct {
	values     map[string][]byte
	reserveErr error
	released   []string
}

var _ service.IdempotencyStore = (*fakeIdempotencyStore)(nil)

func newFakeIdempotencyStore() *fakeIdempotencyStore {
	return &fakeIdempotencyStore{values: make(map[string][]byte)}
}

func (f *fakeIdempotencyStore) Reserve(ctx context.Context, key string) (bool, error) {
	if f.reserveErr != nil {
		return false, f.reserveErr
	}
	if _, ok := f.values[key]; ok {
		return false, nil
	}
	f.values[key] = nil
	return true, nil
}

func (f *fakeIdempotencyStore) Result(ctx context.Context, key string) ([]byte, error) {
	return f.values[key], nil
}

func (f *fakeIdempotencyStore) Save(ctx context.Context, key string, result []byte) error {
	f.values[key] = result
	return nil
}

func (f *fakeIdempotencyStore) Release(ctx context.Context, key string) error {
	delete(f.values, key)
	f.released = append(f.released, key)
	return nil
}

type fakeReportRepo struct {
	revenue map[time.Time]int64
	counts  map[models.OrderStatus]int
	err     error
}

var _ storage.ReportStorage = (*fakeReportRepo)(nil)

func (f *fakeReportRepo) CompletedRevenueSince(ctx context.Context, from time.Time) (int64, error) {
	if f.err != nil {
		return 0, f.err
	}
	return f.revenue[from], nil
}

func (f *fakeReportRepo) CountByStatus(ctx context.Context) (map[models.OrderStatus]int, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.counts, nil
}

var errDBDown = errors.New("connection refused")
