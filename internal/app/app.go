package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/pkg/errors"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/linemk/grocery-shop/internal/cache"
	"github.com/linemk/grocery-shop/internal/config"
	"github.com/linemk/grocery-shop/internal/events"
	"github.com/linemk/grocery-shop/internal/lib/tracing"
	"github.com/linemk/grocery-shop/internal/service"
	"github.com/linemk/grocery-shop/internal/storage"
)

type App struct {
	Config *config.Config
	Logger *slog.Logger
	DB     *sqlx.DB

	AuthService     service.AuthServiceInterface
	CatalogService  service.CatalogService
	CheckoutService service.CheckoutService
	OrderService    service.OrderService
	ReportService   service.ReportService

	closers []func() error
}

// BuildDSN собирает строку подключения к postgres
func BuildDSN(db config.DatabaseConfig) string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		db.User,
		db.Password,
		db.Host,
		db.Port,
		db.Name,
	)
}

// NewApp создаёт новый экземпляр App: подключение к БД, репозитории и сервисы.
// Redis, Kafka и Jaeger подключаются, только если заданы в конфиге.
func NewApp(log *slog.Logger, cfg *config.Config) (*App, error) {
	db, err := sqlx.Open("postgres", BuildDSN(cfg.Database))
	if err != nil {
		return nil, errors.Wrap(err, "failed to open database")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "failed to ping database")
	}

	app := &App{
		Config: cfg,
		Logger: log,
		DB:     db,
	}
	app.closers = append(app.closers, db.Close)

	if cfg.Tracing.JaegerEndpoint != "" {
		tp, err := tracing.InitTracer(cfg.Tracing.ServiceName, cfg.Tracing.JaegerEndpoint)
		if err != nil {
			app.Close()
			return nil, errors.Wrap(err, "failed to init tracer")
		}
		app.closers = append(app.closers, func() error { return shutdownTracer(tp) })
		log.Info("tracing enabled", slog.String("endpoint", cfg.Tracing.JaegerEndpoint))
	}

	var checkoutOpts []service.CheckoutOption
	var orderEvents service.OrderEvents

	if cfg.Redis.Address != "" {
		rdb, err := cache.NewClient(cfg.Redis.Address, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			app.Close()
			return nil, errors.Wrap(err, "failed to connect to redis")
		}
		app.closers = append(app.closers, rdb.Close)
		checkoutOpts = append(checkoutOpts, service.WithIdempotency(cache.NewIdempotencyStore(rdb, cfg.Redis.IdempotencyTTL)))
		log.Info("idempotency keys enabled", slog.String("redis", cfg.Redis.Address))
	}

	if len(cfg.Kafka.Brokers) > 0 {
		publisher := events.NewPublisher(log, events.NewKafkaWriter(cfg.Kafka.Brokers, cfg.Kafka.Topic))
		app.closers = append(app.closers, publisher.Close)
		orderEvents = publisher
		checkoutOpts = append(checkoutOpts, service.WithEvents(publisher))
		log.Info("order events enabled", slog.String("topic", cfg.Kafka.Topic))
	}

	// реализация слоев по работе с БД по каждому направлению
	userRepo := storage.NewUserRepository(db.DB)
	catalogRepo := storage.NewCatalogRepository(db)
	zoneRepo := storage.NewZoneRepository(db)
	orderRepo := storage.NewOrderRepository(db)
	reportRepo := storage.NewReportRepository(db)

	prices := service.NewPriceResolver(log, catalogRepo)

	app.AuthService = service.NewAuthService(log, userRepo, cfg.JWT.Secret, time.Duration(cfg.JWT.TokenTTL)*time.Minute)
	app.CatalogService = service.NewCatalogService(log, catalogRepo, zoneRepo)
	app.CheckoutService = service.NewCheckoutService(log, db, prices, userRepo, zoneRepo, orderRepo, cfg.Checkout, checkoutOpts...)
	app.OrderService = service.NewOrderService(log, orderRepo, orderEvents)
	app.ReportService = service.NewReportService(log, reportRepo, nil)

	return app, nil
}

// Close закрывает подключения в обратном порядке
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.Logger.Error("failed to close resource", slog.Any("error", err))
		}
	}
	a.closers = nil
}

func shutdownTracer(tp *sdktrace.TracerProvider) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return tp.Shutdown(ctx)
}
