package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/linemk/grocery-shop/internal/app"
	"github.com/linemk/grocery-shop/internal/app/handlers"
	"github.com/linemk/grocery-shop/internal/config"
	"github.com/linemk/grocery-shop/internal/jwt-new/jwtmiddleware"
	"github.com/linemk/grocery-shop/internal/lib/logger"
	"github.com/linemk/grocery-shop/internal/lib/logger/handlers/urllog"
	"github.com/linemk/grocery-shop/internal/lib/metrics"
)

func main() {
	// загрузка конфигурации
	cfg := config.MustLoad()

	// инициализация логгера, зависит от настройки окружения
	log := logger.SetupLogger(cfg.Env)
	log.Info("starting app", slog.String("env", cfg.Env))

	// БД, Redis, Kafka и сервисы
	application, err := app.NewApp(log, cfg)
	if err != nil {
		log.Error("failed to initialize app", slog.Any("error", err))
		panic(errors.Wrap(err, "failed to initialize app"))
	}
	defer application.Close()

	router := newRouter(application)

	srv := &http.Server{
		Addr:         cfg.HTTPServer.Address,
		Handler:      router,
		ReadTimeout:  cfg.HTTPServer.Timeout,
		WriteTimeout: cfg.HTTPServer.Timeout,
		IdleTimeout:  cfg.HTTPServer.IdleTimeout,
	}

	go func() {
		log.Info("starting server", slog.String("address", cfg.HTTPServer.Address))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", slog.Any("error", err))
		}
	}()

	// graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	stopSign := <-stop
	log.Info("received shutdown signal", slog.String("signal", stopSign.String()))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("server shutdown failed", slog.Any("error", err))
	}
	log.Info("server gracefully stopped")
}

func newRouter(a *app.App) http.Handler {
	log := a.Logger

	router := chi.NewRouter()
	// настройка middleware
	router.Use(middleware.RequestID)
	router.Use(urllog.CustomLoggerMiddleware(log))
	router.Use(middleware.Recoverer)
	router.Use(middleware.URLFormat)
	router.Use(metrics.Middleware)

	router.Get("/health", handlers.HealthHandler)
	router.Handle("/metrics", promhttp.Handler())

	// регистрация и вход
	router.Post("/api/auth/register", handlers.RegisterHandler(log, a.AuthService))
	router.Post("/api/auth/login", handlers.AuthHandler(log, a.AuthService))

	// каталог открыт без токена
	router.Get("/api/products", handlers.ProductsHandler(log, a.CatalogService))
	router.Get("/api/products/{id}", handlers.ProductHandler(log, a.CatalogService))
	router.Get("/api/categories", handlers.CategoriesHandler(log, a.CatalogService))
	router.Get("/api/zones", handlers.ZonesHandler(log, a.CatalogService))

	router.Group(func(r chi.Router) {
		r.Use(jwtmiddleware.NewJWTMiddleware(a.Config.JWT.Secret))

		r.Post("/api/cart/calculate", handlers.QuoteCartHandler(log, a.CheckoutService))
		r.Post("/api/orders", handlers.CreateOrderHandler(log, a.CheckoutService))
		r.Get("/api/orders", handlers.MyOrdersHandler(log, a.OrderService))
		r.Get("/api/orders/{id}", handlers.OrderHandler(log, a.OrderService))
		r.Post("/api/orders/{id}/cancel", handlers.CancelOrderHandler(log, a.OrderService))

		r.Group(func(r chi.Router) {
			r.Use(jwtmiddleware.RequireAdmin)

			r.Get("/api/admin/orders", handlers.AdminOrdersHandler(log, a.OrderService))
			r.Patch("/api/admin/orders/{id}", handlers.UpdateOrderStatusHandler(log, a.OrderService))
			r.Get("/api/admin/dashboard-stats", handlers.DashboardStatsHandler(log, a.ReportService))
		})
	})

	return router
}
