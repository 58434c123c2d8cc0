package handlers

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/linemk/grocery-shop/internal/service"
	"github.com/linemk/grocery-shop/internal/storage"
)

// ProductsHandler GET /api/products?category=&search=&showAll=true
func ProductsHandler(log *slog.Logger, catalog service.CatalogService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.ProductsHandler"
		logger := log.With(slog.String("op", op))

		q := r.URL.Query()
		filter := storage.ProductFilter{
			Search:  strings.TrimSpace(q.Get("search")),
			ShowAll: q.Get("showAll") == "true",
		}
		if c := q.Get("category"); c != "" {
			categoryID, err := strconv.ParseInt(c, 10, 64)
			if err != nil {
				writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "invalid category")
				return
			}
			filter.CategoryID = &categoryID
		}

		products, err := catalog.ListProducts(r.Context(), filter)
		if err != nil {
			writeServiceError(w, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, products)
	}
}

func ProductHandler(log *slog.Logger, catalog service.CatalogService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.ProductHandler"
		logger := log.With(slog.String("op", op))

		id, ok := idParam(r)
		if !ok {
			writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "invalid product id")
			return
		}

		product, err := catalog.GetProduct(r.Context(), id)
		if err != nil {
			writeServiceError(w, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, product)
	}
}

func CategoriesHandler(log *slog.Logger, catalog service.CatalogService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := log.With(slog.String("op", "handlers.CategoriesHandler"))

		categories, err := catalog.ListCategories(r.Context())
		if err != nil {
			writeServiceError(w, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, categories)
	}
}

func ZonesHandler(log *slog.Logger, catalog service.CatalogService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := log.With(slog.String("op", "handlers.ZonesHandler"))

		zones, err := catalog.ListZones(r.Context())
		if err != nil {
			writeServiceError(w, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, zones)
	}
}

func HealthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
