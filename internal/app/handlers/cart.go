package handlers

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/linemk/grocery-shop/internal/domain/models"
	"github.com/linemk/grocery-shop/internal/jwt-new/jwtmiddleware"
	"github.com/linemk/grocery-shop/internal/service"
)

// flexInt принимает число или строку. Дробная часть отбрасывается ("5.5" -> 5),
// у строки берётся ведущее целое ("12pcs" -> 12). Всё остальное превращается в 0,
// такая строка корзины потом пропускается как некорректная.
type flexInt int64

func (f *flexInt) UnmarshalJSON(b []byte) error {
	*f = 0
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		return nil
	}

	// строка: ведущее целое со знаком
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return nil
		}
		*f = flexInt(leadingInt(strings.TrimSpace(s)))
		return nil
	}

	if v, err := strconv.ParseInt(string(b), 10, 64); err == nil {
		*f = flexInt(v)
		return nil
	}
	// дробное число: отбрасываем дробную часть
	if v, err := strconv.ParseFloat(string(b), 64); err == nil && math.Abs(v) < math.MaxInt32+1 {
		*f = flexInt(math.Trunc(v))
	}
	return nil
}

func leadingInt(s string) int64 {
	end := 0
	if end < len(s) && (s[end] == '-' || s[end] == '+') {
		end++
	}
	digits := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digits {
		return 0
	}
	v, err := strconv.ParseInt(s[:end], 10, 64)
	if err != nil {
		return 0
	}
	return v
}

// QuoteItemRequest строка корзины от витрины: количество приходит как quantity или qty
type QuoteItemRequest struct {
	VariantID flexInt  `json:"variantId"`
	Quantity  *flexInt `json:"quantity"`
	Qty       *flexInt `json:"qty"`
}

type QuoteRequest struct {
	Items []QuoteItemRequest `json:"items"`
}

func (r QuoteItemRequest) toCartLine() models.CartLine {
	// quantity, а если он пустой или 0 - qty
	var qty flexInt
	if r.Quantity != nil {
		qty = *r.Quantity
	}
	if qty == 0 && r.Qty != nil {
		qty = *r.Qty
	}
	if qty > math.MaxInt32 || qty < math.MinInt32 {
		qty = 0
	}
	return models.CartLine{VariantID: int64(r.VariantID), Quantity: int(qty)}
}

// QuoteCartHandler POST /api/cart/calculate
func QuoteCartHandler(log *slog.Logger, checkout service.CheckoutService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.QuoteCartHandler"
		logger := log.With(slog.String("op", op))

		// Извлекаем userID из контекста (установленный JWT middleware)
		userID, ok := jwtmiddleware.FromContext(r.Context())
		if !ok {
			logger.Error("userID not found in context")
			writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "unauthorized")
			return
		}

		// Декодируем корзину, кривые строки не ломают весь запрос
		var req QuoteRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			logger.Error("invalid request: decoding error", slog.Any("error", err))
			writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "invalid request")
			return
		}

		lines := make([]models.CartLine, 0, len(req.Items))
		for _, item := range req.Items {
			lines = append(lines, item.toCartLine())
		}

		// Вызываем бизнес-логику расчёта корзины
		quote, err := checkout.QuoteCart(r.Context(), userID, lines)
		if err != nil {
			writeServiceError(w, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, quote)
	}
}
