package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/linemk/grocery-shop/internal/service"
)

var validate = validator.New()

// ErrorResponse тело ответа с ошибкой: машинный код и текст для клиента
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

type errorMapping struct {
	target error
	status int
	code   string
}

// serviceErrors ошибки сервиса и соответствующие им HTTP-статусы
var serviceErrors = []errorMapping{
	{service.ErrInvalidInput, http.StatusBadRequest, "INVALID_INPUT"},
	{service.ErrInvalidPaymentMethod, http.StatusBadRequest, "INVALID_PAYMENT_METHOD"},
	{service.ErrInvalidCredentials, http.StatusUnauthorized, "INVALID_CREDENTIALS"},
	{service.ErrNotOwner, http.StatusForbidden, "NOT_OWNER"},
	{service.ErrOrderNotFound, http.StatusNotFound, "ORDER_NOT_FOUND"},
	{service.ErrProductNotFound, http.StatusNotFound, "PRODUCT_NOT_FOUND"},
	{service.ErrAlreadyFinalized, http.StatusConflict, "ALREADY_FINALIZED"},
	{service.ErrConcurrentUpdate, http.StatusConflict, "CONCURRENT_UPDATE"},
	{service.ErrDuplicateRequest, http.StatusConflict, "DUPLICATE_REQUEST"},
	{service.ErrPhoneTaken, http.StatusConflict, "PHONE_TAKEN"},
	{service.ErrVariantNotFound, http.StatusUnprocessableEntity, "VARIANT_NOT_FOUND"},
	{service.ErrBelowMinimumOrder, http.StatusUnprocessableEntity, "BELOW_MINIMUM_ORDER"},
	{service.ErrDeliveryNotEligible, http.StatusUnprocessableEntity, "DELIVERY_NOT_ELIGIBLE"},
	{service.ErrInvalidZone, http.StatusUnprocessableEntity, "INVALID_ZONE"},
	{service.ErrInvalidTransition, http.StatusUnprocessableEntity, "INVALID_TRANSITION"},
}

// writeServiceError отвечает статусом по ошибке сервиса. Неизвестные ошибки - 500 без подробностей.
func writeServiceError(w http.ResponseWriter, logger *slog.Logger, err error) {
	for _, m := range serviceErrors {
		if errors.Is(err, m.target) {
			logger.Warn("request rejected", slog.String("code", m.code), slog.Any("error", err))
			writeError(w, m.status, m.code, m.target.Error())
			return
		}
	}
	logger.Error("internal error", slog.Any("error", err))
	writeError(w, http.StatusInternalServerError, "INTERNAL", "internal server error")
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{Error: code, Message: message})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// idParam разбирает {id} из пути chi
func idParam(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
