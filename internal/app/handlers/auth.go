package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/linemk/grocery-shop/internal/service"
)

// RegisterRequest регистрация по номеру WhatsApp
type RegisterRequest struct {
	FullName string `json:"fullName" validate:"required,max=200"`
	Phone    string `json:"phone" validate:"required,numeric,min=8,max=20"`
	Password string `json:"password" validate:"required,min=8"`
}

type RegisterResponse struct {
	ID       int64  `json:"id"`
	FullName string `json:"fullName"`
	Phone    string `json:"phone"`
	Role     string `json:"role"`
}

// AuthRequest представляет структуру запроса для аутентификации с тегами валидации
type AuthRequest struct {
	Phone    string `json:"phone" validate:"required"`
	Password string `json:"password" validate:"required,min=8"`
}

// AuthResponse представляет структуру ответа с JWT-токеном
type AuthResponse struct {
	Token string `json:"token"`
}

func RegisterHandler(log *slog.Logger, authService service.AuthServiceInterface) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.RegisterHandler"
		logger := log.With(slog.String("op", op))

		var req RegisterRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			logger.Error("invalid request: decoding error", slog.Any("error", err))
			writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "invalid request")
			return
		}
		if err := validate.Struct(req); err != nil {
			logger.Error("invalid request: validation error", slog.Any("error", err))
			writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
			return
		}

		// Вызываем бизнес-логику регистрации
		user, err := authService.Register(r.Context(), req.FullName, req.Phone, req.Password)
		if err != nil {
			writeServiceError(w, logger, err)
			return
		}

		writeJSON(w, http.StatusCreated, RegisterResponse{
			ID:       user.ID,
			FullName: user.FullName,
			Phone:    user.Phone,
			Role:     user.Role,
		})
	}
}

// AuthHandler – HTTP-обработчик для входа, принимает логгер и экземпляр AuthService
func AuthHandler(log *slog.Logger, authService service.AuthServiceInterface) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.AuthHandler"
		logger := log.With(slog.String("op", op))

		var req AuthRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			logger.Error("invalid request: decoding error", slog.Any("error", err))
			writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "invalid request")
			return
		}

		// Валидация структуры запроса с использованием validator
		if err := validate.Struct(req); err != nil {
			logger.Error("invalid request: validation error", slog.Any("error", err))
			writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
			return
		}

		// Вызываем бизнес-логику для входа
		token, err := authService.Login(r.Context(), req.Phone, req.Password)
		if err != nil {
			writeServiceError(w, logger, err)
			return
		}

		writeJSON(w, http.StatusOK, AuthResponse{Token: token})
	}
}
