package service

import "errors"

// Ошибки бизнес-правил. Транспортный слой сопоставляет их с HTTP-статусами через errors.Is.
var (
	ErrInvalidInput         = errors.New("invalid input")
	ErrVariantNotFound      = errors.New("variant not found")
	ErrBelowMinimumOrder    = errors.New("order subtotal is below the minimum order amount")
	ErrInvalidPaymentMethod = errors.New("invalid payment method")
	ErrDeliveryNotEligible  = errors.New("order subtotal is below the delivery threshold")
	ErrInvalidZone          = errors.New("invalid shipping zone")
	ErrPersistenceFailure   = errors.New("failed to persist order")
	ErrDuplicateRequest     = errors.New("request with this idempotency key is already in progress")

	ErrOrderNotFound     = errors.New("order not found")
	ErrNotOwner          = errors.New("order belongs to another user")
	ErrAlreadyFinalized  = errors.New("order can no longer be cancelled")
	ErrInvalidTransition = errors.New("invalid order status transition")
	ErrConcurrentUpdate  = errors.New("order was modified concurrently")

	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrPhoneTaken         = errors.New("phone number already registered")
	ErrProductNotFound    = errors.New("product not found")
)
