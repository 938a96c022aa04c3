package domain

import "errors"

// Workflow error kinds. Collaborator failures are wrapped into one of
// these at the workflow boundary so callers can branch with errors.Is
// without ever seeing a raw driver or transport error.
var (
	ErrInvalidInput         = errors.New("invalid input")
	ErrOrderNotFound        = errors.New("order not found")
	ErrValidationFailed     = errors.New("product validation failed")
	ErrPersistenceFailed    = errors.New("order persistence failed")
	ErrCatalogUnavailable   = errors.New("catalog service unavailable")
	ErrPaymentUnavailable   = errors.New("payment service unavailable")
	ErrPaymentSessionFailed = errors.New("payment session creation failed")
)
