// internal/pkg/apperr/apperr.go
package apperr

import (
	"context"
	"errors"
	"net/http"
)

// Sentinel errors shared by all domain services. Handlers translate them to
// HTTP status codes with Status; services wrap them with fmt.Errorf("%w", ...)
// when extra context helps.
var (
	ErrUnauthorized      = errors.New("missing or invalid token")
	ErrForbidden         = errors.New("insufficient permissions")
	ErrNotFound          = errors.New("resource not found")
	ErrConflict          = errors.New("resource already exists")
	ErrInvalidQuantity   = errors.New("quantity must be at least 1")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrEmptyCart         = errors.New("cart is empty")
	ErrAlreadyApproved   = errors.New("product is already approved")
	ErrTimeout           = errors.New("operation timed out")
	ErrInternal          = errors.New("internal error")
)

// Status maps a service error to an HTTP status code.
func Status(err error) int {
	switch {
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrConflict):
		return http.StatusConflict
	case errors.Is(err, ErrInvalidQuantity),
		errors.Is(err, ErrInvalidTransition),
		errors.Is(err, ErrEmptyCart),
		errors.Is(err, ErrAlreadyApproved):
		return http.StatusBadRequest
	case errors.Is(err, ErrTimeout):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// FromContext converts a context cancellation into the taxonomy. Persistence
// calls bounded by a caller deadline surface as ErrTimeout, never as a partial
// commit; transactions roll back before this is returned.
func FromContext(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) || ctx.Err() != nil {
		return ErrTimeout
	}
	return err
}
