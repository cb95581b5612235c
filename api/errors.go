package api

import (
	"errors"
	"net/http"

	"github.com/maratgil/eventbooking/internal/domain"
)

// statusFromError maps the domain error taxonomy onto HTTP statuses.
// GatewayTransient maps to 502 so clients know the operation is retry-safe.
func statusFromError(err error) int {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrCapacityExceeded):
		return http.StatusConflict
	case errors.Is(err, domain.ErrInvalidStateTransition):
		return http.StatusConflict
	case errors.Is(err, domain.ErrInvalidPrice):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrMissingGatewayReference):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrGatewayTransient):
		return http.StatusBadGateway
	case errors.Is(err, domain.ErrGatewayRejected):
		return http.StatusPaymentRequired
	default:
		return http.StatusInternalServerError
	}
}
