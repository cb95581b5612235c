package domain

import "errors"

var (
	// ErrNotFound is returned when an event, package, payment or booking
	// does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidPrice is returned when a session is initiated against a
	// non-positive unit price.
	ErrInvalidPrice = errors.New("invalid price")

	// ErrCapacityExceeded is returned on the registration path when an
	// event has no remaining confirmed slots. It is never returned for a
	// booking backed by a completed payment.
	ErrCapacityExceeded = errors.New("capacity exceeded")

	// ErrUnauthorized is returned when no authenticated identity is
	// attached to the request.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrGatewayTransient marks a gateway timeout or transport failure.
	// State is unchanged and the operation is safe to retry.
	ErrGatewayTransient = errors.New("gateway temporarily unavailable")

	// ErrGatewayRejected marks a gateway-level rejection; the payment has
	// been advanced to a terminal failure state.
	ErrGatewayRejected = errors.New("gateway rejected the operation")

	// ErrInvalidStateTransition is returned when an operation is attempted
	// from a payment status that does not permit it, e.g. refunding a
	// payment that never completed.
	ErrInvalidStateTransition = errors.New("invalid payment state transition")

	// ErrMissingGatewayReference is returned when a refund is requested for
	// a payment that has no bank transaction id from validation.
	ErrMissingGatewayReference = errors.New("missing gateway reference")
)
