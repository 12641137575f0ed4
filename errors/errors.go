package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
)

var (
	ErrWorkerPanic       = fmt.Errorf("worker panic")
	ErrStore             = fmt.Errorf("durable store failure")
	ErrInvalidEvent      = fmt.Errorf("invalid domain event")
	ErrEventNotFound     = fmt.Errorf("event not found")
	ErrUnauthenticated   = fmt.Errorf("unauthenticated")
	ErrForbidden         = fmt.Errorf("forbidden")
	ErrInvalidToken      = fmt.Errorf("invalid or expired token")
	ErrContractViolation = fmt.Errorf("notification violates the wire contract")
	ErrTooManyListeners  = fmt.Errorf("listener ceiling reached for channel")
	ErrInvalidChannel    = fmt.Errorf("invalid channel")
	ErrNoChannel         = fmt.Errorf("at least one channel is required")
	ErrSessionClosed     = fmt.Errorf("stream session closed")
	ErrSlowConsumer      = fmt.Errorf("stream session queue is full")
	ErrStreamUnsupported = fmt.Errorf("response writer does not support streaming")
	ErrInvalidWatermark  = fmt.Errorf("invalid watermark")
	ErrMissingEventID    = fmt.Errorf("event id is required")
	ErrBrokerClosed      = fmt.Errorf("broker closed")
)

// StoreError is returned when a durable write or read fails.
// It always matches ErrStore with errors.Is.
type StoreError struct {
	Op  string
	Err error
}

func NewStoreError(op string, err error) *StoreError {
	return &StoreError{Op: op, Err: err}
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() []error {
	return []error{ErrStore, e.Err}
}

// IsAuthorizationDenial reports whether err must be recorded as a denial
// rather than a generic failure.
func IsAuthorizationDenial(err error) bool {
	return stdErrors.Is(err, ErrUnauthenticated) ||
		stdErrors.Is(err, ErrForbidden) ||
		stdErrors.Is(err, ErrInvalidToken)
}

// HTTPStatus maps domain errors to HTTP status codes.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case stdErrors.Is(err, ErrUnauthenticated), stdErrors.Is(err, ErrInvalidToken):
		return http.StatusUnauthorized
	case stdErrors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case stdErrors.Is(err, ErrInvalidEvent),
		stdErrors.Is(err, ErrInvalidChannel),
		stdErrors.Is(err, ErrNoChannel),
		stdErrors.Is(err, ErrInvalidWatermark),
		stdErrors.Is(err, ErrMissingEventID):
		return http.StatusBadRequest
	case stdErrors.Is(err, ErrEventNotFound):
		return http.StatusNotFound
	case stdErrors.Is(err, ErrTooManyListeners):
		return http.StatusServiceUnavailable
	case stdErrors.Is(err, ErrStore):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
