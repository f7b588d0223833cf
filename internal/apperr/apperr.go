package apperr

import (
	"context"
	"errors"
	"net/http"

	"shopki/internal/mpesa"
)

// ErrNotFound marks a lookup miss surfaced to the API layer.
var ErrNotFound = errors.New("not found")

func Kind(err error) string {
	var gw *mpesa.GatewayError

	switch {
	case err == nil:
		return ""

	case errors.Is(err, mpesa.ErrValidation):
		return "validation"

	case errors.Is(err, mpesa.ErrNotConfigured):
		return "not_configured"

	case errors.Is(err, ErrNotFound):
		return "not_found"

	case errors.As(err, &gw):
		return "gateway"

	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"

	case errors.Is(err, context.Canceled):
		return "canceled"

	default:
		return "internal"
	}
}

func HTTPStatus(err error) int {
	var gw *mpesa.GatewayError

	switch {
	case err == nil:
		return http.StatusOK

	case errors.Is(err, mpesa.ErrValidation):
		return http.StatusBadRequest

	case errors.Is(err, mpesa.ErrNotConfigured):
		return http.StatusServiceUnavailable

	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound

	case errors.As(err, &gw):
		return http.StatusBadGateway

	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout

	case errors.Is(err, context.Canceled):
		return http.StatusBadRequest

	default:
		return http.StatusInternalServerError
	}
}
