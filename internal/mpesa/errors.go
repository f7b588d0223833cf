package mpesa

import (
	"errors"
	"fmt"
)

var (
	// ErrNotConfigured is returned before any network call when the gateway
	// credentials are missing or still hold template placeholder values.
	ErrNotConfigured = errors.New("mpesa: credentials not configured")

	// ErrValidation is returned for malformed caller input, before any
	// network call.
	ErrValidation = errors.New("mpesa: invalid input")
)

// GatewayError carries a non-zero gateway response or a transport failure.
// The gateway's own description is passed through when it supplies one.
type GatewayError struct {
	ResponseCode string
	Description  string
	Err          error
}

func (e *GatewayError) Error() string {
	switch {
	case e.Description != "" && e.ResponseCode != "":
		return fmt.Sprintf("mpesa gateway: %s (code %s)", e.Description, e.ResponseCode)
	case e.Description != "":
		return "mpesa gateway: " + e.Description
	case e.Err != nil:
		return "mpesa gateway: " + e.Err.Error()
	default:
		return "mpesa gateway: request failed"
	}
}

func (e *GatewayError) Unwrap() error {
	return e.Err
}

func validationErr(field, reason string) error {
	return fmt.Errorf("%w: %s %s", ErrValidation, field, reason)
}
