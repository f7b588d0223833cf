package payments

import (
	"context"

	"shopki/internal/models"
	"shopki/internal/mpesa"
)

// Gateway is the outbound payment gateway surface the service needs.
// *mpesa.Client implements it.
type Gateway interface {
	STKPush(ctx context.Context, req mpesa.STKPushRequest) (*mpesa.STKPushResponse, error)
	QueryStatus(ctx context.Context, checkoutRequestID string) (*mpesa.StatusResult, error)
}

// PaymentStore persists payment requests. MarkTerminal must be an atomic
// compare-and-set keyed by the correlation id: it returns true for exactly
// one of any number of racing terminal writes.
type PaymentStore interface {
	Create(p *models.PaymentRequest) error
	FindByCheckoutID(checkoutRequestID string) (*models.PaymentRequest, error)
	MarkTerminal(checkoutRequestID, status string, resultCode int, resultDesc, receipt string) (bool, error)
}

// OrderStore is the authoritative order record payment transitions are
// written into. SetPaymentStatus must refuse to overwrite a completed
// order; any other status may be superseded by a later paid attempt.
type OrderStore interface {
	FindByID(orderID string) (*models.Order, error)
	SetPaymentStatus(orderID, status string) (bool, error)
}

// Notifier signals the buyer once a payment is resolved. Implementations
// must tolerate being called from the callback path: errors are logged,
// never surfaced to the gateway.
type Notifier interface {
	PaymentResolved(ctx context.Context, order *models.Order, payment *models.PaymentRequest) error
}
