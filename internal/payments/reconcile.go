package payments

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"shopki/internal/models"
)

// ErrUnknownCheckoutID marks a callback whose correlation id matches no
// recorded initiation. The caller logs it as an anomaly and acknowledges.
var ErrUnknownCheckoutID = errors.New("unknown checkout request id")

const (
	notifyTimeout    = 30 * time.Second
	reconcileTimeout = 30 * time.Second
)

// CallbackOutcome is the distilled result of one gateway delivery (or one
// terminal status probe). Ephemeral: consumed by reconciliation, retained
// only in logs.
type CallbackOutcome struct {
	CheckoutRequestID string
	ResultCode        int
	ResultDesc        string
	Amount            float64
	ReceiptNumber     string
	Phone             string
}

// stkEnvelope mirrors the gateway's callback body:
// {Body:{stkCallback:{ResultCode,ResultDesc,CheckoutRequestID,CallbackMetadata}}}.
type stkEnvelope struct {
	Body struct {
		StkCallback struct {
			MerchantRequestID string `json:"MerchantRequestID"`
			CheckoutRequestID string `json:"CheckoutRequestID"`
			ResultCode        int    `json:"ResultCode"`
			ResultDesc        string `json:"ResultDesc"`
			CallbackMetadata  struct {
				Item []struct {
					Name  string      `json:"Name"`
					Value interface{} `json:"Value"`
				} `json:"Item"`
			} `json:"CallbackMetadata"`
		} `json:"stkCallback"`
	} `json:"Body"`
}

// ParseCallback defensively extracts the outcome from a raw callback body.
// Pure: no I/O, so reconciliation is testable without an inbound request.
func ParseCallback(raw []byte) (*CallbackOutcome, error) {
	var env stkEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("malformed callback body: %w", err)
	}

	cb := env.Body.StkCallback
	if cb.CheckoutRequestID == "" {
		return nil, errors.New("callback missing CheckoutRequestID")
	}

	out := &CallbackOutcome{
		CheckoutRequestID: cb.CheckoutRequestID,
		ResultCode:        cb.ResultCode,
		ResultDesc:        cb.ResultDesc,
	}

	for _, item := range cb.CallbackMetadata.Item {
		switch item.Name {
		case "Amount":
			if v, ok := item.Value.(float64); ok {
				out.Amount = v
			}
		case "MpesaReceiptNumber":
			if v, ok := item.Value.(string); ok {
				out.ReceiptNumber = v
			}
		case "PhoneNumber":
			switch v := item.Value.(type) {
			case float64:
				out.Phone = fmt.Sprintf("%.0f", v)
			case string:
				out.Phone = v
			}
		}
	}

	return out, nil
}

// Reconciler applies a terminal outcome to the payment row and, on a won
// compare-and-set, performs the single authoritative order write and fires
// the buyer notification. Callback push and status-query pull both funnel
// through here; the first to land wins and the loser no-ops.
type Reconciler struct {
	payments PaymentStore
	orders   OrderStore
	notifier Notifier
	logger   *zap.Logger

	wg sync.WaitGroup
}

func NewReconciler(payments PaymentStore, orders OrderStore, notifier Notifier, logger *zap.Logger) *Reconciler {
	return &Reconciler{
		payments: payments,
		orders:   orders,
		notifier: notifier,
		logger:   logger,
	}
}

// Apply reconciles one outcome. Idempotent per correlation id: duplicate
// gateway deliveries and poll/push races all collapse to a single terminal
// transition and a single order write.
func (r *Reconciler) Apply(ctx context.Context, out *CallbackOutcome) error {
	row, err := r.payments.FindByCheckoutID(out.CheckoutRequestID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: %s", ErrUnknownCheckoutID, out.CheckoutRequestID)
		}
		return fmt.Errorf("load payment request: %w", err)
	}

	if models.IsTerminalPaymentStatus(row.Status) {
		r.logger.Info("duplicate delivery for terminal payment, no-op",
			zap.String("checkout_request_id", out.CheckoutRequestID),
			zap.String("status", row.Status))
		return nil
	}

	status := models.PaymentStatusFailed
	if out.ResultCode == 0 {
		status = models.PaymentStatusCompleted
	}

	won, err := r.payments.MarkTerminal(out.CheckoutRequestID, status, out.ResultCode, out.ResultDesc, out.ReceiptNumber)
	if err != nil {
		return fmt.Errorf("mark payment terminal: %w", err)
	}
	if !won {
		// Another channel resolved this payment between our read and the
		// compare-and-set. Its write stands.
		r.logger.Info("lost reconciliation race, no-op",
			zap.String("checkout_request_id", out.CheckoutRequestID))
		return nil
	}

	r.logger.Info("payment resolved",
		zap.String("checkout_request_id", out.CheckoutRequestID),
		zap.String("order_id", row.OrderID),
		zap.String("status", status),
		zap.Int("result_code", out.ResultCode),
		zap.String("receipt", out.ReceiptNumber))

	orderUpdated, err := r.orders.SetPaymentStatus(row.OrderID, status)
	if err != nil {
		return fmt.Errorf("write order payment status: %w", err)
	}
	if !orderUpdated {
		// The order was already completed by an earlier attempt. Do not
		// contradict the confirmation the buyer has already received.
		r.logger.Warn("order already completed, suppressing notification",
			zap.String("order_id", row.OrderID),
			zap.String("checkout_request_id", out.CheckoutRequestID))
		return nil
	}

	r.notify(row.OrderID, status, out)
	return nil
}

// ApplyDetached reconciles an outcome off the request path, on its own
// context. Used by the callback handler after the acknowledgment has been
// written: the gateway already has its answer, so failures are only logged.
// Wait drains these.
func (r *Reconciler) ApplyDetached(out *CallbackOutcome) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), reconcileTimeout)
		defer cancel()

		if err := r.Apply(ctx, out); err != nil {
			if errors.Is(err, ErrUnknownCheckoutID) {
				r.logger.Warn("callback for unknown checkout request id",
					zap.String("checkout_request_id", out.CheckoutRequestID))
			} else {
				r.logger.Error("callback reconciliation failed",
					zap.String("checkout_request_id", out.CheckoutRequestID),
					zap.Error(err))
			}
		}
	}()
}

// Wait blocks until all detached reconciliations and in-flight buyer
// notifications have finished. Called during graceful shutdown.
func (r *Reconciler) Wait() {
	r.wg.Wait()
}

// notify fires the buyer notification off the request path. Failures are
// logged only: the gateway has already been acknowledged and there is no
// channel to signal back on.
func (r *Reconciler) notify(orderID, status string, out *CallbackOutcome) {
	order, err := r.orders.FindByID(orderID)
	if err != nil {
		r.logger.Warn("order not found for notification",
			zap.String("order_id", orderID), zap.Error(err))
		return
	}

	payment := &models.PaymentRequest{
		CheckoutRequestID: out.CheckoutRequestID,
		OrderID:           orderID,
		Status:            status,
		ResultCode:        out.ResultCode,
		ResultDesc:        out.ResultDesc,
		ReceiptNumber:     out.ReceiptNumber,
	}

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
		defer cancel()
		if err := r.notifier.PaymentResolved(ctx, order, payment); err != nil {
			r.logger.Error("buyer notification failed",
				zap.String("order_id", orderID), zap.Error(err))
		}
	}()
}
