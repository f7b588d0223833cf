package payments

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"shopki/internal/apperr"
	"shopki/internal/models"
	"shopki/internal/mpesa"
)

// Service validates payment input, drives initiation against the gateway
// and answers status queries. It is purely request/response: no background
// workers, no internal retries.
type Service struct {
	gateway    Gateway
	payments   PaymentStore
	reconciler *Reconciler
	logger     *zap.Logger
}

func NewService(gateway Gateway, payments PaymentStore, reconciler *Reconciler, logger *zap.Logger) *Service {
	return &Service{
		gateway:    gateway,
		payments:   payments,
		reconciler: reconciler,
		logger:     logger,
	}
}

// InitiateInput is raw caller input, validated and normalized here.
type InitiateInput struct {
	Phone            string
	Amount           float64
	OrderID          string
	AccountReference string
	Description      string
}

// InitiateResult distinguishes "push sent, awaiting confirmation" from any
// failure: when err is nil the prompt reached the gateway for delivery.
type InitiateResult struct {
	CheckoutRequestID string `json:"checkout_request_id"`
	Message           string `json:"message"`
}

// Initiate validates input, submits the push request and records the
// pending payment. Repeated calls for the same order each produce a new
// push: the gateway has no idempotency key for initiation, so duplicate
// prevention is the caller's responsibility.
func (s *Service) Initiate(ctx context.Context, in InitiateInput) (*InitiateResult, error) {
	if in.OrderID == "" {
		return nil, fmt.Errorf("%w: orderId is required", mpesa.ErrValidation)
	}
	phone, err := mpesa.NormalizePhone(in.Phone)
	if err != nil {
		return nil, err
	}
	amount, err := mpesa.FormatAmount(in.Amount)
	if err != nil {
		return nil, err
	}

	ref := in.AccountReference
	if ref == "" {
		ref = "SHOPKI-" + in.OrderID
	}
	desc := in.Description
	if desc == "" {
		desc = "Shopki order payment"
	}

	resp, err := s.gateway.STKPush(ctx, mpesa.STKPushRequest{
		Phone:            phone,
		Amount:           amount,
		OrderID:          in.OrderID,
		AccountReference: ref,
		Description:      desc,
	})
	if err != nil {
		return nil, err
	}

	row := &models.PaymentRequest{
		CheckoutRequestID: resp.CheckoutRequestID,
		MerchantRequestID: resp.MerchantRequestID,
		OrderID:           in.OrderID,
		Phone:             phone,
		Amount:            amount,
		AccountReference:  ref,
		Description:       desc,
		Status:            models.PaymentStatusPending,
	}
	if err := s.payments.Create(row); err != nil {
		// The prompt is already on the customer's phone; surface the
		// correlation id anyway so the callback can still be matched
		// against gateway logs.
		s.logger.Error("failed to persist payment request",
			zap.String("checkout_request_id", resp.CheckoutRequestID),
			zap.Error(err))
		return nil, fmt.Errorf("persist payment request: %w", err)
	}

	msg := resp.CustomerMessage
	if msg == "" {
		msg = resp.ResponseDescription
	}
	return &InitiateResult{CheckoutRequestID: resp.CheckoutRequestID, Message: msg}, nil
}

// StatusView is the reconciled status of a payment for API callers.
type StatusView struct {
	CheckoutRequestID string      `json:"checkout_request_id"`
	Status            string      `json:"status"`
	Raw               interface{} `json:"raw,omitempty"`
}

// Status resolves the current state of a payment. A locally terminal row is
// answered without a gateway round trip; otherwise the gateway is probed
// and a terminal probe result is routed through the same compare-and-set
// path the callback uses, so whichever channel lands first wins.
func (s *Service) Status(ctx context.Context, checkoutRequestID string) (*StatusView, error) {
	if checkoutRequestID == "" {
		return nil, fmt.Errorf("%w: checkoutRequestId is required", mpesa.ErrValidation)
	}

	row, err := s.payments.FindByCheckoutID(checkoutRequestID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("payment %s: %w", checkoutRequestID, apperr.ErrNotFound)
		}
		return nil, err
	}

	if models.IsTerminalPaymentStatus(row.Status) {
		return &StatusView{
			CheckoutRequestID: checkoutRequestID,
			Status:            row.Status,
			Raw:               map[string]interface{}{"ResultCode": row.ResultCode, "ResultDesc": row.ResultDesc},
		}, nil
	}

	probe, err := s.gateway.QueryStatus(ctx, checkoutRequestID)
	if err != nil {
		return nil, err
	}

	if probe.Status == mpesa.StatusCompleted || probe.Status == mpesa.StatusFailed {
		code := 0
		if probe.Status == mpesa.StatusFailed {
			code = parseResultCode(probe.ResultCode)
		}
		outcome := &CallbackOutcome{
			CheckoutRequestID: checkoutRequestID,
			ResultCode:        code,
			ResultDesc:        probe.ResultDesc,
		}
		if err := s.reconciler.Apply(ctx, outcome); err != nil {
			s.logger.Error("status-probe reconciliation failed",
				zap.String("checkout_request_id", checkoutRequestID),
				zap.Error(err))
		}
	}

	return &StatusView{
		CheckoutRequestID: checkoutRequestID,
		Status:            probe.Status,
		Raw:               probe.Raw,
	}, nil
}

func parseResultCode(s string) int {
	n := 0
	for _, r := range s {
		if r < '0' || r > '9' {
			return 1
		}
		n = n*10 + int(r-'0')
	}
	if n == 0 {
		n = 1
	}
	return n
}
