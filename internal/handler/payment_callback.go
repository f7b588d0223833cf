package handler

import (
	"io"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"shopki/internal/payments"
)

// callbackAck is the only response the gateway ever sees. Anything but a
// 2xx with this body triggers redelivery, so it is sent unconditionally.
var callbackAck = map[string]interface{}{
	"ResultCode": 0,
	"ResultDesc": "Accepted",
}

// MpesaCallbackHandler is the thin transport adapter in front of the
// reconciler: it reads the body, acknowledges, and never lets an internal
// failure leak back to the gateway.
type MpesaCallbackHandler struct {
	reconciler *payments.Reconciler
	logger     *zap.Logger
}

func NewMpesaCallbackHandler(reconciler *payments.Reconciler, logger *zap.Logger) *MpesaCallbackHandler {
	return &MpesaCallbackHandler{
		reconciler: reconciler,
		logger:     logger,
	}
}

// Handle processes POST /payments/callback.
func (h *MpesaCallbackHandler) Handle(c echo.Context) error {
	raw, err := io.ReadAll(c.Request().Body)
	if err != nil {
		h.logger.Warn("failed to read callback body", zap.Error(err))
		return c.JSON(http.StatusOK, callbackAck)
	}

	outcome, err := payments.ParseCallback(raw)
	if err != nil {
		h.logger.Warn("malformed M-Pesa callback, acknowledged without processing",
			zap.Error(err),
			zap.ByteString("body", raw))
		return c.JSON(http.StatusOK, callbackAck)
	}

	h.logger.Info("M-Pesa callback received",
		zap.String("checkout_request_id", outcome.CheckoutRequestID),
		zap.Int("result_code", outcome.ResultCode))

	// Acknowledge before reconciling: the gateway redelivers on a slow
	// answer, and it gets the same ack no matter what reconciliation finds.
	if err := c.JSON(http.StatusOK, callbackAck); err != nil {
		return err
	}
	h.reconciler.ApplyDetached(outcome)
	return nil
}
