package api

import (
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"shopki/internal/payments"
)

// PaymentHandler exposes payment initiation and status lookup.
type PaymentHandler struct {
	service *payments.Service
	logger  *zap.Logger
}

func NewPaymentHandler(service *payments.Service, logger *zap.Logger) *PaymentHandler {
	return &PaymentHandler{service: service, logger: logger}
}

type initiateRequest struct {
	PhoneNumber      string  `json:"phoneNumber"`
	Amount           float64 `json:"amount"`
	OrderID          string  `json:"orderId"`
	AccountReference string  `json:"accountReference"`
	Description      string  `json:"description"`
}

// Initiate handles POST /api/payments/initiate.
//
// A successful response means the phone prompt was delivered and the
// payment is awaiting confirmation, not that money has moved.
func (h *PaymentHandler) Initiate(c echo.Context) error {
	var req initiateRequest
	if err := c.Bind(&req); err != nil {
		return errorResponse(c, nil, "invalid request body")
	}

	result, err := h.service.Initiate(c.Request().Context(), payments.InitiateInput{
		Phone:            req.PhoneNumber,
		Amount:           req.Amount,
		OrderID:          req.OrderID,
		AccountReference: req.AccountReference,
		Description:      req.Description,
	})
	if err != nil {
		h.logger.Warn("payment initiation failed",
			zap.String("order_id", req.OrderID),
			zap.Error(err))
		return errorResponse(c, err, "")
	}

	return successResponse(c, "STK push sent to phone", result)
}

// Status handles GET /api/payments/status/:checkoutRequestId.
func (h *PaymentHandler) Status(c echo.Context) error {
	view, err := h.service.Status(c.Request().Context(), c.Param("checkoutRequestId"))
	if err != nil {
		return errorResponse(c, err, "")
	}
	return successResponse(c, "", view)
}
