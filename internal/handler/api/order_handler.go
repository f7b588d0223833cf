package api

import (
	"encoding/json"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"shopki/internal/apperr"
	"shopki/internal/models"
)

// OrderHandler serves order creation and lookup. Orders start with payment
// status "initiated"; the payment core owns every later transition.
type OrderHandler struct {
	repos  *Repos
	logger *zap.Logger
}

func NewOrderHandler(repos *Repos, logger *zap.Logger) *OrderHandler {
	return &OrderHandler{repos: repos, logger: logger}
}

type orderItem struct {
	ProductID uint `json:"product_id"`
	Quantity  int  `json:"quantity"`
	Price     int  `json:"price"`
}

type createOrderRequest struct {
	CustomerName  string      `json:"customerName"`
	CustomerEmail string      `json:"customerEmail"`
	CustomerPhone string      `json:"customerPhone"`
	Items         []orderItem `json:"items"`
}

// Create handles POST /api/orders.
func (h *OrderHandler) Create(c echo.Context) error {
	var req createOrderRequest
	if err := c.Bind(&req); err != nil {
		return errorResponse(c, nil, "invalid request body")
	}
	if len(req.Items) == 0 {
		return errorResponse(c, nil, "order must contain at least one item")
	}

	total := 0
	for _, item := range req.Items {
		if item.Quantity <= 0 || item.Price <= 0 {
			return errorResponse(c, nil, "item quantity and price must be positive")
		}
		total += item.Quantity * item.Price
	}

	itemsJSON, err := json.Marshal(req.Items)
	if err != nil {
		return errorResponse(c, nil, "invalid items")
	}

	order := &models.Order{
		IDOrder:       uuid.NewString(),
		CustomerName:  req.CustomerName,
		CustomerEmail: req.CustomerEmail,
		CustomerPhone: req.CustomerPhone,
		Items:         string(itemsJSON),
		Total:         total,
		Currency:      "KES",
		PaymentStatus: models.PaymentStatusInitiated,
	}
	if err := h.repos.Order.Create(order); err != nil {
		h.logger.Error("failed to create order", zap.Error(err))
		return errorResponse(c, err, "failed to create order")
	}

	return successResponse(c, "order created", order)
}

// Get handles GET /api/orders/:id.
func (h *OrderHandler) Get(c echo.Context) error {
	order, err := h.repos.Order.FindByID(c.Param("id"))
	if err != nil {
		return errorResponse(c, apperr.ErrNotFound, "order not found")
	}

	paymentHistory, err := h.repos.Payment.FindByOrderID(order.IDOrder)
	if err != nil {
		h.logger.Warn("failed to load payment history",
			zap.String("order_id", order.IDOrder), zap.Error(err))
	}

	return successResponse(c, "", map[string]interface{}{
		"order":    order,
		"payments": paymentHistory,
	})
}
