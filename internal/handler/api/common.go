package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"shopki/internal/apperr"
	"shopki/internal/models"
	"shopki/internal/repository"
)

// Response helpers shared by all API handlers.
func successResponse(c echo.Context, msg string, data interface{}) error {
	return c.JSON(http.StatusOK, models.APIResponse{
		Success: true,
		Message: msg,
		Data:    data,
	})
}

func errorResponse(c echo.Context, err error, msg string) error {
	status := http.StatusBadRequest
	if err != nil {
		status = apperr.HTTPStatus(err)
		if msg == "" {
			msg = err.Error()
		}
	}
	return c.JSON(status, models.APIResponse{
		Success: false,
		Message: msg,
	})
}

func paginatedResponse(key string, data interface{}, total int64, page, limit int) map[string]interface{} {
	if limit <= 0 {
		limit = 50
	}
	totalPages := int(total) / limit
	if int(total)%limit != 0 {
		totalPages++
	}
	if totalPages == 0 {
		totalPages = 1
	}
	return map[string]interface{}{
		key: data,
		"pagination": map[string]interface{}{
			"total":        total,
			"total_pages":  totalPages,
			"current_page": page,
			"per_page":     limit,
		},
	}
}

// Repos bundles the repositories the API handlers need.
type Repos struct {
	Product *repository.ProductRepository
	Review  *repository.ReviewRepository
	Order   *repository.OrderRepository
	Payment *repository.PaymentRepository
}
