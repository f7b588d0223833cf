package api

import (
	"strconv"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"shopki/internal/apperr"
	"shopki/internal/models"
)

// ProductHandler serves the catalog read endpoints and product reviews.
type ProductHandler struct {
	repos  *Repos
	logger *zap.Logger
}

func NewProductHandler(repos *Repos, logger *zap.Logger) *ProductHandler {
	return &ProductHandler{repos: repos, logger: logger}
}

// List handles GET /api/products.
func (h *ProductHandler) List(c echo.Context) error {
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	page, _ := strconv.Atoi(c.QueryParam("page"))
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if page <= 0 {
		page = 1
	}

	products, total, err := h.repos.Product.FindAll(limit, page, c.QueryParam("q"))
	if err != nil {
		h.logger.Error("failed to list products", zap.Error(err))
		return errorResponse(c, err, "failed to retrieve products")
	}

	return successResponse(c, "", paginatedResponse("products", products, total, page, limit))
}

// Get handles GET /api/products/:id.
func (h *ProductHandler) Get(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return errorResponse(c, apperr.ErrNotFound, "product not found")
	}

	product, err := h.repos.Product.FindByID(uint(id))
	if err != nil {
		return errorResponse(c, apperr.ErrNotFound, "product not found")
	}
	return successResponse(c, "", product)
}

// Categories handles GET /api/categories.
func (h *ProductHandler) Categories(c echo.Context) error {
	categories, err := h.repos.Product.Categories()
	if err != nil {
		h.logger.Error("failed to list categories", zap.Error(err))
		return errorResponse(c, err, "failed to retrieve categories")
	}
	return successResponse(c, "", map[string]interface{}{"categories": categories})
}

// ListReviews handles GET /api/products/:id/reviews.
func (h *ProductHandler) ListReviews(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return errorResponse(c, apperr.ErrNotFound, "product not found")
	}

	reviews, err := h.repos.Review.FindByProductID(uint(id))
	if err != nil {
		h.logger.Error("failed to list reviews", zap.Error(err))
		return errorResponse(c, err, "failed to retrieve reviews")
	}
	return successResponse(c, "", map[string]interface{}{"reviews": reviews})
}

type createReviewRequest struct {
	Author  string `json:"author"`
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

// CreateReview handles POST /api/products/:id/reviews.
func (h *ProductHandler) CreateReview(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return errorResponse(c, apperr.ErrNotFound, "product not found")
	}
	if _, err := h.repos.Product.FindByID(uint(id)); err != nil {
		return errorResponse(c, apperr.ErrNotFound, "product not found")
	}

	var req createReviewRequest
	if err := c.Bind(&req); err != nil {
		return errorResponse(c, nil, "invalid request body")
	}
	if req.Rating < 1 || req.Rating > 5 {
		return errorResponse(c, nil, "rating must be between 1 and 5")
	}

	review := &models.Review{
		ProductID: uint(id),
		Author:    req.Author,
		Rating:    req.Rating,
		Comment:   req.Comment,
	}
	if err := h.repos.Review.Create(review); err != nil {
		h.logger.Error("failed to create review", zap.Error(err))
		return errorResponse(c, err, "failed to save review")
	}
	return successResponse(c, "review created", review)
}
