package router

import (
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"shopki/internal/config"
	"shopki/internal/handler"
	"shopki/internal/handler/api"
	"shopki/internal/mailer"
	"shopki/internal/middleware"
	"shopki/internal/mpesa"
	"shopki/internal/payments"
	"shopki/internal/repository"
)

// Deps carries everything route setup needs from main.
type Deps struct {
	DB              *gorm.DB
	Config          *config.Config
	Logger          *zap.Logger
	CallbackDeduper middleware.CallbackDeduper
}

// Setup configures all routes for the Echo server. It returns the payment
// reconciler so shutdown can drain in-flight reconciliations.
func Setup(e *echo.Echo, deps Deps) *payments.Reconciler {
	// Global middleware
	e.Use(echomw.Recover())
	e.Use(middleware.CORS())

	// Repositories
	repos := &api.Repos{
		Product: repository.NewProductRepository(deps.DB),
		Review:  repository.NewReviewRepository(deps.DB),
		Order:   repository.NewOrderRepository(deps.DB),
		Payment: repository.NewPaymentRepository(deps.DB),
	}

	// Payment core wiring
	gateway := mpesa.NewClient(deps.Config.Mpesa, deps.Logger)
	notifier := mailer.New(deps.Config.Mail, deps.Logger)
	reconciler := payments.NewReconciler(repos.Payment, repos.Order, notifier, deps.Logger)
	service := payments.NewService(gateway, repos.Payment, reconciler, deps.Logger)

	// Handlers
	paymentHandler := api.NewPaymentHandler(service, deps.Logger)
	productHandler := api.NewProductHandler(repos, deps.Logger)
	orderHandler := api.NewOrderHandler(repos, deps.Logger)
	healthHandler := api.NewHealthHandler(deps.Config.Mpesa, deps.Config.Mail)
	callbackHandler := handler.NewMpesaCallbackHandler(reconciler, deps.Logger)

	// API routes
	apiGroup := e.Group("/api")
	apiGroup.POST("/payments/initiate", paymentHandler.Initiate)
	apiGroup.GET("/payments/status/:checkoutRequestId", paymentHandler.Status)
	apiGroup.GET("/products", productHandler.List)
	apiGroup.GET("/products/:id", productHandler.Get)
	apiGroup.GET("/products/:id/reviews", productHandler.ListReviews)
	apiGroup.POST("/products/:id/reviews", productHandler.CreateReview)
	apiGroup.GET("/categories", productHandler.Categories)
	apiGroup.POST("/orders", orderHandler.Create)
	apiGroup.GET("/orders/:id", orderHandler.Get)
	apiGroup.GET("/health", healthHandler.Handle)

	// Gateway callback (deduplicated on redelivery)
	callbackGroup := e.Group("/payments")
	callbackGroup.Use(middleware.MpesaCallbackDedup(deps.CallbackDeduper))
	callbackGroup.POST("/callback", callbackHandler.Handle)

	return reconciler
}
