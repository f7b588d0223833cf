package api

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"shopki/internal/config"
)

// HealthHandler reports service readiness. It only ever says whether each
// collaborator is configured; secrets never leave the process.
type HealthHandler struct {
	mpesa config.MpesaConfig
	mail  config.MailConfig
}

func NewHealthHandler(mpesa config.MpesaConfig, mail config.MailConfig) *HealthHandler {
	return &HealthHandler{mpesa: mpesa, mail: mail}
}

// Handle serves GET /api/health.
func (h *HealthHandler) Handle(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":    "ok",
		"mpesa":     configuredLabel(h.mpesa.Configured()),
		"mail":      configuredLabel(h.mail.Configured()),
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func configuredLabel(ok bool) string {
	if ok {
		return "configured"
	}
	return "not_configured"
}
