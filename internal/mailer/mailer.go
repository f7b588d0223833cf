package mailer

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"shopki/internal/config"
	"shopki/internal/models"
	"shopki/internal/pkg/httpclient"
)

const sendGridURL = "https://api.sendgrid.com/v3/mail/send"

// Mailer delivers transactional email through the SendGrid v3 API. When no
// API key is configured the message is logged instead of sent, so local
// development never needs real credentials.
type Mailer struct {
	cfg    config.MailConfig
	client *httpclient.Client
	logger *zap.Logger
}

func New(cfg config.MailConfig, logger *zap.Logger) *Mailer {
	return &Mailer{
		cfg:    cfg,
		client: httpclient.New().WithBearerToken(cfg.SendGridKey),
		logger: logger,
	}
}

// Configured reports whether a real API key is present.
func (m *Mailer) Configured() bool {
	return m.cfg.Configured()
}

// Send delivers one email. Logged-only when unconfigured.
func (m *Mailer) Send(ctx context.Context, to, subject, body string) error {
	if !m.Configured() {
		m.logger.Info("mail not configured, logging instead of sending",
			zap.String("to", to),
			zap.String("subject", subject),
			zap.String("body", body))
		return nil
	}

	payload := map[string]interface{}{
		"personalizations": []map[string]interface{}{
			{"to": []map[string]string{{"email": to}}},
		},
		"from":    map[string]string{"email": m.cfg.From},
		"subject": subject,
		"content": []map[string]string{
			{"type": "text/plain", "value": body},
		},
	}

	respBody, status, err := m.client.Post(sendGridURL, payload)
	if err != nil {
		return fmt.Errorf("sendgrid request failed: %w", err)
	}
	if status >= 300 {
		return fmt.Errorf("sendgrid rejected message: status %d: %s", status, respBody)
	}
	return nil
}

// PaymentResolved implements the payments.Notifier contract: once a
// payment reaches a terminal state the buyer hears about it by email.
func (m *Mailer) PaymentResolved(ctx context.Context, order *models.Order, payment *models.PaymentRequest) error {
	if order.CustomerEmail == "" {
		m.logger.Warn("order has no customer email, skipping notification",
			zap.String("order_id", order.IDOrder))
		return nil
	}

	var subject, body string
	switch payment.Status {
	case models.PaymentStatusCompleted:
		subject = fmt.Sprintf("Order %s confirmed", order.IDOrder)
		body = fmt.Sprintf(
			"Hi %s,\n\nWe received your payment of %d %s for order %s.\nM-Pesa receipt: %s\n\nThank you for shopping with Shopki!",
			order.CustomerName, order.Total, order.Currency, order.IDOrder, payment.ReceiptNumber)
	default:
		subject = fmt.Sprintf("Payment for order %s did not complete", order.IDOrder)
		body = fmt.Sprintf(
			"Hi %s,\n\nYour M-Pesa payment for order %s did not go through (%s).\nYou can retry the payment from your order page.",
			order.CustomerName, order.IDOrder, payment.ResultDesc)
	}

	return m.Send(ctx, order.CustomerEmail, subject, body)
}
