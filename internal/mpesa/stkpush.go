package mpesa

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"shopki/internal/config"
	"shopki/internal/pkg/httpclient"
)

// Client is the Daraja gateway client for STK push payments. It owns no
// persistence and performs no retries; it turns one request into one
// bounded round trip.
type Client struct {
	cfg    config.MpesaConfig
	tokens *TokenManager
	client *httpclient.Client
	logger *zap.Logger
	now    func() time.Time
}

func NewClient(cfg config.MpesaConfig, logger *zap.Logger) *Client {
	return &Client{
		cfg:    cfg,
		tokens: NewTokenManager(cfg, logger),
		client: httpclient.New().WithTimeout(cfg.Timeout),
		logger: logger,
		now:    time.Now,
	}
}

// STKPushRequest carries an already-validated push request. Phone must be
// in canonical 254XXXXXXXXX form and Amount a positive integer.
type STKPushRequest struct {
	Phone            string
	Amount           int
	OrderID          string
	AccountReference string
	Description      string
}

// STKPushResponse is the gateway's acceptance of a push request.
// ResponseCode "0" means the phone prompt was delivered, not that the
// payment succeeded.
type STKPushResponse struct {
	MerchantRequestID   string `json:"MerchantRequestID"`
	CheckoutRequestID   string `json:"CheckoutRequestID"`
	ResponseCode        string `json:"ResponseCode"`
	ResponseDescription string `json:"ResponseDescription"`
	CustomerMessage     string `json:"CustomerMessage"`
}

// gatewayEnvelope covers both response shapes Daraja uses: the success
// fields above, or a top-level errorCode/errorMessage pair on rejection.
type gatewayEnvelope struct {
	STKPushResponse
	ErrorCode    string `json:"errorCode"`
	ErrorMessage string `json:"errorMessage"`
}

// STKPush submits a push-payment request and returns the gateway
// correlation id. Any non-"0" response code is a rejection surfaced
// verbatim as *GatewayError.
func (c *Client) STKPush(ctx context.Context, req STKPushRequest) (*STKPushResponse, error) {
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return nil, err
	}

	timestamp := Timestamp(c.now())
	payload := map[string]interface{}{
		"BusinessShortCode": c.cfg.ShortCode,
		"Password":          Password(c.cfg.ShortCode, c.cfg.Passkey, timestamp),
		"Timestamp":         timestamp,
		"TransactionType":   "CustomerPayBillOnline",
		"Amount":            req.Amount,
		"PartyA":            req.Phone,
		"PartyB":            c.cfg.ShortCode,
		"PhoneNumber":       req.Phone,
		"CallBackURL":       c.cfg.CallbackURL,
		"AccountReference":  req.AccountReference,
		"TransactionDesc":   req.Description,
	}

	body, status, err := c.client.PostWithBearer(c.cfg.BaseURL+"/mpesa/stkpush/v1/processrequest", token, payload)
	if err != nil {
		return nil, &GatewayError{Description: "push request failed", Err: err}
	}

	var resp gatewayEnvelope
	if err := json.Unmarshal(body, &resp); err != nil {
		c.logger.Warn("M-Pesa push response unparseable",
			zap.Int("http_status", status),
			zap.ByteString("body", body))
		return nil, &GatewayError{Description: "unparseable gateway response", Err: err}
	}

	if resp.ErrorCode != "" {
		return nil, &GatewayError{ResponseCode: resp.ErrorCode, Description: resp.ErrorMessage}
	}
	if resp.ResponseCode != "0" {
		desc := resp.ResponseDescription
		if desc == "" {
			desc = "push request rejected"
		}
		return nil, &GatewayError{ResponseCode: resp.ResponseCode, Description: desc}
	}

	c.logger.Info("STK push accepted",
		zap.String("order_id", req.OrderID),
		zap.String("checkout_request_id", resp.CheckoutRequestID))

	return &resp.STKPushResponse, nil
}
