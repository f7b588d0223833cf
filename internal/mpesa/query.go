package mpesa

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"
)

// Payment outcome as seen by the status probe.
const (
	StatusPending   = "pending"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// Result codes the gateway documents as terminal rejections. Anything else
// non-zero stays pending: a status probe must never fail a payment the
// gateway has not explicitly failed.
var failureResultCodes = map[string]bool{
	"1":    true, // insufficient balance
	"1019": true, // transaction expired
	"1025": true, // push error / system error
	"1032": true, // cancelled by user
	"1037": true, // timeout, user unreachable
	"2001": true, // wrong PIN / invalid initiator
	"9999": true, // push error
}

// StatusResult is the mapped outcome of a status query plus the raw
// gateway response for audit purposes.
type StatusResult struct {
	Status     string          `json:"status"`
	ResultCode string          `json:"result_code,omitempty"`
	ResultDesc string          `json:"result_desc,omitempty"`
	Raw        json.RawMessage `json:"raw,omitempty"`
}

// QueryStatus probes a prior push request by its correlation id. Each probe
// signs with a freshly generated timestamp; reusing the initiation
// timestamp would be rejected by the gateway.
//
// An unreachable gateway or an unrecognized code maps to pending, never to
// failed.
func (c *Client) QueryStatus(ctx context.Context, checkoutRequestID string) (*StatusResult, error) {
	if checkoutRequestID == "" {
		return nil, validationErr("checkoutRequestId", "is required")
	}

	token, err := c.tokens.Token(ctx)
	if err != nil {
		return nil, err
	}

	timestamp := Timestamp(c.now())
	payload := map[string]interface{}{
		"BusinessShortCode": c.cfg.ShortCode,
		"Password":          Password(c.cfg.ShortCode, c.cfg.Passkey, timestamp),
		"Timestamp":         timestamp,
		"CheckoutRequestID": checkoutRequestID,
	}

	body, status, err := c.client.PostWithBearer(c.cfg.BaseURL+"/mpesa/stkpushquery/v1/query", token, payload)
	if err != nil {
		c.logger.Warn("M-Pesa status probe unreachable",
			zap.String("checkout_request_id", checkoutRequestID),
			zap.Error(err))
		return &StatusResult{Status: StatusPending, ResultDesc: "status probe failed"}, nil
	}

	var resp struct {
		ResponseCode        string `json:"ResponseCode"`
		ResponseDescription string `json:"ResponseDescription"`
		ResultCode          string `json:"ResultCode"`
		ResultDesc          string `json:"ResultDesc"`
		ErrorCode           string `json:"errorCode"`
		ErrorMessage        string `json:"errorMessage"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		c.logger.Warn("M-Pesa status response unparseable",
			zap.Int("http_status", status),
			zap.ByteString("body", body))
		return &StatusResult{Status: StatusPending, ResultDesc: "unparseable status response", Raw: body}, nil
	}

	result := &StatusResult{
		ResultCode: resp.ResultCode,
		ResultDesc: resp.ResultDesc,
		Raw:        body,
	}

	switch {
	case resp.ErrorCode != "" || resp.ResponseCode != "0":
		// The probe itself was not answered; the payment may still land.
		result.Status = StatusPending
		if result.ResultDesc == "" {
			result.ResultDesc = resp.ErrorMessage
		}
	case resp.ResultCode == "0":
		result.Status = StatusCompleted
	case failureResultCodes[resp.ResultCode]:
		result.Status = StatusFailed
	default:
		result.Status = StatusPending
	}

	return result, nil
}
