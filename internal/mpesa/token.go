package mpesa

import (
	"context"
	"encoding/json"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"shopki/internal/config"
	"shopki/internal/pkg/httpclient"
)

// tokenSafetyMargin is subtracted from the gateway-stated lifetime so a
// token is never used right at its expiry edge.
const tokenSafetyMargin = 30 * time.Second

// TokenManager obtains and caches the gateway bearer credential. The cache
// is shared process-wide; concurrent callers during a refresh share one
// in-flight authorization request.
type TokenManager struct {
	cfg    config.MpesaConfig
	client *httpclient.Client
	logger *zap.Logger
	now    func() time.Time

	group singleflight.Group

	mu     sync.Mutex
	token  string
	expiry time.Time
}

func NewTokenManager(cfg config.MpesaConfig, logger *zap.Logger) *TokenManager {
	return &TokenManager{
		cfg: cfg,
		client: httpclient.New().
			WithTimeout(cfg.Timeout).
			WithBasicAuth(cfg.ConsumerKey, cfg.ConsumerSecret),
		logger: logger,
		now:    time.Now,
	}
}

// Token returns a valid bearer token, refreshing lazily when the cached one
// is missing or expired. No internal retry: a failed refresh surfaces as
// *GatewayError and retry policy belongs to the caller.
func (m *TokenManager) Token(ctx context.Context) (string, error) {
	if !m.cfg.Configured() {
		return "", ErrNotConfigured
	}

	if tok, ok := m.cached(); ok {
		return tok, nil
	}

	v, err, _ := m.group.Do("token", func() (interface{}, error) {
		// Re-check under the flight: a racing caller may have refreshed
		// between the cache miss and joining the group.
		if tok, ok := m.cached(); ok {
			return tok, nil
		}
		return m.refresh(ctx)
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

func (m *TokenManager) cached() (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.token != "" && m.now().Before(m.expiry) {
		return m.token, true
	}
	return "", false
}

func (m *TokenManager) refresh(ctx context.Context) (string, error) {
	body, status, err := m.client.Get(m.cfg.BaseURL + "/oauth/v1/generate?grant_type=client_credentials")
	if err != nil {
		return "", &GatewayError{Description: "authorization request failed", Err: err}
	}

	var resp struct {
		AccessToken string      `json:"access_token"`
		ExpiresIn   interface{} `json:"expires_in"`
	}
	if err := json.Unmarshal(body, &resp); err != nil || resp.AccessToken == "" {
		m.logger.Warn("M-Pesa authorization rejected",
			zap.Int("http_status", status),
			zap.ByteString("body", body))
		return "", &GatewayError{Description: "authorization failed", Err: err}
	}

	ttl := parseExpiresIn(resp.ExpiresIn)

	m.mu.Lock()
	m.token = resp.AccessToken
	m.expiry = m.now().Add(ttl - tokenSafetyMargin)
	m.mu.Unlock()

	return resp.AccessToken, nil
}

// parseExpiresIn tolerates both encodings the gateway has been seen to use:
// a JSON number and a quoted numeric string like "3599".
func parseExpiresIn(v interface{}) time.Duration {
	const fallback = 3599 * time.Second

	switch t := v.(type) {
	case float64:
		if t > 0 {
			return time.Duration(t) * time.Second
		}
	case string:
		if n, err := strconv.Atoi(t); err == nil && n > 0 {
			return time.Duration(n) * time.Second
		}
	}
	return fallback
}
