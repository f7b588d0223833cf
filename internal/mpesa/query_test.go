package mpesa

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func queryServer(t *testing.T, response string) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/oauth/v1/generate", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"access_token":"tok-query","expires_in":"3599"}`))
	})
	mux.HandleFunc("/mpesa/stkpushquery/v1/query", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(response))
	})
	return httptest.NewServer(mux)
}

func TestQueryStatusMapping(t *testing.T) {
	tests := []struct {
		name       string
		resultCode string
		want       string
	}{
		{name: "paid", resultCode: "0", want: StatusCompleted},
		{name: "insufficient funds", resultCode: "1", want: StatusFailed},
		{name: "cancelled by user", resultCode: "1032", want: StatusFailed},
		{name: "timeout", resultCode: "1037", want: StatusFailed},
		{name: "expired", resultCode: "1019", want: StatusFailed},
		{name: "unrecognized code stays pending", resultCode: "4999", want: StatusPending},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			body := fmt.Sprintf(`{
				"ResponseCode":"0",
				"ResponseDescription":"The service request has been accepted successfully",
				"ResultCode":%q,
				"ResultDesc":"mapped in test"
			}`, tt.resultCode)
			srv := queryServer(t, body)
			defer srv.Close()

			c := NewClient(testMpesaConfig(srv.URL), zap.NewNop())
			res, err := c.QueryStatus(context.Background(), "ws_CO_123")
			require.NoError(t, err)
			assert.Equal(t, tt.want, res.Status)
			assert.Equal(t, tt.resultCode, res.ResultCode)
			assert.NotEmpty(t, res.Raw)
		})
	}
}

func TestQueryStatusProbeNotAnswered(t *testing.T) {
	// The gateway can answer the probe itself with "still being processed".
	srv := queryServer(t, `{
		"requestId":"1",
		"errorCode":"500.001.1001",
		"errorMessage":"The transaction is being processed"
	}`)
	defer srv.Close()

	c := NewClient(testMpesaConfig(srv.URL), zap.NewNop())
	res, err := c.QueryStatus(context.Background(), "ws_CO_123")
	require.NoError(t, err)
	assert.Equal(t, StatusPending, res.Status)
}

func TestQueryStatusUnreachableGatewayIsPending(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/oauth/v1/generate", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"access_token":"tok","expires_in":"3599"}`))
	})
	srv := httptest.NewServer(mux)

	cfg := testMpesaConfig(srv.URL)
	c := NewClient(cfg, zap.NewNop())

	// Obtain a token first, then kill the server so the probe fails.
	_, err := c.tokens.Token(context.Background())
	require.NoError(t, err)
	srv.Close()

	res, err := c.QueryStatus(context.Background(), "ws_CO_123")
	require.NoError(t, err, "an unreachable gateway must not surface as an error")
	assert.Equal(t, StatusPending, res.Status,
		"a failed probe must never mark a possibly-successful payment failed")
}

func TestQueryStatusEmptyIDValidation(t *testing.T) {
	c := NewClient(testMpesaConfig("http://127.0.0.1:0"), zap.NewNop())
	_, err := c.QueryStatus(context.Background(), "")
	require.ErrorIs(t, err, ErrValidation)
}
