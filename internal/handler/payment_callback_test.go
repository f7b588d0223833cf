package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"shopki/internal/models"
	"shopki/internal/payments"
)

type memPayments struct {
	mu   sync.Mutex
	rows map[string]*models.PaymentRequest
}

func (s *memPayments) Create(p *models.PaymentRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *p
	s.rows[p.CheckoutRequestID] = &cp
	return nil
}

func (s *memPayments) FindByCheckoutID(id string) (*models.PaymentRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.rows[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *row
	return &cp, nil
}

func (s *memPayments) MarkTerminal(id, status string, resultCode int, resultDesc, receipt string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.rows[id]
	if !ok || models.IsTerminalPaymentStatus(row.Status) {
		return false, nil
	}
	row.Status = status
	row.ResultCode = resultCode
	row.ResultDesc = resultDesc
	row.ReceiptNumber = receipt
	return true, nil
}

type memOrders struct {
	mu     sync.Mutex
	orders map[string]*models.Order
}

func (s *memOrders) FindByID(id string) (*models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *o
	return &cp, nil
}

func (s *memOrders) SetPaymentStatus(id, status string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok {
		return false, gorm.ErrRecordNotFound
	}
	if o.PaymentStatus == models.PaymentStatusCompleted {
		return false, nil
	}
	o.PaymentStatus = status
	return true, nil
}

type memNotifier struct{ fired chan struct{} }

func (n *memNotifier) PaymentResolved(ctx context.Context, order *models.Order, payment *models.PaymentRequest) error {
	n.fired <- struct{}{}
	return nil
}

func newCallbackFixture(t *testing.T) (*MpesaCallbackHandler, *payments.Reconciler, *memPayments, *memOrders, *memNotifier) {
	t.Helper()
	pay := &memPayments{rows: map[string]*models.PaymentRequest{}}
	ord := &memOrders{orders: map[string]*models.Order{
		"ord-1": {IDOrder: "ord-1", CustomerEmail: "buyer@example.com", PaymentStatus: models.PaymentStatusInitiated},
	}}
	not := &memNotifier{fired: make(chan struct{}, 4)}
	reconciler := payments.NewReconciler(pay, ord, not, zap.NewNop())
	return NewMpesaCallbackHandler(reconciler, zap.NewNop()), reconciler, pay, ord, not
}

func postCallback(t *testing.T, h *MpesaCallbackHandler, body string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/payments/callback", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	require.NoError(t, h.Handle(e.NewContext(req, rec)))
	return rec
}

func assertAck(t *testing.T, rec *httptest.ResponseRecorder) {
	t.Helper()
	assert.Equal(t, http.StatusOK, rec.Code)
	var ack struct {
		ResultCode int    `json:"ResultCode"`
		ResultDesc string `json:"ResultDesc"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &ack))
	assert.Equal(t, 0, ack.ResultCode)
	assert.Equal(t, "Accepted", ack.ResultDesc)
}

func TestCallbackSuccessReconciles(t *testing.T) {
	h, reconciler, pay, ord, not := newCallbackFixture(t)
	require.NoError(t, pay.Create(&models.PaymentRequest{
		CheckoutRequestID: "ws_CO_1",
		OrderID:           "ord-1",
		Status:            models.PaymentStatusPending,
	}))

	rec := postCallback(t, h, `{
		"Body": {"stkCallback": {
			"CheckoutRequestID": "ws_CO_1",
			"ResultCode": 0,
			"ResultDesc": "The service request is processed successfully.",
			"CallbackMetadata": {"Item": [
				{"Name": "Amount", "Value": 1500},
				{"Name": "MpesaReceiptNumber", "Value": "NLJ7RT61SV"}
			]}
		}}
	}`)
	assertAck(t, rec)

	select {
	case <-not.fired:
	case <-time.After(2 * time.Second):
		t.Fatal("notification never fired")
	}
	reconciler.Wait()

	row, err := pay.FindByCheckoutID("ws_CO_1")
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusCompleted, row.Status)
	order, err := ord.FindByID("ord-1")
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusCompleted, order.PaymentStatus)
}

func TestCallbackMalformedBodyStillAcked(t *testing.T) {
	h, reconciler, pay, _, _ := newCallbackFixture(t)
	rec := postCallback(t, h, `this is not json`)
	assertAck(t, rec)
	reconciler.Wait()
	assert.Empty(t, pay.rows)
}

func TestCallbackUnknownCheckoutIDStillAcked(t *testing.T) {
	h, reconciler, _, ord, _ := newCallbackFixture(t)
	rec := postCallback(t, h, `{
		"Body": {"stkCallback": {"CheckoutRequestID": "ws_CO_ghost", "ResultCode": 0}}
	}`)
	assertAck(t, rec)
	reconciler.Wait()

	order, err := ord.FindByID("ord-1")
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusInitiated, order.PaymentStatus, "unknown correlation id must not touch any order")
}

func TestCallbackAcksBeforeReconciling(t *testing.T) {
	h, reconciler, pay, _, not := newCallbackFixture(t)
	require.NoError(t, pay.Create(&models.PaymentRequest{
		CheckoutRequestID: "ws_CO_slow",
		OrderID:           "ord-1",
		Status:            models.PaymentStatusPending,
	}))

	// Handle must have flushed the ack by the time it returns, whatever
	// reconciliation is still doing.
	rec := postCallback(t, h, `{
		"Body": {"stkCallback": {"CheckoutRequestID": "ws_CO_slow", "ResultCode": 0}}
	}`)
	assertAck(t, rec)

	reconciler.Wait()
	select {
	case <-not.fired:
	case <-time.After(2 * time.Second):
		t.Fatal("notification never fired")
	}
	row, err := pay.FindByCheckoutID("ws_CO_slow")
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusCompleted, row.Status)
}
