package payments

import (
	"context"
	"sync"

	"gorm.io/gorm"

	"shopki/internal/models"
	"shopki/internal/mpesa"
)

// fakePaymentStore is an in-memory PaymentStore with the same
// compare-and-set semantics the gorm repository provides.
type fakePaymentStore struct {
	mu             sync.Mutex
	rows           map[string]*models.PaymentRequest
	terminalWrites int
}

func newFakePaymentStore() *fakePaymentStore {
	return &fakePaymentStore{rows: map[string]*models.PaymentRequest{}}
}

func (s *fakePaymentStore) Create(p *models.PaymentRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *p
	s.rows[p.CheckoutRequestID] = &cp
	return nil
}

func (s *fakePaymentStore) FindByCheckoutID(id string) (*models.PaymentRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.rows[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *row
	return &cp, nil
}

func (s *fakePaymentStore) MarkTerminal(id, status string, resultCode int, resultDesc, receipt string) (bool, error) {
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
	s.terminalWrites++
	return true, nil
}

func (s *fakePaymentStore) get(id string) *models.PaymentRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rows[id]
}

type fakeOrderStore struct {
	mu     sync.Mutex
	orders map[string]*models.Order
	writes int
}

func newFakeOrderStore(orders ...*models.Order) *fakeOrderStore {
	s := &fakeOrderStore{orders: map[string]*models.Order{}}
	for _, o := range orders {
		s.orders[o.IDOrder] = o
	}
	return s
}

func (s *fakeOrderStore) FindByID(id string) (*models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *o
	return &cp, nil
}

func (s *fakeOrderStore) SetPaymentStatus(id, status string) (bool, error) {
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
	s.writes++
	return true, nil
}

// fakeNotifier counts notifications and signals each one on a channel so
// tests can wait for the async notify goroutine.
type fakeNotifier struct {
	mu    sync.Mutex
	calls int
	fired chan struct{}
}

func newFakeNotifier() *fakeNotifier {
	return &fakeNotifier{fired: make(chan struct{}, 8)}
}

func (n *fakeNotifier) PaymentResolved(ctx context.Context, order *models.Order, payment *models.PaymentRequest) error {
	n.mu.Lock()
	n.calls++
	n.mu.Unlock()
	n.fired <- struct{}{}
	return nil
}

func (n *fakeNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.calls
}

// fakeGateway scripts gateway responses and counts calls, so validation
// tests can assert zero network activity.
type fakeGateway struct {
	mu          sync.Mutex
	pushCalls   int
	queryCalls  int
	pushResp    *mpesa.STKPushResponse
	pushErr     error
	queryResult *mpesa.StatusResult
	queryErr    error
}

func (g *fakeGateway) STKPush(ctx context.Context, req mpesa.STKPushRequest) (*mpesa.STKPushResponse, error) {
	g.mu.Lock()
	g.pushCalls++
	g.mu.Unlock()
	if g.pushErr != nil {
		return nil, g.pushErr
	}
	return g.pushResp, nil
}

func (g *fakeGateway) QueryStatus(ctx context.Context, checkoutRequestID string) (*mpesa.StatusResult, error) {
	g.mu.Lock()
	g.queryCalls++
	g.mu.Unlock()
	if g.queryErr != nil {
		return nil, g.queryErr
	}
	return g.queryResult, nil
}
