package mocks

import (
	"context"
	"fmt"
	"sync"

	"github.com/questforge/pigateway/internal/model"
	"github.com/questforge/pigateway/internal/pinet"
)

// MockNetwork is an in-memory stand-in for the Network used in
// tests. Call counters let tests assert exactly how many upstream
// calls an operation issued.
type MockNetwork struct {
	mu sync.Mutex

	// Identities maps access tokens to the identity they resolve to
	Identities map[string]pinet.Identity
	// Key is the key material served by PublicKey
	Key []byte
	// Payments holds the Network-side payment state keyed by id
	Payments map[string]*pinet.PaymentStatus

	// FailWith, when set, makes every call fail with this error
	FailWith error
	// SubmitErr, when set, fails SubmitPayment only
	SubmitErr error
	// GetBarrier, when set, blocks GetPayment until the channel is
	// closed, letting tests hold a status check open
	GetBarrier chan struct{}

	nextID int

	MeCalls      int
	KeyCalls     int
	CreateCalls  int
	ApproveCalls int
	SubmitCalls  int
	GetCalls     int
	CancelCalls  int
}

// Ensure MockNetwork implements the client interface
var _ pinet.Client = (*MockNetwork)(nil)

// NewMockNetwork creates an empty mock Network
func NewMockNetwork() *MockNetwork {
	return &MockNetwork{
		Identities: make(map[string]pinet.Identity),
		Payments:   make(map[string]*pinet.PaymentStatus),
	}
}

// AddIdentity registers an access token and the identity it resolves to
func (m *MockNetwork) AddIdentity(token, uid, username string, wallet *string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Identities[token] = pinet.Identity{UID: uid, Username: username, Wallet: wallet}
}

// SetPaymentStatus overrides the Network-side status of a payment
func (m *MockNetwork) SetPaymentStatus(paymentID, status, txid string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.Payments[paymentID]; ok {
		p.Status = status
		p.TxID = txid
	}
}

func (m *MockNetwork) Me(ctx context.Context, accessToken string) (*pinet.Identity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.MeCalls++
	if m.FailWith != nil {
		return nil, m.FailWith
	}
	identity, ok := m.Identities[accessToken]
	if !ok {
		return nil, model.ErrInvalidCredential
	}
	return &identity, nil
}

func (m *MockNetwork) PublicKey(ctx context.Context) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.KeyCalls++
	if m.FailWith != nil {
		return nil, m.FailWith
	}
	if len(m.Key) == 0 {
		return nil, model.ErrUpstreamError
	}
	return m.Key, nil
}

func (m *MockNetwork) CreatePayment(ctx context.Context, req pinet.CreatePaymentRequest) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CreateCalls++
	if m.FailWith != nil {
		return "", m.FailWith
	}
	m.nextID++
	id := fmt.Sprintf("pay_%04d", m.nextID)
	m.Payments[id] = &pinet.PaymentStatus{
		PaymentID: id,
		Status:    pinet.StatusPending,
		Amount:    req.Amount,
	}
	return id, nil
}

func (m *MockNetwork) ApprovePayment(ctx context.Context, paymentID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ApproveCalls++
	if m.FailWith != nil {
		return m.FailWith
	}
	if _, ok := m.Payments[paymentID]; !ok {
		return model.ErrUpstreamError
	}
	return nil
}

func (m *MockNetwork) SubmitPayment(ctx context.Context, paymentID string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SubmitCalls++
	if m.FailWith != nil {
		return "", m.FailWith
	}
	if m.SubmitErr != nil {
		return "", m.SubmitErr
	}
	p, ok := m.Payments[paymentID]
	if !ok {
		return "", model.ErrUpstreamError
	}
	p.TxID = "tx_" + paymentID
	return p.TxID, nil
}

func (m *MockNetwork) GetPayment(ctx context.Context, paymentID string) (*pinet.PaymentStatus, error) {
	m.mu.Lock()
	m.GetCalls++
	barrier := m.GetBarrier
	m.mu.Unlock()

	if barrier != nil {
		select {
		case <-barrier:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWith != nil {
		return nil, m.FailWith
	}
	p, ok := m.Payments[paymentID]
	if !ok {
		return nil, model.ErrUpstreamError
	}
	status := *p
	return &status, nil
}

func (m *MockNetwork) CancelPayment(ctx context.Context, paymentID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CancelCalls++
	if m.FailWith != nil {
		return m.FailWith
	}
	p, ok := m.Payments[paymentID]
	if !ok {
		return model.ErrUpstreamError
	}
	p.Status = pinet.StatusCancelled
	return nil
}
