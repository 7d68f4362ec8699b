package api_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/questforge/pigateway/internal/api"
	"github.com/questforge/pigateway/internal/api/response"
	"github.com/questforge/pigateway/internal/dependencies/mocks"
	"github.com/questforge/pigateway/internal/factory"
	"github.com/questforge/pigateway/internal/model"
	"github.com/questforge/pigateway/internal/pinet"
	"github.com/questforge/pigateway/internal/services/ratelimit"
	"github.com/questforge/pigateway/internal/services/session"
	"github.com/questforge/pigateway/internal/testutil"
)

// testServer wires the full stack over memory storage and a mock
// Network
type testServer struct {
	handler http.Handler
	network *mocks.MockNetwork
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	network := mocks.NewMockNetwork()
	network.AddIdentity("token-alice", "uid-alice", "alice", nil)
	network.AddIdentity("token-bob", "uid-bob", "bob", nil)

	app, err := factory.New(factory.Config{
		NetworkClient: network,
		RateLimit:     ratelimit.Config{Limit: 1000, Window: time.Minute},
		SessionConfig: session.Config{Secret: "test-secret", TTL: time.Hour},
	})
	require.NoError(t, err)

	router := api.NewRouter(api.RouterConfig{
		Logger:  testutil.NopLogger(),
		Gateway: app.Gateway,
	})

	return &testServer{
		handler: router,
		network: network,
	}
}

func (ts *testServer) request(method, path string, body any, token string) *httptest.ResponseRecorder {
	var reqBody *bytes.Buffer
	if body != nil {
		b, _ := json.Marshal(body)
		reqBody = bytes.NewBuffer(b)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req := httptest.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rr := httptest.NewRecorder()
	ts.handler.ServeHTTP(rr, req)
	return rr
}

func (ts *testServer) login(t *testing.T, accessToken string) response.AuthResponse {
	t.Helper()

	rr := ts.request(http.MethodPost, "/api/v1/auth/login", map[string]string{"access_token": accessToken}, "")
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var auth response.AuthResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &auth))
	return auth
}

func (ts *testServer) createPayment(t *testing.T, token string) response.Payment {
	t.Helper()

	rr := ts.request(http.MethodPost, "/api/v1/payments", map[string]any{
		"amount":   "3.14",
		"memo":     "100 gems",
		"metadata": map[string]any{"order": "o1"},
	}, token)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	var payment response.Payment
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &payment))
	return payment
}

func TestHealthCheck(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.request(http.MethodGet, "/api/v1/health", nil, "")
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestLogin(t *testing.T) {
	ts := newTestServer(t)

	auth := ts.login(t, "token-alice")
	assert.Equal(t, "uid-alice", auth.Player.ID)
	assert.Equal(t, "alice", auth.Player.DisplayName)
	assert.Equal(t, "user", auth.Player.Role)
	assert.NotEmpty(t, auth.SessionToken)
}

func TestLoginInvalidCredential(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.request(http.MethodPost, "/api/v1/auth/login", map[string]string{"access_token": "bogus"}, "")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestLoginMissingToken(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.request(http.MethodPost, "/api/v1/auth/login", map[string]string{}, "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestGetMe(t *testing.T) {
	ts := newTestServer(t)
	auth := ts.login(t, "token-alice")

	rr := ts.request(http.MethodGet, "/api/v1/players/me", nil, auth.SessionToken)
	require.Equal(t, http.StatusOK, rr.Code)

	var player response.Player
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &player))
	assert.Equal(t, "uid-alice", player.ID)
}

func TestProtectedRoutesRequireSession(t *testing.T) {
	ts := newTestServer(t)

	for _, path := range []string{"/api/v1/players/me", "/api/v1/payments/pay_0001"} {
		rr := ts.request(http.MethodGet, path, nil, "")
		assert.Equal(t, http.StatusUnauthorized, rr.Code, path)

		rr = ts.request(http.MethodGet, path, nil, "garbage-token")
		assert.Equal(t, http.StatusUnauthorized, rr.Code, path)
	}
}

func TestPaymentLifecycle(t *testing.T) {
	ts := newTestServer(t)
	auth := ts.login(t, "token-alice")
	token := auth.SessionToken

	payment := ts.createPayment(t, token)
	assert.Equal(t, "CREATED", payment.State)
	assert.Equal(t, "3.14", payment.Amount)

	// Approve
	rr := ts.request(http.MethodPost, "/api/v1/payments/"+payment.PaymentID+"/approve", nil, token)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	// Submit
	rr = ts.request(http.MethodPost, "/api/v1/payments/"+payment.PaymentID+"/submit", nil, token)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var submit response.SubmitResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &submit))
	assert.NotEmpty(t, submit.TxID)

	// Complete after the Network confirms
	ts.network.SetPaymentStatus(payment.PaymentID, pinet.StatusCompleted, submit.TxID)
	rr = ts.request(http.MethodPost, "/api/v1/payments/"+payment.PaymentID+"/complete",
		map[string]string{"txid": submit.TxID}, token)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var completed response.Payment
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &completed))
	assert.Equal(t, "COMPLETED", completed.State)
	assert.Equal(t, submit.TxID, completed.TxID)
}

func TestCompleteBeforeConfirmationConflicts(t *testing.T) {
	ts := newTestServer(t)
	auth := ts.login(t, "token-alice")
	token := auth.SessionToken

	payment := ts.createPayment(t, token)
	rr := ts.request(http.MethodPost, "/api/v1/payments/"+payment.PaymentID+"/submit", nil, token)
	require.Equal(t, http.StatusOK, rr.Code)

	var submit response.SubmitResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &submit))

	// Network still reports pending
	rr = ts.request(http.MethodPost, "/api/v1/payments/"+payment.PaymentID+"/complete",
		map[string]string{"txid": submit.TxID}, token)
	assert.Equal(t, http.StatusConflict, rr.Code)
}

func TestCancelPayment(t *testing.T) {
	ts := newTestServer(t)
	auth := ts.login(t, "token-alice")
	token := auth.SessionToken

	payment := ts.createPayment(t, token)

	rr := ts.request(http.MethodPost, "/api/v1/payments/"+payment.PaymentID+"/cancel", nil, token)
	require.Equal(t, http.StatusOK, rr.Code)

	var cancelled response.Payment
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &cancelled))
	assert.Equal(t, "CANCELLED", cancelled.State)

	// Cancelling again conflicts
	rr = ts.request(http.MethodPost, "/api/v1/payments/"+payment.PaymentID+"/cancel", nil, token)
	assert.Equal(t, http.StatusConflict, rr.Code)
}

func TestCancelAfterSubmitConflicts(t *testing.T) {
	ts := newTestServer(t)
	auth := ts.login(t, "token-alice")
	token := auth.SessionToken

	payment := ts.createPayment(t, token)
	rr := ts.request(http.MethodPost, "/api/v1/payments/"+payment.PaymentID+"/submit", nil, token)
	require.Equal(t, http.StatusOK, rr.Code)

	rr = ts.request(http.MethodPost, "/api/v1/payments/"+payment.PaymentID+"/cancel", nil, token)
	assert.Equal(t, http.StatusConflict, rr.Code)
}

func TestCreatePaymentValidation(t *testing.T) {
	ts := newTestServer(t)
	auth := ts.login(t, "token-alice")
	token := auth.SessionToken

	tests := []struct {
		name string
		body map[string]any
	}{
		{"missing amount", map[string]any{"memo": "x", "metadata": map[string]any{}}},
		{"bad amount", map[string]any{"amount": "lots", "memo": "x", "metadata": map[string]any{}}},
		{"negative amount", map[string]any{"amount": "-1", "memo": "x", "metadata": map[string]any{}}},
		{"missing memo", map[string]any{"amount": "1", "metadata": map[string]any{}}},
		{"missing metadata", map[string]any{"amount": "1", "memo": "x"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := ts.request(http.MethodPost, "/api/v1/payments", tt.body, token)
			assert.Equal(t, http.StatusBadRequest, rr.Code, rr.Body.String())
		})
	}
}

func TestCreatePaymentIdempotencyKey(t *testing.T) {
	ts := newTestServer(t)
	auth := ts.login(t, "token-alice")
	token := auth.SessionToken

	body := map[string]any{
		"amount":          "3.14",
		"memo":            "100 gems",
		"metadata":        map[string]any{"order": "o1"},
		"idempotency_key": "order-42",
	}

	rr := ts.request(http.MethodPost, "/api/v1/payments", body, token)
	require.Equal(t, http.StatusCreated, rr.Code)
	var first response.Payment
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &first))

	rr = ts.request(http.MethodPost, "/api/v1/payments", body, token)
	require.Equal(t, http.StatusCreated, rr.Code)
	var second response.Payment
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &second))

	assert.Equal(t, first.PaymentID, second.PaymentID)
	assert.Equal(t, 1, ts.network.CreateCalls)
}

func TestPaymentsNotVisibleAcrossPlayers(t *testing.T) {
	ts := newTestServer(t)
	alice := ts.login(t, "token-alice")
	bob := ts.login(t, "token-bob")

	payment := ts.createPayment(t, alice.SessionToken)

	rr := ts.request(http.MethodGet, "/api/v1/payments/"+payment.PaymentID, nil, bob.SessionToken)
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = ts.request(http.MethodPost, "/api/v1/payments/"+payment.PaymentID+"/submit", nil, bob.SessionToken)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestUpstreamUnavailableMapsTo503(t *testing.T) {
	ts := newTestServer(t)
	auth := ts.login(t, "token-alice")

	ts.network.FailWith = model.ErrUpstreamUnavailable

	rr := ts.request(http.MethodPost, "/api/v1/payments", map[string]any{
		"amount":   "1",
		"memo":     "x",
		"metadata": map[string]any{},
	}, auth.SessionToken)
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
}
