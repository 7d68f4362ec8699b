package pinet

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"

	"github.com/questforge/pigateway/internal/model"
)

// Client is the gateway's view of the Network. All calls carry a
// bounded timeout; a timeout means unknown outcome, not failure of
// the remote action.
type Client interface {
	// Me resolves an access token to the identity that owns it
	Me(ctx context.Context, accessToken string) (*Identity, error)
	// PublicKey fetches the Network's token-signing public key (PEM)
	PublicKey(ctx context.Context) ([]byte, error)
	// CreatePayment registers a payment and returns its Network id
	CreatePayment(ctx context.Context, req CreatePaymentRequest) (string, error)
	// ApprovePayment marks a payment as server-approved
	ApprovePayment(ctx context.Context, paymentID string) error
	// SubmitPayment asks the Network to broadcast the payment
	SubmitPayment(ctx context.Context, paymentID string) (string, error)
	// GetPayment reads the payment's current status
	GetPayment(ctx context.Context, paymentID string) (*PaymentStatus, error)
	// CancelPayment cancels a payment that has not been broadcast
	CancelPayment(ctx context.Context, paymentID string) error
}

// Config holds Network client settings
type Config struct {
	// BaseURL is the Network API root
	BaseURL string
	// APIKey is the server API key sent on payment operations
	APIKey string
	// Timeout bounds every outbound call
	Timeout time.Duration

	// Outbound throttle, so a burst of gateway traffic cannot hammer
	// the third-party API
	OutboundRPS   float64
	OutboundBurst int
}

// DefaultConfig returns sensible defaults for the Network client
func DefaultConfig() Config {
	return Config{
		BaseURL:       "https://api.minepi.com/v2",
		Timeout:       4 * time.Second,
		OutboundRPS:   50,
		OutboundBurst: 25,
	}
}

// HTTPClient is the real Network client
type HTTPClient struct {
	rc      *resty.Client
	limiter *rate.Limiter
}

// Ensure HTTPClient implements the interface
var _ Client = (*HTTPClient)(nil)

// New creates a Network client from config
func New(cfg Config) *HTTPClient {
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultConfig().Timeout
	}
	if cfg.OutboundRPS == 0 {
		cfg.OutboundRPS = DefaultConfig().OutboundRPS
	}
	if cfg.OutboundBurst == 0 {
		cfg.OutboundBurst = DefaultConfig().OutboundBurst
	}

	rc := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout).
		SetHeader("Authorization", "Key "+cfg.APIKey)

	return &HTTPClient{
		rc:      rc,
		limiter: rate.NewLimiter(rate.Limit(cfg.OutboundRPS), cfg.OutboundBurst),
	}
}

// Me resolves an access token via the Network's who-am-I endpoint.
// The caller's credential replaces the server API key for this call.
func (c *HTTPClient) Me(ctx context.Context, accessToken string) (*Identity, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrUpstreamUnavailable, err)
	}

	var identity Identity
	resp, err := c.rc.R().
		SetContext(ctx).
		SetHeader("Authorization", "Bearer "+accessToken).
		SetResult(&identity).
		Get("/me")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrUpstreamUnavailable, err)
	}

	switch {
	case resp.StatusCode() == http.StatusUnauthorized:
		return nil, model.ErrInvalidCredential
	case !resp.IsSuccess():
		// Any other non-success means the Network did not accept the
		// credential for this read
		return nil, fmt.Errorf("%w: identity check returned %d", model.ErrInvalidCredential, resp.StatusCode())
	}

	if identity.UID == "" {
		return nil, fmt.Errorf("%w: identity response missing uid", model.ErrInvalidCredential)
	}
	return &identity, nil
}

// PublicKey fetches the Network's token-signing key material
func (c *HTTPClient) PublicKey(ctx context.Context) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrUpstreamUnavailable, err)
	}

	var body publicKeyResponse
	resp, err := c.rc.R().
		SetContext(ctx).
		SetResult(&body).
		Get("/publicKey")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrUpstreamUnavailable, err)
	}
	if !resp.IsSuccess() {
		return nil, fmt.Errorf("%w: public key fetch returned %d", model.ErrUpstreamError, resp.StatusCode())
	}
	if body.PublicKey == "" {
		return nil, fmt.Errorf("%w: empty public key", model.ErrUpstreamError)
	}
	return []byte(body.PublicKey), nil
}

// CreatePayment registers a payment with the Network
func (c *HTTPClient) CreatePayment(ctx context.Context, req CreatePaymentRequest) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("%w: %v", model.ErrUpstreamUnavailable, err)
	}

	var body createPaymentResponse
	resp, err := c.rc.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&body).
		Post("/payments")
	if err != nil {
		return "", fmt.Errorf("%w: %v", model.ErrUpstreamUnavailable, err)
	}
	if !resp.IsSuccess() {
		return "", fmt.Errorf("%w: payment create returned %d", model.ErrUpstreamError, resp.StatusCode())
	}
	if body.PaymentID == "" {
		return "", fmt.Errorf("%w: payment create response missing identifier", model.ErrUpstreamError)
	}
	return body.PaymentID, nil
}

// ApprovePayment marks a payment as approved on the Network side
func (c *HTTPClient) ApprovePayment(ctx context.Context, paymentID string) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%w: %v", model.ErrUpstreamUnavailable, err)
	}

	resp, err := c.rc.R().
		SetContext(ctx).
		SetPathParam("id", paymentID).
		Post("/payments/{id}/approve")
	if err != nil {
		return fmt.Errorf("%w: %v", model.ErrUpstreamUnavailable, err)
	}
	if !resp.IsSuccess() {
		return fmt.Errorf("%w: payment approve returned %d", model.ErrUpstreamError, resp.StatusCode())
	}
	return nil
}

// SubmitPayment asks the Network to broadcast the payment and
// returns the transaction id
func (c *HTTPClient) SubmitPayment(ctx context.Context, paymentID string) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("%w: %v", model.ErrUpstreamUnavailable, err)
	}

	var body submitPaymentResponse
	resp, err := c.rc.R().
		SetContext(ctx).
		SetPathParam("id", paymentID).
		SetResult(&body).
		Post("/payments/{id}/submit")
	if err != nil {
		return "", fmt.Errorf("%w: %v", model.ErrUpstreamUnavailable, err)
	}
	if !resp.IsSuccess() {
		return "", fmt.Errorf("%w: payment submit returned %d", model.ErrUpstreamError, resp.StatusCode())
	}
	if body.TxID == "" {
		return "", fmt.Errorf("%w: payment submit response missing txid", model.ErrUpstreamError)
	}
	return body.TxID, nil
}

// GetPayment reads the payment's current status from the Network
func (c *HTTPClient) GetPayment(ctx context.Context, paymentID string) (*PaymentStatus, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrUpstreamUnavailable, err)
	}

	var body PaymentStatus
	resp, err := c.rc.R().
		SetContext(ctx).
		SetPathParam("id", paymentID).
		SetResult(&body).
		Get("/payments/{id}")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrUpstreamUnavailable, err)
	}
	if !resp.IsSuccess() {
		return nil, fmt.Errorf("%w: payment status returned %d", model.ErrUpstreamError, resp.StatusCode())
	}
	return &body, nil
}

// CancelPayment cancels a payment that has not been broadcast
func (c *HTTPClient) CancelPayment(ctx context.Context, paymentID string) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%w: %v", model.ErrUpstreamUnavailable, err)
	}

	resp, err := c.rc.R().
		SetContext(ctx).
		SetPathParam("id", paymentID).
		Post("/payments/{id}/cancel")
	if err != nil {
		return fmt.Errorf("%w: %v", model.ErrUpstreamUnavailable, err)
	}
	if !resp.IsSuccess() {
		return fmt.Errorf("%w: payment cancel returned %d", model.ErrUpstreamError, resp.StatusCode())
	}
	return nil
}
