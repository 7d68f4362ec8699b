package request

// LoginRequest is the request body for authenticating with a Network
// credential
type LoginRequest struct {
	AccessToken string `json:"access_token"`
}

// CreatePaymentRequest is the request body for creating a payment.
// Amount travels as a string so no precision is lost in transit.
type CreatePaymentRequest struct {
	Amount         string         `json:"amount"`
	Memo           string         `json:"memo"`
	Metadata       map[string]any `json:"metadata"`
	IdempotencyKey string         `json:"idempotency_key,omitempty"`
}

// CompletePaymentRequest is the request body for completing a payment
type CompletePaymentRequest struct {
	TxID string `json:"txid"`
}
