package pinet

import "github.com/shopspring/decimal"

// Payment statuses reported by the Network
const (
	StatusPending   = "pending"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
)

// Identity is the Network's view of the holder of an access token
type Identity struct {
	UID      string  `json:"uid"`
	Username string  `json:"username"`
	Wallet   *string `json:"wallet_address,omitempty"`
}

// CreatePaymentRequest is the body for registering a payment with
// the Network
type CreatePaymentRequest struct {
	Amount   decimal.Decimal `json:"amount"`
	Memo     string          `json:"memo"`
	Metadata map[string]any  `json:"metadata"`
	UID      string          `json:"uid"`
}

// PaymentStatus is the Network's view of a payment
type PaymentStatus struct {
	PaymentID string          `json:"identifier"`
	Status    string          `json:"status"`
	TxID      string          `json:"txid,omitempty"`
	Amount    decimal.Decimal `json:"amount"`
}

type createPaymentResponse struct {
	PaymentID string `json:"identifier"`
}

type submitPaymentResponse struct {
	TxID string `json:"txid"`
}

type publicKeyResponse struct {
	PublicKey string `json:"public_key"`
}
