package response

import (
	"time"

	"github.com/questforge/pigateway/internal/model"
)

// Player represents a player in API responses
type Player struct {
	ID            string  `json:"id"`
	DisplayName   string  `json:"display_name"`
	WalletAddress *string `json:"wallet_address,omitempty"`
	Role          string  `json:"role"`
}

// PlayerFromModel converts a model.Player to a response Player
func PlayerFromModel(p *model.Player) Player {
	return Player{
		ID:            string(p.ID),
		DisplayName:   p.DisplayName,
		WalletAddress: p.WalletAddress,
		Role:          string(p.Role),
	}
}

// AuthResponse is the response for the login endpoint
type AuthResponse struct {
	Player       Player `json:"player"`
	SessionToken string `json:"session_token"`
}

// Payment represents a payment record in API responses
type Payment struct {
	PaymentID      string         `json:"payment_id"`
	IdempotencyKey string         `json:"idempotency_key,omitempty"`
	PlayerID       string         `json:"player_id"`
	Amount         string         `json:"amount"`
	Memo           string         `json:"memo"`
	Metadata       map[string]any `json:"metadata"`
	State          string         `json:"state"`
	TxID           string         `json:"txid,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

// PaymentFromModel converts a model.PaymentRecord to a response Payment
func PaymentFromModel(p *model.PaymentRecord) Payment {
	return Payment{
		PaymentID:      string(p.PaymentID),
		IdempotencyKey: string(p.LocalID),
		PlayerID:       string(p.PlayerID),
		Amount:         p.Amount.String(),
		Memo:           p.Memo,
		Metadata:       p.Metadata,
		State:          string(p.State),
		TxID:           p.TxID,
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
	}
}

// SubmitResponse is the response for the submit endpoint
type SubmitResponse struct {
	TxID string `json:"txid"`
}
