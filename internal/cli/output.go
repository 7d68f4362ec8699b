package cli

import (
	"encoding/json"
	"fmt"
	"os"
)

// Output handles formatting output based on the configured format
type Output struct {
	format string
}

// NewOutput creates a new Output formatter
func NewOutput(format string) *Output {
	return &Output{format: format}
}

// Print outputs data in the configured format
func (o *Output) Print(data any) {
	if o.format == "json" {
		o.printJSON(data)
	} else {
		o.printText(data)
	}
}

// PrintError outputs an error
func (o *Output) PrintError(err error) {
	if o.format == "json" {
		errData := map[string]any{
			"error": map[string]string{
				"message": err.Error(),
			},
		}
		data, _ := json.Marshal(errData)
		fmt.Fprintln(os.Stderr, string(data))
	} else {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
	}
}

// PrintMessage outputs a simple message
func (o *Output) PrintMessage(msg string) {
	if o.format == "json" {
		data, _ := json.Marshal(map[string]string{"message": msg})
		fmt.Println(string(data))
	} else {
		fmt.Println(msg)
	}
}

func (o *Output) printJSON(data any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func (o *Output) printText(data any) {
	switch v := data.(type) {
	case Player:
		o.printPlayer(v)
	case AuthResult:
		o.printAuthResult(v)
	case Payment:
		o.printPayment(v)
	case SubmitResult:
		o.printSubmitResult(v)
	case HealthResult:
		o.printHealthResult(v)
	default:
		// Fallback to JSON for unknown types
		o.printJSON(data)
	}
}

// Player response type (matches API)
type Player struct {
	ID            string  `json:"id"`
	DisplayName   string  `json:"display_name"`
	WalletAddress *string `json:"wallet_address"`
	Role          string  `json:"role"`
}

// AuthResult combines player and token
type AuthResult struct {
	Player       Player `json:"player"`
	SessionToken string `json:"session_token"`
}

// Payment response type
type Payment struct {
	PaymentID      string         `json:"payment_id"`
	IdempotencyKey string         `json:"idempotency_key,omitempty"`
	PlayerID       string         `json:"player_id"`
	Amount         string         `json:"amount"`
	Memo           string         `json:"memo"`
	Metadata       map[string]any `json:"metadata"`
	State          string         `json:"state"`
	TxID           string         `json:"txid,omitempty"`
}

// SubmitResult response type
type SubmitResult struct {
	TxID string `json:"txid"`
}

// HealthResult response type
type HealthResult struct {
	Status string `json:"status"`
}

func (o *Output) printPlayer(p Player) {
	fmt.Printf("Player: %s (%s)\n", p.DisplayName, p.ID)
	fmt.Printf("Role: %s\n", p.Role)
	if p.WalletAddress != nil {
		fmt.Printf("Wallet: %s\n", *p.WalletAddress)
	}
}

func (o *Output) printAuthResult(a AuthResult) {
	o.printPlayer(a.Player)
	fmt.Printf("Token: %s\n", a.SessionToken)
}

func (o *Output) printPayment(p Payment) {
	fmt.Printf("Payment: %s\n", p.PaymentID)
	fmt.Printf("State: %s\n", p.State)
	fmt.Printf("Amount: %s\n", p.Amount)
	if p.Memo != "" {
		fmt.Printf("Memo: %s\n", p.Memo)
	}
	if p.TxID != "" {
		fmt.Printf("TxID: %s\n", p.TxID)
	}
	if p.IdempotencyKey != "" {
		fmt.Printf("Idempotency Key: %s\n", p.IdempotencyKey)
	}
}

func (o *Output) printSubmitResult(s SubmitResult) {
	fmt.Printf("Submitted: %s\n", s.TxID)
}

func (o *Output) printHealthResult(h HealthResult) {
	fmt.Printf("Status: %s\n", h.Status)
}
