package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentID is the Network-issued identifier for a payment
type PaymentID string

// LocalID is the server-generated idempotency key for a payment
// creation request
type LocalID string

// PaymentState is a payment's lifecycle state
type PaymentState string

// Payment lifecycle states
const (
	PaymentStateCreated   PaymentState = "CREATED"
	PaymentStateApproved  PaymentState = "APPROVED"
	PaymentStateSubmitted PaymentState = "SUBMITTED"
	PaymentStateCompleted PaymentState = "COMPLETED"
	PaymentStateCancelled PaymentState = "CANCELLED"
	PaymentStateFailed    PaymentState = "FAILED"
)

// legalTransitions is the payment lifecycle graph. A state absent
// from the map is terminal.
var legalTransitions = map[PaymentState][]PaymentState{
	// Submit is permitted straight from CREATED; the approval step is
	// the Network's server-side ack and may be skipped by trusted flows
	PaymentStateCreated:   {PaymentStateApproved, PaymentStateSubmitted, PaymentStateCancelled, PaymentStateFailed},
	PaymentStateApproved:  {PaymentStateSubmitted, PaymentStateCancelled, PaymentStateFailed},
	PaymentStateSubmitted: {PaymentStateCompleted, PaymentStateFailed},
}

// IsTerminal reports whether no further transitions are permitted
func (s PaymentState) IsTerminal() bool {
	_, ok := legalTransitions[s]
	return !ok
}

// CanTransitionTo reports whether the lifecycle graph permits moving
// from s to next
func (s PaymentState) CanTransitionTo(next PaymentState) bool {
	for _, allowed := range legalTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// PaymentRecord is the local, authoritative record of one payment's
// lifecycle. It is mutated only by the payment controller, and never
// by two transitions concurrently for the same PaymentID.
type PaymentRecord struct {
	PaymentID PaymentID
	LocalID   LocalID
	PlayerID  PlayerID
	Amount    decimal.Decimal
	Memo      string
	Metadata  map[string]any
	State     PaymentState
	TxID      string
	CreatedAt time.Time
	UpdatedAt time.Time
}
