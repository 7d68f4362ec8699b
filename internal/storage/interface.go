package storage

import (
	"context"
	"time"

	"github.com/questforge/pigateway/internal/model"
)

// Storage defines the interface for data persistence
type Storage interface {
	// Player operations

	// CreatePlayer inserts a new player. It fails with
	// model.ErrPlayerExists if a player with the same id is already
	// present; this uniqueness guard is what makes provisioning
	// idempotent under concurrency.
	CreatePlayer(ctx context.Context, player *model.Player) error
	// SavePlayer upserts an existing player (profile refresh)
	SavePlayer(ctx context.Context, player *model.Player) error
	GetPlayer(ctx context.Context, id model.PlayerID) (*model.Player, error)

	// Payment operations

	CreatePayment(ctx context.Context, payment *model.PaymentRecord) error
	GetPayment(ctx context.Context, id model.PaymentID) (*model.PaymentRecord, error)
	// GetPaymentByLocalID looks a payment up by its idempotency key
	GetPaymentByLocalID(ctx context.Context, playerID model.PlayerID, localID model.LocalID) (*model.PaymentRecord, error)
	// UpdatePaymentState conditionally moves a payment from expected
	// to next, recording txid when non-empty. It fails with
	// model.ErrInvalidTransition if the stored state no longer equals
	// expected, and with model.ErrPaymentNotFound if the record is
	// missing. Implementations must make the check-and-set atomic.
	UpdatePaymentState(ctx context.Context, id model.PaymentID, expected, next model.PaymentState, txid string, now time.Time) (*model.PaymentRecord, error)
}
