package gateway

import (
	"context"

	"github.com/questforge/pigateway/internal/model"
	"github.com/questforge/pigateway/internal/services/identity"
	"github.com/questforge/pigateway/internal/services/payment"
	"github.com/questforge/pigateway/internal/services/session"
	"github.com/questforge/pigateway/internal/services/verifier"
)

// Service is the gateway facade: the only surface the rest of the
// application calls for authentication and payments
type Service struct {
	verifier *verifier.Service
	identity *identity.Service
	sessions *session.Service
	payments *payment.Controller
}

// New creates the gateway facade
func New(
	verifier *verifier.Service,
	identity *identity.Service,
	sessions *session.Service,
	payments *payment.Controller,
) *Service {
	return &Service{
		verifier: verifier,
		identity: identity,
		sessions: sessions,
		payments: payments,
	}
}

// Authenticate verifies a Network credential, provisions the local
// player and issues a session token
func (s *Service) Authenticate(ctx context.Context, credential string) (*model.Player, string, error) {
	verified, err := s.verifier.Verify(ctx, credential)
	if err != nil {
		return nil, "", err
	}

	player, err := s.identity.Provision(ctx, verified)
	if err != nil {
		return nil, "", err
	}

	token, err := s.sessions.Issue(player)
	if err != nil {
		return nil, "", err
	}
	return player, token, nil
}

// ValidateSession resolves a session token to the player it belongs to
func (s *Service) ValidateSession(ctx context.Context, token string) (*model.Player, error) {
	claims, err := s.sessions.Validate(token)
	if err != nil {
		return nil, err
	}
	return s.identity.Lookup(ctx, claims.PlayerID())
}

// CreatePayment registers a new payment for the player
func (s *Service) CreatePayment(ctx context.Context, playerID model.PlayerID, req payment.CreateRequest) (*model.PaymentRecord, error) {
	return s.payments.Create(ctx, playerID, req)
}

// ApprovePayment marks the player's payment as server-approved
func (s *Service) ApprovePayment(ctx context.Context, playerID model.PlayerID, id model.PaymentID) (*model.PaymentRecord, error) {
	if err := s.authorize(ctx, playerID, id); err != nil {
		return nil, err
	}
	return s.payments.Approve(ctx, id)
}

// SubmitPayment broadcasts the player's payment and returns the
// transaction id
func (s *Service) SubmitPayment(ctx context.Context, playerID model.PlayerID, id model.PaymentID) (string, error) {
	if err := s.authorize(ctx, playerID, id); err != nil {
		return "", err
	}
	return s.payments.Submit(ctx, id)
}

// CompletePayment confirms the player's payment against the Network
func (s *Service) CompletePayment(ctx context.Context, playerID model.PlayerID, id model.PaymentID, txid string) (*model.PaymentRecord, error) {
	if err := s.authorize(ctx, playerID, id); err != nil {
		return nil, err
	}
	return s.payments.Complete(ctx, id, txid)
}

// CancelPayment cancels the player's payment before broadcast
func (s *Service) CancelPayment(ctx context.Context, playerID model.PlayerID, id model.PaymentID) (*model.PaymentRecord, error) {
	if err := s.authorize(ctx, playerID, id); err != nil {
		return nil, err
	}
	return s.payments.Cancel(ctx, id)
}

// GetPayment returns the player's payment record
func (s *Service) GetPayment(ctx context.Context, playerID model.PlayerID, id model.PaymentID) (*model.PaymentRecord, error) {
	record, err := s.payments.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if record.PlayerID != playerID {
		// Report not-found rather than forbidden so payment ids are
		// not probeable across players
		return nil, model.ErrPaymentNotFound
	}
	return record, nil
}

// authorize checks that the payment belongs to the caller
func (s *Service) authorize(ctx context.Context, playerID model.PlayerID, id model.PaymentID) error {
	record, err := s.payments.Get(ctx, id)
	if err != nil {
		return err
	}
	if record.PlayerID != playerID {
		return model.ErrPaymentNotFound
	}
	return nil
}
