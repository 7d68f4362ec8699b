package verifier

import (
	"context"

	"github.com/questforge/pigateway/internal/model"
	"github.com/questforge/pigateway/internal/pinet"
)

// APIStrategy verifies a credential by asking the Network's who-am-I
// endpoint. One upstream round-trip per verification; the rate
// limiter in front of the service is what keeps that affordable.
type APIStrategy struct {
	client pinet.Client
}

// Ensure APIStrategy implements Strategy
var _ Strategy = (*APIStrategy)(nil)

// NewAPIStrategy creates an API-check verification strategy
func NewAPIStrategy(client pinet.Client) *APIStrategy {
	return &APIStrategy{client: client}
}

// Verify resolves the credential via the Network. The client already
// distinguishes a rejected credential (not retryable) from an
// unreachable Network (retryable), so errors pass through untouched.
func (s *APIStrategy) Verify(ctx context.Context, credential string) (*model.VerifiedIdentity, error) {
	identity, err := s.client.Me(ctx, credential)
	if err != nil {
		return nil, err
	}

	return &model.VerifiedIdentity{
		ExternalID:    identity.UID,
		DisplayName:   identity.Username,
		WalletAddress: identity.Wallet,
	}, nil
}
