package verifier

import (
	"context"

	"github.com/questforge/pigateway/internal/model"
	"github.com/questforge/pigateway/internal/services/ratelimit"
)

// Strategy verification modes
const (
	ModeAPI       = "api"
	ModeSignature = "signature"
)

// Strategy turns a credential into a verified identity. The two
// implementations (API check, signature check) produce the same
// identity shape; which one runs is a deployment decision.
type Strategy interface {
	Verify(ctx context.Context, credential string) (*model.VerifiedIdentity, error)
}

// Service is the token verifier: a rate-limit gate in front of the
// configured verification strategy
type Service struct {
	strategy Strategy
	limiter  ratelimit.Limiter
}

// New creates a verifier service
func New(strategy Strategy, limiter ratelimit.Limiter) *Service {
	return &Service{
		strategy: strategy,
		limiter:  limiter,
	}
}

// Verify validates a bearer credential and produces the identity it
// proves. The rate limiter is consulted before any upstream work; a
// blocked subject fails fast with ErrRateLimited and no Network call.
func (s *Service) Verify(ctx context.Context, credential string) (*model.VerifiedIdentity, error) {
	if credential == "" {
		return nil, model.ErrInvalidCredential
	}

	allowed, err := s.limiter.Allow(ctx, ratelimit.Subject(credential))
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, model.ErrRateLimited
	}

	return s.strategy.Verify(ctx, credential)
}
