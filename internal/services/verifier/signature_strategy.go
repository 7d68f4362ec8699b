package verifier

import (
	"context"
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	"github.com/questforge/pigateway/internal/model"
	"github.com/questforge/pigateway/internal/services/ratelimit"
)

// networkClaims is the claim shape the Network embeds in signed
// tokens. Subject carries the external id.
type networkClaims struct {
	Username string  `json:"username"`
	Wallet   *string `json:"wallet,omitempty"`
	jwt.RegisteredClaims
}

// SignatureStrategy verifies a credential locally as a signed token
// against the Network's cached public key. No upstream round-trip on
// the happy path.
type SignatureStrategy struct {
	keys *ratelimit.KeyCache
}

// Ensure SignatureStrategy implements Strategy
var _ Strategy = (*SignatureStrategy)(nil)

// NewSignatureStrategy creates a signature-check verification strategy
func NewSignatureStrategy(keys *ratelimit.KeyCache) *SignatureStrategy {
	return &SignatureStrategy{keys: keys}
}

// Verify parses and validates the credential as a signed token. A
// signature failure may mean the Network rotated its key, so the
// cache is invalidated and the check retried once before giving up.
func (s *SignatureStrategy) Verify(ctx context.Context, credential string) (*model.VerifiedIdentity, error) {
	identity, err := s.verifyOnce(ctx, credential)
	if err == nil {
		return identity, nil
	}
	if !errors.Is(err, model.ErrInvalidCredential) {
		return nil, err
	}

	// Force one key refresh in case of rotation
	s.keys.Invalidate()
	return s.verifyOnce(ctx, credential)
}

func (s *SignatureStrategy) verifyOnce(ctx context.Context, credential string) (*model.VerifiedIdentity, error) {
	keyPEM, err := s.keys.Get(ctx)
	if err != nil {
		return nil, err
	}

	key, err := parsePublicKey(keyPEM)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrUpstreamError, err)
	}

	var claims networkClaims
	_, err = jwt.ParseWithClaims(credential, &claims, func(t *jwt.Token) (any, error) {
		return key, nil
	}, jwt.WithValidMethods([]string{"ES256", "EdDSA"}))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrInvalidCredential, err)
	}

	if claims.Subject == "" || claims.Username == "" {
		return nil, fmt.Errorf("%w: token claims missing subject or username", model.ErrInvalidCredential)
	}

	return &model.VerifiedIdentity{
		ExternalID:    claims.Subject,
		DisplayName:   claims.Username,
		WalletAddress: claims.Wallet,
	}, nil
}

// parsePublicKey accepts either of the Network's published key types
func parsePublicKey(pemBytes []byte) (any, error) {
	if key, err := jwt.ParseECPublicKeyFromPEM(pemBytes); err == nil {
		return key, nil
	}
	return jwt.ParseEdPublicKeyFromPEM(pemBytes)
}
