package verifier

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"encoding/pem"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/suite"

	"github.com/questforge/pigateway/internal/dependencies/mocks"
	"github.com/questforge/pigateway/internal/model"
	"github.com/questforge/pigateway/internal/services/ratelimit"
)

type SignatureStrategySuite struct {
	suite.Suite
	network  *mocks.MockNetwork
	clock    *mocks.MockClock
	keys     *ratelimit.KeyCache
	strategy *SignatureStrategy
	ctx      context.Context

	privKey *ecdsa.PrivateKey
}

func TestSignatureStrategySuite(t *testing.T) {
	suite.Run(t, new(SignatureStrategySuite))
}

func (s *SignatureStrategySuite) SetupTest() {
	s.network = mocks.NewMockNetwork()
	s.clock = mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	s.keys = ratelimit.NewKeyCache(s.network, s.clock, 0)
	s.strategy = NewSignatureStrategy(s.keys)
	s.ctx = context.Background()

	s.privKey = s.generateKey()
	s.network.Key = s.publicPEM(s.privKey)
}

func (s *SignatureStrategySuite) generateKey() *ecdsa.PrivateKey {
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	s.Require().NoError(err)
	return key
}

func (s *SignatureStrategySuite) publicPEM(key *ecdsa.PrivateKey) []byte {
	der, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	s.Require().NoError(err)
	return pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der})
}

func (s *SignatureStrategySuite) signToken(key *ecdsa.PrivateKey, claims networkClaims) string {
	token := jwt.NewWithClaims(jwt.SigningMethodES256, claims)
	signed, err := token.SignedString(key)
	s.Require().NoError(err)
	return signed
}

func (s *SignatureStrategySuite) TestVerifyValidToken() {
	wallet := "GWALLET"
	credential := s.signToken(s.privKey, networkClaims{
		Username: "alice",
		Wallet:   &wallet,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "uid-1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})

	identity, err := s.strategy.Verify(s.ctx, credential)
	s.Require().NoError(err)
	s.Equal("uid-1", identity.ExternalID)
	s.Equal("alice", identity.DisplayName)
	s.Require().NotNil(identity.WalletAddress)
	s.Equal("GWALLET", *identity.WalletAddress)

	// No upstream identity call for signature verification
	s.Equal(0, s.network.MeCalls)
}

func (s *SignatureStrategySuite) TestVerifyGarbageToken() {
	_, err := s.strategy.Verify(s.ctx, "not-a-jwt")
	s.ErrorIs(err, model.ErrInvalidCredential)
}

func (s *SignatureStrategySuite) TestVerifyWrongKey() {
	other := s.generateKey()
	credential := s.signToken(other, networkClaims{
		Username: "mallory",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "uid-9",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})

	_, err := s.strategy.Verify(s.ctx, credential)
	s.ErrorIs(err, model.ErrInvalidCredential)
}

func (s *SignatureStrategySuite) TestVerifyExpiredToken() {
	credential := s.signToken(s.privKey, networkClaims{
		Username: "alice",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "uid-1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		},
	})

	_, err := s.strategy.Verify(s.ctx, credential)
	s.ErrorIs(err, model.ErrInvalidCredential)
}

func (s *SignatureStrategySuite) TestVerifyMissingClaims() {
	credential := s.signToken(s.privKey, networkClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})

	_, err := s.strategy.Verify(s.ctx, credential)
	s.ErrorIs(err, model.ErrInvalidCredential)
}

func (s *SignatureStrategySuite) TestKeyRotationRetry() {
	// Warm the cache with the old key
	_, err := s.keys.Get(s.ctx)
	s.Require().NoError(err)
	s.Equal(1, s.network.KeyCalls)

	// Network rotates its key; tokens are now signed with the new one
	newKey := s.generateKey()
	s.network.Key = s.publicPEM(newKey)

	credential := s.signToken(newKey, networkClaims{
		Username: "alice",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "uid-1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})

	identity, err := s.strategy.Verify(s.ctx, credential)
	s.Require().NoError(err)
	s.Equal("uid-1", identity.ExternalID)
	s.Equal(2, s.network.KeyCalls, "stale key should have been refetched once")
}
