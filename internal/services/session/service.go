package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/questforge/pigateway/internal/dependencies/clock"
	"github.com/questforge/pigateway/internal/model"
)

// Claims is the payload carried by a local session token. The
// Network credential is verified once at login; everything after
// that rides on these.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// PlayerID returns the player the session belongs to
func (c *Claims) PlayerID() model.PlayerID {
	return model.PlayerID(c.Subject)
}

// Config holds configuration for the session service
type Config struct {
	// Secret signs session tokens; required
	Secret string
	// TTL is the session lifetime
	TTL time.Duration
}

// DefaultConfig returns default session configuration (no secret)
func DefaultConfig() Config {
	return Config{
		TTL: 24 * time.Hour,
	}
}

// Service issues and validates local session tokens
type Service struct {
	secret []byte
	ttl    time.Duration
	clock  clock.Clock
}

// New creates a session service. A missing secret is a startup
// misconfiguration and is rejected here rather than at first use.
func New(cfg Config, clk clock.Clock) (*Service, error) {
	if cfg.Secret == "" {
		return nil, errors.New("session secret is required")
	}
	if cfg.TTL == 0 {
		cfg.TTL = DefaultConfig().TTL
	}
	return &Service{
		secret: []byte(cfg.Secret),
		ttl:    cfg.TTL,
		clock:  clk,
	}, nil
}

// Issue creates a signed session token for a player
func (s *Service) Issue(player *model.Player) (string, error) {
	now := s.clock.Now()
	claims := Claims{
		Role: string(player.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   string(player.ID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("signing session token: %w", err)
	}
	return signed, nil
}

// Validate parses a session token and returns its claims
func (s *Service) Validate(token string) (*Claims, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithTimeFunc(s.clock.Now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrInvalidSession, err)
	}
	if claims.Subject == "" {
		return nil, model.ErrInvalidSession
	}
	return &claims, nil
}
