package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/questforge/pigateway/internal/dependencies/mocks"
)

type MemoryLimiterSuite struct {
	suite.Suite
	clock   *mocks.MockClock
	limiter *MemoryLimiter
	ctx     context.Context
}

func TestMemoryLimiterSuite(t *testing.T) {
	suite.Run(t, new(MemoryLimiterSuite))
}

func (s *MemoryLimiterSuite) SetupTest() {
	s.clock = mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	s.limiter = NewMemoryLimiter(Config{Limit: 3, Window: time.Minute}, s.clock)
	s.ctx = context.Background()
}

func (s *MemoryLimiterSuite) TestAllowsUpToLimit() {
	for i := 0; i < 3; i++ {
		allowed, err := s.limiter.Allow(s.ctx, "subject")
		s.Require().NoError(err)
		s.True(allowed, "attempt %d should be allowed", i+1)
	}

	allowed, err := s.limiter.Allow(s.ctx, "subject")
	s.Require().NoError(err)
	s.False(allowed, "attempt past the limit should be blocked")
}

func (s *MemoryLimiterSuite) TestWindowResets() {
	for i := 0; i < 3; i++ {
		_, _ = s.limiter.Allow(s.ctx, "subject")
	}
	allowed, err := s.limiter.Allow(s.ctx, "subject")
	s.Require().NoError(err)
	s.False(allowed)

	s.clock.Advance(time.Minute)

	allowed, err = s.limiter.Allow(s.ctx, "subject")
	s.Require().NoError(err)
	s.True(allowed)
}

func (s *MemoryLimiterSuite) TestSubjectsIndependent() {
	for i := 0; i < 3; i++ {
		_, _ = s.limiter.Allow(s.ctx, "a")
	}
	allowed, err := s.limiter.Allow(s.ctx, "a")
	s.Require().NoError(err)
	s.False(allowed)

	allowed, err = s.limiter.Allow(s.ctx, "b")
	s.Require().NoError(err)
	s.True(allowed)
}

func (s *MemoryLimiterSuite) TestPrune() {
	_, _ = s.limiter.Allow(s.ctx, "a")
	_, _ = s.limiter.Allow(s.ctx, "b")
	s.Len(s.limiter.windows, 2)

	s.clock.Advance(time.Minute)
	_, _ = s.limiter.Allow(s.ctx, "c")
	s.limiter.Prune()

	s.Len(s.limiter.windows, 1)
}

func TestSubject(t *testing.T) {
	a := Subject("credential-a")
	b := Subject("credential-b")

	if a == b {
		t.Fatal("distinct credentials should map to distinct subjects")
	}
	if a != Subject("credential-a") {
		t.Fatal("subject should be stable for the same credential")
	}
	if a == "credential-a" {
		t.Fatal("subject should not expose the raw credential")
	}
}
