package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/questforge/pigateway/internal/dependencies/mocks"
	"github.com/questforge/pigateway/internal/model"
)

type ServiceSuite struct {
	suite.Suite
	clock   *mocks.MockClock
	service *Service
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.clock = mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))

	service, err := New(Config{Secret: "test-secret", TTL: time.Hour}, s.clock)
	s.Require().NoError(err)
	s.service = service
}

func (s *ServiceSuite) testPlayer() *model.Player {
	return &model.Player{
		ID:          "uid-1",
		DisplayName: "alice",
		Role:        model.RoleUser,
	}
}

func (s *ServiceSuite) TestMissingSecretRejected() {
	_, err := New(Config{}, s.clock)
	s.Error(err)
}

func (s *ServiceSuite) TestIssueAndValidate() {
	token, err := s.service.Issue(s.testPlayer())
	s.Require().NoError(err)
	s.NotEmpty(token)

	claims, err := s.service.Validate(token)
	s.Require().NoError(err)
	s.Equal(model.PlayerID("uid-1"), claims.PlayerID())
	s.Equal("user", claims.Role)
}

func (s *ServiceSuite) TestExpiredTokenRejected() {
	token, err := s.service.Issue(s.testPlayer())
	s.Require().NoError(err)

	s.clock.Advance(2 * time.Hour)

	_, err = s.service.Validate(token)
	s.ErrorIs(err, model.ErrInvalidSession)
}

func (s *ServiceSuite) TestValidWithinTTL() {
	token, err := s.service.Issue(s.testPlayer())
	s.Require().NoError(err)

	s.clock.Advance(30 * time.Minute)

	_, err = s.service.Validate(token)
	s.NoError(err)
}

func (s *ServiceSuite) TestGarbageTokenRejected() {
	_, err := s.service.Validate("not-a-token")
	s.ErrorIs(err, model.ErrInvalidSession)
}

func (s *ServiceSuite) TestWrongSecretRejected() {
	other, err := New(Config{Secret: "other-secret", TTL: time.Hour}, s.clock)
	s.Require().NoError(err)

	token, err := other.Issue(s.testPlayer())
	s.Require().NoError(err)

	_, err = s.service.Validate(token)
	s.ErrorIs(err, model.ErrInvalidSession)
}
