package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	"github.com/questforge/pigateway/internal/model"
)

type StorageSuite struct {
	suite.Suite
	mini    *miniredis.Miniredis
	storage *Storage
	ctx     context.Context
	now     time.Time
}

func TestStorageSuite(t *testing.T) {
	suite.Run(t, new(StorageSuite))
}

func (s *StorageSuite) SetupTest() {
	s.mini = miniredis.RunT(s.T())

	client := redis.NewClient(&redis.Options{
		Addr: s.mini.Addr(),
	})

	cfg := DefaultConfig()
	cfg.CompletedPaymentTTL = time.Hour

	s.storage = NewWithClient(client, cfg)
	s.ctx = context.Background()
	s.now = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
}

func (s *StorageSuite) TearDownTest() {
	if s.storage != nil {
		_ = s.storage.Close()
	}
	if s.mini != nil {
		s.mini.Close()
	}
}

func (s *StorageSuite) testPlayer(id string) *model.Player {
	return &model.Player{
		ID:          model.PlayerID(id),
		DisplayName: "Player " + id,
		Role:        model.RoleUser,
		CreatedAt:   s.now,
		UpdatedAt:   s.now,
	}
}

func (s *StorageSuite) testPayment(id, player string, state model.PaymentState) *model.PaymentRecord {
	return &model.PaymentRecord{
		PaymentID: model.PaymentID(id),
		LocalID:   model.LocalID("local-" + id),
		PlayerID:  model.PlayerID(player),
		Amount:    decimal.RequireFromString("0.5"),
		Memo:      "test payment",
		Metadata:  map[string]any{"order": "o1"},
		State:     state,
		CreatedAt: s.now,
		UpdatedAt: s.now,
	}
}

func (s *StorageSuite) TestCreateAndGetPlayer() {
	s.Require().NoError(s.storage.CreatePlayer(s.ctx, s.testPlayer("p1")))

	got, err := s.storage.GetPlayer(s.ctx, "p1")
	s.Require().NoError(err)
	s.Equal("Player p1", got.DisplayName)
	s.Equal(model.RoleUser, got.Role)
}

func (s *StorageSuite) TestCreatePlayerDuplicate() {
	s.Require().NoError(s.storage.CreatePlayer(s.ctx, s.testPlayer("p1")))

	err := s.storage.CreatePlayer(s.ctx, s.testPlayer("p1"))
	s.ErrorIs(err, model.ErrPlayerExists)
}

func (s *StorageSuite) TestGetPlayerNotFound() {
	_, err := s.storage.GetPlayer(s.ctx, "missing")
	s.ErrorIs(err, model.ErrPlayerNotFound)
}

func (s *StorageSuite) TestSavePlayerUpdates() {
	player := s.testPlayer("p1")
	s.Require().NoError(s.storage.CreatePlayer(s.ctx, player))

	player.DisplayName = "renamed"
	s.Require().NoError(s.storage.SavePlayer(s.ctx, player))

	got, err := s.storage.GetPlayer(s.ctx, "p1")
	s.Require().NoError(err)
	s.Equal("renamed", got.DisplayName)
}

func (s *StorageSuite) TestCreateAndGetPayment() {
	payment := s.testPayment("pay1", "p1", model.PaymentStateCreated)
	s.Require().NoError(s.storage.CreatePayment(s.ctx, payment))

	got, err := s.storage.GetPayment(s.ctx, "pay1")
	s.Require().NoError(err)
	s.Equal(model.PaymentStateCreated, got.State)
	s.True(got.Amount.Equal(payment.Amount))
	s.Equal("o1", got.Metadata["order"])
}

func (s *StorageSuite) TestGetPaymentNotFound() {
	_, err := s.storage.GetPayment(s.ctx, "missing")
	s.ErrorIs(err, model.ErrPaymentNotFound)
}

func (s *StorageSuite) TestGetPaymentByLocalID() {
	s.Require().NoError(s.storage.CreatePayment(s.ctx, s.testPayment("pay1", "p1", model.PaymentStateCreated)))

	got, err := s.storage.GetPaymentByLocalID(s.ctx, "p1", "local-pay1")
	s.Require().NoError(err)
	s.Equal(model.PaymentID("pay1"), got.PaymentID)

	// Keys are scoped per player
	_, err = s.storage.GetPaymentByLocalID(s.ctx, "p2", "local-pay1")
	s.ErrorIs(err, model.ErrPaymentNotFound)
}

func (s *StorageSuite) TestUpdatePaymentState() {
	s.Require().NoError(s.storage.CreatePayment(s.ctx, s.testPayment("pay1", "p1", model.PaymentStateCreated)))

	later := s.now.Add(time.Minute)
	got, err := s.storage.UpdatePaymentState(s.ctx, "pay1", model.PaymentStateCreated, model.PaymentStateSubmitted, "tx_1", later)
	s.Require().NoError(err)
	s.Equal(model.PaymentStateSubmitted, got.State)
	s.Equal("tx_1", got.TxID)

	// Round-trips through storage
	stored, err := s.storage.GetPayment(s.ctx, "pay1")
	s.Require().NoError(err)
	s.Equal(model.PaymentStateSubmitted, stored.State)
	s.Equal("tx_1", stored.TxID)
}

func (s *StorageSuite) TestUpdatePaymentStateConditionMismatch() {
	s.Require().NoError(s.storage.CreatePayment(s.ctx, s.testPayment("pay1", "p1", model.PaymentStateSubmitted)))

	_, err := s.storage.UpdatePaymentState(s.ctx, "pay1", model.PaymentStateCreated, model.PaymentStateCancelled, "", s.now)
	s.ErrorIs(err, model.ErrInvalidTransition)

	got, err := s.storage.GetPayment(s.ctx, "pay1")
	s.Require().NoError(err)
	s.Equal(model.PaymentStateSubmitted, got.State)
}

func (s *StorageSuite) TestUpdatePaymentStateNotFound() {
	_, err := s.storage.UpdatePaymentState(s.ctx, "missing", model.PaymentStateCreated, model.PaymentStateCancelled, "", s.now)
	s.ErrorIs(err, model.ErrPaymentNotFound)
}

func (s *StorageSuite) TestTerminalPaymentGetsTTL() {
	s.Require().NoError(s.storage.CreatePayment(s.ctx, s.testPayment("pay1", "p1", model.PaymentStateSubmitted)))

	_, err := s.storage.UpdatePaymentState(s.ctx, "pay1", model.PaymentStateSubmitted, model.PaymentStateCompleted, "tx_1", s.now)
	s.Require().NoError(err)

	// Terminal records expire per config
	s.True(s.mini.TTL(paymentKey("pay1")) > 0)

	s.mini.FastForward(2 * time.Hour)
	_, err = s.storage.GetPayment(s.ctx, "pay1")
	s.ErrorIs(err, model.ErrPaymentNotFound)
}
