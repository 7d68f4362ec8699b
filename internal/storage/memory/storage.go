package memory

import (
	"context"
	"maps"
	"sync"
	"time"

	"github.com/questforge/pigateway/internal/model"
	"github.com/questforge/pigateway/internal/storage"
)

// Storage is an in-memory implementation of the storage interface
type Storage struct {
	mu sync.RWMutex

	players      map[model.PlayerID]*model.Player
	payments     map[model.PaymentID]*model.PaymentRecord
	localIDIndex map[localIDKey]model.PaymentID
}

type localIDKey struct {
	playerID model.PlayerID
	localID  model.LocalID
}

// New creates a new in-memory storage instance
func New() *Storage {
	return &Storage{
		players:      make(map[model.PlayerID]*model.Player),
		payments:     make(map[model.PaymentID]*model.PaymentRecord),
		localIDIndex: make(map[localIDKey]model.PaymentID),
	}
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// Player operations

func (s *Storage) CreatePlayer(ctx context.Context, player *model.Player) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.players[player.ID]; ok {
		return model.ErrPlayerExists
	}
	p := *player
	s.players[player.ID] = &p
	return nil
}

func (s *Storage) SavePlayer(ctx context.Context, player *model.Player) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := *player
	s.players[player.ID] = &p
	return nil
}

func (s *Storage) GetPlayer(ctx context.Context, id model.PlayerID) (*model.Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	player, ok := s.players[id]
	if !ok {
		return nil, model.ErrPlayerNotFound
	}
	p := *player
	return &p, nil
}

// Payment operations

func (s *Storage) CreatePayment(ctx context.Context, payment *model.PaymentRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.payments[payment.PaymentID] = clonePayment(payment)
	if payment.LocalID != "" {
		s.localIDIndex[localIDKey{payment.PlayerID, payment.LocalID}] = payment.PaymentID
	}
	return nil
}

func (s *Storage) GetPayment(ctx context.Context, id model.PaymentID) (*model.PaymentRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	payment, ok := s.payments[id]
	if !ok {
		return nil, model.ErrPaymentNotFound
	}
	return clonePayment(payment), nil
}

func (s *Storage) GetPaymentByLocalID(ctx context.Context, playerID model.PlayerID, localID model.LocalID) (*model.PaymentRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.localIDIndex[localIDKey{playerID, localID}]
	if !ok {
		return nil, model.ErrPaymentNotFound
	}
	payment, ok := s.payments[id]
	if !ok {
		return nil, model.ErrPaymentNotFound
	}
	return clonePayment(payment), nil
}

func (s *Storage) UpdatePaymentState(ctx context.Context, id model.PaymentID, expected, next model.PaymentState, txid string, now time.Time) (*model.PaymentRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	payment, ok := s.payments[id]
	if !ok {
		return nil, model.ErrPaymentNotFound
	}
	if payment.State != expected {
		return nil, model.ErrInvalidTransition
	}
	payment.State = next
	if txid != "" {
		payment.TxID = txid
	}
	payment.UpdatedAt = now
	return clonePayment(payment), nil
}

// clonePayment copies a record including its metadata map, so stored
// state and returned records never alias
func clonePayment(payment *model.PaymentRecord) *model.PaymentRecord {
	p := *payment
	p.Metadata = maps.Clone(payment.Metadata)
	return &p
}
