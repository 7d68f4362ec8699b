package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/questforge/pigateway/internal/model"
	"github.com/questforge/pigateway/internal/storage"
)

// Storage is a Redis-backed implementation of the storage interface
type Storage struct {
	client *redis.Client
	cfg    Config
}

// New creates a new Redis storage instance
func New(cfg Config) (*Storage, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns

	client := redis.NewClient(opts)

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &Storage{
		client: client,
		cfg:    cfg,
	}, nil
}

// NewWithClient creates a Redis storage with an existing client (for testing)
func NewWithClient(client *redis.Client, cfg Config) *Storage {
	return &Storage{
		client: client,
		cfg:    cfg,
	}
}

// Close closes the Redis connection
func (s *Storage) Close() error {
	return s.client.Close()
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// Player operations

func (s *Storage) CreatePlayer(ctx context.Context, player *model.Player) error {
	data, err := json.Marshal(player)
	if err != nil {
		return err
	}

	// SET NX is the uniqueness guard on the external id
	set, err := s.client.SetNX(ctx, playerKey(player.ID), data, 0).Result()
	if err != nil {
		return err
	}
	if !set {
		return model.ErrPlayerExists
	}
	return nil
}

func (s *Storage) SavePlayer(ctx context.Context, player *model.Player) error {
	data, err := json.Marshal(player)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, playerKey(player.ID), data, 0).Err()
}

func (s *Storage) GetPlayer(ctx context.Context, id model.PlayerID) (*model.Player, error) {
	data, err := s.client.Get(ctx, playerKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrPlayerNotFound
		}
		return nil, err
	}

	var player model.Player
	if err := json.Unmarshal(data, &player); err != nil {
		return nil, err
	}
	return &player, nil
}

// Payment operations

func (s *Storage) CreatePayment(ctx context.Context, payment *model.PaymentRecord) error {
	data, err := json.Marshal(payment)
	if err != nil {
		return err
	}

	// Use pipeline for atomic save + index update
	pipe := s.client.Pipeline()
	pipe.Set(ctx, paymentKey(payment.PaymentID), data, 0)
	if payment.LocalID != "" {
		pipe.Set(ctx, localIDIndexKey(payment.PlayerID, payment.LocalID), string(payment.PaymentID), 0)
	}
	_, err = pipe.Exec(ctx)
	return err
}

func (s *Storage) GetPayment(ctx context.Context, id model.PaymentID) (*model.PaymentRecord, error) {
	data, err := s.client.Get(ctx, paymentKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrPaymentNotFound
		}
		return nil, err
	}

	var payment model.PaymentRecord
	if err := json.Unmarshal(data, &payment); err != nil {
		return nil, err
	}
	return &payment, nil
}

func (s *Storage) GetPaymentByLocalID(ctx context.Context, playerID model.PlayerID, localID model.LocalID) (*model.PaymentRecord, error) {
	paymentIDStr, err := s.client.Get(ctx, localIDIndexKey(playerID, localID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrPaymentNotFound
		}
		return nil, err
	}

	return s.GetPayment(ctx, model.PaymentID(paymentIDStr))
}

func (s *Storage) UpdatePaymentState(ctx context.Context, id model.PaymentID, expected, next model.PaymentState, txid string, now time.Time) (*model.PaymentRecord, error) {
	key := paymentKey(id)
	var updated *model.PaymentRecord

	// WATCH gives an atomic check-and-set: if another transition
	// touches the record between read and write, the transaction
	// aborts and we report the conflict
	txn := func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, key).Bytes()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				return model.ErrPaymentNotFound
			}
			return err
		}

		var payment model.PaymentRecord
		if err := json.Unmarshal(data, &payment); err != nil {
			return err
		}

		if payment.State != expected {
			return model.ErrInvalidTransition
		}

		payment.State = next
		if txid != "" {
			payment.TxID = txid
		}
		payment.UpdatedAt = now

		newData, err := json.Marshal(&payment)
		if err != nil {
			return err
		}

		var ttl time.Duration
		if next.IsTerminal() && s.cfg.CompletedPaymentTTL > 0 {
			ttl = s.cfg.CompletedPaymentTTL
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, newData, ttl)
			return nil
		})
		if err != nil {
			return err
		}

		updated = &payment
		return nil
	}

	if err := s.client.Watch(ctx, txn, key); err != nil {
		if errors.Is(err, redis.TxFailedErr) {
			// Lost the race to a concurrent transition
			return nil, model.ErrInvalidTransition
		}
		return nil, err
	}
	return updated, nil
}
