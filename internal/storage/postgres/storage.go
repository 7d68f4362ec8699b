package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	_ "github.com/lib/pq"

	"github.com/questforge/pigateway/internal/model"
	"github.com/questforge/pigateway/internal/storage"
)

// schema is applied on startup. The unique primary keys on
// players.id and payments.payment_id, plus the unique
// (player_id, local_id) pair, are the authoritative guards behind
// the gateway's idempotency contracts.
const schema = `
CREATE TABLE IF NOT EXISTS players (
	id             TEXT PRIMARY KEY,
	display_name   TEXT NOT NULL,
	wallet_address TEXT,
	role           TEXT NOT NULL DEFAULT 'user',
	created_at     TIMESTAMPTZ NOT NULL,
	updated_at     TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS payments (
	payment_id TEXT PRIMARY KEY,
	local_id   TEXT,
	player_id  TEXT NOT NULL REFERENCES players(id),
	amount     NUMERIC(20, 7) NOT NULL,
	memo       TEXT NOT NULL,
	metadata   JSONB NOT NULL DEFAULT '{}',
	state      TEXT NOT NULL,
	txid       TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);

CREATE UNIQUE INDEX IF NOT EXISTS payments_player_local_idx
	ON payments (player_id, local_id) WHERE local_id <> '';
`

// Storage is a Postgres-backed implementation of the storage interface
type Storage struct {
	db *sql.DB
}

// New opens a Postgres connection and ensures the schema exists
func New(connStr string) (*Storage, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return nil, err
	}

	return &Storage{db: db}, nil
}

// NewWithDB creates a Postgres storage around an existing handle (for testing)
func NewWithDB(db *sql.DB) *Storage {
	return &Storage{db: db}
}

// Close closes the database connection
func (s *Storage) Close() error {
	return s.db.Close()
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// Player operations

func (s *Storage) CreatePlayer(ctx context.Context, player *model.Player) error {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO players (id, display_name, wallet_address, role, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO NOTHING
	`, player.ID, player.DisplayName, player.WalletAddress, player.Role, player.CreatedAt, player.UpdatedAt)
	if err != nil {
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return model.ErrPlayerExists
	}
	return nil
}

func (s *Storage) SavePlayer(ctx context.Context, player *model.Player) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO players (id, display_name, wallet_address, role, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE
		SET display_name = EXCLUDED.display_name,
		    wallet_address = EXCLUDED.wallet_address,
		    updated_at = EXCLUDED.updated_at
	`, player.ID, player.DisplayName, player.WalletAddress, player.Role, player.CreatedAt, player.UpdatedAt)
	return err
}

func (s *Storage) GetPlayer(ctx context.Context, id model.PlayerID) (*model.Player, error) {
	var p model.Player
	err := s.db.QueryRowContext(ctx, `
		SELECT id, display_name, wallet_address, role, created_at, updated_at
		FROM players
		WHERE id = $1
	`, id).Scan(&p.ID, &p.DisplayName, &p.WalletAddress, &p.Role, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrPlayerNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Payment operations

func (s *Storage) CreatePayment(ctx context.Context, payment *model.PaymentRecord) error {
	metadata, err := json.Marshal(payment.Metadata)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO payments (payment_id, local_id, player_id, amount, memo, metadata, state, txid, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, payment.PaymentID, payment.LocalID, payment.PlayerID, payment.Amount, payment.Memo,
		metadata, payment.State, payment.TxID, payment.CreatedAt, payment.UpdatedAt)
	return err
}

func (s *Storage) GetPayment(ctx context.Context, id model.PaymentID) (*model.PaymentRecord, error) {
	return s.scanPayment(s.db.QueryRowContext(ctx, `
		SELECT payment_id, local_id, player_id, amount, memo, metadata, state, txid, created_at, updated_at
		FROM payments
		WHERE payment_id = $1
	`, id))
}

func (s *Storage) GetPaymentByLocalID(ctx context.Context, playerID model.PlayerID, localID model.LocalID) (*model.PaymentRecord, error) {
	return s.scanPayment(s.db.QueryRowContext(ctx, `
		SELECT payment_id, local_id, player_id, amount, memo, metadata, state, txid, created_at, updated_at
		FROM payments
		WHERE player_id = $1 AND local_id = $2
	`, playerID, localID))
}

func (s *Storage) UpdatePaymentState(ctx context.Context, id model.PaymentID, expected, next model.PaymentState, txid string, now time.Time) (*model.PaymentRecord, error) {
	// Conditional update: the WHERE clause on state is the atomic
	// optimistic check
	payment, err := s.scanPayment(s.db.QueryRowContext(ctx, `
		UPDATE payments
		SET state = $1,
		    txid = CASE WHEN $2 <> '' THEN $2 ELSE txid END,
		    updated_at = $3
		WHERE payment_id = $4 AND state = $5
		RETURNING payment_id, local_id, player_id, amount, memo, metadata, state, txid, created_at, updated_at
	`, next, txid, now, id, expected))
	if errors.Is(err, model.ErrPaymentNotFound) {
		// Distinguish a missing record from a lost optimistic race
		if _, getErr := s.GetPayment(ctx, id); getErr == nil {
			return nil, model.ErrInvalidTransition
		}
		return nil, model.ErrPaymentNotFound
	}
	return payment, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (s *Storage) scanPayment(row rowScanner) (*model.PaymentRecord, error) {
	var p model.PaymentRecord
	var metadata []byte
	err := row.Scan(&p.PaymentID, &p.LocalID, &p.PlayerID, &p.Amount, &p.Memo,
		&metadata, &p.State, &p.TxID, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrPaymentNotFound
	}
	if err != nil {
		return nil, err
	}
	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &p.Metadata); err != nil {
			return nil, err
		}
	}
	return &p, nil
}
