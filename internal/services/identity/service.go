package identity

import (
	"context"
	"errors"

	"github.com/questforge/pigateway/internal/dependencies/clock"
	"github.com/questforge/pigateway/internal/model"
	"github.com/questforge/pigateway/internal/storage"
)

// Service maps verified identities to local player records
type Service struct {
	storage storage.Storage
	clock   clock.Clock
}

// New creates an identity provisioner
func New(storage storage.Storage, clk clock.Clock) *Service {
	return &Service{
		storage: storage,
		clock:   clk,
	}
}

// Provision returns the player for a verified identity, creating one
// on first sight. Profile fields (display name, wallet) are refreshed
// from the identity on subsequent logins; role is server-assigned and
// never re-derived. Idempotent: the storage uniqueness guard on the
// external id means a racing create resolves to the same player.
func (s *Service) Provision(ctx context.Context, identity *model.VerifiedIdentity) (*model.Player, error) {
	playerID := model.PlayerID(identity.ExternalID)
	now := s.clock.Now()

	player, err := s.storage.GetPlayer(ctx, playerID)
	if errors.Is(err, model.ErrPlayerNotFound) {
		created := &model.Player{
			ID:            playerID,
			DisplayName:   identity.DisplayName,
			WalletAddress: identity.WalletAddress,
			Role:          model.RoleUser,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		err = s.storage.CreatePlayer(ctx, created)
		if errors.Is(err, model.ErrPlayerExists) {
			// Lost the race to a concurrent first login; the winner's
			// record is authoritative
			return s.storage.GetPlayer(ctx, playerID)
		}
		if err != nil {
			return nil, err
		}
		return created, nil
	}
	if err != nil {
		return nil, err
	}

	if player.DisplayName != identity.DisplayName || !walletEqual(player.WalletAddress, identity.WalletAddress) {
		player.DisplayName = identity.DisplayName
		player.WalletAddress = identity.WalletAddress
		player.UpdatedAt = now
		if err := s.storage.SavePlayer(ctx, player); err != nil {
			return nil, err
		}
	}

	return player, nil
}

// Lookup returns a player by id
func (s *Service) Lookup(ctx context.Context, id model.PlayerID) (*model.Player, error) {
	return s.storage.GetPlayer(ctx, id)
}

func walletEqual(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
