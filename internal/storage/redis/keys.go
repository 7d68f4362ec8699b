package redis

import (
	"fmt"

	"github.com/questforge/pigateway/internal/model"
)

// Key prefix for all gateway data
const keyPrefix = "piqgw"

// playerKey returns the Redis key for a Player
func playerKey(id model.PlayerID) string {
	return fmt.Sprintf("%s:player:%s", keyPrefix, id)
}

// paymentKey returns the Redis key for a PaymentRecord
func paymentKey(id model.PaymentID) string {
	return fmt.Sprintf("%s:payment:%s", keyPrefix, id)
}

// localIDIndexKey returns the Redis key for the
// (player, idempotency key) -> payment_id index
func localIDIndexKey(playerID model.PlayerID, localID model.LocalID) string {
	return fmt.Sprintf("%s:idx:local:%s:%s", keyPrefix, playerID, localID)
}
