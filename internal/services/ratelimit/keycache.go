package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/questforge/pigateway/internal/dependencies/clock"
	"github.com/questforge/pigateway/internal/pinet"
)

// KeyCache caches the Network's token-signing public key so the
// signature verifier does not refetch it on every request. A single
// process-wide slot, refreshed lazily, invalidated explicitly when a
// verification failure looks like key rotation.
type KeyCache struct {
	client pinet.Client
	clock  clock.Clock
	// ttl of zero means the key is cached until invalidated
	ttl time.Duration

	mu        sync.Mutex
	key       []byte
	fetchedAt time.Time
}

// NewKeyCache creates a key cache over the Network client
func NewKeyCache(client pinet.Client, clk clock.Clock, ttl time.Duration) *KeyCache {
	return &KeyCache{
		client: client,
		clock:  clk,
		ttl:    ttl,
	}
}

// Get returns the cached key, fetching it from the Network if the
// slot is empty or expired
func (c *KeyCache) Get(ctx context.Context) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.key != nil && (c.ttl == 0 || c.clock.Now().Sub(c.fetchedAt) < c.ttl) {
		return c.key, nil
	}

	key, err := c.client.PublicKey(ctx)
	if err != nil {
		return nil, err
	}

	c.key = key
	c.fetchedAt = c.clock.Now()
	return key, nil
}

// Invalidate empties the slot so the next Get refetches
func (c *KeyCache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.key = nil
}
