package payment

import (
	"sync"

	"github.com/questforge/pigateway/internal/model"
)

// keyedLocks serializes transitions per payment id. Callers touching
// different payments proceed fully in parallel; callers targeting the
// same payment queue behind one another, which is what guarantees at
// most one Network-mutating call per payment per transition.
type keyedLocks struct {
	mu    sync.Mutex
	locks map[model.PaymentID]*lockEntry
}

type lockEntry struct {
	mu   sync.Mutex
	refs int
}

func newKeyedLocks() *keyedLocks {
	return &keyedLocks{
		locks: make(map[model.PaymentID]*lockEntry),
	}
}

func (k *keyedLocks) lock(id model.PaymentID) {
	k.mu.Lock()
	entry, ok := k.locks[id]
	if !ok {
		entry = &lockEntry{}
		k.locks[id] = entry
	}
	entry.refs++
	k.mu.Unlock()

	entry.mu.Lock()
}

func (k *keyedLocks) unlock(id model.PaymentID) {
	k.mu.Lock()
	entry := k.locks[id]
	entry.refs--
	if entry.refs == 0 {
		delete(k.locks, id)
	}
	k.mu.Unlock()

	entry.mu.Unlock()
}
