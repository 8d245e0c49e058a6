package cache

import (
	"sync"

	"github.com/tradecore/client/account"
)

// MemoryStore is an in-process snapshot store for tests and ephemeral
// sessions.
type MemoryStore struct {
	mu   sync.Mutex
	snap *account.Snapshot
}

func NewMemory() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) Save(snap account.Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := snap
	cp.Accounts = make([]account.Account, len(snap.Accounts))
	copy(cp.Accounts, snap.Accounts)
	m.snap = &cp
	return nil
}

func (m *MemoryStore) Load() (account.Snapshot, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.snap == nil {
		return account.Snapshot{}, false, nil
	}
	return *m.snap, true, nil
}

func (m *MemoryStore) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snap = nil
	return nil
}
