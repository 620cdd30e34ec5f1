package state

import (
	"sync"

	"github.com/mvaillant/aria/internal/ads"
)

// Mock is an in-memory state manager for testing.
type Mock struct {
	mu       sync.Mutex
	snapshot *Snapshot
	ledger   *ads.MemoryLedger
	saves    int
}

// NewMock creates a new mock state manager.
func NewMock() *Mock {
	return &Mock{ledger: ads.NewMemoryLedger()}
}

func (m *Mock) GetSnapshot() (*Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.snapshot == nil {
		return &Snapshot{CurrentIndex: -1, Volume: 1.0}, nil
	}
	snap := *m.snapshot
	return &snap, nil
}

func (m *Mock) SaveSnapshot(snap Snapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snapshot = &snap
	m.saves++
}

func (m *Mock) Count(userID, adID string, day ads.Day) (int, error) {
	return m.ledger.Count(userID, adID, day)
}

func (m *Mock) Increment(userID, adID string, day ads.Day) error {
	return m.ledger.Increment(userID, adID, day)
}

func (m *Mock) Close() error { return nil }

// SaveCount returns how many snapshots were saved.
func (m *Mock) SaveCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}

// Verify Mock implements Interface at compile time.
var _ Interface = (*Mock)(nil)
