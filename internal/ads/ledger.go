package ads

import (
	"sync"
	"time"
)

// Day is a calendar-day ledger key. Entries for a prior day are never read
// again once the key rolls over; they are not actively purged.
type Day string

// DayOf returns the ledger day key for the given time.
func DayOf(t time.Time) Day {
	return Day(t.Format("2006-01-02"))
}

// LedgerStore tracks per-user, per-ad daily play counts.
//
// The store may be shared across sessions of the same user; last-write-wins
// on the counter is acceptable since the cap is a soft limit, not a
// security boundary.
type LedgerStore interface {
	Count(userID, adID string, day Day) (int, error)
	Increment(userID, adID string, day Day) error
}

// MemoryLedger is an in-memory LedgerStore for tests and ephemeral use.
type MemoryLedger struct {
	mu     sync.Mutex
	counts map[string]int
}

// NewMemoryLedger creates an empty in-memory ledger.
func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{counts: make(map[string]int)}
}

func ledgerKey(userID, adID string, day Day) string {
	return userID + "\x00" + adID + "\x00" + string(day)
}

func (m *MemoryLedger) Count(userID, adID string, day Day) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.counts[ledgerKey(userID, adID, day)], nil
}

func (m *MemoryLedger) Increment(userID, adID string, day Day) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counts[ledgerKey(userID, adID, day)]++
	return nil
}

// Verify MemoryLedger implements LedgerStore at compile time.
var _ LedgerStore = (*MemoryLedger)(nil)
