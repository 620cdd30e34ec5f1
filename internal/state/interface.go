// internal/state/interface.go
package state

import "github.com/mvaillant/aria/internal/ads"

// Interface defines the state manager contract for dependency injection
// and testing.
type Interface interface {
	GetSnapshot() (*Snapshot, error)
	SaveSnapshot(snap Snapshot)
	Count(userID, adID string, day ads.Day) (int, error)
	Increment(userID, adID string, day ads.Day) error
	Close() error
}

// Verify Manager implements Interface at compile time.
var _ Interface = (*Manager)(nil)
