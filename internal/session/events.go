package session

import (
	"time"

	"github.com/mvaillant/aria/internal/ads"
	"github.com/mvaillant/aria/internal/queue"
)

// StateChange is emitted when the session state changes.
type StateChange struct {
	Previous State
	Current  State
}

// TrackChange is emitted when playback starts on a different track.
// During ad playback the upcoming track is already the queue's current; the
// event only fires once the track itself starts loading.
type TrackChange struct {
	Previous *queue.Track
	Current  *queue.Track
	Index    int
}

// AdChange is emitted when an ad starts or stops playing.
// Ad is nil when ad playback has ended.
type AdChange struct {
	Ad *ads.Advertisement
}

// PositionChange is emitted on throttled progress updates and seeks.
type PositionChange struct {
	Position time.Duration
}

// QueueChange is emitted when the queue contents change.
type QueueChange struct {
	Tracks []queue.Track
	Index  int
}

// ModeChange is emitted when repeat or shuffle mode changes.
type ModeChange struct {
	RepeatMode queue.RepeatMode
	Shuffle    bool
}

// VolumeChange is emitted when the volume changes.
type VolumeChange struct {
	Level float64
}

// Notice is a transient, non-blocking user notification (media errors).
type Notice struct {
	Text string
}
