// internal/session/state.go
package session

// State represents the playback session state.
//
// The machine is reentrant for the lifetime of the session:
//
//	Idle ──play──▶ LoadingAd ──ready──▶ PlayingAd ──ended/skip──▶ LoadingTrack
//	  │                │                                               │
//	  │            ad failure ─────────────────────────────────────────┤
//	  │                                                             ready
//	  └──play (no ad) ─▶ LoadingTrack ──ready──▶ PlayingTrack ◀────────┘
//	                                                │  ▲
//	                                          pause │  │ play
//	                                                ▼  │
//	                                              Paused
//
// A track's ended event advances the queue (or restarts on repeat-one);
// with no next track the machine rests in Ended. Stop returns to Idle from
// anywhere.
type State int

const (
	StateIdle State = iota
	StateLoadingAd
	StatePlayingAd
	StateLoadingTrack
	StatePlayingTrack
	StatePaused
	StateEnded
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateLoadingAd:
		return "LoadingAd"
	case StatePlayingAd:
		return "PlayingAd"
	case StateLoadingTrack:
		return "LoadingTrack"
	case StatePlayingTrack:
		return "PlayingTrack"
	case StatePaused:
		return "Paused"
	case StateEnded:
		return "Ended"
	default:
		return "Unknown"
	}
}

// IsActive returns true if a track or ad is loaded (anything but Idle/Ended).
func (s State) IsActive() bool {
	return s != StateIdle && s != StateEnded
}

// Tier is the entitlement classification controlling ad insertion and skip
// rights.
type Tier int

const (
	TierFree Tier = iota
	TierPremium
)

// String returns the tier name.
func (t Tier) String() string {
	switch t {
	case TierPremium:
		return "premium"
	default:
		return "free"
	}
}

// EntitlementFunc resolves the caller's tier. It is re-read on every play
// request, not cached. A resolution error fails open to free for playback
// and fails closed for premium-only actions.
type EntitlementFunc func() (Tier, error)
