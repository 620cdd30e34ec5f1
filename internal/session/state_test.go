// internal/session/state_test.go
package session

import "testing"

func TestState_String(t *testing.T) {
	tests := []struct {
		state State
		want  string
	}{
		{StateIdle, "Idle"},
		{StateLoadingAd, "LoadingAd"},
		{StatePlayingAd, "PlayingAd"},
		{StateLoadingTrack, "LoadingTrack"},
		{StatePlayingTrack, "PlayingTrack"},
		{StatePaused, "Paused"},
		{StateEnded, "Ended"},
		{State(99), "Unknown"},
	}
	for _, tt := range tests {
		if got := tt.state.String(); got != tt.want {
			t.Errorf("%d.String() = %q, want %q", tt.state, got, tt.want)
		}
	}
}

func TestState_IsActive(t *testing.T) {
	tests := []struct {
		state State
		want  bool
	}{
		{StateIdle, false},
		{StateLoadingAd, true},
		{StatePlayingAd, true},
		{StateLoadingTrack, true},
		{StatePlayingTrack, true},
		{StatePaused, true},
		{StateEnded, false},
	}
	for _, tt := range tests {
		if got := tt.state.IsActive(); got != tt.want {
			t.Errorf("%v.IsActive() = %v, want %v", tt.state, got, tt.want)
		}
	}
}

func TestTier_String(t *testing.T) {
	tests := []struct {
		tier Tier
		want string
	}{
		{TierFree, "free"},
		{TierPremium, "premium"},
		{Tier(99), "free"},
	}
	for _, tt := range tests {
		if got := tt.tier.String(); got != tt.want {
			t.Errorf("%d.String() = %q, want %q", tt.tier, got, tt.want)
		}
	}
}
