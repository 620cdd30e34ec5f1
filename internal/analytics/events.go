package analytics

import "github.com/google/uuid"

// Event is a fire-and-forget analytics payload.
type Event interface {
	// Name identifies the event type on the collector side.
	Name() string
}

// Impression is emitted exactly once when an ad starts playing.
type Impression struct {
	ImpressionID string `json:"impression_id"`
	AdID         string `json:"ad_id"`
	Placement    string `json:"placement"`
	DeviceClass  string `json:"device_class"`
}

func (Impression) Name() string { return "ad_impression" }

// NewImpressionID returns a fresh impression identifier.
func NewImpressionID() string {
	return uuid.NewString()
}

// Click is emitted when the user activates an ad's click target.
type Click struct {
	AdID         string `json:"ad_id"`
	ImpressionID string `json:"impression_id"`
}

func (Click) Name() string { return "ad_click" }

// ValidatedPlay credits a track once the continuous-listening threshold was
// reached for a single load instance.
type ValidatedPlay struct {
	TrackID   string `json:"track_id"`
	ArtistID  string `json:"artist_id"`
	ElapsedMS int64  `json:"elapsed_ms"`
	Tier      string `json:"tier"` // entitlement tier at time of play
}

func (ValidatedPlay) Name() string { return "validated_play" }

// PlaybackAction is best-effort play/pause/resume/stop telemetry.
type PlaybackAction struct {
	Action  string `json:"action"`
	TrackID string `json:"track_id,omitempty"`
}

func (PlaybackAction) Name() string { return "playback" }
