package media

import "time"

// Handler receives lifecycle events from a Capability.
//
// Events for a given load are only delivered until Stop is called or a new
// Load replaces the source. Callbacks may fire on the capability's internal
// goroutine; receivers must not block. Nil callbacks are allowed.
type Handler struct {
	OnReady    func(duration time.Duration)
	OnProgress func(position time.Duration)
	OnEnded    func()
	OnError    func(err error)
}

func (h Handler) ready(d time.Duration) {
	if h.OnReady != nil {
		h.OnReady(d)
	}
}

func (h Handler) progress(p time.Duration) {
	if h.OnProgress != nil {
		h.OnProgress(p)
	}
}

func (h Handler) ended() {
	if h.OnEnded != nil {
		h.OnEnded()
	}
}

func (h Handler) fail(err error) {
	if h.OnError != nil {
		h.OnError(err)
	}
}

// Capability wraps one underlying audio-decoding resource.
//
// Load is asynchronous: it returns immediately and readiness (or failure)
// arrives through the handler. The session engine owns two independent
// instances, one for the active track and one for an ad, and guarantees a
// Stop on one before starting output on the other.
type Capability interface {
	// Load attaches a new media source and binds the handler for its
	// lifecycle events. Any previous source is detached first.
	Load(uri string, h Handler)
	// Play starts or resumes output of the loaded source.
	Play()
	// Pause suspends output, keeping the source attached.
	Pause()
	// Seek moves to an absolute position in the loaded source.
	Seek(pos time.Duration)
	// SetVolume sets the output level in the range 0.0 to 1.0.
	SetVolume(level float64)
	// Position returns the current position in the loaded source.
	Position() time.Duration
	// Stop detaches the source. No further events are delivered for it.
	Stop()
}
