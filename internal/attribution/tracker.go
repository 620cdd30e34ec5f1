// Package attribution measures continuous listening time of the current
// track and reports at most one validated play per track-load instance.
package attribution

import (
	"sync"
	"time"
)

// DefaultThreshold is the continuous-listening time required before a play
// is credited.
const DefaultThreshold = 30 * time.Second

// ResumePolicy controls what happens to accrued time when a paused track
// resumes before the threshold.
type ResumePolicy int

const (
	// ResumeCumulative keeps the time accrued before the pause, so the
	// threshold is reached on cumulative actual playing time.
	ResumeCumulative ResumePolicy = iota
	// ResumeRestart zeroes the accrued time on resume; the threshold must
	// be reached in one uninterrupted span.
	ResumeRestart
)

// Tracker accrues wall-clock playing time for one track-load instance at a
// time and fires its callback exactly once when the threshold is reached.
//
// Start opens a new instance (discarding any previous one). Pause suspends
// accrual; Resume continues it per the configured policy. Cancel destroys
// the instance without firing. A fired instance never fires again, even if
// playback continues.
type Tracker struct {
	mu        sync.Mutex
	threshold time.Duration
	policy    ResumePolicy
	clock     func() time.Time

	gen       int // instance generation, guards stale timer callbacks
	onFire    func(elapsed time.Duration)
	timer     *time.Timer
	accrued   time.Duration // accrued before the current running span
	startedAt time.Time
	running   bool
	fired     bool
	active    bool
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithClock injects the clock used to measure elapsed spans.
func WithClock(clock func() time.Time) Option {
	return func(t *Tracker) { t.clock = clock }
}

// New creates a tracker with the given threshold and resume policy.
func New(threshold time.Duration, policy ResumePolicy, opts ...Option) *Tracker {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	t := &Tracker{
		threshold: threshold,
		policy:    policy,
		clock:     time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Start begins a new track-load instance. Any previous instance is
// cancelled without firing. onFire is invoked once, off the caller's
// goroutine, when continuous playing time reaches the threshold.
func (t *Tracker) Start(onFire func(elapsed time.Duration)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopTimerLocked()
	t.gen++
	t.onFire = onFire
	t.accrued = 0
	t.startedAt = t.clock()
	t.running = true
	t.fired = false
	t.active = true
	t.armLocked(t.threshold)
}

// Pause suspends accrual, keeping the instance alive.
func (t *Tracker) Pause() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.active || !t.running {
		return
	}
	t.accrued += t.clock().Sub(t.startedAt)
	t.running = false
	t.stopTimerLocked()
}

// Resume continues accrual for the current instance.
// With ResumeRestart the accrued time is zeroed first.
func (t *Tracker) Resume() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.active || t.running || t.fired {
		return
	}
	if t.policy == ResumeRestart {
		t.accrued = 0
	}
	t.startedAt = t.clock()
	t.running = true
	t.armLocked(t.threshold - t.accrued)
}

// Cancel destroys the current instance without firing.
func (t *Tracker) Cancel() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.gen++
	t.active = false
	t.running = false
	t.stopTimerLocked()
}

// Fired reports whether the current instance has emitted its play.
func (t *Tracker) Fired() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.active && t.fired
}

// Elapsed returns the playing time accrued by the current instance.
func (t *Tracker) Elapsed() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.elapsedLocked()
}

func (t *Tracker) elapsedLocked() time.Duration {
	if !t.active {
		return 0
	}
	elapsed := t.accrued
	if t.running {
		elapsed += t.clock().Sub(t.startedAt)
	}
	return elapsed
}

func (t *Tracker) armLocked(remaining time.Duration) {
	if remaining < 0 {
		remaining = 0
	}
	gen := t.gen
	t.timer = time.AfterFunc(remaining, func() {
		t.fire(gen)
	})
}

func (t *Tracker) fire(gen int) {
	t.mu.Lock()
	if gen != t.gen || !t.active || !t.running || t.fired {
		t.mu.Unlock()
		return
	}
	elapsed := t.elapsedLocked()
	if elapsed < t.threshold {
		// Clock skew between the timer and the injected clock; re-arm.
		t.armLocked(t.threshold - elapsed)
		t.mu.Unlock()
		return
	}
	t.fired = true
	onFire := t.onFire
	t.mu.Unlock()

	if onFire != nil {
		onFire(elapsed)
	}
}

func (t *Tracker) stopTimerLocked() {
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
}
