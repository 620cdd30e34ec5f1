// Package session orchestrates the queue, ad engine, attribution tracker
// and the two media playback capabilities into one playback state machine.
package session

import (
	"errors"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/mvaillant/aria/internal/ads"
	"github.com/mvaillant/aria/internal/analytics"
	"github.com/mvaillant/aria/internal/attribution"
	"github.com/mvaillant/aria/internal/media"
	"github.com/mvaillant/aria/internal/queue"
	"github.com/mvaillant/aria/internal/state"
)

const defaultLoadTimeout = 10 * time.Second

// errTimeout marks a load that never reported ready within the bound.
var errTimeout = errors.New("media load timed out")

// SnapshotStore persists the session snapshot across restarts.
type SnapshotStore interface {
	GetSnapshot() (*state.Snapshot, error)
	SaveSnapshot(snap state.Snapshot)
}

// Options configures an Engine.
type Options struct {
	UserID      string
	Entitlement EntitlementFunc
	Tracker     *attribution.Tracker
	Emitter     analytics.Emitter
	Store       SnapshotStore // optional
	DeviceClass string
	LoadTimeout time.Duration // readiness timeout, 0 means default
}

// Engine is the playback session engine. It exclusively owns the queue,
// the session state and both media capabilities; the ledger and analytics
// collector are reached through narrow interfaces.
//
// All public operations return immediately; media readiness arrives
// asynchronously and is serialized by a per-load generation counter, so a
// callback for a load the session has moved past is discarded.
type Engine struct {
	mu sync.Mutex

	state    State
	queue    *queue.Queue
	trackCap media.Capability
	adCap    media.Capability
	adEngine *ads.Engine
	tracker  *attribution.Tracker
	emitter  analytics.Emitter
	store    SnapshotStore

	userID      string
	entitlement EntitlementFunc
	deviceClass string
	loadTimeout time.Duration

	gen            uint64 // current load generation
	currentAd      *ads.Advertisement
	pendingTrack   *queue.Track // track waiting behind an ad
	lastTrack      *queue.Track // previous track, for change events
	playTier       Tier         // tier resolved at the current play request
	pausedFromAd   bool
	duration       time.Duration // duration of the current track/ad load
	volume         float64
	lastImpression map[string]string // ad ID -> most recent impression ID
	loadTimer      *time.Timer

	subs   []*Subscription
	subsMu sync.RWMutex

	closed bool
}

// New creates a session engine. trackCap and adCap must be two independent
// capability instances.
func New(trackCap, adCap media.Capability, q *queue.Queue, adEngine *ads.Engine, opts Options) *Engine {
	e := &Engine{
		state:          StateIdle,
		queue:          q,
		trackCap:       trackCap,
		adCap:          adCap,
		adEngine:       adEngine,
		tracker:        opts.Tracker,
		emitter:        opts.Emitter,
		store:          opts.Store,
		userID:         opts.UserID,
		entitlement:    opts.Entitlement,
		deviceClass:    opts.DeviceClass,
		loadTimeout:    opts.LoadTimeout,
		volume:         1.0,
		lastImpression: make(map[string]string),
	}
	if e.tracker == nil {
		e.tracker = attribution.New(attribution.DefaultThreshold, attribution.ResumeCumulative)
	}
	if e.emitter == nil {
		e.emitter = analytics.Nop{}
	}
	if e.entitlement == nil {
		e.entitlement = func() (Tier, error) { return TierFree, nil }
	}
	if e.loadTimeout <= 0 {
		e.loadTimeout = defaultLoadTimeout
	}
	return e
}

// Restore loads the persisted snapshot into the queue, modes and volume.
// Called once, before any playback.
func (e *Engine) Restore() error {
	if e.store == nil {
		return nil
	}
	snap, err := e.store.GetSnapshot()
	if err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	tracks := make([]queue.Track, 0, len(snap.Tracks))
	for _, t := range snap.Tracks {
		tracks = append(tracks, queue.Track{
			ID:         t.ID,
			Title:      t.Title,
			ArtistID:   t.ArtistID,
			MediaURI:   t.MediaURI,
			ArtworkURI: t.ArtworkURI,
			Duration:   t.Duration,
		})
	}
	e.queue.Clear()
	e.queue.Add(tracks...)
	e.queue.SetRepeatMode(queue.RepeatMode(snap.RepeatMode))
	e.queue.SetShuffle(snap.Shuffle)
	// Select by identity: a shuffled queue was saved in its shuffled order,
	// so after SetShuffle re-permutes, the saved index points elsewhere.
	switch {
	case snap.CurrentTrackID != "":
		e.queue.SelectID(snap.CurrentTrackID)
	case snap.CurrentIndex >= 0:
		e.queue.JumpTo(snap.CurrentIndex)
	}
	e.setVolumeLocked(snap.Volume)
	return nil
}

// State returns the current session state.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// CurrentTrack returns the current track. During ad playback this is the
// pending track the ad precedes.
func (e *Engine) CurrentTrack() *queue.Track {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.pendingTrack != nil {
		t := *e.pendingTrack
		return &t
	}
	return e.queue.Current()
}

// CurrentAd returns the ad being played, or nil.
func (e *Engine) CurrentAd() *ads.Advertisement {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.currentAd == nil {
		return nil
	}
	ad := *e.currentAd
	return &ad
}

// Position returns the elapsed time of whatever is audible.
func (e *Engine) Position() time.Duration {
	e.mu.Lock()
	c := e.trackCap
	if e.state == StatePlayingAd || e.state == StateLoadingAd ||
		(e.state == StatePaused && e.pausedFromAd) {
		c = e.adCap
	}
	e.mu.Unlock()
	return c.Position()
}

// Duration returns the total duration of the current load (zero until
// ready).
func (e *Engine) Duration() time.Duration {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.duration
}

// Volume returns the current volume level.
func (e *Engine) Volume() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.volume
}

// QueueTracks returns a copy of the queue in its current ordering.
func (e *Engine) QueueTracks() []queue.Track {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.queue.Tracks()
}

// QueueIndex returns the current queue index (-1 if none).
func (e *Engine) QueueIndex() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.queue.CurrentIndex()
}

// RepeatMode returns the current repeat mode.
func (e *Engine) RepeatMode() queue.RepeatMode {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.queue.RepeatMode()
}

// Shuffle returns whether shuffle is enabled.
func (e *Engine) Shuffle() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.queue.Shuffle()
}

// Subscribe creates a new event subscription.
func (e *Engine) Subscribe() *Subscription {
	e.subsMu.Lock()
	defer e.subsMu.Unlock()
	sub := newSubscription()
	e.subs = append(e.subs, sub)
	return sub
}

// Close stops playback and shuts down the engine.
func (e *Engine) Close() error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}
	e.closed = true
	e.cancelLoadsLocked()
	e.setStateLocked(StateIdle)
	e.mu.Unlock()

	e.subsMu.Lock()
	for _, sub := range e.subs {
		sub.close()
	}
	e.subs = nil
	e.subsMu.Unlock()

	return nil
}

// --- internals ---

// resolveTier re-reads entitlement. Resolution failure fails open to free
// (playback continues, with ads).
func (e *Engine) resolveTier() Tier {
	tier, err := e.entitlement()
	if err != nil {
		logrus.WithError(err).Debug("entitlement resolution failed, treating as free")
		return TierFree
	}
	return tier
}

func (e *Engine) setStateLocked(next State) {
	if next == e.state {
		return
	}
	prev := e.state
	e.state = next
	logrus.WithFields(logrus.Fields{"from": prev, "to": next}).Debug("session state")
	e.broadcast(func(s *Subscription) {
		s.sendState(StateChange{Previous: prev, Current: next})
	})
}

// cancelLoadsLocked invalidates in-flight loads, cancels the attribution
// instance and the readiness timeout, and detaches both capabilities.
func (e *Engine) cancelLoadsLocked() {
	e.gen++
	e.tracker.Cancel()
	if e.loadTimer != nil {
		e.loadTimer.Stop()
		e.loadTimer = nil
	}
	e.trackCap.Stop()
	e.adCap.Stop()
	e.currentAd = nil
	e.pendingTrack = nil
	e.pausedFromAd = false
	e.duration = 0
}

func (e *Engine) broadcast(send func(*Subscription)) {
	e.subsMu.RLock()
	defer e.subsMu.RUnlock()
	for _, sub := range e.subs {
		send(sub)
	}
}

func (e *Engine) noticeLocked(text string) {
	logrus.Warn(text)
	e.broadcast(func(s *Subscription) { s.sendNotice(Notice{Text: text}) })
}

func (e *Engine) emitQueueLocked() {
	tracks := e.queue.Tracks()
	index := e.queue.CurrentIndex()
	e.broadcast(func(s *Subscription) {
		s.sendQueue(QueueChange{Tracks: tracks, Index: index})
	})
}

func (e *Engine) emitModeLocked() {
	mode := ModeChange{RepeatMode: e.queue.RepeatMode(), Shuffle: e.queue.Shuffle()}
	e.broadcast(func(s *Subscription) { s.sendMode(mode) })
}

// persistLocked schedules a snapshot save of the queue, modes and volume.
func (e *Engine) persistLocked() {
	if e.store == nil {
		return
	}
	tracks := e.queue.Tracks()
	snap := state.Snapshot{
		CurrentIndex: e.queue.CurrentIndex(),
		RepeatMode:   int(e.queue.RepeatMode()),
		Shuffle:      e.queue.Shuffle(),
		Volume:       e.volume,
		Tracks:       make([]state.SnapshotTrack, 0, len(tracks)),
	}
	if cur := e.queue.Current(); cur != nil {
		snap.CurrentTrackID = cur.ID
	}
	for _, t := range tracks {
		snap.Tracks = append(snap.Tracks, state.SnapshotTrack{
			ID:         t.ID,
			Title:      t.Title,
			ArtistID:   t.ArtistID,
			MediaURI:   t.MediaURI,
			ArtworkURI: t.ArtworkURI,
			Duration:   t.Duration,
		})
	}
	e.store.SaveSnapshot(snap)
}

func (e *Engine) setVolumeLocked(level float64) {
	if level < 0 {
		level = 0
	}
	if level > 1 {
		level = 1
	}
	e.volume = level
	e.trackCap.SetVolume(level)
	e.adCap.SetVolume(level)
	e.broadcast(func(s *Subscription) { s.sendVolume(VolumeChange{Level: level}) })
}
