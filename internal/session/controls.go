package session

import (
	"time"

	"github.com/mvaillant/aria/internal/ads"
	"github.com/mvaillant/aria/internal/analytics"
	"github.com/mvaillant/aria/internal/errmsg"
	"github.com/mvaillant/aria/internal/media"
	"github.com/mvaillant/aria/internal/queue"
)

// Play starts or resumes playback.
//
// With no track: resumes from Paused (to PlayingAd if an ad was paused),
// or starts the queue's current track from Idle/Ended. With a track that is
// already current and playing it acts as TogglePlayPause. With a different
// track it cancels whatever is in flight, re-checks entitlement, consults
// the ad engine and starts the new load.
func (e *Engine) Play(t *queue.Track) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}

	if t == nil {
		switch e.state {
		case StatePaused:
			e.resumeLocked()
		case StateIdle, StateEnded:
			if cur := e.queue.Current(); cur != nil {
				e.startTrackLocked(*cur)
			}
		}
		return
	}

	// Play on the audible or pending track is a toggle, never a restart.
	// During an ad the pending track is already selected; restarting it
	// would re-run the ad decision and bill a second impression.
	cur := e.queue.Current()
	if cur != nil && cur.ID == t.ID {
		switch e.state {
		case StatePlayingTrack, StatePlayingAd:
			e.pauseLocked()
			return
		case StatePaused:
			e.resumeLocked()
			return
		case StateLoadingTrack, StateLoadingAd:
			return // load for this intent is already in flight
		}
	}

	if e.queue.SelectID(t.ID) == nil {
		e.queue.Add(*t)
		e.queue.SelectID(t.ID)
		e.emitQueueLocked()
	}
	e.startTrackLocked(*t)
}

// Pause pauses track or ad playback. The attribution instance survives a
// pause but stops accruing; it only fires later if it already had, or
// still reaches, the threshold per its resume policy.
func (e *Engine) Pause() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.pauseLocked()
}

// TogglePlayPause pauses when playing and resumes or starts otherwise.
func (e *Engine) TogglePlayPause() {
	e.mu.Lock()
	defer e.mu.Unlock()
	switch e.state {
	case StatePlayingTrack, StatePlayingAd:
		e.pauseLocked()
	case StatePaused:
		e.resumeLocked()
	case StateIdle, StateEnded:
		if cur := e.queue.Current(); cur != nil {
			e.startTrackLocked(*cur)
		}
	}
}

// Stop ends playback from any state and returns to Idle. The queue
// position is unaffected.
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if cur := e.queue.Current(); cur != nil {
		e.emitter.Emit(analytics.PlaybackAction{Action: "stop", TrackID: cur.ID})
	}
	e.cancelLoadsLocked()
	e.setStateLocked(StateIdle)
	e.persistLocked()
}

// Seek moves to an absolute position in the current track. Valid only
// while a track plays or is paused; ads are not seekable. Seeking does not
// reset the attribution instance.
func (e *Engine) Seek(pos time.Duration) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state != StatePlayingTrack && !(e.state == StatePaused && !e.pausedFromAd) {
		return
	}
	if e.queue.Current() == nil {
		return
	}
	e.trackCap.Seek(pos)
	e.broadcast(func(s *Subscription) { s.sendPosition(PositionChange{Position: pos}) })
}

// SetVolume sets the output level (clamped to 0.0-1.0) on both
// capabilities and persists it.
func (e *Engine) SetVolume(level float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.setVolumeLocked(level)
	e.persistLocked()
}

// Next advances the queue. At the end of the queue with repeat off it
// stops playback; when idle it is a no-op past the end.
func (e *Engine) Next() {
	e.mu.Lock()
	defer e.mu.Unlock()
	nt := e.queue.Next()
	if nt == nil {
		if e.state.IsActive() {
			e.cancelLoadsLocked()
			e.setStateLocked(StateEnded)
		}
		return
	}
	if e.state.IsActive() {
		e.startTrackLocked(*nt)
		return
	}
	e.emitQueueLocked()
	e.persistLocked()
}

// Previous moves to the previous track in the current ordering.
func (e *Engine) Previous() {
	e.mu.Lock()
	defer e.mu.Unlock()
	pt := e.queue.Previous()
	if pt == nil {
		return
	}
	if e.state.IsActive() {
		e.startTrackLocked(*pt)
		return
	}
	e.emitQueueLocked()
	e.persistLocked()
}

// AddToQueue appends tracks (dedup by identity) without changing the
// current position.
func (e *Engine) AddToQueue(tracks ...queue.Track) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.queue.Add(tracks...)
	e.emitQueueLocked()
	e.persistLocked()
}

// RemoveFromQueue removes the track at the given index. Removing the track
// being played starts the one that takes its place, or stops on empty.
func (e *Engine) RemoveFromQueue(index int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	wasCurrent := index == e.queue.CurrentIndex()
	if !e.queue.RemoveAt(index) {
		return
	}
	e.emitQueueLocked()
	e.persistLocked()
	if wasCurrent && e.state.IsActive() {
		if cur := e.queue.Current(); cur != nil {
			e.startTrackLocked(*cur)
		} else {
			e.cancelLoadsLocked()
			e.setStateLocked(StateIdle)
		}
	}
}

// ClearQueue removes all tracks and stops playback.
func (e *Engine) ClearQueue() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.queue.Clear()
	e.emitQueueLocked()
	e.persistLocked()
	if e.state.IsActive() {
		e.cancelLoadsLocked()
		e.setStateLocked(StateIdle)
	}
}

// ToggleShuffle flips shuffle mode and returns the new value.
func (e *Engine) ToggleShuffle() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	on := e.queue.ToggleShuffle()
	e.emitModeLocked()
	e.emitQueueLocked()
	e.persistLocked()
	return on
}

// CycleRepeat advances the repeat mode and returns it.
func (e *Engine) CycleRepeat() queue.RepeatMode {
	e.mu.Lock()
	defer e.mu.Unlock()
	mode := e.queue.CycleRepeat()
	e.emitModeLocked()
	e.persistLocked()
	return mode
}

// SkipAd skips the playing ad and starts the pending track. Premium-only;
// an entitlement resolution error fails closed. The ledger already counted
// the ad at start, so skipping does not undo the shown count.
func (e *Engine) SkipAd() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state != StatePlayingAd {
		return
	}
	tier, err := e.entitlement()
	if err != nil || tier != TierPremium {
		return
	}
	if e.pendingTrack == nil {
		e.cancelLoadsLocked()
		e.setStateLocked(StateIdle)
		return
	}
	pending := *e.pendingTrack
	e.adCap.Stop()
	e.broadcast(func(s *Subscription) { s.sendAd(AdChange{}) })
	e.beginTrackLoadLocked(pending)
}

// Click records a click on an ad, correlated to its most recent
// impression. No playback state changes.
func (e *Engine) Click(adID string) {
	e.mu.Lock()
	impressionID := e.lastImpression[adID]
	e.mu.Unlock()
	e.emitter.Emit(analytics.Click{AdID: adID, ImpressionID: impressionID})
}

// --- transitions (all require e.mu held) ---

func (e *Engine) pauseLocked() {
	switch e.state {
	case StatePlayingTrack:
		e.trackCap.Pause()
		e.tracker.Pause()
		e.pausedFromAd = false
	case StatePlayingAd:
		e.adCap.Pause()
		e.pausedFromAd = true
	default:
		return
	}
	e.setStateLocked(StatePaused)
	if cur := e.queue.Current(); cur != nil {
		e.emitter.Emit(analytics.PlaybackAction{Action: "pause", TrackID: cur.ID})
	}
}

func (e *Engine) resumeLocked() {
	if e.state != StatePaused {
		return
	}
	if e.pausedFromAd {
		e.pausedFromAd = false
		e.adCap.Play()
		e.setStateLocked(StatePlayingAd)
	} else {
		if e.queue.Current() == nil {
			return
		}
		e.trackCap.Play()
		e.tracker.Resume()
		e.setStateLocked(StatePlayingTrack)
	}
	if cur := e.queue.Current(); cur != nil {
		e.emitter.Emit(analytics.PlaybackAction{Action: "resume", TrackID: cur.ID})
	}
}

// startTrackLocked is the entry point for playing a (new) track: it
// cancels anything in flight, re-reads entitlement and consults the ad
// engine for free-tier sessions.
func (e *Engine) startTrackLocked(t queue.Track) {
	e.cancelLoadsLocked()
	e.emitter.Emit(analytics.PlaybackAction{Action: "play", TrackID: t.ID})

	e.playTier = e.resolveTier()
	if e.playTier == TierFree && e.adEngine != nil {
		if ad := e.adEngine.Decide(e.userID); ad != nil {
			e.beginAdLocked(*ad, t)
			return
		}
	}
	e.beginTrackLoadLocked(t)
}

func (e *Engine) beginAdLocked(ad ads.Advertisement, pending queue.Track) {
	e.currentAd = &ad
	e.pendingTrack = &pending
	e.setStateLocked(StateLoadingAd)

	e.gen++
	gen := e.gen
	e.adCap.Load(ad.AudioURI, media.Handler{
		OnReady: func(d time.Duration) { e.onAdReady(gen, d) },
		OnEnded: func() { e.onAdEnded(gen) },
		OnError: func(err error) { e.onAdError(gen, err) },
	})
	e.armLoadTimeoutLocked(gen)
}

func (e *Engine) beginTrackLoadLocked(t queue.Track) {
	e.adCap.Stop()
	e.currentAd = nil
	e.pendingTrack = nil
	e.duration = 0
	e.setStateLocked(StateLoadingTrack)

	e.gen++
	gen := e.gen
	e.trackCap.Load(t.MediaURI, media.Handler{
		OnReady:    func(d time.Duration) { e.onTrackReady(gen, d) },
		OnProgress: func(p time.Duration) { e.onTrackProgress(gen, p) },
		OnEnded:    func() { e.onTrackEnded(gen) },
		OnError:    func(err error) { e.onTrackError(gen, err) },
	})
	e.armLoadTimeoutLocked(gen)

	prev := e.lastTrack
	current := t
	e.lastTrack = &current
	index := e.queue.CurrentIndex()
	e.broadcast(func(s *Subscription) {
		s.sendTrack(TrackChange{Previous: prev, Current: &current, Index: index})
	})
}

// --- media callbacks (generation-guarded) ---

func (e *Engine) onAdReady(gen uint64, duration time.Duration) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if gen != e.gen || e.state != StateLoadingAd || e.currentAd == nil {
		return
	}
	e.stopLoadTimerLocked()
	e.duration = duration
	e.adCap.SetVolume(e.volume)
	e.adCap.Play()
	e.setStateLocked(StatePlayingAd)

	// The ledger counts "shown", so the increment and the single
	// impression happen at ad start, not completion.
	ad := *e.currentAd
	e.adEngine.RecordStart(e.userID, ad)
	impressionID := analytics.NewImpressionID()
	e.lastImpression[ad.ID] = impressionID
	e.emitter.Emit(analytics.Impression{
		ImpressionID: impressionID,
		AdID:         ad.ID,
		Placement:    e.adEngine.Placement(),
		DeviceClass:  e.deviceClass,
	})
	e.broadcast(func(s *Subscription) { s.sendAd(AdChange{Ad: &ad}) })
}

func (e *Engine) onAdEnded(gen uint64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if gen != e.gen || e.state != StatePlayingAd || e.pendingTrack == nil {
		return
	}
	pending := *e.pendingTrack
	e.broadcast(func(s *Subscription) { s.sendAd(AdChange{}) })
	e.beginTrackLoadLocked(pending)
}

func (e *Engine) onAdError(gen uint64, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if gen != e.gen || (e.state != StateLoadingAd && e.state != StatePlayingAd) {
		return
	}
	e.stopLoadTimerLocked()
	e.noticeLocked(errmsg.Format(errmsg.OpAdLoad, err))
	if e.pendingTrack == nil {
		e.cancelLoadsLocked()
		e.setStateLocked(StateIdle)
		return
	}
	// Fall back immediately to the pending track. If the ad never reached
	// ready, nothing was counted or emitted for the failed attempt.
	pending := *e.pendingTrack
	e.broadcast(func(s *Subscription) { s.sendAd(AdChange{}) })
	e.beginTrackLoadLocked(pending)
}

func (e *Engine) onTrackReady(gen uint64, duration time.Duration) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if gen != e.gen || e.state != StateLoadingTrack {
		return
	}
	e.stopLoadTimerLocked()
	e.duration = duration
	e.trackCap.SetVolume(e.volume)
	e.trackCap.Play()
	e.setStateLocked(StatePlayingTrack)

	cur := e.queue.Current()
	if cur == nil {
		return
	}
	trackID, artistID := cur.ID, cur.ArtistID
	tier := e.playTier.String()
	emitter := e.emitter
	e.tracker.Start(func(elapsed time.Duration) {
		emitter.Emit(analytics.ValidatedPlay{
			TrackID:   trackID,
			ArtistID:  artistID,
			ElapsedMS: elapsed.Milliseconds(),
			Tier:      tier,
		})
	})
}

func (e *Engine) onTrackProgress(gen uint64, pos time.Duration) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if gen != e.gen || e.state != StatePlayingTrack {
		return
	}
	e.broadcast(func(s *Subscription) { s.sendPosition(PositionChange{Position: pos}) })
}

func (e *Engine) onTrackEnded(gen uint64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if gen != e.gen || e.state != StatePlayingTrack {
		return
	}
	e.handleTrackFinishedLocked()
}

func (e *Engine) onTrackError(gen uint64, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if gen != e.gen || (e.state != StateLoadingTrack && e.state != StatePlayingTrack) {
		return
	}
	e.stopLoadTimerLocked()
	title := ""
	if cur := e.queue.Current(); cur != nil {
		title = cur.Title
	}
	e.noticeLocked(errmsg.FormatWith(errmsg.OpTrackLoad, title, err))
	e.advanceOrStopLocked()
}

func (e *Engine) handleTrackFinishedLocked() {
	e.tracker.Cancel()
	e.duration = 0

	if e.queue.RepeatMode() == queue.RepeatOne {
		if cur := e.queue.Current(); cur != nil {
			// Same identity, fresh load instance: the attribution
			// baseline resets with the reload.
			e.trackCap.Stop()
			e.beginTrackLoadLocked(*cur)
			return
		}
	}

	e.trackCap.Stop()
	e.advanceOrStopLocked()
}

// advanceOrStopLocked moves to the queue's next track, or rests in Ended
// when the queue is exhausted.
func (e *Engine) advanceOrStopLocked() {
	next := e.queue.Next()
	if next == nil {
		e.cancelLoadsLocked()
		e.setStateLocked(StateEnded)
		e.persistLocked()
		return
	}
	e.persistLocked()
	e.startTrackLocked(*next)
}

// --- readiness timeout ---

func (e *Engine) armLoadTimeoutLocked(gen uint64) {
	if e.loadTimer != nil {
		e.loadTimer.Stop()
	}
	e.loadTimer = time.AfterFunc(e.loadTimeout, func() { e.onLoadTimeout(gen) })
}

func (e *Engine) stopLoadTimerLocked() {
	if e.loadTimer != nil {
		e.loadTimer.Stop()
		e.loadTimer = nil
	}
}

func (e *Engine) onLoadTimeout(gen uint64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if gen != e.gen {
		return
	}
	switch e.state {
	case StateLoadingAd:
		e.noticeLocked(errmsg.FormatWith(errmsg.OpAdLoad, "", errTimeout))
		if e.pendingTrack != nil {
			pending := *e.pendingTrack
			e.adCap.Stop()
			e.beginTrackLoadLocked(pending)
			return
		}
		e.cancelLoadsLocked()
		e.setStateLocked(StateIdle)
	case StateLoadingTrack:
		e.noticeLocked(errmsg.Format(errmsg.OpTrackLoad, errTimeout))
		e.advanceOrStopLocked()
	}
}
