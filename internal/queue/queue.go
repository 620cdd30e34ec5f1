package queue

import (
	"math/rand"
	"time"

	"github.com/samber/lo"
)

// Queue holds the ordered track list and the playback position.
//
// The current index is always either -1 (nothing selected) or a valid index
// into the current (possibly shuffled) ordering. While shuffle is enabled
// the pre-shuffle ordering is kept as a snapshot and restored, by identity,
// when shuffle is disabled.
type Queue struct {
	tracks       []Track
	currentIndex int

	shuffle bool
	saved   []Track // pre-shuffle ordering, only kept while shuffle is on

	repeat RepeatMode
	cycle  CycleOrder
	draw   ShuffleDraw

	rng *rand.Rand
}

// New creates a new empty queue.
func New() *Queue {
	return NewWithRand(rand.New(rand.NewSource(time.Now().UnixNano())))
}

// NewWithRand creates a queue using the given random source.
// Used by tests that need deterministic shuffling.
func NewWithRand(rng *rand.Rand) *Queue {
	return &Queue{
		tracks:       make([]Track, 0),
		currentIndex: -1,
		rng:          rng,
	}
}

// SetCycleOrder selects the repeat-mode cycle order.
func (q *Queue) SetCycleOrder(o CycleOrder) { q.cycle = o }

// SetShuffleDraw selects the shuffle advance policy.
func (q *Queue) SetShuffleDraw(d ShuffleDraw) { q.draw = d }

// Current returns the currently selected track, or nil if none.
func (q *Queue) Current() *Track {
	if q.currentIndex < 0 || q.currentIndex >= len(q.tracks) {
		return nil
	}
	t := q.tracks[q.currentIndex]
	return &t
}

// CurrentIndex returns the index of the current track (-1 if none).
func (q *Queue) CurrentIndex() int {
	return q.currentIndex
}

// Add appends tracks to the queue, skipping any track whose ID is already
// present. The current index is unchanged.
func (q *Queue) Add(tracks ...Track) {
	for _, t := range tracks {
		if q.contains(t.ID) {
			continue
		}
		q.tracks = append(q.tracks, t)
	}
}

func (q *Queue) contains(id string) bool {
	return lo.ContainsBy(q.tracks, func(t Track) bool { return t.ID == id })
}

// Replace clears the queue, adds the given tracks and selects the first.
// Returns the first track, or nil if none were given.
func (q *Queue) Replace(tracks ...Track) *Track {
	q.tracks = q.tracks[:0]
	q.saved = nil
	q.currentIndex = -1
	q.Add(tracks...)
	if len(q.tracks) == 0 {
		return nil
	}
	q.currentIndex = 0
	return q.Current()
}

// JumpTo selects the track at the given index.
// Returns the track at that position, or nil if the index is invalid.
func (q *Queue) JumpTo(index int) *Track {
	if index < 0 || index >= len(q.tracks) {
		return nil
	}
	q.currentIndex = index
	return q.Current()
}

// SelectID selects the track with the given identity.
// Returns the track, or nil if no track matches.
func (q *Queue) SelectID(id string) *Track {
	for i, t := range q.tracks {
		if t.ID == id {
			q.currentIndex = i
			return &t
		}
	}
	return nil
}

// RemoveAt removes the track at the given index.
// If a track before the current one is removed the current index shifts
// down; removing the current track keeps the position (the next remaining
// track takes its place), clamping to the last track or -1 on empty.
func (q *Queue) RemoveAt(index int) bool {
	if index < 0 || index >= len(q.tracks) {
		return false
	}
	removed := q.tracks[index].ID
	q.tracks = append(q.tracks[:index], q.tracks[index+1:]...)
	if q.saved != nil {
		q.saved = lo.Reject(q.saved, func(t Track, _ int) bool { return t.ID == removed })
	}

	switch {
	case q.currentIndex > index:
		q.currentIndex--
	case q.currentIndex == index:
		if q.currentIndex >= len(q.tracks) {
			q.currentIndex = len(q.tracks) - 1
		}
	}
	return true
}

// Clear removes all tracks and resets the position.
func (q *Queue) Clear() {
	q.tracks = q.tracks[:0]
	q.saved = nil
	q.currentIndex = -1
}

// Next advances to the next track and returns it, honoring repeat and
// shuffle modes. Returns nil when there is no next track (RepeatNone at
// the end of the queue).
func (q *Queue) Next() *Track {
	if len(q.tracks) == 0 {
		return nil
	}
	if q.currentIndex < 0 {
		q.currentIndex = 0
		return q.Current()
	}

	if q.shuffle && q.draw == DrawFullQueue {
		q.currentIndex = q.rng.Intn(len(q.tracks))
		return q.Current()
	}

	if q.currentIndex >= len(q.tracks)-1 {
		if q.repeat != RepeatAll {
			return nil
		}
		q.currentIndex = 0
		return q.Current()
	}
	q.currentIndex++
	return q.Current()
}

// HasNext returns true if Next would return a track.
func (q *Queue) HasNext() bool {
	if len(q.tracks) == 0 {
		return false
	}
	if q.currentIndex < 0 {
		return true
	}
	if q.shuffle && q.draw == DrawFullQueue {
		return true
	}
	return q.currentIndex < len(q.tracks)-1 || q.repeat == RepeatAll
}

// Previous moves to the previous track in the current ordering and returns
// it. With RepeatAll the position wraps to the last track; otherwise nil is
// returned at the start of the queue.
func (q *Queue) Previous() *Track {
	if len(q.tracks) == 0 || q.currentIndex < 0 {
		return nil
	}
	if q.currentIndex == 0 {
		if q.repeat != RepeatAll {
			return nil
		}
		q.currentIndex = len(q.tracks) - 1
		return q.Current()
	}
	q.currentIndex--
	return q.Current()
}

// Tracks returns a copy of all tracks in the current ordering.
func (q *Queue) Tracks() []Track {
	result := make([]Track, len(q.tracks))
	copy(result, q.tracks)
	return result
}

// Track returns the track at the given index, or nil if out of bounds.
func (q *Queue) Track(index int) *Track {
	if index < 0 || index >= len(q.tracks) {
		return nil
	}
	t := q.tracks[index]
	return &t
}

// Len returns the number of tracks.
func (q *Queue) Len() int {
	return len(q.tracks)
}

// IsEmpty returns true if the queue has no tracks.
func (q *Queue) IsEmpty() bool {
	return len(q.tracks) == 0
}

// RepeatMode returns the current repeat mode.
func (q *Queue) RepeatMode() RepeatMode {
	return q.repeat
}

// SetRepeatMode sets the repeat mode.
func (q *Queue) SetRepeatMode(m RepeatMode) {
	q.repeat = m
}

// CycleRepeat advances to the next repeat mode and returns it.
func (q *Queue) CycleRepeat() RepeatMode {
	q.repeat = q.cycle.next(q.repeat)
	return q.repeat
}

// Shuffle returns whether shuffle is enabled.
func (q *Queue) Shuffle() bool {
	return q.shuffle
}

// ToggleShuffle flips shuffle mode and returns the new value.
func (q *Queue) ToggleShuffle() bool {
	q.SetShuffle(!q.shuffle)
	return q.shuffle
}

// SetShuffle enables or disables shuffle.
//
// Enabling snapshots the current ordering and reshuffles the queue with a
// Fisher-Yates permutation. Disabling restores the snapshot. In both
// directions the currently selected track keeps its identity; only its
// index moves.
func (q *Queue) SetShuffle(enabled bool) {
	if enabled == q.shuffle {
		return
	}
	currentID := ""
	if c := q.Current(); c != nil {
		currentID = c.ID
	}

	if enabled {
		q.saved = make([]Track, len(q.tracks))
		copy(q.saved, q.tracks)
		q.shuffleInPlace()
	} else {
		q.tracks = q.restoreSaved()
		q.saved = nil
	}
	q.shuffle = enabled
	q.relocate(currentID)
}

// shuffleInPlace applies a uniform Fisher-Yates permutation.
func (q *Queue) shuffleInPlace() {
	for i := len(q.tracks) - 1; i > 0; i-- {
		j := q.rng.Intn(i + 1)
		q.tracks[i], q.tracks[j] = q.tracks[j], q.tracks[i]
	}
}

// restoreSaved rebuilds the pre-shuffle ordering: snapshot entries that
// were removed while shuffled are dropped, tracks added while shuffled are
// appended in their current order.
func (q *Queue) restoreSaved() []Track {
	present := lo.SliceToMap(q.tracks, func(t Track) (string, struct{}) {
		return t.ID, struct{}{}
	})
	restored := lo.Filter(q.saved, func(t Track, _ int) bool {
		_, ok := present[t.ID]
		return ok
	})
	inSnapshot := lo.SliceToMap(q.saved, func(t Track) (string, struct{}) {
		return t.ID, struct{}{}
	})
	for _, t := range q.tracks {
		if _, ok := inSnapshot[t.ID]; !ok {
			restored = append(restored, t)
		}
	}
	return restored
}

func (q *Queue) relocate(id string) {
	if id == "" {
		if len(q.tracks) == 0 {
			q.currentIndex = -1
		}
		return
	}
	for i, t := range q.tracks {
		if t.ID == id {
			q.currentIndex = i
			return
		}
	}
	q.currentIndex = -1
}
