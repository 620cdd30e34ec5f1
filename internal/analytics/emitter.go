// Package analytics delivers fire-and-forget events to an external
// collector. Emission never blocks playback and failures are discarded.
package analytics

import (
	"sync"

	"github.com/sirupsen/logrus"
)

const defaultBuffer = 64

// Emitter accepts events for delivery. Emit must never block.
type Emitter interface {
	Emit(e Event)
}

// Sender performs the actual delivery of one event.
type Sender interface {
	Send(e Event) error
}

// Nop discards all events. Used when no collector is configured.
type Nop struct{}

func (Nop) Emit(Event) {}

// Recorder captures emitted events for tests.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

// NewRecorder creates an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) Emit(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

// Events returns a copy of everything emitted so far.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// ByName returns emitted events matching the given event name.
func (r *Recorder) ByName(name string) []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Event
	for _, e := range r.events {
		if e.Name() == name {
			out = append(out, e)
		}
	}
	return out
}

// Async queues events on a buffered channel and delivers them from a
// worker goroutine. A full buffer drops the event; a failed send is logged
// and discarded. Neither ever stalls the caller.
type Async struct {
	ch     chan Event
	done   chan struct{}
	mu     sync.Mutex
	closed bool
}

// NewAsync starts an async emitter delivering through the sender.
func NewAsync(s Sender) *Async {
	a := &Async{
		ch:   make(chan Event, defaultBuffer),
		done: make(chan struct{}),
	}
	go func() {
		defer close(a.done)
		for e := range a.ch {
			if err := s.Send(e); err != nil {
				logrus.WithError(err).WithField("event", e.Name()).
					Debug("analytics send failed, event dropped")
			}
		}
	}()
	return a
}

// Emit queues the event. Events arriving after Close, such as from a
// timer that fired during shutdown, are dropped.
func (a *Async) Emit(e Event) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return
	}
	select {
	case a.ch <- e:
	default:
		// Buffer full, drop rather than block.
	}
}

// Close stops accepting events and waits for queued ones to drain.
func (a *Async) Close() {
	a.mu.Lock()
	if !a.closed {
		a.closed = true
		close(a.ch)
	}
	a.mu.Unlock()
	<-a.done
}
