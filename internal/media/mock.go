package media

import "time"

// Mock is a test double for a Capability.
// Simulate* helpers drive the bound handler synchronously so tests control
// exactly when lifecycle events arrive.
type Mock struct {
	handler  Handler
	loaded   string
	playing  bool
	position time.Duration

	loadCalls   []string
	playCalls   int
	pauseCalls  int
	stopCalls   int
	seekCalls   []time.Duration
	volumeCalls []float64
}

// NewMock creates a new mock capability for testing.
func NewMock() *Mock {
	return &Mock{}
}

func (m *Mock) Load(uri string, h Handler) {
	m.loaded = uri
	m.handler = h
	m.playing = false
	m.position = 0
	m.loadCalls = append(m.loadCalls, uri)
}

func (m *Mock) Play() {
	if m.loaded != "" {
		m.playing = true
	}
	m.playCalls++
}

func (m *Mock) Pause() {
	m.playing = false
	m.pauseCalls++
}

func (m *Mock) Seek(pos time.Duration) {
	m.position = pos
	m.seekCalls = append(m.seekCalls, pos)
}

func (m *Mock) SetVolume(level float64) {
	m.volumeCalls = append(m.volumeCalls, level)
}

func (m *Mock) Position() time.Duration { return m.position }

func (m *Mock) Stop() {
	m.loaded = ""
	m.playing = false
	m.handler = Handler{}
	m.stopCalls++
}

// Test helpers

// SimulateReady delivers a ready event for the current load.
func (m *Mock) SimulateReady(duration time.Duration) {
	m.handler.ready(duration)
}

// SimulateProgress delivers a progress event for the current load.
func (m *Mock) SimulateProgress(pos time.Duration) {
	m.position = pos
	m.handler.progress(pos)
}

// SimulateEnded delivers an ended event for the current load.
func (m *Mock) SimulateEnded() {
	m.playing = false
	m.handler.ended()
}

// SimulateError delivers an error event for the current load.
func (m *Mock) SimulateError(err error) {
	m.handler.fail(err)
}

// Handler returns the handler bound by the last Load. Tests use it to
// replay callbacks after the owner has moved on to a newer load.
func (m *Mock) Handler() Handler { return m.handler }

func (m *Mock) Loaded() string               { return m.loaded }
func (m *Mock) IsPlaying() bool              { return m.playing }
func (m *Mock) LoadCalls() []string          { return m.loadCalls }
func (m *Mock) PlayCalls() int               { return m.playCalls }
func (m *Mock) PauseCalls() int              { return m.pauseCalls }
func (m *Mock) StopCalls() int               { return m.stopCalls }
func (m *Mock) SeekCalls() []time.Duration   { return m.seekCalls }
func (m *Mock) VolumeCalls() []float64       { return m.volumeCalls }

// Verify Mock implements Capability at compile time.
var _ Capability = (*Mock)(nil)
