package media

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/effects"
	"github.com/gopxl/beep/v2/flac"
	"github.com/gopxl/beep/v2/mp3"
	"github.com/gopxl/beep/v2/speaker"
)

// progressInterval throttles progress callbacks to roughly 10 Hz.
const progressInterval = 100 * time.Millisecond

var (
	speakerOnce sync.Once
	speakerErr  error
)

// Local is a Capability backed by a local audio file (mp3 or flac) decoded
// through beep. The speaker is a process-wide resource; the session engine
// guarantees only one capability produces output at a time.
type Local struct {
	mu sync.Mutex

	handler  Handler
	gen      int // invalidates the progress goroutine of a previous load
	file     *os.File
	streamer beep.StreamSeekCloser
	format   beep.Format
	ctrl     *beep.Ctrl
	volume   *effects.Volume
	level    float64
	attached bool
	started  bool // stream handed to the speaker for this load
}

// NewLocal creates a local-file capability.
func NewLocal() *Local {
	return &Local{level: 1.0}
}

// Load decodes the file at uri and binds the handler. Decoding happens on a
// separate goroutine; the caller gets OnReady or OnError asynchronously.
func (l *Local) Load(uri string, h Handler) {
	l.Stop()

	l.mu.Lock()
	l.handler = h
	l.gen++
	gen := l.gen
	l.mu.Unlock()

	go l.load(uri, gen)
}

func (l *Local) load(uri string, gen int) {
	streamer, format, f, err := decode(uri)
	if err != nil {
		l.mu.Lock()
		h := l.handler
		stale := gen != l.gen
		l.mu.Unlock()
		if !stale {
			h.fail(err)
		}
		return
	}

	speakerOnce.Do(func() {
		speakerErr = speaker.Init(format.SampleRate, format.SampleRate.N(time.Second/10))
	})
	if speakerErr != nil {
		streamer.Close()
		f.Close()
		l.mu.Lock()
		h := l.handler
		stale := gen != l.gen
		l.mu.Unlock()
		if !stale {
			h.fail(fmt.Errorf("speaker init: %w", speakerErr))
		}
		return
	}

	l.mu.Lock()
	if gen != l.gen {
		l.mu.Unlock()
		streamer.Close()
		f.Close()
		return
	}
	l.file = f
	l.streamer = streamer
	l.format = format
	l.ctrl = &beep.Ctrl{Streamer: streamer, Paused: true}
	l.volume = &effects.Volume{Streamer: l.ctrl, Base: 2, Volume: levelToVolume(l.level), Silent: false}
	l.attached = true
	l.started = false
	h := l.handler
	duration := format.SampleRate.D(streamer.Len())
	l.mu.Unlock()

	h.ready(duration)
}

func decode(uri string) (beep.StreamSeekCloser, beep.Format, *os.File, error) {
	ext := strings.ToLower(filepath.Ext(uri))
	if ext != ".mp3" && ext != ".flac" {
		return nil, beep.Format{}, nil, fmt.Errorf("unsupported format: %s", ext)
	}

	f, err := os.Open(uri)
	if err != nil {
		return nil, beep.Format{}, nil, err
	}

	var streamer beep.StreamSeekCloser
	var format beep.Format
	switch ext {
	case ".mp3":
		streamer, format, err = mp3.Decode(f)
	case ".flac":
		streamer, format, err = flac.Decode(f)
	}
	if err != nil {
		f.Close()
		return nil, beep.Format{}, nil, err
	}
	return streamer, format, f, nil
}

// Play starts or resumes output.
func (l *Local) Play() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.attached || l.ctrl == nil {
		return
	}

	speaker.Lock()
	paused := l.ctrl.Paused
	l.ctrl.Paused = false
	speaker.Unlock()

	if !paused {
		return // already playing
	}

	// First Play for this load attaches the stream to the speaker.
	if !l.started {
		l.started = true
		gen := l.gen
		// The completion callback runs on the speaker's mixer goroutine
		// with the speaker lock held. Hop off it before touching l.mu or
		// calling the handler, which may re-enter Stop.
		speaker.Play(beep.Seq(l.volume, beep.Callback(func() {
			go l.finished(gen)
		})))
		go l.reportProgress(gen)
	}
}

// finished must not run on the mixer goroutine; see Play.
func (l *Local) finished(gen int) {
	l.mu.Lock()
	stale := gen != l.gen || !l.attached
	h := l.handler
	l.mu.Unlock()
	if !stale {
		h.ended()
	}
}

// reportProgress emits throttled position updates until the load goes away.
func (l *Local) reportProgress(gen int) {
	ticker := time.NewTicker(progressInterval)
	defer ticker.Stop()
	for range ticker.C {
		l.mu.Lock()
		if gen != l.gen || !l.attached {
			l.mu.Unlock()
			return
		}
		h := l.handler
		speaker.Lock()
		paused := l.ctrl.Paused
		pos := l.format.SampleRate.D(l.streamer.Position())
		speaker.Unlock()
		l.mu.Unlock()

		if !paused {
			h.progress(pos)
		}
	}
}

// Pause suspends output, keeping the source attached.
func (l *Local) Pause() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.attached || l.ctrl == nil {
		return
	}
	speaker.Lock()
	l.ctrl.Paused = true
	speaker.Unlock()
}

// Seek moves to an absolute position.
func (l *Local) Seek(pos time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.attached || l.streamer == nil {
		return
	}
	speaker.Lock()
	sample := l.format.SampleRate.N(pos)
	if sample < 0 {
		sample = 0
	}
	if sample >= l.streamer.Len() {
		sample = l.streamer.Len() - 1
	}
	_ = l.streamer.Seek(sample)
	speaker.Unlock()
}

// SetVolume sets the output level (0.0 to 1.0).
func (l *Local) SetVolume(level float64) {
	if level < 0 {
		level = 0
	}
	if level > 1 {
		level = 1
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.level = level
	if l.volume != nil {
		speaker.Lock()
		l.volume.Volume = levelToVolume(level)
		l.volume.Silent = level <= 0
		speaker.Unlock()
	}
}

// Position returns the current position in the loaded source.
func (l *Local) Position() time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.attached || l.streamer == nil {
		return 0
	}
	speaker.Lock()
	pos := l.format.SampleRate.D(l.streamer.Position())
	speaker.Unlock()
	return pos
}

// Stop detaches the source and releases its resources.
func (l *Local) Stop() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.attached {
		l.gen++ // invalidate an in-flight load
		return
	}

	speaker.Clear()
	if l.streamer != nil {
		l.streamer.Close()
		l.streamer = nil
	}
	if l.file != nil {
		l.file.Close()
		l.file = nil
	}
	l.ctrl = nil
	l.volume = nil
	l.handler = Handler{}
	l.attached = false
	l.started = false
	l.gen++
}

// levelToVolume converts a 0.0-1.0 level to beep's logarithmic volume.
// 1.0 -> 0 (no change), 0.5 -> -1 (half), 0.25 -> -2; 0 maps to near-silent.
func levelToVolume(level float64) float64 {
	if level <= 0 {
		return -10
	}
	if level >= 1 {
		return 0
	}
	return math.Log2(level)
}

// Verify Local implements Capability at compile time.
var _ Capability = (*Local)(nil)
