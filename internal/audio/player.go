// Package audio connects a synth engine to sound devices and WAV files.
package audio

import (
	"encoding/binary"
	"math"
	"sync"

	"github.com/cwbudde/algo-synth/synth"
)

// Player serializes control calls with rendering. Audio callbacks run on
// a device thread while MIDI, HTTP and file watchers drive the engine from
// their own goroutines; every access goes through the player's lock.
type Player struct {
	mu    sync.Mutex
	synth *synth.Synth
	buf   []float32
}

// NewPlayer wraps s.
func NewPlayer(s *synth.Synth) *Player {
	return &Player{synth: s}
}

// Do runs fn with exclusive access to the engine.
func (p *Player) Do(fn func(s *synth.Synth)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fn(p.synth)
}

// DoErr is Do for operations that can fail.
func (p *Player) DoErr(fn func(s *synth.Synth) error) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return fn(p.synth)
}

// SampleRate returns the engine sample rate.
func (p *Player) SampleRate() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.synth.SampleRate()
}

// Render fills dst with interleaved stereo samples.
func (p *Player) Render(dst []float32) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.synth.Render(dst)
}

// Read implements io.Reader, producing interleaved little-endian float32
// stereo frames. It never returns an error.
func (p *Player) Read(b []byte) (int, error) {
	const frameBytes = 4 * 2
	n := len(b) / frameBytes * 2
	if n == 0 {
		return 0, nil
	}
	if cap(p.buf) < n {
		p.buf = make([]float32, n)
	}
	buf := p.buf[:n]
	p.Render(buf)
	for i, x := range buf {
		binary.LittleEndian.PutUint32(b[4*i:], math.Float32bits(x))
	}
	return n * 4, nil
}
