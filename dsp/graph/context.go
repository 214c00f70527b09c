// Package graph implements a block-based audio processing graph.
//
// A Context owns an audio clock that advances in blocks of RenderQuantum
// frames. Nodes are connected into a directed graph that ends in the
// context's Destination; rendering pulls every reachable node once per
// block. Parameters are automatable through a param.Timeline and may be
// modulated at audio rate by other nodes. Cycles are legal only when they
// pass through a Delay node.
//
// A Context and its nodes are not safe for concurrent use. Control calls
// (scheduling, connecting, starting sources) must be serialized with
// rendering by the caller.
package graph

import (
	"container/heap"
	"errors"
	"fmt"
	"log/slog"
	"math"
)

const (
	// RenderQuantum is the number of frames rendered per block.
	RenderQuantum = 128

	// Channels is the channel count of every bus in the graph.
	Channels = 2
)

var (
	ErrInvalidSampleRate = errors.New("graph: sample rate must be > 0 and finite")
	ErrEnded             = errors.New("graph: source has ended")
	ErrAlreadyStarted    = errors.New("graph: source already started")
	ErrNotStarted        = errors.New("graph: source not started")
	ErrInvalidBuffer     = errors.New("graph: invalid impulse response buffer")
)

type config struct {
	logger *slog.Logger
}

// Option configures a Context.
type Option func(*config)

// WithLogger sets the logger used for graph diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *config) {
		if logger != nil {
			cfg.logger = logger
		}
	}
}

// Context is the audio clock and owner of a node graph.
type Context struct {
	sampleRate float64
	frames     uint64
	quantum    uint64
	logger     *slog.Logger

	dest    *Destination
	silence Bus

	timers   timerQueue
	timerSeq uint64
	sources  []*Oscillator

	// topology changes on every connect and disconnect
	topology uint64
	deferred []*Node

	// interleaved output of the last block for partial Render calls
	block    []float32
	blockPos int
}

// NewContext returns a context running at sampleRate.
func NewContext(sampleRate float64, opts ...Option) (*Context, error) {
	if sampleRate <= 0 || math.IsNaN(sampleRate) || math.IsInf(sampleRate, 0) {
		return nil, fmt.Errorf("%w: %f", ErrInvalidSampleRate, sampleRate)
	}
	cfg := config{logger: slog.Default()}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	c := &Context{
		sampleRate: sampleRate,
		logger:     cfg.logger,
		silence:    newBus(),
		block:      make([]float32, RenderQuantum*Channels),
		topology:   1,
	}
	c.blockPos = len(c.block)
	c.dest = newDestination(c)
	return c, nil
}

// SampleRate returns the context sample rate in Hz.
func (c *Context) SampleRate() float64 {
	return c.sampleRate
}

// CurrentTime returns the audio clock in seconds: the start time of the
// next block to be rendered.
func (c *Context) CurrentTime() float64 {
	return float64(c.frames) / c.sampleRate
}

// Frames returns the number of frames rendered so far.
func (c *Context) Frames() uint64 {
	return c.frames
}

// Destination returns the final node of the graph.
func (c *Context) Destination() *Destination {
	return c.dest
}

// Logger returns the context logger.
func (c *Context) Logger() *slog.Logger {
	return c.logger
}

// AfterTime schedules fn to run between blocks once the clock reaches t.
func (c *Context) AfterTime(t float64, fn func()) {
	if fn == nil {
		return
	}
	c.timerSeq++
	heap.Push(&c.timers, timer{at: t, seq: c.timerSeq, fn: fn})
}

// RenderBlock renders one block and returns the destination bus. The
// returned bus is only valid until the next call.
func (c *Context) RenderBlock() *Bus {
	c.runTimers()

	t0 := c.CurrentTime()
	c.quantum++
	out := c.dest.pull(c.quantum, t0)
	for i := 0; i < len(c.deferred); i++ {
		c.deferred[i].finishDeferred(c.quantum, t0)
	}
	clear(c.deferred)
	c.deferred = c.deferred[:0]
	c.frames += RenderQuantum

	c.reapSources()
	return out
}

// Render fills dst with interleaved stereo samples.
func (c *Context) Render(dst []float32) {
	for len(dst) > 0 {
		if c.blockPos >= len(c.block) {
			bus := c.RenderBlock()
			for i := range RenderQuantum {
				c.block[2*i] = float32(bus[0][i])
				c.block[2*i+1] = float32(bus[1][i])
			}
			c.blockPos = 0
		}
		n := copy(dst, c.block[c.blockPos:])
		c.blockPos += n
		dst = dst[n:]
	}
}

func (c *Context) runTimers() {
	now := c.CurrentTime()
	for c.timers.Len() > 0 && c.timers[0].at <= now {
		t := heap.Pop(&c.timers).(timer)
		t.fn()
	}
}

func (c *Context) register(o *Oscillator) {
	c.sources = append(c.sources, o)
}

// reapSources ends every source whose stop time has passed and notifies
// its ended callback. Sources end even when nothing pulls them.
func (c *Context) reapSources() {
	now := c.CurrentTime()
	var ended []*Oscillator
	kept := c.sources[:0]
	for _, o := range c.sources {
		if o.started && o.stopAt <= now {
			o.ended = true
			ended = append(ended, o)
			continue
		}
		kept = append(kept, o)
	}
	clear(c.sources[len(kept):])
	c.sources = kept

	for _, o := range ended {
		if o.onEnded != nil {
			o.onEnded()
		}
	}
}

type timer struct {
	at  float64
	seq uint64
	fn  func()
}

type timerQueue []timer

func (q timerQueue) Len() int { return len(q) }

func (q timerQueue) Less(i, j int) bool {
	if q[i].at != q[j].at {
		return q[i].at < q[j].at
	}
	return q[i].seq < q[j].seq
}

func (q timerQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }

func (q *timerQueue) Push(x any) { *q = append(*q, x.(timer)) }

func (q *timerQueue) Pop() any {
	old := *q
	n := len(old)
	t := old[n-1]
	old[n-1] = timer{}
	*q = old[:n-1]
	return t
}
