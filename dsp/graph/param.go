package graph

import (
	"math"

	"github.com/cwbudde/algo-synth/dsp/param"
)

// Param is an automatable node parameter. Its value per frame is the
// timeline value plus the first channel of every connected modulator,
// clamped to the nominal range.
type Param struct {
	*param.Timeline

	ctx    *Context
	owner  *Node
	name   string
	lo, hi float64
	inputs []*Node

	buf    []float64
	static bool
}

func newParam(ctx *Context, name string, def, lo, hi float64) *Param {
	return &Param{
		Timeline: param.NewTimeline(def),
		ctx:      ctx,
		name:     name,
		lo:       lo,
		hi:       hi,
		buf:      make([]float64, RenderQuantum),
	}
}

// Name returns the parameter name.
func (p *Param) Name() string { return p.name }

// Value returns the intrinsic value at the current context time,
// modulation excluded.
func (p *Param) Value() float64 {
	return p.ValueAt(p.ctx.CurrentTime())
}

// Modulated reports whether any node is connected to p.
func (p *Param) Modulated() bool { return len(p.inputs) > 0 }

func (p *Param) render(q uint64, t0 float64) {
	if v, ok := p.Static(t0); ok && len(p.inputs) == 0 {
		v = clampRange(v, p.lo, p.hi)
		if p.static && p.buf[0] == v {
			return
		}
		for i := range p.buf {
			p.buf[i] = v
		}
		p.static = true
		return
	}

	p.static = false
	p.Fill(p.buf, t0, 1/p.ctx.sampleRate)
	for _, src := range p.inputs {
		mod := src.pull(q, t0)[0]
		for i := range p.buf {
			p.buf[i] += mod[i]
		}
	}
	for i, v := range p.buf {
		p.buf[i] = clampRange(v, p.lo, p.hi)
	}
}

// at returns the rendered value for frame i of the current block.
func (p *Param) at(i int) float64 {
	if p.static {
		return p.buf[0]
	}
	return p.buf[i]
}

func clampRange(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		v = 0
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
