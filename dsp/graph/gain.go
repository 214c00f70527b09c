package graph

import (
	"math"

	"github.com/cwbudde/algo-vecmath"
)

// Gain scales its input by an automatable gain.
type Gain struct {
	*Node
	gain *Param
}

// NewGain returns a gain node with the given initial gain.
func (c *Context) NewGain(initial float64) *Gain {
	g := &Gain{gain: newParam(c, "gain", initial, math.Inf(-1), math.Inf(1))}
	g.Node = newNode(c, "gain", g, g.gain)
	return g
}

// Gain returns the gain parameter.
func (g *Gain) Gain() *Param { return g.gain }

func (g *Gain) process(in, out *Bus, _ float64) {
	if g.gain.static {
		v := g.gain.buf[0]
		for ch := range out {
			vecmath.ScaleBlock(out[ch], in[ch], v)
		}
		return
	}
	for ch := range out {
		vecmath.MulBlock(out[ch], in[ch], g.gain.buf)
	}
}

// Destination is the sink of a context graph.
type Destination struct {
	*Node
}

func newDestination(c *Context) *Destination {
	d := &Destination{}
	d.Node = newNode(c, "destination", d)
	return d
}

func (d *Destination) process(in, out *Bus, _ float64) {
	for ch := range out {
		copy(out[ch], in[ch])
	}
}
