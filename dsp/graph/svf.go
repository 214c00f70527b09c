package graph

import "math"

// StateVariableFilter is a topology-preserving transform state variable
// filter with a low-pass output. Resonance is the filter Q.
type StateVariableFilter struct {
	*Node
	cutoff    *Param
	resonance *Param

	key   [2]float64
	a1    float64
	a2    float64
	a3    float64
	k     float64
	state [Channels][2]float64
}

// NewStateVariableFilter returns a low-pass SVF at 1 kHz with Q 0.707.
func (c *Context) NewStateVariableFilter() *StateVariableFilter {
	f := &StateVariableFilter{
		cutoff:    newParam(c, "cutoff", 1000, 10, c.sampleRate*0.49),
		resonance: newParam(c, "resonance", math.Sqrt2/2, 0.05, 40),
		key:       [2]float64{-1, -1},
	}
	f.Node = newNode(c, "svf", f, f.cutoff, f.resonance)
	return f
}

// Cutoff returns the cutoff parameter in Hz.
func (f *StateVariableFilter) Cutoff() *Param { return f.cutoff }

// Resonance returns the Q parameter.
func (f *StateVariableFilter) Resonance() *Param { return f.resonance }

func (f *StateVariableFilter) update(fc, q float64) {
	if fc == f.key[0] && q == f.key[1] {
		return
	}
	f.key = [2]float64{fc, q}
	g := math.Tan(math.Pi * fc / f.ctx.sampleRate)
	f.k = 1 / q
	f.a1 = 1 / (1 + g*(g+f.k))
	f.a2 = g * f.a1
	f.a3 = g * f.a2
}

func (f *StateVariableFilter) process(in, out *Bus, _ float64) {
	for i := range RenderQuantum {
		f.update(f.cutoff.at(i), f.resonance.at(i))
		for ch := range out {
			s := &f.state[ch]
			v3 := in[ch][i] - s[1]
			v1 := f.a1*s[0] + f.a2*v3
			v2 := s[1] + f.a2*s[0] + f.a3*v3
			s[0] = 2*v1 - s[0]
			s[1] = 2*v2 - s[1]
			out[ch][i] = v2
		}
	}
}
