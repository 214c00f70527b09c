package graph

import (
	"fmt"

	"github.com/cwbudde/algo-synth/dsp/resample"
)

// Oversample selects the WaveShaper oversampling factor.
type Oversample int

const (
	OversampleNone Oversample = 1
	Oversample2x   Oversample = 2
	Oversample4x   Oversample = 4
)

// WaveShaper maps each input sample through a transfer curve. The curve
// spans the input range [-1, 1]; inputs outside it take the end values.
// A nil curve passes audio through unchanged.
type WaveShaper struct {
	*Node
	curve      []float64
	oversample Oversample

	up   [Channels]*resample.Resampler
	down [Channels]*resample.Resampler
	hi   []float64
	lo   []float64
}

// NewWaveShaper returns a shaper without a curve.
func (c *Context) NewWaveShaper() *WaveShaper {
	w := &WaveShaper{oversample: OversampleNone}
	w.Node = newNode(c, "waveshaper", w)
	return w
}

// SetCurve replaces the transfer curve. The slice is copied.
func (w *WaveShaper) SetCurve(curve []float64) {
	if len(curve) == 0 {
		w.curve = nil
		return
	}
	w.curve = append(w.curve[:0], curve...)
}

// Curve returns the current transfer curve.
func (w *WaveShaper) Curve() []float64 { return w.curve }

// SetOversample selects the oversampling factor. Changing it resets the
// resampling filters.
func (w *WaveShaper) SetOversample(factor Oversample) error {
	if factor != Oversample2x && factor != Oversample4x {
		factor = OversampleNone
	}
	if factor == w.oversample {
		return nil
	}
	if factor == OversampleNone {
		w.oversample = factor
		w.up, w.down = [Channels]*resample.Resampler{}, [Channels]*resample.Resampler{}
		return nil
	}
	n := int(factor)
	var up, down [Channels]*resample.Resampler
	for ch := range Channels {
		var err error
		if up[ch], err = resample.NewRational(n, 1, resample.WithQuality(resample.QualityFast)); err != nil {
			return fmt.Errorf("graph: oversampler: %w", err)
		}
		// The decimator runs at the high rate, so it gets as many taps as
		// the interpolator to keep the same transition band.
		prof := resample.QualityProfile(resample.QualityFast)
		if down[ch], err = resample.NewRational(1, n,
			resample.WithQuality(resample.QualityFast),
			resample.WithTapsPerPhase(prof.TapsPerPhase*n)); err != nil {
			return fmt.Errorf("graph: oversampler: %w", err)
		}
	}
	w.oversample = factor
	w.up, w.down = up, down
	w.hi = make([]float64, 0, RenderQuantum*n)
	w.lo = make([]float64, 0, RenderQuantum)
	return nil
}

// Oversample returns the oversampling factor.
func (w *WaveShaper) Oversample() Oversample { return w.oversample }

// Shape evaluates the transfer curve at x.
func (w *WaveShaper) Shape(x float64) float64 {
	return shape(w.curve, x)
}

func shape(curve []float64, x float64) float64 {
	n := len(curve)
	if n == 0 {
		return x
	}
	if n == 1 {
		return curve[0]
	}
	v := float64(n-1) * 0.5 * (x + 1)
	if v <= 0 {
		return curve[0]
	}
	if v >= float64(n-1) {
		return curve[n-1]
	}
	k := int(v)
	f := v - float64(k)
	return curve[k] + (curve[k+1]-curve[k])*f
}

func (w *WaveShaper) process(in, out *Bus, _ float64) {
	if w.curve == nil {
		for ch := range out {
			copy(out[ch], in[ch])
		}
		return
	}
	if w.oversample == OversampleNone {
		for ch := range out {
			for i, x := range in[ch] {
				out[ch][i] = shape(w.curve, x)
			}
		}
		return
	}

	for ch := range out {
		w.hi = w.up[ch].ProcessInto(w.hi, in[ch])
		for i, x := range w.hi {
			w.hi[i] = shape(w.curve, x)
		}
		w.lo = w.down[ch].ProcessInto(w.lo, w.hi)
		// Integer ratios emit exactly one block per block.
		copy(out[ch], w.lo)
	}
}
