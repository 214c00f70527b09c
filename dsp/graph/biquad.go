package graph

import (
	"fmt"
	"math"
	"strings"

	"github.com/cwbudde/algo-synth/dsp/filter/biquad"
	"github.com/cwbudde/algo-synth/dsp/filter/design"
)

// FilterType selects the BiquadFilter response.
type FilterType int

const (
	Lowpass FilterType = iota
	Highpass
	Bandpass
	Lowshelf
	Highshelf
	Peaking
	Notch
	Allpass
)

// shelfQ gives the shelves a fixed slope of one.
const shelfQ = 1 / math.Sqrt2

var filterTypeNames = [...]string{"lowpass", "highpass", "bandpass", "lowshelf", "highshelf", "peaking", "notch", "allpass"}

func (t FilterType) String() string {
	if t >= 0 && int(t) < len(filterTypeNames) {
		return filterTypeNames[t]
	}
	return fmt.Sprintf("filter(%d)", int(t))
}

// ParseFilterType maps a response name to its FilterType.
func ParseFilterType(name string) (FilterType, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for i, n := range filterTypeNames {
		if n == name {
			return FilterType(i), nil
		}
	}
	return 0, fmt.Errorf("graph: unknown filter type %q", name)
}

// BiquadFilter is a second-order IIR filter with automatable frequency,
// Q and gain. Q is in dB for the low- and high-pass responses and ignored
// by the shelves. Gain (dB) applies to the shelves and peaking only.
type BiquadFilter struct {
	*Node
	typ       FilterType
	frequency *Param
	q         *Param
	gain      *Param

	key      [3]float64
	dirty    bool
	sections [Channels]biquad.Section
}

// NewBiquadFilter returns a filter with frequency 350 Hz, Q 1 and gain 0 dB.
func (c *Context) NewBiquadFilter(t FilterType) *BiquadFilter {
	f := &BiquadFilter{
		typ:       t,
		frequency: newParam(c, "frequency", 350, 0, c.sampleRate/2),
		q:         newParam(c, "Q", 1, -770, 770),
		gain:      newParam(c, "gain", 0, -1541, 1541),
		dirty:     true,
	}
	f.Node = newNode(c, "biquad", f, f.frequency, f.q, f.gain)
	return f
}

// Type returns the filter response.
func (f *BiquadFilter) Type() FilterType { return f.typ }

// SetType changes the filter response. Filter state is kept.
func (f *BiquadFilter) SetType(t FilterType) {
	f.typ = t
	f.dirty = true
}

// Frequency returns the cutoff or centre frequency parameter in Hz.
func (f *BiquadFilter) Frequency() *Param { return f.frequency }

// Q returns the quality parameter.
func (f *BiquadFilter) Q() *Param { return f.q }

// Gain returns the gain parameter in dB.
func (f *BiquadFilter) Gain() *Param { return f.gain }

// Reset clears the filter state.
func (f *BiquadFilter) Reset() {
	for ch := range f.sections {
		f.sections[ch].Reset()
	}
}

// update redesigns the sections when frame i carries new parameter values.
func (f *BiquadFilter) update(i int) {
	key := [3]float64{f.frequency.at(i), f.q.at(i), f.gain.at(i)}
	if !f.dirty && key == f.key {
		return
	}
	c := designBiquad(f.typ, key[0], key[1], key[2], f.ctx.sampleRate)
	for ch := range f.sections {
		f.sections[ch].Coefficients = c
	}
	f.key = key
	f.dirty = false
}

func (f *BiquadFilter) process(in, out *Bus, _ float64) {
	f.update(0)
	if f.frequency.static && f.q.static && f.gain.static {
		for ch := range out {
			f.sections[ch].ProcessBlockTo(out[ch], in[ch])
		}
	} else {
		for i := range RenderQuantum {
			f.update(i)
			for ch := range out {
				out[ch][i] = f.sections[ch].ProcessSample(in[ch][i])
			}
		}
	}
	for ch := range f.sections {
		if !f.sections[ch].Stable() {
			f.sections[ch].Reset()
		}
	}
}

// designBiquad maps the node's parameters onto the cookbook designers.
// Frequency is kept strictly inside (0, nyquist) so automation sweeping to
// an edge never yields the designers' all-zero coefficients.
func designBiquad(t FilterType, freq, q, gainDB, sampleRate float64) biquad.Coefficients {
	freq = math.Min(math.Max(freq, 1e-5*sampleRate), 0.4999*sampleRate)
	switch t {
	case Lowpass:
		return design.Lowpass(freq, math.Pow(10, q/20), sampleRate)
	case Highpass:
		return design.Highpass(freq, math.Pow(10, q/20), sampleRate)
	case Bandpass:
		return design.BandpassPeak(freq, q, sampleRate)
	case Lowshelf:
		return design.LowShelf(freq, gainDB, shelfQ, sampleRate)
	case Highshelf:
		return design.HighShelf(freq, gainDB, shelfQ, sampleRate)
	case Peaking:
		return design.Peak(freq, gainDB, q, sampleRate)
	case Notch:
		return design.Notch(freq, q, sampleRate)
	case Allpass:
		return design.Allpass(freq, q, sampleRate)
	default:
		return biquad.Coefficients{B0: 1}
	}
}

// MagnitudeAt returns the response magnitude at hz for the current
// intrinsic parameter values.
func (f *BiquadFilter) MagnitudeAt(hz float64) float64 {
	sr := f.ctx.sampleRate
	c := designBiquad(f.typ, f.frequency.Value(), f.q.Value(), f.gain.Value(), sr)
	return math.Sqrt(c.MagnitudeSquared(hz, sr))
}
