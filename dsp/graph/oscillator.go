package graph

import (
	"fmt"
	"math"
	"strings"
)

// Waveform selects the oscillator shape.
type Waveform int

const (
	WaveSine Waveform = iota
	WaveSquare
	WaveSawtooth
	WaveTriangle
)

func (w Waveform) String() string {
	switch w {
	case WaveSine:
		return "sine"
	case WaveSquare:
		return "square"
	case WaveSawtooth:
		return "sawtooth"
	case WaveTriangle:
		return "triangle"
	default:
		return fmt.Sprintf("waveform(%d)", int(w))
	}
}

// ParseWaveform maps a waveform name to its Waveform.
func ParseWaveform(name string) (Waveform, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "sine":
		return WaveSine, nil
	case "square":
		return WaveSquare, nil
	case "sawtooth", "saw":
		return WaveSawtooth, nil
	case "triangle":
		return WaveTriangle, nil
	default:
		return 0, fmt.Errorf("graph: unknown waveform %q", name)
	}
}

// Oscillator is a band-limited periodic source. Frequency is the
// fundamental in Hz, detune an offset in cents; the effective frequency
// is frequency*2^(detune/1200). An oscillator plays once: after its stop
// time it ends and cannot be restarted.
type Oscillator struct {
	*Node
	waveform  Waveform
	frequency *Param
	detune    *Param

	phase   float64
	startAt float64
	stopAt  float64
	started bool
	ended   bool
	onEnded func()
}

// NewOscillator returns an idle oscillator at 440 Hz.
func (c *Context) NewOscillator(w Waveform) *Oscillator {
	nyquist := c.sampleRate / 2
	o := &Oscillator{
		waveform:  w,
		frequency: newParam(c, "frequency", 440, -nyquist, nyquist),
		detune:    newParam(c, "detune", 0, -153600, 153600),
		stopAt:    math.Inf(1),
	}
	o.Node = newNode(c, "oscillator", o, o.frequency, o.detune)
	c.register(o)
	return o
}

// Frequency returns the frequency parameter in Hz.
func (o *Oscillator) Frequency() *Param { return o.frequency }

// Detune returns the detune parameter in cents.
func (o *Oscillator) Detune() *Param { return o.detune }

// Waveform returns the current shape.
func (o *Oscillator) Waveform() Waveform { return o.waveform }

// SetWaveform changes the shape without resetting phase.
func (o *Oscillator) SetWaveform(w Waveform) { o.waveform = w }

// Start schedules playback from time at.
func (o *Oscillator) Start(at float64) error {
	if o.ended {
		return ErrEnded
	}
	if o.started {
		return ErrAlreadyStarted
	}
	o.started = true
	o.startAt = at
	return nil
}

// Stop schedules the end of playback at time at. A later call replaces
// the previously scheduled stop time.
func (o *Oscillator) Stop(at float64) error {
	if o.ended {
		return ErrEnded
	}
	if !o.started {
		return ErrNotStarted
	}
	o.stopAt = math.Max(at, o.startAt)
	return nil
}

// StopTime returns the scheduled stop time, +Inf when none is set.
func (o *Oscillator) StopTime() float64 { return o.stopAt }

// Ended reports whether the oscillator has passed its stop time.
func (o *Oscillator) Ended() bool { return o.ended }

// OnEnded registers fn to run between blocks once the oscillator ends.
func (o *Oscillator) OnEnded(fn func()) { o.onEnded = fn }

func (o *Oscillator) process(_, out *Bus, t0 float64) {
	left, right := out[0], out[1]
	if !o.started || o.ended {
		clear(left)
		clear(right)
		return
	}

	sr := o.ctx.sampleRate
	for i := range left {
		t := t0 + float64(i)/sr
		if t < o.startAt || t >= o.stopAt {
			left[i] = 0
			right[i] = 0
			continue
		}

		f := o.frequency.at(i)
		if d := o.detune.at(i); d != 0 {
			f *= math.Exp2(d / 1200)
		}
		dt := f / sr
		v := o.sample(math.Abs(dt))
		left[i] = v
		right[i] = v

		o.phase += dt
		o.phase -= math.Floor(o.phase)
	}
}

func (o *Oscillator) sample(dt float64) float64 {
	p := o.phase
	switch o.waveform {
	case WaveSquare:
		v := 1.0
		if p >= 0.5 {
			v = -1
		}
		return v + polyBLEP(p, dt) - polyBLEP(math.Mod(p+0.5, 1), dt)
	case WaveSawtooth:
		return 2*p - 1 - polyBLEP(p, dt)
	case WaveTriangle:
		return 1 - 4*math.Abs(math.Mod(p+0.25, 1)-0.5)
	default:
		return math.Sin(2 * math.Pi * p)
	}
}

// polyBLEP returns the residual that smooths a unit step located at phase 0.
func polyBLEP(t, dt float64) float64 {
	if dt <= 0 {
		return 0
	}
	if t < dt {
		t /= dt
		return t + t - t*t - 1
	}
	if t > 1-dt {
		t = (t - 1) / dt
		return t*t + t + t + 1
	}
	return 0
}
