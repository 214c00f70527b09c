package graph

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-synth/dsp/delay"
)

// Delay delays its input by an automatable time in seconds. Inside a
// feedback loop the effective delay is at least one render quantum.
type Delay struct {
	*Node
	delayTime *Param
	maxFrames int
	lines     [Channels]*delay.Line
}

// NewDelay returns a delay line able to hold maxSeconds of audio.
func (c *Context) NewDelay(maxSeconds float64) (*Delay, error) {
	if maxSeconds <= 0 || math.IsNaN(maxSeconds) || math.IsInf(maxSeconds, 0) {
		return nil, fmt.Errorf("graph: max delay must be > 0 and finite: %f", maxSeconds)
	}
	frames := int(math.Ceil(maxSeconds * c.sampleRate))
	d := &Delay{
		delayTime: newParam(c, "delayTime", 0, 0, maxSeconds),
		maxFrames: frames,
	}
	// Room for the read-ahead block and interpolation taps.
	size := frames + RenderQuantum + 4
	for ch := range d.lines {
		line, err := delay.New(size)
		if err != nil {
			return nil, fmt.Errorf("graph: %w", err)
		}
		d.lines[ch] = line
	}
	d.Node = newNode(c, "delay", d, d.delayTime)
	return d, nil
}

// DelayTime returns the delay time parameter in seconds.
func (d *Delay) DelayTime() *Param { return d.delayTime }

// MaxDelay returns the longest supported delay in seconds.
func (d *Delay) MaxDelay() float64 {
	return float64(d.maxFrames) / d.ctx.sampleRate
}

func (d *Delay) process(in, out *Bus, _ float64) {
	sr := d.ctx.sampleRate
	for i := range RenderQuantum {
		// Read(1) is the sample just written, so a zero delay passes through.
		age := d.delayTime.at(i)*sr + 1
		for ch := range out {
			d.lines[ch].Write(in[ch][i])
			out[ch][i] = d.lines[ch].ReadFractional(age)
		}
	}
}

// readAhead renders a block before its input exists, reading only
// samples written in earlier blocks.
func (d *Delay) readAhead(out *Bus, t0 float64) {
	sr := d.ctx.sampleRate
	for i := range RenderQuantum {
		t := t0 + float64(i)/sr
		frames := math.Max(d.delayTime.ValueAt(t)*sr, RenderQuantum)
		// Read(1), the newest stored sample, lies i+1 frames behind frame i.
		age := frames - float64(i)
		for ch := range out {
			out[ch][i] = d.lines[ch].ReadFractional(age)
		}
	}
}

func (d *Delay) writeBehind(in *Bus) {
	for i := range RenderQuantum {
		for ch := range in {
			d.lines[ch].Write(in[ch][i])
		}
	}
}
