package graph

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-synth/dsp/effects/dynamics"
)

// Compressor is a stereo-linked feed-forward compressor. Threshold and
// knee are in dB, attack and release in seconds. All parameters are
// evaluated once per block. Makeup gain is derived from the gain curve
// so that a full-scale signal keeps roughly its loudness.
type Compressor struct {
	*Node
	threshold *Param
	knee      *Param
	ratio     *Param
	attack    *Param
	release   *Param

	dyn       *dynamics.Compressor
	key       [5]float64
	reduction float64
}

// NewCompressor returns a compressor with threshold -24 dB, knee 30 dB,
// ratio 12, attack 3 ms and release 250 ms.
func (c *Context) NewCompressor() (*Compressor, error) {
	dyn, err := dynamics.NewCompressor(c.sampleRate)
	if err != nil {
		return nil, fmt.Errorf("graph: %w", err)
	}
	k := &Compressor{
		threshold: newParam(c, "threshold", -24, -100, 0),
		knee:      newParam(c, "knee", 30, 0, 40),
		ratio:     newParam(c, "ratio", 12, 1, 20),
		attack:    newParam(c, "attack", 0.003, 0, 1),
		release:   newParam(c, "release", 0.25, 0, 1),
		dyn:       dyn,
		key:       [5]float64{math.NaN()},
	}
	k.Node = newNode(c, "compressor", k, k.threshold, k.knee, k.ratio, k.attack, k.release)
	return k, nil
}

// Threshold returns the threshold parameter in dB.
func (k *Compressor) Threshold() *Param { return k.threshold }

// Knee returns the knee width parameter in dB.
func (k *Compressor) Knee() *Param { return k.knee }

// Ratio returns the ratio parameter.
func (k *Compressor) Ratio() *Param { return k.ratio }

// Attack returns the attack parameter in seconds.
func (k *Compressor) Attack() *Param { return k.attack }

// Release returns the release parameter in seconds.
func (k *Compressor) Release() *Param { return k.release }

// Reduction returns the deepest gain reduction during the last block in
// dB (zero or negative).
func (k *Compressor) Reduction() float64 { return k.reduction }

// configure pushes the block's parameter values into the detector when
// they changed. Params clamp to ranges the detector accepts.
func (k *Compressor) configure() error {
	key := [5]float64{k.threshold.at(0), k.knee.at(0), k.ratio.at(0), k.attack.at(0), k.release.at(0)}
	if key == k.key {
		return nil
	}
	k.key = key
	for _, err := range []error{
		k.dyn.SetThreshold(key[0]),
		k.dyn.SetKnee(key[1]),
		k.dyn.SetRatio(key[2]),
		k.dyn.SetAttack(key[3] * 1000),
		k.dyn.SetRelease(key[4] * 1000),
		k.dyn.SetMakeupGain(0),
	} {
		if err != nil {
			return fmt.Errorf("graph: compressor: %w", err)
		}
	}
	// Makeup (1/g)^0.6 where g is the static gain at full scale.
	makeupDB := -0.6 * 20 * math.Log10(k.dyn.StaticGain(1))
	if err := k.dyn.SetMakeupGain(makeupDB); err != nil {
		return fmt.Errorf("graph: compressor: %w", err)
	}
	return nil
}

func (k *Compressor) process(in, out *Bus, _ float64) {
	if err := k.configure(); err != nil {
		k.ctx.logger.Warn("compressor parameters rejected", "err", err)
	}
	k.dyn.ResetMetrics()
	left, right := in[0], in[1]
	for i := range RenderQuantum {
		out[0][i], out[1][i] = k.dyn.ProcessStereo(left[i], right[i])
	}
	k.reduction = 20 * math.Log10(k.dyn.GetMetrics().GainReduction)
}
