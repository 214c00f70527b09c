package graph

import (
	"fmt"
	"math"

	algofft "github.com/MeKo-Christian/algo-fft"
)

const (
	// Scaling applied to normalized impulse responses.
	convolverGainCalibration           = 0.00125
	convolverGainCalibrationSampleRate = 44100.0
	convolverMinPower                  = 0.000125
)

// Convolver applies a one- or two-channel impulse response using uniformly
// partitioned FFT convolution with one render quantum per partition, so it
// adds no latency. A mono response is applied to both channels.
type Convolver struct {
	*Node
	normalize bool
	kernels   []*partitionedKernel
	frames    int
}

// NewConvolver returns a convolver without a buffer. It outputs silence
// until SetBuffer is called.
func (c *Context) NewConvolver() *Convolver {
	v := &Convolver{normalize: true}
	v.Node = newNode(c, "convolver", v)
	return v
}

// SetNormalize selects whether subsequent buffers are power-normalized.
func (v *Convolver) SetNormalize(on bool) { v.normalize = on }

// SetBuffer installs a new impulse response and resets the convolution
// state. A nil buffer silences the node.
func (v *Convolver) SetBuffer(channels [][]float64) error {
	if channels == nil {
		v.kernels = nil
		v.frames = 0
		return nil
	}
	if len(channels) < 1 || len(channels) > Channels {
		return fmt.Errorf("%w: %d channels", ErrInvalidBuffer, len(channels))
	}
	n := len(channels[0])
	if n == 0 {
		return fmt.Errorf("%w: empty channel", ErrInvalidBuffer)
	}
	for _, ch := range channels[1:] {
		if len(ch) != n {
			return fmt.Errorf("%w: channel lengths differ", ErrInvalidBuffer)
		}
	}

	scale := 1.0
	if v.normalize {
		scale = normalizationScale(channels, v.ctx.sampleRate)
	}

	kernels := make([]*partitionedKernel, 0, Channels)
	for ch := range Channels {
		src := channels[min(ch, len(channels)-1)]
		k, err := newPartitionedKernel(src, scale)
		if err != nil {
			return err
		}
		kernels = append(kernels, k)
	}
	v.kernels = kernels
	v.frames = n
	return nil
}

// Len returns the impulse response length in frames, or 0 without a buffer.
func (v *Convolver) Len() int { return v.frames }

// normalizationScale returns the gain that brings an impulse response to
// a common loudness regardless of its length and sample rate.
func normalizationScale(channels [][]float64, sampleRate float64) float64 {
	power := 0.0
	count := 0
	for _, ch := range channels {
		for _, x := range ch {
			power += x * x
		}
		count += len(ch)
	}
	power = math.Sqrt(power / float64(count))
	if math.IsNaN(power) || math.IsInf(power, 0) || power < convolverMinPower {
		power = convolverMinPower
	}
	scale := 1 / power
	scale *= convolverGainCalibration
	scale *= convolverGainCalibrationSampleRate / sampleRate
	return scale
}

func (v *Convolver) process(in, out *Bus, _ float64) {
	if v.kernels == nil {
		out.zero()
		return
	}
	for ch := range out {
		v.kernels[ch].process(in[ch], out[ch])
	}
}

// partitionedKernel holds the spectra of an impulse response split into
// RenderQuantum-sized partitions and the frequency-domain delay line of
// past input spectra.
type partitionedKernel struct {
	plan    *algofft.Plan[complex128]
	size    int
	parts   [][]complex128
	history [][]complex128
	head    int
	prevIn  []float64
	timeBuf []complex128
	freqBuf []complex128
	accum   []complex128
}

func newPartitionedKernel(ir []float64, scale float64) (*partitionedKernel, error) {
	size := 2 * RenderQuantum
	plan, err := algofft.NewPlan64(size)
	if err != nil {
		return nil, fmt.Errorf("graph: convolver FFT plan: %w", err)
	}

	count := (len(ir) + RenderQuantum - 1) / RenderQuantum
	k := &partitionedKernel{
		plan:    plan,
		size:    size,
		parts:   make([][]complex128, count),
		history: make([][]complex128, count),
		prevIn:  make([]float64, RenderQuantum),
		timeBuf: make([]complex128, size),
		freqBuf: make([]complex128, size),
		accum:   make([]complex128, size),
	}

	for p := range count {
		clear(k.timeBuf)
		start := p * RenderQuantum
		end := min(start+RenderQuantum, len(ir))
		for i, x := range ir[start:end] {
			k.timeBuf[i] = complex(x*scale, 0)
		}
		k.parts[p] = make([]complex128, size)
		if err := plan.Forward(k.parts[p], k.timeBuf); err != nil {
			return nil, fmt.Errorf("graph: convolver kernel FFT: %w", err)
		}
		k.history[p] = make([]complex128, size)
	}
	return k, nil
}

// process convolves one block using overlap-save: the FFT input is the
// previous block followed by the current one, and the second half of the
// inverse transform holds the valid output.
func (k *partitionedKernel) process(in, out []float64) {
	for i := range RenderQuantum {
		k.timeBuf[i] = complex(k.prevIn[i], 0)
		k.timeBuf[RenderQuantum+i] = complex(in[i], 0)
	}
	copy(k.prevIn, in)

	k.head--
	if k.head < 0 {
		k.head = len(k.history) - 1
	}
	spec := k.history[k.head]
	if err := k.plan.Forward(spec, k.timeBuf); err != nil {
		clear(out)
		return
	}

	// Real input gives a Hermitian spectrum; accumulate the lower half
	// and mirror the rest.
	half := k.size / 2
	clear(k.accum)
	n := len(k.history)
	for p, part := range k.parts {
		x := k.history[(k.head+p)%n]
		for b := 0; b <= half; b++ {
			k.accum[b] += x[b] * part[b]
		}
	}
	for b := 1; b < half; b++ {
		re, im := real(k.accum[b]), imag(k.accum[b])
		k.accum[k.size-b] = complex(re, -im)
	}

	if err := k.plan.Inverse(k.freqBuf, k.accum); err != nil {
		clear(out)
		return
	}
	for i := range out {
		out[i] = real(k.freqBuf[RenderQuantum+i])
	}
}
