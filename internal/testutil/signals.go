package testutil

import "math"

// DeterministicSine generates a deterministic sine wave.
func DeterministicSine(freqHz, sampleRate, amplitude float64, length int) []float64 {
	out := make([]float64, length)
	step := 2 * math.Pi * freqHz / sampleRate
	for i := range out {
		out[i] = amplitude * math.Sin(step*float64(i))
	}
	return out
}

// Impulse generates a unit impulse at the given position.
func Impulse(length, pos int) []float64 {
	out := make([]float64, length)
	if pos >= 0 && pos < length {
		out[pos] = 1
	}
	return out
}

// Interleave builds an interleaved float32 buffer from equal-length
// channels.
func Interleave(channels ...[]float64) []float32 {
	if len(channels) == 0 {
		return nil
	}
	n := len(channels[0])
	out := make([]float32, n*len(channels))
	for i := range n {
		for ch, data := range channels {
			out[i*len(channels)+ch] = float32(data[i])
		}
	}
	return out
}

// Channel extracts channel ch from an interleaved buffer.
func Channel(interleaved []float32, channels, ch int) []float64 {
	out := make([]float64, 0, len(interleaved)/channels)
	for i := ch; i < len(interleaved); i += channels {
		out = append(out, float64(interleaved[i]))
	}
	return out
}

// Peak returns the largest absolute sample value.
func Peak[T float32 | float64](data []T) float64 {
	peak := 0.0
	for _, v := range data {
		peak = max(peak, math.Abs(float64(v)))
	}
	return peak
}

// Energy returns the sum of squared samples.
func Energy[T float32 | float64](data []T) float64 {
	sum := 0.0
	for _, v := range data {
		sum += float64(v) * float64(v)
	}
	return sum
}
