// Package shape generates transfer curves and impulse responses used by
// the synth effect chain.
package shape

import (
	"math"
	"math/rand/v2"
	"time"
)

// DefaultCurveLength is the number of points in a distortion curve.
const DefaultCurveLength = 44100

// DistortionCurve returns an n-point soft-clipping transfer curve over
// the input range [-1, 1]. Drive is clamped at zero; zero drive gives a
// gentle, nearly linear curve. The curve is odd: curve(-x) = -curve(x).
func DistortionCurve(drive float64, n int) []float64 {
	if n <= 0 {
		n = DefaultCurveLength
	}
	k := math.Max(0, drive) * 100
	const deg = math.Pi / 180
	curve := make([]float64, n)
	for i := range curve {
		// Integer numerator keeps x exactly antisymmetric around the centre.
		x := float64(2*i-n) / float64(n)
		curve[i] = (3 + k) * x * 20 * deg / (math.Pi + k*math.Abs(x))
	}
	return curve
}

// NoiseImpulse returns a two-channel decaying noise burst of
// floor(sampleRate*seconds) frames. Each sample is uniform noise in
// [-1, 1) scaled by (1 - i/len)^2. A nil rng uses a time-seeded source.
func NoiseImpulse(sampleRate, seconds float64, rng *rand.Rand) [][]float64 {
	n := int(sampleRate * seconds)
	if n < 1 {
		n = 1
	}
	if rng == nil {
		seed := uint64(time.Now().UnixNano())
		rng = rand.New(rand.NewPCG(seed, seed>>17|1))
	}
	out := make([][]float64, 2)
	for ch := range out {
		buf := make([]float64, n)
		for i := range buf {
			decay := 1 - float64(i)/float64(n)
			buf[i] = (rng.Float64()*2 - 1) * decay * decay
		}
		out[ch] = buf
	}
	return out
}
