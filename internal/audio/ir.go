package audio

import (
	"fmt"
	"math"
	"os"
	"slices"

	"github.com/cwbudde/algo-synth/dsp/resample"
	"github.com/cwbudde/algo-synth/dsp/window"
)

const (
	// maxImpulseSeconds bounds imported impulse responses.
	maxImpulseSeconds = 10
	// impulseFadeSeconds is the half-Hann fade applied to the last samples.
	impulseFadeSeconds = 0.005
)

// LoadImpulseResponse reads a WAV impulse response and resamples it to
// sampleRate. Only the first two channels are kept. The tail gets a short
// fade so a truncated file does not end in a step.
func LoadImpulseResponse(path string, sampleRate float64) ([][]float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("audio: open impulse: %w", err)
	}
	defer f.Close()

	channels, rate, err := ReadWAV(f)
	if err != nil {
		return nil, fmt.Errorf("audio: impulse %s: %w", path, err)
	}
	if len(channels) > 2 {
		channels = channels[:2]
	}
	if len(channels[0]) == 0 {
		return nil, fmt.Errorf("%w: empty impulse", ErrInvalidFormat)
	}
	if float64(len(channels[0]))/float64(rate) > maxImpulseSeconds {
		return nil, fmt.Errorf("%w: impulse longer than %ds", ErrInvalidFormat, maxImpulseSeconds)
	}
	for i, ch := range channels {
		if channels[i], err = resampleChannel(ch, float64(rate), sampleRate); err != nil {
			return nil, err
		}
		fadeTail(channels[i], int(impulseFadeSeconds*sampleRate))
	}
	return channels, nil
}

// resampleChannel converts x between rates. The filter delay is trimmed so
// the output lines up with the input and keeps its duration.
func resampleChannel(x []float64, from, to float64) ([]float64, error) {
	if from == to {
		return slices.Clone(x), nil
	}
	r, err := resample.NewForRates(from, to)
	if err != nil {
		return nil, fmt.Errorf("audio: resample impulse: %w", err)
	}
	up, down := r.Ratio()
	n := int(math.Round(float64(len(x)) * float64(up) / float64(down)))

	y := r.Process(x)
	// Flush so the last input samples reach the output.
	y = append(y, r.Process(make([]float64, r.TapsPerPhase()+1))...)
	y = y[min(int(math.Round(r.Latency())), len(y)):]

	out := make([]float64, n)
	copy(out, y)
	return out, nil
}

// fadeTail tapers the last n samples of x to zero.
func fadeTail(x []float64, n int) {
	if n <= 0 || 2*n > len(x) {
		return
	}
	window.Apply(window.TypeHann, x[len(x)-2*n:], window.WithSlope(window.SlopeRight))
}
