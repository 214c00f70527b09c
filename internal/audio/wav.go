package audio

import (
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"strings"

	"github.com/cwbudde/algo-synth/dsp/dither"
	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// ErrInvalidFormat reports an unsupported WAV layout.
var ErrInvalidFormat = errors.New("audio: invalid format")

const wavPCM = 1

// shelfShapingHz is the corner of the "shelf" noise shaper.
const shelfShapingHz = 5000

// WAVOptions configures WriteWAV.
type WAVOptions struct {
	// BitDepth is 16 (default) or 24.
	BitDepth int
	// NoiseShaping names the error-feedback shaper applied after dithering:
	// "" or "none", "sharp", "shelf", or a dither preset name such as "9FC".
	NoiseShaping string
	// Rand seeds the dither; nil uses a random seed.
	Rand *rand.Rand
}

// WAVWriter streams interleaved stereo float32 blocks to a PCM WAV file.
type WAVWriter struct {
	enc   *wav.Encoder
	q     [2]*dither.Quantizer
	buf   *audio.IntBuffer
	count int
}

// NewWAVWriter writes a stereo WAV header to w.
func NewWAVWriter(w io.WriteSeeker, sampleRate int, opts WAVOptions) (*WAVWriter, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("%w: sample rate %d", ErrInvalidFormat, sampleRate)
	}
	bits := opts.BitDepth
	if bits == 0 {
		bits = 16
	}
	if bits != 16 && bits != 24 {
		return nil, fmt.Errorf("%w: bit depth %d", ErrInvalidFormat, bits)
	}
	shaping, err := shapingOption(opts.NoiseShaping)
	if err != nil {
		return nil, err
	}
	rng := opts.Rand
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	var q [2]*dither.Quantizer
	for ch := range q {
		// Each channel keeps its own shaper history.
		q[ch], err = dither.NewQuantizer(float64(sampleRate),
			dither.WithBitDepth(bits), dither.WithRNG(rng), shaping)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidFormat, err)
		}
	}
	return &WAVWriter{
		enc: wav.NewEncoder(w, sampleRate, bits, 2, wavPCM),
		q:   q,
		buf: &audio.IntBuffer{
			Format:         &audio.Format{NumChannels: 2, SampleRate: sampleRate},
			SourceBitDepth: bits,
		},
	}, nil
}

// shapingOption maps a shaper name onto a quantizer option.
func shapingOption(name string) (dither.Option, error) {
	switch strings.ToLower(name) {
	case "", "none":
		return dither.WithFIRPreset(dither.PresetNone), nil
	case "sharp":
		return dither.WithSharpPreset(), nil
	case "shelf":
		return dither.WithIIRShelf(shelfShapingHz), nil
	}
	p, err := dither.ParsePreset(name)
	if err != nil {
		return nil, fmt.Errorf("%w: noise shaping %q", ErrInvalidFormat, name)
	}
	return dither.WithFIRPreset(p), nil
}

// Write appends interleaved stereo samples.
func (w *WAVWriter) Write(samples []float32) error {
	data := w.buf.Data[:0]
	for i, x := range samples {
		data = append(data, w.q[i&1].ProcessInteger(float64(x)))
	}
	w.buf.Data = data
	if err := w.enc.Write(w.buf); err != nil {
		return fmt.Errorf("audio: write wav: %w", err)
	}
	w.count += len(samples) / 2
	return nil
}

// Frames returns the number of frames written so far.
func (w *WAVWriter) Frames() int { return w.count }

// Close finalizes the header. It does not close the underlying writer.
func (w *WAVWriter) Close() error {
	if err := w.enc.Close(); err != nil {
		return fmt.Errorf("audio: close wav: %w", err)
	}
	return nil
}

// ReadWAV decodes a PCM WAV file into per-channel float samples in [-1, 1].
func ReadWAV(r io.ReadSeeker) (channels [][]float64, sampleRate int, err error) {
	dec := wav.NewDecoder(r)
	if !dec.IsValidFile() {
		return nil, 0, fmt.Errorf("%w: not a wav file", ErrInvalidFormat)
	}
	if dec.WavAudioFormat != wavPCM {
		return nil, 0, fmt.Errorf("%w: audio format %d, want PCM", ErrInvalidFormat, dec.WavAudioFormat)
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, 0, fmt.Errorf("audio: read wav: %w", err)
	}
	n := int(dec.NumChans)
	if n < 1 {
		return nil, 0, fmt.Errorf("%w: %d channels", ErrInvalidFormat, n)
	}
	bits := buf.SourceBitDepth
	if bits == 0 {
		bits = int(dec.BitDepth)
	}
	scale := 1 / float64(int(1)<<(bits-1))
	if bits == 8 {
		// 8-bit WAV is unsigned.
		scale = 1.0 / 128
	}

	frames := len(buf.Data) / n
	channels = make([][]float64, n)
	for ch := range channels {
		channels[ch] = make([]float64, frames)
	}
	for i := range frames {
		for ch := range n {
			v := buf.Data[i*n+ch]
			if bits == 8 {
				v -= 128
			}
			channels[ch][i] = float64(v) * scale
		}
	}
	return channels, int(dec.SampleRate), nil
}
