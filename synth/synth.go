// Package synth is a subtractive synthesizer engine built on dsp/graph.
//
// A Synth owns an audio context, a fixed effect chain (wah, distortion,
// tremolo, EQ, phaser, chorus, delay, reverb, compressor) and a voice
// manager. Settings changes move parameters of the live graph; they never
// rebuild it. All methods must be called from one goroutine, or be
// serialized with rendering by the caller.
package synth

import (
	"fmt"
	"log/slog"
	"math/rand/v2"

	"github.com/cwbudde/algo-synth/dsp/graph"
)

type config struct {
	logger *slog.Logger
	build  []BuildOption
}

// Option configures a Synth.
type Option func(*config)

// WithLogger sets the logger of the synth and its audio context.
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *config) {
		if logger != nil {
			cfg.logger = logger
		}
	}
}

// WithEffects restricts the effect chain to the given stages.
func WithEffects(kinds ...StageKind) Option {
	return func(cfg *config) {
		cfg.build = append(cfg.build, WithStages(kinds...))
	}
}

// WithRand sets the random source for reverb impulse responses.
func WithRand(rng *rand.Rand) Option {
	return func(cfg *config) {
		cfg.build = append(cfg.build, WithNoiseSource(rng))
	}
}

// Synth is the engine facade.
type Synth struct {
	ctx    *graph.Context
	graph  *SignalGraph
	voices *VoiceManager
	keys   *KeyTracker
	logger *slog.Logger

	settings Settings
	scale    ScaleDetune
}

// New builds an engine rendering at sampleRate with default settings.
func New(sampleRate float64, opts ...Option) (*Synth, error) {
	cfg := config{logger: slog.Default()}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	ctx, err := graph.NewContext(sampleRate, graph.WithLogger(cfg.logger))
	if err != nil {
		return nil, err
	}
	g, err := BuildSignalGraph(ctx, cfg.build...)
	if err != nil {
		return nil, err
	}

	s := &Synth{
		ctx:      ctx,
		graph:    g,
		logger:   cfg.logger,
		settings: DefaultSettings(),
		scale:    ScaleDetune{},
	}
	s.voices = NewVoiceManager(ctx, g.Entry(), cfg.logger)
	s.voices.SetScale(s.scale)
	s.keys = NewKeyTracker(s)
	s.apply(s.settings)
	return s, nil
}

// Context returns the audio context.
func (s *Synth) Context() *graph.Context { return s.ctx }

// Graph returns the effect chain.
func (s *Synth) Graph() *SignalGraph { return s.graph }

// Voices returns the voice manager.
func (s *Synth) Voices() *VoiceManager { return s.voices }

// Keys returns the key tracker bound to this engine.
func (s *Synth) Keys() *KeyTracker { return s.keys }

// Settings returns the current settings.
func (s *Synth) Settings() Settings { return s.settings }

// Poly reports whether the engine is in polyphonic mode.
func (s *Synth) Poly() bool { return s.settings.Poly }

// Priority returns the mono note priority.
func (s *Synth) Priority() Priority {
	p, err := ParsePriority(s.settings.Priority)
	if err != nil {
		return PriorityLast
	}
	return p
}

// ApplySettings merges p into the current settings and pushes the result
// onto the graph. A nil patch re-applies the current settings. On error
// nothing changes.
func (s *Synth) ApplySettings(p Patch) error {
	next, err := s.settings.MergePatch(p)
	if err != nil {
		return err
	}
	s.apply(next)
	return nil
}

// ApplySettingsJSON is ApplySettings for a JSON object.
func (s *Synth) ApplySettingsJSON(data []byte) error {
	next, err := s.settings.Merge(data)
	if err != nil {
		return err
	}
	s.apply(next)
	return nil
}

func (s *Synth) apply(next Settings) {
	if next.Poly != s.settings.Poly {
		s.keys.Reset()
	}
	s.graph.Apply(next)
	s.voices.Update(next)
	s.settings = next
}

// PlayNote starts a note. See VoiceManager.PlayNote.
func (s *Synth) PlayNote(freq float64, note string) Handle {
	return s.voices.PlayNote(freq, note)
}

// StopNote releases a voice. See VoiceManager.StopNote.
func (s *Synth) StopNote(h Handle, forceImmediate bool) {
	s.voices.StopNote(h, forceImmediate)
}

// ToggleScaleNote toggles the quarter-tone detune of a pitch class and
// returns the new state.
func (s *Synth) ToggleScaleNote(pc string) bool {
	return s.scale.Toggle(pc)
}

// ResetScale clears the detune map.
func (s *Synth) ResetScale() {
	s.scale.Reset()
}

// Scale returns a copy of the detune map.
func (s *Synth) Scale() ScaleDetune {
	return s.scale.Clone()
}

// SetReverbTime regenerates the reverb impulse response.
func (s *Synth) SetReverbTime(seconds float64) error {
	if err := s.graph.SetReverbTime(seconds); err != nil {
		return err
	}
	s.settings.VerbTime = seconds
	return nil
}

// SetReverbImpulse replaces the generated reverb impulse with channels.
// The next reverb time change generates a noise impulse again.
func (s *Synth) SetReverbImpulse(channels [][]float64) error {
	if err := s.graph.SetReverbImpulse(channels); err != nil {
		return fmt.Errorf("synth: reverb impulse: %w", err)
	}
	s.logger.Debug("reverb impulse loaded", "channels", len(channels))
	return nil
}

// Export returns the current state as a preset document.
func (s *Synth) Export() Document {
	return Document{Version: DocumentVersion, Settings: s.settings, Scale: s.scale.Clone()}
}

// ExportJSON returns Export encoded with a two-space indent.
func (s *Synth) ExportJSON() ([]byte, error) {
	return s.Export().MarshalIndent()
}

// Import loads a preset document. A document that fails to decode is
// logged and rejected without touching the engine.
func (s *Synth) Import(data []byte) error {
	doc, err := DecodeDocument(data)
	if err != nil {
		s.logger.Warn("synth: preset rejected", "error", err)
		return err
	}
	return s.load(doc.Settings, doc.Scale)
}

func (s *Synth) load(settings Settings, scale ScaleDetune) error {
	if settings.VerbTime != s.settings.VerbTime && settings.VerbTime > 0 {
		if err := s.graph.SetReverbTime(settings.VerbTime); err != nil {
			return fmt.Errorf("synth: load reverb: %w", err)
		}
	}
	s.apply(settings)
	s.scale.Reset()
	for pc, cents := range scale {
		s.scale[pc] = cents
	}
	return nil
}

// ApplyVoicePreset applies the oscillator, envelope and filter fields of
// a catalog voice.
func (s *Synth) ApplyVoicePreset(key string) error {
	p, ok := LookupVoicePreset(key)
	if !ok {
		return fmt.Errorf("%w: voice %q", ErrUnknownPreset, key)
	}
	s.apply(p.apply(s.settings))
	return nil
}

// ApplyStylePreset replaces settings and scale with a catalog style.
func (s *Synth) ApplyStylePreset(key string) error {
	p, ok := LookupStylePreset(key)
	if !ok {
		return fmt.Errorf("%w: style %q", ErrUnknownPreset, key)
	}
	return s.load(p.Settings, p.Scale)
}

// Render fills dst with interleaved stereo samples.
func (s *Synth) Render(dst []float32) {
	s.ctx.Render(dst)
}

// SampleRate returns the engine sample rate.
func (s *Synth) SampleRate() float64 { return s.ctx.SampleRate() }
