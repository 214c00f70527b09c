package synth

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"reflect"

	"github.com/cwbudde/algo-synth/dsp/graph"
)

// ErrInvalidSettings is returned when a settings document fails validation.
var ErrInvalidSettings = errors.New("synth: invalid settings")

// MaxReverbTime bounds the generated reverb impulse, in seconds.
const MaxReverbTime = 10.0

// Settings is the complete engine configuration. Every field has a default
// so that partial documents can be merged over DefaultSettings.
type Settings struct {
	Waveform  string  `json:"waveform"`
	Priority  string  `json:"priority"`
	Attack    float64 `json:"attack"`
	Decay     float64 `json:"decay"`
	Sustain   float64 `json:"sustain"`
	Release   float64 `json:"release"`
	Cutoff    float64 `json:"cutoff"`
	Resonance float64 `json:"resonance"`
	Volume    float64 `json:"volume"`
	Poly      bool    `json:"poly"`

	EQEnabled bool    `json:"eqEnabled"`
	EQLow     float64 `json:"eqLow"`
	EQMid     float64 `json:"eqMid"`
	EQHigh    float64 `json:"eqHigh"`

	DelayEnabled  bool    `json:"delayEnabled"`
	DelayTime     float64 `json:"delayTime"`
	DelayFeedback float64 `json:"delayFeedback"`
	DelayMix      float64 `json:"delayMix"`

	ReverbEnabled bool    `json:"reverbEnabled"`
	VerbTime      float64 `json:"verbTime"`
	VerbMix       float64 `json:"verbMix"`

	DistEnabled bool    `json:"distEnabled"`
	DistDrive   float64 `json:"distDrive"`
	DistMix     float64 `json:"distMix"`

	ChorusEnabled bool    `json:"chorusEnabled"`
	ChorusRate    float64 `json:"chorusRate"`
	ChorusDepth   float64 `json:"chorusDepth"`
	ChorusMix     float64 `json:"chorusMix"`

	WahEnabled bool    `json:"wahEnabled"`
	WahRate    float64 `json:"wahRate"`
	WahDepth   float64 `json:"wahDepth"`
	WahFreq    float64 `json:"wahFreq"`
	WahQ       float64 `json:"wahQ"`
	WahMix     float64 `json:"wahMix"`

	TremoloEnabled bool    `json:"tremoloEnabled"`
	TremoloRate    float64 `json:"tremoloRate"`
	TremoloDepth   float64 `json:"tremoloDepth"`

	PhaserEnabled  bool    `json:"phaserEnabled"`
	PhaserRate     float64 `json:"phaserRate"`
	PhaserDepth    float64 `json:"phaserDepth"`
	PhaserFreq     float64 `json:"phaserFreq"`
	PhaserFeedback float64 `json:"phaserFeedback"`
	PhaserMix      float64 `json:"phaserMix"`

	CompEnabled   bool    `json:"compEnabled"`
	CompThreshold float64 `json:"compThreshold"`
	CompKnee      float64 `json:"compKnee"`
	CompRatio     float64 `json:"compRatio"`
	CompAttack    float64 `json:"compAttack"`
	CompRelease   float64 `json:"compRelease"`
}

// DefaultSettings returns the documented defaults.
func DefaultSettings() Settings {
	return Settings{
		Waveform:  "sawtooth",
		Priority:  "last",
		Attack:    0.1,
		Decay:     0.3,
		Sustain:   0.5,
		Release:   1.0,
		Cutoff:    2000,
		Resonance: 1,
		Volume:    0.5,
		Poly:      true,

		EQEnabled:     true,
		DelayEnabled:  true,
		ReverbEnabled: true,
		VerbTime:      2,

		ChorusRate: 0.5,

		WahRate:  2,
		WahDepth: 0.5,
		WahFreq:  800,
		WahQ:     5,

		TremoloRate: 5,

		PhaserRate:     0.5,
		PhaserDepth:    0.5,
		PhaserFreq:     700,
		PhaserFeedback: 0.3,

		CompThreshold: -24,
		CompKnee:      30,
		CompRatio:     12,
		CompAttack:    0.003,
		CompRelease:   0.25,
	}
}

// Patch is a partial settings document keyed by JSON field name. Keys
// that do not name a setting are ignored.
type Patch map[string]any

// Merge returns s with the fields of data applied over it. data is a JSON
// object; absent fields keep their value in s.
func (s Settings) Merge(data []byte) (Settings, error) {
	out := s
	if err := json.Unmarshal(data, &out); err != nil {
		return s, fmt.Errorf("%w: %w", ErrInvalidSettings, err)
	}
	if err := out.Validate(); err != nil {
		return s, err
	}
	return out, nil
}

// MergePatch is Merge for an already decoded patch.
func (s Settings) MergePatch(p Patch) (Settings, error) {
	if len(p) == 0 {
		return s, s.Validate()
	}
	data, err := json.Marshal(p)
	if err != nil {
		return s, fmt.Errorf("%w: %w", ErrInvalidSettings, err)
	}
	return s.Merge(data)
}

// Validate checks enumerations, finiteness and value ranges.
func (s Settings) Validate() error {
	if _, err := graph.ParseWaveform(s.Waveform); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidSettings, err)
	}
	if _, err := ParsePriority(s.Priority); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidSettings, err)
	}

	v := reflect.ValueOf(s)
	for i := range v.NumField() {
		f := v.Field(i)
		if f.Kind() != reflect.Float64 {
			continue
		}
		if x := f.Float(); math.IsNaN(x) || math.IsInf(x, 0) {
			return fmt.Errorf("%w: %s is not finite", ErrInvalidSettings, v.Type().Field(i).Name)
		}
	}

	nonNegative := []struct {
		name  string
		value float64
	}{
		{"attack", s.Attack},
		{"decay", s.Decay},
		{"sustain", s.Sustain},
		{"release", s.Release},
		{"volume", s.Volume},
		{"delayTime", s.DelayTime},
		{"verbTime", s.VerbTime},
		{"chorusRate", s.ChorusRate},
		{"wahRate", s.WahRate},
		{"tremoloRate", s.TremoloRate},
		{"phaserRate", s.PhaserRate},
		{"compAttack", s.CompAttack},
		{"compRelease", s.CompRelease},
	}
	for _, c := range nonNegative {
		if c.value < 0 {
			return fmt.Errorf("%w: %s must be >= 0, got %g", ErrInvalidSettings, c.name, c.value)
		}
	}
	if s.VerbTime > MaxReverbTime {
		return fmt.Errorf("%w: verbTime must be <= %g, got %g", ErrInvalidSettings, MaxReverbTime, s.VerbTime)
	}
	if s.Cutoff <= 0 {
		return fmt.Errorf("%w: cutoff must be > 0, got %g", ErrInvalidSettings, s.Cutoff)
	}
	if s.Resonance <= 0 {
		return fmt.Errorf("%w: resonance must be > 0, got %g", ErrInvalidSettings, s.Resonance)
	}
	return nil
}
