package synth

import (
	"errors"
	"maps"
	"slices"
)

// ErrUnknownPreset is returned for a preset key not in the catalog.
var ErrUnknownPreset = errors.New("synth: unknown preset")

// VoicePreset sets the oscillator, envelope, filter and polyphony fields.
type VoicePreset struct {
	Name        string
	Description string
	Waveform    string
	Poly        bool
	Priority    string
	Attack      float64
	Decay       float64
	Sustain     float64
	Release     float64
	Cutoff      float64
	Resonance   float64
}

// apply returns s with the preset's fields.
func (p VoicePreset) apply(s Settings) Settings {
	s.Waveform = p.Waveform
	s.Poly = p.Poly
	s.Priority = p.Priority
	s.Attack = p.Attack
	s.Decay = p.Decay
	s.Sustain = p.Sustain
	s.Release = p.Release
	s.Cutoff = p.Cutoff
	s.Resonance = p.Resonance
	return s
}

// StylePreset is a complete engine state applied wholesale.
type StylePreset struct {
	Name        string
	Description string
	Settings    Settings
	Scale       ScaleDetune
}

var voicePresets = map[string]VoicePreset{
	"custom": {
		Name:        "Custom (Oscillator)",
		Description: "Standard analog-style oscillator where you select the shape.",
		Waveform:    "sawtooth",
		Poly:        true,
		Priority:    "last",
		Attack:      0.1,
		Decay:       0.3,
		Sustain:     0.5,
		Release:     1.0,
		Cutoff:      2000,
		Resonance:   1,
	},
	"lead": {
		Name:        "Mono Lead",
		Description: "Single-voice square lead with legato glide.",
		Waveform:    "square",
		Poly:        false,
		Priority:    "last",
		Attack:      0.01,
		Decay:       0.2,
		Sustain:     0.7,
		Release:     0.3,
		Cutoff:      3000,
		Resonance:   4,
	},
	"bass": {
		Name:        "Mono Bass",
		Description: "Low-note priority sawtooth bass.",
		Waveform:    "sawtooth",
		Poly:        false,
		Priority:    "low",
		Attack:      0.005,
		Decay:       0.25,
		Sustain:     0.4,
		Release:     0.15,
		Cutoff:      800,
		Resonance:   6,
	},
	"pad": {
		Name:        "Soft Pad",
		Description: "Slow triangle pad.",
		Waveform:    "triangle",
		Poly:        true,
		Priority:    "last",
		Attack:      0.8,
		Decay:       1.0,
		Sustain:     0.8,
		Release:     2.5,
		Cutoff:      1500,
		Resonance:   0.7,
	},
}

func styleSettings(edit func(*Settings)) Settings {
	s := DefaultSettings()
	edit(&s)
	return s
}

var stylePresets = map[string]StylePreset{
	"default": {
		Name:        "Default",
		Description: "Factory settings, twelve-tone scale.",
		Settings:    DefaultSettings(),
		Scale:       ScaleDetune{},
	},
	"oriental": {
		Name:        "Oriental",
		Description: "Quarter-tone E and B over a plucked sawtooth with room reverb.",
		Settings: styleSettings(func(s *Settings) {
			s.Attack = 0.01
			s.Decay = 0.4
			s.Sustain = 0.3
			s.Release = 0.6
			s.Cutoff = 2500
			s.VerbMix = 0.3
		}),
		Scale: ScaleDetune{"E": QuarterToneDown, "B": QuarterToneDown},
	},
	"dub": {
		Name:        "Dub Echo",
		Description: "Square stabs into a long feedback delay.",
		Settings: styleSettings(func(s *Settings) {
			s.Waveform = "square"
			s.Attack = 0.005
			s.Decay = 0.15
			s.Sustain = 0.2
			s.Release = 0.2
			s.Cutoff = 1200
			s.DelayTime = 0.375
			s.DelayFeedback = 0.55
			s.DelayMix = 0.4
			s.VerbMix = 0.15
		}),
		Scale: ScaleDetune{},
	},
	"space": {
		Name:        "Space",
		Description: "Chorused, phased pad in a long reverb.",
		Settings: styleSettings(func(s *Settings) {
			s.Waveform = "triangle"
			s.Attack = 0.6
			s.Release = 2
			s.ChorusEnabled = true
			s.ChorusDepth = 0.5
			s.ChorusMix = 0.4
			s.PhaserEnabled = true
			s.PhaserMix = 0.3
			s.VerbMix = 0.45
		}),
		Scale: ScaleDetune{},
	},
	"crunch": {
		Name:        "Crunch",
		Description: "Driven sawtooth with auto-wah and compression.",
		Settings: styleSettings(func(s *Settings) {
			s.DistEnabled = true
			s.DistDrive = 0.6
			s.DistMix = 0.7
			s.WahEnabled = true
			s.WahMix = 0.6
			s.CompEnabled = true
			s.Volume = 0.4
		}),
		Scale: ScaleDetune{},
	},
}

// VoicePresets returns the voice preset keys in sorted order.
func VoicePresets() []string {
	return slices.Sorted(maps.Keys(voicePresets))
}

// StylePresets returns the style preset keys in sorted order.
func StylePresets() []string {
	return slices.Sorted(maps.Keys(stylePresets))
}

// LookupVoicePreset returns the voice preset for key.
func LookupVoicePreset(key string) (VoicePreset, bool) {
	p, ok := voicePresets[key]
	return p, ok
}

// LookupStylePreset returns a copy of the style preset for key.
func LookupStylePreset(key string) (StylePreset, bool) {
	p, ok := stylePresets[key]
	if !ok {
		return StylePreset{}, false
	}
	p.Scale = p.Scale.Clone()
	return p, true
}
