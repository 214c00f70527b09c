// Package webdemo hosts the synth in a browser: it binds the computer
// keyboard to notes and renders blocks for an AudioWorklet.
package webdemo

import (
	"log/slog"

	"github.com/cwbudde/algo-synth/synth"
)

// Engine runs the synth for the js/wasm build. It is not safe for
// concurrent use; the browser calls it from one thread.
type Engine struct {
	synth *synth.Synth
}

// NewEngine creates an engine at sampleRate.
func NewEngine(sampleRate float64, logger *slog.Logger) (*Engine, error) {
	s, err := synth.New(sampleRate, synth.WithLogger(logger))
	if err != nil {
		return nil, err
	}
	return &Engine{synth: s}, nil
}

// Synth returns the wrapped engine.
func (e *Engine) Synth() *synth.Synth { return e.synth }

// KeyDown presses the key with KeyboardEvent.code code. It reports
// whether the code is bound to a note.
func (e *Engine) KeyDown(code string) bool {
	k, ok := LookupKey(code)
	if !ok {
		return false
	}
	e.synth.Keys().KeyDown(code, k.Frequency(), k.Note)
	return true
}

// KeyUp releases the key with KeyboardEvent.code code.
func (e *Engine) KeyUp(code string) {
	e.synth.Keys().KeyUp(code)
}

// Blur releases every key, as when the page loses focus.
func (e *Engine) Blur() {
	e.synth.Keys().ReleaseAll()
}

// Render fills dst with interleaved stereo samples.
func (e *Engine) Render(dst []float32) {
	e.synth.Render(dst)
}

// SettingsJSON returns the current settings document.
func (e *Engine) SettingsJSON() ([]byte, error) {
	doc := e.synth.Export()
	return doc.MarshalIndent()
}

// ApplySettingsJSON merges a settings object.
func (e *Engine) ApplySettingsJSON(data []byte) error {
	return e.synth.ApplySettingsJSON(data)
}

// Import loads a preset document, as read from local storage or a file.
func (e *Engine) Import(data []byte) error {
	return e.synth.Import(data)
}

// ToggleScale toggles the detune of a pitch class.
func (e *Engine) ToggleScale(pc string) bool {
	return e.synth.ToggleScaleNote(pc)
}

// ResetScale clears the detune map.
func (e *Engine) ResetScale() {
	e.synth.ResetScale()
}

// SetReverbTime regenerates the reverb impulse.
func (e *Engine) SetReverbTime(seconds float64) error {
	return e.synth.SetReverbTime(seconds)
}

// VoicePreset applies a catalog voice.
func (e *Engine) VoicePreset(name string) error {
	return e.synth.ApplyVoicePreset(name)
}

// StylePreset applies a catalog style.
func (e *Engine) StylePreset(name string) error {
	return e.synth.ApplyStylePreset(name)
}
