package webdemo

import (
	"io"
	"log/slog"
	"math"
	"testing"

	"github.com/cwbudde/algo-synth/internal/testutil"
	"github.com/cwbudde/algo-synth/synth"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()

	e, err := NewEngine(8000, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}

	return e
}

func TestKeyboardTable(t *testing.T) {
	t.Parallel()

	seen := map[string]bool{}
	for _, k := range Keyboard {
		if seen[k.Code] {
			t.Fatalf("duplicate code %s", k.Code)
		}

		seen[k.Code] = true

		n, err := synth.MIDINoteNumber(k.Note)
		if err != nil {
			t.Fatalf("note %q: %v", k.Note, err)
		}

		black := map[int]bool{1: true, 3: true, 6: true, 8: true, 10: true}[n%12]
		if black != k.Black {
			t.Errorf("%s black = %v", k.Note, k.Black)
		}
	}

	tests := []struct {
		code string
		note string
		freq float64
	}{
		{"KeyZ", "C3", 130.81},
		{"KeyY", "A4", 440},
		{"Comma", "C4", 261.63},
		{"Backslash", "A5", 880},
	}

	for _, tc := range tests {
		k, ok := LookupKey(tc.code)
		if !ok || k.Note != tc.note || math.Abs(k.Frequency()-tc.freq) > 0.01 {
			t.Errorf("LookupKey(%q) = %+v, %v", tc.code, k, ok)
		}
	}
}

func TestEngineKeys(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t)
	if e.KeyDown("F12") {
		t.Fatal("unbound key accepted")
	}

	if !e.KeyDown("KeyY") {
		t.Fatal("KeyY not bound")
	}

	buf := make([]float32, 2*1024)
	e.Render(buf)

	if testutil.Energy(buf) == 0 {
		t.Fatal("held key rendered silence")
	}

	e.KeyUp("KeyY")

	if e.Synth().Keys().Held("KeyY") {
		t.Fatal("key held after KeyUp")
	}

	e.KeyDown("KeyQ")
	e.KeyDown("Comma")
	e.Blur()

	if e.Synth().Keys().Held("KeyQ") || e.Synth().Keys().Held("Comma") {
		t.Fatal("keys held after Blur")
	}
}

func TestEngineSettingsRoundTrip(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t)
	if err := e.ApplySettingsJSON([]byte(`{"chorusEnabled":true}`)); err != nil {
		t.Fatalf("ApplySettingsJSON() error = %v", err)
	}

	e.ToggleScale("E")

	data, err := e.SettingsJSON()
	if err != nil {
		t.Fatalf("SettingsJSON() error = %v", err)
	}

	f := newTestEngine(t)
	if err := f.Import(data); err != nil {
		t.Fatalf("Import() error = %v", err)
	}

	if !f.Synth().Settings().ChorusEnabled || f.Synth().Scale()["E"] != synth.QuarterToneDown {
		t.Fatal("round trip lost state")
	}
}
