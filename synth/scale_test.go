package synth

import "testing"

func TestToggleScaleNote(t *testing.T) {
	t.Parallel()

	s := newTestSynth(t)

	first := s.ToggleScaleNote("F#")
	second := s.ToggleScaleNote("F#")

	if !first || second {
		t.Fatalf("ToggleScaleNote() = %v, %v, want true, false", first, second)
	}

	if _, ok := s.Scale()["F#"]; ok {
		t.Fatal("F# still mapped after second toggle")
	}
}

func TestToggleReplacesImportedOffset(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		start ScaleDetune
		want  bool
		cents float64
		kept  bool
	}{
		{"absent", ScaleDetune{}, true, QuarterToneDown, true},
		{"quarter tone", ScaleDetune{"F#": QuarterToneDown}, false, 0, false},
		{"other offset", ScaleDetune{"F#": -30}, true, QuarterToneDown, true},
		{"zero offset", ScaleDetune{"F#": 0}, true, QuarterToneDown, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			m := tc.start.Clone()
			if got := m.Toggle("F#"); got != tc.want {
				t.Fatalf("Toggle() = %v, want %v", got, tc.want)
			}

			cents, ok := m["F#"]
			if ok != tc.kept || cents != tc.cents {
				t.Fatalf("F# = %g, %v, want %g, %v", cents, ok, tc.cents, tc.kept)
			}
		})
	}
}

func TestResetScale(t *testing.T) {
	t.Parallel()

	s := newTestSynth(t)
	s.ResetScale()

	if len(s.Scale()) != 0 {
		t.Fatalf("Scale() = %v, want empty", s.Scale())
	}

	for _, pc := range []string{"C", "E", "B"} {
		s.ToggleScaleNote(pc)
	}

	s.ResetScale()

	if len(s.Scale()) != 0 {
		t.Fatalf("Scale() = %v, want empty", s.Scale())
	}
}

func TestScaleDetune(t *testing.T) {
	t.Parallel()

	m := ScaleDetune{"E": QuarterToneDown}
	tests := []struct {
		note string
		want float64
	}{
		{"E4", QuarterToneDown},
		{"E-1", QuarterToneDown},
		{"E", QuarterToneDown},
		{"Eb4", 0},
		{"C4", 0},
	}

	for _, tc := range tests {
		if got := m.Detune(tc.note); got != tc.want {
			t.Errorf("Detune(%q) = %g, want %g", tc.note, got, tc.want)
		}
	}
}

func TestPitchClass(t *testing.T) {
	t.Parallel()

	tests := map[string]string{"C#4": "C#", "A10": "A", "Bb3": "Bb", "G": "G"}
	for in, want := range tests {
		if got := PitchClass(in); got != want {
			t.Errorf("PitchClass(%q) = %q, want %q", in, got, want)
		}
	}
}
