package synth

import (
	"math"
	"testing"
)

func TestEnvelopeShape(t *testing.T) {
	t.Parallel()

	s := newTestSynth(t)
	if err := s.ApplySettings(Patch{"attack": 0.1, "decay": 0.3, "sustain": 0.5}); err != nil {
		t.Fatalf("ApplySettings() error = %v", err)
	}

	t0 := s.Context().CurrentTime()
	h := s.PlayNote(440, "A4")
	env := s.voices.voices[h].env.Gain()

	if got := env.ValueAt(t0); got != 0 {
		t.Fatalf("envelope at 0 = %g, want 0", got)
	}

	if got := env.ValueAt(t0 + 0.1); !near(got, 1, 1e-12) {
		t.Fatalf("envelope at attack = %g, want 1", got)
	}

	if got := env.ValueAt(t0 + 0.4); !near(got, 0.5, 1e-12) {
		t.Fatalf("envelope at attack+decay = %g, want 0.5", got)
	}

	prev := 0.0
	for i := 1; i <= 1000; i++ {
		at := t0 + float64(i)*0.001
		v := env.ValueAt(at)

		if v > 1+1e-12 || v < envelopeFloor {
			t.Fatalf("envelope at %g = %g, outside [0.001, 1]", at, v)
		}

		if i <= 100 && v < prev {
			t.Fatalf("attack not rising at %g: %g < %g", at, v, prev)
		}

		if i > 101 && v > prev+1e-12 {
			t.Fatalf("decay rising at %g: %g > %g", at, v, prev)
		}

		prev = v
	}
}

func TestZeroSustainUsesFloor(t *testing.T) {
	t.Parallel()

	s := newTestSynth(t)
	if err := s.ApplySettings(Patch{"attack": 0.01, "decay": 0.01, "sustain": 0.0}); err != nil {
		t.Fatalf("ApplySettings() error = %v", err)
	}

	t0 := s.Context().CurrentTime()
	h := s.PlayNote(440, "A4")

	if got := s.voices.voices[h].env.Gain().ValueAt(t0 + 1); got != envelopeFloor {
		t.Fatalf("sustain level = %g, want %g", got, envelopeFloor)
	}
}

func TestReleaseStartsFromCurrentValue(t *testing.T) {
	t.Parallel()

	s := newTestSynth(t)
	if err := s.ApplySettings(Patch{"attack": 1.0, "release": 0.5}); err != nil {
		t.Fatalf("ApplySettings() error = %v", err)
	}

	h := s.PlayNote(440, "A4")
	advance(s, 0.5)

	now := s.Context().CurrentTime()
	env := s.voices.voices[h].env.Gain()
	held := env.ValueAt(now)

	s.StopNote(h, false)

	if got := env.ValueAt(now); !near(got, held, 1e-12) {
		t.Fatalf("envelope at release = %g, want %g", got, held)
	}

	if got := env.ValueAt(now + 0.5); !near(got, envelopeFloor, 1e-12) {
		t.Fatalf("envelope after release = %g, want %g", got, envelopeFloor)
	}

	// The attack ramp to 1 must not survive the release.
	if got := env.ValueAt(now + 0.3); got >= held {
		t.Fatalf("envelope rose during release: %g >= %g", got, held)
	}

	info, ok := s.voices.Voice(h)
	if !ok || info.State != VoiceReleasing {
		t.Fatalf("Voice() = %+v, %v, want releasing", info, ok)
	}

	if got := s.voices.voices[h].osc.StopTime(); !near(got, now+0.5+stopGuard, 1e-12) {
		t.Fatalf("StopTime() = %g, want %g", got, now+0.5+stopGuard)
	}
}

func TestVoiceDisposedAfterReleaseTail(t *testing.T) {
	t.Parallel()

	s := newTestSynth(t)
	if err := s.ApplySettings(Patch{"release": 0.2}); err != nil {
		t.Fatalf("ApplySettings() error = %v", err)
	}

	h := s.PlayNote(330, "E4")
	if s.voices.ActiveVoices() != 1 {
		t.Fatalf("ActiveVoices() = %d, want 1", s.voices.ActiveVoices())
	}

	s.StopNote(h, false)
	advance(s, 0.2)

	if s.voices.ActiveVoices() != 1 {
		t.Fatal("voice disposed before the stop guard elapsed")
	}

	advance(s, 0.2)

	if s.voices.ActiveVoices() != 0 {
		t.Fatalf("ActiveVoices() = %d after tail, want 0", s.voices.ActiveVoices())
	}

	if _, ok := s.voices.Voice(h); ok {
		t.Fatal("disposed voice still reported")
	}

	// Stopping a disposed or unknown voice is a no-op.
	s.StopNote(h, false)
	s.StopNote(h, true)
	s.StopNote(9999, false)
}

func TestForcedReleaseIsShort(t *testing.T) {
	t.Parallel()

	s := newTestSynth(t)
	h := s.PlayNote(330, "E4")
	now := s.Context().CurrentTime()

	s.StopNote(h, true)

	if got := s.voices.voices[h].osc.StopTime(); !near(got, now+forcedRelease+stopGuard, 1e-12) {
		t.Fatalf("StopTime() = %g, want %g", got, now+forcedRelease+stopGuard)
	}
}

func TestPolyCreatesVoicePerNote(t *testing.T) {
	t.Parallel()

	s := newTestSynth(t)
	a := s.PlayNote(220, "A3")
	b := s.PlayNote(220, "A3")

	if a == b || a == 0 || b == 0 {
		t.Fatalf("handles = %d, %d, want distinct non-zero", a, b)
	}

	if s.voices.ActiveVoices() != 2 {
		t.Fatalf("ActiveVoices() = %d, want 2", s.voices.ActiveVoices())
	}
}

func TestMonoLegatoGlides(t *testing.T) {
	t.Parallel()

	s := newTestSynth(t)
	if err := s.ApplySettings(Patch{"poly": false}); err != nil {
		t.Fatalf("ApplySettings() error = %v", err)
	}

	a := s.PlayNote(220, "A3")
	advance(s, 0.05)

	v := s.voices.voices[a]
	now := s.Context().CurrentTime()
	b := s.PlayNote(440, "A4")

	if a != b {
		t.Fatalf("PlayNote() = %d, want legato handle %d", b, a)
	}

	if s.voices.ActiveVoices() != 1 {
		t.Fatalf("ActiveVoices() = %d, want 1", s.voices.ActiveVoices())
	}

	freq := v.osc.Frequency()
	if got := freq.ValueAt(now); !near(got, 220, 1e-9) {
		t.Fatalf("frequency at glide start = %g, want 220", got)
	}

	mid := freq.ValueAt(now + legatoTime)
	if !near(mid, 440-220*math.Exp(-1), 1e-9) {
		t.Fatalf("frequency after one time constant = %g, want %g", mid, 440-220*math.Exp(-1))
	}

	if got := freq.ValueAt(now + 0.1); !near(got, 440, 1e-6) {
		t.Fatalf("frequency after glide = %g, want 440", got)
	}

	// No envelope retrigger: the envelope keeps its decay curve.
	if got := v.env.Gain().ValueAt(now); got == 0 {
		t.Fatal("envelope restarted on legato")
	}
}

func TestMonoLegatoAppliesScaleDetune(t *testing.T) {
	t.Parallel()

	s := newTestSynth(t)
	if err := s.ApplySettings(Patch{"poly": false}); err != nil {
		t.Fatalf("ApplySettings() error = %v", err)
	}

	s.ToggleScaleNote("B")
	h := s.PlayNote(220, "A3")
	now := s.Context().CurrentTime()
	s.PlayNote(246.94, "B3")

	info, _ := s.voices.Voice(h)
	if info.Note != "B3" {
		t.Fatalf("Note = %q, want B3", info.Note)
	}

	if got := s.voices.voices[h].osc.Detune().ValueAt(now + 0.1); !near(got, QuarterToneDown, 1e-6) {
		t.Fatalf("detune = %g, want %g", got, QuarterToneDown)
	}
}

func TestMonoNewVoiceAfterRelease(t *testing.T) {
	t.Parallel()

	s := newTestSynth(t)
	if err := s.ApplySettings(Patch{"poly": false}); err != nil {
		t.Fatalf("ApplySettings() error = %v", err)
	}

	a := s.PlayNote(220, "A3")
	s.StopNote(a, false)
	b := s.PlayNote(330, "E4")

	if a == b {
		t.Fatal("released mono voice reused")
	}

	if s.voices.Mono() != b {
		t.Fatalf("Mono() = %d, want %d", s.voices.Mono(), b)
	}
}

func TestMonoNewVoiceCutsReleasingVoice(t *testing.T) {
	t.Parallel()

	s := newTestSynth(t)
	if err := s.ApplySettings(Patch{"poly": false, "release": 1.0}); err != nil {
		t.Fatalf("ApplySettings() error = %v", err)
	}

	a := s.PlayNote(220, "A3")
	advance(s, 0.2)
	s.StopNote(a, false)
	b := s.PlayNote(330, "E4")
	now := s.Context().CurrentTime()

	if a == b {
		t.Fatal("released mono voice reused")
	}

	info, ok := s.voices.Voice(a)
	if !ok || info.State != VoiceReleasing {
		t.Fatalf("Voice(a) = %+v, %v, want releasing", info, ok)
	}

	env := s.voices.voices[a].env.Gain()
	if got := env.ValueAt(now + 0.2); got > envelopeFloor+1e-9 {
		t.Fatalf("envelope of released voice at +0.2s = %g, want <= %g", got, envelopeFloor)
	}

	if got := s.voices.voices[a].osc.StopTime(); !near(got, now+forcedRelease+stopGuard, 1e-12) {
		t.Fatalf("StopTime() = %g, want %g", got, now+forcedRelease+stopGuard)
	}
}

func TestPolySwitchCutsMonoVoice(t *testing.T) {
	t.Parallel()

	s := newTestSynth(t)
	if err := s.ApplySettings(Patch{"poly": false}); err != nil {
		t.Fatalf("ApplySettings() error = %v", err)
	}

	h := s.PlayNote(220, "A3")
	if err := s.ApplySettings(Patch{"poly": true}); err != nil {
		t.Fatalf("ApplySettings() error = %v", err)
	}

	info, ok := s.voices.Voice(h)
	if !ok || info.State != VoiceReleasing {
		t.Fatalf("Voice() = %+v, %v, want releasing", info, ok)
	}

	if s.voices.Mono() != 0 {
		t.Fatalf("Mono() = %d, want 0", s.voices.Mono())
	}
}

func TestVoiceDetuneFromScale(t *testing.T) {
	t.Parallel()

	s := newTestSynth(t)
	s.ToggleScaleNote("F#")

	sharp := s.PlayNote(369.99, "F#4")
	plain := s.PlayNote(392, "G4")

	if info, _ := s.voices.Voice(sharp); info.Detune != QuarterToneDown {
		t.Fatalf("F#4 detune = %g, want %g", info.Detune, QuarterToneDown)
	}

	if info, _ := s.voices.Voice(plain); info.Detune != 0 {
		t.Fatalf("G4 detune = %g, want 0", info.Detune)
	}
}
