package synth

import "testing"

func TestSelectNote(t *testing.T) {
	t.Parallel()

	held := []HeldNote{
		{Key: "a", Frequency: 220, Note: "A3"},
		{Key: "b", Frequency: 440, Note: "A4"},
		{Key: "c", Frequency: 330, Note: "E4"},
	}

	tests := []struct {
		priority Priority
		want     float64
	}{
		{PriorityLast, 330},
		{PriorityFirst, 220},
		{PriorityLow, 220},
		{PriorityHigh, 440},
	}

	for _, tc := range tests {
		t.Run(tc.priority.String(), func(t *testing.T) {
			t.Parallel()

			got, ok := SelectNote(held, tc.priority)
			if !ok || got.Frequency != tc.want {
				t.Fatalf("SelectNote() = %v, %v, want %g", got, ok, tc.want)
			}
		})
	}

	if _, ok := SelectNote(nil, PriorityLast); ok {
		t.Fatal("SelectNote(nil) reported a note")
	}
}

func TestSelectNoteTiesGoToEarliest(t *testing.T) {
	t.Parallel()

	held := []HeldNote{{Key: "a", Frequency: 220}, {Key: "b", Frequency: 220}}
	for _, p := range []Priority{PriorityLow, PriorityHigh} {
		if got, _ := SelectNote(held, p); got.Key != "a" {
			t.Errorf("SelectNote(%s) = %q, want a", p, got.Key)
		}
	}
}

func TestParsePriority(t *testing.T) {
	t.Parallel()

	for _, name := range []string{"last", "first", "low", "high"} {
		p, err := ParsePriority(name)
		if err != nil {
			t.Fatalf("ParsePriority(%q) error = %v", name, err)
		}

		if p.String() != name {
			t.Fatalf("String() = %q, want %q", p.String(), name)
		}
	}

	if _, err := ParsePriority("loudest"); err == nil {
		t.Fatal("ParsePriority(loudest) succeeded")
	}
}

type call struct {
	op     string
	freq   float64
	handle Handle
	force  bool
}

type recordingPlayer struct {
	poly     bool
	priority Priority
	next     Handle
	calls    []call
}

func (p *recordingPlayer) PlayNote(freq float64, _ string) Handle {
	p.next++
	p.calls = append(p.calls, call{op: "play", freq: freq, handle: p.next})

	return p.next
}

func (p *recordingPlayer) StopNote(h Handle, force bool) {
	p.calls = append(p.calls, call{op: "stop", handle: h, force: force})
}

func (p *recordingPlayer) Poly() bool         { return p.poly }
func (p *recordingPlayer) Priority() Priority { return p.priority }

func TestKeyTrackerPoly(t *testing.T) {
	t.Parallel()

	p := &recordingPlayer{poly: true}
	k := NewKeyTracker(p)

	k.KeyDown("q", 261.63, "C4")
	k.KeyDown("q", 261.63, "C4")
	k.KeyDown("w", 293.66, "D4")
	k.KeyUp("q")
	k.KeyUp("q")

	want := []call{
		{op: "play", freq: 261.63, handle: 1},
		{op: "play", freq: 293.66, handle: 2},
		{op: "stop", handle: 1},
	}
	requireCalls(t, p.calls, want)

	if !k.Held("w") || k.Held("q") {
		t.Fatal("Held() mismatch")
	}
}

func TestKeyTrackerMonoPriority(t *testing.T) {
	t.Parallel()

	p := &recordingPlayer{poly: false, priority: PriorityHigh}
	k := NewKeyTracker(p)

	k.KeyDown("a", 220, "A3")
	k.KeyDown("b", 440, "A4")
	k.KeyDown("c", 330, "E4")
	k.KeyUp("b")
	k.KeyUp("a")
	k.KeyUp("c")

	want := []call{
		{op: "play", freq: 220, handle: 1},
		{op: "play", freq: 440, handle: 2},
		{op: "play", freq: 440, handle: 3},
		{op: "play", freq: 330, handle: 4},
		{op: "play", freq: 330, handle: 5},
		{op: "stop", handle: 5},
	}
	requireCalls(t, p.calls, want)
}

func TestKeyTrackerReset(t *testing.T) {
	t.Parallel()

	p := &recordingPlayer{poly: false}
	k := NewKeyTracker(p)

	k.KeyDown("a", 220, "A3")
	k.Reset()
	k.KeyUp("a")

	want := []call{
		{op: "play", freq: 220, handle: 1},
		{op: "stop", handle: 1, force: true},
	}
	requireCalls(t, p.calls, want)
}

func TestKeyTrackerReleaseAll(t *testing.T) {
	t.Parallel()

	p := &recordingPlayer{poly: true}
	k := NewKeyTracker(p)

	k.KeyDown("a", 220, "A3")
	k.ReleaseAll()
	k.KeyUp("a")

	want := []call{
		{op: "play", freq: 220, handle: 1},
		{op: "stop", handle: 1},
	}
	requireCalls(t, p.calls, want)

	if k.Held("a") {
		t.Fatal("key held after ReleaseAll")
	}
}

func TestKeyTrackerDrivesSynthLegato(t *testing.T) {
	t.Parallel()

	s := newTestSynth(t)
	if err := s.ApplySettings(Patch{"poly": false, "priority": "low"}); err != nil {
		t.Fatalf("ApplySettings() error = %v", err)
	}

	k := s.Keys()
	k.KeyDown("n", 220, "A3")
	k.KeyDown("y", 440, "A4")

	if s.voices.ActiveVoices() != 1 {
		t.Fatalf("ActiveVoices() = %d, want 1", s.voices.ActiveVoices())
	}

	k.KeyUp("n")
	k.KeyUp("y")

	info, ok := s.voices.Voice(s.voices.next)
	if !ok || info.State != VoiceReleasing {
		t.Fatalf("Voice() = %+v, %v, want releasing", info, ok)
	}
}

func requireCalls(t *testing.T, got, want []call) {
	t.Helper()

	if len(got) != len(want) {
		t.Fatalf("calls = %+v, want %+v", got, want)
	}

	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("call %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}
