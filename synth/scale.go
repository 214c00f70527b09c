package synth

import (
	"maps"
	"strings"
)

// QuarterToneDown is the detune applied to an active scale pitch class.
const QuarterToneDown = -50.0

// ScaleDetune maps pitch classes to a detune offset in cents. Absent
// pitch classes are not detuned.
type ScaleDetune map[string]float64

// Toggle switches pc between a quarter tone down and untouched and
// returns the new state. Any other offset, such as one imported from a
// preset, is replaced by a quarter tone down.
func (m ScaleDetune) Toggle(pc string) bool {
	if m[pc] == QuarterToneDown {
		delete(m, pc)
		return false
	}
	m[pc] = QuarterToneDown
	return true
}

// Reset removes every entry.
func (m ScaleDetune) Reset() {
	clear(m)
}

// Detune returns the offset for a note name such as "F#4".
func (m ScaleDetune) Detune(note string) float64 {
	return m[PitchClass(note)]
}

// Clone returns an independent copy; a nil map clones to an empty one.
func (m ScaleDetune) Clone() ScaleDetune {
	out := make(ScaleDetune, len(m))
	maps.Copy(out, m)
	return out
}

// PitchClass strips the octave from a note name: "C#4" becomes "C#".
func PitchClass(note string) string {
	return strings.TrimRight(note, "-0123456789")
}
