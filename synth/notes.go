package synth

import (
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"
)

var pitchClasses = [...]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

// PitchClasses returns the twelve sharp-spelled pitch classes from C.
func PitchClasses() []string {
	return slices.Clone(pitchClasses[:])
}

// MIDINoteName returns the name of MIDI note n, with middle C (60) as "C4".
func MIDINoteName(n int) string {
	pc := ((n % 12) + 12) % 12
	octave := (n - pc) / 12
	return pitchClasses[pc] + strconv.Itoa(octave-1)
}

// MIDINoteNumber parses a note name such as "A4" or "Bb3".
func MIDINoteNumber(name string) (int, error) {
	pc := PitchClass(name)
	octaveStr := strings.TrimPrefix(name, pc)
	if pc == "" || octaveStr == "" {
		return 0, fmt.Errorf("synth: malformed note name %q", name)
	}
	octave, err := strconv.Atoi(octaveStr)
	if err != nil {
		return 0, fmt.Errorf("synth: malformed note name %q: %w", name, err)
	}

	letter := strings.ToUpper(pc[:1])
	base := slices.Index(pitchClasses[:], letter)
	if base < 0 {
		return 0, fmt.Errorf("synth: malformed note name %q", name)
	}
	for _, acc := range pc[1:] {
		switch acc {
		case '#':
			base++
		case 'b':
			base--
		default:
			return 0, fmt.Errorf("synth: malformed note name %q", name)
		}
	}
	return (octave+1)*12 + base, nil
}

// MIDIFrequency returns the equal-tempered frequency of MIDI note n, A4 = 440 Hz.
func MIDIFrequency(n int) float64 {
	return 440 * math.Exp2(float64(n-69)/12)
}

// NoteFrequency returns the equal-tempered frequency of a note name.
func NoteFrequency(name string) (float64, error) {
	n, err := MIDINoteNumber(name)
	if err != nil {
		return 0, err
	}
	return MIDIFrequency(n), nil
}
