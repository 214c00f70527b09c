package webdemo

import "github.com/cwbudde/algo-synth/synth"

// KeyboardNote maps a physical key to a note.
type KeyboardNote struct {
	Note  string
	Label string
	// Code is the KeyboardEvent.code of the key.
	Code  string
	Black bool
}

// Frequency returns the equal-tempered frequency of the note.
func (k KeyboardNote) Frequency() float64 {
	f, _ := synth.NoteFrequency(k.Note)
	return f
}

// Keyboard is the two-row computer keyboard layout: the bottom row plays
// C3 to E4, the top row C4 to A5.
var Keyboard = []KeyboardNote{
	{"C3", "z", "KeyZ", false},
	{"C#3", "s", "KeyS", true},
	{"D3", "x", "KeyX", false},
	{"D#3", "d", "KeyD", true},
	{"E3", "c", "KeyC", false},
	{"F3", "v", "KeyV", false},
	{"F#3", "g", "KeyG", true},
	{"G3", "b", "KeyB", false},
	{"G#3", "h", "KeyH", true},
	{"A3", "n", "KeyN", false},
	{"A#3", "j", "KeyJ", true},
	{"B3", "m", "KeyM", false},
	{"C4", ",", "Comma", false},
	{"C#4", "l", "KeyL", true},
	{"D4", ".", "Period", false},
	{"D#4", ";", "Semicolon", true},
	{"E4", "/", "Slash", false},

	{"C4", "q", "KeyQ", false},
	{"C#4", "2", "Digit2", true},
	{"D4", "w", "KeyW", false},
	{"D#4", "3", "Digit3", true},
	{"E4", "e", "KeyE", false},
	{"F4", "r", "KeyR", false},
	{"F#4", "5", "Digit5", true},
	{"G4", "t", "KeyT", false},
	{"G#4", "6", "Digit6", true},
	{"A4", "y", "KeyY", false},
	{"A#4", "7", "Digit7", true},
	{"B4", "u", "KeyU", false},
	{"C5", "i", "KeyI", false},
	{"C#5", "9", "Digit9", true},
	{"D5", "o", "KeyO", false},
	{"D#5", "0", "Digit0", true},
	{"E5", "p", "KeyP", false},
	{"F5", "[", "BracketLeft", false},
	{"F#5", "-", "Minus", true},
	{"G5", "]", "BracketRight", false},
	{"G#5", "=", "Equal", true},
	{"A5", `\`, "Backslash", false},
}

var keyboardByCode = func() map[string]KeyboardNote {
	m := make(map[string]KeyboardNote, len(Keyboard))
	for _, k := range Keyboard {
		m[k.Code] = k
	}
	return m
}()

// LookupKey returns the note bound to a KeyboardEvent.code.
func LookupKey(code string) (KeyboardNote, bool) {
	k, ok := keyboardByCode[code]
	return k, ok
}
