package synth

import (
	"fmt"
	"slices"
)

// Priority selects which held key governs the mono voice.
type Priority int

const (
	PriorityLast Priority = iota
	PriorityFirst
	PriorityLow
	PriorityHigh
)

var priorityNames = [...]string{"last", "first", "low", "high"}

func (p Priority) String() string {
	if p < 0 || int(p) >= len(priorityNames) {
		return fmt.Sprintf("Priority(%d)", int(p))
	}
	return priorityNames[p]
}

// ParsePriority parses a priority name.
func ParsePriority(name string) (Priority, error) {
	i := slices.Index(priorityNames[:], name)
	if i < 0 {
		return 0, fmt.Errorf("synth: unknown priority %q", name)
	}
	return Priority(i), nil
}

// HeldNote is a key that is currently down, in press order.
type HeldNote struct {
	Key       string
	Frequency float64
	Note      string
}

// SelectNote returns the governing note of held, which must be in press
// order. Ties under low and high go to the earliest pressed key.
func SelectNote(held []HeldNote, p Priority) (HeldNote, bool) {
	if len(held) == 0 {
		return HeldNote{}, false
	}
	switch p {
	case PriorityFirst:
		return held[0], true
	case PriorityLow:
		best := held[0]
		for _, h := range held[1:] {
			if h.Frequency < best.Frequency {
				best = h
			}
		}
		return best, true
	case PriorityHigh:
		best := held[0]
		for _, h := range held[1:] {
			if h.Frequency > best.Frequency {
				best = h
			}
		}
		return best, true
	default:
		return held[len(held)-1], true
	}
}

// Player is the voice control surface a KeyTracker drives.
type Player interface {
	PlayNote(freq float64, note string) Handle
	StopNote(h Handle, forceImmediate bool)
	Poly() bool
	Priority() Priority
}

// KeyTracker turns key presses into voice operations. Repeated key-down
// events for a held key are ignored. In poly mode each key owns a voice;
// in mono mode the held keys form a stack and the priority picks the note
// the single voice plays.
type KeyTracker struct {
	player Player
	active map[string]Handle
	stack  []HeldNote
	mono   Handle
}

// NewKeyTracker returns a tracker driving p.
func NewKeyTracker(p Player) *KeyTracker {
	return &KeyTracker{player: p, active: make(map[string]Handle)}
}

// KeyDown handles a key press.
func (k *KeyTracker) KeyDown(key string, freq float64, note string) {
	if _, held := k.active[key]; held {
		return
	}
	if slices.ContainsFunc(k.stack, func(h HeldNote) bool { return h.Key == key }) {
		return
	}

	if k.player.Poly() {
		k.active[key] = k.player.PlayNote(freq, note)
		return
	}
	k.stack = append(k.stack, HeldNote{Key: key, Frequency: freq, Note: note})
	k.updateMono()
}

// KeyUp handles a key release. Unknown keys are ignored.
func (k *KeyTracker) KeyUp(key string) {
	if h, ok := k.active[key]; ok {
		delete(k.active, key)
		k.player.StopNote(h, false)
		return
	}
	i := slices.IndexFunc(k.stack, func(h HeldNote) bool { return h.Key == key })
	if i < 0 {
		return
	}
	k.stack = slices.Delete(k.stack, i, i+1)
	k.updateMono()
}

// Held reports whether key is currently down.
func (k *KeyTracker) Held(key string) bool {
	if _, ok := k.active[key]; ok {
		return true
	}
	return slices.ContainsFunc(k.stack, func(h HeldNote) bool { return h.Key == key })
}

// Reset clears the mono stack and force-releases the mono voice. Poly
// voices keep sounding until their keys are released.
func (k *KeyTracker) Reset() {
	k.stack = k.stack[:0]
	if k.mono != 0 {
		k.player.StopNote(k.mono, true)
		k.mono = 0
	}
}

// ReleaseAll releases every held key, poly and mono alike.
func (k *KeyTracker) ReleaseAll() {
	for key, h := range k.active {
		delete(k.active, key)
		k.player.StopNote(h, false)
	}
	k.stack = k.stack[:0]
	if k.mono != 0 {
		k.player.StopNote(k.mono, false)
		k.mono = 0
	}
}

func (k *KeyTracker) updateMono() {
	next, ok := SelectNote(k.stack, k.player.Priority())
	if !ok {
		if k.mono != 0 {
			k.player.StopNote(k.mono, false)
			k.mono = 0
		}
		return
	}
	k.mono = k.player.PlayNote(next.Frequency, next.Note)
}
