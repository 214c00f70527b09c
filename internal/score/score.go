// Package score parses plain-text note scores and renders them offline.
//
// A score has one event per line:
//
//	TIME COMMAND ARGS
//
// TIME is in seconds from the start of the render. Blank lines and text
// after '#' are ignored. Commands:
//
//	on NOTE          press the key for NOTE (e.g. A4, C#3)
//	off NOTE         release it
//	set JSON         merge a settings object
//	scale PC         toggle the quarter-tone detune of a pitch class
//	reset-scale      clear the detune map
//	reverb SECONDS   regenerate the reverb impulse
//	voice NAME       apply a catalog voice preset
//	style NAME       apply a catalog style preset
package score

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"slices"
	"strconv"
	"strings"
	"unicode"

	"github.com/cwbudde/algo-synth/synth"
)

// ErrSyntax reports a malformed score line.
var ErrSyntax = errors.New("score: syntax error")

// Command is a score event verb.
type Command string

const (
	CmdOn         Command = "on"
	CmdOff        Command = "off"
	CmdSet        Command = "set"
	CmdScale      Command = "scale"
	CmdResetScale Command = "reset-scale"
	CmdReverb     Command = "reverb"
	CmdVoice      Command = "voice"
	CmdStyle      Command = "style"
)

// Event is one parsed score line.
type Event struct {
	Line    int
	Time    float64
	Command Command
	Arg     string
	// Frequency is set for on events.
	Frequency float64
}

// Score is a time-ordered event list.
type Score struct {
	Events []Event
}

// End returns the time of the last event.
func (s *Score) End() float64 {
	if len(s.Events) == 0 {
		return 0
	}
	return s.Events[len(s.Events)-1].Time
}

// Parse reads a score. Events are sorted by time; events with equal
// times keep their file order.
func Parse(r io.Reader) (*Score, error) {
	sc := &Score{}
	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		text := scanner.Text()
		if i := strings.IndexByte(text, '#'); i >= 0 {
			text = text[:i]
		}
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		ev, err := parseLine(line, text)
		if err != nil {
			return nil, err
		}
		sc.Events = append(sc.Events, ev)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("score: read: %w", err)
	}
	slices.SortStableFunc(sc.Events, func(a, b Event) int {
		switch {
		case a.Time < b.Time:
			return -1
		case a.Time > b.Time:
			return 1
		}
		return 0
	})
	return sc, nil
}

func syntaxError(line int, format string, args ...any) error {
	return fmt.Errorf("%w: line %d: %s", ErrSyntax, line, fmt.Sprintf(format, args...))
}

// cutField splits off the first whitespace-separated field.
func cutField(s string) (field, rest string) {
	s = strings.TrimSpace(s)
	i := strings.IndexFunc(s, unicode.IsSpace)
	if i < 0 {
		return s, ""
	}
	return s[:i], strings.TrimSpace(s[i:])
}

func parseLine(line int, text string) (Event, error) {
	var fields [3]string
	fields[0], text = cutField(text)
	fields[1], fields[2] = cutField(text)
	if fields[1] == "" {
		return Event{}, syntaxError(line, "want TIME COMMAND [ARGS], got %q", fields[0])
	}
	t, err := strconv.ParseFloat(fields[0], 64)
	if err != nil || t < 0 || math.IsInf(t, 0) || math.IsNaN(t) {
		return Event{}, syntaxError(line, "bad time %q", fields[0])
	}
	ev := Event{Line: line, Time: t, Command: Command(fields[1]), Arg: fields[2]}

	needArg := func() error {
		if ev.Arg == "" {
			return syntaxError(line, "%s needs an argument", ev.Command)
		}
		return nil
	}

	switch ev.Command {
	case CmdOn, CmdOff:
		if err := needArg(); err != nil {
			return Event{}, err
		}
		freq, err := synth.NoteFrequency(ev.Arg)
		if err != nil {
			return Event{}, syntaxError(line, "%v", err)
		}
		ev.Frequency = freq
	case CmdSet:
		if err := needArg(); err != nil {
			return Event{}, err
		}
		var patch synth.Patch
		if err := json.Unmarshal([]byte(ev.Arg), &patch); err != nil {
			return Event{}, syntaxError(line, "set: %v", err)
		}
	case CmdScale:
		if !slices.Contains(synth.PitchClasses(), ev.Arg) {
			return Event{}, syntaxError(line, "unknown pitch class %q", ev.Arg)
		}
	case CmdResetScale:
	case CmdReverb:
		v, err := strconv.ParseFloat(ev.Arg, 64)
		if err != nil || !(v > 0) {
			return Event{}, syntaxError(line, "bad reverb time %q", ev.Arg)
		}
	case CmdVoice:
		if _, ok := synth.LookupVoicePreset(ev.Arg); !ok {
			return Event{}, syntaxError(line, "unknown voice %q", ev.Arg)
		}
	case CmdStyle:
		if _, ok := synth.LookupStylePreset(ev.Arg); !ok {
			return Event{}, syntaxError(line, "unknown style %q", ev.Arg)
		}
	default:
		return Event{}, syntaxError(line, "unknown command %q", ev.Command)
	}
	return ev, nil
}
