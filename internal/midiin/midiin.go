// Package midiin feeds MIDI note messages into the synth key tracker.
package midiin

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	"gitlab.com/gomidi/midi/v2/drivers/rtmididrv"

	"github.com/cwbudde/algo-synth/internal/audio"
	"github.com/cwbudde/algo-synth/synth"
)

// ErrNoInput is returned when no MIDI input matches.
var ErrNoInput = errors.New("midiin: no matching input")

// Handler translates MIDI messages into key tracker calls.
type Handler struct {
	player *audio.Player
	logger *slog.Logger
}

// NewHandler returns a handler driving p.
func NewHandler(p *audio.Player, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{player: p, logger: logger}
}

func keyID(ch, key uint8) string {
	return fmt.Sprintf("midi:%d:%d", ch, key)
}

// Handle processes one message. Messages other than note start and end
// are ignored.
func (h *Handler) Handle(msg midi.Message) {
	var ch, key, vel uint8
	switch {
	case msg.GetNoteStart(&ch, &key, &vel):
		note := synth.MIDINoteName(int(key))
		freq := synth.MIDIFrequency(int(key))
		h.logger.Debug("midi note start", "ch", ch, "key", key, "vel", vel, "note", note)
		h.player.Do(func(s *synth.Synth) {
			s.Keys().KeyDown(keyID(ch, key), freq, note)
		})
	case msg.GetNoteEnd(&ch, &key):
		h.logger.Debug("midi note end", "ch", ch, "key", key)
		h.player.Do(func(s *synth.Synth) {
			s.Keys().KeyUp(keyID(ch, key))
		})
	}
}

// Release drops every held key.
func (h *Handler) Release() {
	h.player.Do(func(s *synth.Synth) { s.Keys().ReleaseAll() })
}

// Input is an open MIDI input port.
type Input struct {
	drv  *rtmididrv.Driver
	in   drivers.In
	stop func()
}

// Inputs lists the available MIDI input port names.
func Inputs() ([]string, error) {
	drv, err := rtmididrv.New()
	if err != nil {
		return nil, fmt.Errorf("midiin: driver: %w", err)
	}
	defer drv.Close()

	ins, err := drv.Ins()
	if err != nil {
		return nil, fmt.Errorf("midiin: list inputs: %w", err)
	}
	names := make([]string, len(ins))
	for i, in := range ins {
		names[i] = in.String()
	}
	return names, nil
}

// Open connects the first input whose name contains name (any input when
// name is empty) to h.
func Open(name string, h *Handler) (*Input, error) {
	drv, err := rtmididrv.New()
	if err != nil {
		return nil, fmt.Errorf("midiin: driver: %w", err)
	}
	ins, err := drv.Ins()
	if err != nil {
		drv.Close()
		return nil, fmt.Errorf("midiin: list inputs: %w", err)
	}

	var found drivers.In
	for _, in := range ins {
		if strings.Contains(in.String(), name) {
			found = in
			break
		}
	}
	if found == nil {
		drv.Close()
		return nil, fmt.Errorf("%w: %q", ErrNoInput, name)
	}
	if err := found.Open(); err != nil {
		drv.Close()
		return nil, fmt.Errorf("midiin: open %s: %w", found, err)
	}

	stop, err := midi.ListenTo(found, func(msg midi.Message, _ int32) {
		h.Handle(msg)
	}, midi.HandleError(func(err error) {
		h.logger.Warn("midi listener error", "device", found.String(), "error", err)
		go h.Release()
	}))
	if err != nil {
		found.Close()
		drv.Close()
		return nil, fmt.Errorf("midiin: listen %s: %w", found, err)
	}

	h.logger.Info("midi input connected", "device", found.String())
	return &Input{drv: drv, in: found, stop: stop}, nil
}

// Name returns the port name.
func (i *Input) Name() string { return i.in.String() }

// Close stops listening and releases the driver.
func (i *Input) Close() error {
	i.stop()
	err := i.in.Close()
	if cerr := i.drv.Close(); err == nil {
		err = cerr
	}
	return err
}
