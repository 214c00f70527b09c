package audio

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// ErrUnknownBackend is returned by NewBackend for an unsupported name.
var ErrUnknownBackend = errors.New("audio: unknown backend")

// Backend streams a player to a sound device.
type Backend interface {
	// Run plays until ctx is done.
	Run(ctx context.Context, p *Player) error
	Name() string
}

// BackendConfig holds device settings shared by all backends.
type BackendConfig struct {
	SampleRate      float64
	FramesPerBuffer int
	Logger          *slog.Logger
}

func (c BackendConfig) withDefaults() BackendConfig {
	if c.FramesPerBuffer <= 0 {
		c.FramesPerBuffer = 512
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	return c
}

// Backends lists the backend names accepted by NewBackend.
func Backends() []string {
	return []string{"portaudio", "oto"}
}

// NewBackend returns the named backend.
func NewBackend(name string, cfg BackendConfig) (Backend, error) {
	cfg = cfg.withDefaults()
	switch name {
	case "portaudio", "":
		return &portAudioBackend{cfg: cfg}, nil
	case "oto":
		return &otoBackend{cfg: cfg}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, name)
	}
}
