package audio

import (
	"context"
	"fmt"

	pa "github.com/gordonklaus/portaudio"
)

type portAudioBackend struct {
	cfg BackendConfig
}

func (b *portAudioBackend) Name() string { return "portaudio" }

// Run opens the default output device with an interleaved stereo callback.
func (b *portAudioBackend) Run(ctx context.Context, p *Player) error {
	if err := pa.Initialize(); err != nil {
		return fmt.Errorf("portaudio: initialize: %w", err)
	}
	defer func() {
		if err := pa.Terminate(); err != nil {
			b.cfg.Logger.Warn("portaudio terminate", "error", err)
		}
	}()

	rate := b.cfg.SampleRate
	if rate <= 0 {
		rate = p.SampleRate()
	}
	stream, err := pa.OpenDefaultStream(0, 2, rate, b.cfg.FramesPerBuffer, func(out []float32) {
		p.Render(out)
	})
	if err != nil {
		return fmt.Errorf("portaudio: open stream: %w", err)
	}
	defer stream.Close()

	if err := stream.Start(); err != nil {
		return fmt.Errorf("portaudio: start: %w", err)
	}
	b.cfg.Logger.Info("audio started",
		"backend", b.Name(),
		"version", pa.VersionText(),
		"sampleRate", stream.Info().SampleRate,
		"frames", b.cfg.FramesPerBuffer)

	<-ctx.Done()
	if err := stream.Stop(); err != nil {
		return fmt.Errorf("portaudio: stop: %w", err)
	}
	return nil
}
