package audio

import (
	"context"
	"fmt"
	"time"

	"github.com/ebitengine/oto/v3"
)

type otoBackend struct {
	cfg BackendConfig
}

func (b *otoBackend) Name() string { return "oto" }

// Run plays the player as a float32 stream through oto.
func (b *otoBackend) Run(ctx context.Context, p *Player) error {
	rate := b.cfg.SampleRate
	if rate <= 0 {
		rate = p.SampleRate()
	}
	frames := b.cfg.FramesPerBuffer
	otoCtx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   int(rate),
		ChannelCount: 2,
		Format:       oto.FormatFloat32LE,
		BufferSize:   time.Duration(frames) * time.Second / time.Duration(rate),
	})
	if err != nil {
		return fmt.Errorf("oto: new context: %w", err)
	}
	select {
	case <-ready:
	case <-ctx.Done():
		return nil
	}

	player := otoCtx.NewPlayer(p)
	player.Play()
	b.cfg.Logger.Info("audio started", "backend", b.Name(), "sampleRate", rate, "frames", frames)

	<-ctx.Done()
	player.Pause()
	if err := player.Close(); err != nil {
		return fmt.Errorf("oto: close: %w", err)
	}
	return nil
}
