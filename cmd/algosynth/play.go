package main

import (
	"errors"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/cwbudde/algo-synth/internal/audio"
	"github.com/cwbudde/algo-synth/internal/midiin"
	"github.com/cwbudde/algo-synth/internal/server"
	"github.com/cwbudde/algo-synth/internal/store"
	"github.com/cwbudde/algo-synth/synth"
)

var playOpts struct {
	backend    string
	frames     int
	midiPort   string
	listen     string
	presetDir  string
	presetPath string
	irPath     string
	watch      bool
}

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Stream the synth to a sound device",
	Long: `Stream the synth to the default output device.

Notes come from a MIDI input (--midi) and from the HTTP control
surface (--listen). With --preset-dir the working preset is loaded on
start and saved on exit; --watch reloads it whenever the file changes.

Examples:
  algosynth play --midi any
  algosynth play --backend oto --listen 127.0.0.1:8080
  algosynth play --preset-dir ~/.algosynth --watch`,
	RunE: runPlay,
}

func init() {
	f := playCmd.Flags()
	f.StringVarP(&playOpts.backend, "backend", "b", "portaudio", "audio backend (portaudio or oto)")
	f.IntVar(&playOpts.frames, "frames", 512, "frames per device buffer")
	f.StringVar(&playOpts.midiPort, "midi", "", `MIDI input name substring ("any" for the first port)`)
	f.StringVar(&playOpts.listen, "listen", "", "HTTP control address, e.g. :8080")
	f.StringVar(&playOpts.presetDir, "preset-dir", "", "directory of stored presets")
	f.StringVarP(&playOpts.presetPath, "preset", "p", "", "preset document to load first")
	f.StringVar(&playOpts.irPath, "ir", "", "WAV impulse response for the reverb")
	f.BoolVar(&playOpts.watch, "watch", false, "reload the working preset when it changes")
}

func runPlay(cmd *cobra.Command, _ []string) error {
	logger := slog.Default()

	s, err := synth.New(sampleRate, synth.WithLogger(logger))
	if err != nil {
		return err
	}
	if err := loadEngineFiles(s, playOpts.presetPath, playOpts.irPath); err != nil {
		return err
	}
	player := audio.NewPlayer(s)

	var st *store.Store
	if playOpts.presetDir != "" {
		st, err = store.Open(playOpts.presetDir, store.WithLogger(logger))
		if err != nil {
			return err
		}
		restorePreset(st, player, logger)
	} else if playOpts.watch {
		return errors.New("--watch needs --preset-dir")
	}

	backend, err := audio.NewBackend(playOpts.backend, audio.BackendConfig{
		SampleRate:      sampleRate,
		FramesPerBuffer: playOpts.frames,
		Logger:          logger,
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	g, ctx := errgroup.WithContext(ctx)

	if playOpts.midiPort != "" {
		port := playOpts.midiPort
		if port == "any" {
			port = ""
		}
		in, err := midiin.Open(port, midiin.NewHandler(player, logger))
		if err != nil {
			return err
		}
		g.Go(func() error {
			<-ctx.Done()
			return in.Close()
		})
	}

	g.Go(func() error { return backend.Run(ctx, player) })

	if playOpts.listen != "" {
		srv := server.New(player, server.Config{Addr: playOpts.listen, Store: st, Logger: logger})
		g.Go(func() error { return srv.Run(ctx) })
	}

	if playOpts.watch {
		g.Go(func() error {
			return st.Watch(ctx, store.DefaultKey, func(data []byte) {
				if err := player.DoErr(func(s *synth.Synth) error { return s.Import(data) }); err != nil {
					return
				}
				logger.Info("preset reloaded", "key", store.DefaultKey)
			})
		})
	}

	err = g.Wait()
	if st != nil {
		savePreset(st, player, logger)
	}
	return err
}

func restorePreset(st *store.Store, p *audio.Player, logger *slog.Logger) {
	data, err := st.Load(store.DefaultKey)
	if errors.Is(err, store.ErrNotFound) {
		return
	}
	if err == nil {
		err = p.DoErr(func(s *synth.Synth) error { return s.Import(data) })
	}
	if err != nil {
		logger.Warn("working preset not restored", "error", err)
		return
	}
	logger.Info("working preset restored", "dir", st.Dir())
}

func savePreset(st *store.Store, p *audio.Player, logger *slog.Logger) {
	var data []byte
	err := p.DoErr(func(s *synth.Synth) error {
		var err error
		data, err = s.ExportJSON()
		return err
	})
	if err == nil {
		err = st.Save(store.DefaultKey, data)
	}
	if err != nil {
		logger.Warn("working preset not saved", "error", err)
	}
}

