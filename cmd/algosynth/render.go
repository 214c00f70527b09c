package main

import (
	"fmt"
	"log/slog"
	"math/rand/v2"
	"os"

	"github.com/spf13/cobra"

	"github.com/cwbudde/algo-synth/internal/audio"
	"github.com/cwbudde/algo-synth/internal/score"
	"github.com/cwbudde/algo-synth/synth"
)

var renderOpts struct {
	scorePath  string
	outPath    string
	presetPath string
	irPath     string
	tail       float64
	bits       int
	shaping    string
	seed       uint64
}

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Render a score to a WAV file",
	Long: `Render a plain-text score offline.

Score lines are "TIME COMMAND ARGS", for example:

  0     on     A3
  0.5   set    {"delayMix": 0.3}
  1     off    A3

Examples:
  algosynth render --score phrase.txt --out phrase.wav
  algosynth render --score phrase.txt --out phrase.wav --preset dub.json --bits 24`,
	RunE: runRender,
}

func init() {
	f := renderCmd.Flags()
	f.StringVarP(&renderOpts.scorePath, "score", "s", "", "score file (required)")
	f.StringVarP(&renderOpts.outPath, "out", "o", "", "output WAV file (required)")
	f.StringVarP(&renderOpts.presetPath, "preset", "p", "", "preset document to load first")
	f.StringVar(&renderOpts.irPath, "ir", "", "WAV impulse response for the reverb")
	f.Float64Var(&renderOpts.tail, "tail", 2, "seconds rendered after the last event")
	f.IntVar(&renderOpts.bits, "bits", 16, "output bit depth (16 or 24)")
	f.StringVar(&renderOpts.shaping, "noise-shaping", "none", "dither noise shaper: none, sharp, shelf or a preset such as 9FC")
	f.Uint64Var(&renderOpts.seed, "seed", 1, "seed for reverb impulses and dither")
	_ = renderCmd.MarkFlagRequired("score")
	_ = renderCmd.MarkFlagRequired("out")
}

func runRender(cmd *cobra.Command, _ []string) error {
	logger := slog.Default()

	f, err := os.Open(renderOpts.scorePath)
	if err != nil {
		return err
	}
	sc, err := score.Parse(f)
	f.Close()
	if err != nil {
		return err
	}

	rng := rand.New(rand.NewPCG(renderOpts.seed, renderOpts.seed^0x9e3779b97f4a7c15))
	s, err := synth.New(sampleRate, synth.WithLogger(logger), synth.WithRand(rng))
	if err != nil {
		return err
	}
	if err := loadEngineFiles(s, renderOpts.presetPath, renderOpts.irPath); err != nil {
		return err
	}

	out, err := os.Create(renderOpts.outPath)
	if err != nil {
		return err
	}
	defer out.Close()

	w, err := audio.NewWAVWriter(out, int(sampleRate), audio.WAVOptions{
		BitDepth:     renderOpts.bits,
		NoiseShaping: renderOpts.shaping,
		Rand:         rng,
	})
	if err != nil {
		return err
	}
	frames, err := score.Render(s, sc, renderOpts.tail, w)
	if err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}

	logger.Info("rendered",
		"out", renderOpts.outPath,
		"events", len(sc.Events),
		"seconds", fmt.Sprintf("%.2f", float64(frames)/sampleRate))
	return nil
}

// loadEngineFiles imports an optional preset document and impulse response.
func loadEngineFiles(s *synth.Synth, presetPath, irPath string) error {
	if presetPath != "" {
		data, err := os.ReadFile(presetPath)
		if err != nil {
			return err
		}
		if err := s.Import(data); err != nil {
			return fmt.Errorf("preset %s: %w", presetPath, err)
		}
	}
	if irPath != "" {
		ir, err := audio.LoadImpulseResponse(irPath, s.SampleRate())
		if err != nil {
			return err
		}
		if err := s.SetReverbImpulse(ir); err != nil {
			return err
		}
	}
	return nil
}
