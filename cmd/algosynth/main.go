// Command algosynth renders scores offline and plays the synth live.
//
// Usage:
//
//	algosynth render --score FILE --out FILE.wav [flags]
//	algosynth play [--backend portaudio|oto] [--midi PORT] [--listen ADDR] [flags]
//	algosynth presets
//	algosynth info
//
// Examples:
//
//	algosynth render --score phrase.txt --out phrase.wav --tail 2
//	algosynth play --midi any --listen :8080 --preset-dir ~/.algosynth --watch
//	algosynth presets
package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

var version = "0.1.0"

var (
	debug      bool
	sampleRate float64
)

var rootCmd = &cobra.Command{
	Use:   "algosynth",
	Short: "Polyphonic synthesizer with a fixed multi-effect chain",
	Long: `algosynth drives oscillator voices through auto-wah, distortion,
tremolo, EQ, phaser, chorus, delay, reverb and compressor stages.

Scores render offline to WAV; the play command streams to a sound
device and takes notes from MIDI or the HTTP control surface.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(*cobra.Command, []string) {
		slog.SetDefault(newLogger(debug))
	},
}

func newLogger(debug bool) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level:     level,
		AddSource: debug,
	}))
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().Float64Var(&sampleRate, "sample-rate", 48000, "engine sample rate in Hz")

	rootCmd.AddCommand(renderCmd)
	rootCmd.AddCommand(playCmd)
	rootCmd.AddCommand(presetsCmd)
	rootCmd.AddCommand(infoCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		slog.Error("algosynth failed", "error", err)
		os.Exit(1)
	}
}
