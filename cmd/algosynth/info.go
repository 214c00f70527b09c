package main

import (
	"fmt"
	"runtime"
	rdebug "runtime/debug"
	"strings"
	"text/tabwriter"

	"github.com/cwbudde/algo-vecmath/cpu"
	"github.com/spf13/cobra"

	"github.com/cwbudde/algo-synth/dsp/graph"
	"github.com/cwbudde/algo-synth/internal/audio"
	"github.com/cwbudde/algo-synth/internal/midiin"
	"github.com/cwbudde/algo-synth/synth"
)

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Print build, CPU and device information",
	RunE: func(cmd *cobra.Command, _ []string) error {
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)

		fmt.Fprintf(w, "version\t%s\n", version)
		fmt.Fprintf(w, "go\t%s %s/%s\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)
		if bi, ok := rdebug.ReadBuildInfo(); ok {
			for _, s := range bi.Settings {
				if s.Key == "-tags" || s.Key == "vcs.revision" {
					fmt.Fprintf(w, "%s\t%s\n", s.Key, s.Value)
				}
			}
		}

		f := cpu.DetectFeatures()
		fmt.Fprintf(w, "cpu\t%s\n", f.Architecture)
		fmt.Fprintf(w, "simd\t%s\n", simdSummary(f))

		fmt.Fprintf(w, "render quantum\t%d frames\n", graph.RenderQuantum)
		fmt.Fprintf(w, "effect chain\t%s\n", stageNames())
		fmt.Fprintf(w, "backends\t%s\n", strings.Join(audio.Backends(), ", "))

		ins, err := midiin.Inputs()
		switch {
		case err != nil:
			fmt.Fprintf(w, "midi inputs\tunavailable (%v)\n", err)
		case len(ins) == 0:
			fmt.Fprintf(w, "midi inputs\tnone\n")
		default:
			fmt.Fprintf(w, "midi inputs\t%s\n", strings.Join(ins, ", "))
		}
		return w.Flush()
	},
}

func simdSummary(f cpu.Features) string {
	var have []string
	for _, l := range []struct {
		name string
		on   bool
	}{
		{"SSE2", f.HasSSE2},
		{"AVX", f.HasAVX},
		{"AVX2", f.HasAVX2},
		{"AVX-512", f.HasAVX512},
		{"NEON", f.HasNEON},
	} {
		if l.on {
			have = append(have, l.name)
		}
	}
	if len(have) == 0 {
		return "none"
	}
	return strings.Join(have, " ")
}

func stageNames() string {
	kinds := synth.AllStages()
	names := make([]string, len(kinds))
	for i, k := range kinds {
		names[i] = k.String()
	}
	return strings.Join(names, " > ")
}
