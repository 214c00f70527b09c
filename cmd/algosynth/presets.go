package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/cwbudde/algo-synth/synth"
)

var presetsCmd = &cobra.Command{
	Use:   "presets",
	Short: "List the voice and style preset catalog",
	RunE: func(cmd *cobra.Command, _ []string) error {
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)

		fmt.Fprintln(w, "VOICE\tWAVE\tMODE\tADSR\tCUTOFF\tDESCRIPTION")
		for _, key := range synth.VoicePresets() {
			p, _ := synth.LookupVoicePreset(key)
			mode := "poly"
			if !p.Poly {
				mode = "mono/" + p.Priority
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%g/%g/%g/%g\t%g\t%s\n",
				key, p.Waveform, mode, p.Attack, p.Decay, p.Sustain, p.Release, p.Cutoff, p.Description)
		}
		fmt.Fprintln(w)

		fmt.Fprintln(w, "STYLE\tEFFECTS\tSCALE\tDESCRIPTION")
		for _, key := range synth.StylePresets() {
			p, _ := synth.LookupStylePreset(key)
			fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", key, enabledEffects(p.Settings), len(p.Scale), p.Description)
		}
		return w.Flush()
	},
}

func enabledEffects(s synth.Settings) string {
	on := []struct {
		name    string
		enabled bool
	}{
		{"wah", s.WahEnabled},
		{"dist", s.DistEnabled},
		{"trem", s.TremoloEnabled},
		{"eq", s.EQEnabled},
		{"phaser", s.PhaserEnabled},
		{"chorus", s.ChorusEnabled},
		{"delay", s.DelayEnabled},
		{"reverb", s.ReverbEnabled},
		{"comp", s.CompEnabled},
	}
	var names []string
	for _, e := range on {
		if e.enabled {
			names = append(names, e.name)
		}
	}
	if len(names) == 0 {
		return "-"
	}
	return strings.Join(names, ",")
}
