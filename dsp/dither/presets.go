package dither

import (
	"fmt"
	"strings"
)

// Preset identifies a predefined FIR noise-shaping coefficient set.
type Preset int

const (
	PresetNone     Preset = iota // No shaping
	PresetEFB                    // Simple error feedback, 1st order
	Preset2SC                    // Simple 2nd-order highpass
	Preset3MEC                   // Modified E-weighted, 3rd order
	Preset9IEC                   // Improved E-weighted, 9th order
	Preset3FC                    // F-weighted, 3rd order
	Preset9FC                    // F-weighted, 9th order (default)
	PresetSBM                    // Super Bit Mapping, 12th order
	PresetSharp15k               // Sharp 15 kHz rolloff, 8th order (44.1 kHz)

	presetCount // sentinel
)

var presetNames = [presetCount]string{
	"None", "EFB", "2SC", "3MEC", "9IEC", "3FC", "9FC", "SBM", "Sharp15k",
}

// String returns the name of the preset.
func (p Preset) String() string {
	if p.Valid() {
		return presetNames[p]
	}
	return fmt.Sprintf("Preset(%d)", p)
}

// Valid reports whether p is a known preset.
func (p Preset) Valid() bool {
	return p >= 0 && p < presetCount
}

// ParsePreset returns the preset whose name matches s, ignoring case.
func ParsePreset(s string) (Preset, error) {
	for p, name := range presetNames {
		if strings.EqualFold(name, s) {
			return Preset(p), nil
		}
	}
	return PresetNone, fmt.Errorf("dither: unknown preset %q", s)
}

// Coefficients returns a copy of the FIR noise-shaping coefficients for this preset.
// Returns nil for PresetNone.
func (p Preset) Coefficients() []float64 {
	if !p.Valid() || len(presetCoeffs[p]) == 0 {
		return nil
	}
	return append([]float64(nil), presetCoeffs[p]...)
}

var presetCoeffs = [presetCount][]float64{
	PresetNone:     nil,
	PresetEFB:      {1},
	Preset2SC:      {1.0, -0.5},
	Preset3MEC:     {1.652, -1.049, 0.1382},
	Preset9IEC:     {2.847, -4.685, 6.214, -7.184, 6.639, -5.032, 3.263, -1.632, 0.4191},
	Preset3FC:      {1.623, -0.982, 0.109},
	Preset9FC:      {2.412, -3.370, 3.937, -4.174, 3.353, -2.205, 1.281, -0.569, 0.0847},
	PresetSharp15k: coeff15kSharp44100,
	PresetSBM: {
		1.47933, -1.59032, 1.64436, -1.36613,
		0.926704, -0.557931, 0.26786, -0.106726,
		0.028516, 0.00123066, -0.00616555, 0.003067,
	},
}

// Sample-rate-adaptive sharp 15 kHz coefficient sets.

var coeff15kSharp40000 = []float64{
	0.919387305668676, -1.04843437730544,
	1.04843048925451, -0.868972788711174,
	0.60853001063849, -0.3449209471469,
	0.147484332561636, -0.0370652871194614,
}

var coeff15kSharp44100 = []float64{
	1.34860378444905, -1.80123976889643,
	2.04804746376671, -1.93234174830592,
	1.59264693241396, -1.04979311664936,
	0.599422666305319, -0.213194268754789,
}

var coeff15kSharp48000 = []float64{
	1.4247141061364, -1.5437678148854,
	1.0967969510044, -0.32075758107035,
	-0.32074811729292, 0.525494723539046,
	-0.38058984415197, 0.14824460513256,
}

var coeff15kSharp64000 = []float64{
	2.49725554745212, -3.23587161287721,
	2.31844946822861, -0.54326047010533,
	-0.54325301319653, 0.543289788745007,
	-0.142132484905, -0.0202120370327948,
}

var coeff15kSharp96000 = []float64{
	3.14014081409305, -3.76888037179035,
	1.26107138314221, 1.26088059917107,
	-0.807698715053922, -0.80767075968406,
	1.0101984930848, -0.322351688402064,
}

// SharpPresetForSampleRate returns the sharp 15 kHz noise-shaping coefficients
// designed for the nearest standard sample rate.
func SharpPresetForSampleRate(sampleRate float64) []float64 {
	var src []float64
	switch {
	case sampleRate < 41000:
		src = coeff15kSharp40000
	case sampleRate < 46000:
		src = coeff15kSharp44100
	case sampleRate < 55000:
		src = coeff15kSharp48000
	case sampleRate < 75100:
		src = coeff15kSharp64000
	default:
		src = coeff15kSharp96000
	}
	return append([]float64(nil), src...)
}
