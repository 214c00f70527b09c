// Package dither quantizes float audio to integer PCM with dither noise and
// optional error-feedback noise shaping.
//
// A [Quantizer] keeps per-channel state (the shaper's error history), so a
// stereo writer owns one Quantizer per channel. Shapers are either FIR
// presets ([Preset]), the sample-rate-adaptive sharp set, or a biquad
// low-shelf on the error signal ([IIRShelfShaper]).
package dither
