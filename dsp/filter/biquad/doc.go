// Package biquad provides biquad (second-order IIR) filter runtime primitives.
//
// A [Section] implements Direct Form II Transposed processing for a single
// second-order section defined by [Coefficients]. Coefficients may be
// replaced between samples; the delay-line state carries over, which is what
// the audio graph relies on when a filter parameter is automated.
//
// Coefficient design lives in dsp/filter/design.
package biquad
