// Package resample provides rational sample-rate conversion using polyphase FIR
// filtering with anti-aliasing defaults.
//
// Quality modes:
//   - QualityFast: lower CPU, lower attenuation
//   - QualityBalanced: default mode
//   - QualityBest: higher attenuation and flatter passband
//
// Default quality/performance matrix:
//
//	mode            taps/phase   nominal stopband
//	QualityFast     16           ~55 dB
//	QualityBalanced 32           ~75 dB
//	QualityBest     64           ~90 dB
//
// A Resampler is streaming: state carries across Process calls, so block
// based callers (the waveshaper's oversampler) and whole-buffer callers
// (impulse-response import) share one implementation. Latency reports the
// filter's group delay for callers that need sample alignment.
package resample
