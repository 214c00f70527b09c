// Package design computes biquad coefficients from musical parameters.
//
// The designers follow the RBJ audio-EQ cookbook. Every function returns
// zero coefficients (silence) when freq is not strictly inside (0, nyquist)
// or the sample rate is invalid; callers that automate frequency clamp it
// before designing.
package design
