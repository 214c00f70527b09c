//go:build fastmath

package param

import "github.com/meko-christian/algo-approx"

// mathExp computes e^x using fast approximation.
func mathExp(x float64) float64 {
	return approx.FastExp(x)
}

// mathPow computes b^e for positive b using fast approximation.
// Uses the identity: b^e = e^(e * ln(b))
func mathPow(b, e float64) float64 {
	return approx.FastExp(e * approx.FastLog(b))
}
