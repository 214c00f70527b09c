//go:build !fastmath

package param

import "math"

// mathExp computes e^x using standard library math.
func mathExp(x float64) float64 {
	return math.Exp(x)
}

// mathPow computes b^e using standard library math.
func mathPow(b, e float64) float64 {
	return math.Pow(b, e)
}
