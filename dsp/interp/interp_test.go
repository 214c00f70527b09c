package interp

import (
	"math"
	"testing"
)

func TestHermite4Endpoints(t *testing.T) {
	t.Parallel()

	if got := Hermite4(0, 5, 1, 2, 9); got != 1 {
		t.Fatalf("Hermite4(t=0) = %v, want x0", got)
	}
	if got := Hermite4(1, 5, 1, 2, 9); math.Abs(got-2) > 1e-12 {
		t.Fatalf("Hermite4(t=1) = %v, want x1", got)
	}
}

func TestHermite4ExactOnLines(t *testing.T) {
	t.Parallel()

	for _, tt := range []float64{0.1, 0.25, 0.5, 0.9} {
		got := Hermite4(tt, -1, 0, 1, 2)
		if math.Abs(got-tt) > 1e-12 {
			t.Fatalf("Hermite4(%v) on a line = %v", tt, got)
		}
		if got := Linear(tt, 0, 2); math.Abs(got-2*tt) > 1e-12 {
			t.Fatalf("Linear(%v) = %v", tt, got)
		}
	}
}
