package biquad

import (
	"math"
	"testing"
)

// tolerance for floating-point comparisons.
const eps = 1e-12

func almostEqual(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

func TestNewSection(t *testing.T) {
	t.Parallel()

	c := Coefficients{B0: 1, B1: 2, B2: 3, A1: 4, A2: 5}
	s := NewSection(c)
	if s.Coefficients != c {
		t.Fatalf("coefficients mismatch: got %v, want %v", s.Coefficients, c)
	}
	if st := s.State(); st != [2]float64{0, 0} {
		t.Fatalf("initial state not zero: %v", st)
	}
}

func TestProcessSampleDFIIT(t *testing.T) {
	t.Parallel()

	// n=0: y=0.25,  d0=0.55,  d1=0.24
	// n=1: y=0.55,  d0=0.35,  d1=-0.022
	// n=2: y=0.35,  d0=0.048, d1=-0.014
	// n=3: y=0.048
	s := NewSection(Coefficients{B0: 0.25, B1: 0.5, B2: 0.25, A1: -0.2, A2: 0.04})

	want := []float64{0.25, 0.55, 0.35, 0.048}
	for i, w := range want {
		var x float64
		if i == 0 {
			x = 1
		}
		if y := s.ProcessSample(x); !almostEqual(y, w, eps) {
			t.Fatalf("sample %d: got %v, want %v", i, y, w)
		}
	}
}

func TestProcessBlockMatchesProcessSample(t *testing.T) {
	t.Parallel()

	c := Coefficients{B0: 0.2, B1: 0.4, B2: 0.2, A1: -0.6, A2: 0.2}

	for _, n := range []int{0, 1, 2, 7, 128} {
		in := make([]float64, n)
		for i := range in {
			in[i] = math.Sin(float64(i) * 0.3)
		}

		ref := NewSection(c)
		want := make([]float64, n)
		for i, x := range in {
			want[i] = ref.ProcessSample(x)
		}

		block := NewSection(c)
		got := append([]float64(nil), in...)
		block.ProcessBlock(got)

		to := NewSection(c)
		dst := make([]float64, n)
		to.ProcessBlockTo(dst, in)

		for i := range want {
			if !almostEqual(got[i], want[i], eps) || !almostEqual(dst[i], want[i], eps) {
				t.Fatalf("n=%d sample %d: block %v to %v, want %v", n, i, got[i], dst[i], want[i])
			}
		}
		if block.State() != ref.State() || to.State() != ref.State() {
			t.Fatalf("n=%d state mismatch", n)
		}
	}
}

func TestCoefficientSwapKeepsState(t *testing.T) {
	t.Parallel()

	s := NewSection(Coefficients{B0: 0.5, B1: 0.5})
	s.ProcessSample(1)
	before := s.State()

	s.Coefficients = Coefficients{B0: 1}
	if s.State() != before {
		t.Fatalf("State() = %v after coefficient swap, want %v", s.State(), before)
	}
	// d0 from the previous coefficients still reaches the output.
	if y := s.ProcessSample(0); !almostEqual(y, 0.5, eps) {
		t.Fatalf("ProcessSample() = %v, want 0.5", y)
	}
}

func TestResetAndStable(t *testing.T) {
	t.Parallel()

	s := NewSection(Coefficients{B0: 1, A1: -2.5})
	for range 2000 {
		s.ProcessSample(1)
	}
	if s.Stable() {
		t.Fatalf("Stable() = true for diverged section, state %v", s.State())
	}
	s.Reset()
	if !s.Stable() || s.State() != [2]float64{} {
		t.Fatalf("Reset() left state %v", s.State())
	}
}

func TestMagnitudeSquaredMatchesResponse(t *testing.T) {
	t.Parallel()

	c := Coefficients{B0: 0.2, B1: 0.4, B2: 0.2, A1: -0.6, A2: 0.2}
	for _, f := range []float64{0, 100, 1000, 5000, 11025, 22049} {
		h := c.Response(f, 44100)
		want := real(h)*real(h) + imag(h)*imag(h)
		if got := c.MagnitudeSquared(f, 44100); !almostEqual(got, want, 1e-9) {
			t.Fatalf("MagnitudeSquared(%v) = %v, want %v", f, got, want)
		}
	}
}

func TestImpulseResponsePreservesState(t *testing.T) {
	t.Parallel()

	s := NewSection(Coefficients{B0: 0.25, B1: 0.5, B2: 0.25, A1: -0.2, A2: 0.04})
	s.ProcessSample(0.7)
	saved := s.State()

	ir := s.ImpulseResponse(4)
	want := []float64{0.25, 0.55, 0.35, 0.048}
	for i := range want {
		if !almostEqual(ir[i], want[i], eps) {
			t.Fatalf("ir[%d] = %v, want %v", i, ir[i], want[i])
		}
	}
	if s.State() != saved {
		t.Fatalf("ImpulseResponse() changed state: %v, want %v", s.State(), saved)
	}
	if s.ImpulseResponse(0) != nil {
		t.Fatal("ImpulseResponse(0) should be nil")
	}
}
