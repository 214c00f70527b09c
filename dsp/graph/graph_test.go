package graph

import (
	"errors"
	"math"
	"testing"

	"github.com/cwbudde/algo-synth/internal/testutil"
)

func newTestContext(t *testing.T) *Context {
	t.Helper()
	ctx, err := NewContext(48000)
	if err != nil {
		t.Fatalf("NewContext() error = %v", err)
	}
	return ctx
}

// sliceSource plays data once on both channels, then silence.
type sliceSource struct {
	data []float64
	pos  int
}

func (s *sliceSource) process(_, out *Bus, _ float64) {
	for i := range RenderQuantum {
		v := 0.0
		if s.pos < len(s.data) {
			v = s.data[s.pos]
			s.pos++
		}
		out[0][i] = v
		out[1][i] = v
	}
}

func newSliceSource(ctx *Context, data []float64) *Node {
	return newNode(ctx, "slice", &sliceSource{data: data})
}

// renderFrames renders n frames and returns the left channel.
func renderFrames(ctx *Context, n int) []float64 {
	out := make([]float64, 0, n)
	for len(out) < n {
		bus := ctx.RenderBlock()
		out = append(out, bus[0]...)
	}
	return out[:n]
}

func TestNewContextRejectsBadRate(t *testing.T) {
	for _, sr := range []float64{0, -1, math.NaN(), math.Inf(1)} {
		if _, err := NewContext(sr); !errors.Is(err, ErrInvalidSampleRate) {
			t.Errorf("NewContext(%v) error = %v, want ErrInvalidSampleRate", sr, err)
		}
	}
}

func TestContextClockAdvancesPerBlock(t *testing.T) {
	ctx := newTestContext(t)
	ctx.RenderBlock()
	ctx.RenderBlock()
	want := 2 * RenderQuantum / 48000.0
	if got := ctx.CurrentTime(); got != want {
		t.Fatalf("CurrentTime() = %v, want %v", got, want)
	}
}

func TestRenderInterleavesPartialBlocks(t *testing.T) {
	ctx := newTestContext(t)
	src := newSliceSource(ctx, []float64{0.5, 0.25, -0.5})
	src.Connect(ctx.Destination())

	dst := make([]float32, 3)
	ctx.Render(dst)
	want := []float32{0.5, 0.5, 0.25}
	for i := range want {
		if dst[i] != want[i] {
			t.Fatalf("Render()[%d] = %v, want %v", i, dst[i], want[i])
		}
	}
	ctx.Render(dst)
	if dst[0] != 0.25 || dst[1] != -0.5 {
		t.Fatalf("Render() continuation = %v, want [0.25 -0.5 ...]", dst)
	}
	if ctx.Frames() != RenderQuantum {
		t.Fatalf("Frames() = %d, want one block", ctx.Frames())
	}
}

func TestAfterTimeRunsInOrderBetweenBlocks(t *testing.T) {
	ctx := newTestContext(t)
	var order []int
	ctx.AfterTime(0.004, func() { order = append(order, 2) })
	ctx.AfterTime(0.001, func() { order = append(order, 1) })
	ctx.AfterTime(0.004, func() { order = append(order, 3) })

	renderFrames(ctx, 48000/100)
	if len(order) != 3 || order[0] != 1 || order[1] != 2 || order[2] != 3 {
		t.Fatalf("timer order = %v, want [1 2 3]", order)
	}
}

func TestGainScalesAndFollowsAutomation(t *testing.T) {
	ctx := newTestContext(t)
	ones := make([]float64, 2*RenderQuantum)
	for i := range ones {
		ones[i] = 1
	}
	g := ctx.NewGain(0.5)
	newSliceSource(ctx, ones).Connect(g).base().Connect(ctx.Destination())

	out := renderFrames(ctx, RenderQuantum)
	for i, v := range out {
		if v != 0.5 {
			t.Fatalf("out[%d] = %v, want 0.5", i, v)
		}
	}

	now := ctx.CurrentTime()
	g.Gain().SetImmediate(0, now)
	g.Gain().RampLinear(1, now+float64(RenderQuantum)/48000)
	out = renderFrames(ctx, RenderQuantum)
	if out[0] != 0 || !(out[64] > 0.49 && out[64] < 0.51) {
		t.Fatalf("ramped gain out[0]=%v out[64]=%v", out[0], out[64])
	}
}

func TestOscillatorLifecycle(t *testing.T) {
	ctx := newTestContext(t)
	osc := ctx.NewOscillator(WaveSine)
	osc.Connect(ctx.Destination())

	if err := osc.Stop(0); !errors.Is(err, ErrNotStarted) {
		t.Fatalf("Stop() before Start error = %v, want ErrNotStarted", err)
	}
	if err := osc.Start(0); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if err := osc.Start(0); !errors.Is(err, ErrAlreadyStarted) {
		t.Fatalf("second Start() error = %v, want ErrAlreadyStarted", err)
	}

	ended := 0
	osc.OnEnded(func() { ended++ })
	if err := osc.Stop(1); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
	// A later stop replaces the earlier one.
	if err := osc.Stop(0.01); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}

	out := renderFrames(ctx, 48000/50)
	testutil.RequireFinite(t, out)
	if ended != 1 || !osc.Ended() {
		t.Fatalf("ended callbacks = %d, Ended() = %v; want 1, true", ended, osc.Ended())
	}
	if out[100] == 0 {
		t.Fatal("oscillator silent before stop")
	}
	if out[481] != 0 || out[700] != 0 {
		t.Fatalf("oscillator still sounding after stop: %v %v", out[481], out[700])
	}
	if err := osc.Stop(2); !errors.Is(err, ErrEnded) {
		t.Fatalf("Stop() after end error = %v, want ErrEnded", err)
	}
	if err := osc.Start(2); !errors.Is(err, ErrEnded) {
		t.Fatalf("Start() after end error = %v, want ErrEnded", err)
	}
}

func TestOscillatorDetuneShiftsFrequency(t *testing.T) {
	ctx := newTestContext(t)
	osc := ctx.NewOscillator(WaveSine)
	osc.Frequency().SetImmediate(100, 0)
	osc.Detune().SetImmediate(1200, 0)
	osc.Connect(ctx.Destination())
	_ = osc.Start(0)

	out := renderFrames(ctx, 4800)
	// Count rising zero crossings over 0.1 s at 200 Hz.
	crossings := 0
	for i := 1; i < len(out); i++ {
		if out[i-1] < 0 && out[i] >= 0 {
			crossings++
		}
	}
	if crossings < 19 || crossings > 21 {
		t.Fatalf("rising zero crossings = %d, want about 20 at 200 Hz", crossings)
	}
}

func TestOscillatorWaveformsBounded(t *testing.T) {
	for _, w := range []Waveform{WaveSine, WaveSquare, WaveSawtooth, WaveTriangle} {
		t.Run(w.String(), func(t *testing.T) {
			ctx := newTestContext(t)
			osc := ctx.NewOscillator(w)
			osc.Frequency().SetImmediate(1234, 0)
			osc.Connect(ctx.Destination())
			_ = osc.Start(0)
			for i, v := range renderFrames(ctx, 4096) {
				if math.Abs(v) > 1.2 {
					t.Fatalf("sample %d = %v out of range", i, v)
				}
			}
		})
	}
}

func TestParseWaveform(t *testing.T) {
	for _, name := range []string{"sine", "square", "sawtooth", "triangle"} {
		w, err := ParseWaveform(name)
		if err != nil || w.String() != name {
			t.Errorf("ParseWaveform(%q) = %v, %v", name, w, err)
		}
	}
	if _, err := ParseWaveform("noise"); err == nil {
		t.Fatal("ParseWaveform(noise) error = nil")
	}
}

func TestParamModulationAddsToIntrinsicValue(t *testing.T) {
	ctx := newTestContext(t)
	ones := make([]float64, RenderQuantum)
	for i := range ones {
		ones[i] = 1
	}
	carrier := newSliceSource(ctx, ones)
	vca := ctx.NewGain(0.5)
	carrier.Connect(vca).base().Connect(ctx.Destination())

	mod := ctx.NewGain(0.25)
	lfoSrc := newSliceSource(ctx, ones)
	lfoSrc.Connect(mod)
	mod.ConnectParam(vca.Gain())

	out := renderFrames(ctx, RenderQuantum)
	if out[10] != 0.75 {
		t.Fatalf("modulated gain output = %v, want 0.75", out[10])
	}
	if !vca.Gain().Modulated() {
		t.Fatal("Modulated() = false")
	}
}

func TestDisconnectRemovesEdges(t *testing.T) {
	ctx := newTestContext(t)
	a := ctx.NewGain(1)
	b := ctx.NewGain(1)
	a.Connect(b)
	a.Connect(b)
	a.ConnectParam(b.Gain())
	if a.NumOutputs() != 2 || b.NumInputs() != 1 {
		t.Fatalf("outputs = %d, inputs = %d; want 2, 1", a.NumOutputs(), b.NumInputs())
	}
	a.Disconnect()
	if a.NumOutputs() != 0 || b.NumInputs() != 0 || b.Gain().Modulated() {
		t.Fatal("Disconnect() left edges behind")
	}
}

func TestFeedbackThroughDelay(t *testing.T) {
	ctx := newTestContext(t)
	impulse := []float64{1}
	src := newSliceSource(ctx, impulse)

	sum := ctx.NewGain(1)
	delay, err := ctx.NewDelay(1)
	if err != nil {
		t.Fatalf("NewDelay() error = %v", err)
	}
	delay.DelayTime().SetImmediate(0.001, 0) // shorter than a quantum inside the loop
	fb := ctx.NewGain(0.5)

	src.Connect(sum)
	sum.Connect(delay).base().Connect(fb).base().Connect(sum)
	sum.Connect(ctx.Destination())

	out := renderFrames(ctx, 4*RenderQuantum)
	testutil.RequireFinite(t, out)
	if out[0] != 1 {
		t.Fatalf("out[0] = %v, want 1", out[0])
	}
	if math.Abs(out[RenderQuantum]-0.5) > 1e-12 {
		t.Fatalf("first echo = %v, want 0.5 one quantum later", out[RenderQuantum])
	}
	if math.Abs(out[2*RenderQuantum]-0.25) > 1e-12 {
		t.Fatalf("second echo = %v, want 0.25", out[2*RenderQuantum])
	}
}

func TestCycleWithoutDelayIsSilent(t *testing.T) {
	ctx := newTestContext(t)
	a := ctx.NewGain(1)
	b := ctx.NewGain(1)
	newSliceSource(ctx, []float64{1, 1, 1}).Connect(a)
	a.Connect(b).base().Connect(a)
	b.Connect(ctx.Destination())

	out := renderFrames(ctx, RenderQuantum)
	testutil.RequireFinite(t, out)
	if out[0] != 1 {
		t.Fatalf("out[0] = %v, want the direct path only", out[0])
	}
}

func TestDelayLine(t *testing.T) {
	ctx := newTestContext(t)
	d, err := ctx.NewDelay(0.01)
	if err != nil {
		t.Fatalf("NewDelay() error = %v", err)
	}
	d.DelayTime().SetImmediate(10/48000.0, 0)
	newSliceSource(ctx, []float64{1}).Connect(d).base().Connect(ctx.Destination())

	out := renderFrames(ctx, RenderQuantum)
	for i, v := range out {
		want := 0.0
		if i == 10 {
			want = 1
		}
		if math.Abs(v-want) > 1e-12 {
			t.Fatalf("out[%d] = %v, want %v", i, v, want)
		}
	}
	if _, err := ctx.NewDelay(0); err == nil {
		t.Fatal("NewDelay(0) error = nil")
	}
}

func TestBiquadResponses(t *testing.T) {
	ctx := newTestContext(t)
	tests := []struct {
		typ    FilterType
		freq   float64
		q      float64
		gain   float64
		hz     float64
		wantDB float64
	}{
		{Lowpass, 1000, 0, 0, 20, 0},
		{Highpass, 1000, 0, 0, 20000, 0},
		{Peaking, 1000, 1, 6, 1000, 6},
		{Lowshelf, 320, 0, -12, 20, -12},
		{Highshelf, 3200, 0, 9, 20000, 9},
		{Notch, 1000, 1, 0, 1000, -300},
	}
	for _, tc := range tests {
		t.Run(tc.typ.String(), func(t *testing.T) {
			f := ctx.NewBiquadFilter(tc.typ)
			f.Frequency().SetImmediate(tc.freq, 0)
			f.Q().SetImmediate(tc.q, 0)
			f.Gain().SetImmediate(tc.gain, 0)
			got := 20 * math.Log10(f.MagnitudeAt(tc.hz)+1e-15)
			if tc.wantDB < -100 {
				if got > -60 {
					t.Fatalf("response at %v Hz = %.2f dB, want a deep notch", tc.hz, got)
				}
				return
			}
			if math.Abs(got-tc.wantDB) > 0.5 {
				t.Fatalf("response at %v Hz = %.2f dB, want %.2f", tc.hz, got, tc.wantDB)
			}
		})
	}
}

func TestBiquadAllpassIsFlat(t *testing.T) {
	ctx := newTestContext(t)
	f := ctx.NewBiquadFilter(Allpass)
	f.Frequency().SetImmediate(700, 0)
	for _, hz := range []float64{50, 700, 5000} {
		if m := f.MagnitudeAt(hz); math.Abs(m-1) > 1e-9 {
			t.Fatalf("allpass magnitude at %v Hz = %v, want 1", hz, m)
		}
	}
}

func TestParseFilterType(t *testing.T) {
	ft, err := ParseFilterType("HighShelf")
	if err != nil || ft != Highshelf {
		t.Fatalf("ParseFilterType() = %v, %v", ft, err)
	}
	if _, err := ParseFilterType("comb"); err == nil {
		t.Fatal("ParseFilterType(comb) error = nil")
	}
}

func TestStateVariableFilterPassesDC(t *testing.T) {
	ctx := newTestContext(t)
	ones := make([]float64, 8*RenderQuantum)
	for i := range ones {
		ones[i] = 1
	}
	f := ctx.NewStateVariableFilter()
	f.Cutoff().SetImmediate(2000, 0)
	f.Resonance().SetImmediate(1, 0)
	newSliceSource(ctx, ones).Connect(f).base().Connect(ctx.Destination())

	out := renderFrames(ctx, len(ones))
	testutil.RequireFinite(t, out)
	if last := out[len(out)-1]; math.Abs(last-1) > 1e-3 {
		t.Fatalf("settled output = %v, want 1", last)
	}
}

func TestWaveShaperCurveLookup(t *testing.T) {
	ctx := newTestContext(t)
	w := ctx.NewWaveShaper()
	if got := w.Shape(0.3); got != 0.3 {
		t.Fatalf("Shape() without curve = %v, want identity", got)
	}
	w.SetCurve([]float64{-1, 0, 1})
	tests := []struct{ in, want float64 }{
		{-2, -1}, {-1, -1}, {-0.5, -0.5}, {0, 0}, {0.25, 0.25}, {1, 1}, {3, 1},
	}
	for _, tc := range tests {
		if got := w.Shape(tc.in); math.Abs(got-tc.want) > 1e-12 {
			t.Errorf("Shape(%v) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestWaveShaperOversampledIdentityCurve(t *testing.T) {
	ctx := newTestContext(t)
	w := ctx.NewWaveShaper()
	w.SetCurve([]float64{-1, 1})
	if err := w.SetOversample(Oversample4x); err != nil {
		t.Fatalf("SetOversample() error = %v", err)
	}
	if w.Oversample() != Oversample4x {
		t.Fatalf("Oversample() = %v", w.Oversample())
	}

	n := 8 * RenderQuantum
	sine := make([]float64, n)
	for i := range sine {
		sine[i] = 0.5 * math.Sin(2*math.Pi*440*float64(i)/48000)
	}
	newSliceSource(ctx, sine).Connect(w).base().Connect(ctx.Destination())
	out := renderFrames(ctx, n)

	peak := 0.0
	for _, v := range out[4*RenderQuantum:] {
		peak = math.Max(peak, math.Abs(v))
	}
	if math.Abs(peak-0.5) > 0.02 {
		t.Fatalf("oversampled identity peak = %v, want about 0.5", peak)
	}
}

func TestConvolverMatchesDirectConvolution(t *testing.T) {
	ctx := newTestContext(t)
	ir := make([]float64, 300)
	for i := range ir {
		ir[i] = math.Pow(0.99, float64(i)) * math.Cos(float64(i))
	}
	input := make([]float64, 3*RenderQuantum)
	for i := range input {
		input[i] = math.Sin(float64(i) * 0.37)
	}

	conv := ctx.NewConvolver()
	conv.SetNormalize(false)
	if err := conv.SetBuffer([][]float64{ir}); err != nil {
		t.Fatalf("SetBuffer() error = %v", err)
	}
	if conv.Len() != len(ir) {
		t.Fatalf("Len() = %d, want %d", conv.Len(), len(ir))
	}
	newSliceSource(ctx, input).Connect(conv).base().Connect(ctx.Destination())
	got := renderFrames(ctx, len(input))

	want := make([]float64, len(input))
	for n := range want {
		for k := 0; k < len(ir) && k <= n; k++ {
			want[n] += ir[k] * input[n-k]
		}
	}
	testutil.RequireSliceNearlyEqual(t, got, want, 1e-9)
}

func TestConvolverBufferValidation(t *testing.T) {
	ctx := newTestContext(t)
	conv := ctx.NewConvolver()
	bad := [][][]float64{
		{},
		{{}},
		{{1, 2}, {1}},
		{{1}, {1}, {1}},
	}
	for _, b := range bad {
		if err := conv.SetBuffer(b); !errors.Is(err, ErrInvalidBuffer) {
			t.Errorf("SetBuffer(%v) error = %v, want ErrInvalidBuffer", b, err)
		}
	}
	if err := conv.SetBuffer(nil); err != nil {
		t.Fatalf("SetBuffer(nil) error = %v", err)
	}
	if conv.Len() != 0 {
		t.Fatalf("Len() = %d after SetBuffer(nil), want 0", conv.Len())
	}
}

func TestConvolverNormalization(t *testing.T) {
	// A unit-power response at the calibration rate scales by the calibration gain.
	ir := [][]float64{{1, -1, 1, -1}}
	if got := normalizationScale(ir, 44100); math.Abs(got-0.00125) > 1e-15 {
		t.Fatalf("normalizationScale() = %v, want 0.00125", got)
	}
	if got := normalizationScale(ir, 88200); math.Abs(got-0.000625) > 1e-15 {
		t.Fatalf("normalizationScale() at 88.2k = %v, want 0.000625", got)
	}
	silent := [][]float64{{0, 0}}
	if got := normalizationScale(silent, 44100); math.Abs(got-10) > 1e-12 {
		t.Fatalf("normalizationScale(silence) = %v, want 10", got)
	}
}

func TestCompressorReducesLoudSignal(t *testing.T) {
	ctx := newTestContext(t)
	n := 48000 / 10
	loud := make([]float64, n)
	for i := range loud {
		loud[i] = 0.9 * math.Sin(2*math.Pi*220*float64(i)/48000)
	}
	comp, err := ctx.NewCompressor()
	if err != nil {
		t.Fatalf("NewCompressor() error = %v", err)
	}
	newSliceSource(ctx, loud).Connect(comp).base().Connect(ctx.Destination())
	renderFrames(ctx, n)

	if r := comp.Reduction(); r > -6 {
		t.Fatalf("Reduction() = %v dB, want substantial reduction", r)
	}
	if g := comp.dyn.StaticGain(0.001); g != 1 {
		t.Fatalf("StaticGain() below the knee = %v, want 1", g)
	}
}
