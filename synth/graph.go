package synth

import (
	"fmt"
	"math/rand/v2"
	"slices"

	"github.com/cwbudde/algo-synth/dsp/graph"
	"github.com/cwbudde/algo-synth/dsp/shape"
)

// StageKind names an effect stage.
type StageKind int

const (
	StageWah StageKind = iota
	StageDistortion
	StageTremolo
	StageEQ
	StagePhaser
	StageChorus
	StageDelay
	StageReverb
	StageCompressor
	numStages
)

var stageNames = [numStages]string{
	"wah", "distortion", "tremolo", "eq", "phaser", "chorus", "delay", "reverb", "compressor",
}

func (k StageKind) String() string {
	if k < 0 || k >= numStages {
		return fmt.Sprintf("StageKind(%d)", int(k))
	}
	return stageNames[k]
}

// ParseStageKind parses a stage name.
func ParseStageKind(name string) (StageKind, error) {
	i := slices.Index(stageNames[:], name)
	if i < 0 {
		return 0, fmt.Errorf("synth: unknown stage %q", name)
	}
	return StageKind(i), nil
}

// AllStages returns every stage kind in signal order.
func AllStages() []StageKind {
	out := make([]StageKind, numStages)
	for i := range out {
		out[i] = StageKind(i)
	}
	return out
}

const (
	maxDelaySeconds   = 5.0
	minDelaySeconds   = 0.01
	chorusBaseDelay   = 0.025
	chorusDepthScale  = 0.010
	chorusMaxDelay    = 0.1
	phaserDepthScale  = 0.9
	phaserStages      = 4
	eqLowFrequency    = 320
	eqMidFrequency    = 1000
	eqHighFrequency   = 3200
	defaultReverbTime = 2.0
)

// EffectStage is one stage of the chain: in feeds dry and the stage's
// processing, whose output feeds wet; dry and wet sum into out.
type EffectStage struct {
	Kind StageKind
	In   *graph.Gain
	Dry  *graph.Gain
	Wet  *graph.Gain
	Out  *graph.Gain
}

func newEffectStage(ctx *graph.Context, kind StageKind) *EffectStage {
	e := &EffectStage{
		Kind: kind,
		In:   ctx.NewGain(1),
		Dry:  ctx.NewGain(1),
		Wet:  ctx.NewGain(0),
		Out:  ctx.NewGain(1),
	}
	e.In.Connect(e.Dry)
	e.Dry.Connect(e.Out)
	e.Wet.Connect(e.Out)
	return e
}

func (e *EffectStage) effect() *EffectStage { return e }

type connector interface {
	Connect(dst graph.AudioNode) graph.AudioNode
}

// route connects in → first … last → wet.
func (e *EffectStage) route(first graph.AudioNode, last connector) {
	e.In.Connect(first)
	last.Connect(e.Wet)
}

// stage is a built effect stage that can take settings.
type stage interface {
	effect() *EffectStage
	apply(s *Settings, now float64)
}

// lfo is a free-running sine driving a parameter through a scaling gain.
type lfo struct {
	osc   *graph.Oscillator
	depth *graph.Gain
}

func newLFO(ctx *graph.Context, rate float64, targets ...*graph.Param) (lfo, error) {
	l := lfo{osc: ctx.NewOscillator(graph.WaveSine), depth: ctx.NewGain(0)}
	l.osc.Frequency().SetDefault(rate)
	l.osc.Connect(l.depth)
	for _, p := range targets {
		l.depth.ConnectParam(p)
	}
	if err := l.osc.Start(ctx.CurrentTime()); err != nil {
		return lfo{}, fmt.Errorf("synth: start lfo: %w", err)
	}
	return l, nil
}

// SignalGraph is the fixed effect chain. It is built once; settings only
// move parameters.
type SignalGraph struct {
	ctx    *graph.Context
	rng    *rand.Rand
	entry  *graph.Gain
	master *graph.Gain
	stages []stage

	reverb *reverbStage
}

type buildConfig struct {
	stages []StageKind
	rng    *rand.Rand
}

// BuildOption configures BuildSignalGraph.
type BuildOption func(*buildConfig)

// WithStages restricts the chain to the given stages. Order is always
// signal order; duplicates are ignored.
func WithStages(kinds ...StageKind) BuildOption {
	return func(cfg *buildConfig) {
		cfg.stages = kinds
	}
}

// WithNoiseSource sets the random source used for reverb impulses.
func WithNoiseSource(rng *rand.Rand) BuildOption {
	return func(cfg *buildConfig) {
		if rng != nil {
			cfg.rng = rng
		}
	}
}

type stageFactory func(ctx *graph.Context, g *SignalGraph) (stage, error)

var stageFactories = [numStages]stageFactory{
	StageWah:        newWahStage,
	StageDistortion: newDistortionStage,
	StageTremolo:    newTremoloStage,
	StageEQ:         newEQStage,
	StagePhaser:     newPhaserStage,
	StageChorus:     newChorusStage,
	StageDelay:      newDelayStage,
	StageReverb:     newReverbStage,
	StageCompressor: newCompressorStage,
}

// BuildSignalGraph constructs the effect chain in ctx and connects it to
// the destination.
func BuildSignalGraph(ctx *graph.Context, opts ...BuildOption) (*SignalGraph, error) {
	cfg := buildConfig{stages: AllStages()}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	if cfg.rng == nil {
		cfg.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}

	var want [numStages]bool
	for _, k := range cfg.stages {
		if k < 0 || k >= numStages {
			return nil, fmt.Errorf("synth: unknown stage %d", int(k))
		}
		want[k] = true
	}

	g := &SignalGraph{
		ctx:    ctx,
		rng:    cfg.rng,
		master: ctx.NewGain(DefaultSettings().Volume),
	}
	for k := range numStages {
		if !want[k] {
			continue
		}
		st, err := stageFactories[k](ctx, g)
		if err != nil {
			return nil, fmt.Errorf("synth: build %s stage: %w", k, err)
		}
		g.stages = append(g.stages, st)
	}

	var prev *graph.Gain
	for _, st := range g.stages {
		e := st.effect()
		if prev == nil {
			g.entry = e.In
		} else {
			prev.Connect(e.In)
		}
		prev = e.Out
	}
	if prev == nil {
		g.entry = g.master
	} else {
		prev.Connect(g.master)
	}
	g.master.Connect(ctx.Destination())
	return g, nil
}

// Context returns the graph's audio context.
func (g *SignalGraph) Context() *graph.Context { return g.ctx }

// Entry returns the node voices connect to.
func (g *SignalGraph) Entry() *graph.Gain { return g.entry }

// Master returns the output gain.
func (g *SignalGraph) Master() *graph.Gain { return g.master }

// Stage returns the stage of kind k, or nil when the graph lacks it.
func (g *SignalGraph) Stage(k StageKind) *EffectStage {
	for _, st := range g.stages {
		if e := st.effect(); e.Kind == k {
			return e
		}
	}
	return nil
}

// Stages returns the kinds present, in signal order.
func (g *SignalGraph) Stages() []StageKind {
	out := make([]StageKind, len(g.stages))
	for i, st := range g.stages {
		out[i] = st.effect().Kind
	}
	return out
}

// SetReverbTime regenerates the reverb impulse response. It is a no-op
// when the graph has no reverb.
func (g *SignalGraph) SetReverbTime(seconds float64) error {
	if g.reverb == nil {
		return nil
	}
	return g.reverb.setTime(seconds, g.rng)
}

// SetReverbImpulse installs a recorded impulse response (one or two
// channels at the context sample rate) in place of the generated one.
func (g *SignalGraph) SetReverbImpulse(channels [][]float64) error {
	if g.reverb == nil {
		return nil
	}
	return g.reverb.conv.SetBuffer(channels)
}

type wahStage struct {
	*EffectStage
	filter *graph.BiquadFilter
	lfo    lfo
}

func newWahStage(ctx *graph.Context, _ *SignalGraph) (stage, error) {
	st := &wahStage{
		EffectStage: newEffectStage(ctx, StageWah),
		filter:      ctx.NewBiquadFilter(graph.Bandpass),
	}
	var err error
	if st.lfo, err = newLFO(ctx, DefaultSettings().WahRate, st.filter.Frequency()); err != nil {
		return nil, err
	}
	st.route(st.filter, st.filter)
	return st, nil
}

type distortionStage struct {
	*EffectStage
	shaper *graph.WaveShaper
}

func newDistortionStage(ctx *graph.Context, _ *SignalGraph) (stage, error) {
	st := &distortionStage{
		EffectStage: newEffectStage(ctx, StageDistortion),
		shaper:      ctx.NewWaveShaper(),
	}
	if err := st.shaper.SetOversample(graph.Oversample4x); err != nil {
		return nil, err
	}
	st.shaper.SetCurve(shape.DistortionCurve(0, shape.DefaultCurveLength))
	st.route(st.shaper, st.shaper)
	return st, nil
}

type tremoloStage struct {
	*EffectStage
	vca *graph.Gain
	lfo lfo
}

func newTremoloStage(ctx *graph.Context, _ *SignalGraph) (stage, error) {
	st := &tremoloStage{
		EffectStage: newEffectStage(ctx, StageTremolo),
		vca:         ctx.NewGain(1),
	}
	var err error
	if st.lfo, err = newLFO(ctx, DefaultSettings().TremoloRate, st.vca.Gain()); err != nil {
		return nil, err
	}
	st.route(st.vca, st.vca)
	return st, nil
}

type eqStage struct {
	*EffectStage
	low, mid, high *graph.BiquadFilter
}

func newEQStage(ctx *graph.Context, _ *SignalGraph) (stage, error) {
	st := &eqStage{
		EffectStage: newEffectStage(ctx, StageEQ),
		low:         ctx.NewBiquadFilter(graph.Lowshelf),
		mid:         ctx.NewBiquadFilter(graph.Peaking),
		high:        ctx.NewBiquadFilter(graph.Highshelf),
	}
	st.low.Frequency().SetDefault(eqLowFrequency)
	st.mid.Frequency().SetDefault(eqMidFrequency)
	st.mid.Q().SetDefault(1)
	st.high.Frequency().SetDefault(eqHighFrequency)
	st.low.Connect(st.mid)
	st.mid.Connect(st.high)
	st.route(st.low, st.high)
	return st, nil
}

type phaserStage struct {
	*EffectStage
	allpass  [phaserStages]*graph.BiquadFilter
	feedback *graph.Gain
	loop     *graph.Delay
	lfo      lfo
}

func newPhaserStage(ctx *graph.Context, _ *SignalGraph) (stage, error) {
	st := &phaserStage{
		EffectStage: newEffectStage(ctx, StagePhaser),
		feedback:    ctx.NewGain(0),
	}
	freqs := make([]*graph.Param, 0, phaserStages)
	for i := range st.allpass {
		st.allpass[i] = ctx.NewBiquadFilter(graph.Allpass)
		freqs = append(freqs, st.allpass[i].Frequency())
		if i > 0 {
			st.allpass[i-1].Connect(st.allpass[i])
		}
	}

	// The loop delay holds one render quantum, the shortest a cycle allows.
	quantum := float64(graph.RenderQuantum) / ctx.SampleRate()
	loop, err := ctx.NewDelay(quantum)
	if err != nil {
		return nil, err
	}
	loop.DelayTime().SetDefault(quantum)
	st.loop = loop

	last := st.allpass[phaserStages-1]
	last.Connect(st.feedback)
	st.feedback.Connect(st.loop)
	st.loop.Connect(st.allpass[0])

	if st.lfo, err = newLFO(ctx, DefaultSettings().PhaserRate, freqs...); err != nil {
		return nil, err
	}
	st.route(st.allpass[0], last)
	return st, nil
}

type chorusStage struct {
	*EffectStage
	line *graph.Delay
	lfo  lfo
}

func newChorusStage(ctx *graph.Context, _ *SignalGraph) (stage, error) {
	line, err := ctx.NewDelay(chorusMaxDelay)
	if err != nil {
		return nil, err
	}
	line.DelayTime().SetDefault(chorusBaseDelay)
	st := &chorusStage{EffectStage: newEffectStage(ctx, StageChorus), line: line}
	if st.lfo, err = newLFO(ctx, DefaultSettings().ChorusRate, line.DelayTime()); err != nil {
		return nil, err
	}
	st.route(line, line)
	return st, nil
}

type delayStage struct {
	*EffectStage
	line     *graph.Delay
	feedback *graph.Gain
}

func newDelayStage(ctx *graph.Context, _ *SignalGraph) (stage, error) {
	line, err := ctx.NewDelay(maxDelaySeconds)
	if err != nil {
		return nil, err
	}
	st := &delayStage{
		EffectStage: newEffectStage(ctx, StageDelay),
		line:        line,
		feedback:    ctx.NewGain(0),
	}
	line.Connect(st.feedback)
	st.feedback.Connect(line)
	st.route(line, line)
	return st, nil
}

type reverbStage struct {
	*EffectStage
	conv *graph.Convolver
	time float64
}

func newReverbStage(ctx *graph.Context, g *SignalGraph) (stage, error) {
	st := &reverbStage{
		EffectStage: newEffectStage(ctx, StageReverb),
		conv:        ctx.NewConvolver(),
	}
	if err := st.setTime(defaultReverbTime, g.rng); err != nil {
		return nil, err
	}
	st.route(st.conv, st.conv)
	g.reverb = st
	return st, nil
}

func (st *reverbStage) setTime(seconds float64, rng *rand.Rand) error {
	if !(seconds > 0) {
		return fmt.Errorf("%w: reverb time must be > 0, got %g", ErrInvalidSettings, seconds)
	}
	if seconds > MaxReverbTime {
		return fmt.Errorf("%w: reverb time must be <= %g, got %g", ErrInvalidSettings, MaxReverbTime, seconds)
	}
	ir := shape.NoiseImpulse(st.conv.Context().SampleRate(), seconds, rng)
	if err := st.conv.SetBuffer(ir); err != nil {
		return err
	}
	st.time = seconds
	return nil
}

type compressorStage struct {
	*EffectStage
	comp *graph.Compressor
}

func newCompressorStage(ctx *graph.Context, _ *SignalGraph) (stage, error) {
	comp, err := ctx.NewCompressor()
	if err != nil {
		return nil, err
	}
	st := &compressorStage{
		EffectStage: newEffectStage(ctx, StageCompressor),
		comp:        comp,
	}
	st.route(st.comp, st.comp)
	return st, nil
}
