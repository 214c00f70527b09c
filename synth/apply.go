package synth

import (
	"github.com/cwbudde/algo-synth/dsp/graph"
	"github.com/cwbudde/algo-synth/dsp/shape"
)

// SmoothingTime is the time constant of click-prone parameter updates.
const SmoothingTime = 0.010

func set(p *graph.Param, v, now float64) {
	p.SetImmediate(v, now)
}

func smooth(p *graph.Param, v, now float64) {
	p.SetTarget(v, now, SmoothingTime)
}

// mix sets the stage balance: bypass is dry 1 / wet 0, enabled is
// dry 1-mix / wet mix.
func (e *EffectStage) mix(enabled bool, amount, now float64, update func(*graph.Param, float64, float64)) {
	if !enabled {
		amount = 0
	}
	update(e.Dry.Gain(), 1-amount, now)
	update(e.Wet.Gain(), amount, now)
}

// Apply pushes s onto every stage present in the graph. Topology is left
// untouched.
func (g *SignalGraph) Apply(s Settings) {
	now := g.ctx.CurrentTime()
	set(g.master.Gain(), s.Volume, now)
	for _, st := range g.stages {
		st.apply(&s, now)
	}
}

func (st *wahStage) apply(s *Settings, now float64) {
	set(st.lfo.osc.Frequency(), s.WahRate, now)
	set(st.filter.Frequency(), s.WahFreq, now)
	set(st.filter.Q(), s.WahQ, now)
	smooth(st.lfo.depth.Gain(), s.WahDepth*s.WahFreq, now)
	st.mix(s.WahEnabled, s.WahMix, now, smooth)
}

func (st *distortionStage) apply(s *Settings, now float64) {
	if s.DistEnabled {
		st.shaper.SetCurve(shape.DistortionCurve(s.DistDrive, shape.DefaultCurveLength))
	}
	st.mix(s.DistEnabled, s.DistMix, now, smooth)
}

func (st *tremoloStage) apply(s *Settings, now float64) {
	set(st.lfo.osc.Frequency(), s.TremoloRate, now)
	smooth(st.vca.Gain(), 1-s.TremoloDepth/2, now)
	smooth(st.lfo.depth.Gain(), s.TremoloDepth/2, now)
	st.mix(s.TremoloEnabled, 1, now, smooth)
}

func (st *eqStage) apply(s *Settings, now float64) {
	set(st.low.Gain(), s.EQLow, now)
	set(st.mid.Gain(), s.EQMid, now)
	set(st.high.Gain(), s.EQHigh, now)
	st.mix(s.EQEnabled, 1, now, set)
}

func (st *phaserStage) apply(s *Settings, now float64) {
	set(st.lfo.osc.Frequency(), s.PhaserRate, now)
	for _, ap := range st.allpass {
		set(ap.Frequency(), s.PhaserFreq, now)
	}
	set(st.feedback.Gain(), s.PhaserFeedback, now)
	smooth(st.lfo.depth.Gain(), s.PhaserDepth*s.PhaserFreq*phaserDepthScale, now)
	st.mix(s.PhaserEnabled, s.PhaserMix, now, smooth)
}

func (st *chorusStage) apply(s *Settings, now float64) {
	set(st.lfo.osc.Frequency(), s.ChorusRate, now)
	set(st.line.DelayTime(), chorusBaseDelay, now)
	smooth(st.lfo.depth.Gain(), s.ChorusDepth*chorusDepthScale, now)
	st.mix(s.ChorusEnabled, s.ChorusMix, now, smooth)
}

func (st *delayStage) apply(s *Settings, now float64) {
	set(st.line.DelayTime(), max(minDelaySeconds, s.DelayTime), now)
	set(st.feedback.Gain(), s.DelayFeedback, now)
	st.mix(s.DelayEnabled, s.DelayMix, now, set)
}

func (st *reverbStage) apply(s *Settings, now float64) {
	st.mix(s.ReverbEnabled, s.VerbMix, now, set)
}

func (st *compressorStage) apply(s *Settings, now float64) {
	smooth(st.comp.Threshold(), s.CompThreshold, now)
	smooth(st.comp.Knee(), s.CompKnee, now)
	smooth(st.comp.Ratio(), s.CompRatio, now)
	smooth(st.comp.Attack(), s.CompAttack, now)
	smooth(st.comp.Release(), s.CompRelease, now)
	st.mix(s.CompEnabled, 1, now, smooth)
}
