package synth

import (
	"log/slog"

	"github.com/cwbudde/algo-synth/dsp/graph"
)

const (
	// envelopeFloor is the lowest target of exponential envelope ramps.
	envelopeFloor = 0.001
	// forcedRelease replaces the release time when a voice is cut.
	forcedRelease = 0.05
	// stopGuard keeps the oscillator running past the end of the release ramp.
	stopGuard = 0.1
	// legatoTime is the glide time constant of mono legato.
	legatoTime = 0.005
)

// Handle identifies a voice. The zero Handle is never assigned.
type Handle uint64

// VoiceState is the lifecycle state of a voice.
type VoiceState int

const (
	VoiceIdle VoiceState = iota
	VoiceSounding
	VoiceReleasing
	VoiceDisposed
)

func (s VoiceState) String() string {
	switch s {
	case VoiceIdle:
		return "idle"
	case VoiceSounding:
		return "sounding"
	case VoiceReleasing:
		return "releasing"
	case VoiceDisposed:
		return "disposed"
	default:
		return "unknown"
	}
}

type voice struct {
	id     Handle
	note   string
	state  VoiceState
	osc    *graph.Oscillator
	filter *graph.StateVariableFilter
	env    *graph.Gain
}

// VoiceInfo is a snapshot of one voice at the current audio time.
type VoiceInfo struct {
	Handle    Handle
	Note      string
	State     VoiceState
	Frequency float64
	Detune    float64
	Envelope  float64
}

// VoiceManager creates, glides, releases and disposes voices feeding the
// entry node of a signal graph.
type VoiceManager struct {
	ctx    *graph.Context
	entry  graph.AudioNode
	logger *slog.Logger

	settings Settings
	scale    ScaleDetune

	voices map[Handle]*voice
	next   Handle
	mono   Handle

	// lastMono is the newest mono voice, kept through its release until
	// disposal so the next mono voice can cut its tail.
	lastMono Handle
}

// NewVoiceManager returns a manager connecting voices to entry.
func NewVoiceManager(ctx *graph.Context, entry graph.AudioNode, logger *slog.Logger) *VoiceManager {
	if logger == nil {
		logger = slog.Default()
	}
	return &VoiceManager{
		ctx:      ctx,
		entry:    entry,
		logger:   logger,
		settings: DefaultSettings(),
		scale:    ScaleDetune{},
		voices:   make(map[Handle]*voice),
	}
}

// Update replaces the voice settings. Leaving mono mode, or entering it,
// cuts the mono voice.
func (m *VoiceManager) Update(s Settings) {
	if s.Poly != m.settings.Poly && m.mono != 0 {
		m.StopNote(m.mono, true)
		m.mono = 0
	}
	if s.Poly != m.settings.Poly {
		m.lastMono = 0
	}
	m.settings = s
}

// SetScale sets the detune map read at voice creation and legato glides.
// The map is shared, not copied.
func (m *VoiceManager) SetScale(scale ScaleDetune) {
	if scale == nil {
		scale = ScaleDetune{}
	}
	m.scale = scale
}

// PlayNote starts a note and returns its voice. In mono mode a sounding
// mono voice glides to the new pitch and keeps its handle. It returns 0
// when the voice cannot be created.
func (m *VoiceManager) PlayNote(freq float64, note string) Handle {
	now := m.ctx.CurrentTime()
	detune := m.scale.Detune(note)

	if !m.settings.Poly {
		if v := m.voices[m.mono]; v != nil && v.state == VoiceSounding {
			v.osc.Frequency().SetTarget(freq, now, legatoTime)
			v.osc.Detune().SetTarget(detune, now, legatoTime)
			v.note = note
			return v.id
		}
	}

	v, err := m.newVoice(freq, detune, note, now)
	if err != nil {
		m.logger.Warn("synth: voice not created", "note", note, "error", err)
		return 0
	}

	if !m.settings.Poly {
		if m.lastMono != 0 {
			m.StopNote(m.lastMono, true)
		}
		m.mono = v.id
		m.lastMono = v.id
	}
	return v.id
}

func (m *VoiceManager) newVoice(freq, detune float64, note string, now float64) (*voice, error) {
	s := m.settings
	w, err := graph.ParseWaveform(s.Waveform)
	if err != nil {
		return nil, err
	}

	m.next++
	v := &voice{
		id:     m.next,
		note:   note,
		state:  VoiceIdle,
		osc:    m.ctx.NewOscillator(w),
		filter: m.ctx.NewStateVariableFilter(),
		env:    m.ctx.NewGain(0),
	}
	v.osc.Frequency().SetImmediate(freq, now)
	v.osc.Detune().SetImmediate(detune, now)
	v.filter.Cutoff().SetImmediate(s.Cutoff, now)
	v.filter.Resonance().SetImmediate(s.Resonance, now)

	v.osc.Connect(v.filter)
	v.filter.Connect(v.env)
	v.env.Connect(m.entry)

	env := v.env.Gain()
	env.SetImmediate(0, now)
	env.RampLinear(1, now+s.Attack)
	env.RampExponential(max(envelopeFloor, s.Sustain), now+s.Attack+s.Decay)

	v.osc.OnEnded(func() { m.dispose(v) })
	if err := v.osc.Start(now); err != nil {
		m.dispose(v)
		return nil, err
	}
	v.state = VoiceSounding
	m.voices[v.id] = v
	return v, nil
}

// StopNote releases a voice. forceImmediate uses a short fixed release.
// Unknown, ended and disposed voices are ignored.
func (m *VoiceManager) StopNote(h Handle, forceImmediate bool) {
	v := m.voices[h]
	if v == nil || v.state == VoiceDisposed || v.osc.Ended() {
		return
	}
	now := m.ctx.CurrentTime()
	release := m.settings.Release
	if forceImmediate {
		release = forcedRelease
	}

	env := v.env.Gain()
	current := env.ValueAt(now)
	env.CancelFrom(now)
	env.SetImmediate(current, now)
	env.RampExponential(envelopeFloor, now+release)

	if err := v.osc.Stop(now + release + stopGuard); err != nil {
		m.logger.Debug("synth: voice stop ignored", "voice", h, "error", err)
	}
	v.state = VoiceReleasing
	if m.mono == h {
		m.mono = 0
	}
}

// StopAll force-releases every live voice.
func (m *VoiceManager) StopAll() {
	for h := range m.voices {
		m.StopNote(h, true)
	}
}

func (m *VoiceManager) dispose(v *voice) {
	if v.state == VoiceDisposed {
		return
	}
	v.osc.Disconnect()
	v.filter.Disconnect()
	v.env.Disconnect()
	v.state = VoiceDisposed
	delete(m.voices, v.id)
	if m.mono == v.id {
		m.mono = 0
	}
	if m.lastMono == v.id {
		m.lastMono = 0
	}
}

// ActiveVoices reports the number of voices not yet disposed.
func (m *VoiceManager) ActiveVoices() int {
	return len(m.voices)
}

// Voice returns a snapshot of voice h.
func (m *VoiceManager) Voice(h Handle) (VoiceInfo, bool) {
	v := m.voices[h]
	if v == nil {
		return VoiceInfo{}, false
	}
	now := m.ctx.CurrentTime()
	return VoiceInfo{
		Handle:    v.id,
		Note:      v.note,
		State:     v.state,
		Frequency: v.osc.Frequency().ValueAt(now),
		Detune:    v.osc.Detune().ValueAt(now),
		Envelope:  v.env.Gain().ValueAt(now),
	}, true
}

// Mono returns the voice governing mono mode, or 0.
func (m *VoiceManager) Mono() Handle { return m.mono }
