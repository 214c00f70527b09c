// Package param implements sample-accurate parameter automation.
//
// A Timeline holds a sorted list of scheduled events (set, linear ramp,
// exponential ramp, exponential approach) and evaluates the resulting
// curve at arbitrary times. Events that lie fully in the past are folded
// into a single anchor so evaluation stays cheap on long-running params.
package param

import (
	"math"
	"sort"
)

type eventKind int

const (
	kindSet eventKind = iota
	kindLinear
	kindExponential
	kindTarget
)

type event struct {
	kind   eventKind
	time   float64
	value  float64
	tau    float64
	anchor bool
}

// Automation is the scheduling surface shared by every automatable value.
type Automation interface {
	SetImmediate(value, at float64)
	RampLinear(value, at float64)
	RampExponential(value, at float64)
	CancelFrom(t float64)
}

// Timeline is an automation curve with an intrinsic default value.
//
// Timeline is not safe for concurrent use.
type Timeline struct {
	defaultValue float64
	min, max     float64
	events       []event
}

var _ Automation = (*Timeline)(nil)

// NewTimeline returns a timeline holding defaultValue until events are scheduled.
func NewTimeline(defaultValue float64) *Timeline {
	return &Timeline{
		defaultValue: defaultValue,
		min:          math.Inf(-1),
		max:          math.Inf(1),
	}
}

// SetRange clamps every evaluated value to [lo, hi].
func (tl *Timeline) SetRange(lo, hi float64) {
	if lo > hi {
		lo, hi = hi, lo
	}
	tl.min, tl.max = lo, hi
}

// Default returns the value used before the first event.
func (tl *Timeline) Default() float64 {
	return tl.defaultValue
}

// SetDefault replaces the intrinsic value. Scheduled events are unaffected.
func (tl *Timeline) SetDefault(v float64) {
	tl.defaultValue = v
}

// Len reports the number of pending events, anchors included.
func (tl *Timeline) Len() int {
	return len(tl.events)
}

// SetImmediate holds value from time at onwards.
func (tl *Timeline) SetImmediate(value, at float64) {
	tl.insert(event{kind: kindSet, time: at, value: value})
}

// RampLinear ramps linearly from the previous event to value, arriving at time at.
func (tl *Timeline) RampLinear(value, at float64) {
	tl.insert(event{kind: kindLinear, time: at, value: value})
}

// RampExponential ramps geometrically from the previous event to value,
// arriving at time at. The ramp degenerates to a step at its end time when
// either end point is zero or the end points differ in sign.
func (tl *Timeline) RampExponential(value, at float64) {
	tl.insert(event{kind: kindExponential, time: at, value: value})
}

// SetTarget starts an exponential approach to target at time at with the
// given time constant in seconds. A non-positive time constant acts as a set.
func (tl *Timeline) SetTarget(target, at, timeConstant float64) {
	if timeConstant <= 0 {
		tl.SetImmediate(target, at)
		return
	}
	tl.insert(event{kind: kindTarget, time: at, value: target, tau: timeConstant})
}

// CancelFrom removes every scheduled event at or after t.
func (tl *Timeline) CancelFrom(t float64) {
	kept := tl.events[:0]
	for _, e := range tl.events {
		if e.time < t || e.anchor {
			kept = append(kept, e)
		}
	}
	clear(tl.events[len(kept):])
	tl.events = kept
}

func (tl *Timeline) insert(e event) {
	if math.IsNaN(e.time) || math.IsNaN(e.value) {
		return
	}
	// Equal times keep insertion order.
	i := sort.Search(len(tl.events), func(i int) bool {
		return tl.events[i].time > e.time
	})
	tl.events = append(tl.events, event{})
	copy(tl.events[i+1:], tl.events[i:])
	tl.events[i] = e
}

// ValueAt evaluates the curve at time t without modifying the timeline.
func (tl *Timeline) ValueAt(t float64) float64 {
	return tl.clamp(tl.eval(tl.events, t))
}

func (tl *Timeline) eval(events []event, t float64) float64 {
	v := tl.defaultValue
	prevTime := 0.0
	target := false
	var tgt event
	var tgtStart float64

	for _, e := range events {
		if e.time > t {
			if target {
				v = approachAt(tgt, tgtStart, t)
				target = false
			}
			switch e.kind {
			case kindLinear:
				return linearAt(prevTime, v, e.time, e.value, t)
			case kindExponential:
				return exponentialAt(prevTime, v, e.time, e.value, t)
			}
			return v
		}

		if target {
			// A running approach is cut off by the next reached event.
			v = approachAt(tgt, tgtStart, e.time)
			target = false
		}

		switch e.kind {
		case kindTarget:
			target = true
			tgt = e
			tgtStart = v
		default:
			v = e.value
		}
		prevTime = e.time
	}

	if target {
		return approachAt(tgt, tgtStart, t)
	}
	return v
}

// fold collapses every event that no longer influences values at or after
// t into one anchor at the time of the last reached event.
func (tl *Timeline) fold(t float64) {
	k := -1
	for i, e := range tl.events {
		if e.time > t {
			break
		}
		k = i
	}
	if k <= 0 {
		return
	}
	last := tl.events[k]
	start := tl.eval(tl.events[:k], last.time)
	if last.kind != kindTarget {
		start = last.value
		last = event{kind: kindSet, time: last.time, value: start, anchor: true}
		n := copy(tl.events, tl.events[k:])
		tl.events[0] = last
		clear(tl.events[n:])
		tl.events = tl.events[:n]
		return
	}
	tl.events[k-1] = event{kind: kindSet, time: last.time, value: start, anchor: true}
	n := copy(tl.events, tl.events[k-1:])
	clear(tl.events[n:])
	tl.events = tl.events[:n]
}

// Static reports whether the curve is constant from t on, returning that value.
func (tl *Timeline) Static(t float64) (float64, bool) {
	tl.fold(t)
	for _, e := range tl.events {
		if e.time > t || e.kind == kindTarget {
			return 0, false
		}
	}
	return tl.ValueAt(t), true
}

// Fill writes the curve sampled at t0, t0+dt, ... into dst.
func (tl *Timeline) Fill(dst []float64, t0, dt float64) {
	if v, ok := tl.Static(t0); ok {
		for i := range dst {
			dst[i] = v
		}
		return
	}
	for i := range dst {
		dst[i] = tl.ValueAt(t0 + float64(i)*dt)
	}
}

func (tl *Timeline) clamp(v float64) float64 {
	if v < tl.min {
		return tl.min
	}
	if v > tl.max {
		return tl.max
	}
	return v
}

func linearAt(t0, v0, t1, v1, t float64) float64 {
	if t1 <= t0 {
		return v1
	}
	return v0 + (v1-v0)*(t-t0)/(t1-t0)
}

func exponentialAt(t0, v0, t1, v1, t float64) float64 {
	if t1 <= t0 {
		return v1
	}
	if v0 == 0 || v1 == 0 || (v0 < 0) != (v1 < 0) {
		return v0
	}
	return v0 * mathPow(v1/v0, (t-t0)/(t1-t0))
}

func approachAt(e event, start, t float64) float64 {
	if t <= e.time {
		return start
	}
	return e.value + (start-e.value)*mathExp(-(t-e.time)/e.tau)
}
