package audio

import (
	"math"
	"sync"
)

type eventKind uint8

const (
	eventSet eventKind = iota
	eventLinear
	eventExponential
)

type paramEvent struct {
	kind  eventKind
	time  float64 // seconds on the owning timeline
	value float64
}

// Param is an automatable value: a time-ordered list of set/ramp events
// evaluated by the render goroutine and programmed by the control goroutine
type Param struct {
	mu      sync.Mutex
	initial float64
	events  []paramEvent
}

// NewParam creates a param holding value until the first event
func NewParam(value float64) *Param {
	return &Param{initial: value}
}

// SetValueAtTime jumps to value at t
func (p *Param) SetValueAtTime(value, t float64) {
	p.mu.Lock()
	p.insert(paramEvent{kind: eventSet, time: t, value: value})
	p.mu.Unlock()
}

// LinearRampToValueAtTime glides linearly from the previous event to value at t
func (p *Param) LinearRampToValueAtTime(value, t float64) {
	p.mu.Lock()
	p.insert(paramEvent{kind: eventLinear, time: t, value: value})
	p.mu.Unlock()
}

// ExponentialRampToValueAtTime glides geometrically from the previous event to value at t
func (p *Param) ExponentialRampToValueAtTime(value, t float64) error {
	if !(value > 0) {
		return ErrNonPositiveTarget
	}
	p.mu.Lock()
	p.insert(paramEvent{kind: eventExponential, time: t, value: value})
	p.mu.Unlock()
	return nil
}

// CancelScheduledValues drops every event at or after t
func (p *Param) CancelScheduledValues(t float64) {
	p.mu.Lock()
	p.truncate(t)
	p.mu.Unlock()
}

// CancelAndHoldAtTime drops events at or after t and freezes the value the curve had at t
func (p *Param) CancelAndHoldAtTime(t float64) {
	p.mu.Lock()
	v := p.valueAt(t)
	p.truncate(t)
	p.insert(paramEvent{kind: eventSet, time: t, value: v})
	p.mu.Unlock()
}

// RampTo holds the current value at now and glides linearly to value over duration
func (p *Param) RampTo(value, now, duration float64) {
	p.mu.Lock()
	v := p.valueAt(now)
	p.truncate(now)
	p.insert(paramEvent{kind: eventSet, time: now, value: v})
	p.insert(paramEvent{kind: eventLinear, time: now + duration, value: value})
	p.mu.Unlock()
}

// ValueAt evaluates the curve at t
func (p *Param) ValueAt(t float64) float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.valueAt(t)
}

// Fill evaluates the curve at start, start+step, ... into out
// Events entirely in the past of start collapse into one anchor
func (p *Param) Fill(start, step float64, out []float64) {
	p.mu.Lock()
	p.prune(start)
	if len(p.events) == 0 {
		for i := range out {
			out[i] = p.initial
		}
	} else {
		for i := range out {
			out[i] = p.valueAt(start + float64(i)*step)
		}
	}
	p.mu.Unlock()
}

// insert keeps events ordered; equal times keep insertion order
func (p *Param) insert(ev paramEvent) {
	i := len(p.events)
	for i > 0 && p.events[i-1].time > ev.time {
		i--
	}
	p.events = append(p.events, paramEvent{})
	copy(p.events[i+1:], p.events[i:])
	p.events[i] = ev
}

func (p *Param) truncate(t float64) {
	i := 0
	for i < len(p.events) && p.events[i].time < t {
		i++
	}
	p.events = p.events[:i]
}

func (p *Param) prune(t float64) {
	k := -1
	for i, ev := range p.events {
		if ev.time > t {
			break
		}
		k = i
	}
	if k < 1 {
		return
	}
	p.events[k].kind = eventSet
	n := copy(p.events, p.events[k:])
	p.events = p.events[:n]
}

func (p *Param) valueAt(t float64) float64 {
	prevTime, prevValue := 0.0, p.initial
	for _, ev := range p.events {
		if t < ev.time {
			switch ev.kind {
			case eventLinear:
				span := ev.time - prevTime
				if span <= 0 {
					return ev.value
				}
				frac := (t - prevTime) / span
				if frac < 0 {
					return prevValue
				}
				return prevValue + (ev.value-prevValue)*frac
			case eventExponential:
				span := ev.time - prevTime
				// No geometric path from zero or across a sign change
				if span <= 0 || prevValue == 0 || prevValue*ev.value < 0 {
					return prevValue
				}
				frac := (t - prevTime) / span
				if frac < 0 {
					return prevValue
				}
				return prevValue * math.Pow(ev.value/prevValue, frac)
			default:
				return prevValue
			}
		}
		prevTime, prevValue = ev.time, ev.value
	}
	return prevValue
}
