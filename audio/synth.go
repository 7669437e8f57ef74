package audio

import (
	"fmt"
	"math"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/generators"

	"github.com/lixenwraith/soundscape/parameter"
	"github.com/lixenwraith/soundscape/theme"
)

// NoteEvent is one scheduled note
type NoteEvent struct {
	Frequency float64 // Hz
	Timbre    theme.Timbre
	Decay     float64 // seconds
	Filter    float64 // Hz, wood lowpass cutoff; 0 = default
	Start     float64 // seconds on the context timeline
}

// Synthesize builds one self-terminating voice for ev and routes it into g
// Holds no state between calls
func Synthesize(g *Graph, ev NoteEvent) error {
	v, err := newVoice(ev, g.ctx.SampleRate())
	if err != nil {
		return err
	}
	return g.addVoice(v)
}

// voice is a source shaped by an amplitude curve on its own timeline:
// the first rendered frame is ev.Start, the last precedes stop
type voice struct {
	source beep.Streamer
	filter *lowpass
	amp    *Param

	start, stop float64
	step        float64
	pos         int
	env         []float64
}

func newVoice(ev NoteEvent, rate beep.SampleRate) (*voice, error) {
	nyquist := float64(rate) / 2
	if !(ev.Frequency > 0) || ev.Frequency >= nyquist {
		return nil, fmt.Errorf("%w: %v Hz", ErrFrequencyRange, ev.Frequency)
	}

	decay := ev.Decay
	if ev.Timbre == theme.Pad {
		decay = math.Max(decay, parameter.PadAttack+parameter.NoteAttack)
	} else {
		decay = math.Max(decay, 2*parameter.NoteAttack)
	}

	v := &voice{
		amp:   NewParam(0),
		start: ev.Start,
		stop:  ev.Start + decay + parameter.NoteStopPadding,
		step:  1 / float64(rate),
	}

	var err error
	switch ev.Timbre {
	case theme.Bell:
		v.source, err = newBellSource(ev, decay, rate)
	case theme.Wood:
		v.source = newTriangle(ev.Frequency, rate)
		cutoff := ev.Filter
		if cutoff <= 0 {
			cutoff = parameter.WoodCutoff
		}
		v.filter = newLowpass(cutoff, parameter.LowpassQ, rate)
	case theme.Pad:
		v.source = newTriangle(ev.Frequency, rate)
	default:
		v.source, err = generators.SineTone(rate, ev.Frequency)
	}
	if err != nil {
		return nil, fmt.Errorf("%s voice at %v Hz: %w", ev.Timbre, ev.Frequency, err)
	}

	if ev.Timbre == theme.Pad {
		v.amp.SetValueAtTime(0, ev.Start)
		v.amp.LinearRampToValueAtTime(parameter.PadPeak, ev.Start+parameter.PadAttack)
		v.amp.LinearRampToValueAtTime(0, ev.Start+decay)
		return v, nil
	}

	v.amp.SetValueAtTime(0, ev.Start)
	v.amp.LinearRampToValueAtTime(parameter.NotePeak, ev.Start+parameter.NoteAttack)
	if err := v.amp.ExponentialRampToValueAtTime(parameter.NoteFloor, ev.Start+decay); err != nil {
		return nil, err
	}
	return v, nil
}

// newBellSource is a sine carrier frequency-modulated at a non-integer ratio,
// with modulation depth decaying from half the carrier to near zero
func newBellSource(ev NoteEvent, decay float64, rate beep.SampleRate) (beep.Streamer, error) {
	// Lower output rates fold the modulator just under Nyquist
	modFreq := math.Min(ev.Frequency*parameter.BellModRatio, 0.49*float64(rate))
	mod, err := generators.SineTone(rate, modFreq)
	if err != nil {
		return nil, err
	}

	depth := NewParam(0)
	depth.SetValueAtTime(ev.Frequency*parameter.BellModDepth, ev.Start)
	if err := depth.ExponentialRampToValueAtTime(parameter.BellModFloor, ev.Start+decay); err != nil {
		return nil, err
	}

	return &fmCarrier{
		freq:  ev.Frequency,
		rate:  float64(rate),
		mod:   mod,
		depth: depth,
		start: ev.Start,
	}, nil
}

func (v *voice) Stream(samples [][2]float64) (int, bool) {
	t0 := v.start + float64(v.pos)*v.step
	if t0 >= v.stop {
		return 0, false
	}

	n := len(samples)
	if left := int(math.Ceil((v.stop - t0) / v.step)); left < n {
		n = left
	}

	n, ok := v.source.Stream(samples[:n])
	if !ok || n == 0 {
		return 0, false
	}

	if v.filter != nil {
		v.filter.process(samples[:n])
	}

	if cap(v.env) < n {
		v.env = make([]float64, n)
	}
	env := v.env[:n]
	v.amp.Fill(t0, v.step, env)
	for i, e := range env {
		samples[i][0] *= e
		samples[i][1] *= e
	}

	v.pos += n
	return n, true
}

func (v *voice) Err() error {
	return v.source.Err()
}
