package audio

import (
	"sync/atomic"
	"time"

	"github.com/gopxl/beep"

	"github.com/lixenwraith/soundscape/parameter"
	"github.com/lixenwraith/soundscape/theme"
)

// Graph is the per-session processing chain:
//
//	voices -> master gain -+-> compressor -> destination
//	                       |       ^
//	                       +-> delay (wet) <-> feedback
//
// Feedback stays below 1 so the loop decays geometrically
type Graph struct {
	ctx *Context

	// Automated parameters, on the context timeline
	Master    *Param // gain, starts silent
	DelayTime *Param // seconds
	Feedback  *Param // 0 <= f < 1

	// Render-side state, guarded by ctx.mu
	input   beep.Mixer
	frame   int64 // context frame of the next rendered sample
	comp    *compressor
	delay   *delayLine
	gain    []float64
	delayDt []float64
	fb      []float64

	closed atomic.Bool
}

// BuildGraph creates a session chain tuned to initial and connects it to ctx
func BuildGraph(ctx *Context, initial theme.Theme) (*Graph, error) {
	rate := ctx.SampleRate()
	g := &Graph{
		ctx:       ctx,
		Master:    NewParam(0),
		DelayTime: NewParam(clampDelay(initial.DelayTime)),
		Feedback:  NewParam(clampFeedback(initial.Feedback)),
		comp: newCompressor(
			parameter.CompressorThresholdDB,
			parameter.CompressorKneeDB,
			parameter.CompressorRatio,
			parameter.CompressorAttack,
			parameter.CompressorRelease,
			rate,
		),
		delay: newDelayLine(parameter.MaxDelayTime, rate),
	}

	if err := ctx.connect(g); err != nil {
		return nil, err
	}
	return g, nil
}

// Now returns the context clock
func (g *Graph) Now() float64 {
	return g.ctx.CurrentTime()
}

// RampEffectParams glides delay time and feedback to th's values over seconds
func (g *Graph) RampEffectParams(th theme.Theme, seconds float64) {
	now := g.ctx.CurrentTime()
	g.DelayTime.RampTo(clampDelay(th.DelayTime), now, seconds)
	g.Feedback.RampTo(clampFeedback(th.Feedback), now, seconds)
}

// FadeIn ramps the master gain from its current level to target
func (g *Graph) FadeIn(target, seconds float64) {
	g.Master.RampTo(target, g.ctx.CurrentTime(), seconds)
}

// FadeOut cancels pending master automation and ramps to silence
func (g *Graph) FadeOut(seconds float64) {
	g.Master.RampTo(0, g.ctx.CurrentTime(), seconds)
}

// MasterLevel returns the master gain at the current context time
func (g *Graph) MasterLevel() float64 {
	return g.Master.ValueAt(g.ctx.CurrentTime())
}

// Voices returns the number of sounding notes
func (g *Graph) Voices() int {
	g.ctx.mu.Lock()
	defer g.ctx.mu.Unlock()
	return g.input.Len()
}

// Disconnect removes the graph from the destination on the next render
func (g *Graph) Disconnect() {
	g.closed.Store(true)
}

// Connected reports whether the graph still feeds the destination
func (g *Graph) Connected() bool {
	return !g.closed.Load() && g.ctx.State() != StateClosed
}

// Trigger synthesizes ev into the graph
func (g *Graph) Trigger(ev NoteEvent) error {
	return Synthesize(g, ev)
}

func (g *Graph) addVoice(v *voice) error {
	if !g.Connected() {
		return ErrContextClosed
	}
	g.ctx.mu.Lock()
	g.input.Add(v)
	g.ctx.mu.Unlock()
	return nil
}

// Stream renders one buffer; called by the context under ctx.mu
func (g *Graph) Stream(samples [][2]float64) (int, bool) {
	if g.closed.Load() {
		g.input.Clear()
		return 0, false
	}

	n := len(samples)
	if cap(g.gain) < n {
		g.gain = make([]float64, n)
		g.delayDt = make([]float64, n)
		g.fb = make([]float64, n)
	}
	gain, delayDt, fb := g.gain[:n], g.delayDt[:n], g.fb[:n]

	g.input.Stream(samples)

	// The destination mixer may hand over a block in several chunks, so the
	// timeline comes from the graph's own frame count
	sr := float64(g.ctx.SampleRate())
	start := float64(g.frame) / sr
	step := 1 / sr
	g.frame += int64(n)
	g.Master.Fill(start, step, gain)
	g.DelayTime.Fill(start, step, delayDt)
	g.Feedback.Fill(start, step, fb)

	for i := range samples {
		l := samples[i][0] * gain[i]
		r := samples[i][1] * gain[i]
		wl, wr := g.delay.process(l, r, delayDt[i]*sr, clampFeedback(fb[i]))
		samples[i][0], samples[i][1] = g.comp.process(l+wl, r+wr)
	}
	return n, true
}

func (g *Graph) Err() error { return nil }

func clampDelay(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > parameter.MaxDelayTime {
		return parameter.MaxDelayTime
	}
	return v
}

// clampFeedback keeps the loop gain strictly below unity
func clampFeedback(v float64) float64 {
	const ceiling = 0.99
	if v < 0 {
		return 0
	}
	if v > ceiling {
		return ceiling
	}
	return v
}

func secondsToDuration(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
