package audio

import (
	"math"

	"github.com/gopxl/beep"
)

// triangle is a phase-accumulator triangle oscillator starting at zero, rising
type triangle struct {
	phase float64
	inc   float64
}

func newTriangle(freq float64, rate beep.SampleRate) *triangle {
	return &triangle{inc: freq / float64(rate)}
}

func (o *triangle) Stream(samples [][2]float64) (n int, ok bool) {
	for i := range samples {
		val := 1 - 4*math.Abs(math.Mod(o.phase+0.25, 1)-0.5)
		samples[i][0] = val
		samples[i][1] = val

		o.phase += o.inc
		o.phase -= math.Floor(o.phase) // Keep in [0, 1)
	}
	return len(samples), true
}

func (o *triangle) Err() error { return nil }

// fmCarrier is a sine whose instantaneous frequency is offset by a modulator
// scaled by a depth curve (Hz), evaluated on the note timeline
type fmCarrier struct {
	freq  float64
	phase float64
	rate  float64

	mod   beep.Streamer
	depth *Param
	start float64
	pos   int

	modBuf   [][2]float64
	depthBuf []float64
}

func (c *fmCarrier) Stream(samples [][2]float64) (n int, ok bool) {
	n = len(samples)
	if cap(c.modBuf) < n {
		c.modBuf = make([][2]float64, n)
		c.depthBuf = make([]float64, n)
	}
	mod, depth := c.modBuf[:n], c.depthBuf[:n]

	if m, ok := c.mod.Stream(mod); !ok || m < n {
		return 0, false
	}
	c.depth.Fill(c.start+float64(c.pos)/c.rate, 1/c.rate, depth)

	for i := range samples {
		val := math.Sin(2 * math.Pi * c.phase)
		samples[i][0] = val
		samples[i][1] = val

		c.phase += (c.freq + depth[i]*mod[i][0]) / c.rate
		c.phase -= math.Floor(c.phase)
	}
	c.pos += n
	return n, true
}

func (c *fmCarrier) Err() error { return c.mod.Err() }

// lowpass is a stereo RBJ biquad lowpass, direct form I
type lowpass struct {
	b0, b1, b2, a1, a2 float64
	x1, x2, y1, y2     [2]float64
}

func newLowpass(cutoff, q float64, rate beep.SampleRate) *lowpass {
	nyquist := float64(rate) / 2
	if cutoff > nyquist*0.99 {
		cutoff = nyquist * 0.99
	}
	w0 := 2 * math.Pi * cutoff / float64(rate)
	alpha := math.Sin(w0) / (2 * q)
	cosw := math.Cos(w0)
	a0 := 1 + alpha

	return &lowpass{
		b0: (1 - cosw) / 2 / a0,
		b1: (1 - cosw) / a0,
		b2: (1 - cosw) / 2 / a0,
		a1: -2 * cosw / a0,
		a2: (1 - alpha) / a0,
	}
}

func (f *lowpass) process(samples [][2]float64) {
	for i := range samples {
		for ch := 0; ch < 2; ch++ {
			x := samples[i][ch]
			y := f.b0*x + f.b1*f.x1[ch] + f.b2*f.x2[ch] - f.a1*f.y1[ch] - f.a2*f.y2[ch]
			f.x2[ch], f.x1[ch] = f.x1[ch], x
			f.y2[ch], f.y1[ch] = f.y1[ch], y
			samples[i][ch] = y
		}
	}
}

// compressor is a stereo-linked feed-forward peak compressor with soft knee
type compressor struct {
	threshold float64 // dB
	knee      float64 // dB
	slope     float64 // 1 - 1/ratio

	attackCoef  float64
	releaseCoef float64
	reduction   float64 // smoothed gain reduction, dB >= 0
}

func newCompressor(thresholdDB, kneeDB, ratio, attack, release float64, rate beep.SampleRate) *compressor {
	sr := float64(rate)
	return &compressor{
		threshold:   thresholdDB,
		knee:        kneeDB,
		slope:       1 - 1/ratio,
		attackCoef:  math.Exp(-1 / (attack * sr)),
		releaseCoef: math.Exp(-1 / (release * sr)),
	}
}

// gainReduction returns the static curve reduction in dB for an input level
func (c *compressor) gainReduction(levelDB float64) float64 {
	over := levelDB - c.threshold
	switch {
	case c.knee > 0 && math.Abs(2*over) <= c.knee:
		x := over + c.knee/2
		return c.slope * x * x / (2 * c.knee)
	case over > 0:
		return c.slope * over
	default:
		return 0
	}
}

func (c *compressor) process(l, r float64) (float64, float64) {
	peak := math.Max(math.Abs(l), math.Abs(r))
	levelDB := -120.0
	if peak > 1e-6 {
		levelDB = 20 * math.Log10(peak)
	}

	target := c.gainReduction(levelDB)
	coef := c.releaseCoef
	if target > c.reduction {
		coef = c.attackCoef
	}
	c.reduction = target + coef*(c.reduction-target)

	if c.reduction <= 0 {
		return l, r
	}
	g := math.Pow(10, -c.reduction/20)
	return l * g, r * g
}

// delayLine is a stereo ring buffer whose input is the dry signal plus
// its own attenuated output, with interpolated reads for gliding delay times
type delayLine struct {
	buf [][2]float64
	w   int
}

func newDelayLine(maxSeconds float64, rate beep.SampleRate) *delayLine {
	return &delayLine{buf: make([][2]float64, rate.N(secondsToDuration(maxSeconds))+2)}
}

// process writes one frame and returns the delayed (wet) frame
func (d *delayLine) process(l, r, delaySamples, feedback float64) (float64, float64) {
	size := len(d.buf)
	if delaySamples < 1 {
		delaySamples = 1
	} else if limit := float64(size - 2); delaySamples > limit {
		delaySamples = limit
	}

	pos := float64(d.w) - delaySamples
	if pos < 0 {
		pos += float64(size)
	}
	// A tiny negative offset can round up to exactly size
	i0 := int(pos)
	frac := pos - float64(i0)
	if i0 >= size {
		i0 -= size
	}
	i1 := (i0 + 1) % size

	wl := d.buf[i0][0]*(1-frac) + d.buf[i1][0]*frac
	wr := d.buf[i0][1]*(1-frac) + d.buf[i1][1]*frac

	d.buf[d.w] = [2]float64{l + feedback*wl, r + feedback*wr}
	d.w = (d.w + 1) % size
	return wl, wr
}
