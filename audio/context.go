package audio

import (
	"math"
	"sync"
	"sync/atomic"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/effects"
)

// State is the lifecycle state of a Context
type State int32

const (
	StateSuspended State = iota
	StateRunning
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateSuspended:
		return "suspended"
	case StateRunning:
		return "running"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Context is the owned handle to one audio output device
// It holds the destination mixer and the audio clock; rendering and topology
// changes are serialized by mu
type Context struct {
	device     Device
	sampleRate beep.SampleRate

	mu   sync.Mutex
	dest beep.Mixer

	frames atomic.Int64
	state  atomic.Int32
}

// NewContext attaches a suspended context to device
// volume (0.0-1.0) trims the final output
func NewContext(device Device, volume float64) (*Context, error) {
	if device == nil {
		return nil, ErrNoAudioBackend
	}

	c := &Context{
		device:     device,
		sampleRate: device.SampleRate(),
	}
	c.state.Store(int32(StateSuspended))

	out := newVolume(beep.StreamerFunc(c.render), volume)
	if err := device.Start(out); err != nil {
		c.state.Store(int32(StateClosed))
		return nil, err
	}
	return c, nil
}

// SampleRate returns the device sample rate
func (c *Context) SampleRate() beep.SampleRate {
	return c.sampleRate
}

// CurrentTime returns seconds of audio rendered while running
func (c *Context) CurrentTime() float64 {
	return float64(c.frames.Load()) / float64(c.sampleRate)
}

// State returns the current lifecycle state
func (c *Context) State() State {
	return State(c.state.Load())
}

// Resume starts the clock; no-op when already running
func (c *Context) Resume() error {
	if c.state.CompareAndSwap(int32(StateSuspended), int32(StateRunning)) {
		return nil
	}
	if c.State() == StateClosed {
		return ErrContextClosed
	}
	return nil
}

// Suspend freezes the clock and outputs silence
func (c *Context) Suspend() error {
	if c.state.CompareAndSwap(int32(StateRunning), int32(StateSuspended)) {
		return nil
	}
	if c.State() == StateClosed {
		return ErrContextClosed
	}
	return nil
}

// Close detaches everything and releases the device
func (c *Context) Close() error {
	if State(c.state.Swap(int32(StateClosed))) == StateClosed {
		return nil
	}
	c.mu.Lock()
	c.dest.Clear()
	c.mu.Unlock()
	return c.device.Close()
}

// connect routes g into the destination, aligning its timeline with the clock
func (c *Context) connect(g *Graph) error {
	if c.State() == StateClosed {
		return ErrContextClosed
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	g.frame = c.frames.Load()
	c.dest.Add(g)
	return nil
}

// render is the device pull callback
func (c *Context) render(samples [][2]float64) (int, bool) {
	switch c.State() {
	case StateClosed:
		return 0, false
	case StateSuspended:
		for i := range samples {
			samples[i] = [2]float64{}
		}
		return len(samples), true
	}

	c.mu.Lock()
	c.dest.Stream(samples)
	c.frames.Add(int64(len(samples)))
	c.mu.Unlock()
	return len(samples), true
}

// newVolume wraps s in a linear volume stage
// math.Log2(0) is -Inf, so 0 volume maps to silent
func newVolume(s beep.Streamer, vol float64) beep.Streamer {
	if vol <= 0 {
		return &effects.Volume{Streamer: s, Base: 2, Volume: 0, Silent: true}
	}
	return &effects.Volume{Streamer: s, Base: 2, Volume: math.Log2(vol), Silent: false}
}
