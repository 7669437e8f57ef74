package engine

import (
	"log"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"github.com/lixenwraith/soundscape/audio"
	"github.com/lixenwraith/soundscape/parameter"
	"github.com/lixenwraith/soundscape/status"
	"github.com/lixenwraith/soundscape/theme"
)

// State is the session lifecycle state
type State int

const (
	StateStopped State = iota
	StateRunning
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateStopped:
		return "stopped"
	case StateRunning:
		return "running"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Engine owns one audio context and at most one live session on it
// A session is a signal graph plus the scheduler feeding it; stopping fades the
// graph out and tears it down after the echo tail
type Engine struct {
	ctx      *audio.Context
	catalog  *theme.Catalog
	clock    Clock
	rng      *rand.Rand
	registry *status.Registry

	mu       sync.Mutex
	state    State
	graph    *audio.Graph
	sched    *Scheduler
	current  theme.Theme
	releases map[*audio.Graph]Timer

	// Cached metric pointers
	statSessions *atomic.Int64
	statVoices   *atomic.Int64
	statMaster   *status.AtomicFloat
	statTheme    *status.AtomicString
	statRunning  *atomic.Bool
}

// Option configures an Engine
type Option func(*Engine)

// WithCatalog replaces the built-in theme catalog
func WithCatalog(c *theme.Catalog) Option {
	return func(e *Engine) {
		if c != nil {
			e.catalog = c
		}
	}
}

// WithClock sets the scheduling time source
func WithClock(c Clock) Option {
	return func(e *Engine) {
		if c != nil {
			e.clock = c
		}
	}
}

// WithRand sets the random source for pitch, gate and jitter draws
func WithRand(r *rand.Rand) Option {
	return func(e *Engine) {
		if r != nil {
			e.rng = r
		}
	}
}

// WithRegistry publishes metrics into reg
func WithRegistry(reg *status.Registry) Option {
	return func(e *Engine) {
		if reg != nil {
			e.registry = reg
		}
	}
}

// New creates a stopped engine on ctx
// A nil ctx yields an inert engine whose operations are all no-ops
func New(ctx *audio.Context, opts ...Option) *Engine {
	e := &Engine{
		ctx:      ctx,
		catalog:  theme.Default(),
		clock:    NewTimeProvider(),
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
		registry: status.NewRegistry(),
		releases: make(map[*audio.Graph]Timer),
	}
	for _, opt := range opts {
		opt(e)
	}

	e.statSessions = e.registry.Ints.Get("engine.sessions")
	e.statVoices = e.registry.Ints.Get("audio.voices")
	e.statMaster = e.registry.Floats.Get("audio.master")
	e.statTheme = e.registry.Strings.Get("engine.theme")
	e.statRunning = e.registry.Bools.Get("engine.running")

	if ctx == nil {
		log.Printf("engine: no audio context, running inert")
	}
	return e
}

// Inert reports whether the engine has no audio output
func (e *Engine) Inert() bool {
	return e.ctx == nil
}

// Catalog returns the theme catalog in use
func (e *Engine) Catalog() *theme.Catalog {
	return e.catalog
}

// Registry returns the metrics registry
func (e *Engine) Registry() *status.Registry {
	return e.registry
}

// Start begins a session with the theme at themeIndex (wrapped into range)
// Ignored while a session is running
func (e *Engine) Start(themeIndex int) {
	if e.Inert() {
		return
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	switch e.state {
	case StateRunning:
		log.Printf("engine: start ignored, session already running")
		return
	case StateClosed:
		return
	}

	th := e.catalog.Get(themeIndex)
	if err := e.ctx.Resume(); err != nil {
		log.Printf("engine: resume failed: %v", err)
		return
	}
	g, err := audio.BuildGraph(e.ctx, th)
	if err != nil {
		log.Printf("engine: graph build failed: %v", err)
		return
	}
	g.FadeIn(parameter.SessionLevel, parameter.SessionFadeIn)

	e.graph = g
	e.current = th
	e.sched = NewScheduler(e.clock, g, e.rng, th, e.registry)
	e.state = StateRunning

	e.statSessions.Add(1)
	e.statTheme.Store(th.Name)
	e.statRunning.Store(true)
	log.Printf("engine: session started, theme %q", th.Name)

	e.sched.Start()
}

// SetTheme switches the running session to the theme at themeIndex
// Sounding notes keep their timbre; delay and feedback glide to the new values
// No-op while stopped
func (e *Engine) SetTheme(themeIndex int) {
	if e.Inert() {
		return
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state != StateRunning {
		return
	}

	th := e.catalog.Get(themeIndex)
	e.sched.SetTheme(th)
	e.graph.RampEffectParams(th, parameter.EffectRampSeconds)
	e.current = th
	e.statTheme.Store(th.Name)
	log.Printf("engine: theme changed to %q", th.Name)
}

// Stop halts scheduling and fades the session out
// The graph stays connected through the fade and echo tail, then is released
// No-op while stopped
func (e *Engine) Stop() {
	if e.Inert() {
		return
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state != StateRunning {
		return
	}

	e.sched.Cancel()
	g := e.graph
	g.FadeOut(parameter.SessionFadeOut)

	tail := time.Duration(parameter.SessionFadeOut*float64(time.Second)) + parameter.GraphReleaseTail
	e.releases[g] = e.clock.AfterFunc(tail, func() { e.release(g) })

	e.graph = nil
	e.sched = nil
	e.state = StateStopped
	e.statRunning.Store(false)
	log.Printf("engine: session stopping, release in %v", tail)
}

// release disconnects a faded graph once its tail has elapsed
func (e *Engine) release(g *audio.Graph) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, ok := e.releases[g]; !ok {
		return
	}
	delete(e.releases, g)
	g.Disconnect()
}

// Close stops any session immediately, cancels pending releases and closes the context
func (e *Engine) Close() error {
	if e.Inert() {
		return nil
	}

	e.mu.Lock()
	if e.state == StateClosed {
		e.mu.Unlock()
		return nil
	}
	if e.state == StateRunning {
		e.sched.Cancel()
		e.graph.Disconnect()
		e.graph = nil
		e.sched = nil
	}
	for g, t := range e.releases {
		t.Stop()
		g.Disconnect()
		delete(e.releases, g)
	}
	e.state = StateClosed
	e.statRunning.Store(false)
	e.mu.Unlock()

	return e.ctx.Close()
}

// Running reports whether a session is live
func (e *Engine) Running() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state == StateRunning
}

// State returns the lifecycle state
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Theme returns the current session theme; false when stopped
func (e *Engine) Theme() (theme.Theme, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state != StateRunning {
		return theme.Theme{}, false
	}
	return e.current, true
}

// PendingReleases returns the number of faded graphs awaiting teardown
func (e *Engine) PendingReleases() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.releases)
}

// Refresh samples live graph levels into the registry gauges
func (e *Engine) Refresh() {
	if e.Inert() {
		return
	}

	e.mu.Lock()
	g := e.graph
	e.mu.Unlock()

	if g == nil {
		e.statVoices.Store(0)
		e.statMaster.Set(0)
		return
	}
	e.statVoices.Store(int64(g.Voices()))
	e.statMaster.Set(g.MasterLevel())
}
