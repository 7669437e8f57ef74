package engine

import (
	"fmt"
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

// NoteSink receives the notes a Scheduler decides to play
// *audio.Graph satisfies it
type NoteSink interface {
	Now() float64
	Trigger(ev audio.NoteEvent) error
}

// SchedulerState is the tick loop state
type SchedulerState int

const (
	SchedulerIdle SchedulerState = iota
	SchedulerArmed
)

func (s SchedulerState) String() string {
	if s == SchedulerArmed {
		return "armed"
	}
	return "idle"
}

// Scheduler is the self-rescheduling stochastic note loop
// Each tick draws once against the theme probability, plays a uniformly chosen
// scale pitch on success, then re-arms after a jittered interval
type Scheduler struct {
	clock Clock
	sink  NoteSink

	mu         sync.Mutex
	rng        *rand.Rand
	theme      theme.Theme
	state      SchedulerState
	timer      Timer
	generation uint64

	// Cached metric pointers
	statTicks   *atomic.Int64
	statNotes   *atomic.Int64
	statSkipped *atomic.Int64
	statDropped *atomic.Int64
}

// NewScheduler creates an idle scheduler playing th into sink
func NewScheduler(clock Clock, sink NoteSink, rng *rand.Rand, th theme.Theme, reg *status.Registry) *Scheduler {
	if reg == nil {
		reg = status.NewRegistry()
	}
	return &Scheduler{
		clock:       clock,
		sink:        sink,
		rng:         rng,
		theme:       th,
		statTicks:   reg.Ints.Get("engine.ticks"),
		statNotes:   reg.Ints.Get("engine.notes"),
		statSkipped: reg.Ints.Get("engine.skipped"),
		statDropped: reg.Ints.Get("engine.dropped"),
	}
}

// Start runs the first tick immediately and arms the loop
// No-op when already armed
func (s *Scheduler) Start() {
	s.mu.Lock()
	if s.state == SchedulerArmed {
		s.mu.Unlock()
		return
	}
	s.state = SchedulerArmed
	s.generation++
	gen := s.generation
	s.mu.Unlock()

	s.tick(gen)
}

// Cancel disarms the loop; a callback already in flight finds a stale generation and exits
// Idempotent
func (s *Scheduler) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state = SchedulerIdle
	s.generation++
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

// SetTheme replaces the theme read by subsequent ticks
func (s *Scheduler) SetTheme(th theme.Theme) {
	s.mu.Lock()
	s.theme = th
	s.mu.Unlock()
}

// Theme returns the theme the next tick will read
func (s *Scheduler) Theme() theme.Theme {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.theme
}

// State returns idle or armed
func (s *Scheduler) State() SchedulerState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Scheduler) tick(gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != SchedulerArmed || gen != s.generation {
		return
	}
	s.statTicks.Add(1)

	th := s.theme
	if s.rng.Float64() <= th.Probability {
		ev := audio.NoteEvent{
			Frequency: th.Scale[s.rng.Intn(len(th.Scale))],
			Timbre:    th.Timbre,
			Decay:     th.Decay,
			Filter:    th.FilterCutoff(),
		}
		if err := s.emit(ev); err != nil {
			s.statDropped.Add(1)
			log.Printf("scheduler: note dropped: %v", err)
		} else {
			s.statNotes.Add(1)
		}
	} else {
		s.statSkipped.Add(1)
	}

	// Always re-arm, even after a failed note
	s.timer = s.clock.AfterFunc(nextInterval(th, s.rng), func() { s.tick(gen) })
}

// emit triggers ev at the sink's current time, converting a panic into an error
func (s *Scheduler) emit(ev audio.NoteEvent) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("synthesis panic: %v", r)
		}
	}()
	ev.Start = s.sink.Now()
	return s.sink.Trigger(ev)
}

// nextInterval returns the base interval plus uniform jitter over the theme's density window
func nextInterval(th theme.Theme, rng *rand.Rand) time.Duration {
	window := parameter.DensityWindow
	if th.Timbre == theme.Pad {
		window = parameter.PadDensityWindow
	}
	return parameter.TickBaseInterval + time.Duration(rng.Float64()*float64(window))
}
