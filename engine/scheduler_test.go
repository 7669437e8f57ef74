package engine

import (
	"errors"
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/lixenwraith/soundscape/audio"
	"github.com/lixenwraith/soundscape/status"
	"github.com/lixenwraith/soundscape/theme"
)

// recordingSink collects triggered notes
type recordingSink struct {
	clock  *MockTimeProvider
	notes  []audio.NoteEvent
	err    error
	panics bool
}

func (s *recordingSink) Now() float64 {
	return s.clock.Now().Sub(testEpoch).Seconds()
}

func (s *recordingSink) Trigger(ev audio.NoteEvent) error {
	if s.panics {
		panic("boom")
	}
	if s.err != nil {
		return s.err
	}
	s.notes = append(s.notes, ev)
	return nil
}

func newTestScheduler(th theme.Theme, seed int64) (*Scheduler, *MockTimeProvider, *recordingSink, *status.Registry) {
	clock := NewMockTimeProvider(testEpoch)
	sink := &recordingSink{clock: clock}
	reg := status.NewRegistry()
	s := NewScheduler(clock, sink, rand.New(rand.NewSource(seed)), th, reg)
	return s, clock, sink, reg
}

func certainTheme(name string, timbre theme.Timbre, freqs ...float64) theme.Theme {
	decay := 1.0
	if timbre == theme.Pad {
		decay = 6
	}
	return theme.Theme{
		Name:        name,
		Timbre:      timbre,
		Scale:       freqs,
		Decay:       decay,
		DelayTime:   0.3,
		Feedback:    0.3,
		Probability: 1,
	}
}

// step advances to the next armed tick and returns the interval waited
func step(t *testing.T, clock *MockTimeProvider) time.Duration {
	t.Helper()
	due, ok := clock.NextDue()
	if !ok {
		t.Fatal("Expected an armed tick")
	}
	gap := due.Sub(clock.Now())
	clock.Advance(gap)
	return gap
}

// TestSchedulerFirstTickImmediate verifies Start ticks synchronously and arms the next tick
func TestSchedulerFirstTickImmediate(t *testing.T) {
	s, clock, sink, reg := newTestScheduler(certainTheme("a", theme.Piano, 440), 1)

	s.Start()

	if len(sink.notes) != 1 {
		t.Fatalf("Expected 1 note on start, got %d", len(sink.notes))
	}
	if sink.notes[0].Start != 0 {
		t.Errorf("Expected note at time 0, got %v", sink.notes[0].Start)
	}
	if got := reg.Ints.Get("engine.ticks").Load(); got != 1 {
		t.Errorf("Expected 1 tick, got %d", got)
	}
	if s.State() != SchedulerArmed {
		t.Errorf("Expected armed, got %v", s.State())
	}

	due, ok := clock.NextDue()
	if !ok {
		t.Fatal("Expected next tick armed")
	}
	gap := due.Sub(testEpoch)
	if gap < time.Second || gap >= 3*time.Second {
		t.Errorf("Expected gap in [1s, 3s), got %v", gap)
	}
}

// TestSchedulerStartTwice verifies a second Start does not add a tick chain
func TestSchedulerStartTwice(t *testing.T) {
	s, clock, sink, _ := newTestScheduler(certainTheme("a", theme.Piano, 440), 1)

	s.Start()
	s.Start()

	if len(sink.notes) != 1 {
		t.Errorf("Expected 1 note, got %d", len(sink.notes))
	}
	if clock.Pending() != 1 {
		t.Errorf("Expected 1 pending tick, got %d", clock.Pending())
	}
}

// TestSchedulerCancel verifies Cancel stops the chain and is idempotent
func TestSchedulerCancel(t *testing.T) {
	s, clock, sink, _ := newTestScheduler(certainTheme("a", theme.Piano, 440), 1)

	s.Start()
	s.Cancel()
	s.Cancel()

	if clock.Pending() != 0 {
		t.Errorf("Expected no pending ticks, got %d", clock.Pending())
	}
	clock.Advance(time.Minute)
	if len(sink.notes) != 1 {
		t.Errorf("Expected no notes after cancel, got %d", len(sink.notes))
	}
	if s.State() != SchedulerIdle {
		t.Errorf("Expected idle, got %v", s.State())
	}
}

// TestSchedulerStaleCallback verifies a callback from an earlier arm is ignored
func TestSchedulerStaleCallback(t *testing.T) {
	s, _, sink, _ := newTestScheduler(certainTheme("a", theme.Piano, 440), 1)

	s.Start()
	s.mu.Lock()
	stale := s.generation
	s.mu.Unlock()

	s.Cancel()
	s.Start()
	before := len(sink.notes)

	s.tick(stale)
	if len(sink.notes) != before {
		t.Errorf("Expected stale tick to be discarded, got %d notes", len(sink.notes)-before)
	}
}

// TestSchedulerIntervals verifies the jitter window per timbre
func TestSchedulerIntervals(t *testing.T) {
	tests := []struct {
		name   string
		timbre theme.Timbre
		max    time.Duration
	}{
		{"bell", theme.Bell, 3 * time.Second},
		{"pad", theme.Pad, 5 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, clock, _, _ := newTestScheduler(certainTheme(tt.name, tt.timbre, 220), 7)
			s.Start()

			longest := time.Duration(0)
			for i := 0; i < 200; i++ {
				gap := step(t, clock)
				if gap < time.Second || gap >= tt.max {
					t.Fatalf("Interval %v outside [1s, %v)", gap, tt.max)
				}
				if gap > longest {
					longest = gap
				}
			}
			// Pad jitter must actually use its wider window
			if tt.timbre == theme.Pad && longest <= 3*time.Second {
				t.Errorf("Expected some pad interval above 3s, longest %v", longest)
			}
		})
	}
}

// TestSchedulerNightRainStatistics verifies pitch pool and skip rate over 1000 ticks
func TestSchedulerNightRainStatistics(t *testing.T) {
	idx, ok := theme.Default().Index("Night Rain")
	if !ok {
		t.Fatal("Night Rain missing from default catalog")
	}
	th := theme.Default().Get(idx)

	s, clock, sink, reg := newTestScheduler(th, 42)
	s.Start()
	for reg.Ints.Get("engine.ticks").Load() < 1000 {
		step(t, clock)
	}

	ticks := reg.Ints.Get("engine.ticks").Load()
	notes := reg.Ints.Get("engine.notes").Load()
	skipped := reg.Ints.Get("engine.skipped").Load()
	if notes+skipped != ticks {
		t.Errorf("Expected notes+skipped == ticks, got %d+%d != %d", notes, skipped, ticks)
	}

	// Binomial(1000, 0.1): mean 100, sd ~9.5; allow five sd
	if skipped < 53 || skipped > 147 {
		t.Errorf("Expected ~100 skipped ticks, got %d", skipped)
	}

	allowed := make(map[float64]bool)
	for _, f := range th.Scale {
		allowed[f] = true
	}
	for _, n := range sink.notes {
		if !allowed[n.Frequency] {
			t.Fatalf("Pitch %v not in scale", n.Frequency)
		}
		if n.Timbre != theme.Pluck {
			t.Fatalf("Expected pluck timbre, got %v", n.Timbre)
		}
	}
	if int64(len(sink.notes)) != notes {
		t.Errorf("Expected %d recorded notes, got %d", notes, len(sink.notes))
	}
}

// TestSchedulerSetTheme verifies the next tick reads the new pitch pool
func TestSchedulerSetTheme(t *testing.T) {
	s, clock, sink, _ := newTestScheduler(certainTheme("low", theme.Piano, 220), 3)

	s.Start()
	s.SetTheme(certainTheme("high", theme.Bell, 880))
	for i := 0; i < 10; i++ {
		step(t, clock)
	}

	if sink.notes[0].Frequency != 220 {
		t.Errorf("Expected first note 220, got %v", sink.notes[0].Frequency)
	}
	for _, n := range sink.notes[1:] {
		if n.Frequency != 880 || n.Timbre != theme.Bell {
			t.Fatalf("Expected 880 Hz bell after SetTheme, got %v Hz %v", n.Frequency, n.Timbre)
		}
	}
	if s.Theme().Name != "high" {
		t.Errorf("Expected theme high, got %s", s.Theme().Name)
	}
}

// TestSchedulerNoteStartTime verifies notes carry the sink clock at trigger
func TestSchedulerNoteStartTime(t *testing.T) {
	s, clock, sink, _ := newTestScheduler(certainTheme("a", theme.Piano, 440), 5)

	s.Start()
	step(t, clock)

	want := clock.Now().Sub(testEpoch).Seconds()
	got := sink.notes[len(sink.notes)-1].Start
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("Expected note start %v, got %v", want, got)
	}
}

// TestSchedulerSurvivesSinkFailure verifies errors and panics are counted and the loop re-arms
func TestSchedulerSurvivesSinkFailure(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		panics bool
	}{
		{"error", errors.New("synthesis failed"), false},
		{"panic", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, clock, sink, reg := newTestScheduler(certainTheme("a", theme.Piano, 440), 1)
			sink.err = tt.err
			sink.panics = tt.panics

			s.Start()
			step(t, clock)
			step(t, clock)

			if got := reg.Ints.Get("engine.dropped").Load(); got != 3 {
				t.Errorf("Expected 3 dropped notes, got %d", got)
			}
			if got := reg.Ints.Get("engine.notes").Load(); got != 0 {
				t.Errorf("Expected 0 notes, got %d", got)
			}
			if clock.Pending() != 1 {
				t.Errorf("Expected loop to stay armed, got %d pending", clock.Pending())
			}
		})
	}
}
