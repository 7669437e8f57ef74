package engine

import (
	"sync"
	"time"
)

// MockTimeProvider provides a controllable time source for testing
// Callbacks fire synchronously inside Advance, in due order
type MockTimeProvider struct {
	mu          sync.Mutex
	currentTime time.Time
	pending     []*mockTimer
	seq         uint64
}

type mockTimer struct {
	clock *MockTimeProvider
	due   time.Time
	seq   uint64
	fn    func()
}

// NewMockTimeProvider creates a new mock time provider with the given start time
func NewMockTimeProvider(startTime time.Time) *MockTimeProvider {
	return &MockTimeProvider{
		currentTime: startTime,
	}
}

// Now returns the current mocked time
func (m *MockTimeProvider) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.currentTime
}

// AfterFunc registers fn to run once mocked time reaches now+d
func (m *MockTimeProvider) AfterFunc(d time.Duration, fn func()) Timer {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.seq++
	t := &mockTimer{
		clock: m,
		due:   m.currentTime.Add(d),
		seq:   m.seq,
		fn:    fn,
	}
	m.pending = append(m.pending, t)
	return t
}

// Advance moves time forward by d, firing every callback that comes due
// Callbacks registered while advancing fire too if they fall inside the window
func (m *MockTimeProvider) Advance(d time.Duration) {
	m.mu.Lock()
	target := m.currentTime.Add(d)
	m.mu.Unlock()

	for {
		m.mu.Lock()
		next := m.popDue(target)
		if next == nil {
			m.currentTime = target
			m.mu.Unlock()
			return
		}
		m.currentTime = next.due
		m.mu.Unlock()

		next.fn()
	}
}

// Pending returns the number of armed callbacks
func (m *MockTimeProvider) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.pending)
}

// NextDue returns the earliest armed deadline
func (m *MockTimeProvider) NextDue() (time.Time, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	idx := m.earliest()
	if idx < 0 {
		return time.Time{}, false
	}
	return m.pending[idx].due, true
}

// popDue removes and returns the earliest timer due at or before target
// Caller holds mu
func (m *MockTimeProvider) popDue(target time.Time) *mockTimer {
	idx := m.earliest()
	if idx < 0 || m.pending[idx].due.After(target) {
		return nil
	}
	t := m.pending[idx]
	m.pending = append(m.pending[:idx], m.pending[idx+1:]...)
	return t
}

func (m *MockTimeProvider) earliest() int {
	idx := -1
	for i, t := range m.pending {
		if idx < 0 || t.due.Before(m.pending[idx].due) ||
			(t.due.Equal(m.pending[idx].due) && t.seq < m.pending[idx].seq) {
			idx = i
		}
	}
	return idx
}

func (t *mockTimer) Stop() bool {
	m := t.clock
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, p := range m.pending {
		if p == t {
			m.pending = append(m.pending[:i], m.pending[i+1:]...)
			return true
		}
	}
	return false
}
