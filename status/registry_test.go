package status

import (
	"sync"
	"sync/atomic"
	"testing"
)

// TestMetricMapCachesPointer verifies repeated Get returns the same pointer
func TestMetricMapCachesPointer(t *testing.T) {
	m := NewMetricMap[atomic.Int64]()

	a := m.Get("engine.ticks")
	b := m.Get("engine.ticks")
	if a != b {
		t.Fatal("Expected cached pointer on second Get")
	}

	a.Add(3)
	if got := b.Load(); got != 3 {
		t.Errorf("Expected 3, got %d", got)
	}
	if !m.Has("engine.ticks") || m.Has("engine.notes") {
		t.Error("Has reports wrong registration state")
	}
}

// TestMetricMapConcurrentGet verifies concurrent registration yields one metric
func TestMetricMapConcurrentGet(t *testing.T) {
	m := NewMetricMap[atomic.Int64]()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.Get("shared").Add(1)
		}()
	}
	wg.Wait()

	if m.Count() != 1 {
		t.Errorf("Expected 1 metric, got %d", m.Count())
	}
	if got := m.Get("shared").Load(); got != 16 {
		t.Errorf("Expected 16, got %d", got)
	}
}

// TestAtomicFloatAdd verifies Add accumulates
func TestAtomicFloatAdd(t *testing.T) {
	var f AtomicFloat
	f.Set(0.25)
	if got := f.Add(0.5); got != 0.75 {
		t.Errorf("Expected 0.75, got %v", got)
	}
	if got := f.Get(); got != 0.75 {
		t.Errorf("Expected 0.75, got %v", got)
	}
}

// TestAtomicStringTruncates verifies long values are clipped
func TestAtomicStringTruncates(t *testing.T) {
	var s AtomicString
	if s.Load() != "" {
		t.Error("Expected empty zero value")
	}

	long := "abcdefghijklmnopqrstuvwxyz0123456789"
	s.Store(long)
	if got := s.Load(); got != long[:MaxStringLen] {
		t.Errorf("Expected %q, got %q", long[:MaxStringLen], got)
	}
}

// TestRegistrySnapshot verifies grouping and key order
func TestRegistrySnapshot(t *testing.T) {
	r := NewRegistry()
	r.Ints.Get("engine.notes").Store(4)
	r.Ints.Get("engine.ticks").Store(5)
	r.Floats.Get("audio.master").Set(0.5)
	r.Strings.Get("engine.theme").Store("Night Rain")
	r.Bools.Get("engine.running").Store(true)

	want := []Entry{
		{"engine.running", "true"},
		{"engine.notes", "4"},
		{"engine.ticks", "5"},
		{"audio.master", "0.500"},
		{"engine.theme", "Night Rain"},
	}

	got := r.Snapshot()
	if len(got) != len(want) {
		t.Fatalf("Expected %d entries, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Entry %d: expected %v, got %v", i, want[i], got[i])
		}
	}
	if r.TotalCount() != 5 {
		t.Errorf("Expected 5 metrics, got %d", r.TotalCount())
	}
}
