package theme

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"
)

// TestGetWrapsAnyIndex verifies lookup never fails for out-of-range indices
func TestGetWrapsAnyIndex(t *testing.T) {
	c := Default()
	n := c.Len()

	indices := []int{0, 1, n - 1, n, n + 1, -1, -n, -n - 1, 1 << 30, -(1 << 30), math.MinInt, math.MaxInt}
	for _, i := range indices {
		th := c.Get(i)
		if err := th.Validate(); err != nil {
			t.Errorf("Get(%d) returned invalid theme: %v", i, err)
		}
	}

	if c.Get(-1).Name != c.Get(n-1).Name {
		t.Errorf("Expected Get(-1) to equal last theme, got %q", c.Get(-1).Name)
	}
	if c.Get(n).Name != c.Get(0).Name {
		t.Errorf("Expected Get(%d) to wrap to first theme, got %q", n, c.Get(n).Name)
	}
}

// TestDefaultCatalogInvariants verifies every built-in theme holds its invariants
func TestDefaultCatalogInvariants(t *testing.T) {
	c := Default()
	for i := 0; i < c.Len(); i++ {
		th := c.Get(i)
		if th.Feedback >= 1 {
			t.Errorf("%s: feedback %v must be < 1", th.Name, th.Feedback)
		}
		if th.Decay <= 0 {
			t.Errorf("%s: decay %v must be > 0", th.Name, th.Decay)
		}
		if len(th.Scale) == 0 {
			t.Errorf("%s: empty scale", th.Name)
		}
	}
}

// TestNightRainShape pins the reference theme used by scheduler tests
func TestNightRainShape(t *testing.T) {
	idx, ok := Default().Index("night rain")
	if !ok {
		t.Fatal("Expected Night Rain in default catalog")
	}
	th := Default().Get(idx)
	if th.Decay != 0.8 || th.Probability != 0.9 || len(th.Scale) != 6 {
		t.Errorf("Unexpected Night Rain shape: decay=%v probability=%v scale=%d", th.Decay, th.Probability, len(th.Scale))
	}
}

// TestValidateRejects verifies construction-time invariants
func TestValidateRejects(t *testing.T) {
	base := Theme{Name: "ok", Timbre: Pluck, Scale: []float64{440}, Decay: 1, DelayTime: 0.5, Feedback: 0.5, Probability: 0.5}
	if err := base.Validate(); err != nil {
		t.Fatalf("Expected base theme to be valid, got %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*Theme)
	}{
		{"empty scale", func(th *Theme) { th.Scale = nil }},
		{"zero frequency", func(th *Theme) { th.Scale = []float64{0} }},
		{"NaN frequency", func(th *Theme) { th.Scale = []float64{math.NaN()} }},
		{"zero decay", func(th *Theme) { th.Decay = 0 }},
		{"negative decay", func(th *Theme) { th.Decay = -1 }},
		{"feedback one", func(th *Theme) { th.Feedback = 1 }},
		{"feedback negative", func(th *Theme) { th.Feedback = -0.1 }},
		{"delay too long", func(th *Theme) { th.DelayTime = 5.5 }},
		{"probability above one", func(th *Theme) { th.Probability = 1.1 }},
		{"unknown timbre", func(th *Theme) { th.Timbre = Timbre(42) }},
		{"short pad", func(th *Theme) { th.Timbre = Pad; th.Decay = 1.5 }},
		{"negative filter", func(th *Theme) { th.Filter = -1 }},
		{"above nyquist", func(th *Theme) { th.Scale = []float64{22050} }},
		{"bell modulator above nyquist", func(th *Theme) { th.Timbre = Bell; th.Scale = []float64{440, 9000} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			th := base
			tt.mutate(&th)
			err := th.Validate()
			if !errors.Is(err, ErrInvalidTheme) {
				t.Errorf("Expected ErrInvalidTheme, got %v", err)
			}
		})
	}
}

// TestNewCatalogCopiesScale verifies catalog entries do not alias caller slices
func TestNewCatalogCopiesScale(t *testing.T) {
	scale := []float64{220, 330}
	c, err := NewCatalog(Theme{Name: "a", Timbre: Bell, Scale: scale, Decay: 1, Probability: 1})
	if err != nil {
		t.Fatalf("NewCatalog failed: %v", err)
	}
	scale[0] = 1
	if c.Get(0).Scale[0] != 220 {
		t.Errorf("Expected catalog to keep its own scale copy, got %v", c.Get(0).Scale)
	}

	if _, err := NewCatalog(); !errors.Is(err, ErrEmptyCatalog) {
		t.Errorf("Expected ErrEmptyCatalog, got %v", err)
	}
}

// TestParseTimbre verifies name round trip
func TestParseTimbre(t *testing.T) {
	for tb := Bell; tb < timbreCount; tb++ {
		got, err := ParseTimbre(" " + tb.String() + " ")
		if err != nil || got != tb {
			t.Errorf("ParseTimbre(%q) = %v, %v", tb.String(), got, err)
		}
	}
	if _, err := ParseTimbre("kazoo"); err == nil {
		t.Error("Expected error for unknown timbre")
	}
}

// TestNoteFreq verifies the equal temperament table
func TestNoteFreq(t *testing.T) {
	if got := NoteFreq(69); math.Abs(got-440) > 1e-9 {
		t.Errorf("Expected A4 = 440Hz, got %f", got)
	}
	if got := NoteFreq(81); math.Abs(got-880) > 1e-9 {
		t.Errorf("Expected A5 = 880Hz, got %f", got)
	}
	if NoteFreq(-1) != 0 || NoteFreq(128) != 0 {
		t.Error("Expected 0 for out-of-range notes")
	}
}

const sampleYAML = `
themes:
  - name: Glass Garden
    timbre: bell
    notes: [72, 74, 79]
    decay: 3
    delay_time: 0.5
    feedback: 0.4
    probability: 0.7
  - name: Low Tide
    timbre: wood
    scale_hz: [110, 146.83]
    filter: 300
    decay: 0.6
    delay_time: 0.2
    feedback: 0.2
    probability: 1
`

// TestParseYAML verifies catalog decoding
func TestParseYAML(t *testing.T) {
	c, err := Parse([]byte(sampleYAML))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if c.Len() != 2 {
		t.Fatalf("Expected 2 themes, got %d", c.Len())
	}

	glass := c.Get(0)
	if glass.Timbre != Bell || len(glass.Scale) != 3 || glass.Scale[0] != NoteFreq(72) {
		t.Errorf("Unexpected first theme: %+v", glass)
	}
	tide := c.Get(1)
	if tide.Timbre != Wood || tide.FilterCutoff() != 300 {
		t.Errorf("Unexpected second theme: %+v", tide)
	}
}

// TestParseYAMLRejects verifies invalid entries fail the whole load
func TestParseYAMLRejects(t *testing.T) {
	cases := map[string]string{
		"bad timbre":   "themes:\n  - {name: x, timbre: kazoo, notes: [60], decay: 1}\n",
		"feedback one": "themes:\n  - {name: x, timbre: bell, notes: [60], decay: 1, feedback: 1}\n",
		"both scales":  "themes:\n  - {name: x, timbre: bell, notes: [60], scale_hz: [440], decay: 1}\n",
		"bad note":     "themes:\n  - {name: x, timbre: bell, notes: [200], decay: 1}\n",
		"empty":        "themes: []\n",
		"not yaml":     "themes: [",
	}
	for name, data := range cases {
		if _, err := Parse([]byte(data)); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}

// TestLoadFile verifies file-backed loading
func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "themes.yaml")
	if err := os.WriteFile(path, []byte(sampleYAML), 0o644); err != nil {
		t.Fatal(err)
	}
	c, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}
	if i, ok := c.Index("low tide"); !ok || i != 1 {
		t.Errorf("Expected Low Tide at index 1, got %d, %v", i, ok)
	}

	if _, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("Expected error for missing file")
	}
}

// TestMaxFrequency verifies bell pitches leave headroom for the modulator
func TestMaxFrequency(t *testing.T) {
	if got := MaxFrequency(Pluck); got != 22050 {
		t.Errorf("Expected pluck limit 22050, got %v", got)
	}
	if got := MaxFrequency(Bell); got != 8820 {
		t.Errorf("Expected bell limit 8820, got %v", got)
	}

	bell := Theme{Name: "high bell", Timbre: Bell, Scale: []float64{8000}, Decay: 1, Probability: 1}
	if err := bell.Validate(); err != nil {
		t.Errorf("Expected 8 kHz bell to be valid, got %v", err)
	}
}
