package theme

import (
	"errors"
	"fmt"
	"strings"

	"github.com/lixenwraith/soundscape/parameter"
)

// Timbre selects the voice model used for every note of a theme
type Timbre int

const (
	Bell Timbre = iota
	Pluck
	Wood
	Pad
	Piano
	timbreCount
)

var timbreNames = [timbreCount]string{
	Bell:  "bell",
	Pluck: "pluck",
	Wood:  "wood",
	Pad:   "pad",
	Piano: "piano",
}

func (t Timbre) String() string {
	if t < 0 || t >= timbreCount {
		return fmt.Sprintf("timbre(%d)", int(t))
	}
	return timbreNames[t]
}

// ParseTimbre maps a case-insensitive name to a Timbre
func ParseTimbre(s string) (Timbre, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for i, n := range timbreNames {
		if n == name {
			return Timbre(i), nil
		}
	}
	return 0, fmt.Errorf("%w: unknown timbre %q", ErrInvalidTheme, s)
}

// Sentinel errors
var (
	ErrInvalidTheme = errors.New("invalid theme")
	ErrEmptyCatalog = errors.New("theme catalog is empty")
)

// Theme describes one soundscape style
// Values are shared read-only once placed in a Catalog
type Theme struct {
	Name        string
	Timbre      Timbre
	Scale       []float64 // Hz, candidate pitches
	Filter      float64   // Hz, lowpass cutoff for wood; 0 = default
	Decay       float64   // seconds
	DelayTime   float64   // seconds, 0-5
	Feedback    float64   // 0 <= f < 1
	Probability float64   // chance a tick emits a note
}

// MaxFrequency returns the exclusive upper bound on scale pitches for timbre
// at the output sample rate; bell modulators run above the carrier
func MaxFrequency(timbre Timbre) float64 {
	nyquist := float64(parameter.AudioSampleRate) / 2
	if timbre == Bell {
		return nyquist / parameter.BellModRatio
	}
	return nyquist
}

// Validate checks the invariants every catalog entry must satisfy
func (t Theme) Validate() error {
	if t.Timbre < 0 || t.Timbre >= timbreCount {
		return fmt.Errorf("%w %q: unknown timbre %d", ErrInvalidTheme, t.Name, int(t.Timbre))
	}
	if len(t.Scale) == 0 {
		return fmt.Errorf("%w %q: empty scale", ErrInvalidTheme, t.Name)
	}
	limit := MaxFrequency(t.Timbre)
	for _, f := range t.Scale {
		if !(f > 0) {
			return fmt.Errorf("%w %q: scale frequency %v not positive", ErrInvalidTheme, t.Name, f)
		}
		if f >= limit {
			return fmt.Errorf("%w %q: scale frequency %v must be below %v for %s", ErrInvalidTheme, t.Name, f, limit, t.Timbre)
		}
	}
	if !(t.Decay > 0) {
		return fmt.Errorf("%w %q: decay %v must be > 0", ErrInvalidTheme, t.Name, t.Decay)
	}
	// Pad release starts at decay; it must come after the swell
	if t.Timbre == Pad && t.Decay <= parameter.PadAttack {
		return fmt.Errorf("%w %q: pad decay %v must exceed attack %v", ErrInvalidTheme, t.Name, t.Decay, parameter.PadAttack)
	}
	if t.DelayTime < 0 || t.DelayTime > parameter.MaxDelayTime {
		return fmt.Errorf("%w %q: delay time %v outside [0, %v]", ErrInvalidTheme, t.Name, t.DelayTime, parameter.MaxDelayTime)
	}
	if t.Feedback < 0 || t.Feedback >= 1 {
		return fmt.Errorf("%w %q: feedback %v outside [0, 1)", ErrInvalidTheme, t.Name, t.Feedback)
	}
	if t.Probability < 0 || t.Probability > 1 {
		return fmt.Errorf("%w %q: probability %v outside [0, 1]", ErrInvalidTheme, t.Name, t.Probability)
	}
	if t.Filter < 0 {
		return fmt.Errorf("%w %q: filter %v negative", ErrInvalidTheme, t.Name, t.Filter)
	}
	return nil
}

// FilterCutoff returns the lowpass cutoff, falling back to the wood default
func (t Theme) FilterCutoff() float64 {
	if t.Filter > 0 {
		return t.Filter
	}
	return parameter.WoodCutoff
}

// clone deep-copies the scale so catalog entries never alias caller memory
func (t Theme) clone() Theme {
	c := t
	c.Scale = append([]float64(nil), t.Scale...)
	return c
}
