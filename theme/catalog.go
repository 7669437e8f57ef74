package theme

import (
	"fmt"
	"strings"
)

// Catalog is an immutable, validated list of themes
type Catalog struct {
	themes []Theme
}

// NewCatalog validates and copies the given themes
func NewCatalog(themes ...Theme) (*Catalog, error) {
	if len(themes) == 0 {
		return nil, ErrEmptyCatalog
	}
	c := &Catalog{themes: make([]Theme, len(themes))}
	for i, t := range themes {
		if err := t.Validate(); err != nil {
			return nil, fmt.Errorf("theme %d: %w", i, err)
		}
		c.themes[i] = t.clone()
	}
	return c, nil
}

// Get returns the theme at index, wrapping any integer into range
func (c *Catalog) Get(index int) Theme {
	n := len(c.themes)
	return c.themes[((index%n)+n)%n]
}

// Len returns the number of themes
func (c *Catalog) Len() int {
	return len(c.themes)
}

// Index finds a theme by case-insensitive name
func (c *Catalog) Index(name string) (int, bool) {
	for i, t := range c.themes {
		if strings.EqualFold(t.Name, name) {
			return i, true
		}
	}
	return 0, false
}

// Names lists theme names in catalog order
func (c *Catalog) Names() []string {
	names := make([]string, len(c.themes))
	for i, t := range c.themes {
		names[i] = t.Name
	}
	return names
}

var defaultCatalog = mustCatalog(
	Theme{
		Name:        "Night Rain",
		Timbre:      Pluck,
		Scale:       Scale(57, 60, 62, 64, 67, 69), // A minor pentatonic
		Decay:       0.8,
		DelayTime:   0.45,
		Feedback:    0.45,
		Probability: 0.9,
	},
	Theme{
		Name:        "Temple Bells",
		Timbre:      Bell,
		Scale:       Scale(62, 64, 66, 69, 71, 74), // D major pentatonic
		Decay:       4.0,
		DelayTime:   0.75,
		Feedback:    0.5,
		Probability: 0.55,
	},
	Theme{
		Name:        "Forest Floor",
		Timbre:      Wood,
		Scale:       Scale(48, 50, 53, 55, 57, 60),
		Filter:      400,
		Decay:       0.5,
		DelayTime:   0.3,
		Feedback:    0.35,
		Probability: 0.8,
	},
	Theme{
		Name:        "Deep Space",
		Timbre:      Pad,
		Scale:       Scale(48, 55, 58, 62, 65), // C minor, open voicing
		Decay:       7.0,
		DelayTime:   1.2,
		Feedback:    0.6,
		Probability: 0.7,
	},
	Theme{
		Name:        "Quiet Study",
		Timbre:      Piano,
		Scale:       Scale(60, 64, 67, 71, 74, 76, 79), // C major 9
		Decay:       2.0,
		DelayTime:   0.6,
		Feedback:    0.3,
		Probability: 0.6,
	},
	Theme{
		Name:        "Harbor Dusk",
		Timbre:      Bell,
		Scale:       Scale(51, 55, 58, 63, 67), // Eb major triad spread
		Decay:       5.0,
		DelayTime:   1.5,
		Feedback:    0.55,
		Probability: 0.45,
	},
)

// Default returns the built-in catalog
func Default() *Catalog {
	return defaultCatalog
}

func mustCatalog(themes ...Theme) *Catalog {
	c, err := NewCatalog(themes...)
	if err != nil {
		panic(err)
	}
	return c
}
