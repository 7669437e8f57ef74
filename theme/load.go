package theme

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// File is the YAML layout of a theme catalog
type File struct {
	Themes []FileTheme `yaml:"themes"`
}

// FileTheme is one catalog entry; exactly one of Notes or ScaleHz is set
type FileTheme struct {
	Name        string    `yaml:"name"`
	Timbre      string    `yaml:"timbre"`
	Notes       []int     `yaml:"notes"`    // MIDI note numbers
	ScaleHz     []float64 `yaml:"scale_hz"` // explicit frequencies
	Filter      float64   `yaml:"filter"`
	Decay       float64   `yaml:"decay"`
	DelayTime   float64   `yaml:"delay_time"`
	Feedback    float64   `yaml:"feedback"`
	Probability float64   `yaml:"probability"`
}

// LoadFile reads and validates a YAML theme catalog
func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	c, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// Parse decodes YAML catalog data
func Parse(data []byte) (*Catalog, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, err
	}

	themes := make([]Theme, 0, len(f.Themes))
	for i, ft := range f.Themes {
		t, err := ft.toTheme()
		if err != nil {
			return nil, fmt.Errorf("theme %d (%s): %w", i, ft.Name, err)
		}
		themes = append(themes, t)
	}
	return NewCatalog(themes...)
}

func (ft FileTheme) toTheme() (Theme, error) {
	timbre, err := ParseTimbre(ft.Timbre)
	if err != nil {
		return Theme{}, err
	}

	var scale []float64
	switch {
	case len(ft.Notes) > 0 && len(ft.ScaleHz) > 0:
		return Theme{}, fmt.Errorf("%w: both notes and scale_hz set", ErrInvalidTheme)
	case len(ft.Notes) > 0:
		for _, n := range ft.Notes {
			if NoteFreq(n) == 0 {
				return Theme{}, fmt.Errorf("%w: midi note %d out of range", ErrInvalidTheme, n)
			}
		}
		scale = Scale(ft.Notes...)
	default:
		scale = ft.ScaleHz
	}

	return Theme{
		Name:        ft.Name,
		Timbre:      timbre,
		Scale:       scale,
		Filter:      ft.Filter,
		Decay:       ft.Decay,
		DelayTime:   ft.DelayTime,
		Feedback:    ft.Feedback,
		Probability: ft.Probability,
	}, nil
}
