package audio

import (
	"os"
	"strconv"
	"strings"

	"github.com/lixenwraith/soundscape/parameter"
)

// Backend names accepted by Config.Backend
const (
	BackendNameAuto    = "auto"
	BackendNameSpeaker = "speaker"
	BackendNamePipe    = "pipe"
	BackendNameNone    = "none"
)

// Config holds output settings
type Config struct {
	Enabled      bool
	MasterVolume float64 // 0.0-1.0, output trim after the compressor
	SampleRate   int
	Backend      string
	ThemesPath   string // optional YAML theme catalog
}

// DefaultConfig returns settings used when no environment overrides exist
func DefaultConfig() *Config {
	return &Config{
		Enabled:      true,
		MasterVolume: 1.0,
		SampleRate:   parameter.AudioSampleRate,
		Backend:      BackendNameAuto,
	}
}

// LoadConfig loads audio configuration from environment variables
// Malformed values keep their defaults
func LoadConfig() *Config {
	cfg := DefaultConfig()

	if enabled := os.Getenv("SOUNDSCAPE_AUDIO_ENABLED"); enabled != "" {
		if val, err := strconv.ParseBool(enabled); err == nil {
			cfg.Enabled = val
		}
	}

	// Load master volume (0-100 converted to 0.0-1.0)
	if volume := os.Getenv("SOUNDSCAPE_MASTER_VOLUME"); volume != "" {
		if val, err := strconv.Atoi(volume); err == nil {
			cfg.MasterVolume = clampUnit(float64(val) / 100.0)
		}
	}

	if sampleRate := os.Getenv("SOUNDSCAPE_SAMPLE_RATE"); sampleRate != "" {
		if val, err := strconv.Atoi(sampleRate); err == nil && val > 0 {
			cfg.SampleRate = val
		}
	}

	if backend := os.Getenv("SOUNDSCAPE_BACKEND"); backend != "" {
		if name, ok := ParseBackendName(backend); ok {
			cfg.Backend = name
		}
	}

	if path := os.Getenv("SOUNDSCAPE_THEMES"); path != "" {
		cfg.ThemesPath = path
	}

	return cfg
}

// ParseBackendName normalizes a backend name
func ParseBackendName(s string) (string, bool) {
	switch name := strings.ToLower(strings.TrimSpace(s)); name {
	case BackendNameAuto, BackendNameSpeaker, BackendNamePipe, BackendNameNone:
		return name, true
	default:
		return "", false
	}
}

func clampUnit(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
