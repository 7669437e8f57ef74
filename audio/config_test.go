package audio

import (
	"errors"
	"testing"
)

// TestDefaultConfig verifies default configuration
func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if !cfg.Enabled {
		t.Error("Expected default config to have Enabled=true")
	}
	if cfg.MasterVolume != 1.0 {
		t.Errorf("Expected default master volume 1.0, got %f", cfg.MasterVolume)
	}
	if cfg.SampleRate != 44100 {
		t.Errorf("Expected default sample rate 44100, got %d", cfg.SampleRate)
	}
	if cfg.Backend != BackendNameAuto {
		t.Errorf("Expected backend auto, got %q", cfg.Backend)
	}
}

// TestLoadConfigEnv verifies environment overrides
func TestLoadConfigEnv(t *testing.T) {
	t.Setenv("SOUNDSCAPE_AUDIO_ENABLED", "false")
	t.Setenv("SOUNDSCAPE_MASTER_VOLUME", "40")
	t.Setenv("SOUNDSCAPE_SAMPLE_RATE", "48000")
	t.Setenv("SOUNDSCAPE_BACKEND", " Pipe ")
	t.Setenv("SOUNDSCAPE_THEMES", "/tmp/themes.yaml")

	cfg := LoadConfig()

	if cfg.Enabled {
		t.Error("Expected Enabled=false")
	}
	if cfg.MasterVolume != 0.4 {
		t.Errorf("Expected MasterVolume=0.4, got %f", cfg.MasterVolume)
	}
	if cfg.SampleRate != 48000 {
		t.Errorf("Expected SampleRate=48000, got %d", cfg.SampleRate)
	}
	if cfg.Backend != BackendNamePipe {
		t.Errorf("Expected backend pipe, got %q", cfg.Backend)
	}
	if cfg.ThemesPath != "/tmp/themes.yaml" {
		t.Errorf("Expected themes path, got %q", cfg.ThemesPath)
	}
}

// TestLoadConfigMalformed verifies bad values keep defaults or clamp
func TestLoadConfigMalformed(t *testing.T) {
	t.Setenv("SOUNDSCAPE_AUDIO_ENABLED", "maybe")
	t.Setenv("SOUNDSCAPE_MASTER_VOLUME", "250")
	t.Setenv("SOUNDSCAPE_SAMPLE_RATE", "-1")
	t.Setenv("SOUNDSCAPE_BACKEND", "jack")

	cfg := LoadConfig()
	def := DefaultConfig()

	if cfg.Enabled != def.Enabled {
		t.Errorf("Expected Enabled=%v, got %v", def.Enabled, cfg.Enabled)
	}
	if cfg.MasterVolume != 1.0 {
		t.Errorf("Expected volume clamped to 1.0, got %f", cfg.MasterVolume)
	}
	if cfg.SampleRate != def.SampleRate {
		t.Errorf("Expected SampleRate=%d, got %d", def.SampleRate, cfg.SampleRate)
	}
	if cfg.Backend != def.Backend {
		t.Errorf("Expected backend %q, got %q", def.Backend, cfg.Backend)
	}
}

// TestOpenContextDisabled verifies disabled configs never touch a device
func TestOpenContextDisabled(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Enabled = false
	if _, err := OpenContext(cfg); !errors.Is(err, ErrAudioDisabled) {
		t.Errorf("Expected ErrAudioDisabled, got %v", err)
	}

	cfg = DefaultConfig()
	cfg.Backend = BackendNameNone
	if _, err := OpenContext(cfg); !errors.Is(err, ErrAudioDisabled) {
		t.Errorf("Expected ErrAudioDisabled for backend none, got %v", err)
	}
}

// TestBackendTypeString verifies backend names
func TestBackendTypeString(t *testing.T) {
	tests := []struct {
		backend  BackendType
		expected string
	}{
		{BackendPulse, "PulseAudio"},
		{BackendPipeWire, "PipeWire"},
		{BackendALSA, "ALSA"},
		{BackendSoX, "SoX"},
		{BackendFFplay, "FFplay"},
		{BackendOSS, "OSS"},
	}

	for _, tt := range tests {
		if got := tt.backend.String(); got != tt.expected {
			t.Errorf("Expected %q, got %q", tt.expected, got)
		}
	}
}
