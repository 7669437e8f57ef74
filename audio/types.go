package audio

import (
	"errors"
)

// BackendType identifies the pipe output backend
type BackendType int

const (
	BackendPulse BackendType = iota
	BackendPipeWire
	BackendALSA
	BackendSoX
	BackendFFplay
	BackendOSS
)

func (b BackendType) String() string {
	switch b {
	case BackendPulse:
		return "PulseAudio"
	case BackendPipeWire:
		return "PipeWire"
	case BackendALSA:
		return "ALSA"
	case BackendSoX:
		return "SoX"
	case BackendFFplay:
		return "FFplay"
	case BackendOSS:
		return "OSS"
	default:
		return "unknown"
	}
}

// BackendConfig describes a CLI audio backend
type BackendConfig struct {
	Type BackendType
	Name string
	Path string
	Args []string
}

// Sentinel errors
var (
	ErrNoAudioBackend    = errors.New("no compatible audio backend found")
	ErrAudioDisabled     = errors.New("audio disabled by configuration")
	ErrPipeClosed        = errors.New("audio pipe closed")
	ErrContextClosed     = errors.New("audio context closed")
	ErrNonPositiveTarget = errors.New("exponential ramp target must be positive")
	ErrFrequencyRange    = errors.New("frequency outside playable range")
)
