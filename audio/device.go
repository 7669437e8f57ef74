package audio

import (
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/speaker"

	"github.com/lixenwraith/soundscape/parameter"
)

// Device is a platform audio output that pulls from one root streamer
type Device interface {
	SampleRate() beep.SampleRate
	Start(src beep.Streamer) error
	Close() error
}

// OpenContext opens the configured backend and attaches a suspended Context
// "auto" tries the speaker first and falls back to a pipe player
func OpenContext(cfg *Config) (*Context, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if !cfg.Enabled {
		return nil, ErrAudioDisabled
	}

	rate := beep.SampleRate(cfg.SampleRate)
	var candidates []func() (Device, error)

	speakerDev := func() (Device, error) { return NewSpeakerDevice(rate), nil }
	pipeDev := func() (Device, error) {
		backend, err := DetectBackend(cfg.SampleRate)
		if err != nil {
			return nil, err
		}
		return NewPipeDevice(backend, rate), nil
	}

	switch cfg.Backend {
	case BackendNameNone:
		return nil, ErrAudioDisabled
	case BackendNameSpeaker:
		candidates = append(candidates, speakerDev)
	case BackendNamePipe:
		candidates = append(candidates, pipeDev)
	default:
		candidates = append(candidates, speakerDev, pipeDev)
	}

	var errs []error
	for _, open := range candidates {
		dev, err := open()
		if err != nil {
			errs = append(errs, err)
			continue
		}
		ctx, err := NewContext(dev, cfg.MasterVolume)
		if err != nil {
			log.Printf("audio: backend start failed: %v", err)
			errs = append(errs, err)
			continue
		}
		if p, ok := dev.(*PipeDevice); ok {
			log.Printf("audio: playing through %s", p.Backend().Name)
			go p.monitor(ctx)
		}
		return ctx, nil
	}
	return nil, fmt.Errorf("%w: %w", ErrNoAudioBackend, errors.Join(errs...))
}

// SpeakerDevice plays through beep/speaker (oto underneath)
// The speaker is process-global; only one SpeakerDevice may be started
type SpeakerDevice struct {
	rate beep.SampleRate

	mu      sync.Mutex
	started bool
}

// NewSpeakerDevice creates an unstarted speaker device
func NewSpeakerDevice(rate beep.SampleRate) *SpeakerDevice {
	return &SpeakerDevice{rate: rate}
}

func (d *SpeakerDevice) SampleRate() beep.SampleRate {
	return d.rate
}

// Start initializes the speaker and begins playback of src
func (d *SpeakerDevice) Start(src beep.Streamer) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.started {
		return fmt.Errorf("speaker device already started")
	}
	if err := speaker.Init(d.rate, d.rate.N(parameter.SpeakerBufferDuration)); err != nil {
		return err
	}
	speaker.Play(src)
	d.started = true
	return nil
}

// Close stops playback and releases the output
func (d *SpeakerDevice) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.started {
		return nil
	}
	speaker.Clear()
	speaker.Close()
	d.started = false
	return nil
}

// OfflineDevice renders on demand instead of in real time
// Used for file rendering and tests
type OfflineDevice struct {
	rate beep.SampleRate

	mu  sync.Mutex
	src beep.Streamer
}

// NewOfflineDevice creates a pull-driven device
func NewOfflineDevice(rate beep.SampleRate) *OfflineDevice {
	return &OfflineDevice{rate: rate}
}

func (d *OfflineDevice) SampleRate() beep.SampleRate {
	return d.rate
}

func (d *OfflineDevice) Start(src beep.Streamer) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.src != nil {
		return fmt.Errorf("offline device already started")
	}
	d.src = src
	return nil
}

func (d *OfflineDevice) Close() error {
	d.mu.Lock()
	d.src = nil
	d.mu.Unlock()
	return nil
}

// Render pulls len(samples) frames; missing frames are silence
func (d *OfflineDevice) Render(samples [][2]float64) {
	d.mu.Lock()
	src := d.src
	d.mu.Unlock()

	n := 0
	if src != nil {
		var ok bool
		n, ok = src.Stream(samples)
		if !ok {
			n = 0
		}
	}
	for i := n; i < len(samples); i++ {
		samples[i] = [2]float64{}
	}
}
