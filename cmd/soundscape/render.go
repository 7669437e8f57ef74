package main

import (
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/wav"

	"github.com/lixenwraith/soundscape/audio"
	"github.com/lixenwraith/soundscape/engine"
	"github.com/lixenwraith/soundscape/parameter"
	"github.com/lixenwraith/soundscape/status"
	"github.com/lixenwraith/soundscape/theme"
)

// offlineSession renders a session faster than real time
// The control clock is advanced to match every rendered block, so ticks and
// note start times land exactly where they would during playback
type offlineSession struct {
	device *audio.OfflineDevice
	clock  *engine.MockTimeProvider
	engine *engine.Engine
	rate   beep.SampleRate

	pos      int
	stopAt   int
	total    int
	advanced time.Duration
}

func newOfflineSession(catalog *theme.Catalog, index int, duration time.Duration, rng *rand.Rand, rate beep.SampleRate, reg *status.Registry) (*offlineSession, error) {
	dev := audio.NewOfflineDevice(rate)
	ctx, err := audio.NewContext(dev, 1)
	if err != nil {
		return nil, err
	}

	clock := engine.NewMockTimeProvider(time.Unix(0, 0))
	eng := engine.New(ctx,
		engine.WithCatalog(catalog),
		engine.WithClock(clock),
		engine.WithRand(rng),
		engine.WithRegistry(reg),
	)

	fade := time.Duration(parameter.SessionFadeOut * float64(time.Second))
	s := &offlineSession{
		device: dev,
		clock:  clock,
		engine: eng,
		rate:   rate,
		stopAt: rate.N(duration),
		total:  rate.N(duration + fade),
	}
	eng.Start(index)
	return s, nil
}

func (s *offlineSession) Stream(samples [][2]float64) (int, bool) {
	if s.pos >= s.total {
		return 0, false
	}

	n := len(samples)
	if left := s.total - s.pos; left < n {
		n = left
	}
	// Stop lands on a block boundary so the fade starts at the exact frame
	if s.pos < s.stopAt && s.pos+n > s.stopAt {
		n = s.stopAt - s.pos
	}

	s.device.Render(samples[:n])
	s.pos += n

	elapsed := s.rate.D(s.pos)
	s.clock.Advance(elapsed - s.advanced)
	s.advanced = elapsed

	if s.pos == s.stopAt {
		s.engine.Stop()
	}
	return n, true
}

func (s *offlineSession) Err() error { return nil }

func (s *offlineSession) Close() error {
	return s.engine.Close()
}

// renderToFile writes duration of the session plus its fade-out as 16-bit stereo WAV
func renderToFile(path string, catalog *theme.Catalog, index int, duration time.Duration, rng *rand.Rand, sampleRate int) error {
	rate := beep.SampleRate(sampleRate)
	sess, err := newOfflineSession(catalog, index, duration, rng, rate, status.NewRegistry())
	if err != nil {
		return err
	}
	defer sess.Close()

	f, err := os.Create(path)
	if err != nil {
		return err
	}

	format := beep.Format{
		SampleRate:  rate,
		NumChannels: parameter.AudioChannels,
		Precision:   parameter.AudioBitDepth / 8,
	}
	if err := wav.Encode(f, sess, format); err != nil {
		f.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return f.Close()
}
