package main

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/lixenwraith/soundscape/audio"
	"github.com/lixenwraith/soundscape/core"
	"github.com/lixenwraith/soundscape/engine"
	"github.com/lixenwraith/soundscape/parameter"
	"github.com/lixenwraith/soundscape/theme"
)

const frameInterval = 100 * time.Millisecond

var (
	styleTitle = tcell.StyleDefault.Foreground(tcell.ColorTeal).Bold(true)
	styleTheme = tcell.StyleDefault.Foreground(tcell.ColorWhite).Bold(true)
	styleText  = tcell.StyleDefault.Foreground(tcell.ColorSilver)
	styleDim   = tcell.StyleDefault.Foreground(tcell.ColorGray)
	styleWarn  = tcell.StyleDefault.Foreground(tcell.ColorYellow)
)

// session is the terminal front-end: it owns the countdown and drives the engine
type session struct {
	screen  tcell.Screen
	engine  *engine.Engine
	catalog *theme.Catalog

	index     int
	active    bool // countdown running; tracks the engine even when it is inert
	limit     time.Duration
	remaining time.Duration
	lastFrame time.Time

	// Set once the countdown expires; the program exits after the fade-out
	exitAt time.Time
}

func runInteractive(ctx *audio.Context, catalog *theme.Catalog, index int, limit time.Duration, rng *rand.Rand) error {
	screen, err := tcell.NewScreen()
	if err != nil {
		return err
	}
	if err := screen.Init(); err != nil {
		return err
	}
	core.SetCrashHook(screen.Fini)
	defer core.SetCrashHook(nil)
	defer screen.Fini()

	eng := engine.New(ctx, engine.WithCatalog(catalog), engine.WithRand(rng))
	defer eng.Close()

	s := &session{
		screen:    screen,
		engine:    eng,
		catalog:   catalog,
		index:     index,
		limit:     limit,
		remaining: limit,
		lastFrame: time.Now(),
	}
	s.toggle()
	s.run()
	return nil
}

func (s *session) run() {
	ticker := time.NewTicker(frameInterval)
	defer ticker.Stop()

	eventChan := make(chan tcell.Event, 100)
	quit := make(chan struct{})
	defer close(quit)
	core.Go(func() {
		for {
			ev := s.screen.PollEvent()
			if ev == nil {
				return
			}
			select {
			case eventChan <- ev:
			case <-quit:
				return
			}
		}
	})

	s.draw()
	for {
		select {
		case ev := <-eventChan:
			if !s.handleInput(ev) {
				return
			}
			s.draw()

		case now := <-ticker.C:
			if !s.update(now) {
				return
			}
			s.draw()
		}
	}
}

// update advances the countdown; false once the final fade has finished
func (s *session) update(now time.Time) bool {
	elapsed := now.Sub(s.lastFrame)
	s.lastFrame = now

	if !s.exitAt.IsZero() {
		return now.Before(s.exitAt)
	}

	if s.active {
		s.remaining -= elapsed
	}
	if s.remaining <= 0 {
		s.remaining = 0
		s.active = false
		s.engine.Stop()
		s.exitAt = now.Add(time.Duration(parameter.SessionFadeOut * float64(time.Second)))
	}

	s.engine.Refresh()
	return true
}

func (s *session) handleInput(ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		switch ev.Key() {
		case tcell.KeyEscape, tcell.KeyCtrlC:
			return false
		case tcell.KeyRune:
			switch ev.Rune() {
			case 'q':
				return false
			case ' ':
				if s.exitAt.IsZero() {
					s.toggle()
				}
			case 'n':
				s.shift(1)
			case 'p':
				s.shift(-1)
			}
		}

	case *tcell.EventResize:
		s.screen.Sync()
	}
	return true
}

// toggle starts a session on the selected theme or fades the running one out
func (s *session) toggle() {
	if s.active {
		s.active = false
		s.engine.Stop()
		return
	}
	s.active = true
	s.engine.Start(s.index)
}

// shift selects a neighboring theme, applying it live when a session is running
func (s *session) shift(delta int) {
	s.index += delta
	s.engine.SetTheme(s.index)
}

func (s *session) draw() {
	s.screen.Clear()
	w, _ := s.screen.Size()

	th := s.catalog.Get(s.index)
	y := 1
	drawText(s.screen, 2, y, styleTitle, "soundscape")
	y += 2
	drawText(s.screen, 2, y, styleTheme, th.Name)
	drawText(s.screen, 2+len(th.Name)+2, y, styleDim,
		fmt.Sprintf("%s, %d notes, p=%.2f", th.Timbre, len(th.Scale), th.Probability))
	y++

	state := "stopped"
	switch {
	case !s.exitAt.IsZero():
		state = "fading out"
	case s.active:
		state = "playing"
	}
	drawText(s.screen, 2, y, styleText, fmt.Sprintf("%-10s %s", state, formatCountdown(s.remaining)))
	y++
	if s.engine.Inert() {
		drawText(s.screen, 2, y, styleWarn, "no audio output available")
	}
	y += 2

	for _, m := range s.engine.Registry().Snapshot() {
		drawText(s.screen, 2, y, styleDim, fmt.Sprintf("%-16s %s", m.Key, m.Value))
		y++
	}

	y++
	help := "space start/stop   n/p theme   q quit"
	if len(help)+2 > w {
		help = "spc n p q"
	}
	drawText(s.screen, 2, y, styleDim, help)

	s.screen.Show()
}

func drawText(screen tcell.Screen, x, y int, style tcell.Style, text string) {
	for _, r := range text {
		screen.SetContent(x, y, r, nil, style)
		x++
	}
}

// formatCountdown renders d as mm:ss, rounding up so the display reaches 00:00 only at expiry
func formatCountdown(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	secs := int((d + time.Second - 1) / time.Second)
	return fmt.Sprintf("%02d:%02d", secs/60, secs%60)
}
