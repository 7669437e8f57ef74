package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"math/rand"
	"os"
	"strconv"
	"time"

	"github.com/lixenwraith/soundscape/audio"
	"github.com/lixenwraith/soundscape/parameter"
	"github.com/lixenwraith/soundscape/theme"
)

type options struct {
	theme      string
	duration   time.Duration
	themesPath string
	renderPath string
	seed       int64
	backend    string
	list       bool
	debug      bool
}

func parseOptions(args []string, stderr io.Writer) (*options, error) {
	fs := flag.NewFlagSet("soundscape", flag.ContinueOnError)
	fs.SetOutput(stderr)

	opts := &options{}
	fs.StringVar(&opts.theme, "theme", "0", "Theme name or catalog index")
	fs.DurationVar(&opts.duration, "duration", parameter.DefaultSessionLimit, "Session length before fade-out")
	fs.StringVar(&opts.themesPath, "themes", "", "YAML theme catalog (default: built-in, or $SOUNDSCAPE_THEMES)")
	fs.StringVar(&opts.renderPath, "render", "", "Render the session to a WAV file instead of playing it")
	fs.Int64Var(&opts.seed, "seed", 0, "Random seed (0: time based)")
	fs.StringVar(&opts.backend, "backend", "", "Audio backend: auto, speaker, pipe, none (default: $SOUNDSCAPE_BACKEND or auto)")
	fs.BoolVar(&opts.list, "list", false, "List catalog themes and exit")
	fs.BoolVar(&opts.debug, "debug", false, "Write debug log to logs/soundscape.log")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 {
		return nil, fmt.Errorf("unexpected argument %q", fs.Arg(0))
	}
	if opts.duration <= 0 {
		return nil, fmt.Errorf("duration must be positive, got %v", opts.duration)
	}
	if opts.backend != "" {
		name, ok := audio.ParseBackendName(opts.backend)
		if !ok {
			return nil, fmt.Errorf("unknown backend %q", opts.backend)
		}
		opts.backend = name
	}
	return opts, nil
}

// loadCatalog reads a YAML catalog when a path is given, else the built-in themes
func loadCatalog(path string) (*theme.Catalog, error) {
	if path == "" {
		return theme.Default(), nil
	}
	return theme.LoadFile(path)
}

// resolveTheme accepts a theme name or an integer index; any integer is valid
func resolveTheme(c *theme.Catalog, sel string) (int, error) {
	if i, err := strconv.Atoi(sel); err == nil {
		return i, nil
	}
	if i, ok := c.Index(sel); ok {
		return i, nil
	}
	return 0, fmt.Errorf("%w: no theme named %q", theme.ErrInvalidTheme, sel)
}

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	opts, err := parseOptions(args, os.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		fmt.Fprintf(os.Stderr, "soundscape: %v\n", err)
		return 2
	}

	if logFile := setupLogging(opts.debug); logFile != nil {
		defer logFile.Close()
	}

	cfg := audio.LoadConfig()
	if opts.backend != "" {
		cfg.Backend = opts.backend
	}
	if opts.themesPath != "" {
		cfg.ThemesPath = opts.themesPath
	}

	catalog, err := loadCatalog(cfg.ThemesPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "soundscape: %v\n", err)
		return 1
	}

	if opts.list {
		for i, name := range catalog.Names() {
			th := catalog.Get(i)
			fmt.Printf("%2d  %-16s %-6s %d notes\n", i, name, th.Timbre, len(th.Scale))
		}
		return 0
	}

	index, err := resolveTheme(catalog, opts.theme)
	if err != nil {
		fmt.Fprintf(os.Stderr, "soundscape: %v\n", err)
		return 1
	}

	seed := opts.seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))
	log.Printf("soundscape: seed %d, theme %q", seed, catalog.Get(index).Name)

	if opts.renderPath != "" {
		if err := renderToFile(opts.renderPath, catalog, index, opts.duration, rng, cfg.SampleRate); err != nil {
			fmt.Fprintf(os.Stderr, "soundscape: render failed: %v\n", err)
			return 1
		}
		fmt.Printf("Rendered %v of %q to %s\n", opts.duration, catalog.Get(index).Name, opts.renderPath)
		return 0
	}

	// Missing audio degrades to an inert engine; the session UI still runs
	ctx, err := audio.OpenContext(cfg)
	if err != nil {
		log.Printf("soundscape: audio unavailable: %v", err)
		ctx = nil
	}

	if err := runInteractive(ctx, catalog, index, opts.duration, rng); err != nil {
		fmt.Fprintf(os.Stderr, "soundscape: %v\n", err)
		return 1
	}
	return 0
}
