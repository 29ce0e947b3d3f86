// Package main provides the phono entry point.
package main

import (
	"fmt"
	"os"

	"github.com/alecthomas/kingpin/v2"
	"github.com/cockroachdb/errors"
	"github.com/joho/godotenv"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/phono/internal/app/library"
	"github.com/osa030/phono/internal/app/player"
	"github.com/osa030/phono/internal/infra/audio"
	"github.com/osa030/phono/internal/infra/config"
	"github.com/osa030/phono/internal/infra/logger"
)

var (
	app        = kingpin.New("phono", "Console music player")
	configPath = app.Flag("config", "Path to config file").String()
	verbose    = app.Flag("verbose", "Enable verbose (DEBUG) logging").Short('v').Bool()
	logfile    = app.Flag("logfile", "Path to log file").String()
	paths      = app.Arg("paths", "Tracks or directories to queue on startup").Strings()
)

func main() {
	// Load .env file if it exists (errors are ignored)
	_ = godotenv.Load()

	kingpin.MustParse(app.Parse(os.Args[1:]))

	// Load config
	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Override with command-line flags if specified
	if *verbose {
		cfg.Log.Level = "debug"
	}
	if *logfile != "" {
		cfg.Log.Output = "file"
		cfg.Log.File = *logfile
	}
	if err := logger.Init(logger.Config{
		Output: cfg.Log.Output,
		Level:  cfg.Log.Level,
		File:   cfg.Log.File,
	}); err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}

	if err := run(cfg, *paths); err != nil {
		zlog.Error().Msgf("phono error: %v", err)
		os.Exit(1)
	}
}

// loadConfig reads the flagged config file, then the conventional
// location, and falls back to built-in defaults.
func loadConfig() (*config.Config, error) {
	if *configPath != "" {
		return config.Load(*configPath)
	}
	if path := config.DefaultPath(); fileExists(path) {
		return config.Load(path)
	}
	return config.Default()
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// run wires the player and hands control to the console. Using a
// separate function ensures defer statements are executed even when
// returning with an error.
func run(cfg *config.Config, args []string) error {
	engine, err := audio.NewEngine(cfg.Audio.Settings)
	if err != nil {
		return errors.Wrap(err, "failed to create audio engine")
	}

	mode, err := player.ParseMode(cfg.Player.Mode)
	if err != nil {
		return err
	}

	p, err := player.New(engine, player.Config{
		Volume:        cfg.Player.Volume,
		Mode:          mode,
		QueueCapacity: cfg.Player.QueueCapacity,
	})
	if err != nil {
		return errors.Wrap(err, "failed to create player")
	}
	defer func() {
		if err := p.Close(); err != nil {
			zlog.Warn().Err(err).Msg("phono: player close failed")
		}
	}()

	scanner := newScanner(cfg)

	// Queue whatever was passed on the command line
	for _, arg := range args {
		tracks, err := scanner.ScanDir(arg)
		if err != nil {
			zlog.Warn().Msgf("phono: skipping %s: %v", arg, err)
			continue
		}
		p.AddAll(tracks)
	}

	// Session outcomes go to the log so they never collide with the prompt
	id, events := p.Subscribe()
	defer p.Unsubscribe(id)
	go logEvents(events)

	return newConsole(p, scanner, cfg.Library.Roots).Run()
}

func newScanner(cfg *config.Config) *library.Scanner {
	exts := cfg.Library.Extensions
	if len(exts) == 0 {
		exts = library.DefaultExtensions
	}
	return library.NewScanner(&library.HiddenFilter{}, library.NewExtensionFilter(exts...))
}

// logEvents reports playback milestones for the lifetime of the process.
func logEvents(events <-chan player.Event) {
	for e := range events {
		switch e.Type {
		case player.EventTrackStarted:
			zlog.Info().Msgf("phono: now playing: name=%s", e.Track.Name)
		case player.EventSessionEnded:
			if e.Err != nil {
				zlog.Error().Err(e.Err).Msg("phono: playback session failed")
			}
		}
	}
}
