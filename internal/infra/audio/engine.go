package audio

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/effects"
	"github.com/gopxl/beep/v2/flac"
	"github.com/gopxl/beep/v2/mp3"
	"github.com/gopxl/beep/v2/speaker"
	"github.com/gopxl/beep/v2/vorbis"
	"github.com/gopxl/beep/v2/wav"
	"github.com/mitchellh/mapstructure"
	zlog "github.com/rs/zerolog/log"
)

// Settings configures the speaker engine. It is decoded from the opaque
// audio settings map of the application config.
type Settings struct {
	SampleRate      int `yaml:"sample_rate" mapstructure:"sample_rate" default:"44100" validate:"gte=8000,lte=192000"`
	BufferMs        int `yaml:"buffer_ms" mapstructure:"buffer_ms" default:"100" validate:"gte=10,lte=2000"`
	ResampleQuality int `yaml:"resample_quality" mapstructure:"resample_quality" default:"4" validate:"gte=1,lte=64"`
}

// The speaker is process-global; it is initialized once and every channel
// resamples to its rate.
var (
	speakerOnce sync.Once
	speakerRate beep.SampleRate
	speakerErr  error
)

// Engine is the speaker-backed audio backend.
type Engine struct {
	settings Settings
}

var _ Backend = (*Engine)(nil)

// NewEngine decodes and validates the settings map. The speaker itself
// starts lazily on the first OpenChannel.
func NewEngine(settings map[string]any) (*Engine, error) {
	var s Settings

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:  &s,
		TagName: "mapstructure",
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to create decoder")
	}
	if err := decoder.Decode(settings); err != nil {
		return nil, errors.Wrap(err, "failed to decode audio settings")
	}

	if err := defaults.Set(&s); err != nil {
		return nil, errors.Wrap(err, "failed to set defaults")
	}

	validate := validator.New()
	if err := validate.Struct(s); err != nil {
		return nil, errors.Wrap(err, "audio settings validation failed")
	}

	zlog.Debug().Msgf("audio: engine settings: rate=%d buffer_ms=%d quality=%d",
		s.SampleRate, s.BufferMs, s.ResampleQuality)
	return &Engine{settings: s}, nil
}

// OpenChannel starts the speaker if needed and returns a fresh channel on it.
func (e *Engine) OpenChannel() (Channel, error) {
	rate := beep.SampleRate(e.settings.SampleRate)
	speakerOnce.Do(func() {
		speakerErr = speaker.Init(rate, rate.N(time.Duration(e.settings.BufferMs)*time.Millisecond))
		if speakerErr == nil {
			speakerRate = rate
		}
	})
	if speakerErr != nil {
		return nil, errors.Wrap(speakerErr, "failed to open output device")
	}

	ctrl := &beep.Ctrl{}
	return &speakerChannel{
		ctrl:    ctrl,
		vol:     &effects.Volume{Streamer: ctrl, Base: 2},
		quality: e.settings.ResampleQuality,
		stop:    make(chan struct{}),
	}, nil
}

// OpenSource opens the file at location and picks a decoder by extension.
func (e *Engine) OpenSource(location string) (Source, error) {
	f, err := os.Open(location)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open %s", location)
	}

	var (
		streamer beep.StreamSeekCloser
		format   beep.Format
	)
	ext := strings.ToLower(filepath.Ext(location))
	switch ext {
	case ".mp3":
		streamer, format, err = mp3.Decode(f)
	case ".wav":
		streamer, format, err = wav.Decode(f)
	case ".flac":
		streamer, format, err = flac.Decode(f)
	case ".ogg":
		streamer, format, err = vorbis.Decode(f)
	default:
		_ = f.Close()
		return nil, errors.Newf("unsupported format: %s", ext)
	}
	if err != nil {
		_ = f.Close()
		return nil, errors.Wrapf(err, "failed to decode %s", location)
	}

	return &fileSource{
		file:     f,
		streamer: streamer,
		format:   format,
		duration: format.SampleRate.D(streamer.Len()),
	}, nil
}

// fileSource is a decoded audio file.
type fileSource struct {
	file     *os.File
	streamer beep.StreamSeekCloser
	format   beep.Format
	duration time.Duration
}

func (s *fileSource) Duration() time.Duration {
	return s.duration
}

func (s *fileSource) Close() error {
	err := s.streamer.Close()
	_ = s.file.Close()
	return err
}

// speakerChannel renders sources through the global speaker. The pause
// ctrl and volume stage persist across all sources played on the channel.
type speakerChannel struct {
	ctrl    *beep.Ctrl
	vol     *effects.Volume
	quality int

	stop     chan struct{}
	stopOnce sync.Once

	// Guarded by the speaker lock.
	cur       beep.StreamSeeker
	curFormat beep.Format
}

// Play hands the source to the speaker and blocks until it drains or the
// channel is stopped. Stopping detaches the streamer under the speaker
// lock, which drains the chain and fires the completion callback.
func (c *speakerChannel) Play(src Source) error {
	s, ok := src.(*fileSource)
	if !ok {
		return errors.Newf("source %T was not produced by this backend", src)
	}

	select {
	case <-c.stop:
		return nil
	default:
	}

	streamer := beep.Streamer(s.streamer)
	if s.format.SampleRate != speakerRate {
		streamer = beep.Resample(c.quality, s.format.SampleRate, speakerRate, s.streamer)
	}

	done := make(chan struct{})
	speaker.Lock()
	c.ctrl.Streamer = streamer
	c.cur = s.streamer
	c.curFormat = s.format
	speaker.Unlock()

	speaker.Play(beep.Seq(c.vol, beep.Callback(func() {
		close(done)
	})))

	select {
	case <-done:
	case <-c.stop:
		// Stop may have raced with the attach above; detach so nothing
		// keeps sounding on a stopped channel.
		speaker.Lock()
		c.ctrl.Streamer = nil
		speaker.Unlock()
	}

	speaker.Lock()
	if c.cur == s.streamer {
		c.cur = nil
	}
	speaker.Unlock()
	return nil
}

func (c *speakerChannel) Pause() {
	speaker.Lock()
	c.ctrl.Paused = true
	speaker.Unlock()
}

func (c *speakerChannel) Resume() {
	speaker.Lock()
	c.ctrl.Paused = false
	speaker.Unlock()
}

func (c *speakerChannel) IsPaused() bool {
	speaker.Lock()
	paused := c.ctrl.Paused
	speaker.Unlock()
	return paused
}

func (c *speakerChannel) Stop() {
	c.stopOnce.Do(func() {
		speaker.Lock()
		c.ctrl.Streamer = nil
		c.cur = nil
		speaker.Unlock()
		close(c.stop)
	})
}

// SetVolume maps v in [0, 1] onto the Base-2 volume stage; zero mutes.
func (c *speakerChannel) SetVolume(v float64) {
	if v < 0 {
		v = 0
	}
	if v > 1 {
		v = 1
	}
	speaker.Lock()
	c.vol.Volume = v*2 - 1
	c.vol.Silent = v == 0
	speaker.Unlock()
}

func (c *speakerChannel) Position() time.Duration {
	speaker.Lock()
	defer speaker.Unlock()
	if c.cur == nil {
		return 0
	}
	return c.curFormat.SampleRate.D(c.cur.Position())
}

func (c *speakerChannel) Close() error {
	c.Stop()
	return nil
}
