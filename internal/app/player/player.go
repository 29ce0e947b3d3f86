package player

import (
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/phono/internal/domain/queue"
	"github.com/osa030/phono/internal/domain/track"
	"github.com/osa030/phono/internal/infra/audio"
)

// Errors
var (
	ErrNoBackend = errors.New("audio backend is required")
)

// Config holds player configuration.
type Config struct {
	Volume        float64 `default:"0.5" validate:"gte=0,lte=1"` // Initial volume
	Mode          Mode    // Initial playback mode
	QueueCapacity int     `default:"1000" validate:"gt=0"` // Max entries per queue
	EventBuffer   int     `default:"16" validate:"gt=0"`   // Per-subscriber event buffer
}

// Player owns the playback state: waiting and played queues, the
// active-track record, volume, mode and the output channel, all behind
// one reader/writer lock. At most one background worker drives playback
// at a time; every control call is safe from any goroutine, including
// while a track is mid-play.
type Player struct {
	mu sync.RWMutex

	// Queues
	waiting *queue.Bounded[track.Track]
	played  *queue.Bounded[track.Track]

	// Current track state
	active track.ActiveTrack
	volume float64
	mode   Mode

	// Output
	backend audio.Backend
	factory audio.Factory
	channel audio.Channel

	// Worker bookkeeping
	running bool
	halt    bool
	sess    *Session

	// Events
	eventBuf    int
	subscribers map[string]chan Event
}

// New creates a player on the given backend.
func New(backend audio.Backend, cfg Config) (*Player, error) {
	if backend == nil {
		return nil, ErrNoBackend
	}
	if err := defaults.Set(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to set defaults")
	}
	validate := validator.New()
	if err := validate.Struct(cfg); err != nil {
		return nil, errors.Wrap(err, "player config validation failed")
	}

	return &Player{
		waiting:     queue.NewBounded[track.Track](cfg.QueueCapacity),
		played:      queue.NewBounded[track.Track](cfg.QueueCapacity),
		volume:      cfg.Volume,
		mode:        cfg.Mode,
		backend:     backend,
		factory:     backend.OpenChannel,
		eventBuf:    cfg.EventBuffer,
		subscribers: make(map[string]chan Event),
	}, nil
}

// Add appends a track to the waiting queue. It never fails; at capacity
// the oldest entry is silently evicted.
func (p *Player) Add(t track.Track) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.waiting.Push(t)
	zlog.Debug().Msgf("player: queued track: name=%s waiting=%d", t.Name, p.waiting.Len())
}

// AddAll appends multiple tracks under a single lock acquisition.
func (p *Player) AddAll(ts []track.Track) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, t := range ts {
		p.waiting.Push(t)
	}
	zlog.Debug().Msgf("player: queued %d tracks: waiting=%d", len(ts), p.waiting.Len())
}

// Waiting returns a snapshot copy of the waiting queue.
func (p *Player) Waiting() []track.Track {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.waiting.Items()
}

// Played returns a snapshot copy of the played history.
func (p *Player) Played() []track.Track {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.played.Items()
}

// CurrentTrack returns a snapshot copy of the active-track record.
func (p *Player) CurrentTrack() track.ActiveTrack {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.active.Clone()
}

// IsPlaying reports whether a track is loaded and playing. It stays true
// while the channel is merely paused, so Play during a pause remains a
// no-op.
func (p *Player) IsPlaying() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.active.State == track.StatePlaying
}

// Mode returns the playback mode.
func (p *Player) Mode() Mode {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.mode
}

// SetMode sets the playback mode. An in-progress session picks it up on
// the next loop iteration; the current track is never aborted.
func (p *Player) SetMode(m Mode) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.mode == m {
		return
	}
	p.mode = m
	p.publishLocked(Event{Type: EventModeChanged})
	zlog.Debug().Msgf("player: mode changed: mode=%s", m)
}

// SetFactory replaces the output-channel factory. Only sessions started
// after the call use it; nil restores the backend default.
func (p *Player) SetFactory(f audio.Factory) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if f == nil {
		f = p.backend.OpenChannel
	}
	p.factory = f
}

// Volume returns the current volume.
func (p *Player) Volume() float64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.volume
}

// SetVolume clamps v to [0, 1], stores it and applies it to the live
// channel if one exists.
func (p *Player) SetVolume(v float64) {
	if v < 0 {
		v = 0
	}
	if v > 1 {
		v = 1
	}

	p.mu.Lock()
	p.volume = v
	ch := p.channel
	p.publishLocked(Event{Type: EventVolumeChanged})
	p.mu.Unlock()

	if ch != nil {
		ch.SetVolume(v)
	}
}

// Toggle flips the live channel between paused and playing. A no-op
// without a channel; player state is untouched either way.
func (p *Player) Toggle() {
	ch := p.liveChannel()
	if ch == nil {
		return
	}
	if ch.IsPaused() {
		ch.Resume()
	} else {
		ch.Pause()
	}
}

// Pause suspends the live channel.
func (p *Player) Pause() {
	if ch := p.liveChannel(); ch != nil {
		ch.Pause()
	}
}

// Resume continues the live channel.
func (p *Player) Resume() {
	if ch := p.liveChannel(); ch != nil {
		ch.Resume()
	}
}

// IsPaused reports whether the live channel is paused.
func (p *Player) IsPaused() bool {
	ch := p.liveChannel()
	return ch != nil && ch.IsPaused()
}

// Position returns the playback position within the current track.
func (p *Player) Position() time.Duration {
	p.mu.RLock()
	ch := p.channel
	playing := p.active.State == track.StatePlaying
	p.mu.RUnlock()

	if ch == nil || !playing {
		return 0
	}
	return ch.Position()
}

// liveChannel snapshots the output channel under shared access so the
// caller can signal it without holding the player lock.
func (p *Player) liveChannel() audio.Channel {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.channel
}

// Stop aborts the whole session, not just the current track: the live
// channel is signalled to halt, the in-flight track is discarded and
// both queues are cleared. A no-op when nothing was ever played, apart
// from the queues being emptied.
func (p *Player) Stop() {
	p.mu.Lock()
	ch := p.channel
	if p.running {
		// The worker checks this before recording the aborted track
		p.halt = true
	}
	p.waiting.Clear()
	p.played.Clear()
	p.publishLocked(Event{Type: EventStopped})
	p.mu.Unlock()

	if ch != nil {
		ch.Stop()
	}
	zlog.Debug().Msg("player: stopped")
}

// Clear empties both queues, leaving the active track and the channel
// alone.
func (p *Player) Clear() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.waiting.Clear()
	p.played.Clear()
}

// Play starts a playback session and returns its handle. While a session
// is already running, or when the waiting queue is empty, it returns an
// already-completed handle and changes nothing: sessions are never
// queued or stacked.
func (p *Player) Play() *Session {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.running {
		return completedSession()
	}
	if p.waiting.Len() == 0 {
		return completedSession()
	}

	sess := newSession()
	p.running = true
	p.halt = false
	p.sess = sess
	go p.run(sess)

	zlog.Debug().Msgf("player: session starting: id=%s waiting=%d", sess.ID, p.waiting.Len())
	return sess
}

// Close stops playback, waits for the worker to exit and releases the
// output channel. The player is not reusable afterwards.
func (p *Player) Close() error {
	p.mu.Lock()
	sess := p.sess
	ch := p.channel
	if p.running {
		p.halt = true
	}
	p.mu.Unlock()

	if ch != nil {
		ch.Stop()
	}
	if sess != nil {
		<-sess.Done()
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.channel != nil {
		_ = p.channel.Close()
		p.channel = nil
	}
	p.subscribers = make(map[string]chan Event)
	return nil
}

// run drives one session and records its outcome.
func (p *Player) run(sess *Session) {
	err := p.session()

	p.mu.Lock()
	p.running = false
	p.halt = false
	p.sess = nil
	p.publishLocked(Event{Type: EventSessionEnded, Err: err})
	p.mu.Unlock()

	sess.finish(err)
	if err != nil {
		zlog.Error().Err(err).Msgf("player: session failed: id=%s", sess.ID)
		return
	}
	zlog.Debug().Msgf("player: session ended: id=%s", sess.ID)
}

// session is the worker loop: open the output channel once, then pop,
// decode, play and record until the queue drains, the mode says stop,
// Stop is called or the backend fails.
func (p *Player) session() error {
	p.mu.Lock()
	if p.halt {
		// Stopped before the session could start
		p.mu.Unlock()
		return nil
	}
	ch, err := p.factory()
	if err != nil {
		p.mu.Unlock()
		return errors.Wrap(err, "failed to open output channel")
	}
	if prev := p.channel; prev != nil {
		// Stale channel from the previous session
		_ = prev.Close()
	}
	p.channel = ch
	ch.SetVolume(p.volume)
	p.publishLocked(Event{Type: EventSessionStarted})
	p.mu.Unlock()

	for {
		p.mu.Lock()
		t, ok := p.waiting.Pop()
		p.mu.Unlock()
		if !ok {
			// Queue drained; the active record keeps its last value
			return nil
		}

		// Decode outside the lock
		src, err := p.backend.OpenSource(t.Location)
		if err != nil {
			// The popped track stays consumed; nothing else changes
			return errors.Wrapf(err, "failed to open track %q", t.Name)
		}

		p.mu.Lock()
		cur := t
		p.active = track.ActiveTrack{
			Track:    &cur,
			State:    track.StatePlaying,
			Duration: src.Duration(),
		}
		p.publishLocked(trackEvent(EventTrackStarted, t))
		p.mu.Unlock()

		zlog.Debug().Msgf("player: playing track: name=%s duration=%v", t.Name, src.Duration())

		// Snapshot the channel under shared access and block outside the
		// lock, so Stop and Toggle on other goroutines reach the same
		// channel while this call is in flight.
		p.mu.RLock()
		out := p.channel
		p.mu.RUnlock()
		playErr := out.Play(src)
		_ = src.Close()

		p.mu.Lock()
		p.active.Progress = p.active.Duration
		p.active.State = track.StateStopped
		p.active.Track = nil
		halted := p.halt
		if !halted && playErr == nil {
			p.played.Push(t)
			p.publishLocked(trackEvent(EventTrackFinished, t))
		}
		mode := p.mode
		p.mu.Unlock()

		if playErr != nil {
			return errors.Wrapf(playErr, "playback failed for %q", t.Name)
		}
		if halted || mode == ModeNormal {
			return nil
		}
	}
}
