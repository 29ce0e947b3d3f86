package audio

import (
	"sync"
	"time"

	"github.com/cockroachdb/errors"
)

// Mock is a scripted Backend for tests. Its channels finish sources
// instantly by default; after Gate, Play blocks until FinishCurrent or
// Stop, which lets tests hold a track mid-play.
type Mock struct {
	mu sync.Mutex

	gated      bool
	durations  map[string]time.Duration
	sourceErrs map[string]error
	channelErr error

	channels []*MockChannel
	opened   []string
}

var _ Backend = (*Mock)(nil)

// NewMock creates a mock backend whose channels finish sources instantly.
func NewMock() *Mock {
	return &Mock{
		durations:  make(map[string]time.Duration),
		sourceErrs: make(map[string]error),
	}
}

// Gate makes channels opened from now on block in Play until
// FinishCurrent or Stop.
func (m *Mock) Gate() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gated = true
}

// SetDuration scripts the duration reported for a location.
func (m *Mock) SetDuration(location string, d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.durations[location] = d
}

// FailSource scripts an OpenSource error for a location.
func (m *Mock) FailSource(location string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sourceErrs[location] = err
}

// FailChannel makes OpenChannel fail with err.
func (m *Mock) FailChannel(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.channelErr = err
}

func (m *Mock) OpenChannel() (Channel, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.channelErr != nil {
		return nil, m.channelErr
	}
	ch := &MockChannel{
		gated:  m.gated,
		stop:   make(chan struct{}),
		finish: make(chan struct{}, 1),
	}
	m.channels = append(m.channels, ch)
	return ch, nil
}

func (m *Mock) OpenSource(location string) (Source, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.opened = append(m.opened, location)
	if err := m.sourceErrs[location]; err != nil {
		return nil, err
	}
	return &MockSource{location: location, duration: m.durations[location]}, nil
}

// Opened returns the locations passed to OpenSource, in order.
func (m *Mock) Opened() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.opened))
	copy(out, m.opened)
	return out
}

// Channels returns every channel opened so far.
func (m *Mock) Channels() []*MockChannel {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*MockChannel, len(m.channels))
	copy(out, m.channels)
	return out
}

// LastChannel returns the most recently opened channel, or nil.
func (m *Mock) LastChannel() *MockChannel {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.channels) == 0 {
		return nil
	}
	return m.channels[len(m.channels)-1]
}

// FinishCurrent releases a Play blocked on the latest channel.
func (m *Mock) FinishCurrent() {
	if ch := m.LastChannel(); ch != nil {
		ch.Finish()
	}
}

// MockChannel records control calls and scripts Play completion.
type MockChannel struct {
	mu      sync.Mutex
	gated   bool
	paused  bool
	stopped bool
	closed  bool
	pos     time.Duration
	played  []string
	volumes []float64

	stop     chan struct{}
	finish   chan struct{}
	stopOnce sync.Once
}

var _ Channel = (*MockChannel)(nil)

func (c *MockChannel) Play(src Source) error {
	s, ok := src.(*MockSource)
	if !ok {
		return errors.Newf("source %T was not produced by this backend", src)
	}

	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		return nil
	}
	c.played = append(c.played, s.location)
	gated := c.gated
	c.mu.Unlock()

	if !gated {
		return nil
	}
	select {
	case <-c.finish:
	case <-c.stop:
	}
	return nil
}

// Finish releases one blocked Play. The token is buffered, so calling it
// just before Play blocks still releases that Play.
func (c *MockChannel) Finish() {
	select {
	case c.finish <- struct{}{}:
	default:
	}
}

func (c *MockChannel) Pause() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.paused = true
}

func (c *MockChannel) Resume() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.paused = false
}

func (c *MockChannel) IsPaused() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.paused
}

func (c *MockChannel) Stop() {
	c.stopOnce.Do(func() {
		c.mu.Lock()
		c.stopped = true
		c.mu.Unlock()
		close(c.stop)
	})
}

func (c *MockChannel) SetVolume(v float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.volumes = append(c.volumes, v)
}

func (c *MockChannel) Position() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pos
}

// SetPosition scripts the value Position reports.
func (c *MockChannel) SetPosition(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pos = d
}

func (c *MockChannel) Close() error {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
	c.Stop()
	return nil
}

// Played returns the locations played on this channel, in order.
func (c *MockChannel) Played() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.played))
	copy(out, c.played)
	return out
}

// Volumes returns every volume set on this channel, in order.
func (c *MockChannel) Volumes() []float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]float64, len(c.volumes))
	copy(out, c.volumes)
	return out
}

// Stopped reports whether Stop was called.
func (c *MockChannel) Stopped() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stopped
}

// Closed reports whether Close was called.
func (c *MockChannel) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// MockSource is a scripted source.
type MockSource struct {
	mu       sync.Mutex
	location string
	duration time.Duration
	closed   bool
}

var _ Source = (*MockSource)(nil)

func (s *MockSource) Duration() time.Duration {
	return s.duration
}

func (s *MockSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// Closed reports whether Close was called.
func (s *MockSource) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Location returns the location this source was opened from.
func (s *MockSource) Location() string {
	return s.location
}
