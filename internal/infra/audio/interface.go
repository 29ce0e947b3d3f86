// Package audio provides the output backend boundary and its implementations.
package audio

import "time"

// Source is a decoded, playable audio stream.
type Source interface {
	// Duration returns the total length, or zero when unknown.
	Duration() time.Duration
	// Close releases the underlying resources.
	Close() error
}

// Channel is a live output session. A channel renders one source at a
// time; the same channel is reused for every source of a playback session.
type Channel interface {
	// Play renders the source to completion. It blocks until the source
	// finishes or the channel is stopped, and returns nil in both cases.
	Play(src Source) error
	// Pause suspends playback without losing position.
	Pause()
	// Resume continues paused playback.
	Resume()
	// IsPaused reports whether playback is suspended.
	IsPaused() bool
	// Stop halts the channel for good: a blocked Play returns promptly
	// and future Play calls return immediately. Idempotent.
	Stop()
	// SetVolume sets the output volume in [0, 1].
	SetVolume(v float64)
	// Position returns the playback position within the current source.
	Position() time.Duration
	// Close stops the channel and releases it.
	Close() error
}

// Backend produces output channels and decodes resources into sources.
type Backend interface {
	OpenChannel() (Channel, error)
	OpenSource(location string) (Source, error)
}

// Factory produces a fresh output channel. It is the replaceable device
// maker; Backend.OpenChannel is the default.
type Factory func() (Channel, error)
