package player

import (
	"github.com/google/uuid"

	"github.com/osa030/phono/internal/domain/track"
)

// EventType represents a playback event type.
type EventType int

const (
	EventSessionStarted EventType = iota // Worker opened the output channel
	EventTrackStarted                    // Track started playing
	EventTrackFinished                   // Track finished playing
	EventSessionEnded                    // Worker exited
	EventStopped                         // Stop was called
	EventModeChanged                     // Playback mode changed
	EventVolumeChanged                   // Volume changed
)

// String returns the string representation of the event type.
func (e EventType) String() string {
	switch e {
	case EventSessionStarted:
		return "session_started"
	case EventTrackStarted:
		return "track_started"
	case EventTrackFinished:
		return "track_finished"
	case EventSessionEnded:
		return "session_ended"
	case EventStopped:
		return "stopped"
	case EventModeChanged:
		return "mode_changed"
	case EventVolumeChanged:
		return "volume_changed"
	default:
		return "unknown"
	}
}

// Event represents a playback event.
type Event struct {
	Type  EventType
	Track *track.Track // Track concerned, nil for session-level events
	Err   error        // Session failure, set on EventSessionEnded
}

// Subscribe registers a new event subscriber and returns its ID and
// channel. Delivery never blocks: a subscriber that stops draining its
// channel loses events.
func (p *Player) Subscribe() (string, <-chan Event) {
	p.mu.Lock()
	defer p.mu.Unlock()

	id := uuid.New().String()
	ch := make(chan Event, p.eventBuf)
	p.subscribers[id] = ch
	return id, ch
}

// Unsubscribe removes a subscriber. The channel is abandoned, not closed,
// so a receiver can never see a send on a closed channel.
func (p *Player) Unsubscribe(id string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.subscribers, id)
}

// trackEvent builds an event around its own copy of t, so subscribers
// never share a pointer with the player state.
func trackEvent(typ EventType, t track.Track) Event {
	return Event{Type: typ, Track: &t}
}

// publishLocked delivers e to every subscriber without blocking.
// Must be called with mu held.
func (p *Player) publishLocked(e Event) {
	for _, ch := range p.subscribers {
		select {
		case ch <- e:
		default:
			// Subscriber is not draining, drop
		}
	}
}
