package track

import "time"

// ActiveTrack is the single "now playing" record.
// The zero value means nothing was ever loaded (Track nil, StateNone).
// It is replaced wholesale when a track starts and mutated in place when
// playback finishes; it represents the present, not history.
type ActiveTrack struct {
	Track    *Track        // Loaded track, nil when none
	State    State         // Lifecycle state
	Progress time.Duration // Elapsed playback time
	Duration time.Duration // Total length, zero when unknown
}

// Clone returns a snapshot copy that shares no pointers with the original.
func (a ActiveTrack) Clone() ActiveTrack {
	c := a
	if a.Track != nil {
		t := *a.Track
		c.Track = &t
	}
	return c
}
