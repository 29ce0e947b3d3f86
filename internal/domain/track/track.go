// Package track provides the Track domain entity and the active-track record.
package track

// Track represents one playable item.
// Immutable; callers create it and it is copied by value into queues.
type Track struct {
	Name     string // Display name
	Location string // Path or locator the audio backend can open
}

// New creates a track from a display name and a resource location.
func New(name, location string) Track {
	return Track{Name: name, Location: location}
}
