// Package player provides the shared playback engine: a lock-guarded
// queue/state aggregate driven by a single background worker.
package player

import (
	"strings"

	"github.com/cockroachdb/errors"
)

// Mode selects what happens after a track finishes.
type Mode int

const (
	ModeNormal Mode = iota // Play one track, then stop
	ModeAuto               // Drain the waiting queue continuously
)

// String returns the string representation of the mode.
func (m Mode) String() string {
	switch m {
	case ModeNormal:
		return "normal"
	case ModeAuto:
		return "auto"
	default:
		return "unknown"
	}
}

// ParseMode parses a mode name as written in config files.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(s) {
	case "normal":
		return ModeNormal, nil
	case "auto":
		return ModeAuto, nil
	default:
		return ModeNormal, errors.Newf("unknown playback mode: %q", s)
	}
}
