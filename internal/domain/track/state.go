package track

// State represents the playback lifecycle state of the active track.
type State int

const (
	StateNone    State = iota // Never started
	StatePlaying              // Track is playing
	StatePaused               // Track is paused
	StateStopped              // Track finished or was halted
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateNone:
		return "none"
	case StatePlaying:
		return "playing"
	case StatePaused:
		return "paused"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}
