// Package game provides the main game loop and state management.
package game

// State represents the current game state.
type State int

const (
	// StateCountdown is the preparation window before the first beat event.
	StateCountdown State = iota
	// StatePlaying is active play while the session accepts strokes.
	StatePlaying
	// StateFinished shows the result until the player quits.
	StateFinished
)

// String returns a human-readable state name.
func (s State) String() string {
	switch s {
	case StateCountdown:
		return "countdown"
	case StatePlaying:
		return "playing"
	case StateFinished:
		return "finished"
	default:
		return "unknown"
	}
}
