package domain

// PlayerState is the unified player's lifecycle state. Closed is terminal;
// Error is recoverable only through a fresh load.
type PlayerState string

const (
	PlayerIdle    PlayerState = "idle"
	PlayerLoading PlayerState = "loading"
	PlayerPlaying PlayerState = "playing"
	PlayerPaused  PlayerState = "paused"
	PlayerError   PlayerState = "error"
	PlayerClosed  PlayerState = "closed"
)

// validPlayerTransitions is the adjacency list of allowed state transitions.
// Error and Closed are reachable from every non-terminal state; a fresh load
// is the only way out of Error.
var validPlayerTransitions = map[PlayerState][]PlayerState{
	PlayerIdle:    {PlayerLoading, PlayerError, PlayerClosed},
	PlayerLoading: {PlayerPlaying, PlayerPaused, PlayerLoading, PlayerError, PlayerClosed},
	PlayerPlaying: {PlayerPaused, PlayerLoading, PlayerError, PlayerClosed},
	PlayerPaused:  {PlayerPlaying, PlayerLoading, PlayerError, PlayerClosed},
	PlayerError:   {PlayerLoading, PlayerClosed},
	PlayerClosed:  {},
}

// CanPlayerTransition reports whether a transition from one player state to
// another is valid. Self transitions are treated as no-ops by callers and are
// not listed here except Loading→Loading (a new load while one is in flight).
func CanPlayerTransition(from, to PlayerState) bool {
	for _, t := range validPlayerTransitions[from] {
		if t == to {
			return true
		}
	}
	return false
}

// Terminal reports whether the state admits no further transitions.
func (s PlayerState) Terminal() bool {
	return s == PlayerClosed
}
