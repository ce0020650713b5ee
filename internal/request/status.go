package request

// validTransitions defines allowed state transitions.
// Key is the "from" state, value is list of valid "to" states.
var validTransitions = map[State][]State{
	StatePending:   {StateSubmitted, StateAvailable, StateDenied, StateFailed, StateRemoved},
	StateSubmitted: {StateAvailable, StateFailed, StateRemoved},
	StateFailed:    {StatePending, StateAvailable, StateRemoved}, // pending = admin retry
	StateAvailable: {StateRemoved},
	StateDenied:    {StateRemoved},
	StateRemoved:   {}, // terminal
}

// CanTransitionTo returns true if transitioning from s to target is valid.
func (s State) CanTransitionTo(target State) bool {
	for _, v := range validTransitions[s] {
		if v == target {
			return true
		}
	}
	return false
}

// IsTerminal returns true if no transitions leave this state.
func (s State) IsTerminal() bool {
	return len(validTransitions[s]) == 0
}
