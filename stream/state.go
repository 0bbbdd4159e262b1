package stream

// State is the phase an executor run is in.
type State int32

const (
	StateIdle State = iota
	StatePulling
	StateFiltering
	StateMapping
	StateBuffering
	StateEmitting
	StateDone
	StateCancelled
)

var stateNames = [...]string{
	StateIdle:      "idle",
	StatePulling:   "pulling",
	StateFiltering: "filtering",
	StateMapping:   "mapping",
	StateBuffering: "buffering",
	StateEmitting:  "emitting",
	StateDone:      "done",
	StateCancelled: "cancelled",
}

func (s State) String() string {
	if s >= 0 && int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "unknown"
}

// Terminal reports whether no further transitions can happen.
func (s State) Terminal() bool {
	return s == StateDone || s == StateCancelled
}
