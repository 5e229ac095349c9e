package importer

// State is the position of an import run in its lifecycle.
type State int

const (
	StateIdle State = iota
	StateFetching
	StateBuilding
	StateBatching
	StateCommitting
	StateDone
	StateFailed
)

var stateNames = [...]string{
	StateIdle:       "idle",
	StateFetching:   "fetching",
	StateBuilding:   "building",
	StateBatching:   "batching",
	StateCommitting: "committing",
	StateDone:       "done",
	StateFailed:     "failed",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}
	return stateNames[s]
}

// transitions lists the legal successors of each state.
var transitions = map[State][]State{
	StateIdle:       {StateFetching, StateDone, StateFailed},
	StateFetching:   {StateBuilding, StateCommitting, StateFetching, StateDone, StateFailed},
	StateBuilding:   {StateBatching, StateFailed},
	StateBatching:   {StateCommitting, StateFetching, StateFailed},
	StateCommitting: {StateFetching, StateDone, StateFailed},
	StateFailed:     {StateCommitting, StateFailed},
}

// canTransition reports whether a run may move from one state to another.
// A failed run may still commit its final batch.
func canTransition(from, to State) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Terminal reports whether s ends a run.
func (s State) Terminal() bool {
	return s == StateDone || s == StateFailed
}
