package scan

import (
	"fmt"
)

// State is a step of a scan run.
type State int

const (
	StateLoading State = iota
	StateResolving
	StateTraversing
	StateMerging
	StatePersisting
	StateDone
	StateAborted
)

var stateNames = [...]string{
	StateLoading:    "loading",
	StateResolving:  "resolving",
	StateTraversing: "traversing",
	StateMerging:    "merging",
	StatePersisting: "persisting",
	StateDone:       "done",
	StateAborted:    "aborted",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return fmt.Sprintf("state(%d)", int(s))
	}

	return stateNames[s]
}

// StageError reports the state a run was in when it aborted.
type StageError struct {
	State State
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("scan aborted while %s: %v", e.State, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}
