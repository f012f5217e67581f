package service

import "fmt"

// State is the lifecycle stage of a Dispatcher.
type State int32

const (
	StateIdle State = iota
	StateDispatching
	StateCompleted
	StateAborted
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateDispatching:
		return "dispatching"
	case StateCompleted:
		return "completed"
	case StateAborted:
		return "aborted"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}
