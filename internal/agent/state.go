package agent

// State is the position of the loop within one turn.
type State int

const (
	StateAwaitingModel State = iota
	StateModelResponded
	StateExecutingTool
	StateDone
)

func (s State) String() string {
	switch s {
	case StateAwaitingModel:
		return "awaiting_model"
	case StateModelResponded:
		return "model_responded"
	case StateExecutingTool:
		return "executing_tool"
	case StateDone:
		return "done"
	default:
		return "unknown"
	}
}

// StateListener observes loop transitions. It is called synchronously on the
// turn's goroutine and must not block.
type StateListener func(round int, from, to State)
