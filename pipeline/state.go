package pipeline

// State is a step of a pipeline run.
type State int

const (
	StateStart State = iota
	StateAcquiring
	StateExtracting
	StateProvisioning
	StateDone
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateStart:
		return "start"
	case StateAcquiring:
		return "acquiring"
	case StateExtracting:
		return "extracting"
	case StateProvisioning:
		return "provisioning"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Transition is reported to an Observer on every state change.
// Index is the subproject index, -1 outside the per-subproject states.
type Transition struct {
	State      State
	Index      int
	Subproject string
}

// Observer is notified of state transitions in order.
type Observer func(Transition)
