package workflow

import "github.com/garyjia/budget-approval/internal/domain/entity"

// State is a node of the record lifecycle graph. Values match the stored record status.
type State string

const (
	StateNotProcessed State = State(entity.StatusNotProcessed)
	StatePending      State = State(entity.StatusPending)
	StateApproved     State = State(entity.StatusApproved)
	StateRejected     State = State(entity.StatusRejected)
	StatePaid         State = State(entity.StatusPaid)
)

var validStates = map[State]bool{
	StateNotProcessed: true,
	StatePending:      true,
	StateApproved:     true,
	StateRejected:     true,
	StatePaid:         true,
}

// IsTerminal returns true if no trigger leaves the state.
func (s State) IsTerminal() bool {
	return entity.Status(s).IsTerminal()
}

func (s State) String() string {
	return string(s)
}

// IsValid returns true if the state is part of the lifecycle graph.
func (s State) IsValid() bool {
	return validStates[s]
}

// Status converts the state back to a record status.
func (s State) Status() entity.Status {
	return entity.Status(s)
}
