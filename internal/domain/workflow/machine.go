package workflow

import "context"

// StateMachine holds the state of one record and resolves triggers against it.
// The caller persists the resolved state; the machine itself never moves.
type StateMachine interface {
	// State returns the current state.
	State() State

	// Peek resolves the target state of the first edge whose guard passes.
	Peek(ctx context.Context, trigger Trigger) (State, error)
}
