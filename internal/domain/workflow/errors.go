package workflow

import "errors"

var (
	// ErrInvalidTransition is returned when no edge exists for the trigger.
	ErrInvalidTransition = errors.New("invalid state transition")

	// ErrInvalidState is returned for a state outside the lifecycle graph.
	ErrInvalidState = errors.New("invalid state")

	// ErrGuardFailed is returned when edges exist but every guard refused.
	ErrGuardFailed = errors.New("guard condition failed")
)
