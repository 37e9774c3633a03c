package entity

import "errors"

// Error kinds shared by every layer. Callers match them with errors.Is.
var (
	// ErrValidation marks malformed user input (amount, dates, comment, command shape).
	ErrValidation = errors.New("validation error")

	// ErrUnauthorized marks an actor outside the allowed identity set or department.
	ErrUnauthorized = errors.New("authorization error")

	// ErrNotFound marks an unknown record id.
	ErrNotFound = errors.New("record not found")

	// ErrIllegalTransition marks an action on a terminal record or out of turn.
	ErrIllegalTransition = errors.New("illegal transition")

	// ErrStorage marks a failure of the underlying store. It is paged to the operator.
	ErrStorage = errors.New("storage error")
)
