package workflow

import (
	"context"

	"github.com/garyjia/budget-approval/internal/domain/approval"
	"github.com/garyjia/budget-approval/internal/domain/entity"
)

// Outcome is the result of a committed transition.
type Outcome struct {
	// Record is the record as stored after the transition.
	Record     *entity.ExpenseRecord
	Transition *approval.Transition

	// NotifyErr holds follow-up notification failures. The transition itself is
	// committed when it is set.
	NotifyErr error
}

// WorkflowEngine runs record transitions atomically against the store.
type WorkflowEngine interface {
	// Submit stores a new record in Not processed and announces it.
	Submit(ctx context.Context, proposal entity.ExpenseProposal, initiator entity.Actor) (*Outcome, error)

	// Apply reads the record, evaluates the action and writes the result, the
	// history row and, for payments, the archive entry in one transaction.
	Apply(ctx context.Context, recordID int64, action entity.Action, actor entity.Actor) (*Outcome, error)
}
