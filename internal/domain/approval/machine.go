package approval

import (
	"context"

	"github.com/garyjia/budget-approval/internal/domain/entity"
	"github.com/garyjia/budget-approval/internal/domain/workflow"
)

// BuildRecordStateMachine returns a machine positioned at the record's status.
// The approve edge out of Not processed is guarded by the number of approvals the
// record needs, which is where the finance step is collapsed.
func BuildRecordStateMachine(rec *entity.ExpenseRecord) (workflow.StateMachine, error) {
	needsSecond := func(context.Context) bool {
		return rec.ApprovalsNeeded == 2 && rec.ApprovalsReceived == 0
	}
	singleTier := func(context.Context) bool {
		return rec.ApprovalsNeeded == 1 && rec.ApprovalsReceived == 0
	}
	finalApproval := func(context.Context) bool {
		return rec.ApprovalsReceived+1 == rec.ApprovalsNeeded
	}

	builder := workflow.NewBuilder()

	builder.Configure(workflow.StateNotProcessed).
		PermitIf(workflow.TriggerApprove, workflow.StatePending, needsSecond).
		PermitIf(workflow.TriggerApprove, workflow.StateApproved, singleTier).
		Permit(workflow.TriggerReject, workflow.StateRejected)

	builder.Configure(workflow.StatePending).
		PermitIf(workflow.TriggerApprove, workflow.StateApproved, finalApproval).
		Permit(workflow.TriggerReject, workflow.StateRejected)

	builder.Configure(workflow.StateApproved).
		Permit(workflow.TriggerPay, workflow.StatePaid)

	// Rejected and Paid are terminal.

	return builder.Build(workflow.State(rec.Status))
}
