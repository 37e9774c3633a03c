package approval

import (
	"context"
	"errors"
	"fmt"

	"github.com/garyjia/budget-approval/internal/domain/entity"
	"github.com/garyjia/budget-approval/internal/domain/workflow"
)

// Transition is the outcome of applying one action to one record.
type Transition struct {
	RecordID          int64
	Action            entity.Action
	Actor             entity.Actor
	From              entity.Status
	To                entity.Status
	ApprovalsReceived int
	ApprovedBy        string

	// Next is the department to prompt after this transition, empty when the
	// record reached a terminal status.
	Next entity.Department
}

// Update returns the partial record update that persists the transition.
func (t *Transition) Update() entity.RecordUpdate {
	status := t.To
	received := t.ApprovalsReceived
	approvedBy := t.ApprovedBy
	return entity.RecordUpdate{
		Status:            &status,
		ApprovalsReceived: &received,
		ApprovedBy:        &approvedBy,
	}
}

// Evaluate decides what action by actor does to rec without touching it.
//
// Errors: ErrUnauthorized when the actor has no department or the department
// never performs the action; ErrIllegalTransition when the record is terminal or
// another department is expected to act.
func Evaluate(ctx context.Context, rec *entity.ExpenseRecord, action entity.Action, actor entity.Actor) (*Transition, error) {
	trigger, ok := workflow.TriggerFor(action)
	if !ok {
		return nil, fmt.Errorf("%w: unknown action %q", entity.ErrValidation, action)
	}
	if !actor.Department.IsValid() {
		return nil, fmt.Errorf("%w: %s is not on any approval roster", entity.ErrUnauthorized, actor.ID)
	}
	if !CanPerform(actor.Department, action) {
		return nil, fmt.Errorf("%w: department %s cannot %s records", entity.ErrUnauthorized, actor.Department, action)
	}
	if rec.Status.IsTerminal() {
		return nil, fmt.Errorf("%w: record #%d is already %s", entity.ErrIllegalTransition, rec.ID, rec.Status)
	}

	rung, ok := RungFor(rec.Status)
	if !ok {
		return nil, fmt.Errorf("%w: record #%d has unknown status %q", entity.ErrIllegalTransition, rec.ID, rec.Status)
	}
	if rung.Department != actor.Department {
		return nil, fmt.Errorf("%w: record #%d is waiting for %s, not %s",
			entity.ErrIllegalTransition, rec.ID, rung.Department, actor.Department)
	}
	if !rung.allows(action) {
		return nil, fmt.Errorf("%w: cannot %s record #%d while %s", entity.ErrIllegalTransition, action, rec.ID, rec.Status)
	}

	machine, err := BuildRecordStateMachine(rec)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", entity.ErrIllegalTransition, err)
	}
	next, err := machine.Peek(ctx, trigger)
	if err != nil {
		if errors.Is(err, workflow.ErrGuardFailed) || errors.Is(err, workflow.ErrInvalidTransition) {
			return nil, fmt.Errorf("%w: record #%d: %v", entity.ErrIllegalTransition, rec.ID, err)
		}
		return nil, err
	}

	t := &Transition{
		RecordID:          rec.ID,
		Action:            action,
		Actor:             actor,
		From:              machine.State().Status(),
		To:                next.Status(),
		ApprovalsReceived: rec.ApprovalsReceived,
		ApprovedBy:        rec.ApprovedBy,
	}

	if action == entity.ActionApprove {
		t.ApprovalsReceived++
		t.ApprovedBy = AppendApprover(rec.ApprovedBy, actor.DisplayName())
	}
	if dept, ok := ExpectedDepartment(t.To); ok {
		t.Next = dept
	}

	return t, nil
}

// AppendApprover adds name to the comma-separated approver log.
func AppendApprover(log, name string) string {
	if log == "" {
		return name
	}
	return log + ", " + name
}
