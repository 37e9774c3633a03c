// Package approval holds the pure decision logic of the approval workflow:
// who acts at each status, and what each action does to a record.
package approval

import "github.com/garyjia/budget-approval/internal/domain/entity"

// Rung is one step of the escalation ladder: the department expected to act
// while a record sits in Status, and the actions it may take there.
type Rung struct {
	Status     entity.Status
	Department entity.Department
	Actions    []entity.Action
}

// Ladder is the escalation table. One-approval records skip the finance rung
// because their approve edge goes straight from Not processed to Approved.
var Ladder = []Rung{
	{Status: entity.StatusNotProcessed, Department: entity.DepartmentHead, Actions: []entity.Action{entity.ActionApprove, entity.ActionReject}},
	{Status: entity.StatusPending, Department: entity.DepartmentFinance, Actions: []entity.Action{entity.ActionApprove, entity.ActionReject}},
	{Status: entity.StatusApproved, Department: entity.DepartmentPayers, Actions: []entity.Action{entity.ActionPay}},
}

// Roles lists what each department may ever do, regardless of status.
var Roles = map[entity.Department][]entity.Action{
	entity.DepartmentHead:    {entity.ActionApprove, entity.ActionReject},
	entity.DepartmentFinance: {entity.ActionApprove, entity.ActionReject},
	entity.DepartmentPayers:  {entity.ActionPay},
}

// RungFor returns the ladder step for a status. Terminal statuses have none.
func RungFor(status entity.Status) (Rung, bool) {
	for _, r := range Ladder {
		if r.Status == status {
			return r, true
		}
	}
	return Rung{}, false
}

// ExpectedDepartment returns who must act next on a record in status.
func ExpectedDepartment(status entity.Status) (entity.Department, bool) {
	r, ok := RungFor(status)
	return r.Department, ok
}

// CanPerform reports whether the department's role includes the action.
func CanPerform(dept entity.Department, action entity.Action) bool {
	return containsAction(Roles[dept], action)
}

func (r Rung) allows(action entity.Action) bool {
	return containsAction(r.Actions, action)
}

func containsAction(list []entity.Action, action entity.Action) bool {
	for _, a := range list {
		if a == action {
			return true
		}
	}
	return false
}
