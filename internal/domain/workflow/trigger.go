package workflow

import "github.com/garyjia/budget-approval/internal/domain/entity"

// Trigger is an action that may move a record between states.
type Trigger string

const (
	TriggerApprove Trigger = "APPROVE"
	TriggerReject  Trigger = "REJECT"
	TriggerPay     Trigger = "PAY"
)

func (t Trigger) String() string {
	return string(t)
}

// TriggerFor maps a user action to its trigger.
func TriggerFor(a entity.Action) (Trigger, bool) {
	switch a {
	case entity.ActionApprove:
		return TriggerApprove, true
	case entity.ActionReject:
		return TriggerReject, true
	case entity.ActionPay:
		return TriggerPay, true
	}
	return "", false
}
