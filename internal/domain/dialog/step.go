// Package dialog implements the guided expense entry conversation as a pure
// state machine. A Session consumes user inputs and returns replies; it never
// talks to the transport or the store.
package dialog

// Step is the state of a session.
type Step int

const (
	StepAwaitAmount Step = iota
	StepAwaitCategory
	StepAwaitSubgroup
	StepAwaitPartner
	StepAwaitComment
	StepAwaitDates
	StepAwaitPaymentMethod
	StepAwaitConfirmation
	StepDone
	StepCancelled
)

var stepNames = map[Step]string{
	StepAwaitAmount:        "await_amount",
	StepAwaitCategory:      "await_category",
	StepAwaitSubgroup:      "await_subgroup",
	StepAwaitPartner:       "await_partner",
	StepAwaitComment:       "await_comment",
	StepAwaitDates:         "await_dates",
	StepAwaitPaymentMethod: "await_payment_method",
	StepAwaitConfirmation:  "await_confirmation",
	StepDone:               "done",
	StepCancelled:          "cancelled",
}

func (s Step) String() string {
	if name, ok := stepNames[s]; ok {
		return name
	}
	return "unknown"
}

// IsFinal reports whether the session accepts no more input.
func (s Step) IsFinal() bool {
	return s == StepDone || s == StepCancelled
}

// expectsSelection reports whether the step is answered by choosing an option.
func (s Step) expectsSelection() bool {
	switch s {
	case StepAwaitCategory, StepAwaitSubgroup, StepAwaitPartner, StepAwaitPaymentMethod, StepAwaitConfirmation:
		return true
	}
	return false
}
