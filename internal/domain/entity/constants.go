package entity

import "github.com/shopspring/decimal"

// Status is the stored lifecycle status of an expense record.
type Status string

// Record statuses, stored verbatim in the records table.
const (
	StatusNotProcessed Status = "Not processed"
	StatusPending      Status = "Pending"
	StatusApproved     Status = "Approved"
	StatusRejected     Status = "Rejected"
	StatusPaid         Status = "Paid"
)

// IsTerminal reports whether no further action is accepted in this status.
func (s Status) IsTerminal() bool {
	return s == StatusPaid || s == StatusRejected
}

func (s Status) String() string {
	return string(s)
}

// Department names a roster of people allowed to act on a record.
type Department string

const (
	DepartmentHead    Department = "head"
	DepartmentFinance Department = "finance"
	DepartmentPayers  Department = "payers"
)

// IsValid returns true for the three known departments.
func (d Department) IsValid() bool {
	switch d {
	case DepartmentHead, DepartmentFinance, DepartmentPayers:
		return true
	}
	return false
}

func (d Department) String() string {
	return string(d)
}

// Action is a decision an approver or payer can take.
type Action string

const (
	ActionApprove Action = "approve"
	ActionReject  Action = "reject"
	ActionPay     Action = "pay"

	// ActionSubmit is recorded in history when a record is created. It is not a decision.
	ActionSubmit Action = "submit"
)

// IsValid returns true for known actions.
func (a Action) IsValid() bool {
	switch a {
	case ActionApprove, ActionReject, ActionPay:
		return true
	}
	return false
}

func (a Action) String() string {
	return string(a)
}

// TwoTierThreshold is the amount from which a second (finance) approval is required.
var TwoTierThreshold = decimal.NewFromInt(50000)

// DefaultPaymentMethods is the fixed set offered in the dialog when configuration names none.
var DefaultPaymentMethods = []string{"нал", "безнал", "крипта"}
