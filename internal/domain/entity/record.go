package entity

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ExpenseProposal is the set of user-entered fields collected by a dialog or a
// structured command. It is immutable once built.
type ExpenseProposal struct {
	Amount        decimal.Decimal `json:"amount"`
	ExpenseItem   string          `json:"expense_item"`
	ExpenseGroup  string          `json:"expense_group"`
	Partner       string          `json:"partner"`
	Comment       string          `json:"comment"`
	Period        []string        `json:"period"`
	PaymentMethod string          `json:"payment_method"`
}

// ExpenseRecord is a persisted request for funds.
type ExpenseRecord struct {
	ID                int64           `json:"id"`
	Amount            decimal.Decimal `json:"amount"`
	ExpenseItem       string          `json:"expense_item"`
	ExpenseGroup      string          `json:"expense_group"`
	Partner           string          `json:"partner"`
	Comment           string          `json:"comment"`
	Period            []string        `json:"period"`
	PaymentMethod     string          `json:"payment_method"`
	ApprovalsNeeded   int             `json:"approvals_needed"`
	ApprovalsReceived int             `json:"approvals_received"`
	Status            Status          `json:"status"`
	ApprovedBy        string          `json:"approved_by,omitempty"`
	InitiatorID       string          `json:"initiator_id"`
	PaidAt            *time.Time      `json:"paid_at,omitempty"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

// RecordUpdate names the mutable fields of a record. Nil fields are left unchanged.
type RecordUpdate struct {
	Status            *Status
	ApprovalsReceived *int
	ApprovedBy        *string
	PaidAt            *time.Time
}

// IsEmpty reports whether the update touches nothing.
func (u RecordUpdate) IsEmpty() bool {
	return u.Status == nil && u.ApprovalsReceived == nil && u.ApprovedBy == nil && u.PaidAt == nil
}

// ApprovalsNeededFor returns 2 for amounts at or above the threshold, 1 otherwise.
func ApprovalsNeededFor(amount decimal.Decimal) int {
	if amount.GreaterThanOrEqual(TwoTierThreshold) {
		return 2
	}
	return 1
}

// NewRecord turns a proposal into a fresh, unsaved record owned by initiatorID.
func NewRecord(p ExpenseProposal, initiatorID string) *ExpenseRecord {
	now := time.Now()
	period := make([]string, len(p.Period))
	copy(period, p.Period)

	return &ExpenseRecord{
		Amount:          p.Amount,
		ExpenseItem:     p.ExpenseItem,
		ExpenseGroup:    p.ExpenseGroup,
		Partner:         p.Partner,
		Comment:         p.Comment,
		Period:          period,
		PaymentMethod:   p.PaymentMethod,
		ApprovalsNeeded: ApprovalsNeededFor(p.Amount),
		Status:          StatusNotProcessed,
		InitiatorID:     initiatorID,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

// Validate checks that all fields required for insertion are present.
func (r *ExpenseRecord) Validate() error {
	var missing []string
	if !r.Amount.IsPositive() {
		missing = append(missing, "amount")
	}
	if r.ExpenseItem == "" {
		missing = append(missing, "expense_item")
	}
	if r.ExpenseGroup == "" {
		missing = append(missing, "expense_group")
	}
	if r.Partner == "" {
		missing = append(missing, "partner")
	}
	if strings.TrimSpace(r.Comment) == "" {
		missing = append(missing, "comment")
	}
	if len(r.Period) == 0 {
		missing = append(missing, "period")
	}
	if r.PaymentMethod == "" {
		missing = append(missing, "payment_method")
	}
	if r.InitiatorID == "" {
		missing = append(missing, "initiator_id")
	}
	if r.ApprovalsNeeded != ApprovalsNeededFor(r.Amount) {
		return fmt.Errorf("%w: approvals_needed %d does not match amount %s", ErrValidation, r.ApprovalsNeeded, r.Amount)
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", ErrValidation, strings.Join(missing, ", "))
	}
	return nil
}

// PeriodString joins the period tokens the way they are stored and displayed.
func (r *ExpenseRecord) PeriodString() string {
	return strings.Join(r.Period, " ")
}

// Describe renders the record for chat messages.
func (r *ExpenseRecord) Describe() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Record #%d\n", r.ID)
	fmt.Fprintf(&b, "Amount: %s\n", r.Amount.StringFixed(2))
	fmt.Fprintf(&b, "Item: %s\n", r.ExpenseItem)
	fmt.Fprintf(&b, "Group: %s\n", r.ExpenseGroup)
	fmt.Fprintf(&b, "Partner: %s\n", r.Partner)
	fmt.Fprintf(&b, "Comment: %s\n", r.Comment)
	fmt.Fprintf(&b, "Period: %s\n", r.PeriodString())
	fmt.Fprintf(&b, "Payment method: %s\n", r.PaymentMethod)
	fmt.Fprintf(&b, "Status: %s (%d/%d)", r.Status, r.ApprovalsReceived, r.ApprovalsNeeded)
	if r.ApprovedBy != "" {
		fmt.Fprintf(&b, "\nApproved by: %s", r.ApprovedBy)
	}
	return b.String()
}

// Actor is the identity performing an action, resolved to its department.
type Actor struct {
	ID         string
	Name       string
	Department Department
}

// DisplayName is what gets appended to approved_by.
func (a Actor) DisplayName() string {
	if a.Name != "" {
		return a.Name
	}
	return a.ID
}
