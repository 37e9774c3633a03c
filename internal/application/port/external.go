package port

import (
	"context"

	"github.com/garyjia/budget-approval/internal/domain/entity"
)

// CallbackKind tells the bot which flow a button press belongs to.
type CallbackKind string

const (
	CallbackDialog   CallbackKind = "dialog"
	CallbackApproval CallbackKind = "approval"
	CallbackPayment  CallbackKind = "payment"
)

// Callback is the payload carried by a button and returned when it is pressed.
type Callback struct {
	Kind       CallbackKind      `json:"kind"`
	Action     entity.Action     `json:"action,omitempty"`
	Department entity.Department `json:"department,omitempty"`
	RecordID   int64             `json:"record_id,omitempty"`
	Index      int               `json:"index,omitempty"`

	// Prompt and Choice are set on dialog buttons. Prompt names the question
	// the button answers; Choice is the option label.
	Prompt string `json:"prompt,omitempty"`
	Choice string `json:"choice,omitempty"`
}

// Button is an interactive choice attached to a message.
type Button struct {
	Label    string
	Callback Callback
}

// Notifier posts and edits chat messages.
type Notifier interface {
	// Post sends text with buttons to every recipient and returns a handle for
	// each successful delivery. Per-recipient failures are joined into the error
	// without aborting the remaining deliveries.
	Post(ctx context.Context, recipients []string, text string, buttons []Button) ([]entity.MessageRef, error)

	// Edit replaces a posted message with plain text, removing its buttons.
	Edit(ctx context.Context, ref entity.MessageRef, text string) error

	// Send delivers a plain text message to one recipient.
	Send(ctx context.Context, recipient string, text string) error
}

// TaxonomyProvider returns the category tree offered in the dialog.
type TaxonomyProvider interface {
	Fetch(ctx context.Context) (entity.Taxonomy, error)
}

// ArchiveSink appends a paid record to the external ledger.
type ArchiveSink interface {
	Append(ctx context.Context, rec *entity.ExpenseRecord) error
}
