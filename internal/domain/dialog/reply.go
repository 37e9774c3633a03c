package dialog

import "github.com/garyjia/budget-approval/internal/domain/entity"

// Outcome tells the caller what happened to the session after an input.
type Outcome int

const (
	// OutcomeContinue means the session waits for more input.
	OutcomeContinue Outcome = iota
	// OutcomeSubmitted means the user confirmed; Reply.Proposal is set.
	OutcomeSubmitted
	// OutcomeCancelled means the session ended without a proposal.
	OutcomeCancelled
)

// Prompt asks the user for the next input.
type Prompt struct {
	Text string
	// Token must come back with a selection from this prompt.
	Token string
	// Options are the choices for a selection step, in index order.
	Options []string
}

// Reply is what a session produces for one input.
type Reply struct {
	// Notes are informational lines shown before the prompt, such as
	// auto-selected choices or a validation hint.
	Notes    []string
	Prompt   *Prompt
	Outcome  Outcome
	Proposal *entity.ExpenseProposal
	// Stale is set when the input answered an earlier prompt and was ignored.
	Stale bool
}
