package dialog

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/garyjia/budget-approval/internal/domain/entity"
)

const (
	optionConfirm = "Confirm"
	optionCancel  = "Cancel"
)

// Key identifies a session: one per user per chat.
type Key struct {
	UserID string
	ChatID string
}

// Session collects the fields of one expense record.
type Session struct {
	id       string
	key      Key
	step     Step
	taxonomy entity.Taxonomy
	methods  []string

	amount   decimal.Decimal
	category int
	group    int
	partner  string
	comment  string
	period   []string
	method   string
}

// NewSession creates a session over a taxonomy snapshot fetched at dialog start.
func NewSession(key Key, taxonomy entity.Taxonomy, methods []string) *Session {
	if len(methods) == 0 {
		methods = entity.DefaultPaymentMethods
	}
	return &Session{
		id:       uuid.NewString(),
		key:      key,
		step:     StepAwaitAmount,
		taxonomy: taxonomy.Prune(),
		methods:  methods,
		category: -1,
		group:    -1,
	}
}

// Key returns the session key.
func (s *Session) Key() Key { return s.key }

// Step returns the current state.
func (s *Session) Step() Step { return s.step }

// Start returns the first prompt.
func (s *Session) Start() Reply {
	return s.continueWith(nil)
}

// Cancel ends the session from any state.
func (s *Session) Cancel() Reply {
	if s.step.IsFinal() {
		return Reply{Outcome: OutcomeCancelled}
	}
	s.step = StepCancelled
	return Reply{Notes: []string{"Entry cancelled."}, Outcome: OutcomeCancelled}
}

// SubmitText feeds free text. On a selection step the text is matched against
// the option labels.
func (s *Session) SubmitText(text string) Reply {
	if s.step.IsFinal() {
		return Reply{Outcome: OutcomeCancelled}
	}

	if s.step.expectsSelection() {
		opts := s.prompt().Options
		needle := strings.TrimSpace(text)
		for i, o := range opts {
			if strings.EqualFold(o, needle) {
				return s.choose(i)
			}
		}
		return s.continueWith([]string{"Please choose one of the options."})
	}

	switch s.step {
	case StepAwaitAmount:
		amount, err := entity.ParseAmount(text)
		if err != nil {
			return s.continueWith([]string{"The amount must be a positive number, for example 1500 or 1500.50."})
		}
		s.amount = amount
		if len(s.taxonomy.Categories) == 0 {
			s.step = StepCancelled
			return Reply{Notes: []string{"No expense categories are configured."}, Outcome: OutcomeCancelled}
		}
		s.step = StepAwaitCategory
		return s.continueWith(nil)

	case StepAwaitComment:
		comment, err := entity.ParseComment(text)
		if err != nil {
			s.step = StepCancelled
			return Reply{Notes: []string{"The comment is empty, entry aborted."}, Outcome: OutcomeCancelled}
		}
		s.comment = comment
		s.step = StepAwaitDates
		return s.continueWith(nil)

	case StepAwaitDates:
		period, err := entity.ParsePeriod(text)
		if err != nil {
			return s.continueWith([]string{"Dates must be mm.yy separated by spaces, for example 01.24 02.24."})
		}
		s.period = period
		s.step = StepAwaitPaymentMethod
		return s.continueWith(nil)
	}

	return s.continueWith(nil)
}

// SubmitSelection feeds an option index chosen on the prompt identified by
// token. A token from an earlier prompt, or from another session, only
// re-prompts: the index is meaningless against the current options.
func (s *Session) SubmitSelection(token string, index int) Reply {
	if s.step.IsFinal() {
		return Reply{Outcome: OutcomeCancelled}
	}
	if token != s.token() {
		r := s.continueWith([]string{"That button belongs to an earlier question."})
		r.Stale = true
		return r
	}
	if !s.step.expectsSelection() {
		return s.continueWith([]string{"Please type your answer."})
	}
	return s.choose(index)
}

// Token identifies the current prompt. It changes with every step.
func (s *Session) Token() string {
	return s.token()
}

func (s *Session) token() string {
	return fmt.Sprintf("%s:%d", s.id, s.step)
}

func (s *Session) choose(index int) Reply {
	opts := s.prompt().Options
	if index < 0 || index >= len(opts) {
		return s.continueWith([]string{"Please choose one of the options."})
	}

	var notes []string
	switch s.step {
	case StepAwaitCategory:
		s.category = index
		s.group = -1
		s.partner = ""
		s.step = StepAwaitSubgroup
		notes = s.autoAdvance()

	case StepAwaitSubgroup:
		s.group = index
		s.partner = ""
		s.step = StepAwaitPartner
		notes = s.autoAdvance()

	case StepAwaitPartner:
		s.partner = opts[index]
		s.step = StepAwaitComment

	case StepAwaitPaymentMethod:
		s.method = opts[index]
		s.step = StepAwaitConfirmation

	case StepAwaitConfirmation:
		if opts[index] == optionCancel {
			return s.Cancel()
		}
		s.step = StepDone
		proposal := s.proposal()
		return Reply{Outcome: OutcomeSubmitted, Proposal: &proposal}
	}

	return s.continueWith(notes)
}

// autoAdvance skips subgroup and partner steps that offer a single choice.
func (s *Session) autoAdvance() []string {
	var notes []string
	for {
		switch s.step {
		case StepAwaitSubgroup:
			groups := s.currentCategory().Groups
			if len(groups) != 1 {
				return notes
			}
			s.group = 0
			notes = append(notes, "Group: "+groups[0].Name)
			s.step = StepAwaitPartner

		case StepAwaitPartner:
			partners := s.currentGroup().Partners
			if len(partners) != 1 {
				return notes
			}
			s.partner = partners[0]
			notes = append(notes, "Partner: "+partners[0])
			s.step = StepAwaitComment

		default:
			return notes
		}
	}
}

func (s *Session) continueWith(notes []string) Reply {
	p := s.prompt()
	return Reply{Notes: notes, Prompt: &p, Outcome: OutcomeContinue}
}

func (s *Session) prompt() Prompt {
	p := s.promptForStep()
	p.Token = s.token()
	return p
}

func (s *Session) promptForStep() Prompt {
	switch s.step {
	case StepAwaitAmount:
		return Prompt{Text: "Enter the amount."}
	case StepAwaitCategory:
		return Prompt{Text: "Choose the expense item.", Options: s.taxonomy.CategoryNames()}
	case StepAwaitSubgroup:
		return Prompt{Text: "Choose the expense group.", Options: s.currentCategory().GroupNames()}
	case StepAwaitPartner:
		return Prompt{Text: "Choose the partner.", Options: append([]string(nil), s.currentGroup().Partners...)}
	case StepAwaitComment:
		return Prompt{Text: "Enter a comment."}
	case StepAwaitDates:
		return Prompt{Text: "Enter the accrual months as mm.yy separated by spaces."}
	case StepAwaitPaymentMethod:
		return Prompt{Text: "Choose the payment method.", Options: append([]string(nil), s.methods...)}
	case StepAwaitConfirmation:
		return Prompt{Text: s.Summary() + "\n\nSubmit this record?", Options: []string{optionConfirm, optionCancel}}
	}
	return Prompt{}
}

func (s *Session) currentCategory() entity.Category {
	return s.taxonomy.Categories[s.category]
}

func (s *Session) currentGroup() entity.Group {
	return s.currentCategory().Groups[s.group]
}

func (s *Session) proposal() entity.ExpenseProposal {
	return entity.ExpenseProposal{
		Amount:        s.amount,
		ExpenseItem:   s.currentCategory().Name,
		ExpenseGroup:  s.currentGroup().Name,
		Partner:       s.partner,
		Comment:       s.comment,
		Period:        append([]string(nil), s.period...),
		PaymentMethod: s.method,
	}
}

// Summary renders the collected fields for the confirmation step.
func (s *Session) Summary() string {
	p := s.proposal()
	return fmt.Sprintf("Amount: %s\nItem: %s\nGroup: %s\nPartner: %s\nComment: %s\nPeriod: %s\nPayment method: %s",
		p.Amount.StringFixed(2), p.ExpenseItem, p.ExpenseGroup, p.Partner, p.Comment,
		strings.Join(p.Period, " "), p.PaymentMethod)
}
