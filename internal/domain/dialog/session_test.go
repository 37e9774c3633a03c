package dialog

import (
	"testing"

	"github.com/garyjia/budget-approval/internal/domain/entity"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testTaxonomy() entity.Taxonomy {
	var tax entity.Taxonomy
	tax.Add("Office", "Furniture", "IKEA")
	tax.Add("Office", "Furniture", "Hoff")
	tax.Add("Office", "Supplies", "Komus")
	tax.Add("Travel", "Flights", "Aeroflot")
	return tax
}

func newTestSession() *Session {
	return NewSession(Key{UserID: "ou_u", ChatID: "oc_c"}, testTaxonomy(), nil)
}

// pick answers the current prompt.
func pick(s *Session, index int) Reply {
	return s.SubmitSelection(s.Token(), index)
}

func TestSession_FullDialog(t *testing.T) {
	s := newTestSession()

	r := s.Start()
	require.NotNil(t, r.Prompt)
	assert.Equal(t, StepAwaitAmount, s.Step())

	r = s.SubmitText("1500.50")
	assert.Equal(t, StepAwaitCategory, s.Step())
	assert.Equal(t, []string{"Office", "Travel"}, r.Prompt.Options)

	r = pick(s, 0)
	assert.Equal(t, StepAwaitSubgroup, s.Step())
	assert.Equal(t, []string{"Furniture", "Supplies"}, r.Prompt.Options)

	r = pick(s, 0)
	assert.Equal(t, StepAwaitPartner, s.Step())
	assert.Equal(t, []string{"IKEA", "Hoff"}, r.Prompt.Options)

	pick(s, 1)
	assert.Equal(t, StepAwaitComment, s.Step())

	s.SubmitText("  new chairs")
	assert.Equal(t, StepAwaitDates, s.Step())

	r = s.SubmitText("01.24 02.24")
	assert.Equal(t, StepAwaitPaymentMethod, s.Step())
	assert.Equal(t, entity.DefaultPaymentMethods, r.Prompt.Options)

	r = pick(s, 1)
	assert.Equal(t, StepAwaitConfirmation, s.Step())
	assert.Contains(t, r.Prompt.Text, "Partner: Hoff")
	assert.Contains(t, r.Prompt.Text, "Period: 01.24 02.24")

	r = pick(s, 0)
	assert.Equal(t, OutcomeSubmitted, r.Outcome)
	assert.Equal(t, StepDone, s.Step())
	require.NotNil(t, r.Proposal)

	p := r.Proposal
	assert.True(t, p.Amount.Equal(decimal.RequireFromString("1500.50")))
	assert.Equal(t, "Office", p.ExpenseItem)
	assert.Equal(t, "Furniture", p.ExpenseGroup)
	assert.Equal(t, "Hoff", p.Partner)
	assert.Equal(t, "new chairs", p.Comment)
	assert.Equal(t, []string{"01.24", "02.24"}, p.Period)
	assert.Equal(t, "безнал", p.PaymentMethod)
}

func TestSession_AutoSkipsSingleChoices(t *testing.T) {
	s := newTestSession()
	s.Start()
	s.SubmitText("100")

	r := pick(s, 1)
	assert.Equal(t, StepAwaitComment, s.Step())
	assert.Equal(t, []string{"Group: Flights", "Partner: Aeroflot"}, r.Notes)
}

func TestSession_SinglePartnerAfterGroupChoice(t *testing.T) {
	s := newTestSession()
	s.Start()
	s.SubmitText("100")
	pick(s, 0)

	r := pick(s, 1)
	assert.Equal(t, StepAwaitComment, s.Step())
	assert.Equal(t, []string{"Partner: Komus"}, r.Notes)
}

func TestSession_InvalidAmountRepromptsAndKeepsState(t *testing.T) {
	s := newTestSession()
	s.Start()

	for _, raw := range []string{"abc", "-10", "1,5", "0"} {
		r := s.SubmitText(raw)
		assert.Equal(t, OutcomeContinue, r.Outcome, raw)
		assert.Equal(t, StepAwaitAmount, s.Step(), raw)
		assert.NotEmpty(t, r.Notes, raw)
	}

	s.SubmitText("42")
	assert.Equal(t, StepAwaitCategory, s.Step())
}

func TestSession_InvalidDatesKeepEarlierFields(t *testing.T) {
	s := newTestSession()
	s.Start()
	s.SubmitText("777")
	pick(s, 1)
	s.SubmitText("tickets")

	r := s.SubmitText("13.24")
	assert.Equal(t, StepAwaitDates, s.Step())
	assert.NotEmpty(t, r.Notes)

	s.SubmitText("12.23")
	pick(s, 0)
	r = pick(s, 0)
	require.NotNil(t, r.Proposal)
	assert.True(t, r.Proposal.Amount.Equal(decimal.NewFromInt(777)))
	assert.Equal(t, "tickets", r.Proposal.Comment)
	assert.Equal(t, []string{"12.23"}, r.Proposal.Period)
}

func TestSession_EmptyCommentAborts(t *testing.T) {
	s := newTestSession()
	s.Start()
	s.SubmitText("100")
	pick(s, 1)

	r := s.SubmitText("   ")
	assert.Equal(t, OutcomeCancelled, r.Outcome)
	assert.Equal(t, StepCancelled, s.Step())
	assert.Nil(t, r.Proposal)
}

func TestSession_CancelFromAnyState(t *testing.T) {
	steps := []func(s *Session){
		func(s *Session) {},
		func(s *Session) { s.SubmitText("100") },
		func(s *Session) { s.SubmitText("100"); pick(s, 0) },
		func(s *Session) { s.SubmitText("100"); pick(s, 1); s.SubmitText("c") },
	}

	for i, advance := range steps {
		s := newTestSession()
		s.Start()
		advance(s)

		r := s.Cancel()
		assert.Equal(t, OutcomeCancelled, r.Outcome, "case %d", i)
		assert.Equal(t, StepCancelled, s.Step(), "case %d", i)

		r = s.SubmitText("100")
		assert.Equal(t, OutcomeCancelled, r.Outcome, "closed session must not accept input")
	}
}

func TestSession_CancelAtConfirmation(t *testing.T) {
	s := newTestSession()
	s.Start()
	s.SubmitText("100")
	pick(s, 1)
	s.SubmitText("c")
	s.SubmitText("01.24")
	pick(s, 0)

	r := s.SubmitText("cancel")
	assert.Equal(t, OutcomeCancelled, r.Outcome)
	assert.Nil(t, r.Proposal)
}

func TestSession_SelectionErrors(t *testing.T) {
	s := newTestSession()
	s.Start()

	r := pick(s, 0)
	assert.Equal(t, StepAwaitAmount, s.Step())
	assert.Equal(t, []string{"Please type your answer."}, r.Notes)

	s.SubmitText("100")
	r = pick(s, 5)
	assert.Equal(t, StepAwaitCategory, s.Step())
	assert.NotEmpty(t, r.Notes)

	r = s.SubmitText("travel")
	assert.Equal(t, StepAwaitComment, s.Step(), "text matching an option label selects it")
	assert.Equal(t, OutcomeContinue, r.Outcome)
}

func TestSession_RepeatedPaymentPressDoesNotConfirm(t *testing.T) {
	s := newTestSession()
	s.Start()
	s.SubmitText("100")
	pick(s, 1)
	s.SubmitText("c")
	s.SubmitText("01.24")

	paymentToken := s.Token()
	s.SubmitSelection(paymentToken, 0)
	require.Equal(t, StepAwaitConfirmation, s.Step())

	r := s.SubmitSelection(paymentToken, 0)
	assert.True(t, r.Stale)
	assert.Equal(t, OutcomeContinue, r.Outcome)
	assert.Nil(t, r.Proposal)
	assert.Equal(t, StepAwaitConfirmation, s.Step())
	require.NotNil(t, r.Prompt)
	assert.Equal(t, []string{"Confirm", "Cancel"}, r.Prompt.Options)
	assert.Equal(t, s.Token(), r.Prompt.Token)
}

func TestSession_StaleCategoryPressIgnoredAtSubgroup(t *testing.T) {
	s := newTestSession()
	s.Start()
	s.SubmitText("100")

	categoryToken := s.Token()
	s.SubmitSelection(categoryToken, 0)
	require.Equal(t, StepAwaitSubgroup, s.Step())

	r := s.SubmitSelection(categoryToken, 1)
	assert.True(t, r.Stale)
	assert.Equal(t, StepAwaitSubgroup, s.Step())
	assert.Equal(t, []string{"Furniture", "Supplies"}, r.Prompt.Options)

	pick(s, 1)
	assert.Equal(t, StepAwaitComment, s.Step(), "group stays Office/Supplies with one partner")
}

func TestSession_TokenFromAnotherSessionIsStale(t *testing.T) {
	a, b := newTestSession(), newTestSession()
	a.Start()
	b.Start()
	a.SubmitText("100")
	b.SubmitText("100")

	assert.NotEqual(t, a.Token(), b.Token())
	r := a.SubmitSelection(b.Token(), 0)
	assert.True(t, r.Stale)
	assert.Equal(t, StepAwaitCategory, a.Step())
}

func TestSession_EmptyTaxonomyCancels(t *testing.T) {
	s := NewSession(Key{UserID: "u", ChatID: "c"}, entity.Taxonomy{}, nil)
	s.Start()

	r := s.SubmitText("100")
	assert.Equal(t, OutcomeCancelled, r.Outcome)
}

func TestStep_String(t *testing.T) {
	assert.Equal(t, "await_amount", StepAwaitAmount.String())
	assert.Equal(t, "done", StepDone.String())
	assert.Equal(t, "unknown", Step(99).String())
}
