package bot

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/garyjia/budget-approval/internal/application/dispatcher"
	"github.com/garyjia/budget-approval/internal/application/port"
	"github.com/garyjia/budget-approval/internal/application/service"
	"github.com/garyjia/budget-approval/internal/application/workflow"
	"github.com/garyjia/budget-approval/internal/domain/dialog"
	"github.com/garyjia/budget-approval/internal/domain/entity"
)

type sentReply struct {
	chatID  string
	text    string
	buttons []port.Button
}

type recordingResponder struct {
	replies []sentReply
	edits   map[string]string
}

func (r *recordingResponder) Reply(ctx context.Context, chatID string, text string, buttons []port.Button) error {
	r.replies = append(r.replies, sentReply{chatID: chatID, text: text, buttons: buttons})
	return nil
}

func (r *recordingResponder) Edit(ctx context.Context, ref entity.MessageRef, text string) error {
	if r.edits == nil {
		r.edits = map[string]string{}
	}
	r.edits[ref.MessageID] = text
	return nil
}

func (r *recordingResponder) last() sentReply {
	if len(r.replies) == 0 {
		return sentReply{}
	}
	return r.replies[len(r.replies)-1]
}

type mockApprovals struct {
	submitStructuredFunc func(ctx context.Context, initiator entity.Actor, raw string) (*workflow.Outcome, error)
	decideFunc           func(ctx context.Context, id int64, action entity.Action, actor entity.Actor) (*workflow.Outcome, error)
	confirmPaymentFunc   func(ctx context.Context, id int64, actor entity.Actor) (*workflow.Outcome, error)
	getRecordFunc        func(ctx context.Context, id int64) (*service.RecordDetail, error)
	listUnsettledFunc    func(ctx context.Context) ([]*entity.ExpenseRecord, error)
}

func (m *mockApprovals) Submit(ctx context.Context, proposal entity.ExpenseProposal, initiator entity.Actor) (*workflow.Outcome, error) {
	return nil, errors.New("not used")
}

func (m *mockApprovals) SubmitStructured(ctx context.Context, initiator entity.Actor, raw string) (*workflow.Outcome, error) {
	return m.submitStructuredFunc(ctx, initiator, raw)
}

func (m *mockApprovals) Decide(ctx context.Context, id int64, action entity.Action, actor entity.Actor) (*workflow.Outcome, error) {
	return m.decideFunc(ctx, id, action, actor)
}

func (m *mockApprovals) ConfirmPayment(ctx context.Context, id int64, actor entity.Actor) (*workflow.Outcome, error) {
	return m.confirmPaymentFunc(ctx, id, actor)
}

func (m *mockApprovals) GetRecord(ctx context.Context, id int64) (*service.RecordDetail, error) {
	return m.getRecordFunc(ctx, id)
}

func (m *mockApprovals) ListUnsettled(ctx context.Context) ([]*entity.ExpenseRecord, error) {
	return m.listUnsettledFunc(ctx)
}

type mockDialogs struct {
	active              map[dialog.Key]bool
	startFunc           func(ctx context.Context, key dialog.Key, initiator entity.Actor) (dialog.Reply, error)
	submitTextFunc      func(ctx context.Context, key dialog.Key, text string) (*service.DialogResult, error)
	submitSelectionFunc func(ctx context.Context, key dialog.Key, token string, index int) (*service.DialogResult, error)
}

func (m *mockDialogs) Start(ctx context.Context, key dialog.Key, initiator entity.Actor) (dialog.Reply, error) {
	return m.startFunc(ctx, key, initiator)
}

func (m *mockDialogs) SubmitText(ctx context.Context, key dialog.Key, text string) (*service.DialogResult, error) {
	return m.submitTextFunc(ctx, key, text)
}

func (m *mockDialogs) SubmitSelection(ctx context.Context, key dialog.Key, token string, index int) (*service.DialogResult, error) {
	return m.submitSelectionFunc(ctx, key, token, index)
}

func (m *mockDialogs) Cancel(ctx context.Context, key dialog.Key) (dialog.Reply, bool) {
	if !m.active[key] {
		return dialog.Reply{Outcome: dialog.OutcomeCancelled}, false
	}
	delete(m.active, key)
	return dialog.Reply{Notes: []string{"Entry cancelled."}, Outcome: dialog.OutcomeCancelled}, true
}

func (m *mockDialogs) Active(key dialog.Key) bool {
	return m.active[key]
}

type mockNotifications struct {
	pages []string
}

func (m *mockNotifications) Register(d dispatcher.Dispatcher) {}

func (m *mockNotifications) PageOperator(ctx context.Context, text string) error {
	m.pages = append(m.pages, text)
	return nil
}

type fixture struct {
	router    *Router
	approvals *mockApprovals
	dialogs   *mockDialogs
	pages     *mockNotifications
	responder *recordingResponder
}

func newFixture() *fixture {
	f := &fixture{
		approvals: &mockApprovals{},
		dialogs:   &mockDialogs{active: map[dialog.Key]bool{}},
		pages:     &mockNotifications{},
		responder: &recordingResponder{},
	}
	dir := service.NewDirectory(service.DirectoryConfig{
		Head:       []string{"ou_head"},
		Finance:    []string{"ou_fin"},
		Payers:     []string{"ou_pay"},
		Whitelist:  []string{"ou_viewer"},
		Initiators: []string{"ou_init"},
	})
	f.router = NewRouter(f.approvals, f.dialogs, f.pages, dir, f.responder, zap.NewNop())
	return f
}

func record(id int64, status entity.Status) *entity.ExpenseRecord {
	return &entity.ExpenseRecord{
		ID:              id,
		Amount:          decimal.NewFromInt(1000),
		Status:          status,
		ApprovalsNeeded: 1,
	}
}

func TestSplitCommand(t *testing.T) {
	tests := []struct {
		text     string
		wantName string
		wantArgs string
		wantOK   bool
	}{
		{"/start", "/start", "", true},
		{"  /approve_record 12 ", "/approve_record", "12", true},
		{"/show_not_paid@budget_bot", "/show_not_paid", "", true},
		{"/Submit_Record 100;a;b;c;d;01.25;нал", "/submit_record", "100;a;b;c;d;01.25;нал", true},
		{"/submit_record\n100;a;b;c;d;01.25;нал", "/submit_record", "100;a;b;c;d;01.25;нал", true},
		{"1500", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			name, args, ok := splitCommand(tt.text)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantName, name)
			assert.Equal(t, tt.wantArgs, args)
		})
	}
}

func TestRouter_RejectsUnknownUser(t *testing.T) {
	f := newFixture()

	require.NoError(t, f.router.Handle(context.Background(), Update{UserID: "ou_stranger", ChatID: "oc_1", Text: "/show_not_paid"}))

	assert.Contains(t, f.responder.last().text, "Access denied")
	assert.Contains(t, f.responder.last().text, "ou_stranger")
}

func TestRouter_StartShowsID(t *testing.T) {
	f := newFixture()

	require.NoError(t, f.router.Handle(context.Background(), Update{UserID: "ou_viewer", ChatID: "oc_1", Text: "/start"}))

	assert.Equal(t, "oc_1", f.responder.last().chatID)
	assert.Contains(t, f.responder.last().text, "ou_viewer")
	assert.Contains(t, f.responder.last().text, "/enter_record")
}

func TestRouter_EnterRecord(t *testing.T) {
	t.Run("initiator gets the first prompt", func(t *testing.T) {
		f := newFixture()
		f.dialogs.startFunc = func(ctx context.Context, key dialog.Key, initiator entity.Actor) (dialog.Reply, error) {
			assert.Equal(t, dialog.Key{UserID: "ou_init", ChatID: "oc_1"}, key)
			assert.Equal(t, "ou_init", initiator.ID)
			return dialog.Reply{Prompt: &dialog.Prompt{Text: "Enter the amount."}}, nil
		}

		require.NoError(t, f.router.Handle(context.Background(), Update{UserID: "ou_init", ChatID: "oc_1", Text: "/enter_record"}))
		assert.Equal(t, "Enter the amount.", f.responder.last().text)
	})

	t.Run("approver cannot initiate", func(t *testing.T) {
		f := newFixture()

		require.NoError(t, f.router.Handle(context.Background(), Update{UserID: "ou_head", ChatID: "oc_1", Text: "/enter_record"}))
		assert.Contains(t, f.responder.last().text, "Not allowed")
		assert.Empty(t, f.pages.pages)
	})
}

func TestRouter_DialogSelectionButtons(t *testing.T) {
	f := newFixture()
	key := dialog.Key{UserID: "ou_init", ChatID: "oc_1"}
	f.dialogs.active[key] = true
	f.dialogs.submitTextFunc = func(ctx context.Context, k dialog.Key, text string) (*service.DialogResult, error) {
		assert.Equal(t, "1500", text)
		return &service.DialogResult{Reply: dialog.Reply{
			Prompt: &dialog.Prompt{Text: "Choose the expense item.", Token: "s1:1", Options: []string{"Office", "Travel"}},
		}}, nil
	}
	f.dialogs.submitSelectionFunc = func(ctx context.Context, k dialog.Key, token string, index int) (*service.DialogResult, error) {
		assert.Equal(t, "s1:1", token)
		assert.Equal(t, 1, index)
		return &service.DialogResult{Reply: dialog.Reply{
			Notes:  []string{"Group: Flights", "Partner: Airline"},
			Prompt: &dialog.Prompt{Text: "Enter a comment."},
		}}, nil
	}

	require.NoError(t, f.router.Handle(context.Background(), Update{UserID: "ou_init", ChatID: "oc_1", Text: "1500"}))
	buttons := f.responder.last().buttons
	require.Len(t, buttons, 2)
	assert.Equal(t, "Travel", buttons[1].Label)
	assert.Equal(t, port.Callback{Kind: port.CallbackDialog, Index: 1, Prompt: "s1:1", Choice: "Travel"}, buttons[1].Callback)

	cb := buttons[1].Callback
	require.NoError(t, f.router.Handle(context.Background(), Update{UserID: "ou_init", ChatID: "oc_1", Callback: &cb, MessageID: "om_card"}))
	assert.Equal(t, "Group: Flights\nPartner: Airline\nEnter a comment.", f.responder.last().text)
	assert.Empty(t, f.responder.last().buttons)
	assert.Equal(t, "You chose: Travel", f.responder.edits["om_card"])
}

func TestRouter_StaleDialogButtonClosesCard(t *testing.T) {
	f := newFixture()
	key := dialog.Key{UserID: "ou_init", ChatID: "oc_1"}
	f.dialogs.active[key] = true
	f.dialogs.submitSelectionFunc = func(ctx context.Context, k dialog.Key, token string, index int) (*service.DialogResult, error) {
		assert.Equal(t, "s1:7", token)
		return &service.DialogResult{Reply: dialog.Reply{
			Notes:  []string{"That button belongs to an earlier question."},
			Prompt: &dialog.Prompt{Text: "Confirm the record?", Token: "s1:8", Options: []string{"Confirm", "Cancel"}},
			Stale:  true,
		}}, nil
	}

	cb := port.Callback{Kind: port.CallbackDialog, Index: 0, Prompt: "s1:7", Choice: "безнал"}
	require.NoError(t, f.router.Handle(context.Background(), Update{UserID: "ou_init", ChatID: "oc_1", Callback: &cb, MessageID: "om_old"}))
	assert.Equal(t, "This question was already answered.", f.responder.edits["om_old"])
	last := f.responder.last()
	assert.Contains(t, last.text, "Confirm the record?")
	require.Len(t, last.buttons, 2)
	assert.Equal(t, "s1:8", last.buttons[0].Callback.Prompt)
}

func TestRouter_DialogButtonAfterSessionEnded(t *testing.T) {
	f := newFixture()

	cb := port.Callback{Kind: port.CallbackDialog, Index: 0, Prompt: "s1:8", Choice: "Confirm"}
	require.NoError(t, f.router.Handle(context.Background(), Update{UserID: "ou_init", ChatID: "oc_1", Callback: &cb, MessageID: "om_confirm"}))
	assert.Equal(t, "This question was already answered.", f.responder.edits["om_confirm"])
	assert.Contains(t, f.responder.last().text, "/enter_record")
}

func TestRouter_DialogSubmitted(t *testing.T) {
	f := newFixture()
	key := dialog.Key{UserID: "ou_init", ChatID: "oc_1"}
	f.dialogs.active[key] = true
	f.dialogs.submitSelectionFunc = func(ctx context.Context, k dialog.Key, token string, index int) (*service.DialogResult, error) {
		rec := record(7, entity.StatusNotProcessed)
		return &service.DialogResult{
			Reply:   dialog.Reply{Outcome: dialog.OutcomeSubmitted},
			Outcome: &workflow.Outcome{Record: rec},
		}, nil
	}

	cb := port.Callback{Kind: port.CallbackDialog, Index: 0}
	require.NoError(t, f.router.Handle(context.Background(), Update{UserID: "ou_init", ChatID: "oc_1", Callback: &cb}))
	assert.Contains(t, f.responder.last().text, "Record #7 submitted")
}

func TestRouter_TextWithoutSession(t *testing.T) {
	f := newFixture()

	require.NoError(t, f.router.Handle(context.Background(), Update{UserID: "ou_init", ChatID: "oc_1", Text: "hello"}))
	assert.Contains(t, f.responder.last().text, "/enter_record")
}

func TestRouter_Stop(t *testing.T) {
	f := newFixture()
	key := dialog.Key{UserID: "ou_init", ChatID: "oc_1"}

	require.NoError(t, f.router.Handle(context.Background(), Update{UserID: "ou_init", ChatID: "oc_1", Text: "/stop"}))
	assert.Equal(t, "Nothing to cancel.", f.responder.last().text)

	f.dialogs.active[key] = true
	require.NoError(t, f.router.Handle(context.Background(), Update{UserID: "ou_init", ChatID: "oc_1", Text: "/stop"}))
	assert.Equal(t, "Entry cancelled.", f.responder.last().text)
	assert.False(t, f.dialogs.Active(key))
}

func TestRouter_SubmitRecord(t *testing.T) {
	f := newFixture()
	f.approvals.submitStructuredFunc = func(ctx context.Context, initiator entity.Actor, raw string) (*workflow.Outcome, error) {
		assert.Equal(t, "ou_init", initiator.ID)
		assert.Equal(t, "60000;Office;Rent;Landlord;May;05.25;безнал", raw)
		rec := record(3, entity.StatusNotProcessed)
		rec.ApprovalsNeeded = 2
		return &workflow.Outcome{Record: rec}, nil
	}

	require.NoError(t, f.router.Handle(context.Background(), Update{
		UserID: "ou_init", ChatID: "oc_1",
		Text: "/submit_record 60000;Office;Rent;Landlord;May;05.25;безнал",
	}))
	assert.Equal(t, "Record #3 submitted for approval (2 approval(s) needed).", f.responder.last().text)
}

func TestRouter_ApproveByCommandUsesRecordStatus(t *testing.T) {
	f := newFixture()
	f.approvals.getRecordFunc = func(ctx context.Context, id int64) (*service.RecordDetail, error) {
		return &service.RecordDetail{Record: record(id, entity.StatusNotProcessed)}, nil
	}
	f.approvals.decideFunc = func(ctx context.Context, id int64, action entity.Action, actor entity.Actor) (*workflow.Outcome, error) {
		assert.Equal(t, int64(5), id)
		assert.Equal(t, entity.ActionApprove, action)
		assert.Equal(t, entity.DepartmentHead, actor.Department)
		return &workflow.Outcome{Record: record(id, entity.StatusApproved)}, nil
	}

	require.NoError(t, f.router.Handle(context.Background(), Update{UserID: "ou_head", ChatID: "oc_1", Text: "/approve_record 5"}))
	assert.Equal(t, "Record #5 is now Approved.", f.responder.last().text)
}

func TestRouter_ApprovalButtonUsesButtonDepartment(t *testing.T) {
	f := newFixture()
	f.approvals.decideFunc = func(ctx context.Context, id int64, action entity.Action, actor entity.Actor) (*workflow.Outcome, error) {
		assert.Equal(t, entity.ActionReject, action)
		assert.Equal(t, entity.DepartmentFinance, actor.Department)
		return &workflow.Outcome{Record: record(id, entity.StatusRejected), NotifyErr: errors.New("edit failed")}, nil
	}

	cb := port.Callback{Kind: port.CallbackApproval, Action: entity.ActionReject, Department: entity.DepartmentFinance, RecordID: 9}
	require.NoError(t, f.router.Handle(context.Background(), Update{UserID: "ou_fin", ChatID: "oc_2", Callback: &cb}))
	assert.Contains(t, f.responder.last().text, "Record #9 is now Rejected.")
	assert.Contains(t, f.responder.last().text, "could not be delivered")
}

func TestRouter_PaymentButton(t *testing.T) {
	f := newFixture()
	f.approvals.confirmPaymentFunc = func(ctx context.Context, id int64, actor entity.Actor) (*workflow.Outcome, error) {
		assert.Equal(t, entity.DepartmentPayers, actor.Department)
		return &workflow.Outcome{Record: record(id, entity.StatusPaid)}, nil
	}

	cb := port.Callback{Kind: port.CallbackPayment, Action: entity.ActionPay, Department: entity.DepartmentPayers, RecordID: 4}
	require.NoError(t, f.router.Handle(context.Background(), Update{UserID: "ou_pay", ChatID: "oc_3", Callback: &cb}))
	assert.Equal(t, "Record #4 is now Paid.", f.responder.last().text)
}

func TestRouter_ShowNotPaid(t *testing.T) {
	f := newFixture()
	f.approvals.listUnsettledFunc = func(ctx context.Context) ([]*entity.ExpenseRecord, error) {
		return nil, nil
	}

	require.NoError(t, f.router.Handle(context.Background(), Update{UserID: "ou_viewer", ChatID: "oc_1", Text: "/show_not_paid"}))
	assert.Equal(t, "No unsettled records.", f.responder.last().text)
}

func TestRouter_ErrorReporting(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantText   string
		wantPaging bool
	}{
		{"not found", fmt.Errorf("%w: #5", entity.ErrNotFound), "Not found", false},
		{"out of turn", fmt.Errorf("%w: record is Pending", entity.ErrIllegalTransition), "Cannot do that now", false},
		{"wrong department", fmt.Errorf("%w: payers cannot approve", entity.ErrUnauthorized), "Not allowed", false},
		{"storage", fmt.Errorf("%w: disk I/O error", entity.ErrStorage), "operator has been notified", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			f.approvals.decideFunc = func(ctx context.Context, id int64, action entity.Action, actor entity.Actor) (*workflow.Outcome, error) {
				return nil, tt.err
			}

			cb := port.Callback{Kind: port.CallbackApproval, Action: entity.ActionApprove, Department: entity.DepartmentHead, RecordID: 5}
			require.NoError(t, f.router.Handle(context.Background(), Update{UserID: "ou_head", ChatID: "oc_1", Callback: &cb}))

			assert.Contains(t, f.responder.last().text, tt.wantText)
			if tt.wantPaging {
				require.Len(t, f.pages.pages, 1)
				assert.Contains(t, f.pages.pages[0], "disk I/O error")
			} else {
				assert.Empty(t, f.pages.pages)
			}
		})
	}
}

func TestRouter_BadRecordID(t *testing.T) {
	f := newFixture()

	require.NoError(t, f.router.Handle(context.Background(), Update{UserID: "ou_head", ChatID: "oc_1", Text: "/reject_record abc"}))
	assert.Contains(t, f.responder.last().text, "Invalid input")
}
