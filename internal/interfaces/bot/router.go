package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/garyjia/budget-approval/internal/application/port"
	"github.com/garyjia/budget-approval/internal/application/service"
	"github.com/garyjia/budget-approval/internal/application/workflow"
	"github.com/garyjia/budget-approval/internal/domain/dialog"
	"github.com/garyjia/budget-approval/internal/domain/entity"
)

// Router handles every update the gateway receives.
type Router struct {
	approvals     service.ApprovalService
	dialogs       service.DialogService
	notifications service.NotificationService
	directory     *service.Directory
	responder     Responder
	logger        *zap.Logger
}

// NewRouter creates a new Router
func NewRouter(
	approvals service.ApprovalService,
	dialogs service.DialogService,
	notifications service.NotificationService,
	directory *service.Directory,
	responder Responder,
	logger *zap.Logger,
) *Router {
	return &Router{
		approvals:     approvals,
		dialogs:       dialogs,
		notifications: notifications,
		directory:     directory,
		responder:     responder,
		logger:        logger,
	}
}

// Handle processes one update. Business errors are answered in the chat; the
// returned error is only set when the answer itself could not be delivered.
func (r *Router) Handle(ctx context.Context, u Update) error {
	if !r.directory.Allowed(u.UserID) {
		r.logger.Warn("Update from unknown user ignored",
			zap.String("user_id", u.UserID),
			zap.String("chat_id", u.ChatID))
		return r.reply(ctx, u, fmt.Sprintf("Access denied. Your id is %s.", u.UserID), nil)
	}

	var err error
	switch {
	case u.Callback != nil:
		err = r.handleCallback(ctx, u, *u.Callback)
	default:
		err = r.handleText(ctx, u)
	}
	if err != nil {
		return r.reportError(ctx, u, err)
	}
	return nil
}

func (r *Router) handleText(ctx context.Context, u Update) error {
	name, args, ok := splitCommand(u.Text)
	if !ok {
		if !r.dialogs.Active(u.Key()) {
			return r.reply(ctx, u, "Use /enter_record to start a new record.\n\n"+helpText, nil)
		}
		res, err := r.dialogs.SubmitText(ctx, u.Key(), u.Text)
		if err != nil {
			return err
		}
		return r.replyDialog(ctx, u, res)
	}

	r.logger.Info("Command received",
		zap.String("command", name),
		zap.String("user_id", u.UserID),
		zap.String("chat_id", u.ChatID))

	switch name {
	case cmdStart:
		return r.reply(ctx, u, fmt.Sprintf("Your id: %s\n\n%s", u.UserID, helpText), nil)

	case cmdEnterRecord:
		if !r.directory.CanInitiate(u.UserID) {
			return fmt.Errorf("%w: %s may not submit records", entity.ErrUnauthorized, u.UserID)
		}
		reply, err := r.dialogs.Start(ctx, u.Key(), r.initiator(u.UserID))
		if err != nil {
			return err
		}
		return r.replyDialog(ctx, u, &service.DialogResult{Reply: reply})

	case cmdStop:
		reply, ok := r.dialogs.Cancel(ctx, u.Key())
		if !ok {
			return r.reply(ctx, u, "Nothing to cancel.", nil)
		}
		return r.replyDialog(ctx, u, &service.DialogResult{Reply: reply})

	case cmdSubmitRecord:
		if !r.directory.CanInitiate(u.UserID) {
			return fmt.Errorf("%w: %s may not submit records", entity.ErrUnauthorized, u.UserID)
		}
		out, err := r.approvals.SubmitStructured(ctx, r.initiator(u.UserID), args)
		if err != nil {
			return err
		}
		return r.reply(ctx, u, submittedText(out), nil)

	case cmdApprove:
		return r.decideByCommand(ctx, u, args, entity.ActionApprove)

	case cmdReject:
		return r.decideByCommand(ctx, u, args, entity.ActionReject)

	case cmdShowNotPaid:
		records, err := r.approvals.ListUnsettled(ctx)
		if err != nil {
			return err
		}
		return r.reply(ctx, u, service.FormatUnsettled(records), nil)
	}

	return r.reply(ctx, u, "Unknown command.\n\n"+helpText, nil)
}

// decideByCommand resolves the acting department from the record status, since
// a command carries no department the way a button does.
func (r *Router) decideByCommand(ctx context.Context, u Update, args string, action entity.Action) error {
	id, err := parseRecordID(args)
	if err != nil {
		return err
	}
	detail, err := r.approvals.GetRecord(ctx, id)
	if err != nil {
		return err
	}
	actor := r.directory.ActorForStatus(u.UserID, detail.Record.Status)
	out, err := r.approvals.Decide(ctx, id, action, actor)
	if err != nil {
		return err
	}
	return r.reply(ctx, u, transitionText(out), nil)
}

func (r *Router) handleCallback(ctx context.Context, u Update, cb port.Callback) error {
	r.logger.Info("Button pressed",
		zap.String("kind", string(cb.Kind)),
		zap.String("action", string(cb.Action)),
		zap.Int64("record_id", cb.RecordID),
		zap.String("user_id", u.UserID))

	switch cb.Kind {
	case port.CallbackDialog:
		if !r.dialogs.Active(u.Key()) {
			r.closeCard(ctx, u, "This question was already answered.")
			return r.reply(ctx, u, "No record entry in progress. Use /enter_record.", nil)
		}
		res, err := r.dialogs.SubmitSelection(ctx, u.Key(), cb.Prompt, cb.Index)
		if err != nil {
			return err
		}
		if res.Reply.Stale {
			r.closeCard(ctx, u, "This question was already answered.")
		} else {
			r.closeCard(ctx, u, "You chose: "+cb.Choice)
		}
		return r.replyDialog(ctx, u, res)

	case port.CallbackApproval:
		out, err := r.approvals.Decide(ctx, cb.RecordID, cb.Action, r.directory.ActorFor(u.UserID, cb.Department))
		if err != nil {
			return err
		}
		return r.reply(ctx, u, transitionText(out), nil)

	case port.CallbackPayment:
		out, err := r.approvals.ConfirmPayment(ctx, cb.RecordID, r.directory.ActorFor(u.UserID, entity.DepartmentPayers))
		if err != nil {
			return err
		}
		return r.reply(ctx, u, transitionText(out), nil)
	}

	return fmt.Errorf("%w: unknown button %q", entity.ErrValidation, cb.Kind)
}

func (r *Router) initiator(userID string) entity.Actor {
	return entity.Actor{ID: userID, Name: r.directory.Name(userID)}
}

func (r *Router) replyDialog(ctx context.Context, u Update, res *service.DialogResult) error {
	lines := append([]string(nil), res.Reply.Notes...)
	var buttons []port.Button

	switch res.Reply.Outcome {
	case dialog.OutcomeSubmitted:
		if res.Outcome != nil {
			lines = append(lines, submittedText(res.Outcome))
		}
	case dialog.OutcomeCancelled:
		if len(lines) == 0 {
			lines = append(lines, "Entry cancelled.")
		}
	default:
		if p := res.Reply.Prompt; p != nil {
			lines = append(lines, p.Text)
			for i, opt := range p.Options {
				buttons = append(buttons, port.Button{
					Label:    opt,
					Callback: port.Callback{Kind: port.CallbackDialog, Index: i, Prompt: p.Token, Choice: opt},
				})
			}
		}
	}

	return r.reply(ctx, u, strings.Join(lines, "\n"), buttons)
}

// closeCard strips the buttons from the card a dialog button was pressed on.
// A failed edit only leaves the buttons in place, so it is logged and ignored.
func (r *Router) closeCard(ctx context.Context, u Update, text string) {
	if u.MessageID == "" {
		return
	}
	ref := entity.MessageRef{ChatID: u.ChatID, MessageID: u.MessageID}
	if err := r.responder.Edit(ctx, ref, text); err != nil {
		r.logger.Warn("Failed to close answered card",
			zap.String("message_id", u.MessageID),
			zap.Error(err))
	}
}

func (r *Router) reply(ctx context.Context, u Update, text string, buttons []port.Button) error {
	if err := r.responder.Reply(ctx, u.ChatID, text, buttons); err != nil {
		r.logger.Error("Failed to reply",
			zap.String("chat_id", u.ChatID),
			zap.Error(err))
		return err
	}
	return nil
}

// reportError tells the user what went wrong. Storage and unexpected errors
// are also paged to the operator.
func (r *Router) reportError(ctx context.Context, u Update, err error) error {
	var text string
	page := false

	switch {
	case errors.Is(err, entity.ErrValidation):
		text = "Invalid input: " + err.Error()
	case errors.Is(err, entity.ErrUnauthorized):
		text = "Not allowed: " + err.Error()
	case errors.Is(err, entity.ErrNotFound):
		text = "Not found: " + err.Error()
	case errors.Is(err, entity.ErrIllegalTransition):
		text = "Cannot do that now: " + err.Error()
	case errors.Is(err, entity.ErrStorage):
		text = "Internal error, the operator has been notified."
		page = true
	default:
		text = "Something went wrong, the operator has been notified."
		page = true
	}

	if page {
		r.logger.Error("Update failed",
			zap.String("user_id", u.UserID),
			zap.String("chat_id", u.ChatID),
			zap.Error(err))
		pageText := fmt.Sprintf("Error for user %s in chat %s: %v", u.UserID, u.ChatID, err)
		if pageErr := r.notifications.PageOperator(ctx, pageText); pageErr != nil {
			r.logger.Error("Failed to page operator", zap.Error(pageErr))
		}
	} else {
		r.logger.Info("Update rejected",
			zap.String("user_id", u.UserID),
			zap.Error(err))
	}

	return r.reply(ctx, u, text, nil)
}

func parseRecordID(args string) (int64, error) {
	fields := strings.Fields(args)
	if len(fields) != 1 {
		return 0, fmt.Errorf("%w: expected one record id", entity.ErrValidation)
	}
	id, err := strconv.ParseInt(strings.TrimPrefix(fields[0], "#"), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: %q is not a record id", entity.ErrValidation, fields[0])
	}
	return id, nil
}

func submittedText(out *workflow.Outcome) string {
	if out == nil || out.Record == nil {
		return "Record submitted."
	}
	text := fmt.Sprintf("Record #%d submitted for approval (%d approval(s) needed).",
		out.Record.ID, out.Record.ApprovalsNeeded)
	return withNotifyWarning(text, out)
}

func transitionText(out *workflow.Outcome) string {
	if out == nil || out.Record == nil {
		return "Done."
	}
	return withNotifyWarning(fmt.Sprintf("Record #%d is now %s.", out.Record.ID, out.Record.Status), out)
}

func withNotifyWarning(text string, out *workflow.Outcome) string {
	if out.NotifyErr != nil {
		text += "\nSome notifications could not be delivered."
	}
	return text
}
