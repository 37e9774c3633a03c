package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/garyjia/budget-approval/internal/application/dispatcher"
	"github.com/garyjia/budget-approval/internal/application/port"
	"github.com/garyjia/budget-approval/internal/domain/entity"
	"github.com/garyjia/budget-approval/internal/domain/event"
)

// NotificationService turns record events into chat messages.
type NotificationService interface {
	// Register subscribes the service to every record event.
	Register(d dispatcher.Dispatcher)

	// PageOperator sends text to the operator chat, if one is configured.
	PageOperator(ctx context.Context, text string) error
}

type notificationServiceImpl struct {
	notifier  port.Notifier
	store     port.InteractionStore
	directory *Directory
	logger    Logger
}

// NewNotificationService creates a new NotificationService
func NewNotificationService(
	notifier port.Notifier,
	store port.InteractionStore,
	directory *Directory,
	logger Logger,
) NotificationService {
	return &notificationServiceImpl{
		notifier:  notifier,
		store:     store,
		directory: directory,
		logger:    logger,
	}
}

func (s *notificationServiceImpl) Register(d dispatcher.Dispatcher) {
	d.SubscribeNamed(event.TypeRecordSubmitted, "notify-submitted", s.onSubmitted)
	d.SubscribeNamed(event.TypeRecordEscalated, "notify-escalated", s.onEscalated)
	d.SubscribeNamed(event.TypeRecordApproved, "notify-approved", s.onApproved)
	d.SubscribeNamed(event.TypeRecordRejected, "notify-rejected", s.onRejected)
	d.SubscribeNamed(event.TypeRecordPaid, "notify-paid", s.onPaid)
}

func (s *notificationServiceImpl) onSubmitted(ctx context.Context, evt *event.Event) error {
	return s.requestApproval(ctx, evt.Record, entity.DepartmentHead)
}

func (s *notificationServiceImpl) onEscalated(ctx context.Context, evt *event.Event) error {
	return errors.Join(
		s.invalidate(ctx, evt.RecordID, entity.DepartmentHead,
			fmt.Sprintf("Record #%d approved by %s and sent to finance.", evt.RecordID, evt.Actor.DisplayName())),
		s.requestApproval(ctx, evt.Record, entity.DepartmentFinance),
	)
}

func (s *notificationServiceImpl) onApproved(ctx context.Context, evt *event.Event) error {
	return errors.Join(
		s.invalidate(ctx, evt.RecordID, evt.Acted,
			fmt.Sprintf("Record #%d approved. Waiting for payment.", evt.RecordID)),
		s.requestPayment(ctx, evt.Record),
	)
}

func (s *notificationServiceImpl) onRejected(ctx context.Context, evt *event.Event) error {
	return errors.Join(
		s.invalidate(ctx, evt.RecordID, evt.Acted, fmt.Sprintf("Record #%d rejected.", evt.RecordID)),
		s.notifyInitiator(ctx, evt.Record,
			fmt.Sprintf("Record #%d was rejected by %s.", evt.RecordID, evt.Actor.DisplayName())),
	)
}

func (s *notificationServiceImpl) onPaid(ctx context.Context, evt *event.Event) error {
	return errors.Join(
		s.invalidate(ctx, evt.RecordID, entity.DepartmentPayers, fmt.Sprintf("Record #%d paid.", evt.RecordID)),
		s.notifyInitiator(ctx, evt.Record, fmt.Sprintf("Record #%d has been paid.", evt.RecordID)),
	)
}

func (s *notificationServiceImpl) requestApproval(ctx context.Context, rec *entity.ExpenseRecord, dept entity.Department) error {
	text := fmt.Sprintf("Approval requested (%s)\n\n%s", dept, rec.Describe())
	buttons := []port.Button{
		{Label: "Approve", Callback: port.Callback{Kind: port.CallbackApproval, Action: entity.ActionApprove, Department: dept, RecordID: rec.ID}},
		{Label: "Reject", Callback: port.Callback{Kind: port.CallbackApproval, Action: entity.ActionReject, Department: dept, RecordID: rec.ID}},
	}
	return s.broadcast(ctx, rec.ID, dept, text, buttons)
}

func (s *notificationServiceImpl) requestPayment(ctx context.Context, rec *entity.ExpenseRecord) error {
	text := fmt.Sprintf("Payment requested, approved by %s (%d/%d)\n\n%s",
		rec.ApprovedBy, rec.ApprovalsReceived, rec.ApprovalsNeeded, rec.Describe())
	buttons := []port.Button{
		{Label: "Paid", Callback: port.Callback{Kind: port.CallbackPayment, Action: entity.ActionPay, Department: entity.DepartmentPayers, RecordID: rec.ID}},
	}
	return s.broadcast(ctx, rec.ID, entity.DepartmentPayers, text, buttons)
}

// broadcast posts to a whole roster and remembers the delivered messages.
// A broadcast that reaches nobody is paged to the operator.
func (s *notificationServiceImpl) broadcast(ctx context.Context, recordID int64, dept entity.Department, text string, buttons []port.Button) error {
	recipients := s.directory.Members(dept)
	if len(recipients) == 0 {
		err := fmt.Errorf("department %s has no members", dept)
		s.logger.Error("Nobody to notify", "record_id", recordID, "department", dept)
		return errors.Join(err, s.PageOperator(ctx, fmt.Sprintf("Record #%d: %v.", recordID, err)))
	}

	refs, postErr := s.notifier.Post(ctx, recipients, text, buttons)
	if postErr != nil {
		s.logger.Error("Some recipients were not notified",
			"record_id", recordID,
			"department", dept,
			"delivered", len(refs),
			"error", postErr,
		)
	}

	var saveErr error
	if len(refs) > 0 {
		saveErr = s.store.Save(ctx, entity.PendingInteraction{RecordID: recordID, Department: dept, Messages: refs})
		if saveErr != nil {
			s.logger.Error("Failed to remember posted prompts", "record_id", recordID, "department", dept, "error", saveErr)
		}
	} else {
		pageErr := s.PageOperator(ctx, fmt.Sprintf("Record #%d: could not notify %s.", recordID, dept))
		postErr = errors.Join(postErr, pageErr)
	}

	s.logger.Info("Prompt broadcast", "record_id", recordID, "department", dept, "delivered", len(refs))
	return errors.Join(postErr, saveErr)
}

// invalidate replaces every prompt posted to dept for the record with text.
// Edit failures are logged and the remaining messages are still edited.
func (s *notificationServiceImpl) invalidate(ctx context.Context, recordID int64, dept entity.Department, text string) error {
	if dept == "" {
		return nil
	}
	key := entity.InteractionKey{RecordID: recordID, Department: dept}

	pending, err := s.store.Get(ctx, key)
	if err != nil {
		s.logger.Error("Failed to load posted prompts", "key", key.String(), "error", err)
		return err
	}
	if pending == nil {
		return nil
	}

	var errs []error
	for _, ref := range pending.Messages {
		if err := s.notifier.Edit(ctx, ref, text); err != nil {
			s.logger.Error("Failed to invalidate prompt",
				"key", key.String(),
				"chat_id", ref.ChatID,
				"message_id", ref.MessageID,
				"error", err,
			)
			errs = append(errs, err)
		}
	}

	if err := s.store.Delete(ctx, key); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (s *notificationServiceImpl) notifyInitiator(ctx context.Context, rec *entity.ExpenseRecord, text string) error {
	if rec == nil || rec.InitiatorID == "" {
		return nil
	}
	if err := s.notifier.Send(ctx, rec.InitiatorID, text); err != nil {
		s.logger.Error("Failed to notify initiator", "record_id", rec.ID, "initiator", rec.InitiatorID, "error", err)
		return err
	}
	return nil
}

func (s *notificationServiceImpl) PageOperator(ctx context.Context, text string) error {
	chat := s.directory.OperatorChat()
	if chat == "" {
		s.logger.Error("Operator page dropped, no operator chat configured", "text", text)
		return nil
	}
	if err := s.notifier.Send(ctx, chat, text); err != nil {
		s.logger.Error("Failed to page operator", "error", err)
		return err
	}
	return nil
}
