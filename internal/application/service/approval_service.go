package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/garyjia/budget-approval/internal/application/port"
	"github.com/garyjia/budget-approval/internal/application/workflow"
	"github.com/garyjia/budget-approval/internal/domain/command"
	"github.com/garyjia/budget-approval/internal/domain/entity"
)

// Logger interface for minimal logging dependency
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// RecordDetail is a record with its audit trail.
type RecordDetail struct {
	Record  *entity.ExpenseRecord     `json:"record"`
	History []*entity.ApprovalHistory `json:"history"`
}

// ApprovalService is the entry point for submitting and deciding records.
type ApprovalService interface {
	// Submit stores a proposal collected by the dialog.
	Submit(ctx context.Context, proposal entity.ExpenseProposal, initiator entity.Actor) (*workflow.Outcome, error)

	// SubmitStructured parses a one-line semicolon literal and stores it.
	SubmitStructured(ctx context.Context, initiator entity.Actor, raw string) (*workflow.Outcome, error)

	// Decide applies approve or reject.
	Decide(ctx context.Context, id int64, action entity.Action, actor entity.Actor) (*workflow.Outcome, error)

	// ConfirmPayment marks an approved record as paid.
	ConfirmPayment(ctx context.Context, id int64, actor entity.Actor) (*workflow.Outcome, error)

	GetRecord(ctx context.Context, id int64) (*RecordDetail, error)
	ListUnsettled(ctx context.Context) ([]*entity.ExpenseRecord, error)
}

type approvalServiceImpl struct {
	engine         workflow.WorkflowEngine
	recordRepo     port.RecordRepository
	historyRepo    port.HistoryRepository
	paymentMethods []string
	logger         Logger
}

// NewApprovalService creates a new ApprovalService
func NewApprovalService(
	engine workflow.WorkflowEngine,
	recordRepo port.RecordRepository,
	historyRepo port.HistoryRepository,
	paymentMethods []string,
	logger Logger,
) ApprovalService {
	if len(paymentMethods) == 0 {
		paymentMethods = entity.DefaultPaymentMethods
	}
	return &approvalServiceImpl{
		engine:         engine,
		recordRepo:     recordRepo,
		historyRepo:    historyRepo,
		paymentMethods: paymentMethods,
		logger:         logger,
	}
}

func (s *approvalServiceImpl) Submit(ctx context.Context, proposal entity.ExpenseProposal, initiator entity.Actor) (*workflow.Outcome, error) {
	return s.engine.Submit(ctx, proposal, initiator)
}

func (s *approvalServiceImpl) SubmitStructured(ctx context.Context, initiator entity.Actor, raw string) (*workflow.Outcome, error) {
	proposal, err := command.Parse(raw, s.paymentMethods)
	if err != nil {
		s.logger.Info("Rejected structured submission", "initiator", initiator.ID, "error", err)
		return nil, err
	}
	return s.engine.Submit(ctx, proposal, initiator)
}

func (s *approvalServiceImpl) Decide(ctx context.Context, id int64, action entity.Action, actor entity.Actor) (*workflow.Outcome, error) {
	if action != entity.ActionApprove && action != entity.ActionReject {
		return nil, fmt.Errorf("%w: %q is not a decision", entity.ErrValidation, action)
	}
	return s.engine.Apply(ctx, id, action, actor)
}

func (s *approvalServiceImpl) ConfirmPayment(ctx context.Context, id int64, actor entity.Actor) (*workflow.Outcome, error) {
	return s.engine.Apply(ctx, id, entity.ActionPay, actor)
}

func (s *approvalServiceImpl) GetRecord(ctx context.Context, id int64) (*RecordDetail, error) {
	rec, err := s.recordRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	history, err := s.historyRepo.ListByRecordID(ctx, id)
	if err != nil {
		s.logger.Error("Failed to load history", "error", err, "id", id)
		return nil, err
	}
	return &RecordDetail{Record: rec, History: history}, nil
}

func (s *approvalServiceImpl) ListUnsettled(ctx context.Context) ([]*entity.ExpenseRecord, error) {
	records, err := s.recordRepo.ListUnsettled(ctx)
	if err != nil {
		s.logger.Error("Failed to list unsettled records", "error", err)
		return nil, err
	}
	return records, nil
}

// FormatUnsettled renders records as a numbered list for chat.
func FormatUnsettled(records []*entity.ExpenseRecord) string {
	if len(records) == 0 {
		return "No unsettled records."
	}
	lines := make([]string, 0, len(records))
	for i, r := range records {
		lines = append(lines, fmt.Sprintf("%d. #%d | %s | %s / %s / %s | %s | %s | %s (%d/%d)",
			i+1, r.ID, r.Amount.StringFixed(2),
			r.ExpenseItem, r.ExpenseGroup, r.Partner,
			r.PeriodString(), r.PaymentMethod,
			r.Status, r.ApprovalsReceived, r.ApprovalsNeeded,
		))
	}
	return strings.Join(lines, "\n")
}
