package workflow

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/garyjia/budget-approval/internal/application/dispatcher"
	"github.com/garyjia/budget-approval/internal/application/port"
	"github.com/garyjia/budget-approval/internal/domain/approval"
	"github.com/garyjia/budget-approval/internal/domain/entity"
	"github.com/garyjia/budget-approval/internal/domain/event"
	"github.com/garyjia/budget-approval/internal/tracing"
)

type engineImpl struct {
	recordRepo  port.RecordRepository
	historyRepo port.HistoryRepository
	txManager   port.TransactionManager
	archive     port.ArchiveSink
	dispatcher  dispatcher.Dispatcher
	logger      dispatcher.Logger
	now         func() time.Time
}

// EngineOption configures the workflow engine
type EngineOption func(*engineImpl)

// WithDispatcher sets the dispatcher that receives record events after commit
func WithDispatcher(d dispatcher.Dispatcher) EngineOption {
	return func(e *engineImpl) {
		e.dispatcher = d
	}
}

// WithArchive sets the sink written when a record is paid
func WithArchive(sink port.ArchiveSink) EngineOption {
	return func(e *engineImpl) {
		e.archive = sink
	}
}

// WithLogger sets the engine logger
func WithLogger(logger dispatcher.Logger) EngineOption {
	return func(e *engineImpl) {
		e.logger = logger
	}
}

// WithClock overrides time.Now, for tests
func WithClock(now func() time.Time) EngineOption {
	return func(e *engineImpl) {
		e.now = now
	}
}

// NewEngine creates a new workflow engine
func NewEngine(
	recordRepo port.RecordRepository,
	historyRepo port.HistoryRepository,
	txManager port.TransactionManager,
	opts ...EngineOption,
) WorkflowEngine {
	e := &engineImpl{
		recordRepo:  recordRepo,
		historyRepo: historyRepo,
		txManager:   txManager,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *engineImpl) Submit(ctx context.Context, proposal entity.ExpenseProposal, initiator entity.Actor) (out *Outcome, err error) {
	ctx, span := tracing.StartSpan(ctx, "workflow.submit", map[string]string{"initiator": initiator.ID})
	defer func() { tracing.EndSpan(span, err) }()

	rec := entity.NewRecord(proposal, initiator.ID)
	if err := rec.Validate(); err != nil {
		return nil, err
	}

	err = e.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := e.recordRepo.Create(txCtx, rec); err != nil {
			return err
		}
		return e.historyRepo.Create(txCtx, &entity.ApprovalHistory{
			RecordID:       rec.ID,
			ActorID:        initiator.ID,
			Department:     initiator.Department,
			Action:         entity.ActionSubmit,
			PreviousStatus: "",
			NewStatus:      rec.Status,
			Timestamp:      e.now(),
		})
	})
	if err != nil {
		e.logError("Failed to submit record", "initiator", initiator.ID, "error", err)
		return nil, err
	}

	e.logInfo("Record submitted", "record_id", rec.ID, "amount", rec.Amount.String(), "approvals_needed", rec.ApprovalsNeeded)

	out = &Outcome{Record: rec}
	evt := event.NewEvent(event.TypeRecordSubmitted, rec, initiator).WithRouting("", entity.DepartmentHead)
	out.NotifyErr = e.dispatch(ctx, evt)
	return out, nil
}

func (e *engineImpl) Apply(ctx context.Context, recordID int64, action entity.Action, actor entity.Actor) (out *Outcome, err error) {
	ctx, span := tracing.StartSpan(ctx, "workflow.apply", map[string]string{
		"record.id":  strconv.FormatInt(recordID, 10),
		"action":     action.String(),
		"department": actor.Department.String(),
	})
	defer func() { tracing.EndSpan(span, err) }()

	var (
		rec *entity.ExpenseRecord
		tr  *approval.Transition
	)

	err = e.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		current, err := e.recordRepo.GetByID(txCtx, recordID)
		if err != nil {
			return err
		}

		tr, err = approval.Evaluate(txCtx, current, action, actor)
		if err != nil {
			return err
		}

		upd := tr.Update()
		now := e.now()
		if tr.To == entity.StatusPaid {
			upd.PaidAt = &now
		}
		if err := e.recordRepo.Update(txCtx, recordID, upd); err != nil {
			return err
		}

		current.Status = tr.To
		current.ApprovalsReceived = tr.ApprovalsReceived
		current.ApprovedBy = tr.ApprovedBy
		current.PaidAt = upd.PaidAt
		current.UpdatedAt = now

		if err := e.historyRepo.Create(txCtx, &entity.ApprovalHistory{
			RecordID:       recordID,
			ActorID:        actor.ID,
			Department:     actor.Department,
			Action:         action,
			PreviousStatus: tr.From,
			NewStatus:      tr.To,
			Timestamp:      now,
		}); err != nil {
			return err
		}

		// The ledger append is the last step so a failure rolls the payment back.
		if tr.To == entity.StatusPaid && e.archive != nil {
			if err := e.archive.Append(txCtx, current); err != nil {
				return fmt.Errorf("%w: archive record #%d: %v", entity.ErrStorage, recordID, err)
			}
		}

		rec = current
		return nil
	})
	if err != nil {
		e.logError("Transition failed",
			"record_id", recordID,
			"action", action,
			"actor", actor.ID,
			"error", err,
		)
		return nil, err
	}

	e.logInfo("Record transitioned",
		"record_id", recordID,
		"from", tr.From,
		"to", tr.To,
		"actor", actor.ID,
	)

	out = &Outcome{Record: rec, Transition: tr}
	if typ, ok := event.TypeForTransition(tr.To); ok {
		evt := event.NewEvent(typ, rec, actor).WithRouting(actor.Department, tr.Next)
		out.NotifyErr = e.dispatch(ctx, evt)
	}
	return out, nil
}

func (e *engineImpl) dispatch(ctx context.Context, evt *event.Event) error {
	if e.dispatcher == nil {
		return nil
	}
	if err := e.dispatcher.Dispatch(ctx, evt); err != nil {
		e.logError("Event handlers failed after commit",
			"event_type", evt.Type,
			"record_id", evt.RecordID,
			"error", err,
		)
		return err
	}
	return nil
}

func (e *engineImpl) logInfo(msg string, kv ...interface{}) {
	if e.logger != nil {
		e.logger.Info(msg, kv...)
	}
}

func (e *engineImpl) logError(msg string, kv ...interface{}) {
	if e.logger != nil {
		e.logger.Error(msg, kv...)
	}
}
