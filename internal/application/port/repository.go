package port

import (
	"context"

	"github.com/garyjia/budget-approval/internal/domain/entity"
)

// RecordRepository persists expense records.
type RecordRepository interface {
	// Create inserts rec and sets its ID. Missing required fields fail with ErrValidation.
	Create(ctx context.Context, rec *entity.ExpenseRecord) error

	// GetByID returns the record or an error wrapping ErrNotFound.
	GetByID(ctx context.Context, id int64) (*entity.ExpenseRecord, error)

	// Update writes only the fields set in upd. Unknown ids fail with ErrNotFound.
	Update(ctx context.Context, id int64, upd entity.RecordUpdate) error

	// ListUnsettled returns records whose status is neither Paid nor Rejected, by ascending id.
	ListUnsettled(ctx context.Context) ([]*entity.ExpenseRecord, error)
}

// HistoryRepository persists the transition audit trail.
type HistoryRepository interface {
	Create(ctx context.Context, history *entity.ApprovalHistory) error
	ListByRecordID(ctx context.Context, recordID int64) ([]*entity.ApprovalHistory, error)
}

// TransactionManager handles database transactions
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
