package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/garyjia/budget-approval/internal/application/port"
	"github.com/garyjia/budget-approval/internal/domain/entity"
	"github.com/garyjia/budget-approval/internal/infrastructure/persistence/sqlite"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// RecordRepository implements port.RecordRepository
type RecordRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewRecordRepository creates a new record repository
func NewRecordRepository(db *sql.DB, logger *zap.Logger) port.RecordRepository {
	return &RecordRepository{
		db:     db,
		logger: logger,
	}
}

const recordColumns = `id, amount, expense_item, expense_group, partner, comment, period,
	payment_method, approvals_needed, approvals_received, status, approved_by,
	initiator_id, paid_at, created_at, updated_at`

// Create inserts a new record
func (r *RecordRepository) Create(ctx context.Context, rec *entity.ExpenseRecord) error {
	if err := rec.Validate(); err != nil {
		return err
	}

	now := time.Now()
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = now
	}
	rec.UpdatedAt = now

	query := `
		INSERT INTO records (
			amount, expense_item, expense_group, partner, comment, period,
			payment_method, approvals_needed, approvals_received, status,
			approved_by, initiator_id, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := sqlite.ExecutorFor(ctx, r.db).ExecContext(ctx, query,
		rec.Amount.String(),
		rec.ExpenseItem,
		rec.ExpenseGroup,
		rec.Partner,
		rec.Comment,
		rec.PeriodString(),
		rec.PaymentMethod,
		rec.ApprovalsNeeded,
		rec.ApprovalsReceived,
		string(rec.Status),
		rec.ApprovedBy,
		rec.InitiatorID,
		rec.CreatedAt,
		rec.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create record", zap.Error(err))
		return fmt.Errorf("failed to create record: %w: %w", entity.ErrStorage, err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w: %w", entity.ErrStorage, err)
	}

	rec.ID = id
	return nil
}

// GetByID retrieves a record by ID
func (r *RecordRepository) GetByID(ctx context.Context, id int64) (*entity.ExpenseRecord, error) {
	query := `SELECT ` + recordColumns + ` FROM records WHERE id = ?`

	rec, err := scanRecord(sqlite.ExecutorFor(ctx, r.db).QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: record #%d", entity.ErrNotFound, id)
	}
	if err != nil {
		r.logger.Error("Failed to get record", zap.Int64("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get record: %w: %w", entity.ErrStorage, err)
	}
	return rec, nil
}

// Update writes only the fields set in upd
func (r *RecordRepository) Update(ctx context.Context, id int64, upd entity.RecordUpdate) error {
	if upd.IsEmpty() {
		return nil
	}

	var (
		sets []string
		args []interface{}
	)
	if upd.Status != nil {
		sets = append(sets, "status = ?")
		args = append(args, string(*upd.Status))
	}
	if upd.ApprovalsReceived != nil {
		sets = append(sets, "approvals_received = ?")
		args = append(args, *upd.ApprovalsReceived)
	}
	if upd.ApprovedBy != nil {
		sets = append(sets, "approved_by = ?")
		args = append(args, *upd.ApprovedBy)
	}
	if upd.PaidAt != nil {
		sets = append(sets, "paid_at = ?")
		args = append(args, *upd.PaidAt)
	}
	sets = append(sets, "updated_at = ?")
	args = append(args, time.Now(), id)

	query := `UPDATE records SET ` + strings.Join(sets, ", ") + ` WHERE id = ?`

	result, err := sqlite.ExecutorFor(ctx, r.db).ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to update record", zap.Int64("id", id), zap.Error(err))
		return fmt.Errorf("failed to update record: %w: %w", entity.ErrStorage, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w: %w", entity.ErrStorage, err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: record #%d", entity.ErrNotFound, id)
	}
	return nil
}

// ListUnsettled returns records that are neither paid nor rejected
func (r *RecordRepository) ListUnsettled(ctx context.Context) ([]*entity.ExpenseRecord, error) {
	query := `SELECT ` + recordColumns + ` FROM records WHERE status NOT IN (?, ?) ORDER BY id ASC`

	rows, err := sqlite.ExecutorFor(ctx, r.db).QueryContext(ctx, query,
		string(entity.StatusPaid), string(entity.StatusRejected))
	if err != nil {
		r.logger.Error("Failed to list unsettled records", zap.Error(err))
		return nil, fmt.Errorf("failed to list records: %w: %w", entity.ErrStorage, err)
	}
	defer rows.Close()

	var records []*entity.ExpenseRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan record: %w: %w", entity.ErrStorage, err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate records: %w: %w", entity.ErrStorage, err)
	}
	return records, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRecord(row rowScanner) (*entity.ExpenseRecord, error) {
	var (
		rec    entity.ExpenseRecord
		amount string
		period string
		status string
		paidAt sql.NullTime
	)

	err := row.Scan(
		&rec.ID,
		&amount,
		&rec.ExpenseItem,
		&rec.ExpenseGroup,
		&rec.Partner,
		&rec.Comment,
		&period,
		&rec.PaymentMethod,
		&rec.ApprovalsNeeded,
		&rec.ApprovalsReceived,
		&status,
		&rec.ApprovedBy,
		&rec.InitiatorID,
		&paidAt,
		&rec.CreatedAt,
		&rec.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	rec.Amount, err = decimal.NewFromString(amount)
	if err != nil {
		return nil, fmt.Errorf("bad amount %q in record #%d: %w", amount, rec.ID, err)
	}
	rec.Period = strings.Fields(period)
	rec.Status = entity.Status(status)
	if paidAt.Valid {
		t := paidAt.Time
		rec.PaidAt = &t
	}
	return &rec, nil
}

// Verify interface compliance
var _ port.RecordRepository = (*RecordRepository)(nil)
