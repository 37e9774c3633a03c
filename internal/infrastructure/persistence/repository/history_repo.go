package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/garyjia/budget-approval/internal/application/port"
	"github.com/garyjia/budget-approval/internal/domain/entity"
	"github.com/garyjia/budget-approval/internal/infrastructure/persistence/sqlite"
	"go.uber.org/zap"
)

// HistoryRepository implements port.HistoryRepository
type HistoryRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewHistoryRepository creates a new history repository
func NewHistoryRepository(db *sql.DB, logger *zap.Logger) port.HistoryRepository {
	return &HistoryRepository{
		db:     db,
		logger: logger,
	}
}

// Create creates a new history record
func (r *HistoryRepository) Create(ctx context.Context, history *entity.ApprovalHistory) error {
	if history.Timestamp.IsZero() {
		history.Timestamp = time.Now()
	}

	query := `
		INSERT INTO approval_history (
			record_id, actor_id, department, action,
			previous_status, new_status, timestamp
		) VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	result, err := sqlite.ExecutorFor(ctx, r.db).ExecContext(ctx, query,
		history.RecordID,
		history.ActorID,
		string(history.Department),
		string(history.Action),
		string(history.PreviousStatus),
		string(history.NewStatus),
		history.Timestamp,
	)
	if err != nil {
		r.logger.Error("Failed to create history record", zap.Error(err))
		return fmt.Errorf("failed to create history: %w: %w", entity.ErrStorage, err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w: %w", entity.ErrStorage, err)
	}

	history.ID = id
	return nil
}

// ListByRecordID retrieves all history rows for a record, oldest first
func (r *HistoryRepository) ListByRecordID(ctx context.Context, recordID int64) ([]*entity.ApprovalHistory, error) {
	query := `
		SELECT id, record_id, actor_id, department, action,
			previous_status, new_status, timestamp
		FROM approval_history
		WHERE record_id = ?
		ORDER BY id ASC
	`

	rows, err := sqlite.ExecutorFor(ctx, r.db).QueryContext(ctx, query, recordID)
	if err != nil {
		r.logger.Error("Failed to get history by record ID", zap.Int64("record_id", recordID), zap.Error(err))
		return nil, fmt.Errorf("failed to get history: %w: %w", entity.ErrStorage, err)
	}
	defer rows.Close()

	var records []*entity.ApprovalHistory
	for rows.Next() {
		var (
			h                  entity.ApprovalHistory
			dept, action       string
			prevStatus, status string
		)
		err := rows.Scan(
			&h.ID,
			&h.RecordID,
			&h.ActorID,
			&dept,
			&action,
			&prevStatus,
			&status,
			&h.Timestamp,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan history record: %w: %w", entity.ErrStorage, err)
		}
		h.Department = entity.Department(dept)
		h.Action = entity.Action(action)
		h.PreviousStatus = entity.Status(prevStatus)
		h.NewStatus = entity.Status(status)
		records = append(records, &h)
	}

	return records, rows.Err()
}

// Verify interface compliance
var _ port.HistoryRepository = (*HistoryRepository)(nil)
