// Package sqlite carries one database transaction through a context so the
// repositories of a single workflow step share it.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/garyjia/budget-approval/internal/application/port"
	"github.com/garyjia/budget-approval/internal/domain/entity"
	"github.com/garyjia/budget-approval/internal/tracing"
)

type txKey struct{}

// Executor covers both *sql.DB and *sql.Tx
type Executor interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// TxManager implements port.TransactionManager over a sqlite handle.
type TxManager struct {
	db     *sql.DB
	logger *zap.Logger
}

var _ port.TransactionManager = (*TxManager)(nil)

// NewTxManager creates a transaction manager for db.
func NewTxManager(db *sql.DB, logger *zap.Logger) *TxManager {
	return &TxManager{db: db, logger: logger}
}

// WithTransaction runs fn with a context carrying the transaction. A call made
// while a transaction is already in ctx joins it. Begin and commit failures
// wrap entity.ErrStorage; errors from fn are returned as they are.
func (m *TxManager) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if txFrom(ctx) != nil {
		return fn(ctx)
	}

	ctx, span := tracing.StartSpan(ctx, "sqlite.transaction", nil)
	defer func() { tracing.EndSpan(span, err) }()

	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: begin transaction: %v", entity.ErrStorage, err)
	}

	committed := false
	defer func() {
		if committed {
			return
		}
		if rbErr := tx.Rollback(); rbErr != nil && rbErr != sql.ErrTxDone {
			m.logger.Error("Rollback failed", zap.Error(rbErr))
		}
		if p := recover(); p != nil {
			m.logger.Error("Transaction panicked, rolled back", zap.Any("panic", p))
			panic(p)
		}
	}()

	if err = fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit transaction: %v", entity.ErrStorage, err)
	}
	committed = true
	return nil
}

func txFrom(ctx context.Context) *sql.Tx {
	tx, _ := ctx.Value(txKey{}).(*sql.Tx)
	return tx
}

// ExecutorFor returns the transaction stored in ctx, or db when there is none.
// Repositories call it on every query so they join WithTransaction.
func ExecutorFor(ctx context.Context, db *sql.DB) Executor {
	if tx := txFrom(ctx); tx != nil {
		return tx
	}
	return db
}
