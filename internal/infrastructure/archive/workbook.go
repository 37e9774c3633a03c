package archive

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/garyjia/budget-approval/internal/application/port"
	"github.com/garyjia/budget-approval/internal/domain/entity"
)

// Default sheet names inside the workbook.
const (
	DefaultLedgerSheet   = "Records"
	DefaultTaxonomySheet = "Categories"
)

// Workbook is an .xlsx file used as archive ledger and taxonomy source.
// Each call opens the file, so external edits to the taxonomy are picked up.
type Workbook struct {
	path          string
	ledgerSheet   string
	taxonomySheet string
	logger        *zap.Logger

	mu sync.Mutex
}

// NewWorkbook creates a workbook adapter for path
func NewWorkbook(path, ledgerSheet, taxonomySheet string, logger *zap.Logger) *Workbook {
	if ledgerSheet == "" {
		ledgerSheet = DefaultLedgerSheet
	}
	if taxonomySheet == "" {
		taxonomySheet = DefaultTaxonomySheet
	}
	return &Workbook{
		path:          path,
		ledgerSheet:   ledgerSheet,
		taxonomySheet: taxonomySheet,
		logger:        logger,
	}
}

// Append adds a row for rec below the last used row of the ledger sheet,
// creating the file and header when needed.
func (w *Workbook) Append(ctx context.Context, rec *entity.ExpenseRecord) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	f, err := w.open()
	if err != nil {
		return err
	}
	defer f.Close()

	idx, err := f.GetSheetIndex(w.ledgerSheet)
	if err != nil {
		return fmt.Errorf("failed to look up sheet %s: %w", w.ledgerSheet, err)
	}
	if idx == -1 {
		if _, err := f.NewSheet(w.ledgerSheet); err != nil {
			return fmt.Errorf("failed to create sheet %s: %w", w.ledgerSheet, err)
		}
	}

	rows, err := f.GetRows(w.ledgerSheet)
	if err != nil {
		return fmt.Errorf("failed to read sheet %s: %w", w.ledgerSheet, err)
	}
	next := len(rows) + 1
	if next == 1 {
		if err := w.setRow(f, 1, Columns); err != nil {
			return err
		}
		next = 2
	}

	if err := w.setRow(f, next, Row(rec)); err != nil {
		return err
	}

	if err := f.SaveAs(w.path); err != nil {
		w.logger.Error("Failed to save workbook", zap.String("path", w.path), zap.Error(err))
		return fmt.Errorf("failed to save workbook: %w", err)
	}

	w.logger.Info("Record archived to workbook",
		zap.Int64("record_id", rec.ID),
		zap.String("path", w.path),
		zap.Int("row", next))
	return nil
}

// Fetch reads (item, group, partner) rows from the taxonomy sheet, skipping
// the header row.
func (w *Workbook) Fetch(ctx context.Context) (entity.Taxonomy, error) {
	f, err := excelize.OpenFile(w.path)
	if err != nil {
		return entity.Taxonomy{}, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	rows, err := f.GetRows(w.taxonomySheet)
	if err != nil {
		return entity.Taxonomy{}, fmt.Errorf("failed to read sheet %s: %w", w.taxonomySheet, err)
	}
	if len(rows) > 0 {
		rows = rows[1:]
	}
	return TaxonomyFromRows(rows), nil
}

func (w *Workbook) open() (*excelize.File, error) {
	f, err := excelize.OpenFile(w.path)
	if err == nil {
		return f, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}

	f = excelize.NewFile()
	if err := f.SetSheetName("Sheet1", w.ledgerSheet); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to name ledger sheet: %w", err)
	}
	return f, nil
}

func (w *Workbook) setRow(f *excelize.File, row int, values []string) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	cells := make([]interface{}, len(values))
	for i, v := range values {
		cells[i] = v
	}
	if err := f.SetSheetRow(w.ledgerSheet, cell, &cells); err != nil {
		return fmt.Errorf("failed to write row %d: %w", row, err)
	}
	return nil
}

// Verify interface compliance
var (
	_ port.ArchiveSink      = (*Workbook)(nil)
	_ port.TaxonomyProvider = (*Workbook)(nil)
)
