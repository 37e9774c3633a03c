// Package sheets reads the expense taxonomy from and archives paid records to
// a Google Sheets spreadsheet.
package sheets

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"google.golang.org/api/option"
	gsheets "google.golang.org/api/sheets/v4"

	"github.com/garyjia/budget-approval/internal/application/port"
	"github.com/garyjia/budget-approval/internal/domain/entity"
	"github.com/garyjia/budget-approval/internal/infrastructure/archive"
)

// ValuesAPI is the slice of spreadsheets.values the adapter needs.
type ValuesAPI interface {
	Get(ctx context.Context, spreadsheetID, rng string) ([][]interface{}, error)
	Append(ctx context.Context, spreadsheetID, rng string, rows [][]interface{}) error
}

// Config holds spreadsheet locations
type Config struct {
	CredentialsFile string
	SpreadsheetID   string
	TaxonomyRange   string
	LedgerRange     string
}

// Client implements port.TaxonomyProvider and port.ArchiveSink
type Client struct {
	values ValuesAPI
	cfg    Config
	logger *zap.Logger
}

// NewClient connects to the Sheets API
func NewClient(ctx context.Context, cfg Config, logger *zap.Logger) (*Client, error) {
	opts := []option.ClientOption{option.WithScopes(gsheets.SpreadsheetsScope)}
	// Without a file the application default credentials are used.
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	srv, err := gsheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}
	return NewClientWithAPI(&serviceValues{srv: srv}, cfg, logger), nil
}

// NewClientWithAPI creates a client over any ValuesAPI
func NewClientWithAPI(values ValuesAPI, cfg Config, logger *zap.Logger) *Client {
	if cfg.TaxonomyRange == "" {
		cfg.TaxonomyRange = "Categories!A2:C"
	}
	if cfg.LedgerRange == "" {
		cfg.LedgerRange = "Records!A1"
	}
	return &Client{values: values, cfg: cfg, logger: logger}
}

// Fetch reads (item, group, partner) rows from the taxonomy range
func (c *Client) Fetch(ctx context.Context) (entity.Taxonomy, error) {
	raw, err := c.values.Get(ctx, c.cfg.SpreadsheetID, c.cfg.TaxonomyRange)
	if err != nil {
		c.logger.Error("Failed to read taxonomy", zap.String("range", c.cfg.TaxonomyRange), zap.Error(err))
		return entity.Taxonomy{}, fmt.Errorf("failed to read taxonomy: %w", err)
	}

	rows := make([][]string, 0, len(raw))
	for _, r := range raw {
		row := make([]string, len(r))
		for i, cell := range r {
			row[i] = fmt.Sprint(cell)
		}
		rows = append(rows, row)
	}
	return archive.TaxonomyFromRows(rows), nil
}

// Append adds rec as one row at the end of the ledger range
func (c *Client) Append(ctx context.Context, rec *entity.ExpenseRecord) error {
	cells := archive.Row(rec)
	row := make([]interface{}, len(cells))
	for i, v := range cells {
		row[i] = v
	}

	if err := c.values.Append(ctx, c.cfg.SpreadsheetID, c.cfg.LedgerRange, [][]interface{}{row}); err != nil {
		c.logger.Error("Failed to archive record", zap.Int64("record_id", rec.ID), zap.Error(err))
		return fmt.Errorf("failed to append record #%d: %w", rec.ID, err)
	}

	c.logger.Info("Record archived to spreadsheet", zap.Int64("record_id", rec.ID))
	return nil
}

// serviceValues adapts *sheets.Service to ValuesAPI
type serviceValues struct {
	srv *gsheets.Service
}

func (s *serviceValues) Get(ctx context.Context, spreadsheetID, rng string) ([][]interface{}, error) {
	resp, err := s.srv.Spreadsheets.Values.Get(spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, err
	}
	return resp.Values, nil
}

func (s *serviceValues) Append(ctx context.Context, spreadsheetID, rng string, rows [][]interface{}) error {
	_, err := s.srv.Spreadsheets.Values.Append(spreadsheetID, rng, &gsheets.ValueRange{Values: rows}).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	return err
}

// Verify interface compliance
var (
	_ port.ArchiveSink      = (*Client)(nil)
	_ port.TaxonomyProvider = (*Client)(nil)
)
