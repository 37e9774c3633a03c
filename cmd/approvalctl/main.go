// Command approvalctl inspects the record store without going through chat.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"
	"go.uber.org/zap"

	"github.com/garyjia/budget-approval/internal/application/service"
	"github.com/garyjia/budget-approval/internal/application/workflow"
	"github.com/garyjia/budget-approval/internal/infrastructure/persistence/repository"
	"github.com/garyjia/budget-approval/internal/infrastructure/persistence/sqlite"
	"github.com/garyjia/budget-approval/migrations"
	"github.com/garyjia/budget-approval/pkg/database"
	"github.com/garyjia/budget-approval/pkg/utils"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if !errors.Is(err, ff.ErrHelp) {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
		}
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	rootFlags := ff.NewFlagSet("approvalctl")
	dbPath := rootFlags.StringLong("db", "data/budget.db", "record database file")
	asJSON := rootFlags.BoolLong("json", "print JSON instead of text")

	var approvals service.ApprovalService
	open := func() (func() error, error) {
		db, err := database.New(database.Config{Path: *dbPath}, zap.NewNop())
		if err != nil {
			return nil, err
		}
		if err := database.NewMigrator(db, zap.NewNop()).Run(migrations.FS); err != nil {
			db.Close()
			return nil, err
		}
		records := repository.NewRecordRepository(db.DB, zap.NewNop())
		history := repository.NewHistoryRepository(db.DB, zap.NewNop())
		engine := workflow.NewEngine(records, history, sqlite.NewTxManager(db.DB, zap.NewNop()))
		approvals = service.NewApprovalService(engine, records, history, nil, utils.NewKVLogger(zap.NewNop(), ""))
		return db.Close, nil
	}

	listCmd := &ff.Command{
		Name:      "list",
		Usage:     "approvalctl [--db FILE] [--json] list",
		ShortHelp: "list records that are neither paid nor rejected",
		Flags:     ff.NewFlagSet("list").SetParent(rootFlags),
		Exec: func(ctx context.Context, args []string) error {
			closeDB, err := open()
			if err != nil {
				return err
			}
			defer closeDB()

			records, err := approvals.ListUnsettled(ctx)
			if err != nil {
				return err
			}
			if *asJSON {
				return writeJSON(stdout, records)
			}
			_, err = fmt.Fprintln(stdout, service.FormatUnsettled(records))
			return err
		},
	}

	showCmd := &ff.Command{
		Name:      "show",
		Usage:     "approvalctl [--db FILE] [--json] show ID",
		ShortHelp: "show one record with its approval history",
		Flags:     ff.NewFlagSet("show").SetParent(rootFlags),
		Exec: func(ctx context.Context, args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("show takes exactly one record id")
			}
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("bad record id %q", args[0])
			}

			closeDB, err := open()
			if err != nil {
				return err
			}
			defer closeDB()

			detail, err := approvals.GetRecord(ctx, id)
			if err != nil {
				return err
			}
			if *asJSON {
				return writeJSON(stdout, detail)
			}
			return writeDetail(stdout, detail)
		},
	}

	root := &ff.Command{
		Name:        "approvalctl",
		Usage:       "approvalctl [FLAGS] <list|show> ...",
		Flags:       rootFlags,
		Subcommands: []*ff.Command{listCmd, showCmd},
		Exec: func(ctx context.Context, args []string) error {
			return ff.ErrHelp
		},
	}

	err := root.ParseAndRun(ctx, args, ff.WithEnvVarPrefix("APPROVALCTL"))
	if errors.Is(err, ff.ErrHelp) {
		fmt.Fprintf(stderr, "%s\n", ffhelp.Command(root.GetSelected()))
	}
	return err
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeDetail(w io.Writer, d *service.RecordDetail) error {
	fmt.Fprintln(w, d.Record.Describe())
	if len(d.History) == 0 {
		return nil
	}
	fmt.Fprintln(w, "History:")
	for _, h := range d.History {
		fmt.Fprintf(w, "  %s  %-8s %-8s %s -> %s  (%s)\n",
			h.Timestamp.Format("2006-01-02 15:04"), h.Action, h.Department, h.PreviousStatus, h.NewStatus, h.ActorID)
	}
	return nil
}
