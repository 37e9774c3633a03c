package container

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/garyjia/budget-approval/internal/application/dispatcher"
	"github.com/garyjia/budget-approval/internal/application/port"
	"github.com/garyjia/budget-approval/internal/application/service"
	"github.com/garyjia/budget-approval/internal/application/workflow"
	"github.com/garyjia/budget-approval/internal/config"
	"github.com/garyjia/budget-approval/internal/infrastructure/archive"
	infraLark "github.com/garyjia/budget-approval/internal/infrastructure/external/lark"
	"github.com/garyjia/budget-approval/internal/infrastructure/external/sheets"
	"github.com/garyjia/budget-approval/internal/infrastructure/persistence/interaction"
	"github.com/garyjia/budget-approval/internal/infrastructure/persistence/repository"
	"github.com/garyjia/budget-approval/internal/infrastructure/persistence/sqlite"
	"github.com/garyjia/budget-approval/migrations"
	"github.com/garyjia/budget-approval/pkg/database"
	"github.com/garyjia/budget-approval/pkg/utils"
)

// DatabaseBundle holds database-related components.
type DatabaseBundle struct {
	DB             *database.DB
	TransactionMgr *sqlite.TxManager
}

// RepositoryBundle groups all repositories for convenient access.
type RepositoryBundle struct {
	Record  port.RecordRepository
	History port.HistoryRepository
}

// IntegrationBundle holds the spreadsheet side of the system.
type IntegrationBundle struct {
	Taxonomy port.TaxonomyProvider
	// Archive is nil when archiving is disabled.
	Archive port.ArchiveSink
}

// ProvideDatabase opens the database and applies the embedded migrations.
func ProvideDatabase(cfg config.DatabaseConfig, logger *zap.Logger) (*DatabaseBundle, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if err := ensureParentDir(cfg.Path); err != nil {
		return nil, err
	}

	db, err := database.New(database.Config{
		Path:            cfg.Path,
		MaxOpenConns:    cfg.MaxOpenConns,
		MaxIdleConns:    cfg.MaxIdleConns,
		ConnMaxLifetime: cfg.ConnMaxLifetime,
	}, logger)
	if err != nil {
		return nil, err
	}

	if err := database.NewMigrator(db, logger).Run(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &DatabaseBundle{
		DB:             db,
		TransactionMgr: sqlite.NewTxManager(db.DB, logger),
	}, nil
}

// ProvideRepositories creates all repositories from a database connection.
func ProvideRepositories(db *database.DB, logger *zap.Logger) (*RepositoryBundle, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is required")
	}
	return &RepositoryBundle{
		Record:  repository.NewRecordRepository(db.DB, logger),
		History: repository.NewHistoryRepository(db.DB, logger),
	}, nil
}

// ProvideInteractionStore opens the bbolt file of posted prompts.
func ProvideInteractionStore(cfg config.InteractionsConfig, logger *zap.Logger) (*interaction.BoltStore, error) {
	if err := ensureParentDir(cfg.Path); err != nil {
		return nil, err
	}
	return interaction.NewBoltStore(cfg.Path, logger)
}

// ProvideMessenger creates the Lark SDK client and the messenger over it.
func ProvideMessenger(cfg config.LarkConfig, logger *zap.Logger) (*infraLark.Messenger, error) {
	if cfg.AppID == "" || cfg.AppSecret == "" {
		return nil, fmt.Errorf("lark credentials are required")
	}
	sdk := infraLark.NewSDK(infraLark.Config{AppID: cfg.AppID, AppSecret: cfg.AppSecret}, logger)
	return infraLark.NewMessenger(sdk, logger), nil
}

// ProvideIntegrations picks the taxonomy provider and archive sink. A single
// Sheets client serves both when both point at Sheets.
func ProvideIntegrations(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*IntegrationBundle, error) {
	var sheetsClient *sheets.Client
	if cfg.UsesSheets() {
		c, err := sheets.NewClient(ctx, sheets.Config{
			CredentialsFile: cfg.Sheets.CredentialsFile,
			SpreadsheetID:   cfg.Sheets.SpreadsheetID,
			TaxonomyRange:   cfg.Sheets.TaxonomyRange,
			LedgerRange:     cfg.Sheets.LedgerRange,
		}, logger)
		if err != nil {
			return nil, err
		}
		sheetsClient = c
	}

	bundle := &IntegrationBundle{}

	switch cfg.Taxonomy.Source {
	case config.SourceSheets:
		bundle.Taxonomy = sheetsClient
	case config.SourceXLSX:
		bundle.Taxonomy = archive.NewWorkbook(cfg.Taxonomy.Path, "", cfg.Taxonomy.Sheet, logger)
	case config.SourceYAML:
		bundle.Taxonomy = archive.NewYAMLTaxonomy(cfg.Taxonomy.Path)
	default:
		return nil, fmt.Errorf("unknown taxonomy source %q", cfg.Taxonomy.Source)
	}

	switch cfg.Archive.Sink {
	case config.SourceSheets:
		bundle.Archive = sheetsClient
	case config.SourceXLSX:
		bundle.Archive = archive.NewWorkbook(cfg.Archive.Path, cfg.Archive.Sheet, "", logger)
	case config.SinkNone:
		logger.Warn("Archiving of paid records is disabled")
	default:
		return nil, fmt.Errorf("unknown archive sink %q", cfg.Archive.Sink)
	}

	return bundle, nil
}

// ProvideDispatcher creates the event dispatcher.
func ProvideDispatcher(logger *zap.Logger) dispatcher.Dispatcher {
	return dispatcher.NewDispatcher(dispatcher.WithLogger(utils.NewKVLogger(logger, "dispatcher")))
}

// WorkflowDeps holds dependencies required for creating the workflow engine.
type WorkflowDeps struct {
	Repos      *RepositoryBundle
	TxManager  port.TransactionManager
	Dispatcher dispatcher.Dispatcher
	Archive    port.ArchiveSink
	Logger     *zap.Logger
}

// ProvideWorkflowEngine creates the transition engine.
func ProvideWorkflowEngine(deps *WorkflowDeps) (workflow.WorkflowEngine, error) {
	if deps == nil || deps.Repos == nil {
		return nil, fmt.Errorf("repositories are required")
	}
	if deps.TxManager == nil {
		return nil, fmt.Errorf("transaction manager is required")
	}

	opts := []workflow.EngineOption{
		workflow.WithDispatcher(deps.Dispatcher),
		workflow.WithLogger(utils.NewKVLogger(deps.Logger, "workflow")),
	}
	if deps.Archive != nil {
		opts = append(opts, workflow.WithArchive(deps.Archive))
	}

	return workflow.NewEngine(deps.Repos.Record, deps.Repos.History, deps.TxManager, opts...), nil
}

// ServiceBundle groups all application services.
type ServiceBundle struct {
	Directory    *service.Directory
	Approval     service.ApprovalService
	Dialog       service.DialogService
	Notification service.NotificationService
}

// ServiceDeps holds what the services are built from.
type ServiceDeps struct {
	Config     *config.Config
	Engine     workflow.WorkflowEngine
	Repos      *RepositoryBundle
	Taxonomy   port.TaxonomyProvider
	Notifier   port.Notifier
	Store      port.InteractionStore
	Dispatcher dispatcher.Dispatcher
	Logger     *zap.Logger
}

// ProvideServices creates the services and subscribes notifications to the
// dispatcher.
func ProvideServices(deps *ServiceDeps) (*ServiceBundle, error) {
	if deps == nil || deps.Config == nil {
		return nil, fmt.Errorf("service dependencies are required")
	}
	cfg := deps.Config

	directory := service.NewDirectory(service.DirectoryConfig{
		Head:         cfg.Departments.Head,
		Finance:      cfg.Departments.Finance,
		Payers:       cfg.Departments.Payers,
		Names:        cfg.Departments.Names,
		Whitelist:    cfg.Access.Whitelist,
		Initiators:   cfg.Access.Initiators,
		OperatorChat: cfg.Access.OperatorChat,
	})

	serviceLogger := utils.NewKVLogger(deps.Logger, "service")
	approvals := service.NewApprovalService(deps.Engine, deps.Repos.Record, deps.Repos.History, cfg.Dialog.PaymentMethods, serviceLogger)
	dialogs := service.NewDialogService(deps.Taxonomy, approvals, cfg.Dialog.PaymentMethods, serviceLogger)
	notifications := service.NewNotificationService(deps.Notifier, deps.Store, directory, serviceLogger)
	notifications.Register(deps.Dispatcher)

	return &ServiceBundle{
		Directory:    directory,
		Approval:     approvals,
		Dialog:       dialogs,
		Notification: notifications,
	}, nil
}

func ensureParentDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." {
		return nil
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}
	return nil
}
