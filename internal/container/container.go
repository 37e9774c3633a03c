// Package container wires the bot together: ordered initialization in Start
// and reverse-order teardown in Close.
package container

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/garyjia/budget-approval/internal/application/dispatcher"
	"github.com/garyjia/budget-approval/internal/config"
	infraLark "github.com/garyjia/budget-approval/internal/infrastructure/external/lark"
	"github.com/garyjia/budget-approval/internal/infrastructure/persistence/interaction"
	"github.com/garyjia/budget-approval/internal/infrastructure/worker"
	"github.com/garyjia/budget-approval/internal/interfaces/bot"
	apihttp "github.com/garyjia/budget-approval/internal/interfaces/http"
	"github.com/garyjia/budget-approval/internal/interfaces/websocket"
	"github.com/garyjia/budget-approval/internal/tracing"
	"github.com/garyjia/budget-approval/pkg/utils"
)

// Container manages all application dependencies and lifecycle.
type Container struct {
	config  *config.Config
	logger  *zap.Logger
	version string

	db           *DatabaseBundle
	repositories *RepositoryBundle
	interactions *interaction.BoltStore
	messenger    *infraLark.Messenger
	integrations *IntegrationBundle
	dispatcher   dispatcher.Dispatcher
	services     *ServiceBundle
	router       *bot.Router

	workers *worker.WorkerManager

	mu     sync.Mutex
	ready  atomic.Bool
	closed atomic.Bool
}

// HealthStatus represents the health of all components.
type HealthStatus struct {
	Overall    bool                       `json:"overall"`
	Components map[string]ComponentHealth `json:"components"`
}

// ComponentHealth represents health of a single component.
type ComponentHealth struct {
	Healthy bool   `json:"healthy"`
	Message string `json:"message,omitempty"`
}

// NewContainer creates a new container from configuration.
// It does not initialize components; call Start.
func NewContainer(cfg *config.Config, logger *zap.Logger, version string) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Container{
		config:  cfg,
		logger:  logger,
		version: version,
	}, nil
}

// Start initializes all components in dependency order and launches the
// gateway and the admin server. On failure everything opened so far is closed.
func (c *Container) Start(ctx context.Context) (err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed.Load() {
		return fmt.Errorf("container has been closed")
	}
	if c.ready.Load() {
		return fmt.Errorf("container already started")
	}

	defer func() {
		if err != nil {
			c.teardown()
		}
	}()

	c.logger.Info("Starting container initialization")

	steps := []struct {
		name string
		fn   func(ctx context.Context) error
	}{
		{"tracing", c.initTracing},
		{"database", c.initDatabase},
		{"interaction store", c.initInteractions},
		{"external clients", c.initExternalClients},
		{"services", c.initServices},
		{"workers", c.initWorkers},
	}
	for _, step := range steps {
		if err := step.fn(ctx); err != nil {
			return fmt.Errorf("failed to initialize %s: %w", step.name, err)
		}
		c.logger.Info("Component initialized", zap.String("component", step.name))
	}

	c.ready.Store(true)
	c.logger.Info("Container started successfully")
	return nil
}

// Failed delivers the first error of a long-running worker, such as a lost
// gateway connection. The channel is nil before Start.
func (c *Container) Failed() <-chan error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.workers == nil {
		return nil
	}
	return c.workers.Failed()
}

// Close gracefully shuts down all components in reverse order.
func (c *Container) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed.Load() {
		return fmt.Errorf("container already closed")
	}
	c.logger.Info("Closing container")

	err := c.teardown()
	c.closed.Store(true)
	c.ready.Store(false)

	if err != nil {
		c.logger.Error("Container closed with errors", zap.Error(err))
		return err
	}
	c.logger.Info("Container closed successfully")
	return nil
}

func (c *Container) teardown() error {
	var errs []error

	if c.workers != nil && c.workers.IsRunning() {
		if err := c.workers.StopAll(); err != nil {
			errs = append(errs, fmt.Errorf("stop workers: %w", err))
		}
	}

	if c.dispatcher != nil {
		if err := c.dispatcher.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close dispatcher: %w", err))
		}
	}

	if c.interactions != nil {
		if err := c.interactions.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close interaction store: %w", err))
		}
	}

	if c.db != nil {
		if err := c.db.DB.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close database: %w", err))
		}
	}

	if err := tracing.Shutdown(context.Background()); err != nil {
		errs = append(errs, fmt.Errorf("shutdown tracing: %w", err))
	}

	return errors.Join(errs...)
}

// Ready returns true when all components are initialized.
func (c *Container) Ready() bool {
	return c.ready.Load()
}

// Health returns health status of all components.
func (c *Container) Health() *HealthStatus {
	status := &HealthStatus{
		Overall:    true,
		Components: make(map[string]ComponentHealth),
	}
	set := func(name string, healthy bool, msg string) {
		status.Components[name] = ComponentHealth{Healthy: healthy, Message: msg}
		if !healthy {
			status.Overall = false
		}
	}

	switch {
	case c.db == nil:
		set("database", false, "not initialized")
	default:
		if err := c.db.DB.Health(context.Background()); err != nil {
			set("database", false, err.Error())
		} else {
			set("database", true, "")
		}
	}

	if c.workers == nil {
		set("workers", false, "not initialized")
	} else {
		set("workers", c.workers.IsRunning(), fmt.Sprintf("worker count: %d", c.workers.GetWorkerCount()))
	}

	set("interactions", c.interactions != nil, "")
	set("dispatcher", c.dispatcher != nil, "")
	return status
}

func (c *Container) initTracing(ctx context.Context) error {
	return tracing.Init(tracing.Config{
		Enabled:        c.config.Tracing.Enabled,
		ServiceName:    c.config.Tracing.ServiceName,
		ServiceVersion: c.version,
		OutputPath:     c.config.Tracing.OutputPath,
	})
}

func (c *Container) initDatabase(ctx context.Context) error {
	db, err := ProvideDatabase(c.config.Database, c.logger)
	if err != nil {
		return err
	}
	c.db = db

	repos, err := ProvideRepositories(db.DB, c.logger)
	if err != nil {
		return err
	}
	c.repositories = repos
	return nil
}

func (c *Container) initInteractions(ctx context.Context) error {
	store, err := ProvideInteractionStore(c.config.Interactions, c.logger)
	if err != nil {
		return err
	}
	c.interactions = store
	return nil
}

func (c *Container) initExternalClients(ctx context.Context) error {
	messenger, err := ProvideMessenger(c.config.Lark, c.logger)
	if err != nil {
		return err
	}
	c.messenger = messenger

	integrations, err := ProvideIntegrations(ctx, c.config, c.logger)
	if err != nil {
		return err
	}
	c.integrations = integrations
	return nil
}

func (c *Container) initServices(ctx context.Context) error {
	c.dispatcher = ProvideDispatcher(c.logger)

	engine, err := ProvideWorkflowEngine(&WorkflowDeps{
		Repos:      c.repositories,
		TxManager:  c.db.TransactionMgr,
		Dispatcher: c.dispatcher,
		Archive:    c.integrations.Archive,
		Logger:     c.logger,
	})
	if err != nil {
		return err
	}

	services, err := ProvideServices(&ServiceDeps{
		Config:     c.config,
		Engine:     engine,
		Repos:      c.repositories,
		Taxonomy:   c.integrations.Taxonomy,
		Notifier:   c.messenger,
		Store:      c.interactions,
		Dispatcher: c.dispatcher,
		Logger:     c.logger,
	})
	if err != nil {
		return err
	}
	c.services = services

	c.router = bot.NewRouter(
		services.Approval,
		services.Dialog,
		services.Notification,
		services.Directory,
		c.messenger,
		c.logger.Named("bot"),
	)
	return nil
}

func (c *Container) initWorkers(ctx context.Context) error {
	c.workers = worker.NewWorkerManager(c.logger)

	gateway := websocket.NewLarkAdapter(websocket.LarkAdapterConfig{
		AppID:     c.config.Lark.AppID,
		AppSecret: c.config.Lark.AppSecret,
	}, c.router, c.logger.Named("gateway"))
	c.workers.Register(worker.NewRunner("lark-gateway", gateway.Start, c.logger))

	if c.config.Server.Enabled {
		srv := apihttp.NewServer(apihttp.ServerConfig{
			Host:         c.config.Server.Host,
			Port:         c.config.Server.Port,
			ReadTimeout:  c.config.Server.ReadTimeout,
			WriteTimeout: c.config.Server.WriteTimeout,
		}, c.services.Approval, utils.NewKVLogger(c.logger, "http"),
			apihttp.WithHealthProbe(func() (bool, interface{}) {
				h := c.Health()
				return h.Overall, h.Components
			}))
		c.workers.Register(worker.NewRunner("admin-http", srv.Start, c.logger))
	}

	return c.workers.StartAll(ctx)
}
