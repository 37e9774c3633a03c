// Package http serves the read-only admin API over the record store.
package http

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/garyjia/budget-approval/internal/application/service"
)

// Logger interface for logging operations
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// HealthProbe reports overall health plus a JSON-serializable breakdown.
type HealthProbe func() (healthy bool, detail interface{})

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// ServerOption customizes a Server.
type ServerOption func(*Server)

// WithHealthProbe makes /health answer 503 while probe reports unhealthy.
func WithHealthProbe(probe HealthProbe) ServerOption {
	return func(s *Server) { s.probe = probe }
}

// Server is the admin HTTP server.
type Server struct {
	config ServerConfig
	router *gin.Engine
	logger Logger
	probe  HealthProbe

	mu   sync.Mutex
	srv  *http.Server
	addr net.Addr
}

// NewServer creates the admin server
func NewServer(config ServerConfig, approvalService service.ApprovalService, logger Logger, opts ...ServerOption) *Server {
	gin.SetMode(gin.ReleaseMode)

	if config.ShutdownTimeout <= 0 {
		config.ShutdownTimeout = 10 * time.Second
	}
	s := &Server{
		config: config,
		router: gin.New(),
		logger: logger,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.router.Use(gin.Recovery(), requestIDMiddleware(), s.accessLog())

	h := NewHandlers(approvalService, s.probe, logger)
	s.router.GET("/health", h.HealthCheck)
	api := s.router.Group("/api/v1")
	{
		api.GET("/records/unsettled", h.ListUnsettled)
		api.GET("/records/:id", h.GetRecord)
	}
	return s
}

func (s *Server) accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Info("HTTP request",
			"request_id", requestID(c),
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"latency", time.Since(start).String(),
		)
	}
}

// Start binds the listener and serves until ctx is cancelled. A bind failure
// is returned immediately.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", net.JoinHostPort(s.config.Host, fmt.Sprint(s.config.Port)))
	if err != nil {
		return fmt.Errorf("admin server listen: %w", err)
	}

	srv := &http.Server{
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		BaseContext:  func(net.Listener) context.Context { return ctx },
	}
	s.mu.Lock()
	s.srv, s.addr = srv, ln.Addr()
	s.mu.Unlock()

	s.logger.Info("Admin server listening", "address", ln.Addr().String())

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()

	select {
	case <-ctx.Done():
		return s.Stop()
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// Stop shuts the server down, waiting for in-flight requests.
func (s *Server) Stop() error {
	s.mu.Lock()
	srv := s.srv
	s.mu.Unlock()
	if srv == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		s.logger.Error("Admin server shutdown error", "error", err)
		return err
	}
	s.logger.Info("Admin server stopped")
	return nil
}

// Addr is the bound address, or nil before Start.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addr
}

// Router returns the gin engine, for tests.
func (s *Server) Router() *gin.Engine {
	return s.router
}
