// Package worker runs the long-lived parts of the bot (the chat gateway and
// the admin server) under one start/stop lifecycle.
package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// Worker is a long-lived component. Start returns once the worker is running.
type Worker interface {
	Start(ctx context.Context) error
	Stop() error
	Name() string
}

// failer is implemented by workers that can die on their own, such as Runner.
type failer interface {
	Failed() <-chan error
}

// WorkerManager starts workers in registration order and stops them in
// reverse order.
type WorkerManager struct {
	logger *zap.Logger

	mu      sync.RWMutex
	workers []Worker
	started []Worker
}

// NewWorkerManager creates a new worker manager
func NewWorkerManager(logger *zap.Logger) *WorkerManager {
	return &WorkerManager{logger: logger}
}

// Register adds a worker. Workers registered after StartAll are not started.
func (m *WorkerManager) Register(w Worker) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.workers = append(m.workers, w)
}

// StartAll starts every registered worker. If one fails to start, the ones
// already running are stopped again and the start error is returned.
func (m *WorkerManager) StartAll(ctx context.Context) error {
	m.mu.Lock()
	if m.started != nil {
		m.mu.Unlock()
		return fmt.Errorf("workers already running")
	}
	workers := append([]Worker(nil), m.workers...)
	m.started = make([]Worker, 0, len(workers))
	m.mu.Unlock()

	for _, w := range workers {
		if err := w.Start(ctx); err != nil {
			m.logger.Error("Worker failed to start", zap.String("worker_name", w.Name()), zap.Error(err))
			startErr := fmt.Errorf("%s: %w", w.Name(), err)
			return errors.Join(startErr, m.StopAll())
		}
		m.mu.Lock()
		m.started = append(m.started, w)
		m.mu.Unlock()
		m.logger.Info("Worker started", zap.String("worker_name", w.Name()))
	}
	return nil
}

// StopAll stops the running workers, last started first.
func (m *WorkerManager) StopAll() error {
	m.mu.Lock()
	started := m.started
	m.started = nil
	m.mu.Unlock()

	var errs []error
	for i := len(started) - 1; i >= 0; i-- {
		w := started[i]
		if err := w.Stop(); err != nil {
			m.logger.Error("Worker stopped with error", zap.String("worker_name", w.Name()), zap.Error(err))
			errs = append(errs, fmt.Errorf("%s: %w", w.Name(), err))
			continue
		}
		m.logger.Info("Worker stopped", zap.String("worker_name", w.Name()))
	}
	return errors.Join(errs...)
}

// Failed merges the failure channels of the running workers. The returned
// channel is nil when no running worker can fail on its own.
func (m *WorkerManager) Failed() <-chan error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var sources []Worker
	for _, w := range m.started {
		if _, ok := w.(failer); ok {
			sources = append(sources, w)
		}
	}
	if len(sources) == 0 {
		return nil
	}

	out := make(chan error, len(sources))
	for _, w := range sources {
		go func(w Worker) {
			if err, ok := <-w.(failer).Failed(); ok {
				out <- fmt.Errorf("%s: %w", w.Name(), err)
			}
		}(w)
	}
	return out
}

// GetWorkerCount returns the number of registered workers
func (m *WorkerManager) GetWorkerCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.workers)
}

// IsRunning reports whether StartAll succeeded and StopAll has not run since.
func (m *WorkerManager) IsRunning() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.started != nil
}
