package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// RunFunc blocks until ctx is cancelled or the work fails.
type RunFunc func(ctx context.Context) error

// Runner turns a blocking RunFunc into a Worker.
type Runner struct {
	name   string
	run    RunFunc
	logger *zap.Logger

	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	err     error
	failed  chan error
	running bool
}

// NewRunner creates a runner. Failures are also reported on Failed().
func NewRunner(name string, run RunFunc, logger *zap.Logger) *Runner {
	return &Runner{
		name:   name,
		run:    run,
		logger: logger,
		failed: make(chan error, 1),
	}
}

func (r *Runner) Name() string {
	return r.name
}

// Start runs the function in its own goroutine.
func (r *Runner) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.running {
		return fmt.Errorf("worker %s already running", r.name)
	}

	runCtx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	r.done = make(chan struct{})
	r.running = true

	go func() {
		defer close(r.done)
		err := r.run(runCtx)
		if err != nil && !errors.Is(err, context.Canceled) {
			r.logger.Error("Worker exited with error", zap.String("worker_name", r.name), zap.Error(err))
			select {
			case r.failed <- err:
			default:
			}
		}
		r.mu.Lock()
		r.err = err
		r.running = false
		r.mu.Unlock()
	}()
	return nil
}

// Stop cancels the run context and waits for the function to return.
func (r *Runner) Stop() error {
	r.mu.Lock()
	cancel, done := r.cancel, r.done
	r.mu.Unlock()

	if cancel == nil {
		return nil
	}
	cancel()
	<-done

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil && !errors.Is(r.err, context.Canceled) {
		return r.err
	}
	return nil
}

// Failed delivers the first error the run function returned.
func (r *Runner) Failed() <-chan error {
	return r.failed
}
