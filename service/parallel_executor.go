package service

import (
	"context"
	"fmt"
	"runtime"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/connascence-tools/conscan/domain"
	"github.com/connascence-tools/conscan/internal/config"
)

// Floors for the executor when neither the configuration nor the runtime
// yields usable values.
const (
	DefaultMaxConcurrency = 4
	DefaultTimeout        = 5 * time.Minute
)

// TaskError records which task failed and why.
type TaskError struct {
	TaskName string
	Err      error
}

func (e TaskError) Error() string {
	return fmt.Sprintf("[%s] %v", e.TaskName, e.Err)
}

func (e TaskError) Unwrap() error { return e.Err }

// AggregatedError carries every task failure from one run so a single bad
// file does not hide the others.
type AggregatedError struct {
	Errors []TaskError
}

func (e *AggregatedError) Error() string {
	switch len(e.Errors) {
	case 0:
		return "no errors"
	case 1:
		return e.Errors[0].Error()
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%d tasks failed:\n", len(e.Errors))
	for i, te := range e.Errors {
		fmt.Fprintf(&sb, "  %d. %s\n", i+1, te.Error())
	}
	return sb.String()
}

// Unwrap exposes the first failure to errors.Is and errors.As.
func (e *AggregatedError) Unwrap() error {
	if len(e.Errors) == 0 {
		return nil
	}
	return e.Errors[0].Err
}

// ParallelExecutorImpl runs per-file analysis tasks on a bounded worker
// pool. It implements domain.ParallelExecutor.
type ParallelExecutorImpl struct {
	mu             sync.RWMutex
	maxConcurrency int
	timeout        time.Duration
	progress       domain.ProgressManager
}

// NewParallelExecutor sizes the pool to the machine: one worker per logical
// CPU and the default run timeout.
func NewParallelExecutor() *ParallelExecutorImpl {
	return &ParallelExecutorImpl{
		maxConcurrency: workerCount(0),
		timeout:        DefaultTimeout,
	}
}

// NewParallelExecutorFromConfig applies the performance settings. Zero means
// auto: one worker per CPU and the default timeout.
func NewParallelExecutorFromConfig(cfg *config.PerformanceConfig) *ParallelExecutorImpl {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &ParallelExecutorImpl{
		maxConcurrency: workerCount(cfg.MaxGoroutines),
		timeout:        timeout,
	}
}

// NewParallelExecutorWithProgress additionally reports per-task completion
// through the given progress manager.
func NewParallelExecutorWithProgress(cfg *config.PerformanceConfig, pm domain.ProgressManager) *ParallelExecutorImpl {
	e := NewParallelExecutorFromConfig(cfg)
	e.progress = pm
	return e
}

func workerCount(configured int) int {
	if configured > 0 {
		return configured
	}
	if n := runtime.NumCPU(); n > 0 {
		return n
	}
	return DefaultMaxConcurrency
}

// Execute runs every enabled task, at most maxConcurrency at a time, within
// the configured timeout. A failing task does not stop the run; failures are
// collected and returned together as an *AggregatedError. When no task
// failed, the returned error reflects cancellation or timeout, if any.
func (e *ParallelExecutorImpl) Execute(ctx context.Context, tasks []domain.ExecutableTask) error {
	pending := make([]domain.ExecutableTask, 0, len(tasks))
	for _, t := range tasks {
		if t.IsEnabled() {
			pending = append(pending, t)
		}
	}
	if len(pending) == 0 {
		return nil
	}

	e.mu.RLock()
	workers := e.maxConcurrency
	timeout := e.timeout
	e.mu.RUnlock()

	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var tracker domain.TaskProgress = &NoOpTaskProgress{}
	if e.progress != nil {
		tracker = e.progress.StartTask("Analyzing files", len(pending))
	}
	defer tracker.Complete()

	failures := make(chan TaskError, len(pending))
	g, gCtx := errgroup.WithContext(runCtx)
	g.SetLimit(workers)

	for _, t := range pending {
		t := t
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return err
			}
			if _, err := t.Execute(gCtx); err != nil {
				failures <- TaskError{TaskName: t.Name(), Err: err}
			}
			tracker.Increment(1)
			// A failed file must not cancel the siblings still running.
			return nil
		})
	}

	waitErr := g.Wait()
	close(failures)

	agg := &AggregatedError{}
	for te := range failures {
		agg.Errors = append(agg.Errors, te)
	}
	if len(agg.Errors) > 0 {
		return agg
	}
	return waitErr
}

// SetMaxConcurrency overrides the worker count. Values below one are ignored.
func (e *ParallelExecutorImpl) SetMaxConcurrency(n int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if n > 0 {
		e.maxConcurrency = n
	}
}

// SetTimeout overrides the run timeout. Non-positive values are ignored.
func (e *ParallelExecutorImpl) SetTimeout(d time.Duration) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if d > 0 {
		e.timeout = d
	}
}
