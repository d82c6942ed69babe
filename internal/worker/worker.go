package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"downsub/internal/models"
	"downsub/internal/storage"
)

// Defaults for Options
const (
	DefaultConcurrency = 4
	DefaultMaxRetries  = 2
	DefaultInterval    = 1 * time.Second
)

// JobHandler is a function that processes a job
type JobHandler func(ctx context.Context, job *models.Job) error

// Options configures a Worker
type Options struct {
	Concurrency int
	MaxRetries  int
	Interval    time.Duration
}

// Worker processes queued jobs with a fixed number of goroutines
type Worker struct {
	jobRepo     *storage.JobRepository
	handlers    map[string]JobHandler
	concurrency int
	maxRetries  int
	interval    time.Duration
	logger      *slog.Logger
	wake        chan struct{}
	stop        chan struct{}
	stopOnce    sync.Once
	wg          sync.WaitGroup
	mu          sync.RWMutex
}

// NewWorker creates a new worker
func NewWorker(jobRepo *storage.JobRepository, logger *slog.Logger, opts Options) *Worker {
	if opts.Concurrency <= 0 {
		opts.Concurrency = DefaultConcurrency
	}
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Worker{
		jobRepo:     jobRepo,
		handlers:    make(map[string]JobHandler),
		concurrency: opts.Concurrency,
		maxRetries:  opts.MaxRetries,
		interval:    opts.Interval,
		logger:      logger,
		wake:        make(chan struct{}, opts.Concurrency),
		stop:        make(chan struct{}),
	}
}

// RegisterHandler registers a handler for a job type
func (w *Worker) RegisterHandler(jobType string, handler JobHandler) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.handlers[jobType] = handler
}

// Start requeues jobs interrupted by a previous run and begins processing
func (w *Worker) Start(ctx context.Context) error {
	n, err := w.jobRepo.RequeueRunning(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		w.logger.Info("requeued interrupted jobs", "count", n)
	}

	for i := 0; i < w.concurrency; i++ {
		w.wg.Add(1)
		go w.run(ctx, i)
	}
	w.logger.Info("worker started", "concurrency", w.concurrency)
	w.Notify()
	return nil
}

// Stop gracefully stops the worker, waiting for running jobs
func (w *Worker) Stop() {
	w.stopOnce.Do(func() { close(w.stop) })
	w.wg.Wait()
	w.logger.Info("worker stopped")
}

// Notify wakes an idle goroutine so a new job starts without waiting for the next tick
func (w *Worker) Notify() {
	select {
	case w.wake <- struct{}{}:
	default:
	}
}

// SubmitJob creates a new job and adds it to the queue
func (w *Worker) SubmitJob(ctx context.Context, job *models.Job) error {
	if err := w.jobRepo.Create(ctx, job); err != nil {
		return err
	}
	w.logger.Info("job submitted", "job_id", job.ID, "type", job.Type)
	w.Notify()
	return nil
}

func (w *Worker) run(ctx context.Context, slot int) {
	defer w.wg.Done()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stop:
			return
		case <-ticker.C:
		case <-w.wake:
		}

		for w.processNextJob(ctx, slot) {
			select {
			case <-ctx.Done():
				return
			case <-w.stop:
				return
			default:
			}
		}
	}
}

// processNextJob claims and runs one job. It reports whether a job was claimed.
func (w *Worker) processNextJob(ctx context.Context, slot int) bool {
	job, err := w.jobRepo.ClaimNext(ctx)
	if err != nil {
		w.logger.Error("error claiming next job", "error", err)
		return false
	}
	if job == nil {
		return false
	}

	logger := w.logger.With("job_id", job.ID, "type", job.Type, "slot", slot)

	w.mu.RLock()
	handler, ok := w.handlers[job.Type]
	w.mu.RUnlock()

	if !ok {
		logger.Error("no handler for job type")
		if err := w.jobRepo.Fail(ctx, job.ID, "internal", "no handler registered for job type: "+job.Type); err != nil {
			logger.Error("error failing job", "error", err)
		}
		return true
	}

	logger.Info("processing job", "attempt", job.RetryCount+1)
	start := time.Now()

	if err := w.execute(ctx, handler, job); err != nil {
		logger.Warn("job failed", "error", err, "duration", time.Since(start))
		w.handleJobFailure(ctx, logger, job, err)
		return true
	}

	if err := w.jobRepo.Complete(ctx, job.ID); err != nil {
		logger.Error("error completing job", "error", err)
		return true
	}

	logger.Info("job completed", "duration", time.Since(start))
	return true
}

func (w *Worker) execute(ctx context.Context, handler JobHandler, job *models.Job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("job handler panicked: %v", r)
		}
	}()
	return handler(ctx, job)
}

func (w *Worker) handleJobFailure(ctx context.Context, logger *slog.Logger, job *models.Job, jobErr error) {
	if isRetryable(jobErr) && job.RetryCount < w.maxRetries {
		if err := w.jobRepo.Retry(ctx, job.ID); err != nil {
			logger.Error("error retrying job", "error", err)
		} else {
			logger.Info("job queued for retry", "attempt", job.RetryCount+2, "max_attempts", w.maxRetries+1)
		}
		return
	}

	if err := w.jobRepo.Fail(ctx, job.ID, errorCode(jobErr), jobErr.Error()); err != nil {
		logger.Error("error failing job", "error", err)
	}
}

func isRetryable(err error) bool {
	var r interface{ Retryable() bool }
	return errors.As(err, &r) && r.Retryable()
}

func errorCode(err error) string {
	var c interface{ ErrorCode() string }
	if errors.As(err, &c) && c.ErrorCode() != "" {
		return c.ErrorCode()
	}
	return "internal"
}
