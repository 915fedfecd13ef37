// Package worker drains the job queue, evaluates each batch and records the
// result in the job store.
package worker

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strconv"
	"sync"
	"time"

	"github.com/okian/pedbp/internal/adapters/mq/queue"
	"github.com/okian/pedbp/internal/domain/evaluate"
	"github.com/okian/pedbp/internal/domain/model"
	"github.com/okian/pedbp/pkg/logger"
	"github.com/okian/pedbp/pkg/metrics"
)

const workerShutdownTimeout = 5 * time.Second

// Job abstracts what workers read off the queue.
type Job = queue.Job

// Evaluator runs the evaluation of one job request.
type Evaluator interface {
	Evaluate(ctx context.Context, req model.JobRequest) (*evaluate.Outcome, error)
}

// Updater records job state transitions.
type Updater interface {
	Update(ctx context.Context, id string, fn func(*model.Job)) (model.Job, error)
}

// Queue defines how workers receive jobs.
type Queue interface {
	Dequeue(ctx context.Context) <-chan Job
}

// Worker processes jobs until stopped.
type Worker interface {
	// Run starts the worker loop until ctx is canceled.
	Run(ctx context.Context)

	// Shutdown stops the worker after the job in progress, if any.
	Shutdown(ctx context.Context) error
}

// InMemoryWorker implements Worker.
type InMemoryWorker struct {
	queue      Queue
	evaluator  Evaluator
	updater    Updater
	name       string
	jobTimeout time.Duration
	now        func() time.Time

	shutdown chan struct{}
	stopOnce sync.Once
	done     chan struct{}

	logger logger.Logger
}

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker(q Queue, ev Evaluator, up Updater, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:     q,
		evaluator: ev,
		updater:   up,
		name:      "worker",
		now:       time.Now,
		shutdown:  make(chan struct{}),
		done:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.logger == nil {
		w.logger = logger.Get().Named(w.name)
	}
	return w
}

// Run starts the worker loop.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	jobs := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case job, ok := <-jobs:
			if !ok {
				return
			}
			if err := w.process(ctx, job); err != nil {
				w.logger.Error(ctx, "error processing job", logger.String("job_id", job.ID), logger.Error(err))
			}
		}
	}
}

func (w *InMemoryWorker) stop() {
	w.stopOnce.Do(func() { close(w.shutdown) })
}

// Shutdown gracefully stops the worker.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	w.stop()
	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// process runs one job. Evaluation failures are recorded on the job and are
// not returned; only store failures are.
func (w *InMemoryWorker) process(ctx context.Context, job Job) error { //nolint:gocritic // hugeParam: Job is passed by value for channel semantics
	start := time.Now()

	if _, err := w.updater.Update(ctx, job.ID, func(j *model.Job) { j.Start(w.now()) }); err != nil {
		metrics.RecordErrorByComponent("worker", "store_error")
		return fmt.Errorf("mark job %s running: %w", job.ID, err)
	}

	evalCtx := ctx
	if w.jobTimeout > 0 {
		var cancel context.CancelFunc
		evalCtx, cancel = context.WithTimeout(ctx, w.jobTimeout)
		defer cancel()
	}
	out, evalErr := w.evaluator.Evaluate(evalCtx, job.Request)

	final, err := w.updater.Update(ctx, job.ID, func(j *model.Job) { j.Finish(out, evalErr, w.now()) })
	if err != nil {
		metrics.RecordErrorByComponent("worker", "store_error")
		return fmt.Errorf("finish job %s: %w", job.ID, err)
	}

	metrics.RecordJobLatency(float64(time.Since(start).Milliseconds()))
	metrics.RecordJobFinished(string(final.Status))
	if evalErr != nil {
		errType := "evaluation_error"
		if errors.Is(evalErr, evaluate.ErrMissingColumns) {
			errType = "missing_columns"
		}
		metrics.RecordErrorByComponent("worker", errType)
		w.logger.Warn(ctx, "job failed",
			logger.String("job_id", job.ID),
			logger.Error(evalErr),
		)
		return nil
	}
	w.logger.Debug(ctx, "job done",
		logger.String("job_id", job.ID),
		logger.Int("rows", job.Rows),
		logger.Duration("elapsed", time.Since(start)),
	)
	return nil
}

// Pool manages multiple workers.
type Pool struct {
	workers []*InMemoryWorker
	queue   Queue
	logger  logger.Logger
}

// NewPool creates a worker pool. A non-positive count uses runtime.NumCPU().
// Options are applied to every worker; names are assigned per worker.
func NewPool(workerCount int, q Queue, ev Evaluator, up Updater, opts ...Option) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU()
	}
	p := &Pool{
		workers: make([]*InMemoryWorker, workerCount),
		queue:   q,
	}
	for i := range p.workers {
		wopts := append([]Option{}, opts...)
		wopts = append(wopts, WithName("worker-"+strconv.Itoa(i)))
		p.workers[i] = NewInMemoryWorker(q, ev, up, wopts...)
	}
	p.logger = p.workers[0].logger.Named("pool")

	metrics.UpdateWorkerCount(workerCount)
	return p
}

// Size returns the number of workers.
func (p *Pool) Size() int { return len(p.workers) }

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
}

// Stop stops all workers without draining the queue.
func (p *Pool) Stop() {
	for _, w := range p.workers {
		w.stop()
	}
	for _, w := range p.workers {
		select {
		case <-w.done:
		case <-time.After(workerShutdownTimeout):
		}
	}
}

// Shutdown closes the queue and lets the workers drain it. If ctx expires
// first the remaining workers are stopped and ctx's error is returned.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	for i, w := range p.workers {
		select {
		case <-w.done:
		case <-ctx.Done():
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
			p.Stop()
			return fmt.Errorf("pool shutdown: %w", ctx.Err())
		}
	}
	return nil
}
