// Package service wires the evaluator, job queue, worker pool, deduper and job
// store into the dependencies required by the HTTP API and the CLI.
package service

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/okian/pedbp/internal/adapters/mq/queue"
	workerpool "github.com/okian/pedbp/internal/adapters/mq/worker"
	"github.com/okian/pedbp/internal/adapters/repository"
	"github.com/okian/pedbp/internal/domain/age"
	"github.com/okian/pedbp/internal/domain/classify"
	"github.com/okian/pedbp/internal/domain/dedupe"
	"github.com/okian/pedbp/internal/domain/evaluate"
	"github.com/okian/pedbp/internal/domain/i18n"
	"github.com/okian/pedbp/internal/domain/model"
	"github.com/okian/pedbp/internal/domain/record"
	"github.com/okian/pedbp/internal/domain/reference"
	"github.com/okian/pedbp/pkg/logger"
	"github.com/okian/pedbp/pkg/metrics"
)

const stopTimeout = 10 * time.Second

// evaluatorAdapter adapts evaluate.Evaluator to worker.Evaluator.
type evaluatorAdapter struct {
	evaluator *evaluate.Evaluator
}

func (a *evaluatorAdapter) Evaluate(ctx context.Context, req model.JobRequest) (*evaluate.Outcome, error) {
	return a.evaluator.Evaluate(ctx, req.Dataset, requestOptions(req)...)
}

func requestOptions(req model.JobRequest) []evaluate.Option {
	opts := []evaluate.Option{
		evaluate.WithQuiet(req.Quiet),
		evaluate.WithDetail(req.Detail),
	}
	if req.Language != "" {
		opts = append(opts, evaluate.WithLanguage(req.Language))
	}
	if len(req.Mapping) > 0 {
		opts = append(opts, evaluate.WithMapping(req.Mapping))
	}
	return opts
}

// Service implements the API dependencies for blood pressure evaluation.
type Service struct {
	mu sync.RWMutex

	// Core components
	evaluator  *evaluate.Evaluator
	classifier *classify.Classifier
	normalizer *record.Normalizer
	store      *repository.MemoryStore
	deduper    dedupe.Deduper
	jobQueue   queue.Queue
	workerPool *workerpool.Pool
	cancel     context.CancelFunc

	// Configuration
	workerCount  int
	queueSize    int
	dedupeSize   int
	maxBatchRows int
	parallelism  int
	retention    time.Duration
	jobTimeout   time.Duration
	language     i18n.Language
	policy       age.Policy
	table        *reference.Table

	// State
	started   bool
	startedAt time.Time

	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of job workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the maximum number of queued jobs.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize sets how many job IDs are remembered for idempotency.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithMaxBatchRows caps the number of rows accepted per request.
func WithMaxBatchRows(rows int) Option {
	return func(s *Service) {
		if rows > 0 {
			s.maxBatchRows = rows
		}
	}
}

// WithParallelism sets how many goroutines evaluate the rows of one batch.
func WithParallelism(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.parallelism = n
		}
	}
}

// WithRetention sets how long finished jobs are kept. Zero keeps them forever.
func WithRetention(d time.Duration) Option {
	return func(s *Service) {
		if d >= 0 {
			s.retention = d
		}
	}
}

// WithJobTimeout bounds the evaluation of a single job.
func WithJobTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.jobTimeout = d
		}
	}
}

// WithLanguage sets the default output language.
func WithLanguage(l i18n.Language) Option {
	return func(s *Service) {
		if l.Valid() {
			s.language = l
		}
	}
}

// WithAgePolicy sets how bare ages above 18 are read.
func WithAgePolicy(p age.Policy) Option {
	return func(s *Service) {
		if p != "" {
			s.policy = p
		}
	}
}

// WithTable replaces the bundled reference table.
func WithTable(t *reference.Table) Option {
	return func(s *Service) {
		if t != nil {
			s.table = t
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount:  runtime.NumCPU(),
		queueSize:    1024,
		dedupeSize:   50_000,
		maxBatchRows: 100_000,
		parallelism:  runtime.GOMAXPROCS(0),
		retention:    time.Hour,
		language:     i18n.Chinese,
		policy:       age.PolicyStrict,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.table == nil {
		s.table = reference.Default()
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}

	s.evaluator = evaluate.New(
		evaluate.WithLanguage(s.language),
		evaluate.WithAgePolicy(s.policy),
		evaluate.WithTable(s.table),
		evaluate.WithParallelism(s.parallelism),
		evaluate.WithLogger(s.logger.Named("evaluate")),
	)
	s.classifier = classify.New(s.table)
	s.normalizer = record.NewNormalizer(age.NewParser(age.WithPolicy(s.policy)))
	return s
}

// Start initializes the job pipeline and starts the workers.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if _, err := age.ParsePolicy(string(s.policy)); err != nil {
		return fmt.Errorf("start service: %w", err)
	}

	s.logger.Info(ctx, "starting evaluation service...")
	if reference.IsDefault(s.table) {
		s.logger.Warn(ctx, reference.IllustrativeWarning)
	}

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.cancel = cancel
	s.store = repository.NewMemoryStore(runCtx, repository.WithRetention(s.retention))
	s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize))
	s.jobQueue = queue.NewInMemoryQueue(queue.WithCapacity(s.queueSize))

	wopts := []workerpool.Option{workerpool.WithLogger(s.logger.Named("worker"))}
	if s.jobTimeout > 0 {
		wopts = append(wopts, workerpool.WithJobTimeout(s.jobTimeout))
	}
	s.workerPool = workerpool.NewPool(s.workerCount, s.jobQueue, &evaluatorAdapter{evaluator: s.evaluator}, s.store, wopts...)
	s.workerPool.Start(runCtx)

	s.started = true
	s.startedAt = time.Now()
	s.logger.Info(ctx, "evaluation service started",
		logger.Int("workers", s.workerPool.Size()),
		logger.Int("queueSize", s.queueSize),
		logger.Int("dedupeSize", s.dedupeSize),
		logger.Int("referenceRows", s.table.Len()),
		logger.String("language", string(s.language)),
		logger.String("agePolicy", string(s.policy)),
	)
	return nil
}

// Stop drains queued jobs and shuts the pipeline down.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), stopTimeout)
	defer cancel()
	s.logger.Info(ctx, "stopping evaluation service...")

	if err := s.workerPool.Shutdown(ctx); err != nil {
		s.logger.Warn(ctx, "worker pool did not drain", logger.Error(err))
	}
	if err := s.store.Close(); err != nil {
		s.logger.Error(ctx, "error closing job store", logger.Error(err))
	}
	s.cancel()

	s.started = false
	s.logger.Info(ctx, "evaluation service stopped")
}

func (s *Service) checkRows(n int) error {
	if n > s.maxBatchRows {
		return fmt.Errorf("%w: %d rows, limit is %d", ErrTooManyRows, n, s.maxBatchRows)
	}
	return nil
}

func validateRequest(req model.JobRequest) error {
	if req.Language != "" && !req.Language.Valid() {
		return fmt.Errorf("%w: %q", i18n.ErrUnknownLanguage, req.Language)
	}
	return req.Mapping.Validate()
}

// Evaluate classifies a dataset synchronously.
func (s *Service) Evaluate(ctx context.Context, req model.JobRequest) (*evaluate.Outcome, error) { //nolint:gocritic // hugeParam: request is read-only
	if err := s.checkRows(req.Dataset.Len()); err != nil {
		return nil, err
	}
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	return s.evaluator.Evaluate(ctx, req.Dataset, requestOptions(req)...)
}

// SubmitJob queues a dataset for asynchronous evaluation. An empty id is
// replaced with a generated one. Submitting an id that is already known
// returns the existing job with created set to false.
func (s *Service) SubmitJob(ctx context.Context, id string, req model.JobRequest) (job model.Job, created bool, err error) { //nolint:gocritic // hugeParam: request is moved into the job
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.started {
		return model.Job{}, false, ErrNotStarted
	}
	if err := s.checkRows(req.Dataset.Len()); err != nil {
		return model.Job{}, false, err
	}
	if err := validateRequest(req); err != nil {
		return model.Job{}, false, err
	}
	if id == "" {
		id = uuid.NewString()
	}

	if s.deduper.SeenAndRecord(ctx, id) {
		existing, getErr := s.store.Get(ctx, id)
		if getErr == nil {
			metrics.RecordJobDuplicate()
			s.logger.Debug(ctx, "duplicate job submission", logger.String("job_id", id))
			return existing, false, nil
		}
		// The earlier job expired from the store; accept the id again.
	}

	job = model.NewJob(id, req, time.Now())
	if err := s.store.Create(ctx, job); err != nil {
		if errors.Is(err, repository.ErrExists) {
			existing, getErr := s.store.Get(ctx, id)
			if getErr == nil {
				metrics.RecordJobDuplicate()
				return existing, false, nil
			}
		}
		s.deduper.Unrecord(ctx, id)
		return model.Job{}, false, fmt.Errorf("store job %s: %w", id, err)
	}

	if err := s.jobQueue.Enqueue(ctx, job); err != nil {
		s.deduper.Unrecord(ctx, id)
		if delErr := s.store.Delete(ctx, id); delErr != nil {
			s.logger.Warn(ctx, "failed to remove rejected job", logger.String("job_id", id), logger.Error(delErr))
		}
		if errors.Is(err, queue.ErrFull) || errors.Is(err, queue.ErrClosed) {
			return model.Job{}, false, fmt.Errorf("%w: %w", ErrBusy, err)
		}
		return model.Job{}, false, err
	}

	s.logger.Debug(ctx, "job queued", logger.String("job_id", id), logger.Int("rows", job.Rows))
	job.Request = model.JobRequest{}
	return job, true, nil
}

// GetJob returns the current state of a job.
func (s *Service) GetJob(ctx context.Context, id string) (model.Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.started {
		return model.Job{}, ErrNotStarted
	}
	job, err := s.store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.Job{}, fmt.Errorf("%w: %s", ErrJobNotFound, id)
		}
		return model.Job{}, err
	}
	job.Request = model.JobRequest{}
	return job, nil
}

// Lookup returns the reference stratum for raw sex, age and height values,
// normalized the same way dataset rows are.
func (s *Service) Lookup(_ context.Context, sex, ageValue, height string) (reference.Row, error) {
	n := s.normalizer.Normalize(record.Input{
		Sex:    sex,
		Age:    ageValue,
		Height: record.NumberPtr(height),
	})
	switch {
	case !n.Sex.Valid():
		return reference.Row{}, fmt.Errorf("%w: unrecognized sex %q", ErrInvalidQuery, sex)
	case !n.AgeOK:
		return reference.Row{}, fmt.Errorf("%w: unparseable age %q", ErrInvalidQuery, ageValue)
	case !n.HeightOK:
		return reference.Row{}, fmt.Errorf("%w: invalid height %q", ErrInvalidQuery, height)
	}

	row, ok := s.classifier.Stratum(n)
	if !ok {
		return reference.Row{}, fmt.Errorf("%w: sex=%s age=%d height=%d", ErrNoStratum, n.Sex, n.AgeKey, n.HeightKey)
	}
	return row, nil
}

// Coverage summarizes the reference table.
func (s *Service) Coverage(context.Context) []reference.Stratum {
	return s.table.Coverage()
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]any{
		"started":       s.started,
		"workerCount":   s.workerCount,
		"queueSize":     s.queueSize,
		"dedupeSize":    s.dedupeSize,
		"maxBatchRows":  s.maxBatchRows,
		"language":      string(s.language),
		"agePolicy":     string(s.policy),
		"referenceRows": s.table.Len(),
	}

	if s.started {
		queueLen := s.jobQueue.Len(ctx)
		jobs := s.store.Count(ctx)
		byStatus := make(map[string]int, 4)
		for status, n := range s.store.CountByStatus(ctx) {
			byStatus[string(status)] = n
		}

		stats["queueLength"] = queueLen
		stats["jobs"] = jobs
		stats["jobsByStatus"] = byStatus
		stats["dedupeEntries"] = s.deduper.Size()
		stats["uptimeSeconds"] = int(time.Since(s.startedAt).Seconds())

		metrics.UpdateJobQueueSize(queueLen)
		metrics.UpdateJobStoreSize(jobs)
		metrics.UpdateWorkerCount(s.workerPool.Size())
	}

	return stats
}
