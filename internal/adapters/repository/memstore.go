package repository

import (
	"context"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"

	"github.com/okian/pedbp/internal/domain/model"
	"github.com/okian/pedbp/pkg/metrics"
)

const (
	defaultShardCount    = 16
	defaultRetention     = time.Hour
	defaultSweepInterval = time.Minute
)

type shard struct {
	mu   sync.RWMutex
	jobs map[string]*model.Job
}

// MemoryStore is a sharded in-memory Store. Finished jobs older than the
// retention period are removed by a background sweeper.
type MemoryStore struct {
	shards        []*shard
	shardCount    int
	retention     time.Duration
	sweepInterval time.Duration
	now           func() time.Time

	stop     chan struct{}
	stopOnce sync.Once
	done     chan struct{}
}

// NewMemoryStore creates a store and starts its sweeper, which runs until ctx
// is canceled or Close is called.
func NewMemoryStore(ctx context.Context, opts ...Option) *MemoryStore {
	s := &MemoryStore{
		shardCount:    defaultShardCount,
		retention:     defaultRetention,
		sweepInterval: defaultSweepInterval,
		now:           time.Now,
		stop:          make(chan struct{}),
		done:          make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.shards = make([]*shard, s.shardCount)
	for i := range s.shards {
		s.shards[i] = &shard{jobs: make(map[string]*model.Job)}
	}

	go s.sweepLoop(ctx)
	return s
}

func (s *MemoryStore) shardFor(id string) *shard {
	return s.shards[xxhash.Sum64String(id)%uint64(len(s.shards))]
}

// Create stores a new job.
func (s *MemoryStore) Create(_ context.Context, job model.Job) error { //nolint:gocritic // hugeParam: stored by value
	if job.ID == "" {
		return ErrInvalidID
	}
	sh := s.shardFor(job.ID)
	sh.mu.Lock()
	if _, ok := sh.jobs[job.ID]; ok {
		sh.mu.Unlock()
		return ErrExists
	}
	sh.jobs[job.ID] = &job
	sh.mu.Unlock()

	metrics.UpdateJobStoreSize(s.Count(context.Background()))
	return nil
}

// Get returns a snapshot of the job.
func (s *MemoryStore) Get(_ context.Context, id string) (model.Job, error) {
	sh := s.shardFor(id)
	sh.mu.RLock()
	defer sh.mu.RUnlock()

	j, ok := sh.jobs[id]
	if !ok {
		metrics.RecordErrorByComponent("repository", "not_found")
		return model.Job{}, ErrNotFound
	}
	return *j, nil
}

// Update mutates the stored job with fn.
func (s *MemoryStore) Update(_ context.Context, id string, fn func(*model.Job)) (model.Job, error) {
	sh := s.shardFor(id)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	j, ok := sh.jobs[id]
	if !ok {
		return model.Job{}, ErrNotFound
	}
	fn(j)
	j.ID = id
	return *j, nil
}

// Delete removes a job.
func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	sh := s.shardFor(id)
	sh.mu.Lock()
	if _, ok := sh.jobs[id]; !ok {
		sh.mu.Unlock()
		return ErrNotFound
	}
	delete(sh.jobs, id)
	sh.mu.Unlock()

	metrics.UpdateJobStoreSize(s.Count(ctx))
	return nil
}

// Count returns the number of stored jobs.
func (s *MemoryStore) Count(_ context.Context) int {
	n := 0
	for _, sh := range s.shards {
		sh.mu.RLock()
		n += len(sh.jobs)
		sh.mu.RUnlock()
	}
	return n
}

// CountByStatus returns the number of stored jobs per status.
func (s *MemoryStore) CountByStatus(_ context.Context) map[model.JobStatus]int {
	out := make(map[model.JobStatus]int)
	for _, sh := range s.shards {
		sh.mu.RLock()
		for _, j := range sh.jobs {
			out[j.Status]++
		}
		sh.mu.RUnlock()
	}
	return out
}

// Sweep removes finished jobs older than the retention period and returns
// how many were removed.
func (s *MemoryStore) Sweep(ctx context.Context) int {
	if s.retention == 0 {
		return 0
	}
	cutoff := s.now().Add(-s.retention)
	removed := 0
	for _, sh := range s.shards {
		sh.mu.Lock()
		for id, j := range sh.jobs {
			if j.Status.Terminal() && j.FinishedAt != nil && j.FinishedAt.Before(cutoff) {
				delete(sh.jobs, id)
				removed++
			}
		}
		sh.mu.Unlock()
	}
	metrics.UpdateJobStoreSize(s.Count(ctx))
	return removed
}

func (s *MemoryStore) sweepLoop(ctx context.Context) {
	defer close(s.done)
	ticker := time.NewTicker(s.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stop:
			return
		case <-ticker.C:
			s.Sweep(ctx)
		}
	}
}

// Close stops the sweeper.
func (s *MemoryStore) Close() error {
	s.stopOnce.Do(func() { close(s.stop) })
	<-s.done
	return nil
}
